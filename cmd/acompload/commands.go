package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/job"
	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/scheduler"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Read, clean and load the workbook, then drop superseded rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.log.WithField("dsn", a.cfg.Redacted()).Debug("destination")
			sum, err := a.runner().Run(cmd.Context())
			if err != nil {
				return classify(err)
			}
			printSummary(cmd.OutOrStdout(), sum)
			// Partition and dedup failures are logged; the run still succeeds.
			return nil
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Read, validate and filter the workbook without writing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sum, err := a.runner().Check(cmd.Context())
			if err != nil {
				return classify(err)
			}
			printSummary(cmd.OutOrStdout(), sum)
			return nil
		},
	}
}

func newDedupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dedup",
		Short: "Keep only the newest row per (PEDIDO, SKU, FORN, NF_1)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.runner().Dedup(cmd.Context())
			if err != nil {
				return classify(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted: %d\n", n)
			return nil
		},
	}
}

func newScheduleCmd(a *app) *cobra.Command {
	var spec string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Repeat run on a cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if spec == "" {
				spec = a.cfg.Cron
			}
			r := a.runner()
			s, err := scheduler.New(spec, func(ctx context.Context) error {
				sum, err := r.Run(ctx)
				if err != nil {
					return err
				}
				return sum.Err()
			}, a.log)
			if err != nil {
				return withCode(exitUsage, err)
			}
			return s.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&spec, "cron", "", "Cron expression (default SCHEDULE_CRON)")
	return cmd
}

func printSummary(w io.Writer, s *job.Summary) {
	fmt.Fprintf(w, "run_id:            %s\n", s.RunID)
	fmt.Fprintf(w, "rows read:         %d\n", s.Read)
	fmt.Fprintf(w, "anomalies:         %d\n", s.Anomalies.Anomalies)
	for _, k := range s.Anomalies.Keys() {
		fmt.Fprintf(w, "  %-40s %d\n", k, s.Anomalies.ByColumn[k])
	}
	fmt.Fprintf(w, "outside window:    %d\n", s.Filter.OutsideWindow)
	fmt.Fprintf(w, "missing NF_1:      %d\n", s.Filter.MissingDocument)
	fmt.Fprintf(w, "kept:              %d\n", s.Filter.Kept)
	if s.Collapsed > 0 {
		fmt.Fprintf(w, "collapsed:         %d\n", s.Collapsed)
	}
	if s.Partitions == 0 && len(s.Load.Results) == 0 {
		return
	}
	fmt.Fprintf(w, "partitions:        %d\n", s.Partitions)
	fmt.Fprintf(w, "inserted:          %d\n", s.Load.Inserted())
	if failed := s.Load.Failed(); len(failed) > 0 {
		ids := make([]string, len(failed))
		for i, f := range failed {
			ids[i] = fmt.Sprint(f.Partition)
		}
		fmt.Fprintf(w, "failed partitions: %s (%d rows)\n", strings.Join(ids, ", "), s.Load.FailedRows())
	}
	if s.DedupErr != nil {
		fmt.Fprintf(w, "dedup:             failed: %v\n", s.DedupErr)
	} else {
		fmt.Fprintf(w, "deduplicated:      %d\n", s.Deduplicated)
	}
	fmt.Fprintf(w, "elapsed:           %s\n", s.Elapsed.Truncate(time.Millisecond))
}
