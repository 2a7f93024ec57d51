package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/job"
	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/logging"
	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/metrics"
	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/metrics/prompush"
)

func newRootCmd(a *app) *cobra.Command {
	runCmd := newRunCmd(a)
	cmd := &cobra.Command{
		Use:           "acompload",
		Short:         "Load the purchase-order delivery tracking workbook into the database",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		RunE: runCmd.RunE,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withCode(exitUsage, err)
	})
	a.cfg.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(runCmd)
	cmd.AddCommand(newCheckCmd(a))
	cmd.AddCommand(newDedupCmd(a))
	cmd.AddCommand(newScheduleCmd(a))
	return cmd
}

// setup finalizes configuration and builds the logger and metrics backend.
func (a *app) setup() error {
	if err := a.cfg.Finalize(); err != nil {
		return withCode(exitUsage, err)
	}
	log, err := logging.New(a.cfg.LogLevel, a.cfg.LogFormat, a.stderr)
	if err != nil {
		return withCode(exitUsage, err)
	}
	a.log = log
	if a.cfg.EnvFile != "" {
		log.WithField("path", a.cfg.EnvFile).Debug("env file loaded")
	}

	switch a.cfg.Metrics.Backend {
	case "pushgateway":
		b, err := prompush.NewBackend(a.cfg.JobName, a.cfg.Metrics.PushgatewayURL)
		if err != nil {
			log.WithError(err).Warn("metrics: pushgateway backend unavailable; using nop")
			metrics.SetBackend(nil)
			return nil
		}
		log.WithFields(logrus.Fields{"url": a.cfg.Metrics.PushgatewayURL, "job": a.cfg.JobName}).Debug("metrics: pushgateway enabled")
		metrics.SetBackend(b)
	default:
		metrics.SetBackend(nil)
	}
	return nil
}

func (a *app) runner() *job.Runner {
	return job.New(a.cfg, a.log)
}
