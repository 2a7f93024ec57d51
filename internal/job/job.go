// Package job runs the tracking load end to end: read the workbook, check
// the header, clean and filter the rows, insert them in parallel partitions
// and, once every partition has finished, drop superseded rows.
package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/config"
	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/datasource"
	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/datasource/file"
	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/metrics"
	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/partition"
	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/record"
	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/schema"
	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/sheet"
	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/storage"
	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/transformer"
	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/transformer/builtin"
)

// Fatal error classes. Match with errors.Is.
var (
	ErrSchemaMismatch = schema.ErrSchemaMismatch
	ErrSourceRead     = sheet.ErrSourceRead
	ErrStorage        = errors.New("storage failure")
)

// Summary describes one run. Counts are filled as far as the run got.
type Summary struct {
	RunID string

	Read      int
	Blank     int
	Anomalies transformer.Report
	Filter    transformer.FilterStats
	// Collapsed counts rows merged by the in-run key collapse.
	Collapsed int

	Partitions   int
	Load         storage.LoadReport
	Deduplicated int64
	DedupErr     error

	Elapsed time.Duration
}

// Loaded is the number of rows handed to the loader.
func (s *Summary) Loaded() int { return s.Filter.Kept - s.Collapsed }

// Err combines the non-fatal failures of the run, or nil.
func (s *Summary) Err() error {
	return multierr.Append(s.Load.Err(), s.DedupErr)
}

// Runner executes runs for one configuration.
type Runner struct {
	Config *config.Config
	Log    logrus.FieldLogger

	// Source overrides the workbook location from Config.
	Source datasource.Source
	// Open overrides the storage opener derived from Config.
	Open storage.Opener
	// Now is the clock used for the date window.
	Now func() time.Time
	// Location interprets zone-less dates; nil means time.Local.
	Location *time.Location
}

// New returns a Runner for cfg.
func New(cfg *config.Config, log logrus.FieldLogger) *Runner {
	return &Runner{Config: cfg, Log: log}
}

// StorageConfig is the storage description derived from cfg.
func StorageConfig(cfg *config.Config) storage.Config {
	return storage.Config{
		Kind:        cfg.Database.Driver,
		DSN:         cfg.DSN(),
		Table:       cfg.Database.Table,
		Columns:     schema.Names(),
		KeyColumns:  schema.KeyColumns,
		OrderColumn: schema.ColInsertedAt,
	}
}

// TableDef is the destination table created by the optional bootstrap.
func TableDef(table string) storage.TableDef {
	keys := map[string]bool{}
	for _, k := range schema.KeyColumns {
		keys[k] = true
	}
	def := storage.TableDef{Name: table, InsertedAt: schema.ColInsertedAt}
	for _, c := range schema.Columns() {
		cd := storage.ColumnDef{Name: c.Name}
		switch c.Kind {
		case schema.KindNumeric:
			cd.Type = storage.TypeFloat
		case schema.KindDate:
			cd.Type = storage.TypeTimestamp
		default:
			cd.Type = storage.TypeText
			if keys[c.Name] {
				cd.Size = 100
			}
		}
		def.Columns = append(def.Columns, cd)
	}
	return def
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

func (r *Runner) opener() storage.Opener {
	if r.Open != nil {
		return r.Open
	}
	return storage.OpenerFor(StorageConfig(r.Config))
}

func (r *Runner) source() datasource.Source {
	if r.Source != nil {
		return r.Source
	}
	return file.NewLocal(r.Config.Source.Path)
}

func (r *Runner) begin(mode string) (*Summary, *logrus.Entry) {
	s := &Summary{RunID: uuid.NewString()}
	log := r.logger().WithFields(logrus.Fields{
		"run_id": s.RunID,
		"job":    r.Config.JobName,
		"mode":   mode,
	})
	return s, log
}

func (r *Runner) step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStep(r.Config.JobName, name, err, time.Since(start))
	return err
}

// Check reads, validates, cleans and filters without writing anything.
func (r *Runner) Check(ctx context.Context) (*Summary, error) {
	s, log := r.begin("check")
	start := time.Now()
	_, err := r.prepare(ctx, log, s)
	s.Elapsed = time.Since(start)
	log.WithFields(logrus.Fields{
		"elapsed": s.Elapsed.Truncate(time.Millisecond),
		"kept":    s.Filter.Kept,
	}).Info("check.done")
	return s, err
}

// Run performs one full load. The returned error is non-nil only for fatal
// failures (read, header, table bootstrap); partition and dedup failures are
// reported through Summary.Err.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	s, log := r.begin("run")
	start := time.Now()
	defer func() {
		s.Elapsed = time.Since(start)
		log.WithFields(logrus.Fields{
			"elapsed":      s.Elapsed.Truncate(time.Millisecond),
			"inserted":     s.Load.Inserted(),
			"failed_rows":  s.Load.FailedRows(),
			"deduplicated": s.Deduplicated,
		}).Info("run.done")
		if err := metrics.Flush(); err != nil {
			log.WithError(err).Warn("metrics flush failed")
		}
	}()

	recs, err := r.prepare(ctx, log, s)
	if err != nil {
		return s, err
	}

	open := r.opener()
	if r.Config.Database.AutoCreate {
		if err := r.step("bootstrap", func() error { return r.ensureTable(ctx, open) }); err != nil {
			log.WithError(err).Error("table bootstrap failed")
			return s, err
		}
	}

	parts := partition.Split(record.Rows(recs), r.Config.Workers)
	s.Partitions = partition.NonEmpty(parts)
	loader := &storage.Loader{
		Open:    open,
		Columns: schema.Names(),
		Workers: r.Config.Workers,
		Log:     log,
	}
	_ = r.step("load", func() error {
		s.Load = loader.Load(ctx, parts)
		return s.Load.Err()
	})
	for _, res := range s.Load.Results {
		metrics.RecordPartition(r.Config.JobName, res.Err)
	}
	metrics.RecordRow(r.Config.JobName, "inserted", s.Load.Inserted())
	metrics.RecordRow(r.Config.JobName, "failed", int64(s.Load.FailedRows()))
	log.WithFields(logrus.Fields{
		"partitions": s.Partitions,
		"inserted":   s.Load.Inserted(),
		"failed":     len(s.Load.Failed()),
		"elapsed":    s.Load.Duration.Truncate(time.Millisecond),
	}).Info("load.done")

	s.Deduplicated, s.DedupErr = r.dedup(ctx, log, open)
	if s.Err() == nil {
		metrics.MarkSuccess(r.Config.JobName, time.Now())
	}
	return s, nil
}

// Dedup runs only the recency deduplication.
func (r *Runner) Dedup(ctx context.Context) (int64, error) {
	_, log := r.begin("dedup")
	n, err := r.dedup(ctx, log, r.opener())
	if ferr := metrics.Flush(); ferr != nil {
		log.WithError(ferr).Warn("metrics flush failed")
	}
	return n, err
}

func (r *Runner) dedup(ctx context.Context, log logrus.FieldLogger, open storage.Opener) (int64, error) {
	var n int64
	start := time.Now()
	err := r.step("dedup", func() error {
		var err error
		n, err = storage.Dedup(ctx, open)
		return err
	})
	fields := logrus.Fields{"elapsed": time.Since(start).Truncate(time.Millisecond)}
	if err != nil {
		log.WithFields(fields).WithError(err).Error("dedup failed")
		return 0, err
	}
	metrics.RecordRow(r.Config.JobName, "deduplicated", n)
	log.WithFields(fields).WithField("deleted", n).Info("dedup.done")
	return n, nil
}

func (r *Runner) ensureTable(ctx context.Context, open storage.Opener) error {
	repo, err := open(ctx)
	if err != nil {
		return fmt.Errorf("%w: open: %w", ErrStorage, err)
	}
	defer repo.Close()
	if err := storage.EnsureTable(ctx, r.Config.Database.Driver, repo, TableDef(r.Config.Database.Table)); err != nil {
		return fmt.Errorf("%w: create table: %w", ErrStorage, err)
	}
	return nil
}

// prepare runs the stages that precede any write and returns the records to
// load.
func (r *Runner) prepare(ctx context.Context, log logrus.FieldLogger, s *Summary) ([]record.Record, error) {
	cfg := r.Config
	src := r.source()

	var res *sheet.Result
	err := r.step("read", func() error {
		var err error
		res, err = sheet.Read(ctx, src, sheet.Options{
			Sheet:       cfg.Source.Sheet,
			HeaderRow:   cfg.Source.HeaderRow,
			FirstColumn: cfg.Source.FirstColumn,
			LastColumn:  cfg.Source.LastColumn,
		})
		return err
	})
	if err != nil {
		log.WithError(err).Error("sheet.read failed")
		return nil, err
	}
	s.Read, s.Blank = len(res.Rows), res.Skipped
	metrics.RecordRow(cfg.JobName, "read", int64(s.Read))
	log.WithFields(logrus.Fields{"source": src.Name(), "rows": s.Read, "blank": s.Blank}).Info("sheet.read")

	if err := r.step("validate", func() error { return schema.ValidateHeader(res.Header) }); err != nil {
		log.WithError(err).Error("schema mismatch")
		return nil, err
	}
	log.WithField("columns", len(res.Header)).Info("schema.ok")

	norm := transformer.NewNormalizer(r.Location)
	recs := make([]record.Record, 0, len(res.Rows))
	err = r.step("normalize", func() error {
		for _, row := range res.Rows {
			rec, err := norm.Normalize(row.Line, row.Cells)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Anomalies = norm.Report()
	metrics.RecordRow(cfg.JobName, "anomalies", int64(s.Anomalies.Anomalies))
	entry := log.WithFields(logrus.Fields{"rows": len(recs), "anomalies": s.Anomalies.Anomalies})
	if s.Anomalies.Anomalies > 0 {
		entry = entry.WithField("by_column", s.Anomalies.ByColumn)
		for _, a := range s.Anomalies.Samples {
			log.WithField("anomaly", a.String()).Debug("normalize.anomaly")
		}
	}
	entry.Info("normalize.done")

	filter := &transformer.Filter{WindowDays: cfg.WindowDays, Now: r.Now}
	var collapse transformer.Chain
	if cfg.PreDedup {
		collapse = append(collapse, builtin.DeDup{})
	}
	_ = r.step("filter", func() error {
		recs = filter.Apply(recs)
		kept := len(recs)
		recs = collapse.Apply(recs)
		s.Collapsed = kept - len(recs)
		return nil
	})
	s.Filter = filter.Stats
	metrics.RecordRow(cfg.JobName, "dropped_window", int64(s.Filter.OutsideWindow))
	metrics.RecordRow(cfg.JobName, "dropped_document", int64(s.Filter.MissingDocument))
	log.WithFields(logrus.Fields{
		"cutoff":           filter.Cutoff().Format(time.DateOnly),
		"kept":             s.Filter.Kept,
		"outside_window":   s.Filter.OutsideWindow,
		"missing_document": s.Filter.MissingDocument,
		"collapsed":        s.Collapsed,
	}).Info("filter.done")
	return recs, nil
}
