// Package config centralizes the loader's configuration. Values come from,
// in increasing precedence: struct defaults, a .env file, the process
// environment and command-line flags.
//
// Typical usage:
//
//	environ, envFile, err := config.Environ(os.Environ(), config.EnvFileOptions{})
//	cfg, err := config.FromEnv(environ)
//	cfg.RegisterFlags(cmd.PersistentFlags())
//	// ... flags parsed by cobra ...
//	err = cfg.Finalize()
//
// Tests use Load, which runs the same steps against a private FlagSet.
package config

import (
	"fmt"
	"net"
	"net/url"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-sql-driver/mysql"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
)

// Source locates the workbook range.
type Source struct {
	Path        string `env:"SOURCE_PATH"`
	Sheet       string `env:"SHEET_NAME" envDefault:"PEDIDOS"`
	HeaderRow   int    `env:"HEADER_ROW" envDefault:"2"`
	FirstColumn string `env:"FIRST_COLUMN" envDefault:"B"`
	LastColumn  string `env:"LAST_COLUMN" envDefault:"BB"`
}

// Database describes the destination. The variable names match the existing
// deployment's private env file.
type Database struct {
	Driver   string `env:"DB_DRIVER" envDefault:"mssql"`
	Host     string `env:"DB_SERVER_EXCEL"`
	Port     string `env:"DB_PORT_EXCEL"`
	Name     string `env:"DB_DATABASE_EXCEL"`
	User     string `env:"DB_USER_EXCEL"`
	Password string `env:"DB_PASSWORD_EXCEL"`
	// DSN overrides the discrete parts when set.
	DSN   string `env:"DB_DSN"`
	Table string `env:"DB_TABLE" envDefault:"CD_AcompNacional"`
	// AutoCreate creates the table when it is missing.
	AutoCreate bool `env:"AUTO_CREATE_TABLE" envDefault:"false"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	Backend        string `env:"METRICS_BACKEND" envDefault:"none"`
	PushgatewayURL string `env:"PUSHGATEWAY_URL"`
}

// Config is the complete process configuration. It is built once at start
// and passed by pointer; nothing mutates it after Finalize.
type Config struct {
	Source   Source
	Database Database
	Metrics  Metrics

	// Workers is the partition count and insert concurrency; 0 means
	// runtime.NumCPU()-1, never less than 1.
	Workers    int  `env:"WORKERS" envDefault:"0"`
	WindowDays int  `env:"WINDOW_DAYS" envDefault:"365"`
	PreDedup   bool `env:"PRE_DEDUP" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	JobName   string `env:"JOB_NAME" envDefault:"acomp_nacional"`
	Cron      string `env:"SCHEDULE_CRON" envDefault:"0 6 * * *"`

	// EnvFile is the .env file that was loaded, if any.
	EnvFile string `env:"-"`
}

// FromEnv parses environ (KEY=VALUE pairs keyed by name) into a Config.
func FromEnv(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// RegisterFlags binds flags to c's fields, using the current values as
// defaults so that flags only override what they set.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Source.Path, "source", "s", c.Source.Path, "Path to the tracking workbook (.xlsx)")
	fs.StringVar(&c.Source.Sheet, "sheet", c.Source.Sheet, "Worksheet name")
	fs.IntVar(&c.Source.HeaderRow, "header-row", c.Source.HeaderRow, "1-based row holding the column labels")
	fs.StringVar(&c.Source.FirstColumn, "first-column", c.Source.FirstColumn, "First column of the range")
	fs.StringVar(&c.Source.LastColumn, "last-column", c.Source.LastColumn, "Last column of the range")

	fs.StringVar(&c.Database.Driver, "db-driver", c.Database.Driver, "Destination driver: mssql, postgres, mysql or sqlite")
	fs.StringVar(&c.Database.Host, "db-host", c.Database.Host, "Database host")
	fs.StringVar(&c.Database.Port, "db-port", c.Database.Port, "Database port")
	fs.StringVar(&c.Database.Name, "db-name", c.Database.Name, "Database name (file path for sqlite)")
	fs.StringVar(&c.Database.User, "db-user", c.Database.User, "Database user")
	fs.StringVar(&c.Database.DSN, "dsn", c.Database.DSN, "Full DSN; overrides host/port/name/user")
	fs.StringVar(&c.Database.Table, "table", c.Database.Table, "Destination table")
	fs.BoolVar(&c.Database.AutoCreate, "create-table", c.Database.AutoCreate, "Create the destination table if missing")

	fs.IntVarP(&c.Workers, "workers", "w", c.Workers, "Parallel insert partitions (0 = CPUs-1)")
	fs.IntVar(&c.WindowDays, "window-days", c.WindowDays, "Trailing window on DATA_ENTREGA_1, in days")
	fs.BoolVar(&c.PreDedup, "pre-dedup", c.PreDedup, "Collapse duplicate keys before loading")

	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: text or json")
	fs.StringVar(&c.Metrics.Backend, "metrics", c.Metrics.Backend, "Metrics backend: none or pushgateway")
	fs.StringVar(&c.Metrics.PushgatewayURL, "pushgateway-url", c.Metrics.PushgatewayURL, "Pushgateway base URL")
	fs.StringVar(&c.JobName, "job", c.JobName, "Job name used in logs and metrics")
}

// Finalize applies derived defaults and validates.
func (c *Config) Finalize() error {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers()
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	return c.Validate()
}

// DefaultWorkers is one less than the CPU count, at least 1.
func DefaultWorkers() int {
	if n := runtime.NumCPU() - 1; n > 1 {
		return n
	}
	return 1
}

// Load builds a Config from environ and args using fs. It is the hermetic
// entry point used by tests.
func Load(fs *pflag.FlagSet, environ map[string]string, args []string) (*Config, error) {
	cfg, err := FromEnv(environ)
	if err != nil {
		return nil, err
	}
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	add := func(format string, args ...any) { err = multierr.Append(err, fmt.Errorf(format, args...)) }

	if c.Source.HeaderRow < 1 {
		add("header row must be >= 1, got %d", c.Source.HeaderRow)
	}
	if c.WindowDays < 1 {
		add("window days must be >= 1, got %d", c.WindowDays)
	}
	if strings.TrimSpace(c.Database.Table) == "" {
		add("table must not be empty")
	}
	switch c.Database.Driver {
	case "mssql", "postgres", "mysql":
		if c.Database.DSN == "" && c.Database.Host == "" {
			add("%s: DB_SERVER_EXCEL or DB_DSN is required", c.Database.Driver)
		}
	case "sqlite":
		if c.Database.DSN == "" && c.Database.Name == "" {
			add("sqlite: DB_DATABASE_EXCEL (file path) or DB_DSN is required")
		}
	default:
		add("unsupported db driver %q", c.Database.Driver)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		add("unsupported log format %q", c.LogFormat)
	}
	switch c.Metrics.Backend {
	case "", "none":
	case "pushgateway":
		if c.Metrics.PushgatewayURL == "" {
			add("pushgateway metrics need PUSHGATEWAY_URL")
		}
	default:
		add("unsupported metrics backend %q", c.Metrics.Backend)
	}
	return err
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	d := c.Database
	if d.DSN != "" {
		return d.DSN
	}
	hostPort := d.Host
	if d.Port != "" {
		hostPort = net.JoinHostPort(d.Host, d.Port)
	}
	switch d.Driver {
	case "mssql":
		u := &url.URL{Scheme: "sqlserver", Host: hostPort}
		if d.User != "" {
			u.User = url.UserPassword(d.User, d.Password)
		}
		q := url.Values{}
		if d.Name != "" {
			q.Set("database", d.Name)
		}
		q.Set("app name", "acompload")
		u.RawQuery = q.Encode()
		return u.String()
	case "postgres":
		u := &url.URL{Scheme: "postgres", Host: hostPort, Path: "/" + d.Name}
		if d.User != "" {
			u.User = url.UserPassword(d.User, d.Password)
		}
		u.RawQuery = url.Values{"sslmode": {"disable"}}.Encode()
		return u.String()
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = d.User
		mc.Passwd = d.Password
		mc.Net = "tcp"
		mc.Addr = hostPort
		mc.DBName = d.Name
		mc.ParseTime = true
		return mc.FormatDSN()
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}

// Redacted returns DSN() with the password masked, for logs.
func (c *Config) Redacted() string {
	dsn := c.DSN()
	if c.Database.Password == "" {
		return dsn
	}
	pw := c.Database.Password
	for _, form := range []string{url.QueryEscape(pw), url.PathEscape(pw), pw} {
		dsn = strings.ReplaceAll(dsn, form, "xxxxx")
	}
	return dsn
}
