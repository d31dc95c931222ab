package options

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*StoreOptions)(nil)

// StoreOptions configures the local slot store that keeps selections and
// session cookies between runs.
type StoreOptions struct {
	// Driver is "sqlite", "postgres" or "memory". Memory keeps nothing across runs.
	Driver string `json:"driver" mapstructure:"driver"`

	// DSN is a file path or URI for sqlite and a connection string for postgres.
	DSN string `json:"dsn" mapstructure:"dsn"`

	MaxOpenConns    int           `json:"max-open-conns" mapstructure:"max-open-conns"`
	ConnMaxLifetime time.Duration `json:"conn-max-lifetime" mapstructure:"conn-max-lifetime"`

	// Debug logs every SQL statement through the process logger.
	Debug bool `json:"debug" mapstructure:"debug"`
}

// NewStoreOptions creates a StoreOptions object pointing at the user's config directory.
func NewStoreOptions() *StoreOptions {
	return &StoreOptions{
		Driver:          "sqlite",
		DSN:             defaultSqlitePath(),
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Hour,
	}
}

func defaultSqlitePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "tripdash.db"
	}
	return filepath.Join(dir, "tripdash", "state.db")
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *StoreOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	switch o.Driver {
	case "sqlite", "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("unsupported store.driver %q, must be 'sqlite', 'postgres' or 'memory'", o.Driver))
	}

	if o.DSN == "" && o.Driver != "memory" {
		errs = append(errs, fmt.Errorf("store.dsn must not be empty"))
	}

	if o.MaxOpenConns < 0 {
		errs = append(errs, fmt.Errorf("store.max-open-conns must not be negative"))
	}

	return errs
}

// AddFlags adds flags related to the local store to the specified FlagSet.
func (o *StoreOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Driver, join("store.driver", prefixes...), o.Driver, "Local store driver ('sqlite', 'postgres' or 'memory').")
	fs.StringVar(&o.DSN, join("store.dsn", prefixes...), o.DSN, "Local store data source name.")
	fs.IntVar(&o.MaxOpenConns, join("store.max-open-conns", prefixes...), o.MaxOpenConns, "Maximum open connections to the local store.")
	fs.DurationVar(&o.ConnMaxLifetime, join("store.conn-max-lifetime", prefixes...), o.ConnMaxLifetime, "Maximum lifetime of a store connection.")
	fs.BoolVar(&o.Debug, join("store.debug", prefixes...), o.Debug, "Log every SQL statement.")
}
