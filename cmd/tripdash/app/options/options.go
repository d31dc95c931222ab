package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/tripdash/internal/dashboard"
	"github.com/autopeer-io/tripdash/pkg/app"
	"github.com/autopeer-io/tripdash/pkg/log"
	"github.com/autopeer-io/tripdash/pkg/options"
)

// Options aggregates every option group of the tripdash command.
type Options struct {
	ApiOptions       *options.ApiOptions       `json:"api" mapstructure:"api"`
	StoreOptions     *options.StoreOptions     `json:"store" mapstructure:"store"`
	DashboardOptions *options.DashboardOptions `json:"dashboard" mapstructure:"dashboard"`
	S3Options        *options.S3Options        `json:"s3" mapstructure:"s3"`
	FakeAPIOptions   *options.FakeAPIOptions   `json:"fakeapi" mapstructure:"fakeapi"`
	Log              *log.Options              `json:"log" mapstructure:"log"`
}

var (
	_ app.NamedFlagSetOptions = (*Options)(nil)
	_ app.LoggerOptions       = (*Options)(nil)
)

func NewOptions() *Options {
	return &Options{
		ApiOptions:       options.NewApiOptions(),
		StoreOptions:     options.NewStoreOptions(),
		DashboardOptions: options.NewDashboardOptions(),
		S3Options:        options.NewS3Options(),
		FakeAPIOptions:   options.NewFakeAPIOptions(),
		Log:              log.NewOptions(),
	}
}

func (o *Options) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.ApiOptions.AddFlags(fss.FlagSet("api"))
	o.StoreOptions.AddFlags(fss.FlagSet("store"))
	o.DashboardOptions.AddFlags(fss.FlagSet("dashboard"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.FakeAPIOptions.AddFlags(fss.FlagSet("fakeapi"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *Options) Complete() error {
	return nil
}

func (o *Options) Validate() error {
	errs := []error{}
	errs = append(errs, o.ApiOptions.Validate()...)
	errs = append(errs, o.StoreOptions.Validate()...)
	errs = append(errs, o.DashboardOptions.Validate()...)
	errs = append(errs, o.S3Options.Validate()...)
	errs = append(errs, o.FakeAPIOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *Options) LogOptions() *log.Options {
	return o.Log
}

// Config returns the dashboard configuration described by the options.
func (o *Options) Config() (*dashboard.Config, error) {
	return &dashboard.Config{
		ApiOptions:       o.ApiOptions,
		StoreOptions:     o.StoreOptions,
		DashboardOptions: o.DashboardOptions,
	}, nil
}
