package options

import (
	"errors"

	"github.com/spf13/pflag"
)

var _ IOptions = (*FakeAPIOptions)(nil)

// FakeAPIOptions configures the in-memory development gateway.
type FakeAPIOptions struct {
	// Fixtures is an optional YAML file with users, devices, trips and notes.
	Fixtures string `json:"fixtures" mapstructure:"fixtures"`

	// APIKey, when set, must be sent as x-api-key with every request.
	APIKey string `json:"api-key" mapstructure:"api-key"`

	// QPS and Burst limit requests per client IP. QPS <= 0 disables limiting.
	QPS   float64 `json:"qps" mapstructure:"qps"`
	Burst int     `json:"burst" mapstructure:"burst"`

	HTTP   *HttpOptions `json:"http" mapstructure:"http"`
	Status *HttpOptions `json:"status" mapstructure:"status"`
}

func NewFakeAPIOptions() *FakeAPIOptions {
	return &FakeAPIOptions{
		QPS:    50,
		Burst:  20,
		HTTP:   NewHttpOptions("127.0.0.1:8080"),
		Status: NewHttpOptions("127.0.0.1:8081"),
	}
}

func (o *FakeAPIOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}
	errs = append(errs, o.HTTP.Validate()...)
	errs = append(errs, o.Status.Validate()...)

	if o.HTTP.Addr == o.Status.Addr {
		errs = append(errs, errors.New("fakeapi and status servers must listen on different addresses"))
	}

	return errs
}

func (o *FakeAPIOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Fixtures, join("fakeapi.fixtures", prefixes...), o.Fixtures, "YAML fixture file seeding the fake gateway.")
	fs.StringVar(&o.APIKey, join("fakeapi.api-key", prefixes...), o.APIKey, "Require this x-api-key header value, empty accepts any.")
	fs.Float64Var(&o.QPS, join("fakeapi.qps", prefixes...), o.QPS, "Requests per second allowed per client IP, 0 disables limiting.")
	fs.IntVar(&o.Burst, join("fakeapi.burst", prefixes...), o.Burst, "Request burst allowed per client IP.")
	o.HTTP.AddFlags(fs, join("http", append(prefixes, "fakeapi")...))
	o.Status.AddFlags(fs, join("status", append(prefixes, "fakeapi")...))
}
