package options

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*ApiOptions)(nil)

// ApiOptions configures the client side of the telemetry gateway.
type ApiOptions struct {
	// Server is the scheme and host of the gateway; "/api" is appended by the client.
	Server string `json:"server" mapstructure:"server"`

	// APIKey is sent as the x-api-key header when set.
	APIKey string `json:"api-key" mapstructure:"api-key"`

	// Timeout is the transport timeout of a single request.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// QPS and Burst throttle outgoing requests. QPS <= 0 disables throttling.
	QPS   float64 `json:"qps" mapstructure:"qps"`
	Burst int     `json:"burst" mapstructure:"burst"`

	UserAgent string `json:"user-agent" mapstructure:"user-agent"`
}

// NewApiOptions creates an ApiOptions object with default parameters.
func NewApiOptions() *ApiOptions {
	return &ApiOptions{
		Server:    "http://127.0.0.1:8080",
		Timeout:   30 * time.Second,
		QPS:       20,
		Burst:     10,
		UserAgent: "tripdash",
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *ApiOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	u, err := url.Parse(o.Server)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid api.server %q: %w", o.Server, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Errorf("api.server %q must use http or https", o.Server))
	} else if u.Host == "" {
		errs = append(errs, fmt.Errorf("api.server %q has no host", o.Server))
	}

	if o.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}

	if o.QPS > 0 && o.Burst <= 0 {
		errs = append(errs, errors.New("api.burst must be positive when api.qps is set"))
	}

	return errs
}

// AddFlags adds flags related to the gateway client to the specified FlagSet.
func (o *ApiOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Server, join("api.server", prefixes...), o.Server, "Base URL of the telemetry gateway (without the /api suffix).")
	fs.StringVar(&o.APIKey, join("api.api-key", prefixes...), o.APIKey, "Optional value for the x-api-key header.")
	fs.DurationVar(&o.Timeout, join("api.timeout", prefixes...), o.Timeout, "Timeout of a single gateway request.")
	fs.Float64Var(&o.QPS, join("api.qps", prefixes...), o.QPS, "Maximum requests per second sent to the gateway, 0 disables throttling.")
	fs.IntVar(&o.Burst, join("api.burst", prefixes...), o.Burst, "Request burst allowed above api.qps.")
	fs.StringVar(&o.UserAgent, join("api.user-agent", prefixes...), o.UserAgent, "User-Agent header sent to the gateway.")
}
