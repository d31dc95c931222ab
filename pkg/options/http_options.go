package options

import (
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*HttpOptions)(nil)

// HttpOptions contains configuration items related to an HTTP listener.
type HttpOptions struct {
	// Network with server network.
	Network string `json:"network" mapstructure:"network"`

	// Address with server address.
	Addr string `json:"addr" mapstructure:"addr"`

	// Timeout bounds reading and writing a single request.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewHttpOptions creates a HttpOptions object listening on addr.
func NewHttpOptions(addr string) *HttpOptions {
	return &HttpOptions{
		Network: "tcp",
		Addr:    addr,
		Timeout: 30 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *HttpOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if err := ValidateAddress(o.Addr); err != nil {
		errors = append(errors, err)
	}

	return errors
}

// AddFlags adds flags for the listener. Without prefixes the flags are named
// --http.addr and so on; prefixes replace "http" so several listeners can share
// one flag set, e.g. ("fakeapi", "status") yields --fakeapi.status.addr.
func (o *HttpOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	if len(prefixes) == 0 {
		prefixes = []string{"http"}
	}
	fs.StringVar(&o.Network, join("network", prefixes...), o.Network, "Specify the network for the HTTP server.")
	fs.StringVar(&o.Addr, join("addr", prefixes...), o.Addr, "Specify the HTTP server bind address and port.")
	fs.DurationVar(&o.Timeout, join("timeout", prefixes...), o.Timeout, "Timeout for server connections.")
}
