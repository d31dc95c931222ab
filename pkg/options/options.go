package options

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// IOptions is implemented by every option group in this package.
type IOptions interface {
	// Validate validates all the required options.
	Validate() []error

	// AddFlags adds flags to the specified FlagSet object.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// ValidateAddress takes an address as "host:port" and checks that the port is usable.
func ValidateAddress(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}

	if host != "" && net.ParseIP(host) == nil && strings.ContainsAny(host, " /") {
		return fmt.Errorf("invalid host %q in address %q", host, addr)
	}

	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("invalid port %q in address %q", port, addr)
	}

	return nil
}

// join builds a dotted flag name from optional prefixes and a base name,
// e.g. join("http.addr", "fakeapi") -> "fakeapi.http.addr".
func join(name string, prefixes ...string) string {
	parts := make([]string, 0, len(prefixes)+1)
	for _, p := range prefixes {
		if p = strings.Trim(p, "."); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(append(parts, name), ".")
}
