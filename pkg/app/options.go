package app

import (
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/tripdash/pkg/log"
)

// NamedFlagSetOptions is implemented by the option aggregate of a command.
type NamedFlagSetOptions interface {
	// Flags returns the flags of the command grouped by section.
	Flags() cliflag.NamedFlagSets

	// Complete fills in defaults that depend on other options.
	Complete() error

	// Validate checks the options after Complete.
	Validate() error
}

// LoggerOptions is implemented by options that carry log settings. The
// process logger is initialized from them before the command runs.
type LoggerOptions interface {
	LogOptions() *log.Options
}
