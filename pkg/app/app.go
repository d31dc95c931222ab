// Package app builds cobra commands from option aggregates: flags are grouped
// per section, merged with an optional YAML file through viper, validated and
// then handed to the run function.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/term"

	"github.com/autopeer-io/tripdash/pkg/log"
)

// RunFunc is the main function of a command without subcommands.
type RunFunc func() error

// Option configures an App.
type Option func(*App)

// App is the main structure of a cli application.
type App struct {
	name        string
	shortDesc   string
	description string
	options     NamedFlagSetOptions
	runFunc     RunFunc
	args        cobra.PositionalArgs
	subcommands []*cobra.Command
	watchConfig bool

	viper   *viper.Viper
	cfgFile *string
	cmd     *cobra.Command
}

func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) { a.options = opts }
}

func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithDefaultValidArgs rejects positional arguments.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithSubCommands attaches commands. They share the persistent flags and
// see completed, validated options.
func WithSubCommands(cmds ...*cobra.Command) Option {
	return func(a *App) { a.subcommands = append(a.subcommands, cmds...) }
}

// WithWatchConfig reloads the log level when the config file changes.
func WithWatchConfig() Option {
	return func(a *App) { a.watchConfig = true }
}

// NewApp creates a new application instance based on the given options.
func NewApp(name string, shortDesc string, opts ...Option) *App {
	a := &App{
		name:      name,
		shortDesc: shortDesc,
		viper:     viper.New(),
	}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.shortDesc,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          a.args,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.prepare(cmd)
		},
	}
	if a.runFunc != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			return a.runFunc()
		}
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	var namedFlagSets cliflag.NamedFlagSets
	if a.options != nil {
		namedFlagSets = a.options.Flags()
	}
	a.cfgFile = addConfigFlag(a.viper, a.name, namedFlagSets.FlagSet("global"))

	fs := cmd.PersistentFlags()
	for _, f := range namedFlagSets.FlagSets {
		fs.AddFlagSet(f)
	}

	cols, _, _ := term.TerminalSize(cmd.OutOrStdout())
	cliflag.SetUsageAndHelpFunc(cmd, namedFlagSets, cols)

	cmd.AddCommand(a.subcommands...)
	a.cmd = cmd
}

// prepare merges config file and flags into the options, validates them and
// initializes logging. Flags set on the command line win over the file.
func (a *App) prepare(cmd *cobra.Command) error {
	if err := a.viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := readConfig(a.viper, a.name, *a.cfgFile); err != nil {
		return err
	}
	if a.options == nil {
		return nil
	}

	if err := a.viper.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to apply configuration: %w", err)
	}
	if err := a.options.Complete(); err != nil {
		return err
	}
	if err := a.options.Validate(); err != nil {
		return err
	}

	if lo, ok := a.options.(LoggerOptions); ok {
		log.Init(lo.LogOptions())
	}
	if a.watchConfig {
		watchConfig(a.viper)
	}
	return nil
}

// Command returns the root cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Viper returns the configuration source of the application.
func (a *App) Viper() *viper.Viper {
	return a.viper
}

// Run executes the root command with ctx and exits with 1 on failure.
func (a *App) Run(ctx context.Context) {
	if err := a.cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.cmd.ErrOrStderr(), "Error: %v\n", err)
		os.Exit(1)
	}
}
