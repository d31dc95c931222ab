package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/tripdash/cmd/tripdash/app/options"
	"github.com/autopeer-io/tripdash/internal/dashboard"
	"github.com/autopeer-io/tripdash/internal/mutator"
	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
	"github.com/autopeer-io/tripdash/pkg/app"
	"github.com/autopeer-io/tripdash/pkg/log"
)

const (
	commandName = "tripdash"
	commandDesc = `tripdash is a command line dashboard for vehicle telemetry. It logs in to
the telemetry gateway, keeps a list of followed vehicles and shows their
trips, statistics, trip log and maintenance notes.

Selections, the time range and the session survive between runs in a local
store. Use "tripdash fakeapi" to run an in-memory gateway for development.`
)

var errNotLoggedIn = errors.New("not logged in, run 'tripdash login' first")

func NewApp() *app.App {
	opts := options.NewOptions()
	r := &runner{opts: opts}

	application := app.NewApp(
		commandName,
		"Browse trips and notes of your vehicles",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithWatchConfig(),
		app.WithSubCommands(
			r.newLoginCommand(),
			r.newLogoutCommand(),
			r.newWhoamiCommand(),
			r.newDevicesCommand(),
			r.newOnboardCommand(),
			r.newRangeCommand(),
			r.newOverviewCommand(),
			r.newTripsCommand(),
			r.newHistoryCommand(),
			r.newNotesCommand(),
			r.newPhotoCommand(),
			r.newArchiveCommand(),
			r.newFakeAPICommand(),
		),
	)
	application.Command().PersistentFlags().StringVarP(&r.device, "device", "d", "", "Vehicle to work on; defaults to the last selected one.")
	return application
}

// runner carries what the subcommands share.
type runner struct {
	opts   *options.Options
	device string

	// confirm approves destructive actions; nil approves all.
	confirm mutator.Confirmer
}

func (r *runner) open() (*dashboard.App, error) {
	cfg, err := r.opts.Config()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Confirmer = r.confirm
	return cfg.NewApp()
}

// withSession starts the dashboard for the requested vehicle and runs fn
// when the session is valid. The dashboard is closed afterwards.
func (r *runner) withSession(cmd *cobra.Command, fn func(ctx context.Context, a *dashboard.App) error) error {
	ctx := cmd.Context()

	a, err := r.open()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("Failed to close dashboard", "error", err)
		}
	}()

	requested := a.SavedLocation(ctx)
	if r.device != "" {
		requested = requested.WithDevice(r.device)
	}

	d, err := a.Start(ctx, requested)
	if !d.Allowed() {
		return errNotLoggedIn
	}
	if err != nil {
		if errdefs.IsUnauthorized(err) {
			return errNotLoggedIn
		}
		log.Warn("Lists could not be loaded", "error", err)
	}
	return fn(ctx, a)
}

// requireVehicle fails when no vehicle is active.
func requireVehicle(a *dashboard.App) (string, error) {
	id := a.Filter().DeviceID
	if id == "" {
		return "", errdefs.Invalid("device", "no vehicle selected, run 'tripdash onboard' or 'tripdash devices add'")
	}
	return id, nil
}

// promptConfirmer asks on in and reads the answer from out.
func promptConfirmer(in io.Reader, out io.Writer) mutator.Confirmer {
	reader := bufio.NewReader(in)
	return mutator.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		fmt.Fprintf(out, "%s [j/N] ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "j", "ja", "y", "yes":
			return true, nil
		}
		return false, nil
	})
}
