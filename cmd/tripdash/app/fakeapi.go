package app

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/tripdash/internal/fakeapi"
	"github.com/autopeer-io/tripdash/internal/server"
	"github.com/autopeer-io/tripdash/pkg/log"
)

func (r *runner) newFakeAPICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fakeapi",
		Short: "Run an in-memory telemetry gateway for development",
		Long: `Run an in-memory telemetry gateway for development. Without
--fakeapi.fixtures it is seeded with demo data (user "demo", password "demo").
A status server with /healthz, /readyz and /metrics runs next to it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := r.opts.FakeAPIOptions

			fx := fakeapi.DemoFixtures(time.Now())
			if opts.Fixtures != "" {
				var err error
				if fx, err = fakeapi.LoadFixtures(opts.Fixtures); err != nil {
					return err
				}
			}
			log.Info("Fake gateway seeded", "users", len(fx.Users), "devices", len(fx.Devices), "trips", len(fx.Trips))

			status := server.NewStatus(opts.Status)
			mgr := server.NewManager(fakeapi.New(opts, fx), status)
			return mgr.Start(cmd.Context())
		},
	}
}
