package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/tripdash/internal/archive"
	"github.com/autopeer-io/tripdash/internal/dashboard"
)

func (r *runner) newArchiveCommand() *cobra.Command {
	var expiry = archive.DefaultExpiry
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Export the trip log of the active vehicle to S3",
		Long: `Export the trip log of the active vehicle to the configured S3 bucket,
one JSON document per month, and print download links.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := archive.NewMinIOProvider(r.opts.S3Options)
			if err != nil {
				return err
			}
			exporter := archive.NewExporter(provider, expiry)

			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				deviceID, err := requireVehicle(a)
				if err != nil {
					return err
				}
				groups, err := a.History(ctx)
				if err != nil {
					return err
				}
				objects, err := exporter.Export(ctx, deviceID, groups)
				if err != nil {
					return err
				}

				t := newTable("OBJEKT", "LINK")
				for _, o := range objects {
					t.AddRow(o.Key, o.URL)
				}
				printTable(cmd.OutOrStdout(), t)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&expiry, "expiry", expiry, "Validity of the download links.")
	return cmd
}
