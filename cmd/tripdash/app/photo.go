package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/tripdash/internal/dashboard"
)

func (r *runner) newPhotoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photo",
		Short: "Upload or download the photo of the active vehicle",
	}
	cmd.AddCommand(r.newPhotoUploadCommand(), r.newPhotoGetCommand())
	return cmd
}

func (r *runner) newPhotoUploadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a vehicle photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				deviceID, err := requireVehicle(a)
				if err != nil {
					return err
				}
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()

				if _, err := a.Photos.Upload(ctx, deviceID, filepath.Base(args[0]), f); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Foto hochgeladen")
				return nil
			})
		},
	}
}

func (r *runner) newPhotoGetCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Download the vehicle photo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				deviceID, err := requireVehicle(a)
				if err != nil {
					return err
				}
				image, found, err := a.Photos.Fetch(ctx, deviceID)
				if err != nil {
					return err
				}
				if !found {
					fmt.Fprintln(cmd.OutOrStdout(), "Kein Foto vorhanden")
					return nil
				}
				if output == "" {
					output = deviceID + ".img"
				}
				if err := os.WriteFile(output, image, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Foto gespeichert: %s\n", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Target file, defaults to <device>.img.")
	return cmd
}
