package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/tripdash/internal/dashboard"
	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
)

func (r *runner) newDevicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "devices",
		Aliases: []string{"vehicles"},
		Short:   "Manage the followed vehicles",
	}
	cmd.AddCommand(
		r.newDevicesListCommand(),
		r.newDevicesAddCommand(),
		r.newDevicesRemoveCommand(),
		r.newDevicesSelectCommand(),
		r.newDevicesRenameCommand(),
	)
	return cmd
}

func (r *runner) newDevicesListCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List followed vehicles, or every device of the account with --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				devices := a.Vehicles()
				if all {
					var err error
					if devices, err = a.AvailableDevices(ctx); err != nil {
						return err
					}
				}
				printDevices(cmd.OutOrStdout(), devices, a.Filter().DeviceID)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "List every device of the account.")
	return cmd
}

// findDevice looks id up in the live device list.
func findDevice(ctx context.Context, a *dashboard.App, id string) (v1.Device, error) {
	devices, err := a.AvailableDevices(ctx)
	if err != nil {
		return v1.Device{}, err
	}
	for _, d := range devices {
		if d.DeviceID == id {
			return d, nil
		}
	}
	return v1.Device{}, errdefs.Invalid("device", fmt.Sprintf("%q does not exist", id))
}

func (r *runner) newDevicesAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add DEVICE_ID",
		Short: "Follow a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				d, err := findDevice(ctx, a, args[0])
				if err != nil {
					return err
				}
				if err := a.AddVehicle(ctx, d); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) hinzugefügt\n", d.Name, d.DeviceID)
				return nil
			})
		},
	}
}

func (r *runner) newDevicesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove DEVICE_ID",
		Short: "Stop following a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				return a.RemoveVehicle(ctx, args[0])
			})
		},
	}
}

func (r *runner) newDevicesSelectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "select DEVICE_ID",
		Short: "Make a followed device the active vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				return a.SelectVehicle(ctx, args[0])
			})
		},
	}
}

func (r *runner) newDevicesRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename DEVICE_ID NAME",
		Short: "Rename a device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				return a.Devices.Rename(ctx, args[0], args[1])
			})
		},
	}
}

func (r *runner) newOnboardCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "onboard DEVICE_ID",
		Short: "Name a device, follow it and make it the active vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				if _, err := findDevice(ctx, a, args[0]); err != nil {
					return err
				}
				d, err := a.Onboard(ctx, args[0], name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) ist jetzt aktiv\n", d.Name, d.DeviceID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Vehicle name, defaults to \""+dashboard.DefaultVehicleName+"\".")
	return cmd
}
