package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/tripdash/internal/dashboard"
	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
	"github.com/autopeer-io/tripdash/internal/route"
	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
	"github.com/autopeer-io/tripdash/pkg/log"
)

func (r *runner) newLoginCommand() *cobra.Command {
	var creds v1.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the telemetry gateway",
		Long:  "Log in to the telemetry gateway. The password is read from stdin when --password is not given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if creds.Password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Passwort: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read password: %w", err)
				}
				creds.Password = strings.TrimRight(line, "\r\n")
			}

			a, err := r.open()
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Warn("Failed to close dashboard", "error", err)
				}
			}()

			d, err := a.Start(ctx, a.SavedLocation(ctx))
			if err != nil {
				log.Warn("Lists could not be loaded", "error", err)
			}
			if d.Allowed() {
				fmt.Fprintf(cmd.OutOrStdout(), "Bereits angemeldet als %s\n", a.User().Username)
				return nil
			}

			next, err := a.Login(ctx, creds, d.Redirect)
			if err != nil {
				return err
			}
			if _, err := a.Start(ctx, next); err != nil {
				log.Warn("Lists could not be loaded", "error", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Angemeldet als %s\n", a.User().Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "Gateway user name.")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "Gateway password.")
	return cmd
}

func (r *runner) newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the gateway session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if _, err := a.Start(ctx, route.Root("")); err != nil {
				log.Warn("Lists could not be loaded", "error", err)
			}
			if err := a.Logout(ctx); err != nil && !errdefs.IsUnauthorized(err) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Abgemeldet")
			return nil
		},
	}
}

func (r *runner) newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := r.withSession(cmd, func(_ context.Context, a *dashboard.App) error {
				fmt.Fprintln(cmd.OutOrStdout(), a.User().Username)
				return nil
			})
			if errors.Is(err, errNotLoggedIn) {
				fmt.Fprintln(cmd.OutOrStdout(), "Nicht angemeldet")
				return nil
			}
			return err
		},
	}
}
