package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/tripdash/internal/dashboard"
	"github.com/autopeer-io/tripdash/internal/daterange"
	"github.com/autopeer-io/tripdash/internal/format"
)

func (r *runner) newRangeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "range [RANGE]",
		Short: "Show or set the time range of trips and notes",
		Long: "Show or set the time range of trips and notes. Valid ranges: " +
			strings.Join(rangeNames(), ", ") + ".",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: rangeNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				if len(args) == 1 {
					rng, err := daterange.Parse(args[0])
					if err != nil {
						return err
					}
					if err := a.SetTimeRange(ctx, rng); err != nil {
						return err
					}
				}

				rng, w := a.Range(), a.Window()
				end := "heute"
				if w.End != nil {
					end = format.Date(*w.End)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s bis %s\n", rng.Label(), rng, format.Date(w.Since), end)
				return nil
			})
		},
	}
}

func rangeNames() []string {
	var out []string
	for _, r := range daterange.All() {
		out = append(out, r.String())
	}
	return out
}

func (r *runner) newOverviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show statistics of the active vehicle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				if _, err := requireVehicle(a); err != nil {
					return err
				}
				o, err := a.Overview(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				stats := newTable()
				stats.AddRow("Zeitraum:", o.Range.Label())
				stats.AddRow("Fahrten:", o.Stats.TripCount)
				stats.AddRow("Strecke:", format.Number(o.Stats.TotalKm, 1)+" km")
				stats.AddRow("Fahrzeit:", format.Minutes(o.Stats.TotalDriveTimeMinutes))
				stats.AddRow("Ø Geschwindigkeit:", format.Number(o.Stats.AvgSpeed, 1)+" km/h")
				printTable(out, stats)
				fmt.Fprintln(out)

				days := newTable("TAG", "FAHRTEN")
				for _, d := range o.Weekdays {
					days.AddRow(d.Label, d.Count)
				}
				printTable(out, days)
				fmt.Fprintln(out)

				slots := newTable("TAGESZEIT", "FAHRTEN")
				for _, b := range o.TimeOfDay {
					slots.AddRow(b.Label, format.Number(b.Value, 0))
				}
				printTable(out, slots)
				return nil
			})
		},
	}
}

func (r *runner) newTripsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trips",
		Short: "Browse and edit trips of the active vehicle",
	}
	cmd.AddCommand(
		r.newTripsListCommand(),
		r.newTripsShowCommand(),
		r.newTripsEditRouteCommand(),
	)
	return cmd
}

func (r *runner) newTripsListCommand() *cobra.Command {
	var pages int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trips in the active time range, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				if _, err := requireVehicle(a); err != nil {
					return err
				}
				for i := 1; i < pages && a.TripList().HasMore; i++ {
					if err := a.LoadMoreTrips(ctx); err != nil {
						return err
					}
				}

				s := a.TripList()
				if s.Err != nil {
					return s.Err
				}
				printTrips(cmd.OutOrStdout(), s.Items)
				if s.HasMore {
					fmt.Fprintf(cmd.ErrOrStderr(), "Weitere Fahrten mit --pages %d\n", pages+1)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 1, "Number of pages to load.")
	return cmd
}

func (r *runner) newTripsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show TRIP_ID",
		Short: "Show a trip with its telemetry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				detail, err := a.TripDetail(ctx, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				head := newTable()
				head.AddRow("Fahrt:", detail.ID)
				head.AddRow("Start:", format.DateTime(detail.StartTime), detail.StartLocation)
				head.AddRow("Ende:", format.DateTime(detail.EndTime), detail.EndLocation)
				head.AddRow("Dauer:", format.Duration(detail.Duration()))
				head.AddRow("Strecke:", format.Distance(detail.DistanceKm))
				printTable(out, head)

				series := detail.Series()
				if len(series) == 0 {
					return nil
				}
				fmt.Fprintln(out)
				t := newTable("ZEIT", "KM/H", "U/MIN", "LAST", "GAS", "TEMP")
				for _, p := range series {
					t.AddRow(format.Clock(p.At), value(p.Speed), value(p.RPM), value(p.EngineLoad), value(p.Throttle), value(p.Temperature))
				}
				printTable(out, t)
				return nil
			})
		},
	}
}

func value(v *float64) string {
	if v == nil {
		return "-"
	}
	return format.Number(*v, 0)
}

func (r *runner) newTripsEditRouteCommand() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "edit-route TRIP_ID",
		Short: "Change start and destination of a trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				deviceID, err := requireVehicle(a)
				if err != nil {
					return err
				}
				return a.Trips.EditRoute(ctx, deviceID, args[0], start, end)
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Start location.")
	cmd.Flags().StringVar(&end, "end", "", "Destination.")
	return cmd
}

func (r *runner) newHistoryCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the trip log of the active vehicle grouped by month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				if _, err := requireVehicle(a); err != nil {
					return err
				}
				groups, err := a.History(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, g := range groups {
					fmt.Fprintf(out, "%s: %d Fahrten, %s km\n", g.Title, len(g.Trips), format.Number(g.TotalKm, 1))
					if g.Expanded || all {
						printTrips(out, g.Trips)
						fmt.Fprintln(out)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Expand every month, not only the newest.")
	return cmd
}
