package app

import (
	"fmt"
	"io"

	"github.com/gosuri/uitable"

	"github.com/autopeer-io/tripdash/internal/format"
	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
)

func newTable(header ...any) *uitable.Table {
	t := uitable.New()
	t.MaxColWidth = 60
	t.Wrap = true
	if len(header) > 0 {
		t.AddRow(header...)
	}
	return t
}

func printTable(w io.Writer, t *uitable.Table) {
	fmt.Fprintln(w, t)
}

func printTrips(w io.Writer, trips []v1.Trip) {
	t := newTable("ID", "DATUM", "START", "ZIEL", "DAUER", "STRECKE")
	for _, trip := range trips {
		t.AddRow(
			trip.ID,
			format.DateTime(trip.StartTime),
			trip.StartLocation,
			trip.EndLocation,
			format.Duration(trip.Duration()),
			format.Distance(trip.DistanceKm),
		)
	}
	printTable(w, t)
}

func printNotes(w io.Writer, notes []v1.Note) {
	t := newTable("ID", "DATUM", "NOTIZ", "PREIS")
	for _, n := range notes {
		price := "-"
		if n.Price != nil {
			price = format.Currency(*n.Price)
		}
		t.AddRow(n.ID, format.Date(n.Date), n.Text, price)
	}
	printTable(w, t)
}

func printDevices(w io.Writer, devices []v1.Device, active string) {
	t := newTable("", "ID", "NAME")
	for _, d := range devices {
		marker := ""
		if d.DeviceID == active {
			marker = "*"
		}
		t.AddRow(marker, d.DeviceID, d.Name)
	}
	printTable(w, t)
}
