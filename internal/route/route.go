// Package route models the navigation state of the dashboard: a path plus
// query parameters, so that a location alone determines what is shown.
package route

import (
	"net/url"
	"strings"
)

const (
	RootPath    = "/"
	HistoryPath = "/history"
	NotesPath   = "/notes"
	LoginPath   = "/login"

	// DeviceParam carries the active vehicle.
	DeviceParam = "device"
)

// Location is a navigation target. From is set on redirects and remembers
// where the visitor wanted to go.
type Location struct {
	Path  string
	Query url.Values
	From  *Location
}

// Parse reads a location like "/history?device=d1".
func Parse(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, err
	}
	path := u.Path
	if path == "" {
		path = RootPath
	}
	return Location{Path: path, Query: u.Query()}, nil
}

// Root returns the dashboard location for a device; an empty id means none chosen.
func Root(deviceID string) Location {
	return Location{Path: RootPath}.WithDevice(deviceID)
}

// Device returns the active vehicle carried by the location.
func (l Location) Device() string {
	return strings.TrimSpace(l.Query.Get(DeviceParam))
}

// WithDevice returns a copy of l with the device parameter replaced.
// An empty id removes the parameter.
func (l Location) WithDevice(id string) Location {
	q := url.Values{}
	for k, v := range l.Query {
		q[k] = append([]string(nil), v...)
	}
	if id == "" {
		q.Del(DeviceParam)
	} else {
		q.Set(DeviceParam, id)
	}
	l.Query = q
	return l
}

// Login returns the login location remembering l as the origin.
func (l Location) Login() Location {
	from := l
	from.From = nil
	return Location{Path: LoginPath, From: &from}
}

func (l Location) String() string {
	u := url.URL{Path: l.Path, RawQuery: l.Query.Encode()}
	if u.Path == "" {
		u.Path = RootPath
	}
	return u.String()
}
