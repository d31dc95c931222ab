package fakeapi

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/utils/ptr"

	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
)

// User is an account of the fake gateway.
type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Fixtures seeds the fake gateway.
type Fixtures struct {
	Users   []User      `yaml:"users"`
	Devices []v1.Device `yaml:"devices"`
	Trips   []v1.Trip   `yaml:"trips"`
	// Notes are keyed by device id.
	Notes map[string][]v1.Note `yaml:"notes"`
	// Telemetry is keyed by trip id, then epoch second.
	Telemetry map[string]map[int64]v1.TelemetrySample `yaml:"telemetry"`
}

// LoadFixtures reads a YAML fixture file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes YAML fixtures and checks that every trip and note
// belongs to a known device.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

func (fx *Fixtures) validate() error {
	known := map[string]bool{}
	for _, d := range fx.Devices {
		if d.DeviceID == "" {
			return fmt.Errorf("fixtures: device without deviceId")
		}
		known[d.DeviceID] = true
	}
	for _, t := range fx.Trips {
		if t.ID == "" {
			return fmt.Errorf("fixtures: trip without id")
		}
		if !known[t.DeviceID] {
			return fmt.Errorf("fixtures: trip %s references unknown device %q", t.ID, t.DeviceID)
		}
	}
	for id := range fx.Notes {
		if !known[id] {
			return fmt.Errorf("fixtures: notes reference unknown device %q", id)
		}
	}
	return nil
}

// DemoFixtures builds a small data set around now: one user "demo" with
// password "demo", two vehicles and trips spread over the last months.
func DemoFixtures(now time.Time) *Fixtures {
	fx := &Fixtures{
		Users: []User{{Username: "demo", Password: "demo"}},
		Devices: []v1.Device{
			{DeviceID: "obd-1001", Name: "Familienauto"},
			{DeviceID: "obd-1002", Name: "Transporter"},
		},
		Notes:     map[string][]v1.Note{},
		Telemetry: map[string]map[int64]v1.TelemetrySample{},
	}

	routes := [][2]string{
		{"Berlin", "Potsdam"},
		{"Potsdam", "Berlin"},
		{"Berlin", "Leipzig"},
		{"Leipzig", "Dresden"},
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for i := 0; i < 40; i++ {
		dev := fx.Devices[i%len(fx.Devices)].DeviceID
		start := day.AddDate(0, 0, -i*3).Add(time.Duration(6+i%14) * time.Hour)
		dur := time.Duration(20+i%7*10) * time.Minute
		r := routes[i%len(routes)]
		id := fmt.Sprintf("trip-%03d", i+1)

		fx.Trips = append(fx.Trips, v1.Trip{
			ID:            id,
			DeviceID:      dev,
			StartTime:     start,
			EndTime:       start.Add(dur),
			StartLocation: r[0],
			EndLocation:   r[1],
			DistanceKm:    ptr.To(float64(15 + i%9*12)),
		})

		samples := map[int64]v1.TelemetrySample{}
		for s := 0; s <= int(dur/time.Minute); s += 5 {
			samples[start.Add(time.Duration(s)*time.Minute).Unix()] = v1.TelemetrySample{
				Speed: ptr.To(float64(30 + (s*7)%90)),
				RPM:   ptr.To(float64(1500 + (s*53)%2500)),
			}
		}
		fx.Telemetry[id] = samples
	}

	fx.Notes["obd-1001"] = []v1.Note{
		{ID: "note-1", Date: day.AddDate(0, 0, -2), Text: "Ölwechsel", Price: ptr.To(89.9)},
		{ID: "note-2", Date: day.AddDate(0, -1, 0), Text: "Reifenwechsel auf Sommerreifen", Price: ptr.To(40.0)},
		{ID: "note-3", Date: day.AddDate(0, -4, 0), Text: "TÜV ohne Mängel"},
	}
	return fx
}
