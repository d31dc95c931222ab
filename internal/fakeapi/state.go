package fakeapi

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
)

type photo struct {
	contentType string
	data        []byte
}

// state is the in-memory database behind the handlers.
type state struct {
	mu sync.RWMutex

	passwords map[string]string
	sessions  map[string]string

	devices   []v1.Device
	trips     map[string]v1.Trip
	telemetry map[string]map[int64]v1.TelemetrySample
	notes     map[string][]v1.Note
	photos    map[string]photo
}

func newState(fx *Fixtures) *state {
	s := &state{
		passwords: map[string]string{},
		sessions:  map[string]string{},
		trips:     map[string]v1.Trip{},
		telemetry: map[string]map[int64]v1.TelemetrySample{},
		notes:     map[string][]v1.Note{},
		photos:    map[string]photo{},
	}
	if fx == nil {
		return s
	}

	for _, u := range fx.Users {
		s.passwords[u.Username] = u.Password
	}
	s.devices = append(s.devices, fx.Devices...)
	for _, t := range fx.Trips {
		s.trips[t.ID] = t
	}
	for id, samples := range fx.Telemetry {
		s.telemetry[id] = samples
	}
	for id, notes := range fx.Notes {
		s.notes[id] = append([]v1.Note(nil), notes...)
	}
	return s
}

func (s *state) login(username, password string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want, ok := s.passwords[username]
	if !ok || want != password {
		return "", false
	}
	token := uuid.NewString()
	s.sessions[token] = username
	return token, true
}

func (s *state) user(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.sessions[token]
	return u, ok
}

func (s *state) logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

func (s *state) listDevices() []v1.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]v1.Device{}, s.devices...)
}

func (s *state) hasDevice(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deviceIndex(id) >= 0
}

func (s *state) deviceIndex(id string) int {
	for i, d := range s.devices {
		if d.DeviceID == id {
			return i
		}
	}
	return -1
}

func (s *state) renameDevice(id, name string) (v1.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.deviceIndex(id)
	if i < 0 {
		return v1.Device{}, false
	}
	s.devices[i].Name = name
	return s.devices[i], true
}

// window bounds a listing; zero values are open.
type window struct {
	since, end time.Time
}

func (w window) contains(t time.Time) bool {
	if !w.since.IsZero() && t.Before(w.since) {
		return false
	}
	if !w.end.IsZero() && t.After(w.end) {
		return false
	}
	return true
}

// tripsOf returns the trips of a device inside w, newest first.
func (s *state) tripsOf(deviceID string, w window) []v1.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []v1.Trip
	for _, t := range s.trips {
		if t.DeviceID == deviceID && w.contains(t.StartTime) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out
}

func (s *state) trip(id string) (v1.TripDetail, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trips[id]
	if !ok {
		return v1.TripDetail{}, false
	}
	return v1.TripDetail{Trip: t, TimedData: s.telemetry[id]}, true
}

func (s *state) patchTrip(id string, p v1.TripPatch) (v1.Trip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[id]
	if !ok {
		return v1.Trip{}, false
	}
	if p.StartLocation != nil {
		t.StartLocation = *p.StartLocation
	}
	if p.EndLocation != nil {
		t.EndLocation = *p.EndLocation
	}
	if p.Note != nil {
		t.Note = *p.Note
	}
	s.trips[id] = t
	return t, true
}

// notesOf returns the notes of a device inside w, newest first.
func (s *state) notesOf(deviceID string, w window) []v1.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []v1.Note
	for _, n := range s.notes[deviceID] {
		if w.contains(n.Date) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (s *state) createNote(deviceID string, in v1.NoteInput) v1.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := v1.Note{ID: uuid.NewString(), Date: in.Date, Text: strings.TrimSpace(in.Text), Price: in.Price}
	s.notes[deviceID] = append(s.notes[deviceID], n)
	return n
}

func (s *state) updateNote(deviceID, noteID string, in v1.NoteInput) (v1.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notes[deviceID] {
		if n.ID == noteID {
			n.Date, n.Text, n.Price = in.Date, strings.TrimSpace(in.Text), in.Price
			s.notes[deviceID][i] = n
			return n, true
		}
	}
	return v1.Note{}, false
}

func (s *state) deleteNote(deviceID, noteID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	notes := s.notes[deviceID]
	for i, n := range notes {
		if n.ID == noteID {
			s.notes[deviceID] = append(notes[:i:i], notes[i+1:]...)
			return true
		}
	}
	return false
}

func (s *state) setPhoto(deviceID string, p photo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos[deviceID] = p
}

func (s *state) photo(deviceID string) (photo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.photos[deviceID]
	return p, ok
}
