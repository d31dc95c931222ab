package fakeapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
	"github.com/autopeer-io/tripdash/pkg/options"
)

const fixtureYAML = `
users:
  - username: alice
    password: secret
devices:
  - deviceId: d1
    name: Car
  - deviceId: d2
    name: Van
trips:
  - id: t1
    deviceId: d1
    startTime: 2024-03-04T08:00:00Z
    endTime: 2024-03-04T09:00:00Z
    startLocation: Berlin
    endLocation: Potsdam
    distanceKm: 40
  - id: t2
    deviceId: d1
    startTime: 2024-03-10T19:00:00Z
    endTime: 2024-03-10T19:30:00Z
    startLocation: Potsdam
    endLocation: Berlin
    distanceKm: 20
  - id: t3
    deviceId: d1
    startTime: 2024-02-20T07:00:00Z
    endTime: 2024-02-20T07:30:00Z
    startLocation: Berlin
    endLocation: Leipzig
notes:
  d1:
    - id: n1
      noteDate: 2024-03-01T00:00:00Z
      noteText: Ölwechsel
      notePrice: 89.9
telemetry:
  t1:
    1709539200:
      speed: 50
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	fx, err := ParseFixtures([]byte(fixtureYAML))
	require.NoError(t, err)

	opts := options.NewFakeAPIOptions()
	opts.QPS = 0
	return New(opts, fx)
}

type session struct {
	t      *testing.T
	s      *Server
	cookie *http.Cookie
}

func login(t *testing.T, s *Server) *session {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"alice","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return &session{t: t, s: s, cookie: cookies[0]}
}

func (ss *session) do(method, target, contentType string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if ss.cookie != nil {
		req.AddCookie(ss.cookie)
	}
	ss.s.Handler().ServeHTTP(w, req)
	return w
}

func (ss *session) get(target string) *httptest.ResponseRecorder {
	return ss.do(http.MethodGet, target, "", nil)
}

func TestParseFixtures_Invalid(t *testing.T) {
	_, err := ParseFixtures([]byte("trips:\n  - id: t1\n    deviceId: ghost\n"))
	assert.Error(t, err)

	_, err = ParseFixtures([]byte("devices: [\n"))
	assert.Error(t, err)
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)

	anon := &session{t: t, s: s}
	assert.Equal(t, http.StatusUnauthorized, anon.get("/api/auth/me").Code)
	assert.Equal(t, http.StatusUnauthorized, anon.get("/api/devices").Code)

	w := anon.do(http.MethodPost, "/api/auth/login", "application/json", []byte(`{"username":"alice","password":"nope"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	ss := login(t, s)
	w = ss.get("/api/auth/me")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"username":"alice"}`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, ss.do(http.MethodPost, "/api/auth/logout", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ss.get("/api/auth/me").Code)
}

func TestAPIKey(t *testing.T) {
	opts := options.NewFakeAPIOptions()
	opts.APIKey = "k"
	s := New(opts, nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimit(t *testing.T) {
	opts := options.NewFakeAPIOptions()
	opts.QPS, opts.Burst = 1, 1
	s := New(opts, nil)

	codes := []int{}
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, http.StatusUnauthorized, codes[0])
	assert.Contains(t, codes[1:], http.StatusTooManyRequests)
}

func TestListTrips(t *testing.T) {
	ss := login(t, newTestServer(t))

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "all", query: "deviceId=d1", want: []string{"t1", "t2", "t3"}},
		{name: "window", query: "deviceId=d1&since=2024-03-01T00:00:00.000Z&end=2024-03-31T23:59:59.000Z", want: []string{"t1", "t2"}},
		{name: "first page", query: "deviceId=d1&page=0&pageSize=2", want: []string{"t1", "t2"}},
		{name: "second page", query: "deviceId=d1&page=1&pageSize=2", want: []string{"t3"}},
		{name: "past the end", query: "deviceId=d1&page=5&pageSize=2", want: []string{}},
		{name: "other device", query: "deviceId=d2", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ss.get("/api/trips/list?" + tt.query)
			require.Equal(t, http.StatusOK, w.Code)

			var byID map[string]v1.Trip
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &byID))
			got := []string{}
			for id := range byID {
				got = append(got, id)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}

	assert.Equal(t, http.StatusNotFound, ss.get("/api/trips/list?deviceId=ghost").Code)
	assert.Equal(t, http.StatusBadRequest, ss.get("/api/trips/list?deviceId=d1&since=yesterday").Code)
}

func TestAggregates(t *testing.T) {
	ss := login(t, newTestServer(t))
	q := "?deviceId=d1&since=2024-03-01T00:00:00.000Z"

	w := ss.get("/api/devices/stats" + q)
	require.Equal(t, http.StatusOK, w.Code)
	var stats v1.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TripCount)
	assert.InDelta(t, 60, stats.TotalKm, 1e-9)
	assert.Equal(t, 90, stats.TotalDriveTimeMinutes)
	assert.InDelta(t, 40, stats.AvgSpeed, 1e-9)

	w = ss.get("/api/trips/weekday" + q)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"MONDAY":1,"SUNDAY":1}`, w.Body.String())

	w = ss.get("/api/trips/time-of-day" + q)
	require.Equal(t, http.StatusOK, w.Code)
	var buckets []v1.Bucket
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &buckets))
	require.Len(t, buckets, 4)
	assert.Equal(t, v1.Bucket{Label: "Morgen", Value: 1}, buckets[1])
	assert.Equal(t, v1.Bucket{Label: "Abend", Value: 1}, buckets[3])
}

func TestTripDetailAndPatch(t *testing.T) {
	ss := login(t, newTestServer(t))

	w := ss.get("/api/trips/t1?deviceId=d1")
	require.Equal(t, http.StatusOK, w.Code)
	var d v1.TripDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, "Berlin", d.StartLocation)
	require.Len(t, d.Series(), 1)
	assert.Equal(t, 50.0, *d.Series()[0].Speed)

	assert.Equal(t, http.StatusNotFound, ss.get("/api/trips/t1?deviceId=d2").Code)

	w = ss.do(http.MethodPatch, "/api/trips/t1", "application/json", []byte(`{"endLocation":"Hamburg"}`))
	require.Equal(t, http.StatusOK, w.Code)
	var trip v1.Trip
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trip))
	assert.Equal(t, "Berlin", trip.StartLocation)
	assert.Equal(t, "Hamburg", trip.EndLocation)
}

func TestNotesLifecycle(t *testing.T) {
	ss := login(t, newTestServer(t))

	body, _ := json.Marshal(v1.NoteInput{Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Text: "TÜV", Price: ptr.To(120.0)})
	w := ss.do(http.MethodPost, "/api/devices/d1/notes", "application/json", body)
	require.Equal(t, http.StatusCreated, w.Code)
	var created v1.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	w = ss.get("/api/devices/d1/notes?page=0&pageSize=4")
	require.Equal(t, http.StatusOK, w.Code)
	var notes []v1.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notes))
	require.Len(t, notes, 2)
	assert.Equal(t, created.ID, notes[0].ID, "newest first")

	w = ss.get("/api/devices/d1/notes?since=2024-03-02T00:00:00.000Z")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notes))
	assert.Len(t, notes, 1)

	body, _ = json.Marshal(v1.NoteInput{Date: created.Date, Text: "TÜV bestanden"})
	w = ss.do(http.MethodPatch, "/api/devices/d1/notes/"+created.ID, "application/json", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "TÜV bestanden")

	assert.Equal(t, http.StatusBadRequest, ss.do(http.MethodPost, "/api/devices/d1/notes", "application/json", []byte(`{"noteText":""}`)).Code)

	assert.Equal(t, http.StatusNoContent, ss.do(http.MethodDelete, "/api/devices/d1/notes/n1", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, ss.do(http.MethodDelete, "/api/devices/d1/notes/n1", "", nil).Code)
}

func TestRenameAndPhoto(t *testing.T) {
	ss := login(t, newTestServer(t))

	w := ss.do(http.MethodPut, "/api/devices/d1/name", "text/plain", []byte("Bulli"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, ss.get("/api/devices").Body.String(), "Bulli")
	assert.Equal(t, http.StatusBadRequest, ss.do(http.MethodPut, "/api/devices/d1/name", "text/plain", nil).Code)

	assert.Equal(t, http.StatusNotFound, ss.get("/api/devices/d1/photo").Code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "car.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\nrest"))
	require.NoError(t, mw.Close())

	w = ss.do(http.MethodPatch, "/api/devices/d1/photo", mw.FormDataContentType(), buf.Bytes())
	require.Equal(t, http.StatusNoContent, w.Code)

	w = ss.get("/api/devices/d1/photo")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}
