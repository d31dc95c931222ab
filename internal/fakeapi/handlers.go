package fakeapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
)

const maxPhotoSize = 10 << 20

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func notFound(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": what + " not found"})
}

func parseInstant(c *gin.Context, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return t, nil
}

func parseWindow(c *gin.Context) (window, error) {
	since, err := parseInstant(c, "since")
	if err != nil {
		return window{}, err
	}
	end, err := parseInstant(c, "end")
	if err != nil {
		return window{}, err
	}
	return window{since: since, end: end}, nil
}

// paginate cuts page out of items when pageSize is given.
func paginate[T any](c *gin.Context, items []T) ([]T, error) {
	rawSize := c.Query("pageSize")
	if rawSize == "" {
		return items, nil
	}
	size, err := strconv.Atoi(rawSize)
	if err != nil || size <= 0 {
		return nil, fmt.Errorf("invalid pageSize %q", rawSize)
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		return nil, fmt.Errorf("invalid page %q", c.Query("page"))
	}

	from := page * size
	if from >= len(items) {
		return []T{}, nil
	}
	to := min(from+size, len(items))
	return items[from:to], nil
}

// deviceTrips resolves deviceId and the window of a trips query.
func (s *Server) deviceTrips(c *gin.Context) ([]v1.Trip, bool) {
	deviceID := c.Query("deviceId")
	if !s.state.hasDevice(deviceID) {
		notFound(c, "device")
		return nil, false
	}
	w, err := parseWindow(c)
	if err != nil {
		badRequest(c, err)
		return nil, false
	}
	return s.state.tripsOf(deviceID, w), true
}

func (s *Server) login(c *gin.Context) {
	var creds v1.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		badRequest(c, err)
		return
	}
	token, ok := s.state.login(creds.Username, creds.Password)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.SetCookie(sessionCookie, token, 0, "/", "", false, true)
	c.JSON(http.StatusOK, v1.User{Username: creds.Username})
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, v1.User{Username: c.GetString(userKey)})
}

func (s *Server) logout(c *gin.Context) {
	s.state.logout(c.GetString(tokenKey))
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

func (s *Server) listDevices(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.listDevices())
}

func (s *Server) renameDevice(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1024))
	if err != nil {
		badRequest(c, err)
		return
	}
	name := strings.TrimSpace(string(body))
	if name == "" {
		badRequest(c, fmt.Errorf("name must not be empty"))
		return
	}
	d, ok := s.state.renameDevice(c.Param("id"), name)
	if !ok {
		notFound(c, "device")
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) deviceStats(c *gin.Context) {
	trips, ok := s.deviceTrips(c)
	if !ok {
		return
	}

	var (
		stats   v1.Stats
		minutes float64
	)
	for _, t := range trips {
		stats.TripCount++
		if t.DistanceKm != nil {
			stats.TotalKm += *t.DistanceKm
		}
		minutes += t.Duration().Minutes()
	}
	stats.TotalDriveTimeMinutes = int(minutes)
	if minutes > 0 {
		stats.AvgSpeed = stats.TotalKm / (minutes / 60)
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) listTrips(c *gin.Context) {
	trips, ok := s.deviceTrips(c)
	if !ok {
		return
	}
	page, err := paginate(c, trips)
	if err != nil {
		badRequest(c, err)
		return
	}

	byID := make(map[string]v1.Trip, len(page))
	for _, t := range page {
		byID[t.ID] = t
	}
	c.JSON(http.StatusOK, byID)
}

func (s *Server) tripsPerWeekday(c *gin.Context) {
	trips, ok := s.deviceTrips(c)
	if !ok {
		return
	}
	counts := map[string]int{}
	for _, t := range trips {
		counts[strings.ToUpper(t.StartTime.Weekday().String())]++
	}
	c.JSON(http.StatusOK, counts)
}

// timeSlots are the buckets of the time-of-day histogram, by start hour.
var timeSlots = []struct {
	label    string
	from, to int
}{
	{"Nacht", 0, 6},
	{"Morgen", 6, 12},
	{"Nachmittag", 12, 18},
	{"Abend", 18, 24},
}

func (s *Server) tripsByTimeOfDay(c *gin.Context) {
	trips, ok := s.deviceTrips(c)
	if !ok {
		return
	}
	buckets := make([]v1.Bucket, len(timeSlots))
	for i, slot := range timeSlots {
		buckets[i].Label = slot.label
	}
	for _, t := range trips {
		h := t.StartTime.Hour()
		for i, slot := range timeSlots {
			if h >= slot.from && h < slot.to {
				buckets[i].Value++
			}
		}
	}
	c.JSON(http.StatusOK, buckets)
}

func (s *Server) getTrip(c *gin.Context) {
	d, ok := s.state.trip(c.Param("id"))
	if !ok {
		notFound(c, "trip")
		return
	}
	if id := c.Query("deviceId"); id != "" && id != d.DeviceID {
		notFound(c, "trip")
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) patchTrip(c *gin.Context) {
	var p v1.TripPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	t, ok := s.state.patchTrip(c.Param("id"), p)
	if !ok {
		notFound(c, "trip")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) listNotes(c *gin.Context) {
	deviceID := c.Param("id")
	if !s.state.hasDevice(deviceID) {
		notFound(c, "device")
		return
	}
	w, err := parseWindow(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	page, err := paginate(c, s.state.notesOf(deviceID, w))
	if err != nil {
		badRequest(c, err)
		return
	}
	if page == nil {
		page = []v1.Note{}
	}
	c.JSON(http.StatusOK, page)
}

func bindNote(c *gin.Context) (v1.NoteInput, bool) {
	var in v1.NoteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return in, false
	}
	if in.Date.IsZero() || strings.TrimSpace(in.Text) == "" {
		badRequest(c, fmt.Errorf("noteDate and noteText are required"))
		return in, false
	}
	return in, true
}

func (s *Server) createNote(c *gin.Context) {
	deviceID := c.Param("id")
	if !s.state.hasDevice(deviceID) {
		notFound(c, "device")
		return
	}
	in, ok := bindNote(c)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, s.state.createNote(deviceID, in))
}

func (s *Server) updateNote(c *gin.Context) {
	in, ok := bindNote(c)
	if !ok {
		return
	}
	n, ok := s.state.updateNote(c.Param("id"), c.Param("noteId"), in)
	if !ok {
		notFound(c, "note")
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *Server) deleteNote(c *gin.Context) {
	if !s.state.deleteNote(c.Param("id"), c.Param("noteId")) {
		notFound(c, "note")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) uploadPhoto(c *gin.Context) {
	deviceID := c.Param("id")
	if !s.state.hasDevice(deviceID) {
		notFound(c, "device")
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, err)
		return
	}
	if fh.Size > maxPhotoSize {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		badRequest(c, err)
		return
	}
	s.state.setPhoto(deviceID, photo{contentType: http.DetectContentType(data), data: data})
	c.Status(http.StatusNoContent)
}

func (s *Server) getPhoto(c *gin.Context) {
	p, ok := s.state.photo(c.Param("id"))
	if !ok {
		notFound(c, "photo")
		return
	}
	c.Data(http.StatusOK, p.contentType, p.data)
}
