package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/autopeer-io/tripdash/internal/dashboard"
	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
	"github.com/autopeer-io/tripdash/pkg/options"
)

type fakeProvider struct {
	checked bool
	objects map[string][]byte
	types   map[string]string
	failPut string
	expiry  time.Duration
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{objects: map[string][]byte{}, types: map[string]string{}}
}

func (p *fakeProvider) CheckBucket(context.Context) error {
	p.checked = true
	return nil
}

func (p *fakeProvider) PutObject(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	if key == p.failPut {
		return errors.New("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: %d != %d", len(data), size)
	}
	p.objects[key] = data
	p.types[key] = contentType
	return nil
}

func (p *fakeProvider) GeneratePresignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	p.expiry = expiry
	return "https://s3.local/" + key + "?sig=x", nil
}

func groups() []dashboard.MonthGroup {
	trips := []v1.Trip{
		{ID: "a", StartTime: time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC), DistanceKm: ptr.To(10.0)},
		{ID: "b", StartTime: time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC), DistanceKm: ptr.To(5.0)},
		{ID: "c", StartTime: time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)},
	}
	return dashboard.GroupByMonth(trips, time.UTC)
}

func TestExport(t *testing.T) {
	p := newFakeProvider()
	e := NewExporter(p, 0)

	objs, err := e.Export(context.Background(), "d1", groups())
	require.NoError(t, err)

	assert.True(t, p.checked)
	assert.Equal(t, DefaultExpiry, p.expiry)
	require.Len(t, objs, 2)
	assert.Equal(t, "trips/d1/2024-03.json", objs[0].Key)
	assert.Equal(t, "https://s3.local/trips/d1/2024-03.json?sig=x", objs[0].URL)
	assert.Equal(t, "trips/d1/2024-02.json", objs[1].Key)
	assert.Equal(t, "application/json", p.types[objs[0].Key])

	var doc Month
	require.NoError(t, json.Unmarshal(p.objects["trips/d1/2024-03.json"], &doc))
	assert.Equal(t, "d1", doc.DeviceID)
	assert.Equal(t, "März 2024", doc.Title)
	assert.Equal(t, 2, doc.TripCount)
	assert.InDelta(t, 15, doc.TotalKm, 1e-9)
	assert.Equal(t, "a", doc.Trips[0].ID)
}

func TestExport_Failures(t *testing.T) {
	_, err := NewExporter(newFakeProvider(), time.Hour).Export(context.Background(), "", groups())
	assert.True(t, errdefs.IsValidation(err))

	p := newFakeProvider()
	p.failPut = "trips/d1/2024-02.json"
	objs, err := NewExporter(p, time.Hour).Export(context.Background(), "d1", groups())
	assert.Error(t, err)
	assert.Len(t, objs, 1, "months uploaded before the failure are reported")
	assert.Equal(t, time.Hour, p.expiry)
}

func TestNewMinIOProvider(t *testing.T) {
	opts := options.NewS3Options()
	opts.InsecureSkipVerify = true
	p, err := NewMinIOProvider(opts)
	require.NoError(t, err)
	assert.NotNil(t, p)

	opts.Endpoint = "s3.local/bucket"
	_, err = NewMinIOProvider(opts)
	assert.Error(t, err)
}
