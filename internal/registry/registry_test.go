package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/tripdash/internal/store"
	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
)

type fakeLister struct {
	devices []v1.Device
	err     error
}

func (f *fakeLister) ListDevices(context.Context) ([]v1.Device, error) {
	return f.devices, f.err
}

func dev(id string) v1.Device {
	return v1.Device{DeviceID: id, Name: "Car " + id}
}

func persisted(t *testing.T, s store.Store) []string {
	t.Helper()
	var ids []string
	_, err := store.GetJSON(context.Background(), s, store.KeySelectedVehicles, &ids)
	require.NoError(t, err)
	return ids
}

func TestHydrate(t *testing.T) {
	tests := []struct {
		name      string
		persisted []string
		live      []v1.Device
		want      []string
	}{
		{
			name:      "intersection drops stale ids and ignores new devices",
			persisted: []string{"A", "C"},
			live:      []v1.Device{dev("A"), dev("B")},
			want:      []string{"A"},
		},
		{
			name:      "empty selection seeds the first live device",
			persisted: []string{},
			live:      []v1.Device{dev("X"), dev("Y")},
			want:      []string{"X"},
		},
		{
			name:      "nothing persisted seeds the first live device",
			persisted: nil,
			live:      []v1.Device{dev("X"), dev("Y")},
			want:      []string{"X"},
		},
		{
			name:      "no live devices",
			persisted: nil,
			live:      nil,
			want:      []string{},
		},
		{
			name:      "repeated live devices are kept once",
			persisted: []string{"A"},
			live:      []v1.Device{dev("A"), dev("A"), dev("B")},
			want:      []string{"A"},
		},
		{
			name:      "all persisted ids are gone",
			persisted: []string{"old"},
			live:      []v1.Device{dev("X")},
			want:      []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := store.NewMemory()
			if tt.persisted != nil {
				require.NoError(t, store.SetJSON(ctx, s, store.KeySelectedVehicles, tt.persisted))
			}

			r := New(&fakeLister{devices: tt.live}, s)
			require.NoError(t, r.Hydrate(ctx))

			assert.Equal(t, tt.want, r.IDs())
			assert.Equal(t, tt.want, persisted(t, s))
		})
	}
}

func TestHydrate_FailureKeepsState(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	lister := &fakeLister{devices: []v1.Device{dev("A"), dev("B")}}

	r := New(lister, s)
	require.NoError(t, r.Hydrate(ctx))
	require.NoError(t, r.Add(ctx, dev("B")))

	lister.err = errors.New("connection refused")
	err := r.Hydrate(ctx)
	require.Error(t, err)

	assert.Equal(t, []string{"A", "B"}, r.IDs())
	assert.Equal(t, []string{"A", "B"}, persisted(t, s))
}

func TestAdd_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	r := New(&fakeLister{}, s)

	require.NoError(t, r.Add(ctx, dev("A")))
	require.NoError(t, r.Add(ctx, v1.Device{DeviceID: "A", Name: "other"}))
	require.NoError(t, r.Add(ctx, dev("B")))

	assert.Equal(t, []string{"A", "B"}, r.IDs())
	d, ok := r.Get("A")
	require.True(t, ok)
	assert.Equal(t, "Car A", d.Name)
	assert.Equal(t, []string{"A", "B"}, persisted(t, s))
}

func TestRemove_ReassignsActive(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	r := New(&fakeLister{}, s)
	for _, id := range []string{"A", "B", "C"} {
		require.NoError(t, r.Add(ctx, dev(id)))
	}

	removed, err := r.Remove(ctx, "A")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, "B", r.Next("A"))
	assert.Equal(t, "C", r.Next("C"))

	removed, err = r.Remove(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, removed)

	_, _ = r.Remove(ctx, "B")
	_, _ = r.Remove(ctx, "C")
	assert.Empty(t, r.IDs())
	assert.Equal(t, "", r.Next("C"))
	assert.Equal(t, []string{}, persisted(t, s))
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	r := New(&fakeLister{}, store.NewMemory())
	require.NoError(t, r.Add(ctx, dev("A")))

	require.NoError(t, r.Rename(ctx, "A", "Familienauto"))
	require.NoError(t, r.Rename(ctx, "missing", "ignored"))

	assert.Equal(t, []v1.Device{{DeviceID: "A", Name: "Familienauto"}}, r.Devices())
	assert.True(t, r.Contains("A"))
	assert.False(t, r.Contains("missing"))
}
