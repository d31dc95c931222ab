package store

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/autopeer-io/tripdash/pkg/options"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	s, err := NewGormStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStores(t *testing.T) {
	impls := map[string]func(t *testing.T) Store{
		"gorm":   newTestStore,
		"memory": func(*testing.T) Store { return NewMemory() },
	}

	for name, newStore := range impls {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			_, found, err := s.Get(ctx, KeyTimeRange)
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, s.Set(ctx, KeyTimeRange, "last_year"))
			v, found, err := s.Get(ctx, KeyTimeRange)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "last_year", v)

			// overwrite in place
			require.NoError(t, s.Set(ctx, KeyTimeRange, "this_month"))
			v, _, err = s.Get(ctx, KeyTimeRange)
			require.NoError(t, err)
			assert.Equal(t, "this_month", v)

			require.NoError(t, s.Delete(ctx, KeyTimeRange))
			_, found, err = s.Get(ctx, KeyTimeRange)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestJSONSlots(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var ids []string
	found, err := GetJSON(ctx, s, KeySelectedVehicles, &ids)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, s, KeySelectedVehicles, []string{"a", "b"}))

	raw, _, err := s.Get(ctx, KeySelectedVehicles)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, raw)

	found, err = GetJSON(ctx, s, KeySelectedVehicles, &ids)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, s.Set(ctx, KeySelectedVehicles, "{not json"))
	found, err = GetJSON(ctx, s, KeySelectedVehicles, &ids)
	assert.True(t, found)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	opts := options.NewStoreOptions()
	opts.DSN = t.TempDir() + "/nested/state.db"

	s, err := Open(opts)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(context.Background(), "k", "v"))

	opts.Driver = "mysql"
	_, err = Open(opts)
	assert.Error(t, err)
}
