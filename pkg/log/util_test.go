package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/utils/ptr"
)

type rangeName string

func (r rangeName) String() string { return "range:" + string(r) }

func TestToFields(t *testing.T) {
	boom := errors.New("boom")
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input []any
		want  []zap.Field
	}{
		{"empty", nil, nil},
		{"pairs", []any{"device", "d1", "page", 2, "more", true},
			[]zap.Field{zap.String("device", "d1"), zap.Int("page", 2), zap.Bool("more", true)}},
		{"bare error", []any{boom, "device", "d1"},
			[]zap.Field{zap.Error(boom), zap.String("device", "d1")}},
		{"zap field passes through", []any{zap.String("x", "y"), "n", int64(3)},
			[]zap.Field{zap.String("x", "y"), zap.Int64("n", 3)}},
		{"trailing key", []any{"device", "d1", "orphan"},
			[]zap.Field{zap.String("device", "d1"), zap.Any("arg#2", "orphan")}},
		{"optional float", []any{"km", ptr.To(42.5), "missing", (*float64)(nil)},
			[]zap.Field{zap.Float64("km", 42.5), zap.Skip()}},
		{"time and duration", []any{"at", now, "took", time.Second},
			[]zap.Field{zap.Time("at", now), zap.Duration("took", time.Second)}},
		{"ids", []any{"ids", []string{"d1", "d2"}},
			[]zap.Field{zap.Strings("ids", []string{"d1", "d2"})}},
		{"stringer", []any{"range", rangeName("last_year")},
			[]zap.Field{zap.Stringer("range", rangeName("last_year"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toFields(tt.input...))
		})
	}
}

func TestToFields_NonStringKey(t *testing.T) {
	fields := toFields(123, "value")
	require.Len(t, fields, 1)
	assert.Equal(t, "invalid_key_1", fields[0].Key)
	assert.Equal(t, zapcore.ReflectType, fields[0].Type)
}
