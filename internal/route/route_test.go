package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		path   string
		device string
	}{
		{"root with device", "/?device=d1", RootPath, "d1"},
		{"history", "/history?device=abc", HistoryPath, "abc"},
		{"empty defaults to root", "", RootPath, ""},
		{"no device", "/notes", NotesPath, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.path, loc.Path)
			assert.Equal(t, tt.device, loc.Device())
		})
	}
}

func TestWithDevice(t *testing.T) {
	loc, err := Parse("/history?device=a&tab=x")
	require.NoError(t, err)

	next := loc.WithDevice("b")
	assert.Equal(t, "b", next.Device())
	assert.Equal(t, "x", next.Query.Get("tab"))
	assert.Equal(t, "a", loc.Device(), "original must not change")

	cleared := next.WithDevice("")
	assert.Equal(t, "", cleared.Device())
	assert.Equal(t, "/history?tab=x", cleared.String())
}

func TestLoginRemembersOrigin(t *testing.T) {
	origin := Root("d1")
	login := origin.Login()

	assert.Equal(t, LoginPath, login.Path)
	require.NotNil(t, login.From)
	assert.Equal(t, "/?device=d1", login.From.String())

	// a second redirect does not nest origins
	again := login.Login()
	require.NotNil(t, again.From)
	assert.Nil(t, again.From.From)
}
