package sextet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLightNameLookup(t *testing.T) {
	tests := []struct {
		pos    Position
		want   string
		wantOK bool
	}{
		{Position{0, 0x01}, "marquee_upper_left", true},
		{Position{0, 0x02}, "marquee_upper_right", true},
		{Position{0, 0x20}, "bass_right", true},
		{Position{1, 0x10}, "player_1_start", true},
		{Position{6, 0x01}, "player_1_19", true},
		{Position{7, 0x10}, "player_2_start", true},
		{Position{12, 0x01}, "player_2_19", true},
		{Position{2, 0x20}, "", false},  // unmapped
		{Position{6, 0x02}, "", false},  // unmapped
		{Position{0, 0x03}, "", false},  // not a single bit
		{Position{0, 0x40}, "", false},  // outside the data mask
		{Position{13, 0x01}, "", false}, // outside the frame
		{Position{-1, 0x01}, "", false},
	}

	for _, tt := range tests {
		got, ok := LightName(tt.pos)
		assert.Equal(t, tt.wantOK, ok, "LightName(%+v)", tt.pos)
		assert.Equal(t, tt.want, got, "LightName(%+v)", tt.pos)
	}
}

func TestLightTableRoundTrip(t *testing.T) {
	seen := make(map[string]bool)
	for pos, name := range MappedLights() {
		require.False(t, seen[name], "duplicate light name %q", name)
		seen[name] = true

		back, ok := LightPosition(name)
		require.True(t, ok, name)
		assert.Equal(t, pos, back)

		fwd, ok := LightName(pos)
		require.True(t, ok)
		assert.Equal(t, name, fwd)
	}

	assert.Equal(t, 66, LightCount())
	assert.Len(t, seen, LightCount())
}

func TestMainLightHasNoPosition(t *testing.T) {
	_, ok := LightPosition(MainLight)
	assert.False(t, ok)
}

func TestMappedLightsStreamOrder(t *testing.T) {
	var last Position
	first := true
	for pos := range MappedLights() {
		if !first {
			assert.True(t, positionLess(last, pos), "%+v not after %+v", pos, last)
		}
		last, first = pos, false
	}
}

func TestMappedLightsStopsEarly(t *testing.T) {
	n := 0
	for range MappedLights() {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func positionLess(a, b Position) bool {
	if a.Index != b.Index {
		return a.Index < b.Index
	}
	return a.Mask < b.Mask
}
