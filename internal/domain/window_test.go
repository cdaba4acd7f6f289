package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestWindow_Boundaries(t *testing.T) {
	w := DefaultWindow()

	assert.True(t, w.Contains(testNow.Add(3*time.Hour), testNow), "exactamente 3h entra")
	assert.False(t, w.Contains(testNow.Add(3*time.Hour-time.Second), testNow), "2h59m59s no entra")
	assert.True(t, w.Contains(testNow.Add(24*time.Hour), testNow), "exactamente 24h entra")
	assert.False(t, w.Contains(testNow.Add(24*time.Hour+time.Second), testNow), "24h0m1s no entra")
}

func TestWindow_PastKickoff(t *testing.T) {
	assert.False(t, DefaultWindow().Contains(testNow.Add(-time.Hour), testNow))
}

func TestWindow_ContainsRaw_Formats(t *testing.T) {
	w := DefaultWindow()

	assert.True(t, w.ContainsRaw("2026-03-14T18:00:00Z", testNow))
	// 20:00+02:00 == 18:00Z
	assert.True(t, w.ContainsRaw("2026-03-14T20:00:00+02:00", testNow))
	assert.False(t, w.ContainsRaw("2026-03-14T13:00:00Z", testNow))
}

func TestWindow_ContainsRaw_Unparseable(t *testing.T) {
	w := DefaultWindow()
	for _, raw := range []string{"", "tomorrow", "2026-03-14 18:00", "2026-13-40T00:00:00Z"} {
		assert.False(t, w.ContainsRaw(raw, testNow), raw)
	}
}

func TestParseKickoff_InvalidWrapsSentinel(t *testing.T) {
	_, err := ParseKickoff("nope")
	assert.ErrorIs(t, err, ErrInvalidKickoff)
}
