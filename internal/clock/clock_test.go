package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.FixedZone("X", 3600))
	c := NewFakeClock(start)

	assert.Equal(t, start.UTC(), c.Now())
	c.Advance(90 * time.Minute)
	assert.Equal(t, start.UTC().Add(90*time.Minute), c.Now())
}

func TestSystemClockIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, SystemClock{}.Now().Location())
}
