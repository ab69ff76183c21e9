package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystem_NowIsUTC(t *testing.T) {
	now := New().Now()

	assert.Equal(t, time.UTC, now.Location())
	assert.WithinDuration(t, time.Now(), now, time.Second)
}

func TestManual(t *testing.T) {
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewManual(start)

	assert.Equal(t, start, c.Now())

	c.Advance(5 * time.Minute)
	assert.Equal(t, start.Add(5*time.Minute), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}
