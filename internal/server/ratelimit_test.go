package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Unix(100, 0)
	l := newRateLimiter(2, time.Second)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow())
	assert.True(t, l.allow())
	assert.False(t, l.allow())

	now = now.Add(999 * time.Millisecond)
	assert.False(t, l.allow())

	now = now.Add(time.Millisecond)
	assert.True(t, l.allow())
}

func TestRateLimiterDisabled(t *testing.T) {
	l := newRateLimiter(0, time.Second)
	assert.Nil(t, l)
	for i := 0; i < 100; i++ {
		assert.True(t, l.allow())
	}
}
