package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinLimit(t *testing.T) {
	l := New(3, time.Minute)

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"))
}

func TestWindowReset(t *testing.T) {
	now := time.Now()
	l := New(2, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("k"))
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))

	now = now.Add(61 * time.Second)

	assert.True(t, l.Allow("k"))
}

func TestDeniedRequestDoesNotConsume(t *testing.T) {
	now := time.Now()
	l := New(2, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("k")
	l.Allow("k")

	// Hammering a denied key must not push the reset further out.
	for i := 0; i < 10; i++ {
		assert.False(t, l.Allow("k"))
	}

	now = now.Add(61 * time.Second)
	assert.True(t, l.Allow("k"))
}

func TestExpiredEntriesSwept(t *testing.T) {
	now := time.Now()
	l := New(5, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	l.Allow("c")
	assert.Equal(t, 3, l.Len())

	now = now.Add(2 * time.Minute)

	l.Allow("d")
	assert.Equal(t, 1, l.Len())
}
