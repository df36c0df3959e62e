package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func fired(t Timer) bool {
	select {
	case <-t.C():
		return true
	default:
		return false
	}
}

func TestManual_AdvanceFiresDueTimers(t *testing.T) {
	m := NewManual(epoch)
	short := m.NewTimer(time.Second)
	long := m.NewTimer(5 * time.Second)
	require.Equal(t, 2, m.Pending())

	m.Advance(999 * time.Millisecond)
	assert.False(t, fired(short))

	m.Advance(time.Millisecond)
	assert.True(t, fired(short))
	assert.False(t, fired(long))
	assert.Equal(t, 1, m.Pending())
	assert.Equal(t, epoch.Add(time.Second), m.Now())

	m.Advance(10 * time.Second)
	assert.True(t, fired(long))
	assert.Zero(t, m.Pending())
}

func TestManual_Stop(t *testing.T) {
	m := NewManual(epoch)
	timer := m.NewTimer(time.Second)

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second Stop reports nothing was prevented")

	m.Advance(time.Minute)
	assert.False(t, fired(timer))
}

func TestManual_ZeroDurationFiresOnNextAdvance(t *testing.T) {
	m := NewManual(epoch)
	timer := m.NewTimer(0)
	assert.False(t, fired(timer))
	m.Advance(0)
	assert.True(t, fired(timer))
}

func TestReal_Timer(t *testing.T) {
	c := Real()
	before := c.Now()
	timer := c.NewTimer(5 * time.Millisecond)
	select {
	case at := <-timer.C():
		assert.False(t, at.Before(before))
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
	assert.False(t, timer.Stop())
}
