package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartsIdle(t *testing.T) {
	m := New()
	assert.Equal(t, Idle, m.State())
}

func TestHappyPathIdlePlayingDrainingIdle(t *testing.T) {
	m := New()
	assert.True(t, m.Transition(Playing))
	assert.True(t, m.Transition(Draining))
	assert.True(t, m.Transition(Idle))
	assert.Equal(t, Idle, m.State())
}

func TestBargeInInterruptsPlaying(t *testing.T) {
	m := New()
	m.Transition(Playing)
	assert.True(t, m.Transition(Interrupted))
	assert.True(t, m.Transition(Idle))
}

func TestBargeInInterruptsDraining(t *testing.T) {
	m := New()
	m.Transition(Playing)
	m.Transition(Draining)
	assert.True(t, m.Transition(Interrupted))
}

func TestIllegalTransitionRejectedAndStateUnchanged(t *testing.T) {
	m := New()
	assert.False(t, m.Transition(Draining))
	assert.Equal(t, Idle, m.State())

	m.Transition(Playing)
	assert.False(t, m.Transition(Idle))
	assert.Equal(t, Playing, m.State())
}

func TestInterruptedOnlyReturnsToIdle(t *testing.T) {
	m := New()
	m.Transition(Playing)
	m.Transition(Interrupted)
	assert.False(t, m.Transition(Draining))
	assert.False(t, m.Transition(Playing))
	assert.True(t, m.Transition(Idle))
}
