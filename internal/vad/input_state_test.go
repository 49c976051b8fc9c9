package vad

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartsSilent(t *testing.T) {
	s := New(200*time.Millisecond, 700*time.Millisecond)
	assert.Equal(t, StatusSilence, s.Status())
}

func TestVoiceBelowHysteresisDoesNotFlip(t *testing.T) {
	s := New(200*time.Millisecond, 700*time.Millisecond)
	base := time.Now()
	s.OnVoiceDetected(base)
	s.OnVoiceDetected(base.Add(100 * time.Millisecond))
	assert.Equal(t, StatusSilence, s.Status())
}

func TestVoiceAtOrAboveHysteresisFlipsToSpeaking(t *testing.T) {
	s := New(200*time.Millisecond, 700*time.Millisecond)
	base := time.Now()
	s.OnVoiceDetected(base)
	s.OnVoiceDetected(base.Add(200 * time.Millisecond))
	assert.Equal(t, StatusSpeaking, s.Status())
}

func TestSilenceBelowTimeoutKeepsSpeaking(t *testing.T) {
	s := New(200*time.Millisecond, 700*time.Millisecond)
	base := time.Now()
	s.OnVoiceDetected(base)
	s.OnVoiceDetected(base.Add(200 * time.Millisecond))
	assert.Equal(t, StatusSpeaking, s.Status())

	s.OnSilenceDetected(base.Add(210 * time.Millisecond))
	s.OnSilenceDetected(base.Add(500 * time.Millisecond))
	assert.Equal(t, StatusSpeaking, s.Status())
}

func TestSilenceAtOrAboveTimeoutFlipsToSilence(t *testing.T) {
	s := New(200*time.Millisecond, 700*time.Millisecond)
	base := time.Now()
	s.OnVoiceDetected(base)
	s.OnVoiceDetected(base.Add(200 * time.Millisecond))

	silenceStart := base.Add(210 * time.Millisecond)
	s.OnSilenceDetected(silenceStart)
	s.OnSilenceDetected(silenceStart.Add(700 * time.Millisecond))
	assert.Equal(t, StatusSilence, s.Status())
}

func TestListenersFireInRegistrationOrder(t *testing.T) {
	s := New(100*time.Millisecond, 100*time.Millisecond)
	var order []int
	s.AddListener(func(Status) { order = append(order, 1) })
	s.AddListener(func(Status) { order = append(order, 2) })
	s.AddListener(func(Status) { order = append(order, 3) })

	base := time.Now()
	s.OnVoiceDetected(base)
	s.OnVoiceDetected(base.Add(100 * time.Millisecond))
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestResetClearsCandidatesWithoutNotifying(t *testing.T) {
	s := New(100*time.Millisecond, 100*time.Millisecond)
	notified := false
	s.AddListener(func(Status) { notified = true })

	base := time.Now()
	s.OnVoiceDetected(base)
	s.OnVoiceDetected(base.Add(100 * time.Millisecond))
	notified = false // ignore the flip-to-speaking notification
	s.Reset()
	assert.False(t, notified)
	assert.Equal(t, StatusSilence, s.Status())
}
