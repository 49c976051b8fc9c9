package bargein

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlayThroughNeverMutes(t *testing.T) {
	g := New(PlayThrough)
	g.RegisterStream("sess-1", "sess-1:p1:a", func(string) {})
	affected := g.StopForSession("sess-1")
	assert.Empty(t, affected)
	assert.False(t, g.IsMuted("sess-1:p1:a"))
}

func TestPauseAndBufferMutesWithoutClearing(t *testing.T) {
	g := New(PauseAndBuffer)
	cleared := false
	g.RegisterStream("sess-1", "sess-1:p1:a", func(string) { cleared = true })

	affected := g.StopForSession("sess-1")
	assert.ElementsMatch(t, []string{"sess-1:p1:a"}, affected)
	assert.True(t, g.IsMuted("sess-1:p1:a"))
	assert.False(t, cleared)
}

func TestPauseAndDropMutesAndClears(t *testing.T) {
	g := New(PauseAndDrop)
	var cleared []string
	g.RegisterStream("sess-1", "sess-1:p1:a", func(k string) { cleared = append(cleared, k) })
	g.RegisterStream("sess-1", "sess-1:p2:b", func(k string) { cleared = append(cleared, k) })

	affected := g.StopForSession("sess-1")
	assert.ElementsMatch(t, []string{"sess-1:p1:a", "sess-1:p2:b"}, affected)
	assert.ElementsMatch(t, []string{"sess-1:p1:a", "sess-1:p2:b"}, cleared)
}

func TestOnlyAffectedSessionStreamsAreMuted(t *testing.T) {
	g := New(PauseAndBuffer)
	g.RegisterStream("sess-1", "sess-1:p1:a", func(string) {})
	g.RegisterStream("sess-2", "sess-2:p1:a", func(string) {})

	g.StopForSession("sess-1")
	assert.True(t, g.IsMuted("sess-1:p1:a"))
	assert.False(t, g.IsMuted("sess-2:p1:a"))
}

func TestClearMuteResumesStream(t *testing.T) {
	g := New(PauseAndBuffer)
	g.RegisterStream("sess-1", "sess-1:p1:a", func(string) {})
	g.StopForSession("sess-1")
	assert.True(t, g.IsMuted("sess-1:p1:a"))

	g.ClearMute("sess-1:p1:a")
	assert.False(t, g.IsMuted("sess-1:p1:a"))
}

func TestUnregisterStreamRemovesFromTracking(t *testing.T) {
	g := New(PauseAndDrop)
	g.RegisterStream("sess-1", "sess-1:p1:a", func(string) {})
	g.UnregisterStream("sess-1", "sess-1:p1:a")

	affected := g.StopForSession("sess-1")
	assert.Empty(t, affected)
}
