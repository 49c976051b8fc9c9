// Package bargein implements the barge-in gate sitting between the call
// outbound mixer and ACS egress: when the caller starts speaking while a
// playout stream is active, the gate mutes (and optionally clears) the
// affected streams per the configured mode.
package bargein

import "sync"

// Mode selects how the gate reacts to a barge-in.
type Mode string

const (
	// PlayThrough never mutes or clears on barge-in; the gate is inert.
	PlayThrough Mode = "play_through"
	// PauseAndBuffer mutes affected streams but keeps their buffers, so
	// playout can resume where it left off once barge-in clears.
	PauseAndBuffer Mode = "pause_and_buffer"
	// PauseAndDrop mutes and clears affected streams' buffers outright.
	PauseAndDrop Mode = "pause_and_drop"
)

// BufferClearer clears a playout stream's buffered audio; registered once
// per stream key so the gate can drop buffered frames under PauseAndDrop
// without importing the playout package.
type BufferClearer func(streamKey string)

// Gate tracks, per call session, which playout stream keys are currently
// active and which are muted by barge-in.
type Gate struct {
	mode Mode

	mu      sync.Mutex
	active  map[string]map[string]struct{} // sessionID -> set of stream keys
	muted   map[string]struct{}            // stream key -> muted
	clearer map[string]BufferClearer       // stream key -> registered clearer
}

// New constructs a Gate operating in the given mode.
func New(mode Mode) *Gate {
	return &Gate{
		mode:    mode,
		active:  make(map[string]map[string]struct{}),
		muted:   make(map[string]struct{}),
		clearer: make(map[string]BufferClearer),
	}
}

// RegisterStream records that streamKey belongs to sessionID and is
// currently playing, with clear as the callback to empty its buffer should
// a PauseAndDrop barge-in occur.
func (g *Gate) RegisterStream(sessionID, streamKey string, clear BufferClearer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active[sessionID] == nil {
		g.active[sessionID] = make(map[string]struct{})
	}
	g.active[sessionID][streamKey] = struct{}{}
	g.clearer[streamKey] = clear
}

// UnregisterStream removes a stream from tracking (on audio.done or
// session teardown).
func (g *Gate) UnregisterStream(sessionID, streamKey string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if set, ok := g.active[sessionID]; ok {
		delete(set, streamKey)
		if len(set) == 0 {
			delete(g.active, sessionID)
		}
	}
	delete(g.muted, streamKey)
	delete(g.clearer, streamKey)
}

// StopForSession reacts to a barge-in detected for sessionID: every
// currently active stream key for that session is muted (and, under
// PauseAndDrop, cleared). Returns the affected stream keys. A no-op under
// PlayThrough.
func (g *Gate) StopForSession(sessionID string) []string {
	if g.mode == PlayThrough {
		return nil
	}

	g.mu.Lock()
	set := g.active[sessionID]
	affected := make([]string, 0, len(set))
	toClear := make(map[string]BufferClearer)
	for key := range set {
		affected = append(affected, key)
		g.muted[key] = struct{}{}
		if g.mode == PauseAndDrop {
			if c, ok := g.clearer[key]; ok {
				toClear[key] = c
			}
		}
	}
	g.mu.Unlock()

	for key, clear := range toClear {
		clear(key)
	}
	return affected
}

// ClearMute resumes a previously muted stream (barge-in episode ended).
func (g *Gate) ClearMute(streamKey string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.muted, streamKey)
}

// IsMuted reports whether a stream is currently muted by barge-in.
func (g *Gate) IsMuted(streamKey string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, muted := g.muted[streamKey]
	return muted
}
