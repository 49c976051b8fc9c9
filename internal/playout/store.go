package playout

import (
	"fmt"
	"sync"

	"github.com/rapidaai/translate-gateway/internal/audio"
	"github.com/rapidaai/translate-gateway/internal/playback"
)

// StreamKey builds the store key for a (session, participant, stream)
// triple. Falls back to commitID then the literal "stream" when streamID is
// empty, and to "unknown" when participantID is empty.
func StreamKey(sessionID, participantID, streamID, commitID string) string {
	p := participantID
	if p == "" {
		p = "unknown"
	}
	s := streamID
	if s == "" {
		s = commitID
	}
	if s == "" {
		s = "stream"
	}
	return fmt.Sprintf("%s:%s:%s", sessionID, p, s)
}

// participantKey identifies a participant within a session, independent of
// which stream is currently active for them.
func participantKey(sessionID, participantID string) string {
	return sessionID + ":" + participantID
}

// Store indexes playout streams by key and tracks which stream is currently
// active per participant, so the call mixer can look up "the" buffer for a
// participant without knowing stream ids.
type Store struct {
	mu                  sync.Mutex
	streams             map[string]*Stream
	activeByParticipant map[string]string
}

// NewStore constructs an empty playout store.
func NewStore() *Store {
	return &Store{
		streams:             make(map[string]*Stream),
		activeByParticipant: make(map[string]string),
	}
}

// GetOrCreate returns the existing stream for key, or creates one with the
// given format/frame/warmup sizing and marks it the active stream for its
// participant.
func (st *Store) GetOrCreate(key, sessionID, participantID string, fmt audio.Format, frameBytes, warmupBytes int) *Stream {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.streams[key]; ok {
		return s
	}
	s := &Stream{
		ParticipantAudioBuffer: NewParticipantAudioBuffer(frameBytes, warmupBytes),
		ID:                     key,
		SessionID:              sessionID,
		ParticipantID:          participantID,
		StreamKey:              key,
		Fmt:                    fmt,
		Playback:               playback.New(),
	}
	st.streams[key] = s
	st.activeByParticipant[participantKey(sessionID, participantID)] = key
	return s
}

// Get looks up a stream by key without creating it.
func (st *Store) Get(key string) (*Stream, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.streams[key]
	return s, ok
}

// Remove deletes a stream and, if it was the active stream for its
// participant, clears that mapping too.
func (st *Store) Remove(key string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.streams[key]
	if !ok {
		return
	}
	delete(st.streams, key)
	pk := participantKey(s.SessionID, s.ParticipantID)
	if st.activeByParticipant[pk] == key {
		delete(st.activeByParticipant, pk)
	}
}

// ActiveForParticipant returns the currently active stream for a
// participant, if any.
func (st *Store) ActiveForParticipant(sessionID, participantID string) (*Stream, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	key, ok := st.activeByParticipant[participantKey(sessionID, participantID)]
	if !ok {
		return nil, false
	}
	s, ok := st.streams[key]
	return s, ok
}

// Keys returns every stream key currently tracked, for diagnostics and
// session-teardown sweeps.
func (st *Store) Keys() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	keys := make([]string, 0, len(st.streams))
	for k := range st.streams {
		keys = append(keys, k)
	}
	return keys
}

// RemoveSession removes every stream belonging to a session (used on
// session teardown).
func (st *Store) RemoveSession(sessionID string) []string {
	st.mu.Lock()
	var toRemove []string
	for k, s := range st.streams {
		if s.SessionID == sessionID {
			toRemove = append(toRemove, k)
		}
	}
	st.mu.Unlock()

	for _, k := range toRemove {
		st.Remove(k)
	}
	return toRemove
}
