// Package bus implements the typed, named publish-to-many-handlers event
// bus: bounded per-handler queues, pause/resume, overflow policies, and
// ordered in-slot delivery.
package bus

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rapidaai/translate-gateway/internal/commons"
)

// OverflowPolicy governs what happens when a handler slot's queue is full.
type OverflowPolicy int

const (
	// DropNewest rejects the item currently being published for this slot.
	DropNewest OverflowPolicy = iota
	// DropOldest evicts the queue head, then enqueues the new item.
	DropOldest
	// Block back-pressures the publisher until space frees or timeout.
	Block
)

// HandlerFunc processes one published item. A returned error is logged as a
// HandlerFault and does not tear down the bus or the slot.
type HandlerFunc func(ctx context.Context, item interface{}) error

// SlotConfig configures a registered handler slot.
type SlotConfig struct {
	QueueMax    int
	Concurrency int
	Policy      OverflowPolicy
	// BlockTimeout bounds how long Block publishers wait for space; zero
	// means wait indefinitely (bounded only by ctx cancellation).
	BlockTimeout time.Duration
	// RateLimit, when positive, smooths admission into a Block-policy slot
	// to at most RateLimit events/sec (burst RateBurst, minimum 1). Zero
	// means unlimited — the common case for slots that aren't expected to
	// see bursty producers.
	RateLimit float64
	RateBurst int
}

// handlerSlot owns a bounded FIFO queue, its worker pool, and overflow/pause
// state for one registered handler.
type handlerSlot struct {
	name   string
	cfg    SlotConfig
	fn     HandlerFunc
	logger commons.Logger

	mu      sync.Mutex
	queue   []interface{}
	paused  bool
	limiter *rate.Limiter

	itemAvail chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func newHandlerSlot(name string, cfg SlotConfig, fn HandlerFunc, logger commons.Logger) *handlerSlot {
	if cfg.QueueMax <= 0 {
		cfg.QueueMax = 1
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &handlerSlot{
		name:      name,
		cfg:       cfg,
		fn:        fn,
		logger:    logger,
		itemAvail: make(chan struct{}, cfg.Concurrency+cfg.QueueMax),
		ctx:       ctx,
		cancel:    cancel,
	}
	if cfg.Policy == Block && cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for i := 0; i < cfg.Concurrency; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

func (s *handlerSlot) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.itemAvail:
			item, more, ok := s.dequeue()
			if !ok {
				continue
			}
			if more {
				// Re-signal so a dropped/coalesced token never strands a
				// queued item behind a worker that already consumed its
				// wakeup for this round.
				s.signal()
			}
			if err := s.fn(s.ctx, item); err != nil {
				s.logger.Warnw("handler fault", "slot", s.name, "error", err.Error())
			}
		}
	}
}

func (s *handlerSlot) dequeue() (item interface{}, more bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused || len(s.queue) == 0 {
		return nil, false, false
	}
	item = s.queue[0]
	s.queue = s.queue[1:]
	return item, len(s.queue) > 0, true
}

// publish enqueues item per the slot's overflow policy. It returns
// commons.OverflowApplied-class info via the bool return (true = accepted).
func (s *handlerSlot) publish(ctx context.Context, item interface{}) bool {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return false
		}
	}

	s.mu.Lock()
	if len(s.queue) < s.cfg.QueueMax {
		s.queue = append(s.queue, item)
		s.mu.Unlock()
		s.signal()
		return true
	}

	switch s.cfg.Policy {
	case DropOldest:
		s.queue = append(s.queue[1:], item)
		s.mu.Unlock()
		s.logger.Warnw("overflow applied: dropped oldest", "slot", s.name)
		s.signal()
		return true
	case Block:
		s.mu.Unlock()
		return s.blockingPublish(ctx, item)
	default: // DropNewest
		s.mu.Unlock()
		s.logger.Warnw("overflow applied: dropped newest", "slot", s.name)
		return false
	}
}

func (s *handlerSlot) blockingPublish(ctx context.Context, item interface{}) bool {
	deadlineCh := make(<-chan time.Time)
	if s.cfg.BlockTimeout > 0 {
		timer := time.NewTimer(s.cfg.BlockTimeout)
		defer timer.Stop()
		deadlineCh = timer.C
	}
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		s.mu.Lock()
		if len(s.queue) < s.cfg.QueueMax {
			s.queue = append(s.queue, item)
			s.mu.Unlock()
			s.signal()
			return true
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return false
		case <-s.ctx.Done():
			return false
		case <-deadlineCh:
			s.logger.Warnw("overflow applied: block timeout", "slot", s.name)
			return false
		case <-ticker.C:
		}
	}
}

func (s *handlerSlot) signal() {
	select {
	case s.itemAvail <- struct{}{}:
	default:
	}
}

// pause stops new items from reaching workers; items keep accumulating up to
// QueueMax and then the overflow policy applies as usual.
func (s *handlerSlot) pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

// resume drains without losing ordering by replaying signals for everything
// still queued.
func (s *handlerSlot) resume() {
	s.mu.Lock()
	s.paused = false
	n := len(s.queue)
	s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.signal()
	}
}

func (s *handlerSlot) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// clear atomically discards queued items, returning the count discarded.
func (s *handlerSlot) clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.queue)
	s.queue = nil
	return n
}

func (s *handlerSlot) shutdown() {
	s.cancel()
	s.wg.Wait()
}

// Bus is a named publish-to-many-handlers primitive. Each registered handler
// owns its own bounded queue and worker pool; publish fans out to every
// slot independently.
type Bus struct {
	name   string
	logger commons.Logger

	mu    sync.RWMutex
	slots map[string]*handlerSlot
}

// New constructs a named bus.
func New(name string, logger commons.Logger) *Bus {
	return &Bus{name: name, logger: logger, slots: make(map[string]*handlerSlot)}
}

// RegisterHandler attaches fn as a named handler slot with the given config.
// Registering the same name twice replaces the prior slot after shutting it
// down.
func (b *Bus) RegisterHandler(name string, cfg SlotConfig, fn HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.slots[name]; ok {
		existing.shutdown()
	}
	b.slots[name] = newHandlerSlot(name, cfg, fn, b.logger)
}

// Publish enqueues item into every registered handler slot that is not
// paused; a paused slot still accumulates up to QueueMax (then overflow
// policy applies), matching the bus's "paused slots keep buffering" design.
// It returns false if any slot dropped the item under its overflow policy
// (a paused slot that accepted the item into its queue still counts as
// accepted), true if every slot accepted it. A bus with no registered
// slots yet returns true — there is nothing to drop it.
func (b *Bus) Publish(ctx context.Context, item interface{}) bool {
	b.mu.RLock()
	slots := make([]*handlerSlot, 0, len(b.slots))
	for _, s := range b.slots {
		slots = append(slots, s)
	}
	b.mu.RUnlock()

	accepted := true
	for _, s := range slots {
		if s.isPaused() {
			if !s.publishWhilePaused(ctx, item) {
				accepted = false
			}
			continue
		}
		if !s.publish(ctx, item) {
			accepted = false
		}
	}
	return accepted
}

// publishWhilePaused enqueues without signalling workers — paused slots must
// not dispatch until resumed, but still apply overflow policy on queue_max.
func (s *handlerSlot) publishWhilePaused(ctx context.Context, item interface{}) bool {
	s.mu.Lock()
	if len(s.queue) < s.cfg.QueueMax {
		s.queue = append(s.queue, item)
		s.mu.Unlock()
		return true
	}
	switch s.cfg.Policy {
	case DropOldest:
		s.queue = append(s.queue[1:], item)
		s.mu.Unlock()
		s.logger.Warnw("overflow applied: dropped oldest (paused)", "slot", s.name)
		return true
	case Block:
		s.mu.Unlock()
		return s.blockingPublish(ctx, item)
	default:
		s.mu.Unlock()
		s.logger.Warnw("overflow applied: dropped newest (paused)", "slot", s.name)
		return false
	}
}

// Pause stops a slot's workers from picking up further items, without
// losing what's already queued.
func (b *Bus) Pause(name string) {
	b.mu.RLock()
	s, ok := b.slots[name]
	b.mu.RUnlock()
	if ok {
		s.pause()
	}
}

// Resume re-enables dispatch on a paused slot, preserving queue order.
func (b *Bus) Resume(name string) {
	b.mu.RLock()
	s, ok := b.slots[name]
	b.mu.RUnlock()
	if ok {
		s.resume()
	}
}

// Clear discards a slot's queued items, returning the count discarded.
func (b *Bus) Clear(name string) int {
	b.mu.RLock()
	s, ok := b.slots[name]
	b.mu.RUnlock()
	if !ok {
		return 0
	}
	return s.clear()
}

// Shutdown cancels every slot's workers and waits for them to drain.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	slots := make([]*handlerSlot, 0, len(b.slots))
	for _, s := range b.slots {
		slots = append(slots, s)
	}
	b.slots = make(map[string]*handlerSlot)
	b.mu.Unlock()

	for _, s := range slots {
		s.shutdown()
	}
}
