// Package session wires one call's full pipeline together: ingress,
// dispatcher, playout/mixer, barge-in gate, and egress, all sharing the
// session's lifecycle context.
package session

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rapidaai/translate-gateway/internal/acsegress"
	"github.com/rapidaai/translate-gateway/internal/acsingress"
	"github.com/rapidaai/translate-gateway/internal/audio"
	"github.com/rapidaai/translate-gateway/internal/bargein"
	"github.com/rapidaai/translate-gateway/internal/bus"
	"github.com/rapidaai/translate-gateway/internal/commons"
	"github.com/rapidaai/translate-gateway/internal/config"
	"github.com/rapidaai/translate-gateway/internal/dispatcher"
	"github.com/rapidaai/translate-gateway/internal/mixer"
	"github.com/rapidaai/translate-gateway/internal/playout"
	"github.com/rapidaai/translate-gateway/internal/providerclient"
	"github.com/rapidaai/translate-gateway/internal/vad"
)

const (
	acsEgressSlot = "acs-egress"
)

// Session owns one call's full pipeline: the buses, adapters, and the
// derived lifecycle context every component shares.
type Session struct {
	id     string
	cfg    config.Config
	logger commons.Logger

	acsInboundBus      *bus.Bus
	providerInboundBus *bus.Bus
	acsOutboundBus     *bus.Bus

	ingress  *acsingress.Adapter
	provider *providerclient.Adapter
	egress   *acsegress.Adapter

	store      *playout.Store
	callMixer  *mixer.CallMixer
	emitter    *mixer.Emitter
	gate       *bargein.Gate
	inputState *vad.InputState
	dispatch   *dispatcher.Dispatcher

	mu             sync.Mutex
	mutedByBargeIn []string

	cancel context.CancelFunc
}

// egressSink adapts acsegress.Adapter.Send to the bus-handler shape.
type egressSink struct{ egress *acsegress.Adapter }

func (s egressSink) Send(msg acsegress.OutboundMessage) bool { return s.egress.Send(msg) }

// New wires one call's pipeline. ingressURL/providerURL/egressURL are the
// three external WebSocket endpoints; provider names the translation
// provider (used to resolve its default source-format family).
func New(sessionID string, cfg config.Config, logger commons.Logger, ingressURL, providerURL, egressURL, provider string) *Session {
	acsInboundBus := bus.New("acs_inbound_bus_"+sessionID, logger)
	providerInboundBus := bus.New("provider_inbound_bus_"+sessionID, logger)
	acsOutboundBus := bus.New("acs_outbound_bus_"+sessionID, logger)

	egress := acsegress.New(egressURL, logger, cfg.ReconnectInitialDelay, cfg.ReconnectMaxDelay)
	sink := egressSink{egress: egress}

	store := playout.NewStore()
	callMixer := mixer.NewCallMixer()
	gate := bargein.New(bargein.Mode(cfg.GateMode))
	targetFormat := audio.Default16kMono()

	delta := &dispatcher.AudioDeltaHandler{
		Store: store, Mixer: callMixer, Gate: gate, Egress: sink, Logger: logger,
		TargetFormat: targetFormat, FrameMs: cfg.FrameMs, WarmupMs: cfg.PlayoutInitialBufferMs,
	}
	done := &dispatcher.AudioDoneHandler{
		Store: store, Mixer: callMixer, Gate: gate, Egress: sink,
		DrainTimeout: time.Duration(cfg.FrameMs*8) * time.Millisecond,
	}
	dispatch := dispatcher.New(logger,
		delta,
		done,
		&dispatcher.TranscriptDeltaHandler{Egress: sink},
		&dispatcher.TranscriptDoneHandler{Egress: sink},
		&dispatcher.ControlHandler{Store: store, Egress: sink},
		&dispatcher.ErrorHandler{Logger: logger},
	)

	providerInboundBus.RegisterHandler("dispatch", bus.SlotConfig{
		QueueMax: cfg.BusQueueMax, Concurrency: 4, Policy: cfg.BusOverflowPolicy, BlockTimeout: cfg.BusBlockTimeout,
	}, dispatch.Dispatch)

	acsOutboundBus.RegisterHandler(acsEgressSlot, bus.SlotConfig{
		QueueMax: cfg.BusQueueMax, Concurrency: 1, Policy: cfg.BusOverflowPolicy, BlockTimeout: cfg.BusBlockTimeout,
	}, func(ctx context.Context, item interface{}) error {
		msg := item.(acsegress.OutboundMessage)
		sink.Send(msg)
		return nil
	})

	inputState := vad.New(
		time.Duration(cfg.VoiceHysteresisMs)*time.Millisecond,
		time.Duration(cfg.SilenceTimeoutMs)*time.Millisecond,
	)
	acsInboundBus.RegisterHandler("vad", bus.SlotConfig{
		QueueMax: cfg.BusQueueMax, Concurrency: 1, Policy: bus.DropOldest,
	}, feedVAD(inputState, cfg.VoiceThresholdRMS, targetFormat.Channels))

	s := &Session{
		id: sessionID, cfg: cfg, logger: logger,
		acsInboundBus: acsInboundBus, providerInboundBus: providerInboundBus, acsOutboundBus: acsOutboundBus,
		egress: egress, store: store, callMixer: callMixer, gate: gate, inputState: inputState, dispatch: dispatch,
	}

	s.ingress = acsingress.New(ingressURL, sessionID, logger, acsInboundBus, cfg.ReconnectInitialDelay, cfg.ReconnectMaxDelay)
	s.provider = providerclient.New(providerURL, provider, providerclient.DefaultNormalizer, logger, providerInboundBus, cfg.ReconnectInitialDelay, cfg.ReconnectMaxDelay)
	s.emitter = mixer.NewEmitter(callMixer, cfg.FrameMs, func(frame []byte) {
		acsOutboundBus.Publish(context.Background(), acsegress.OutboundMessage{Kind: acsegress.KindAudioChunk, AudioChunk: frame})
	})

	inputState.AddListener(func(status vad.Status) {
		s.onInputStateChange(status)
	})

	return s
}

// onInputStateChange reacts to a caller voice-activity transition: speech
// pauses (and, under PauseAndDrop, clears) the outbound ACS audio; silence
// resumes it and releases the gate's per-stream mutes.
func (s *Session) onInputStateChange(status vad.Status) {
	switch status {
	case vad.StatusSpeaking:
		s.acsOutboundBus.Pause(acsEgressSlot)
		affected := s.gate.StopForSession(s.id)
		if bargein.Mode(s.cfg.GateMode) == bargein.PauseAndDrop {
			s.acsOutboundBus.Clear(acsEgressSlot)
		}
		s.mu.Lock()
		s.mutedByBargeIn = affected
		s.mu.Unlock()
	case vad.StatusSilence:
		s.acsOutboundBus.Resume(acsEgressSlot)
		s.mu.Lock()
		affected := s.mutedByBargeIn
		s.mutedByBargeIn = nil
		s.mu.Unlock()
		for _, key := range affected {
			s.gate.ClearMute(key)
		}
	}
}

// Start begins every adapter and the paced emitter, running until ctx is
// cancelled or a component returns an unrecoverable error.
func (s *Session) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.emitter.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { s.ingress.Run(gctx); return nil })
	g.Go(func() error { s.provider.Run(gctx); return nil })
	g.Go(func() error { s.egress.Run(gctx); return nil })
	return g.Wait()
}

// Stop tears down the session: stops the emitter, cancels adapters, and
// shuts down every bus.
func (s *Session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.emitter.Stop()
	s.acsInboundBus.Shutdown()
	s.providerInboundBus.Shutdown()
	s.acsOutboundBus.Shutdown()
	s.store.RemoveSession(s.id)
}
