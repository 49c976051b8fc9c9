// Package config binds already-resolved environment key/value pairs into a
// typed Config. It deliberately does not parse CLI flags, load .env files,
// or read os.Args — that external-collaborator concern is named but not
// implemented here.
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/rapidaai/translate-gateway/internal/bus"
)

// Config covers every recognized environment variable from the external
// interfaces contract, with documented defaults.
type Config struct {
	// Core wiring.
	ACSIngressURL string
	ACSEgressURL  string
	ProviderURL   string

	// Timing.
	TimeAcceleration float64
	ConnectTimeout   time.Duration
	TailSilenceMs    int

	// Warm-up watermark: minimum buffered duration before a playout stream
	// emits real (non-silence) frames for the first time. Nominally 60-80ms
	// per design notes; default chosen at the low end of that range.
	PlayoutInitialBufferMs int
	FrameMs                int

	DebugWire bool

	// Reconnect.
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration

	// Bus.
	BusQueueMax        int
	BusOverflowPolicy  bus.OverflowPolicy
	BusBlockTimeout    time.Duration

	// VAD / barge-in.
	VoiceHysteresisMs int
	SilenceTimeoutMs  int
	// VoiceThresholdRMS is the RMS level (on int16 PCM, full scale 32767)
	// above which a frame counts as voice. ~328 corresponds to roughly
	// -40 dBFS, the nominal default from the design notes' open question.
	VoiceThresholdRMS float64
	GateMode          string // "play_through" | "pause_and_buffer" | "pause_and_drop"
}

// Default returns a Config populated with documented defaults; FromEnv
// overlays recognized environment variables on top of this.
func Default() Config {
	return Config{
		TimeAcceleration:       1.0,
		ConnectTimeout:         10 * time.Second,
		TailSilenceMs:          300,
		PlayoutInitialBufferMs: 60,
		FrameMs:                20,
		ReconnectInitialDelay:  500 * time.Millisecond,
		ReconnectMaxDelay:      30 * time.Second,
		BusQueueMax:            200,
		BusOverflowPolicy:      bus.DropNewest,
		BusBlockTimeout:        5 * time.Second,
		VoiceHysteresisMs:      200,
		SilenceTimeoutMs:       700,
		VoiceThresholdRMS:      328,
		GateMode:               "pause_and_buffer",
	}
}

// FromEnv binds a lookup function (already resolved from the environment by
// an external caller) onto a Config, starting from Default.
func FromEnv(lookup func(string) (string, bool)) Config {
	c := Default()

	if v, ok := lookup("TRANSLATION_WEBSOCKET_URL"); ok {
		c.ProviderURL = v
	}
	if v, ok := lookup("ACS_INGRESS_URL"); ok {
		c.ACSIngressURL = v
	}
	if v, ok := lookup("ACS_EGRESS_URL"); ok {
		c.ACSEgressURL = v
	}
	if v, ok := lookup("TRANSLATION_TIME_ACCELERATION"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.TimeAcceleration = f
		}
	}
	if v, ok := lookup("TRANSLATION_CONNECT_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.ConnectTimeout = d
		}
	}
	if v, ok := lookup("TRANSLATION_TAIL_SILENCE_MS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.TailSilenceMs = n
		}
	}
	if v, ok := lookup("TRANSLATION_PLAYOUT_INITIAL_BUFFER_MS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.PlayoutInitialBufferMs = n
		}
	}
	if v, ok := lookup("TRANSLATION_DEBUG_WIRE"); ok {
		c.DebugWire = strings.EqualFold(v, "true") || v == "1"
	}
	if v, ok := lookup("RECONNECT_INITIAL_DELAY"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.ReconnectInitialDelay = d
		}
	}
	if v, ok := lookup("RECONNECT_MAX_DELAY"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.ReconnectMaxDelay = d
		}
	}
	if v, ok := lookup("BUS_QUEUE_MAX"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.BusQueueMax = n
		}
	}
	if v, ok := lookup("BUS_OVERFLOW_POLICY"); ok {
		c.BusOverflowPolicy = parseOverflowPolicy(v, c.BusOverflowPolicy)
	}
	if v, ok := lookup("VOICE_HYSTERESIS_MS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.VoiceHysteresisMs = n
		}
	}
	if v, ok := lookup("SILENCE_TIMEOUT_MS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.SilenceTimeoutMs = n
		}
	}
	if v, ok := lookup("VOICE_THRESHOLD_RMS"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.VoiceThresholdRMS = f
		}
	}
	if v, ok := lookup("GATE_MODE"); ok {
		c.GateMode = v
	}

	return c
}

func parseOverflowPolicy(v string, fallback bus.OverflowPolicy) bus.OverflowPolicy {
	switch strings.ToLower(v) {
	case "drop_newest":
		return bus.DropNewest
	case "drop_oldest":
		return bus.DropOldest
	case "block":
		return bus.Block
	default:
		return fallback
	}
}
