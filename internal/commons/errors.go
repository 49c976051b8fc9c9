package commons

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates the typed error kinds from the error-handling design:
// transport/ per-stream errors are recovered or surfaced; handler faults are
// swallowed after logging so the pipeline keeps flowing.
type ErrorKind int

const (
	KindUnsupportedAudioFormat ErrorKind = iota
	KindAudioDecoding
	KindAudioTranscoding
	KindTransportDropped
	KindOverflowApplied
	KindHandlerFault
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnsupportedAudioFormat:
		return "unsupported_audio_format"
	case KindAudioDecoding:
		return "audio_decoding"
	case KindAudioTranscoding:
		return "audio_transcoding"
	case KindTransportDropped:
		return "transport_dropped"
	case KindOverflowApplied:
		return "overflow_applied"
	case KindHandlerFault:
		return "handler_fault"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// KindError is a typed error carrying one of the ErrorKind values, wrapping
// an optional underlying cause so errors.Is/errors.As keep working.
type KindError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *KindError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *KindError) Unwrap() error { return e.Err }

func newKindError(kind ErrorKind, msg string, err error) *KindError {
	return &KindError{Kind: kind, Msg: msg, Err: err}
}

func NewUnsupportedAudioFormat(msg string, err error) error {
	return newKindError(KindUnsupportedAudioFormat, msg, err)
}

func NewAudioDecoding(msg string, err error) error {
	return newKindError(KindAudioDecoding, msg, err)
}

func NewAudioTranscoding(msg string, err error) error {
	return newKindError(KindAudioTranscoding, msg, err)
}

func NewTransportDropped(msg string, err error) error {
	return newKindError(KindTransportDropped, msg, err)
}

func NewOverflowApplied(msg string) error {
	return newKindError(KindOverflowApplied, msg, nil)
}

func NewHandlerFault(msg string, err error) error {
	return newKindError(KindHandlerFault, msg, err)
}

func NewTimeout(msg string) error {
	return newKindError(KindTimeout, msg, nil)
}

// KindOf extracts the ErrorKind from err, if it (or something it wraps) is a
// *KindError.
func KindOf(err error) (ErrorKind, bool) {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind, true
	}
	return 0, false
}
