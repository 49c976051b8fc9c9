package audio

import "encoding/base64"

// DecodeBase64PCM decodes a base64 PCM payload, returning AudioDecoding-class
// errors via the caller (kept as a plain error here — callers at the
// dispatcher boundary wrap it with commons.NewAudioDecoding).
func DecodeBase64PCM(b64 string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(b64)
}

// EncodeBase64PCM encodes raw PCM bytes for the ACS/provider wire envelope.
func EncodeBase64PCM(pcm []byte) string {
	return base64.StdEncoding.EncodeToString(pcm)
}

// ValidBase64 reports whether b64 decodes without actually retaining the
// decoded bytes — the lazy "validate, don't decode into the envelope"
// discipline the ingress adapter applies to audio payloads.
func ValidBase64(b64 string) bool {
	_, err := base64.StdEncoding.DecodeString(b64)
	return err == nil
}
