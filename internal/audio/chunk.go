package audio

// Chunk is a piece of PCM audio with optional timing metadata, matching the
// entity the source adapters carry alongside raw bytes.
type Chunk struct {
	PCM         []byte
	Fmt         Format
	TimestampMs *int64
	Sequence    *int64
}

// DurationMs returns the chunk's duration given its format. Empty PCM is 0ms.
func (c Chunk) DurationMs() int64 {
	if len(c.PCM) == 0 {
		return 0
	}
	frameBytes := c.Fmt.BytesPerFrame()
	totalFrames := int64(len(c.PCM) / frameBytes)
	return totalFrames * 1000 / int64(c.Fmt.SampleRateHz)
}

// TrimToFrameBoundary returns the prefix of pcm whose length is the largest
// multiple of fmt.BytesPerFrame() that is <= len(pcm).
func TrimToFrameBoundary(pcm []byte, fmt Format) []byte {
	frameBytes := fmt.BytesPerFrame()
	if frameBytes <= 0 || len(pcm) == 0 {
		return pcm[:0]
	}
	usable := (len(pcm) / frameBytes) * frameBytes
	return pcm[:usable]
}

// SplitByMs splits pcm into ordered, frame-aligned slices of exactly
// floor(sample_rate * chunk_ms / 1000) * bytes_per_frame bytes each; the
// last slice may be shorter but is still frame-aligned. Trailing sub-frame
// bytes (from TrimToFrameBoundary) are dropped, matching the testable
// property that concatenating the result equals TrimToFrameBoundary(pcm).
func SplitByMs(pcm []byte, fmt Format, chunkMs int) [][]byte {
	trimmed := TrimToFrameBoundary(pcm, fmt)
	if len(trimmed) == 0 || chunkMs <= 0 {
		return nil
	}
	chunkBytes := (fmt.SampleRateHz * chunkMs / 1000) * fmt.BytesPerFrame()
	if chunkBytes <= 0 {
		return [][]byte{trimmed}
	}

	var out [][]byte
	for offset := 0; offset < len(trimmed); offset += chunkBytes {
		end := offset + chunkBytes
		if end > len(trimmed) {
			end = len(trimmed)
		}
		out = append(out, trimmed[offset:end])
	}
	return out
}
