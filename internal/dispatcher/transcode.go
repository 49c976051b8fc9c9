package dispatcher

import (
	"github.com/rapidaai/translate-gateway/internal/audio"
	"github.com/rapidaai/translate-gateway/internal/commons"
	"github.com/rapidaai/translate-gateway/internal/providerevent"
)

// resolveSourceFormat builds the source Format for an audio.delta event,
// falling back to the provider family's declared default when the event
// omits a format hint.
func resolveSourceFormat(event providerevent.Event, family providerevent.ProviderFamily) (audio.Format, error) {
	hint := event.SourceFormat
	if hint == nil {
		d := providerevent.DefaultFormat(family)
		hint = &d
	}
	return audio.NewFormat(hint.SampleRateHz, hint.Channels, audio.SampleFormatPCM16)
}

// transcode converts pcm from src to dst, applying channel conversion then
// resampling through the stream's persistent resampler when sample rates
// differ. The resampler is reset whenever the (src, dst, channels) tuple
// changes from what it was built for.
func transcode(pcm []byte, src, dst audio.Format, resampler **audio.StreamingResampler) ([]byte, error) {
	converted := pcm
	switch {
	case src.Channels == 2 && dst.Channels == 1:
		converted = audio.ToMono(converted, 2)
	case src.Channels == 1 && dst.Channels == 2:
		converted = audio.ToStereo(converted, 1)
	case src.Channels != dst.Channels:
		return nil, commons.NewUnsupportedAudioFormat("unsupported channel conversion", nil)
	}

	if src.SampleRateHz == dst.SampleRateHz {
		return converted, nil
	}

	if *resampler == nil || (*resampler).SrcRateHz() != src.SampleRateHz ||
		(*resampler).DstRateHz() != dst.SampleRateHz || (*resampler).Channels() != dst.Channels {
		*resampler = audio.NewStreamingResampler(src.SampleRateHz, dst.SampleRateHz, dst.Channels)
	}
	return (*resampler).Process(converted), nil
}
