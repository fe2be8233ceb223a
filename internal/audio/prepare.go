package audio

import (
	"fmt"
	"math"

	"github.com/ivlev/img2video/internal/media"
)

// DefaultAttenuation is the gain applied to background music under a voice
// track.
const DefaultAttenuation = 0.2

type MixOptions struct {
	// Attenuation multiplies every background sample; 0 < a <= 1.
	Attenuation float64
	// Loop repeats a background shorter than the voice track instead of
	// letting it end early.
	Loop bool
}

// Tracks are the buffers handed to an encoder for an additive mix. Voice is
// the primary track, untouched. Background, when present, is already
// attenuated and never longer than Voice.
type Tracks struct {
	Voice      media.AudioAsset
	Background *media.AudioAsset
}

// Duration is the length of the primary track.
func (t Tracks) Duration() float64 {
	return t.Voice.Duration()
}

// Prepare validates the tracks and derives the background buffer. The
// background may use a different sample rate or channel layout; the encoder
// resamples it during the mix.
func Prepare(primary media.AudioAsset, background *media.AudioAsset, opts MixOptions) (Tracks, error) {
	if err := primary.Validate(); err != nil {
		return Tracks{}, fmt.Errorf("primary track: %w", err)
	}
	tracks := Tracks{Voice: primary}
	if background == nil {
		return tracks, nil
	}
	if err := background.Validate(); err != nil {
		return Tracks{}, fmt.Errorf("background track: %w", err)
	}
	gain := opts.Attenuation
	if gain == 0 {
		gain = DefaultAttenuation
	}
	if !(gain > 0 && gain <= 1) {
		return Tracks{}, fmt.Errorf("%w: background attenuation %.3f outside (0, 1]", media.ErrInvalidConfig, gain)
	}

	ch := background.Channels
	frames := int(math.Round(primary.Duration() * float64(background.SampleRate)))
	if !opts.Loop && frames > background.Frames() {
		frames = background.Frames()
	}
	if frames < 1 {
		frames = 1
	}

	src := background.Samples[:background.Frames()*ch]
	out := make([]float32, frames*ch)
	g := float32(gain)
	for i := range out {
		out[i] = src[i%len(src)] * g
	}

	tracks.Background = &media.AudioAsset{
		Name:       background.Name,
		Samples:    out,
		SampleRate: background.SampleRate,
		Channels:   ch,
	}
	return tracks, nil
}
