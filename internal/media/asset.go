package media

import (
	"fmt"
	"image"
)

// ImageAsset is a decoded still image. The core only reads it.
type ImageAsset struct {
	Name  string
	Image image.Image
}

func (a ImageAsset) Width() int {
	if a.Image == nil {
		return 0
	}
	return a.Image.Bounds().Dx()
}

func (a ImageAsset) Height() int {
	if a.Image == nil {
		return 0
	}
	return a.Image.Bounds().Dy()
}

// Validate fails for images without pixels.
func (a ImageAsset) Validate() error {
	if a.Width() <= 0 || a.Height() <= 0 {
		return fmt.Errorf("%w: image %q has size %dx%d", ErrInvalidAsset, a.Name, a.Width(), a.Height())
	}
	return nil
}

// AudioAsset holds decoded interleaved samples normalised to [-1, 1].
// float32 keeps a long voice-over at half the memory of float64.
type AudioAsset struct {
	Name       string
	Samples    []float32
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames (one sample per channel).
func (a AudioAsset) Frames() int {
	if a.Channels <= 0 {
		return 0
	}
	return len(a.Samples) / a.Channels
}

// Duration in seconds.
func (a AudioAsset) Duration() float64 {
	if a.SampleRate <= 0 {
		return 0
	}
	return float64(a.Frames()) / float64(a.SampleRate)
}

func (a AudioAsset) Validate() error {
	switch {
	case a.SampleRate <= 0:
		return fmt.Errorf("%w: audio %q has sample rate %d", ErrInvalidAsset, a.Name, a.SampleRate)
	case a.Channels <= 0:
		return fmt.Errorf("%w: audio %q has %d channels", ErrInvalidAsset, a.Name, a.Channels)
	case a.Frames() == 0:
		return fmt.Errorf("%w: audio %q is empty", ErrInvalidAsset, a.Name)
	}
	return nil
}
