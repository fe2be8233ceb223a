package media

import "fmt"

// CanvasSpec describes the output frame: every image is fitted into a
// Width x Height canvas, sampled FPS times per second.
type CanvasSpec struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

// Validate enforces positive dimensions and fps; width and height must be
// even because yuv420p encoders reject odd sizes.
func (s CanvasSpec) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: canvas %dx%d must be positive", ErrInvalidConfig, s.Width, s.Height)
	}
	if s.Width%2 != 0 || s.Height%2 != 0 {
		return fmt.Errorf("%w: canvas %dx%d must have even dimensions", ErrInvalidConfig, s.Width, s.Height)
	}
	if s.FPS <= 0 {
		return fmt.Errorf("%w: fps %d must be positive", ErrInvalidConfig, s.FPS)
	}
	return nil
}

func (s CanvasSpec) String() string {
	return fmt.Sprintf("%dx%d@%d", s.Width, s.Height, s.FPS)
}
