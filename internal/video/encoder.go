package video

import (
	"context"

	"github.com/ivlev/img2video/internal/audio"
	"github.com/ivlev/img2video/internal/canvas"
	"github.com/ivlev/img2video/internal/media"
)

// Job describes one output file.
type Job struct {
	ID      string
	Spec    media.CanvasSpec
	Output  string
	Tracks  *audio.Tracks // nil for a silent video
	Encoder string        // ffmpeg video encoder name, e.g. libx264
	Quality int
	TempDir string // scratch space owned by the caller
}

// FrameSink accepts frames in presentation order.
type FrameSink interface {
	WriteFrame(f *canvas.RGB) error
	// Close finishes the container. It must be called even after a failed
	// WriteFrame to release the encoder.
	Close() error
}

// Encoder turns a stream of frames plus prepared audio into a container
// file.
type Encoder interface {
	Open(ctx context.Context, job Job) (FrameSink, error)
}
