package video

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"

	"github.com/icza/mjpeg"
	"go.uber.org/zap"

	"github.com/ivlev/img2video/internal/canvas"
)

// MJPEGEncoder writes a Motion-JPEG AVI without calling ffmpeg. It is meant
// for quick previews and carries no audio.
type MJPEGEncoder struct {
	Log *zap.Logger
}

const defaultJPEGQuality = 85

func (e *MJPEGEncoder) Open(ctx context.Context, job Job) (FrameSink, error) {
	if job.Tracks != nil && e.Log != nil {
		e.Log.Warn("preview encoder drops audio", zap.String("job", job.ID), zap.String("output", job.Output))
	}
	w, err := mjpeg.New(job.Output, int32(job.Spec.Width), int32(job.Spec.Height), int32(job.Spec.FPS))
	if err != nil {
		return nil, fmt.Errorf("failed to create video writer: %w", err)
	}

	q := job.Quality
	if q < 1 || q > 100 {
		q = defaultJPEGQuality
	}
	return &mjpegSink{ctx: ctx, w: w, opts: &jpeg.Options{Quality: q}}, nil
}

type mjpegSink struct {
	ctx    context.Context
	w      mjpeg.AviWriter
	opts   *jpeg.Options
	buf    bytes.Buffer
	closed bool
}

func (s *mjpegSink) WriteFrame(f *canvas.RGB) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	s.buf.Reset()
	if err := jpeg.Encode(&s.buf, f, s.opts); err != nil {
		return fmt.Errorf("jpeg encode: %w", err)
	}
	return s.w.AddFrame(s.buf.Bytes())
}

func (s *mjpegSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.w.Close()
}
