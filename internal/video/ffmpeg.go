package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ivlev/img2video/internal/audio"
	"github.com/ivlev/img2video/internal/canvas"
)

// FFmpegEncoder pipes raw rgb24 frames into an ffmpeg process and muxes
// them with the prepared audio tracks.
type FFmpegEncoder struct {
	Binary string // defaults to "ffmpeg"
	Log    *zap.Logger
}

func (e *FFmpegEncoder) binary() string {
	if e.Binary == "" {
		return "ffmpeg"
	}
	return e.Binary
}

func (e *FFmpegEncoder) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

func (e *FFmpegEncoder) Open(ctx context.Context, job Job) (FrameSink, error) {
	var voicePath, musicPath string
	if job.Tracks != nil {
		voicePath = filepath.Join(job.TempDir, "voice.wav")
		if err := audio.SaveWAV(voicePath, job.Tracks.Voice); err != nil {
			return nil, fmt.Errorf("stage voice track: %w", err)
		}
		if job.Tracks.Background != nil {
			musicPath = filepath.Join(job.TempDir, "music.wav")
			if err := audio.SaveWAV(musicPath, *job.Tracks.Background); err != nil {
				return nil, fmt.Errorf("stage background track: %w", err)
			}
		}
	}

	args := buildFFmpegArgs(job, voicePath, musicPath)
	e.logger().Debug("starting ffmpeg", zap.String("job", job.ID), zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, e.binary(), args...)
	out := &bytes.Buffer{}
	cmd.Stdout = out
	cmd.Stderr = out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	return &ffmpegSink{cmd: cmd, stdin: stdin, out: out, frameSize: 3 * job.Spec.Width * job.Spec.Height}, nil
}

type ffmpegSink struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	out       *bytes.Buffer
	frameSize int
	closed    bool
}

func (s *ffmpegSink) WriteFrame(f *canvas.RGB) error {
	if len(f.Pix) != s.frameSize {
		return fmt.Errorf("frame has %d bytes, encoder expects %d", len(f.Pix), s.frameSize)
	}
	if _, err := s.stdin.Write(f.Pix); err != nil {
		return fmt.Errorf("write raw error: %w", err)
	}
	return nil
}

func (s *ffmpegSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	closeErr := s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, s.out.String())
	}
	if closeErr != nil && !errors.Is(closeErr, io.ErrClosedPipe) {
		return closeErr
	}
	return nil
}

func buildFFmpegArgs(job Job, voicePath, musicPath string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgb24",
		"-video_size", fmt.Sprintf("%dx%d", job.Spec.Width, job.Spec.Height),
		"-framerate", fmt.Sprintf("%d", job.Spec.FPS),
		"-i", "-",
	}

	switch {
	case voicePath != "" && musicPath != "":
		// Plain additive mix: the background is already attenuated.
		args = append(args,
			"-i", voicePath,
			"-i", musicPath,
			"-filter_complex", "[1:a][2:a]amix=inputs=2:duration=first:dropout_transition=0:normalize=0[aout]",
			"-map", "0:v", "-map", "[aout]",
		)
	case voicePath != "":
		args = append(args, "-i", voicePath, "-map", "0:v", "-map", "1:a")
	}

	args = append(args, "-c:v", job.Encoder, "-pix_fmt", "yuv420p", "-r", fmt.Sprintf("%d", job.Spec.FPS))
	args = append(args, qualityArgs(job.Encoder, job.Quality)...)

	if voicePath != "" {
		args = append(args, "-c:a", "aac", "-b:a", "192k", "-shortest")
	}

	args = append(args, job.Output)
	return args
}

func qualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox does not honour -q:v everywhere; use a bitrate.
		bitrate := quality * 100 // kbit/s, 75 -> 7.5 Mbit/s
		return []string{"-b:v", fmt.Sprintf("%dk", bitrate)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}
