package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/img2video/internal/audio"
	"github.com/ivlev/img2video/internal/canvas"
	"github.com/ivlev/img2video/internal/config"
	"github.com/ivlev/img2video/internal/media"
	"github.com/ivlev/img2video/internal/system"
	"github.com/ivlev/img2video/internal/timeline"
	"github.com/ivlev/img2video/internal/video"
)

// Renderer walks a timeline frame by frame and feeds the encoder.
type Renderer struct {
	Config  *config.Config
	Encoder video.Encoder
	Log     *zap.Logger

	// Progress, when set, is called from a single goroutine after each frame
	// reaches the encoder.
	Progress func(done, total int)

	// BenchmarkLog receives one line per render when Config.ShowStats is set.
	BenchmarkLog string
}

func NewRenderer(cfg *config.Config, enc video.Encoder, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		Config:       cfg,
		Encoder:      enc,
		Log:          log,
		BenchmarkLog: "benchmark.log",
	}
}

// Report summarises a finished render.
type Report struct {
	ID           string
	Output       string
	Frames       int
	Duration     float64 // timeline length in seconds
	Segments     int
	Loops        int
	Policy       timeline.Policy
	RenderTime   time.Duration
	TotalTime    time.Duration
	EffectiveFPS float64
	Workers      int
	Host         system.HostStats
}

// Render builds a timeline for images, synchronised to the voice track when
// AudioSync is on, and encodes it. tracks may be nil for a silent video.
func (r *Renderer) Render(ctx context.Context, images []media.ImageAsset, tracks *audio.Tracks) (Report, error) {
	startTime := time.Now()
	id := uuid.NewString()
	log := r.Log.With(zap.String("render", id))

	target := timeline.NoTarget
	if tracks != nil && r.Config.AudioSync {
		target = timeline.TargetOf(tracks.Duration())
	}

	tl, err := timeline.New(images, r.Config.Canvas(), r.Config.Timeline(), target)
	if err != nil {
		return Report{}, err
	}
	plan := tl.Plan()
	total := tl.FrameCount()

	workers := r.Config.Workers
	if workers <= 0 {
		workers = system.DefaultWorkers(3 * r.Config.Width * r.Config.Height)
	}

	log.Info("timeline ready",
		zap.Stringer("canvas", tl.Spec()),
		zap.Int("images", len(images)),
		zap.Int("segments", len(plan.Segments)),
		zap.Stringer("policy", plan.Policy),
		zap.Float64("duration", tl.TotalDuration()),
		zap.Int("frames", total),
		zap.Int("workers", workers),
	)

	tempDir, err := os.MkdirTemp("", "img2video_"+id+"_")
	if err != nil {
		return Report{}, err
	}
	defer os.RemoveAll(tempDir)

	sink, err := r.Encoder.Open(ctx, video.Job{
		ID:      id,
		Spec:    tl.Spec(),
		Output:  r.Config.OutputVideo,
		Tracks:  tracks,
		Encoder: r.Config.VideoEncoder,
		Quality: r.Config.Quality,
		TempDir: tempDir,
	})
	if err != nil {
		return Report{}, fmt.Errorf("open encoder: %w", err)
	}

	renderStart := time.Now()
	runErr := r.produce(ctx, tl, sink, workers)
	renderTime := time.Since(renderStart)

	if closeErr := sink.Close(); closeErr != nil {
		runErr = errors.Join(runErr, closeErr)
	}
	if runErr != nil {
		log.Error("render failed", zap.Error(runErr))
		return Report{}, runErr
	}

	totalTime := time.Since(startTime)
	rep := Report{
		ID:           id,
		Output:       r.Config.OutputVideo,
		Frames:       total,
		Duration:     tl.TotalDuration(),
		Segments:     len(plan.Segments),
		Loops:        plan.Loops,
		Policy:       plan.Policy,
		RenderTime:   renderTime,
		TotalTime:    totalTime,
		EffectiveFPS: float64(total) / totalTime.Seconds(),
		Workers:      workers,
		Host:         system.Host(),
	}
	log.Info("render finished",
		zap.String("output", rep.Output),
		zap.Duration("total", rep.TotalTime),
		zap.Float64("fps", rep.EffectiveFPS),
	)

	if r.Config.ShowStats {
		fmt.Print(rep.String(r.Config.BuildVersion))
		if err := r.appendBenchmark(rep); err != nil {
			log.Warn("benchmark log not written", zap.Error(err))
		}
	}
	return rep, nil
}

// produce renders frames concurrently and writes them to sink in order. At
// most 2*workers frames are in flight at once.
func (r *Renderer) produce(ctx context.Context, tl *timeline.Timeline, sink video.FrameSink, workers int) error {
	total := tl.FrameCount()
	bounds := tl.Bounds()
	pool := canvas.NewPool()

	slots := make([]chan *canvas.RGB, total)
	for k := range slots {
		slots[k] = make(chan *canvas.RGB, 1)
	}
	window := make(chan struct{}, 2*workers)

	g, gctx := errgroup.WithContext(ctx)

	// Writer
	g.Go(func() error {
		for k := range total {
			var frame *canvas.RGB
			select {
			case frame = <-slots[k]:
			case <-gctx.Done():
				return gctx.Err()
			}
			err := sink.WriteFrame(frame)
			pool.Put(frame)
			<-window
			if err != nil {
				return fmt.Errorf("frame %d: %w", k, err)
			}
			if r.Progress != nil {
				r.Progress(k+1, total)
			}
		}
		return nil
	})

	// Dispatcher
	g.Go(func() error {
		var rg errgroup.Group
		rg.SetLimit(workers)
		for k := range total {
			select {
			case window <- struct{}{}:
			case <-gctx.Done():
				rg.Wait()
				return gctx.Err()
			}
			rg.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				frame := pool.Get(bounds)
				tl.RenderInto(frame, tl.TimeOf(k))
				slots[k] <- frame
				return nil
			})
		}
		return rg.Wait()
	})

	return g.Wait()
}

func (rep Report) String(build string) string {
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Render: %s\n"+
			"Frames: %d (%.2fs, %d segments, %s)\n"+
			"Total Time: %.2fs\n"+
			"Rendering: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"Workers: %d | CPUs: %d | Free RAM: %d MiB\n"+
			"----------------------------\n",
		build, rep.ID, rep.Frames, rep.Duration, rep.Segments, rep.Policy,
		rep.TotalTime.Seconds(), rep.RenderTime.Seconds(), rep.EffectiveFPS,
		rep.Workers, rep.Host.LogicalCPUs, rep.Host.AvailableMemory>>20,
	)
}

func (r *Renderer) appendBenchmark(rep Report) error {
	if r.BenchmarkLog == "" {
		return nil
	}
	entry := fmt.Sprintf("[%s] Build: %s | Output: %s | Frames: %d | Duration: %.2fs | Total: %.2fs | Render: %.2fs | FPS: %.2f | Workers: %d\n",
		time.Now().Format("2006-01-02 15:04:05"),
		r.Config.BuildVersion,
		filepath.Base(rep.Output),
		rep.Frames,
		rep.Duration,
		rep.TotalTime.Seconds(),
		rep.RenderTime.Seconds(),
		rep.EffectiveFPS,
		rep.Workers,
	)
	f, err := os.OpenFile(r.BenchmarkLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(entry); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
