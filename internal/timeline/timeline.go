package timeline

import (
	"fmt"
	"image"
	"math"
	"sync/atomic"

	"github.com/ivlev/img2video/internal/canvas"
	"github.com/ivlev/img2video/internal/media"
)

// Timeline is the render contract handed to encoders: a total duration and
// a frame for every instant in [0, TotalDuration). It is immutable once
// built and safe for concurrent use.
type Timeline struct {
	images []media.ImageAsset
	spec   media.CanvasSpec
	plan   Plan
	sched  *Scheduler

	// Fitted canvases per image index. Two goroutines may fit the same
	// image concurrently; both results are identical so the last store wins.
	fitted []atomic.Pointer[canvas.RGB]
}

// New validates every input and builds the timeline. All failures surface
// here; rendering a built timeline cannot fail.
func New(images []media.ImageAsset, spec media.CanvasSpec, cfg Config, target Target) (*Timeline, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(len(images)); err != nil {
		return nil, err
	}
	for i, img := range images {
		if err := img.Validate(); err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
	}
	plan, err := BuildPlan(len(images), cfg, target)
	if err != nil {
		return nil, err
	}

	return &Timeline{
		images: images,
		spec:   spec,
		plan:   plan,
		sched:  NewScheduler(plan, cfg),
		fitted: make([]atomic.Pointer[canvas.RGB], len(images)),
	}, nil
}

func (tl *Timeline) TotalDuration() float64 { return tl.plan.Total }

func (tl *Timeline) Spec() media.CanvasSpec { return tl.spec }

// Plan returns a copy of the underlying plan.
func (tl *Timeline) Plan() Plan {
	p := tl.plan
	p.Segments = append([]Segment(nil), tl.plan.Segments...)
	return p
}

func (tl *Timeline) Windows() []Window { return tl.sched.Windows() }

func (tl *Timeline) ActiveAt(t float64) Activity { return tl.sched.ActiveAt(t) }

// FrameCount is the number of samples k/fps that fall inside [0, total).
func (tl *Timeline) FrameCount() int {
	n := int(math.Ceil(tl.plan.Total*float64(tl.spec.FPS) - 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}

// TimeOf returns the instant of frame k.
func (tl *Timeline) TimeOf(k int) float64 {
	return float64(k) / float64(tl.spec.FPS)
}

// Bounds is the rectangle of every frame.
func (tl *Timeline) Bounds() image.Rectangle {
	return image.Rect(0, 0, tl.spec.Width, tl.spec.Height)
}

// FrameAt returns a new frame for instant t. The caller owns it.
func (tl *Timeline) FrameAt(t float64) *canvas.RGB {
	dst := canvas.NewRGB(tl.Bounds())
	tl.RenderInto(dst, t)
	return dst
}

// RenderInto draws instant t into dst, which must have the timeline's
// bounds. The result depends only on t.
func (tl *Timeline) RenderInto(dst *canvas.RGB, t float64) {
	act := tl.sched.ActiveAt(t)
	out := tl.fit(act.Outgoing.Image)
	if act.Kind == Single {
		dst.CopyFrom(out)
		return
	}
	canvas.Blend(dst, out, tl.fit(act.Incoming.Image), act.Weight)
}

func (tl *Timeline) fit(i int) *canvas.RGB {
	if f := tl.fitted[i].Load(); f != nil {
		return f
	}
	f := canvas.Place(tl.images[i].Image, tl.spec.Width, tl.spec.Height)
	tl.fitted[i].Store(f)
	return f
}
