package timeline

import (
	"fmt"
	"math"

	"github.com/ivlev/img2video/internal/media"
)

// MinSegmentLength is the shortest segment a plan emits. A trailing clip
// below it is folded into the previous segment instead.
const MinSegmentLength = 1e-6

// Segment assigns one image to [Start, Start+Length).
type Segment struct {
	Index  int // position in the plan
	Image  int // index into the image list
	Start  float64
	Length float64
}

// End is the exclusive end of the segment.
func (s Segment) End() float64 {
	return s.Start + s.Length
}

type Policy int

const (
	PolicyUniform Policy = iota
	PolicyExplicit
	PolicyLoopToFill
	PolicyStretch
)

func (p Policy) String() string {
	switch p {
	case PolicyUniform:
		return "uniform"
	case PolicyExplicit:
		return "explicit"
	case PolicyLoopToFill:
		return "loop-to-fill"
	case PolicyStretch:
		return "stretch"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// Plan is an ordered, contiguous list of segments starting at 0.
type Plan struct {
	Segments []Segment
	Total    float64
	// Loops is ceil(Total / cycle), the number of passes over the image
	// list the total spans. It is 1 unless the plan loops to fill.
	Loops  int
	Policy Policy
}

// BuildPlan computes the segments for imageCount images.
//
// Without a target every image is shown once, for its explicit duration or
// the default one. With a target and LoopToFill the images cycle until the
// target is reached and the last segment is clipped to land on it. With a
// target and no LoopToFill one pass is scaled to the target, keeping the
// proportions of the explicit durations when there are any.
func BuildPlan(imageCount int, cfg Config, target Target) (Plan, error) {
	if imageCount <= 0 {
		return Plan{}, fmt.Errorf("%w: no images to schedule", media.ErrInvalidPlan)
	}
	if target.Set && (!(target.Duration > 0) || math.IsInf(target.Duration, 0)) {
		return Plan{}, fmt.Errorf("%w: target duration %.3fs must be positive", media.ErrInvalidPlan, target.Duration)
	}
	if err := cfg.Validate(imageCount); err != nil {
		return Plan{}, err
	}

	switch {
	case target.Set && cfg.LoopToFill:
		return loopToFill(imageCount, cfg, target.Duration), nil
	case target.Set:
		return stretch(imageCount, cfg, target.Duration), nil
	case cfg.ExplicitDurations != nil:
		return sequential(cfg.ExplicitDurations, PolicyExplicit), nil
	default:
		lengths := make([]float64, imageCount)
		for i := range lengths {
			lengths[i] = cfg.DefaultSegmentDuration
		}
		return sequential(lengths, PolicyUniform), nil
	}
}

func sequential(lengths []float64, policy Policy) Plan {
	plan := Plan{Segments: make([]Segment, 0, len(lengths)), Loops: 1, Policy: policy}
	start := 0.0
	for i, l := range lengths {
		plan.Segments = append(plan.Segments, Segment{Index: i, Image: i, Start: start, Length: l})
		start += l
	}
	plan.Total = start
	return plan
}

func stretch(imageCount int, cfg Config, target float64) Plan {
	lengths := make([]float64, imageCount)
	sum := 0.0
	for i := range lengths {
		lengths[i] = cfg.base(i)
		sum += lengths[i]
	}
	scale := target / sum
	for i := range lengths {
		lengths[i] *= scale
	}
	plan := sequential(lengths, PolicyStretch)
	last := &plan.Segments[imageCount-1]
	last.Length = target - last.Start
	plan.Total = target
	return plan
}

func loopToFill(imageCount int, cfg Config, target float64) Plan {
	cycle := 0.0
	for i := 0; i < imageCount; i++ {
		cycle += cfg.base(i)
	}

	plan := Plan{Policy: PolicyLoopToFill, Total: target}
	plan.Segments = make([]Segment, 0, int(math.Ceil(target/cycle))*imageCount)

	start := 0.0
	for k := 0; ; k++ {
		remaining := target - start
		if len(plan.Segments) > 0 && remaining < MinSegmentLength {
			break
		}
		img := k % imageCount
		length := math.Min(cfg.base(img), remaining)
		plan.Segments = append(plan.Segments, Segment{Index: k, Image: img, Start: start, Length: length})
		start += length
	}

	// Land exactly on the target; this absorbs accumulated rounding and any
	// sub-threshold remainder that was not emitted.
	last := &plan.Segments[len(plan.Segments)-1]
	last.Length = target - last.Start
	plan.Loops = max(int(math.Ceil(target/cycle)), 1)
	return plan
}
