package timeline

import (
	"fmt"
	"math"

	"github.com/ivlev/img2video/internal/media"
)

// Config selects how long each image is shown and how neighbours blend.
type Config struct {
	// DefaultSegmentDuration is used for every image without an explicit
	// duration, and as the base duration when looping to fill a target.
	DefaultSegmentDuration float64
	CrossfadeEnabled       bool
	CrossfadeDuration      float64
	// ExplicitDurations, when non-nil, holds one duration per image.
	ExplicitDurations []float64
	// LoopToFill repeats the image sequence until the target is covered.
	// Without it a target stretches a single pass evenly.
	LoopToFill bool
}

// Validate checks cfg against the number of images it will be applied to.
func (c Config) Validate(imageCount int) error {
	if !finitePositive(c.DefaultSegmentDuration) {
		return fmt.Errorf("%w: default segment duration %.3fs must be positive and finite", media.ErrInvalidConfig, c.DefaultSegmentDuration)
	}
	if !(c.CrossfadeDuration >= 0) || math.IsInf(c.CrossfadeDuration, 0) {
		return fmt.Errorf("%w: crossfade duration %.3fs must be non-negative and finite", media.ErrInvalidConfig, c.CrossfadeDuration)
	}
	if c.ExplicitDurations != nil {
		if len(c.ExplicitDurations) != imageCount {
			return fmt.Errorf("%w: %d explicit durations for %d images", media.ErrInvalidPlan, len(c.ExplicitDurations), imageCount)
		}
		for i, d := range c.ExplicitDurations {
			if !finitePositive(d) {
				return fmt.Errorf("%w: duration of image %d is %.3fs", media.ErrInvalidPlan, i, d)
			}
		}
	}
	return nil
}

// base is the duration of image i in one pass over the list.
func (c Config) base(i int) float64 {
	if c.ExplicitDurations != nil {
		return c.ExplicitDurations[i]
	}
	return c.DefaultSegmentDuration
}

// finitePositive rejects NaN and infinities along with non-positive values.
func finitePositive(d float64) bool {
	return d > 0 && !math.IsInf(d, 1)
}

// Target is an optional total duration the plan must cover exactly,
// usually the length of the primary audio track.
type Target struct {
	Duration float64
	Set      bool
}

// NoTarget lets the images decide the total duration.
var NoTarget = Target{}

// TargetOf returns a target of d seconds.
func TargetOf(d float64) Target {
	return Target{Duration: d, Set: true}
}
