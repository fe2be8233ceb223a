package timeline

import (
	"math"
	"sort"
)

// Kind tells whether one or two segments are visible at an instant.
type Kind int

const (
	Single Kind = iota
	Blend
)

func (k Kind) String() string {
	if k == Blend {
		return "blend"
	}
	return "single"
}

// Activity describes what is on screen at one instant. For Single only
// Outgoing is meaningful and Weight is 1. For Blend, Weight in (0, 1) is the
// share of Incoming; Outgoing gets 1-Weight.
type Activity struct {
	Kind     Kind
	Outgoing Segment
	Incoming Segment
	Weight   float64
}

// Window is the crossfade between segment Index and Index+1. It occupies
// the last Duration seconds of the outgoing segment.
type Window struct {
	Index    int
	Start    float64
	Duration float64
}

// Scheduler resolves instants to the segments visible at them.
type Scheduler struct {
	segments []Segment
	windows  []Window
	total    float64
}

// NewScheduler derives the crossfade windows of plan. A window is clamped to
// half of the shorter neighbour so it never starts before the outgoing
// segment's midpoint nor outlives the incoming one.
func NewScheduler(plan Plan, cfg Config) *Scheduler {
	s := &Scheduler{segments: plan.Segments, total: plan.Total}
	if len(plan.Segments) > 1 {
		s.windows = make([]Window, len(plan.Segments)-1)
	}
	for i := range s.windows {
		cur, next := plan.Segments[i], plan.Segments[i+1]
		d := 0.0
		if cfg.CrossfadeEnabled {
			d = math.Min(cfg.CrossfadeDuration, math.Min(cur.Length, next.Length)/2)
			if d < 0 {
				d = 0
			}
		}
		s.windows[i] = Window{Index: i, Start: cur.End() - d, Duration: d}
	}
	return s
}

// Windows returns the crossfade windows, one per boundary. Disabled
// crossfades have zero duration.
func (s *Scheduler) Windows() []Window {
	out := make([]Window, len(s.windows))
	copy(out, s.windows)
	return out
}

// ActiveAt resolves t. Instants before 0 resolve to the first segment and
// instants at or beyond the total to the last one. An instant exactly on a
// boundary belongs to the incoming segment at full weight.
func (s *Scheduler) ActiveAt(t float64) Activity {
	n := len(s.segments)
	if t < 0 || math.IsNaN(t) {
		t = 0
	}
	if t >= s.total {
		return Activity{Kind: Single, Outgoing: s.segments[n-1], Weight: 1}
	}

	i := sort.Search(n, func(j int) bool { return s.segments[j].Start > t }) - 1
	if i < 0 {
		i = 0
	}
	cur := s.segments[i]
	if i == n-1 {
		return Activity{Kind: Single, Outgoing: cur, Weight: 1}
	}

	w := s.windows[i]
	if w.Duration <= 0 || t <= w.Start {
		return Activity{Kind: Single, Outgoing: cur, Weight: 1}
	}
	weight := (t - w.Start) / w.Duration
	next := s.segments[i+1]
	if weight >= 1 {
		return Activity{Kind: Single, Outgoing: next, Weight: 1}
	}
	return Activity{Kind: Blend, Outgoing: cur, Incoming: next, Weight: weight}
}
