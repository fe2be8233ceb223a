package timeline

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schedulerFor(t *testing.T, durations []float64, fade float64) *Scheduler {
	t.Helper()
	cfg := Config{
		DefaultSegmentDuration: 1,
		ExplicitDurations:      durations,
		CrossfadeEnabled:       true,
		CrossfadeDuration:      fade,
	}
	p, err := BuildPlan(len(durations), cfg, NoTarget)
	require.NoError(t, err)
	return NewScheduler(p, cfg)
}

func TestCrossfadeClampsToHalfSegment(t *testing.T) {
	s := schedulerFor(t, []float64{1.5, 1.5}, 1.0)

	w := s.Windows()
	require.Len(t, w, 1)
	assert.InDelta(t, 0.75, w[0].Duration, eps)
	assert.InDelta(t, 0.75, w[0].Start, eps)

	act := s.ActiveAt(1.5 - 0.375)
	require.Equal(t, Blend, act.Kind)
	assert.Equal(t, 0, act.Outgoing.Index)
	assert.Equal(t, 1, act.Incoming.Index)
	assert.InDelta(t, 0.5, act.Weight, eps)
	assert.InDelta(t, 0.5, 1-act.Weight, eps)
}

func TestCrossfadeUsesShorterNeighbour(t *testing.T) {
	s := schedulerFor(t, []float64{4, 1, 4}, 2)
	w := s.Windows()
	assert.InDelta(t, 0.5, w[0].Duration, eps)
	assert.InDelta(t, 3.5, w[0].Start, eps)
	assert.InDelta(t, 0.5, w[1].Duration, eps)
	assert.InDelta(t, 4.5, w[1].Start, eps)
}

func TestCrossfadeBoundaries(t *testing.T) {
	s := schedulerFor(t, []float64{2, 2, 2}, 0.5)

	tests := []struct {
		name     string
		t        float64
		kind     Kind
		outgoing int
		weight   float64
	}{
		{"start", 0, Single, 0, 1},
		{"before window", 1.4, Single, 0, 1},
		{"window start", 1.5, Single, 0, 1},
		{"inside window", 1.75, Blend, 0, 0.5},
		{"boundary resolves to incoming", 2, Single, 1, 1},
		{"second window", 3.625, Blend, 1, 0.25},
		{"last segment never fades out", 5.9, Single, 2, 1},
		{"end clamps to last", 6, Single, 2, 1},
		{"past end clamps to last", 100, Single, 2, 1},
		{"negative clamps to first", -3, Single, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act := s.ActiveAt(tt.t)
			assert.Equal(t, tt.kind, act.Kind)
			assert.Equal(t, tt.outgoing, act.Outgoing.Index)
			assert.InDelta(t, tt.weight, act.Weight, eps)
			if act.Kind == Blend {
				assert.Equal(t, tt.outgoing+1, act.Incoming.Index)
				assert.Greater(t, act.Weight, 0.0)
				assert.Less(t, act.Weight, 1.0)
			}
		})
	}
}

func TestCrossfadeDisabled(t *testing.T) {
	cfg := Config{DefaultSegmentDuration: 2, CrossfadeEnabled: false, CrossfadeDuration: 1}
	p, err := BuildPlan(3, cfg, NoTarget)
	require.NoError(t, err)
	s := NewScheduler(p, cfg)

	for x := 0.0; x < p.Total; x += 0.01 {
		assert.Equal(t, Single, s.ActiveAt(x).Kind)
	}

	cfg.CrossfadeEnabled = true
	cfg.CrossfadeDuration = 0
	s = NewScheduler(p, cfg)
	for x := 0.0; x < p.Total; x += 0.01 {
		assert.Equal(t, Single, s.ActiveAt(x).Kind)
	}
}

func TestCrossfadeSingleSegment(t *testing.T) {
	s := schedulerFor(t, []float64{3}, 1)
	assert.Empty(t, s.Windows())
	assert.Equal(t, Single, s.ActiveAt(2.9).Kind)
}

// position maps an activity onto a single number that moves from i to i+1
// while segment i fades into i+1.
func position(a Activity) float64 {
	if a.Kind == Single {
		return float64(a.Outgoing.Index)
	}
	return float64(a.Outgoing.Index) + a.Weight
}

func TestCrossfadeWeightIsContinuousAndMonotonic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for run := 0; run < 20; run++ {
		n := 2 + r.Intn(6)
		durations := make([]float64, n)
		for i := range durations {
			durations[i] = 0.2 + r.Float64()*3
		}
		s := schedulerFor(t, durations, 0.05+r.Float64()*2)

		minWindow := math.Inf(1)
		for _, w := range s.Windows() {
			minWindow = math.Min(minWindow, w.Duration)
		}

		const dt = 1e-3
		prev := position(s.ActiveAt(0))
		for x := dt; x < s.total; x += dt {
			cur := position(s.ActiveAt(x))
			assert.GreaterOrEqual(t, cur, prev-1e-12, "t=%f", x)
			assert.LessOrEqual(t, cur-prev, dt/minWindow+1e-9, "jump at t=%f", x)
			prev = cur
		}
	}
}
