package filter

import (
	"errors"
	"math"
	"testing"
)

func sumOf(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

func TestNewGoalPredictorNormalizesPrior(t *testing.T) {
	g := NewGoalPredictor([]float64{1, 1, 2})
	dist := g.Distribution()
	if diff := math.Abs(sumOf(dist) - 1); diff > 1e-9 {
		t.Fatalf("distribution sums to %v, want 1", sumOf(dist))
	}
	if diff := math.Abs(dist[2] - 0.5); diff > 1e-9 {
		t.Fatalf("goal 2 prob = %v, want 0.5", dist[2])
	}
}

func TestUpdateDistributionFavorsConsistentGoal(t *testing.T) {
	g := NewGoalPredictor([]float64{0.5, 0.5})
	// Q_i <= V_i always; goal 0's regret (Q-V) is zero, so the observed
	// action was exactly optimal for it, while goal 1's regret is large
	// and negative, so the action was far from optimal under goal 1.
	if err := g.UpdateDistribution([]float64{0, -5}, []float64{0, 0}); err != nil {
		t.Fatal(err)
	}
	if g.ProbAt(0) <= g.ProbAt(1) {
		t.Fatalf("expected goal 0 to be favored: p0=%v p1=%v", g.ProbAt(0), g.ProbAt(1))
	}
}

func TestUpdateDistributionRejectsMismatchedLength(t *testing.T) {
	g := NewGoalPredictor([]float64{0.5, 0.5})
	err := g.UpdateDistribution([]float64{1}, []float64{1})
	if !errors.Is(err, ErrMismatchedGoals) {
		t.Fatalf("want ErrMismatchedGoals, got %v", err)
	}
}

func TestDistributionAlwaysSumsToOne(t *testing.T) {
	g := NewGoalPredictor([]float64{0.1, 0.2, 0.7})
	for i := 0; i < 5; i++ {
		if err := g.UpdateDistribution([]float64{1, -2, 0.5}, []float64{0, 0, 0}); err != nil {
			t.Fatal(err)
		}
	}
	if diff := math.Abs(sumOf(g.Distribution()) - 1); diff > 1e-9 {
		t.Fatalf("distribution sums to %v after repeated updates, want 1", sumOf(g.Distribution()))
	}
}

func TestZeroPriorGoalFallsBackToUniform(t *testing.T) {
	g := NewGoalPredictor([]float64{0, 0})
	dist := g.Distribution()
	if diff := math.Abs(dist[0] - 0.5); diff > 1e-9 {
		t.Fatalf("all-zero prior should fall back to uniform, got %v", dist)
	}
}
