package evidence

import (
	"math"
	"testing"
)

func TestFromProbabilityWeightsSumToOne(t *testing.T) {
	probs := []float64{0.0, 0.0001, 0.1, 0.25, 0.342, 0.5, 0.75, 0.9, 0.9999, 1.0}
	uncerts := []float64{0.0, 0.01, 0.15, 0.25, 0.4, 0.8, 1.0}

	for _, p := range probs {
		for _, u := range uncerts {
			m := FromProbability(p, u)
			if math.Abs(m.Sum()-1.0) > 1e-9 {
				t.Errorf("FromProbability(%g, %g) sums to %g, want 1", p, u, m.Sum())
			}
			for s := Empty; s < numFocalSets; s++ {
				if m[s] < 0 {
					t.Errorf("FromProbability(%g, %g)[%d] = %g, want >= 0", p, u, s, m[s])
				}
			}
		}
	}
}

func TestFromProbabilityClampsDegenerateInputs(t *testing.T) {
	// p=0 and p=1 must still leave nonzero mass on both singletons.
	for _, p := range []float64{0.0, 1.0} {
		m := FromProbability(p, 0.0)
		if m[NonDropout] == 0 || m[Dropout] == 0 {
			t.Errorf("FromProbability(%g, 0) produced a zero singleton mass: %v", p, m)
		}
	}
}

func TestCombineNormalized(t *testing.T) {
	m1 := FromProbability(0.3, 0.25)
	m2 := FromProbability(0.342, 0.15)

	out, err := Combine(m1, m2)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if math.Abs(out.Sum()-1.0) > 1e-9 {
		t.Errorf("combined mass sums to %g, want 1", out.Sum())
	}
	if out[Empty] != 0 {
		t.Errorf("combined mass assigns %g to the empty set", out[Empty])
	}
}

func TestCombineCommutative(t *testing.T) {
	pairs := [][2]Mass{
		{FromProbability(0.3, 0.25), FromProbability(0.342, 0.15)},
		{FromProbability(0.9, 0.05), FromProbability(0.1, 0.4)},
		{FromProbability(0.5, 0.2), FromProbability(0.5, 0.2)},
	}
	for _, pair := range pairs {
		ab, err := Combine(pair[0], pair[1])
		if err != nil {
			t.Fatalf("Combine: %v", err)
		}
		ba, err := Combine(pair[1], pair[0])
		if err != nil {
			t.Fatalf("Combine: %v", err)
		}
		for s := Empty; s < numFocalSets; s++ {
			if math.Abs(ab[s]-ba[s]) > 1e-12 {
				t.Errorf("commutativity violated at focal set %d: %g vs %g", s, ab[s], ba[s])
			}
		}
	}
}

func TestCombineAssociative(t *testing.T) {
	m1 := FromProbability(0.3, 0.25)
	m2 := FromProbability(0.342, 0.15)
	m3 := FromProbability(0.7, 0.20)

	left12, err := Combine(m1, m2)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	left, err := Combine(left12, m3)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}

	right23, err := Combine(m2, m3)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	right, err := Combine(m1, right23)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}

	for s := Empty; s < numFocalSets; s++ {
		if math.Abs(left[s]-right[s]) > 1e-12 {
			t.Errorf("associativity violated at focal set %d: %g vs %g", s, left[s], right[s])
		}
	}
}

func TestCombineTotalConflict(t *testing.T) {
	// Hand-built contradictory masses with no Theta weight. FromProbability
	// can never produce these; the guard must still refuse to divide by ~0.
	var m1, m2 Mass
	m1[NonDropout] = 1.0
	m2[Dropout] = 1.0

	if _, err := Combine(m1, m2); err != ErrTotalConflict {
		t.Errorf("expected ErrTotalConflict, got %v", err)
	}
}

func TestBeliefPlausibilityOrdering(t *testing.T) {
	probs := []float64{0.05, 0.3, 0.342, 0.5, 0.8, 0.95}
	for _, p1 := range probs {
		for _, p2 := range probs {
			m1 := FromProbability(p1, 0.25)
			m2 := FromProbability(p2, 0.15)
			out, err := Combine(m1, m2)
			if err != nil {
				t.Fatalf("Combine(%g, %g): %v", p1, p2, err)
			}
			if out.Plausibility() < out.Belief() {
				t.Errorf("plausibility %g < belief %g for (%g, %g)",
					out.Plausibility(), out.Belief(), p1, p2)
			}
		}
	}
}
