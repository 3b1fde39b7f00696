package evidence

import (
	"errors"
	"math"
)

// FocalSet indexes the subsets of the binary frame of discernment
// {non-dropout, dropout}. The frame is fixed, so a mass function is a
// 4-slot record rather than a set-keyed map.
type FocalSet int

const (
	Empty FocalSet = iota
	NonDropout
	Dropout
	Theta // full frame: {non-dropout, dropout}

	numFocalSets
)

// ErrTotalConflict is returned when Dempster's normalization factor (1-k)
// vanishes. Every signal assigns nonzero mass to Theta, so this cannot happen
// with well-formed inputs; the guard exists to stop NaN/Inf from propagating.
var ErrTotalConflict = errors.New("evidence: total conflict between mass functions")

// conflictEpsilon is the smallest tolerated normalization factor.
const conflictEpsilon = 1e-9

// Mass is a Dempster-Shafer mass function over the binary frame.
// Weights are non-negative and sum to 1. Values are never mutated after
// construction; Combine returns a fresh Mass.
type Mass [numFocalSets]float64

// FromProbability converts a dropout probability and an uncertainty level
// into a mass function. p is clamped to [1e-4, 1-1e-4] so that neither
// singleton mass degenerates to zero, which keeps Dempster's rule away from
// division by zero downstream.
func FromProbability(p, uncertainty float64) Mass {
	p = clamp(p, 1e-4, 1-1e-4)
	var m Mass
	m[Empty] = 0
	m[NonDropout] = (1 - p) * (1 - uncertainty)
	m[Dropout] = p * (1 - uncertainty)
	m[Theta] = uncertainty
	return m
}

// intersect returns the intersection of two focal sets within the binary frame.
func intersect(a, b FocalSet) FocalSet {
	switch {
	case a == Empty || b == Empty:
		return Empty
	case a == Theta:
		return b
	case b == Theta:
		return a
	case a == b:
		return a
	default: // {non-dropout} ∩ {dropout}
		return Empty
	}
}

// Combine merges two mass functions with Dempster's rule of combination.
// Products whose focal sets have an empty intersection accumulate into the
// conflict k; the surviving weights are renormalized by (1-k).
func Combine(m1, m2 Mass) (Mass, error) {
	var out Mass
	k := 0.0

	for a := Empty; a < numFocalSets; a++ {
		for b := Empty; b < numFocalSets; b++ {
			prod := m1[a] * m2[b]
			if prod == 0 {
				continue
			}
			inter := intersect(a, b)
			if inter == Empty {
				k += prod
			} else {
				out[inter] += prod
			}
		}
	}

	norm := 1 - k
	if norm < conflictEpsilon {
		return Mass{}, ErrTotalConflict
	}
	for s := NonDropout; s < numFocalSets; s++ {
		out[s] /= norm
	}
	out[Empty] = 0
	return out, nil
}

// Belief returns the lower-bound dropout probability: the mass committed
// exactly to the dropout hypothesis.
func (m Mass) Belief() float64 { return m[Dropout] }

// Plausibility returns the upper-bound dropout probability: belief plus the
// mass left on the full frame.
func (m Mass) Plausibility() float64 { return m[Dropout] + m[Theta] }

// Sum returns the total weight across all focal sets.
func (m Mass) Sum() float64 {
	return m[Empty] + m[NonDropout] + m[Dropout] + m[Theta]
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
