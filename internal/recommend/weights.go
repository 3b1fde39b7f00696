package recommend

import (
	"fmt"
	"math"
)

// Weights defines the blend of the four recommendation strategies. The four
// values are expected, not strictly enforced, to sum to 1 so the hybrid score
// stays in [0,1].
type Weights struct {
	Content       float64 `yaml:"content" json:"content"`
	Collaborative float64 `yaml:"collaborative" json:"collaborative"`
	Rule          float64 `yaml:"rule" json:"rule"`
	Popularity    float64 `yaml:"popularity" json:"popularity"`
}

// DefaultWeights returns the standard warm-path blend.
func DefaultWeights() Weights {
	return Weights{
		Content:       0.35,
		Collaborative: 0.40,
		Rule:          0.15,
		Popularity:    0.10,
	}
}

// Cold-start blend: rule and popularity only, since content and
// collaborative signals are undefined without interaction history.
const (
	coldStartRuleWeight       = 0.6
	coldStartPopularityWeight = 0.4
)

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Content + w.Collaborative + w.Rule + w.Popularity
}

// Validate rejects negative weights. A sum away from 1 is legal but leaves
// the hybrid score outside [0,1]; callers own that trade-off.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"content":       w.Content,
		"collaborative": w.Collaborative,
		"rule":          w.Rule,
		"popularity":    w.Popularity,
	} {
		if v < 0 {
			return fmt.Errorf("negative %s weight: %f", name, v)
		}
	}
	return nil
}

// Normalized reports whether the weights sum to 1 within tolerance.
func (w Weights) Normalized() bool {
	return math.Abs(w.Sum()-1.0) <= 0.001
}

// withoutCollaborative redistributes the collaborative weight across the
// remaining three strategies, preserving their relative proportions. Used
// when the rating predictor is unavailable so partial signal loss degrades
// quality, not availability.
func (w Weights) withoutCollaborative() Weights {
	rest := w.Content + w.Rule + w.Popularity
	if rest <= 0 {
		// Degenerate configuration; fall back to an even split.
		return Weights{Content: 1.0 / 3, Rule: 1.0 / 3, Popularity: 1.0 / 3}
	}
	scale := w.Sum() / rest
	return Weights{
		Content:    w.Content * scale,
		Rule:       w.Rule * scale,
		Popularity: w.Popularity * scale,
	}
}
