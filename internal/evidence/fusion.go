package evidence

import (
	"fmt"
	"log/slog"
)

// Tier buckets a fused plausibility into an intervention level. Thresholds
// are contract values, not tunables.
type Tier string

const (
	TierLow      Tier = "Low"
	TierModerate Tier = "Moderate"
	TierHigh     Tier = "High"
	TierVeryHigh Tier = "Very High"
)

// TierForPlausibility maps plausibility to a risk tier.
func TierForPlausibility(pl float64) Tier {
	switch {
	case pl >= 0.75:
		return TierVeryHigh
	case pl >= 0.50:
		return TierHigh
	case pl >= 0.30:
		return TierModerate
	default:
		return TierLow
	}
}

// Result is the immutable output of one fusion call.
// Plausibility >= Belief and Uncertainty = Plausibility - Belief always hold.
type Result struct {
	Belief       float64 `json:"belief"`
	Plausibility float64 `json:"plausibility"`
	Uncertainty  float64 `json:"uncertainty"`
	Tier         Tier    `json:"tier"`
}

// ErrInputRange reports a probability outside [0,1] at the fusion boundary.
type ErrInputRange struct {
	Name  string
	Value float64
}

func (e *ErrInputRange) Error() string {
	return fmt.Sprintf("evidence: %s=%g outside [0,1]", e.Name, e.Value)
}

// Engine fuses independent probability estimates into a
// belief/plausibility/uncertainty interval for the dropout hypothesis.
type Engine struct {
	dynamic bool
	logger  *slog.Logger
}

// NewEngine creates a fusion engine. When dynamic is true, per-instance
// uncertainty estimation replaces the fixed per-signal constants.
func NewEngine(dynamic bool, logger *slog.Logger) *Engine {
	return &Engine{dynamic: dynamic, logger: logger}
}

// Dynamic reports which uncertainty policy the engine uses.
func (e *Engine) Dynamic() bool { return e.dynamic }

func (e *Engine) uncertaintyFor(signal Signal, value float64) float64 {
	if e.dynamic {
		return DynamicUncertainty(signal, value)
	}
	return FixedUncertainty(signal)
}

// Fuse combines the anomaly and classifier signals, then the optional expert
// signal, through repeated pairwise Dempster combination in that order.
// Dempster's rule is associative and commutative, so the order only affects
// intermediate values.
func (e *Engine) Fuse(anomalyScore, classifierProba float64, expertScore *float64) (Result, error) {
	if anomalyScore < 0 || anomalyScore > 1 {
		return Result{}, &ErrInputRange{Name: "anomaly_score", Value: anomalyScore}
	}
	if classifierProba < 0 || classifierProba > 1 {
		return Result{}, &ErrInputRange{Name: "classifier_proba", Value: classifierProba}
	}
	if expertScore != nil && (*expertScore < 0 || *expertScore > 1) {
		return Result{}, &ErrInputRange{Name: "expert_score", Value: *expertScore}
	}

	mAnom := FromProbability(anomalyScore, e.uncertaintyFor(SignalAnomaly, anomalyScore))
	mClf := FromProbability(classifierProba, e.uncertaintyFor(SignalClassifier, classifierProba))

	m, err := Combine(mAnom, mClf)
	if err != nil {
		return Result{}, err
	}

	if expertScore != nil {
		mExp := FromProbability(*expertScore, e.uncertaintyFor(SignalExpert, *expertScore))
		m, err = Combine(m, mExp)
		if err != nil {
			return Result{}, err
		}
	}

	belief := m.Belief()
	plausibility := m.Plausibility()
	res := Result{
		Belief:       belief,
		Plausibility: plausibility,
		Uncertainty:  plausibility - belief,
		Tier:         TierForPlausibility(plausibility),
	}
	e.logger.Debug("evidence fused",
		"belief", res.Belief,
		"plausibility", res.Plausibility,
		"uncertainty", res.Uncertainty,
		"tier", res.Tier,
		"dynamic", e.dynamic,
	)
	return res, nil
}
