package evidence

import "math"

// Signal identifies the source of a probability estimate. Each source gets
// its own uncertainty policy.
type Signal string

const (
	SignalClassifier Signal = "classifier"
	SignalAnomaly    Signal = "anomaly"
	SignalExpert     Signal = "expert"
)

// Fixed per-signal uncertainty constants used when dynamic estimation is off.
const (
	FixedAnomalyUncertainty    = 0.25
	FixedClassifierUncertainty = 0.15
	FixedExpertUncertainty     = 0.20
)

// Dynamic uncertainty is clamped to this band regardless of the raw estimate.
const (
	minDynamicUncertainty = 0.01
	maxDynamicUncertainty = 0.40
)

// DynamicUncertainty computes an instance-specific uncertainty for a signal
// value in [0,1]:
//
//   - classifier: binary entropy of the probability (max at 0.5)
//   - anomaly: distance from the 0.5 decision boundary, 1 - 2|v - 0.5|
//   - expert: fixed 0.20
//   - anything else: fixed default 0.15
//
// The result is clamped to [0.01, 0.40].
func DynamicUncertainty(signal Signal, value float64) float64 {
	var u float64
	switch signal {
	case SignalClassifier:
		p := clamp(value, 1e-10, 1-1e-10)
		u = -p*math.Log2(p) - (1-p)*math.Log2(1-p)
	case SignalAnomaly:
		u = 1 - 2*math.Abs(value-0.5)
	case SignalExpert:
		u = 0.20
	default:
		u = 0.15
	}
	return clamp(u, minDynamicUncertainty, maxDynamicUncertainty)
}

// FixedUncertainty returns the per-signal constant used when dynamic
// estimation is off.
func FixedUncertainty(signal Signal) float64 {
	switch signal {
	case SignalAnomaly:
		return FixedAnomalyUncertainty
	case SignalClassifier:
		return FixedClassifierUncertainty
	case SignalExpert:
		return FixedExpertUncertainty
	default:
		return 0.15
	}
}
