package risk

import (
	"errors"
	"fmt"
)

// ErrMissingFeature reports an incomplete feature vector. Feature
// completeness is a precondition for fusion; there is no imputation here.
var ErrMissingFeature = errors.New("risk: incomplete student features")

// StudentFeatures is the per-student input to one assessment. Vector holds
// the base model features in training column order; GPA, Attendance and
// FailedCourses are also carried separately for the expert rules and the
// classifier interaction features.
type StudentFeatures struct {
	StudentID     string    `json:"student_id"`
	GPA           float64   `json:"gpa"`        // 0-4 scale
	Attendance    float64   `json:"attendance"` // percentage, 0-100
	FailedCourses int       `json:"failed_courses"`
	Vector        []float64 `json:"features"`
}

// Validate rejects feature sets that cannot be assessed.
func (f *StudentFeatures) Validate() error {
	if f.StudentID == "" {
		return fmt.Errorf("%w: student_id required", ErrMissingFeature)
	}
	if len(f.Vector) == 0 {
		return fmt.Errorf("%w: empty feature vector", ErrMissingFeature)
	}
	if f.GPA < 0 || f.GPA > 4 {
		return fmt.Errorf("risk: gpa=%g outside [0,4]", f.GPA)
	}
	if f.Attendance < 0 || f.Attendance > 100 {
		return fmt.Errorf("risk: attendance=%g outside [0,100]", f.Attendance)
	}
	if f.FailedCourses < 0 {
		return fmt.Errorf("risk: failed_courses=%d negative", f.FailedCourses)
	}
	return nil
}

// NormalizeAnomalyScore maps the anomaly model's raw decision score into
// [0,1]. The formula (-raw - (-1)) / (1 - (-1)) is a contract with the
// model's score range and must not change.
func NormalizeAnomalyScore(raw float64) float64 {
	n := (-raw - (-1)) / (1 - (-1))
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// AugmentFeatures appends the anomaly signal and its interaction features
// (anomaly x gpa, anomaly x attendance) to the base vector, matching the
// classifier's training-time layout.
func AugmentFeatures(f *StudentFeatures, anomalyScore float64, isAnomaly bool) []float64 {
	anomalyFlag := 0.0
	if isAnomaly {
		anomalyFlag = 1.0
	}
	out := make([]float64, 0, len(f.Vector)+4)
	out = append(out, f.Vector...)
	out = append(out,
		anomalyScore,
		anomalyFlag,
		anomalyScore*f.GPA,
		anomalyScore*f.Attendance,
	)
	return out
}
