package recommend

import "github.com/MikeSquared-Agency/Sentinel/internal/store"

// Popularity blends the course rating with its enrollment count:
// 0.6*(rating/5) + 0.4*min(enrollments/10, 1).
const (
	popularityRatingWeight     = 0.6
	popularityEnrollmentWeight = 0.4
	enrollmentSaturation       = 10.0
)

func popularityScore(c *store.Course, enrollments int) float64 {
	enrollTerm := float64(enrollments) / enrollmentSaturation
	if enrollTerm > 1 {
		enrollTerm = 1
	}
	return popularityRatingWeight*(c.Rating/5.0) + popularityEnrollmentWeight*enrollTerm
}
