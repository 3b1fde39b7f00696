package risk

// ExpertRuleScore converts domain heuristics into a dropout-risk score in
// [0,1]. The point weights mirror the rule set the evidence combiner was
// calibrated against: GPA carries half the weight, attendance 30%, repeated
// failures 20%.
func ExpertRuleScore(f *StudentFeatures) float64 {
	score := 0.0

	switch {
	case f.GPA < 2.0:
		score += 0.5
	case f.GPA < 2.5:
		score += 0.3
	}

	switch {
	case f.Attendance < 65:
		score += 0.3
	case f.Attendance < 75:
		score += 0.2
	}

	switch {
	case f.FailedCourses > 3:
		score += 0.2
	case f.FailedCourses > 2:
		score += 0.1
	}

	if score > 1 {
		score = 1
	}
	return score
}
