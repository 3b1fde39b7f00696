package recommend

import (
	"strings"

	"github.com/MikeSquared-Agency/Sentinel/internal/store"
)

// Rule point weights. Scores are additive, then min-max normalized across
// the candidate batch so the best match receives 1.0.
const (
	domainMatchPoints     = 0.30 // per matching domain interest term
	paceFormatPoints      = 0.20
	freeCostPoints        = 0.25
	platformMatchPoints   = 0.15 // per preferred platform
	difficultyMatchPoints = 0.10

	// noPreferenceScore is the neutral score for users without a
	// preference record.
	noPreferenceScore = 0.5
)

// ruleScores computes the rule-based preference score for each candidate.
// A missing preference row yields a uniform neutral score.
func ruleScores(prefs *store.UserPreferences, candidates []store.Course) []float64 {
	scores := make([]float64, len(candidates))
	if prefs == nil {
		for i := range scores {
			scores[i] = noPreferenceScore
		}
		return scores
	}

	for i := range candidates {
		scores[i] = ruleScore(prefs, &candidates[i])
	}

	// Normalize so the batch maximum is 1.0; an all-zero batch stays zero.
	max := 0.0
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	if max > 0 {
		for i := range scores {
			scores[i] /= max
		}
	}
	return scores
}

func ruleScore(prefs *store.UserPreferences, c *store.Course) float64 {
	score := 0.0

	courseDomain := strings.ToLower(c.Domain)
	for _, interest := range prefs.DomainInterests {
		if interest != "" && strings.Contains(courseDomain, strings.ToLower(interest)) {
			score += domainMatchPoints
		}
	}

	switch prefs.LearningPace {
	case "Fast":
		if c.Format == "Self-paced" || c.Format == "Blended" {
			score += paceFormatPoints
		}
	case "Slow":
		if c.Format == "Instructor-led" {
			score += paceFormatPoints
		}
	}

	if prefs.CostPreference == "Free" && c.Cost == "Free" {
		score += freeCostPoints
	}

	for _, platform := range prefs.PreferredPlatforms {
		if c.Platform == platform {
			score += platformMatchPoints
		}
	}

	if prefs.KnowledgeLevel != "" && c.Difficulty == prefs.KnowledgeLevel {
		score += difficultyMatchPoints
	}

	return score
}
