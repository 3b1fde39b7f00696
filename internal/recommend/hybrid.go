package recommend

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/MikeSquared-Agency/Sentinel/internal/store"
)

// RatingPredictor is the matrix-factorization boundary: a predicted rating on
// a 1-5 scale for a (user, course) pair.
type RatingPredictor interface {
	PredictRating(ctx context.Context, userID, courseID string) (float64, error)
}

// RiskFactors is an opaque set of named risk indicators. Only the keys below
// are recognized by the at-risk adjustment; anything else is ignored.
type RiskFactors map[string]bool

const (
	RiskLowGPA        = "low_gpa"
	RiskFailedCourses = "failed_courses"
	RiskLowEngagement = "low_engagement"
)

// ScoreBreakdown is the per-strategy explanation attached when explain is
// requested. Fields are nil when the strategy did not contribute (cold start,
// predictor outage) or produced an undefined value; a nil is never a NaN.
type ScoreBreakdown struct {
	Content       *float64 `json:"content_score,omitempty"`
	Collaborative *float64 `json:"cf_score,omitempty"`
	Rule          *float64 `json:"rule_score,omitempty"`
	Popularity    *float64 `json:"popularity_score,omitempty"`
}

// Recommendation is one ranked course with its blended score.
type Recommendation struct {
	Course        store.Course    `json:"course"`
	HybridScore   float64         `json:"hybrid_score"`
	AdjustedScore *float64        `json:"adjusted_score,omitempty"`
	Scores        *ScoreBreakdown `json:"scores,omitempty"`
}

// Result is an ordered recommendation list. Count 0 with a Reason is a valid
// outcome (unknown user semantics aside, a user who has taken the whole
// catalog gets an empty list, not an error).
type Result struct {
	UserID          string           `json:"user_id"`
	Recommendations []Recommendation `json:"recommendations"`
	Count           int              `json:"count"`
	ColdStart       bool             `json:"cold_start"`
	CFDegraded      bool             `json:"cf_degraded,omitempty"`
	Reason          string           `json:"reason,omitempty"`
}

// Engine blends content similarity, collaborative filtering, rule-based
// preference matching and popularity into one ranked list. Construction is
// the expensive phase (feature vectors, lookup tables); Recommend and
// RecommendForAtRisk are pure reads and safe for concurrent use.
type Engine struct {
	courses            []store.Course
	prefsByUser        map[string]store.UserPreferences
	interactionsByUser map[string][]store.Interaction
	enrollments        map[string]int
	content            *ContentScorer
	predictor          RatingPredictor
	weights            Weights
	logger             *slog.Logger
}

// NewEngine builds the recommendation engine from reference data and a
// fitted rating predictor. The inputs are treated as read-only after this
// call; reloads replace the whole engine.
func NewEngine(courses []store.Course, prefs []store.UserPreferences, interactions []store.Interaction,
	predictor RatingPredictor, weights Weights, logger *slog.Logger) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if !weights.Normalized() {
		logger.Warn("hybrid weights do not sum to 1; hybrid scores may leave [0,1]",
			"sum", weights.Sum())
	}

	e := &Engine{
		courses:            courses,
		prefsByUser:        make(map[string]store.UserPreferences, len(prefs)),
		interactionsByUser: make(map[string][]store.Interaction),
		enrollments:        make(map[string]int),
		content:            BuildContentScorer(courses),
		predictor:          predictor,
		weights:            weights,
		logger:             logger,
	}
	for _, p := range prefs {
		e.prefsByUser[p.UserID] = p
	}
	for _, in := range interactions {
		e.interactionsByUser[in.UserID] = append(e.interactionsByUser[in.UserID], in)
		e.enrollments[in.CourseID]++
	}
	return e, nil
}

func (e *Engine) userPrefs(userID string) *store.UserPreferences {
	if p, ok := e.prefsByUser[userID]; ok {
		return &p
	}
	return nil
}

// Recommend returns the top-N ranked courses for a user. Users without any
// interaction history take the cold-start path: rule and popularity scoring
// over the full catalog, with content and collaborative signals absent.
func (e *Engine) Recommend(ctx context.Context, userID string, topN int, explain bool) (*Result, error) {
	if topN <= 0 {
		topN = 10
	}

	interactions := e.interactionsByUser[userID]
	if len(interactions) == 0 {
		if e.userPrefs(userID) == nil {
			return &Result{
				UserID: userID,
				Count:  0,
				Reason: "unknown user: no preference or interaction records",
			}, nil
		}
		e.logger.Info("cold start detected", "user_id", userID)
		return e.coldStart(userID, topN, explain), nil
	}
	return e.warm(ctx, userID, interactions, topN, explain), nil
}

// coldStart scores the full catalog with rule (0.6) and popularity (0.4)
// only. This is a deliberately simpler policy, not a degenerate warm path.
func (e *Engine) coldStart(userID string, topN int, explain bool) *Result {
	prefs := e.userPrefs(userID)
	rule := ruleScores(prefs, e.courses)

	recs := make([]Recommendation, len(e.courses))
	for i := range e.courses {
		pop := popularityScore(&e.courses[i], e.enrollments[e.courses[i].ID])
		recs[i] = Recommendation{
			Course:      e.courses[i],
			HybridScore: coldStartRuleWeight*rule[i] + coldStartPopularityWeight*pop,
		}
		if explain {
			recs[i].Scores = &ScoreBreakdown{
				Rule:       nanSafe(rule[i]),
				Popularity: nanSafe(pop),
			}
		}
	}

	e.sortRecommendations(recs, func(r *Recommendation) float64 { return r.HybridScore })
	if len(recs) > topN {
		recs = recs[:topN]
	}
	return &Result{
		UserID:          userID,
		Recommendations: recs,
		Count:           len(recs),
		ColdStart:       true,
	}
}

// warm blends all four strategies over the not-yet-taken candidate set.
func (e *Engine) warm(ctx context.Context, userID string, interactions []store.Interaction, topN int, explain bool) *Result {
	taken := make(map[string]bool, len(interactions))
	for _, in := range interactions {
		taken[in.CourseID] = true
	}

	var candidates []store.Course
	for _, c := range e.courses {
		if !taken[c.ID] {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return &Result{
			UserID: userID,
			Count:  0,
			Reason: "user has taken all available courses",
		}
	}

	profile := e.content.UserProfile(interactions)
	rule := ruleScores(e.userPrefs(userID), candidates)

	cfScores, cfOK := e.collaborativeScores(ctx, userID, candidates)
	weights := e.weights
	if !cfOK {
		weights = weights.withoutCollaborative()
	}

	recs := make([]Recommendation, len(candidates))
	for i := range candidates {
		content := e.content.Similarity(profile, candidates[i].ID)
		pop := popularityScore(&candidates[i], e.enrollments[candidates[i].ID])

		hybrid := defined(content)*weights.Content +
			defined(rule[i])*weights.Rule +
			defined(pop)*weights.Popularity
		if cfOK {
			hybrid += defined(cfScores[i]) * weights.Collaborative
		}

		recs[i] = Recommendation{Course: candidates[i], HybridScore: hybrid}
		if explain {
			breakdown := &ScoreBreakdown{
				Content:    nanSafe(content),
				Rule:       nanSafe(rule[i]),
				Popularity: nanSafe(pop),
			}
			if cfOK {
				breakdown.Collaborative = nanSafe(cfScores[i])
			}
			recs[i].Scores = breakdown
		}
	}

	e.sortRecommendations(recs, func(r *Recommendation) float64 { return r.HybridScore })
	if len(recs) > topN {
		recs = recs[:topN]
	}
	return &Result{
		UserID:          userID,
		Recommendations: recs,
		Count:           len(recs),
		CFDegraded:      !cfOK,
	}
}

// collaborativeScores predicts the normalized affinity for every candidate.
// Any predictor failure degrades the whole strategy; the caller redistributes
// its weight instead of failing the recommendation.
func (e *Engine) collaborativeScores(ctx context.Context, userID string, candidates []store.Course) ([]float64, bool) {
	scores := make([]float64, len(candidates))
	for i := range candidates {
		rating, err := e.predictor.PredictRating(ctx, userID, candidates[i].ID)
		if err != nil {
			e.logger.Warn("rating predictor unavailable, redistributing collaborative weight",
				"user_id", userID, "course_id", candidates[i].ID, "error", err)
			return nil, false
		}
		if rating < 1 || rating > 5 {
			e.logger.Warn("rating predictor returned value outside 1-5, redistributing collaborative weight",
				"user_id", userID, "course_id", candidates[i].ID, "rating", rating)
			return nil, false
		}
		scores[i] = rating / 5.0
	}
	return scores, true
}

// RecommendForAtRisk re-ranks a base recommendation with risk-driven
// adjustments. The base ranking is computed once (with explanations) and
// perturbed additively; an empty risk-factor set leaves order and scores
// unchanged.
func (e *Engine) RecommendForAtRisk(ctx context.Context, userID string, riskFactors RiskFactors, topN int) (*Result, error) {
	if topN <= 0 {
		topN = 5
	}

	base, err := e.Recommend(ctx, userID, topN*2, true)
	if err != nil {
		return nil, err
	}
	if base.Count == 0 {
		return base, nil
	}

	preferEasier := riskFactors[RiskLowGPA] || riskFactors[RiskFailedCourses]
	lowEngagement := riskFactors[RiskLowEngagement]

	for i := range base.Recommendations {
		rec := &base.Recommendations[i]
		adjusted := rec.HybridScore
		if preferEasier {
			adjusted += difficultyAdjustment(rec.Course.Difficulty)
		}
		if lowEngagement {
			adjusted += (rec.Course.DurationWeeks - 4) * -0.02
			adjusted += (rec.Course.Rating - 3) * 0.1
		}
		rec.AdjustedScore = &adjusted
	}

	e.sortRecommendations(base.Recommendations, func(r *Recommendation) float64 {
		return *r.AdjustedScore
	})
	if len(base.Recommendations) > topN {
		base.Recommendations = base.Recommendations[:topN]
	}
	base.Count = len(base.Recommendations)
	return base, nil
}

// difficultyAdjustment boosts beginner courses and penalizes advanced ones
// for academically struggling students.
func difficultyAdjustment(difficulty string) float64 {
	switch difficulty {
	case "Beginner":
		return 0.20
	case "Intermediate":
		return 0.0
	case "Advanced":
		return -0.15
	default:
		return 0.0
	}
}

// sortRecommendations orders by key descending, breaking ties by higher
// popularity and then by course id for determinism.
func (e *Engine) sortRecommendations(recs []Recommendation, key func(*Recommendation) float64) {
	sort.SliceStable(recs, func(i, j int) bool {
		ki, kj := key(&recs[i]), key(&recs[j])
		if ki != kj {
			return ki > kj
		}
		pi := popularityScore(&recs[i].Course, e.enrollments[recs[i].Course.ID])
		pj := popularityScore(&recs[j].Course, e.enrollments[recs[j].Course.ID])
		if pi != pj {
			return pi > pj
		}
		return recs[i].Course.ID < recs[j].Course.ID
	})
}

// defined zeroes out NaN so an undefined signal cannot poison the blend.
func defined(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// nanSafe converts a possibly-NaN score to a nullable field.
func nanSafe(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
