package recommend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/MikeSquared-Agency/Sentinel/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ratingFunc adapts a function to the RatingPredictor interface.
type ratingFunc func(userID, courseID string) (float64, error)

func (f ratingFunc) PredictRating(_ context.Context, userID, courseID string) (float64, error) {
	return f(userID, courseID)
}

func fixedRating(r float64) RatingPredictor {
	return ratingFunc(func(_, _ string) (float64, error) { return r, nil })
}

func failingRating() RatingPredictor {
	return ratingFunc(func(_, _ string) (float64, error) {
		return 0, errors.New("cf model unavailable")
	})
}

func testCourses() []store.Course {
	return []store.Course{
		{ID: "C1", Title: "Intro to Data Science", Domain: "Data Science", Difficulty: "Beginner",
			DurationWeeks: 4, Format: "Self-paced", Platform: "Coursera", Cost: "Free", Rating: 4.5,
			Description: "foundations of data analysis", LearningObjectives: "statistics python pandas"},
		{ID: "C2", Title: "Deep Learning Specialization", Domain: "Machine Learning", Difficulty: "Advanced",
			DurationWeeks: 10, Format: "Instructor-led", Platform: "Udemy", Cost: "Paid", Rating: 4.8,
			Description: "neural networks at depth", LearningObjectives: "backprop optimization"},
		{ID: "C3", Title: "Full Stack Web Development", Domain: "Web Development", Difficulty: "Intermediate",
			DurationWeeks: 6, Format: "Blended", Platform: "edX", Cost: "Free", Rating: 3.9,
			Description: "build web applications", LearningObjectives: "javascript react backend"},
		{ID: "C4", Title: "Data Science Bootcamp", Domain: "Data Science", Difficulty: "Beginner",
			DurationWeeks: 8, Format: "Self-paced", Platform: "Udacity", Cost: "Paid", Rating: 4.0,
			Description: "applied data projects", LearningObjectives: "python visualization modeling"},
		{ID: "C5", Title: "Cloud Infrastructure", Domain: "Cloud Computing", Difficulty: "Advanced",
			DurationWeeks: 12, Format: "Instructor-led", Platform: "Coursera", Cost: "Free", Rating: 3.5,
			Description: "deploy and scale services", LearningObjectives: "kubernetes networking"},
	}
}

func testPreferences() []store.UserPreferences {
	return []store.UserPreferences{
		{
			UserID:             "U001",
			DomainInterests:    []string{"Data", "Science"},
			LearningPace:       "Fast",
			KnowledgeLevel:     "Beginner",
			CostPreference:     "Free",
			PreferredPlatforms: []string{"Coursera"},
		},
		{
			UserID:          "U002",
			DomainInterests: []string{"Machine", "Learning"},
			LearningPace:    "Slow",
			KnowledgeLevel:  "Advanced",
			CostPreference:  "Paid",
		},
	}
}

func testInteractions() []store.Interaction {
	return []store.Interaction{
		{UserID: "U001", CourseID: "C3", Rating: 4, ImplicitRating: 4.0, CompletionStatus: "Completed"},
		{UserID: "U003", CourseID: "C1", Rating: 5, ImplicitRating: 4.5, CompletionStatus: "Completed"},
		{UserID: "U003", CourseID: "C2", Rating: 4, ImplicitRating: 4.0, CompletionStatus: "Completed"},
		{UserID: "U003", CourseID: "C3", Rating: 3, ImplicitRating: 3.0, CompletionStatus: "Completed"},
		{UserID: "U003", CourseID: "C4", Rating: 4, ImplicitRating: 3.5, CompletionStatus: "In Progress"},
		{UserID: "U003", CourseID: "C5", Rating: 2, ImplicitRating: 2.0, CompletionStatus: "Completed"},
	}
}

func newTestEngine(t *testing.T, predictor RatingPredictor) *Engine {
	t.Helper()
	e, err := NewEngine(testCourses(), testPreferences(), testInteractions(),
		predictor, DefaultWeights(), discardLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestColdStartUsesRuleAndPopularityOnly(t *testing.T) {
	e := newTestEngine(t, fixedRating(4.0))

	// U002 has preferences but zero interactions.
	res, err := e.Recommend(context.Background(), "U002", 5, true)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !res.ColdStart {
		t.Fatal("expected cold start path")
	}
	if res.Count != 5 {
		t.Errorf("count = %d, want 5 (full catalog)", res.Count)
	}
	for _, rec := range res.Recommendations {
		if rec.Scores == nil {
			t.Fatal("explain requested but breakdown missing")
		}
		if rec.Scores.Content != nil || rec.Scores.Collaborative != nil {
			t.Errorf("cold start must not carry content/collaborative scores: %+v", rec.Scores)
		}
		if rec.Scores.Rule == nil || rec.Scores.Popularity == nil {
			t.Errorf("cold start breakdown incomplete: %+v", rec.Scores)
		}
		want := coldStartRuleWeight**rec.Scores.Rule + coldStartPopularityWeight**rec.Scores.Popularity
		if math.Abs(rec.HybridScore-want) > 1e-12 {
			t.Errorf("hybrid score %g != 0.6*rule + 0.4*popularity (%g)", rec.HybridScore, want)
		}
	}
}

func TestUnknownUserReturnsEmptyWithReason(t *testing.T) {
	e := newTestEngine(t, fixedRating(4.0))

	res, err := e.Recommend(context.Background(), "U999", 5, false)
	if err != nil {
		t.Fatalf("Recommend must not error for unknown users: %v", err)
	}
	if res.Count != 0 || len(res.Recommendations) != 0 {
		t.Errorf("expected empty result, got count=%d", res.Count)
	}
	if res.Reason == "" {
		t.Error("empty result must carry a reason")
	}
}

func TestWarmPathExcludesTakenCourses(t *testing.T) {
	e := newTestEngine(t, fixedRating(4.0))

	res, err := e.Recommend(context.Background(), "U001", 10, true)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.ColdStart {
		t.Fatal("U001 has history, must take the warm path")
	}
	if res.Count != 4 {
		t.Errorf("count = %d, want 4 (catalog minus taken C3)", res.Count)
	}
	for _, rec := range res.Recommendations {
		if rec.Course.ID == "C3" {
			t.Error("already-taken course C3 appeared in recommendations")
		}
		if rec.Scores == nil || rec.Scores.Content == nil || rec.Scores.Collaborative == nil ||
			rec.Scores.Rule == nil || rec.Scores.Popularity == nil {
			t.Errorf("warm explain breakdown incomplete for %s: %+v", rec.Course.ID, rec.Scores)
		}
	}
	// Descending hybrid order.
	for i := 1; i < len(res.Recommendations); i++ {
		if res.Recommendations[i].HybridScore > res.Recommendations[i-1].HybridScore {
			t.Error("recommendations not sorted by hybrid score descending")
		}
	}
}

func TestWarmPathHybridBlend(t *testing.T) {
	e := newTestEngine(t, fixedRating(4.0))

	res, err := e.Recommend(context.Background(), "U001", 10, true)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	w := DefaultWeights()
	for _, rec := range res.Recommendations {
		want := *rec.Scores.Content*w.Content +
			*rec.Scores.Collaborative*w.Collaborative +
			*rec.Scores.Rule*w.Rule +
			*rec.Scores.Popularity*w.Popularity
		if math.Abs(rec.HybridScore-want) > 1e-12 {
			t.Errorf("%s: hybrid %g != weighted blend %g", rec.Course.ID, rec.HybridScore, want)
		}
		// Fixed predictor rating 4.0 normalizes to 0.8.
		if math.Abs(*rec.Scores.Collaborative-0.8) > 1e-12 {
			t.Errorf("%s: cf score %g, want 0.8", rec.Course.ID, *rec.Scores.Collaborative)
		}
	}
}

func TestAllCoursesTakenReturnsEmpty(t *testing.T) {
	e := newTestEngine(t, fixedRating(4.0))

	res, err := e.Recommend(context.Background(), "U003", 5, false)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Count != 0 {
		t.Errorf("count = %d, want 0", res.Count)
	}
	if res.Reason == "" {
		t.Error("empty result must carry a reason")
	}
}

func TestCollaborativeOutageRedistributesWeights(t *testing.T) {
	e := newTestEngine(t, failingRating())

	res, err := e.Recommend(context.Background(), "U001", 10, true)
	if err != nil {
		t.Fatalf("Recommend must survive a predictor outage: %v", err)
	}
	if !res.CFDegraded {
		t.Fatal("expected degraded collaborative signal to be flagged")
	}
	if res.Count != 4 {
		t.Errorf("count = %d, want 4", res.Count)
	}

	w := DefaultWeights().withoutCollaborative()
	if math.Abs(w.Sum()-DefaultWeights().Sum()) > 1e-12 {
		t.Errorf("redistributed weights sum %g, want %g", w.Sum(), DefaultWeights().Sum())
	}
	for _, rec := range res.Recommendations {
		if rec.Scores.Collaborative != nil {
			t.Errorf("%s: collaborative score present despite outage", rec.Course.ID)
		}
		want := *rec.Scores.Content*w.Content +
			*rec.Scores.Rule*w.Rule +
			*rec.Scores.Popularity*w.Popularity
		if math.Abs(rec.HybridScore-want) > 1e-12 {
			t.Errorf("%s: hybrid %g != redistributed blend %g", rec.Course.ID, rec.HybridScore, want)
		}
	}
}

func TestOutOfRangeRatingDegradesCollaborative(t *testing.T) {
	e := newTestEngine(t, fixedRating(7.5))

	res, err := e.Recommend(context.Background(), "U001", 10, true)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !res.CFDegraded {
		t.Error("rating outside 1-5 must degrade the collaborative strategy")
	}
	for _, rec := range res.Recommendations {
		if rec.Scores.Collaborative != nil {
			t.Errorf("%s: collaborative score present for out-of-range predictor", rec.Course.ID)
		}
	}
}

func TestAtRiskEmptyFactorsPreservesBaseRanking(t *testing.T) {
	e := newTestEngine(t, fixedRating(4.0))

	base, err := e.Recommend(context.Background(), "U001", 8, true)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	atRisk, err := e.RecommendForAtRisk(context.Background(), "U001", RiskFactors{}, 4)
	if err != nil {
		t.Fatalf("RecommendForAtRisk: %v", err)
	}

	if atRisk.Count != base.Count {
		t.Fatalf("at-risk count %d, base count %d", atRisk.Count, base.Count)
	}
	for i, rec := range atRisk.Recommendations {
		if rec.Course.ID != base.Recommendations[i].Course.ID {
			t.Errorf("rank %d: order changed with empty risk factors (%s vs %s)",
				i, rec.Course.ID, base.Recommendations[i].Course.ID)
		}
		if rec.AdjustedScore == nil {
			t.Fatal("adjusted score missing")
		}
		if math.Abs(*rec.AdjustedScore-rec.HybridScore) > 1e-12 {
			t.Errorf("rank %d: adjusted %g != hybrid %g with empty risk factors",
				i, *rec.AdjustedScore, rec.HybridScore)
		}
	}
}

func TestAtRiskDifficultyAdjustment(t *testing.T) {
	e := newTestEngine(t, fixedRating(4.0))

	res, err := e.RecommendForAtRisk(context.Background(), "U001",
		RiskFactors{RiskLowGPA: true}, 4)
	if err != nil {
		t.Fatalf("RecommendForAtRisk: %v", err)
	}
	for _, rec := range res.Recommendations {
		want := rec.HybridScore + difficultyAdjustment(rec.Course.Difficulty)
		if math.Abs(*rec.AdjustedScore-want) > 1e-12 {
			t.Errorf("%s: adjusted %g, want %g", rec.Course.ID, *rec.AdjustedScore, want)
		}
	}
	// The perturbation must re-sort: a Beginner course gains +0.20 over an
	// Advanced one's -0.15, so the top course cannot be Advanced here.
	if res.Recommendations[0].Course.Difficulty == "Advanced" {
		t.Errorf("advanced course ranked first for a struggling student: %+v",
			res.Recommendations[0].Course)
	}
}

func TestAtRiskLowEngagementAdjustment(t *testing.T) {
	e := newTestEngine(t, fixedRating(4.0))

	res, err := e.RecommendForAtRisk(context.Background(), "U001",
		RiskFactors{RiskLowEngagement: true}, 4)
	if err != nil {
		t.Fatalf("RecommendForAtRisk: %v", err)
	}
	for _, rec := range res.Recommendations {
		want := rec.HybridScore +
			(rec.Course.DurationWeeks-4)*-0.02 +
			(rec.Course.Rating-3)*0.1
		if math.Abs(*rec.AdjustedScore-want) > 1e-12 {
			t.Errorf("%s: adjusted %g, want %g", rec.Course.ID, *rec.AdjustedScore, want)
		}
	}
}

func TestAtRiskUserWithEverythingTaken(t *testing.T) {
	e := newTestEngine(t, fixedRating(4.0))

	res, err := e.RecommendForAtRisk(context.Background(), "U003",
		RiskFactors{RiskLowGPA: true}, 5)
	if err != nil {
		t.Fatalf("RecommendForAtRisk: %v", err)
	}
	if res.Count != 0 {
		t.Errorf("count = %d, want 0", res.Count)
	}
}

func TestDeterministicTieBreak(t *testing.T) {
	// Two identical courses except id; with a flat predictor and no
	// matching preferences their scores tie, so ordering falls back to
	// popularity then id.
	courses := []store.Course{
		{ID: "C2", Title: "Course", Domain: "X", Difficulty: "Beginner", Rating: 4.0, Format: "Self-paced", Platform: "P", Cost: "Paid"},
		{ID: "C1", Title: "Course", Domain: "X", Difficulty: "Beginner", Rating: 4.0, Format: "Self-paced", Platform: "P", Cost: "Paid"},
	}
	prefs := []store.UserPreferences{{UserID: "U1", LearningPace: "Moderate"}}
	interactions := []store.Interaction{
		{UserID: "U2", CourseID: "C9", ImplicitRating: 3, CompletionStatus: "Completed"},
	}
	e, err := NewEngine(courses, prefs, interactions, fixedRating(3.0), DefaultWeights(), discardLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	res, err := e.Recommend(context.Background(), "U1", 2, false)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Count != 2 {
		t.Fatalf("count = %d, want 2", res.Count)
	}
	if res.Recommendations[0].Course.ID != "C1" {
		t.Errorf("tie not broken by course id: got %s first", res.Recommendations[0].Course.ID)
	}
}
