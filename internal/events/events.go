package events

import "time"

// Subjects for published events.
const (
	SubjectRiskAssessed         = "sentinel.risk.assessed"
	SubjectRiskFallback         = "sentinel.risk.fallback"
	SubjectRecommendationServed = "sentinel.recommendation.served"
	SubjectRecommendationAtRisk = "sentinel.recommendation.at_risk"

	StreamName   = "SENTINEL"
	StreamMaxAge = "168h"
)

// RiskAssessedEvent is published after every fusion call, nominal or fallback.
type RiskAssessedEvent struct {
	AssessmentID string    `json:"assessment_id"`
	StudentID    string    `json:"student_id"`
	Belief       float64   `json:"belief"`
	Plausibility float64   `json:"plausibility"`
	Uncertainty  float64   `json:"uncertainty"`
	Tier         string    `json:"tier"`
	Fallback     bool      `json:"fallback"`
	Timestamp    time.Time `json:"timestamp"`
}

// RecommendationServedEvent is published after a ranked list is returned.
type RecommendationServedEvent struct {
	UserID    string    `json:"user_id"`
	Count     int       `json:"count"`
	ColdStart bool      `json:"cold_start"`
	AtRisk    bool      `json:"at_risk"`
	Timestamp time.Time `json:"timestamp"`
}
