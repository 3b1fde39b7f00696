package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Course is a static catalog entry. Attributes are reference data loaded at
// startup; per-request scores are never persisted on it.
type Course struct {
	ID                 string  `json:"course_id"`
	Title              string  `json:"title"`
	Domain             string  `json:"domain"`
	Description        string  `json:"description,omitempty"`
	LearningObjectives string  `json:"learning_objectives,omitempty"`
	Difficulty         string  `json:"difficulty"` // Beginner, Intermediate, Advanced
	DurationWeeks      float64 `json:"duration_weeks"`
	Format             string  `json:"format"` // Self-paced, Instructor-led, Blended
	Platform           string  `json:"platform"`
	Cost               string  `json:"cost"`   // Free, Paid
	Rating             float64 `json:"rating"` // 1-5
}

// UserPreferences are the declared (not inferred) learner preferences.
type UserPreferences struct {
	UserID             string   `json:"user_id"`
	DomainInterests    []string `json:"domain_interests"`
	LearningPace       string   `json:"learning_pace"` // Fast, Moderate, Slow
	KnowledgeLevel     string   `json:"knowledge_level"`
	CostPreference     string   `json:"cost_preference"`
	CourseFormat       string   `json:"course_format"`
	PreferredPlatforms []string `json:"preferred_platforms"`
}

// Interaction is one user-course engagement record.
type Interaction struct {
	UserID           string  `json:"user_id"`
	CourseID         string  `json:"course_id"`
	Rating           float64 `json:"rating"` // explicit, 1-5
	ImplicitRating   float64 `json:"implicit_rating"`
	CompletionStatus string  `json:"completion_status"` // Completed, In Progress, Dropped
}

// Assessment is one persisted dropout-risk fusion result.
type Assessment struct {
	ID              uuid.UUID `json:"assessment_id"`
	StudentID       string    `json:"student_id"`
	AnomalyScore    float64   `json:"anomaly_score"` // normalized to [0,1]
	IsAnomaly       bool      `json:"is_anomaly"`
	ClassifierProba float64   `json:"classifier_proba"`
	ExpertScore     *float64  `json:"expert_score,omitempty"`
	Belief          float64   `json:"belief"`
	Plausibility    float64   `json:"plausibility"`
	Uncertainty     float64   `json:"uncertainty"`
	Tier            string    `json:"tier"`
	Dynamic         bool      `json:"dynamic"`
	Fallback        bool      `json:"fallback"`
	FallbackReason  string    `json:"fallback_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Store provides read access to reference data and persistence for
// assessments. Reference data is read-only once loaded and safe for
// concurrent use.
type Store interface {
	ListCourses(ctx context.Context) ([]Course, error)
	ListPreferences(ctx context.Context) ([]UserPreferences, error)
	ListInteractions(ctx context.Context) ([]Interaction, error)

	CreateAssessment(ctx context.Context, a *Assessment) error
	GetAssessment(ctx context.Context, id uuid.UUID) (*Assessment, error)
	ListAssessmentsForStudent(ctx context.Context, studentID string, limit int) ([]*Assessment, error)

	Close() error
}
