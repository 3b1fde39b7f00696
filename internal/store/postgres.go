package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT course_id, title, domain, description, learning_objectives,
			difficulty, duration_weeks, format, platform, cost, rating
		FROM courses ORDER BY course_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var c Course
		var description, objectives sql.NullString
		if err := rows.Scan(&c.ID, &c.Title, &c.Domain, &description, &objectives,
			&c.Difficulty, &c.DurationWeeks, &c.Format, &c.Platform, &c.Cost, &c.Rating); err != nil {
			return nil, err
		}
		c.Description = description.String
		c.LearningObjectives = objectives.String
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (s *PostgresStore) ListPreferences(ctx context.Context) ([]UserPreferences, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, domain_interests, learning_pace, knowledge_level,
			cost_preference, course_format, preferred_platforms
		FROM user_preferences ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prefs []UserPreferences
	for rows.Next() {
		var p UserPreferences
		var interests, platforms string
		if err := rows.Scan(&p.UserID, &interests, &p.LearningPace, &p.KnowledgeLevel,
			&p.CostPreference, &p.CourseFormat, &platforms); err != nil {
			return nil, err
		}
		p.DomainInterests = strings.Fields(interests)
		p.PreferredPlatforms = strings.Fields(platforms)
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

func (s *PostgresStore) ListInteractions(ctx context.Context) ([]Interaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, course_id, rating, implicit_rating, completion_status
		FROM user_course_interactions ORDER BY user_id, course_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interactions []Interaction
	for rows.Next() {
		var i Interaction
		if err := rows.Scan(&i.UserID, &i.CourseID, &i.Rating, &i.ImplicitRating,
			&i.CompletionStatus); err != nil {
			return nil, err
		}
		interactions = append(interactions, i)
	}
	return interactions, rows.Err()
}

func (s *PostgresStore) CreateAssessment(ctx context.Context, a *Assessment) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO assessments (student_id, anomaly_score, is_anomaly, classifier_proba,
			expert_score, belief, plausibility, uncertainty, tier, dynamic,
			fallback, fallback_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING assessment_id, created_at`,
		a.StudentID, a.AnomalyScore, a.IsAnomaly, a.ClassifierProba,
		a.ExpertScore, a.Belief, a.Plausibility, a.Uncertainty, a.Tier, a.Dynamic,
		a.Fallback, a.FallbackReason,
	).Scan(&a.ID, &a.CreatedAt)
}

const assessmentColumns = `assessment_id, student_id, anomaly_score, is_anomaly,
	classifier_proba, expert_score, belief, plausibility, uncertainty, tier,
	dynamic, fallback, fallback_reason, created_at`

func (s *PostgresStore) GetAssessment(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	a := &Assessment{}
	var reason sql.NullString
	err := s.pool.QueryRow(ctx, `
		SELECT `+assessmentColumns+`
		FROM assessments WHERE assessment_id = $1`, id,
	).Scan(
		&a.ID, &a.StudentID, &a.AnomalyScore, &a.IsAnomaly,
		&a.ClassifierProba, &a.ExpertScore, &a.Belief, &a.Plausibility, &a.Uncertainty, &a.Tier,
		&a.Dynamic, &a.Fallback, &reason, &a.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.FallbackReason = reason.String
	return a, nil
}

func (s *PostgresStore) ListAssessmentsForStudent(ctx context.Context, studentID string, limit int) ([]*Assessment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+assessmentColumns+`
		FROM assessments WHERE student_id = $1
		ORDER BY created_at DESC LIMIT $2`, studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Assessment
	for rows.Next() {
		a := &Assessment{}
		var reason sql.NullString
		if err := rows.Scan(
			&a.ID, &a.StudentID, &a.AnomalyScore, &a.IsAnomaly,
			&a.ClassifierProba, &a.ExpertScore, &a.Belief, &a.Plausibility, &a.Uncertainty, &a.Tier,
			&a.Dynamic, &a.Fallback, &reason, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		a.FallbackReason = reason.String
		out = append(out, a)
	}
	return out, rows.Err()
}
