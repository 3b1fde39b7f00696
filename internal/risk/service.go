package risk

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/MikeSquared-Agency/Sentinel/internal/events"
	"github.com/MikeSquared-Agency/Sentinel/internal/evidence"
	"github.com/MikeSquared-Agency/Sentinel/internal/models"
	"github.com/MikeSquared-Agency/Sentinel/internal/store"
)

// fallbackMargin is the documented plausibility margin for degraded
// assessments: belief = p, plausibility = p + 0.15.
const fallbackMargin = 0.15

// Assessor runs the full dropout-risk pipeline: anomaly scoring, classifier
// prediction with interaction features, optional expert rules, and
// Dempster-Shafer fusion. It always produces a usable assessment; upstream
// predictor failures degrade to a documented fallback interval instead of
// erroring.
type Assessor struct {
	models  models.Client
	engine  *evidence.Engine
	store   store.Store
	events  events.Client
	metrics Metrics
	logger  *slog.Logger
}

// Metrics receives assessment outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	AssessmentCompleted(tier string, fallback bool)
}

type noopMetrics struct{}

func (noopMetrics) AssessmentCompleted(string, bool) {}

// NewAssessor wires the assessment pipeline. store and eventsClient may be
// nil; persistence and event publishing are then skipped.
func NewAssessor(m models.Client, engine *evidence.Engine, s store.Store, ev events.Client, metrics Metrics, logger *slog.Logger) *Assessor {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Assessor{
		models:  m,
		engine:  engine,
		store:   s,
		events:  ev,
		metrics: metrics,
		logger:  logger,
	}
}

// Assess fuses the available signals for one student. includeExpert adds the
// rule-based signal as a third evidence source.
func (a *Assessor) Assess(ctx context.Context, features *StudentFeatures, includeExpert bool) (*store.Assessment, error) {
	if err := features.Validate(); err != nil {
		return nil, err
	}

	expert := ExpertRuleScore(features)
	var expertPtr *float64
	if includeExpert {
		expertPtr = &expert
	}

	assessment := a.assess(ctx, features, expertPtr, expert)
	assessment.StudentID = features.StudentID
	assessment.Dynamic = a.engine.Dynamic()

	a.metrics.AssessmentCompleted(assessment.Tier, assessment.Fallback)

	if a.store != nil {
		if err := a.store.CreateAssessment(ctx, assessment); err != nil {
			a.logger.Error("failed to persist assessment", "student_id", features.StudentID, "error", err)
		}
	}
	a.publish(assessment)
	return assessment, nil
}

// assess runs the nominal path and downgrades to the fallback interval when
// a predictor or the combination itself fails.
func (a *Assessor) assess(ctx context.Context, features *StudentFeatures, expertPtr *float64, expertScore float64) *store.Assessment {
	anomaly, err := a.models.AnomalyScore(ctx, features.Vector)
	if err != nil {
		a.logger.Warn("anomaly predictor unavailable, using fallback interval",
			"student_id", features.StudentID, "error", err)
		return a.fallback(expertScore, "anomaly predictor error: "+err.Error())
	}
	anomalyScore := NormalizeAnomalyScore(anomaly.RawScore)

	augmented := AugmentFeatures(features, anomalyScore, anomaly.IsAnomaly)
	proba, err := a.models.DropoutProbability(ctx, augmented)
	if err != nil {
		a.logger.Warn("classifier unavailable, using fallback interval",
			"student_id", features.StudentID, "error", err)
		fb := a.fallback(expertScore, "classifier error: "+err.Error())
		fb.AnomalyScore = anomalyScore
		fb.IsAnomaly = anomaly.IsAnomaly
		return fb
	}

	result, err := a.engine.Fuse(anomalyScore, proba, expertPtr)
	if err != nil {
		a.logger.Warn("evidence combination failed, using fallback interval",
			"student_id", features.StudentID, "error", err)
		fb := a.fallback(proba, "combination error: "+err.Error())
		fb.AnomalyScore = anomalyScore
		fb.IsAnomaly = anomaly.IsAnomaly
		fb.ClassifierProba = proba
		return fb
	}

	return &store.Assessment{
		AnomalyScore:    anomalyScore,
		IsAnomaly:       anomaly.IsAnomaly,
		ClassifierProba: proba,
		ExpertScore:     expertPtr,
		Belief:          result.Belief,
		Plausibility:    result.Plausibility,
		Uncertainty:     result.Uncertainty,
		Tier:            string(result.Tier),
	}
}

// fallback builds the degraded assessment from the best remaining point
// estimate p: belief = p, plausibility = p + 0.15. The Fallback flag keeps
// the path distinguishable in telemetry.
func (a *Assessor) fallback(p float64, reason string) *store.Assessment {
	plausibility := math.Min(p+fallbackMargin, 1)
	return &store.Assessment{
		Belief:         p,
		Plausibility:   plausibility,
		Uncertainty:    plausibility - p,
		Tier:           string(evidence.TierForPlausibility(plausibility)),
		Fallback:       true,
		FallbackReason: reason,
	}
}

func (a *Assessor) publish(assessment *store.Assessment) {
	if a.events == nil {
		return
	}
	subject := events.SubjectRiskAssessed
	if assessment.Fallback {
		subject = events.SubjectRiskFallback
	}
	err := a.events.Publish(subject, events.RiskAssessedEvent{
		AssessmentID: assessment.ID.String(),
		StudentID:    assessment.StudentID,
		Belief:       assessment.Belief,
		Plausibility: assessment.Plausibility,
		Uncertainty:  assessment.Uncertainty,
		Tier:         assessment.Tier,
		Fallback:     assessment.Fallback,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		a.logger.Warn("failed to publish assessment event", "error", err)
	}
}
