package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/MikeSquared-Agency/Sentinel/internal/events"
	"github.com/MikeSquared-Agency/Sentinel/internal/recommend"
)

// EngineBuilder rebuilds the recommendation engine from current reference
// data. Used by the admin reload endpoint.
type EngineBuilder func(ctx context.Context) (*recommend.Engine, error)

type RecommendationsHandler struct {
	engine  atomic.Pointer[recommend.Engine]
	rebuild EngineBuilder
	events  events.Client
}

// NewRecommendationsHandler wires the recommendation endpoints. rebuild and
// eventsClient may be nil; reload and event publishing are then disabled.
func NewRecommendationsHandler(engine *recommend.Engine, rebuild EngineBuilder, eventsClient events.Client) *RecommendationsHandler {
	h := &RecommendationsHandler{rebuild: rebuild, events: eventsClient}
	h.engine.Store(engine)
	return h
}

func (h *RecommendationsHandler) publishServed(result *recommend.Result, atRisk bool) {
	if h.events == nil {
		return
	}
	subject := events.SubjectRecommendationServed
	if atRisk {
		subject = events.SubjectRecommendationAtRisk
	}
	_ = h.events.Publish(subject, events.RecommendationServedEvent{
		UserID:    result.UserID,
		Count:     result.Count,
		ColdStart: result.ColdStart,
		AtRisk:    atRisk,
		Timestamp: time.Now().UTC(),
	})
}

type RecommendRequest struct {
	UserID  string `json:"user_id"`
	TopN    int    `json:"top_n,omitempty"`
	Explain bool   `json:"explain,omitempty"`
}

type AtRiskRecommendRequest struct {
	UserID      string          `json:"user_id"`
	RiskFactors map[string]bool `json:"risk_factors,omitempty"`
	TopN        int             `json:"top_n,omitempty"`
}

func (h *RecommendationsHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { recommendLatency.Observe(time.Since(start).Seconds()) }()

	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id required"})
		return
	}

	result, err := h.engine.Load().Recommend(r.Context(), req.UserID, req.TopN, req.Explain)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	mode := "standard"
	if result.ColdStart {
		mode = "cold_start"
	}
	recommendationsTotal.WithLabelValues(mode).Inc()
	h.publishServed(result, false)
	writeJSON(w, http.StatusOK, result)
}

func (h *RecommendationsHandler) RecommendForAtRisk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { recommendLatency.Observe(time.Since(start).Seconds()) }()

	var req AtRiskRecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id required"})
		return
	}

	result, err := h.engine.Load().RecommendForAtRisk(r.Context(), req.UserID, req.RiskFactors, req.TopN)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	recommendationsTotal.WithLabelValues("at_risk").Inc()
	h.publishServed(result, true)
	writeJSON(w, http.StatusOK, result)
}

// Reload swaps in a freshly built engine. In-flight requests keep the engine
// they started with.
func (h *RecommendationsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if h.rebuild == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "reload not available"})
		return
	}
	engine, err := h.rebuild(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.engine.Store(engine)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}
