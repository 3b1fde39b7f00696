package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Sentinel/internal/risk"
	"github.com/MikeSquared-Agency/Sentinel/internal/store"
)

type PredictHandler struct {
	assessor      *risk.Assessor
	store         store.Store
	includeExpert bool
}

func NewPredictHandler(a *risk.Assessor, s store.Store, includeExpert bool) *PredictHandler {
	return &PredictHandler{assessor: a, store: s, includeExpert: includeExpert}
}

type PredictRequest struct {
	StudentID      string    `json:"student_id"`
	GPA            float64   `json:"gpa"`
	AttendanceRate float64   `json:"attendance_rate"`
	FailedCourses  int       `json:"failed_courses"`
	Features       []float64 `json:"features"`
	IncludeExpert  *bool     `json:"include_expert,omitempty"`
}

func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { predictLatency.Observe(time.Since(start).Seconds()) }()

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.StudentID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "student_id required"})
		return
	}
	if len(req.Features) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "features required"})
		return
	}

	includeExpert := h.includeExpert
	if req.IncludeExpert != nil {
		includeExpert = *req.IncludeExpert
	}

	features := &risk.StudentFeatures{
		StudentID:     req.StudentID,
		GPA:           req.GPA,
		Attendance:    req.AttendanceRate,
		FailedCourses: req.FailedCourses,
		Vector:        req.Features,
	}

	assessment, err := h.assessor.Assess(r.Context(), features, includeExpert)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (h *PredictHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid assessment id"})
		return
	}

	assessment, err := h.store.GetAssessment(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if assessment == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "assessment not found"})
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (h *PredictHandler) ListForStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "student_id")

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			limit = n
		}
	}

	assessments, err := h.store.ListAssessmentsForStudent(r.Context(), studentID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"student_id":  studentID,
		"assessments": assessments,
		"count":       len(assessments),
	})
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
