package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AnomalyResult is the raw output of the anomaly detector. RawScore is the
// model's decision-function value; callers normalize it before use.
type AnomalyResult struct {
	RawScore  float64 `json:"raw_score"`
	IsAnomaly bool    `json:"is_anomaly"`
}

// Client is the boundary to the pre-fitted prediction models. All models are
// served externally; this process never trains or loads them.
type Client interface {
	// AnomalyScore runs the anomaly detector on a feature vector.
	AnomalyScore(ctx context.Context, features []float64) (*AnomalyResult, error)
	// DropoutProbability runs the dropout classifier on an augmented
	// feature vector and returns P(dropout).
	DropoutProbability(ctx context.Context, features []float64) (float64, error)
	// PredictRating returns the matrix-factorization predicted rating for
	// a (user, course) pair on a 1-5 scale.
	PredictRating(ctx context.Context, userID, courseID string) (float64, error)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) doReq(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("models POST %s: %d %s", path, resp.StatusCode, string(data))
	}
	return json.Unmarshal(data, out)
}

func (c *HTTPClient) AnomalyScore(ctx context.Context, features []float64) (*AnomalyResult, error) {
	var res AnomalyResult
	if err := c.doReq(ctx, "/v1/anomaly/score", map[string]interface{}{"features": features}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) DropoutProbability(ctx context.Context, features []float64) (float64, error) {
	var res struct {
		Probability float64 `json:"probability"`
	}
	if err := c.doReq(ctx, "/v1/dropout/predict", map[string]interface{}{"features": features}, &res); err != nil {
		return 0, err
	}
	return res.Probability, nil
}

func (c *HTTPClient) PredictRating(ctx context.Context, userID, courseID string) (float64, error) {
	var res struct {
		Rating float64 `json:"rating"`
	}
	payload := map[string]string{"user_id": userID, "course_id": courseID}
	if err := c.doReq(ctx, "/v1/cf/predict", payload, &res); err != nil {
		return 0, err
	}
	return res.Rating, nil
}
