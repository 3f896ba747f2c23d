// Package evaluation is the client for the external text-evaluation
// service that scores answer content. The service is treated as
// unreliable: timeouts, transport errors, and malformed payloads all
// degrade to a fixed neutral evaluation instead of failing the session.
package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/model"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/session"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/pkg/logger"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/pkg/metrics"
)

// DefaultTimeout bounds the evaluation round-trip.
const DefaultTimeout = 10 * time.Second

type evaluateRequest struct {
	Question string                    `json:"question"`
	Answer   string                    `json:"answer"`
	Context  session.EvaluationContext `json:"context"`
}

// Client calls the evaluation service over HTTP. A client with no base
// URL configured short-circuits to the fallback payload, which keeps
// sessions usable when no upstream is deployed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates an evaluation client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        logger.Named("evaluation"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Evaluate scores one answer. It never returns an error: every failure
// mode yields the fallback evaluation so the session keeps moving.
func (c *Client) Evaluate(ctx context.Context, questionText, answerText string, evalCtx session.EvaluationContext) (model.Evaluation, error) {
	if c.baseURL == "" {
		metrics.RecordEvaluatorFallback()
		return Fallback(), nil
	}

	start := time.Now()
	eval, err := c.call(ctx, questionText, answerText, evalCtx)
	metrics.RecordEvaluatorLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		c.log.Warn(ctx, "evaluation failed, using fallback", logger.Error(err))
		metrics.RecordEvaluatorError()
		metrics.RecordEvaluatorFallback()
		return Fallback(), nil
	}

	return eval, nil
}

func (c *Client) call(ctx context.Context, questionText, answerText string, evalCtx session.EvaluationContext) (model.Evaluation, error) {
	body, err := json.Marshal(evaluateRequest{
		Question: questionText,
		Answer:   answerText,
		Context:  evalCtx,
	})
	if err != nil {
		return model.Evaluation{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/evaluate", bytes.NewReader(body))
	if err != nil {
		return model.Evaluation{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Evaluation{}, fmt.Errorf("call evaluation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Evaluation{}, fmt.Errorf("evaluation service returned %d", resp.StatusCode)
	}

	var eval model.Evaluation
	if err := json.NewDecoder(resp.Body).Decode(&eval); err != nil {
		return model.Evaluation{}, fmt.Errorf("decode response: %w", err)
	}

	if eval.OverallScore < 0 || eval.OverallScore > 100 {
		return model.Evaluation{}, fmt.Errorf("overall score %v out of range", eval.OverallScore)
	}

	return eval, nil
}

// Fallback is the fixed neutral evaluation used whenever the service
// cannot produce a real one.
func Fallback() model.Evaluation {
	return model.Evaluation{
		OverallScore: 70,
		Scores: map[string]float64{
			"content_quality": 70,
			"communication":   70,
			"depth":           70,
			"relevance":       70,
		},
		Strengths:    []string{"Clear communication", "Relevant examples"},
		Improvements: []string{"Add more specific details", "Structure your answer better"},
		Suggestions:  []string{"Practice the STAR method", "Prepare more concrete examples"},
	}
}
