package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"mailtriage/pkg/circuitbreaker"
	"mailtriage/pkg/metrics"
	"mailtriage/pkg/trace"
)

const (
	backendHTTP = "http"

	// DefaultModel is the distilled BART checkpoint fine-tuned on CNN/DailyMail.
	DefaultModel   = "sshleifer/distilbart-cnn-12-6"
	DefaultBaseURL = "https://api-inference.huggingface.co"
)

// HTTPConfig configures an HTTPSummarizer.
type HTTPConfig struct {
	BaseURL  string
	Model    string
	APIToken string
	Lengths  Lengths
	Timeout  time.Duration
}

// HTTPSummarizer calls a HuggingFace-compatible summarization inference endpoint.
type HTTPSummarizer struct {
	endpoint   string
	apiToken   string
	lengths    Lengths
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
}

func NewHTTPSummarizer(cfg HTTPConfig, logger *zap.Logger) *HTTPSummarizer {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cbConfig := circuitbreaker.Config{
		FailureThreshold:    3,
		SuccessThreshold:    1,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 1,
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Warn("Summarizer circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &HTTPSummarizer{
		endpoint:   strings.TrimRight(baseURL, "/") + "/models/" + model,
		apiToken:   cfg.APIToken,
		lengths:    cfg.Lengths.withDefaults(),
		httpClient: &http.Client{Timeout: timeout},
		cb:         circuitbreaker.New(cbConfig),
	}
}

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	MinLength int  `json:"min_length"`
	MaxLength int  `json:"max_length"`
	DoSample  bool `json:"do_sample"`
}

type inferenceResult struct {
	SummaryText string `json:"summary_text"`
}

type inferenceError struct {
	Error string `json:"error"`
}

// Summarize implements Summarizer.
func (s *HTTPSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	input, err := prepareInput(text)
	if err != nil {
		return "", err
	}

	var summary string
	err = s.cb.Execute(func() error {
		var callErr error
		summary, callErr = s.call(ctx, input)
		return callErr
	})
	if err != nil {
		return "", modelError(backendHTTP, err)
	}
	return summary, nil
}

func (s *HTTPSummarizer) call(ctx context.Context, input string) (string, error) {
	body, err := json.Marshal(inferenceRequest{
		Inputs: input,
		Parameters: inferenceParameters{
			MinLength: s.lengths.Min,
			MaxLength: s.lengths.Max,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiToken)
	}
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName, traceID)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		metrics.RecordModelCallLatency(backendHTTP, "error", time.Since(start))
		return "", err
	}
	defer resp.Body.Close()
	metrics.RecordModelCallLatency(backendHTTP, fmt.Sprintf("%d", resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr inferenceError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("model endpoint returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("model endpoint returned %d", resp.StatusCode)
	}

	var results []inferenceResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("model returned no summaries")
	}
	return strings.TrimSpace(results[0].SummaryText), nil
}
