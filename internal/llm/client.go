package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Turn is one exchange in a conversation history. Role is "user" or
// "model", alternating.
type Turn struct {
	Role    string
	Content string
}

// Schema describes the JSON shape the service must produce when a request
// asks for structured output. Mirrors the generateContent responseSchema
// format.
type Schema struct {
	Type       string             `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

// GenerateRequest holds the parameters for a generation call. When
// History is non-empty it is sent ahead of UserPrompt as alternating
// turns; when ResponseSchema is set the service is put in JSON mode.
type GenerateRequest struct {
	Task           TaskType
	SystemPrompt   string
	UserPrompt     string
	History        []Turn
	ResponseSchema *Schema
	Temperature    *float64 // nil uses task default
	MaxTokens      *int     // nil uses task default
}

// GenerateResponse holds the result of a generation call.
type GenerateResponse struct {
	Text      string
	Model     string
	LatencyMs int64
}

// Client provides access to the remote text-generation service.
type Client interface {
	// Generate sends a prompt and returns the raw text response. It owns
	// the retry/backoff policy: up to the configured attempts, doubling
	// the delay between each, bounded by the per-call context timeout.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// geminiClient implements Client against a generateContent-style HTTP API.
type geminiClient struct {
	cfg      Config
	http     *http.Client
	observer Observer
}

// NewClient creates a Client for the configured generation endpoint.
func NewClient(cfg Config, observer Observer) Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &geminiClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

type generatePayload struct {
	Contents          []contentPart     `json:"contents"`
	SystemInstruction *contentPart      `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type contentPart struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *Schema `json:"responseSchema,omitempty"`
}

type generateResult struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion"`
}

func (c *geminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	start := time.Now()

	timeoutMs := c.cfg.TaskTimeout(req.Task)
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	payload := c.buildPayload(req)

	attempts := c.cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := time.Duration(c.cfg.BackoffBaseMs) * time.Millisecond

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := sleepCtx(ctx, backoff); err != nil {
				break
			}
			backoff *= 2
		}

		text, model, err := c.doRequest(ctx, payload)
		if err == nil {
			latency := time.Since(start).Milliseconds()
			c.observer.OnCallComplete(CallEvent{
				Task:      req.Task,
				Model:     c.cfg.Model,
				LatencyMs: latency,
				Success:   true,
			})
			return &GenerateResponse{Text: text, Model: model, LatencyMs: latency}, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	latency := time.Since(start).Milliseconds()
	c.observer.OnCallComplete(CallEvent{
		Task:      req.Task,
		Model:     c.cfg.Model,
		LatencyMs: latency,
		Success:   false,
		ErrorCode: errorCode(lastErr, ctx.Err()),
	})

	if ctx.Err() != nil {
		return nil, ErrTimeout
	}
	if isConnectionError(lastErr) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
	}
	return nil, fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
}

func (c *geminiClient) buildPayload(req GenerateRequest) generatePayload {
	taskCfg := c.cfg.Tasks[req.Task]
	temp := taskCfg.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	maxTok := taskCfg.MaxTokens
	if req.MaxTokens != nil {
		maxTok = *req.MaxTokens
	}

	var contents []contentPart
	for _, turn := range req.History {
		contents = append(contents, contentPart{
			Role:  turn.Role,
			Parts: []part{{Text: turn.Content}},
		})
	}
	contents = append(contents, contentPart{
		Role:  "user",
		Parts: []part{{Text: req.UserPrompt}},
	})

	payload := generatePayload{
		Contents: contents,
		GenerationConfig: &generationConfig{
			Temperature:     temp,
			MaxOutputTokens: maxTok,
		},
	}
	if req.SystemPrompt != "" {
		payload.SystemInstruction = &contentPart{Parts: []part{{Text: req.SystemPrompt}}}
	}
	if req.ResponseSchema != nil {
		payload.GenerationConfig.ResponseMimeType = "application/json"
		payload.GenerationConfig.ResponseSchema = req.ResponseSchema
	}
	return payload
}

func (c *geminiClient) doRequest(ctx context.Context, payload generatePayload) (text, model string, err error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.cfg.Endpoint, c.cfg.Model, url.QueryEscape(c.cfg.APIKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return "", "", err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", "", fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		if httpResp.StatusCode == http.StatusForbidden {
			return "", "", fmt.Errorf("status 403: api key invalid or missing")
		}
		return "", "", fmt.Errorf("service returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var result generateResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", "", fmt.Errorf("decoding response: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", "", fmt.Errorf("%w: empty response", ErrInvalidOutput)
	}

	return result.Candidates[0].Content.Parts[0].Text, result.ModelVersion, nil
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(err error, ctxErr error) string {
	switch {
	case ctxErr != nil:
		return "TIMEOUT"
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidOutput):
		return "INVALID_OUTPUT"
	case isConnectionError(err):
		return "UNAVAILABLE"
	default:
		return "UNKNOWN"
	}
}
