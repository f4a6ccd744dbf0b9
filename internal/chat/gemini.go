package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrUpstreamUnavailable = errors.New("generative service unavailable")

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// APIError is a non-2xx answer from the generative service.
type APIError struct {
	StatusCode int
	Status     string
	Reason     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini: %d %s: %s", e.StatusCode, e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return ErrUpstreamUnavailable }

// IsInvalidKey reports whether err is the service rejecting the API key.
func IsInvalidKey(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Reason == "API_KEY_INVALID" {
		return true
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "api key not valid") ||
		(strings.Contains(msg, "invalid") && strings.Contains(msg, "api"))
}

type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	hc      *http.Client
}

// NewGeminiClient talks to the generateContent REST endpoint under baseURL.
// A nil hc gets a client with a 30 second timeout.
func NewGeminiClient(apiKey, model, baseURL string, hc *http.Client) *GeminiClient {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      hc,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	Contents       []content       `json:"contents"`
	SafetySettings []safetySetting `json:"safetySettings"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Reason string `json:"reason"`
		} `json:"details"`
	} `json:"error"`
}

var harmCategories = []string{
	"HARM_CATEGORY_DANGEROUS_CONTENT",
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
}

// Generate returns the text of the first candidate, or "" when the service
// answered without one.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	body := generateRequest{Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}}}
	for _, c := range harmCategories {
		body.SafetySettings = append(body.SafetySettings, safetySetting{Category: c, Threshold: "BLOCK_ONLY_HIGH"})
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("error encoding request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
		var er errorResponse
		if raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil && json.Unmarshal(raw, &er) == nil {
			apiErr.Message = er.Error.Message
			if er.Error.Status != "" {
				apiErr.Status = er.Error.Status
			}
			for _, d := range er.Error.Details {
				if d.Reason != "" {
					apiErr.Reason = d.Reason
					break
				}
			}
		}
		return "", apiErr
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: error decoding response: %w", ErrUpstreamUnavailable, err)
	}
	if len(out.Candidates) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
