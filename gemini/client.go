// Package gemini requests a market sentiment analysis from Google's Gemini
// models using structured output and the Google Search tool.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sentix/apperror"
	"sentix/credential"
	"sentix/logging"
	"sentix/models"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-3-flash-preview"

	maxResponseBytes = 8 << 20
)

// Client issues one generateContent call per FetchAnalysis. It never retries
// and keeps no cache.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewClient creates a client. Empty arguments fall back to the defaults.
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 120 * time.Second // search-grounded answers are slow
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	ResponseSchema   *Schema `json:"responseSchema"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	Tools            []tool           `json:"tools,omitempty"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	ModelVersion string `json:"modelVersion"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func newRequest() generateRequest {
	return generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: Prompt}}}},
		Tools:    []tool{{GoogleSearch: &struct{}{}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   AnalysisSchema(),
		},
	}
}

// FetchAnalysis asks the model for the current rankings. Errors are
// *apperror.Error of kind TransportError, EmptyResponse or SchemaViolation.
func (c *Client) FetchAnalysis(ctx context.Context, cred credential.Credential) (*models.MarketAnalysis, error) {
	const op = "generateContent"

	jsonBody, err := json.Marshal(newRequest())
	if err != nil {
		return nil, apperror.Wrap(apperror.KindTransport, op, fmt.Errorf("failed to marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, apperror.Wrap(apperror.KindTransport, op, fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", cred.Reveal())

	logging.Debug("Gemini API request starting", "model", c.model, "key", cred)
	start := time.Now()

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindTransport, op, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperror.Wrap(apperror.KindTransport, op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := providerMessage(respBody, resp.Status)
		msg = strings.ReplaceAll(msg, cred.Reveal(), cred.String())
		logging.Error("Gemini API error", "status", resp.StatusCode, "message", msg)
		return nil, &apperror.Error{Kind: apperror.KindTransport, Op: op, Status: resp.StatusCode, Msg: msg}
	}

	var result generateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, apperror.Wrap(apperror.KindSchemaViolation, op, fmt.Errorf("failed to parse response envelope: %w", err))
	}

	text, finishReason := result.text()
	logging.Info("Gemini API response",
		"model", firstNonEmpty(result.ModelVersion, c.model),
		"content_length", len(text),
		"finish_reason", finishReason,
		"elapsed", time.Since(start).Round(time.Millisecond))

	if strings.TrimSpace(text) == "" {
		msg := "no data returned from model"
		if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
			msg = "prompt blocked: " + result.PromptFeedback.BlockReason
		} else if finishReason != "" {
			msg += " (finish reason " + finishReason + ")"
		}
		return nil, apperror.New(apperror.KindEmptyResponse, op, msg)
	}

	if finishReason == "MAX_TOKENS" {
		logging.Warn("Gemini response truncated due to max tokens", "model", c.model, "content_length", len(text))
	}

	analysis, err := DecodeAnalysis(text)
	if err != nil {
		logging.Error("Failed to decode analysis", "error", err, "content_length", len(text))
		return nil, err
	}
	return analysis, nil
}

// text concatenates the text parts of the first candidate.
func (r generateResponse) text() (string, string) {
	if len(r.Candidates) == 0 {
		return "", ""
	}
	cand := r.Candidates[0]
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), cand.FinishReason
}

func providerMessage(body []byte, status string) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		if e.Error.Status != "" {
			return e.Error.Status + ": " + e.Error.Message
		}
		return e.Error.Message
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		if len(s) > 300 {
			s = s[:300] + "..."
		}
		return s
	}
	return status
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
