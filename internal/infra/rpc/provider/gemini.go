package provider

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

	"github.com/tidwall/gjson"

	"github.com/vietddude/relay/internal/infra/credential"
)

// DefaultGeminiEndpoint is the public generative language API root.
const DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// GeminiTransport implements Transport for the generateContent endpoint.
// spec.Target is the model name and spec.Body the prompt string or a full request body.
// The token passed to Invoke is the API key; it is sent as a header and never
// appears in the URL.
type GeminiTransport struct {
	endpoint   string
	httpClient *http.Client
}

// NewGeminiTransport creates a transport for the given endpoint.
func NewGeminiTransport(endpoint string) *GeminiTransport {
	if endpoint == "" {
		endpoint = DefaultGeminiEndpoint
	}
	return &GeminiTransport{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Invoke sends one generateContent request and returns the first candidate's text.
func (t *GeminiTransport) Invoke(ctx context.Context, spec RequestSpec, apiKey string) (Payload, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key: %w", credential.ErrNoCredential)
	}

	reqBody, err := buildGeminiBody(spec.Body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", t.endpoint, url.PathEscape(spec.Target))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseGeminiError(resp.StatusCode, body)
	}

	if !gjson.ValidBytes(body) {
		return nil, &DecodeError{Target: spec.Target, Err: errors.New("invalid json")}
	}
	text := gjson.GetBytes(body, "candidates.0.content.parts.0.text")
	if !text.Exists() {
		reason := gjson.GetBytes(body, "promptFeedback.blockReason").String()
		if reason == "" {
			reason = "no candidates"
		}
		return nil, &DecodeError{Target: spec.Target, Err: errors.New(reason)}
	}

	return Payload(text.String()), nil
}

func buildGeminiBody(body any) ([]byte, error) {
	prompt, ok := body.(string)
	if !ok {
		return json.Marshal(body)
	}
	return json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": prompt}}},
		},
	})
}

func parseGeminiError(status int, body []byte) error {
	if !gjson.ValidBytes(body) {
		return NewStatusError(status, body, http.Header{})
	}
	env := gjson.GetBytes(body, "error")
	if !env.Exists() {
		return NewStatusError(status, body, http.Header{})
	}
	return &ProviderError{
		HTTPStatus: status,
		Status:     env.Get("status").String(),
		Message:    env.Get("message").String(),
	}
}
