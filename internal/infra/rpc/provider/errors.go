package provider

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"
)

// maxErrorBody caps how much of a failed response is kept on the error.
const maxErrorBody = 200

// StatusError is returned when a response arrives with a non-2xx status code.
type StatusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d", e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// NewStatusError builds a StatusError from a response status, body and headers.
func NewStatusError(code int, body []byte, header http.Header) *StatusError {
	text := string(body)
	if len(text) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	return &StatusError{
		Code:       code,
		Body:       text,
		RetryAfter: parseRetryAfter(header.Get("Retry-After")),
	}
}

// DecodeError is returned when a response body cannot be decoded.
type DecodeError struct {
	Target string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response from %s: %v", e.Target, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ProviderError is the error envelope returned by generative-AI providers,
// e.g. {"error":{"code":429,"message":"...","status":"RESOURCE_EXHAUSTED"}}.
type ProviderError struct {
	HTTPStatus int
	Status     string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("provider error (http %d): %s", e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("provider error (http %d, %s): %s", e.HTTPStatus, e.Status, e.Message)
}

// parseRetryAfter accepts the delay-seconds form of Retry-After.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
