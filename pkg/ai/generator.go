// Package ai holds the LLM provider clients behind the extraction pipeline.
// Every provider is asked for JSON only.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrEmptyResponse is returned when a provider answers without content.
var ErrEmptyResponse = errors.New("empty response from llm")

// JSONGenerator asks the provider for a JSON-only answer. The returned text
// is not validated beyond what the provider itself guarantees.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// APIError is a non-2xx answer from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// Extraction answers should not vary between re-analyses of the same text.
const extractionTemperature = 0.0

const maxErrorBody = 64 << 10

func newHTTPClient(timeout, fallback time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = fallback
	}
	return &http.Client{Timeout: timeout}
}

func postJSON(ctx context.Context, client *http.Client, provider, url string, header http.Header, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := providerMessage(raw)
		if msg == "" {
			msg = resp.Status
		}
		return &APIError{Provider: provider, StatusCode: resp.StatusCode, Message: msg}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w", provider, err)
	}
	return nil
}

// providerMessage reads {"error":{"message":...}} (Gemini, OpenAI) or
// {"error":"..."} (Ollama).
func providerMessage(raw []byte) string {
	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Error) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(body.Error, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body.Error, &obj); err == nil {
		return obj.Message
	}
	return ""
}
