package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGeminiGenerateJSON(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-test:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Goog-Api-Key") != "k" {
			t.Errorf("api key header not set")
		}
		if r.URL.RawQuery != "" {
			t.Errorf("api key must not travel in the query: %s", r.URL.RawQuery)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"ok\":"},{"text":"true}"}]}}]}`))
	}))
	defer srv.Close()

	gen, err := NewGemini("k", srv.URL+"/", "models/gemini-test", 0)
	if err != nil {
		t.Fatalf("new gemini: %v", err)
	}
	out, err := gen.GenerateJSON(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("generate json: %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("output = %q", out)
	}
	if got.GenerationConfig.ResponseMimeType != "application/json" || got.GenerationConfig.Temperature != 0 {
		t.Fatalf("generation config = %+v", got.GenerationConfig)
	}
	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "sys" {
		t.Fatalf("system instruction missing")
	}
}

func TestGeminiEmptyResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "no candidates", body: `{"candidates":[]}`},
		{name: "blocked prompt", body: `{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`, want: "SAFETY"},
		{name: "empty parts", body: `{"candidates":[{"content":{"parts":[]},"finishReason":"MAX_TOKENS"}]}`, want: "MAX_TOKENS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			gen, _ := NewGemini("k", srv.URL, "m", 0)
			_, err := gen.GenerateJSON(context.Background(), "", "u")
			if !errors.Is(err, ErrEmptyResponse) {
				t.Fatalf("err = %v, want ErrEmptyResponse", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestProviderAPIErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		provider string
		message  string
	}{
		{
			name:     "gemini nested message",
			body:     `{"error":{"message":"quota exceeded"}}`,
			status:   http.StatusTooManyRequests,
			provider: "gemini",
			message:  "quota exceeded",
		},
		{
			name:     "openai nested message",
			body:     `{"error":{"message":"invalid api key","type":"auth"}}`,
			status:   http.StatusUnauthorized,
			provider: "openai-compat",
			message:  "invalid api key",
		},
		{
			name:     "ollama string error",
			body:     `{"error":"model not found"}`,
			status:   http.StatusNotFound,
			provider: "ollama",
			message:  "model not found",
		},
		{
			name:     "no body",
			status:   http.StatusBadGateway,
			provider: "ollama",
			message:  "502 Bad Gateway",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestGenerator(t, tt.provider, srv.URL).GenerateJSON(context.Background(), "", "u")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *APIError", err)
			}
			if apiErr.Provider != tt.provider || apiErr.StatusCode != tt.status || apiErr.Message != tt.message {
				t.Fatalf("api error = %+v", apiErr)
			}
		})
	}
}

func newTestGenerator(t *testing.T, provider, url string) JSONGenerator {
	t.Helper()
	gen, err := NewGenerator(ProviderConfig{Provider: provider, APIKey: "k", BaseURL: url, Model: "m"})
	if err != nil || gen == nil {
		t.Fatalf("new %s generator: %v", provider, err)
	}
	return gen
}

func TestOpenAICompatGenerateJSON(t *testing.T) {
	var got oaiChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("authorization header = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" {\"a\":1} "}}]}`))
	}))
	defer srv.Close()

	gen, err := NewOpenAICompat(srv.URL+"/v1/", "secret", "gpt-test", 0)
	if err != nil {
		t.Fatalf("new openai-compat: %v", err)
	}
	out, err := gen.GenerateJSON(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("generate json: %v", err)
	}
	if out != `{"a":1}` {
		t.Fatalf("output = %q", out)
	}
	if got.ResponseFormat.Type != "json_object" {
		t.Fatalf("response_format not set")
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", got.Messages)
	}
}

func TestOpenAICompatWithoutKeyOmitsAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Header.Get("Authorization"); v != "" {
			t.Errorf("authorization header = %q", v)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{}"}}]}`))
	}))
	defer srv.Close()

	gen, _ := NewOpenAICompat(srv.URL, "", "m", 0)
	if _, err := gen.GenerateJSON(context.Background(), "", "u"); err != nil {
		t.Fatalf("generate json: %v", err)
	}
}

func TestOllamaGenerateJSON(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"{}"}}`))
	}))
	defer srv.Close()

	gen, err := NewOllama(srv.URL, "llama3", 0)
	if err != nil {
		t.Fatalf("new ollama: %v", err)
	}
	out, err := gen.GenerateJSON(context.Background(), "", "u")
	if err != nil {
		t.Fatalf("generate json: %v", err)
	}
	if out != "{}" || got.Format != "json" || got.Stream {
		t.Fatalf("out=%q format=%q stream=%v", out, got.Format, got.Stream)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("empty system prompt should be skipped: %+v", got.Messages)
	}
}

func TestProviderTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	gen, _ := NewOllama(srv.URL, "m", 50*time.Millisecond)
	if _, err := gen.GenerateJSON(context.Background(), "", "u"); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProviderConfig
		wantNil bool
		wantErr bool
	}{
		{name: "gemini without key", cfg: ProviderConfig{Provider: "gemini"}, wantNil: true},
		{name: "default provider with key", cfg: ProviderConfig{APIKey: "k"}},
		{name: "openai without key", cfg: ProviderConfig{Provider: "openai", Model: "gpt"}, wantNil: true},
		{name: "openai needs model", cfg: ProviderConfig{Provider: "openai", APIKey: "k"}, wantErr: true},
		{name: "openai-compat local", cfg: ProviderConfig{Provider: "openai-compat", BaseURL: "http://localhost:8000/v1", Model: "m"}},
		{name: "ollama needs model", cfg: ProviderConfig{Provider: "ollama"}, wantErr: true},
		{name: "unknown", cfg: ProviderConfig{Provider: "bard", APIKey: "k"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewGenerator(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if gen != nil {
					t.Fatalf("gen must be nil on error, got %T", gen)
				}
				return
			}
			if (gen == nil) != tt.wantNil {
				t.Fatalf("gen = %v, wantNil %v", gen, tt.wantNil)
			}
		})
	}
}
