package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOllamaBaseURL = "http://127.0.0.1:11434"
	defaultOllamaTimeout = 60 * time.Second
)

// Ollama calls a local Ollama /api/chat endpoint with format=json.
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOllama(baseURL, model string, timeout time.Duration) (*Ollama, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, fmt.Errorf("ollama model required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &Ollama{
		baseURL:    baseURL,
		model:      model,
		httpClient: newHTTPClient(timeout, defaultOllamaTimeout),
	}, nil
}

func (g *Ollama) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := make([]ollamaMessage, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: userPrompt})
	reqBody := ollamaChatRequest{
		Model:    g.model,
		Messages: messages,
		Format:   "json",
		Options:  ollamaOptions{Temperature: extractionTemperature},
	}

	var resp ollamaChatResponse
	if err := postJSON(ctx, g.httpClient, "ollama", g.baseURL+"/api/chat", nil, reqBody, &resp); err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Message.Content)
	if text == "" {
		return "", fmt.Errorf("ollama: %w", ErrEmptyResponse)
	}
	return text, nil
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
}
