package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAITimeout = 120 * time.Second
)

// OpenAICompat calls any OpenAI-compatible /chat/completions endpoint
// (OpenAI, vLLM, LiteLLM, OpenRouter, ...). baseURL includes the /v1 prefix;
// apiKey may be empty for local models.
type OpenAICompat struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewOpenAICompat(baseURL, apiKey, model string, timeout time.Duration) (*OpenAICompat, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, fmt.Errorf("openai-compat model required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAICompat{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(apiKey),
		model:      model,
		httpClient: newHTTPClient(timeout, defaultOpenAITimeout),
	}, nil
}

// GenerateJSON requests response_format json_object.
func (g *OpenAICompat) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := make([]oaiMessage, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, oaiMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, oaiMessage{Role: "user", Content: userPrompt})
	reqBody := oaiChatRequest{
		Model:          g.model,
		Messages:       messages,
		ResponseFormat: oaiResponseFormat{Type: "json_object"},
		Temperature:    extractionTemperature,
	}
	header := http.Header{}
	if g.apiKey != "" {
		header.Set("Authorization", "Bearer "+g.apiKey)
	}

	var resp oaiChatResponse
	if err := postJSON(ctx, g.httpClient, "openai-compat", g.baseURL+"/chat/completions", header, reqBody, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai-compat: %w", ErrEmptyResponse)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai-compat: %w (finish reason %s)", ErrEmptyResponse, resp.Choices[0].FinishReason)
	}
	return text, nil
}

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiResponseFormat struct {
	Type string `json:"type"`
}

type oaiChatRequest struct {
	Model          string            `json:"model"`
	Messages       []oaiMessage      `json:"messages"`
	ResponseFormat oaiResponseFormat `json:"response_format"`
	Temperature    float64           `json:"temperature"`
}

type oaiChatResponse struct {
	Choices []struct {
		Message      oaiMessage `json:"message"`
		FinishReason string     `json:"finish_reason"`
	} `json:"choices"`
}
