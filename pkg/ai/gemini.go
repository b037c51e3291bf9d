package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.5-flash"
	defaultGeminiTimeout = 30 * time.Second
)

// Gemini calls the Google AI Studio generateContent endpoint in JSON mode.
type Gemini struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewGemini builds a Gemini generator. Empty baseURL, model or timeout use
// the defaults.
func NewGemini(apiKey, baseURL, model string, timeout time.Duration) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: newHTTPClient(timeout, defaultGeminiTimeout),
	}, nil
}

// GenerateJSON sets responseMimeType to application/json.
func (g *Gemini) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: userPrompt}}}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			Temperature:      extractionTemperature,
		},
	}
	if strings.TrimSpace(systemPrompt) != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}
	// The key travels in a header so request URLs can be logged.
	header := http.Header{"X-Goog-Api-Key": {g.apiKey}}
	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)

	var resp geminiResponse
	if err := postJSON(ctx, g.httpClient, "gemini", url, header, reqBody, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		if reason := resp.PromptFeedback.BlockReason; reason != "" {
			return "", fmt.Errorf("gemini: %w: prompt blocked (%s)", ErrEmptyResponse, reason)
		}
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("gemini: %w (finish reason %s)", ErrEmptyResponse, resp.Candidates[0].FinishReason)
	}
	return text, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}
