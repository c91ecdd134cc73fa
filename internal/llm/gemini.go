package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultGeminiModel   = "gemini-1.5-flash"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// GeminiChat calls the Gemini generateContent API.
type GeminiChat struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGeminiChat creates a chat client for the Gemini API.
func NewGeminiChat(apiKey, model string) (*GeminiChat, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY not set", ErrNoProvider)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiChat{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultGeminiBaseURL,
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate sends a conversation to Gemini and returns the first candidate.
// Messages with role "system" become the system instruction; "assistant"
// maps to Gemini's "model" role.
func (g *GeminiChat) Generate(ctx context.Context, messages []Message) (string, error) {
	var req geminiRequest
	for _, m := range messages {
		switch m.Role {
		case "system":
			req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
		case "assistant":
			req.Contents = append(req.Contents, geminiContent{
				Role: "model", Parts: []geminiPart{{Text: m.Content}},
			})
		default:
			req.Contents = append(req.Contents, geminiContent{
				Role: "user", Parts: []geminiPart{{Text: m.Content}},
			})
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini chat request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gemini chat returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// Model returns the configured model name.
func (g *GeminiChat) Model() string {
	return g.model
}
