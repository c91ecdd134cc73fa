package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoProvider is returned when no generation backend is configured.
var ErrNoProvider = errors.New("no llm provider configured")

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator produces documentation text from a prompt conversation.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
	Model() string
}

// Config selects and configures a generation backend.
type Config struct {
	Provider  string // gemini or ollama
	APIKey    string
	Model     string
	OllamaURL string
}

// New creates a Generator from explicit configuration.
func New(cfg Config) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		return NewGeminiChat(cfg.APIKey, cfg.Model)
	case "ollama":
		url := cfg.OllamaURL
		if url == "" {
			url = "http://localhost:11434"
		}
		model := cfg.Model
		if model == "" {
			model = "llama3.2"
		}
		return NewOllamaChat(url, model), nil
	case "":
		return NewFromEnv()
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrNoProvider, cfg.Provider)
	}
}

// NewFromEnv picks a backend from the environment: Gemini when
// GEMINI_API_KEY is set, otherwise a local Ollama instance.
func NewFromEnv() (Generator, error) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return NewGeminiChat(key, "")
	}
	return NewOllamaChat("http://localhost:11434", "llama3.2"), nil
}
