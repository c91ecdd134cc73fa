package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)

		_ = json.NewEncoder(w).Encode(chatResponse{
			Message: Message{Role: "assistant", Content: "generated docs"},
		})
	}))
	defer srv.Close()

	c := NewOllamaChat(srv.URL, "test-model")
	out, err := c.Generate(context.Background(), []Message{{Role: "user", Content: "write a readme"}})
	require.NoError(t, err)
	assert.Equal(t, "generated docs", out)
}

func TestOllamaGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllamaChat(srv.URL, "missing")
	_, err := c.Generate(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.ErrorContains(t, err, "404")
}

func TestGeminiGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// System message becomes the system instruction, not a content turn.
		require.NotNil(t, req.SystemInstruction)
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]string{{"text": "# README"}},
				}},
			},
		})
	}))
	defer srv.Close()

	g, err := NewGeminiChat("test-key", "")
	require.NoError(t, err)
	g.baseURL = srv.URL

	out, err := g.Generate(context.Background(), []Message{
		{Role: "system", Content: "you are a doc writer"},
		{Role: "user", Content: "write a readme"},
	})
	require.NoError(t, err)
	assert.Equal(t, "# README", out)
}

func TestGeminiRequiresKey(t *testing.T) {
	_, err := NewGeminiChat("", "")
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestGeminiNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer srv.Close()

	g, err := NewGeminiChat("test-key", "")
	require.NoError(t, err)
	g.baseURL = srv.URL

	_, err = g.Generate(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.ErrorContains(t, err, "no candidates")
}

func TestNewConfigSelection(t *testing.T) {
	g, err := New(Config{Provider: "ollama", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "m", g.Model())

	_, err = New(Config{Provider: "gemini"})
	assert.Error(t, err) // no key

	_, err = New(Config{Provider: "bogus"})
	assert.ErrorIs(t, err, ErrNoProvider)
}
