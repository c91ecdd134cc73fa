// Package llm provides chat-completion clients for documentation
// generation. Gemini is the default remote backend; Ollama serves as the
// local fallback when no API key is configured.
package llm
