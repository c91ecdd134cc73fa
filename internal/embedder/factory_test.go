package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TECHDOC_EMBEDDING_PROVIDER", "")
	t.Setenv(EnvGeminiAPIKey, "")
	t.Setenv(EnvOpenAIAPIKey, "")
}

func TestNewFromEnvDefaultsToLocal(t *testing.T) {
	clearProviderEnv(t)

	e, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, e.Provider())
}

func TestNewFromEnvPrefersGeminiKey(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv(EnvGeminiAPIKey, "g-key")

	e, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, e.Provider())
}

func TestNewFromEnvExplicitProvider(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("TECHDOC_EMBEDDING_PROVIDER", "openai")
	t.Setenv(EnvOpenAIAPIKey, "sk-test")

	e, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, e.Provider())
}

func TestNewFromEnvUnknownProvider(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("TECHDOC_EMBEDDING_PROVIDER", "bogus")

	_, err := NewFromEnv()
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestNewExplicitConfig(t *testing.T) {
	e, err := New(Config{Provider: "local", CacheSize: 100})
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, e.Provider())
	assert.Equal(t, LocalDimension, e.Dimension())
}

func TestDetectProvider(t *testing.T) {
	clearProviderEnv(t)
	assert.Equal(t, ProviderLocal, DetectProvider())

	t.Setenv(EnvOpenAIAPIKey, "sk-test")
	assert.Equal(t, ProviderOpenAI, DetectProvider())

	t.Setenv(EnvGeminiAPIKey, "g-key")
	assert.Equal(t, ProviderGemini, DetectProvider())
}
