package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/TobiSchelling/SignalTopics/internal/config"
	"github.com/TobiSchelling/SignalTopics/internal/logging"
)

// ErrModelUnavailable wraps any failure of an embedding backend.
var ErrModelUnavailable = errors.New("model unavailable")

// GenerateOptions bounds a single generation call.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

// Provider is the interface for LLM providers. Each Generate call is an
// independent single-message conversation.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	IsConfigured() bool
}

// Embedder is the interface for generating embeddings. The result is
// order-aligned with texts.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// checkEmbeddings verifies one vector per text and a uniform dimension.
func checkEmbeddings(texts []string, embeddings [][]float64) error {
	if len(embeddings) != len(texts) {
		return fmt.Errorf("%w: got %d embeddings for %d texts", ErrModelUnavailable, len(embeddings), len(texts))
	}
	for i, v := range embeddings {
		if len(v) == 0 {
			return fmt.Errorf("%w: empty embedding at index %d", ErrModelUnavailable, i)
		}
		if len(v) != len(embeddings[0]) {
			return fmt.Errorf("%w: embedding %d has dimension %d, expected %d", ErrModelUnavailable, i, len(v), len(embeddings[0]))
		}
	}
	return nil
}

// CreateProvider creates the generation provider named in the configuration.
// The provider is returned even when it does not answer a health check, so
// each interpretation falls back individually and logs why.
func CreateProvider(cfg config.Interpretation) Provider {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	var p Provider
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		p = NewOpenAIProvider(cfg.OpenAIModel, keyFromEnv(cfg.APIKeyEnv, "OPENAI_API_KEY"), timeout)
	case "anthropic":
		p = NewAnthropicProvider(cfg.AnthropicModel, keyFromEnv(cfg.APIKeyEnv, "ANTHROPIC_API_KEY"), timeout)
	default:
		p = NewOllamaProvider(cfg.Model, cfg.OllamaURL, timeout)
	}

	if p.IsConfigured() {
		logging.Info("Using generation provider", "provider", p.Name())
	} else {
		logging.Warn("Generation provider not reachable; interpretations will fall back", "provider", p.Name())
	}
	return p
}

// NewEmbedder creates the embedding backend named in the configuration.
func NewEmbedder(cfg config.Embedding) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		key := keyFromEnv(cfg.APIKeyEnv, "OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("%w: OpenAI API key not configured", ErrModelUnavailable)
		}
		return NewOpenAIEmbedder(cfg.OpenAIModel, key, 120*time.Second), nil
	case "ollama", "":
		return NewOllamaEmbedder(cfg.Model, cfg.OllamaURL), nil
	}
	return nil, fmt.Errorf("%w: unknown embedding provider %q", ErrModelUnavailable, cfg.Provider)
}

func keyFromEnv(name, fallback string) string {
	if name == "" {
		name = fallback
	}
	return os.Getenv(name)
}
