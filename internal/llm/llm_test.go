package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openai/openai-go/option"

	"github.com/TobiSchelling/SignalTopics/internal/config"
)

func TestOllamaGenerateSendsSingleMessage(t *testing.T) {
	var got struct {
		Model    string              `json:"model"`
		Messages []map[string]string `json:"messages"`
		Stream   bool                `json:"stream"`
		Options  map[string]float64  `json:"options"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write([]byte(`{"message": {"role": "assistant", "content": "People discuss cloud security."}}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider("orca-mini:3b", srv.URL+"/", 5*time.Second)
	text, err := p.Generate(context.Background(), "hello", GenerateOptions{MaxTokens: 100, Temperature: 0.7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "People discuss cloud security." {
		t.Errorf("unexpected reply %q", text)
	}
	if got.Model != "orca-mini:3b" || got.Stream {
		t.Errorf("unexpected request: %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0]["role"] != "user" || got.Messages[0]["content"] != "hello" {
		t.Errorf("expected one user message, got %v", got.Messages)
	}
	if got.Options["num_predict"] != 100 || got.Options["temperature"] != 0.7 {
		t.Errorf("unexpected options %v", got.Options)
	}
}

func TestOllamaGenerateErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOllamaProvider("orca-mini:3b", srv.URL, 5*time.Second)
	if _, err := p.Generate(context.Background(), "hello", GenerateOptions{MaxTokens: 10}); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestOllamaIsConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models": [{"name": "orca-mini:3b"}, {"name": "all-minilm:latest"}]}`))
	}))
	defer srv.Close()

	if !NewOllamaProvider("orca-mini:3b", srv.URL, time.Second).IsConfigured() {
		t.Error("expected orca-mini to be configured")
	}
	if NewOllamaProvider("llama3", srv.URL, time.Second).IsConfigured() {
		t.Error("expected llama3 to be missing")
	}
}

func TestOllamaEmbedBatch(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req struct {
			Input []string `json:"input"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Input) != 2 {
			t.Errorf("expected 2 inputs in one batch, got %d", len(req.Input))
		}
		w.Write([]byte(`{"embeddings": [[1, 0, 0], [0, 1, 0]]}`))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("all-minilm", srv.URL)
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 request, got %d", calls)
	}
	if len(vecs) != 2 || vecs[1][1] != 1 {
		t.Errorf("unexpected vectors %v", vecs)
	}
}

func TestOllamaEmbedEmptyInputSkipsRequest(t *testing.T) {
	e := NewOllamaEmbedder("all-minilm", "http://127.0.0.1:1")
	vecs, err := e.Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Errorf("expected nil result, got %v, %v", vecs, err)
	}
}

func TestOllamaEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings": [[1, 0]]}`))
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder("all-minilm", srv.URL).Embed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestOllamaEmbedUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewOllamaEmbedder("all-minilm", url).Embed(context.Background(), []string{"a"})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestCheckEmbeddingsDimensionMismatch(t *testing.T) {
	err := checkEmbeddings([]string{"a", "b"}, [][]float64{{1, 0}, {1, 0, 0}})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 0,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Funding news."}}]
		}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("gpt-4o-mini", "test-key", 5*time.Second, option.WithBaseURL(srv.URL+"/"))
	text, err := p.Generate(context.Background(), "hello", GenerateOptions{MaxTokens: 50, Temperature: 0.2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Funding news." {
		t.Errorf("unexpected reply %q", text)
	}
}

func TestNewEmbedderRejectsUnknownProvider(t *testing.T) {
	_, err := NewEmbedder(config.Embedding{Provider: "word2vec"})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestNewEmbedderOpenAIRequiresKey(t *testing.T) {
	t.Setenv("SIGNALTOPICS_TEST_KEY", "")
	_, err := NewEmbedder(config.Embedding{Provider: "openai", APIKeyEnv: "SIGNALTOPICS_TEST_KEY"})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestCreateProviderSelectsBackend(t *testing.T) {
	t.Setenv("SIGNALTOPICS_TEST_KEY", "k")
	p := CreateProvider(config.Interpretation{Provider: "anthropic", AnthropicModel: "claude-haiku-4-5", APIKeyEnv: "SIGNALTOPICS_TEST_KEY"})
	if p.Name() != "anthropic:claude-haiku-4-5" {
		t.Errorf("unexpected provider %s", p.Name())
	}
	if !p.IsConfigured() {
		t.Error("expected anthropic provider with key to be configured")
	}
}
