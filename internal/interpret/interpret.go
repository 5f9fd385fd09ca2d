// Package interpret asks a generative model to summarise a topic from its keywords.
package interpret

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/TobiSchelling/SignalTopics/internal/llm"
	"github.com/TobiSchelling/SignalTopics/internal/logging"
)

// Unavailable replaces an interpretation that could not be generated.
const Unavailable = "interpretation unavailable"

const (
	DefaultMaxTokens   = 100
	DefaultTemperature = 0.7
)

const interpretPrompt = "You are a helpful assistant. Interpret what people might be discussing if the keywords are: %s.\n" +
	"Summarize the discussion in one sentence. Be clear, concise, and insightful."

// Options bounds each generation call.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Interpreter turns topic keywords into a one-sentence interpretation.
// It is safe for concurrent use; calls to the provider are serialised.
type Interpreter struct {
	mu       sync.Mutex
	provider llm.Provider
	opts     Options
}

// New creates an interpreter around a long-lived provider.
func New(provider llm.Provider, opts Options) *Interpreter {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Temperature < 0 {
		opts.Temperature = DefaultTemperature
	}
	return &Interpreter{provider: provider, opts: opts}
}

// Prompt builds the prompt sent for a keyword list.
func Prompt(keywords []string) string {
	return fmt.Sprintf(interpretPrompt, strings.Join(keywords, ", "))
}

// Interpret returns the trimmed model response, or Unavailable when the
// provider fails, panics or returns nothing. Errors are logged, never returned.
func (i *Interpreter) Interpret(ctx context.Context, keywords []string) string {
	if i.provider == nil {
		logging.Warn("No generation provider available for interpretation")
		return Unavailable
	}

	text, err := i.generate(ctx, Prompt(keywords))
	if err != nil {
		logging.Warn("Interpretation failed", "provider", i.provider.Name(), "keywords", strings.Join(keywords, ","), "error", err)
		return Unavailable
	}

	text = strings.TrimSpace(text)
	if text == "" {
		logging.Warn("Empty interpretation", "provider", i.provider.Name())
		return Unavailable
	}
	return text
}

func (i *Interpreter) generate(ctx context.Context, prompt string) (text string, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	return i.provider.Generate(ctx, prompt, llm.GenerateOptions{
		MaxTokens:   i.opts.MaxTokens,
		Temperature: i.opts.Temperature,
	})
}
