package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider is an OpenAI chat completion provider.
type OpenAIProvider struct {
	Model  string
	apiKey string
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(model, apiKey string, timeout time.Duration, opts ...option.RequestOption) *OpenAIProvider {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(newHTTPClient(timeout)),
	}, opts...)
	client := openai.NewClient(opts...)
	return &OpenAIProvider{Model: model, apiKey: apiKey, client: &client}
}

func (o *OpenAIProvider) Name() string       { return "openai:" + o.Model }
func (o *OpenAIProvider) IsConfigured() bool { return o.apiKey != "" }

// Generate sends a single user message and returns the first choice.
func (o *OpenAIProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(int64(opts.MaxTokens)),
		Temperature: openai.Float(opts.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}

// OpenAIEmbedder generates embeddings with the OpenAI embeddings API.
type OpenAIEmbedder struct {
	Model  string
	client *openai.Client
}

// NewOpenAIEmbedder creates a new OpenAI embedder.
func NewOpenAIEmbedder(model, apiKey string, timeout time.Duration, opts ...option.RequestOption) *OpenAIEmbedder {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(newHTTPClient(timeout)),
	}, opts...)
	client := openai.NewClient(opts...)
	return &OpenAIEmbedder{Model: model, client: &client}
}

// Embed generates embeddings for all texts in one request.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(e.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai embeddings: %v", ErrModelUnavailable, err)
	}

	embeddings := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ErrModelUnavailable, d.Index)
		}
		embeddings[d.Index] = d.Embedding
	}

	if err := checkEmbeddings(texts, embeddings); err != nil {
		return nil, err
	}
	return embeddings, nil
}
