package openai

import (
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/docmind-ai/docmind/pkg/ai"
)

// GraphOpenAIClient talks to OpenAI-compatible endpoints for the chat and
// embedding calls the graph engine issues. Chat and embeddings may point at
// different endpoints and models.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	chatModel      string
	embeddingModel string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration for creating a new
// GraphOpenAIClient. Empty URLs fall back to the public OpenAI endpoint.
type NewGraphOpenAIClientParams struct {
	ChatModel      string
	EmbeddingModel string

	ChatURL      string
	ChatKey      string
	EmbeddingURL string
	EmbeddingKey string
}

// NewGraphOpenAIClient creates a client from the given parameters.
func NewGraphOpenAIClient(params NewGraphOpenAIClientParams) *GraphOpenAIClient {
	chatOpts := []option.RequestOption{}
	if params.ChatKey != "" {
		chatOpts = append(chatOpts, option.WithAPIKey(params.ChatKey))
	}
	if params.ChatURL != "" {
		chatOpts = append(chatOpts, option.WithBaseURL(params.ChatURL))
	}
	chatClient := openai.NewClient(chatOpts...)

	embedOpts := []option.RequestOption{}
	if params.EmbeddingKey != "" {
		embedOpts = append(embedOpts, option.WithAPIKey(params.EmbeddingKey))
	}
	if params.EmbeddingURL != "" {
		embedOpts = append(embedOpts, option.WithBaseURL(params.EmbeddingURL))
	}
	embeddingClient := openai.NewClient(embedOpts...)

	return &GraphOpenAIClient{
		chatModel:       params.ChatModel,
		embeddingModel:  params.EmbeddingModel,
		ChatClient:      &chatClient,
		EmbeddingClient: &embeddingClient,
	}
}

func (c *GraphOpenAIClient) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += delta.InputTokens
	c.metrics.OutputTokens += delta.OutputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
}

// ResetMetrics clears the accumulated token usage.
func (c *GraphOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns a snapshot of the accumulated token usage.
func (c *GraphOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}
