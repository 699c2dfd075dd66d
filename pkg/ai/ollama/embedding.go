package ollama

import (
	"context"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/docmind-ai/docmind/internal/util"
	"github.com/docmind-ai/docmind/pkg/ai"
)

const defaultDimensions = 1024

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model on Ollama. Empty input yields a zero
// vector of the configured dimension.
func (c *GraphOllamaClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	dim := util.GetEnvInt("AI_EMBED_DIM", defaultDimensions)
	if strings.TrimSpace(string(input)) == "" {
		return make([]float32, dim), nil
	}

	res, err := c.Client.Embed(ctx, &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: string(input),
	})
	if err != nil {
		return nil, err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens: res.PromptEvalCount,
		TotalTokens: res.PromptEvalCount,
		DurationMs:  res.TotalDuration.Milliseconds(),
	})

	if len(res.Embeddings) == 0 {
		return make([]float32, dim), nil
	}
	return res.Embeddings[0], nil
}
