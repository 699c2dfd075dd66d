package wiring

import (
	"github.com/docmind-ai/docmind/internal/util"
	"github.com/docmind-ai/docmind/pkg/ai"
	oai "github.com/docmind-ai/docmind/pkg/ai/ollama"
	gai "github.com/docmind-ai/docmind/pkg/ai/openai"
	"github.com/docmind-ai/docmind/pkg/logger"
)

// NewAIClientFromEnv builds the AI client selected by AI_ADAPTER, wrapped
// in a rate limiter when AI_RATE_LIMIT is set.
func NewAIClientFromEnv() ai.GraphAIClient {
	adapter := util.GetEnv("AI_ADAPTER")
	var client ai.GraphAIClient

	switch adapter {
	case "ollama":
		c, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			BaseURL:        util.GetEnv("AI_CHAT_URL"),
			APIKey:         util.GetEnv("AI_CHAT_KEY"),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		client = c
	default:
		client = gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatURL:        util.GetEnv("AI_CHAT_URL"),
			ChatKey:        util.GetEnv("AI_CHAT_KEY"),
			EmbeddingURL:   util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey:   util.GetEnv("AI_EMBED_KEY"),
		})
	}

	if rps := util.GetEnvFloat("AI_RATE_LIMIT", 0); rps > 0 {
		burst := util.GetEnvInt("AI_RATE_BURST", 1)
		client = ai.NewRateLimitedClient(client, rps, burst)
	}

	return client
}
