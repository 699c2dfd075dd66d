package ai

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedClient wraps a GraphAIClient and gates every outbound call
// through a shared token-bucket limiter. Use it when many concurrent build
// or query requests share one provider account.
type RateLimitedClient struct {
	inner   GraphAIClient
	limiter *rate.Limiter
}

// NewRateLimitedClient wraps client so that at most rps requests per second
// are issued, with the given burst size.
func NewRateLimitedClient(client GraphAIClient, rps float64, burst int) *RateLimitedClient {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedClient{
		inner:   client,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (c *RateLimitedClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...GenerateOption,
) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return c.inner.GenerateCompletion(ctx, prompt, opts...)
}

func (c *RateLimitedClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...GenerateOption,
) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.inner.GenerateCompletionWithFormat(ctx, name, description, prompt, out, opts...)
}

func (c *RateLimitedClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.GenerateEmbedding(ctx, input)
}

func (c *RateLimitedClient) ResetMetrics() {
	c.inner.ResetMetrics()
}

func (c *RateLimitedClient) GetMetrics() ModelMetrics {
	return c.inner.GetMetrics()
}
