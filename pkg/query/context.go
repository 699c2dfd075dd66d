package query

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/errgroup"

	"github.com/docmind-ai/docmind/pkg/ai"
	"github.com/docmind-ai/docmind/pkg/common"
	"github.com/docmind-ai/docmind/pkg/logger"
)

const (
	defaultContextTokenBudget = 8000
	parallelAugmentations     = 8
	maxPathsInContext         = 5
)

// generate assembles the generation context from the ranked chunks and the
// optional explanation paths, asks the model for an answer, and packages
// the response with citations. Usage is attributed by the caller.
func (c *Client) generate(
	ctx context.Context,
	params QueryParams,
	ranked []common.ChunkResult,
	paths []renderedPath,
) (*QueryResponse, error) {
	augmented := c.augmentChunks(ctx, ranked)
	contextText, used := c.buildContext(augmented, ranked, paths)

	opts := []ai.GenerateOption{
		ai.WithSystemPrompts(fmt.Sprintf(ai.QueryPrompt, contextText)),
	}
	if params.MaxTokens > 0 {
		opts = append(opts, ai.WithMaxTokens(params.MaxTokens))
	}
	if params.Temperature > 0 {
		opts = append(opts, ai.WithTemperature(params.Temperature))
	}

	completion, err := c.aiClient.GenerateCompletion(ctx, params.Query, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	resp := &QueryResponse{
		Completion: completion,
		Citations:  make([]ChunkCitation, 0, used),
	}
	for _, chunk := range ranked[:used] {
		resp.Citations = append(resp.Citations, ChunkCitation{
			DocumentID:  chunk.DocumentID,
			ChunkNumber: chunk.ChunkNumber,
			Score:       chunk.Score,
		})
	}
	if params.IncludePaths && len(paths) > 0 {
		resp.PathEntities = pathEntityLabels(paths)
		resp.Paths = make([]string, 0, len(paths))
		for _, p := range paths {
			resp.Paths = append(resp.Paths, p.text)
		}
	}
	return resp, nil
}

// augmentChunks prefixes each chunk with a short model-written situating
// note so excerpts stand alone in the generation context. Augmentation is
// best effort: a failed note leaves the raw chunk text in place.
func (c *Client) augmentChunks(ctx context.Context, chunks []common.ChunkResult) []string {
	out := make([]string, len(chunks))
	for i, chunk := range chunks {
		out[i] = chunk.Content
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallelAugmentations)
	for i, chunk := range chunks {
		group.Go(func() error {
			prompt := fmt.Sprintf(ai.ChunkContextPrompt, chunk.Content)
			note, err := c.aiClient.GenerateCompletion(groupCtx, prompt)
			if err != nil {
				logger.Debug("[Query] Chunk augmentation failed, using raw chunk",
					"document", chunk.DocumentID, "chunk", chunk.ChunkNumber, "err", err)
				return nil
			}
			note = strings.TrimSpace(note)
			if note == "" {
				return nil
			}
			mu.Lock()
			out[i] = note + "\n" + chunk.Content
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()
	return out
}

// buildContext renders the numbered passage list, keeping passages in rank
// order until the token budget is exhausted. It returns the rendered
// context and how many passages made it in. Path lines, when present, are
// prepended and count against the same budget.
func (c *Client) buildContext(
	augmented []string,
	ranked []common.ChunkResult,
	paths []renderedPath,
) (string, int) {
	budget := c.contextTokenBudget
	var b strings.Builder

	if block := renderPathBlock(paths, maxPathsInContext); block != "" {
		cost := countTokens(block)
		if cost < budget {
			b.WriteString(block)
			b.WriteString("\n")
			budget -= cost
		}
	}

	used := 0
	for i, text := range augmented {
		passage := fmt.Sprintf("[%d] (document %s, chunk %d)\n%s\n\n",
			i+1, ranked[i].DocumentID, ranked[i].ChunkNumber, text)
		cost := countTokens(passage)
		if cost > budget {
			break
		}
		b.WriteString(passage)
		budget -= cost
		used++
	}

	return b.String(), used
}

// countTokens measures text against the o200k_base encoding, approximating
// at four characters per token when the encoding is unavailable.
func countTokens(text string) int {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
