package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/docmind-ai/docmind/pkg/ai"
	"github.com/docmind-ai/docmind/pkg/common"
	"github.com/docmind-ai/docmind/pkg/store"
)

// fakeAIClient serves canned JSON per structured call. Extraction responses
// are keyed by chunk text.
type fakeAIClient struct {
	classifyJSON  string
	extractByText map[string]string
	errByText     map[string]error
	resolveJSON   string
	resolveErr    error
}

func (f *fakeAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "ok", nil
}

func (f *fakeAIClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	switch name {
	case "classify_entity_types":
		payload := f.classifyJSON
		if payload == "" {
			payload = `{"entity_types":["PERSON","ORGANIZATION"]}`
		}
		return json.Unmarshal([]byte(payload), out)
	case "extract_entities_and_relationships":
		if err, ok := f.errByText[prompt]; ok {
			return err
		}
		payload, ok := f.extractByText[prompt]
		if !ok {
			return fmt.Errorf("no canned extraction for chunk: %q", prompt)
		}
		return json.Unmarshal([]byte(payload), out)
	case "resolve_entities":
		if f.resolveErr != nil {
			return f.resolveErr
		}
		payload := f.resolveJSON
		if payload == "" {
			payload = `{"groups":[]}`
		}
		return json.Unmarshal([]byte(payload), out)
	}
	return fmt.Errorf("unexpected structured call: %s", name)
}

func (f *fakeAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (f *fakeAIClient) ResetMetrics()                {}
func (f *fakeAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

type fakeGraphStore struct {
	graphs map[string]*common.Graph
}

func newFakeGraphStore() *fakeGraphStore {
	return &fakeGraphStore{graphs: make(map[string]*common.Graph)}
}

func (s *fakeGraphStore) GetGraph(ctx context.Context, name string, auth common.AuthContext, scope common.QueryScope) (*common.Graph, error) {
	g, ok := s.graphs[name]
	if !ok {
		return nil, store.ErrGraphNotFound
	}
	return g, nil
}

func (s *fakeGraphStore) ListGraphs(ctx context.Context, auth common.AuthContext, scope common.QueryScope) ([]*common.Graph, error) {
	out := make([]*common.Graph, 0, len(s.graphs))
	for _, g := range s.graphs {
		out = append(out, g)
	}
	return out, nil
}

func (s *fakeGraphStore) StoreGraph(ctx context.Context, g *common.Graph) error {
	s.graphs[g.Name] = g
	return nil
}

func (s *fakeGraphStore) UpdateGraph(ctx context.Context, g *common.Graph) error {
	s.graphs[g.Name] = g
	return nil
}

func (s *fakeGraphStore) DeleteGraph(ctx context.Context, name string, auth common.AuthContext, scope common.QueryScope) error {
	delete(s.graphs, name)
	return nil
}

func (s *fakeGraphStore) TransitionGraphStatus(ctx context.Context, graphID string, from, to common.GraphStatus) (bool, error) {
	for _, g := range s.graphs {
		if g.ID != graphID {
			continue
		}
		if g.System.Status != from {
			return false, nil
		}
		g.System.Status = to
		return true, nil
	}
	return false, nil
}

type fakeDocumentStore struct {
	docs   map[string]common.Document
	chunks map[string][]common.ChunkResult
}

func (s *fakeDocumentStore) GetDocuments(ctx context.Context, auth common.AuthContext, filters map[string]any, scope common.QueryScope) ([]common.Document, error) {
	var out []common.Document
	for _, doc := range s.docs {
		match := true
		for k, v := range filters {
			if doc.Metadata[k] != v {
				match = false
				break
			}
		}
		if match {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *fakeDocumentStore) BatchRetrieveDocuments(ctx context.Context, ids []string, auth common.AuthContext, scope common.QueryScope) ([]common.Document, error) {
	var out []common.Document
	for _, id := range ids {
		if doc, ok := s.docs[id]; ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *fakeDocumentStore) BatchRetrieveChunks(ctx context.Context, refs []common.ChunkRef, auth common.AuthContext, scope common.QueryScope) ([]common.ChunkResult, error) {
	var out []common.ChunkResult
	for _, ref := range refs {
		for _, chunk := range s.chunks[ref.DocumentID] {
			if chunk.ChunkNumber == ref.ChunkNumber {
				out = append(out, chunk)
			}
		}
	}
	return out, nil
}

func (s *fakeDocumentStore) RetrieveDocumentChunks(ctx context.Context, documentIDs []string, auth common.AuthContext, scope common.QueryScope) ([]common.ChunkResult, error) {
	var out []common.ChunkResult
	for _, id := range documentIDs {
		out = append(out, s.chunks[id]...)
	}
	return out, nil
}
