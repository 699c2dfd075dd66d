package graph

import (
	"context"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/docmind-ai/docmind/internal/util"
	"github.com/docmind-ai/docmind/pkg/ai"
	"github.com/docmind-ai/docmind/pkg/common"
	"github.com/docmind-ai/docmind/pkg/logger"
)

const maxClassifiedTypes = 5

type classifyResponse struct {
	EntityTypes []string `json:"entity_types" jsonschema_description:"Up to 5 entity type labels best suited to the content"`
}

type extractEntity struct {
	Label      string         `json:"label" jsonschema_description:"Name of the entity as it appears in the text"`
	Type       string         `json:"type" jsonschema_description:"One of the provided entity types"`
	Properties map[string]any `json:"properties" jsonschema_description:"Explicit attributes of the entity stated in the text"`
}

type extractRelationship struct {
	Source       string `json:"source" jsonschema_description:"Label of the source entity, as identified in the entity list"`
	Target       string `json:"target" jsonschema_description:"Label of the target entity, as identified in the entity list"`
	Relationship string `json:"relationship" jsonschema_description:"Short verb phrase naming the relationship"`
}

type extractResponse struct {
	Entities      []extractEntity       `json:"entities" jsonschema_description:"Entities identified in the text"`
	Relationships []extractRelationship `json:"relationships" jsonschema_description:"Relationships identified in the text"`
}

// Extractor turns one chunk of text into typed entities and directed,
// typed relationships. When no entity types are supplied it first asks the
// model to propose categories fitting the content.
type Extractor struct {
	client     ai.GraphAIClient
	maxRetries int
}

// NewExtractor creates an Extractor using the given AI client. maxRetries
// bounds the per-call retry loop; values below 1 are raised to 1.
func NewExtractor(client ai.GraphAIClient, maxRetries int) *Extractor {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Extractor{client: client, maxRetries: maxRetries}
}

// classifyEntityTypes proposes up to 5 entity type labels for the given
// content. It never fails: any call or parse problem falls back to the fixed
// default set.
func (x *Extractor) classifyEntityTypes(ctx context.Context, text string) []string {
	sample := text
	if len(sample) > 2000 {
		sample = sample[:2000]
	}

	var res classifyResponse
	err := x.client.GenerateCompletionWithFormat(
		ctx,
		"classify_entity_types",
		"Propose entity categories suited to the content.",
		fmt.Sprintf(ai.ClassifyTypesPrompt, sample),
		&res,
	)
	if err != nil {
		logger.Debug("[Extract] Type classification failed, using defaults", "err", err)
		return ai.DefaultEntityTypes
	}

	types := make([]string, 0, maxClassifiedTypes)
	for _, t := range res.EntityTypes {
		t = strings.ToUpper(ai.NormalizeLabel(t))
		if t == "" {
			continue
		}
		types = append(types, t)
		if len(types) == maxClassifiedTypes {
			break
		}
	}
	if len(types) == 0 {
		return ai.DefaultEntityTypes
	}
	return types
}

// ExtractChunk extracts entities and relationships from one chunk of text.
// Returned entities carry fresh ids and provenance for exactly this
// (document, chunk) pair. Relationships whose source or target label does
// not appear in the extracted entity set are dropped.
//
// A failed or unparseable extraction returns an *ExtractionError, which
// callers treat as recoverable.
func (x *Extractor) ExtractChunk(
	ctx context.Context,
	text string,
	documentID string,
	chunkNumber int,
	override *ExtractionOverride,
) ([]common.Entity, []common.Relationship, error) {
	template := ai.ExtractPrompt
	var entityTypes []string
	if override != nil {
		if override.PromptTemplate != "" {
			template = override.PromptTemplate
		}
		entityTypes = override.EntityTypes
	}
	if len(entityTypes) == 0 {
		entityTypes = x.classifyEntityTypes(ctx, text)
	}

	typeList := strings.Join(entityTypes, ",")
	systemPrompt := fmt.Sprintf(template, typeList, typeList, typeList)

	var res extractResponse
	err := util.RetryErrWithContext(ctx, x.maxRetries, func(ctx context.Context) error {
		return x.client.GenerateCompletionWithFormat(
			ctx,
			"extract_entities_and_relationships",
			"Extract entities and relationships from a provided document chunk.",
			text,
			&res,
			ai.WithSystemPrompts(systemPrompt),
		)
	})
	if err != nil {
		return nil, nil, &ExtractionError{DocumentID: documentID, ChunkNumber: chunkNumber, Err: err}
	}

	entities := make([]common.Entity, 0, len(res.Entities))
	byLabel := make(map[string]int, len(res.Entities))
	for _, e := range res.Entities {
		label := ai.NormalizeLabel(e.Label)
		if label == "" {
			continue
		}
		if _, dup := byLabel[label]; dup {
			continue
		}

		id, err := gonanoid.New()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate entity id: %w", err)
		}
		props := e.Properties
		if props == nil {
			props = make(map[string]any)
		}
		entity := common.Entity{
			ID:         id,
			Label:      label,
			Type:       ai.NormalizeLabel(e.Type),
			Properties: props,
		}
		entity.AddChunkSource(documentID, chunkNumber)

		byLabel[label] = len(entities)
		entities = append(entities, entity)
	}

	relationships := make([]common.Relationship, 0, len(res.Relationships))
	for _, rel := range res.Relationships {
		srcIdx, okS := byLabel[ai.NormalizeLabel(rel.Source)]
		tgtIdx, okT := byLabel[ai.NormalizeLabel(rel.Target)]
		if !okS || !okT {
			// Endpoint label never extracted as an entity; lossy by contract.
			continue
		}
		relType := ai.NormalizeLabel(rel.Relationship)
		if relType == "" {
			continue
		}

		id, err := gonanoid.New()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate relationship id: %w", err)
		}
		relationship := common.Relationship{
			ID:       id,
			SourceID: entities[srcIdx].ID,
			TargetID: entities[tgtIdx].ID,
			Type:     relType,
		}
		relationship.AddChunkSource(documentID, chunkNumber)
		relationships = append(relationships, relationship)
	}

	return entities, relationships, nil
}
