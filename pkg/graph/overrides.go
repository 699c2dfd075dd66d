package graph

// ExtractionOverride customizes the per-chunk extraction stage. When
// EntityTypes is non-empty the adaptive classification call is skipped and
// the given types are embedded into the template directly. PromptTemplate,
// when set, replaces the default extraction template; it must contain three
// %s verbs, each filled with the comma-joined entity type list.
type ExtractionOverride struct {
	PromptTemplate string   `json:"prompt_template,omitempty"`
	EntityTypes    []string `json:"entity_types,omitempty"`
}

// ResolutionOverride customizes the synonym-grouping stage. PromptTemplate,
// when set, replaces the default resolution template; it must contain one %s
// verb filled with the entity label listing.
type ResolutionOverride struct {
	PromptTemplate string `json:"prompt_template,omitempty"`
}

// PromptOverrides bundles the per-stage overrides a caller may attach to a
// build or query. A nil override (or nil field) means the stage runs with
// its defaults.
type PromptOverrides struct {
	Extraction *ExtractionOverride `json:"extraction,omitempty"`
	Resolution *ResolutionOverride `json:"resolution,omitempty"`
}

func (p *PromptOverrides) extraction() *ExtractionOverride {
	if p == nil {
		return nil
	}
	return p.Extraction
}

func (p *PromptOverrides) resolution() *ResolutionOverride {
	if p == nil {
		return nil
	}
	return p.Resolution
}
