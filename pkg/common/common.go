package common

import (
	"slices"
	"time"
)

// GraphStatus tracks the build lifecycle of a graph. A graph is created in
// StatusProcessing and transitions to StatusCompleted once the full entity
// and relationship batch has been merged and written.
type GraphStatus string

const (
	StatusProcessing GraphStatus = "processing"
	StatusCompleted  GraphStatus = "completed"
)

// Graph represents a named knowledge graph built over a set of documents.
// It captures the resolved entities, the directed relationships between them,
// and the full set of documents the graph currently covers.
//
// A graph only ever grows: updates add documents, entities, and relationships;
// entities are merged, never deleted.
type Graph struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
	DocumentIDs   []string       `json:"document_ids"`
	Filters       map[string]any `json:"filters,omitempty"`
	Owner         string         `json:"owner"`
	System        SystemMetadata `json:"system_metadata"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// SystemMetadata carries graph lifecycle state and the optional tenant,
// folder, and end-user scoping recorded at build time.
type SystemMetadata struct {
	Status     GraphStatus `json:"status"`
	AppID      string      `json:"app_id,omitempty"`
	FolderName string      `json:"folder_name,omitempty"`
	EndUserID  string      `json:"end_user_id,omitempty"`
	WorkflowID string      `json:"workflow_id,omitempty"`
}

// Entity is a node in the graph: an organization, person, location, or any
// other extracted concept. Labels are unique within a graph after resolution;
// merged variant labels are kept under Properties["aliases"].
//
// ChunkSources records, per document, the chunk numbers the entity was
// extracted from. DocumentIDs is the set of documents that mention it.
type Entity struct {
	ID           string           `json:"id"`
	Label        string           `json:"label"`
	Type         string           `json:"type"`
	Properties   map[string]any   `json:"properties"`
	ChunkSources map[string][]int `json:"chunk_sources"`
	DocumentIDs  []string         `json:"document_ids"`
}

// Relationship is a directed, typed edge between two entities. The triple
// (SourceID, TargetID, Type) is unique within a graph; duplicates are merged
// by unioning their provenance.
type Relationship struct {
	ID           string           `json:"id"`
	SourceID     string           `json:"source_id"`
	TargetID     string           `json:"target_id"`
	Type         string           `json:"type"`
	ChunkSources map[string][]int `json:"chunk_sources"`
	DocumentIDs  []string         `json:"document_ids"`
}

// Document is the slice of the external document model this core needs:
// identity, scoping, and user metadata for filter matching.
type Document struct {
	ID         string         `json:"id"`
	Filename   string         `json:"filename,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	FolderName string         `json:"folder_name,omitempty"`
	EndUserID  string         `json:"end_user_id,omitempty"`
}

// ChunkResult is one retrieved chunk of document text, with the similarity
// score assigned by whichever search produced it.
type ChunkResult struct {
	DocumentID  string  `json:"document_id"`
	ChunkNumber int     `json:"chunk_number"`
	Content     string  `json:"content"`
	Score       float64 `json:"score"`
}

// ChunkRef identifies a single chunk within a document. It is the key used
// when combining vector and graph retrieval results.
type ChunkRef struct {
	DocumentID  string `json:"document_id"`
	ChunkNumber int    `json:"chunk_number"`
}

// AuthContext identifies the caller for collaborator calls. Access control is
// enforced by the document and graph stores, never by this core.
type AuthContext struct {
	UserID      string   `json:"user_id"`
	EntityID    string   `json:"entity_id"`
	AppID       string   `json:"app_id,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// HasPermission reports whether the caller carries the named permission.
func (a AuthContext) HasPermission(perm string) bool {
	return slices.Contains(a.Permissions, perm)
}

// QueryScope restricts an operation to a tenant, folder, or end-user subset
// of the data. Zero-value fields mean unscoped.
type QueryScope struct {
	AppID      string `json:"app_id,omitempty"`
	FolderName string `json:"folder_name,omitempty"`
	EndUserID  string `json:"end_user_id,omitempty"`
}

// AddChunkSource records that the entity was seen in the given chunk of the
// given document, keeping chunk numbers sorted and deduplicated and the
// document id set in sync.
func (e *Entity) AddChunkSource(documentID string, chunkNumber int) {
	if e.ChunkSources == nil {
		e.ChunkSources = make(map[string][]int)
	}
	chunks := e.ChunkSources[documentID]
	if !slices.Contains(chunks, chunkNumber) {
		chunks = append(chunks, chunkNumber)
		slices.Sort(chunks)
	}
	e.ChunkSources[documentID] = chunks
	if !slices.Contains(e.DocumentIDs, documentID) {
		e.DocumentIDs = append(e.DocumentIDs, documentID)
	}
}

// AddChunkSource records provenance for the relationship, mirroring the
// entity variant.
func (r *Relationship) AddChunkSource(documentID string, chunkNumber int) {
	if r.ChunkSources == nil {
		r.ChunkSources = make(map[string][]int)
	}
	chunks := r.ChunkSources[documentID]
	if !slices.Contains(chunks, chunkNumber) {
		chunks = append(chunks, chunkNumber)
		slices.Sort(chunks)
	}
	r.ChunkSources[documentID] = chunks
	if !slices.Contains(r.DocumentIDs, documentID) {
		r.DocumentIDs = append(r.DocumentIDs, documentID)
	}
}

// MergeChunkSources unions another provenance map into dst, keeping each
// chunk-number list sorted and free of duplicates.
func MergeChunkSources(dst, src map[string][]int) map[string][]int {
	if dst == nil {
		dst = make(map[string][]int)
	}
	for doc, chunks := range src {
		existing := dst[doc]
		for _, c := range chunks {
			if !slices.Contains(existing, c) {
				existing = append(existing, c)
			}
		}
		slices.Sort(existing)
		dst[doc] = existing
	}
	return dst
}

// UnionDocumentIDs returns the union of two document id sets, preserving the
// order of first appearance.
func UnionDocumentIDs(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, id := range a {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range b {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
