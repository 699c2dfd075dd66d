package viz

import (
	"github.com/docmind-ai/docmind/pkg/common"
)

// Node is one renderable entity of a graph visualization.
type Node struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Color      string         `json:"color"`
}

// Link is one renderable relationship of a graph visualization.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// Visualization is the render-ready view of a graph: colored nodes plus
// typed links. It is derived, never authoritative.
type Visualization struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// BuildVisualization converts a graph into its render-ready form, assigning
// each entity a color through the given assigner.
func BuildVisualization(graph *common.Graph, assigner *ColorAssigner) Visualization {
	nodes := make([]Node, 0, len(graph.Entities))
	for _, e := range graph.Entities {
		nodes = append(nodes, Node{
			ID:         e.ID,
			Label:      e.Label,
			Type:       e.Type,
			Properties: e.Properties,
			Color:      assigner.GetColor(e.Type, e.Label),
		})
	}

	links := make([]Link, 0, len(graph.Relationships))
	for _, r := range graph.Relationships {
		links = append(links, Link{
			Source: r.SourceID,
			Target: r.TargetID,
			Type:   r.Type,
		})
	}

	return Visualization{Nodes: nodes, Links: links}
}
