package viz

import (
	"fmt"
	"math"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docmind-ai/docmind/pkg/common"
)

func TestGetColor_StablePerKey(t *testing.T) {
	a := NewColorAssigner()

	first := a.GetColor("PERSON", "Jane Doe")
	second := a.GetColor("PERSON", "Jane Doe")

	assert.Equal(t, first, second)
	assert.Regexp(t, `^#[0-9a-f]{6}$`, first)
}

func TestGetColor_SameLabelDifferentTypeDiffers(t *testing.T) {
	a := NewColorAssigner()

	person := a.GetColor("PERSON", "Mercury")
	concept := a.GetColor("CONCEPT", "Mercury")

	assert.NotEqual(t, person, concept)
}

func TestGetColor_PaletteHandedOutFirst(t *testing.T) {
	a := NewColorAssigner()

	got := a.GetColor("PERSON", "Jane Doe")

	assert.Equal(t, palette["person"].hex(), got)
}

func TestGetColor_PaletteNotReusedForSecondEntityOfType(t *testing.T) {
	a := NewColorAssigner()

	first := a.GetColor("PERSON", "Jane Doe")
	second := a.GetColor("PERSON", "John Smith")

	assert.NotEqual(t, first, second)
}

func TestGetColor_AssignmentsStayDistinct(t *testing.T) {
	a := NewColorAssigner()

	seen := make(map[string]bool)
	var colors []hsl
	for i := 0; i < 8; i++ {
		hex := a.GetColor("CONCEPT", fmt.Sprintf("entity-%d", i))
		assert.False(t, seen[hex], "color %s handed out twice", hex)
		seen[hex] = true

		c, err := colorful.Hex(hex)
		require.NoError(t, err)
		h, s, l := c.Hsl()
		colors = append(colors, hsl{h: h, s: s * 100, l: l * 100})
	}

	// Thresholds relaxed slightly from the assignment rule to absorb the
	// 8-bit rounding of the hex round trip.
	for i := 0; i < len(colors); i++ {
		for j := i + 1; j < len(colors); j++ {
			a, b := colors[i], colors[j]
			hueOK := hueDistance(a.h, b.h) >= 40.0
			satLightOK := math.Abs(a.s-b.s) >= 20.0 && math.Abs(a.l-b.l) >= 10.0
			assert.True(t, hueOK || satLightOK,
				"colors %d and %d are too similar: %+v vs %+v", i, j, a, b)
		}
	}
}

func TestBuildVisualization(t *testing.T) {
	g := &common.Graph{
		Entities: []common.Entity{
			{ID: "e1", Label: "Jane Doe", Type: "PERSON", Properties: map[string]any{"role": "ceo"}},
			{ID: "e2", Label: "Acme Corp", Type: "ORGANIZATION"},
		},
		Relationships: []common.Relationship{
			{ID: "r1", SourceID: "e1", TargetID: "e2", Type: "leads"},
		},
	}

	v := BuildVisualization(g, NewColorAssigner())

	require.Len(t, v.Nodes, 2)
	assert.Equal(t, "e1", v.Nodes[0].ID)
	assert.Equal(t, "Jane Doe", v.Nodes[0].Label)
	assert.Equal(t, map[string]any{"role": "ceo"}, v.Nodes[0].Properties)
	assert.NotEmpty(t, v.Nodes[0].Color)
	assert.NotEqual(t, v.Nodes[0].Color, v.Nodes[1].Color)

	require.Len(t, v.Links, 1)
	assert.Equal(t, Link{Source: "e1", Target: "e2", Type: "leads"}, v.Links[0])
}
