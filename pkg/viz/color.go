package viz

import (
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	maxHashAttempts = 50

	// Two colors are sufficiently distinct when their hues differ by at
	// least minHueGap degrees, or both saturation and lightness differ by
	// at least the respective thresholds (percent).
	minHueGap        = 45.0
	minSaturationGap = 25.0
	minLightnessGap  = 15.0

	// The golden-ratio sweep guarantees a wider hue gap at the cost of
	// weaker saturation/lightness guarantees.
	sweepHueGap = 60.0
	goldenAngle = 137.50776405003785
)

// palette is the preferred color per normalized entity type. A palette entry
// is only handed out while its color is unused.
var palette = map[string]hsl{
	"person":       {h: 210, s: 60, l: 55},
	"organization": {h: 28, s: 85, l: 55},
	"location":     {h: 120, s: 45, l: 45},
	"concept":      {h: 285, s: 45, l: 60},
	"event":        {h: 0, s: 70, l: 55},
}

type hsl struct {
	h, s, l float64 // hue in degrees, saturation/lightness in percent
}

func (c hsl) hex() string {
	return colorful.Hsl(c.h, c.s/100, c.l/100).Hex()
}

// ColorAssigner hands out stable, mutually distinct colors for entity
// rendering. Assignments are keyed by (label, type) and live for the life of
// the assigner instance; construct one per service, or one per test.
type ColorAssigner struct {
	mu       sync.Mutex
	registry map[string]string
	used     []hsl
}

// NewColorAssigner creates an empty assigner.
func NewColorAssigner() *ColorAssigner {
	return &ColorAssigner{
		registry: make(map[string]string),
	}
}

// GetColor returns the color assigned to the given entity, assigning one on
// first sight. The same (label, type) pair always yields the same color from
// the same assigner.
func (a *ColorAssigner) GetColor(entityType, entityLabel string) string {
	key := entityLabel + "|" + entityType

	a.mu.Lock()
	defer a.mu.Unlock()

	if hex, ok := a.registry[key]; ok {
		return hex
	}

	color := a.pickColor(entityType, key)
	a.used = append(a.used, color)
	hex := color.hex()
	a.registry[key] = hex
	return hex
}

func (a *ColorAssigner) pickColor(entityType, key string) hsl {
	if preferred, ok := palette[normalizeType(entityType)]; ok {
		if a.distinctFromUsed(preferred, minHueGap, true) && !a.usedExactly(preferred) {
			return preferred
		}
	}

	seed := hashKey(key)
	for attempt := 0; attempt < maxHashAttempts; attempt++ {
		candidate := hashedColor(seed, attempt)
		if a.distinctFromUsed(candidate, minHueGap, true) {
			return candidate
		}
	}

	return a.sweepColor(seed)
}

// sweepColor walks hues by the golden angle from a hash-derived start until
// one is at least sweepHueGap degrees from every used hue. With enough
// colors taken no such hue exists; the last candidate is then accepted.
func (a *ColorAssigner) sweepColor(seed uint64) hsl {
	base := float64(seed % 360)
	candidate := hsl{h: base, s: 65, l: 50}
	for i := 0; i < 720; i++ {
		candidate = hsl{
			h: math.Mod(base+float64(i)*goldenAngle, 360),
			s: 65,
			l: 50,
		}
		if a.distinctFromUsed(candidate, sweepHueGap, false) {
			return candidate
		}
	}
	return candidate
}

// distinctFromUsed reports whether candidate keeps the required distance
// from every used color. With allowSatLight set, a small hue gap may be
// compensated by large saturation and lightness gaps.
func (a *ColorAssigner) distinctFromUsed(candidate hsl, hueGap float64, allowSatLight bool) bool {
	for _, used := range a.used {
		if hueDistance(candidate.h, used.h) >= hueGap {
			continue
		}
		if allowSatLight &&
			math.Abs(candidate.s-used.s) >= minSaturationGap &&
			math.Abs(candidate.l-used.l) >= minLightnessGap {
			continue
		}
		return false
	}
	return true
}

func (a *ColorAssigner) usedExactly(c hsl) bool {
	for _, used := range a.used {
		if used == c {
			return true
		}
	}
	return false
}

func hueDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}

func normalizeType(entityType string) string {
	return strings.ToLower(strings.TrimSpace(entityType))
}

func hashKey(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return h.Sum64()
}

// hashedColor derives a candidate color from the key hash and the attempt
// index. Saturation stays in 55-90 and lightness in 40-65 so every candidate
// renders legibly on both light and dark backgrounds.
func hashedColor(seed uint64, attempt int) hsl {
	mixed := seed + uint64(attempt)*0x9e3779b97f4a7c15
	mixed ^= mixed >> 29
	mixed *= 0xbf58476d1ce4e5b9
	mixed ^= mixed >> 32

	return hsl{
		h: float64(mixed % 360),
		s: float64(55 + (mixed>>9)%36),
		l: float64(40 + (mixed>>17)%26),
	}
}
