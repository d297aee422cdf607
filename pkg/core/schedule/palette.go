package schedule

import (
	"hash/fnv"
	"math/rand"
)

// DefaultPalette is the fixed set of appointment colours
var DefaultPalette = []string{"#3b82f6", "#8b5cf6", "#ef4444", "#10b981", "#f59e0b", "#6366f1"}

// ColorFunc picks a display colour for an order id. Colours are cosmetic.
type ColorFunc func(orderID string) string

// PaletteByID hashes the order id into palette, so an order keeps its colour
// across re-projections. An empty palette falls back to DefaultPalette.
func PaletteByID(palette []string) ColorFunc {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return func(orderID string) string {
		h := fnv.New32a()
		h.Write([]byte(orderID))
		return palette[h.Sum32()%uint32(len(palette))]
	}
}

// RandomPalette draws colours from palette using rng. Pass a seeded rng for
// reproducible output.
func RandomPalette(palette []string, rng *rand.Rand) ColorFunc {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return func(string) string {
		return palette[rng.Intn(len(palette))]
	}
}
