package image

import (
	"fmt"
	"strings"
)

// ColoringStyleSuffix pins every image prompt to the coloring-book look.
const ColoringStyleSuffix = ", black-and-white coloring book page, clean bold outlines, no shading, white background, centered composition, high contrast lines, vector-line look"

// NormalizeColoringPrompt trims raw and appends ColoringStyleSuffix.
func NormalizeColoringPrompt(raw string) string {
	return strings.TrimSpace(raw) + ColoringStyleSuffix
}

// VariantPrompt marks base with a 1-based ordinal so that requests for the
// same idea differ.
func VariantPrompt(base string, ordinal int) string {
	return fmt.Sprintf("%s, variant %d", base, ordinal)
}
