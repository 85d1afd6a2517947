package domain

import "strings"

const (
	// DefaultIdeaTitle is used when the model returns an idea without a title.
	DefaultIdeaTitle = "Pomysł"

	// IdeaCandidates is how many ideas the text model is asked for.
	IdeaCandidates = 12

	MinIdeas     = 2
	MaxIdeas     = 6
	DefaultIdeas = 4
)

// Idea is a candidate coloring page concept. Users may edit both fields before
// generating images from it.
type Idea struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

// Blank reports whether the idea carries no usable prompt.
func (i Idea) Blank() bool {
	return strings.TrimSpace(i.Prompt) == ""
}

// IdeaCount resolves the requested list size. Zero means the default.
func IdeaCount(n int) (int, error) {
	if n == 0 {
		return DefaultIdeas, nil
	}
	if n < MinIdeas || n > MaxIdeas {
		return 0, Validationf("idea count must be between %d and %d", MinIdeas, MaxIdeas)
	}
	return n, nil
}

// TruncateIdeas returns at most max ideas, keeping order. The result never
// aliases the input.
func TruncateIdeas(ideas []Idea, max int) []Idea {
	if max >= 0 && len(ideas) > max {
		ideas = ideas[:max]
	}
	out := make([]Idea, len(ideas))
	copy(out, ideas)
	return out
}
