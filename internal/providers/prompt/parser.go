package prompt

import (
	"encoding/json"
	"strings"

	"github.com/Maciekds1981/kolorowanki/internal/domain"
)

// Candidate keys, in priority order. The text model does not always honor the
// requested schema, so each lookup takes the first key that matches.
var (
	ContainerKeys = []string{"items", "ideas", "coloring_pages", "data", "prompts"}
	TitleKeys     = []string{"title", "name", "label"}
	PromptKeys    = []string{"prompt", "text", "description"}
)

// ParseIdeas extracts ideas from the raw content of a chat completion.
//
// A payload that is not JSON, even after code fences are stripped, yields a
// *domain.ParseError. A valid payload with no recognizable ideas yields an
// empty slice and no error.
func ParseIdeas(raw string) ([]domain.Idea, error) {
	decoded, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}
	var items []any
	switch v := decoded.(type) {
	case map[string]any:
		items = firstList(v, ContainerKeys)
	case []any:
		items = v
	}
	ideas := make([]domain.Idea, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		idea := domain.Idea{
			Title:  firstString(obj, TitleKeys),
			Prompt: firstString(obj, PromptKeys),
		}
		if idea.Blank() {
			continue
		}
		if idea.Title == "" {
			idea.Title = domain.DefaultIdeaTitle
		}
		ideas = append(ideas, idea)
	}
	return ideas, nil
}

func decodePayload(raw string) (any, error) {
	var decoded any
	firstErr := json.Unmarshal([]byte(strings.TrimSpace(raw)), &decoded)
	if firstErr == nil {
		return decoded, nil
	}
	unwrapped := trimCodeFence(raw)
	if err := json.Unmarshal([]byte(unwrapped), &decoded); err != nil {
		return nil, &domain.ParseError{Raw: domain.Truncate(raw, domain.MaxErrorBodyLength), Err: err}
	}
	return decoded, nil
}

// trimCodeFence strips surrounding backticks and whitespace, then a leading
// language tag such as ```json.
func trimCodeFence(text string) string {
	trimmed := strings.Trim(text, "` \t\r\n")
	if len(trimmed) >= 4 && strings.EqualFold(trimmed[:4], "json") {
		trimmed = trimmed[4:]
	}
	return strings.TrimSpace(trimmed)
}

func firstList(obj map[string]any, keys []string) []any {
	for _, k := range keys {
		if list, ok := obj[k].([]any); ok {
			return list
		}
	}
	return nil
}

func firstString(obj map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
