package openai

import "strings"

const (
	DefaultTextModel  = "gpt-4o-mini"
	DefaultImageModel = "gpt-image-1"
)

var textModelAliases = map[string]string{
	"gpt4o-mini":             "gpt-4o-mini",
	"gpt4omini":              "gpt-4o-mini",
	"gpt-4o-mini-2024-07-18": "gpt-4o-mini",
	"gpt4o":                  "gpt-4o",
	"gpt-3.5":                "gpt-3.5-turbo",
	"gpt3.5":                 "gpt-3.5-turbo",
	"gpt-35-turbo":           "gpt-3.5-turbo",
	"gpt4.1-mini":            "gpt-4.1-mini",
}

// NormalizeTextModel canonicalizes free-form model names typed by users.
// Unknown names are passed through lower-cased so new models keep working.
// The second return value is "alias" when a known alias was rewritten and
// "defaulted" when the input was empty.
func NormalizeTextModel(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return DefaultTextModel, "defaulted"
	}
	normalized := strings.ToLower(trimmed)
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	if alias, ok := textModelAliases[normalized]; ok {
		return alias, "alias"
	}
	return normalized, ""
}
