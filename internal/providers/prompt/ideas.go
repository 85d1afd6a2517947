package prompt

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/Maciekds1981/kolorowanki/internal/domain"
	"github.com/Maciekds1981/kolorowanki/internal/infra"
	"github.com/Maciekds1981/kolorowanki/internal/providers/openai"
)

const (
	ideasTemperature = 0.4
	ideasSchema      = `{"items":[{"title":"string","prompt":"string"}]}`
)

// Completer is the subset of the OpenAI client used for idea generation.
type Completer interface {
	ChatCompletion(ctx context.Context, req openai.ChatRequest) (string, error)
}

// IdeaRequest asks for coloring page ideas on a theme.
type IdeaRequest struct {
	Theme    string
	MaxCount int
	Locale   string
}

// IdeaGenerator turns a theme into a list of coloring page ideas.
type IdeaGenerator struct {
	completer Completer
	logger    *infra.Logger
}

func NewIdeaGenerator(completer Completer, logger *infra.Logger) *IdeaGenerator {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &IdeaGenerator{completer: completer, logger: logger}
}

// GenerateIdeas performs one chat completion and returns at most MaxCount
// ideas in the order the model produced them.
func (g *IdeaGenerator) GenerateIdeas(ctx context.Context, req IdeaRequest) ([]domain.Idea, error) {
	theme := strings.TrimSpace(req.Theme)
	if theme == "" {
		return nil, domain.Validationf("theme is required")
	}
	if req.MaxCount <= 0 {
		return nil, domain.Validationf("max count must be positive")
	}
	content, err := g.completer.ChatCompletion(ctx, openai.ChatRequest{
		Messages: []openai.ChatMessage{
			{Role: "system", Content: "Return strict JSON only, no markdown. Schema: " + ideasSchema + "."},
			{Role: "user", Content: buildIdeasPrompt(theme, req.Locale)},
		},
		Temperature: ideasTemperature,
		JSONObject:  true,
	})
	if err != nil {
		return nil, err
	}
	ideas, err := ParseIdeas(content)
	if err != nil {
		g.logger.Warn().Err(err).Msg("ideas: unparseable model payload")
		return nil, err
	}
	g.logger.Debug().
		Int("parsed", len(ideas)).
		Int("max", req.MaxCount).
		Msg("ideas: parsed model payload")
	return domain.TruncateIdeas(ideas, req.MaxCount), nil
}

func buildIdeasPrompt(theme, locale string) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Design %d coloring page ideas for children on the theme: %q. ", domain.IdeaCandidates, theme)
	sb.WriteString("Turn each idea into a short image-generation PROMPT. Requirements: black-and-white, clean outlines, no shading, white background, ")
	sb.WriteString("simple style, 2-5 px lines, 1024x1024, centered composition, no text or lettering. ")
	fmt.Fprintf(sb, "Write the titles in %s. ", languageName(locale))
	sb.WriteString("Return ONLY JSON matching the schema ")
	sb.WriteString(ideasSchema)
	return sb.String()
}

func languageName(locale string) string {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || tag == language.Und {
		tag = language.Polish
	}
	base, _ := tag.Base()
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return "Polish"
}
