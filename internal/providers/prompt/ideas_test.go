package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Maciekds1981/kolorowanki/internal/domain"
	"github.com/Maciekds1981/kolorowanki/internal/providers/openai"
)

type completerFunc func(ctx context.Context, req openai.ChatRequest) (string, error)

func (f completerFunc) ChatCompletion(ctx context.Context, req openai.ChatRequest) (string, error) {
	return f(ctx, req)
}

func twelveIdeas() string {
	parts := make([]string, 0, domain.IdeaCandidates)
	for i := 1; i <= domain.IdeaCandidates; i++ {
		parts = append(parts, fmt.Sprintf(`{"title":"Idea %d","prompt":"prompt %d"}`, i, i))
	}
	return `{"items":[` + strings.Join(parts, ",") + `]}`
}

func TestGenerateIdeasTruncatesInOrder(t *testing.T) {
	var captured openai.ChatRequest
	gen := NewIdeaGenerator(completerFunc(func(ctx context.Context, req openai.ChatRequest) (string, error) {
		captured = req
		return twelveIdeas(), nil
	}), nil)

	ideas, err := gen.GenerateIdeas(context.Background(), IdeaRequest{Theme: " dragons and castles ", MaxCount: 3, Locale: "pl"})
	if err != nil {
		t.Fatalf("GenerateIdeas error: %v", err)
	}
	if len(ideas) != 3 {
		t.Fatalf("len = %d, want 3", len(ideas))
	}
	for i, idea := range ideas {
		if want := fmt.Sprintf("Idea %d", i+1); idea.Title != want {
			t.Fatalf("ideas[%d].Title = %q, want %q", i, idea.Title, want)
		}
	}
	if !captured.JSONObject || captured.Temperature != ideasTemperature {
		t.Fatalf("unexpected request options: %+v", captured)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(captured.Messages))
	}
	user := captured.Messages[1].Content
	for _, want := range []string{"12 coloring page ideas", `"dragons and castles"`, ideasSchema, "Polish"} {
		if !strings.Contains(user, want) {
			t.Fatalf("user prompt missing %q: %s", want, user)
		}
	}
	if !strings.Contains(captured.Messages[0].Content, "strict JSON") {
		t.Fatalf("system prompt = %q", captured.Messages[0].Content)
	}
}

func TestGenerateIdeasBlankThemeIsValidationError(t *testing.T) {
	gen := NewIdeaGenerator(completerFunc(func(ctx context.Context, req openai.ChatRequest) (string, error) {
		t.Fatal("completer must not be called")
		return "", nil
	}), nil)
	_, err := gen.GenerateIdeas(context.Background(), IdeaRequest{Theme: "   ", MaxCount: 4})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestGenerateIdeasPropagatesErrors(t *testing.T) {
	apiErr := domain.NewAPIError("openai", 401, `{"error":"bad key"}`)
	gen := NewIdeaGenerator(completerFunc(func(ctx context.Context, req openai.ChatRequest) (string, error) {
		return "", apiErr
	}), nil)
	_, err := gen.GenerateIdeas(context.Background(), IdeaRequest{Theme: "space", MaxCount: 4})
	if !errors.Is(err, domain.ErrAPI) {
		t.Fatalf("err = %v, want ErrAPI", err)
	}

	gen = NewIdeaGenerator(completerFunc(func(ctx context.Context, req openai.ChatRequest) (string, error) {
		return "Sure! Here are some ideas...", nil
	}), nil)
	_, err = gen.GenerateIdeas(context.Background(), IdeaRequest{Theme: "space", MaxCount: 4})
	if !errors.Is(err, domain.ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestLanguageName(t *testing.T) {
	cases := map[string]string{"pl": "Polish", "en": "English", "en-GB": "English", "": "Polish", "???": "Polish"}
	for in, want := range cases {
		if got := languageName(in); got != want {
			t.Fatalf("languageName(%q) = %q, want %q", in, got, want)
		}
	}
}
