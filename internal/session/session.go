package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Maciekds1981/kolorowanki/internal/domain"
	"github.com/Maciekds1981/kolorowanki/internal/infra/credentials"
)

// Session holds the workflow state of one user. Every replacement builds the
// new slice first and swaps it in under the lock, so readers never see a
// half-updated list.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.RWMutex
	credentials credentials.Credentials
	textModel   string
	ideas       []domain.Idea
	selected    int
	artifacts   []domain.Artifact
	lastBatch   []domain.VariantOutcome
	updatedAt   time.Time
	// generation counts idea list replacements.
	generation uint64
}

// Selection is the idea a batch is generated from, tagged with the idea list
// generation it was read from.
type Selection struct {
	Idea       domain.Idea
	Generation uint64
}

// Snapshot is a copy of the session state safe to render.
type Snapshot struct {
	ID        string
	Ideas     []domain.Idea
	Selected  int
	Artifacts []domain.Artifact
	LastBatch []domain.VariantOutcome
	CreatedAt time.Time
	UpdatedAt time.Time
}

func newSession(id string, creds credentials.Credentials, textModel string, now time.Time) *Session {
	return &Session{
		ID:          id,
		CreatedAt:   now,
		credentials: creds.Normalize(),
		textModel:   textModel,
		updatedAt:   now,
	}
}

// Credentials returns the per-session credential overrides.
func (s *Session) Credentials() credentials.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credentials
}

// TextModel returns the per-session text model override, if any.
func (s *Session) TextModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.textModel
}

// ReplaceIdeas swaps in a new idea list, resets the selection and discards the
// images of the previous theme.
func (s *Session) ReplaceIdeas(ideas []domain.Idea) {
	next := make([]domain.Idea, len(ideas))
	copy(next, ideas)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ideas = next
	s.generation++
	s.selected = 0
	s.artifacts = nil
	s.lastBatch = nil
	s.updatedAt = time.Now()
}

// Select marks the idea used for the next batch.
func (s *Session) Select(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.selected = index
	s.updatedAt = time.Now()
	return nil
}

// EditIdea overwrites the title and prompt of one idea. A blank title falls
// back to the placeholder; a blank prompt is rejected.
func (s *Session) EditIdea(index int, title, prompt string) (domain.Idea, error) {
	edited := domain.Idea{Title: strings.TrimSpace(title), Prompt: strings.TrimSpace(prompt)}
	if edited.Blank() {
		return domain.Idea{}, domain.Validationf("prompt is required")
	}
	if edited.Title == "" {
		edited.Title = domain.DefaultIdeaTitle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIndex(index); err != nil {
		return domain.Idea{}, err
	}
	s.ideas[index] = edited
	s.updatedAt = time.Now()
	return edited, nil
}

// SelectedIdea returns the idea images will be generated from.
func (s *Session) SelectedIdea() (domain.Idea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.ideas) == 0 {
		return domain.Idea{}, fmt.Errorf("%w: %w: generate and pick an idea first", domain.ErrValidation, domain.ErrNoIdeas)
	}
	return s.ideas[s.selected], nil
}

// Selection returns the selected idea together with the current idea list
// generation.
func (s *Session) Selection() (Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.ideas) == 0 {
		return Selection{}, fmt.Errorf("%w: %w: generate and pick an idea first", domain.ErrValidation, domain.ErrNoIdeas)
	}
	return Selection{Idea: s.ideas[s.selected], Generation: s.generation}, nil
}

// RecordBatch keeps the outcomes of a batch started at generation. The artifact
// sequence is replaced only when at least one variant succeeded; otherwise the
// previous images stay. It reports whether a replacement happened. Outcomes of
// a batch whose idea list has since been replaced are dropped with
// domain.ErrStaleBatch.
func (s *Session) RecordBatch(generation uint64, outcomes []domain.VariantOutcome) (bool, error) {
	successes := domain.Successes(outcomes)
	batch := make([]domain.VariantOutcome, len(outcomes))
	copy(batch, outcomes)
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return false, domain.ErrStaleBatch
	}
	s.lastBatch = batch
	s.updatedAt = time.Now()
	if len(successes) == 0 {
		return false, nil
	}
	s.artifacts = successes
	return true, nil
}

// Artifact looks up the current image for ordinal.
func (s *Session) Artifact(ordinal int) (domain.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.artifacts {
		if a.Ordinal == ordinal {
			return a, nil
		}
	}
	return domain.Artifact{}, domain.ErrNotFound
}

// Artifacts returns the current images in ordinal order.
func (s *Session) Artifacts() []domain.Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Artifact, len(s.artifacts))
	copy(out, s.artifacts)
	return out
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		ID:        s.ID,
		Ideas:     make([]domain.Idea, len(s.ideas)),
		Selected:  s.selected,
		Artifacts: make([]domain.Artifact, len(s.artifacts)),
		LastBatch: make([]domain.VariantOutcome, len(s.lastBatch)),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.updatedAt,
	}
	copy(snap.Ideas, s.ideas)
	copy(snap.Artifacts, s.artifacts)
	copy(snap.LastBatch, s.lastBatch)
	return snap
}

func (s *Session) checkIndex(index int) error {
	if len(s.ideas) == 0 {
		return fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrNoIdeas)
	}
	if index < 0 || index >= len(s.ideas) {
		return domain.Validationf("idea index %d out of range", index)
	}
	return nil
}
