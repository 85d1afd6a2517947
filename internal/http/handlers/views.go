package handlers

import (
	"fmt"
	"time"

	"github.com/Maciekds1981/kolorowanki/internal/domain"
	"github.com/Maciekds1981/kolorowanki/internal/i18n"
	"github.com/Maciekds1981/kolorowanki/internal/session"
)

type ideaView struct {
	Index  int    `json:"index"`
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

type artifactView struct {
	Ordinal  int    `json:"ordinal"`
	FileName string `json:"file_name"`
	Bytes    int    `json:"bytes"`
	URL      string `json:"url"`
}

type outcomeView struct {
	Ordinal  int           `json:"ordinal"`
	OK       bool          `json:"ok"`
	Artifact *artifactView `json:"artifact,omitempty"`
	Error    string        `json:"error,omitempty"`
}

type sessionView struct {
	ID        string         `json:"id"`
	Ideas     []ideaView     `json:"ideas"`
	Selected  int            `json:"selected"`
	Artifacts []artifactView `json:"artifacts"`
	LastBatch []outcomeView  `json:"last_batch"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func ideaViews(ideas []domain.Idea) []ideaView {
	out := make([]ideaView, 0, len(ideas))
	for i, idea := range ideas {
		out = append(out, ideaView{Index: i, Title: idea.Title, Prompt: idea.Prompt})
	}
	return out
}

func newArtifactView(sessionID string, a domain.Artifact) artifactView {
	return artifactView{
		Ordinal:  a.Ordinal,
		FileName: a.FileName(),
		Bytes:    len(a.Data),
		URL:      fmt.Sprintf("/v1/sessions/%s/images/%d", sessionID, a.Ordinal),
	}
}

func outcomeViews(sessionID, locale string, outcomes []domain.VariantOutcome) []outcomeView {
	out := make([]outcomeView, 0, len(outcomes))
	for _, o := range outcomes {
		v := outcomeView{Ordinal: o.Ordinal, OK: o.OK()}
		if o.OK() {
			av := newArtifactView(sessionID, *o.Artifact)
			v.Artifact = &av
		} else if o.Err != nil {
			v.Error = i18n.Sprintf(locale, i18n.MsgVariantFailed, o.Ordinal, o.Err.Error())
		}
		out = append(out, v)
	}
	return out
}

func newSessionView(snap session.Snapshot, locale string) sessionView {
	artifacts := make([]artifactView, 0, len(snap.Artifacts))
	for _, a := range snap.Artifacts {
		artifacts = append(artifacts, newArtifactView(snap.ID, a))
	}
	return sessionView{
		ID:        snap.ID,
		Ideas:     ideaViews(snap.Ideas),
		Selected:  snap.Selected,
		Artifacts: artifacts,
		LastBatch: outcomeViews(snap.ID, locale, snap.LastBatch),
		CreatedAt: snap.CreatedAt,
		UpdatedAt: snap.UpdatedAt,
	}
}
