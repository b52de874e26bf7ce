// Package handoff carries a selected level and its parent item from the item view to
// the level view so the level view renders without another fetch.
package handoff

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"firetechnics/site/internal/domain"
	"firetechnics/site/internal/locale"
	"firetechnics/site/internal/richtext"
)

// Parent is the denormalized part of the owning item a level view needs.
type Parent struct {
	ID       string              `json:"id"`
	Category domain.Category     `json:"category"`
	Text     domain.Translations `json:"text"`
}

// Payload keeps every language of the level so a language switch re-resolves it in place.
type Payload struct {
	Level     domain.Level    `json:"level"`
	Parent    Parent          `json:"parent"`
	Lang      domain.Language `json:"lang"`
	CreatedAt time.Time       `json:"created_at"`
}

// Package bundles level with its parent item.
func Package(level domain.Level, parent domain.Formation, lang domain.Language) Payload {
	level.Text = level.Text.Clone()
	level.Lists = level.Lists.Clone()
	level.GalleryURLs = append([]string(nil), level.GalleryURLs...)

	return Payload{
		Level: level,
		Parent: Parent{
			ID:       parent.ID,
			Category: parent.Category,
			Text:     parent.Text.Clone(),
		},
		Lang:      lang,
		CreatedAt: time.Now().UTC(),
	}
}

// Matches reports whether the payload belongs to the addressed item and level.
func (p Payload) Matches(itemID string, order int) bool {
	return p.Parent.ID == itemID && p.Level.DisplayOrder == order
}

// Encode serializes a payload.
func Encode(p Payload) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode handoff payload: %w", err)
	}
	return b, nil
}

// Decode parses a serialized payload. Empty or malformed input and payloads without
// a parent id report domain.ErrMissingHandoffData.
func Decode(raw []byte) (Payload, error) {
	var p Payload
	if len(raw) == 0 {
		return p, domain.ErrMissingHandoffData
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", domain.ErrMissingHandoffData, err)
	}
	if p.Parent.ID == "" {
		return Payload{}, domain.ErrMissingHandoffData
	}
	return p, nil
}

// LevelView is the display-ready level.
type LevelView struct {
	ID              string
	ItemID          string
	Category        domain.Category
	DisplayOrder    int
	ParentName      string
	Name            string
	Description     string
	Duration        string
	Goals           string
	Competencies    []string
	SessionsPerWeek int
	Images          []string
	ShowPagination  bool
	VideoURL        string
	VideoEmbed      string
}

// HasVideo reports whether a video section should render. Links that are not
// recognizable YouTube videos render nothing.
func (v LevelView) HasVideo() bool {
	return v.VideoEmbed != ""
}

// Unpackage resolves a payload for lc. Missing gallery images fall back to the primary
// image; a missing video yields no video section.
func Unpackage(p Payload, lc locale.Context) LevelView {
	l := p.Level
	v := LevelView{
		ID:              l.ID,
		ItemID:          p.Parent.ID,
		Category:        p.Parent.Category,
		DisplayOrder:    l.DisplayOrder,
		ParentName:      lc.Text(p.Parent.Text, "name"),
		Name:            lc.Text(l.Text, "name"),
		Description:     lc.Text(l.Text, "description"),
		Duration:        lc.Text(l.Text, "duration"),
		Goals:           lc.Text(l.Text, "goals"),
		Competencies:    lc.List(l.Lists, "competencies"),
		SessionsPerWeek: l.SessionsPerWeek,
		Images:          Images(l),
	}
	v.ShowPagination = len(v.Images) > 1

	if video := strings.TrimSpace(l.VideoURL); video != "" {
		v.VideoURL = video
		v.VideoEmbed, _ = richtext.YouTubeEmbed(video)
	}
	return v
}

// Images returns the carousel images of a level: its gallery, or the primary image alone.
func Images(l domain.Level) []string {
	images := make([]string, 0, len(l.GalleryURLs)+1)
	for _, u := range l.GalleryURLs {
		if u = strings.TrimSpace(u); u != "" {
			images = append(images, u)
		}
	}
	if len(images) == 0 && strings.TrimSpace(l.ImageURL) != "" {
		images = append(images, strings.TrimSpace(l.ImageURL))
	}
	return images
}
