package handoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"firetechnics/site/internal/domain"
	"firetechnics/site/internal/locale"
)

func level() domain.Level {
	text := domain.Translations{}
	text.Set("name", domain.LanguageFR, "Niveau 2")
	text.Set("name", domain.LanguageNL, "Niveau 2 NL")
	text.Set("description", domain.LanguageFR, "Lutte contre le feu")
	text.Set("duration", domain.LanguageFR, "2 jours")
	text.Set("goals", domain.LanguageFR, "Maîtriser un début d'incendie")
	lists := domain.ListTranslations{}
	lists.Set("competencies", domain.LanguageFR, []string{"Alerter", "Éteindre"})

	return domain.Level{
		ID:              "l2",
		FormationID:     "f1",
		DisplayOrder:    2,
		SessionsPerWeek: 3,
		ImageURL:        "https://cdn/l2.jpg",
		Text:            text,
		Lists:           lists,
	}
}

func parent() domain.Formation {
	text := domain.Translations{}
	text.Set("name", domain.LanguageFR, "Équipier de première intervention")
	text.Set("name", domain.LanguageNL, "Eerste interventieploeg")
	return domain.Formation{ID: "f1", Category: domain.CategoryCivilian, Text: text}
}

func TestRoundTripResolvesLikeLocale(t *testing.T) {
	x := level()
	for _, lang := range []domain.Language{domain.LanguageFR, domain.LanguageNL} {
		lc := locale.NewContext(lang, domain.LanguageFR)

		raw, err := Encode(Package(x, parent(), lang))
		require.NoError(t, err)
		p, err := Decode(raw)
		require.NoError(t, err)

		v := Unpackage(p, lc)
		for field, got := range map[string]string{
			"name":        v.Name,
			"description": v.Description,
			"duration":    v.Duration,
			"goals":       v.Goals,
		} {
			require.Equal(t, locale.Resolve(x.Text, field, lang, domain.LanguageFR), got, field)
		}
		require.Equal(t, lc.List(x.Lists, "competencies"), v.Competencies)
		require.Equal(t, lc.Text(parent().Text, "name"), v.ParentName)
	}
}

func TestUnpackageReResolvesOnLanguageChange(t *testing.T) {
	p := Package(level(), parent(), domain.LanguageFR)

	fr := Unpackage(p, locale.NewContext(domain.LanguageFR, domain.LanguageFR))
	nl := Unpackage(p, locale.NewContext(domain.LanguageNL, domain.LanguageFR))

	require.Equal(t, "Niveau 2", fr.Name)
	require.Equal(t, "Niveau 2 NL", nl.Name)
	require.Equal(t, "Eerste interventieploeg", nl.ParentName)
	require.Equal(t, "2 jours", nl.Duration)
}

func TestUnpackagePrimaryImageOnly(t *testing.T) {
	v := Unpackage(Package(level(), parent(), domain.LanguageFR), locale.NewContext(domain.LanguageFR, domain.LanguageFR))

	require.Equal(t, []string{"https://cdn/l2.jpg"}, v.Images)
	require.False(t, v.ShowPagination)
	require.False(t, v.HasVideo())
}

func TestUnpackageGalleryAndVideo(t *testing.T) {
	l := level()
	l.GalleryURLs = []string{"https://cdn/a.jpg", " ", "https://cdn/b.jpg"}
	l.VideoURL = "https://youtu.be/dQw4w9WgXcQ"

	v := Unpackage(Package(l, parent(), domain.LanguageFR), locale.NewContext(domain.LanguageFR, domain.LanguageFR))
	require.Equal(t, []string{"https://cdn/a.jpg", "https://cdn/b.jpg"}, v.Images)
	require.True(t, v.ShowPagination)
	require.True(t, v.HasVideo())
	require.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", v.VideoEmbed)
}

func TestUnpackageUnrecognizedVideoHidden(t *testing.T) {
	l := level()
	l.VideoURL = "https://vimeo.com/123456"

	v := Unpackage(Package(l, parent(), domain.LanguageFR), locale.NewContext(domain.LanguageFR, domain.LanguageFR))
	require.Equal(t, "https://vimeo.com/123456", v.VideoURL)
	require.False(t, v.HasVideo())
}

func TestPackageCopiesRecord(t *testing.T) {
	l := level()
	p := Package(l, parent(), domain.LanguageFR)
	l.Text.Set("name", domain.LanguageFR, "changed")

	require.Equal(t, "Niveau 2", p.Level.Text.Get("name", domain.LanguageFR))
	require.True(t, p.Matches("f1", 2))
	require.False(t, p.Matches("f1", 3))
}

func TestDecodeRejectsMissingData(t *testing.T) {
	_, err := Decode(nil)
	require.ErrorIs(t, err, domain.ErrMissingHandoffData)
	_, err = Decode([]byte("{"))
	require.ErrorIs(t, err, domain.ErrMissingHandoffData)
	_, err = Decode([]byte(`{"level":{"id":"l1"}}`))
	require.ErrorIs(t, err, domain.ErrMissingHandoffData)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(time.Minute).(*memoryStore)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	token, err := s.Put(ctx, Package(level(), parent(), domain.LanguageFR))
	require.NoError(t, err)

	p, err := s.Get(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "l2", p.Level.ID)

	_, err = s.Get(ctx, "unknown")
	require.ErrorIs(t, err, domain.ErrMissingHandoffData)

	now = now.Add(2 * time.Minute)
	_, err = s.Get(ctx, token)
	require.ErrorIs(t, err, domain.ErrMissingHandoffData)
}

func TestMemoryStoreReusesTokenForSameLevel(t *testing.T) {
	s := NewMemoryStore(time.Hour).(*memoryStore)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	first, err := s.Put(ctx, Package(level(), parent(), domain.LanguageFR))
	require.NoError(t, err)
	for range 50 {
		now = now.Add(time.Second)
		token, err := s.Put(ctx, Package(level(), parent(), domain.LanguageFR))
		require.NoError(t, err)
		require.Equal(t, first, token)
	}
	require.Len(t, s.entries, 1)

	other := level()
	other.DisplayOrder = 3
	token, err := s.Put(ctx, Package(other, parent(), domain.LanguageFR))
	require.NoError(t, err)
	require.NotEqual(t, first, token)

	changed := level()
	changed.Text.Set("name", domain.LanguageFR, "Niveau 2 bis")
	token, err = s.Put(ctx, Package(changed, parent(), domain.LanguageFR))
	require.NoError(t, err)
	require.NotEqual(t, first, token)
	require.Len(t, s.entries, 3)

	p, err := s.Get(ctx, first)
	require.NoError(t, err)
	require.Equal(t, "Niveau 2", p.Level.Text.Get("name", domain.LanguageFR))
}

func TestMemoryStoreSweepsExpiredEntries(t *testing.T) {
	s := NewMemoryStore(time.Hour).(*memoryStore)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	for i := range 200 {
		l := level()
		l.DisplayOrder = i
		_, err := s.Put(ctx, Package(l, parent(), domain.LanguageFR))
		require.NoError(t, err)
	}
	require.Len(t, s.entries, 200)

	now = now.Add(48 * time.Hour)
	_, err := s.Put(ctx, Package(level(), parent(), domain.LanguageFR))
	require.NoError(t, err)
	require.Len(t, s.entries, 1)
}
