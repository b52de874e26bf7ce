package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

var testSchema = Schema{Languages: []Language{LanguageFR, LanguageNL}, Default: LanguageFR}

func TestSchemaDecodesLevelFromJSON(t *testing.T) {
	raw := `{
		"id": "lvl-1",
		"formation_id": "f-1",
		"display_order": 3,
		"sessions_per_week": 2,
		"image_url": " https://img/1.jpg ",
		"gallery_urls": ["https://img/a.jpg", "", "https://img/b.jpg"],
		"video_url": null,
		"name_fr": "Module trois",
		"name_nl": "",
		"goals_nl": "Doelen",
		"competencies_fr": ["Extinction", "Evacuation"],
		"competencies_nl": null
	}`
	var row Row
	require.NoError(t, json.Unmarshal([]byte(raw), &row))

	lvl := testSchema.Level(row)
	require.Equal(t, "lvl-1", lvl.ID)
	require.Equal(t, "f-1", lvl.FormationID)
	require.Equal(t, 3, lvl.DisplayOrder)
	require.Equal(t, 2, lvl.SessionsPerWeek)
	require.Equal(t, "https://img/1.jpg", lvl.ImageURL)
	require.Equal(t, []string{"https://img/a.jpg", "https://img/b.jpg"}, lvl.GalleryURLs)
	require.Empty(t, lvl.VideoURL)
	require.Equal(t, "Module trois", lvl.Text.Get("name", LanguageFR))
	require.Empty(t, lvl.Text.Get("name", LanguageNL))
	require.Equal(t, "Doelen", lvl.Text.Get("goals", LanguageNL))
	require.Equal(t, []string{"Extinction", "Evacuation"}, lvl.Lists.Get("competencies", LanguageFR))
	require.Nil(t, lvl.Lists.Get("competencies", LanguageNL))
}

func TestSchemaLegacyColumnFillsDefaultLanguage(t *testing.T) {
	row := Row{"id": "b-1", "name": "Brevet BEPS", "category": "Secourisme", "pdf_url": "https://docs/b1.pdf"}

	b := testSchema.Brevet(row)
	require.Equal(t, "Brevet BEPS", b.Text.Get("name", LanguageFR))
	require.Equal(t, "Secourisme", b.Text.Get("category", LanguageFR))
	require.Empty(t, b.Text.Get("category", LanguageNL))
}

func TestRowStringFormatsUUIDBytes(t *testing.T) {
	id := [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0}
	row := Row{"id": id}
	require.Equal(t, "12345678-9abc-def0-1234-56789abcdef0", row.String("id"))
}

func TestGalleryExtraUnknownTagBecomesTraining(t *testing.T) {
	extra := testSchema.GalleryExtra(Row{"id": "x", "image_url": "u", "category": "installations"})
	require.Equal(t, GalleryTagTraining, extra.Tag)

	extra = testSchema.GalleryExtra(Row{"id": "y", "image_url": "u", "category": "Equipment"})
	require.Equal(t, GalleryTagEquipment, extra.Tag)
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Firefighter ")
	require.NoError(t, err)
	require.Equal(t, CategoryFirefighter, c)

	_, err = ParseCategory("pilots")
	require.ErrorIs(t, err, ErrInvalidCategory)
}

func TestInquiryValidate(t *testing.T) {
	in := Inquiry{Name: " Jan ", Email: " jan@example.be ", Message: " Bonjour "}
	in.Normalize()
	require.NoError(t, in.Validate())

	in.Email = "not-an-email"
	require.ErrorIs(t, in.Validate(), ErrInvalidInquiry)

	in = Inquiry{Email: "jan@example.be", Message: "x"}
	require.ErrorIs(t, in.Validate(), ErrInvalidInquiry)
}
