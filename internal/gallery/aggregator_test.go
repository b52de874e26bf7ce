package gallery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"firetechnics/site/internal/catalog"
	"firetechnics/site/internal/catalog/catalogtest"
	"firetechnics/site/internal/domain"
	"firetechnics/site/internal/locale"
)

func source() *catalogtest.Source {
	return &catalogtest.Source{
		Formations: []domain.Formation{
			{ID: "2", Category: domain.CategoryFirefighter, ImageURL: "https://cdn/f2.jpg",
				Text: catalogtest.Text("name", "fr", "Pompiers", "name", "nl", "Brandweer")},
			{ID: "1", Category: domain.CategoryCivilian, ImageURL: "",
				Text: catalogtest.Text("name", "fr", "Sans image")},
			{ID: "3", Category: domain.CategoryCivilian, ImageURL: "https://cdn/f3.jpg",
				Text: catalogtest.Text("name", "fr", "Civil")},
		},
		Levels: []domain.Level{
			{ID: "l1", FormationID: "3", ImageURL: "https://cdn/l1.jpg",
				Text: catalogtest.Text("name", "fr", "Niveau 1", "description", "fr", "Bases")},
		},
		Extras: []domain.GalleryExtra{
			{ID: "e1", ImageURL: "https://cdn/e1.jpg", Tag: domain.GalleryTagEquipment,
				Text: catalogtest.Text("title", "fr", "Lances", "title", "nl", "Lansen")},
			{ID: "e2", ImageURL: " ", Tag: domain.GalleryTagTraining},
		},
	}
}

func imageIDs(images []domain.GalleryImage) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		out = append(out, img.ID)
	}
	return out
}

func TestListImagesOrderAndSkipping(t *testing.T) {
	store := catalog.NewStore(source(), 0, domain.LanguageFR)
	a := NewAggregator(store)

	res := a.ListImages(context.Background(), locale.NewContext(domain.LanguageNL, domain.LanguageFR))
	require.False(t, res.Degraded())
	require.Equal(t, []string{"formation-2", "formation-3", "level-l1", "extra-e1"}, imageIDs(res.Images))

	require.Equal(t, "Brandweer", res.Images[0].Title)
	require.Equal(t, domain.GalleryTagFirefighter, res.Images[0].Tag)
	require.Equal(t, "Civil", res.Images[1].Title)
	require.Equal(t, domain.GalleryTagTraining, res.Images[2].Tag)
	require.Equal(t, "Bases", res.Images[2].Description)
	require.Equal(t, "Lansen", res.Images[3].Title)
}

func TestListImagesDegradesPerSource(t *testing.T) {
	src := source()
	src.SetFail("ListAllLevels", errors.New("timeout"))
	a := NewAggregator(catalog.NewStore(src, 0, domain.LanguageFR))

	res := a.ListImages(context.Background(), locale.NewContext(domain.LanguageFR, domain.LanguageFR))
	require.True(t, res.Degraded())
	require.Equal(t, []string{"levels"}, res.Failed)
	require.Equal(t, []string{"formation-2", "formation-3", "extra-e1"}, imageIDs(res.Images))
}

func TestFilterByCategory(t *testing.T) {
	a := NewAggregator(catalog.NewStore(source(), 0, domain.LanguageFR))
	images := a.ListImages(context.Background(), locale.NewContext(domain.LanguageFR, domain.LanguageFR)).Images

	require.Equal(t, images, FilterByCategory(images, domain.GalleryTagAll))
	require.Equal(t, []string{"formation-3"}, imageIDs(FilterByCategory(images, domain.GalleryTagCivilian)))
	require.Equal(t, []string{"level-l1"}, imageIDs(FilterByCategory(images, domain.GalleryTagTraining)))
	require.Equal(t, []string{"extra-e1"}, imageIDs(FilterByCategory(images, domain.GalleryTagEquipment)))

	counts := Counts(images)
	require.Equal(t, 4, counts[domain.GalleryTagAll])
	require.Equal(t, 1, counts[domain.GalleryTagFirefighter])
}
