package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"firetechnics/site/internal/catalog/catalogtest"
	"firetechnics/site/internal/domain"
	"firetechnics/site/internal/locale"
)

func groupFixture() []domain.Brevet {
	return []domain.Brevet{
		{ID: "b1", Text: catalogtest.Text(
			"name", "fr", "Équipier", "category", "fr", "Industrie", "category", "nl", "Industrie")},
		{ID: "b2", Text: catalogtest.Text(
			"name", "fr", "Chef", "name", "nl", "Leider", "category", "fr", "Industrie", "category", "nl", "Nijverheid")},
		{ID: "b3", Text: catalogtest.Text("name", "fr", "Secourisme")},
		{ID: "b4", Text: catalogtest.Text("name", "fr", "Alerte", "category", "fr", "Bureaux")},
	}
}

func labels(groups []CertificateGroup) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Label)
	}
	return out
}

func TestGroupCertificatesDefaultLanguage(t *testing.T) {
	lc := locale.NewContext(domain.LanguageFR, domain.LanguageFR)
	groups := GroupCertificates(groupFixture(), lc, "Autres")

	require.Equal(t, []string{"Bureaux", "Industrie", "Autres"}, labels(groups))
	require.True(t, groups[2].Other)

	industrie := groups[1].Certificates
	require.Len(t, industrie, 2)
	require.Equal(t, "b2", industrie[0].ID)
	require.Equal(t, "b1", industrie[1].ID)
}

func TestGroupCertificatesRegroupsOnLanguageChange(t *testing.T) {
	lc := locale.NewContext(domain.LanguageNL, domain.LanguageFR)
	groups := GroupCertificates(groupFixture(), lc, "Andere")

	require.Equal(t, []string{"Bureaux", "Industrie", "Nijverheid", "Andere"}, labels(groups))
	require.Equal(t, "b1", groups[1].Certificates[0].ID)
	require.Equal(t, "b2", groups[2].Certificates[0].ID)
	require.Equal(t, "b3", groups[3].Certificates[0].ID)
}

func TestGroupCertificatesByResolvedCategoryUsesStore(t *testing.T) {
	src := &catalogtest.Source{Brevets: groupFixture()}
	s := NewStore(src, 0, domain.LanguageFR)
	ctx := context.Background()

	fr, err := s.GroupCertificatesByResolvedCategory(ctx, locale.NewContext(domain.LanguageFR, domain.LanguageFR), "Autres")
	require.NoError(t, err)
	require.Len(t, fr, 3)

	nl, err := s.GroupCertificatesByResolvedCategory(ctx, locale.NewContext(domain.LanguageNL, domain.LanguageFR), "Andere")
	require.NoError(t, err)
	require.Len(t, nl, 4)
	require.Equal(t, 1, src.Calls("ListBrevets"))
}
