package catalog

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"firetechnics/site/internal/domain"
	"firetechnics/site/internal/locale"
)

// CertificateGroup is one bucket of the certificate browser.
type CertificateGroup struct {
	Label        string
	Other        bool
	Certificates []domain.Brevet
}

// GroupCertificatesByResolvedCategory groups every certificate by its category resolved
// in the active language. Certificates without a category go to a trailing bucket
// labelled otherLabel.
func (s *Store) GroupCertificatesByResolvedCategory(ctx context.Context, lc locale.Context, otherLabel string) ([]CertificateGroup, error) {
	brevets, err := s.ListCertificates(ctx)
	if err != nil {
		return nil, err
	}
	return GroupCertificates(brevets, lc, otherLabel), nil
}

// GroupCertificates buckets brevets by resolved category label. Buckets coalesce by
// equality of the resolved strings. Buckets order by label, certificates by resolved name.
func GroupCertificates(brevets []domain.Brevet, lc locale.Context, otherLabel string) []CertificateGroup {
	c := collate.New(language.Make(lc.Active.String()))

	index := make(map[string]int)
	groups := make([]CertificateGroup, 0)
	otherIdx := -1

	for _, b := range brevets {
		label := strings.TrimSpace(lc.Text(b.Text, "category"))
		if label == "" {
			if otherIdx == -1 {
				groups = append(groups, CertificateGroup{Label: otherLabel, Other: true})
				otherIdx = len(groups) - 1
			}
			groups[otherIdx].Certificates = append(groups[otherIdx].Certificates, b)
			continue
		}
		i, ok := index[label]
		if !ok {
			groups = append(groups, CertificateGroup{Label: label})
			i = len(groups) - 1
			index[label] = i
		}
		groups[i].Certificates = append(groups[i].Certificates, b)
	}

	for gi := range groups {
		certs := groups[gi].Certificates
		sort.SliceStable(certs, func(i, j int) bool {
			a := lc.Text(certs[i].Text, "name")
			b := lc.Text(certs[j].Text, "name")
			if cmp := c.CompareString(a, b); cmp != 0 {
				return cmp < 0
			}
			return certs[i].ID < certs[j].ID
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Other != groups[j].Other {
			return groups[j].Other
		}
		return c.CompareString(groups[i].Label, groups[j].Label) < 0
	})

	return groups
}
