package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"firetechnics/site/internal/domain"
)

func TestContactInquiryTaskValue(t *testing.T) {
	in := &ContactInquiryTask{
		Inquiry: domain.Inquiry{
			ID:          "i1",
			Name:        "Jan",
			Email:       "jan@example.be",
			Message:     "Bonjour",
			Lang:        domain.LanguageNL,
			SubmittedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		},
		Attempt: 2,
	}
	raw, err := in.TaskValue()
	require.NoError(t, err)

	out, err := UnmarshalTask[*ContactInquiryTask](raw)
	require.NoError(t, err)
	require.Equal(t, in, out)
	require.Equal(t, TypeContactInquiry, out.TaskType())
}

func TestWarmCatalogTaskType(t *testing.T) {
	w := &WarmCatalogTask{Categories: []domain.Category{domain.CategoryCivilian}, Purge: true}
	require.Equal(t, TypeWarmCatalog, w.TaskType())
	require.Contains(t, Types, w.TaskType())
}
