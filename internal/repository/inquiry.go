package repository

import (
	"context"
	"fmt"

	"firetechnics/site/internal/domain"
)

// InquiryRepository archives contact inquiries.
type InquiryRepository interface {
	SaveInquiry(ctx context.Context, inquiry *domain.Inquiry, status string) error
}

type inquiryRepository struct {
	db Querier
}

func NewInquiryRepository(db Querier) InquiryRepository {
	return &inquiryRepository{
		db: db,
	}
}

// SaveInquiry upserts an inquiry keyed by its id, so redelivered messages only update the status.
func (r *inquiryRepository) SaveInquiry(ctx context.Context, inquiry *domain.Inquiry, status string) error {
	query := `
	INSERT INTO contact_inquiries (id, lang, status, submitted_at, data)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id)
	DO UPDATE SET status = $3, data = $5`
	_, err := r.db.Exec(ctx, query, inquiry.ID, inquiry.Lang.String(), status, inquiry.SubmittedAt, inquiry)
	if err != nil {
		return fmt.Errorf("failed to save inquiry: %w", err)
	}

	return nil
}
