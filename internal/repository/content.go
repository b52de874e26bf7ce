package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"firetechnics/site/internal/domain"
)

// Querier is the subset of *pgxpool.Pool the repositories use.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ContentRepository reads catalog records directly from Postgres.
type ContentRepository interface {
	ListFormations(ctx context.Context, category domain.Category) ([]domain.Formation, error)
	GetFormation(ctx context.Context, id string) (*domain.Formation, error)
	ListLevels(ctx context.Context, formationID string) ([]domain.Level, error)
	ListAllFormations(ctx context.Context) ([]domain.Formation, error)
	ListAllLevels(ctx context.Context) ([]domain.Level, error)
	GetBrevets(ctx context.Context, ids []string) ([]domain.Brevet, error)
	ListBrevets(ctx context.Context) ([]domain.Brevet, error)
	ListGalleryExtras(ctx context.Context) ([]domain.GalleryExtra, error)
}

type contentRepository struct {
	db     Querier
	schema domain.Schema
}

func NewContentRepository(db Querier, schema domain.Schema) ContentRepository {
	return &contentRepository{
		db:     db,
		schema: schema,
	}
}

// selectQuery builds SELECT * FROM table [WHERE col = $n ...] [ORDER BY ...].
// Columns named in where compare with =, except a trailing "[]" which compares with = ANY.
func selectQuery(table string, where []string, order []string) string {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(pgx.Identifier{table}.Sanitize())
	for i, col := range where {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		if name, ok := strings.CutSuffix(col, "[]"); ok {
			fmt.Fprintf(&b, "%s::text = ANY($%d)", pgx.Identifier{name}.Sanitize(), i+1)
			continue
		}
		fmt.Fprintf(&b, "%s::text = $%d", pgx.Identifier{col}.Sanitize(), i+1)
	}
	for i, col := range order {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(pgx.Identifier{col}.Sanitize())
	}
	return b.String()
}

func (r *contentRepository) rows(ctx context.Context, query string, args ...any) ([]domain.Row, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Row, 0, len(maps))
	for _, m := range maps {
		out = append(out, domain.Row(m))
	}
	return out, nil
}

func decodeAll[T any](rows []domain.Row, decode func(domain.Row) T) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, decode(r))
	}
	return out
}

func (r *contentRepository) ListFormations(ctx context.Context, category domain.Category) ([]domain.Formation, error) {
	rows, err := r.rows(ctx, selectQuery("formations", []string{"category"}, []string{"id"}), category.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list formations for %s: %w", category, err)
	}
	return decodeAll(rows, r.schema.Formation), nil
}

func (r *contentRepository) GetFormation(ctx context.Context, id string) (*domain.Formation, error) {
	rows, err := r.rows(ctx, selectQuery("formations", []string{"id"}, nil), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get formation %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	f := r.schema.Formation(rows[0])
	return &f, nil
}

func (r *contentRepository) ListLevels(ctx context.Context, formationID string) ([]domain.Level, error) {
	rows, err := r.rows(ctx, selectQuery("formation_levels", []string{"formation_id"}, []string{"display_order", "id"}), formationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list levels for formation %s: %w", formationID, err)
	}
	return decodeAll(rows, r.schema.Level), nil
}

func (r *contentRepository) ListAllFormations(ctx context.Context) ([]domain.Formation, error) {
	rows, err := r.rows(ctx, selectQuery("formations", nil, []string{"id"}))
	if err != nil {
		return nil, fmt.Errorf("failed to list formations: %w", err)
	}
	return decodeAll(rows, r.schema.Formation), nil
}

func (r *contentRepository) ListAllLevels(ctx context.Context) ([]domain.Level, error) {
	rows, err := r.rows(ctx, selectQuery("formation_levels", nil, []string{"formation_id", "display_order"}))
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	return decodeAll(rows, r.schema.Level), nil
}

func (r *contentRepository) GetBrevets(ctx context.Context, ids []string) ([]domain.Brevet, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.rows(ctx, selectQuery("brevets", []string{"id[]"}, nil), ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get %d brevets: %w", len(ids), err)
	}
	return decodeAll(rows, r.schema.Brevet), nil
}

func (r *contentRepository) ListBrevets(ctx context.Context) ([]domain.Brevet, error) {
	rows, err := r.rows(ctx, selectQuery("brevets", nil, []string{"id"}))
	if err != nil {
		return nil, fmt.Errorf("failed to list brevets: %w", err)
	}
	return decodeAll(rows, r.schema.Brevet), nil
}

func (r *contentRepository) ListGalleryExtras(ctx context.Context) ([]domain.GalleryExtra, error) {
	rows, err := r.rows(ctx, selectQuery("gallery_images", nil, []string{"id"}))
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery images: %w", err)
	}
	return decodeAll(rows, r.schema.GalleryExtra), nil
}
