package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medilink/pharmacare-api/internal/model"
)

func (r *medicineRepository) Get(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	query := `
		SELECT id, name, generic_name, manufacturer, unit_price, created_at, updated_at
		FROM medicines
		WHERE id = $1
	`
	var medicine model.Medicine
	if err := r.db.GetContext(ctx, &medicine, query, id); err != nil {
		return nil, translateError(err, "medicine")
	}
	return &medicine, nil
}

// GetByIDs is a single batched lookup; callers compare the returned
// count against the requested count to detect unknown IDs before any
// mutation.
func (r *medicineRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Medicine, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, name, generic_name, manufacturer, unit_price, created_at, updated_at
		FROM medicines
		WHERE id IN (?)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build medicine query: %w", err)
	}
	query = r.db.Rebind(query)

	var medicines []*model.Medicine
	if err := r.db.SelectContext(ctx, &medicines, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get medicines: %w", err)
	}
	return medicines, nil
}
