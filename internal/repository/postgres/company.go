package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/medilink/pharmacare-api/internal/model"
)

func (r *companyRepository) Get(ctx context.Context, id uuid.UUID) (*model.InsuranceCompany, error) {
	query := `
		SELECT id, name, contact_email, created_at, updated_at
		FROM insurance_companies
		WHERE id = $1
	`
	var company model.InsuranceCompany
	if err := r.db.GetContext(ctx, &company, query, id); err != nil {
		return nil, translateError(err, "insurance company")
	}
	return &company, nil
}
