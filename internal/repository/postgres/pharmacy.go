package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medilink/pharmacare-api/internal/model"
	"github.com/medilink/pharmacare-api/pkg/geo"
)

func (r *pharmacyRepository) Get(ctx context.Context, id uuid.UUID) (*model.Pharmacy, error) {
	query := `
		SELECT id, name, address, phone, latitude, longitude, created_at, updated_at
		FROM pharmacies
		WHERE id = $1
	`
	var pharmacy model.Pharmacy
	if err := r.db.GetContext(ctx, &pharmacy, query, id); err != nil {
		return nil, translateError(err, "pharmacy")
	}
	return &pharmacy, nil
}

// SearchStocking applies the bounding-box pre-filter in SQL; callers
// re-check each candidate against the exact distance.
func (r *pharmacyRepository) SearchStocking(ctx context.Context, medicineID uuid.UUID, box geo.Box, insuranceCompanyID *uuid.UUID, limit int) ([]*model.Pharmacy, error) {
	query := `
		SELECT DISTINCT ph.id, ph.name, ph.address, ph.phone,
			   ph.latitude, ph.longitude, ph.created_at, ph.updated_at
		FROM pharmacies ph
		JOIN pharmacy_inventory pi ON pi.pharmacy_id = ph.id
		WHERE pi.medicine_id = $1
		AND pi.stock_status IN ('IN_STOCK', 'LOW_STOCK')
		AND ph.latitude BETWEEN $2 AND $3
		AND ph.longitude BETWEEN $4 AND $5
	`
	args := []interface{}{medicineID, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon}
	argCount := 6

	if insuranceCompanyID != nil {
		query += fmt.Sprintf(`
		AND EXISTS (
			SELECT 1 FROM network_agreements na
			WHERE na.pharmacy_id = ph.id AND na.insurance_company_id = $%d
		)`, argCount)
		args = append(args, *insuranceCompanyID)
		argCount++
	}

	query += fmt.Sprintf(" LIMIT $%d", argCount)
	args = append(args, limit)

	var pharmacies []*model.Pharmacy
	if err := r.db.SelectContext(ctx, &pharmacies, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search pharmacies: %w", err)
	}
	return pharmacies, nil
}

// SearchStockingAll requires the pharmacy to stock every listed
// medicine simultaneously: one EXISTS sub-condition per medicine, not
// a count shortcut.
func (r *pharmacyRepository) SearchStockingAll(ctx context.Context, medicineIDs []uuid.UUID, box geo.Box, limit int) ([]*model.Pharmacy, error) {
	if len(medicineIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ph.id, ph.name, ph.address, ph.phone,
			   ph.latitude, ph.longitude, ph.created_at, ph.updated_at
		FROM pharmacies ph
		WHERE ph.latitude BETWEEN $1 AND $2
		AND ph.longitude BETWEEN $3 AND $4
	`
	args := []interface{}{box.MinLat, box.MaxLat, box.MinLon, box.MaxLon}
	argCount := 5

	for _, medicineID := range medicineIDs {
		query += fmt.Sprintf(`
		AND EXISTS (
			SELECT 1 FROM pharmacy_inventory pi
			WHERE pi.pharmacy_id = ph.id
			AND pi.medicine_id = $%d
			AND pi.stock_status IN ('IN_STOCK', 'LOW_STOCK')
		)`, argCount)
		args = append(args, medicineID)
		argCount++
	}

	query += fmt.Sprintf(" LIMIT $%d", argCount)
	args = append(args, limit)

	var pharmacies []*model.Pharmacy
	if err := r.db.SelectContext(ctx, &pharmacies, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search pharmacies: %w", err)
	}
	return pharmacies, nil
}

func (r *pharmacyRepository) AddNetworkAgreement(ctx context.Context, agreement *model.NetworkAgreement) error {
	agreement.ID = uuid.New()
	agreement.CreatedAt = time.Now()

	query := `
		INSERT INTO network_agreements (id, pharmacy_id, insurance_company_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query,
		agreement.ID,
		agreement.PharmacyID,
		agreement.InsuranceCompanyID,
		agreement.CreatedAt,
	)
	// The (pharmacy_id, insurance_company_id) unique constraint resolves
	// concurrent adds; the violation surfaces as a conflict.
	return translateError(err, "network agreement")
}

func (r *pharmacyRepository) RemoveNetworkAgreement(ctx context.Context, pharmacyID, companyID uuid.UUID) (bool, error) {
	query := `
		DELETE FROM network_agreements
		WHERE pharmacy_id = $1 AND insurance_company_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, pharmacyID, companyID)
	if err != nil {
		return false, fmt.Errorf("failed to remove network agreement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
