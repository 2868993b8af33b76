package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medilink/pharmacare-api/internal/model"
)

// GenerateReport is the single place a prescription is recognized as
// claimable. The selection, the report insert and the item inserts all
// share one transaction; the candidate rows are locked so a concurrent
// generation over an overlapping range waits and then sees the claim
// items already in place. The UNIQUE constraint on
// claim_items.prescription_id is the backstop either way.
func (r *claimRepository) GenerateReport(ctx context.Context, pharmacyID, companyID uuid.UUID, start, end time.Time,
	build func(rows []*model.ClaimableRow) (*model.ClaimReport, []*model.ClaimItem, *model.OutboxEvent, error)) (*model.ClaimReport, error) {

	var report *model.ClaimReport
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := selectClaimable(ctx, tx, pharmacyID, companyID, start, end)
		if err != nil {
			return err
		}

		var items []*model.ClaimItem
		var evt *model.OutboxEvent
		report, items, evt, err = build(rows)
		if err != nil {
			return err
		}

		report.ID = uuid.New()
		touch(&report.Base)

		query := `
			INSERT INTO claim_reports (
				id, pharmacy_id, insurance_company_id, start_date, end_date,
				status, total_amount, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		if _, err := tx.ExecContext(ctx, query,
			report.ID,
			report.PharmacyID,
			report.InsuranceCompanyID,
			report.StartDate,
			report.EndDate,
			report.Status,
			report.TotalAmount,
			report.CreatedAt,
			report.UpdatedAt,
		); err != nil {
			return translateError(err, "claim report")
		}

		itemQuery := `
			INSERT INTO claim_items (
				id, claim_report_id, prescription_id, status, claimed_amount,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		now := time.Now()
		for _, item := range items {
			item.ID = uuid.New()
			item.ClaimReportID = report.ID
			item.CreatedAt = now
			item.UpdatedAt = now
			if _, err := tx.ExecContext(ctx, itemQuery,
				item.ID,
				item.ClaimReportID,
				item.PrescriptionID,
				item.Status,
				item.ClaimedAmount,
				item.CreatedAt,
				item.UpdatedAt,
			); err != nil {
				return translateError(err, "claim item")
			}
		}

		return r.insertOutboxEvent(ctx, tx, evt)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func selectClaimable(ctx context.Context, tx *sqlx.Tx, pharmacyID, companyID uuid.UUID, start, end time.Time) ([]*model.ClaimableRow, error) {
	// Candidates first, locked; the cost aggregation cannot share a
	// statement with FOR UPDATE.
	candidateQuery := `
		SELECT p.id AS prescription_id, pp.coverage_percent
		FROM prescriptions p
		JOIN pharmacist_profiles w ON w.id = p.dispensed_by
		JOIN patient_profiles pp ON pp.id = p.patient_id
		WHERE w.pharmacy_id = $1
		AND p.status = $2
		AND p.dispensed_at BETWEEN $3 AND $4
		AND pp.insurance_company_id = $5
		AND pp.coverage_percent IS NOT NULL
		AND NOT EXISTS (
			SELECT 1 FROM claim_items ci WHERE ci.prescription_id = p.id
		)
		FOR UPDATE OF p
	`
	type candidate struct {
		PrescriptionID  uuid.UUID `db:"prescription_id"`
		CoveragePercent float64   `db:"coverage_percent"`
	}
	var candidates []*candidate
	if err := tx.SelectContext(ctx, &candidates, candidateQuery,
		pharmacyID, model.PrescriptionStatusCompleted, start, end, companyID,
	); err != nil {
		return nil, fmt.Errorf("failed to select claimable prescriptions: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.PrescriptionID
	}

	costQuery, args, err := sqlx.In(`
		SELECT pm.prescription_id, SUM(m.unit_price * pm.quantity_per_dose) AS line_cost
		FROM prescribed_medicines pm
		JOIN medicines m ON m.id = pm.medicine_id
		WHERE pm.prescription_id IN (?)
		GROUP BY pm.prescription_id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build cost query: %w", err)
	}
	costQuery = tx.Rebind(costQuery)

	type cost struct {
		PrescriptionID uuid.UUID `db:"prescription_id"`
		LineCost       float64   `db:"line_cost"`
	}
	var costs []*cost
	if err := tx.SelectContext(ctx, &costs, costQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to compute line costs: %w", err)
	}

	costByID := make(map[uuid.UUID]float64, len(costs))
	for _, c := range costs {
		costByID[c.PrescriptionID] = c.LineCost
	}

	rows := make([]*model.ClaimableRow, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, &model.ClaimableRow{
			PrescriptionID:  c.PrescriptionID,
			LineCost:        costByID[c.PrescriptionID],
			CoveragePercent: c.CoveragePercent,
		})
	}
	return rows, nil
}

func (r *claimRepository) ListByCompany(ctx context.Context, companyID uuid.UUID, filters model.ClaimFilters, page model.Pagination) ([]*model.ClaimReport, int, error) {
	where := ` WHERE insurance_company_id = $1`
	args := []interface{}{companyID}
	argCount := 2

	if filters.PharmacyID != nil {
		where += fmt.Sprintf(" AND pharmacy_id = $%d", argCount)
		args = append(args, *filters.PharmacyID)
		argCount++
	}
	if filters.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, *filters.Status)
		argCount++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM claim_reports`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count claim reports: %w", err)
	}

	query := `
		SELECT id, pharmacy_id, insurance_company_id, start_date, end_date,
			   status, total_amount, created_at, updated_at
		FROM claim_reports` + where + fmt.Sprintf(`
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, argCount, argCount+1)
	args = append(args, page.Limit, page.Offset())

	var reports []*model.ClaimReport
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list claim reports: %w", err)
	}
	return reports, total, nil
}

func (r *claimRepository) GetDetailForCompany(ctx context.Context, id, companyID uuid.UUID) (*model.ClaimReportDetail, error) {
	query := `
		SELECT cr.id, cr.pharmacy_id, cr.insurance_company_id, cr.start_date,
			   cr.end_date, cr.status, cr.total_amount, cr.created_at,
			   cr.updated_at, ph.name AS pharmacy_name
		FROM claim_reports cr
		JOIN pharmacies ph ON ph.id = cr.pharmacy_id
		WHERE cr.id = $1 AND cr.insurance_company_id = $2
	`
	var detail model.ClaimReportDetail
	if err := r.db.GetContext(ctx, &detail, query, id, companyID); err != nil {
		return nil, translateError(err, "claim report")
	}

	itemQuery := `
		SELECT id, claim_report_id, prescription_id, status, claimed_amount,
			   rejection_reason, created_at, updated_at
		FROM claim_items
		WHERE claim_report_id = $1
		ORDER BY created_at ASC
	`
	if err := r.db.SelectContext(ctx, &detail.Items, itemQuery, id); err != nil {
		return nil, fmt.Errorf("failed to get claim items: %w", err)
	}
	detail.ItemCount = len(detail.Items)
	return &detail, nil
}

func (r *claimRepository) UpdateReportStatus(ctx context.Context, id, companyID uuid.UUID, status model.ClaimReportStatus) (bool, error) {
	query := `
		UPDATE claim_reports
		SET status = $1, updated_at = $2
		WHERE id = $3 AND insurance_company_id = $4
	`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id, companyID)
	if err != nil {
		return false, fmt.Errorf("failed to update claim status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// GetItemForCompany authorizes through the parent report: the join is
// the ownership check.
func (r *claimRepository) GetItemForCompany(ctx context.Context, itemID, companyID uuid.UUID) (*model.ClaimItem, error) {
	query := `
		SELECT ci.id, ci.claim_report_id, ci.prescription_id, ci.status,
			   ci.claimed_amount, ci.rejection_reason, ci.created_at, ci.updated_at
		FROM claim_items ci
		JOIN claim_reports cr ON cr.id = ci.claim_report_id
		WHERE ci.id = $1 AND cr.insurance_company_id = $2
	`
	var item model.ClaimItem
	if err := r.db.GetContext(ctx, &item, query, itemID, companyID); err != nil {
		return nil, translateError(err, "claim item")
	}
	return &item, nil
}

func (r *claimRepository) UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status model.ClaimItemStatus, rejectionReason *string, evt *model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE claim_items
			SET status = $1, rejection_reason = $2, updated_at = $3
			WHERE id = $4
		`
		result, err := tx.ExecContext(ctx, query, status, rejectionReason, time.Now(), itemID)
		if err != nil {
			return fmt.Errorf("failed to update claim item: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("claim item not found")
		}

		return r.insertOutboxEvent(ctx, tx, evt)
	})
}
