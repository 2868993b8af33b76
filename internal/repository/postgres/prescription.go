package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medilink/pharmacare-api/internal/model"
)

const prescriptionColumns = `
	id, patient_id, doctor_id, hospital_id, complaints, findings,
	investigations, advice, follow_up_date, status, dispensed_by,
	dispensed_at, created_at, updated_at
`

func (r *prescriptionRepository) CreateWithItems(ctx context.Context, p *model.Prescription, items []*model.PrescribedMedicine, evt *model.OutboxEvent) error {
	p.ID = uuid.New()
	touch(&p.Base)

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO prescriptions (
				id, patient_id, doctor_id, hospital_id, complaints, findings,
				investigations, advice, follow_up_date, status,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`
		if _, err := tx.ExecContext(ctx, query,
			p.ID,
			p.PatientID,
			p.DoctorID,
			p.HospitalID,
			p.Complaints,
			p.Findings,
			p.Investigations,
			p.Advice,
			p.FollowUpDate,
			p.Status,
			p.CreatedAt,
			p.UpdatedAt,
		); err != nil {
			return translateError(err, "prescription")
		}

		if err := insertPrescribedMedicines(ctx, tx, p.ID, items); err != nil {
			return err
		}

		return r.insertOutboxEvent(ctx, tx, evt)
	})
}

func insertPrescribedMedicines(ctx context.Context, tx *sqlx.Tx, prescriptionID uuid.UUID, items []*model.PrescribedMedicine) error {
	query := `
		INSERT INTO prescribed_medicines (
			id, prescription_id, medicine_id, route, form, quantity_per_dose,
			frequency, duration_days, instructions, total_quantity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, item := range items {
		item.ID = uuid.New()
		item.PrescriptionID = prescriptionID
		if _, err := tx.ExecContext(ctx, query,
			item.ID,
			item.PrescriptionID,
			item.MedicineID,
			item.Route,
			item.Form,
			item.QuantityPerDose,
			item.Frequency,
			item.DurationDays,
			item.Instructions,
			item.TotalQuantity,
		); err != nil {
			return translateError(err, "prescribed medicine")
		}
	}
	return nil
}

func (r *prescriptionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE id = $1`
	var p model.Prescription
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, translateError(err, "prescription")
	}
	return &p, nil
}

// GetForPatient folds ownership into the lookup so a foreign
// prescription reads the same as a missing one.
func (r *prescriptionRepository) GetForPatient(ctx context.Context, id, patientID uuid.UUID) (*model.Prescription, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE id = $1 AND patient_id = $2`
	var p model.Prescription
	if err := r.db.GetContext(ctx, &p, query, id, patientID); err != nil {
		return nil, translateError(err, "prescription")
	}
	return &p, nil
}

func (r *prescriptionRepository) GetItems(ctx context.Context, prescriptionID uuid.UUID) ([]*model.PrescribedMedicineDetail, error) {
	query := `
		SELECT pm.id, pm.prescription_id, pm.medicine_id, pm.route, pm.form,
			   pm.quantity_per_dose, pm.frequency, pm.duration_days,
			   pm.instructions, pm.total_quantity,
			   m.name AS medicine_name, m.unit_price
		FROM prescribed_medicines pm
		JOIN medicines m ON m.id = pm.medicine_id
		WHERE pm.prescription_id = $1
	`
	var items []*model.PrescribedMedicineDetail
	if err := r.db.SelectContext(ctx, &items, query, prescriptionID); err != nil {
		return nil, fmt.Errorf("failed to get prescribed medicines: %w", err)
	}
	return items, nil
}

// Update rewrites the header; a non-nil items slice replaces the whole
// line-item list (delete-all then recreate) in the same transaction.
func (r *prescriptionRepository) Update(ctx context.Context, p *model.Prescription, items []*model.PrescribedMedicine, evt *model.OutboxEvent) error {
	p.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE prescriptions
			SET complaints = $1, findings = $2, investigations = $3,
				advice = $4, follow_up_date = $5, status = $6, updated_at = $7
			WHERE id = $8
		`
		result, err := tx.ExecContext(ctx, query,
			p.Complaints,
			p.Findings,
			p.Investigations,
			p.Advice,
			p.FollowUpDate,
			p.Status,
			p.UpdatedAt,
			p.ID,
		)
		if err != nil {
			return translateError(err, "prescription")
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("prescription not found")
		}

		if items != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM prescribed_medicines WHERE prescription_id = $1`, p.ID); err != nil {
				return fmt.Errorf("failed to delete prescribed medicines: %w", err)
			}
			if err := insertPrescribedMedicines(ctx, tx, p.ID, items); err != nil {
				return err
			}
		}

		return r.insertOutboxEvent(ctx, tx, evt)
	})
}

// FulfillIfActive completes the prescription only if it is still
// ACTIVE at write time: the conditional UPDATE makes the status check
// and the status write one atomic statement, so two racing pharmacists
// cannot both win.
func (r *prescriptionRepository) FulfillIfActive(ctx context.Context, id, pharmacistID uuid.UUID, at time.Time, evt *model.OutboxEvent) (bool, error) {
	var fulfilled bool
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE prescriptions
			SET status = $1, dispensed_by = $2, dispensed_at = $3, updated_at = $4
			WHERE id = $5 AND status = $6
		`
		result, err := tx.ExecContext(ctx, query,
			model.PrescriptionStatusCompleted,
			pharmacistID,
			at,
			at,
			id,
			model.PrescriptionStatusActive,
		)
		if err != nil {
			return translateError(err, "prescription")
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return nil
		}

		fulfilled = true
		return r.insertOutboxEvent(ctx, tx, evt)
	})
	return fulfilled, err
}

func (r *prescriptionRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, page model.Pagination) ([]*model.Prescription, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM prescriptions WHERE patient_id = $1`, patientID); err != nil {
		return nil, 0, fmt.Errorf("failed to count prescriptions: %w", err)
	}

	query := `SELECT ` + prescriptionColumns + `
		FROM prescriptions
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	var prescriptions []*model.Prescription
	if err := r.db.SelectContext(ctx, &prescriptions, query, patientID, page.Limit, page.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return prescriptions, total, nil
}

func (r *prescriptionRepository) ListAll(ctx context.Context, page model.Pagination) ([]*model.Prescription, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM prescriptions`); err != nil {
		return nil, 0, fmt.Errorf("failed to count prescriptions: %w", err)
	}

	query := `SELECT ` + prescriptionColumns + `
		FROM prescriptions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	var prescriptions []*model.Prescription
	if err := r.db.SelectContext(ctx, &prescriptions, query, page.Limit, page.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return prescriptions, total, nil
}

// ListActive is the pharmacist fulfillment view; terminal prescriptions
// are omitted.
func (r *prescriptionRepository) ListActive(ctx context.Context, page model.Pagination) ([]*model.Prescription, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM prescriptions WHERE status = $1`, model.PrescriptionStatusActive); err != nil {
		return nil, 0, fmt.Errorf("failed to count prescriptions: %w", err)
	}

	query := `SELECT ` + prescriptionColumns + `
		FROM prescriptions
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	var prescriptions []*model.Prescription
	if err := r.db.SelectContext(ctx, &prescriptions, query, model.PrescriptionStatusActive, page.Limit, page.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return prescriptions, total, nil
}
