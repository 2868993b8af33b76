package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medilink/pharmacare-api/internal/model"
)

func (r *profileRepository) GetPatientByUserID(ctx context.Context, userID uuid.UUID) (*model.PatientProfile, error) {
	query := `
		SELECT id, user_id, date_of_birth, phone, address,
			   insurance_company_id, policy_number, coverage_percent,
			   created_at, updated_at
		FROM patient_profiles
		WHERE user_id = $1
	`
	var profile model.PatientProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, translateError(err, "patient profile")
	}
	return &profile, nil
}

func (r *profileRepository) GetDoctorByUserID(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error) {
	query := `
		SELECT id, user_id, specialty, hospital_id, created_at, updated_at
		FROM doctor_profiles
		WHERE user_id = $1
	`
	var profile model.DoctorProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, translateError(err, "doctor profile")
	}
	return &profile, nil
}

func (r *profileRepository) GetPharmacistByUserID(ctx context.Context, userID uuid.UUID) (*model.PharmacistProfile, error) {
	query := `
		SELECT id, user_id, pharmacy_id, created_at, updated_at
		FROM pharmacist_profiles
		WHERE user_id = $1
	`
	var profile model.PharmacistProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, translateError(err, "pharmacist profile")
	}
	return &profile, nil
}

func (r *profileRepository) GetInsurerByUserID(ctx context.Context, userID uuid.UUID) (*model.InsurerProfile, error) {
	query := `
		SELECT id, user_id, insurance_company_id, created_at, updated_at
		FROM insurer_profiles
		WHERE user_id = $1
	`
	var profile model.InsurerProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, translateError(err, "insurer profile")
	}
	return &profile, nil
}

func (r *profileRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*model.PatientProfile, error) {
	query := `
		SELECT id, user_id, date_of_birth, phone, address,
			   insurance_company_id, policy_number, coverage_percent,
			   created_at, updated_at
		FROM patient_profiles
		WHERE id = $1
	`
	var profile model.PatientProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, translateError(err, "patient")
	}
	return &profile, nil
}

func (r *profileRepository) GetDoctorDisplay(ctx context.Context, doctorID uuid.UUID) (*model.DoctorDisplay, error) {
	query := `
		SELECT d.id, u.name, d.specialty, d.hospital_id
		FROM doctor_profiles d
		JOIN users u ON u.id = d.user_id
		WHERE d.id = $1
	`
	var display model.DoctorDisplay
	if err := r.db.GetContext(ctx, &display, query, doctorID); err != nil {
		return nil, translateError(err, "doctor")
	}
	return &display, nil
}

func (r *profileRepository) SetPatientCoverage(ctx context.Context, patientID, companyID uuid.UUID, policyNumber string, coveragePercent float64) (bool, error) {
	query := `
		UPDATE patient_profiles
		SET insurance_company_id = $1, policy_number = $2,
			coverage_percent = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := r.db.ExecContext(ctx, query, companyID, policyNumber, coveragePercent, time.Now(), patientID)
	if err != nil {
		return false, fmt.Errorf("failed to set patient coverage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// ClearPatientCoverage only clears coverage held with the given
// company; an insurer cannot remove another insurer's association.
func (r *profileRepository) ClearPatientCoverage(ctx context.Context, patientID, companyID uuid.UUID) (bool, error) {
	query := `
		UPDATE patient_profiles
		SET insurance_company_id = NULL, policy_number = NULL,
			coverage_percent = NULL, updated_at = $1
		WHERE id = $2 AND insurance_company_id = $3
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), patientID, companyID)
	if err != nil {
		return false, fmt.Errorf("failed to clear patient coverage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
