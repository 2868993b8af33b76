package model

import (
	"time"

	"github.com/google/uuid"
)

// PatientProfile carries the optional insurance coverage association.
// A prescription is claimable only when InsuranceCompanyID matches the
// claiming insurer and CoveragePercent is non-null.
type PatientProfile struct {
	Base
	UserID             uuid.UUID  `db:"user_id" json:"user_id"`
	DateOfBirth        *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Phone              string     `db:"phone" json:"phone,omitempty"`
	Address            string     `db:"address" json:"address,omitempty"`
	InsuranceCompanyID *uuid.UUID `db:"insurance_company_id" json:"insurance_company_id,omitempty"`
	PolicyNumber       *string    `db:"policy_number" json:"policy_number,omitempty"`
	// CoveragePercent is a fraction in (0,1], not a 0-100 integer.
	CoveragePercent *float64 `db:"coverage_percent" json:"coverage_percent,omitempty"`
}

type DoctorProfile struct {
	Base
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	Specialty  string    `db:"specialty" json:"specialty"`
	HospitalID uuid.UUID `db:"hospital_id" json:"hospital_id"`
}

// DoctorDisplay is the presentation view of a doctor, joined with the
// user row for the name.
type DoctorDisplay struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Specialty  string    `db:"specialty" json:"specialty"`
	HospitalID uuid.UUID `db:"hospital_id" json:"hospital_id"`
}

type PharmacistProfile struct {
	Base
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	PharmacyID uuid.UUID `db:"pharmacy_id" json:"pharmacy_id"`
}

type InsurerProfile struct {
	Base
	UserID             uuid.UUID `db:"user_id" json:"user_id"`
	InsuranceCompanyID uuid.UUID `db:"insurance_company_id" json:"insurance_company_id"`
}

type InsuranceCompany struct {
	Base
	Name         string `db:"name" json:"name"`
	ContactEmail string `db:"contact_email" json:"contact_email"`
}
