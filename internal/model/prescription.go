package model

import (
	"time"

	"github.com/google/uuid"
)

type PrescriptionStatus string

const (
	PrescriptionStatusActive    PrescriptionStatus = "ACTIVE"
	PrescriptionStatusCompleted PrescriptionStatus = "COMPLETED"
	PrescriptionStatusCancelled PrescriptionStatus = "CANCELLED"
)

// Prescription is one authored encounter. DispensedBy/DispensedAt are
// set if and only if Status is COMPLETED.
type Prescription struct {
	Base
	PatientID      uuid.UUID          `db:"patient_id" json:"patient_id"`
	DoctorID       uuid.UUID          `db:"doctor_id" json:"doctor_id"`
	HospitalID     uuid.UUID          `db:"hospital_id" json:"hospital_id"`
	Complaints     string             `db:"complaints" json:"complaints,omitempty"`
	Findings       string             `db:"findings" json:"findings,omitempty"`
	Investigations string             `db:"investigations" json:"investigations,omitempty"`
	Advice         string             `db:"advice" json:"advice,omitempty"`
	FollowUpDate   *time.Time         `db:"follow_up_date" json:"follow_up_date,omitempty"`
	Status         PrescriptionStatus `db:"status" json:"status"`
	DispensedBy    *uuid.UUID         `db:"dispensed_by" json:"dispensed_by,omitempty"`
	DispensedAt    *time.Time         `db:"dispensed_at" json:"dispensed_at,omitempty"`
}

// PrescribedMedicine is a prescription line item. The whole list is
// replaced wholesale when the medicine list is edited.
type PrescribedMedicine struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PrescriptionID  uuid.UUID `db:"prescription_id" json:"prescription_id"`
	MedicineID      uuid.UUID `db:"medicine_id" json:"medicine_id"`
	Route           string    `db:"route" json:"route"`
	Form            string    `db:"form" json:"form"`
	QuantityPerDose float64   `db:"quantity_per_dose" json:"quantity_per_dose"`
	Frequency       string    `db:"frequency" json:"frequency"`
	DurationDays    *int      `db:"duration_days" json:"duration_days,omitempty"`
	Instructions    string    `db:"instructions" json:"instructions"`
	TotalQuantity   *string   `db:"total_quantity" json:"total_quantity,omitempty"`
}

// PrescriptionDetail joins the header with its line items and the
// medicine names needed by the response.
type PrescriptionDetail struct {
	Prescription
	Medicines []*PrescribedMedicineDetail `json:"medicines"`
}

type PrescribedMedicineDetail struct {
	PrescribedMedicine
	MedicineName string  `db:"medicine_name" json:"medicine_name"`
	UnitPrice    float64 `db:"unit_price" json:"unit_price"`
}

type PrescribedMedicineInput struct {
	MedicineID      uuid.UUID `json:"medicine_id" binding:"required"`
	Route           string    `json:"route" binding:"required"`
	Form            string    `json:"form" binding:"required"`
	QuantityPerDose float64   `json:"quantity_per_dose" binding:"required,gt=0"`
	Frequency       string    `json:"frequency" binding:"required"`
	DurationDays    *int      `json:"duration_days" binding:"omitempty,gt=0"`
	Instructions    string    `json:"instructions"`
	TotalQuantity   *string   `json:"total_quantity"`
}

type CreatePrescriptionRequest struct {
	PatientID      uuid.UUID                  `json:"patient_id" binding:"required"`
	Complaints     string                     `json:"complaints"`
	Findings       string                     `json:"findings"`
	Investigations string                     `json:"investigations"`
	Advice         string                     `json:"advice"`
	FollowUpDate   *time.Time                 `json:"follow_up_date"`
	Medicines      []*PrescribedMedicineInput `json:"medicines" binding:"required,min=1,dive"`
}

// UpdatePrescriptionRequest patches clinical fields; a non-nil
// Medicines slice replaces the whole line-item list.
type UpdatePrescriptionRequest struct {
	Complaints     *string                    `json:"complaints"`
	Findings       *string                    `json:"findings"`
	Investigations *string                    `json:"investigations"`
	Advice         *string                    `json:"advice"`
	FollowUpDate   *time.Time                 `json:"follow_up_date"`
	Medicines      []*PrescribedMedicineInput `json:"medicines" binding:"omitempty,min=1,dive"`
}
