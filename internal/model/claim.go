package model

import (
	"time"

	"github.com/google/uuid"
)

type ClaimReportStatus string

const (
	ClaimReportStatusSubmitted   ClaimReportStatus = "SUBMITTED"
	ClaimReportStatusUnderReview ClaimReportStatus = "UNDER_REVIEW"
	ClaimReportStatusApproved    ClaimReportStatus = "APPROVED"
	ClaimReportStatusRejected    ClaimReportStatus = "REJECTED"
	ClaimReportStatusPaid        ClaimReportStatus = "PAID"
)

func (s ClaimReportStatus) Valid() bool {
	switch s {
	case ClaimReportStatusSubmitted, ClaimReportStatusUnderReview,
		ClaimReportStatusApproved, ClaimReportStatusRejected, ClaimReportStatusPaid:
		return true
	}
	return false
}

type ClaimItemStatus string

const (
	ClaimItemStatusPending  ClaimItemStatus = "PENDING"
	ClaimItemStatusApproved ClaimItemStatus = "APPROVED"
	ClaimItemStatusRejected ClaimItemStatus = "REJECTED"
)

// ClaimReport is one settlement batch between one pharmacy and one
// insurer for prescriptions dispensed within a date range. TotalAmount
// equals the sum of its items' claimed amounts at creation time.
type ClaimReport struct {
	Base
	PharmacyID         uuid.UUID         `db:"pharmacy_id" json:"pharmacy_id"`
	InsuranceCompanyID uuid.UUID         `db:"insurance_company_id" json:"insurance_company_id"`
	StartDate          time.Time         `db:"start_date" json:"start_date"`
	EndDate            time.Time         `db:"end_date" json:"end_date"`
	Status             ClaimReportStatus `db:"status" json:"status"`
	TotalAmount        float64           `db:"total_amount" json:"total_amount"`
}

// ClaimItem folds one prescription into a report. prescription_id is
// unique across all claim items: a prescription is claimed at most once.
// RejectionReason is non-null if and only if Status is REJECTED.
type ClaimItem struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	ClaimReportID   uuid.UUID       `db:"claim_report_id" json:"claim_report_id"`
	PrescriptionID  uuid.UUID       `db:"prescription_id" json:"prescription_id"`
	Status          ClaimItemStatus `db:"status" json:"status"`
	ClaimedAmount   float64         `db:"claimed_amount" json:"claimed_amount"`
	RejectionReason *string         `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// ClaimableRow is one claimable prescription as selected by the
// aggregation query: completed, dispensed by the pharmacy in range,
// insured by the target company and not yet claimed.
type ClaimableRow struct {
	PrescriptionID  uuid.UUID `db:"prescription_id"`
	LineCost        float64   `db:"line_cost"`
	CoveragePercent float64   `db:"coverage_percent"`
}

type ClaimReportDetail struct {
	ClaimReport
	PharmacyName string       `db:"pharmacy_name" json:"pharmacy_name"`
	Items        []*ClaimItem `json:"items"`
	ItemCount    int          `json:"item_count"`
}

type GenerateClaimReportRequest struct {
	InsuranceCompanyID uuid.UUID `json:"insurance_company_id" binding:"required"`
	StartDate          time.Time `json:"start_date" binding:"required"`
	EndDate            time.Time `json:"end_date" binding:"required,gtfield=StartDate"`
}

type UpdateClaimStatusRequest struct {
	Status ClaimReportStatus `json:"status" binding:"required,oneof=SUBMITTED UNDER_REVIEW APPROVED REJECTED PAID"`
}

type AdjudicateClaimItemRequest struct {
	Status          ClaimItemStatus `json:"status" binding:"required,oneof=PENDING APPROVED REJECTED"`
	RejectionReason *string         `json:"rejection_reason"`
}

type ClaimFilters struct {
	PharmacyID *uuid.UUID
	Status     *ClaimReportStatus
}

type AddNetworkPharmacyRequest struct {
	PharmacyID uuid.UUID `json:"pharmacy_id" binding:"required"`
}

// AddPatientCoverageRequest validates the coverage percentage at the
// data-entry boundary: a fraction in (0,1], never a 0-100 integer.
type AddPatientCoverageRequest struct {
	PatientID       uuid.UUID `json:"patient_id" binding:"required"`
	PolicyNumber    string    `json:"policy_number" binding:"required,notblank"`
	CoveragePercent float64   `json:"coverage_percent" binding:"required,gt=0,lte=1"`
}
