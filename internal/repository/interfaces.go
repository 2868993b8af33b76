package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medilink/pharmacare-api/internal/model"
	"github.com/medilink/pharmacare-api/pkg/geo"
)

// All repository interfaces in one file
type (
	UserRepository interface {
		// CreateWithProfile inserts the user and its role profile row
		// in one transaction.
		CreateWithProfile(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
	}

	// ProfileRepository resolves role profiles. Each role has its own
	// strongly typed lookup; dispatch happens on the Role enum.
	ProfileRepository interface {
		GetPatientByUserID(ctx context.Context, userID uuid.UUID) (*model.PatientProfile, error)
		GetDoctorByUserID(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error)
		GetPharmacistByUserID(ctx context.Context, userID uuid.UUID) (*model.PharmacistProfile, error)
		GetInsurerByUserID(ctx context.Context, userID uuid.UUID) (*model.InsurerProfile, error)
		GetPatientByID(ctx context.Context, id uuid.UUID) (*model.PatientProfile, error)
		GetDoctorDisplay(ctx context.Context, doctorID uuid.UUID) (*model.DoctorDisplay, error)
		SetPatientCoverage(ctx context.Context, patientID, companyID uuid.UUID, policyNumber string, coveragePercent float64) (bool, error)
		ClearPatientCoverage(ctx context.Context, patientID, companyID uuid.UUID) (bool, error)
	}

	CompanyRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.InsuranceCompany, error)
	}

	MedicineRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Medicine, error)
		// GetByIDs is the batched existence check used to validate a
		// medicine list before any mutation.
		GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Medicine, error)
	}

	PharmacyRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Pharmacy, error)
		// SearchStocking returns pharmacies inside the box carrying the
		// medicine with usable stock, optionally limited to an insurer's
		// network. The limit is the over-fetched candidate count.
		SearchStocking(ctx context.Context, medicineID uuid.UUID, box geo.Box, insuranceCompanyID *uuid.UUID, limit int) ([]*model.Pharmacy, error)
		// SearchStockingAll requires every listed medicine in stock at
		// the same pharmacy simultaneously.
		SearchStockingAll(ctx context.Context, medicineIDs []uuid.UUID, box geo.Box, limit int) ([]*model.Pharmacy, error)
		AddNetworkAgreement(ctx context.Context, agreement *model.NetworkAgreement) error
		RemoveNetworkAgreement(ctx context.Context, pharmacyID, companyID uuid.UUID) (bool, error)
	}

	PrescriptionRepository interface {
		CreateWithItems(ctx context.Context, p *model.Prescription, items []*model.PrescribedMedicine, evt *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
		// GetForPatient bakes ownership into the query; a foreign
		// prescription is indistinguishable from a missing one.
		GetForPatient(ctx context.Context, id, patientID uuid.UUID) (*model.Prescription, error)
		GetItems(ctx context.Context, prescriptionID uuid.UUID) ([]*model.PrescribedMedicineDetail, error)
		// Update rewrites the header and, when items is non-nil,
		// replaces the whole line-item list in the same transaction.
		Update(ctx context.Context, p *model.Prescription, items []*model.PrescribedMedicine, evt *model.OutboxEvent) error
		// FulfillIfActive conditionally completes the prescription;
		// false means it was not ACTIVE at write time.
		FulfillIfActive(ctx context.Context, id, pharmacistID uuid.UUID, at time.Time, evt *model.OutboxEvent) (bool, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID, page model.Pagination) ([]*model.Prescription, int, error)
		ListAll(ctx context.Context, page model.Pagination) ([]*model.Prescription, int, error)
		ListActive(ctx context.Context, page model.Pagination) ([]*model.Prescription, int, error)
	}

	OrderRepository interface {
		CreateWithItems(ctx context.Context, o *model.Order, items []*model.OrderItem, evt *model.OutboxEvent) error
		GetForPatient(ctx context.Context, id, patientID uuid.UUID) (*model.Order, error)
		GetForPharmacy(ctx context.Context, id, pharmacyID uuid.UUID) (*model.Order, error)
		GetItems(ctx context.Context, orderID uuid.UUID) ([]*model.OrderItemDetail, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID, page model.Pagination) ([]*model.Order, int, error)
		ListByPharmacy(ctx context.Context, pharmacyID uuid.UUID, page model.Pagination) ([]*model.Order, int, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, evt *model.OutboxEvent) error
	}

	ClaimRepository interface {
		// GenerateReport runs the whole aggregation inside one
		// transaction: it selects (and locks) the claimable
		// prescriptions, hands them to build, and persists the report,
		// its items and the outbox event build returns. An error from
		// build rolls everything back.
		GenerateReport(ctx context.Context, pharmacyID, companyID uuid.UUID, start, end time.Time,
			build func(rows []*model.ClaimableRow) (*model.ClaimReport, []*model.ClaimItem, *model.OutboxEvent, error)) (*model.ClaimReport, error)
		ListByCompany(ctx context.Context, companyID uuid.UUID, filters model.ClaimFilters, page model.Pagination) ([]*model.ClaimReport, int, error)
		GetDetailForCompany(ctx context.Context, id, companyID uuid.UUID) (*model.ClaimReportDetail, error)
		UpdateReportStatus(ctx context.Context, id, companyID uuid.UUID, status model.ClaimReportStatus) (bool, error)
		// GetItemForCompany authorizes through the parent report's
		// company, not a separate permission table.
		GetItemForCompany(ctx context.Context, itemID, companyID uuid.UUID) (*model.ClaimItem, error)
		UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status model.ClaimItemStatus, rejectionReason *string, evt *model.OutboxEvent) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	}
)
