package claim

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/medilink/pharmacare-api/internal/model"
	"github.com/medilink/pharmacare-api/internal/repository"
	apperrors "github.com/medilink/pharmacare-api/pkg/errors"
)

// Service covers both sides of the claim workflow: pharmacists generate
// settlement reports, insurers review and adjudicate them and manage
// their network and patient coverage.
type Service struct {
	repo       repository.ClaimRepository
	profiles   repository.ProfileRepository
	pharmacies repository.PharmacyRepository
}

func NewService(repo repository.ClaimRepository, profiles repository.ProfileRepository, pharmacies repository.PharmacyRepository) *Service {
	return &Service{
		repo:       repo,
		profiles:   profiles,
		pharmacies: pharmacies,
	}
}

// GenerateReport aggregates the caller pharmacy's unclaimed completed
// prescriptions for one insurer over a date range into a new report.
// Selection and persistence share one transaction in the repository;
// the math here runs on the rows it locked.
func (s *Service) GenerateReport(ctx context.Context, caller model.Principal, req *model.GenerateClaimReportRequest) (*model.ClaimReport, error) {
	pharmacist, err := s.profiles.GetPharmacistByUserID(ctx, caller.UserID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.Forbidden("caller has no pharmacist profile")
		}
		return nil, err
	}

	return s.repo.GenerateReport(ctx, pharmacist.PharmacyID, req.InsuranceCompanyID, req.StartDate, req.EndDate,
		func(rows []*model.ClaimableRow) (*model.ClaimReport, []*model.ClaimItem, *model.OutboxEvent, error) {
			if len(rows) == 0 {
				return nil, nil, nil, apperrors.NotFound("claimable prescriptions")
			}

			items := make([]*model.ClaimItem, len(rows))
			var total float64
			for i, row := range rows {
				amount := row.LineCost * row.CoveragePercent
				items[i] = &model.ClaimItem{
					PrescriptionID: row.PrescriptionID,
					Status:         model.ClaimItemStatusPending,
					ClaimedAmount:  amount,
				}
				total += amount
			}
			// Round once, on the total. Rounding per item and summing
			// drifts from the sum-then-round figure the insurer audits.
			total = math.Round(total*100) / 100

			report := &model.ClaimReport{
				PharmacyID:         pharmacist.PharmacyID,
				InsuranceCompanyID: req.InsuranceCompanyID,
				StartDate:          req.StartDate,
				EndDate:            req.EndDate,
				Status:             model.ClaimReportStatusSubmitted,
				TotalAmount:        total,
			}
			evt := model.NewOutboxEvent(model.EventClaimSubmitted, map[string]interface{}{
				"pharmacy_id":          pharmacist.PharmacyID,
				"insurance_company_id": req.InsuranceCompanyID,
				"total_amount":         total,
				"item_count":           len(items),
			})
			return report, items, evt, nil
		})
}

func (s *Service) ListReports(ctx context.Context, caller model.Principal, filters model.ClaimFilters, page model.Pagination) ([]*model.ClaimReport, int, error) {
	page.Normalize()
	insurer, err := s.requireInsurer(ctx, caller)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.ListByCompany(ctx, insurer.InsuranceCompanyID, filters, page)
}

func (s *Service) GetReport(ctx context.Context, caller model.Principal, id uuid.UUID) (*model.ClaimReportDetail, error) {
	insurer, err := s.requireInsurer(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.repo.GetDetailForCompany(ctx, id, insurer.InsuranceCompanyID)
}

func (s *Service) UpdateReportStatus(ctx context.Context, caller model.Principal, id uuid.UUID, status model.ClaimReportStatus) (*model.ClaimReportDetail, error) {
	insurer, err := s.requireInsurer(ctx, caller)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateReportStatus(ctx, id, insurer.InsuranceCompanyID, status)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, apperrors.NotFound("claim report")
	}
	return s.repo.GetDetailForCompany(ctx, id, insurer.InsuranceCompanyID)
}

// AdjudicateItem sets one claim item's verdict. A rejection reason is
// required for REJECTED and discarded for anything else, so the stored
// reason can never contradict the status.
func (s *Service) AdjudicateItem(ctx context.Context, caller model.Principal, itemID uuid.UUID, req *model.AdjudicateClaimItemRequest) (*model.ClaimItem, error) {
	insurer, err := s.requireInsurer(ctx, caller)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetItemForCompany(ctx, itemID, insurer.InsuranceCompanyID)
	if err != nil {
		return nil, err
	}

	var reason *string
	if req.Status == model.ClaimItemStatusRejected {
		if req.RejectionReason == nil || *req.RejectionReason == "" {
			return nil, apperrors.BadRequest("rejection reason is required when rejecting a claim item")
		}
		reason = req.RejectionReason
	}

	evt := model.NewOutboxEvent(model.EventClaimItemAdjudicated, map[string]interface{}{
		"claim_item_id":   item.ID,
		"claim_report_id": item.ClaimReportID,
		"status":          req.Status,
	})
	if err := s.repo.UpdateItemStatus(ctx, item.ID, req.Status, reason, evt); err != nil {
		return nil, err
	}

	item.Status = req.Status
	item.RejectionReason = reason
	return item, nil
}

func (s *Service) AddNetworkPharmacy(ctx context.Context, caller model.Principal, pharmacyID uuid.UUID) (*model.NetworkAgreement, error) {
	insurer, err := s.requireInsurer(ctx, caller)
	if err != nil {
		return nil, err
	}

	if _, err := s.pharmacies.Get(ctx, pharmacyID); err != nil {
		return nil, err
	}

	agreement := &model.NetworkAgreement{
		PharmacyID:         pharmacyID,
		InsuranceCompanyID: insurer.InsuranceCompanyID,
	}
	if err := s.pharmacies.AddNetworkAgreement(ctx, agreement); err != nil {
		return nil, err
	}
	return agreement, nil
}

func (s *Service) RemoveNetworkPharmacy(ctx context.Context, caller model.Principal, pharmacyID uuid.UUID) error {
	insurer, err := s.requireInsurer(ctx, caller)
	if err != nil {
		return err
	}

	removed, err := s.pharmacies.RemoveNetworkAgreement(ctx, pharmacyID, insurer.InsuranceCompanyID)
	if err != nil {
		return err
	}
	if !removed {
		return apperrors.NotFound("network agreement")
	}
	return nil
}

func (s *Service) AddPatientCoverage(ctx context.Context, caller model.Principal, req *model.AddPatientCoverageRequest) error {
	insurer, err := s.requireInsurer(ctx, caller)
	if err != nil {
		return err
	}

	set, err := s.profiles.SetPatientCoverage(ctx, req.PatientID, insurer.InsuranceCompanyID, req.PolicyNumber, req.CoveragePercent)
	if err != nil {
		return err
	}
	if !set {
		return apperrors.NotFound("patient")
	}
	return nil
}

func (s *Service) RemovePatientCoverage(ctx context.Context, caller model.Principal, patientID uuid.UUID) error {
	insurer, err := s.requireInsurer(ctx, caller)
	if err != nil {
		return err
	}

	cleared, err := s.profiles.ClearPatientCoverage(ctx, patientID, insurer.InsuranceCompanyID)
	if err != nil {
		return err
	}
	if !cleared {
		return apperrors.NotFound("patient coverage")
	}
	return nil
}

func (s *Service) requireInsurer(ctx context.Context, caller model.Principal) (*model.InsurerProfile, error) {
	insurer, err := s.profiles.GetInsurerByUserID(ctx, caller.UserID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.Forbidden("caller has no insurer profile")
		}
		return nil, err
	}
	return insurer, nil
}
