package prescription

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medilink/pharmacare-api/internal/model"
	"github.com/medilink/pharmacare-api/internal/repository"
	apperrors "github.com/medilink/pharmacare-api/pkg/errors"
)

// Service owns the prescription state machine: ACTIVE is the only
// mutable state, COMPLETED and CANCELLED are terminal.
type Service struct {
	repo      repository.PrescriptionRepository
	medicines repository.MedicineRepository
	profiles  repository.ProfileRepository
}

func NewService(repo repository.PrescriptionRepository, medicines repository.MedicineRepository, profiles repository.ProfileRepository) *Service {
	return &Service{
		repo:      repo,
		medicines: medicines,
		profiles:  profiles,
	}
}

func (s *Service) Create(ctx context.Context, caller model.Principal, req *model.CreatePrescriptionRequest) (*model.PrescriptionDetail, error) {
	doctor, err := s.profiles.GetDoctorByUserID(ctx, caller.UserID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.Forbidden("caller has no doctor profile")
		}
		return nil, err
	}

	if _, err := s.profiles.GetPatientByID(ctx, req.PatientID); err != nil {
		return nil, err
	}

	items, err := s.validateMedicines(ctx, req.Medicines)
	if err != nil {
		return nil, err
	}

	p := &model.Prescription{
		PatientID:      req.PatientID,
		DoctorID:       doctor.ID,
		HospitalID:     doctor.HospitalID,
		Complaints:     req.Complaints,
		Findings:       req.Findings,
		Investigations: req.Investigations,
		Advice:         req.Advice,
		FollowUpDate:   req.FollowUpDate,
		Status:         model.PrescriptionStatusActive,
	}

	evt := model.NewOutboxEvent(model.EventPrescriptionCreated, map[string]interface{}{
		"patient_id": req.PatientID,
		"doctor_id":  doctor.ID,
	})
	if err := s.repo.CreateWithItems(ctx, p, items, evt); err != nil {
		return nil, err
	}

	return s.detail(ctx, p)
}

func (s *Service) Update(ctx context.Context, caller model.Principal, id uuid.UUID, req *model.UpdatePrescriptionRequest) (*model.PrescriptionDetail, error) {
	p, err := s.authorizeDoctorMutation(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if req.Complaints != nil {
		p.Complaints = *req.Complaints
	}
	if req.Findings != nil {
		p.Findings = *req.Findings
	}
	if req.Investigations != nil {
		p.Investigations = *req.Investigations
	}
	if req.Advice != nil {
		p.Advice = *req.Advice
	}
	if req.FollowUpDate != nil {
		p.FollowUpDate = req.FollowUpDate
	}

	// Validate the replacement medicine list before any mutation: one
	// unknown ID aborts the whole update with the prior items intact.
	var items []*model.PrescribedMedicine
	if req.Medicines != nil {
		items, err = s.validateMedicines(ctx, req.Medicines)
		if err != nil {
			return nil, err
		}
	}

	evt := model.NewOutboxEvent(model.EventPrescriptionUpdated, map[string]interface{}{
		"prescription_id": p.ID,
	})
	if err := s.repo.Update(ctx, p, items, evt); err != nil {
		return nil, err
	}

	return s.detail(ctx, p)
}

func (s *Service) Cancel(ctx context.Context, caller model.Principal, id uuid.UUID) (*model.Prescription, error) {
	p, err := s.authorizeDoctorMutation(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	p.Status = model.PrescriptionStatusCancelled
	evt := model.NewOutboxEvent(model.EventPrescriptionCancelled, map[string]interface{}{
		"prescription_id": p.ID,
	})
	if err := s.repo.Update(ctx, p, nil, evt); err != nil {
		return nil, err
	}
	return p, nil
}

// Fulfill marks the prescription dispensed. The conditional write in
// the repository guarantees at most one winner when two pharmacists
// race; the loser gets the wrong-status error with the actual status.
func (s *Service) Fulfill(ctx context.Context, caller model.Principal, id uuid.UUID) (*model.Prescription, error) {
	pharmacist, err := s.profiles.GetPharmacistByUserID(ctx, caller.UserID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.Forbidden("caller has no pharmacist profile")
		}
		return nil, err
	}

	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}

	now := time.Now()
	evt := model.NewOutboxEvent(model.EventPrescriptionFulfilled, map[string]interface{}{
		"prescription_id": id,
		"dispensed_by":    pharmacist.ID,
	})
	fulfilled, err := s.repo.FulfillIfActive(ctx, id, pharmacist.ID, now, evt)
	if err != nil {
		return nil, err
	}
	if !fulfilled {
		current, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.BadRequestf("Cannot fulfill a prescription with status: %s", current.Status)
	}

	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, caller model.Principal, id uuid.UUID) (*model.PrescriptionDetail, error) {
	var p *model.Prescription
	var err error

	switch caller.Role {
	case model.RolePatient:
		patient, perr := s.profiles.GetPatientByUserID(ctx, caller.UserID)
		if perr != nil {
			if apperrors.IsKind(perr, apperrors.KindNotFound) {
				return nil, apperrors.Forbidden("caller has no patient profile")
			}
			return nil, perr
		}
		p, err = s.repo.GetForPatient(ctx, id, patient.ID)
	case model.RoleDoctor, model.RoleAdmin:
		p, err = s.repo.Get(ctx, id)
	case model.RolePharmacist:
		// The fulfillment view omits terminal prescriptions.
		p, err = s.repo.Get(ctx, id)
		if err == nil && p.Status != model.PrescriptionStatusActive {
			return nil, apperrors.NotFound("prescription")
		}
	default:
		return nil, apperrors.Forbidden("role cannot read prescriptions")
	}
	if err != nil {
		return nil, err
	}

	return s.detail(ctx, p)
}

func (s *Service) List(ctx context.Context, caller model.Principal, page model.Pagination) ([]*model.Prescription, int, error) {
	page.Normalize()

	switch caller.Role {
	case model.RolePatient:
		patient, err := s.profiles.GetPatientByUserID(ctx, caller.UserID)
		if err != nil {
			if apperrors.IsKind(err, apperrors.KindNotFound) {
				return nil, 0, apperrors.Forbidden("caller has no patient profile")
			}
			return nil, 0, err
		}
		return s.repo.ListByPatient(ctx, patient.ID, page)
	case model.RoleDoctor, model.RoleAdmin:
		return s.repo.ListAll(ctx, page)
	case model.RolePharmacist:
		return s.repo.ListActive(ctx, page)
	default:
		return nil, 0, apperrors.Forbidden("role cannot list prescriptions")
	}
}

// authorizeDoctorMutation loads the prescription and enforces the
// mutation guards shared by update and cancel: authoring doctor only,
// ACTIVE only.
func (s *Service) authorizeDoctorMutation(ctx context.Context, caller model.Principal, id uuid.UUID) (*model.Prescription, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	doctor, err := s.profiles.GetDoctorByUserID(ctx, caller.UserID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.Forbidden("caller has no doctor profile")
		}
		return nil, err
	}
	if p.DoctorID != doctor.ID {
		return nil, apperrors.Forbidden("prescription belongs to another doctor")
	}

	if p.Status != model.PrescriptionStatusActive {
		return nil, apperrors.BadRequestf("Cannot modify a prescription with status: %s", p.Status)
	}
	return p, nil
}

// validateMedicines runs the batched existence check and builds the
// line items. A single unknown ID fails the whole list.
func (s *Service) validateMedicines(ctx context.Context, inputs []*model.PrescribedMedicineInput) ([]*model.PrescribedMedicine, error) {
	if len(inputs) == 0 {
		return nil, apperrors.BadRequest("medicine list cannot be empty")
	}

	ids := make([]uuid.UUID, len(inputs))
	for i, in := range inputs {
		ids[i] = in.MedicineID
	}

	found, err := s.medicines.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]struct{}, len(found))
	for _, m := range found {
		known[m.ID] = struct{}{}
	}
	for _, in := range inputs {
		if _, ok := known[in.MedicineID]; !ok {
			return nil, apperrors.BadRequestf("unknown medicine id: %s", in.MedicineID)
		}
	}

	items := make([]*model.PrescribedMedicine, len(inputs))
	for i, in := range inputs {
		items[i] = &model.PrescribedMedicine{
			MedicineID:      in.MedicineID,
			Route:           in.Route,
			Form:            in.Form,
			QuantityPerDose: in.QuantityPerDose,
			Frequency:       in.Frequency,
			DurationDays:    in.DurationDays,
			Instructions:    in.Instructions,
			TotalQuantity:   in.TotalQuantity,
		}
	}
	return items, nil
}

func (s *Service) detail(ctx context.Context, p *model.Prescription) (*model.PrescriptionDetail, error) {
	items, err := s.repo.GetItems(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &model.PrescriptionDetail{
		Prescription: *p,
		Medicines:    items,
	}, nil
}
