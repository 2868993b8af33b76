package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/medilink/pharmacare-api/internal/model"
	"github.com/medilink/pharmacare-api/internal/repository"
	apperrors "github.com/medilink/pharmacare-api/pkg/errors"
)

// Service validates patient orders against their prescription and
// handles pharmacist-side status updates.
type Service struct {
	repo          repository.OrderRepository
	prescriptions repository.PrescriptionRepository
	pharmacies    repository.PharmacyRepository
	profiles      repository.ProfileRepository
}

func NewService(repo repository.OrderRepository, prescriptions repository.PrescriptionRepository, pharmacies repository.PharmacyRepository, profiles repository.ProfileRepository) *Service {
	return &Service{
		repo:          repo,
		prescriptions: prescriptions,
		pharmacies:    pharmacies,
		profiles:      profiles,
	}
}

func (s *Service) Create(ctx context.Context, caller model.Principal, req *model.CreateOrderRequest) (*model.OrderDetail, error) {
	patient, err := s.profiles.GetPatientByUserID(ctx, caller.UserID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.Forbidden("caller has no patient profile")
		}
		return nil, err
	}

	// Ownership is part of the lookup; a foreign prescription and a
	// missing one both read as forbidden so existence never leaks.
	prescription, err := s.prescriptions.GetForPatient(ctx, req.PrescriptionID, patient.ID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.Forbidden("prescription is not accessible")
		}
		return nil, err
	}

	if prescription.Status != model.PrescriptionStatusActive {
		return nil, apperrors.BadRequestf("Cannot order against a prescription with status: %s", prescription.Status)
	}

	pharmacy, err := s.pharmacies.Get(ctx, req.PharmacyID)
	if err != nil {
		return nil, err
	}

	// An order may only contain medicines the doctor actually
	// prescribed.
	prescribed, err := s.prescriptions.GetItems(ctx, prescription.ID)
	if err != nil {
		return nil, err
	}
	prescribedSet := make(map[uuid.UUID]struct{}, len(prescribed))
	for _, pm := range prescribed {
		prescribedSet[pm.MedicineID] = struct{}{}
	}

	items := make([]*model.OrderItem, len(req.Items))
	for i, in := range req.Items {
		if _, ok := prescribedSet[in.MedicineID]; !ok {
			return nil, apperrors.BadRequestf("medicine %s is not on the prescription", in.MedicineID)
		}
		items[i] = &model.OrderItem{
			MedicineID:     in.MedicineID,
			PrescriptionID: prescription.ID,
			Quantity:       in.Quantity,
		}
	}

	o := &model.Order{
		PatientID:  patient.ID,
		PharmacyID: pharmacy.ID,
		Status:     model.OrderStatusPending,
	}
	evt := model.NewOutboxEvent(model.EventOrderCreated, map[string]interface{}{
		"patient_id":  patient.ID,
		"pharmacy_id": pharmacy.ID,
	})
	if err := s.repo.CreateWithItems(ctx, o, items, evt); err != nil {
		return nil, err
	}

	detailItems, err := s.repo.GetItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return &model.OrderDetail{
		Order:        *o,
		PharmacyName: pharmacy.Name,
		Items:        detailItems,
	}, nil
}

func (s *Service) ListMine(ctx context.Context, caller model.Principal, page model.Pagination) ([]*model.Order, int, error) {
	page.Normalize()
	patient, err := s.profiles.GetPatientByUserID(ctx, caller.UserID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, 0, apperrors.Forbidden("caller has no patient profile")
		}
		return nil, 0, err
	}
	return s.repo.ListByPatient(ctx, patient.ID, page)
}

func (s *Service) GetMine(ctx context.Context, caller model.Principal, id uuid.UUID) (*model.OrderDetail, error) {
	patient, err := s.profiles.GetPatientByUserID(ctx, caller.UserID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.Forbidden("caller has no patient profile")
		}
		return nil, err
	}

	o, err := s.repo.GetForPatient(ctx, id, patient.ID)
	if err != nil {
		return nil, err
	}

	pharmacy, err := s.pharmacies.Get(ctx, o.PharmacyID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.GetItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return &model.OrderDetail{
		Order:        *o,
		PharmacyName: pharmacy.Name,
		Items:        items,
	}, nil
}

func (s *Service) ListPharmacyOrders(ctx context.Context, caller model.Principal, page model.Pagination) ([]*model.Order, int, error) {
	page.Normalize()
	pharmacist, err := s.profiles.GetPharmacistByUserID(ctx, caller.UserID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, 0, apperrors.Forbidden("caller has no pharmacist profile")
		}
		return nil, 0, err
	}
	return s.repo.ListByPharmacy(ctx, pharmacist.PharmacyID, page)
}

// GetPharmacyOrder hoists the shared prescription context to the top
// level: every item of one order references exactly one prescription.
func (s *Service) GetPharmacyOrder(ctx context.Context, caller model.Principal, id uuid.UUID) (*model.PharmacyOrderDetail, error) {
	pharmacist, err := s.profiles.GetPharmacistByUserID(ctx, caller.UserID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.Forbidden("caller has no pharmacist profile")
		}
		return nil, err
	}

	o, err := s.repo.GetForPharmacy(ctx, id, pharmacist.PharmacyID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}

	detail := &model.PharmacyOrderDetail{
		Order: *o,
		Items: items,
	}
	if len(items) > 0 {
		prescription, err := s.prescriptions.Get(ctx, items[0].PrescriptionID)
		if err != nil {
			return nil, err
		}
		detail.PrescriptionID = prescription.ID
		detail.HospitalID = prescription.HospitalID

		doctor, err := s.profiles.GetDoctorDisplay(ctx, prescription.DoctorID)
		if err != nil {
			return nil, err
		}
		detail.DoctorName = doctor.Name
		detail.DoctorSpecialty = doctor.Specialty
	}
	return detail, nil
}

// UpdateStatus verifies pharmacy ownership before writing. The target
// status only has to be a known pipeline state; ordering between
// states is deliberately unconstrained.
func (s *Service) UpdateStatus(ctx context.Context, caller model.Principal, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	pharmacist, err := s.profiles.GetPharmacistByUserID(ctx, caller.UserID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.Forbidden("caller has no pharmacist profile")
		}
		return nil, err
	}

	if !status.Valid() {
		return nil, apperrors.BadRequestf("unknown order status: %s", status)
	}

	o, err := s.repo.GetForPharmacy(ctx, id, pharmacist.PharmacyID)
	if err != nil {
		return nil, err
	}

	evt := model.NewOutboxEvent(model.EventOrderStatusChanged, map[string]interface{}{
		"order_id": o.ID,
		"from":     o.Status,
		"to":       status,
	})
	if err := s.repo.UpdateStatus(ctx, o.ID, status, evt); err != nil {
		return nil, err
	}
	o.Status = status
	return o, nil
}
