package order

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medilink/pharmacare-api/internal/model"
	"github.com/medilink/pharmacare-api/internal/repository"
	apperrors "github.com/medilink/pharmacare-api/pkg/errors"
	"github.com/medilink/pharmacare-api/pkg/geo"
)

type fakeOrderRepo struct {
	byID    map[uuid.UUID]*model.Order
	items   map[uuid.UUID][]*model.OrderItemDetail
	created []*model.Order
	events  []*model.OutboxEvent
}

func (f *fakeOrderRepo) CreateWithItems(_ context.Context, o *model.Order, items []*model.OrderItem, evt *model.OutboxEvent) error {
	o.ID = uuid.New()
	f.created = append(f.created, o)
	f.events = append(f.events, evt)
	f.byID[o.ID] = o
	details := make([]*model.OrderItemDetail, len(items))
	for i, item := range items {
		item.OrderID = o.ID
		details[i] = &model.OrderItemDetail{OrderItem: *item}
	}
	f.items[o.ID] = details
	return nil
}

func (f *fakeOrderRepo) GetForPatient(_ context.Context, id, patientID uuid.UUID) (*model.Order, error) {
	o, ok := f.byID[id]
	if !ok || o.PatientID != patientID {
		return nil, apperrors.NotFound("order")
	}
	return o, nil
}

func (f *fakeOrderRepo) GetForPharmacy(_ context.Context, id, pharmacyID uuid.UUID) (*model.Order, error) {
	o, ok := f.byID[id]
	if !ok || o.PharmacyID != pharmacyID {
		return nil, apperrors.NotFound("order")
	}
	return o, nil
}

func (f *fakeOrderRepo) GetItems(_ context.Context, orderID uuid.UUID) ([]*model.OrderItemDetail, error) {
	return f.items[orderID], nil
}

func (f *fakeOrderRepo) ListByPatient(_ context.Context, patientID uuid.UUID, _ model.Pagination) ([]*model.Order, int, error) {
	var out []*model.Order
	for _, o := range f.byID {
		if o.PatientID == patientID {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (f *fakeOrderRepo) ListByPharmacy(_ context.Context, pharmacyID uuid.UUID, _ model.Pagination) ([]*model.Order, int, error) {
	var out []*model.Order
	for _, o := range f.byID {
		if o.PharmacyID == pharmacyID {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus, evt *model.OutboxEvent) error {
	o, ok := f.byID[id]
	if !ok {
		return apperrors.NotFound("order")
	}
	o.Status = status
	f.events = append(f.events, evt)
	return nil
}

type fakePrescriptionRepo struct {
	repository.PrescriptionRepository

	byID  map[uuid.UUID]*model.Prescription
	items map[uuid.UUID][]*model.PrescribedMedicineDetail
}

func (f *fakePrescriptionRepo) Get(_ context.Context, id uuid.UUID) (*model.Prescription, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NotFound("prescription")
	}
	return p, nil
}

func (f *fakePrescriptionRepo) GetForPatient(_ context.Context, id, patientID uuid.UUID) (*model.Prescription, error) {
	p, ok := f.byID[id]
	if !ok || p.PatientID != patientID {
		return nil, apperrors.NotFound("prescription")
	}
	return p, nil
}

func (f *fakePrescriptionRepo) GetItems(_ context.Context, id uuid.UUID) ([]*model.PrescribedMedicineDetail, error) {
	return f.items[id], nil
}

func (f *fakePrescriptionRepo) FulfillIfActive(_ context.Context, _, _ uuid.UUID, _ time.Time, _ *model.OutboxEvent) (bool, error) {
	return false, nil
}

type fakePharmacyRepo struct {
	repository.PharmacyRepository

	byID map[uuid.UUID]*model.Pharmacy
}

func (f *fakePharmacyRepo) Get(_ context.Context, id uuid.UUID) (*model.Pharmacy, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NotFound("pharmacy")
	}
	return p, nil
}

func (f *fakePharmacyRepo) SearchStocking(_ context.Context, _ uuid.UUID, _ geo.Box, _ *uuid.UUID, _ int) ([]*model.Pharmacy, error) {
	return nil, nil
}

type fakeProfileRepo struct {
	repository.ProfileRepository

	patient    *model.PatientProfile
	pharmacist *model.PharmacistProfile
	doctor     *model.DoctorDisplay
}

func (f *fakeProfileRepo) GetPatientByUserID(_ context.Context, _ uuid.UUID) (*model.PatientProfile, error) {
	if f.patient == nil {
		return nil, apperrors.NotFound("patient profile")
	}
	return f.patient, nil
}

func (f *fakeProfileRepo) GetPharmacistByUserID(_ context.Context, _ uuid.UUID) (*model.PharmacistProfile, error) {
	if f.pharmacist == nil {
		return nil, apperrors.NotFound("pharmacist profile")
	}
	return f.pharmacist, nil
}

func (f *fakeProfileRepo) GetDoctorDisplay(_ context.Context, _ uuid.UUID) (*model.DoctorDisplay, error) {
	if f.doctor == nil {
		return nil, apperrors.NotFound("doctor")
	}
	return f.doctor, nil
}

type fixture struct {
	svc           *Service
	orders        *fakeOrderRepo
	prescriptions *fakePrescriptionRepo
	pharmacies    *fakePharmacyRepo
	profiles      *fakeProfileRepo
}

func newFixture() *fixture {
	orders := &fakeOrderRepo{byID: map[uuid.UUID]*model.Order{}, items: map[uuid.UUID][]*model.OrderItemDetail{}}
	prescriptions := &fakePrescriptionRepo{byID: map[uuid.UUID]*model.Prescription{}, items: map[uuid.UUID][]*model.PrescribedMedicineDetail{}}
	pharmacies := &fakePharmacyRepo{byID: map[uuid.UUID]*model.Pharmacy{}}
	profiles := &fakeProfileRepo{}
	return &fixture{
		svc:           NewService(orders, prescriptions, pharmacies, profiles),
		orders:        orders,
		prescriptions: prescriptions,
		pharmacies:    pharmacies,
		profiles:      profiles,
	}
}

func (fx *fixture) seedPrescription(status model.PrescriptionStatus, medicineIDs ...uuid.UUID) *model.Prescription {
	p := &model.Prescription{
		Base:      model.Base{ID: uuid.New()},
		PatientID: fx.profiles.patient.ID,
		Status:    status,
	}
	fx.prescriptions.byID[p.ID] = p
	for _, medID := range medicineIDs {
		fx.prescriptions.items[p.ID] = append(fx.prescriptions.items[p.ID], &model.PrescribedMedicineDetail{
			PrescribedMedicine: model.PrescribedMedicine{PrescriptionID: p.ID, MedicineID: medID},
		})
	}
	return p
}

func patientCaller() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.RolePatient}
}

func TestCreateOrder(t *testing.T) {
	fx := newFixture()
	fx.profiles.patient = &model.PatientProfile{Base: model.Base{ID: uuid.New()}}

	medID := uuid.New()
	p := fx.seedPrescription(model.PrescriptionStatusActive, medID)
	pharmacy := &model.Pharmacy{Base: model.Base{ID: uuid.New()}, Name: "Corner Pharmacy"}
	fx.pharmacies.byID[pharmacy.ID] = pharmacy

	detail, err := fx.svc.Create(context.Background(), patientCaller(), &model.CreateOrderRequest{
		PharmacyID:     pharmacy.ID,
		PrescriptionID: p.ID,
		Items:          []*model.OrderItemInput{{MedicineID: medID, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, detail.Status)
	assert.Equal(t, "Corner Pharmacy", detail.PharmacyName)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, p.ID, detail.Items[0].PrescriptionID)
	require.Len(t, fx.orders.events, 1)
	assert.Equal(t, model.EventOrderCreated, fx.orders.events[0].EventType)
}

func TestCreateOrderRejectsUnprescribedMedicine(t *testing.T) {
	fx := newFixture()
	fx.profiles.patient = &model.PatientProfile{Base: model.Base{ID: uuid.New()}}

	p := fx.seedPrescription(model.PrescriptionStatusActive, uuid.New())
	pharmacy := &model.Pharmacy{Base: model.Base{ID: uuid.New()}}
	fx.pharmacies.byID[pharmacy.ID] = pharmacy

	_, err := fx.svc.Create(context.Background(), patientCaller(), &model.CreateOrderRequest{
		PharmacyID:     pharmacy.ID,
		PrescriptionID: p.ID,
		Items:          []*model.OrderItemInput{{MedicineID: uuid.New(), Quantity: 1}},
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest))
	assert.Empty(t, fx.orders.created)
}

func TestCreateOrderForeignPrescription(t *testing.T) {
	fx := newFixture()
	fx.profiles.patient = &model.PatientProfile{Base: model.Base{ID: uuid.New()}}

	// Belongs to someone else; the lookup treats it as missing and the
	// caller sees forbidden either way.
	p := &model.Prescription{Base: model.Base{ID: uuid.New()}, PatientID: uuid.New(), Status: model.PrescriptionStatusActive}
	fx.prescriptions.byID[p.ID] = p

	_, err := fx.svc.Create(context.Background(), patientCaller(), &model.CreateOrderRequest{
		PharmacyID:     uuid.New(),
		PrescriptionID: p.ID,
		Items:          []*model.OrderItemInput{{MedicineID: uuid.New(), Quantity: 1}},
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestCreateOrderInactivePrescription(t *testing.T) {
	fx := newFixture()
	fx.profiles.patient = &model.PatientProfile{Base: model.Base{ID: uuid.New()}}

	medID := uuid.New()
	p := fx.seedPrescription(model.PrescriptionStatusCompleted, medID)

	_, err := fx.svc.Create(context.Background(), patientCaller(), &model.CreateOrderRequest{
		PharmacyID:     uuid.New(),
		PrescriptionID: p.ID,
		Items:          []*model.OrderItemInput{{MedicineID: medID, Quantity: 1}},
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest))
}

func TestUpdateOrderStatus(t *testing.T) {
	fx := newFixture()
	fx.profiles.pharmacist = &model.PharmacistProfile{Base: model.Base{ID: uuid.New()}, PharmacyID: uuid.New()}

	o := &model.Order{Base: model.Base{ID: uuid.New()}, PharmacyID: fx.profiles.pharmacist.PharmacyID, Status: model.OrderStatusPending}
	fx.orders.byID[o.ID] = o

	caller := model.Principal{UserID: uuid.New(), Role: model.RolePharmacist}
	out, err := fx.svc.UpdateStatus(context.Background(), caller, o.ID, model.OrderStatusReadyForPickup)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusReadyForPickup, out.Status)

	_, err = fx.svc.UpdateStatus(context.Background(), caller, o.ID, model.OrderStatus("SHIPPED"))
	assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest))
}

func TestUpdateOrderStatusWrongPharmacy(t *testing.T) {
	fx := newFixture()
	fx.profiles.pharmacist = &model.PharmacistProfile{Base: model.Base{ID: uuid.New()}, PharmacyID: uuid.New()}

	o := &model.Order{Base: model.Base{ID: uuid.New()}, PharmacyID: uuid.New(), Status: model.OrderStatusPending}
	fx.orders.byID[o.ID] = o

	caller := model.Principal{UserID: uuid.New(), Role: model.RolePharmacist}
	_, err := fx.svc.UpdateStatus(context.Background(), caller, o.ID, model.OrderStatusConfirmed)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestGetPharmacyOrderHoistsPrescriptionContext(t *testing.T) {
	fx := newFixture()
	fx.profiles.pharmacist = &model.PharmacistProfile{Base: model.Base{ID: uuid.New()}, PharmacyID: uuid.New()}
	fx.profiles.doctor = &model.DoctorDisplay{ID: uuid.New(), Name: "Dr. Osei", Specialty: "Cardiology"}

	p := &model.Prescription{Base: model.Base{ID: uuid.New()}, DoctorID: fx.profiles.doctor.ID, HospitalID: uuid.New(), Status: model.PrescriptionStatusActive}
	fx.prescriptions.byID[p.ID] = p

	o := &model.Order{Base: model.Base{ID: uuid.New()}, PharmacyID: fx.profiles.pharmacist.PharmacyID}
	fx.orders.byID[o.ID] = o
	fx.orders.items[o.ID] = []*model.OrderItemDetail{
		{OrderItem: model.OrderItem{OrderID: o.ID, PrescriptionID: p.ID, MedicineID: uuid.New()}},
	}

	caller := model.Principal{UserID: uuid.New(), Role: model.RolePharmacist}
	detail, err := fx.svc.GetPharmacyOrder(context.Background(), caller, o.ID)
	require.NoError(t, err)

	assert.Equal(t, p.ID, detail.PrescriptionID)
	assert.Equal(t, p.HospitalID, detail.HospitalID)
	assert.Equal(t, "Dr. Osei", detail.DoctorName)
	assert.Equal(t, "Cardiology", detail.DoctorSpecialty)
}
