package prescription

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
)

type fakePrescriptionRepo struct {
	repository.PrescriptionRepository

	byID        map[uuid.UUID]*model.Prescription
	items       map[uuid.UUID][]*model.PrescribedMedicineDetail
	created     []*model.Prescription
	updated     []*model.Prescription
	events      []*model.OutboxEvent
	fulfilledOK bool
}

func (f *fakePrescriptionRepo) CreateWithItems(_ context.Context, p *model.Prescription, items []*model.PrescribedMedicine, evt *model.OutboxEvent) error {
	p.ID = uuid.New()
	f.created = append(f.created, p)
	f.events = append(f.events, evt)
	if f.byID == nil {
		f.byID = map[uuid.UUID]*model.Prescription{}
	}
	f.byID[p.ID] = p
	return nil
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

func (f *fakePrescriptionRepo) Update(_ context.Context, p *model.Prescription, _ []*model.PrescribedMedicine, evt *model.OutboxEvent) error {
	f.updated = append(f.updated, p)
	f.events = append(f.events, evt)
	f.byID[p.ID] = p
	return nil
}

func (f *fakePrescriptionRepo) FulfillIfActive(_ context.Context, id, pharmacistID uuid.UUID, at time.Time, evt *model.OutboxEvent) (bool, error) {
	if !f.fulfilledOK {
		return false, nil
	}
	p := f.byID[id]
	p.Status = model.PrescriptionStatusCompleted
	p.DispensedBy = &pharmacistID
	p.DispensedAt = &at
	f.events = append(f.events, evt)
	return true, nil
}

type fakeMedicineRepo struct {
	repository.MedicineRepository

	known map[uuid.UUID]*model.Medicine
}

func (f *fakeMedicineRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*model.Medicine, error) {
	var out []*model.Medicine
	for _, id := range ids {
		if m, ok := f.known[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeProfileRepo struct {
	repository.ProfileRepository

	doctor     *model.DoctorProfile
	patient    *model.PatientProfile
	pharmacist *model.PharmacistProfile
}

func (f *fakeProfileRepo) GetDoctorByUserID(_ context.Context, _ uuid.UUID) (*model.DoctorProfile, error) {
	if f.doctor == nil {
		return nil, apperrors.NotFound("doctor profile")
	}
	return f.doctor, nil
}

func (f *fakeProfileRepo) GetPatientByUserID(_ context.Context, _ uuid.UUID) (*model.PatientProfile, error) {
	if f.patient == nil {
		return nil, apperrors.NotFound("patient profile")
	}
	return f.patient, nil
}

func (f *fakeProfileRepo) GetPatientByID(_ context.Context, id uuid.UUID) (*model.PatientProfile, error) {
	if f.patient == nil || f.patient.ID != id {
		return nil, apperrors.NotFound("patient")
	}
	return f.patient, nil
}

func (f *fakeProfileRepo) GetPharmacistByUserID(_ context.Context, _ uuid.UUID) (*model.PharmacistProfile, error) {
	if f.pharmacist == nil {
		return nil, apperrors.NotFound("pharmacist profile")
	}
	return f.pharmacist, nil
}

func newTestFixture() (*Service, *fakePrescriptionRepo, *fakeMedicineRepo, *fakeProfileRepo) {
	repo := &fakePrescriptionRepo{byID: map[uuid.UUID]*model.Prescription{}, items: map[uuid.UUID][]*model.PrescribedMedicineDetail{}}
	medicines := &fakeMedicineRepo{known: map[uuid.UUID]*model.Medicine{}}
	profiles := &fakeProfileRepo{}
	return NewService(repo, medicines, profiles), repo, medicines, profiles
}

func doctorCaller() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.RoleDoctor}
}

func TestCreatePrescription(t *testing.T) {
	svc, repo, medicines, profiles := newTestFixture()

	medID := uuid.New()
	medicines.known[medID] = &model.Medicine{Base: model.Base{ID: medID}, Name: "Amoxicillin"}
	profiles.doctor = &model.DoctorProfile{Base: model.Base{ID: uuid.New()}, HospitalID: uuid.New()}
	profiles.patient = &model.PatientProfile{Base: model.Base{ID: uuid.New()}}

	req := &model.CreatePrescriptionRequest{
		PatientID:  profiles.patient.ID,
		Complaints: "fever",
		Medicines: []*model.PrescribedMedicineInput{
			{MedicineID: medID, Route: "oral", Form: "tablet", QuantityPerDose: 1, Frequency: "BID"},
		},
	}

	detail, err := svc.Create(context.Background(), doctorCaller(), req)
	require.NoError(t, err)

	assert.Equal(t, model.PrescriptionStatusActive, detail.Status)
	assert.Equal(t, profiles.doctor.ID, detail.DoctorID)
	assert.Equal(t, profiles.doctor.HospitalID, detail.HospitalID)
	require.Len(t, repo.events, 1)
	assert.Equal(t, model.EventPrescriptionCreated, repo.events[0].EventType)
}

func TestCreatePrescriptionWithoutDoctorProfile(t *testing.T) {
	svc, _, _, profiles := newTestFixture()
	profiles.patient = &model.PatientProfile{Base: model.Base{ID: uuid.New()}}

	_, err := svc.Create(context.Background(), doctorCaller(), &model.CreatePrescriptionRequest{
		PatientID: profiles.patient.ID,
		Medicines: []*model.PrescribedMedicineInput{{MedicineID: uuid.New()}},
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestCreatePrescriptionUnknownMedicine(t *testing.T) {
	svc, repo, _, profiles := newTestFixture()
	profiles.doctor = &model.DoctorProfile{Base: model.Base{ID: uuid.New()}}
	profiles.patient = &model.PatientProfile{Base: model.Base{ID: uuid.New()}}

	_, err := svc.Create(context.Background(), doctorCaller(), &model.CreatePrescriptionRequest{
		PatientID: profiles.patient.ID,
		Medicines: []*model.PrescribedMedicineInput{{MedicineID: uuid.New()}},
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest))
	assert.Empty(t, repo.created)
}

func TestUpdatePrescriptionGuards(t *testing.T) {
	svc, repo, _, profiles := newTestFixture()
	profiles.doctor = &model.DoctorProfile{Base: model.Base{ID: uuid.New()}}

	active := &model.Prescription{
		Base:     model.Base{ID: uuid.New()},
		DoctorID: profiles.doctor.ID,
		Status:   model.PrescriptionStatusActive,
	}
	foreign := &model.Prescription{
		Base:     model.Base{ID: uuid.New()},
		DoctorID: uuid.New(),
		Status:   model.PrescriptionStatusActive,
	}
	cancelled := &model.Prescription{
		Base:     model.Base{ID: uuid.New()},
		DoctorID: profiles.doctor.ID,
		Status:   model.PrescriptionStatusCancelled,
	}
	repo.byID[active.ID] = active
	repo.byID[foreign.ID] = foreign
	repo.byID[cancelled.ID] = cancelled

	tests := []struct {
		name string
		id   uuid.UUID
		kind apperrors.Kind
	}{
		{"missing prescription", uuid.New(), apperrors.KindNotFound},
		{"another doctor's prescription", foreign.ID, apperrors.KindForbidden},
		{"terminal prescription", cancelled.ID, apperrors.KindBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), doctorCaller(), tt.id, &model.UpdatePrescriptionRequest{})
			assert.True(t, apperrors.IsKind(err, tt.kind))
		})
	}

	complaints := "updated"
	detail, err := svc.Update(context.Background(), doctorCaller(), active.ID, &model.UpdatePrescriptionRequest{Complaints: &complaints})
	require.NoError(t, err)
	assert.Equal(t, "updated", detail.Complaints)
}

func TestCancelPrescription(t *testing.T) {
	svc, repo, _, profiles := newTestFixture()
	profiles.doctor = &model.DoctorProfile{Base: model.Base{ID: uuid.New()}}

	p := &model.Prescription{
		Base:     model.Base{ID: uuid.New()},
		DoctorID: profiles.doctor.ID,
		Status:   model.PrescriptionStatusActive,
	}
	repo.byID[p.ID] = p

	out, err := svc.Cancel(context.Background(), doctorCaller(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PrescriptionStatusCancelled, out.Status)

	// Terminal states stay terminal.
	_, err = svc.Cancel(context.Background(), doctorCaller(), p.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest))
}

func TestFulfillPrescription(t *testing.T) {
	svc, repo, _, profiles := newTestFixture()
	profiles.pharmacist = &model.PharmacistProfile{Base: model.Base{ID: uuid.New()}, PharmacyID: uuid.New()}

	p := &model.Prescription{Base: model.Base{ID: uuid.New()}, Status: model.PrescriptionStatusActive}
	repo.byID[p.ID] = p
	repo.fulfilledOK = true

	out, err := svc.Fulfill(context.Background(), model.Principal{UserID: uuid.New(), Role: model.RolePharmacist}, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PrescriptionStatusCompleted, out.Status)
	require.NotNil(t, out.DispensedBy)
	assert.Equal(t, profiles.pharmacist.ID, *out.DispensedBy)
	assert.NotNil(t, out.DispensedAt)
}

func TestFulfillPrescriptionLosesRace(t *testing.T) {
	svc, repo, _, profiles := newTestFixture()
	profiles.pharmacist = &model.PharmacistProfile{Base: model.Base{ID: uuid.New()}}

	// The conditional write reports no rows; the prescription was
	// completed by someone else between read and write.
	p := &model.Prescription{Base: model.Base{ID: uuid.New()}, Status: model.PrescriptionStatusCompleted}
	repo.byID[p.ID] = p
	repo.fulfilledOK = false

	_, err := svc.Fulfill(context.Background(), model.Principal{UserID: uuid.New(), Role: model.RolePharmacist}, p.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest))
	assert.Contains(t, err.Error(), "COMPLETED")
}

func TestGetPrescriptionRoleDispatch(t *testing.T) {
	svc, repo, _, profiles := newTestFixture()
	profiles.patient = &model.PatientProfile{Base: model.Base{ID: uuid.New()}}

	mine := &model.Prescription{Base: model.Base{ID: uuid.New()}, PatientID: profiles.patient.ID, Status: model.PrescriptionStatusActive}
	other := &model.Prescription{Base: model.Base{ID: uuid.New()}, PatientID: uuid.New(), Status: model.PrescriptionStatusCancelled}
	repo.byID[mine.ID] = mine
	repo.byID[other.ID] = other

	patient := model.Principal{UserID: uuid.New(), Role: model.RolePatient}
	_, err := svc.Get(context.Background(), patient, mine.ID)
	assert.NoError(t, err)

	// Someone else's prescription reads as missing, not forbidden.
	_, err = svc.Get(context.Background(), patient, other.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	// Pharmacists only see ACTIVE prescriptions.
	pharmacist := model.Principal{UserID: uuid.New(), Role: model.RolePharmacist}
	_, err = svc.Get(context.Background(), pharmacist, other.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}
