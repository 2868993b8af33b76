package discovery

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

type fakePharmacyRepo struct {
	repository.PharmacyRepository

	candidates     []*model.Pharmacy
	requestedLimit int
}

func (f *fakePharmacyRepo) SearchStocking(_ context.Context, _ uuid.UUID, _ geo.Box, _ *uuid.UUID, limit int) ([]*model.Pharmacy, error) {
	f.requestedLimit = limit
	return f.candidates, nil
}

func (f *fakePharmacyRepo) SearchStockingAll(_ context.Context, _ []uuid.UUID, _ geo.Box, limit int) ([]*model.Pharmacy, error) {
	f.requestedLimit = limit
	return f.candidates, nil
}

type fakeMedicineRepo struct {
	repository.MedicineRepository

	known map[uuid.UUID]*model.Medicine
	gets  int
}

func (f *fakeMedicineRepo) Get(_ context.Context, id uuid.UUID) (*model.Medicine, error) {
	f.gets++
	m, ok := f.known[id]
	if !ok {
		return nil, apperrors.NotFound("medicine")
	}
	return m, nil
}

type fakePrescriptionRepo struct {
	repository.PrescriptionRepository

	byID  map[uuid.UUID]*model.Prescription
	items map[uuid.UUID][]*model.PrescribedMedicineDetail
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

type fakeProfileRepo struct {
	repository.ProfileRepository

	patient *model.PatientProfile
}

func (f *fakeProfileRepo) GetPatientByUserID(_ context.Context, _ uuid.UUID) (*model.PatientProfile, error) {
	if f.patient == nil {
		return nil, apperrors.NotFound("patient profile")
	}
	return f.patient, nil
}

func pharmacyAt(name string, lat, lon float64) *model.Pharmacy {
	return &model.Pharmacy{
		Base:      model.Base{ID: uuid.New()},
		Name:      name,
		Latitude:  &lat,
		Longitude: &lon,
	}
}

func newFixture() (*Service, *fakePharmacyRepo, *fakeMedicineRepo, *fakePrescriptionRepo, *fakeProfileRepo) {
	pharmacies := &fakePharmacyRepo{}
	medicines := &fakeMedicineRepo{known: map[uuid.UUID]*model.Medicine{}}
	prescriptions := &fakePrescriptionRepo{byID: map[uuid.UUID]*model.Prescription{}, items: map[uuid.UUID][]*model.PrescribedMedicineDetail{}}
	profiles := &fakeProfileRepo{}
	return NewService(pharmacies, medicines, prescriptions, profiles), pharmacies, medicines, prescriptions, profiles
}

func TestSearchByLocationRanksByDistance(t *testing.T) {
	svc, pharmacies, medicines, _, _ := newFixture()

	medID := uuid.New()
	medicines.known[medID] = &model.Medicine{Base: model.Base{ID: medID}}

	// Search origin: central Accra. The far pharmacy sits inside the
	// bounding box corner but outside the 5km circle, so the exact
	// recheck must drop it.
	pharmacies.candidates = []*model.Pharmacy{
		pharmacyAt("far corner", 5.5990, 0.2440),
		pharmacyAt("near", 5.5560, 0.2000),
		pharmacyAt("nearest", 5.5565, 0.2010),
	}

	results, err := svc.SearchByLocation(context.Background(), &model.SearchByLocationRequest{
		MedicineID: medID,
		Latitude:   5.5560,
		Longitude:  0.2010,
		RadiusKm:   5,
	})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "nearest", results[0].Name)
	assert.Equal(t, "near", results[1].Name)
	assert.LessOrEqual(t, results[0].DistanceKm, results[1].DistanceKm)
	for _, r := range results {
		assert.LessOrEqual(t, r.DistanceKm, 5.0)
	}

	// Candidates are over-fetched relative to the default result limit.
	assert.Equal(t, defaultLimit*overfetchFactor, pharmacies.requestedLimit)
}

func TestSearchByLocationSkipsPharmaciesWithoutCoordinates(t *testing.T) {
	svc, pharmacies, medicines, _, _ := newFixture()

	medID := uuid.New()
	medicines.known[medID] = &model.Medicine{Base: model.Base{ID: medID}}
	pharmacies.candidates = []*model.Pharmacy{
		{Base: model.Base{ID: uuid.New()}, Name: "no coords"},
		pharmacyAt("located", 5.5560, 0.2000),
	}

	results, err := svc.SearchByLocation(context.Background(), &model.SearchByLocationRequest{
		MedicineID: medID,
		Latitude:   5.5560,
		Longitude:  0.2010,
		RadiusKm:   5,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "located", results[0].Name)
}

func TestSearchByLocationUnknownMedicine(t *testing.T) {
	svc, _, _, _, _ := newFixture()

	_, err := svc.SearchByLocation(context.Background(), &model.SearchByLocationRequest{
		MedicineID: uuid.New(),
		Latitude:   5.5560,
		Longitude:  0.2010,
		RadiusKm:   5,
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestSearchByLocationCachesMedicineLookup(t *testing.T) {
	svc, _, medicines, _, _ := newFixture()

	medID := uuid.New()
	medicines.known[medID] = &model.Medicine{Base: model.Base{ID: medID}}

	req := &model.SearchByLocationRequest{MedicineID: medID, Latitude: 5.5560, Longitude: 0.2010, RadiusKm: 5}
	_, err := svc.SearchByLocation(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.SearchByLocation(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, medicines.gets)
}

func TestSearchByLocationLimit(t *testing.T) {
	svc, pharmacies, medicines, _, _ := newFixture()

	medID := uuid.New()
	medicines.known[medID] = &model.Medicine{Base: model.Base{ID: medID}}
	pharmacies.candidates = []*model.Pharmacy{
		pharmacyAt("a", 5.5560, 0.2000),
		pharmacyAt("b", 5.5561, 0.2001),
		pharmacyAt("c", 5.5562, 0.2002),
	}

	results, err := svc.SearchByLocation(context.Background(), &model.SearchByLocationRequest{
		MedicineID: medID,
		Latitude:   5.5560,
		Longitude:  0.2010,
		RadiusKm:   5,
		Limit:      2,
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 2*overfetchFactor, pharmacies.requestedLimit)
}

func TestFindForPrescriptionGuards(t *testing.T) {
	svc, _, _, prescriptions, profiles := newFixture()
	profiles.patient = &model.PatientProfile{Base: model.Base{ID: uuid.New()}}
	caller := model.Principal{UserID: uuid.New(), Role: model.RolePatient}
	req := &model.FindPharmaciesRequest{Latitude: 5.5560, Longitude: 0.2010, RadiusKm: 5}

	// Someone else's prescription reads as missing.
	foreign := &model.Prescription{Base: model.Base{ID: uuid.New()}, PatientID: uuid.New(), Status: model.PrescriptionStatusActive}
	prescriptions.byID[foreign.ID] = foreign
	_, err := svc.FindForPrescription(context.Background(), caller, foreign.ID, req)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	cancelled := &model.Prescription{Base: model.Base{ID: uuid.New()}, PatientID: profiles.patient.ID, Status: model.PrescriptionStatusCancelled}
	prescriptions.byID[cancelled.ID] = cancelled
	_, err = svc.FindForPrescription(context.Background(), caller, cancelled.ID, req)
	assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest))
}

func TestFindForPrescription(t *testing.T) {
	svc, pharmacies, _, prescriptions, profiles := newFixture()
	profiles.patient = &model.PatientProfile{Base: model.Base{ID: uuid.New()}}

	p := &model.Prescription{Base: model.Base{ID: uuid.New()}, PatientID: profiles.patient.ID, Status: model.PrescriptionStatusActive}
	prescriptions.byID[p.ID] = p
	prescriptions.items[p.ID] = []*model.PrescribedMedicineDetail{
		{PrescribedMedicine: model.PrescribedMedicine{MedicineID: uuid.New()}},
		{PrescribedMedicine: model.PrescribedMedicine{MedicineID: uuid.New()}},
	}
	pharmacies.candidates = []*model.Pharmacy{pharmacyAt("stocked", 5.5560, 0.2000)}

	caller := model.Principal{UserID: uuid.New(), Role: model.RolePatient}
	results, err := svc.FindForPrescription(context.Background(), caller, p.ID, &model.FindPharmaciesRequest{
		Latitude:  5.5560,
		Longitude: 0.2010,
		RadiusKm:  5,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "stocked", results[0].Name)
}
