package discovery

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/medilink/pharmacare-api/internal/model"
	"github.com/medilink/pharmacare-api/internal/repository"
	apperrors "github.com/medilink/pharmacare-api/pkg/errors"
	"github.com/medilink/pharmacare-api/pkg/geo"
)

const (
	defaultLimit = 10

	// overfetchFactor pads the bounding-box candidate query: the box is
	// wider than the circle, so some candidates fail the exact distance
	// recheck and a 1x fetch could come up short.
	overfetchFactor = 2

	medicineCacheTTL = 5 * time.Minute
)

// Service finds pharmacies near a point that stock requested medicines.
// Candidates come from a bounding-box pre-filter in SQL; the exact
// Haversine distance is rechecked in memory before ranking.
type Service struct {
	pharmacies    repository.PharmacyRepository
	medicines     repository.MedicineRepository
	prescriptions repository.PrescriptionRepository
	profiles      repository.ProfileRepository
	medicineCache *gocache.Cache
}

func NewService(pharmacies repository.PharmacyRepository, medicines repository.MedicineRepository, prescriptions repository.PrescriptionRepository, profiles repository.ProfileRepository) *Service {
	return &Service{
		pharmacies:    pharmacies,
		medicines:     medicines,
		prescriptions: prescriptions,
		profiles:      profiles,
		medicineCache: gocache.New(medicineCacheTTL, 2*medicineCacheTTL),
	}
}

// SearchByLocation returns pharmacies within the radius stocking one
// medicine, nearest first, optionally restricted to an insurer network.
func (s *Service) SearchByLocation(ctx context.Context, req *model.SearchByLocationRequest) ([]*model.PharmacyWithDistance, error) {
	if _, err := s.getMedicine(ctx, req.MedicineID); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	box := geo.BoundingBox(req.Latitude, req.Longitude, req.RadiusKm)
	candidates, err := s.pharmacies.SearchStocking(ctx, req.MedicineID, box, req.InsuranceCompanyID, limit*overfetchFactor)
	if err != nil {
		return nil, err
	}

	return rank(candidates, req.Latitude, req.Longitude, req.RadiusKm, limit), nil
}

// FindForPrescription returns pharmacies stocking every medicine on the
// caller's prescription at once. Only the owning patient may search, and
// only while the prescription is still ACTIVE.
func (s *Service) FindForPrescription(ctx context.Context, caller model.Principal, prescriptionID uuid.UUID, req *model.FindPharmaciesRequest) ([]*model.PharmacyWithDistance, error) {
	patient, err := s.profiles.GetPatientByUserID(ctx, caller.UserID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.Forbidden("caller has no patient profile")
		}
		return nil, err
	}

	prescription, err := s.prescriptions.GetForPatient(ctx, prescriptionID, patient.ID)
	if err != nil {
		return nil, err
	}
	if prescription.Status != model.PrescriptionStatusActive {
		return nil, apperrors.BadRequestf("Cannot search pharmacies for a prescription with status: %s", prescription.Status)
	}

	items, err := s.prescriptions.GetItems(ctx, prescription.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperrors.BadRequest("prescription has no medicines")
	}
	medicineIDs := make([]uuid.UUID, len(items))
	for i, item := range items {
		medicineIDs[i] = item.MedicineID
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	box := geo.BoundingBox(req.Latitude, req.Longitude, req.RadiusKm)
	candidates, err := s.pharmacies.SearchStockingAll(ctx, medicineIDs, box, limit*overfetchFactor)
	if err != nil {
		return nil, err
	}

	return rank(candidates, req.Latitude, req.Longitude, req.RadiusKm, limit), nil
}

// rank rechecks the exact distance, drops candidates outside the circle
// and sorts the survivors nearest first.
func rank(candidates []*model.Pharmacy, lat, lon, radiusKm float64, limit int) []*model.PharmacyWithDistance {
	results := make([]*model.PharmacyWithDistance, 0, len(candidates))
	for _, p := range candidates {
		d := geo.DistanceToKm(lat, lon, p.Latitude, p.Longitude)
		if d > radiusKm {
			continue
		}
		results = append(results, &model.PharmacyWithDistance{
			Pharmacy:   *p,
			DistanceKm: d,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].DistanceKm < results[j].DistanceKm
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (s *Service) getMedicine(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	if cached, ok := s.medicineCache.Get(id.String()); ok {
		return cached.(*model.Medicine), nil
	}
	m, err := s.medicines.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.medicineCache.Set(id.String(), m, gocache.DefaultExpiration)
	return m, nil
}
