package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/medilink/pharmacare-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

type profileRepository struct {
	BaseRepository
}

type medicineRepository struct {
	BaseRepository
}

type pharmacyRepository struct {
	BaseRepository
}

type prescriptionRepository struct {
	BaseRepository
}

type orderRepository struct {
	BaseRepository
}

type claimRepository struct {
	BaseRepository
}

type outboxRepository struct {
	BaseRepository
}

type companyRepository struct {
	BaseRepository
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{NewBaseRepository(db)}
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{NewBaseRepository(db)}
}

func NewMedicineRepository(db *sqlx.DB) repository.MedicineRepository {
	return &medicineRepository{NewBaseRepository(db)}
}

func NewPharmacyRepository(db *sqlx.DB) repository.PharmacyRepository {
	return &pharmacyRepository{NewBaseRepository(db)}
}

func NewPrescriptionRepository(db *sqlx.DB) repository.PrescriptionRepository {
	return &prescriptionRepository{NewBaseRepository(db)}
}

func NewOrderRepository(db *sqlx.DB) repository.OrderRepository {
	return &orderRepository{NewBaseRepository(db)}
}

func NewClaimRepository(db *sqlx.DB) repository.ClaimRepository {
	return &claimRepository{NewBaseRepository(db)}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{NewBaseRepository(db)}
}

func NewCompanyRepository(db *sqlx.DB) repository.CompanyRepository {
	return &companyRepository{NewBaseRepository(db)}
}
