package model

import (
	"time"

	"github.com/google/uuid"
)

// Pharmacy coordinates are nullable: a pharmacy without coordinates
// never matches a geographic search.
type Pharmacy struct {
	Base
	Name      string   `db:"name" json:"name"`
	Address   string   `db:"address" json:"address"`
	Phone     string   `db:"phone" json:"phone,omitempty"`
	Latitude  *float64 `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64 `db:"longitude" json:"longitude,omitempty"`
}

// PharmacyWithDistance is a discovery result entry.
type PharmacyWithDistance struct {
	Pharmacy
	DistanceKm float64 `json:"distance_km"`
}

// NetworkAgreement marks a pharmacy as in-network for an insurer.
// (pharmacy_id, insurance_company_id) is unique at the storage layer.
type NetworkAgreement struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	PharmacyID         uuid.UUID `db:"pharmacy_id" json:"pharmacy_id"`
	InsuranceCompanyID uuid.UUID `db:"insurance_company_id" json:"insurance_company_id"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

type SearchByLocationRequest struct {
	MedicineID         uuid.UUID  `form:"medicine_id" binding:"required"`
	Latitude           float64    `form:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude          float64    `form:"longitude" binding:"required,gte=-180,lte=180"`
	RadiusKm           float64    `form:"radius" binding:"required,gt=0"`
	Limit              int        `form:"limit"`
	InsuranceCompanyID *uuid.UUID `form:"insurance_company_id"`
}

type FindPharmaciesRequest struct {
	Latitude  float64 `form:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude float64 `form:"longitude" binding:"required,gte=-180,lte=180"`
	RadiusKm  float64 `form:"radius" binding:"required,gt=0"`
	Limit     int     `form:"limit"`
}
