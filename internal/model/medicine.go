package model

import (
	"github.com/google/uuid"
)

type Medicine struct {
	Base
	Name         string  `db:"name" json:"name"`
	GenericName  string  `db:"generic_name" json:"generic_name,omitempty"`
	Manufacturer string  `db:"manufacturer" json:"manufacturer,omitempty"`
	UnitPrice    float64 `db:"unit_price" json:"unit_price"`
}

type StockStatus string

const (
	StockStatusInStock    StockStatus = "IN_STOCK"
	StockStatusLowStock   StockStatus = "LOW_STOCK"
	StockStatusOutOfStock StockStatus = "OUT_OF_STOCK"
)

// InventoryItem links a pharmacy to a medicine it carries.
type InventoryItem struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	PharmacyID  uuid.UUID   `db:"pharmacy_id" json:"pharmacy_id"`
	MedicineID  uuid.UUID   `db:"medicine_id" json:"medicine_id"`
	StockStatus StockStatus `db:"stock_status" json:"stock_status"`
}
