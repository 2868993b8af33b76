package model

import (
	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusProcessing     OrderStatus = "PROCESSING"
	OrderStatusReadyForPickup OrderStatus = "READY_FOR_PICKUP"
	OrderStatusInTransit      OrderStatus = "IN_TRANSIT"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCompleted      OrderStatus = "COMPLETED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// Valid reports whether the status is a known pipeline state. Ordering
// between states is deliberately not enforced.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusReadyForPickup, OrderStatusInTransit, OrderStatusDelivered,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is a patient's request to one pharmacy to fill a subset of one
// prescription's medicines. Created by the patient; status mutated only
// by the pharmacy side.
type Order struct {
	Base
	PatientID  uuid.UUID   `db:"patient_id" json:"patient_id"`
	PharmacyID uuid.UUID   `db:"pharmacy_id" json:"pharmacy_id"`
	Status     OrderStatus `db:"status" json:"status"`
}

// OrderItem carries the originating prescription ID as proof the
// medicine was legitimately prescribed.
type OrderItem struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrderID        uuid.UUID `db:"order_id" json:"order_id"`
	MedicineID     uuid.UUID `db:"medicine_id" json:"medicine_id"`
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	Quantity       int       `db:"quantity" json:"quantity"`
}

type OrderItemDetail struct {
	OrderItem
	MedicineName string  `db:"medicine_name" json:"medicine_name"`
	UnitPrice    float64 `db:"unit_price" json:"unit_price"`
}

type OrderDetail struct {
	Order
	PharmacyName string             `db:"pharmacy_name" json:"pharmacy_name"`
	Items        []*OrderItemDetail `json:"items"`
}

// PharmacyOrderDetail hoists the shared prescription context to the top
// level: every item of one order shares exactly one prescription.
type PharmacyOrderDetail struct {
	Order
	Items           []*OrderItemDetail `json:"items"`
	PrescriptionID  uuid.UUID          `json:"prescription_id"`
	DoctorName      string             `json:"doctor_name"`
	DoctorSpecialty string             `json:"doctor_specialty"`
	HospitalID      uuid.UUID          `json:"hospital_id"`
}

type OrderItemInput struct {
	MedicineID uuid.UUID `json:"medicine_id" binding:"required"`
	Quantity   int       `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	PharmacyID     uuid.UUID         `json:"pharmacy_id" binding:"required"`
	PrescriptionID uuid.UUID         `json:"prescription_id" binding:"required"`
	Items          []*OrderItemInput `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required,oneof=PENDING CONFIRMED PROCESSING READY_FOR_PICKUP IN_TRANSIT DELIVERED COMPLETED CANCELLED"`
}
