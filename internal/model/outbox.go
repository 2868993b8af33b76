package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Domain event types written through the outbox.
const (
	EventPrescriptionCreated   = "prescription.created"
	EventPrescriptionUpdated   = "prescription.updated"
	EventPrescriptionCancelled = "prescription.cancelled"
	EventPrescriptionFulfilled = "prescription.fulfilled"
	EventOrderCreated          = "order.created"
	EventOrderStatusChanged    = "order.status_changed"
	EventClaimSubmitted        = "claim.submitted"
	EventClaimItemAdjudicated  = "claim.item_adjudicated"
)

// OutboxEvent is written in the same transaction as the domain change
// it describes and relayed to the broker by the worker.
type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
}

// NewOutboxEvent marshals the payload; marshal failures are programmer
// errors on known structs, so they panic rather than return.
func NewOutboxEvent(eventType string, payload interface{}) *OutboxEvent {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return &OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   raw,
		Status:    OutboxStatusPending,
		CreatedAt: time.Now(),
	}
}
