package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Ledger event types.
const (
	TripCreated    = "trip.created"
	TripUpdated    = "trip.updated"
	TripDeleted    = "trip.deleted"
	PaymentCreated = "payment.created"
	PaymentUpdated = "payment.updated"
	PaymentDeleted = "payment.deleted"
	OwnerChanged   = "owner.changed"
)

// LedgerEvent announces a write that changes derived balances. It carries
// identifiers only; consumers reload the documents they need.
type LedgerEvent struct {
	Type         string    `json:"type"`
	EntityID     string    `json:"entityId"`
	SerialNumber int       `json:"serialNumber,omitempty"`
	Vehicles     []string  `json:"vehicles,omitempty"`
	EntityType   string    `json:"entityType,omitempty"`
	EntityName   string    `json:"entityName,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(typ, entityID string) *LedgerEvent {
	return &LedgerEvent{
		Type:      typ,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and checks an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var evt LedgerEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	switch evt.Type {
	case TripCreated, TripUpdated, TripDeleted, PaymentCreated, PaymentUpdated, PaymentDeleted, OwnerChanged:
	default:
		return nil, fmt.Errorf("unknown ledger event type %q", evt.Type)
	}
	if evt.EntityID == "" {
		return nil, fmt.Errorf("ledger event %s has no entity id", evt.Type)
	}
	return &evt, nil
}
