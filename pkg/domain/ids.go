// Package domain defines typed identifiers shared across verticals.
//
// Human-facing entities (organisations, contestants, coaches, teams) carry
// formatted string identifiers minted by the sequence allocator. Embedded or
// internal records (registrations, payments) carry UUIDs.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Formatted string identifiers, e.g. "MN00042", "CN0007", "TMNR0007".
type (
	OrganisationID string
	ContestantID   string
	CoachID        string
	TeamID         string
)

// UUID-backed identifiers.
type (
	EventID        uuid.UUID
	RegistrationID uuid.UUID
	PaymentID      uuid.UUID
)

func (id OrganisationID) String() string { return string(id) }
func (id ContestantID) String() string   { return string(id) }
func (id CoachID) String() string        { return string(id) }
func (id TeamID) String() string         { return string(id) }

func (id EventID) String() string        { return uuid.UUID(id).String() }
func (id RegistrationID) String() string { return uuid.UUID(id).String() }
func (id PaymentID) String() string      { return uuid.UUID(id).String() }

func (id EventID) IsZero() bool        { return uuid.UUID(id) == uuid.Nil }
func (id RegistrationID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id PaymentID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }

// NewEventID mints a random event identifier.
func NewEventID() EventID { return EventID(uuid.New()) }

// NewRegistrationID mints a random registration identifier.
func NewRegistrationID() RegistrationID { return RegistrationID(uuid.New()) }

// NewPaymentID mints a random payment identifier.
func NewPaymentID() PaymentID { return PaymentID(uuid.New()) }

// ParseEventID parses an event identifier from its string form.
func ParseEventID(s string) (EventID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return EventID{}, fmt.Errorf("parse event id: %w", err)
	}
	return EventID(u), nil
}

// ParseRegistrationID parses a registration identifier from its string form.
func ParseRegistrationID(s string) (RegistrationID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return RegistrationID{}, fmt.Errorf("parse registration id: %w", err)
	}
	return RegistrationID(u), nil
}

// ParsePaymentID parses a payment identifier from its string form.
func ParsePaymentID(s string) (PaymentID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return PaymentID{}, fmt.Errorf("parse payment id: %w", err)
	}
	return PaymentID(u), nil
}

// MarshalText implementations keep UUID-backed IDs JSON-friendly as strings.

func (id EventID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *EventID) UnmarshalText(b []byte) error {
	parsed, err := ParseEventID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id RegistrationID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *RegistrationID) UnmarshalText(b []byte) error {
	parsed, err := ParseRegistrationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id PaymentID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *PaymentID) UnmarshalText(b []byte) error {
	parsed, err := ParsePaymentID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
