package models

import (
	"encoding/json"
	"fmt"
)

// FlightStatus is the administrative status of a flight. Timing (future,
// airborne, landed) is derived from the schedule, see FlightTiming.
type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "SCHEDULED"
	FlightStatusCancelled FlightStatus = "CANCELLED"
)

func (s FlightStatus) Valid() bool {
	switch s {
	case FlightStatusScheduled, FlightStatusCancelled:
		return true
	}
	return false
}

func (s *FlightStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(s), "flight status", func(v string) bool { return FlightStatus(v).Valid() })
}

// FlightTiming is derived from departure and arrival relative to now.
type FlightTiming string

const (
	FlightTimingFuture     FlightTiming = "FUTURE"
	FlightTimingInProgress FlightTiming = "IN_PROGRESS"
	FlightTimingCompleted  FlightTiming = "COMPLETED"
)

func (t FlightTiming) Valid() bool {
	switch t {
	case FlightTimingFuture, FlightTimingInProgress, FlightTimingCompleted:
		return true
	}
	return false
}

func (t *FlightTiming) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(t), "flight timing", func(v string) bool { return FlightTiming(v).Valid() })
}

// FareClass is the cabin a ticket was sold in.
type FareClass string

const (
	FareClassEconomy        FareClass = "ECONOMY"
	FareClassPremiumEconomy FareClass = "PREMIUM_ECONOMY"
	FareClassBusiness       FareClass = "BUSINESS"
	FareClassFirst          FareClass = "FIRST"
)

func (c FareClass) Valid() bool {
	switch c {
	case FareClassEconomy, FareClassPremiumEconomy, FareClassBusiness, FareClassFirst:
		return true
	}
	return false
}

func (c *FareClass) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(c), "fare class", func(v string) bool { return FareClass(v).Valid() })
}

// PaymentMode is how a ticket was paid.
type PaymentMode string

const (
	PaymentModeCreditCard   PaymentMode = "CREDIT_CARD"
	PaymentModeDebitCard    PaymentMode = "DEBIT_CARD"
	PaymentModeBankTransfer PaymentMode = "BANK_TRANSFER"
	PaymentModeCash         PaymentMode = "CASH"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentModeCreditCard, PaymentModeDebitCard, PaymentModeBankTransfer, PaymentModeCash:
		return true
	}
	return false
}

func (m *PaymentMode) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(m), "payment mode", func(v string) bool { return PaymentMode(v).Valid() })
}

// TicketStatus is the booking state of a ticket. Only CONFIRMED tickets
// hold a seat of the aircraft inventory.
type TicketStatus string

const (
	TicketStatusConfirmed TicketStatus = "CONFIRMED"
	TicketStatusCancelled TicketStatus = "CANCELLED"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusConfirmed, TicketStatusCancelled:
		return true
	}
	return false
}

func (s *TicketStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(s), "ticket status", func(v string) bool { return TicketStatus(v).Valid() })
}

// InvalidEnumError is returned when a closed enum receives an unknown value.
type InvalidEnumError struct {
	Enum  string
	Value string
}

func (e *InvalidEnumError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Enum, e.Value)
}

func unmarshalEnum(data []byte, dst *string, name string, valid func(string) bool) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	// empty means "not supplied"; callers apply defaults
	if v != "" && !valid(v) {
		return &InvalidEnumError{Enum: name, Value: v}
	}
	*dst = v
	return nil
}
