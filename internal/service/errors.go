package service

import "errors"

// Kind classifies ledger failures so transports can map them without
// knowing every individual error.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindReferenceNotFound
	KindBusinessRule
	KindIdentifierMismatch
	KindInventoryInvariant
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "ValidationFailed"
	case KindReferenceNotFound:
		return "ReferenceNotFound"
	case KindBusinessRule:
		return "BusinessRuleViolation"
	case KindIdentifierMismatch:
		return "IdentifierMismatch"
	case KindInventoryInvariant:
		return "InventoryInvariantViolation"
	default:
		return "Internal"
	}
}

// Error is a ledger failure with a stable code
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrNotFound               = &Error{KindNotFound, "NOT_FOUND", "no record found with this identifier"}
	ErrAircraftNotFound       = &Error{KindReferenceNotFound, "AIRCRAFT_NOT_FOUND", "the aircraft planned for this flight does not exist"}
	ErrFlightNotFound         = &Error{KindReferenceNotFound, "FLIGHT_NOT_FOUND", "the flight requested for this ticket does not exist"}
	ErrPassengerNotFound      = &Error{KindReferenceNotFound, "PASSENGER_NOT_FOUND", "the passenger requested for this ticket does not exist"}
	ErrTicketNotFound         = &Error{KindNotFound, "TICKET_NOT_FOUND", "no ticket found with this identifier"}
	ErrInvalidCapacity        = &Error{KindValidation, "INVALID_CAPACITY", "aircraft capacity is out of bounds"}
	ErrArrivalBeforeDeparture = &Error{KindValidation, "ARRIVAL_BEFORE_DEPARTURE", "a flight cannot arrive before it departs"}
	ErrInvalidPrice           = &Error{KindValidation, "INVALID_PRICE", "a ticket price must be strictly positive with at most two decimals"}
	ErrInvalidFareClass       = &Error{KindValidation, "INVALID_FARE_CLASS", "unknown fare class"}
	ErrInvalidPaymentMode     = &Error{KindValidation, "INVALID_PAYMENT_MODE", "unknown payment mode"}
	ErrInvalidFlightStatus    = &Error{KindValidation, "INVALID_FLIGHT_STATUS", "unknown flight status"}
	ErrInvalidFilter          = &Error{KindValidation, "INVALID_FILTER", "invalid filter value"}
	ErrIdentifierMismatch     = &Error{KindIdentifierMismatch, "IDENTIFIER_MISMATCH", "path and body identifiers do not match"}
	ErrAircraftInFlight       = &Error{KindBusinessRule, "AIRCRAFT_IN_FLIGHT", "the aircraft cannot be deleted while it is flying"}
	ErrAircraftAlreadyBooked  = &Error{KindBusinessRule, "AIRCRAFT_ALREADY_BOOKED", "the aircraft has seats sold on upcoming flights and cannot be deleted"}
	ErrFlightAlreadyBooked    = &Error{KindBusinessRule, "FLIGHT_ALREADY_BOOKED", "the flight has seats sold and cannot be deleted or reassigned"}
	ErrFlightAlreadyArrived   = &Error{KindBusinessRule, "FLIGHT_ALREADY_ARRIVED", "the flight has already arrived"}
	ErrFlightInProgress       = &Error{KindBusinessRule, "FLIGHT_IN_PROGRESS", "the flight is currently in the air"}
	ErrFlightCancelled        = &Error{KindBusinessRule, "FLIGHT_CANCELLED", "the flight has been cancelled"}
	ErrAircraftFull           = &Error{KindBusinessRule, "AIRCRAFT_FULL", "the aircraft cannot take any more passengers"}
	ErrSeatTaken              = &Error{KindBusinessRule, "SEAT_TAKEN", "the seat is already assigned on this flight"}
	ErrTicketAlreadyCancelled = &Error{KindBusinessRule, "TICKET_ALREADY_CANCELLED", "the ticket is already cancelled"}
	ErrInventoryExhausted     = &Error{KindInventoryInvariant, "INVENTORY_EXHAUSTED", "no remaining seats left to allocate"}
	ErrInventoryOverflow      = &Error{KindInventoryInvariant, "INVENTORY_OVERFLOW", "remaining seats would exceed capacity"}
)

// KindOf returns the kind of err, KindInternal for errors the ledger does
// not own.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
