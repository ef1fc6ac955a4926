package models

import "time"

// CreateAircraftRequest represents a request to register an aircraft
type CreateAircraftRequest struct {
	Model     string `json:"model" validate:"required"`
	Company   string `json:"company" validate:"required"`
	Capacity  int    `json:"capacity"`
	InService *bool  `json:"inService,omitempty"`
}

// UpdateAircraftRequest carries the mutable aircraft fields. Remaining seats
// are owned by the ticket ledger and cannot be set here.
type UpdateAircraftRequest struct {
	ID        string  `json:"id,omitempty"`
	Model     *string `json:"model,omitempty" validate:"omitempty,min=1"`
	Company   *string `json:"company,omitempty" validate:"omitempty,min=1"`
	Capacity  *int    `json:"capacity,omitempty"`
	InService *bool   `json:"inService,omitempty"`
}

// CreateFlightRequest represents a request to schedule a flight
type CreateFlightRequest struct {
	Number        string    `json:"number" validate:"required"`
	Origin        string    `json:"origin" validate:"required"`
	Destination   string    `json:"destination" validate:"required"`
	DepartureTime time.Time `json:"departureTime" validate:"required"`
	ArrivalTime   time.Time `json:"arrivalTime" validate:"required"`
	AircraftID    string    `json:"aircraftId" validate:"required"`
}

// UpdateFlightRequest carries the mutable flight fields
type UpdateFlightRequest struct {
	ID            string        `json:"id,omitempty"`
	Number        *string       `json:"number,omitempty" validate:"omitempty,min=1"`
	Origin        *string       `json:"origin,omitempty" validate:"omitempty,min=1"`
	Destination   *string       `json:"destination,omitempty" validate:"omitempty,min=1"`
	DepartureTime *time.Time    `json:"departureTime,omitempty"`
	ArrivalTime   *time.Time    `json:"arrivalTime,omitempty"`
	AircraftID    *string       `json:"aircraftId,omitempty" validate:"omitempty,min=1"`
	Status        *FlightStatus `json:"status,omitempty"`
}

// CreatePassengerRequest represents a request to register a passenger
type CreatePassengerRequest struct {
	LastName  string `json:"lastName" validate:"required"`
	FirstName string `json:"firstName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Country   string `json:"country"`
}

// UpdatePassengerRequest carries the mutable passenger fields
type UpdatePassengerRequest struct {
	ID        string  `json:"id,omitempty"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,min=1"`
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,min=1"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Country   *string `json:"country,omitempty"`
}

// IssueTicketRequest represents a booking
type IssueTicketRequest struct {
	FlightID    string      `json:"flightId" validate:"required"`
	PassengerID string      `json:"passengerId" validate:"required"`
	SeatNumber  string      `json:"seatNumber"`
	FareClass   FareClass   `json:"fareClass"`
	Price       float64     `json:"price"`
	PaymentMode PaymentMode `json:"paymentMode" validate:"required"`
}

// UpdateTicketRequest carries the ticket fields that do not affect inventory
type UpdateTicketRequest struct {
	ID          string       `json:"id,omitempty"`
	SeatNumber  *string      `json:"seatNumber,omitempty"`
	FareClass   *FareClass   `json:"fareClass,omitempty"`
	PaymentMode *PaymentMode `json:"paymentMode,omitempty"`
}

// AircraftQuery filters the aircraft registry
type AircraftQuery struct {
	Model     string
	Company   string
	InService *bool
	SoldOut   bool
	Unbooked  bool
}

// FlightQuery filters the flight registry
type FlightQuery struct {
	Number      string
	Origin      string
	Destination string
	AircraftID  string
	Status      FlightStatus
	Timing      FlightTiming
}

// PassengerQuery filters the passenger registry
type PassengerQuery struct {
	LastName  string
	FirstName string
	Email     string
	Country   string
}

// TicketQuery filters the ticket ledger. Flight, aircraft and passenger
// attributes are resolved to ids through their registries first.
type TicketQuery struct {
	FlightID     string
	PassengerID  string
	AircraftID   string
	FlightTiming FlightTiming
	SeatNumber   string
	FareClass    FareClass
	MinPrice     *float64
	MaxPrice     *float64
	ReservedFrom *time.Time
	ReservedTo   *time.Time
	PaymentMode  PaymentMode
	Status       TicketStatus

	FlightNumber      string
	FlightOrigin      string
	FlightDestination string

	AircraftModel     string
	AircraftCompany   string
	AircraftInService *bool

	PassengerLastName  string
	PassengerFirstName string
	PassengerEmail     string
	PassengerCountry   string
}

// ByAircraft reports whether aircraft attributes constrain the query.
func (q TicketQuery) ByAircraft() bool {
	return q.AircraftModel != "" || q.AircraftCompany != "" || q.AircraftInService != nil
}

// ByFlight reports whether the query has to be resolved through flights.
func (q TicketQuery) ByFlight() bool {
	return q.AircraftID != "" || q.FlightTiming != "" || q.FlightNumber != "" ||
		q.FlightOrigin != "" || q.FlightDestination != "" || q.ByAircraft()
}

// ByPassenger reports whether passenger attributes constrain the query.
func (q TicketQuery) ByPassenger() bool {
	return q.PassengerLastName != "" || q.PassengerFirstName != "" ||
		q.PassengerEmail != "" || q.PassengerCountry != ""
}

// MutationResponse wraps a changed record with a confirmation message
type MutationResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
