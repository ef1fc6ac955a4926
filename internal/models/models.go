package models

import "time"

// Aircraft represents an airframe and its live seat inventory
type Aircraft struct {
	ID        string    `json:"id" bson:"_id"`
	Model     string    `json:"model" bson:"model"`
	Company   string    `json:"company" bson:"company"`
	Capacity  int       `json:"capacity" bson:"capacity"`
	Remaining int       `json:"remaining" bson:"remaining"`
	InService bool      `json:"inService" bson:"inService"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Sold returns the number of seats currently held by confirmed tickets
func (a *Aircraft) Sold() int {
	return a.Capacity - a.Remaining
}

// Flight represents a scheduled movement of one aircraft
type Flight struct {
	ID            string       `json:"id" bson:"_id"`
	Number        string       `json:"number" bson:"number"`
	Origin        string       `json:"origin" bson:"origin"`
	Destination   string       `json:"destination" bson:"destination"`
	DepartureTime time.Time    `json:"departureTime" bson:"departureTime"`
	ArrivalTime   time.Time    `json:"arrivalTime" bson:"arrivalTime"`
	AircraftID    string       `json:"aircraftId" bson:"aircraftId"`
	Status        FlightStatus `json:"status" bson:"status"`
	CreatedAt     time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// Timing derives where the flight stands relative to now.
func (f *Flight) Timing(now time.Time) FlightTiming {
	switch {
	case now.Before(f.DepartureTime):
		return FlightTimingFuture
	case now.Before(f.ArrivalTime):
		return FlightTimingInProgress
	default:
		return FlightTimingCompleted
	}
}

// Passenger represents a traveller identity record
type Passenger struct {
	ID           string    `json:"id" bson:"_id"`
	LastName     string    `json:"lastName" bson:"lastName"`
	FirstName    string    `json:"firstName" bson:"firstName"`
	Email        string    `json:"email" bson:"email"`
	Country      string    `json:"country" bson:"country"`
	RegisteredAt time.Time `json:"registeredAt" bson:"registeredAt"`
}

// Ticket represents a seat allocation binding a passenger to a flight
type Ticket struct {
	ID          string       `json:"id" bson:"_id"`
	FlightID    string       `json:"flightId" bson:"flightId"`
	PassengerID string       `json:"passengerId" bson:"passengerId"`
	SeatNumber  string       `json:"seatNumber" bson:"seatNumber"`
	FareClass   FareClass    `json:"fareClass" bson:"fareClass"`
	Price       float64      `json:"price" bson:"price"`
	ReservedAt  time.Time    `json:"reservedAt" bson:"reservedAt"`
	PaymentMode PaymentMode  `json:"paymentMode" bson:"paymentMode"`
	Status      TicketStatus `json:"status" bson:"status"`
	CreatedAt   time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt" bson:"updatedAt"`
}
