package database

import (
	"strings"

	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
)

// Match reports whether a satisfies the filter
func (f AircraftFilter) Match(a *models.Aircraft) bool {
	if f.Model != "" && !strings.EqualFold(a.Model, f.Model) {
		return false
	}
	if f.Company != "" && !strings.EqualFold(a.Company, f.Company) {
		return false
	}
	if f.InService != nil && a.InService != *f.InService {
		return false
	}
	if f.SoldOut && a.Remaining != 0 {
		return false
	}
	if f.Unbooked && a.Remaining != a.Capacity {
		return false
	}
	return true
}

// Match reports whether fl satisfies the filter
func (f FlightFilter) Match(fl *models.Flight) bool {
	if f.Number != "" && !strings.EqualFold(fl.Number, f.Number) {
		return false
	}
	if f.Origin != "" && !strings.EqualFold(fl.Origin, f.Origin) {
		return false
	}
	if f.Destination != "" && !strings.EqualFold(fl.Destination, f.Destination) {
		return false
	}
	if f.AircraftID != "" && fl.AircraftID != f.AircraftID {
		return false
	}
	if f.AircraftIDs != nil && !contains(f.AircraftIDs, fl.AircraftID) {
		return false
	}
	if f.Status != "" && fl.Status != f.Status {
		return false
	}
	if f.DepartsAfter != nil && !fl.DepartureTime.After(*f.DepartsAfter) {
		return false
	}
	if f.DepartedBy != nil && fl.DepartureTime.After(*f.DepartedBy) {
		return false
	}
	if f.ArrivesAfter != nil && !fl.ArrivalTime.After(*f.ArrivesAfter) {
		return false
	}
	if f.ArrivedBy != nil && fl.ArrivalTime.After(*f.ArrivedBy) {
		return false
	}
	return true
}

// Match reports whether p satisfies the filter
func (f PassengerFilter) Match(p *models.Passenger) bool {
	if f.LastName != "" && !strings.EqualFold(p.LastName, f.LastName) {
		return false
	}
	if f.FirstName != "" && !strings.EqualFold(p.FirstName, f.FirstName) {
		return false
	}
	if f.Email != "" && !strings.EqualFold(p.Email, f.Email) {
		return false
	}
	if f.Country != "" && !strings.EqualFold(p.Country, f.Country) {
		return false
	}
	return true
}

// Match reports whether t satisfies the filter
func (f TicketFilter) Match(t *models.Ticket) bool {
	if f.FlightIDs != nil && !contains(f.FlightIDs, t.FlightID) {
		return false
	}
	if f.PassengerID != "" && t.PassengerID != f.PassengerID {
		return false
	}
	if f.PassengerIDs != nil && !contains(f.PassengerIDs, t.PassengerID) {
		return false
	}
	if f.SeatNumber != "" && !strings.EqualFold(t.SeatNumber, f.SeatNumber) {
		return false
	}
	if f.FareClass != "" && t.FareClass != f.FareClass {
		return false
	}
	if f.MinPrice != nil && t.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && t.Price > *f.MaxPrice {
		return false
	}
	if f.ReservedFrom != nil && t.ReservedAt.Before(*f.ReservedFrom) {
		return false
	}
	if f.ReservedTo != nil && t.ReservedAt.After(*f.ReservedTo) {
		return false
	}
	if f.PaymentMode != "" && t.PaymentMode != f.PaymentMode {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return true
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
