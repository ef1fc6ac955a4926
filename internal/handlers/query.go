package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
)

const dateLayout = "2006-01-02"

// queryParser reads typed filter values and remembers the first bad one
type queryParser struct {
	values url.Values
	err    error
}

func (p *queryParser) fail(key, value string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid value %q for %s", value, key)
	}
}

func (p *queryParser) str(key string) string {
	return strings.TrimSpace(p.values.Get(key))
}

func (p *queryParser) upper(key string) string {
	return strings.ToUpper(p.str(key))
}

// enum uppercases the value and rejects anything valid does not accept
func (p *queryParser) enum(key string, valid func(string) bool) string {
	v := p.upper(key)
	if v != "" && !valid(v) {
		p.fail(key, v)
		return ""
	}
	return v
}

func (p *queryParser) boolPtr(key string) *bool {
	v := p.str(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v)
		return nil
	}
	return &b
}

func (p *queryParser) flag(key string) bool {
	b := p.boolPtr(key)
	return b != nil && *b
}

func (p *queryParser) float(key string) *float64 {
	v := p.str(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v)
		return nil
	}
	return &f
}

// timestamp accepts RFC 3339 timestamps or plain dates. A plain date used as
// an upper bound covers the whole day.
func (p *queryParser) timestamp(key string, upper bool) *time.Time {
	v := p.str(key)
	if v == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		p.fail(key, v)
		return nil
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t
}

func validTiming(v string) bool { return models.FlightTiming(v).Valid() }

func parseAircraftQuery(values url.Values) (models.AircraftQuery, error) {
	p := queryParser{values: values}
	q := models.AircraftQuery{
		Model:     p.str("model"),
		Company:   p.str("company"),
		InService: p.boolPtr("inService"),
		SoldOut:   p.flag("soldOut"),
		Unbooked:  p.flag("unbooked"),
	}
	return q, p.err
}

func parseFlightQuery(values url.Values) (models.FlightQuery, error) {
	p := queryParser{values: values}
	q := models.FlightQuery{
		Number:      p.str("number"),
		Origin:      p.str("origin"),
		Destination: p.str("destination"),
		AircraftID:  p.str("aircraftId"),
		Status:      models.FlightStatus(p.enum("status", func(v string) bool { return models.FlightStatus(v).Valid() })),
		Timing:      models.FlightTiming(p.enum("timing", validTiming)),
	}
	return q, p.err
}

func parsePassengerQuery(values url.Values) models.PassengerQuery {
	p := queryParser{values: values}
	return models.PassengerQuery{
		LastName:  p.str("lastName"),
		FirstName: p.str("firstName"),
		Email:     p.str("email"),
		Country:   p.str("country"),
	}
}

// parseTicketQuery reads the ticket filters. price pins both bounds;
// reservedOn covers a single day.
func parseTicketQuery(values url.Values) (models.TicketQuery, error) {
	p := queryParser{values: values}
	q := models.TicketQuery{
		FlightID:     p.str("flightId"),
		PassengerID:  p.str("passengerId"),
		AircraftID:   p.str("aircraftId"),
		FlightTiming: models.FlightTiming(p.enum("timing", validTiming)),
		SeatNumber:   p.str("seatNumber"),
		FareClass:    models.FareClass(p.enum("fareClass", func(v string) bool { return models.FareClass(v).Valid() })),
		MinPrice:     p.float("minPrice"),
		MaxPrice:     p.float("maxPrice"),
		ReservedFrom: p.timestamp("reservedFrom", false),
		ReservedTo:   p.timestamp("reservedTo", true),
		PaymentMode:  models.PaymentMode(p.enum("paymentMode", func(v string) bool { return models.PaymentMode(v).Valid() })),
		Status:       models.TicketStatus(p.enum("status", func(v string) bool { return models.TicketStatus(v).Valid() })),

		FlightNumber:      p.str("flightNumber"),
		FlightOrigin:      p.str("origin"),
		FlightDestination: p.str("destination"),

		AircraftModel:     p.str("aircraftModel"),
		AircraftCompany:   p.str("aircraftCompany"),
		AircraftInService: p.boolPtr("aircraftInService"),

		PassengerLastName:  p.str("lastName"),
		PassengerFirstName: p.str("firstName"),
		PassengerEmail:     p.str("email"),
		PassengerCountry:   p.str("country"),
	}
	if price := p.float("price"); price != nil {
		q.MinPrice, q.MaxPrice = price, price
	}
	if p.str("reservedOn") != "" {
		q.ReservedFrom = p.timestamp("reservedOn", false)
		q.ReservedTo = p.timestamp("reservedOn", true)
	}
	return q, p.err
}
