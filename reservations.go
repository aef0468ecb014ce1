package unireservas

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"time"
)

// ReservationsClient covers /api/reservations. Every reply is wrapped in the
// {success, message, data} envelope.
type ReservationsClient struct{ c *Client }

const reservationsPath = "/api/reservations"

// ReservationForm is what a student fills in to request a stay.
type ReservationForm struct {
	StartDate time.Time
	EndDate   time.Time
	Guests    int
	Message   string
}

type reservationData struct {
	Reservation Reservation `json:"reservation"`
}

type reservationsData struct {
	Reservations []Reservation `json:"reservations"`
	Total        int           `json:"total"`
}

// ============================================================================
// Local rules
// ============================================================================

// ValidateReservation rejects a request whose end is not after its start or
// whose guest count does not fit the property. capacity <= 0 skips the
// capacity check.
func ValidateReservation(start, end time.Time, guests, capacity int) error {
	if start.IsZero() {
		return invalid("start_date", "start date is required")
	}
	if end.IsZero() {
		return invalid("end_date", "end date is required")
	}
	if !end.After(start) {
		return invalid("end_date", "end date must be after the start date")
	}
	if guests < 1 {
		return invalid("guests", "at least one guest is required")
	}
	if capacity > 0 && guests > capacity {
		return invalid("guests", "this property holds at most %d guest(s)", capacity)
	}
	return nil
}

// CalculateTotalPrice charges rate for every started day, with a minimum of
// one day.
func CalculateTotalPrice(rate float64, start, end time.Time) float64 {
	days := math.Ceil(end.Sub(start).Hours() / 24)
	return math.Max(1, days) * rate
}

// CanTransition reports whether a reservation may move from one status to
// another. Only pending reservations move; every other status is terminal.
func CanTransition(from, to ReservationStatus) bool {
	if from != StatusPending {
		return false
	}
	switch to {
	case StatusConfirmed, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

var statusLabels = map[ReservationStatus]string{
	StatusPending:   "Pendente",
	StatusConfirmed: "Confirmada",
	StatusCancelled: "Cancelada",
	StatusRejected:  "Rejeitada",
}

// StatusLabel returns the display label of s.
func StatusLabel(s ReservationStatus) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ============================================================================
// Endpoints
// ============================================================================

// Create validates form against property, prices it and submits it. Invalid
// forms never reach the network.
func (r *ReservationsClient) Create(ctx context.Context, property *Property, form ReservationForm) (*Reservation, error) {
	if property == nil || property.ID == "" {
		return nil, invalid("property_id", "property is required")
	}
	if err := ValidateReservation(form.StartDate, form.EndDate, form.Guests, property.Capacity); err != nil {
		return nil, err
	}
	body := ReservationCreate{
		PropertyID: property.ID,
		StartDate:  form.StartDate.Format(DateLayout),
		EndDate:    form.EndDate.Format(DateLayout),
		Guests:     form.Guests,
		Message:    form.Message,
		TotalPrice: CalculateTotalPrice(property.Price, form.StartDate, form.EndDate),
	}
	data, err := callEnvelope[reservationData](ctx, r.c, request{
		op: "create reservation", method: http.MethodPost, path: reservationsPath + "/", body: body,
	})
	if err != nil {
		return nil, err
	}
	return &data.Reservation, nil
}

// Mine lists the caller's reservations, as student or advertiser.
func (r *ReservationsClient) Mine(ctx context.Context) ([]Reservation, error) {
	data, err := callEnvelope[reservationsData](ctx, r.c, request{
		op: "list reservations", method: http.MethodGet, path: reservationsPath + "/my",
	})
	if err != nil {
		return nil, err
	}
	return data.Reservations, nil
}

func (r *ReservationsClient) Get(ctx context.Context, id string) (*Reservation, error) {
	data, err := callEnvelope[reservationData](ctx, r.c, request{
		op: "get reservation", method: http.MethodGet, path: reservationsPath + "/" + url.PathEscape(id),
	})
	if err != nil {
		return nil, err
	}
	return &data.Reservation, nil
}

// Update edits a pending reservation. When both dates are given they must be
// in order.
func (r *ReservationsClient) Update(ctx context.Context, id string, in ReservationUpdate) (*Reservation, error) {
	if in.StartDate != nil && in.EndDate != nil {
		start, err1 := time.Parse(DateLayout, *in.StartDate)
		end, err2 := time.Parse(DateLayout, *in.EndDate)
		if err1 != nil || err2 != nil {
			return nil, invalid("start_date", "dates must use the YYYY-MM-DD format")
		}
		if !end.After(start) {
			return nil, invalid("end_date", "end date must be after the start date")
		}
	}
	if in.Guests != nil && *in.Guests < 1 {
		return nil, invalid("guests", "at least one guest is required")
	}
	data, err := callEnvelope[reservationData](ctx, r.c, request{
		op: "update reservation", method: http.MethodPut, path: reservationsPath + "/" + url.PathEscape(id), body: in,
	})
	if err != nil {
		return nil, err
	}
	return &data.Reservation, nil
}

// Cancel is the student's way out of a pending reservation.
func (r *ReservationsClient) Cancel(ctx context.Context, id string) (*Reservation, error) {
	return r.transition(ctx, id, "cancel")
}

// Confirm accepts a pending reservation (advertiser).
func (r *ReservationsClient) Confirm(ctx context.Context, id string) (*Reservation, error) {
	return r.transition(ctx, id, "confirm")
}

// Reject declines a pending reservation (advertiser).
func (r *ReservationsClient) Reject(ctx context.Context, id string) (*Reservation, error) {
	return r.transition(ctx, id, "reject")
}

// transition issues a status change. These calls assert a prior state on the
// server and are never retried.
func (r *ReservationsClient) transition(ctx context.Context, id, action string) (*Reservation, error) {
	data, err := callEnvelope[reservationData](ctx, r.c, request{
		op: action + " reservation", method: http.MethodPatch, path: reservationsPath + "/" + url.PathEscape(id) + "/" + action,
	})
	if err != nil {
		return nil, err
	}
	return &data.Reservation, nil
}
