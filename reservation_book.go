package unireservas

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// ReservationAPI is the part of the reservations backend a ReservationBook
// uses. *ReservationsClient implements it.
type ReservationAPI interface {
	Mine(ctx context.Context) ([]Reservation, error)
	Cancel(ctx context.Context, id string) (*Reservation, error)
	Confirm(ctx context.Context, id string) (*Reservation, error)
	Reject(ctx context.Context, id string) (*Reservation, error)
}

// ReservationBook holds the caller's reservations and applies status changes
// optimistically: the new status shows at once and the old record comes back
// if the server refuses.
type ReservationBook struct {
	api    ReservationAPI
	logger *slog.Logger

	mu           sync.Mutex
	reservations []Reservation
}

func NewReservationBook(api ReservationAPI, logger *slog.Logger) *ReservationBook {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ReservationBook{api: api, logger: logger.With("component", "reservation_book")}
}

func (b *ReservationBook) Load(ctx context.Context) error {
	list, err := b.api.Mine(ctx)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reservations = cloneSlice(list)
	return nil
}

func (b *ReservationBook) List() []Reservation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneSlice(b.reservations)
}

// ByStatus returns the reservations currently in status.
func (b *ReservationBook) ByStatus(status ReservationStatus) []Reservation {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Reservation
	for _, r := range b.reservations {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

func (b *ReservationBook) Cancel(ctx context.Context, id string) (*Reservation, error) {
	return b.transition(ctx, id, StatusCancelled, b.api.Cancel)
}

func (b *ReservationBook) Confirm(ctx context.Context, id string) (*Reservation, error) {
	return b.transition(ctx, id, StatusConfirmed, b.api.Confirm)
}

func (b *ReservationBook) Reject(ctx context.Context, id string) (*Reservation, error) {
	return b.transition(ctx, id, StatusRejected, b.api.Reject)
}

func (b *ReservationBook) transition(ctx context.Context, id string, to ReservationStatus,
	send func(context.Context, string) (*Reservation, error)) (*Reservation, error) {
	b.mu.Lock()
	i := b.indexOf(id)
	if i < 0 {
		b.mu.Unlock()
		return nil, fmt.Errorf("reservation %s: %w", id, ErrNotFound)
	}
	from := b.reservations[i].Status
	if !CanTransition(from, to) {
		b.mu.Unlock()
		return nil, invalid("status", "a %s reservation cannot become %s", StatusLabel(from), StatusLabel(to))
	}
	m := newPendingMutation("reservation:"+id, b.reservations[i])
	b.reservations[i].Status = to
	b.mu.Unlock()

	res, err := send(ctx, id)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		if prev, ok := m.rollback(); ok {
			if i := b.indexOf(id); i >= 0 {
				b.reservations[i] = prev
			}
		}
		b.logger.Warn("status change rolled back", "reservation_id", id, "to", to, "mutation_id", m.id, "mutation_key", m.key, "error", err)
		return nil, err
	}
	m.confirm()
	if i := b.indexOf(id); i >= 0 && res != nil {
		b.reservations[i] = *res
	}
	return res, nil
}

func (b *ReservationBook) indexOf(id string) int {
	for i := range b.reservations {
		if b.reservations[i].ID == id {
			return i
		}
	}
	return -1
}
