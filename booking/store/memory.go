// Package store provides an in-memory booking.Store implementation
// (for testing/dev). All conditional updates are serialized by a single
// mutex, which gives the same atomicity guarantees the SQLite store gets
// from conditional UPDATE statements.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/transitline/booking-engine/booking"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	trips        map[booking.TripID]booking.Trip
	promotions   map[booking.PromotionID]booking.PromotionRecord
	transactions map[booking.TransactionID]booking.Transaction
	items        map[booking.TransactionID][]booking.TransactionItem
	tickets      map[booking.TicketID]booking.Ticket
	payments     map[booking.TransactionID][]booking.Payment
	userUsage    map[usageKey]int
	globalUsage  map[booking.PromotionID]int
}

type usageKey struct {
	PromotionID booking.PromotionID
	UserKey     string
}

func NewMemory() *Memory {
	return &Memory{
		trips:        make(map[booking.TripID]booking.Trip),
		promotions:   make(map[booking.PromotionID]booking.PromotionRecord),
		transactions: make(map[booking.TransactionID]booking.Transaction),
		items:        make(map[booking.TransactionID][]booking.TransactionItem),
		tickets:      make(map[booking.TicketID]booking.Ticket),
		payments:     make(map[booking.TransactionID][]booking.Payment),
		userUsage:    make(map[usageKey]int),
		globalUsage:  make(map[booking.PromotionID]int),
	}
}

// =============================================================================
// TRIP STORE
// =============================================================================

func (m *Memory) SaveTrip(_ context.Context, trip booking.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
	return nil
}

func (m *Memory) GetTrip(_ context.Context, id booking.TripID) (*booking.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, booking.ErrTripNotFound
	}
	return &trip, nil
}

func (m *Memory) ListTrips(_ context.Context) ([]booking.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]booking.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListTripsByRoute(_ context.Context, routeID booking.RouteID) ([]booking.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []booking.Trip
	for _, t := range m.trips {
		if t.RouteID == routeID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureDate.Before(out[j].DepartureDate) })
	return out, nil
}

// ReserveSeats is the capacity serialization point: the check and the
// decrement happen under one lock, never as a read-then-write race.
func (m *Memory) ReserveSeats(_ context.Context, id booking.TripID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return booking.ErrTripNotFound
	}
	if trip.AvailableSeats < quantity {
		return &booking.CapacityError{TripID: id, Requested: quantity, Available: trip.AvailableSeats}
	}
	trip.AvailableSeats -= quantity
	m.trips[id] = trip
	return nil
}

func (m *Memory) RestoreSeats(_ context.Context, id booking.TripID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return booking.ErrTripNotFound
	}
	trip.AvailableSeats += quantity
	if trip.AvailableSeats > trip.TotalSeats {
		trip.AvailableSeats = trip.TotalSeats
	}
	m.trips[id] = trip
	return nil
}

// =============================================================================
// PROMOTION STORE
// =============================================================================

func (m *Memory) SavePromotion(_ context.Context, rec booking.PromotionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promotions[rec.ID] = rec
	return nil
}

func (m *Memory) GetPromotion(_ context.Context, id booking.PromotionID) (*booking.PromotionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.promotions[id]
	if !ok {
		return nil, booking.ErrPromotionNotFound
	}
	return &rec, nil
}

func (m *Memory) GetPromotionByCode(_ context.Context, code string) (*booking.PromotionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *booking.PromotionRecord
	for _, rec := range m.promotions {
		if rec.Code != code {
			continue
		}
		if best == nil || rec.Version > best.Version {
			r := rec
			best = &r
		}
	}
	if best == nil {
		return nil, booking.ErrPromotionNotFound
	}
	return best, nil
}

func (m *Memory) ListPromotions(_ context.Context) ([]booking.PromotionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]booking.PromotionRecord, 0, len(m.promotions))
	for _, rec := range m.promotions {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// =============================================================================
// USAGE STORE
// =============================================================================

// ConsumeUsage checks both caps and increments both counters under one
// lock. Two concurrent calls racing for the last unit cannot both pass.
func (m *Memory) ConsumeUsage(_ context.Context, id booking.PromotionID, userKey string, count, perUserCap, globalCap int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	uk := usageKey{PromotionID: id, UserKey: userKey}
	if perUserCap > 0 && m.userUsage[uk]+count > perUserCap {
		return &booking.UsageLimitError{PromotionID: id, Scope: "per_user", Cap: perUserCap}
	}
	if globalCap > 0 && m.globalUsage[id]+count > globalCap {
		return &booking.UsageLimitError{PromotionID: id, Scope: "global", Cap: globalCap}
	}
	m.userUsage[uk] += count
	m.globalUsage[id] += count
	return nil
}

func (m *Memory) ReleaseUsage(_ context.Context, id booking.PromotionID, userKey string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	uk := usageKey{PromotionID: id, UserKey: userKey}
	if m.userUsage[uk] >= count {
		m.userUsage[uk] -= count
	} else {
		m.userUsage[uk] = 0
	}
	if m.globalUsage[id] >= count {
		m.globalUsage[id] -= count
	} else {
		m.globalUsage[id] = 0
	}
	return nil
}

func (m *Memory) Usage(_ context.Context, id booking.PromotionID, userKey string) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userUsage[usageKey{PromotionID: id, UserKey: userKey}], m.globalUsage[id], nil
}

// =============================================================================
// TRANSACTION STORE
// =============================================================================

func (m *Memory) SaveTransaction(_ context.Context, tx booking.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx.Items = nil // items live in their own map
	m.transactions[tx.ID] = tx
	return nil
}

func (m *Memory) GetTransaction(_ context.Context, id booking.TransactionID) (*booking.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.transactions[id]
	if !ok {
		return nil, booking.ErrTransactionNotFound
	}
	tx.Items = append([]booking.TransactionItem{}, m.items[id]...)
	return &tx, nil
}

// ListTransactions returns every transaction with its items, ordered by
// creation time. Dev and test convenience; not part of booking.Store.
func (m *Memory) ListTransactions(_ context.Context) ([]booking.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]booking.Transaction, 0, len(m.transactions))
	for id, tx := range m.transactions {
		tx.Items = append([]booking.TransactionItem{}, m.items[id]...)
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) AppendItems(_ context.Context, id booking.TransactionID, items []booking.TransactionItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[id]; !ok {
		return booking.ErrTransactionNotFound
	}
	m.items[id] = append(m.items[id], items...)
	return nil
}

func (m *Memory) MarkCommitted(_ context.Context, id booking.TransactionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok {
		return booking.ErrTransactionNotFound
	}
	tx.Committed = true
	m.transactions[id] = tx
	return nil
}

func (m *Memory) SaveTickets(_ context.Context, tickets []booking.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tickets {
		m.tickets[t.ID] = t
	}
	return nil
}

func (m *Memory) UpdateTicketStatus(_ context.Context, ids []booking.TicketID, status booking.TicketStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		t, ok := m.tickets[id]
		if !ok {
			return booking.ErrTicketNotFound
		}
		t.Status = status
		m.tickets[id] = t
	}
	return nil
}

func (m *Memory) GetTicket(_ context.Context, id booking.TicketID) (*booking.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, booking.ErrTicketNotFound
	}
	return &t, nil
}

func (m *Memory) TicketsByTransaction(_ context.Context, id booking.TransactionID) ([]booking.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []booking.Ticket
	for _, t := range m.tickets {
		if t.TransactionID == id {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) || (out[i].CreatedAt.Equal(out[j].CreatedAt) && out[i].ID < out[j].ID) })
	return out, nil
}

func (m *Memory) SavePayment(_ context.Context, p booking.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.TransactionID] = append(m.payments[p.TransactionID], p)
	return nil
}

func (m *Memory) PaymentsByTransaction(_ context.Context, id booking.TransactionID) ([]booking.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]booking.Payment{}, m.payments[id]...), nil
}
