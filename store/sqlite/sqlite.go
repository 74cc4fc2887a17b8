/*
Package sqlite provides a SQLite-backed implementation of booking.Store.

PURPOSE:
  Implements every persistence interface the engine needs (trips,
  promotions, usage counters, transactions, tickets, payments) using
  SQLite. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

ATOMICITY:
  The two invariant-critical operations are conditional UPDATEs:

    seats:  UPDATE trips SET available_seats = available_seats - ?
            WHERE id = ? AND available_seats >= ?
    usage:  UPDATE promo_usage SET used = used + ?
            WHERE ... AND used + ? <= cap   (inside one SQL transaction)

  Zero rows affected means the check failed; the count was never read
  out and written back, so concurrent purchases cannot race past a cap.

KEY TABLES:
  trips:              seat inventory and pass pricing
  promotions:         versioned, immutable promotion configs
  transactions:       purchase roots (committed flag, session token)
  transaction_items:  append-only double-entry lines
  tickets:            per-seat records with status lifecycle
  payments:           gateway charge attempts
  promo_usage:        per-(promotion, user) counters
  promo_usage_totals: per-promotion global counters

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block
  and there is a single writer at a time.

USAGE:
  store, err := sqlite.New("./data/booking.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - booking/store.go: interface definitions
  - booking/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/transitline/booking-engine/booking"
)

// Store implements booking.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers; WAL keeps readers unblocked.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trips (
		id TEXT PRIMARY KEY,
		route_id TEXT NOT NULL,
		route_tags_json TEXT NOT NULL DEFAULT '[]',
		departure_date TEXT NOT NULL,
		base_fare TEXT NOT NULL,
		child_fare TEXT NOT NULL,
		total_seats INTEGER NOT NULL,
		available_seats INTEGER NOT NULL CHECK (available_seats >= 0),
		pass_fares_json TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trips_route ON trips(route_id, departure_date);

	CREATE TABLE IF NOT EXISTS promotions (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(code, version)
	);
	CREATE INDEX IF NOT EXISTS idx_promotions_code ON promotions(code, version DESC);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT '',
		guest_contact TEXT NOT NULL DEFAULT '',
		session_token TEXT NOT NULL DEFAULT '',
		committed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- Append-only: no UPDATE or DELETE is ever issued against items.
	CREATE TABLE IF NOT EXISTS transaction_items (
		id TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL REFERENCES transactions(id),
		item_type TEXT NOT NULL,
		item_id TEXT NOT NULL,
		debit TEXT NOT NULL,
		credit TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_items_transaction ON transaction_items(transaction_id);

	CREATE TABLE IF NOT EXISTS tickets (
		id TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL REFERENCES transactions(id),
		user_id TEXT NOT NULL DEFAULT '',
		trip_id TEXT NOT NULL,
		board_stop TEXT NOT NULL DEFAULT '',
		alight_stop TEXT NOT NULL DEFAULT '',
		class TEXT NOT NULL,
		status TEXT NOT NULL,
		notes_json TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tickets_transaction ON tickets(transaction_id);
	CREATE INDEX IF NOT EXISTS idx_tickets_trip ON tickets(trip_id, status);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL REFERENCES transactions(id),
		amount_minor INTEGER NOT NULL,
		gateway_ref TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_payments_transaction ON payments(transaction_id);

	CREATE TABLE IF NOT EXISTS promo_usage (
		promotion_id TEXT NOT NULL,
		user_key TEXT NOT NULL,
		used INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (promotion_id, user_key)
	);

	CREATE TABLE IF NOT EXISTS promo_usage_totals (
		promotion_id TEXT PRIMARY KEY,
		used INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRIP STORE
// =============================================================================

func (s *Store) SaveTrip(ctx context.Context, trip booking.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tags, _ := json.Marshal(trip.RouteTags)
	createdAt := trip.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO trips
		(id, route_id, route_tags_json, departure_date, base_fare, child_fare,
		 total_seats, available_seats, pass_fares_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trip.ID, trip.RouteID, string(tags),
		trip.DepartureDate.UTC().Format(time.RFC3339),
		trip.BaseFare.String(), trip.ChildFare.String(),
		trip.TotalSeats, trip.AvailableSeats, marshalPassFares(trip.PassFares),
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save trip: %w", err)
	}
	return nil
}

func (s *Store) GetTrip(ctx context.Context, id booking.TripID) (*booking.Trip, error) {
	row := s.db.QueryRowContext(ctx, tripSelect+` WHERE id = ?`, id)
	return scanTrip(row)
}

func (s *Store) ListTrips(ctx context.Context) ([]booking.Trip, error) {
	return s.queryTrips(ctx, tripSelect+` ORDER BY departure_date, id`)
}

func (s *Store) ListTripsByRoute(ctx context.Context, routeID booking.RouteID) ([]booking.Trip, error) {
	return s.queryTrips(ctx, tripSelect+` WHERE route_id = ? ORDER BY departure_date`, routeID)
}

// ReserveSeats is the capacity serialization point: a conditional
// decrement that fails without side effects when the seats aren't there.
func (s *Store) ReserveSeats(ctx context.Context, id booking.TripID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE trips SET available_seats = available_seats - ?
		WHERE id = ? AND available_seats >= ?`,
		quantity, id, quantity)
	if err != nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 1 {
		return nil
	}

	var available int
	err = s.db.QueryRowContext(ctx, `SELECT available_seats FROM trips WHERE id = ?`, id).Scan(&available)
	if err == sql.ErrNoRows {
		return booking.ErrTripNotFound
	}
	if err != nil {
		return err
	}
	return &booking.CapacityError{TripID: id, Requested: quantity, Available: available}
}

func (s *Store) RestoreSeats(ctx context.Context, id booking.TripID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE trips SET available_seats = MIN(total_seats, available_seats + ?)
		WHERE id = ?`,
		quantity, id)
	if err != nil {
		return fmt.Errorf("failed to restore seats: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return booking.ErrTripNotFound
	}
	return nil
}

// =============================================================================
// PROMOTION STORE
// =============================================================================

func (s *Store) SavePromotion(ctx context.Context, rec booking.PromotionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO promotions (id, code, name, version, config_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Code, rec.Name, rec.Version, rec.ConfigJSON,
		createdAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save promotion: %w", err)
	}
	return nil
}

func (s *Store) GetPromotion(ctx context.Context, id booking.PromotionID) (*booking.PromotionRecord, error) {
	row := s.db.QueryRowContext(ctx, promoSelect+` WHERE id = ?`, id)
	return scanPromotion(row)
}

func (s *Store) GetPromotionByCode(ctx context.Context, code string) (*booking.PromotionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		promoSelect+` WHERE code = ? ORDER BY version DESC LIMIT 1`, code)
	return scanPromotion(row)
}

func (s *Store) ListPromotions(ctx context.Context) ([]booking.PromotionRecord, error) {
	rows, err := s.db.QueryContext(ctx, promoSelect+` ORDER BY code, version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.PromotionRecord
	for rows.Next() {
		rec, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// =============================================================================
// USAGE STORE
// =============================================================================

// ConsumeUsage checks both caps and increments both counters inside one
// SQL transaction. Each increment is guarded by the cap in its WHERE
// clause; zero rows affected rolls the whole step back.
func (s *Store) ConsumeUsage(ctx context.Context, id booking.PromotionID, userKey string, count, perUserCap, globalCap int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin usage transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO promo_usage (promotion_id, user_key, used) VALUES (?, ?, 0)
		ON CONFLICT(promotion_id, user_key) DO NOTHING`, id, userKey); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO promo_usage_totals (promotion_id, used) VALUES (?, 0)
		ON CONFLICT(promotion_id) DO NOTHING`, id); err != nil {
		return err
	}

	userQuery := `UPDATE promo_usage SET used = used + ? WHERE promotion_id = ? AND user_key = ?`
	userArgs := []any{count, id, userKey}
	if perUserCap > 0 {
		userQuery += ` AND used + ? <= ?`
		userArgs = append(userArgs, count, perUserCap)
	}
	res, err := tx.ExecContext(ctx, userQuery, userArgs...)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return &booking.UsageLimitError{PromotionID: id, Scope: "per_user", Cap: perUserCap}
	}

	globalQuery := `UPDATE promo_usage_totals SET used = used + ? WHERE promotion_id = ?`
	globalArgs := []any{count, id}
	if globalCap > 0 {
		globalQuery += ` AND used + ? <= ?`
		globalArgs = append(globalArgs, count, globalCap)
	}
	res, err = tx.ExecContext(ctx, globalQuery, globalArgs...)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return &booking.UsageLimitError{PromotionID: id, Scope: "global", Cap: globalCap}
	}

	return tx.Commit()
}

func (s *Store) ReleaseUsage(ctx context.Context, id booking.PromotionID, userKey string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE promo_usage SET used = MAX(0, used - ?)
		WHERE promotion_id = ? AND user_key = ?`, count, id, userKey); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE promo_usage_totals SET used = MAX(0, used - ?)
		WHERE promotion_id = ?`, count, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Usage(ctx context.Context, id booking.PromotionID, userKey string) (int, int, error) {
	var user, global int
	err := s.db.QueryRowContext(ctx,
		`SELECT used FROM promo_usage WHERE promotion_id = ? AND user_key = ?`,
		id, userKey).Scan(&user)
	if err != nil && err != sql.ErrNoRows {
		return 0, 0, err
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT used FROM promo_usage_totals WHERE promotion_id = ?`, id).Scan(&global)
	if err != nil && err != sql.ErrNoRows {
		return 0, 0, err
	}
	return user, global, nil
}

// =============================================================================
// TRANSACTION STORE
// =============================================================================

func (s *Store) SaveTransaction(ctx context.Context, tx booking.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, guest_contact, session_token, committed, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Purchaser.UserID, tx.Purchaser.GuestContact,
		tx.SessionToken, boolToInt(tx.Committed),
		tx.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id booking.TransactionID) (*booking.Transaction, error) {
	var (
		tx        booking.Transaction
		committed int
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, guest_contact, session_token, committed, created_at
		FROM transactions WHERE id = ?`, id).Scan(
		&tx.ID, &tx.Purchaser.UserID, &tx.Purchaser.GuestContact,
		&tx.SessionToken, &committed, &createdAt)
	if err == sql.ErrNoRows {
		return nil, booking.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	tx.Committed = committed != 0
	tx.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, item_type, item_id, debit, credit, created_at
		FROM transaction_items WHERE transaction_id = ?
		ORDER BY created_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			item    booking.TransactionItem
			debit   string
			credit  string
			created string
		)
		if err := rows.Scan(&item.ID, &item.TransactionID, &item.Type, &item.ItemID,
			&debit, &credit, &created); err != nil {
			return nil, err
		}
		item.Debit = booking.MustParseMoney(debit)
		item.Credit = booking.MustParseMoney(credit)
		item.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		tx.Items = append(tx.Items, item)
	}
	return &tx, rows.Err()
}

func (s *Store) AppendItems(ctx context.Context, id booking.TransactionID, items []booking.TransactionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	for _, item := range items {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO transaction_items (id, transaction_id, item_type, item_id, debit, credit, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID, id, item.Type, item.ItemID,
			item.Debit.String(), item.Credit.String(),
			item.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("failed to append item: %w", err)
		}
	}
	return sqlTx.Commit()
}

// MarkCommitted only ever sets the flag; nothing in this package clears it.
func (s *Store) MarkCommitted(ctx context.Context, id booking.TransactionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET committed = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return booking.ErrTransactionNotFound
	}
	return nil
}

func (s *Store) SaveTickets(ctx context.Context, tickets []booking.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	for _, t := range tickets {
		notes, _ := json.Marshal(t.Notes)
		_, err := sqlTx.ExecContext(ctx, `
			INSERT OR REPLACE INTO tickets
			(id, transaction_id, user_id, trip_id, board_stop, alight_stop, class, status, notes_json, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.TransactionID, t.UserID, t.TripID, t.BoardStop, t.AlightStop,
			t.Class, t.Status, string(notes),
			t.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("failed to save ticket: %w", err)
		}
	}
	return sqlTx.Commit()
}

func (s *Store) UpdateTicketStatus(ctx context.Context, ids []booking.TicketID, status booking.TicketStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	for _, id := range ids {
		res, err := sqlTx.ExecContext(ctx,
			`UPDATE tickets SET status = ? WHERE id = ?`, status, id)
		if err != nil {
			return err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return booking.ErrTicketNotFound
		}
	}
	return sqlTx.Commit()
}

func (s *Store) GetTicket(ctx context.Context, id booking.TicketID) (*booking.Ticket, error) {
	row := s.db.QueryRowContext(ctx, ticketSelect+` WHERE id = ?`, id)
	return scanTicket(row)
}

func (s *Store) TicketsByTransaction(ctx context.Context, id booking.TransactionID) ([]booking.Ticket, error) {
	rows, err := s.db.QueryContext(ctx,
		ticketSelect+` WHERE transaction_id = ? ORDER BY created_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) SavePayment(ctx context.Context, p booking.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (id, transaction_id, amount_minor, gateway_ref, status, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TransactionID, p.AmountMinor, p.GatewayRef, p.Status, p.Reason,
		p.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

func (s *Store) PaymentsByTransaction(ctx context.Context, id booking.TransactionID) ([]booking.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, amount_minor, gateway_ref, status, reason, created_at
		FROM payments WHERE transaction_id = ? ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Payment
	for rows.Next() {
		var (
			p       booking.Payment
			created string
		)
		if err := rows.Scan(&p.ID, &p.TransactionID, &p.AmountMinor, &p.GatewayRef,
			&p.Status, &p.Reason, &created); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

const tripSelect = `
	SELECT id, route_id, route_tags_json, departure_date, base_fare, child_fare,
	       total_seats, available_seats, pass_fares_json, created_at
	FROM trips`

func scanTrip(row rowScanner) (*booking.Trip, error) {
	var (
		trip      booking.Trip
		tags      string
		departure string
		baseFare  string
		childFare string
		passFares string
		createdAt string
	)
	err := row.Scan(&trip.ID, &trip.RouteID, &tags, &departure, &baseFare, &childFare,
		&trip.TotalSeats, &trip.AvailableSeats, &passFares, &createdAt)
	if err == sql.ErrNoRows {
		return nil, booking.ErrTripNotFound
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(tags), &trip.RouteTags)
	trip.DepartureDate, _ = time.Parse(time.RFC3339, departure)
	trip.BaseFare = booking.MustParseMoney(baseFare)
	trip.ChildFare = booking.MustParseMoney(childFare)
	trip.PassFares = unmarshalPassFares(passFares)
	trip.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &trip, nil
}

func (s *Store) queryTrips(ctx context.Context, query string, args ...any) ([]booking.Trip, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *trip)
	}
	return out, rows.Err()
}

const promoSelect = `SELECT id, code, name, version, config_json, created_at FROM promotions`

func scanPromotion(row rowScanner) (*booking.PromotionRecord, error) {
	var (
		rec       booking.PromotionRecord
		createdAt string
	)
	err := row.Scan(&rec.ID, &rec.Code, &rec.Name, &rec.Version, &rec.ConfigJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, booking.ErrPromotionNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rec, nil
}

const ticketSelect = `
	SELECT id, transaction_id, user_id, trip_id, board_stop, alight_stop, class, status, notes_json, created_at
	FROM tickets`

func scanTicket(row rowScanner) (*booking.Ticket, error) {
	var (
		t       booking.Ticket
		notes   string
		created string
	)
	err := row.Scan(&t.ID, &t.TransactionID, &t.UserID, &t.TripID,
		&t.BoardStop, &t.AlightStop, &t.Class, &t.Status, &notes, &created)
	if err == sql.ErrNoRows {
		return nil, booking.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(notes), &t.Notes)
	t.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &t, nil
}

// Pass fares serialize as {"5": "4.50"} since JSON object keys are strings.
func marshalPassFares(fares map[int]booking.Money) string {
	m := make(map[string]string, len(fares))
	for size, fare := range fares {
		m[strconv.Itoa(size)] = fare.String()
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func unmarshalPassFares(s string) map[int]booking.Money {
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil || len(m) == 0 {
		return nil
	}
	out := make(map[int]booking.Money, len(m))
	for k, v := range m {
		size, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			continue
		}
		out[size] = booking.MustParseMoney(v)
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
