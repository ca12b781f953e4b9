package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/domain"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
)

const countSeatsQuery = `SELECT COALESCE(SUM(passenger_count), 0) FROM bookings
	WHERE direction = ? AND date = ? AND stop_id = ? AND depart = ?
	AND status IN (?, ?)`

// dateKey normalizes a service date to the store timezone before it
// becomes a text key, so callers handing in the same wall-clock date in
// a different zone hit the same rows.
func (s *Store) dateKey(t time.Time) string {
	return t.In(s.loc).Format(models.DateLayout)
}

// BookedSeats returns the seats already taken on a slot. Cancelled,
// rejected and expired records do not hold seats.
func (s *Store) BookedSeats(ctx context.Context, slot models.ScheduleSlot) (int, error) {
	var seats int
	err := s.db.QueryRowContext(ctx, countSeatsQuery,
		slot.Direction, s.dateKey(slot.Date), slot.StopID, slot.Time,
		models.StatusBooked, models.StatusBoarded,
	).Scan(&seats)
	if err != nil {
		return 0, fmt.Errorf("failed to count booked seats: %w", err)
	}
	return seats, nil
}

// Create commits a draft as a booked record. The capacity check and the
// insert share one transaction, so the second of two racing requests for
// the last seat gets ErrCapacityConflict, never a silent success.
func (s *Store) Create(ctx context.Context, record *models.BookingRecord) error {
	if record.Slot == nil {
		return errors.New("booking record has no schedule slot")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	slot := *record.Slot
	var seats int
	err = tx.QueryRowContext(ctx, countSeatsQuery,
		slot.Direction, s.dateKey(slot.Date), slot.StopID, slot.Time,
		models.StatusBooked, models.StatusBoarded,
	).Scan(&seats)
	if err != nil {
		return fmt.Errorf("failed to check capacity in tx: %w", err)
	}

	if seats+record.PassengerCount > s.capacity {
		return ErrCapacityConflict
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	now := time.Now()
	record.Status = models.StatusBooked
	record.CreatedAt = now
	record.UpdatedAt = now
	record.Version = 1

	_, err = tx.ExecContext(ctx, `INSERT INTO bookings (
			id, direction, date, stop_id, depart, identity,
			check_in, check_out, room_code, dining_date,
			name, phone, email, pickup_key, dropoff_key,
			passenger_count, status, created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Direction, s.dateKey(slot.Date), slot.StopID, slot.Time,
		record.Identity,
		formatDate(record.CheckIn), formatDate(record.CheckOut), record.RoomCode, formatDate(record.DiningDate),
		record.Name, record.Phone, record.Email, record.PickupKey, record.DropoffKey,
		record.PassengerCount, record.Status, now, now, record.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	return tx.Commit()
}

// Get returns one record by id.
func (s *Store) Get(ctx context.Context, id string) (*models.BookingRecord, error) {
	row := s.db.QueryRowContext(ctx, selectBookings+` WHERE id = ?`, id)
	record, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return record, nil
}

// Cancel transitions booked -> cancelled. The transition is irreversible
// through this interface and guarded by the record version.
func (s *Store) Cancel(ctx context.Context, id string, version int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ?, version = version + 1
			WHERE id = ? AND version = ? AND status = ?`,
		models.StatusCancelled, time.Now(), id, version, models.StatusBooked,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		if _, getErr := s.Get(ctx, id); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConcurrentModification
	}
	return nil
}

// Modify replaces a booked record's draft fields with a new slot,
// re-checking capacity on the target slot without counting the record's
// own seats. Status stays booked.
func (s *Store) Modify(ctx context.Context, id string, version int64, draft models.DraftBooking) (*models.BookingRecord, error) {
	if draft.Slot == nil {
		return nil, errors.New("modified draft has no schedule slot")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := scanBooking(tx.QueryRowContext(ctx, selectBookings+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking in tx: %w", err)
	}
	if current.Status != models.StatusBooked {
		return nil, ErrNotFound
	}
	if current.Version != version {
		return nil, ErrConcurrentModification
	}

	slot := *draft.Slot
	var seats int
	err = tx.QueryRowContext(ctx, countSeatsQuery+` AND id != ?`,
		slot.Direction, s.dateKey(slot.Date), slot.StopID, slot.Time,
		models.StatusBooked, models.StatusBoarded, id,
	).Scan(&seats)
	if err != nil {
		return nil, fmt.Errorf("failed to check capacity in tx: %w", err)
	}
	if seats+draft.PassengerCount > s.capacity {
		return nil, ErrCapacityConflict
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `UPDATE bookings SET
			direction = ?, date = ?, stop_id = ?, depart = ?, identity = ?,
			check_in = ?, check_out = ?, room_code = ?, dining_date = ?,
			name = ?, phone = ?, email = ?, pickup_key = ?, dropoff_key = ?,
			passenger_count = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		draft.Direction, s.dateKey(slot.Date), slot.StopID, slot.Time, draft.Identity,
		formatDate(draft.CheckIn), formatDate(draft.CheckOut), draft.RoomCode, formatDate(draft.DiningDate),
		draft.Name, draft.Phone, draft.Email, draft.PickupKey, draft.DropoffKey,
		draft.PassengerCount, now, id, version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit modify: %w", err)
	}

	return s.Get(ctx, id)
}

// Find matches records by one identifier inside the lookup window. The
// exactly-one rule is enforced by the lookup service; here an empty query
// simply matches nothing.
func (s *Store) Find(ctx context.Context, q domain.BookingQuery) ([]*models.BookingRecord, error) {
	query := selectBookings + ` WHERE created_at >= ?`
	args := []interface{}{q.Since}

	switch {
	case q.BookingID != "":
		query += ` AND id = ?`
		args = append(args, q.BookingID)
	case q.Phone != "":
		query += ` AND phone = ?`
		args = append(args, q.Phone)
	case q.Email != "":
		query += ` AND email = ?`
		args = append(args, q.Email)
	default:
		return nil, nil
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer rows.Close()

	var records []*models.BookingRecord
	for rows.Next() {
		record, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return records, nil
}

// ListByDate returns every record for one service date, ordered by
// departure time. Used by the daily manifest export.
func (s *Store) ListByDate(ctx context.Context, date time.Time) ([]*models.BookingRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		selectBookings+` WHERE date = ? ORDER BY depart ASC, created_at ASC`,
		s.dateKey(date),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by date: %w", err)
	}
	defer rows.Close()

	var records []*models.BookingRecord
	for rows.Next() {
		record, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return records, nil
}

const selectBookings = `SELECT id, direction, date, stop_id, depart, identity,
	check_in, check_out, room_code, dining_date,
	name, phone, email, pickup_key, dropoff_key,
	passenger_count, status, created_at, updated_at, version
	FROM bookings`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.BookingRecord, error) {
	var (
		record     models.BookingRecord
		slot       models.ScheduleSlot
		dateStr    string
		checkIn    string
		checkOut   string
		diningDate string
	)

	err := row.Scan(
		&record.ID, &slot.Direction, &dateStr, &slot.StopID, &slot.Time, &record.Identity,
		&checkIn, &checkOut, &record.RoomCode, &diningDate,
		&record.Name, &record.Phone, &record.Email, &record.PickupKey, &record.DropoffKey,
		&record.PassengerCount, &record.Status, &record.CreatedAt, &record.UpdatedAt, &record.Version,
	)
	if err != nil {
		return nil, err
	}

	date, err := time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date: %w", err)
	}

	slot.Date = date
	record.Direction = slot.Direction
	record.Date = date
	record.StopID = slot.StopID
	record.Slot = &slot
	record.CheckIn = parseDate(checkIn)
	record.CheckOut = parseDate(checkOut)
	record.DiningDate = parseDate(diningDate)
	return &record, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
