package repository

import (
	"context"
	"database/sql"

	"github.com/ceniit/resource-booking/internal/model"
	"github.com/ceniit/resource-booking/internal/scheduler"
)

// ReservationRepo provides persistence for reservations. Dates are
// stored in a DATE column and the booking window in two TIME columns;
// all queries format them back to "YYYY-MM-DD" and "HH:MM" strings so
// the domain layer never sees driver-specific time handling.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// The repo is the concrete store behind the scheduling core.
var _ scheduler.ReservationStore = (*ReservationRepo)(nil)

// DB exposes the underlying sql.DB for callers that need transactions
// spanning multiple repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `r.id, r.resource_id, r.user_id,
       DATE_FORMAT(r.date, '%Y-%m-%d'), TIME_FORMAT(r.start_time, '%H:%i'), TIME_FORMAT(r.end_time, '%H:%i'),
       r.purpose, r.notes, r.status, r.created_at`

func scanReservation(row interface{ Scan(...interface{}) error }) (*model.Reservation, error) {
	var (
		res   model.Reservation
		notes sql.NullString
	)
	err := row.Scan(&res.ID, &res.ResourceID, &res.UserID,
		&res.Date, &res.StartTime, &res.EndTime,
		&res.Purpose, &notes, &res.Status, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		res.Notes = &notes.String
	}
	return &res, nil
}

// FindOverlapping returns the reservations on a resource and date
// whose window touches [start, end) and whose status is neither
// cancelled nor rejected. The WHERE clause keeps the historical
// three-branch interval condition; it is equivalent to the canonical
// half-open predicate the scheduler applies on top.
func (r *ReservationRepo) FindOverlapping(ctx context.Context, resourceID uint64, date, start, end string) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations r
		 WHERE r.resource_id = ? AND r.date = ?
		   AND r.status NOT IN ('cancelled', 'rejected')
		   AND (
		     (r.start_time <= ? AND r.end_time > ?) OR
		     (r.start_time < ? AND r.end_time >= ?) OR
		     (r.start_time >= ? AND r.end_time <= ?)
		   )`,
		resourceID, date, start, start, end, end, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// Create inserts a reservation. The whole check-then-insert sequence
// runs in one transaction: the parent resource row is locked with
// FOR UPDATE, which serializes concurrent creations for the same
// resource, and the overlap window is re-checked under that lock.
// A request that lost the race to an overlapping insert gets
// scheduler.ErrOverlapConflict, exactly as if the scheduler's own
// check had caught it.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var lockedID uint64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM resources WHERE id = ? FOR UPDATE`, res.ResourceID).Scan(&lockedID); err != nil {
		return err
	}

	var conflicts int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations
		 WHERE resource_id = ? AND date = ?
		   AND status NOT IN ('cancelled', 'rejected')
		   AND start_time < ? AND end_time > ?`,
		res.ResourceID, res.Date, res.EndTime, res.StartTime).Scan(&conflicts); err != nil {
		return err
	}
	if conflicts > 0 {
		return scheduler.ErrOverlapConflict
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (resource_id, user_id, date, start_time, end_time, purpose, notes, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ResourceID, res.UserID, res.Date, res.StartTime, res.EndTime, res.Purpose, res.Notes, res.Status)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)

	// Query back the full row to populate timestamps and defaults.
	fresh, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations r WHERE r.id = ?`, res.ID))
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	*res = *fresh
	return nil
}

// FindByID returns a reservation by id, or sql.ErrNoRows when absent.
func (r *ReservationRepo) FindByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	return scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations r WHERE r.id = ?`, id))
}

const reservationListQuery = `SELECT ` + reservationColumns + `, res.name, u.name
	 FROM reservations r
	 JOIN resources res ON res.id = r.resource_id
	 JOIN users u ON u.id = r.user_id`

const reservationListOrder = ` ORDER BY r.date DESC, r.start_time DESC`

func (r *ReservationRepo) listRows(ctx context.Context, query string, args ...interface{}) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		var (
			res   model.Reservation
			notes sql.NullString
		)
		if err := rows.Scan(&res.ID, &res.ResourceID, &res.UserID,
			&res.Date, &res.StartTime, &res.EndTime,
			&res.Purpose, &notes, &res.Status, &res.CreatedAt,
			&res.ResourceName, &res.UserName); err != nil {
			return nil, err
		}
		if notes.Valid {
			res.Notes = &notes.String
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// ListAll returns every reservation with joined resource and owner
// names, newest booking day first, latest start time first within a day.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
	return r.listRows(ctx, reservationListQuery+reservationListOrder)
}

// ListByOwner returns the reservations belonging to one user, in the
// same order as ListAll.
func (r *ReservationRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Reservation, error) {
	return r.listRows(ctx, reservationListQuery+` WHERE r.user_id = ?`+reservationListOrder, ownerID)
}

// UpdateStatus overwrites a reservation's status and returns the
// updated row. sql.ErrNoRows is returned when the reservation does not
// exist. The overwrite is unconditional: transitions out of terminal
// states are an admin policy decision made by the scheduler, not here.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status string) (*model.Reservation, error) {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ?`, status, id); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}
