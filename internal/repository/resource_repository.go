// Package repository contains the MySQL persistence adapters. This file
// defines the resource repository. Resources are the bookable rooms and
// equipment; the scheduler consumes only FindByID, everything else
// serves the administrative CRUD endpoints.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ceniit/resource-booking/internal/model"
	"github.com/ceniit/resource-booking/internal/scheduler"
)

// ResourceRepo manages persistence for resources.
type ResourceRepo struct {
	db *sql.DB
}

// NewResourceRepo returns a ResourceRepo bound to the given database.
func NewResourceRepo(db *sql.DB) *ResourceRepo { return &ResourceRepo{db: db} }

// The scheduler consumes the repo through its ResourceLookup contract.
var _ scheduler.ResourceLookup = (*ResourceRepo)(nil)

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories.
func (r *ResourceRepo) DB() *sql.DB { return r.db }

const resourceColumns = `id, name, type, status, capacity, location, description,
       maintenance_start, maintenance_end, maintenance_reason, created_by, created_at`

func scanResource(row interface{ Scan(...interface{}) error }) (*model.Resource, error) {
	var (
		res        model.Resource
		capacity   sql.NullInt64
		location   sql.NullString
		descr      sql.NullString
		maintStart sql.NullTime
		maintEnd   sql.NullTime
		maintWhy   sql.NullString
	)
	err := row.Scan(&res.ID, &res.Name, &res.Type, &res.Status, &capacity, &location, &descr,
		&maintStart, &maintEnd, &maintWhy, &res.CreatedBy, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	if capacity.Valid {
		c := uint32(capacity.Int64)
		res.Capacity = &c
	}
	if location.Valid {
		res.Location = &location.String
	}
	if descr.Valid {
		res.Description = &descr.String
	}
	if maintStart.Valid {
		res.MaintenanceStart = &maintStart.Time
	}
	if maintEnd.Valid {
		res.MaintenanceEnd = &maintEnd.Time
	}
	if maintWhy.Valid {
		res.MaintenanceReason = &maintWhy.String
	}
	return &res, nil
}

// FindByID returns a resource by id, or sql.ErrNoRows when absent.
func (r *ResourceRepo) FindByID(ctx context.Context, id uint64) (*model.Resource, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id)
	return scanResource(row)
}

// ResourceListItem is a resource row joined with the name of the user
// who registered it, as returned by List.
type ResourceListItem struct {
	model.Resource
	CreatorName *string
}

// List returns all resources newest first, each with its creator's
// name when the creating account still exists.
func (r *ResourceRepo) List(ctx context.Context) ([]ResourceListItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.name, r.type, r.status, r.capacity, r.location, r.description,
		        r.maintenance_start, r.maintenance_end, r.maintenance_reason, r.created_by, r.created_at,
		        u.name
		 FROM resources r
		 LEFT JOIN users u ON u.id = r.created_by
		 ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]ResourceListItem, 0)
	for rows.Next() {
		var (
			item       ResourceListItem
			capacity   sql.NullInt64
			location   sql.NullString
			descr      sql.NullString
			maintStart sql.NullTime
			maintEnd   sql.NullTime
			maintWhy   sql.NullString
			creator    sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.Type, &item.Status, &capacity, &location, &descr,
			&maintStart, &maintEnd, &maintWhy, &item.CreatedBy, &item.CreatedAt, &creator); err != nil {
			return nil, err
		}
		if capacity.Valid {
			c := uint32(capacity.Int64)
			item.Capacity = &c
		}
		if location.Valid {
			item.Location = &location.String
		}
		if descr.Valid {
			item.Description = &descr.String
		}
		if maintStart.Valid {
			item.MaintenanceStart = &maintStart.Time
		}
		if maintEnd.Valid {
			item.MaintenanceEnd = &maintEnd.Time
		}
		if maintWhy.Valid {
			item.MaintenanceReason = &maintWhy.String
		}
		if creator.Valid {
			item.CreatorName = &creator.String
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Create inserts a resource and populates the generated ID and
// database defaults on the given struct.
func (r *ResourceRepo) Create(ctx context.Context, res *model.Resource) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO resources (name, type, status, capacity, location, description, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.Name, res.Type, res.Status, res.Capacity, res.Location, res.Description, res.CreatedBy)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	fresh, err := r.FindByID(ctx, res.ID)
	if err != nil {
		return err
	}
	*res = *fresh
	return nil
}

// Update overwrites the mutable fields of a resource, including its
// maintenance window, and returns the fresh row. sql.ErrNoRows is
// returned when the resource does not exist.
func (r *ResourceRepo) Update(ctx context.Context, res *model.Resource) (*model.Resource, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE resources
		 SET name=?, type=?, status=?, capacity=?, location=?, description=?,
		     maintenance_start=?, maintenance_end=?, maintenance_reason=?
		 WHERE id=?`,
		res.Name, res.Type, res.Status, res.Capacity, res.Location, res.Description,
		res.MaintenanceStart, res.MaintenanceEnd, res.MaintenanceReason, res.ID)
	if err != nil {
		return nil, err
	}
	if _, err := result.RowsAffected(); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, res.ID)
}

// Delete removes a resource. ErrConflict is returned when reservations
// still reference it, sql.ErrNoRows when it does not exist.
func (r *ResourceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
	if err != nil {
		// MySQL error 1451: row is referenced by a foreign key.
		if strings.Contains(strings.ToLower(err.Error()), "1451") {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
