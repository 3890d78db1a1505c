package repository

import (
	"context"
	"database/sql"

	"github.com/ceniit/resource-booking/internal/model"
)

// ProjectRepo manages rows of the `projects` table.
type ProjectRepo struct {
	db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{db: db} }

const projectColumns = `id, name, description, status, start_date, end_date, budget, leader, progress, created_by, created_at`

func scanProject(row interface{ Scan(...interface{}) error }) (*model.Project, error) {
	var (
		p      model.Project
		descr  sql.NullString
		start  sql.NullTime
		end    sql.NullTime
		budget sql.NullFloat64
		leader sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &descr, &p.Status, &start, &end, &budget, &leader,
		&p.Progress, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if descr.Valid {
		p.Description = &descr.String
	}
	if start.Valid {
		p.StartDate = &start.Time
	}
	if end.Valid {
		p.EndDate = &end.Time
	}
	if budget.Valid {
		p.Budget = &budget.Float64
	}
	if leader.Valid {
		p.Leader = &leader.String
	}
	return &p, nil
}

// ProjectListItem is a project row joined with its creator's name.
type ProjectListItem struct {
	model.Project
	CreatorName *string
}

// List returns all projects newest first with the creator's name
// attached when the creating account still exists.
func (r *ProjectRepo) List(ctx context.Context) ([]ProjectListItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.description, p.status, p.start_date, p.end_date, p.budget, p.leader,
		        p.progress, p.created_by, p.created_at, u.name
		 FROM projects p
		 LEFT JOIN users u ON u.id = p.created_by
		 ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]ProjectListItem, 0)
	for rows.Next() {
		var (
			item    ProjectListItem
			descr   sql.NullString
			start   sql.NullTime
			end     sql.NullTime
			budget  sql.NullFloat64
			leader  sql.NullString
			creator sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Name, &descr, &item.Status, &start, &end, &budget, &leader,
			&item.Progress, &item.CreatedBy, &item.CreatedAt, &creator); err != nil {
			return nil, err
		}
		if descr.Valid {
			item.Description = &descr.String
		}
		if start.Valid {
			item.StartDate = &start.Time
		}
		if end.Valid {
			item.EndDate = &end.Time
		}
		if budget.Valid {
			item.Budget = &budget.Float64
		}
		if leader.Valid {
			item.Leader = &leader.String
		}
		if creator.Valid {
			item.CreatorName = &creator.String
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// FindByID returns a project by id, or sql.ErrNoRows when absent.
func (r *ProjectRepo) FindByID(ctx context.Context, id uint64) (*model.Project, error) {
	return scanProject(r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
}

// Create inserts a project and populates the generated ID and defaults
// on the given struct.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (name, description, status, start_date, end_date, budget, leader, progress, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.Status, p.StartDate, p.EndDate, p.Budget, p.Leader, p.Progress, p.CreatedBy)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	fresh, err := r.FindByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *fresh
	return nil
}

// Update overwrites the mutable fields of a project and returns the
// fresh row. sql.ErrNoRows is returned when the project does not exist.
func (r *ProjectRepo) Update(ctx context.Context, p *model.Project) (*model.Project, error) {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE projects
		 SET name=?, description=?, status=?, start_date=?, end_date=?, budget=?, leader=?, progress=?
		 WHERE id=?`,
		p.Name, p.Description, p.Status, p.StartDate, p.EndDate, p.Budget, p.Leader, p.Progress, p.ID); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, p.ID)
}

// Delete removes a project. sql.ErrNoRows is returned when it does not
// exist.
func (r *ProjectRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
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
