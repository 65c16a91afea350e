package classes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mataleao/backend/internal/models"
)

// Repository handles class persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a classes repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateParams holds the fields for inserting one class occurrence.
type CreateParams struct {
	Title        *string
	Description  *string
	Date         time.Time
	StartTime    time.Time
	EndTime      time.Time
	InstructorID uuid.UUID
	CategoryID   uuid.UUID
	Capacity     int
	IsRecurring  bool
	RecurrenceID *uuid.UUID
}

const insertClass = `INSERT INTO classes
	(title, description, date, start_time, end_time, instructor_id, category_id, capacity, is_recurring, recurrence_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id, created_at`

// Create inserts a single class.
func (r *Repository) Create(ctx context.Context, p CreateParams) (*models.Class, error) {
	cl := models.Class{
		Title:        p.Title,
		Description:  p.Description,
		Date:         p.Date,
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		InstructorID: p.InstructorID,
		CategoryID:   p.CategoryID,
		Capacity:     p.Capacity,
		IsRecurring:  p.IsRecurring,
		RecurrenceID: p.RecurrenceID,
	}
	err := r.pool.QueryRow(ctx, insertClass,
		p.Title, p.Description, p.Date, p.StartTime, p.EndTime,
		p.InstructorID, p.CategoryID, p.Capacity, p.IsRecurring, p.RecurrenceID).
		Scan(&cl.ID, &cl.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert class: %w", err)
	}
	return &cl, nil
}

// CreateBulk inserts all occurrences of a recurring class in one transaction.
func (r *Repository) CreateBulk(ctx context.Context, params []CreateParams) ([]models.Class, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created := make([]models.Class, 0, len(params))
	for _, p := range params {
		cl := models.Class{
			Title:        p.Title,
			Description:  p.Description,
			Date:         p.Date,
			StartTime:    p.StartTime,
			EndTime:      p.EndTime,
			InstructorID: p.InstructorID,
			CategoryID:   p.CategoryID,
			Capacity:     p.Capacity,
			IsRecurring:  p.IsRecurring,
			RecurrenceID: p.RecurrenceID,
		}
		err := tx.QueryRow(ctx, insertClass,
			p.Title, p.Description, p.Date, p.StartTime, p.EndTime,
			p.InstructorID, p.CategoryID, p.Capacity, p.IsRecurring, p.RecurrenceID).
			Scan(&cl.ID, &cl.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert class: %w", err)
		}
		created = append(created, cl)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return created, nil
}

const detailColumns = `c.id, c.title, c.description, c.date, c.start_time, c.end_time,
	c.instructor_id, c.category_id, c.capacity, c.is_recurring, c.recurrence_id, c.created_at,
	u.name, cat.type,
	COUNT(ck.id) FILTER (WHERE ck.status = 'done')`

const detailFrom = ` FROM classes c
	JOIN users u ON u.id = c.instructor_id
	JOIN categories cat ON cat.id = c.category_id
	LEFT JOIN checkins ck ON ck.class_id = c.id`

const detailGroup = ` GROUP BY c.id, u.name, cat.type`

func (r *Repository) scanDetail(row pgx.Row, now time.Time, loc *time.Location) (*models.ClassDetail, error) {
	var d models.ClassDetail
	err := row.Scan(&d.ID, &d.Title, &d.Description, &d.Date, &d.StartTime, &d.EndTime,
		&d.InstructorID, &d.CategoryID, &d.Capacity, &d.IsRecurring, &d.RecurrenceID, &d.CreatedAt,
		&d.InstructorName, &d.CategoryType, &d.CheckinCount)
	if err != nil {
		return nil, err
	}
	d.Status = Phase(d.StartTime, d.EndTime, now, loc)
	return &d, nil
}

// GetDetailByID returns a class with instructor/category names, derived
// status and active check-in count, or nil when absent.
func (r *Repository) GetDetailByID(ctx context.Context, id uuid.UUID, now time.Time, loc *time.Location) (*models.ClassDetail, error) {
	q := `SELECT ` + detailColumns + detailFrom + ` WHERE c.id = $1` + detailGroup
	d, err := r.scanDetail(r.pool.QueryRow(ctx, q, id), now, loc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

// List returns classes matching the filter, cursor-paginated on
// (start_time, id). The second return value is the cursor for the next page,
// or uuid.Nil when this is the last page.
func (r *Repository) List(ctx context.Context, f ListFilter, now time.Time, loc *time.Location) ([]models.ClassDetail, uuid.UUID, error) {
	conds, args, err := buildConditions(f, now, loc)
	if err != nil {
		return nil, uuid.Nil, err
	}

	order := "ASC"
	cmp := ">"
	if f.Order == "desc" {
		order = "DESC"
		cmp = "<"
	}

	if f.Cursor != uuid.Nil {
		var cursorStart time.Time
		err := r.pool.QueryRow(ctx, `SELECT start_time FROM classes WHERE id = $1`, f.Cursor).Scan(&cursorStart)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, uuid.Nil, errors.New("unknown cursor")
			}
			return nil, uuid.Nil, err
		}
		args = append(args, cursorStart, f.Cursor)
		conds = append(conds, fmt.Sprintf(
			"(c.start_time %s $%d OR (c.start_time = $%d AND c.id %s $%d))",
			cmp, len(args)-1, len(args)-1, cmp, len(args)))
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	q := `SELECT ` + detailColumns + detailFrom
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += detailGroup
	q += fmt.Sprintf(" ORDER BY c.start_time %s, c.id %s", order, order)
	args = append(args, limit+1)
	q += fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, uuid.Nil, err
	}
	defer rows.Close()

	var list []models.ClassDetail
	for rows.Next() {
		d, err := r.scanDetail(rows, now, loc)
		if err != nil {
			return nil, uuid.Nil, err
		}
		list = append(list, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, uuid.Nil, err
	}

	next := uuid.Nil
	if len(list) > limit {
		list = list[:limit]
		next = list[len(list)-1].ID
	}
	return list, next, nil
}

// Recent returns the most recently created classes.
func (r *Repository) Recent(ctx context.Context, limit int, now time.Time, loc *time.Location) ([]models.ClassDetail, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	q := `SELECT ` + detailColumns + detailFrom + detailGroup + ` ORDER BY c.created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.ClassDetail
	for rows.Next() {
		d, err := r.scanDetail(rows, now, loc)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

// GetInstructor returns id/role of a prospective instructor, or nil when absent.
func (r *Repository) GetInstructor(ctx context.Context, id uuid.UUID) (*models.UserPublic, error) {
	const q = `SELECT id, name, email, role, belt_id, completed_classes, avatar_url, created_at
		FROM users WHERE id = $1`
	var u models.UserPublic
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.BeltID, &u.CompletedClasses, &u.AvatarURL, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// CategoryExists reports whether the category is known.
func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
