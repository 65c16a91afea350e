package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mataleao/backend/internal/models"
)

const uniqueViolation = "23505"

// Repository is the pgx-backed Store. All mutations run through InTx; the
// class row lock taken there serializes racing check-ins for one class so the
// capacity count and the write observe a consistent state.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

// NewRepository creates a check-in repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const classColumns = `id, title, description, date, start_time, end_time,
	instructor_id, category_id, capacity, is_recurring, recurrence_id, created_at`

func scanClass(row pgx.Row) (*models.Class, error) {
	var cl models.Class
	err := row.Scan(&cl.ID, &cl.Title, &cl.Description, &cl.Date, &cl.StartTime, &cl.EndTime,
		&cl.InstructorID, &cl.CategoryID, &cl.Capacity, &cl.IsRecurring, &cl.RecurrenceID, &cl.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cl, nil
}

// GetClass returns a class by ID, or nil when absent.
func (r *Repository) GetClass(ctx context.Context, id uuid.UUID) (*models.Class, error) {
	q := `SELECT ` + classColumns + ` FROM classes WHERE id = $1`
	return scanClass(r.pool.QueryRow(ctx, q, id))
}

// GetUser returns a user by ID, or nil when absent.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT id, name, email, password_hash, role, is_active, belt_id,
		completed_classes, avatar_url, phone, created_at, updated_at
		FROM users WHERE id = $1`
	var u models.User
	err := r.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role,
		&u.IsActive, &u.BeltID, &u.CompletedClasses, &u.AvatarURL, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// InTx runs fn inside a transaction.
func (r *Repository) InTx(ctx context.Context, fn func(tx TxStore) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txStore struct {
	tx pgx.Tx
}

var _ TxStore = (*txStore)(nil)

// LockClass reloads the class FOR UPDATE, blocking other check-in
// transactions on the same class until this one commits.
func (s *txStore) LockClass(ctx context.Context, classID uuid.UUID) (*models.Class, error) {
	q := `SELECT ` + classColumns + ` FROM classes WHERE id = $1 FOR UPDATE`
	return scanClass(s.tx.QueryRow(ctx, q, classID))
}

// FindByUserAndClass returns the single check-in row for the pair, or nil.
func (s *txStore) FindByUserAndClass(ctx context.Context, userID, classID uuid.UUID) (*models.Checkin, error) {
	const q = `SELECT id, user_id, class_id, status, completed_at, created_at
		FROM checkins WHERE user_id = $1 AND class_id = $2`
	var ck models.Checkin
	err := s.tx.QueryRow(ctx, q, userID, classID).
		Scan(&ck.ID, &ck.UserID, &ck.ClassID, &ck.Status, &ck.CompletedAt, &ck.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ck, nil
}

// CountActive counts done check-ins for the class.
func (s *txStore) CountActive(ctx context.Context, classID uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM checkins WHERE class_id = $1 AND status = 'done'`
	var n int
	err := s.tx.QueryRow(ctx, q, classID).Scan(&n)
	return n, err
}

// InsertDone creates a fresh done row. Losing the race on the (user_id,
// class_id) unique index is a legitimate outcome of concurrent check-ins, so
// it surfaces as ErrAlreadyCheckedIn rather than a storage error.
func (s *txStore) InsertDone(ctx context.Context, userID, classID uuid.UUID, at time.Time) (*models.Checkin, error) {
	const q = `INSERT INTO checkins (user_id, class_id, status, completed_at)
		VALUES ($1, $2, 'done', $3)
		RETURNING id, created_at`
	ck := models.Checkin{
		UserID:      userID,
		ClassID:     classID,
		Status:      models.CheckinDone,
		CompletedAt: &at,
	}
	err := s.tx.QueryRow(ctx, q, userID, classID, at).Scan(&ck.ID, &ck.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, fmt.Errorf("insert check-in: %w", err)
	}
	return &ck, nil
}

// Reactivate transitions a cancelled row back to done.
func (s *txStore) Reactivate(ctx context.Context, checkinID uuid.UUID, at time.Time) error {
	const q = `UPDATE checkins SET status = 'done', completed_at = $2 WHERE id = $1`
	_, err := s.tx.Exec(ctx, q, checkinID, at)
	return err
}

// Cancel transitions a row to cancelled and clears its completion time.
func (s *txStore) Cancel(ctx context.Context, checkinID uuid.UUID) error {
	const q = `UPDATE checkins SET status = 'cancelled', completed_at = NULL WHERE id = $1`
	_, err := s.tx.Exec(ctx, q, checkinID)
	return err
}

// IncrementCompletedClasses bumps the student's belt-progress counter inside
// the same transaction as the check-in write.
func (s *txStore) IncrementCompletedClasses(ctx context.Context, userID uuid.UUID) error {
	const q = `UPDATE users SET completed_classes = completed_classes + 1, updated_at = NOW() WHERE id = $1`
	_, err := s.tx.Exec(ctx, q, userID)
	return err
}
