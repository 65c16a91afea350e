package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mataleao/backend/internal/models"
)

// Repository handles user and email-confirmation persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, is_active, belt_id,
	completed_classes, avatar_url, phone, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.IsActive,
		&u.BeltID, &u.CompletedClasses, &u.AvatarURL, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

// GetByEmail returns a user by email, or nil when absent.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, q, email))
}

// CreateUserParams holds the fields for registration.
type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	BeltID       uuid.UUID
	Phone        string
}

// Create inserts a new inactive user; activation happens through the emailed
// verification code.
func (r *Repository) Create(ctx context.Context, p CreateUserParams) (*models.User, error) {
	q := `INSERT INTO users (name, email, password_hash, role, is_active, belt_id, phone)
		VALUES ($1, $2, $3, 'student', FALSE, $4, NULLIF($5, ''))
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, p.Name, p.Email, p.PasswordHash, p.BeltID, p.Phone))
}

// CreateConfirmation inserts an email confirmation code hash.
func (r *Repository) CreateConfirmation(ctx context.Context, userID uuid.UUID, codeHash string, expiresAt time.Time) (*models.EmailConfirmation, error) {
	const q = `INSERT INTO email_confirmations (user_id, code_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	ec := models.EmailConfirmation{
		UserID:    userID,
		CodeHash:  codeHash,
		ExpiresAt: expiresAt,
	}
	err := r.pool.QueryRow(ctx, q, userID, codeHash, expiresAt).Scan(&ec.ID, &ec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ec, nil
}

// GetActiveConfirmation returns the newest unconsumed, unexpired confirmation
// for the user, or nil.
func (r *Repository) GetActiveConfirmation(ctx context.Context, userID uuid.UUID, now time.Time) (*models.EmailConfirmation, error) {
	const q = `SELECT id, user_id, code_hash, expires_at, is_consumed, created_at
		FROM email_confirmations
		WHERE user_id = $1 AND is_consumed = FALSE AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1`
	var ec models.EmailConfirmation
	err := r.pool.QueryRow(ctx, q, userID, now).
		Scan(&ec.ID, &ec.UserID, &ec.CodeHash, &ec.ExpiresAt, &ec.IsConsumed, &ec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ec, nil
}

// ConsumeAndActivate marks a confirmation consumed and activates its user in
// one transaction; partial activation would strand the account.
func (r *Repository) ConsumeAndActivate(ctx context.Context, confirmationID, userID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`UPDATE email_confirmations SET is_consumed = TRUE WHERE id = $1`, confirmationID); err != nil {
		return fmt.Errorf("consume confirmation: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE users SET is_active = TRUE, updated_at = NOW() WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("activate user: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
