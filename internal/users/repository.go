package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mataleao/backend/internal/models"
)

// Profile is a user joined with their belt.
type Profile struct {
	models.UserPublic
	BeltName        string `json:"belt_name"`
	RequiredClasses int    `json:"required_classes"`
}

// Summary aggregates a student's attendance stats.
type Summary struct {
	TotalCheckins       int    `json:"total_checkins"`
	CheckinsThisMonth   int    `json:"checkins_this_month"`
	CurrentBelt         string `json:"current_belt"`
	CompletedClasses    int    `json:"completed_classes"`
	RequiredForNextBelt int    `json:"required_for_next_belt"`
}

// RankingEntry is one row of the academy attendance ranking.
type RankingEntry struct {
	Position      int       `json:"position"`
	UserID        uuid.UUID `json:"user_id"`
	UserName      string    `json:"user_name"`
	AvatarURL     *string   `json:"avatar_url,omitempty"`
	TotalCheckins int       `json:"total_checkins"`
}

// UpcomingClass is a future class the user holds an active check-in for.
type UpcomingClass struct {
	ClassID        uuid.UUID `json:"class_id"`
	Title          *string   `json:"title,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	InstructorName string    `json:"instructor_name"`
	CategoryType   string    `json:"category_type"`
}

// Repository handles user profile and stats persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a users repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProfile returns the user's profile with belt info, or nil when absent.
func (r *Repository) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	const q = `SELECT u.id, u.name, u.email, u.role, u.belt_id, u.completed_classes, u.avatar_url, u.created_at,
		b.name, b.required_classes
		FROM users u
		JOIN belts b ON b.id = u.belt_id
		WHERE u.id = $1`
	var p Profile
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Name, &p.Email, &p.Role, &p.BeltID,
		&p.CompletedClasses, &p.AvatarURL, &p.CreatedAt, &p.BeltName, &p.RequiredClasses)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// UpdateProfile updates mutable profile fields. Nil pointers leave the
// current value in place.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, name, phone *string) error {
	const q = `UPDATE users SET
		name = COALESCE($2, name),
		phone = COALESCE($3, phone),
		updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, name, phone)
	return err
}

// SetAvatarURL stores the S3 URL of the user's avatar.
func (r *Repository) SetAvatarURL(ctx context.Context, id uuid.UUID, url string) error {
	const q = `UPDATE users SET avatar_url = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, url)
	return err
}

// GetSummary returns attendance stats for the user. monthStart/monthEnd
// bound the current civil month in the academy timezone.
func (r *Repository) GetSummary(ctx context.Context, userID uuid.UUID, monthStart, monthEnd time.Time) (*Summary, error) {
	const q = `SELECT b.name, u.completed_classes, b.required_classes,
		(SELECT COUNT(*) FROM checkins ck WHERE ck.user_id = u.id AND ck.status = 'done'),
		(SELECT COUNT(*) FROM checkins ck WHERE ck.user_id = u.id AND ck.status = 'done'
			AND ck.created_at >= $2 AND ck.created_at < $3)
		FROM users u
		JOIN belts b ON b.id = u.belt_id
		WHERE u.id = $1`
	var s Summary
	err := r.pool.QueryRow(ctx, q, userID, monthStart, monthEnd).
		Scan(&s.CurrentBelt, &s.CompletedClasses, &s.RequiredForNextBelt, &s.TotalCheckins, &s.CheckinsThisMonth)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Ranking returns users ordered by active check-in count.
func (r *Repository) Ranking(ctx context.Context, limit int) ([]RankingEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	const q = `SELECT u.id, u.name, u.avatar_url,
		COUNT(ck.id) FILTER (WHERE ck.status = 'done') AS total_checkins
		FROM users u
		LEFT JOIN checkins ck ON ck.user_id = u.id
		GROUP BY u.id, u.name, u.avatar_url
		ORDER BY total_checkins DESC, u.name ASC
		LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []RankingEntry
	for rows.Next() {
		var e RankingEntry
		if err := rows.Scan(&e.UserID, &e.UserName, &e.AvatarURL, &e.TotalCheckins); err != nil {
			return nil, err
		}
		e.Position = len(list) + 1
		list = append(list, e)
	}
	return list, rows.Err()
}

// UpcomingClasses returns future classes the user has an active check-in for.
func (r *Repository) UpcomingClasses(ctx context.Context, userID uuid.UUID, now time.Time) ([]UpcomingClass, error) {
	const q = `SELECT c.id, c.title, c.start_time, c.end_time, u.name, cat.type
		FROM checkins ck
		JOIN classes c ON c.id = ck.class_id
		JOIN users u ON u.id = c.instructor_id
		JOIN categories cat ON cat.id = c.category_id
		WHERE ck.user_id = $1 AND ck.status = 'done' AND c.start_time > $2
		ORDER BY c.start_time ASC`
	rows, err := r.pool.Query(ctx, q, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []UpcomingClass
	for rows.Next() {
		var uc UpcomingClass
		if err := rows.Scan(&uc.ClassID, &uc.Title, &uc.StartTime, &uc.EndTime, &uc.InstructorName, &uc.CategoryType); err != nil {
			return nil, err
		}
		list = append(list, uc)
	}
	return list, rows.Err()
}
