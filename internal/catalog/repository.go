package catalog

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mataleao/backend/internal/models"
)

// Repository handles belt and category persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a catalog repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListBelts returns all belts in promotion order.
func (r *Repository) ListBelts(ctx context.Context) ([]models.Belt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, required_classes, created_at FROM belts ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Belt
	for rows.Next() {
		var b models.Belt
		if err := rows.Scan(&b.ID, &b.Name, &b.RequiredClasses, &b.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// ListCategories returns all class categories.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, type, description, created_at FROM categories ORDER BY type ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Type, &cat.Description, &cat.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, cat)
	}
	return list, rows.Err()
}

// CreateCategory inserts a new class category.
func (r *Repository) CreateCategory(ctx context.Context, categoryType string, description *string) (*models.Category, error) {
	const q = `INSERT INTO categories (type, description) VALUES ($1, $2)
		RETURNING id, type, description, created_at`
	var cat models.Category
	err := r.pool.QueryRow(ctx, q, categoryType, description).
		Scan(&cat.ID, &cat.Type, &cat.Description, &cat.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &cat, nil
}
