package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopsphere/storefront-core/internal/models"
	"github.com/shopsphere/storefront-core/internal/utils"
)

// CartRepository persists one row per (user, product). The UNIQUE constraint
// on that pair plus the ON CONFLICT upsert keep concurrent identical adds
// from ever producing duplicate lines.
type CartRepository interface {
	ListLines(ctx context.Context, userID uuid.UUID) ([]models.CartEntry, error)
	FindLine(ctx context.Context, userID, productID uuid.UUID) (*models.CartLine, error)
	UpsertLine(ctx context.Context, userID, productID uuid.UUID) (*models.CartLine, error)
	UpdateQuantity(ctx context.Context, lineID, userID uuid.UUID, quantity int) error
	DeleteLine(ctx context.Context, lineID, userID uuid.UUID) error
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

func (r *cartRepository) ListLines(ctx context.Context, userID uuid.UUID) ([]models.CartEntry, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT l.id, l.user_id, l.product_id, l.quantity, l.created_at, l.updated_at,
		       p.id, p.name, p.description, p.price, p.image_url, p.stock, p.created_at, p.updated_at
		FROM cart_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.user_id = $1
		ORDER BY l.created_at
	`

	rows, err := r.DB.QueryContext(dbCtx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying cart lines: %w", err)
	}
	defer rows.Close()

	var entries []models.CartEntry

	for rows.Next() {
		var entry models.CartEntry

		var imageURL sql.NullString

		err := rows.Scan(
			&entry.Line.ID, &entry.Line.UserID, &entry.Line.ProductID, &entry.Line.Quantity,
			&entry.Line.CreatedAt, &entry.Line.UpdatedAt,
			&entry.Product.ID, &entry.Product.Name, &entry.Product.Description, &entry.Product.Price,
			&imageURL, &entry.Product.Stock, &entry.Product.CreatedAt, &entry.Product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning cart line: %w", err)
		}

		entry.Product.ImageURL = imageURL.String
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cart lines: %w", err)
	}

	return entries, nil
}

func (r *cartRepository) FindLine(ctx context.Context, userID, productID uuid.UUID) (*models.CartLine, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, user_id, product_id, quantity, created_at, updated_at
		FROM cart_lines
		WHERE user_id = $1 AND product_id = $2
	`

	line := &models.CartLine{}

	err := r.DB.QueryRowContext(dbCtx, query, userID, productID).Scan(
		&line.ID, &line.UserID, &line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("querying cart line: %w", err)
	}

	return line, nil
}

func (r *cartRepository) UpsertLine(ctx context.Context, userID, productID uuid.UUID) (*models.CartLine, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO cart_lines (id, user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, 1, NOW(), NOW())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_lines.quantity + 1, updated_at = NOW()
		RETURNING id, user_id, product_id, quantity, created_at, updated_at
	`

	line := &models.CartLine{}

	err := r.DB.QueryRowContext(dbCtx, query, uuid.New(), userID, productID).Scan(
		&line.ID, &line.UserID, &line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting cart line: %w", err)
	}

	return line, nil
}

func (r *cartRepository) UpdateQuantity(ctx context.Context, lineID, userID uuid.UUID, quantity int) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE cart_lines
		SET quantity = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`

	result, err := r.DB.ExecContext(dbCtx, query, quantity, lineID, userID)
	if err != nil {
		return fmt.Errorf("updating cart line quantity: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *cartRepository) DeleteLine(ctx context.Context, lineID, userID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `DELETE FROM cart_lines WHERE id = $1 AND user_id = $2`

	result, err := r.DB.ExecContext(dbCtx, query, lineID, userID)
	if err != nil {
		return fmt.Errorf("deleting cart line: %w", err)
	}

	deletedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get deleted rows: %w", err)
	}

	if deletedRows == 0 {
		return sql.ErrNoRows
	}

	return nil
}
