package repository

import (
	"context"
	"fmt"

	"sasabot/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// businessRepository implements BusinessRepository using PostgreSQL.
type businessRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewBusinessRepository creates a new PostgreSQL-backed business repository.
func NewBusinessRepository(pool *pgxpool.Pool, logger zerolog.Logger) BusinessRepository {
	return &businessRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "business").Logger(),
	}
}

// GetByID retrieves a business by its ID.
func (r *businessRepository) GetByID(ctx context.Context, id string) (*model.Business, error) {
	query := `
		SELECT id, name, owner_phone, description, location, created_at
		FROM businesses
		WHERE id = $1
	`

	var b model.Business
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.Name, &b.OwnerPhone, &b.Description, &b.Location, &b.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("business_id", id).Msg("business not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("business_id", id).Msg("failed to query business")
		return nil, fmt.Errorf("failed to query business: %w", err)
	}

	return &b, nil
}

// GetAll retrieves all businesses.
func (r *businessRepository) GetAll(ctx context.Context) ([]model.Business, error) {
	query := `
		SELECT id, name, owner_phone, description, location, created_at
		FROM businesses
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query businesses")
		return nil, fmt.Errorf("failed to query businesses: %w", err)
	}
	defer rows.Close()

	var businesses []model.Business
	for rows.Next() {
		var b model.Business
		err := rows.Scan(&b.ID, &b.Name, &b.OwnerPhone, &b.Description, &b.Location, &b.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan business row")
			return nil, fmt.Errorf("failed to scan business: %w", err)
		}
		businesses = append(businesses, b)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating business rows")
		return nil, fmt.Errorf("error iterating businesses: %w", err)
	}

	return businesses, nil
}

// Create inserts a new business.
func (r *businessRepository) Create(ctx context.Context, business *model.Business) error {
	query := `
		INSERT INTO businesses (id, name, owner_phone, description, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		business.ID, business.Name, business.OwnerPhone,
		business.Description, business.Location, business.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("business_id", business.ID).Msg("failed to create business")
		return fmt.Errorf("failed to create business: %w", err)
	}

	r.logger.Debug().Str("business_id", business.ID).Msg("business created")
	return nil
}
