// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/angelmc32/pob-v1/internal/models"
)

// CampaignRepository defines the interface for campaign data operations.
type CampaignRepository interface {
	Create(ctx context.Context, c *models.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	List(ctx context.Context, contract string) ([]*models.Campaign, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type campaignRepo struct {
	pool *pgxpool.Pool
}

// NewCampaignRepository creates a new campaign repository.
func NewCampaignRepository(pool *pgxpool.Pool) CampaignRepository {
	return &campaignRepo{pool: pool}
}

// Create inserts a new campaign.
func (r *campaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	query := `
		INSERT INTO campaigns (id, contract_address, merkle_root, quantity, addresses, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	return r.pool.QueryRow(ctx, query,
		c.ID,
		c.ContractAddress,
		c.MerkleRoot,
		c.Quantity,
		c.Addresses,
		c.CreatedAt,
	).Scan(&c.CreatedAt)
}

// GetByID retrieves a campaign by its UUID. Returns nil, nil if absent.
func (r *campaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	query := `
		SELECT id, contract_address, merkle_root, quantity, addresses, created_at
		FROM campaigns WHERE id = $1`

	c, err := scanCampaign(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns campaigns newest first, optionally filtered by contract.
func (r *campaignRepo) List(ctx context.Context, contract string) ([]*models.Campaign, error) {
	query := `
		SELECT id, contract_address, merkle_root, quantity, addresses, created_at
		FROM campaigns
		WHERE ($1 = '' OR LOWER(contract_address) = $1)
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, strings.ToLower(contract))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []*models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// Delete removes a campaign and, by cascade, its claims.
func (r *campaignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	return err
}

func scanCampaign(row pgx.Row) (*models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(
		&c.ID,
		&c.ContractAddress,
		&c.MerkleRoot,
		&c.Quantity,
		&c.Addresses,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
