package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	pob "github.com/angelmc32/pob-v1"
	"github.com/angelmc32/pob-v1/internal/models"
	"github.com/angelmc32/pob-v1/internal/pkg/ulid"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// ClaimRepository defines the interface for claim data operations.
type ClaimRepository interface {
	Create(ctx context.Context, c *models.Claim) error
	Get(ctx context.Context, campaignID uuid.UUID, index int) (*models.Claim, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*models.Claim, error)
	CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int, error)
}

type claimRepo struct {
	pool *pgxpool.Pool
}

// NewClaimRepository creates a new claim repository.
func NewClaimRepository(pool *pgxpool.Pool) ClaimRepository {
	return &claimRepo{pool: pool}
}

// Create records a claim. A second claim for the same index returns
// pob.ErrAlreadyClaimed.
func (r *claimRepo) Create(ctx context.Context, c *models.Claim) error {
	query := `
		INSERT INTO claims (id, campaign_id, idx, address, recipient)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING claimed_at`

	if c.ID == "" {
		c.ID = ulid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		c.ID,
		c.CampaignID,
		c.Index,
		c.Address,
		c.Recipient,
	).Scan(&c.ClaimedAt)
	if isUniqueViolation(err) {
		return pob.ErrAlreadyClaimed
	}
	return err
}

// Get retrieves the claim for one index. Returns nil, nil if unclaimed.
func (r *claimRepo) Get(ctx context.Context, campaignID uuid.UUID, index int) (*models.Claim, error) {
	query := `
		SELECT id, campaign_id, idx, address, recipient, claimed_at
		FROM claims WHERE campaign_id = $1 AND idx = $2`

	c, err := scanClaim(r.pool.QueryRow(ctx, query, campaignID, index))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListByCampaign lists claims in the order they were made.
func (r *claimRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*models.Claim, error) {
	query := `
		SELECT id, campaign_id, idx, address, recipient, claimed_at
		FROM claims WHERE campaign_id = $1
		ORDER BY claimed_at, id`

	rows, err := r.pool.Query(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []*models.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// CountByCampaign counts claims for a campaign.
func (r *claimRepo) CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM claims WHERE campaign_id = $1`, campaignID).Scan(&count)
	return count, err
}

func scanClaim(row pgx.Row) (*models.Claim, error) {
	var c models.Claim
	err := row.Scan(
		&c.ID,
		&c.CampaignID,
		&c.Index,
		&c.Address,
		&c.Recipient,
		&c.ClaimedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
