// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	pob "github.com/angelmc32/pob-v1"
	"github.com/angelmc32/pob-v1/internal/metrics"
	"github.com/angelmc32/pob-v1/internal/models"
	apierrors "github.com/angelmc32/pob-v1/internal/pkg/errors"
	"github.com/angelmc32/pob-v1/internal/repository"
)

// DefaultClaimTTL bounds how long an in-flight redemption holds its lock.
const DefaultClaimTTL = 30 * time.Second

// ClaimLocker serializes concurrent redemptions of the same index.
type ClaimLocker interface {
	AcquireClaim(ctx context.Context, campaignID string, index int, ttl time.Duration) (bool, error)
	ReleaseClaim(ctx context.Context, campaignID string, index int) error
}

// CampaignService defines the interface for campaign operations.
type CampaignService interface {
	Create(ctx context.Context, req CreateCampaignRequest) (*pob.CampaignResult, error)
	Get(ctx context.Context, id uuid.UUID) (*pob.Manifest, error)
	List(ctx context.Context, contract string) ([]*pob.Manifest, error)
	Proof(ctx context.Context, id uuid.UUID, address string) (*pob.ProofResult, error)
	Redeem(ctx context.Context, id uuid.UUID, req RedeemRequest) (*pob.ClaimResult, error)
	ListClaims(ctx context.Context, id uuid.UUID) ([]*models.Claim, error)
	Claim(ctx context.Context, id uuid.UUID, index int) (*models.Claim, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateCampaignRequest is the request for generating a campaign.
type CreateCampaignRequest struct {
	ContractAddress string `json:"contract_address" validate:"required,eth_addr"`
	Quantity        int    `json:"quantity" validate:"min=0"`
}

// RedeemRequest is the request for redeeming one key.
type RedeemRequest struct {
	Key       string `json:"key" validate:"required"`
	Index     int    `json:"index" validate:"min=0"`
	Recipient string `json:"recipient" validate:"omitempty,eth_addr"`
}

// Config configures the campaign service.
type Config struct {
	Pipeline pob.Config
	ClaimTTL time.Duration
}

type campaignService struct {
	campaignRepo repository.CampaignRepository
	claimRepo    repository.ClaimRepository
	locker       ClaimLocker
	gen          *pob.Generator
	builder      *pob.URLBuilder
	claimTTL     time.Duration
	logger       *slog.Logger
}

// NewCampaignService creates a new campaign service. locker may be nil.
func NewCampaignService(
	campaignRepo repository.CampaignRepository,
	claimRepo repository.ClaimRepository,
	locker ClaimLocker,
	cfg Config,
	logger *slog.Logger,
) (CampaignService, error) {
	builder, err := pob.NewURLBuilder(cfg.Pipeline.BaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = DefaultClaimTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &campaignService{
		campaignRepo: campaignRepo,
		claimRepo:    claimRepo,
		locker:       locker,
		gen:          pob.NewGenerator(cfg.Pipeline),
		builder:      builder,
		claimTTL:     cfg.ClaimTTL,
		logger:       logger,
	}, nil
}

// Create generates a campaign and stores its public manifest. The
// redemption URLs are returned once and never stored.
func (s *campaignService) Create(ctx context.Context, req CreateCampaignRequest) (*pob.CampaignResult, error) {
	start := time.Now()
	campaign, err := pob.NewCampaign(ctx, s.gen, s.builder, req.ContractAddress, req.Quantity)
	if err != nil {
		return nil, err
	}
	metrics.KeygenDuration.Observe(time.Since(start).Seconds())

	manifest := campaign.Manifest()
	row, err := models.CampaignFromManifest(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to convert campaign: %w", err)
	}
	if err := s.campaignRepo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to store campaign: %w", err)
	}
	manifest.CreatedAt = row.CreatedAt

	metrics.CampaignsCreated.Inc()
	metrics.KeysGenerated.Add(float64(manifest.Quantity))
	s.logger.Info("campaign created", slog.Any("campaign", campaign))

	return &pob.CampaignResult{
		Manifest: *manifest,
		URLs:     campaign.URLs,
	}, nil
}

// Get retrieves a campaign manifest.
func (s *campaignService) Get(ctx context.Context, id uuid.UUID) (*pob.Manifest, error) {
	row, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	if row == nil {
		return nil, apierrors.NewNotFoundError("Campaign")
	}
	return row.Manifest(), nil
}

// List lists campaigns, optionally for one contract.
func (s *campaignService) List(ctx context.Context, contract string) ([]*pob.Manifest, error) {
	rows, err := s.campaignRepo.List(ctx, contract)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	out := make([]*pob.Manifest, len(rows))
	for i, row := range rows {
		out[i] = row.Manifest()
	}
	return out, nil
}

// Proof returns the Merkle proof for an address in a campaign.
func (s *campaignService) Proof(ctx context.Context, id uuid.UUID, address string) (*pob.ProofResult, error) {
	if !common.IsHexAddress(address) {
		return nil, apierrors.NewValidationError("address", "must be a 20-byte hex address")
	}

	manifest, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	proof, err := manifest.Proof(common.HexToAddress(address))
	if err != nil {
		return nil, err
	}

	metrics.ProofsServed.Inc()
	return &pob.ProofResult{
		CampaignID: manifest.ID,
		MerkleRoot: manifest.MerkleRoot,
		Proof:      *proof,
	}, nil
}

// Redeem checks that the key controls the address at its index and records
// the claim exactly once.
func (s *campaignService) Redeem(ctx context.Context, id uuid.UUID, req RedeemRequest) (*pob.ClaimResult, error) {
	manifest, err := s.Get(ctx, id)
	if err != nil {
		if apierrors.AsAPIError(err).StatusCode == http.StatusNotFound {
			metrics.Claims.WithLabelValues(metrics.ClaimCampaignMissing).Inc()
		}
		return nil, err
	}

	addr, err := pob.DeriveAddress(req.Key)
	if err != nil {
		metrics.Claims.WithLabelValues(metrics.ClaimInvalidKey).Inc()
		return nil, err
	}

	expected, err := manifest.AddressAt(req.Index)
	if err != nil || expected != addr {
		metrics.Claims.WithLabelValues(metrics.ClaimIndexMismatch).Inc()
		return nil, fmt.Errorf("%w: index %d", pob.ErrIndexMismatch, req.Index)
	}

	proof, err := manifest.Proof(addr)
	if err != nil {
		metrics.Claims.WithLabelValues(metrics.ClaimError).Inc()
		return nil, err
	}

	if s.locker != nil {
		ok, err := s.locker.AcquireClaim(ctx, manifest.ID, req.Index, s.claimTTL)
		switch {
		case err != nil:
			// The unique constraint still guards the claim.
			s.logger.Warn("claim lock unavailable", slog.String("campaign_id", manifest.ID), slog.String("error", err.Error()))
		case !ok:
			metrics.Claims.WithLabelValues(metrics.ClaimAlreadyClaimed).Inc()
			return nil, pob.ErrAlreadyClaimed
		default:
			defer func() {
				if err := s.locker.ReleaseClaim(context.WithoutCancel(ctx), manifest.ID, req.Index); err != nil {
					s.logger.Warn("claim lock release failed", slog.String("campaign_id", manifest.ID), slog.String("error", err.Error()))
				}
			}()
		}
	}

	claim := &models.Claim{
		CampaignID: id,
		Index:      req.Index,
		Address:    addr.Hex(),
		Recipient:  normalizeRecipient(req.Recipient),
	}
	if err := s.claimRepo.Create(ctx, claim); err != nil {
		if errors.Is(err, pob.ErrAlreadyClaimed) {
			metrics.Claims.WithLabelValues(metrics.ClaimAlreadyClaimed).Inc()
			return nil, err
		}
		metrics.Claims.WithLabelValues(metrics.ClaimError).Inc()
		return nil, fmt.Errorf("failed to record claim: %w", err)
	}

	metrics.Claims.WithLabelValues(metrics.ClaimAccepted).Inc()
	s.logger.Info("claim recorded",
		slog.String("campaign_id", manifest.ID),
		slog.Int("index", req.Index),
		slog.String("address", addr.Hex()),
	)

	return &pob.ClaimResult{
		ID:         claim.ID,
		CampaignID: manifest.ID,
		Index:      claim.Index,
		Address:    addr,
		Recipient:  claim.Recipient,
		MerkleRoot: manifest.MerkleRoot,
		Proof:      proof.Hashes(),
		ClaimedAt:  claim.ClaimedAt,
	}, nil
}

// ListClaims lists the claims made against a campaign.
func (s *campaignService) ListClaims(ctx context.Context, id uuid.UUID) ([]*models.Claim, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	claims, err := s.claimRepo.ListByCampaign(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	return claims, nil
}

// Claim returns the claim recorded for one index, or nil if the index is
// still unclaimed.
func (s *campaignService) Claim(ctx context.Context, id uuid.UUID, index int) (*models.Claim, error) {
	manifest, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := manifest.AddressAt(index); err != nil {
		return nil, apierrors.NewValidationError("index", fmt.Sprintf("must be in [0, %d)", manifest.Quantity))
	}
	claim, err := s.claimRepo.Get(ctx, id, index)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return claim, nil
}

// Delete removes a campaign and its claims.
func (s *campaignService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.campaignRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	s.logger.Info("campaign deleted", slog.String("campaign_id", id.String()))
	return nil
}

func normalizeRecipient(r string) string {
	r = strings.TrimSpace(r)
	if common.IsHexAddress(r) {
		return common.HexToAddress(r).Hex()
	}
	return r
}
