package pob

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Campaign is one generated batch with its commitment and redemption URLs.
// It holds private keys and must not be persisted; persist Manifest instead.
type Campaign struct {
	ID              string
	ContractAddress string
	Batch           *KeyBatch
	Commitment      *Commitment
	URLs            []string
	CreatedAt       time.Time
}

// NewCampaign generates quantity keys, commits to their addresses and
// builds their redemption URLs. The same ordered batch feeds both steps.
func NewCampaign(ctx context.Context, gen *Generator, builder *URLBuilder, contract string, quantity int) (*Campaign, error) {
	if contract == "" {
		return nil, ErrInvalidContract
	}

	batch, err := gen.GenerateContext(ctx, quantity)
	if err != nil {
		return nil, fmt.Errorf("generate keys: %w", err)
	}

	commitment := NewCommitment(batch.Addresses())

	urls, err := builder.Build(contract, batch.PrivateKeyHexes())
	if err != nil {
		return nil, fmt.Errorf("build urls: %w", err)
	}

	return &Campaign{
		ID:              uuid.New().String(),
		ContractAddress: contract,
		Batch:           batch,
		Commitment:      commitment,
		URLs:            urls,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// Root returns the commitment root.
func (c *Campaign) Root() common.Hash {
	return c.Commitment.Root()
}

// Manifest returns the public part of the campaign.
func (c *Campaign) Manifest() *Manifest {
	return &Manifest{
		ID:              c.ID,
		ContractAddress: c.ContractAddress,
		MerkleRoot:      c.Commitment.Root(),
		Quantity:        c.Batch.Len(),
		Addresses:       c.Batch.Addresses(),
		CreatedAt:       c.CreatedAt,
	}
}

// LogValue implements slog.LogValuer. Only public fields are emitted.
func (c *Campaign) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", c.ID),
		slog.String("contract", c.ContractAddress),
		slog.String("root", c.Commitment.Root().Hex()),
		slog.Int("quantity", c.Batch.Len()),
	)
}

// Commitment rebuilds the Merkle tree from the stored addresses.
func (m *Manifest) Commitment() *Commitment {
	return NewCommitment(m.Addresses)
}

// AddressAt returns the address generated at index i.
func (m *Manifest) AddressAt(i int) (common.Address, error) {
	if i < 0 || i >= len(m.Addresses) {
		return common.Address{}, fmt.Errorf("%w: index %d out of range", ErrIndexMismatch, i)
	}
	return m.Addresses[i], nil
}

// Proof returns the proof for addr, checked against the stored root.
func (m *Manifest) Proof(addr common.Address) (*Proof, error) {
	c := m.Commitment()
	if c.Root() != m.MerkleRoot {
		return nil, fmt.Errorf("%w: root mismatch for campaign %s", ErrStoreCorrupted, m.ID)
	}
	return c.Proof(addr)
}
