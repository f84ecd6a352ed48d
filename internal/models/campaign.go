package models

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	pob "github.com/angelmc32/pob-v1"
)

// Campaign is a stored mint campaign: the public commitment to one
// generated key batch. Private keys are never stored.
type Campaign struct {
	ID              uuid.UUID `json:"id" db:"id"`
	ContractAddress string    `json:"contract_address" db:"contract_address"`
	MerkleRoot      string    `json:"merkle_root" db:"merkle_root"`
	Quantity        int       `json:"quantity" db:"quantity"`
	Addresses       []string  `json:"addresses" db:"addresses"` // EIP-55, generation order
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// CampaignFromManifest converts a generated manifest into a row.
func CampaignFromManifest(m *pob.Manifest) (*Campaign, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("campaign id: %w", err)
	}
	addrs := make([]string, len(m.Addresses))
	for i, a := range m.Addresses {
		addrs[i] = a.Hex()
	}
	return &Campaign{
		ID:              id,
		ContractAddress: m.ContractAddress,
		MerkleRoot:      m.MerkleRoot.Hex(),
		Quantity:        m.Quantity,
		Addresses:       addrs,
		CreatedAt:       m.CreatedAt,
	}, nil
}

// Manifest converts the row back to the library form.
func (c *Campaign) Manifest() *pob.Manifest {
	addrs := make([]common.Address, len(c.Addresses))
	for i, a := range c.Addresses {
		addrs[i] = common.HexToAddress(a)
	}
	return &pob.Manifest{
		ID:              c.ID.String(),
		ContractAddress: c.ContractAddress,
		MerkleRoot:      common.HexToHash(c.MerkleRoot),
		Quantity:        c.Quantity,
		Addresses:       addrs,
		CreatedAt:       c.CreatedAt,
	}
}
