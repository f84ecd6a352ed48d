// Package pob generates Proof of BEER mint keys: batches of Ethereum key
// pairs, a Keccak-256 Merkle commitment over their addresses, and the
// redemption URLs that carry each private key to its claimant.
package pob

import (
	"crypto/tls"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Defaults
const (
	DefaultMaxQuantity  = 10000
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultStoreVersion = 1
	PrivateKeyLength    = 32
)

// Config holds configuration for the campaign pipeline and API client.
type Config struct {
	BaseURL       string        // Redemption site base URL, e.g. https://pob.example
	Workers       int           // Key generation goroutines (default: 1)
	MaxQuantity   int           // Upper bound on keys per batch
	StorePath     string        // Path to local manifest store
	ServerURL     string        // Campaign API address (client only)
	APIKey        string        // Optional: campaign API key (client only)
	HTTPTimeout   time.Duration // HTTP request timeout
	TLSConfig     *tls.Config   // Optional: custom TLS config
	SkipTLSVerify bool          // INSECURE: skip TLS verification
}

// WithDefaults returns Config with default values applied.
func (c Config) WithDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.MaxQuantity <= 0 {
		c.MaxQuantity = DefaultMaxQuantity
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	return c
}

// Validate checks required configuration fields.
func (c *Config) Validate() error {
	if err := validateBaseURL(c.BaseURL); err != nil {
		return err
	}
	if c.StorePath == "" {
		return ErrMissingStorePath
	}
	return nil
}

// Manifest is the public, persistable part of a campaign.
// It never carries private keys.
type Manifest struct {
	ID              string           `json:"id"`
	ContractAddress string           `json:"contract_address"`
	MerkleRoot      common.Hash      `json:"merkle_root"`
	Quantity        int              `json:"quantity"`
	Addresses       []common.Address `json:"addresses"`
	CreatedAt       time.Time        `json:"created_at"`
}

// StoreData is the persisted store format.
type StoreData struct {
	Version   int                  `json:"version"`
	Campaigns map[string]*Manifest `json:"campaigns"`
}

// Redemption is a decoded redemption URL.
type Redemption struct {
	BaseURL  string `json:"base_url"`
	Contract string `json:"contract"`
	Key      string `json:"key"`
	Index    int    `json:"index"`
}

// CreateCampaignRequest asks the API to generate a campaign.
type CreateCampaignRequest struct {
	ContractAddress string `json:"contract_address"`
	Quantity        int    `json:"quantity"`
}

// CampaignResult is the API response for a created campaign.
// URLs are returned only once, at creation.
type CampaignResult struct {
	Manifest
	URLs []string `json:"urls,omitempty"`
}

// RedeemRequest submits a private key for its claim.
type RedeemRequest struct {
	Key       string `json:"key"`
	Index     int    `json:"index"`
	Recipient string `json:"recipient"`
}

// ClaimResult is the API response for a recorded claim.
type ClaimResult struct {
	ID         string         `json:"id"`
	CampaignID string         `json:"campaign_id"`
	Index      int            `json:"index"`
	Address    common.Address `json:"address"`
	Recipient  string         `json:"recipient"`
	MerkleRoot common.Hash    `json:"merkle_root"`
	Proof      []common.Hash  `json:"proof"`
	ClaimedAt  time.Time      `json:"claimed_at"`
}

// ProofResult is a Merkle proof together with the root it verifies against.
type ProofResult struct {
	CampaignID string      `json:"campaign_id"`
	MerkleRoot common.Hash `json:"merkle_root"`
	Proof
}
