// Package metrics defines the campaign Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CampaignsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pob_campaigns_created_total",
			Help: "Total number of campaigns generated",
		},
	)

	KeysGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pob_keys_generated_total",
			Help: "Total number of mint keys generated",
		},
	)

	KeygenDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pob_keygen_duration_seconds",
			Help:    "Time to generate a campaign batch",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)

	ProofsServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pob_proofs_served_total",
			Help: "Total number of Merkle proofs served",
		},
	)

	Claims = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pob_claims_total",
			Help: "Redemption attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// Claim outcomes
const (
	ClaimAccepted        = "accepted"
	ClaimAlreadyClaimed  = "already_claimed"
	ClaimIndexMismatch   = "index_mismatch"
	ClaimInvalidKey      = "invalid_key"
	ClaimCampaignMissing = "campaign_missing"
	ClaimError           = "error"
)
