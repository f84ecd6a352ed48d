package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestClaimsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(Claims.WithLabelValues(ClaimAccepted))
	Claims.WithLabelValues(ClaimAccepted).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Claims.WithLabelValues(ClaimAccepted)))
}

func TestKeysGenerated(t *testing.T) {
	before := testutil.ToFloat64(KeysGenerated)
	KeysGenerated.Add(3)
	assert.Equal(t, before+3, testutil.ToFloat64(KeysGenerated))
}
