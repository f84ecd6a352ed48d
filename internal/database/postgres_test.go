package database

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationSource_Versions(t *testing.T) {
	src, err := migrationSource()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)

	_, err = src.Next(next)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMigrationSource_ClaimsAreUniquePerIndex(t *testing.T) {
	src, err := migrationSource()
	require.NoError(t, err)
	defer src.Close()

	r, _, err := src.ReadUp(2)
	require.NoError(t, err)
	defer r.Close()

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "UNIQUE (campaign_id, idx)"))
}

func TestMigrationSource_EveryUpHasDown(t *testing.T) {
	src, err := migrationSource()
	require.NoError(t, err)
	defer src.Close()

	for _, v := range []uint{1, 2} {
		r, _, err := src.ReadDown(v)
		require.NoError(t, err, "version %d", v)
		_ = r.Close()
	}
}

func TestClaimKey(t *testing.T) {
	assert.Equal(t, "pob:claim:c1:7", claimKey("c1", 7))
}
