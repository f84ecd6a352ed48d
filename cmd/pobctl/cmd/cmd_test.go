package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	pob "github.com/angelmc32/pob-v1"
	"github.com/angelmc32/pob-v1/internal/export"
)

const testContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

// execute runs pobctl with args and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func generateCampaign(t *testing.T, dir string) generateResult {
	t.Helper()
	out, err := execute(t, "generate",
		"--contract", testContract,
		"--quantity", "3",
		"--base-url", "https://pob.example/",
		"--out", filepath.Join(dir, "urls.csv.gz"),
		"--store", filepath.Join(dir, "campaigns.json"),
		"--output", "json",
	)
	require.NoError(t, err)

	var result generateResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	return result
}

func TestGenerate_WritesBundleAndStore(t *testing.T) {
	dir := t.TempDir()
	result := generateCampaign(t, dir)

	assert.Equal(t, 3, result.Quantity)
	assert.Len(t, result.Addresses, 3)
	assert.Empty(t, result.URLs, "urls must not be printed when a bundle is written")
	assert.True(t, result.Stored)
	assert.Equal(t, pob.NewCommitment(result.Addresses).Root(), result.MerkleRoot)

	rows, err := export.ReadFile(result.Bundle)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, i, row.Index)
		assert.Equal(t, result.Addresses[i], row.Address)
		assert.True(t, strings.HasPrefix(row.URL, "https://pob.example/mint/"+testContract+"?key="))

		r, err := pob.ParseRedemptionURL(row.URL)
		require.NoError(t, err)
		addr, err := pob.DeriveAddress(r.Key)
		require.NoError(t, err)
		assert.Equal(t, row.Address, addr)
	}

	store, err := pob.NewManifestStore(filepath.Join(dir, "campaigns.json"))
	require.NoError(t, err)
	m, err := store.Get(result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.MerkleRoot, m.MerkleRoot)
}

func TestGenerate_InvalidQuantity(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "generate",
		"--contract", testContract,
		"--quantity", "abc",
		"--base-url", "https://pob.example",
		"--out", "",
		"--store", filepath.Join(dir, "campaigns.json"),
		"--output", "json",
	)
	assert.ErrorIs(t, err, pob.ErrInvalidQuantity)
}

func TestGenerate_BundleWriteFailureStoresNothing(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "campaigns.json")

	_, err := execute(t, "generate",
		"--contract", testContract,
		"--quantity", "2",
		"--base-url", "https://pob.example",
		"--out", filepath.Join(dir, "missing", "urls.csv.gz"),
		"--store", storePath,
		"--output", "json",
	)
	require.Error(t, err)

	store, err := pob.NewManifestStore(storePath)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, 0, store.Count(), "a root whose keys were lost must not be stored")
}

func TestCampaignsList_ContractCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	result := generateCampaign(t, dir)

	out, err := execute(t, "campaigns", "list",
		"--contract", strings.ToLower(testContract),
		"--store", filepath.Join(dir, "campaigns.json"),
		"--output", "json",
	)
	require.NoError(t, err)

	var listed struct {
		Campaigns []*pob.Manifest `json:"campaigns"`
		Count     int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Equal(t, 1, listed.Count)
	assert.Equal(t, result.ID, listed.Campaigns[0].ID)
}

func TestProofAndVerify(t *testing.T) {
	dir := t.TempDir()
	result := generateCampaign(t, dir)
	addr := result.Addresses[1]

	out, err := execute(t, "proof", result.ID, addr.Hex(),
		"--store", filepath.Join(dir, "campaigns.json"),
		"--output", "json",
	)
	require.NoError(t, err)

	var proof pob.ProofResult
	require.NoError(t, json.Unmarshal([]byte(out), &proof))
	assert.Equal(t, result.MerkleRoot, proof.MerkleRoot)
	assert.True(t, proof.Verify(result.MerkleRoot))

	hashes := make([]string, 0, len(proof.Siblings))
	for _, h := range proof.Hashes() {
		hashes = append(hashes, h.Hex())
	}

	out, err = execute(t, "verify",
		"--root", result.MerkleRoot.Hex(),
		"--address", addr.Hex(),
		"--proof", strings.Join(hashes, ","),
		"--output", "json",
	)
	require.NoError(t, err)
	assert.Contains(t, out, `"valid": true`)

	_, err = execute(t, "verify",
		"--root", result.MerkleRoot.Hex(),
		"--address", "0x0000000000000000000000000000000000000001",
		"--proof", strings.Join(hashes, ","),
		"--output", "json",
	)
	assert.ErrorIs(t, err, errInvalidProof)
}

func TestProof_NotInSet(t *testing.T) {
	dir := t.TempDir()
	result := generateCampaign(t, dir)

	_, err := execute(t, "proof", result.ID, "0x0000000000000000000000000000000000000001",
		"--store", filepath.Join(dir, "campaigns.json"),
		"--output", "text",
	)
	assert.ErrorIs(t, err, pob.ErrNotInSet)
}

func TestParse_HidesKey(t *testing.T) {
	key := "0x0000000000000000000000000000000000000000000000000000000000000001"
	raw := "https://pob.example/mint/" + testContract + "?key=" + key + "&index=4"

	out, err := execute(t, "parse", raw, "--output", "yaml")
	require.NoError(t, err)
	assert.NotContains(t, out, key)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, testContract, got["contract"])
	assert.Equal(t, 4, got["index"])
	assert.Equal(t, "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf", got["address"])
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := execute(t, "parse", "https://pob.example/mint/0xC?key=0x01&index=0", "--output", "xml")
	assert.Error(t, err)
}

func TestParseHash(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "prefixed", input: "0x" + strings.Repeat("ab", 32)},
		{name: "bare", input: strings.Repeat("AB", 32)},
		{name: "short", input: "0x1234", wantErr: true},
		{name: "not hex", input: "0x" + strings.Repeat("zz", 32), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := parseHash(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, common.HexToHash(strings.Repeat("ab", 32)), h)
		})
	}
}

func TestParseHashList(t *testing.T) {
	hashes, err := parseHashList("")
	require.NoError(t, err)
	assert.Empty(t, hashes)

	a := "0x" + strings.Repeat("01", 32)
	b := "0x" + strings.Repeat("02", 32)
	hashes, err = parseHashList(a + ", " + b)
	require.NoError(t, err)
	assert.Equal(t, []common.Hash{common.HexToHash(a), common.HexToHash(b)}, hashes)
}
