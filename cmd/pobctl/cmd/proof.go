package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	pob "github.com/angelmc32/pob-v1"
)

var proofCmd = &cobra.Command{
	Use:   "proof <campaign-id> <address>",
	Short: "Print the Merkle proof for an address",
	Long: `Print the Merkle proof for an address of a campaign.

The manifest is read from the local store, or fetched from the API when
--server is set.

Examples:
  pobctl proof 6f1c... 0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf
  pobctl proof 6f1c... 0x7E5F... --server https://api.pob.example -o json`,
	Args: cobra.ExactArgs(2),
	RunE: runProof,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a Merkle proof against a root",
	Long: `Verify that an address belongs to a committed set.

Examples:
  pobctl verify --root 0x... --address 0x7E5F... --proof 0xaa...,0xbb...`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().String("root", "", "Merkle root (required)")
	verifyCmd.Flags().String("address", "", "address to verify (required)")
	verifyCmd.Flags().String("proof", "", "comma-separated sibling hashes")

	_ = verifyCmd.MarkFlagRequired("root")
	_ = verifyCmd.MarkFlagRequired("address")

	rootCmd.AddCommand(proofCmd)
	rootCmd.AddCommand(verifyCmd)
}

func runProof(cmd *cobra.Command, args []string) error {
	campaignID, address := args[0], args[1]
	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid address %q", address)
	}

	result, err := lookupProof(cmd, campaignID, common.HexToAddress(address))
	if err != nil {
		printError(err)
		return err
	}

	if ok, err := printStructured(result); ok {
		return err
	}

	fmt.Fprintf(stdout, "Campaign:    %s\n", result.CampaignID)
	fmt.Fprintf(stdout, "Merkle root: %s\n", result.MerkleRoot.Hex())
	fmt.Fprintf(stdout, "Address:     %s\n", result.Address.Hex())
	fmt.Fprintf(stdout, "Leaf:        %s\n\n", result.Leaf.Hex())

	w := newTable()
	printTableHeader(w, "LEVEL", "POSITION", "HASH")
	for i, s := range result.Siblings {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i, s.Position, s.Hash.Hex())
	}
	return w.Flush()
}

func lookupProof(cmd *cobra.Command, campaignID string, addr common.Address) (*pob.ProofResult, error) {
	if remote() {
		client, err := getClient()
		if err != nil {
			return nil, err
		}
		return client.GetProof(cmd.Context(), campaignID, addr.Hex())
	}

	store, err := getStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	manifest, err := store.Get(campaignID)
	if err != nil {
		return nil, err
	}
	proof, err := manifest.Proof(addr)
	if err != nil {
		return nil, err
	}
	return &pob.ProofResult{
		CampaignID: manifest.ID,
		MerkleRoot: manifest.MerkleRoot,
		Proof:      *proof,
	}, nil
}

type verifyResult struct {
	Root    common.Hash    `json:"root"`
	Address common.Address `json:"address"`
	Valid   bool           `json:"valid"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	rootHex, _ := cmd.Flags().GetString("root")
	address, _ := cmd.Flags().GetString("address")
	proofList, _ := cmd.Flags().GetString("proof")

	root, err := parseHash(rootHex)
	if err != nil {
		return fmt.Errorf("invalid root: %w", err)
	}
	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid address %q", address)
	}
	siblings, err := parseHashList(proofList)
	if err != nil {
		return fmt.Errorf("invalid proof: %w", err)
	}

	result := verifyResult{
		Root:    root,
		Address: common.HexToAddress(address),
	}
	result.Valid = pob.VerifyProof(result.Root, result.Address, siblings)

	if ok, err := printStructured(result); ok {
		if err == nil && !result.Valid {
			err = errInvalidProof
		}
		return err
	}

	if !result.Valid {
		fmt.Fprintf(stdout, "%s Proof is invalid for %s\n", colorRed("✗"), result.Address.Hex())
		return errInvalidProof
	}
	fmt.Fprintf(stdout, "%s Proof is valid for %s\n", colorGreen("✓"), result.Address.Hex())
	return nil
}

var errInvalidProof = errors.New("proof does not verify")

func parseHash(s string) (common.Hash, error) {
	s = strings.TrimSpace(s)
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != 2*common.HashLength {
		return common.Hash{}, fmt.Errorf("%q is not a 32-byte hex hash", s)
	}
	for _, c := range raw {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return common.Hash{}, fmt.Errorf("%q is not a 32-byte hex hash", s)
		}
	}
	return common.HexToHash(raw), nil
}

func parseHashList(s string) ([]common.Hash, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]common.Hash, len(parts))
	for i, p := range parts {
		h, err := parseHash(p)
		if err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}
