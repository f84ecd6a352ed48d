package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	pob "github.com/angelmc32/pob-v1"
)

var redeemCmd = &cobra.Command{
	Use:   "redeem <campaign-id> <url>",
	Short: "Redeem a key through the campaign API",
	Long: `Submit the key and index from a redemption URL to the campaign API.
On success the API returns the Merkle proof needed for the on-chain mint.

Examples:
  pobctl redeem 6f1c... "https://pob.example/mint/0x5FbD...?key=0x...&index=0" \
    --recipient 0x7099... --server https://api.pob.example`,
	Args: cobra.ExactArgs(2),
	RunE: runRedeem,
}

func init() {
	redeemCmd.Flags().String("recipient", "", "address that receives the NFT")
	rootCmd.AddCommand(redeemCmd)
}

func runRedeem(cmd *cobra.Command, args []string) error {
	campaignID := args[0]
	recipient, _ := cmd.Flags().GetString("recipient")

	r, err := pob.ParseRedemptionURL(args[1])
	if err != nil {
		printError(err)
		return err
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	logger().Debug("redeeming", slog.String("campaign_id", campaignID), slog.Int("index", r.Index))

	claim, err := client.Redeem(cmd.Context(), campaignID, pob.RedeemRequest{
		Key:       r.Key,
		Index:     r.Index,
		Recipient: recipient,
	})
	if err != nil {
		printError(err)
		return err
	}

	if ok, err := printStructured(claim); ok {
		return err
	}

	fmt.Fprintf(stdout, "%s Claim recorded\n\n", colorGreen("✓"))
	fmt.Fprintf(stdout, "Claim:       %s\n", claim.ID)
	fmt.Fprintf(stdout, "Index:       %d\n", claim.Index)
	fmt.Fprintf(stdout, "Address:     %s\n", claim.Address.Hex())
	if claim.Recipient != "" {
		fmt.Fprintf(stdout, "Recipient:   %s\n", claim.Recipient)
	}
	fmt.Fprintf(stdout, "Merkle root: %s\n", claim.MerkleRoot.Hex())
	for i, h := range claim.Proof {
		fmt.Fprintf(stdout, "Proof[%d]:    %s\n", i, h.Hex())
	}
	return nil
}
