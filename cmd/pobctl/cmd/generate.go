package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	pob "github.com/angelmc32/pob-v1"
	"github.com/angelmc32/pob-v1/internal/export"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a campaign of mint keys offline",
	Long: `Generate N key pairs, commit to their addresses with a Merkle root and
build one redemption URL per key.

The manifest (root and addresses) is saved to the local store. Redemption
URLs contain private keys: they are written to --out as a gzip CSV bundle,
or printed to stdout when --out is not given.

Examples:
  pobctl generate --contract 0x5FbD... --quantity 100 --base-url https://pob.example --out urls.csv.gz
  pobctl generate --contract 0x5FbD... --quantity 3 --base-url https://pob.example -o json`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("contract", "", "NFT contract address (required)")
	generateCmd.Flags().String("quantity", "", "number of keys to generate (required)")
	generateCmd.Flags().String("base-url", "", "redemption site base URL (required)")
	generateCmd.Flags().String("out", "", "write redemption URLs to this gzip CSV bundle")
	generateCmd.Flags().Int("workers", 4, "parallel key derivation workers")
	generateCmd.Flags().Int("max-quantity", pob.DefaultMaxQuantity, "largest accepted quantity")
	generateCmd.Flags().Bool("no-store", false, "do not save the manifest")

	_ = generateCmd.MarkFlagRequired("contract")
	_ = generateCmd.MarkFlagRequired("quantity")
	_ = generateCmd.MarkFlagRequired("base-url")

	rootCmd.AddCommand(generateCmd)
}

// generateResult is what generate prints. URLs are omitted when a bundle
// was written.
type generateResult struct {
	pob.Manifest
	URLs   []string `json:"urls,omitempty"`
	Bundle string   `json:"bundle,omitempty"`
	Stored bool     `json:"stored"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	contract, _ := cmd.Flags().GetString("contract")
	quantityStr, _ := cmd.Flags().GetString("quantity")
	baseURL, _ := cmd.Flags().GetString("base-url")
	out, _ := cmd.Flags().GetString("out")
	workers, _ := cmd.Flags().GetInt("workers")
	maxQuantity, _ := cmd.Flags().GetInt("max-quantity")
	noStore, _ := cmd.Flags().GetBool("no-store")

	quantity, err := pob.ParseQuantity(quantityStr)
	if err != nil {
		return err
	}

	cfg := pob.Config{
		BaseURL:     baseURL,
		Workers:     workers,
		MaxQuantity: maxQuantity,
	}.WithDefaults()

	builder, err := pob.NewURLBuilder(cfg.BaseURL)
	if err != nil {
		return err
	}

	campaign, err := pob.NewCampaign(context.Background(), pob.NewGenerator(cfg), builder, contract, quantity)
	if err != nil {
		printError(err)
		return err
	}
	log := logger()
	log.Debug("campaign generated", slog.Any("campaign", campaign))

	result := generateResult{Manifest: *campaign.Manifest()}

	// The keys must be safe before the root is stored.
	if out != "" {
		rows, err := export.Rows(campaign.Batch.Addresses(), campaign.URLs)
		if err != nil {
			return err
		}
		if err := export.WriteFile(out, rows); err != nil {
			return err
		}
		result.Bundle = out
	} else {
		result.URLs = campaign.URLs
	}

	if !noStore {
		store, err := getStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(campaign.Manifest()); err != nil {
			return err
		}
		result.Stored = true
		log.Debug("manifest saved", slog.String("store", store.Path()), slog.Int("campaigns", store.Count()))
	}

	if ok, err := printStructured(result); ok {
		return err
	}

	fmt.Fprintf(stdout, "%s Campaign generated\n\n", colorGreen("✓"))
	fmt.Fprintf(stdout, "ID:          %s\n", result.ID)
	fmt.Fprintf(stdout, "Contract:    %s\n", result.ContractAddress)
	fmt.Fprintf(stdout, "Merkle root: %s\n", result.MerkleRoot.Hex())
	fmt.Fprintf(stdout, "Quantity:    %d\n", result.Quantity)
	if result.Stored {
		fmt.Fprintf(stdout, "Stored:      %s\n", viper.GetString("store"))
	}

	w := newTable()
	fmt.Fprintln(w)
	if result.Bundle != "" {
		printTableHeader(w, "INDEX", "ADDRESS")
		for i, a := range result.Addresses {
			fmt.Fprintf(w, "%d\t%s\n", i, a.Hex())
		}
	} else {
		printTableHeader(w, "INDEX", "ADDRESS", "URL")
		for i, a := range result.Addresses {
			fmt.Fprintf(w, "%d\t%s\t%s\n", i, a.Hex(), result.URLs[i])
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if result.Bundle != "" {
		fmt.Fprintf(stdout, "\n%s Redemption URLs written to %s\n", colorGreen("✓"), result.Bundle)
	}
	fmt.Fprintf(stdout, "\n%s Redemption URLs contain private keys. They will not be shown again.\n", colorYellow("⚠"))
	return nil
}
