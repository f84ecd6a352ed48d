package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	pob "github.com/angelmc32/pob-v1"
)

var parseCmd = &cobra.Command{
	Use:   "parse <url>",
	Short: "Decode a redemption URL",
	Long: `Decode a redemption URL and print the contract, index and the address
the embedded key controls. The key itself is not printed.

Examples:
  pobctl parse "https://pob.example/mint/0x5FbD...?key=0x...&index=0"`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

type parseResult struct {
	BaseURL  string         `json:"base_url"`
	Contract string         `json:"contract"`
	Index    int            `json:"index"`
	Address  common.Address `json:"address"`
}

func runParse(cmd *cobra.Command, args []string) error {
	r, err := pob.ParseRedemptionURL(args[0])
	if err != nil {
		printError(err)
		return err
	}
	addr, err := pob.DeriveAddress(r.Key)
	if err != nil {
		printError(err)
		return err
	}

	result := parseResult{
		BaseURL:  r.BaseURL,
		Contract: r.Contract,
		Index:    r.Index,
		Address:  addr,
	}
	if ok, err := printStructured(result); ok {
		return err
	}

	fmt.Fprintf(stdout, "Base URL: %s\n", result.BaseURL)
	fmt.Fprintf(stdout, "Contract: %s\n", result.Contract)
	fmt.Fprintf(stdout, "Index:    %d\n", result.Index)
	fmt.Fprintf(stdout, "Address:  %s\n", result.Address.Hex())
	return nil
}
