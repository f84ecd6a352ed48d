package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	pob "github.com/angelmc32/pob-v1"
)

var campaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "List and inspect campaigns",
	Long: `Campaign commands. With --server they query the campaign API,
otherwise the local manifest store.

Examples:
  pobctl campaigns list
  pobctl campaigns list --contract 0x5FbD... --server https://api.pob.example
  pobctl campaigns get 6f1c...`,
}

var campaignsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List campaigns",
	Args:  cobra.NoArgs,
	RunE:  runCampaignsList,
}

var campaignsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get campaign details",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignsGet,
}

var campaignsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a campaign",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignsDelete,
}

func init() {
	campaignsListCmd.Flags().String("contract", "", "filter by contract address")

	campaignsCmd.AddCommand(campaignsListCmd)
	campaignsCmd.AddCommand(campaignsGetCmd)
	campaignsCmd.AddCommand(campaignsDeleteCmd)

	rootCmd.AddCommand(campaignsCmd)
}

func runCampaignsList(cmd *cobra.Command, args []string) error {
	contract, _ := cmd.Flags().GetString("contract")

	var manifests []*pob.Manifest
	if remote() {
		client, err := getClient()
		if err != nil {
			return err
		}
		manifests, err = client.ListCampaigns(cmd.Context(), contract)
		if err != nil {
			printError(err)
			return err
		}
	} else {
		store, err := getStore()
		if err != nil {
			return err
		}
		defer store.Close()
		for _, m := range store.List() {
			if contract == "" || strings.EqualFold(m.ContractAddress, contract) {
				manifests = append(manifests, m)
			}
		}
	}

	if ok, err := printStructured(map[string]any{
		"campaigns": manifests,
		"count":     len(manifests),
	}); ok {
		return err
	}

	if len(manifests) == 0 {
		fmt.Fprintln(stdout, "No campaigns found")
		return nil
	}

	w := newTable()
	printTableHeader(w, "ID", "CONTRACT", "QUANTITY", "ROOT", "CREATED")
	for _, m := range manifests {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			m.ID,
			truncate(m.ContractAddress, 12),
			m.Quantity,
			truncate(m.MerkleRoot.Hex(), 18),
			m.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

func runCampaignsGet(cmd *cobra.Command, args []string) error {
	var (
		m   *pob.Manifest
		err error
	)
	if remote() {
		client, cerr := getClient()
		if cerr != nil {
			return cerr
		}
		m, err = client.GetCampaign(cmd.Context(), args[0])
	} else {
		store, serr := getStore()
		if serr != nil {
			return serr
		}
		defer store.Close()
		m, err = store.Get(args[0])
	}
	if err != nil {
		printError(err)
		return err
	}

	if ok, err := printStructured(m); ok {
		return err
	}

	fmt.Fprintf(stdout, "ID:          %s\n", m.ID)
	fmt.Fprintf(stdout, "Contract:    %s\n", m.ContractAddress)
	fmt.Fprintf(stdout, "Merkle root: %s\n", m.MerkleRoot.Hex())
	fmt.Fprintf(stdout, "Quantity:    %d\n", m.Quantity)
	fmt.Fprintf(stdout, "Created:     %s\n\n", m.CreatedAt.Format("2006-01-02 15:04:05"))

	w := newTable()
	printTableHeader(w, "INDEX", "ADDRESS")
	for i, a := range m.Addresses {
		fmt.Fprintf(w, "%d\t%s\n", i, a.Hex())
	}
	return w.Flush()
}

func runCampaignsDelete(cmd *cobra.Command, args []string) error {
	if remote() {
		client, err := getClient()
		if err != nil {
			return err
		}
		if err := client.DeleteCampaign(cmd.Context(), args[0]); err != nil {
			printError(err)
			return err
		}
	} else {
		store, err := getStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(args[0]); err != nil {
			printError(err)
			return err
		}
	}

	if ok, err := printStructured(map[string]string{"status": "deleted", "id": args[0]}); ok {
		return err
	}
	fmt.Fprintf(stdout, "%s Campaign deleted: %s\n", colorGreen("✓"), args[0])
	return nil
}
