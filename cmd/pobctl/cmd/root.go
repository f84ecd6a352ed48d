// Package cmd implements the pobctl commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	pob "github.com/angelmc32/pob-v1"
)

// Output formats
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	cfgFile string

	// stdout is swapped in tests.
	stdout io.Writer = os.Stdout
)

var rootCmd = &cobra.Command{
	Use:   "pobctl",
	Short: "Generate and redeem Proof of BEER mint keys",
	Long: `pobctl generates batches of single-use mint keys, commits to their
addresses with a Merkle root, and builds the redemption URLs that are
printed on QR codes.

Examples:
  pobctl generate --contract 0x5FbD... --quantity 100 --base-url https://pob.example --out urls.csv.gz
  pobctl proof <campaign-id> 0x7E5F...
  pobctl verify --root 0x... --address 0x... --proof 0xaa..,0xbb..
  pobctl parse "https://pob.example/mint/0x5FbD...?key=0x...&index=0"
  pobctl campaigns list --server https://api.pob.example`,
	SilenceUsage:      true,
	PersistentPreRunE: validateOutput,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.pobctl.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", outputText, "output format (text, json, yaml)")
	rootCmd.PersistentFlags().String("server", "", "campaign API URL")
	rootCmd.PersistentFlags().String("api-key", "", "campaign API key")
	rootCmd.PersistentFlags().String("store", defaultStorePath(), "local manifest store")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("api_key", rootCmd.PersistentFlags().Lookup("api-key"))
	_ = viper.BindPFlag("store", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".pobctl")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("POBCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pob/campaigns.json"
	}
	return home + "/.pob/campaigns.json"
}

func validateOutput(cmd *cobra.Command, args []string) error {
	switch outputFormat() {
	case outputText, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", outputFormat())
	}
}

func outputFormat() string {
	return strings.ToLower(viper.GetString("output"))
}

// logger writes diagnostics to stderr. Never pass keys or URLs to it.
func logger() *slog.Logger {
	level := slog.LevelWarn
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// remote reports whether commands should use the campaign API.
func remote() bool {
	return viper.GetString("server") != ""
}

func getClient() (*pob.Client, error) {
	server := viper.GetString("server")
	if server == "" {
		return nil, fmt.Errorf("no server configured: use --server or POBCTL_SERVER")
	}
	return pob.NewClient(pob.Config{
		ServerURL: server,
		APIKey:    viper.GetString("api_key"),
	})
}

func getStore() (*pob.ManifestStore, error) {
	return pob.NewManifestStore(viper.GetString("store"))
}

// printStructured writes v as JSON or YAML and reports whether it did.
func printStructured(v any) (bool, error) {
	switch outputFormat() {
	case outputJSON:
		return true, printJSON(v)
	case outputYAML:
		return true, printYAML(v)
	}
	return false, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printYAML round-trips through JSON so json tags and marshalers apply.
func printYAML(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(doc)
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", colorRed("✗"), err)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
}

func printTableHeader(w io.Writer, cols ...string) {
	fmt.Fprintln(w, strings.Join(cols, "\t"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func colorGreen(s string) string  { return "\033[32m" + s + "\033[0m" }
func colorYellow(s string) string { return "\033[33m" + s + "\033[0m" }
func colorRed(s string) string    { return "\033[31m" + s + "\033[0m" }
