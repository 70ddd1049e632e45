package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/integrationcmi/cmi/internal/adapters/cmi"
	"github.com/integrationcmi/cmi/internal/config"
	"github.com/integrationcmi/cmi/internal/domain"
)

// options are the flags shared by every subcommand
type options struct {
	output  string
	input   string
	gateway config.GatewayConfig
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	// CMI_* variables provide the flag defaults
	_ = envconfig.Process("CMI", &opts.gateway)

	rootCmd := &cobra.Command{
		Use:           "cmictl",
		Short:         "cmictl - CMI hosted payment command line tool",
		Long:          `cmictl computes CMI request digests, builds signed checkout requests and verifies callback payloads.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.output, "output", "o", "table", "Output format (table, json)")
	flags.StringVarP(&opts.input, "input", "i", "", "Read the JSON payload from a file (- for stdin)")
	flags.StringVar(&opts.gateway.StoreKey, "store-key", opts.gateway.StoreKey, "Store key (default $CMI_STORE_KEY)")
	flags.StringVar(&opts.gateway.ClientID, "client-id", opts.gateway.ClientID, "Merchant client id (default $CMI_CLIENT_ID)")
	flags.StringVar(&opts.gateway.GatewayURL, "gateway-url", opts.gateway.GatewayURL, "Hosted payment page URL")
	flags.StringVar(&opts.gateway.ShopURL, "shop-url", opts.gateway.ShopURL, "Merchant shop URL (default $CMI_SHOP_URL)")
	flags.StringVar(&opts.gateway.CallbackURL, "callback-url", opts.gateway.CallbackURL, "Server-to-server callback URL")
	flags.StringVar(&opts.gateway.StoreType, "store-type", opts.gateway.StoreType, "Store type")
	flags.StringVar(&opts.gateway.TranType, "tran-type", opts.gateway.TranType, "Transaction type")
	flags.StringVar(&opts.gateway.ConfirmationMode, "confirmation-mode", opts.gateway.ConfirmationMode, "Confirmation mode (auto, manual)")

	rootCmd.AddCommand(newHashCmd(opts), newSignCmd(opts), newVerifyCmd(opts))
	return rootCmd
}

// gatewayConfig validates the flags into a gateway configuration
func (o *options) gatewayConfig() (*cmi.Config, error) {
	if o.gateway.StoreKey == "" {
		return nil, domain.NewConfigurationError("storeKey", "--store-key or CMI_STORE_KEY is required")
	}
	cfg := &config.Config{Gateway: o.gateway}
	return cfg.GatewayConfigFor(o.gateway.StoreKey)
}

// readInput returns the --input payload. An empty path or "-" reads stdin.
func (o *options) readInput(cmd *cobra.Command) ([]byte, error) {
	if o.input == "" || o.input == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(o.input)
}

// splitPair parses a name=value argument
func splitPair(arg string) (string, string, error) {
	name, value, ok := strings.Cut(arg, "=")
	if !ok || name == "" {
		return "", "", fmt.Errorf("expected name=value, got %q", arg)
	}
	return name, value, nil
}
