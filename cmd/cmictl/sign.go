package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/integrationcmi/cmi/internal/adapters/cmi"
	"github.com/integrationcmi/cmi/internal/domain"
	"github.com/integrationcmi/cmi/internal/services/payment"
)

func newSignCmd(opts *options) *cobra.Command {
	var form bool

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Build a signed checkout request",
		Long: `Build the signed parameter set for a JSON payment request read from --input
(stdin by default). With --form the auto-submitting HTML page is printed instead.`,
		Example: `  echo '{"amount":"150.50","currency":"MAD","okUrl":"https://shop.ma/ok","failUrl":"https://shop.ma/fail","email":"a@shop.ma","BillToName":"Jane Doe"}' | cmictl sign -o json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gatewayConfig, err := opts.gatewayConfig()
			if err != nil {
				return err
			}

			data, err := opts.readInput(cmd)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			var req domain.PaymentRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("parse payment request: %w", err)
			}

			signer, err := cmi.NewRequestSigner(gatewayConfig, payment.NewRequestValidator(), zap.NewNop())
			if err != nil {
				return err
			}
			params, err := signer.Build(&req)
			if err != nil {
				if field := domain.GetErrorField(err); field != "" {
					return fmt.Errorf("%w (field %s)", err, field)
				}
				return err
			}

			if !form {
				return printResult(cmd.OutOrStdout(), opts.output, params)
			}

			nonce, err := cmi.NewNonce()
			if err != nil {
				return err
			}
			page, err := cmi.NewFormRenderer(gatewayConfig.GatewayURL).Render(params, nonce)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(page)
			return err
		},
	}

	cmd.Flags().BoolVar(&form, "form", false, "Print the auto-submitting HTML form")
	return cmd
}
