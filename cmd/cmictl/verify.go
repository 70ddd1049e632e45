package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/integrationcmi/cmi/internal/adapters/cmi"
	"github.com/integrationcmi/cmi/internal/domain"
)

// errRejected makes the command exit non-zero for an untrusted callback
var errRejected = errors.New("callback rejected")

func newVerifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [query-string]",
		Short: "Verify a callback payload",
		Long: `Verify a callback exactly as the server would. The payload is a URL-encoded
query string argument, or a JSON object read from --input.
The command exits non-zero when the callback is rejected.`,
		Example: `  cmictl verify 'oid=A1&amount=100.00&currency=504&ProcReturnCode=00&HASH=...'`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gatewayConfig, err := opts.gatewayConfig()
			if err != nil {
				return err
			}

			verifier, err := cmi.NewCallbackVerifier(gatewayConfig, zap.NewNop())
			if err != nil {
				return err
			}

			var result domain.VerificationResult
			params, perr := callbackParams(cmd, opts, args)
			if perr != nil {
				result = domain.RejectedResult(domain.RejectVerificationError, perr)
			} else {
				result = verifier.Verify(params)
			}

			if err := printResult(cmd.OutOrStdout(), opts.output, newVerifyRow(result)); err != nil {
				return err
			}
			if result.Rejected() {
				return fmt.Errorf("%w: %s", errRejected, result.Message)
			}
			return nil
		},
	}
}

func callbackParams(cmd *cobra.Command, opts *options, args []string) (*domain.ParameterSet, error) {
	if len(args) == 1 {
		values, err := url.ParseQuery(strings.TrimPrefix(args[0], "?"))
		if err != nil {
			return nil, fmt.Errorf("parse query string: %w", err)
		}
		return domain.NewParameterSetFromValues(values)
	}

	data, err := opts.readInput(cmd)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	params := domain.NewParameterSet()
	if err := json.Unmarshal(data, params); err != nil {
		return nil, err
	}
	return params, nil
}
