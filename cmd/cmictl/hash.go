package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/integrationcmi/cmi/internal/adapters/cmi"
	"github.com/integrationcmi/cmi/internal/domain"
)

func newHashCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "hash [name=value ...]",
		Short: "Compute the digest of a parameter set",
		Long: `Compute the CMI digest of the given fields with the store key.
Fields come from name=value arguments, or from a JSON object given with --input
when no arguments are passed. hash and encoding fields are ignored.`,
		Example: `  cmictl hash --store-key TEST1234 oid=A1 amount=100.00 currency=504`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.gateway.StoreKey == "" {
				return domain.NewConfigurationError("storeKey", "--store-key or CMI_STORE_KEY is required")
			}

			params, err := hashParams(cmd, opts, args)
			if err != nil {
				return err
			}

			digest, err := cmi.GenerateHash(params, opts.gateway.StoreKey)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.output, HashRow{Hash: digest, Fields: params.Names()})
		},
	}
}

func hashParams(cmd *cobra.Command, opts *options, args []string) (*domain.ParameterSet, error) {
	if len(args) == 0 {
		data, err := opts.readInput(cmd)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		params := domain.NewParameterSet()
		if err := json.Unmarshal(data, params); err != nil {
			return nil, fmt.Errorf("parse input: %w", err)
		}
		return params, nil
	}

	params := domain.NewParameterSet()
	for _, arg := range args {
		name, value, err := splitPair(arg)
		if err != nil {
			return nil, err
		}
		if params.Has(name) {
			return nil, fmt.Errorf("field %q given twice", name)
		}
		if err := params.Set(name, value); err != nil {
			return nil, err
		}
	}
	return params, nil
}
