package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/xcm"
)

var (
	deriveLong = longDesc(`
Prints the account a target chain assigns to an account on a source parachain when that account
sends XCM to it. This is the account that must hold funds and proxy rights for tasks paid
through the remote derivative account.
`)

	deriveExample = examples(`
		# Account of Alice on turing as seen from moonbase
		xcm-automation derive --source turing --target moonbase --account 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY
	`)
)

func newDeriveCmd(cfg Config) *cobra.Command {
	var source, target, account string

	cmd := &cobra.Command{
		Use:     "derive",
		Short:   "Derive the remote account of an account",
		Long:    deriveLong,
		Example: deriveExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			return runDerive(cmd, rt, source, target, account)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Network key of the parachain the account lives on (required)")
	cmd.Flags().StringVar(&target, "target", "", "Network key of the chain deriving the account (required)")
	cmd.Flags().StringVarP(&account, "account", "a", "", "Account address or 0x public key (required)")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func runDerive(cmd *cobra.Command, rt *runtime, sourceKey, targetKey, account string) error {
	src, err := rt.endpoint(sourceKey)
	if err != nil {
		return err
	}
	tgt, err := rt.endpoint(targetKey)
	if err != nil {
		return err
	}
	paraID, ok := src.ParachainID()
	if !ok {
		return errors.New("source must be a parachain")
	}

	raw, err := substrate.ParseAccount(account, src.AddressKind)
	if err != nil {
		return err
	}
	derived, err := xcm.DeriveAccount(paraID, raw, xcm.DeriveOptions{
		AddressKind: src.AddressKind,
		Version:     tgt.XcmVersion,
		Network:     xcm.AnyNetwork,
	})
	if err != nil {
		return fmt.Errorf("failed to derive account: %w", err)
	}

	out := derived.Bytes(tgt.AddressKind)
	addr, err := substrate.FormatAccount(out, tgt.AddressKind, tgt.SS58Prefix)
	if err != nil {
		return err
	}

	cmd.Printf("Origin:  %s\n", derived.Location)
	cmd.Printf("Account: %s\n", addr)
	cmd.Printf("Hex:     0x%x\n", out)

	return nil
}
