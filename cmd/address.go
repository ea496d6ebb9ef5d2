package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subspace/subspace-regenesis-tool/pkg/application"
	"github.com/subspace/subspace-regenesis-tool/pkg/ss58"
	"github.com/subspace/subspace-regenesis-tool/pkg/storage"
)

// NewAddressCmd creates the address command
func NewAddressCmd(app *application.Regenesis) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Address utilities",
		Long:  "Convert between SS58 addresses, raw account ids and System.Account storage keys",
		Run: func(cmd *cobra.Command, args []string) {
			err := cmd.Help()
			if err != nil {
				fmt.Println(err)
			}
		},
	}

	cmd.AddCommand(newAddressDecodeCmd())
	cmd.AddCommand(newAddressEncodeCmd())

	return cmd
}

func newAddressDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <ss58-address>",
		Short: "Decode an SS58 address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, prefix, err := ss58.Decode(args[0])
			if err != nil {
				return fmt.Errorf("invalid address %q: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Prefix:      %d\n", prefix)
			fmt.Fprintf(cmd.OutOrStdout(), "Account ID:  %s\n", id.Hex())
			fmt.Fprintf(cmd.OutOrStdout(), "Storage key: 0x%x\n", storage.AccountKey(id))
			return nil
		},
	}
}

func newAddressEncodeCmd() *cobra.Command {
	var prefix uint16

	cmd := &cobra.Command{
		Use:   "encode <hex-account-id>",
		Short: "Encode a raw account id as an SS58 address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ss58.AccountIDFromHex(args[0])
			if err != nil {
				return err
			}
			addr, err := ss58.Encode(id, prefix)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}

	cmd.Flags().Uint16Var(&prefix, "prefix", ss58.SubstratePrefix, "SS58 network prefix")
	return cmd
}
