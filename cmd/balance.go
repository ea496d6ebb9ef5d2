package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subspace/subspace-regenesis-tool/pkg/application"
	"github.com/subspace/subspace-regenesis-tool/pkg/balance"
	"github.com/subspace/subspace-regenesis-tool/pkg/chain"
	"github.com/subspace/subspace-regenesis-tool/pkg/exclusion"
	"github.com/subspace/subspace-regenesis-tool/pkg/extract"
	"github.com/subspace/subspace-regenesis-tool/pkg/ss58"
)

// NewBalanceCmd creates the command that looks up a single account.
func NewBalanceCmd(app *application.Regenesis, dial extract.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance <ss58-address>",
		Short: "Show the balance of one account at a block",
		Long: `Reads the System.Account record of one account at the selected block
and reports whether the snapshot would include it. The node and block
settings are read from flags, REGENESIS_* environment variables and the
config file, as for the snapshot itself.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _, err := ss58.Decode(args[0])
			if err != nil {
				return fmt.Errorf("invalid address %q: %w", args[0], err)
			}

			v := app.Config
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}

			var sel chain.BlockSelector
			if v.IsSet("block-number") {
				n := v.GetUint32("block-number")
				sel.Number = &n
			}
			if sel.Hash, err = parseBlockHash(v.GetString("block-hash")); err != nil {
				return err
			}

			node, release, err := dial(cmd.Context(), v.GetString("url"), v.GetDuration("timeout"))
			if err != nil {
				return err
			}
			defer release()

			block, err := chain.Resolve(cmd.Context(), node, sel)
			if err != nil {
				return err
			}
			info, err := balance.NewChecker(node).GetBalance(cmd.Context(), id, block.Hash)
			if err != nil {
				return err
			}
			app.Log.Info("Looked up account", "account", id.Hex(), "block", block.Number)

			exclusions, err := exclusion.Default()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Block:    #%d (%s)\n", block.Number, block.Hash.Hex())
			fmt.Fprintf(out, "Account:  %s\n", id.Hex())
			if !info.Found {
				fmt.Fprintln(out, "Status:   not found")
				return nil
			}
			fmt.Fprintf(out, "Free:     %s\n", info.Record.Data.Free.Dec())
			fmt.Fprintf(out, "Reserved: %s\n", info.Record.Data.Reserved.Dec())
			fmt.Fprintf(out, "Total:    %s\n", info.Total().Dec())
			if reason, ok := exclusions.Reason(id); ok {
				fmt.Fprintf(out, "Status:   excluded (%s)\n", reason)
			} else {
				fmt.Fprintln(out, "Status:   included")
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("url", defaultURL, "The websocket url of Subspace node")
	flags.Uint32("block-number", 0, "Specify the block number (takes precedence over --block-hash)")
	flags.String("block-hash", "", "Specify the block hash")
	flags.Duration("timeout", 0, "Deadline for each node request (0 disables)")
	return cmd
}
