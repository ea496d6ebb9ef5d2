package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subspace/subspace-regenesis-tool/pkg/application"
	"github.com/subspace/subspace-regenesis-tool/pkg/exclusion"
)

// NewExclusionsCmd creates the command listing the accounts left out of the snapshot.
func NewExclusionsCmd(app *application.Regenesis) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "exclusions",
		Short: "List the accounts excluded from the snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := exclusion.Default()
			if err != nil {
				return err
			}

			type row struct {
				Reason  exclusion.Reason `json:"reason"`
				Address string           `json:"address"`
				ID      string           `json:"id"`
			}
			rows := make([]row, 0, set.Len())
			for _, m := range set.Members() {
				rows = append(rows, row{Reason: m.Reason, Address: m.ID.String(), ID: m.ID.Hex()})
			}

			if outputJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			for _, r := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "%-13s %s %s\n", r.Reason, r.Address, r.ID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d excluded accounts (%d token grants)\n", set.Len(), set.GrantCount())
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	return cmd
}
