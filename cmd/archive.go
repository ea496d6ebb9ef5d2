package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subspace/subspace-regenesis-tool/pkg/application"
	"github.com/subspace/subspace-regenesis-tool/pkg/archive"
)

// NewArchiveCmd creates the archive command and its subcommands.
func NewArchiveCmd(app *application.Regenesis) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect raw account archives",
		Long: `Inspect archives recorded with --archive. A committed archive can be
replayed with --from-archive to reproduce a snapshot without a node.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := cmd.Help()
			if err != nil {
				fmt.Println(err)
			}
		},
	}

	cmd.AddCommand(newArchiveInfoCmd(app))
	return cmd
}

func newArchiveInfoCmd(app *application.Regenesis) *cobra.Command {
	return &cobra.Command{
		Use:   "info <archive-dir>",
		Short: "Print the block and issuance an archive was taken at",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := archive.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			meta := r.Meta()
			app.Log.Info("Opened archive", "path", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Block:          #%d (%s)\n", meta.Number, meta.Hash.Hex())
			fmt.Fprintf(cmd.OutOrStdout(), "Entries:        %d\n", meta.Entries)
			fmt.Fprintf(cmd.OutOrStdout(), "Total issuance: %s\n", meta.Issuance)
			return nil
		},
	}
}
