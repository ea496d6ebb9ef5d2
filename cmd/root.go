package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/subspace/subspace-regenesis-tool/pkg/application"
	"github.com/subspace/subspace-regenesis-tool/pkg/core"
	"github.com/subspace/subspace-regenesis-tool/pkg/extract"
)

var (
	// Version information (set by ldflags)
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates the root command. Run without a subcommand it takes
// a balance snapshot.
func NewRootCmd() *cobra.Command {
	var configFile string

	app := application.New()
	config := viper.New()

	rootCmd := &cobra.Command{
		Use:   "regenesis",
		Short: "Subspace regenesis tool",
		Long: `Extracts a verified snapshot of account balances at one block of a
Subspace chain, for seeding the genesis of a new chain.

Every account under System.Account is read at the pinned block. The sudo
account, the //Alice and //Bob development accounts and the token grant
recipients are excluded; every other account is written to
balances_<block number>.json once the sum of all balances matches the
chain's recorded total issuance.`,
		Version:      fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(config, configFile); err != nil {
				return err
			}
			app.Setup(log.NewLogger("regenesis"), config)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd, app)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./regenesis.yaml)")
	addSnapshotFlags(rootCmd)
	if err := config.BindPFlags(rootCmd.Flags()); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(NewExclusionsCmd(app))
	rootCmd.AddCommand(NewAddressCmd(app))
	rootCmd.AddCommand(NewArchiveCmd(app))
	rootCmd.AddCommand(NewBalanceCmd(app, extract.DialRPC))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func initConfig(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("regenesis")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("REGENESIS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return core.ErrInvalidConfigf("failed to read config: %v", err)
		}
	}
	return nil
}
