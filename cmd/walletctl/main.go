// walletctl is an operator CLI for the agent-wallet HTTP API.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := viper.New()
	cfg.SetEnvPrefix("WALLETCTL")
	cfg.AutomaticEnv()
	cfg.SetDefault("server", "http://localhost:8080")

	rootCmd := &cobra.Command{
		Use:           "walletctl",
		Short:         "Operate agent wallets: sessions, limits, execution, guardianship",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().String("server", cfg.GetString("server"), "base URL of the wallet service")
	rootCmd.PersistentFlags().String("credential", cfg.GetString("credential"), "API credential as keyId:secret")
	_ = cfg.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = cfg.BindPFlag("credential", rootCmd.PersistentFlags().Lookup("credential"))

	client := &apiClient{cfg: cfg}

	rootCmd.AddCommand(
		newCreateCmd(client),
		newStatusCmd(client),
		newSessionCmd(client),
		newExecuteCmd(client),
		newActionsCmd(client),
		newLimitsCmd(client),
		newWhitelistCmd(client),
		newFreezeCmd(client),
		newGuardianCmd(client),
		newFundsCmd(client),
		newStatsCmd(client),
	)

	return rootCmd
}
