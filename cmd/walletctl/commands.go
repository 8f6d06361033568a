package main

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
)

func newCreateCmd(client *apiClient) *cobra.Command {
	var guardian, label string
	var perTx, daily uint64
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a wallet",
		RunE: func(_ *cobra.Command, _ []string) error {
			raw, err := client.do(http.MethodPost, "/v1/wallets", map[string]interface{}{
				"guardian":     guardian,
				"label":        label,
				"perTxCeiling": perTx,
				"dailyCeiling": daily,
			})
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}
	cmd.Flags().StringVar(&guardian, "guardian", "", "guardian address")
	cmd.Flags().StringVar(&label, "label", "", "wallet label")
	cmd.Flags().Uint64Var(&perTx, "per-tx", 0, "per-transaction ceiling")
	cmd.Flags().Uint64Var(&daily, "daily", 0, "daily ceiling")
	_ = cmd.MarkFlagRequired("guardian")
	_ = cmd.MarkFlagRequired("label")
	return cmd
}

func newStatusCmd(client *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "status <walletId>",
		Short: "Show a wallet status snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := client.do(http.MethodGet, "/v1/wallets/"+args[0], nil)
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}
}

func newSessionCmd(client *apiClient) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage agent sessions",
	}

	var agent, label string
	var durationSeconds int64
	var perTx, daily uint64
	createCmd := &cobra.Command{
		Use:   "create <walletId>",
		Short: "Open a session for an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := client.do(http.MethodPost, "/v1/wallets/"+args[0]+"/sessions", map[string]interface{}{
				"agent":           agent,
				"label":           label,
				"durationSeconds": durationSeconds,
				"perTxOverride":   perTx,
				"dailyOverride":   daily,
			})
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}
	createCmd.Flags().StringVar(&agent, "agent", "", "agent address")
	createCmd.Flags().StringVar(&label, "label", "", "session label")
	createCmd.Flags().Int64Var(&durationSeconds, "duration", 3600, "session duration in seconds")
	createCmd.Flags().Uint64Var(&perTx, "per-tx", 0, "per-transaction override (0 = wallet default)")
	createCmd.Flags().Uint64Var(&daily, "daily", 0, "daily override (0 = wallet default)")
	_ = createCmd.MarkFlagRequired("agent")
	_ = createCmd.MarkFlagRequired("label")

	revokeCmd := &cobra.Command{
		Use:   "revoke <walletId> <sessionId>",
		Short: "Revoke one session",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			if _, err := strconv.ParseUint(args[1], 10, 64); err != nil {
				return err
			}
			raw, err := client.do(http.MethodDelete, "/v1/wallets/"+args[0]+"/sessions/"+args[1], nil)
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}

	revokeAllCmd := &cobra.Command{
		Use:   "revoke-all <walletId>",
		Short: "Revoke every active session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := client.do(http.MethodDelete, "/v1/wallets/"+args[0]+"/sessions", nil)
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}

	sessionCmd.AddCommand(createCmd, revokeCmd, revokeAllCmd)
	return sessionCmd
}

func newExecuteCmd(client *apiClient) *cobra.Command {
	var target, payload string
	var value, nonce uint64
	cmd := &cobra.Command{
		Use:   "execute <walletId>",
		Short: "Execute a call through the wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			body := map[string]interface{}{
				"target": target,
				"value":  value,
				"nonce":  nonce,
			}
			if payload != "" {
				body["payload"] = payload
			}
			raw, err := client.do(http.MethodPost, "/v1/wallets/"+args[0]+"/execute", body)
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "call target address")
	cmd.Flags().Uint64Var(&value, "value", 0, "value to spend")
	cmd.Flags().StringVar(&payload, "payload", "", "hex call payload (0x...)")
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "agent nonce")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newActionsCmd(client *apiClient) *cobra.Command {
	var start, count int
	cmd := &cobra.Command{
		Use:   "actions <walletId>",
		Short: "Page the wallet action ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "/v1/wallets/" + args[0] + "/actions?start=" + strconv.Itoa(start) + "&count=" + strconv.Itoa(count)
			raw, err := client.do(http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}
	cmd.Flags().IntVar(&start, "start", 0, "first entry index")
	cmd.Flags().IntVar(&count, "count", 100, "number of entries")
	return cmd
}

func newLimitsCmd(client *apiClient) *cobra.Command {
	var perTx, daily, monthly uint64
	cmd := &cobra.Command{
		Use:   "limits <walletId>",
		Short: "Set spending ceilings (0 = unlimited)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := client.do(http.MethodPut, "/v1/wallets/"+args[0]+"/limits", map[string]interface{}{
				"perTxCeiling":   perTx,
				"dailyCeiling":   daily,
				"monthlyCeiling": monthly,
			})
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}
	cmd.Flags().Uint64Var(&perTx, "per-tx", 0, "per-transaction ceiling")
	cmd.Flags().Uint64Var(&daily, "daily", 0, "daily ceiling")
	cmd.Flags().Uint64Var(&monthly, "monthly", 0, "monthly ceiling")
	return cmd
}

func newWhitelistCmd(client *apiClient) *cobra.Command {
	whitelistCmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage the target whitelist",
	}

	enableCmd := &cobra.Command{
		Use:   "enable <walletId>",
		Short: "Enforce the whitelist",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := client.do(http.MethodPut, "/v1/wallets/"+args[0]+"/whitelist", map[string]interface{}{"enabled": true})
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}

	disableCmd := &cobra.Command{
		Use:   "disable <walletId>",
		Short: "Stop enforcing the whitelist",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := client.do(http.MethodPut, "/v1/wallets/"+args[0]+"/whitelist", map[string]interface{}{"enabled": false})
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <walletId> <address>...",
		Short: "Add targets to the whitelist",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := client.do(http.MethodPost, "/v1/wallets/"+args[0]+"/whitelist/targets", map[string]interface{}{
				"targets": args[1:],
			})
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <walletId> <address>",
		Short: "Remove a target from the whitelist",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := client.do(http.MethodDelete, "/v1/wallets/"+args[0]+"/whitelist/targets/"+args[1], nil)
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list <walletId>",
		Short: "List whitelisted targets",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := client.do(http.MethodGet, "/v1/wallets/"+args[0]+"/whitelist/targets", nil)
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}

	whitelistCmd.AddCommand(enableCmd, disableCmd, addCmd, removeCmd, listCmd)
	return whitelistCmd
}

func newFreezeCmd(client *apiClient) *cobra.Command {
	freezeCmd := &cobra.Command{
		Use:   "freeze <walletId>",
		Short: "Freeze a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := client.do(http.MethodPost, "/v1/wallets/"+args[0]+"/freeze", map[string]interface{}{})
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}
	unfreezeCmd := &cobra.Command{
		Use:   "unfreeze <walletId>",
		Short: "Unfreeze a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := client.do(http.MethodPost, "/v1/wallets/"+args[0]+"/unfreeze", map[string]interface{}{})
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}
	freezeCmd.AddCommand(unfreezeCmd)
	return freezeCmd
}

func newGuardianCmd(client *apiClient) *cobra.Command {
	guardianCmd := &cobra.Command{
		Use:   "guardian",
		Short: "Guardian transfer operations",
	}

	var candidate string
	proposeCmd := &cobra.Command{
		Use:   "propose <walletId>",
		Short: "Propose a new guardian",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := client.do(http.MethodPost, "/v1/wallets/"+args[0]+"/guardian/propose", map[string]interface{}{
				"candidate": candidate,
			})
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}
	proposeCmd.Flags().StringVar(&candidate, "candidate", "", "proposed guardian address")
	_ = proposeCmd.MarkFlagRequired("candidate")

	acceptCmd := &cobra.Command{
		Use:   "accept <walletId>",
		Short: "Accept a pending guardianship",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := client.do(http.MethodPost, "/v1/wallets/"+args[0]+"/guardian/accept", map[string]interface{}{})
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}

	guardianCmd.AddCommand(proposeCmd, acceptCmd)
	return guardianCmd
}

func newFundsCmd(client *apiClient) *cobra.Command {
	fundsCmd := &cobra.Command{
		Use:   "funds",
		Short: "Wallet balance operations",
	}

	var amount uint64
	depositCmd := &cobra.Command{
		Use:   "deposit <walletId>",
		Short: "Credit the wallet balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := client.do(http.MethodPost, "/v1/wallets/"+args[0]+"/deposit", map[string]interface{}{"amount": amount})
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}
	depositCmd.Flags().Uint64Var(&amount, "amount", 0, "amount to deposit")
	_ = depositCmd.MarkFlagRequired("amount")

	var recoverAmount uint64
	recoverCmd := &cobra.Command{
		Use:   "recover <walletId>",
		Short: "Recover funds to the guardian (0 = entire balance)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := client.do(http.MethodPost, "/v1/wallets/"+args[0]+"/recover", map[string]interface{}{"amount": recoverAmount})
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}
	recoverCmd.Flags().Uint64Var(&recoverAmount, "amount", 0, "amount to recover")

	fundsCmd.AddCommand(depositCmd, recoverCmd)
	return fundsCmd
}

func newStatsCmd(client *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show registry aggregates",
		RunE: func(_ *cobra.Command, _ []string) error {
			raw, err := client.do(http.MethodGet, "/v1/registry/stats", nil)
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}
}
