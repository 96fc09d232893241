package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var billingCmd = &cobra.Command{
	Use:   "billing",
	Short: "Show or renew the subscription",
}

var billingStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show subscription status",
	RunE:  runBillingStatus,
}

var billingRenewCmd = &cobra.Command{
	Use:   "renew",
	Short: "Renew the subscription",
	RunE:  runBillingRenew,
}

func init() {
	rootCmd.AddCommand(billingCmd)
	billingCmd.AddCommand(billingStatusCmd, billingRenewCmd)

	billingStatusCmd.Flags().Bool("json", false, "Output as JSON")
	billingRenewCmd.Flags().String("plan", "", "Plan code (default from CLARUS_PLAN_CODE)")
	billingRenewCmd.Flags().Bool("json", false, "Output as JSON")
}

func runBillingStatus(cmd *cobra.Command, _ []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	ctx := cmd.Context()

	rt, err := newRuntime(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.requireSession(); err != nil {
		return err
	}

	if err := rt.app.RefreshSubscription(ctx); err != nil {
		return err
	}
	s := rt.app.Snapshot()
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), s.Subscription)
	}
	printSubscription(cmd.OutOrStdout(), s.Subscription, s.SubscriptionError)
	return nil
}

func runBillingRenew(cmd *cobra.Command, _ []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	plan, _ := cmd.Flags().GetString("plan")
	ctx := cmd.Context()

	rt, err := newRuntime(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.requireSession(); err != nil {
		return err
	}

	renewal, err := rt.app.Renew(ctx, plan)
	if err != nil && renewal == nil {
		return err
	}
	s := rt.app.Snapshot()

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"renewal":      renewal,
			"subscription": s.Subscription,
		})
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "payment_id=%s\n", renewal.PaymentID)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "subscription_id=%s\n", renewal.SubscriptionID)
	printSubscription(cmd.OutOrStdout(), s.Subscription, s.SubscriptionError)
	return err
}
