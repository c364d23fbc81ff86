package main

import (
	"context"
	"fmt"

	"github.com/benx421/subscription-checkout/internal/notifier"
	"github.com/benx421/subscription-checkout/internal/service"
	"github.com/spf13/cobra"
)

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one maintenance pass and exit",
		Long: `Purge idempotency claims whose window has passed and settle pending
orders older than PENDING_STALE_AFTER against the payment gateway.

Intended for cron-style scheduling when the server runs with --no-sweeper.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.Driver == "memory" {
				return fmt.Errorf("sweep needs a shared store; STORE_DRIVER=memory lives only inside the server")
			}

			ctx := context.Background()
			store, closeStore, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			fanout, closeNotifiers, err := notifier.FromConfig(ctx, &cfg.Notifier, logger)
			if err != nil {
				return err
			}
			defer closeNotifiers()

			sweeper := service.NewSweeper(store, newGateway(&cfg.Gateway, logger), fanout, cfg.Checkout.PendingStaleAfter, logger)
			report, err := sweeper.Sweep(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "claims deleted: %d\npending checked: %d\npending resolved: %d\n",
				report.ClaimsDeleted, report.PendingChecked, report.PendingResolved)
			return nil
		},
	}
}
