package cmd

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"officefruits/app"
	"officefruits/repository"
	"officefruits/utils"
)

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Reconcile confirmed orders that never reached the order store",
	Long: `Orders are confirmed to the customer even when saving them fails; such orders
are parked in a local outbox. These commands let an operator inspect and
reconcile them.

Available subcommands:
  list    - Show open entries
  replay  - Save open entries to the order store and close the ones that succeed
  resolve - Close one entry that was handled by hand`,
}

var outboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show open outbox entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		outbox, err := repository.NewOutboxRepository(cfg.Outbox.Path, log)
		if err != nil {
			return err
		}
		defer outbox.Close()

		entries, err := outbox.ListOpen(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No open outbox entries.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ENTRY\tORDER\tCOMPANY\tAMOUNT\tREFERENCE\tQUEUED\tERROR")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.Order.ID, e.Order.CompanyName, utils.FormatKobo(e.Order.AmountMinor),
				e.Order.PaymentReference, e.CreatedAt.Format(time.RFC3339), e.LastError)
		}
		return w.Flush()
	},
}

var outboxReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Save open entries to the order store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		outbox, err := repository.NewOutboxRepository(cfg.Outbox.Path, log)
		if err != nil {
			return err
		}
		defer outbox.Close()

		orders, closeOrders, err := app.OpenOrderRepository(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeOrders()

		replayed, failed, err := replayOutbox(ctx, outbox, orders, cfg.Storage.Timeout, log)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Replayed %d entries, %d still open.\n", replayed, failed)
		if failed > 0 {
			return fmt.Errorf("%d outbox entries could not be saved", failed)
		}
		return nil
	},
}

var outboxResolveCmd = &cobra.Command{
	Use:   "resolve <entry-id>",
	Short: "Close an outbox entry handled out of band",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid entry id %q", args[0])
		}
		outbox, err := repository.NewOutboxRepository(cfg.Outbox.Path, log)
		if err != nil {
			return err
		}
		defer outbox.Close()

		if err := outbox.MarkResolved(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Entry %d resolved.\n", id)
		return nil
	},
}

func init() {
	outboxCmd.AddCommand(outboxListCmd)
	outboxCmd.AddCommand(outboxReplayCmd)
	outboxCmd.AddCommand(outboxResolveCmd)
}

// replayOutbox makes one save attempt per open entry and closes the entries that were saved
func replayOutbox(ctx context.Context, outbox repository.OutboxRepositoryInterface, orders repository.OrderSink, timeout time.Duration, logger *zap.Logger) (replayed, failed int, err error) {
	entries, err := outbox.ListOpen(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, e := range entries {
		saveCtx, cancel := context.WithTimeout(ctx, timeout)
		saveErr := orders.Save(saveCtx, e.Order)
		cancel()
		if saveErr != nil {
			logger.Error("replayOutbox: order still cannot be saved", zap.Error(saveErr), zap.Int64("entry_id", e.ID), zap.String("order_id", e.Order.ID))
			failed++
			continue
		}
		if err := outbox.MarkResolved(ctx, e.ID); err != nil {
			return replayed, failed, fmt.Errorf("order %s saved but entry %d not closed: %w", e.Order.ID, e.ID, err)
		}
		logger.Info("replayOutbox: order saved", zap.Int64("entry_id", e.ID), zap.String("order_id", e.Order.ID))
		replayed++
	}
	return replayed, failed, nil
}
