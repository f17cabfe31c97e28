package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tradecover/internal/trading"
)

// addTraderCommands adds the autonomous trading loop commands.
func addTraderCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newScanCmd(app))
}

func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the autonomous trading loop",
		Long: `Run the scan loop: every interval, each watchlist symbol is either
opened (when no position exists and a structure qualifies) or evaluated for
adjustment. Stop with Ctrl-C.`,
		Example: `  tradecover run
  tradecover run --interval 5m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			interval, _ := cmd.Flags().GetDuration("interval")
			if interval > 0 {
				app.Config.Trading.ScanInterval = interval
			}

			trader, err := newAutoTrader(app)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigCh
				output.Warning("Shutting down...")
				cancel()
			}()

			output.Info("Auto trader started (mode=%s interval=%s)",
				app.Config.Trading.Mode, app.Config.Trading.ScanInterval)
			return trader.Run(ctx)
		},
	}

	cmd.Flags().Duration("interval", 0, "scan interval override (e.g. 30s, 5m)")

	return cmd
}

func newScanCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run a single scan cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			trader, err := newAutoTrader(app)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			trader.ScanOnce(ctx)
			output.Success("Scan complete")
			return nil
		},
	}
}

func newAutoTrader(app *App) (*trading.AutoTrader, error) {
	if app.Store == nil {
		return nil, fmt.Errorf("store not available")
	}
	exec := trading.NewExecutor(app.Broker, app.Store, app.Logger, app.Config.Trading.Mode != "live")
	return trading.NewAutoTrader(app.Config, app.Broker, app.Store, exec, app.Logger), nil
}
