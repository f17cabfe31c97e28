package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// addWatchlistCommands adds watchlist management commands.
func addWatchlistCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newWatchlistCmd(app))
}

func newWatchlistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage the scan watchlist",
		Long:  "Symbols on the watchlist are scanned by the auto trader each cycle.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show watchlist symbols",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if app.Store == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}

			symbols, err := app.Store.GetWatchlist(ctx)
			if err != nil {
				output.Error("Failed to load watchlist: %v", err)
				return err
			}
			if len(symbols) == 0 {
				symbols = app.Config.Trading.Watchlist
			}

			if output.IsJSON() {
				return output.JSON(symbols)
			}
			if len(symbols) == 0 {
				output.Dim("Watchlist is empty")
				return nil
			}
			for _, s := range symbols {
				output.Println(s)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <symbol>...",
		Short: "Add symbols to the watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if app.Store == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}

			for _, arg := range args {
				symbol := strings.ToUpper(arg)
				if err := app.Store.AddToWatchlist(ctx, symbol); err != nil {
					output.Error("Failed to add %s: %v", symbol, err)
					return err
				}
				output.Success("Added %s", symbol)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <symbol>...",
		Short: "Remove symbols from the watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if app.Store == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}

			for _, arg := range args {
				symbol := strings.ToUpper(arg)
				if err := app.Store.RemoveFromWatchlist(ctx, symbol); err != nil {
					output.Error("Failed to remove %s: %v", symbol, err)
					return err
				}
				output.Success("Removed %s", symbol)
			}
			return nil
		},
	})

	return cmd
}
