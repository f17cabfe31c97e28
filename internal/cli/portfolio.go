package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tradecover/internal/models"
	"tradecover/internal/store"
	"tradecover/pkg/utils"
)

// addPortfolioCommands adds position and history commands.
func addPortfolioCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPositionsCmd(app))
	rootCmd.AddCommand(newTradesCmd(app))
	rootCmd.AddCommand(newDecisionsCmd(app))
	rootCmd.AddCommand(newBalanceCmd(app))
}

func newPositionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "List open positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol, _ := cmd.Flags().GetString("symbol")

			if app.Store == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}

			positions, err := app.Store.GetOpenPositions(ctx, strings.ToUpper(symbol))
			if err != nil {
				output.Error("Failed to load positions: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(positions)
			}

			if len(positions) == 0 {
				output.Dim("No open positions")
				return nil
			}

			table := NewTable(output, "ID", "Symbol", "Strategy", "Qty", "Entry", "Legs", "Opened")
			for _, pos := range positions {
				table.AddRow(
					shortID(pos.ID),
					pos.Symbol,
					pos.Strategy,
					fmt.Sprintf("%d", pos.Quantity),
					utils.FormatCurrency(pos.EntryPrice),
					describeLegs(&pos),
					pos.OpenedAt.Format("2006-01-02"),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("symbol", "", "filter by underlying symbol")

	return cmd
}

func newTradesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "Show trade history",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol, _ := cmd.Flags().GetString("symbol")
			limit, _ := cmd.Flags().GetInt("limit")

			if app.Store == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}

			trades, err := app.Store.GetTrades(ctx, store.TradeFilter{
				Symbol: strings.ToUpper(symbol),
				Limit:  limit,
			})
			if err != nil {
				output.Error("Failed to load trades: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}

			if len(trades) == 0 {
				output.Dim("No trades recorded")
				return nil
			}

			table := NewTable(output, "Time", "Symbol", "Strategy", "Action", "Qty", "Net", "Paper")
			for _, t := range trades {
				paper := ""
				if t.IsPaper {
					paper = "yes"
				}
				table.AddRow(
					t.Timestamp.Format("2006-01-02 15:04"),
					t.Symbol,
					t.Strategy,
					output.FormatAction(string(t.Action)),
					fmt.Sprintf("%d", t.Quantity),
					output.FormatPnL(t.Price),
					paper,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("symbol", "", "filter by underlying symbol")
	cmd.Flags().Int("limit", 50, "maximum number of trades to show")

	return cmd
}

func newDecisionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decisions",
		Short: "Show adjustment decision history",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol, _ := cmd.Flags().GetString("symbol")
			limit, _ := cmd.Flags().GetInt("limit")

			if app.Store == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}

			decisions, err := app.Store.GetDecisions(ctx, store.DecisionFilter{
				Symbol: strings.ToUpper(symbol),
				Limit:  limit,
			})
			if err != nil {
				output.Error("Failed to load decisions: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(decisions)
			}

			if len(decisions) == 0 {
				output.Dim("No decisions recorded")
				return nil
			}

			table := NewTable(output, "Time", "Symbol", "Strategy", "Action", "Price", "Executed", "Reason")
			for _, d := range decisions {
				executed := ""
				if d.Executed {
					executed = "yes"
				}
				table.AddRow(
					d.Timestamp.Format("2006-01-02 15:04"),
					d.Symbol,
					d.Strategy,
					output.FormatAction(string(d.Action)),
					utils.FormatCurrency(d.Price),
					executed,
					d.Reason,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("symbol", "", "filter by underlying symbol")
	cmd.Flags().Int("limit", 50, "maximum number of decisions to show")

	return cmd
}

func newBalanceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show account balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			balance, err := app.Broker.GetBalance(ctx)
			if err != nil {
				output.Error("Failed to get balance: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(balance)
			}

			output.Bold("Account Balance")
			output.Printf("  Available Cash: %s\n", utils.FormatCurrency(balance.AvailableCash))
			output.Printf("  Total Equity:   %s\n", utils.FormatCurrency(balance.TotalEquity))
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// describeLegs renders the strikes of whichever field group the position's
// strategy populates.
func describeLegs(pos *models.Position) string {
	switch {
	case pos.ShortPutStrike > 0 && pos.ShortCallStrike > 0:
		return fmt.Sprintf("%.0fp/%.0fp %.0fc/%.0fc",
			pos.LongPutStrike, pos.ShortPutStrike, pos.ShortCallStrike, pos.LongCallStrike)
	case pos.ShortStrike > 0 && pos.LongStrike > 0:
		return fmt.Sprintf("%.0fp/%.0fp", pos.LongStrike, pos.ShortStrike)
	case pos.NearStrike > 0 && pos.FarStrike > 0:
		return fmt.Sprintf("%.0f %s/%s", pos.NearStrike, pos.NearExpiry, pos.FarExpiry)
	case pos.PutStrike > 0 && pos.CallStrike > 0:
		return fmt.Sprintf("%.0fp/%.0fc", pos.PutStrike, pos.CallStrike)
	case pos.CallStrike > 0:
		return fmt.Sprintf("%.0fc", pos.CallStrike)
	case pos.PutStrike > 0:
		return fmt.Sprintf("%.0fp", pos.PutStrike)
	}
	return "-"
}
