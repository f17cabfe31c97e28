package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tradecover/internal/errors"
	"tradecover/internal/models"
	"tradecover/internal/strategy"
	"tradecover/internal/trading"
	"tradecover/pkg/utils"
)

// addStrategyCommands adds selection and adjustment commands.
func addStrategyCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newSelectCmd(app))
	rootCmd.AddCommand(newAdjustCmd(app))
	rootCmd.AddCommand(newChainCmd(app))
}

func newSelectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select <symbol>",
		Short: "Select the best structure for a symbol",
		Long: `Fetch the options chain for a symbol and run strategy selection.

Scores every valid leg combination for the chosen strategy and shows the
highest-scoring structure, or reports that nothing qualifies.`,
		Example: `  tradecover select AAPL
  tradecover select AAPL --strategy iron_condor --risk aggressive
  tradecover select MSFT --strategy put_credit_spread --open`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			kindStr, _ := cmd.Flags().GetString("strategy")
			riskStr, _ := cmd.Flags().GetString("risk")
			open, _ := cmd.Flags().GetBool("open")

			strat, err := buildStrategy(app, kindStr, riskStr)
			if err != nil {
				output.Error("Invalid strategy: %v", err)
				return err
			}

			quote, err := app.Broker.GetQuote(ctx, symbol)
			if err != nil {
				output.Error("Failed to get quote: %v", err)
				return err
			}

			chain, err := app.Broker.GetOptionChain(ctx, symbol)
			if err != nil {
				output.Error("Failed to get option chain: %v", err)
				return err
			}

			sel := strat.SelectOptions(quote.Last, chain)
			if sel == nil {
				if open {
					// --open is scripted usage; surface the miss as a
					// non-zero exit instead of a warning.
					output.Error("No qualifying combination for %s at %s", symbol, utils.FormatCurrency(quote.Last))
					return errors.Wrap(errors.ErrNoCandidate, symbol)
				}
				if output.IsJSON() {
					return output.JSON(map[string]interface{}{"symbol": symbol, "selected": nil})
				}
				output.Warning("No qualifying combination for %s at %s", symbol, utils.FormatCurrency(quote.Last))
				return nil
			}

			if output.IsJSON() && !open {
				return output.JSON(sel)
			}

			displayStructure(output, symbol, quote.Last, sel)

			if !open {
				return nil
			}
			if app.Store == nil {
				output.Error("Store not available, cannot open position")
				return fmt.Errorf("store not available")
			}

			exec := trading.NewExecutor(app.Broker, app.Store, app.Logger, app.Config.Trading.Mode != "live")
			quantity := positionQuantity(app.Config.Trading.MaxPositionSize, quote.Last)
			pos, err := exec.OpenPosition(ctx, symbol, string(strat.Kind()), sel, quote.Last, quantity)
			if err != nil {
				output.Error("Failed to open position: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(pos)
			}
			output.Success("Opened position %s (%d contracts)", pos.ID, pos.Quantity)
			return nil
		},
	}

	cmd.Flags().String("strategy", "", "strategy kind (default from config)")
	cmd.Flags().String("risk", "", "risk level: conservative, moderate, aggressive")
	cmd.Flags().Bool("open", false, "open a position for the selected structure")

	return cmd
}

func newAdjustCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adjust <position-id>",
		Short: "Evaluate an open position for adjustment",
		Long: `Evaluate an open position against the current price and show the
recommended action. With --execute the resulting orders are placed and the
position record is updated.`,
		Example: `  tradecover adjust 4f7c2a
  tradecover adjust 4f7c2a --execute`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			execute, _ := cmd.Flags().GetBool("execute")

			if app.Store == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}

			pos, err := app.Store.GetPosition(ctx, args[0])
			if err != nil {
				output.Error("Failed to load position: %v", err)
				return err
			}

			strat, err := strategyForPosition(app, pos)
			if err != nil {
				output.Error("Unknown strategy %q: %v", pos.Strategy, err)
				return err
			}

			quote, err := app.Broker.GetQuote(ctx, pos.Symbol)
			if err != nil {
				output.Error("Failed to get quote: %v", err)
				return err
			}

			adj := strat.AdjustPosition(pos, quote.Last)

			if !execute {
				if output.IsJSON() {
					return output.JSON(map[string]interface{}{
						"position_id": pos.ID,
						"symbol":      pos.Symbol,
						"price":       quote.Last,
						"action":      adj.Action,
						"reason":      adj.Reason,
					})
				}
				output.Bold("Position %s (%s %s)", pos.ID, pos.Symbol, pos.Strategy)
				output.Printf("  Price:  %s\n", utils.FormatCurrency(quote.Last))
				output.Printf("  Action: %s\n", output.FormatAction(string(adj.Action)))
				output.Printf("  Reason: %s\n", adj.Reason)
				return nil
			}

			if adj.Action == models.ActionNone {
				output.Info("No action required: %s", adj.Reason)
				return nil
			}

			chain, err := app.Broker.GetOptionChain(ctx, pos.Symbol)
			if err != nil {
				output.Error("Failed to get option chain: %v", err)
				return err
			}

			spec := strat.OrderParameters(adj.Action, pos, chain)
			if spec == nil {
				output.Warning("Action %s has no executable orders right now", adj.Action)
				return nil
			}

			exec := trading.NewExecutor(app.Broker, app.Store, app.Logger, app.Config.Trading.Mode != "live")
			trade, err := exec.ExecuteAdjustment(ctx, pos, spec)
			if err != nil {
				output.Error("Failed to execute adjustment: %v", err)
				return err
			}
			if trade == nil {
				output.Success("Applied %s (no orders placed)", adj.Action)
				return nil
			}
			if output.IsJSON() {
				return output.JSON(trade)
			}
			output.Success("Executed %s on %s: net %s", trade.Action, trade.Symbol, utils.FormatCurrency(trade.Price))
			return nil
		},
	}

	cmd.Flags().Bool("execute", false, "place the orders for the recommended action")

	return cmd
}

func newChainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain <symbol>",
		Short: "Display the options chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			expiry, _ := cmd.Flags().GetString("expiry")

			quote, err := app.Broker.GetQuote(ctx, symbol)
			if err != nil {
				output.Error("Failed to get quote: %v", err)
				return err
			}
			chain, err := app.Broker.GetOptionChain(ctx, symbol)
			if err != nil {
				output.Error("Failed to get option chain: %v", err)
				return err
			}
			if expiry != "" {
				chain = filterChainExpiry(chain, expiry)
			}

			if output.IsJSON() {
				return output.JSON(chain)
			}

			output.Bold("Option Chain - %s", symbol)
			output.Printf("  Spot: %s\n\n", utils.FormatCurrency(quote.Last))
			displayContracts(output, "Calls", chain.Calls)
			output.Println()
			displayContracts(output, "Puts", chain.Puts)
			return nil
		},
	}

	cmd.Flags().String("expiry", "", "show only contracts expiring on this date (YYYY-MM-DD)")

	return cmd
}

func filterChainExpiry(chain *models.OptionChain, expiry string) *models.OptionChain {
	out := &models.OptionChain{Symbol: chain.Symbol}
	for _, c := range chain.Calls {
		if c.Expiry == expiry {
			out.Calls = append(out.Calls, c)
		}
	}
	for _, p := range chain.Puts {
		if p.Expiry == expiry {
			out.Puts = append(out.Puts, p)
		}
	}
	return out
}

func displayContracts(output *Output, title string, contracts []models.OptionContract) {
	output.Bold(title)
	table := NewTable(output, "Strike", "Expiry", "DTE", "Bid", "Ask", "Mid", "Delta", "IV")
	for _, c := range contracts {
		table.AddRow(
			fmt.Sprintf("%.2f", c.Strike),
			c.Expiry,
			fmt.Sprintf("%d", c.DaysToExpiry),
			fmt.Sprintf("%.2f", c.Bid),
			fmt.Sprintf("%.2f", c.Ask),
			fmt.Sprintf("%.2f", c.Premium),
			fmt.Sprintf("%+.2f", c.Delta),
			utils.FormatPercent(c.IV*100),
		)
	}
	table.Render()
}

func displayStructure(output *Output, symbol string, price float64, sel *models.SelectedStructure) {
	output.Bold("%s - %s", symbol, sel.Strategy)
	output.Printf("  Underlying: %s\n", utils.FormatCurrency(price))
	output.Printf("  Score:      %.3f\n", sel.Score)
	if sel.NetCredit > 0 {
		output.Printf("  Net Credit: %s\n", utils.FormatCurrency(sel.NetCredit))
	}
	if sel.NetDebit > 0 {
		output.Printf("  Net Debit:  %s\n", utils.FormatCurrency(sel.NetDebit))
	}
	if sel.MaxRisk > 0 {
		output.Printf("  Max Risk:   %s\n", utils.FormatCurrency(sel.MaxRisk))
	}
	if sel.MaxReward > 0 {
		output.Printf("  Max Reward: %s\n", utils.FormatCurrency(sel.MaxReward))
	}
	if len(sel.Breakevens) > 0 {
		parts := make([]string, 0, len(sel.Breakevens))
		for _, be := range sel.Breakevens {
			parts = append(parts, utils.FormatCurrency(be))
		}
		output.Printf("  Breakeven:  %s\n", strings.Join(parts, ", "))
	}
	output.Println()

	table := NewTable(output, "Role", "Side", "Kind", "Strike", "Expiry", "Premium", "Delta")
	for _, leg := range sel.Legs {
		table.AddRow(
			string(leg.Role),
			string(leg.Side),
			string(leg.Contract.Kind),
			fmt.Sprintf("%.2f", leg.Contract.Strike),
			leg.Contract.Expiry,
			fmt.Sprintf("%.2f", leg.Contract.Premium),
			fmt.Sprintf("%+.2f", leg.Contract.Delta),
		)
	}
	table.Render()
}

// buildStrategy constructs a strategy from flags, falling back to config
// defaults for anything the flags leave empty.
func buildStrategy(app *App, kindStr, riskStr string) (strategy.Strategy, error) {
	if kindStr == "" {
		kindStr = app.Config.Strategy.Kind
	}
	if riskStr == "" {
		riskStr = app.Config.Strategy.RiskLevel
	}
	return strategy.New(strategy.Kind(kindStr), models.RiskLevel(riskStr), configStrategyOptions(app)...)
}

// strategyForPosition rebuilds the strategy a persisted position was opened
// with. Wheel positions resume from their persisted phase.
func strategyForPosition(app *App, pos *models.Position) (strategy.Strategy, error) {
	kind := strategy.Kind(pos.Strategy)
	risk := models.RiskLevel(app.Config.Strategy.RiskLevel)
	if kind == strategy.KindWheel || kind == strategy.KindCashSecuredPut {
		return strategy.NewWheel(risk, pos.Phase, configStrategyOptions(app)...)
	}
	return strategy.New(kind, risk, configStrategyOptions(app)...)
}

func configStrategyOptions(app *App) []strategy.Option {
	return []strategy.Option{
		strategy.WithProfitTarget(app.Config.Strategy.ProfitTargetPct),
		strategy.WithStopLoss(app.Config.Strategy.StopLossPct),
		strategy.WithExpiryDays(app.Config.Strategy.TargetExpiryDays),
	}
}

func positionQuantity(maxPositionSize, price float64) int {
	if price <= 0 {
		return 1
	}
	qty := int(maxPositionSize / (price * 100))
	if qty < 1 {
		qty = 1
	}
	return qty
}
