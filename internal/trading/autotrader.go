package trading

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tradecover/internal/broker"
	"tradecover/internal/config"
	"tradecover/internal/logging"
	"tradecover/internal/models"
	"tradecover/internal/store"
	"tradecover/internal/strategy"
	"tradecover/pkg/utils"
)

// AutoTrader runs the scan loop: on each interval it evaluates every open
// position against the live price and opens a new structure on watchlist
// symbols that have none.
type AutoTrader struct {
	cfg      *config.Config
	broker   broker.Broker
	store    store.DataStore
	executor *Executor
	logger   zerolog.Logger

	now func() time.Time
	// Off-hours scanning is useful for paper trading and tests.
	ignoreMarketHours bool
}

// NewAutoTrader wires the scan loop from its collaborators.
func NewAutoTrader(cfg *config.Config, b broker.Broker, s store.DataStore, exec *Executor, logger zerolog.Logger) *AutoTrader {
	return &AutoTrader{
		cfg:               cfg,
		broker:            b,
		store:             s,
		executor:          exec,
		logger:            logger.With().Str("component", "autotrader").Logger(),
		now:               time.Now,
		ignoreMarketHours: cfg.Trading.Mode == "paper",
	}
}

// Run scans on the configured interval until the context is cancelled.
func (t *AutoTrader) Run(ctx context.Context) error {
	interval := t.cfg.Trading.ScanInterval
	if interval <= 0 {
		interval = time.Minute
	}

	t.logger.Info().
		Dur("interval", interval).
		Strs("watchlist", t.cfg.Trading.Watchlist).
		Msg("auto trader started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First pass immediately rather than waiting a full interval.
	t.ScanOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("auto trader stopped")
			return ctx.Err()
		case <-ticker.C:
			t.ScanOnce(ctx)
		}
	}
}

// ScanOnce runs a single scan over the watchlist. Per-symbol failures are
// logged and skipped; one bad symbol never stalls the loop.
func (t *AutoTrader) ScanOnce(ctx context.Context) {
	if !t.ignoreMarketHours && !utils.IsMarketOpen(t.now()) {
		t.logger.Debug().Msg("market closed, skipping scan")
		return
	}

	symbols, err := t.watchlist(ctx)
	if err != nil {
		t.logger.Error().Err(err).Msg("failed to load watchlist")
		return
	}

	for _, symbol := range symbols {
		if err := t.scanSymbol(ctx, symbol); err != nil {
			t.logger.Error().Err(err).Str("symbol", symbol).Msg("scan failed")
		}
	}
}

func (t *AutoTrader) watchlist(ctx context.Context) ([]string, error) {
	symbols, err := t.store.GetWatchlist(ctx)
	if err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		symbols = t.cfg.Trading.Watchlist
	}
	return symbols, nil
}

func (t *AutoTrader) scanSymbol(ctx context.Context, symbol string) error {
	quote, err := t.broker.GetQuote(ctx, symbol)
	if err != nil {
		return err
	}

	positions, err := t.store.GetOpenPositions(ctx, symbol)
	if err != nil {
		return err
	}

	if len(positions) == 0 {
		return t.openNewPosition(ctx, symbol, quote.Last)
	}

	for i := range positions {
		if err := t.adjustPosition(ctx, &positions[i], quote.Last); err != nil {
			t.logger.Error().Err(err).
				Str("symbol", symbol).
				Str("position_id", positions[i].ID).
				Msg("adjustment failed")
		}
	}
	return nil
}

func (t *AutoTrader) openNewPosition(ctx context.Context, symbol string, price float64) error {
	strat, err := t.configuredStrategy()
	if err != nil {
		return err
	}

	chain, err := t.broker.GetOptionChain(ctx, symbol)
	if err != nil {
		return err
	}

	sel := strat.SelectOptions(price, chain)
	if sel == nil {
		t.logger.Debug().Str("symbol", symbol).Msg("no structure cleared the floors")
		return nil
	}
	logging.LogSelection(t.logger, symbol, sel.Strategy, sel.Score, sel.NetCredit)

	quantity := t.positionQuantity(price)
	_, err = t.executor.OpenPosition(ctx, symbol, string(strat.Kind()), sel, price, quantity)
	return err
}

func (t *AutoTrader) adjustPosition(ctx context.Context, pos *models.Position, price float64) error {
	strat, err := t.strategyFor(pos)
	if err != nil {
		return err
	}

	adj := strat.AdjustPosition(pos, price)
	logging.LogAdjustment(t.logger, pos.Symbol, pos.Strategy, string(adj.Action), adj.Reason)

	decision := &store.Decision{
		ID:         uuid.New().String(),
		Timestamp:  t.now(),
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		Strategy:   pos.Strategy,
		Action:     adj.Action,
		Reason:     adj.Reason,
		Price:      price,
	}

	if adj.Action == models.ActionNone || adj.Action == models.ActionMonitor ||
		adj.Action == models.ActionMonitorPutProtection {
		return t.store.SaveDecision(ctx, decision)
	}

	chain, err := t.broker.GetOptionChain(ctx, pos.Symbol)
	if err != nil {
		return err
	}

	spec := strat.OrderParameters(adj.Action, pos, chain)
	if spec == nil {
		// Roll without a qualifying replacement: hold and retry next scan.
		return t.store.SaveDecision(ctx, decision)
	}

	trade, err := t.executor.ExecuteAdjustment(ctx, pos, spec)
	if err != nil {
		return err
	}
	decision.Executed = true
	if trade != nil {
		decision.OrderIDs = trade.OrderIDs
	}
	return t.store.SaveDecision(ctx, decision)
}

// configuredStrategy builds the strategy named in configuration.
func (t *AutoTrader) configuredStrategy() (strategy.Strategy, error) {
	return strategy.New(
		strategy.Kind(t.cfg.Strategy.Kind),
		models.RiskLevel(t.cfg.Strategy.RiskLevel),
		t.strategyOptions()...,
	)
}

// strategyFor rebuilds the strategy an open position was entered with,
// carrying the persisted wheel phase.
func (t *AutoTrader) strategyFor(pos *models.Position) (strategy.Strategy, error) {
	kind := strategy.Kind(pos.Strategy)
	risk := models.RiskLevel(t.cfg.Strategy.RiskLevel)

	if (kind == strategy.KindWheel || kind == strategy.KindCashSecuredPut) && pos.Phase != "" {
		return strategy.NewWheel(risk, pos.Phase, t.strategyOptions()...)
	}
	return strategy.New(kind, risk, t.strategyOptions()...)
}

func (t *AutoTrader) strategyOptions() []strategy.Option {
	return []strategy.Option{
		strategy.WithProfitTarget(t.cfg.Strategy.ProfitTargetPct),
		strategy.WithStopLoss(t.cfg.Strategy.StopLossPct),
		strategy.WithExpiryDays(t.cfg.Strategy.TargetExpiryDays),
		strategy.WithClock(t.now),
	}
}

// positionQuantity sizes a position by the configured cap, one contract
// minimum, against the 100-share multiplier.
func (t *AutoTrader) positionQuantity(price float64) int {
	if t.cfg.Trading.MaxPositionSize <= 0 || price <= 0 {
		return 1
	}
	qty := int(t.cfg.Trading.MaxPositionSize / (price * 100))
	if qty < 1 {
		qty = 1
	}
	return qty
}
