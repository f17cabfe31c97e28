// Package trading provides trade execution and orchestration on top of
// the strategy engine.
package trading

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tradecover/internal/broker"
	"tradecover/internal/errors"
	"tradecover/internal/logging"
	"tradecover/internal/models"
	"tradecover/internal/store"
	"tradecover/pkg/utils"
)

// Executor turns selected structures and order specs into broker orders
// and persists the resulting positions and trades. Option symbols are
// formatted here, at the execution boundary; the engine upstream only
// deals in structured leg references.
type Executor struct {
	broker  broker.Broker
	store   store.DataStore
	logger  zerolog.Logger
	isPaper bool
	retry   utils.RetryConfig
}

// NewExecutor creates a trade executor.
func NewExecutor(b broker.Broker, s store.DataStore, logger zerolog.Logger, isPaper bool) *Executor {
	return &Executor{
		broker:  b,
		store:   s,
		logger:  logger.With().Str("component", "executor").Logger(),
		isPaper: isPaper,
		retry:   utils.DefaultRetryConfig(),
	}
}

// OpenPosition places the opening orders for a selected structure and
// persists the new position.
func (e *Executor) OpenPosition(ctx context.Context, symbol string, strategyKind string, sel *models.SelectedStructure, price float64, quantity int) (*models.Position, error) {
	if sel == nil || len(sel.Legs) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidOrder, "no structure to open")
	}
	if quantity <= 0 {
		quantity = 1
	}

	var orderIDs []string
	for _, leg := range sel.Legs {
		result, err := e.placeLeg(ctx, symbol, leg.Contract.Strike, leg.Contract.Expiry,
			leg.Contract.Kind, leg.Side, quantity, leg.Contract.Premium)
		if err != nil {
			return nil, err
		}
		orderIDs = append(orderIDs, result.OrderID)
	}

	pos := PositionFromStructure(symbol, strategyKind, sel, price, quantity)
	if err := e.store.SavePosition(ctx, pos); err != nil {
		return nil, err
	}

	netPremium := sel.NetCredit - sel.NetDebit
	trade := &models.Trade{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Symbol:    symbol,
		Strategy:  strategyKind,
		Action:    "OPEN_" + models.Action(strategyKind),
		Quantity:  quantity,
		OrderType: models.OrderTypeMarket,
		Price:     netPremium,
		IsPaper:   e.isPaper,
		OrderIDs:  orderIDs,
	}
	if err := e.store.LogTrade(ctx, trade); err != nil {
		return nil, err
	}

	logging.LogTrade(e.logger, symbol, string(trade.Action), quantity, netPremium)
	return pos, nil
}

// ExecuteAdjustment carries out an order spec produced by a strategy's
// OrderParameters: closes and opens the legs it names, records the trade,
// and updates the stored position.
func (e *Executor) ExecuteAdjustment(ctx context.Context, pos *models.Position, spec *models.OrderSpec) (*models.Trade, error) {
	if pos == nil || spec == nil {
		return nil, errors.Wrap(errors.ErrInvalidOrder, "nil position or order spec")
	}

	// Informational specs place no orders; they may flip the wheel phase.
	if spec.OrderType == models.OrderTypeInfoOnly {
		if spec.NextPhase != "" {
			if err := e.store.UpdateWheelPhase(ctx, pos.ID, spec.NextPhase); err != nil {
				return nil, err
			}
			e.logger.Info().
				Str("symbol", pos.Symbol).
				Str("position_id", pos.ID).
				Str("phase", string(spec.NextPhase)).
				Msg("wheel phase updated")
		}
		return nil, nil
	}

	chain, err := e.broker.GetOptionChain(ctx, pos.Symbol)
	if err != nil {
		return nil, err
	}

	var orderIDs []string
	var netFlow float64

	for _, leg := range spec.CloseLegs {
		premium := legPremium(chain, leg)
		result, err := e.placeLeg(ctx, leg.Symbol, leg.Strike, leg.Expiry, leg.Kind, leg.Side, spec.Quantity, premium)
		if err != nil {
			return nil, err
		}
		orderIDs = append(orderIDs, result.OrderID)
		if leg.Side == models.OrderSideBuy {
			netFlow -= premium
		} else {
			netFlow += premium
		}
	}
	for _, leg := range spec.OpenLegs {
		premium := legPremium(chain, leg)
		result, err := e.placeLeg(ctx, leg.Symbol, leg.Strike, leg.Expiry, leg.Kind, leg.Side, spec.Quantity, premium)
		if err != nil {
			return nil, err
		}
		orderIDs = append(orderIDs, result.OrderID)
		if leg.Side == models.OrderSideBuy {
			netFlow -= premium
		} else {
			netFlow += premium
		}
	}

	trade := &models.Trade{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Symbol:    pos.Symbol,
		Strategy:  pos.Strategy,
		Action:    spec.Action,
		Quantity:  spec.Quantity,
		OrderType: spec.OrderType,
		Price:     netFlow,
		IsPaper:   e.isPaper,
		OrderIDs:  orderIDs,
	}
	if err := e.store.LogTrade(ctx, trade); err != nil {
		return nil, err
	}

	if isCloseAction(spec.Action) {
		if err := e.store.ClosePosition(ctx, pos.ID); err != nil {
			return nil, err
		}
	} else if len(spec.OpenLegs) > 0 {
		applyRoll(pos, spec)
		if err := e.store.SavePosition(ctx, pos); err != nil {
			return nil, err
		}
	}

	logging.LogTrade(e.logger, pos.Symbol, string(spec.Action), spec.Quantity, netFlow)
	return trade, nil
}

// placeLeg formats and submits a single option order, retrying transient
// failures.
func (e *Executor) placeLeg(ctx context.Context, symbol string, strike float64, expiry string, kind models.OptionKind, side models.OrderSide, quantity int, premium float64) (*broker.OrderResult, error) {
	order := &models.BrokerOrder{
		Symbol:       symbol,
		OptionSymbol: utils.FormatOptionSymbol(symbol, kind, strike, expiry),
		Side:         side,
		Type:         models.OrderTypeMarket,
		Quantity:     quantity,
		Price:        premium,
	}

	result, err := utils.RetryWithResult(ctx, e.retry, func() (*broker.OrderResult, error) {
		return e.broker.PlaceOrder(ctx, order)
	})
	if err != nil {
		return nil, errors.NewOrderError("", symbol, string(side), "order placement failed", err)
	}

	logging.LogOrder(e.logger, result.OrderID, order.OptionSymbol, string(side), result.Status)
	return result, nil
}

// legPremium looks up a leg's current premium on the chain. Legs no
// longer quoted (for example a same-day expiry being closed) fall back
// to zero and fill as worthless.
func legPremium(chain *models.OptionChain, leg models.LegRef) float64 {
	if chain == nil {
		return 0
	}
	contracts := chain.Calls
	if leg.Kind == models.Put {
		contracts = chain.Puts
	}
	for _, oc := range contracts {
		if oc.Strike == leg.Strike && oc.Expiry == leg.Expiry {
			return oc.Premium
		}
	}
	return 0
}

// isCloseAction reports whether an action terminates the position.
func isCloseAction(action models.Action) bool {
	switch action {
	case models.ActionBuyToClose, models.ActionBuyToClosePut, models.ActionBuyToCloseCall,
		models.ActionCloseCollar, models.ActionCloseSpread, models.ActionCloseCondor,
		models.ActionCloseButterfly, models.ActionCloseCalendar, models.ActionCloseDiagonal:
		return true
	}
	return false
}

// applyRoll rewrites the position's leg fields from the replacement legs
// of a roll spec.
func applyRoll(pos *models.Position, spec *models.OrderSpec) {
	switch spec.Action {
	case models.ActionRollOut, models.ActionRollUpAndOut, models.ActionRollCall:
		leg := spec.OpenLegs[0]
		pos.CallStrike = leg.Strike
		pos.CallExpiry = leg.Expiry

	case models.ActionRollPut:
		leg := spec.OpenLegs[0]
		pos.PutStrike = leg.Strike
		pos.PutExpiry = leg.Expiry

	case models.ActionRollSpread, models.ActionAdjustPutSide:
		pos.ShortStrike = spec.OpenLegs[0].Strike
		pos.LongStrike = spec.OpenLegs[1].Strike
		pos.ExpiryDate = spec.OpenLegs[0].Expiry
		pos.ShortPutStrike = spec.OpenLegs[0].Strike
		pos.LongPutStrike = spec.OpenLegs[1].Strike

	case models.ActionAdjustCallSide:
		pos.ShortCallStrike = spec.OpenLegs[0].Strike
		pos.LongCallStrike = spec.OpenLegs[1].Strike

	case models.ActionRollCollarUp:
		pos.CallStrike = spec.OpenLegs[0].Strike
		pos.CallExpiry = spec.OpenLegs[0].Expiry

	case models.ActionRollCollarOut:
		for _, leg := range spec.OpenLegs {
			if leg.Kind == models.Put {
				pos.PutStrike = leg.Strike
				pos.PutExpiry = leg.Expiry
			} else {
				pos.CallStrike = leg.Strike
				pos.CallExpiry = leg.Expiry
			}
		}

	case models.ActionRecenterButterfly:
		for _, leg := range spec.OpenLegs {
			if leg.Kind == models.Put {
				if leg.Side == models.OrderSideSell {
					pos.ShortPutStrike = leg.Strike
				} else {
					pos.LongPutStrike = leg.Strike
				}
			} else {
				if leg.Side == models.OrderSideSell {
					pos.ShortCallStrike = leg.Strike
				} else {
					pos.LongCallStrike = leg.Strike
				}
			}
			pos.ExpiryDate = leg.Expiry
		}

	case models.ActionRollCalendarShort, models.ActionRollDiagonalShort:
		leg := spec.OpenLegs[0]
		pos.NearStrike = leg.Strike
		pos.NearExpiry = leg.Expiry
	}
}
