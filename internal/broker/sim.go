package broker

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"tradecover/internal/errors"
	"tradecover/internal/models"
)

// Chain synthesis parameters. Strikes ladder out 2.5% per step around the
// spot; implied vol carries a smile and a term-structure factor.
const (
	simStrikeStepPct  = 0.025
	simStrikeSteps    = 10
	simBaseVol        = 0.30
	simSpreadFraction = 0.05
)

// simExpiryOffsets are the days-to-expiry rungs of the synthetic chain:
// four weeklies plus three longer-dated cycles.
var simExpiryOffsets = []int{7, 14, 21, 28, 45, 60, 90}

// SimBroker is a deterministic in-memory broker. Prices derive from the
// symbol itself so the same symbol always quotes in the same range, and
// the synthetic chain prices off a simplified vol model. All orders fill
// immediately at the requested price.
type SimBroker struct {
	balance models.Balance
	orders  []models.BrokerOrder
	now     func() time.Time

	mu sync.RWMutex
}

// NewSimBroker creates a simulation broker with the given starting cash.
func NewSimBroker(initialBalance float64) *SimBroker {
	if initialBalance <= 0 {
		initialBalance = 100000
	}
	return &SimBroker{
		balance: models.Balance{AvailableCash: initialBalance, TotalEquity: initialBalance},
		now:     time.Now,
	}
}

// basePrice maps a symbol to a stable price band. Hashing keeps the price
// consistent across runs without any stored state.
func basePrice(symbol string) float64 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	sum := h.Sum32()

	switch {
	case sum%5 == 0:
		return 1000 + float64(sum%2000)
	case sum%3 == 0:
		return 300 + float64(sum%500)
	case sum%2 == 0:
		return 100 + float64(sum%150)
	default:
		return 20 + float64(sum%60)
	}
}

// GetQuote returns the synthetic quote for a symbol.
func (b *SimBroker) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if symbol == "" {
		return nil, errors.Wrap(errors.ErrSymbolNotFound, "empty symbol")
	}
	price := basePrice(symbol)
	spread := price * 0.001
	return &models.Quote{
		Symbol:    symbol,
		Last:      price,
		Bid:       price - spread,
		Ask:       price + spread,
		Timestamp: b.now(),
	}, nil
}

// GetOptionChain synthesizes a full chain around the symbol's spot price.
func (b *SimBroker) GetOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error) {
	quote, err := b.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	price := quote.Last

	chain := &models.OptionChain{Symbol: symbol}
	now := b.now()

	for _, dte := range simExpiryOffsets {
		expiry := now.AddDate(0, 0, dte).Format("2006-01-02")
		t := float64(dte) / 365

		// Short-dated options trade at richer implied vol.
		volFactor := 0.9
		if dte < 30 {
			volFactor = 1.2
		} else if dte < 90 {
			volFactor = 1.0
		}

		for i := -simStrikeSteps; i <= simStrikeSteps; i++ {
			strike := math.Round(price*(1+float64(i)*simStrikeStepPct)*100) / 100
			distPct := (strike - price) / price
			iv := simBaseVol * volFactor * (1 + math.Abs(distPct)*0.5)
			extrinsic := price * iv * math.Sqrt(t) * 0.4

			callDelta := math.Max(0, math.Min(1, 0.5-distPct*5))
			callTheo := math.Max(0, price-strike) + extrinsic
			chain.Calls = append(chain.Calls, b.contract(symbol, strike, expiry, models.Call, callTheo, callDelta, iv, dte))

			putDelta := math.Min(0, math.Max(-1, -0.5-distPct*5))
			putTheo := math.Max(0, strike-price) + extrinsic
			chain.Puts = append(chain.Puts, b.contract(symbol, strike, expiry, models.Put, putTheo, putDelta, iv, dte))
		}
	}
	return chain, nil
}

func (b *SimBroker) contract(symbol string, strike float64, expiry string, kind models.OptionKind, theo, delta, iv float64, dte int) models.OptionContract {
	spread := theo * simSpreadFraction
	bid := math.Max(0.01, theo-spread/2)
	ask := math.Max(0.01, theo+spread/2)
	mid := math.Round((bid+ask)/2*100) / 100
	return models.OptionContract{
		Symbol:       symbol,
		Strike:       strike,
		Premium:      mid,
		Bid:          math.Round(bid*100) / 100,
		Ask:          math.Round(ask*100) / 100,
		Expiry:       expiry,
		Kind:         kind,
		Delta:        math.Round(delta*100) / 100,
		Theta:        -theo * 0.01,
		IV:           math.Round(iv*100) / 100,
		DaysToExpiry: dte,
	}
}

// PlaceOrder fills the order immediately at its stated price and adjusts
// the cash balance by the premium flow.
func (b *SimBroker) PlaceOrder(ctx context.Context, order *models.BrokerOrder) (*OrderResult, error) {
	if order == nil || order.Symbol == "" || order.Quantity <= 0 {
		return nil, errors.Wrap(errors.ErrInvalidOrder, "missing symbol or quantity")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// 100-share contract multiplier.
	flow := order.Price * float64(order.Quantity) * 100
	if order.Side == models.OrderSideBuy {
		if flow > b.balance.AvailableCash {
			return nil, errors.Wrapf(errors.ErrInsufficientFunds,
				"need %.2f, have %.2f", flow, b.balance.AvailableCash)
		}
		b.balance.AvailableCash -= flow
	} else {
		b.balance.AvailableCash += flow
	}

	filled := *order
	filled.ID = uuid.New().String()
	filled.Status = OrderStatusFilled
	filled.PlacedAt = b.now()
	b.orders = append(b.orders, filled)

	return &OrderResult{OrderID: filled.ID, Status: OrderStatusFilled, AvgFill: order.Price}, nil
}

// GetOrders returns all orders placed this session.
func (b *SimBroker) GetOrders(ctx context.Context) ([]models.BrokerOrder, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.BrokerOrder, len(b.orders))
	copy(out, b.orders)
	return out, nil
}

// GetBalance returns the simulated account balance.
func (b *SimBroker) GetBalance(ctx context.Context) (*models.Balance, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bal := b.balance
	return &bal, nil
}

// Close is a no-op for the simulation broker.
func (b *SimBroker) Close() error { return nil }
