package broker

import (
	"context"
	"testing"

	"tradecover/internal/errors"
	"tradecover/internal/models"
)

func TestSimBrokerQuoteIsDeterministic(t *testing.T) {
	b := NewSimBroker(100000)
	ctx := context.Background()

	first, err := b.GetQuote(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	second, err := b.GetQuote(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if first.Last != second.Last {
		t.Errorf("quotes differ across calls: %.2f vs %.2f", first.Last, second.Last)
	}
	if first.Last <= 0 {
		t.Errorf("last price = %.2f, want positive", first.Last)
	}
	if !(first.Bid < first.Last && first.Last < first.Ask) {
		t.Errorf("quote not ordered: bid %.4f last %.4f ask %.4f", first.Bid, first.Last, first.Ask)
	}
}

func TestSimBrokerQuoteRejectsEmptySymbol(t *testing.T) {
	b := NewSimBroker(100000)
	if _, err := b.GetQuote(context.Background(), ""); !errors.Is(err, errors.ErrSymbolNotFound) {
		t.Errorf("error = %v, want ErrSymbolNotFound", err)
	}
}

func TestSimBrokerChainShape(t *testing.T) {
	b := NewSimBroker(100000)
	ctx := context.Background()

	chain, err := b.GetOptionChain(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetOptionChain: %v", err)
	}

	wantPerSide := len(simExpiryOffsets) * (2*simStrikeSteps + 1)
	if len(chain.Calls) != wantPerSide {
		t.Errorf("calls = %d, want %d", len(chain.Calls), wantPerSide)
	}
	if len(chain.Puts) != wantPerSide {
		t.Errorf("puts = %d, want %d", len(chain.Puts), wantPerSide)
	}

	for _, oc := range chain.Calls {
		if oc.Premium < 0.01 {
			t.Fatalf("call %.2f @ %s premium = %.4f, want >= 0.01", oc.Strike, oc.Expiry, oc.Premium)
		}
		if oc.Bid > oc.Ask {
			t.Fatalf("call %.2f @ %s bid %.2f above ask %.2f", oc.Strike, oc.Expiry, oc.Bid, oc.Ask)
		}
		if oc.Delta < 0 || oc.Delta > 1 {
			t.Fatalf("call delta = %.2f, want within [0, 1]", oc.Delta)
		}
	}
	for _, oc := range chain.Puts {
		if oc.Delta < -1 || oc.Delta > 0 {
			t.Fatalf("put delta = %.2f, want within [-1, 0]", oc.Delta)
		}
	}
}

func TestSimBrokerChainStrikesLadderAroundSpot(t *testing.T) {
	b := NewSimBroker(100000)
	ctx := context.Background()

	quote, err := b.GetQuote(ctx, "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	chain, err := b.GetOptionChain(ctx, "AAPL")
	if err != nil {
		t.Fatal(err)
	}

	lo := quote.Last * (1 - float64(simStrikeSteps)*simStrikeStepPct)
	hi := quote.Last * (1 + float64(simStrikeSteps)*simStrikeStepPct)
	for _, oc := range chain.Calls {
		if oc.Strike < lo-0.01 || oc.Strike > hi+0.01 {
			t.Fatalf("strike %.2f outside ladder [%.2f, %.2f]", oc.Strike, lo, hi)
		}
	}
}

func TestSimBrokerPlaceOrderAdjustsBalance(t *testing.T) {
	b := NewSimBroker(100000)
	ctx := context.Background()

	sell := &models.BrokerOrder{
		Symbol:   "AAPL",
		Side:     models.OrderSideSell,
		Type:     models.OrderTypeMarket,
		Quantity: 1,
		Price:    2.50,
	}
	result, err := b.PlaceOrder(ctx, sell)
	if err != nil {
		t.Fatalf("PlaceOrder sell: %v", err)
	}
	if result.Status != OrderStatusFilled {
		t.Errorf("status = %s, want FILLED", result.Status)
	}
	if result.AvgFill != 2.50 {
		t.Errorf("avg fill = %.2f, want 2.50", result.AvgFill)
	}

	bal, err := b.GetBalance(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if bal.AvailableCash != 100000+250 {
		t.Errorf("cash after sell = %.2f, want 100250.00", bal.AvailableCash)
	}

	buy := &models.BrokerOrder{
		Symbol:   "AAPL",
		Side:     models.OrderSideBuy,
		Type:     models.OrderTypeMarket,
		Quantity: 2,
		Price:    1.25,
	}
	if _, err := b.PlaceOrder(ctx, buy); err != nil {
		t.Fatalf("PlaceOrder buy: %v", err)
	}
	bal, _ = b.GetBalance(ctx)
	if bal.AvailableCash != 100250-250 {
		t.Errorf("cash after buy = %.2f, want 100000.00", bal.AvailableCash)
	}
}

func TestSimBrokerRejectsOverdraft(t *testing.T) {
	b := NewSimBroker(100)
	ctx := context.Background()

	buy := &models.BrokerOrder{
		Symbol:   "AAPL",
		Side:     models.OrderSideBuy,
		Quantity: 1,
		Price:    5.00,
	}
	if _, err := b.PlaceOrder(ctx, buy); !errors.Is(err, errors.ErrInsufficientFunds) {
		t.Errorf("error = %v, want ErrInsufficientFunds", err)
	}

	orders, _ := b.GetOrders(ctx)
	if len(orders) != 0 {
		t.Errorf("rejected order was recorded: %d orders", len(orders))
	}
}

func TestSimBrokerRejectsInvalidOrders(t *testing.T) {
	b := NewSimBroker(100000)
	ctx := context.Background()

	for _, order := range []*models.BrokerOrder{
		nil,
		{Side: models.OrderSideBuy, Quantity: 1, Price: 1},
		{Symbol: "AAPL", Side: models.OrderSideBuy, Quantity: 0, Price: 1},
	} {
		if _, err := b.PlaceOrder(ctx, order); !errors.Is(err, errors.ErrInvalidOrder) {
			t.Errorf("PlaceOrder(%+v) error = %v, want ErrInvalidOrder", order, err)
		}
	}
}

func TestSimBrokerGetOrdersReturnsCopy(t *testing.T) {
	b := NewSimBroker(100000)
	ctx := context.Background()

	order := &models.BrokerOrder{
		Symbol:   "AAPL",
		Side:     models.OrderSideSell,
		Quantity: 1,
		Price:    1.00,
	}
	if _, err := b.PlaceOrder(ctx, order); err != nil {
		t.Fatal(err)
	}

	first, _ := b.GetOrders(ctx)
	if len(first) != 1 {
		t.Fatalf("orders = %d, want 1", len(first))
	}
	first[0].Symbol = "MUTATED"

	second, _ := b.GetOrders(ctx)
	if second[0].Symbol != "AAPL" {
		t.Errorf("internal order state mutated through the returned slice")
	}
	if second[0].ID == "" {
		t.Errorf("filled order has no ID")
	}
}

func TestSimBrokerDefaultsBalance(t *testing.T) {
	b := NewSimBroker(0)
	bal, err := b.GetBalance(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if bal.AvailableCash != 100000 {
		t.Errorf("default cash = %.2f, want 100000", bal.AvailableCash)
	}
}
