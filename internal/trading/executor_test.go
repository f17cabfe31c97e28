package trading

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tradecover/internal/broker"
	"tradecover/internal/models"
	"tradecover/internal/store"
	"tradecover/internal/strategy"
)

func newTestExecutor(t *testing.T, dbPath string) (*Executor, store.DataStore, *broker.SimBroker) {
	t.Helper()
	db, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
		os.Remove(dbPath + "-wal")
		os.Remove(dbPath + "-shm")
	})
	b := broker.NewSimBroker(1000000)
	return NewExecutor(b, db, zerolog.Nop(), true), db, b
}

func TestExecutorOpenPosition(t *testing.T) {
	exec, db, b := newTestExecutor(t, "test_executor_open.db")
	ctx := context.Background()

	sel := &models.SelectedStructure{
		Strategy: string(strategy.KindCoveredCall),
		Legs: []models.StructureLeg{{
			Role: models.RoleShortCall,
			Side: models.OrderSideSell,
			Contract: models.OptionContract{
				Symbol: "AAPL", Strike: 190, Premium: 2.50,
				Kind: models.Call, Expiry: "2026-03-20",
			},
		}},
		NetCredit: 2.50,
	}

	pos, err := exec.OpenPosition(ctx, "AAPL", string(strategy.KindCoveredCall), sel, 185, 1)
	if err != nil {
		t.Fatalf("OpenPosition: %v", err)
	}
	if pos.ID == "" {
		t.Fatal("opened position has no id")
	}

	saved, err := db.GetPosition(ctx, pos.ID)
	if err != nil {
		t.Fatalf("position not persisted: %v", err)
	}
	if saved.CallStrike != 190 {
		t.Errorf("saved call strike = %.0f, want 190", saved.CallStrike)
	}

	trades, err := db.GetTrades(ctx, store.TradeFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(trades))
	}
	if trades[0].Action != "OPEN_covered_call" {
		t.Errorf("trade action = %s, want OPEN_covered_call", trades[0].Action)
	}
	if !trades[0].IsPaper {
		t.Error("paper executor logged a live trade")
	}

	orders, _ := b.GetOrders(ctx)
	if len(orders) != 1 {
		t.Errorf("broker orders = %d, want 1", len(orders))
	}
	if len(orders) > 0 && orders[0].Side != models.OrderSideSell {
		t.Errorf("order side = %s, want SELL", orders[0].Side)
	}
}

func TestExecutorOpenPositionRejectsEmptyStructure(t *testing.T) {
	exec, _, _ := newTestExecutor(t, "test_executor_empty.db")
	ctx := context.Background()

	if _, err := exec.OpenPosition(ctx, "AAPL", "covered_call", nil, 185, 1); err == nil {
		t.Error("OpenPosition accepted a nil structure")
	}
	if _, err := exec.OpenPosition(ctx, "AAPL", "covered_call", &models.SelectedStructure{}, 185, 1); err == nil {
		t.Error("OpenPosition accepted a structure without legs")
	}
}

func TestExecutorInfoOnlyFlipsWheelPhase(t *testing.T) {
	exec, db, b := newTestExecutor(t, "test_executor_phase.db")
	ctx := context.Background()

	pos := &models.Position{
		ID:       "w-1",
		Symbol:   "AAPL",
		Strategy: string(strategy.KindWheel),
		Quantity: 1,
		OpenedAt: time.Now(),
		PutStrike: 180, PutPremium: 1.80, PutExpiry: "2026-03-20",
		Phase: models.PhasePutSelling,
	}
	if err := db.SavePosition(ctx, pos); err != nil {
		t.Fatal(err)
	}

	spec := &models.OrderSpec{
		Action:    models.ActionPrepareForAssignment,
		Symbol:    "AAPL",
		OrderType: models.OrderTypeInfoOnly,
		NextPhase: models.PhaseCallSelling,
	}
	trade, err := exec.ExecuteAdjustment(ctx, pos, spec)
	if err != nil {
		t.Fatalf("ExecuteAdjustment: %v", err)
	}
	if trade != nil {
		t.Errorf("informational spec produced a trade: %+v", trade)
	}

	saved, err := db.GetPosition(ctx, "w-1")
	if err != nil {
		t.Fatal(err)
	}
	if saved.Phase != models.PhaseCallSelling {
		t.Errorf("phase = %s, want CALL_SELLING", saved.Phase)
	}

	orders, _ := b.GetOrders(ctx)
	if len(orders) != 0 {
		t.Errorf("informational spec placed %d orders", len(orders))
	}
}

func TestExecutorCloseActionClosesPosition(t *testing.T) {
	exec, db, _ := newTestExecutor(t, "test_executor_close.db")
	ctx := context.Background()

	pos := &models.Position{
		ID:       "cc-1",
		Symbol:   "AAPL",
		Strategy: string(strategy.KindCoveredCall),
		Quantity: 1,
		OpenedAt: time.Now(),
		CallStrike: 190, CallPremium: 2.50, CallExpiry: "2026-03-20",
	}
	if err := db.SavePosition(ctx, pos); err != nil {
		t.Fatal(err)
	}

	spec := &models.OrderSpec{
		Action:    models.ActionBuyToClose,
		Symbol:    "AAPL",
		Quantity:  1,
		OrderType: models.OrderTypeMarket,
		CloseLegs: []models.LegRef{
			{Symbol: "AAPL", Strike: 190, Expiry: "2026-03-20", Kind: models.Call, Side: models.OrderSideBuy},
		},
	}
	trade, err := exec.ExecuteAdjustment(ctx, pos, spec)
	if err != nil {
		t.Fatalf("ExecuteAdjustment: %v", err)
	}
	if trade == nil || trade.Action != models.ActionBuyToClose {
		t.Fatalf("trade = %+v, want BUY_TO_CLOSE", trade)
	}

	open, err := db.GetOpenPositions(ctx, "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 0 {
		t.Errorf("open positions after close = %d, want 0", len(open))
	}
}

func TestExecutorRollRewritesPosition(t *testing.T) {
	exec, db, b := newTestExecutor(t, "test_executor_roll.db")
	ctx := context.Background()

	pos := &models.Position{
		ID:       "cc-2",
		Symbol:   "AAPL",
		Strategy: string(strategy.KindCoveredCall),
		Quantity: 1,
		OpenedAt: time.Now(),
		CallStrike: 190, CallPremium: 2.50, CallExpiry: "2026-03-06",
	}
	if err := db.SavePosition(ctx, pos); err != nil {
		t.Fatal(err)
	}

	spec := &models.OrderSpec{
		Action:    models.ActionRollOut,
		Symbol:    "AAPL",
		Quantity:  1,
		OrderType: models.OrderTypeNetCredit,
		CloseLegs: []models.LegRef{
			{Symbol: "AAPL", Strike: 190, Expiry: "2026-03-06", Kind: models.Call, Side: models.OrderSideBuy},
		},
		OpenLegs: []models.LegRef{
			{Symbol: "AAPL", Strike: 190, Expiry: "2026-04-03", Kind: models.Call, Side: models.OrderSideSell},
		},
	}
	trade, err := exec.ExecuteAdjustment(ctx, pos, spec)
	if err != nil {
		t.Fatalf("ExecuteAdjustment: %v", err)
	}
	if trade == nil {
		t.Fatal("roll produced no trade")
	}

	saved, err := db.GetPosition(ctx, "cc-2")
	if err != nil {
		t.Fatal(err)
	}
	if saved.CallExpiry != "2026-04-03" {
		t.Errorf("call expiry after roll = %s, want 2026-04-03", saved.CallExpiry)
	}

	open, _ := db.GetOpenPositions(ctx, "AAPL")
	if len(open) != 1 {
		t.Errorf("open positions after roll = %d, want 1", len(open))
	}

	orders, _ := b.GetOrders(ctx)
	if len(orders) != 2 {
		t.Errorf("broker orders = %d, want one close and one open", len(orders))
	}
}

func TestExecutorRejectsNilInputs(t *testing.T) {
	exec, _, _ := newTestExecutor(t, "test_executor_nil.db")
	ctx := context.Background()

	if _, err := exec.ExecuteAdjustment(ctx, nil, &models.OrderSpec{}); err == nil {
		t.Error("ExecuteAdjustment accepted a nil position")
	}
	if _, err := exec.ExecuteAdjustment(ctx, &models.Position{ID: "x"}, nil); err == nil {
		t.Error("ExecuteAdjustment accepted a nil spec")
	}
}
