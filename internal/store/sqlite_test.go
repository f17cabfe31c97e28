package store

import (
	"context"
	"os"
	"testing"
	"time"

	"tradecover/internal/errors"
	"tradecover/internal/models"
)

func newTestStore(t *testing.T, dbPath string) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
		os.Remove(dbPath)
		os.Remove(dbPath + "-wal")
		os.Remove(dbPath + "-shm")
	})
	return store
}

func TestSQLitePositionRoundTrip(t *testing.T) {
	store := newTestStore(t, "test_position_roundtrip.db")
	ctx := context.Background()

	pos := &models.Position{
		ID:         "pos-1",
		Symbol:     "AAPL",
		Strategy:   "iron_condor",
		Quantity:   2,
		EntryPrice: 185.50,
		OpenedAt:   time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),

		ShortPutStrike:  175,
		LongPutStrike:   170,
		ShortCallStrike: 195,
		LongCallStrike:  200,
		TotalCredit:     2.40,
		MaxRisk:         2.60,
		ExpiryDate:      "2026-03-20",
	}
	if err := store.SavePosition(ctx, pos); err != nil {
		t.Fatalf("SavePosition: %v", err)
	}

	got, err := store.GetPosition(ctx, "pos-1")
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if got.Symbol != "AAPL" || got.Strategy != "iron_condor" || got.Quantity != 2 {
		t.Errorf("header = %s/%s/%d, want AAPL/iron_condor/2", got.Symbol, got.Strategy, got.Quantity)
	}
	if got.ShortPutStrike != 175 || got.LongPutStrike != 170 ||
		got.ShortCallStrike != 195 || got.LongCallStrike != 200 {
		t.Errorf("strikes = %.0f/%.0f/%.0f/%.0f, want 175/170/195/200",
			got.ShortPutStrike, got.LongPutStrike, got.ShortCallStrike, got.LongCallStrike)
	}
	if got.TotalCredit != 2.40 || got.MaxRisk != 2.60 {
		t.Errorf("credit/risk = %.2f/%.2f, want 2.40/2.60", got.TotalCredit, got.MaxRisk)
	}
	if got.ExpiryDate != "2026-03-20" {
		t.Errorf("expiry = %q, want 2026-03-20", got.ExpiryDate)
	}
}

func TestSQLitePositionNotFound(t *testing.T) {
	store := newTestStore(t, "test_position_missing.db")

	if _, err := store.GetPosition(context.Background(), "nope"); !errors.Is(err, errors.ErrPositionNotFound) {
		t.Errorf("error = %v, want ErrPositionNotFound", err)
	}
}

func TestSQLiteSaveRejectsMissingID(t *testing.T) {
	store := newTestStore(t, "test_save_validation.db")
	ctx := context.Background()

	if err := store.SavePosition(ctx, &models.Position{Symbol: "AAPL"}); err == nil {
		t.Error("SavePosition accepted a position without an id")
	}
	if err := store.LogTrade(ctx, &models.Trade{Symbol: "AAPL"}); err == nil {
		t.Error("LogTrade accepted a trade without an id")
	}
	if err := store.SaveDecision(ctx, &Decision{Symbol: "AAPL"}); err == nil {
		t.Error("SaveDecision accepted a decision without an id")
	}
}

func TestSQLiteOpenPositionsAndClose(t *testing.T) {
	store := newTestStore(t, "test_open_positions.db")
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for i, p := range []*models.Position{
		{ID: "a-1", Symbol: "AAPL", Strategy: "covered_call", Quantity: 1},
		{ID: "a-2", Symbol: "AAPL", Strategy: "collar", Quantity: 1},
		{ID: "m-1", Symbol: "MSFT", Strategy: "wheel", Quantity: 1},
	} {
		p.OpenedAt = base.Add(time.Duration(i) * time.Hour)
		if err := store.SavePosition(ctx, p); err != nil {
			t.Fatalf("SavePosition(%s): %v", p.ID, err)
		}
	}

	all, err := store.GetOpenPositions(ctx, "")
	if err != nil {
		t.Fatalf("GetOpenPositions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("open positions = %d, want 3", len(all))
	}
	if all[0].ID != "a-1" {
		t.Errorf("first open position = %s, want oldest a-1", all[0].ID)
	}

	aapl, err := store.GetOpenPositions(ctx, "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if len(aapl) != 2 {
		t.Errorf("AAPL positions = %d, want 2", len(aapl))
	}

	if err := store.ClosePosition(ctx, "a-1"); err != nil {
		t.Fatalf("ClosePosition: %v", err)
	}
	remaining, _ := store.GetOpenPositions(ctx, "")
	if len(remaining) != 2 {
		t.Errorf("open positions after close = %d, want 2", len(remaining))
	}

	// Closing twice finds no open row.
	if err := store.ClosePosition(ctx, "a-1"); !errors.Is(err, errors.ErrPositionNotFound) {
		t.Errorf("second close error = %v, want ErrPositionNotFound", err)
	}

	// The closed position stays readable by id.
	if _, err := store.GetPosition(ctx, "a-1"); err != nil {
		t.Errorf("GetPosition after close: %v", err)
	}
}

func TestSQLiteUpdateWheelPhase(t *testing.T) {
	store := newTestStore(t, "test_wheel_phase.db")
	ctx := context.Background()

	pos := &models.Position{
		ID:       "w-1",
		Symbol:   "AAPL",
		Strategy: "wheel",
		Quantity: 1,
		OpenedAt: time.Now().UTC(),
		Phase:    models.PhasePutSelling,
	}
	if err := store.SavePosition(ctx, pos); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateWheelPhase(ctx, "w-1", models.PhaseCallSelling); err != nil {
		t.Fatalf("UpdateWheelPhase: %v", err)
	}
	got, err := store.GetPosition(ctx, "w-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Phase != models.PhaseCallSelling {
		t.Errorf("phase = %s, want CALL_SELLING", got.Phase)
	}

	if err := store.UpdateWheelPhase(ctx, "missing", models.PhasePutSelling); !errors.Is(err, errors.ErrPositionNotFound) {
		t.Errorf("error = %v, want ErrPositionNotFound", err)
	}
}

func TestSQLiteTradeFilters(t *testing.T) {
	store := newTestStore(t, "test_trades.db")
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	trades := []*models.Trade{
		{ID: "t-1", Timestamp: base, Symbol: "AAPL", Strategy: "covered_call",
			Action: models.Action("OPEN_covered_call"), Quantity: 1, OrderType: models.OrderTypeMarket,
			Price: 2.50, IsPaper: true, OrderIDs: []string{"o-1"}},
		{ID: "t-2", Timestamp: base.Add(time.Hour), Symbol: "MSFT", Strategy: "wheel",
			Action: models.Action("OPEN_wheel"), Quantity: 1, OrderType: models.OrderTypeMarket,
			Price: 1.80, IsPaper: true, OrderIDs: []string{"o-2", "o-3"}},
		{ID: "t-3", Timestamp: base.Add(2 * time.Hour), Symbol: "AAPL", Strategy: "covered_call",
			Action: models.ActionBuyToClose, Quantity: 1, OrderType: models.OrderTypeMarket,
			Price: 0.90, PnL: 160, PnLPercent: 64, IsPaper: false, OrderIDs: []string{"o-4"}},
	}
	for _, tr := range trades {
		if err := store.LogTrade(ctx, tr); err != nil {
			t.Fatalf("LogTrade(%s): %v", tr.ID, err)
		}
	}

	all, err := store.GetTrades(ctx, TradeFilter{})
	if err != nil {
		t.Fatalf("GetTrades: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("trades = %d, want 3", len(all))
	}
	if all[0].ID != "t-3" {
		t.Errorf("first trade = %s, want newest t-3", all[0].ID)
	}

	aapl, _ := store.GetTrades(ctx, TradeFilter{Symbol: "AAPL"})
	if len(aapl) != 2 {
		t.Errorf("AAPL trades = %d, want 2", len(aapl))
	}

	paper := true
	paperTrades, _ := store.GetTrades(ctx, TradeFilter{IsPaper: &paper})
	if len(paperTrades) != 2 {
		t.Errorf("paper trades = %d, want 2", len(paperTrades))
	}

	limited, _ := store.GetTrades(ctx, TradeFilter{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("limited trades = %d, want 1", len(limited))
	}

	if len(aapl) > 0 && len(aapl[0].OrderIDs) != 1 {
		t.Errorf("order ids = %v, want one entry", aapl[0].OrderIDs)
	}
}

func TestSQLiteDecisionFilters(t *testing.T) {
	store := newTestStore(t, "test_decisions.db")
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	decisions := []*Decision{
		{ID: "d-1", Timestamp: base, PositionID: "pos-1", Symbol: "AAPL",
			Strategy: "covered_call", Action: models.ActionNone, Reason: "position within parameters", Price: 185},
		{ID: "d-2", Timestamp: base.Add(time.Hour), PositionID: "pos-1", Symbol: "AAPL",
			Strategy: "covered_call", Action: models.ActionBuyToClose, Reason: "profit target reached",
			Price: 190, Executed: true, OrderIDs: []string{"o-9"}},
		{ID: "d-3", Timestamp: base.Add(2 * time.Hour), PositionID: "pos-2", Symbol: "MSFT",
			Strategy: "wheel", Action: models.ActionNone, Reason: "position within parameters", Price: 410},
	}
	for _, d := range decisions {
		if err := store.SaveDecision(ctx, d); err != nil {
			t.Fatalf("SaveDecision(%s): %v", d.ID, err)
		}
	}

	byPosition, err := store.GetDecisions(ctx, DecisionFilter{PositionID: "pos-1"})
	if err != nil {
		t.Fatalf("GetDecisions: %v", err)
	}
	if len(byPosition) != 2 {
		t.Fatalf("decisions for pos-1 = %d, want 2", len(byPosition))
	}
	if byPosition[0].ID != "d-2" {
		t.Errorf("first decision = %s, want newest d-2", byPosition[0].ID)
	}
	if len(byPosition[0].OrderIDs) != 1 || byPosition[0].OrderIDs[0] != "o-9" {
		t.Errorf("order ids = %v, want [o-9]", byPosition[0].OrderIDs)
	}

	executed := true
	done, _ := store.GetDecisions(ctx, DecisionFilter{Executed: &executed})
	if len(done) != 1 || done[0].ID != "d-2" {
		t.Errorf("executed decisions = %v, want only d-2", done)
	}
}

func TestSQLiteWatchlist(t *testing.T) {
	store := newTestStore(t, "test_watchlist.db")
	ctx := context.Background()

	for _, sym := range []string{"AAPL", "MSFT", "AAPL"} {
		if err := store.AddToWatchlist(ctx, sym); err != nil {
			t.Fatalf("AddToWatchlist(%s): %v", sym, err)
		}
	}

	symbols, err := store.GetWatchlist(ctx)
	if err != nil {
		t.Fatalf("GetWatchlist: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("watchlist = %v, want two distinct symbols", symbols)
	}

	if err := store.RemoveFromWatchlist(ctx, "AAPL"); err != nil {
		t.Fatal(err)
	}
	symbols, _ = store.GetWatchlist(ctx)
	if len(symbols) != 1 || symbols[0] != "MSFT" {
		t.Errorf("watchlist after remove = %v, want [MSFT]", symbols)
	}

	if err := store.AddToWatchlist(ctx, ""); err == nil {
		t.Error("AddToWatchlist accepted an empty symbol")
	}
}
