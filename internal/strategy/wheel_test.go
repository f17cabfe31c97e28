package strategy

import (
	"testing"

	"tradecover/internal/models"
)

func newTestWheel(t *testing.T, phase models.WheelPhase) *Wheel {
	t.Helper()
	s, err := NewWheel(models.RiskModerate, phase, testOptions()...)
	if err != nil {
		t.Fatalf("NewWheel: %v", err)
	}
	return s
}

func TestWheelSelectsPutInPutPhase(t *testing.T) {
	s := newTestWheel(t, models.PhasePutSelling)
	chain := &models.OptionChain{
		Symbol: "TEST",
		Calls:  []models.OptionContract{call(105, 1.20, 0.30, 30)},
		Puts:   []models.OptionContract{put(96, 1.10, -0.28, 30)},
	}

	sel := s.SelectOptions(100, chain)
	if sel == nil {
		t.Fatal("expected a selection")
	}
	leg := sel.Leg(models.RoleShortPut)
	if leg == nil {
		t.Fatal("put phase must select a short put")
	}
	if leg.Contract.Strike != 96 {
		t.Errorf("selected strike = %.0f, want 96", leg.Contract.Strike)
	}
	if sel.Breakevens[0] != 96-1.10 {
		t.Errorf("breakeven = %.2f, want 94.90", sel.Breakevens[0])
	}
}

func TestWheelSelectsCallInCallPhase(t *testing.T) {
	s := newTestWheel(t, models.PhaseCallSelling)
	chain := &models.OptionChain{
		Symbol: "TEST",
		Calls:  []models.OptionContract{call(105, 1.20, 0.30, 30)},
		Puts:   []models.OptionContract{put(96, 1.10, -0.28, 30)},
	}

	sel := s.SelectOptions(100, chain)
	if sel == nil {
		t.Fatal("expected a selection")
	}
	if leg := sel.Leg(models.RoleShortCall); leg == nil || leg.Contract.Strike != 105 {
		t.Fatalf("call phase must select the short call, got %+v", sel.Legs)
	}
}

func TestWheelPrepareForAssignment(t *testing.T) {
	s := newTestWheel(t, models.PhasePutSelling)
	pos := &models.Position{
		ID: "w1", Symbol: "TEST", Strategy: string(KindWheel), Quantity: 1,
		PutStrike: 50, PutPremium: 1.0, PutExpiry: expiryIn(5),
	}

	adj := s.AdjustPosition(pos, 48.5)
	if adj.Action != models.ActionPrepareForAssignment {
		t.Fatalf("action = %s (%s), want PREPARE_FOR_ASSIGNMENT", adj.Action, adj.Reason)
	}

	spec := s.OrderParameters(adj.Action, pos, nil)
	if spec == nil {
		t.Fatal("expected an order spec")
	}
	if spec.OrderType != models.OrderTypeInfoOnly {
		t.Errorf("order type = %s, want INFO_ONLY", spec.OrderType)
	}
	if spec.NextPhase != models.PhaseCallSelling {
		t.Errorf("next phase = %s, want CALL_SELLING", spec.NextPhase)
	}
	if len(spec.CloseLegs) != 0 || len(spec.OpenLegs) != 0 {
		t.Error("assignment prep must not carry order legs")
	}
}

func TestWheelPutStopLossIsStrict(t *testing.T) {
	s := newTestWheel(t, models.PhasePutSelling)
	pos := &models.Position{
		ID: "w1", Symbol: "TEST", Quantity: 1,
		PutStrike: 50, PutPremium: 1.0, PutExpiry: expiryIn(5),
	}

	// Exactly at the 3% stop threshold the stop does not fire; the breach
	// check takes over instead.
	adj := s.AdjustPosition(pos, 48.5)
	if adj.Action == models.ActionBuyToClosePut {
		t.Errorf("stop loss fired at exact threshold: %s", adj.Reason)
	}

	adj = s.AdjustPosition(pos, 48.49)
	if adj.Action != models.ActionBuyToClosePut {
		t.Errorf("action = %s, want BUY_TO_CLOSE_PUT below threshold", adj.Action)
	}
}

func TestWheelPutAdjustments(t *testing.T) {
	s := newTestWheel(t, models.PhasePutSelling)

	tests := []struct {
		name    string
		premium float64
		dte     int
		price   float64
		want    models.Action
	}{
		{"early profit take", 2.5, 8, 51, models.ActionBuyToClosePut},
		{"roll out when safe near expiry", 1.0, 4, 51.5, models.ActionRollOutPut},
		{"hold", 1.0, 20, 50.5, models.ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := &models.Position{
				ID: "w1", Symbol: "TEST", Quantity: 1,
				PutStrike: 50, PutPremium: tt.premium, PutExpiry: expiryIn(tt.dte),
			}
			adj := s.AdjustPosition(pos, tt.price)
			if adj.Action != tt.want {
				t.Errorf("action = %s (%s), want %s", adj.Action, adj.Reason, tt.want)
			}
		})
	}
}

func TestWheelCallPhaseAdjustments(t *testing.T) {
	s := newTestWheel(t, models.PhaseCallSelling)

	tests := []struct {
		name  string
		entry float64
		dte   int
		price float64
		want  models.Action
	}{
		{"stop loss", 100, 30, 96.5, models.ActionBuyToCloseCall},
		{"profit target", 100, 30, 105.5, models.ActionBuyToCloseCall},
		{"roll out near expiry", 100, 3, 100, models.ActionRollOutCall},
		{"roll up on assignment risk", 101, 30, 105.2, models.ActionRollUpAndOutCall},
		{"hold", 100, 30, 101, models.ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := &models.Position{
				ID: "w1", Symbol: "TEST", Quantity: 1, EntryPrice: tt.entry,
				CallStrike: 103, CallPremium: 1.10, CallExpiry: expiryIn(tt.dte),
			}
			adj := s.AdjustPosition(pos, tt.price)
			if adj.Action != tt.want {
				t.Errorf("action = %s (%s), want %s", adj.Action, adj.Reason, tt.want)
			}
		})
	}
}

func TestWheelRollPutOrder(t *testing.T) {
	s := newTestWheel(t, models.PhasePutSelling)
	pos := &models.Position{
		ID: "w1", Symbol: "TEST", Quantity: 1, EntryPrice: 100,
		PutStrike: 96, PutPremium: 1.10, PutExpiry: expiryIn(4),
	}
	chain := &models.OptionChain{
		Symbol: "TEST",
		Puts: []models.OptionContract{
			put(96, 1.40, -0.30, 30), // same strike, inside roll window
			put(96, 1.80, -0.35, 50), // outside window
			put(94, 1.00, -0.22, 30), // different strike
		},
	}

	spec := s.OrderParameters(models.ActionRollOutPut, pos, chain)
	if spec == nil {
		t.Fatal("expected an order spec")
	}
	if spec.Action != models.ActionRollPut {
		t.Errorf("spec action = %s, want ROLL_PUT", spec.Action)
	}
	if spec.OrderType != models.OrderTypeNetCredit {
		t.Errorf("order type = %s, want NET_CREDIT", spec.OrderType)
	}
	if len(spec.OpenLegs) != 1 || spec.OpenLegs[0].Strike != 96 {
		t.Fatalf("open legs = %+v, want one leg at strike 96", spec.OpenLegs)
	}
	if spec.OpenLegs[0].Expiry != expiryIn(30) {
		t.Errorf("open expiry = %s, want %s", spec.OpenLegs[0].Expiry, expiryIn(30))
	}
	wantCredit := 1.40 * whRollCreditFraction
	if spec.MinCredit != wantCredit {
		t.Errorf("min credit = %.3f, want %.3f", spec.MinCredit, wantCredit)
	}
}
