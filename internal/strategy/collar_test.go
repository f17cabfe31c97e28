package strategy

import (
	"math"
	"testing"

	"tradecover/internal/models"
)

func TestCollarSelection(t *testing.T) {
	s := mustNew(t, KindCollar, models.RiskModerate)
	chain := &models.OptionChain{
		Symbol: "TEST",
		Puts: []models.OptionContract{
			put(95, 1.00, -0.25, 30),
			put(105, 3.00, -0.60, 30), // above spot, not a protective put
		},
		Calls: []models.OptionContract{
			call(104, 0.90, 0.25, 30),
			call(96, 3.20, 0.65, 30), // below spot, not a covered call
		},
	}

	sel := s.SelectOptions(100, chain)
	if sel == nil {
		t.Fatal("expected a selection")
	}
	putLeg := sel.Leg(models.RoleLongPut)
	callLeg := sel.Leg(models.RoleShortCall)
	if putLeg == nil || callLeg == nil {
		t.Fatalf("collar must have put and call legs, got %+v", sel.Legs)
	}
	if putLeg.Contract.Strike != 95 || callLeg.Contract.Strike != 104 {
		t.Errorf("strikes = %.0f/%.0f, want 95/104", putLeg.Contract.Strike, callLeg.Contract.Strike)
	}
	if putLeg.Side != models.OrderSideBuy || callLeg.Side != models.OrderSideSell {
		t.Errorf("sides = %s/%s, want BUY/SELL", putLeg.Side, callLeg.Side)
	}

	wantCost := 1.00 - 0.90
	if math.Abs(sel.NetDebit-wantCost) > 1e-9 {
		t.Errorf("net debit = %.2f, want %.2f", sel.NetDebit, wantCost)
	}
	if math.Abs(sel.MaxRisk-(100-95+wantCost)) > 1e-9 {
		t.Errorf("max risk = %.2f, want %.2f", sel.MaxRisk, 100-95+wantCost)
	}
	if math.Abs(sel.MaxReward-(104-100-wantCost)) > 1e-9 {
		t.Errorf("max reward = %.2f, want %.2f", sel.MaxReward, 104-100-wantCost)
	}
}

func TestCollarSelectionReportsNetCredit(t *testing.T) {
	s := mustNew(t, KindCollar, models.RiskModerate)
	chain := &models.OptionChain{
		Symbol: "TEST",
		Puts:   []models.OptionContract{put(95, 0.70, -0.25, 30)},
		Calls:  []models.OptionContract{call(104, 0.90, 0.25, 30)},
	}

	sel := s.SelectOptions(100, chain)
	if sel == nil {
		t.Fatal("expected a selection")
	}
	if sel.NetDebit != 0 {
		t.Errorf("net debit = %.2f, want 0 for a credit collar", sel.NetDebit)
	}
	if math.Abs(sel.NetCredit-0.20) > 1e-9 {
		t.Errorf("net credit = %.2f, want 0.20", sel.NetCredit)
	}
}

func TestCollarRejectsExpensiveProtection(t *testing.T) {
	s := mustNew(t, KindCollar, models.RiskModerate)
	// Net cost 2% of spot is over the 0.75% moderate cap.
	chain := &models.OptionChain{
		Symbol: "TEST",
		Puts:   []models.OptionContract{put(95, 2.50, -0.25, 30)},
		Calls:  []models.OptionContract{call(104, 0.50, 0.25, 30)},
	}

	if sel := s.SelectOptions(100, chain); sel != nil {
		t.Error("expected nil when the net debit exceeds the cap")
	}
}

func TestCollarAdjustments(t *testing.T) {
	s := mustNew(t, KindCollar, models.RiskModerate)

	tests := []struct {
		name  string
		dte   int
		price float64
		entry float64
		want  models.Action
	}{
		{"put tested near expiry", 8, 95, 100, models.ActionCloseCollar},
		{"put tested with time left", 30, 95, 100, models.ActionMonitorPutProtection},
		{"call pressed near expiry", 8, 104, 100, models.ActionCloseCollar},
		{"call pressed with time left", 30, 104, 100, models.ActionRollCollarUp},
		{"expiring", 4, 100, 100, models.ActionRollCollarOut},
		{"profit target", 30, 101, 96, models.ActionCloseCollar},
		{"in bounds", 30, 100, 100, models.ActionMonitor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := &models.Position{
				ID: "c1", Symbol: "TEST", Quantity: 1, EntryPrice: tt.entry,
				PutStrike: 95, PutPremium: 1.00, PutExpiry: expiryIn(tt.dte),
				CallStrike: 104, CallPremium: 0.90, CallExpiry: expiryIn(tt.dte),
			}
			adj := s.AdjustPosition(pos, tt.price)
			if adj.Action != tt.want {
				t.Errorf("action = %s (%s), want %s", adj.Action, adj.Reason, tt.want)
			}
		})
	}
}

func TestCollarMonitorActionsCarryNoOrders(t *testing.T) {
	s := mustNew(t, KindCollar, models.RiskModerate)
	pos := &models.Position{
		ID: "c1", Symbol: "TEST", Quantity: 1, EntryPrice: 100,
		PutStrike: 95, PutPremium: 1.00, PutExpiry: expiryIn(30),
		CallStrike: 104, CallPremium: 0.90, CallExpiry: expiryIn(30),
	}

	for _, action := range []models.Action{models.ActionMonitor, models.ActionMonitorPutProtection} {
		spec := s.OrderParameters(action, pos, nil)
		if spec == nil {
			t.Fatalf("%s: expected an informational spec", action)
		}
		if spec.OrderType != models.OrderTypeInfoOnly {
			t.Errorf("%s: order type = %s, want INFO_ONLY", action, spec.OrderType)
		}
		if len(spec.CloseLegs) != 0 || len(spec.OpenLegs) != 0 {
			t.Errorf("%s: monitor spec must not carry legs", action)
		}
	}
}

func TestCollarCloseOrder(t *testing.T) {
	s := mustNew(t, KindCollar, models.RiskModerate)
	pos := &models.Position{
		ID: "c1", Symbol: "TEST", Quantity: 1, EntryPrice: 100,
		PutStrike: 95, PutPremium: 1.00, PutExpiry: expiryIn(8),
		CallStrike: 104, CallPremium: 0.90, CallExpiry: expiryIn(8),
	}

	spec := s.OrderParameters(models.ActionCloseCollar, pos, nil)
	if spec == nil {
		t.Fatal("expected an order spec")
	}
	if len(spec.CloseLegs) != 2 {
		t.Fatalf("close legs = %d, want 2", len(spec.CloseLegs))
	}
	// The long put is sold, the short call bought back.
	if spec.CloseLegs[0].Kind != models.Put || spec.CloseLegs[0].Side != models.OrderSideSell {
		t.Errorf("put close leg = %+v", spec.CloseLegs[0])
	}
	if spec.CloseLegs[1].Kind != models.Call || spec.CloseLegs[1].Side != models.OrderSideBuy {
		t.Errorf("call close leg = %+v", spec.CloseLegs[1])
	}
}
