package strategy

import (
	"math"
	"testing"

	"tradecover/internal/models"
)

func condorChain(dte int) *models.OptionChain {
	return &models.OptionChain{
		Symbol: "TEST",
		Puts: []models.OptionContract{
			put(94, 1.20, -0.20, dte),
			put(90, 0.60, -0.12, dte),
		},
		Calls: []models.OptionContract{
			call(106, 1.10, 0.20, dte),
			call(110, 0.55, 0.12, dte),
		},
	}
}

func TestIronCondorSelection(t *testing.T) {
	s := mustNew(t, KindIronCondor, models.RiskModerate)

	sel := s.SelectOptions(100, condorChain(30))
	if sel == nil {
		t.Fatal("expected a selection")
	}
	if len(sel.Legs) != 4 {
		t.Fatalf("legs = %d, want 4", len(sel.Legs))
	}

	wantStrikes := map[models.LegRole]float64{
		models.RoleShortPut:  94,
		models.RoleLongPut:   90,
		models.RoleShortCall: 106,
		models.RoleLongCall:  110,
	}
	for role, want := range wantStrikes {
		leg := sel.Leg(role)
		if leg == nil {
			t.Fatalf("missing %s leg", role)
		}
		if leg.Contract.Strike != want {
			t.Errorf("%s strike = %.0f, want %.0f", role, leg.Contract.Strike, want)
		}
	}

	wantCredit := (1.20 - 0.60) + (1.10 - 0.55)
	if math.Abs(sel.NetCredit-wantCredit) > 1e-9 {
		t.Errorf("net credit = %.2f, want %.2f", sel.NetCredit, wantCredit)
	}
	if math.Abs(sel.MaxRisk-(4-wantCredit)) > 1e-9 {
		t.Errorf("max risk = %.2f, want %.2f", sel.MaxRisk, 4-wantCredit)
	}
	if len(sel.Breakevens) != 2 {
		t.Fatalf("breakevens = %v, want two", sel.Breakevens)
	}
	if math.Abs(sel.Breakevens[0]-(94-wantCredit)) > 1e-9 ||
		math.Abs(sel.Breakevens[1]-(106+wantCredit)) > 1e-9 {
		t.Errorf("breakevens = %v", sel.Breakevens)
	}
}

func TestIronCondorRequiresBothSides(t *testing.T) {
	s := mustNew(t, KindIronCondor, models.RiskModerate)
	chain := condorChain(30)
	chain.Calls = nil

	if sel := s.SelectOptions(100, chain); sel != nil {
		t.Error("expected nil without a call side")
	}
}

func condorPosition(dte int) *models.Position {
	return &models.Position{
		ID: "c1", Symbol: "TEST", Strategy: string(KindIronCondor),
		Quantity: 1, EntryPrice: 100,
		ShortPutStrike: 90, LongPutStrike: 85,
		ShortCallStrike: 110, LongCallStrike: 115,
		ExpiryDate: expiryIn(dte),
	}
}

func TestIronCondorAdjustsThreatenedCallSide(t *testing.T) {
	s := mustNew(t, KindIronCondor, models.RiskModerate)
	pos := condorPosition(6)

	// Price within 2% of the short call; credit and risk unset so only
	// the proximity rules apply.
	adj := s.AdjustPosition(pos, 109)
	if adj.Action != models.ActionAdjustCallSide {
		t.Fatalf("action = %s (%s), want ADJUST_CALL_SIDE", adj.Action, adj.Reason)
	}
}

func TestIronCondorAdjustsThreatenedPutSide(t *testing.T) {
	s := mustNew(t, KindIronCondor, models.RiskModerate)
	pos := condorPosition(6)

	adj := s.AdjustPosition(pos, 91)
	if adj.Action != models.ActionAdjustPutSide {
		t.Fatalf("action = %s (%s), want ADJUST_PUT_SIDE", adj.Action, adj.Reason)
	}
}

func TestIronCondorClosesSafeNearExpiry(t *testing.T) {
	s := mustNew(t, KindIronCondor, models.RiskModerate)
	pos := condorPosition(4)

	adj := s.AdjustPosition(pos, 100)
	if adj.Action != models.ActionCloseCondor {
		t.Fatalf("action = %s (%s), want CLOSE_CONDOR", adj.Action, adj.Reason)
	}
}

func TestIronCondorProfitTarget(t *testing.T) {
	s := mustNew(t, KindIronCondor, models.RiskModerate)
	pos := condorPosition(10)
	pos.TotalCredit = 1.15
	pos.MaxRisk = 2.85

	// Between the shorts with a third of the time left the modeled value
	// has decayed well past the 5% profit target.
	adj := s.AdjustPosition(pos, 100)
	if adj.Action != models.ActionCloseCondor {
		t.Fatalf("action = %s (%s), want CLOSE_CONDOR", adj.Action, adj.Reason)
	}
}

func TestIronCondorHoldsBetweenShorts(t *testing.T) {
	s := mustNew(t, KindIronCondor, models.RiskModerate)
	pos := condorPosition(20)

	adj := s.AdjustPosition(pos, 100)
	if adj.Action != models.ActionNone {
		t.Errorf("action = %s (%s), want NO_ACTION", adj.Action, adj.Reason)
	}
}

func TestIronCondorCloseOrderCoversAllLegs(t *testing.T) {
	s := mustNew(t, KindIronCondor, models.RiskModerate)
	pos := condorPosition(4)

	spec := s.OrderParameters(models.ActionCloseCondor, pos, nil)
	if spec == nil {
		t.Fatal("expected an order spec")
	}
	if spec.OrderType != models.OrderTypeMarket {
		t.Errorf("order type = %s, want MARKET", spec.OrderType)
	}
	if len(spec.CloseLegs) != 4 || len(spec.OpenLegs) != 0 {
		t.Fatalf("legs = %d close / %d open, want 4/0", len(spec.CloseLegs), len(spec.OpenLegs))
	}
}

func TestIronCondorAdjustCallSideOrder(t *testing.T) {
	s := mustNew(t, KindIronCondor, models.RiskModerate)
	pos := condorPosition(6)
	expiry := pos.ExpiryDate

	chain := &models.OptionChain{
		Symbol: "TEST",
		Calls: []models.OptionContract{
			{Symbol: "TEST", Strike: 112, Premium: 0.90, Delta: 0.21, Kind: models.Call, Expiry: expiry, DaysToExpiry: 6},
			{Symbol: "TEST", Strike: 117, Premium: 0.40, Delta: 0.10, Kind: models.Call, Expiry: expiry, DaysToExpiry: 6},
			{Symbol: "TEST", Strike: 108, Premium: 1.40, Delta: 0.35, Kind: models.Call, Expiry: expiry, DaysToExpiry: 6}, // not above current short
		},
	}

	spec := s.OrderParameters(models.ActionAdjustCallSide, pos, chain)
	if spec == nil {
		t.Fatal("expected an order spec")
	}
	if spec.OrderType != models.OrderTypeNetDebit {
		t.Errorf("order type = %s, want NET_DEBIT", spec.OrderType)
	}
	// Only the call side is touched.
	if len(spec.CloseLegs) != 2 {
		t.Fatalf("close legs = %d, want 2", len(spec.CloseLegs))
	}
	for _, leg := range spec.CloseLegs {
		if leg.Kind != models.Call {
			t.Errorf("close leg kind = %s, want CALL", leg.Kind)
		}
	}
	if len(spec.OpenLegs) != 2 {
		t.Fatalf("open legs = %d, want 2", len(spec.OpenLegs))
	}
	// New short is the higher strike closest to the delta target; the new
	// long preserves the original five-point width.
	if spec.OpenLegs[0].Strike != 112 || spec.OpenLegs[1].Strike != 117 {
		t.Errorf("open strikes = %.0f/%.0f, want 112/117", spec.OpenLegs[0].Strike, spec.OpenLegs[1].Strike)
	}
	wantDebit := (0.90 - 0.40) * icAdjustDebitFraction
	if math.Abs(spec.MaxDebit-wantDebit) > 1e-9 {
		t.Errorf("max debit = %.3f, want %.3f", spec.MaxDebit, wantDebit)
	}
}
