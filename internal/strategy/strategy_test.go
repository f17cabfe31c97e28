package strategy

import (
	"testing"
	"time"

	"tradecover/internal/models"
)

// testNow is the fixed clock used by all strategy tests so that expiry
// math is deterministic.
var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// expiryIn returns a date-only expiry string the given number of days
// from the test clock.
func expiryIn(days int) string {
	return testNow.AddDate(0, 0, days).Format("2006-01-02")
}

// testOptions are the fixed knobs shared by the scenario tests.
func testOptions() []Option {
	return []Option{WithClock(testClock)}
}

func mustNew(t *testing.T, kind Kind, risk models.RiskLevel) Strategy {
	t.Helper()
	s, err := New(kind, risk, testOptions()...)
	if err != nil {
		t.Fatalf("New(%s, %s): %v", kind, risk, err)
	}
	return s
}

func call(strike, premium, delta float64, dte int) models.OptionContract {
	return models.OptionContract{
		Symbol:       "TEST",
		Strike:       strike,
		Premium:      premium,
		Delta:        delta,
		Kind:         models.Call,
		Expiry:       expiryIn(dte),
		DaysToExpiry: dte,
	}
}

func put(strike, premium, delta float64, dte int) models.OptionContract {
	return models.OptionContract{
		Symbol:       "TEST",
		Strike:       strike,
		Premium:      premium,
		Delta:        delta,
		Kind:         models.Put,
		Expiry:       expiryIn(dte),
		DaysToExpiry: dte,
	}
}

func TestNewCoversAllKinds(t *testing.T) {
	for _, kind := range Kinds() {
		s, err := New(kind, models.RiskModerate)
		if err != nil {
			t.Errorf("New(%s): %v", kind, err)
			continue
		}
		if s.Kind() != kind {
			t.Errorf("New(%s).Kind() = %s", kind, s.Kind())
		}
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	if _, err := New(Kind("straddle"), models.RiskModerate); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestNewRejectsUnknownRiskLevel(t *testing.T) {
	if _, err := New(KindCoveredCall, models.RiskLevel("yolo")); err == nil {
		t.Error("expected error for unknown risk level")
	}
}

func TestAdjustNilPositionIsNoAction(t *testing.T) {
	for _, kind := range Kinds() {
		s := mustNew(t, kind, models.RiskModerate)
		adj := s.AdjustPosition(nil, 100)
		if adj.Action != models.ActionNone {
			t.Errorf("%s: nil position produced %s", kind, adj.Action)
		}
		if adj.Reason == "" {
			t.Errorf("%s: nil position decision has no reason", kind)
		}
	}
}

func TestSelectEmptyChainReturnsNil(t *testing.T) {
	chains := []*models.OptionChain{nil, {}, {Symbol: "TEST"}}
	for _, kind := range Kinds() {
		s := mustNew(t, kind, models.RiskModerate)
		for _, chain := range chains {
			if sel := s.SelectOptions(100, chain); sel != nil {
				t.Errorf("%s: empty chain produced a structure", kind)
			}
		}
	}
}
