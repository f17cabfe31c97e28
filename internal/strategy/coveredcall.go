package strategy

import (
	"fmt"
	"sort"

	"tradecover/internal/models"
)

// Covered call adjustment thresholds.
const (
	ccExpiryCloseDTE    = 5    // "near expiry" gate for roll-out
	ccAssignmentDTE     = 7    // minimum DTE before roll-up-and-out
	ccBelowStrikeBand   = 0.98 // price below strike by >2%
	ccAboveStrikeBand   = 1.02 // price above strike by >2%, assignment risk
	ccRollMinDTE        = 21   // replacement leg window, exclusive
	ccRollMaxDTE        = 45
	ccRollDebitFraction = 0.5 // max debit as fraction of new premium
)

// CoveredCall sells a call against a long stock position to generate
// income.
type CoveredCall struct {
	common
	params CoveredCallParams
}

func newCoveredCall(c common) *CoveredCall {
	return &CoveredCall{common: c, params: NewCoveredCallParams(c.risk)}
}

// Kind returns the strategy kind.
func (s *CoveredCall) Kind() Kind { return KindCoveredCall }

// Params returns the risk-derived parameter set.
func (s *CoveredCall) Params() CoveredCallParams { return s.params }

// SelectOptions picks the best call to sell against the underlying.
func (s *CoveredCall) SelectOptions(price float64, chain *models.OptionChain) *models.SelectedStructure {
	if chain.Empty() || len(chain.Calls) == 0 {
		return nil
	}
	return s.selectCall(price, chain.Calls)
}

type scoredContract struct {
	contract models.OptionContract
	dte      int
	score    float64
}

// selectCall scores the call side of a chain against the covered call
// floors and returns the best candidate as a one-leg structure.
func (s *CoveredCall) selectCall(price float64, calls []models.OptionContract) *models.SelectedStructure {
	if price <= 0 || len(calls) == 0 {
		return nil
	}

	w := weightsForRisk(s.risk)
	var suitable []scoredContract

	for _, call := range calls {
		if call.Strike <= 0 || call.Premium <= 0 {
			continue
		}
		dte, ok := s.contractDTE(call)
		if !ok {
			continue
		}

		strikePct := (call.Strike - price) / price * 100
		premiumPct := call.Premium / price * 100
		if strikePct < s.params.StrikeMinPct || premiumPct < s.params.PremiumMinPct {
			continue
		}
		if !s.withinWindow(dte) && len(suitable) >= s.params.BestCount {
			continue
		}

		score := scoreLeg(w, call.Delta, s.params.DeltaTarget, call.Premium, price, dte, s.expiryDays)
		suitable = append(suitable, scoredContract{contract: call, dte: dte, score: score})
	}

	if len(suitable) == 0 {
		return nil
	}
	sort.SliceStable(suitable, func(i, j int) bool { return suitable[i].score > suitable[j].score })

	best := suitable[0]
	return &models.SelectedStructure{
		Strategy: string(KindCoveredCall),
		Legs: []models.StructureLeg{
			{Role: models.RoleShortCall, Side: models.OrderSideSell, Contract: best.contract},
		},
		NetCredit:    best.contract.Premium,
		MaxReward:    (best.contract.Strike - price) + best.contract.Premium,
		MaxRisk:      price - best.contract.Premium,
		Breakevens:   []float64{price - best.contract.Premium},
		DaysToExpiry: best.dte,
		Expiry:       best.contract.Expiry,
		Score:        best.score,
	}
}

// AdjustPosition evaluates profit/loss, stop loss, and assignment risk for
// an open covered call.
func (s *CoveredCall) AdjustPosition(pos *models.Position, price float64) models.Adjustment {
	if pos == nil || pos.CallStrike <= 0 || pos.CallPremium <= 0 || pos.CallExpiry == "" {
		return models.NoAction("no covered call details found")
	}
	if pos.EntryPrice <= 0 {
		return models.NoAction("missing entry price for covered call")
	}

	dte, err := s.positionDTE(pos.CallExpiry)
	if err != nil {
		return models.NoAction(fmt.Sprintf("unparsable call expiry %q", pos.CallExpiry))
	}

	plPct := (price - pos.EntryPrice) / pos.EntryPrice * 100

	if plPct <= -s.stopLossPct {
		return models.Adjustment{
			Action: models.ActionBuyToClose,
			Reason: fmt.Sprintf("stop loss triggered: %.2f%% loss exceeds %.2f%% threshold", plPct, s.stopLossPct),
		}
	}
	if plPct >= s.profitTargetPct {
		return models.Adjustment{
			Action: models.ActionBuyToClose,
			Reason: fmt.Sprintf("profit target reached: %.2f%% gain exceeds %.2f%% threshold", plPct, s.profitTargetPct),
		}
	}
	if dte <= ccExpiryCloseDTE && price < pos.CallStrike*ccBelowStrikeBand {
		return models.Adjustment{
			Action: models.ActionRollOut,
			Reason: fmt.Sprintf("option near expiry (%d days) and price below strike", dte),
		}
	}
	if price > pos.CallStrike*ccAboveStrikeBand && dte > ccAssignmentDTE {
		return models.Adjustment{
			Action: models.ActionRollUpAndOut,
			Reason: "stock price above strike by > 2%, risk of early assignment",
		}
	}
	return models.NoAction("position within parameters")
}

// OrderParameters builds the order spec for a covered call action. Rolls
// need a fresh chain and return nil when no replacement call qualifies.
func (s *CoveredCall) OrderParameters(action models.Action, pos *models.Position, chain *models.OptionChain) *models.OrderSpec {
	if pos == nil {
		return nil
	}
	current := models.LegRef{
		Symbol: pos.Symbol,
		Strike: pos.CallStrike,
		Expiry: pos.CallExpiry,
		Kind:   models.Call,
		Side:   models.OrderSideBuy, // buying back the short call
	}

	switch action {
	case models.ActionBuyToClose:
		return &models.OrderSpec{
			Action:    action,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeMarket,
			CloseLegs: []models.LegRef{current},
		}

	case models.ActionRollOut, models.ActionRollUpAndOut:
		if chain.Empty() {
			return nil
		}
		var candidates []models.OptionContract
		for _, call := range chain.Calls {
			dte, ok := s.contractDTE(call)
			if !ok || dte <= ccRollMinDTE || dte >= ccRollMaxDTE {
				continue
			}
			switch action {
			case models.ActionRollOut:
				if call.Strike == pos.CallStrike {
					candidates = append(candidates, call)
				}
			case models.ActionRollUpAndOut:
				if call.Strike > pos.CallStrike {
					candidates = append(candidates, call)
				}
			}
		}
		selected := s.selectCall(rollReference(pos), candidates)
		if selected == nil {
			return nil
		}
		leg := selected.Leg(models.RoleShortCall)
		return &models.OrderSpec{
			Action:    action,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeNetDebit,
			CloseLegs: []models.LegRef{current},
			OpenLegs: []models.LegRef{{
				Symbol: pos.Symbol,
				Strike: leg.Contract.Strike,
				Expiry: leg.Contract.Expiry,
				Kind:   models.Call,
				Side:   models.OrderSideSell,
			}},
			MaxDebit: leg.Contract.Premium * ccRollDebitFraction,
		}
	}
	return nil
}
