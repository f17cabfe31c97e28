package strategy

import (
	"fmt"
	"sort"

	"tradecover/internal/models"
)

// Wheel adjustment thresholds.
const (
	whExpiryCloseDTE     = 5
	whAssignmentDTE      = 7
	whBelowStrikeBand    = 0.98 // price below strike by >2%, assignment likely
	whAboveStrikeBand    = 1.02 // price above strike by >2%
	whEarlyProfitDTEFrac = 0.3  // fraction of target DTE for early profit take
	whEarlyProfitFrac    = 0.8  // fraction of profit target accepted early
	whRollMinDTE         = 21
	whRollMaxDTE         = 45
	whRollCreditFraction = 0.3 // min credit as fraction of the new premium
	whRollDebitFraction  = 0.5 // max debit as fraction of the new premium
)

// Wheel cycles between cash-secured put selling and covered call selling.
// It is a thin coordinator: the phase flag picks which sub-strategy runs,
// and PREPARE_FOR_ASSIGNMENT on the put phase is the only signal that
// should cause the orchestration layer to flip the phase to call selling.
type Wheel struct {
	common
	kind   Kind
	phase  models.WheelPhase
	params WheelParams
}

func newWheelWithKind(c common, kind Kind, phase models.WheelPhase) *Wheel {
	return &Wheel{common: c, kind: kind, phase: phase, params: NewWheelParams(c.risk)}
}

// Kind returns the strategy kind.
func (s *Wheel) Kind() Kind { return s.kind }

// Phase returns the phase selection used by SelectOptions.
func (s *Wheel) Phase() models.WheelPhase { return s.phase }

// Params returns the risk-derived parameter set.
func (s *Wheel) Params() WheelParams { return s.params }

// SelectOptions selects the best option for the current phase: a
// cash-secured put in the put-selling phase, a covered call after
// assignment.
func (s *Wheel) SelectOptions(price float64, chain *models.OptionChain) *models.SelectedStructure {
	if chain.Empty() {
		return nil
	}
	switch s.phase {
	case models.PhaseCallSelling:
		return s.selectCoveredCall(price, chain.Calls)
	default:
		return s.selectCashSecuredPut(price, chain.Puts)
	}
}

// selectCashSecuredPut scores puts below the spot against the wheel's
// strike distance and premium floors.
func (s *Wheel) selectCashSecuredPut(price float64, puts []models.OptionContract) *models.SelectedStructure {
	if price <= 0 || len(puts) == 0 {
		return nil
	}

	w := weightsForRisk(s.risk)
	var suitable []scoredContract

	for _, put := range puts {
		if put.Strike <= 0 || put.Premium <= 0 {
			continue
		}
		dte, ok := s.contractDTE(put)
		if !ok {
			continue
		}

		strikePct := (price - put.Strike) / price * 100
		premiumPct := put.Premium / price * 100
		if strikePct < s.params.PutStrikeDistPct || premiumPct < s.params.PremiumMinPct {
			continue
		}
		if !s.withinWindow(dte) && len(suitable) >= s.params.BestCount {
			continue
		}

		score := scoreLeg(w, put.Delta, s.params.PutDeltaTarget, put.Premium, price, dte, s.expiryDays)
		suitable = append(suitable, scoredContract{contract: put, dte: dte, score: score})
	}

	if len(suitable) == 0 {
		return nil
	}
	sort.SliceStable(suitable, func(i, j int) bool { return suitable[i].score > suitable[j].score })

	best := suitable[0]
	return &models.SelectedStructure{
		Strategy: string(s.kind),
		Legs: []models.StructureLeg{
			{Role: models.RoleShortPut, Side: models.OrderSideSell, Contract: best.contract},
		},
		NetCredit:    best.contract.Premium,
		MaxReward:    best.contract.Premium,
		MaxRisk:      best.contract.Strike - best.contract.Premium,
		Breakevens:   []float64{best.contract.Strike - best.contract.Premium},
		DaysToExpiry: best.dte,
		Expiry:       best.contract.Expiry,
		Score:        best.score,
	}
}

// selectCoveredCall scores calls above the cost basis for the call phase.
func (s *Wheel) selectCoveredCall(price float64, calls []models.OptionContract) *models.SelectedStructure {
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
		if strikePct < s.params.CallStrikeDistPct || premiumPct < s.params.PremiumMinPct {
			continue
		}
		if !s.withinWindow(dte) && len(suitable) >= s.params.BestCount {
			continue
		}

		score := scoreLeg(w, call.Delta, s.params.CallDeltaTarget, call.Premium, price, dte, s.expiryDays)
		suitable = append(suitable, scoredContract{contract: call, dte: dte, score: score})
	}

	if len(suitable) == 0 {
		return nil
	}
	sort.SliceStable(suitable, func(i, j int) bool { return suitable[i].score > suitable[j].score })

	best := suitable[0]
	return &models.SelectedStructure{
		Strategy: string(s.kind),
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

// AdjustPosition derives the phase from the position's populated fields and
// evaluates the matching side. The phase flag on the position itself is
// owned by the orchestration layer.
func (s *Wheel) AdjustPosition(pos *models.Position, price float64) models.Adjustment {
	if pos == nil {
		return models.NoAction("missing position for wheel strategy")
	}
	switch {
	case pos.PutStrike > 0:
		return s.adjustPut(pos, price)
	case pos.CallStrike > 0:
		return s.adjustCall(pos, price)
	}
	return models.NoAction("unable to determine position type for wheel strategy")
}

func (s *Wheel) adjustPut(pos *models.Position, price float64) models.Adjustment {
	if pos.PutStrike <= 0 || pos.PutPremium < 0 || pos.PutExpiry == "" {
		return models.NoAction("no put option details found")
	}

	dte, err := s.positionDTE(pos.PutExpiry)
	if err != nil {
		return models.NoAction(fmt.Sprintf("unparsable put expiry %q", pos.PutExpiry))
	}

	strike := pos.PutStrike
	profitPct := pos.PutPremium / strike * 100

	// Stop loss is strict: an exact breach of the threshold falls through
	// to the assignment checks below.
	if price < strike*(1-s.stopLossPct/100) {
		return models.Adjustment{
			Action: models.ActionBuyToClosePut,
			Reason: fmt.Sprintf("stop loss triggered: price fell %.2f%% below strike", (strike-price)/strike*100),
		}
	}
	if float64(dte) < float64(s.expiryDays)*whEarlyProfitDTEFrac && profitPct >= s.profitTargetPct*whEarlyProfitFrac {
		return models.Adjustment{
			Action: models.ActionBuyToClosePut,
			Reason: fmt.Sprintf("profit target nearly reached with %d days remaining", dte),
		}
	}
	if dte <= whExpiryCloseDTE && price > strike*whAboveStrikeBand {
		return models.Adjustment{
			Action: models.ActionRollOutPut,
			Reason: fmt.Sprintf("option near expiry (%d days) and safely out of the money", dte),
		}
	}
	if price < strike*whBelowStrikeBand && dte <= whAssignmentDTE {
		return models.Adjustment{
			Action: models.ActionPrepareForAssignment,
			Reason: "price below strike by > 2%, preparing for assignment",
		}
	}
	return models.NoAction("put position within parameters")
}

func (s *Wheel) adjustCall(pos *models.Position, price float64) models.Adjustment {
	if pos.CallStrike <= 0 || pos.CallPremium <= 0 || pos.CallExpiry == "" {
		return models.NoAction("no covered call details found")
	}
	if pos.EntryPrice <= 0 {
		return models.NoAction("missing entry price for wheel call position")
	}

	dte, err := s.positionDTE(pos.CallExpiry)
	if err != nil {
		return models.NoAction(fmt.Sprintf("unparsable call expiry %q", pos.CallExpiry))
	}

	plPct := (price - pos.EntryPrice) / pos.EntryPrice * 100

	if plPct <= -s.stopLossPct {
		return models.Adjustment{
			Action: models.ActionBuyToCloseCall,
			Reason: fmt.Sprintf("stop loss triggered: %.2f%% loss exceeds %.2f%% threshold", plPct, s.stopLossPct),
		}
	}
	if plPct >= s.profitTargetPct {
		return models.Adjustment{
			Action: models.ActionBuyToCloseCall,
			Reason: fmt.Sprintf("profit target reached: %.2f%% gain exceeds %.2f%% threshold", plPct, s.profitTargetPct),
		}
	}
	if dte <= whExpiryCloseDTE && price < pos.CallStrike*whBelowStrikeBand {
		return models.Adjustment{
			Action: models.ActionRollOutCall,
			Reason: fmt.Sprintf("option near expiry (%d days) and price below strike", dte),
		}
	}
	if price > pos.CallStrike*whAboveStrikeBand && dte > whAssignmentDTE {
		return models.Adjustment{
			Action: models.ActionRollUpAndOutCall,
			Reason: "stock price above strike by > 2%, risk of early assignment",
		}
	}
	return models.NoAction("call position within parameters")
}

// OrderParameters builds order specs for wheel actions. The assignment
// prep action carries no order, only the phase transition signal.
func (s *Wheel) OrderParameters(action models.Action, pos *models.Position, chain *models.OptionChain) *models.OrderSpec {
	if pos == nil {
		return nil
	}

	switch action {
	case models.ActionBuyToClosePut:
		return &models.OrderSpec{
			Action:    models.ActionBuyToClose,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeMarket,
			CloseLegs: []models.LegRef{{
				Symbol: pos.Symbol, Strike: pos.PutStrike, Expiry: pos.PutExpiry,
				Kind: models.Put, Side: models.OrderSideBuy,
			}},
		}

	case models.ActionRollOutPut:
		if chain.Empty() {
			return nil
		}
		var candidates []models.OptionContract
		for _, put := range chain.Puts {
			dte, ok := s.contractDTE(put)
			if !ok || dte <= whRollMinDTE || dte >= whRollMaxDTE {
				continue
			}
			if put.Strike == pos.PutStrike {
				candidates = append(candidates, put)
			}
		}
		selected := s.selectCashSecuredPut(rollReference(pos), candidates)
		if selected == nil {
			return nil
		}
		leg := selected.Leg(models.RoleShortPut)
		return &models.OrderSpec{
			Action:    models.ActionRollPut,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeNetCredit,
			CloseLegs: []models.LegRef{{
				Symbol: pos.Symbol, Strike: pos.PutStrike, Expiry: pos.PutExpiry,
				Kind: models.Put, Side: models.OrderSideBuy,
			}},
			OpenLegs: []models.LegRef{{
				Symbol: pos.Symbol, Strike: leg.Contract.Strike, Expiry: leg.Contract.Expiry,
				Kind: models.Put, Side: models.OrderSideSell,
			}},
			MinCredit: leg.Contract.Premium * whRollCreditFraction,
		}

	case models.ActionPrepareForAssignment:
		// Informational only: no order, just the phase transition signal.
		return &models.OrderSpec{
			Action:    models.ActionPrepareForAssignment,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeInfoOnly,
			NextPhase: models.PhaseCallSelling,
		}

	case models.ActionBuyToCloseCall:
		return &models.OrderSpec{
			Action:    models.ActionBuyToClose,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeMarket,
			CloseLegs: []models.LegRef{{
				Symbol: pos.Symbol, Strike: pos.CallStrike, Expiry: pos.CallExpiry,
				Kind: models.Call, Side: models.OrderSideBuy,
			}},
		}

	case models.ActionRollOutCall, models.ActionRollUpAndOutCall:
		if chain.Empty() {
			return nil
		}
		var candidates []models.OptionContract
		for _, call := range chain.Calls {
			dte, ok := s.contractDTE(call)
			if !ok || dte <= whRollMinDTE || dte >= whRollMaxDTE {
				continue
			}
			switch action {
			case models.ActionRollOutCall:
				if call.Strike == pos.CallStrike {
					candidates = append(candidates, call)
				}
			case models.ActionRollUpAndOutCall:
				if call.Strike > pos.CallStrike {
					candidates = append(candidates, call)
				}
			}
		}
		selected := s.selectCoveredCall(rollReference(pos), candidates)
		if selected == nil {
			return nil
		}
		leg := selected.Leg(models.RoleShortCall)
		return &models.OrderSpec{
			Action:    models.ActionRollCall,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeNetDebit,
			CloseLegs: []models.LegRef{{
				Symbol: pos.Symbol, Strike: pos.CallStrike, Expiry: pos.CallExpiry,
				Kind: models.Call, Side: models.OrderSideBuy,
			}},
			OpenLegs: []models.LegRef{{
				Symbol: pos.Symbol, Strike: leg.Contract.Strike, Expiry: leg.Contract.Expiry,
				Kind: models.Call, Side: models.OrderSideSell,
			}},
			MaxDebit: leg.Contract.Premium * whRollDebitFraction,
		}
	}
	return nil
}
