package strategy

import (
	"fmt"
	"math"
	"sort"

	"tradecover/internal/models"
)

// Collar thresholds.
const (
	collarCloseDTE         = 10   // close instead of adjusting this near expiry
	collarRollDTE          = 5    // roll both legs out when this close
	collarPutBand          = 1.02 // price testing the protective put
	collarCallBand         = 0.98 // price testing the short call
	collarRollDebitFactor  = 1.2  // cap over the replacement legs' net cost
	collarCallRollFraction = 0.5  // max debit as fraction of the old call premium
	collarStrikeScoreScale = 5.0  // strike distance deviation scale, %
)

// Collar pairs a protective put with a short call over held stock, bounding
// both downside and upside for a small net cost.
type Collar struct {
	common
	params CollarParams
}

func newCollar(c common) *Collar {
	return &Collar{common: c, params: NewCollarParams(c.risk)}
}

// Kind returns the strategy kind.
func (s *Collar) Kind() Kind { return KindCollar }

// Params returns the risk-derived parameter set.
func (s *Collar) Params() CollarParams { return s.params }

// collarLegScore weighs a single collar leg by delta proximity and strike
// distance from its target band.
func collarLegScore(delta, deltaTarget, strikeDistPct, distTarget float64) float64 {
	strikeScore := 1 - math.Abs(strikeDistPct-distTarget)/collarStrikeScoreScale
	return deltaScore(delta, deltaTarget)*0.6 + strikeScore*0.4
}

// SelectOptions pairs puts below spot with calls above spot sharing an
// expiry, rejects pairings whose net cost exceeds the debit cap, and
// returns the best-scoring combination.
func (s *Collar) SelectOptions(price float64, chain *models.OptionChain) *models.SelectedStructure {
	if price <= 0 || chain.Empty() || len(chain.Calls) == 0 || len(chain.Puts) == 0 {
		return nil
	}

	type scoredLeg struct {
		contract models.OptionContract
		dte      int
		score    float64
	}

	byExpiry := func(contracts []models.OptionContract) map[string][]scoredLeg {
		out := make(map[string][]scoredLeg)
		for _, oc := range contracts {
			dte, ok := s.contractDTE(oc)
			if !ok || !s.withinWindow(dte) {
				continue
			}
			out[oc.Expiry] = append(out[oc.Expiry], scoredLeg{contract: oc, dte: dte})
		}
		return out
	}

	calls := byExpiry(chain.Calls)
	puts := byExpiry(chain.Puts)

	type scoredCollar struct {
		put     models.OptionContract
		call    models.OptionContract
		netCost float64
		dte     int
		score   float64
	}
	var combos []scoredCollar

	for expiry, expPuts := range puts {
		expCalls, ok := calls[expiry]
		if !ok {
			continue
		}

		var suitablePuts, suitableCalls []scoredLeg
		for _, leg := range expPuts {
			distPct := (price - leg.contract.Strike) / price * 100
			if distPct < 0 {
				continue
			}
			leg.score = collarLegScore(leg.contract.Delta, s.params.PutDeltaTarget, distPct, s.params.PutStrikeDistPct)
			suitablePuts = append(suitablePuts, leg)
		}
		for _, leg := range expCalls {
			distPct := (leg.contract.Strike - price) / price * 100
			if distPct < 0 {
				continue
			}
			leg.score = collarLegScore(leg.contract.Delta, s.params.CallDeltaTarget, distPct, s.params.CallStrikeDist)
			suitableCalls = append(suitableCalls, leg)
		}
		if len(suitablePuts) == 0 || len(suitableCalls) == 0 {
			continue
		}

		sort.SliceStable(suitablePuts, func(i, j int) bool { return suitablePuts[i].score > suitablePuts[j].score })
		sort.SliceStable(suitableCalls, func(i, j int) bool { return suitableCalls[i].score > suitableCalls[j].score })
		if len(suitablePuts) > 3 {
			suitablePuts = suitablePuts[:3]
		}
		if len(suitableCalls) > 3 {
			suitableCalls = suitableCalls[:3]
		}

		for _, p := range suitablePuts {
			for _, c := range suitableCalls {
				netCost := p.contract.Premium - c.contract.Premium
				netCostPct := netCost / price * 100
				if netCostPct > s.params.MaxNetDebitPct {
					continue
				}
				costScore := 1 - netCostPct/s.params.MaxNetDebitPct

				var score float64
				switch s.risk {
				case models.RiskConservative:
					score = p.score*0.5 + c.score*0.3 + costScore*0.2
				case models.RiskAggressive:
					score = p.score*0.3 + c.score*0.3 + costScore*0.4
				default:
					score = p.score*0.4 + c.score*0.3 + costScore*0.3
				}

				combos = append(combos, scoredCollar{
					put: p.contract, call: c.contract,
					netCost: netCost, dte: p.dte, score: score,
				})
			}
		}
	}

	if len(combos) == 0 {
		return nil
	}
	sort.SliceStable(combos, func(i, j int) bool { return combos[i].score > combos[j].score })

	best := combos[0]
	structure := &models.SelectedStructure{
		Strategy: string(KindCollar),
		Legs: []models.StructureLeg{
			{Role: models.RoleLongPut, Side: models.OrderSideBuy, Contract: best.put},
			{Role: models.RoleShortCall, Side: models.OrderSideSell, Contract: best.call},
		},
		MaxRisk:      price - best.put.Strike + best.netCost,
		MaxReward:    best.call.Strike - price - best.netCost,
		Breakevens:   []float64{price + best.netCost},
		DaysToExpiry: best.dte,
		Expiry:       best.put.Expiry,
		Score:        best.score,
	}
	if best.netCost >= 0 {
		structure.NetDebit = best.netCost
	} else {
		structure.NetCredit = -best.netCost
	}
	return structure
}

// AdjustPosition checks each collar boundary in priority order: the
// protective put, the short call, expiry pressure, then the profit target.
func (s *Collar) AdjustPosition(pos *models.Position, price float64) models.Adjustment {
	if pos == nil || pos.PutStrike <= 0 || pos.CallStrike <= 0 || pos.CallExpiry == "" {
		return models.NoAction("incomplete position details for collar")
	}

	dte, err := s.positionDTE(pos.CallExpiry)
	if err != nil {
		return models.NoAction(fmt.Sprintf("unparsable collar expiry %q", pos.CallExpiry))
	}

	if price <= pos.PutStrike*collarPutBand {
		if dte <= collarCloseDTE {
			return models.Adjustment{
				Action: models.ActionCloseCollar,
				Reason: fmt.Sprintf("price %.2f testing put protection near expiration (%d days)", price, dte),
			}
		}
		return models.Adjustment{
			Action: models.ActionMonitorPutProtection,
			Reason: fmt.Sprintf("price %.2f approaching put strike %.2f", price, pos.PutStrike),
		}
	}

	if price >= pos.CallStrike*collarCallBand {
		if dte <= collarCloseDTE {
			return models.Adjustment{
				Action: models.ActionCloseCollar,
				Reason: fmt.Sprintf("price %.2f at call strike near expiration (%d days)", price, dte),
			}
		}
		return models.Adjustment{
			Action: models.ActionRollCollarUp,
			Reason: fmt.Sprintf("price %.2f pressing call strike %.2f with %d days left", price, pos.CallStrike, dte),
		}
	}

	if dte <= collarRollDTE {
		return models.Adjustment{
			Action: models.ActionRollCollarOut,
			Reason: fmt.Sprintf("collar expiring in %d days", dte),
		}
	}

	if pos.EntryPrice > 0 {
		profitPct := (price - pos.EntryPrice) / pos.EntryPrice * 100
		mid := (pos.PutStrike + pos.CallStrike) / 2
		if price > mid && profitPct >= s.profitTargetPct {
			return models.Adjustment{
				Action: models.ActionCloseCollar,
				Reason: fmt.Sprintf("profit target reached: %.2f%% gain on the stock", profitPct),
			}
		}
	}

	return models.Adjustment{Action: models.ActionMonitor, Reason: "price within collar bounds"}
}

// OrderParameters builds order specs for collar actions.
func (s *Collar) OrderParameters(action models.Action, pos *models.Position, chain *models.OptionChain) *models.OrderSpec {
	if pos == nil {
		return nil
	}
	closeLegs := []models.LegRef{
		{Symbol: pos.Symbol, Strike: pos.PutStrike, Expiry: pos.PutExpiry, Kind: models.Put, Side: models.OrderSideSell},
		{Symbol: pos.Symbol, Strike: pos.CallStrike, Expiry: pos.CallExpiry, Kind: models.Call, Side: models.OrderSideBuy},
	}

	switch action {
	case models.ActionCloseCollar:
		return &models.OrderSpec{
			Action:    action,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeMarket,
			CloseLegs: closeLegs,
		}

	case models.ActionMonitorPutProtection, models.ActionMonitor:
		return &models.OrderSpec{
			Action:    action,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeInfoOnly,
		}

	case models.ActionRollCollarOut:
		if chain.Empty() {
			return nil
		}
		selected := s.SelectOptions(rollReference(pos), chain)
		if selected == nil {
			return nil
		}
		put := selected.Leg(models.RoleLongPut)
		call := selected.Leg(models.RoleShortCall)
		return &models.OrderSpec{
			Action:    action,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeNetDebit,
			CloseLegs: closeLegs,
			OpenLegs: []models.LegRef{
				{Symbol: pos.Symbol, Strike: put.Contract.Strike, Expiry: put.Contract.Expiry, Kind: models.Put, Side: models.OrderSideBuy},
				{Symbol: pos.Symbol, Strike: call.Contract.Strike, Expiry: call.Contract.Expiry, Kind: models.Call, Side: models.OrderSideSell},
			},
			MaxDebit: (put.Contract.Premium - call.Contract.Premium) * collarRollDebitFactor,
		}

	case models.ActionRollCollarUp:
		// Only the call moves; the protective put stays in place.
		if chain.Empty() || len(chain.Calls) == 0 {
			return nil
		}
		var best *models.OptionContract
		var bestScore float64
		ref := rollReference(pos)
		for i := range chain.Calls {
			oc := chain.Calls[i]
			if oc.Strike <= pos.CallStrike {
				continue
			}
			dte, ok := s.contractDTE(oc)
			if !ok || dte <= ccRollMinDTE || dte >= ccRollMaxDTE {
				continue
			}
			distPct := 0.0
			if ref > 0 {
				distPct = (oc.Strike - ref) / ref * 100
			}
			score := collarLegScore(oc.Delta, s.params.CallDeltaTarget, distPct, s.params.CallStrikeDist)
			if best == nil || score > bestScore {
				c := oc
				best, bestScore = &c, score
			}
		}
		if best == nil {
			return nil
		}
		return &models.OrderSpec{
			Action:    action,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeNetDebit,
			CloseLegs: []models.LegRef{
				{Symbol: pos.Symbol, Strike: pos.CallStrike, Expiry: pos.CallExpiry, Kind: models.Call, Side: models.OrderSideBuy},
			},
			OpenLegs: []models.LegRef{
				{Symbol: pos.Symbol, Strike: best.Strike, Expiry: best.Expiry, Kind: models.Call, Side: models.OrderSideSell},
			},
			MaxDebit: pos.CallPremium * collarCallRollFraction,
		}
	}
	return nil
}
