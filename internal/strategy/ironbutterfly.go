package strategy

import (
	"fmt"
	"math"
	"sort"

	"tradecover/internal/models"
)

// Iron butterfly thresholds.
const (
	ibCloseInsideDTE    = 5    // close inside the breakevens this near expiry
	ibCloseOutsideDTE   = 7    // close outside the breakevens this near expiry
	ibRecenterMinDTE    = 15   // recentering only pays with time left
	ibRecenterDriftPct  = 5.0  // price drift from center triggering a recenter
	ibCenterDelta       = 0.5  // ATM delta anchor for the center strike
	ibRollDebitFraction = 0.5  // max debit as fraction of the new credit
)

// IronButterfly sells a straddle at the center strike and buys a wing on
// each side, collecting a larger credit than a condor in exchange for a
// narrower profit zone.
type IronButterfly struct {
	common
	params IronButterflyParams
}

func newIronButterfly(c common) *IronButterfly {
	return &IronButterfly{common: c, params: NewIronButterflyParams(c.risk)}
}

// Kind returns the strategy kind.
func (s *IronButterfly) Kind() Kind { return KindIronButterfly }

// Params returns the risk-derived parameter set.
func (s *IronButterfly) Params() IronButterflyParams { return s.params }

// SelectOptions anchors on an ATM call near delta 0.5, pairs it with the
// put at the same strike and expiry, and completes the wings around them.
func (s *IronButterfly) SelectOptions(price float64, chain *models.OptionChain) *models.SelectedStructure {
	if price <= 0 || chain.Empty() || len(chain.Puts) == 0 || len(chain.Calls) == 0 {
		return nil
	}

	wingWidth := price * s.params.WingWidthPct / 100

	type scoredButterfly struct {
		centerPut, centerCall, longPut, longCall models.OptionContract
		totalCredit, maxRisk                     float64
		dte                                      int
		score                                    float64
	}
	var butterflies []scoredButterfly

	for _, centerCall := range chain.Calls {
		if math.Abs(math.Abs(centerCall.Delta)-ibCenterDelta) > s.params.CenterDeltaTol {
			continue
		}
		dte, ok := s.contractDTE(centerCall)
		if !ok || !s.withinWindow(dte) {
			continue
		}

		sameExpiry := func(oc models.OptionContract) bool {
			d, ok := s.contractDTE(oc)
			return ok && d == dte && oc.Expiry == centerCall.Expiry
		}

		// The put sold at the center must share strike and expiry exactly.
		var centerPut *models.OptionContract
		for i := range chain.Puts {
			p := chain.Puts[i]
			if p.Strike == centerCall.Strike && sameExpiry(p) {
				centerPut = &p
				break
			}
		}
		if centerPut == nil {
			continue
		}

		longPut := closestStrike(chain.Puts, centerCall.Strike-wingWidth, func(oc models.OptionContract) bool {
			return oc.Strike < centerCall.Strike && sameExpiry(oc)
		})
		if longPut == nil {
			continue
		}
		longCall := closestStrike(chain.Calls, centerCall.Strike+wingWidth, func(oc models.OptionContract) bool {
			return oc.Strike > centerCall.Strike && sameExpiry(oc)
		})
		if longCall == nil {
			continue
		}

		totalCredit := centerPut.Premium + centerCall.Premium - longPut.Premium - longCall.Premium
		putWidth := centerCall.Strike - longPut.Strike
		callWidth := longCall.Strike - centerCall.Strike
		maxWidth := math.Max(putWidth, callWidth)
		maxRisk := maxWidth - totalCredit
		if maxRisk <= 0 || putWidth <= 0 || callWidth <= 0 {
			continue
		}
		if totalCredit < maxRisk*s.params.CreditMinPct/100 {
			continue
		}

		widthRatio := math.Min(putWidth, callWidth) / maxWidth
		centerScore := deltaScore(centerCall.Delta, ibCenterDelta)
		creditScore := totalCredit / maxRisk
		expScore := expiryScore(dte, s.expiryDays)

		var score float64
		switch s.risk {
		case models.RiskConservative:
			score = widthRatio*0.3 + centerScore*0.3 + creditScore*0.2 + expScore*0.2
		case models.RiskAggressive:
			score = widthRatio*0.2 + centerScore*0.2 + creditScore*0.5 + expScore*0.1
		default:
			score = widthRatio*0.25 + centerScore*0.25 + creditScore*0.3 + expScore*0.2
		}

		butterflies = append(butterflies, scoredButterfly{
			centerPut: *centerPut, centerCall: centerCall, longPut: *longPut, longCall: *longCall,
			totalCredit: totalCredit, maxRisk: maxRisk, dte: dte, score: score,
		})
	}

	if len(butterflies) == 0 {
		return nil
	}
	sort.SliceStable(butterflies, func(i, j int) bool { return butterflies[i].score > butterflies[j].score })

	best := butterflies[0]
	return &models.SelectedStructure{
		Strategy: string(KindIronButterfly),
		Legs: []models.StructureLeg{
			{Role: models.RoleShortPut, Side: models.OrderSideSell, Contract: best.centerPut},
			{Role: models.RoleLongPut, Side: models.OrderSideBuy, Contract: best.longPut},
			{Role: models.RoleShortCall, Side: models.OrderSideSell, Contract: best.centerCall},
			{Role: models.RoleLongCall, Side: models.OrderSideBuy, Contract: best.longCall},
		},
		NetCredit:    best.totalCredit,
		MaxRisk:      best.maxRisk,
		MaxReward:    best.totalCredit,
		Breakevens:   []float64{best.centerCall.Strike - best.totalCredit, best.centerCall.Strike + best.totalCredit},
		DaysToExpiry: best.dte,
		Expiry:       best.centerCall.Expiry,
		Score:        best.score,
	}
}

// AdjustPosition estimates the butterfly's modeled P/L, then applies the
// breakeven and drift rules around the center strike.
func (s *IronButterfly) AdjustPosition(pos *models.Position, price float64) models.Adjustment {
	if pos == nil || pos.ShortPutStrike <= 0 || pos.LongPutStrike <= 0 ||
		pos.ShortCallStrike <= 0 || pos.LongCallStrike <= 0 || pos.ExpiryDate == "" {
		return models.NoAction("incomplete position details for iron butterfly")
	}

	dte, err := s.positionDTE(pos.ExpiryDate)
	if err != nil {
		return models.NoAction(fmt.Sprintf("unparsable butterfly expiry %q", pos.ExpiryDate))
	}

	center := pos.ShortCallStrike
	drift := math.Abs(price - center)

	if pos.MaxRisk > 0 {
		riskPct := condorRiskPct(pos, price)
		var currentValue float64
		if riskPct == 0 {
			timeFactor := math.Min(1.0, float64(dte)/float64(s.expiryDays))
			currentValue = pos.TotalCredit * timeFactor
		} else {
			currentValue = pos.TotalCredit + pos.MaxRisk*riskPct/100
		}
		profitPct := (pos.TotalCredit - currentValue) / pos.MaxRisk * 100

		if profitPct >= s.profitTargetPct {
			return models.Adjustment{
				Action: models.ActionCloseButterfly,
				Reason: fmt.Sprintf("profit target reached: %.2f%% profit", profitPct),
			}
		}
		if profitPct <= -s.stopLossPct {
			return models.Adjustment{
				Action: models.ActionCloseButterfly,
				Reason: fmt.Sprintf("stop loss triggered: %.2f%% loss", profitPct),
			}
		}
	}

	insideBreakevens := pos.TotalCredit > 0 && drift < pos.TotalCredit
	if dte <= ibCloseInsideDTE && insideBreakevens {
		return models.Adjustment{
			Action: models.ActionCloseButterfly,
			Reason: fmt.Sprintf("near expiration (%d days) inside the breakevens", dte),
		}
	}
	if dte <= ibCloseOutsideDTE && !insideBreakevens {
		return models.Adjustment{
			Action: models.ActionCloseButterfly,
			Reason: fmt.Sprintf("near expiration (%d days) outside the breakevens", dte),
		}
	}

	if dte > ibRecenterMinDTE && drift/center*100 > ibRecenterDriftPct {
		return models.Adjustment{
			Action: models.ActionRecenterButterfly,
			Reason: fmt.Sprintf("price drifted %.2f%% from center strike %.2f", drift/center*100, center),
		}
	}

	return models.NoAction("position within parameters")
}

// OrderParameters builds order specs for butterfly actions. RECENTER
// re-selects a fresh butterfly around the current chain and swaps all four
// legs in one net-debit order.
func (s *IronButterfly) OrderParameters(action models.Action, pos *models.Position, chain *models.OptionChain) *models.OrderSpec {
	if pos == nil {
		return nil
	}
	closeLegs := []models.LegRef{
		{Symbol: pos.Symbol, Strike: pos.ShortPutStrike, Expiry: pos.ExpiryDate, Kind: models.Put, Side: models.OrderSideBuy},
		{Symbol: pos.Symbol, Strike: pos.LongPutStrike, Expiry: pos.ExpiryDate, Kind: models.Put, Side: models.OrderSideSell},
		{Symbol: pos.Symbol, Strike: pos.ShortCallStrike, Expiry: pos.ExpiryDate, Kind: models.Call, Side: models.OrderSideBuy},
		{Symbol: pos.Symbol, Strike: pos.LongCallStrike, Expiry: pos.ExpiryDate, Kind: models.Call, Side: models.OrderSideSell},
	}

	switch action {
	case models.ActionCloseButterfly:
		return &models.OrderSpec{
			Action:    action,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeMarket,
			CloseLegs: closeLegs,
		}

	case models.ActionRecenterButterfly:
		if chain.Empty() {
			return nil
		}
		selected := s.SelectOptions(rollReference(pos), chain)
		if selected == nil {
			return nil
		}
		openLegs := make([]models.LegRef, 0, len(selected.Legs))
		for _, leg := range selected.Legs {
			openLegs = append(openLegs, models.LegRef{
				Symbol: pos.Symbol,
				Strike: leg.Contract.Strike,
				Expiry: leg.Contract.Expiry,
				Kind:   leg.Contract.Kind,
				Side:   leg.Side,
			})
		}
		return &models.OrderSpec{
			Action:    action,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeNetDebit,
			CloseLegs: closeLegs,
			OpenLegs:  openLegs,
			MaxDebit:  selected.NetCredit * ibRollDebitFraction,
		}
	}
	return nil
}
