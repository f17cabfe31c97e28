package strategy

import (
	"fmt"
	"math"
	"sort"

	"tradecover/internal/models"
)

// Iron condor thresholds.
const (
	icCloseSafeDTE          = 5   // close when safely between the shorts
	icAdjustDTE             = 7   // side adjustments allowed this close
	icSafeDistancePct       = 5.0 // distance making the position "safe", %
	icRiskDistancePct       = 2.0 // distance marking a threatened short, %
	icDeltaTol              = 0.1 // allowed deviation from the delta targets
	icAdjustDebitFraction   = 0.5 // max debit as fraction of the new side's credit
	icRangeScoreScale       = 5.0 // range deviation scale, %
	icCreditScoreMultiplier = 5.0
)

// IronCondor sells an OTM put spread and an OTM call spread with the same
// expiry, profiting while the price stays between the two short strikes.
type IronCondor struct {
	common
	params IronCondorParams
}

func newIronCondor(c common) *IronCondor {
	return &IronCondor{common: c, params: NewIronCondorParams(c.risk)}
}

// Kind returns the strategy kind.
func (s *IronCondor) Kind() Kind { return KindIronCondor }

// Params returns the risk-derived parameter set.
func (s *IronCondor) Params() IronCondorParams { return s.params }

// closestStrike returns the contract whose strike lands nearest the target,
// restricted by the keep filter. Returns nil when nothing qualifies.
func closestStrike(contracts []models.OptionContract, target float64, keep func(models.OptionContract) bool) *models.OptionContract {
	var best *models.OptionContract
	bestDiff := math.Inf(1)
	for i := range contracts {
		oc := contracts[i]
		if !keep(oc) {
			continue
		}
		if diff := math.Abs(oc.Strike - target); diff < bestDiff {
			bestDiff = diff
			c := oc
			best = &c
		}
	}
	return best
}

// SelectOptions anchors each candidate on an OTM short put near the delta
// target, then completes the wings and the call side around it.
func (s *IronCondor) SelectOptions(price float64, chain *models.OptionChain) *models.SelectedStructure {
	if price <= 0 || chain.Empty() || len(chain.Puts) == 0 || len(chain.Calls) == 0 {
		return nil
	}

	sortedPuts := make([]models.OptionContract, len(chain.Puts))
	copy(sortedPuts, chain.Puts)
	sort.SliceStable(sortedPuts, func(i, j int) bool { return sortedPuts[i].Strike < sortedPuts[j].Strike })

	sortedCalls := make([]models.OptionContract, len(chain.Calls))
	copy(sortedCalls, chain.Calls)
	sort.SliceStable(sortedCalls, func(i, j int) bool { return sortedCalls[i].Strike < sortedCalls[j].Strike })

	wingWidth := price * s.params.WingWidthPct / 100

	type scoredCondor struct {
		shortPut, longPut, shortCall, longCall models.OptionContract
		totalCredit, maxRisk                   float64
		dte                                    int
		score                                  float64
	}
	var condors []scoredCondor

	for i, shortPut := range sortedPuts {
		if shortPut.Strike >= price {
			continue
		}
		if math.Abs(math.Abs(shortPut.Delta)-s.params.PutDeltaTarget) > icDeltaTol {
			continue
		}
		dte, ok := s.contractDTE(shortPut)
		if !ok || !s.withinWindow(dte) {
			continue
		}

		sameExpiry := func(oc models.OptionContract) bool {
			d, ok := s.contractDTE(oc)
			return ok && d == dte && oc.Expiry == shortPut.Expiry
		}

		longPut := closestStrike(sortedPuts[:i], shortPut.Strike-wingWidth, sameExpiry)
		if longPut == nil {
			continue
		}

		targetShortCall := shortPut.Strike + price*s.params.RangeWidthPct/100
		shortCall := closestStrike(sortedCalls, targetShortCall, func(oc models.OptionContract) bool {
			if oc.Strike <= price || !sameExpiry(oc) {
				return false
			}
			return math.Abs(math.Abs(oc.Delta)-s.params.CallDeltaTarget) <= icDeltaTol
		})
		if shortCall == nil {
			continue
		}

		longCall := closestStrike(sortedCalls, shortCall.Strike+wingWidth, func(oc models.OptionContract) bool {
			return oc.Strike > shortCall.Strike && sameExpiry(oc)
		})
		if longCall == nil {
			continue
		}

		putCredit := shortPut.Premium - longPut.Premium
		callCredit := shortCall.Premium - longCall.Premium
		totalCredit := putCredit + callCredit

		putWidth := shortPut.Strike - longPut.Strike
		callWidth := longCall.Strike - shortCall.Strike
		maxWidth := math.Max(putWidth, callWidth)
		maxRisk := maxWidth - totalCredit
		if maxRisk <= 0 || putWidth <= 0 || callWidth <= 0 {
			continue
		}
		if totalCredit < maxRisk*s.params.CreditMinPct/100 {
			continue
		}

		// Equal wings score 1.0.
		widthRatio := math.Min(putWidth, callWidth) / maxWidth
		rangePct := (shortCall.Strike - shortPut.Strike) / price * 100
		rangeScore := 1 - math.Abs(rangePct-s.params.RangeWidthPct)/icRangeScoreScale
		creditScore := totalCredit / maxRisk * icCreditScoreMultiplier
		expScore := expiryScore(dte, s.expiryDays)

		var score float64
		switch s.risk {
		case models.RiskConservative:
			score = widthRatio*0.3 + rangeScore*0.3 + creditScore*0.2 + expScore*0.2
		case models.RiskAggressive:
			score = widthRatio*0.2 + rangeScore*0.2 + creditScore*0.5 + expScore*0.1
		default:
			score = widthRatio*0.25 + rangeScore*0.25 + creditScore*0.3 + expScore*0.2
		}

		condors = append(condors, scoredCondor{
			shortPut: shortPut, longPut: *longPut, shortCall: *shortCall, longCall: *longCall,
			totalCredit: totalCredit, maxRisk: maxRisk, dte: dte, score: score,
		})
	}

	if len(condors) == 0 {
		return nil
	}
	sort.SliceStable(condors, func(i, j int) bool { return condors[i].score > condors[j].score })

	best := condors[0]
	return &models.SelectedStructure{
		Strategy: string(KindIronCondor),
		Legs: []models.StructureLeg{
			{Role: models.RoleShortPut, Side: models.OrderSideSell, Contract: best.shortPut},
			{Role: models.RoleLongPut, Side: models.OrderSideBuy, Contract: best.longPut},
			{Role: models.RoleShortCall, Side: models.OrderSideSell, Contract: best.shortCall},
			{Role: models.RoleLongCall, Side: models.OrderSideBuy, Contract: best.longCall},
		},
		NetCredit:    best.totalCredit,
		MaxRisk:      best.maxRisk,
		MaxReward:    best.totalCredit,
		Breakevens:   []float64{best.shortPut.Strike - best.totalCredit, best.shortCall.Strike + best.totalCredit},
		DaysToExpiry: best.dte,
		Expiry:       best.shortPut.Expiry,
		Score:        best.score,
	}
}

// condorRiskPct places the price in one of the condor's zones and returns
// the fraction of max risk realized there, 0 to 100.
func condorRiskPct(pos *models.Position, price float64) float64 {
	switch {
	case price <= pos.LongPutStrike || price >= pos.LongCallStrike:
		return 100
	case price < pos.ShortPutStrike:
		return (pos.ShortPutStrike - price) / (pos.ShortPutStrike - pos.LongPutStrike) * 100
	case price > pos.ShortCallStrike:
		return (price - pos.ShortCallStrike) / (pos.LongCallStrike - pos.ShortCallStrike) * 100
	}
	return 0
}

// AdjustPosition estimates the condor's modeled P/L, then checks which
// short strike the price threatens.
func (s *IronCondor) AdjustPosition(pos *models.Position, price float64) models.Adjustment {
	if pos == nil || pos.ShortPutStrike <= 0 || pos.LongPutStrike <= 0 ||
		pos.ShortCallStrike <= 0 || pos.LongCallStrike <= 0 || pos.ExpiryDate == "" {
		return models.NoAction("incomplete position details for iron condor")
	}

	dte, err := s.positionDTE(pos.ExpiryDate)
	if err != nil {
		return models.NoAction(fmt.Sprintf("unparsable condor expiry %q", pos.ExpiryDate))
	}

	putDistPct := (price - pos.ShortPutStrike) / pos.ShortPutStrike * 100
	callDistPct := (pos.ShortCallStrike - price) / pos.ShortCallStrike * 100
	atRiskPut := putDistPct < callDistPct
	atRiskDist := math.Min(putDistPct, callDistPct)

	// The P/L estimate needs the recorded credit and risk; without them
	// only the proximity rules apply.
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
				Action: models.ActionCloseCondor,
				Reason: fmt.Sprintf("profit target reached: %.2f%% profit", profitPct),
			}
		}
		if profitPct <= -s.stopLossPct {
			return models.Adjustment{
				Action: models.ActionCloseCondor,
				Reason: fmt.Sprintf("stop loss triggered: %.2f%% loss", profitPct),
			}
		}
	}

	if dte <= icCloseSafeDTE && atRiskDist > icSafeDistancePct {
		return models.Adjustment{
			Action: models.ActionCloseCondor,
			Reason: fmt.Sprintf("near expiration (%d days) with low risk", dte),
		}
	}

	if dte <= icAdjustDTE && atRiskDist < icRiskDistancePct {
		if atRiskPut {
			return models.Adjustment{
				Action: models.ActionAdjustPutSide,
				Reason: fmt.Sprintf("near expiration (%d days) with price close to short put strike", dte),
			}
		}
		return models.Adjustment{
			Action: models.ActionAdjustCallSide,
			Reason: fmt.Sprintf("near expiration (%d days) with price close to short call strike", dte),
		}
	}

	return models.NoAction("position within parameters")
}

// OrderParameters builds order specs for condor actions. Side adjustments
// keep the healthy side open and roll only the threatened spread.
func (s *IronCondor) OrderParameters(action models.Action, pos *models.Position, chain *models.OptionChain) *models.OrderSpec {
	if pos == nil {
		return nil
	}

	putLegs := []models.LegRef{
		{Symbol: pos.Symbol, Strike: pos.ShortPutStrike, Expiry: pos.ExpiryDate, Kind: models.Put, Side: models.OrderSideBuy},
		{Symbol: pos.Symbol, Strike: pos.LongPutStrike, Expiry: pos.ExpiryDate, Kind: models.Put, Side: models.OrderSideSell},
	}
	callLegs := []models.LegRef{
		{Symbol: pos.Symbol, Strike: pos.ShortCallStrike, Expiry: pos.ExpiryDate, Kind: models.Call, Side: models.OrderSideBuy},
		{Symbol: pos.Symbol, Strike: pos.LongCallStrike, Expiry: pos.ExpiryDate, Kind: models.Call, Side: models.OrderSideSell},
	}

	switch action {
	case models.ActionCloseCondor:
		return &models.OrderSpec{
			Action:    action,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeMarket,
			CloseLegs: append(append([]models.LegRef{}, putLegs...), callLegs...),
		}

	case models.ActionAdjustPutSide:
		if chain.Empty() || len(chain.Puts) == 0 {
			return nil
		}
		// Re-select a put spread against the same expiry only.
		filtered := &models.OptionChain{Symbol: chain.Symbol}
		for _, p := range chain.Puts {
			if p.Expiry == pos.ExpiryDate {
				filtered.Puts = append(filtered.Puts, p)
			}
		}
		spread := newPutCreditSpread(s.common).SelectOptions(rollReference(pos), filtered)
		if spread == nil {
			return nil
		}
		short := spread.Leg(models.RoleShortPut)
		long := spread.Leg(models.RoleLongPut)
		return &models.OrderSpec{
			Action:    action,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeNetDebit,
			CloseLegs: putLegs,
			OpenLegs: []models.LegRef{
				{Symbol: pos.Symbol, Strike: short.Contract.Strike, Expiry: short.Contract.Expiry, Kind: models.Put, Side: models.OrderSideSell},
				{Symbol: pos.Symbol, Strike: long.Contract.Strike, Expiry: long.Contract.Expiry, Kind: models.Put, Side: models.OrderSideBuy},
			},
			MaxDebit: spread.NetCredit * icAdjustDebitFraction,
		}

	case models.ActionAdjustCallSide:
		if chain.Empty() || len(chain.Calls) == 0 {
			return nil
		}
		var higher []models.OptionContract
		for _, c := range chain.Calls {
			if c.Expiry == pos.ExpiryDate && c.Strike > pos.ShortCallStrike {
				higher = append(higher, c)
			}
		}
		if len(higher) == 0 {
			return nil
		}
		sort.SliceStable(higher, func(i, j int) bool {
			return math.Abs(math.Abs(higher[i].Delta)-s.params.CallDeltaTarget) <
				math.Abs(math.Abs(higher[j].Delta)-s.params.CallDeltaTarget)
		})
		newShort := higher[0]

		originalWidth := pos.LongCallStrike - pos.ShortCallStrike
		newLong := closestStrike(higher, newShort.Strike+originalWidth, func(oc models.OptionContract) bool {
			return oc.Strike > newShort.Strike
		})
		if newLong == nil {
			return nil
		}
		return &models.OrderSpec{
			Action:    action,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeNetDebit,
			CloseLegs: callLegs,
			OpenLegs: []models.LegRef{
				{Symbol: pos.Symbol, Strike: newShort.Strike, Expiry: pos.ExpiryDate, Kind: models.Call, Side: models.OrderSideSell},
				{Symbol: pos.Symbol, Strike: newLong.Strike, Expiry: pos.ExpiryDate, Kind: models.Call, Side: models.OrderSideBuy},
			},
			MaxDebit: (newShort.Premium - newLong.Premium) * icAdjustDebitFraction,
		}
	}
	return nil
}
