package strategy

import (
	"fmt"
	"math"
	"sort"

	"tradecover/internal/models"
)

// Put credit spread thresholds.
const (
	pcsCloseDTE          = 5    // close when safe this near expiry
	pcsRollDTE           = 7    // roll window when threatened
	pcsSafeBand          = 1.02 // price safely above the short strike
	pcsRiskBand          = 0.98 // price pressing the short strike
	pcsWidthDeviationMax = 0.4  // allowed deviation from target width
	pcsRollDebitFraction = 0.3  // max debit as fraction of the new credit
	// Rough time-value rates for the mark-to-model estimate used by the
	// adjuster; short legs decay faster than long legs.
	pcsShortTimeValueRate = 0.01
	pcsLongTimeValueRate  = 0.005
)

// PutCreditSpread sells a put and buys a lower-strike put with the same
// expiry, collecting a net credit with defined risk.
type PutCreditSpread struct {
	common
	params PutCreditSpreadParams
}

func newPutCreditSpread(c common) *PutCreditSpread {
	return &PutCreditSpread{common: c, params: NewPutCreditSpreadParams(c.risk)}
}

// Kind returns the strategy kind.
func (s *PutCreditSpread) Kind() Kind { return KindPutCreditSpread }

// Params returns the risk-derived parameter set.
func (s *PutCreditSpread) Params() PutCreditSpreadParams { return s.params }

type scoredSpread struct {
	short     models.OptionContract
	long      models.OptionContract
	netCredit float64
	width     float64
	dte       int
	score     float64
}

// SelectOptions builds every short/long put pairing that clears the width
// and credit floors and returns the best.
func (s *PutCreditSpread) SelectOptions(price float64, chain *models.OptionChain) *models.SelectedStructure {
	if price <= 0 || chain.Empty() || len(chain.Puts) == 0 {
		return nil
	}

	sorted := make([]models.OptionContract, len(chain.Puts))
	copy(sorted, chain.Puts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Strike < sorted[j].Strike })

	targetWidth := price * s.params.WidthPct / 100
	var spreads []scoredSpread

	for i := len(sorted) - 1; i >= 1; i-- {
		short := sorted[i]
		if short.Strike <= 0 || short.Premium <= 0 {
			continue
		}
		shortDelta := math.Abs(short.Delta)
		if math.Abs(shortDelta-s.params.ShortDeltaTarget) > 0.15 {
			continue
		}
		dte, ok := s.contractDTE(short)
		if !ok || !s.withinWindow(dte) {
			continue
		}

		// Walk down to lower strikes for the protective long put.
		for j := i - 1; j >= 0; j-- {
			long := sorted[j]
			longDTE, ok := s.contractDTE(long)
			if !ok || longDTE != dte {
				continue
			}

			width := short.Strike - long.Strike
			netCredit := short.Premium - long.Premium
			if width <= 0 || netCredit <= 0 {
				continue
			}
			if math.Abs(width-targetWidth)/targetWidth > pcsWidthDeviationMax {
				continue
			}
			creditToWidth := netCredit / width
			if creditToWidth < s.params.CreditMinPct/100 {
				continue
			}

			widthPct := width / price * 100
			shortScore := deltaScore(short.Delta, s.params.ShortDeltaTarget)
			longScore := deltaScore(long.Delta, s.params.LongDeltaTarget)
			widthScore := 1 - math.Abs(widthPct-s.params.WidthPct)/5
			creditScore := creditToWidth * 5
			expScore := expiryScore(dte, s.expiryDays)

			var score float64
			switch s.risk {
			case models.RiskConservative:
				score = shortScore*0.3 + longScore*0.2 + widthScore*0.2 + creditScore*0.1 + expScore*0.2
			case models.RiskAggressive:
				score = shortScore*0.2 + longScore*0.1 + widthScore*0.2 + creditScore*0.4 + expScore*0.1
			default:
				score = shortScore*0.25 + longScore*0.15 + widthScore*0.2 + creditScore*0.25 + expScore*0.15
			}

			spreads = append(spreads, scoredSpread{
				short: short, long: long,
				netCredit: netCredit, width: width, dte: dte, score: score,
			})
			// One long put per short put avoids duplicate structures.
			break
		}
	}

	if len(spreads) == 0 {
		return nil
	}
	sort.SliceStable(spreads, func(i, j int) bool { return spreads[i].score > spreads[j].score })

	best := spreads[0]
	return &models.SelectedStructure{
		Strategy: string(KindPutCreditSpread),
		Legs: []models.StructureLeg{
			{Role: models.RoleShortPut, Side: models.OrderSideSell, Contract: best.short},
			{Role: models.RoleLongPut, Side: models.OrderSideBuy, Contract: best.long},
		},
		NetCredit:    best.netCredit,
		MaxRisk:      best.width - best.netCredit,
		MaxReward:    best.netCredit,
		Breakevens:   []float64{best.short.Strike - best.netCredit},
		DaysToExpiry: best.dte,
		Expiry:       best.short.Expiry,
		Score:        best.score,
	}
}

// estimateSpreadValue marks the spread to a simplified model: intrinsic
// value plus a linear time-value estimate that decays toward expiry.
func estimateSpreadValue(shortStrike, longStrike, price float64, dte int) float64 {
	intrinsicShort := math.Max(0, shortStrike-price)
	intrinsicLong := math.Max(0, longStrike-price)

	if dte <= 0 {
		return intrinsicShort - intrinsicLong
	}
	timeFactor := math.Min(1.0, float64(dte)/30)
	shortTV := shortStrike * pcsShortTimeValueRate * timeFactor
	longTV := longStrike * pcsLongTimeValueRate * timeFactor
	return (intrinsicShort + shortTV) - (intrinsicLong + longTV)
}

// AdjustPosition evaluates the spread's modeled P/L and proximity to the
// short strike.
func (s *PutCreditSpread) AdjustPosition(pos *models.Position, price float64) models.Adjustment {
	if pos == nil || pos.ShortStrike <= 0 || pos.LongStrike <= 0 || pos.ExpiryDate == "" {
		return models.NoAction("incomplete position details for put credit spread")
	}

	dte, err := s.positionDTE(pos.ExpiryDate)
	if err != nil {
		return models.NoAction(fmt.Sprintf("unparsable spread expiry %q", pos.ExpiryDate))
	}

	// The P/L estimate needs the recorded risk; without it only the
	// expiry-proximity rules apply.
	if pos.MaxRisk > 0 {
		currentValue := estimateSpreadValue(pos.ShortStrike, pos.LongStrike, price, dte)
		profit := pos.NetCredit - currentValue
		profitPct := profit / pos.MaxRisk * 100

		if profitPct >= s.profitTargetPct {
			return models.Adjustment{
				Action: models.ActionCloseSpread,
				Reason: fmt.Sprintf("profit target reached: %.2f%% profit", profitPct),
			}
		}
		if profitPct <= -s.stopLossPct {
			return models.Adjustment{
				Action: models.ActionCloseSpread,
				Reason: fmt.Sprintf("stop loss triggered: %.2f%% loss", profitPct),
			}
		}
	}

	if dte <= pcsCloseDTE && price > pos.ShortStrike*pcsSafeBand {
		return models.Adjustment{
			Action: models.ActionCloseSpread,
			Reason: fmt.Sprintf("near expiration (%d days) with low risk", dte),
		}
	}
	if dte <= pcsRollDTE && price < pos.ShortStrike*pcsRiskBand {
		return models.Adjustment{
			Action: models.ActionRollSpread,
			Reason: fmt.Sprintf("near expiration (%d days) with increasing risk", dte),
		}
	}
	return models.NoAction("position within parameters")
}

// OrderParameters builds order specs for spread actions. ROLL_SPREAD
// re-selects against the fresh chain and returns nil when no replacement
// spread qualifies.
func (s *PutCreditSpread) OrderParameters(action models.Action, pos *models.Position, chain *models.OptionChain) *models.OrderSpec {
	if pos == nil {
		return nil
	}
	closeLegs := []models.LegRef{
		{Symbol: pos.Symbol, Strike: pos.ShortStrike, Expiry: pos.ExpiryDate, Kind: models.Put, Side: models.OrderSideBuy},
		{Symbol: pos.Symbol, Strike: pos.LongStrike, Expiry: pos.ExpiryDate, Kind: models.Put, Side: models.OrderSideSell},
	}

	switch action {
	case models.ActionCloseSpread:
		return &models.OrderSpec{
			Action:    action,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeMarket,
			CloseLegs: closeLegs,
		}

	case models.ActionRollSpread:
		if chain.Empty() || len(chain.Puts) == 0 {
			return nil
		}
		selected := s.SelectOptions(rollReference(pos), chain)
		if selected == nil {
			return nil
		}
		short := selected.Leg(models.RoleShortPut)
		long := selected.Leg(models.RoleLongPut)
		return &models.OrderSpec{
			Action:    action,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeNetDebit,
			CloseLegs: closeLegs,
			OpenLegs: []models.LegRef{
				{Symbol: pos.Symbol, Strike: short.Contract.Strike, Expiry: short.Contract.Expiry, Kind: models.Put, Side: models.OrderSideSell},
				{Symbol: pos.Symbol, Strike: long.Contract.Strike, Expiry: long.Contract.Expiry, Kind: models.Put, Side: models.OrderSideBuy},
			},
			MaxDebit: selected.NetCredit * pcsRollDebitFraction,
		}
	}
	return nil
}
