package strategy

import (
	"fmt"
	"math"
	"sort"

	"tradecover/internal/models"
)

// Diagonal spread thresholds.
const (
	dgBreachBand         = 1.02 // price meaningfully through the short strike
	dgFavorableBand      = 0.98 // price comfortably below the short strike
	dgShortRollDTE       = 5    // front leg close enough to roll
	dgFarCloseDTE        = 5    // back leg too close to expiry to hold
	dgRollCreditFraction = 0.3  // min credit as fraction of the new premium
)

// DiagonalSpread buys a far-dated ITM call and sells a near-dated OTM call
// at a higher strike, a covered call financed with a long option instead
// of stock.
type DiagonalSpread struct {
	common
	params DiagonalParams
}

func newDiagonalSpread(c common) *DiagonalSpread {
	return &DiagonalSpread{common: c, params: NewDiagonalParams(c.risk)}
}

// Kind returns the strategy kind.
func (s *DiagonalSpread) Kind() Kind { return KindDiagonalSpread }

// Params returns the risk-derived parameter set.
func (s *DiagonalSpread) Params() DiagonalParams { return s.params }

// SelectOptions pairs a deep long call with a higher-strike front call,
// keeping pairs whose strike gap, expiry gap, and premium ratio clear the
// floors.
func (s *DiagonalSpread) SelectOptions(price float64, chain *models.OptionChain) *models.SelectedStructure {
	if price <= 0 || chain.Empty() || len(chain.Calls) == 0 {
		return nil
	}

	type scoredDiagonal struct {
		near, far models.OptionContract
		netDebit  float64
		dte       int
		score     float64
	}
	var diagonals []scoredDiagonal

	for _, far := range chain.Calls {
		if far.Premium <= 0 {
			continue
		}
		if math.Abs(math.Abs(far.Delta)-s.params.LongDeltaTarget) > s.params.DeltaTol {
			continue
		}
		farDTE, ok := s.contractDTE(far)
		if !ok {
			continue
		}

		for _, near := range chain.Calls {
			if near.Strike <= far.Strike || near.Expiry == far.Expiry {
				continue
			}
			if math.Abs(math.Abs(near.Delta)-s.params.ShortDeltaTarget) > s.params.DeltaTol {
				continue
			}
			nearDTE, ok := s.contractDTE(near)
			if !ok || nearDTE >= farDTE || !s.withinWindow(nearDTE) {
				continue
			}

			expiryGap := farDTE - nearDTE
			if expiryGap < s.params.ExpiryGapDays-s.params.GapToleranceDays ||
				expiryGap > s.params.ExpiryGapDays+s.params.GapToleranceDays {
				continue
			}

			gapPct := (near.Strike - far.Strike) / price * 100
			gapDeviation := math.Abs(gapPct-s.params.StrikeGapPct) / s.params.StrikeGapPct * 100
			if gapDeviation > s.params.GapTolPct {
				continue
			}

			ratioPct := near.Premium / far.Premium * 100
			if ratioPct < s.params.PremiumRatioMin {
				continue
			}
			netDebit := far.Premium - near.Premium
			if netDebit <= 0 {
				continue
			}

			shortScore := deltaScore(near.Delta, s.params.ShortDeltaTarget)
			longScore := deltaScore(far.Delta, s.params.LongDeltaTarget)
			gapScore := 1 - gapDeviation/100
			ratioScore := ratioPct / 100

			var score float64
			switch s.risk {
			case models.RiskConservative:
				score = shortScore*0.3 + longScore*0.3 + gapScore*0.2 + ratioScore*0.2
			case models.RiskAggressive:
				score = shortScore*0.2 + longScore*0.2 + gapScore*0.2 + ratioScore*0.4
			default:
				score = shortScore*0.25 + longScore*0.25 + gapScore*0.25 + ratioScore*0.25
			}

			diagonals = append(diagonals, scoredDiagonal{
				near: near, far: far, netDebit: netDebit, dte: nearDTE, score: score,
			})
		}
	}

	if len(diagonals) == 0 {
		return nil
	}
	sort.SliceStable(diagonals, func(i, j int) bool { return diagonals[i].score > diagonals[j].score })

	best := diagonals[0]
	return &models.SelectedStructure{
		Strategy: string(KindDiagonalSpread),
		Legs: []models.StructureLeg{
			{Role: models.RoleNearShort, Side: models.OrderSideSell, Contract: best.near},
			{Role: models.RoleFarLong, Side: models.OrderSideBuy, Contract: best.far},
		},
		NetDebit:     best.netDebit,
		MaxRisk:      best.netDebit,
		MaxReward:    (best.near.Strike - best.far.Strike) - best.netDebit,
		Breakevens:   []float64{best.far.Strike + best.netDebit},
		DaysToExpiry: best.dte,
		Expiry:       best.near.Expiry,
		Score:        best.score,
	}
}

// AdjustPosition closes on a meaningful breach of the short strike and
// rolls the front leg when it is expiring with the price below it.
func (s *DiagonalSpread) AdjustPosition(pos *models.Position, price float64) models.Adjustment {
	if pos == nil || pos.NearStrike <= 0 || pos.FarStrike <= 0 ||
		pos.NearExpiry == "" || pos.FarExpiry == "" {
		return models.NoAction("incomplete position details for diagonal spread")
	}

	nearDTE, err := s.positionDTE(pos.NearExpiry)
	if err != nil {
		return models.NoAction(fmt.Sprintf("unparsable front expiry %q", pos.NearExpiry))
	}
	farDTE, err := s.positionDTE(pos.FarExpiry)
	if err != nil {
		return models.NoAction(fmt.Sprintf("unparsable back expiry %q", pos.FarExpiry))
	}

	if price >= pos.NearStrike*dgBreachBand {
		return models.Adjustment{
			Action: models.ActionCloseDiagonal,
			Reason: fmt.Sprintf("price %.2f through short strike %.2f", price, pos.NearStrike),
		}
	}

	if nearDTE <= dgShortRollDTE && price < pos.NearStrike*dgFavorableBand {
		return models.Adjustment{
			Action: models.ActionRollDiagonalShort,
			Reason: fmt.Sprintf("front leg expiring (%d days) with price below strike %.2f", nearDTE, pos.NearStrike),
		}
	}

	if farDTE <= dgFarCloseDTE {
		return models.Adjustment{
			Action: models.ActionCloseDiagonal,
			Reason: fmt.Sprintf("back leg near expiration (%d days)", farDTE),
		}
	}

	return models.NoAction("position within parameters")
}

// OrderParameters builds order specs for diagonal actions. ROLL replaces
// only the front leg, re-targeting the short delta on the fresh chain.
func (s *DiagonalSpread) OrderParameters(action models.Action, pos *models.Position, chain *models.OptionChain) *models.OrderSpec {
	if pos == nil {
		return nil
	}
	kind := pos.OptionKind
	if kind == "" {
		kind = models.Call
	}

	switch action {
	case models.ActionCloseDiagonal:
		return &models.OrderSpec{
			Action:    action,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeMarket,
			CloseLegs: []models.LegRef{
				{Symbol: pos.Symbol, Strike: pos.NearStrike, Expiry: pos.NearExpiry, Kind: kind, Side: models.OrderSideBuy},
				{Symbol: pos.Symbol, Strike: pos.FarStrike, Expiry: pos.FarExpiry, Kind: kind, Side: models.OrderSideSell},
			},
		}

	case models.ActionRollDiagonalShort:
		if chain.Empty() {
			return nil
		}
		contracts := chain.Calls
		if kind == models.Put {
			contracts = chain.Puts
		}
		farDTE, err := s.positionDTE(pos.FarExpiry)
		if err != nil {
			return nil
		}

		var best *models.OptionContract
		bestDeltaDiff := math.Inf(1)
		for i := range contracts {
			oc := contracts[i]
			if oc.Strike <= pos.FarStrike || oc.Expiry == pos.NearExpiry {
				continue
			}
			dte, ok := s.contractDTE(oc)
			if !ok || dte < calRollMinDTE || dte >= farDTE {
				continue
			}
			diff := math.Abs(math.Abs(oc.Delta) - s.params.ShortDeltaTarget)
			if diff < bestDeltaDiff {
				bestDeltaDiff = diff
				c := oc
				best = &c
			}
		}
		if best == nil {
			return nil
		}
		return &models.OrderSpec{
			Action:    action,
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			OrderType: models.OrderTypeNetCredit,
			CloseLegs: []models.LegRef{
				{Symbol: pos.Symbol, Strike: pos.NearStrike, Expiry: pos.NearExpiry, Kind: kind, Side: models.OrderSideBuy},
			},
			OpenLegs: []models.LegRef{
				{Symbol: pos.Symbol, Strike: best.Strike, Expiry: best.Expiry, Kind: kind, Side: models.OrderSideSell},
			},
			MinCredit: best.Premium * dgRollCreditFraction,
		}
	}
	return nil
}
