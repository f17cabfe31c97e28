package strategy

import (
	"fmt"
	"math"
	"sort"

	"tradecover/internal/models"
)

// Calendar spread thresholds.
const (
	calShortRollDTE       = 1   // front leg about to expire
	calFarCloseDTE        = 5   // back leg too close to expiry to hold
	calNearStrikeBandPct  = 2.0 // price within this % of strike counts as "near"
	calRollMinDTE         = 7   // minimum runway for a replacement front leg
	calRollCreditFraction = 0.3 // min credit as fraction of the new premium
)

// CalendarSpread sells a near-term call and buys a far-term call at the
// same strike, harvesting the faster decay of the front leg.
type CalendarSpread struct {
	common
	params CalendarParams
}

func newCalendarSpread(c common) *CalendarSpread {
	return &CalendarSpread{common: c, params: NewCalendarParams(c.risk)}
}

// Kind returns the strategy kind.
func (s *CalendarSpread) Kind() Kind { return KindCalendarSpread }

// Params returns the risk-derived parameter set.
func (s *CalendarSpread) Params() CalendarParams { return s.params }

// SelectOptions pairs front and back calls sharing a strike, keeping
// pairs whose expiry gap and premium ratio clear the floors.
func (s *CalendarSpread) SelectOptions(price float64, chain *models.OptionChain) *models.SelectedStructure {
	if price <= 0 || chain.Empty() || len(chain.Calls) == 0 {
		return nil
	}

	type scoredCalendar struct {
		near, far models.OptionContract
		netDebit  float64
		dte       int
		score     float64
	}
	var calendars []scoredCalendar

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
			if near.Strike != far.Strike || near.Expiry == far.Expiry {
				continue
			}
			nearDTE, ok := s.contractDTE(near)
			if !ok || nearDTE >= farDTE || !s.withinWindow(nearDTE) {
				continue
			}

			gap := farDTE - nearDTE
			if gap < s.params.ExpiryGapDays-s.params.GapToleranceDays ||
				gap > s.params.ExpiryGapDays+s.params.GapToleranceDays {
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

			dScore := deltaScore(far.Delta, s.params.LongDeltaTarget)
			ratioScore := ratioPct / 100
			gapScore := 1 - math.Abs(float64(gap-s.params.ExpiryGapDays))/30

			var score float64
			switch s.risk {
			case models.RiskConservative:
				score = dScore*0.5 + ratioScore*0.2 + gapScore*0.3
			case models.RiskAggressive:
				score = dScore*0.2 + ratioScore*0.5 + gapScore*0.3
			default:
				score = dScore*0.3 + ratioScore*0.4 + gapScore*0.3
			}

			calendars = append(calendars, scoredCalendar{
				near: near, far: far, netDebit: netDebit, dte: nearDTE, score: score,
			})
		}
	}

	if len(calendars) == 0 {
		return nil
	}
	sort.SliceStable(calendars, func(i, j int) bool { return calendars[i].score > calendars[j].score })

	best := calendars[0]
	return &models.SelectedStructure{
		Strategy: string(KindCalendarSpread),
		Legs: []models.StructureLeg{
			{Role: models.RoleNearShort, Side: models.OrderSideSell, Contract: best.near},
			{Role: models.RoleFarLong, Side: models.OrderSideBuy, Contract: best.far},
		},
		NetDebit: best.netDebit,
		MaxRisk:  best.netDebit,
		// The reward depends on volatility at the front expiry; the short
		// premium is the tradable approximation.
		MaxReward:    best.near.Premium,
		DaysToExpiry: best.dte,
		Expiry:       best.near.Expiry,
		Score:        best.score,
	}
}

// AdjustPosition applies the front-leg expiry rules: roll when the price
// pins the strike, close when it has moved away or the back leg runs out
// of runway.
func (s *CalendarSpread) AdjustPosition(pos *models.Position, price float64) models.Adjustment {
	if pos == nil || pos.NearStrike <= 0 || pos.NearExpiry == "" || pos.FarExpiry == "" {
		return models.NoAction("incomplete position details for calendar spread")
	}

	nearDTE, err := s.positionDTE(pos.NearExpiry)
	if err != nil {
		return models.NoAction(fmt.Sprintf("unparsable front expiry %q", pos.NearExpiry))
	}
	farDTE, err := s.positionDTE(pos.FarExpiry)
	if err != nil {
		return models.NoAction(fmt.Sprintf("unparsable back expiry %q", pos.FarExpiry))
	}

	distPct := math.Abs(price-pos.NearStrike) / pos.NearStrike * 100

	if nearDTE <= calShortRollDTE {
		if distPct <= calNearStrikeBandPct {
			return models.Adjustment{
				Action: models.ActionRollCalendarShort,
				Reason: fmt.Sprintf("front leg expiring (%d days) with price pinning strike %.2f", nearDTE, pos.NearStrike),
			}
		}
		return models.Adjustment{
			Action: models.ActionCloseCalendar,
			Reason: fmt.Sprintf("front leg expiring (%d days) with price %.2f%% away from strike", nearDTE, distPct),
		}
	}

	if farDTE <= calFarCloseDTE {
		return models.Adjustment{
			Action: models.ActionCloseCalendar,
			Reason: fmt.Sprintf("back leg near expiration (%d days)", farDTE),
		}
	}

	return models.NoAction("position within parameters")
}

// OrderParameters builds order specs for calendar actions. ROLL replaces
// only the front leg; the back leg stays open.
func (s *CalendarSpread) OrderParameters(action models.Action, pos *models.Position, chain *models.OptionChain) *models.OrderSpec {
	if pos == nil {
		return nil
	}
	kind := pos.OptionKind
	if kind == "" {
		kind = models.Call
	}

	switch action {
	case models.ActionCloseCalendar:
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

	case models.ActionRollCalendarShort:
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

		// Next cycle at the same strike, leaving room before the back leg.
		var best *models.OptionContract
		bestDTE := 0
		for i := range contracts {
			oc := contracts[i]
			if oc.Strike != pos.NearStrike || oc.Expiry == pos.NearExpiry {
				continue
			}
			dte, ok := s.contractDTE(oc)
			if !ok || dte < calRollMinDTE || dte >= farDTE {
				continue
			}
			if best == nil || dte < bestDTE {
				c := oc
				best, bestDTE = &c, dte
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
			MinCredit: best.Premium * calRollCreditFraction,
		}
	}
	return nil
}
