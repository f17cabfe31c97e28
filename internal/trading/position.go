package trading

import (
	"time"

	"github.com/google/uuid"

	"tradecover/internal/models"
	"tradecover/internal/strategy"
)

// PositionFromStructure maps a selected structure onto the flat position
// record for its strategy's field group.
func PositionFromStructure(symbol, strategyKind string, sel *models.SelectedStructure, price float64, quantity int) *models.Position {
	pos := &models.Position{
		ID:         uuid.New().String(),
		Symbol:     symbol,
		Strategy:   strategyKind,
		Quantity:   quantity,
		EntryPrice: price,
		OpenedAt:   time.Now(),
	}

	switch strategy.Kind(strategyKind) {
	case strategy.KindCoveredCall:
		leg := sel.Leg(models.RoleShortCall)
		pos.CallStrike = leg.Contract.Strike
		pos.CallPremium = leg.Contract.Premium
		pos.CallExpiry = leg.Contract.Expiry

	case strategy.KindCashSecuredPut, strategy.KindWheel:
		if leg := sel.Leg(models.RoleShortPut); leg != nil {
			pos.PutStrike = leg.Contract.Strike
			pos.PutPremium = leg.Contract.Premium
			pos.PutExpiry = leg.Contract.Expiry
			pos.Phase = models.PhasePutSelling
		} else if leg := sel.Leg(models.RoleShortCall); leg != nil {
			pos.CallStrike = leg.Contract.Strike
			pos.CallPremium = leg.Contract.Premium
			pos.CallExpiry = leg.Contract.Expiry
			pos.Phase = models.PhaseCallSelling
		}

	case strategy.KindCollar:
		put := sel.Leg(models.RoleLongPut)
		call := sel.Leg(models.RoleShortCall)
		pos.PutStrike = put.Contract.Strike
		pos.PutPremium = put.Contract.Premium
		pos.PutExpiry = put.Contract.Expiry
		pos.CallStrike = call.Contract.Strike
		pos.CallPremium = call.Contract.Premium
		pos.CallExpiry = call.Contract.Expiry

	case strategy.KindPutCreditSpread:
		short := sel.Leg(models.RoleShortPut)
		long := sel.Leg(models.RoleLongPut)
		pos.ShortStrike = short.Contract.Strike
		pos.LongStrike = long.Contract.Strike
		pos.NetCredit = sel.NetCredit
		pos.MaxRisk = sel.MaxRisk
		pos.ExpiryDate = sel.Expiry

	case strategy.KindIronCondor, strategy.KindIronButterfly:
		pos.ShortPutStrike = sel.Leg(models.RoleShortPut).Contract.Strike
		pos.LongPutStrike = sel.Leg(models.RoleLongPut).Contract.Strike
		pos.ShortCallStrike = sel.Leg(models.RoleShortCall).Contract.Strike
		pos.LongCallStrike = sel.Leg(models.RoleLongCall).Contract.Strike
		pos.TotalCredit = sel.NetCredit
		pos.MaxRisk = sel.MaxRisk
		pos.ExpiryDate = sel.Expiry

	case strategy.KindCalendarSpread, strategy.KindDiagonalSpread:
		near := sel.Leg(models.RoleNearShort)
		far := sel.Leg(models.RoleFarLong)
		pos.NearStrike = near.Contract.Strike
		pos.NearPremium = near.Contract.Premium
		pos.NearExpiry = near.Contract.Expiry
		pos.FarStrike = far.Contract.Strike
		pos.FarPremium = far.Contract.Premium
		pos.FarExpiry = far.Contract.Expiry
		pos.OptionKind = near.Contract.Kind
	}

	return pos
}
