package strategy

import "tradecover/internal/models"

// Risk parameter tables. Each constructor is a pure function from risk
// level to an immutable parameter struct, evaluated once at strategy
// construction. The threshold values are deliberate per-strategy tuning,
// kept as the single source of truth for selection floors and targets.

// CoveredCallParams holds covered call selection parameters.
type CoveredCallParams struct {
	DeltaTarget   float64 // target delta for the short call
	PremiumMinPct float64 // minimum premium as % of stock price
	StrikeMinPct  float64 // minimum strike distance above spot, %
	BestCount     int     // candidates considered before window pruning
}

// NewCoveredCallParams derives covered call parameters from the risk level.
func NewCoveredCallParams(risk models.RiskLevel) CoveredCallParams {
	switch risk {
	case models.RiskConservative:
		return CoveredCallParams{DeltaTarget: 0.2, PremiumMinPct: 0.5, StrikeMinPct: 5.0, BestCount: 1}
	case models.RiskAggressive:
		return CoveredCallParams{DeltaTarget: 0.4, PremiumMinPct: 1.5, StrikeMinPct: 2.0, BestCount: 3}
	default: // moderate
		return CoveredCallParams{DeltaTarget: 0.3, PremiumMinPct: 1.0, StrikeMinPct: 3.0, BestCount: 2}
	}
}

// WheelParams holds wheel (cash-secured put + covered call) parameters.
type WheelParams struct {
	PutDeltaTarget    float64
	CallDeltaTarget   float64
	PremiumMinPct     float64 // minimum premium as % of stock price
	PutStrikeDistPct  float64 // % below spot for the short put
	CallStrikeDistPct float64 // % above cost basis for the short call
	BestCount         int
}

// NewWheelParams derives wheel parameters from the risk level.
func NewWheelParams(risk models.RiskLevel) WheelParams {
	switch risk {
	case models.RiskConservative:
		return WheelParams{PutDeltaTarget: 0.20, CallDeltaTarget: 0.20, PremiumMinPct: 0.5, PutStrikeDistPct: 5.0, CallStrikeDistPct: 5.0, BestCount: 1}
	case models.RiskAggressive:
		return WheelParams{PutDeltaTarget: 0.40, CallDeltaTarget: 0.40, PremiumMinPct: 1.5, PutStrikeDistPct: 2.0, CallStrikeDistPct: 2.0, BestCount: 3}
	default:
		return WheelParams{PutDeltaTarget: 0.30, CallDeltaTarget: 0.30, PremiumMinPct: 1.0, PutStrikeDistPct: 3.0, CallStrikeDistPct: 3.0, BestCount: 2}
	}
}

// CollarParams holds collar selection parameters.
type CollarParams struct {
	PutDeltaTarget   float64 // protective put
	CallDeltaTarget  float64 // short call
	PutStrikeDistPct float64 // % below spot for the put
	CallStrikeDist   float64 // % above spot for the call
	MaxNetDebitPct   float64 // max net debit as % of stock price
	BestCount        int
}

// NewCollarParams derives collar parameters from the risk level.
func NewCollarParams(risk models.RiskLevel) CollarParams {
	switch risk {
	case models.RiskConservative:
		return CollarParams{PutDeltaTarget: 0.30, CallDeltaTarget: 0.20, PutStrikeDistPct: 3.0, CallStrikeDist: 5.0, MaxNetDebitPct: 1.0, BestCount: 1}
	case models.RiskAggressive:
		return CollarParams{PutDeltaTarget: 0.15, CallDeltaTarget: 0.35, PutStrikeDistPct: 7.0, CallStrikeDist: 3.0, MaxNetDebitPct: 0.3, BestCount: 3}
	default:
		return CollarParams{PutDeltaTarget: 0.25, CallDeltaTarget: 0.25, PutStrikeDistPct: 5.0, CallStrikeDist: 4.0, MaxNetDebitPct: 0.75, BestCount: 2}
	}
}

// PutCreditSpreadParams holds put credit spread selection parameters.
type PutCreditSpreadParams struct {
	ShortDeltaTarget float64
	LongDeltaTarget  float64
	WidthPct         float64 // target width between strikes as % of spot
	CreditMinPct     float64 // minimum credit as % of spread width
	BestCount        int
}

// NewPutCreditSpreadParams derives spread parameters from the risk level.
func NewPutCreditSpreadParams(risk models.RiskLevel) PutCreditSpreadParams {
	switch risk {
	case models.RiskConservative:
		return PutCreditSpreadParams{ShortDeltaTarget: 0.25, LongDeltaTarget: 0.15, WidthPct: 5.0, CreditMinPct: 0.4, BestCount: 1}
	case models.RiskAggressive:
		return PutCreditSpreadParams{ShortDeltaTarget: 0.40, LongDeltaTarget: 0.25, WidthPct: 7.5, CreditMinPct: 0.8, BestCount: 3}
	default:
		return PutCreditSpreadParams{ShortDeltaTarget: 0.30, LongDeltaTarget: 0.20, WidthPct: 6.0, CreditMinPct: 0.6, BestCount: 2}
	}
}

// IronCondorParams holds iron condor selection parameters.
type IronCondorParams struct {
	PutDeltaTarget  float64
	CallDeltaTarget float64
	WingWidthPct    float64 // width of each wing as % of spot
	CreditMinPct    float64 // minimum credit as % of max risk
	RangeWidthPct   float64 // width between short strikes as % of spot
}

// NewIronCondorParams derives condor parameters from the risk level.
func NewIronCondorParams(risk models.RiskLevel) IronCondorParams {
	switch risk {
	case models.RiskConservative:
		return IronCondorParams{PutDeltaTarget: 0.15, CallDeltaTarget: 0.15, WingWidthPct: 5.0, CreditMinPct: 0.7, RangeWidthPct: 15.0}
	case models.RiskAggressive:
		return IronCondorParams{PutDeltaTarget: 0.30, CallDeltaTarget: 0.30, WingWidthPct: 4.0, CreditMinPct: 1.2, RangeWidthPct: 10.0}
	default:
		return IronCondorParams{PutDeltaTarget: 0.20, CallDeltaTarget: 0.20, WingWidthPct: 4.5, CreditMinPct: 0.9, RangeWidthPct: 12.0}
	}
}

// IronButterflyParams holds iron butterfly selection parameters.
type IronButterflyParams struct {
	CenterDeltaTol float64 // tolerance around 0.5 for the center strike
	WingWidthPct   float64 // wing distance from center as % of spot
	CreditMinPct   float64 // minimum credit as % of max risk
}

// NewIronButterflyParams derives butterfly parameters from the risk level.
func NewIronButterflyParams(risk models.RiskLevel) IronButterflyParams {
	switch risk {
	case models.RiskConservative:
		return IronButterflyParams{CenterDeltaTol: 0.05, WingWidthPct: 6.0, CreditMinPct: 20.0}
	case models.RiskAggressive:
		return IronButterflyParams{CenterDeltaTol: 0.10, WingWidthPct: 4.0, CreditMinPct: 30.0}
	default:
		return IronButterflyParams{CenterDeltaTol: 0.08, WingWidthPct: 5.0, CreditMinPct: 25.0}
	}
}

// CalendarParams holds calendar spread selection parameters.
type CalendarParams struct {
	LongDeltaTarget  float64 // target delta on the far-dated leg
	DeltaTol         float64
	PremiumRatioMin  float64 // short premium as minimum % of long premium
	ExpiryGapDays    int     // target gap between the two expiries
	GapToleranceDays int
}

// NewCalendarParams derives calendar parameters from the risk level.
func NewCalendarParams(risk models.RiskLevel) CalendarParams {
	switch risk {
	case models.RiskConservative:
		return CalendarParams{LongDeltaTarget: 0.25, DeltaTol: 0.15, PremiumRatioMin: 30.0, ExpiryGapDays: 60, GapToleranceDays: 15}
	case models.RiskAggressive:
		return CalendarParams{LongDeltaTarget: 0.40, DeltaTol: 0.15, PremiumRatioMin: 50.0, ExpiryGapDays: 30, GapToleranceDays: 15}
	default:
		return CalendarParams{LongDeltaTarget: 0.30, DeltaTol: 0.15, PremiumRatioMin: 40.0, ExpiryGapDays: 45, GapToleranceDays: 15}
	}
}

// DiagonalParams holds diagonal spread selection parameters.
type DiagonalParams struct {
	ShortDeltaTarget float64
	LongDeltaTarget  float64
	DeltaTol         float64
	StrikeGapPct     float64 // target gap between strikes as % of spot
	GapTolPct        float64 // allowed deviation from the target gap
	PremiumRatioMin  float64 // short premium as minimum % of long premium
	ExpiryGapDays    int
	GapToleranceDays int
}

// NewDiagonalParams derives diagonal parameters from the risk level.
func NewDiagonalParams(risk models.RiskLevel) DiagonalParams {
	switch risk {
	case models.RiskConservative:
		return DiagonalParams{ShortDeltaTarget: 0.20, LongDeltaTarget: 0.70, DeltaTol: 0.15, StrikeGapPct: 8.0, GapTolPct: 40.0, PremiumRatioMin: 15.0, ExpiryGapDays: 60, GapToleranceDays: 15}
	case models.RiskAggressive:
		return DiagonalParams{ShortDeltaTarget: 0.35, LongDeltaTarget: 0.55, DeltaTol: 0.15, StrikeGapPct: 4.0, GapTolPct: 40.0, PremiumRatioMin: 30.0, ExpiryGapDays: 30, GapToleranceDays: 15}
	default:
		return DiagonalParams{ShortDeltaTarget: 0.25, LongDeltaTarget: 0.65, DeltaTol: 0.15, StrikeGapPct: 6.0, GapTolPct: 40.0, PremiumRatioMin: 20.0, ExpiryGapDays: 45, GapToleranceDays: 15}
	}
}
