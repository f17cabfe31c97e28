// Package strategy implements selection, scoring, and adjustment of
// multi-leg options structures against an options chain snapshot.
package strategy

import (
	"time"

	"tradecover/internal/errors"
	"tradecover/internal/models"
)

// Kind identifies a supported strategy structure.
type Kind string

const (
	KindCoveredCall     Kind = "covered_call"
	KindCashSecuredPut  Kind = "cash_secured_put"
	KindWheel           Kind = "wheel"
	KindCollar          Kind = "collar"
	KindPutCreditSpread Kind = "put_credit_spread"
	KindIronCondor      Kind = "iron_condor"
	KindIronButterfly   Kind = "iron_butterfly"
	KindCalendarSpread  Kind = "calendar_spread"
	KindDiagonalSpread  Kind = "diagonal_spread"
)

// Kinds returns all supported strategy kinds.
func Kinds() []Kind {
	return []Kind{
		KindCoveredCall, KindCashSecuredPut, KindWheel, KindCollar,
		KindPutCreditSpread, KindIronCondor, KindIronButterfly,
		KindCalendarSpread, KindDiagonalSpread,
	}
}

// Strategy is the common contract every structure implements. All methods
// are pure given their inputs: no hidden state, no side effects, safe for
// concurrent use across underlyings.
type Strategy interface {
	Kind() Kind

	// SelectOptions filters the chain, builds every valid leg combination
	// for the structure's shape, scores each, and returns the best one.
	// Returns nil when no combination clears the minimum floors; an empty
	// chain is a normal no-candidate outcome, never an error.
	SelectOptions(price float64, chain *models.OptionChain) *models.SelectedStructure

	// AdjustPosition evaluates the position against the live price and
	// returns exactly one decision. Positions missing required fields get
	// a NO_ACTION decision with the reason, never an error.
	AdjustPosition(pos *models.Position, price float64) models.Adjustment

	// OrderParameters maps an adjustment action to a provider-agnostic
	// order spec. Roll-type actions re-select against the fresh chain and
	// return nil when nothing qualifies; callers treat nil as "do not
	// roll yet".
	OrderParameters(action models.Action, pos *models.Position, chain *models.OptionChain) *models.OrderSpec
}

// common holds configuration shared by every strategy. Risk-derived
// parameters are computed once at construction and never mutated.
type common struct {
	risk            models.RiskLevel
	profitTargetPct float64
	stopLossPct     float64
	expiryDays      int
	now             func() time.Time
}

func newCommon(risk models.RiskLevel, opts []Option) common {
	c := common{
		risk:            risk,
		profitTargetPct: 5.0,
		stopLossPct:     3.0,
		expiryDays:      30,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Option configures strategy construction.
type Option func(*common)

// WithProfitTarget sets the profit target percentage for early exits.
func WithProfitTarget(pct float64) Option {
	return func(c *common) { c.profitTargetPct = pct }
}

// WithStopLoss sets the stop loss percentage.
func WithStopLoss(pct float64) Option {
	return func(c *common) { c.stopLossPct = pct }
}

// WithExpiryDays sets the target days to expiration.
func WithExpiryDays(days int) Option {
	return func(c *common) { c.expiryDays = days }
}

// WithClock sets the time source used for days-to-expiry calculations.
func WithClock(now func() time.Time) Option {
	return func(c *common) { c.now = now }
}

// New constructs the strategy for the given kind and risk level. The risk
// parameter table is derived once here; changing risk level means building
// a new strategy value.
func New(kind Kind, risk models.RiskLevel, opts ...Option) (Strategy, error) {
	if !risk.Valid() {
		return nil, errors.Wrapf(errors.ErrUnknownRiskLevel, "%q", risk)
	}

	c := newCommon(risk, opts)

	switch kind {
	case KindCoveredCall:
		return newCoveredCall(c), nil
	case KindCashSecuredPut:
		return newWheelWithKind(c, KindCashSecuredPut, models.PhasePutSelling), nil
	case KindWheel:
		return newWheelWithKind(c, KindWheel, models.PhasePutSelling), nil
	case KindCollar:
		return newCollar(c), nil
	case KindPutCreditSpread:
		return newPutCreditSpread(c), nil
	case KindIronCondor:
		return newIronCondor(c), nil
	case KindIronButterfly:
		return newIronButterfly(c), nil
	case KindCalendarSpread:
		return newCalendarSpread(c), nil
	case KindDiagonalSpread:
		return newDiagonalSpread(c), nil
	}
	return nil, errors.Wrapf(errors.ErrUnknownStrategy, "%q", kind)
}

// NewWheel constructs a wheel strategy starting in the given phase.
func NewWheel(risk models.RiskLevel, phase models.WheelPhase, opts ...Option) (*Wheel, error) {
	if !risk.Valid() {
		return nil, errors.Wrapf(errors.ErrUnknownRiskLevel, "%q", risk)
	}
	if phase == "" {
		phase = models.PhasePutSelling
	}
	return newWheelWithKind(newCommon(risk, opts), KindWheel, phase), nil
}

// contractDTE resolves a contract's days to expiry, preferring the value
// supplied by the market-data provider and falling back to the expiry
// string. Contracts whose expiry cannot be resolved are excluded.
func (c common) contractDTE(oc models.OptionContract) (int, bool) {
	if oc.DaysToExpiry > 0 {
		return oc.DaysToExpiry, true
	}
	dte, err := DaysToExpiry(oc.Expiry, c.now())
	if err != nil {
		return 0, false
	}
	return dte, true
}

// positionDTE resolves days to expiry for a position's expiry field.
func (c common) positionDTE(expiry string) (int, error) {
	return DaysToExpiry(expiry, c.now())
}

// rollReference returns the price used to score replacement legs during a
// roll. The live price belongs to AdjustPosition; order building only has
// the position, so the entry price anchors the percentage floors.
func rollReference(pos *models.Position) float64 {
	return pos.EntryPrice
}
