// Package models provides domain models for the options trading engine.
package models

// RiskLevel represents the configured risk appetite.
type RiskLevel string

const (
	RiskConservative RiskLevel = "conservative"
	RiskModerate     RiskLevel = "moderate"
	RiskAggressive   RiskLevel = "aggressive"
)

// Valid reports whether the risk level is one of the known values.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskConservative, RiskModerate, RiskAggressive:
		return true
	}
	return false
}

// OptionKind represents the contract kind.
type OptionKind string

const (
	Call OptionKind = "CALL"
	Put  OptionKind = "PUT"
)

// OrderSide represents the side of an order leg.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType represents how an order spec should be priced.
type OrderType string

const (
	OrderTypeMarket    OrderType = "MARKET"
	OrderTypeNetDebit  OrderType = "NET_DEBIT"
	OrderTypeNetCredit OrderType = "NET_CREDIT"
	OrderTypeInfoOnly  OrderType = "INFO_ONLY"
)

// WheelPhase represents the current phase of the wheel cycle.
type WheelPhase string

const (
	PhasePutSelling  WheelPhase = "PUT_SELLING"
	PhaseCallSelling WheelPhase = "CALL_SELLING"
)
