package models

import "time"

// Position is the persisted record of an open structure. It is owned by the
// caller and the storage layer; the engine only reads it and returns a
// recommended action. All fields are flat primitives so any caller can
// serialize it directly.
//
// Only the field group matching the position's Strategy is populated; the
// rest stay at their zero values. A position missing the fields its strategy
// requires yields a NO_ACTION decision, never an error.
type Position struct {
	ID         string
	Symbol     string
	Strategy   string
	Quantity   int
	EntryPrice float64
	OpenedAt   time.Time

	// Single-leg covered call / wheel call phase.
	CallStrike  float64
	CallPremium float64
	CallExpiry  string

	// Single-leg cash-secured put / wheel put phase.
	PutStrike  float64
	PutPremium float64
	PutExpiry  string

	// Vertical spreads (put credit spread).
	ShortStrike float64
	LongStrike  float64
	NetCredit   float64
	MaxRisk     float64
	ExpiryDate  string

	// Four-leg structures (iron condor, iron butterfly).
	ShortPutStrike  float64
	LongPutStrike   float64
	ShortCallStrike float64
	LongCallStrike  float64
	TotalCredit     float64

	// Horizontal structures (calendar, diagonal).
	NearStrike  float64
	FarStrike   float64
	NearPremium float64
	FarPremium  float64
	NearExpiry  string
	FarExpiry   string
	OptionKind  OptionKind

	// Wheel phase flag; only the orchestration layer flips it.
	Phase WheelPhase
}
