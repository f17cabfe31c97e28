package models

import "time"

// LegRef is a structured reference to a specific contract. Order specs carry
// these instead of formatted option symbols; string formatting belongs to
// the execution boundary only.
type LegRef struct {
	Symbol string
	Strike float64
	Expiry string
	Kind   OptionKind
	Side   OrderSide
}

// OrderSpec is a provider-agnostic description of the legs to close and
// open for an adjustment action. Consumed by the trade executor; the engine
// never submits orders itself.
type OrderSpec struct {
	Action    Action
	Symbol    string
	Quantity  int
	OrderType OrderType
	CloseLegs []LegRef
	OpenLegs  []LegRef
	MaxDebit  float64    // bound for NET_DEBIT orders
	MinCredit float64    // bound for NET_CREDIT orders
	NextPhase WheelPhase // set only by the wheel on assignment prep
}

// Trade represents a completed or simulated trade recorded by the executor.
type Trade struct {
	ID         string
	Timestamp  time.Time
	Symbol     string
	Strategy   string
	Action     Action
	Quantity   int
	OrderType  OrderType
	Price      float64
	PnL        float64
	PnLPercent float64
	IsPaper    bool
	OrderIDs   []string
}

// Quote represents a level-1 quote for an underlying.
type Quote struct {
	Symbol    string
	Last      float64
	Bid       float64
	Ask       float64
	Timestamp time.Time
}

// Balance represents account cash balances.
type Balance struct {
	AvailableCash float64
	TotalEquity   float64
}

// BrokerOrder represents an order as tracked by a broker implementation.
type BrokerOrder struct {
	ID           string
	Symbol       string
	OptionSymbol string
	Side         OrderSide
	Type         OrderType
	Quantity     int
	Price        float64
	Status       string
	PlacedAt     time.Time
}
