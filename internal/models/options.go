package models

// OptionContract represents a single option as received from the market-data
// provider. Contracts are immutable once fetched; one snapshot per cycle.
type OptionContract struct {
	Symbol       string
	Strike       float64
	Premium      float64 // bid/ask midpoint
	Bid          float64
	Ask          float64
	Expiry       string // "2006-01-02" or RFC3339
	Kind         OptionKind
	Delta        float64 // signed, -1..1
	Theta        float64
	IV           float64
	DaysToExpiry int
}

// OptionChain represents a snapshot of the options chain for one underlying
// at one point in time. An empty chain is valid and yields no candidates.
type OptionChain struct {
	Symbol string
	Calls  []OptionContract
	Puts   []OptionContract
}

// Empty reports whether the chain has no contracts at all.
func (c *OptionChain) Empty() bool {
	return c == nil || (len(c.Calls) == 0 && len(c.Puts) == 0)
}
