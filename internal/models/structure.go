package models

// LegRole identifies the role a contract plays inside a structure.
type LegRole string

const (
	RoleShortCall LegRole = "SHORT_CALL"
	RoleLongCall  LegRole = "LONG_CALL"
	RoleShortPut  LegRole = "SHORT_PUT"
	RoleLongPut   LegRole = "LONG_PUT"
	RoleNearShort LegRole = "NEAR_SHORT" // calendar/diagonal front leg
	RoleFarLong   LegRole = "FAR_LONG"   // calendar/diagonal back leg
)

// StructureLeg pairs a contract with its role and side inside a structure.
type StructureLeg struct {
	Role     LegRole
	Side     OrderSide
	Contract OptionContract
}

// SelectedStructure is the result of a selection pass: the chosen leg
// combination plus derived economics. Produced fresh on every call and
// never mutated afterwards.
type SelectedStructure struct {
	Strategy     string
	Legs         []StructureLeg
	NetCredit    float64 // positive when premium is received
	NetDebit     float64 // positive when premium is paid
	MaxRisk      float64
	MaxReward    float64
	Breakevens   []float64
	DaysToExpiry int
	Expiry       string
	Score        float64
}

// Leg returns the leg with the given role, or nil if the structure has none.
func (s *SelectedStructure) Leg(role LegRole) *StructureLeg {
	for i := range s.Legs {
		if s.Legs[i].Role == role {
			return &s.Legs[i]
		}
	}
	return nil
}
