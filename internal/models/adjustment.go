package models

// Action is a discrete adjustment action. Each strategy produces actions
// from its own closed subset; NO_ACTION is itself a valid, explicit decision.
type Action string

const (
	ActionNone Action = "NO_ACTION"

	// Covered call.
	ActionBuyToClose   Action = "BUY_TO_CLOSE"
	ActionRollOut      Action = "ROLL_OUT"
	ActionRollUpAndOut Action = "ROLL_UP_AND_OUT"

	// Wheel.
	ActionBuyToClosePut        Action = "BUY_TO_CLOSE_PUT"
	ActionRollOutPut           Action = "ROLL_OUT_PUT"
	ActionPrepareForAssignment Action = "PREPARE_FOR_ASSIGNMENT"
	ActionBuyToCloseCall       Action = "BUY_TO_CLOSE_CALL"
	ActionRollOutCall          Action = "ROLL_OUT_CALL"
	ActionRollUpAndOutCall     Action = "ROLL_UP_AND_OUT_CALL"
	ActionRollPut              Action = "ROLL_PUT"
	ActionRollCall             Action = "ROLL_CALL"

	// Collar.
	ActionCloseCollar          Action = "CLOSE_COLLAR"
	ActionMonitorPutProtection Action = "MONITOR_PUT_PROTECTION"
	ActionRollCollarUp         Action = "ROLL_COLLAR_UP"
	ActionRollCollarOut        Action = "ROLL_COLLAR_OUT"
	ActionMonitor              Action = "MONITOR"

	// Put credit spread.
	ActionCloseSpread Action = "CLOSE_SPREAD"
	ActionRollSpread  Action = "ROLL_SPREAD"

	// Iron condor.
	ActionCloseCondor    Action = "CLOSE_CONDOR"
	ActionAdjustPutSide  Action = "ADJUST_PUT_SIDE"
	ActionAdjustCallSide Action = "ADJUST_CALL_SIDE"

	// Iron butterfly.
	ActionCloseButterfly    Action = "CLOSE_BUTTERFLY"
	ActionRecenterButterfly Action = "RECENTER_BUTTERFLY"

	// Calendar spread.
	ActionCloseCalendar     Action = "CLOSE_CALENDAR"
	ActionRollCalendarShort Action = "ROLL_CALENDAR_SHORT"

	// Diagonal spread.
	ActionCloseDiagonal     Action = "CLOSE_DIAGONAL"
	ActionRollDiagonalShort Action = "ROLL_DIAGONAL_SHORT"
)

// Adjustment is the decision produced by evaluating a position against the
// live price. Always complete; never partial.
type Adjustment struct {
	Action Action
	Reason string
}

// NoAction builds a NO_ACTION decision with the given reason.
func NoAction(reason string) Adjustment {
	return Adjustment{Action: ActionNone, Reason: reason}
}
