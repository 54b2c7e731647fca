package battle

// State is the controller's position in the run lifecycle.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateInitialExchange
	StateFollowupRound
	StateCompleted
	// StateCancelling overlays the exchange states once a stop was requested.
	StateCancelling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateInitialExchange:
		return "initial_exchange"
	case StateFollowupRound:
		return "followup_round"
	case StateCompleted:
		return "completed"
	case StateCancelling:
		return "cancelling"
	default:
		return "unknown"
	}
}
