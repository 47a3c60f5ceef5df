package checkout

// State is the checkout flow's current phase. Transitions are linear;
// cancellation and validation failures return to StateCollectingDetails,
// gateway or verification failures land in StateFailed.
type State int

const (
	StateCollectingDetails State = iota
	StateSubmitting
	StateAwaitingGateway
	StateVerifying
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCollectingDetails:
		return "collecting_details"
	case StateSubmitting:
		return "submitting"
	case StateAwaitingGateway:
		return "awaiting_gateway"
	case StateVerifying:
		return "verifying"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the flow has ended and needs a Reset to restart.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}
