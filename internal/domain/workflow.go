package domain

// Machine names a request workflow whose states are validated by a
// TransitionValidator.
type Machine string

const (
	MachineApplication   Machine = "application"
	MachineBranchRequest Machine = "branch_request"
)

// Status represents the state of a request workflow.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Event represents an action that triggers a state transition.
type Event string

const (
	EventApprove Event = "approve"
	EventReject  Event = "reject"
)

// Transition defines a valid state change: an event moves a request from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// requestTransitions is shared by every pending/approved/rejected workflow.
// Both destinations are terminal.
var requestTransitions = []Transition{
	{Event: EventApprove, Src: StatusPending, Dst: StatusApproved},
	{Event: EventReject, Src: StatusPending, Dst: StatusRejected},
}

// Transitions defines all valid state changes per workflow.
// This is domain knowledge consumed by the FSM adapter.
var Transitions = map[Machine][]Transition{
	MachineApplication:   requestTransitions,
	MachineBranchRequest: requestTransitions,
}

// IsTerminal reports whether no event leaves the status.
func IsTerminal(m Machine, s Status) bool {
	for _, t := range Transitions[m] {
		if t.Src == s {
			return false
		}
	}
	return true
}
