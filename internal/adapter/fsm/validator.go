package fsm

import (
	"context"
	"errors"
	"fmt"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// buildEvents converts one machine's domain.Transitions into looplab/fsm
// EventDesc format. Transitions sharing an event and destination collapse into
// a single EventDesc with several source states.
func buildEvents(transitions []domain.Transition) []loopfsm.EventDesc {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range transitions {
		k := key{event: string(t.Event), dst: string(t.Dst)}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.event,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// Validator implements domain.TransitionValidator using looplab/fsm.
// A short-lived FSM is created per Apply call, initialized with the request's
// current state, because looplab/fsm tracks the current state internally.
type Validator struct {
	events map[domain.Machine][]loopfsm.EventDesc
}

// New creates a validator for every machine in domain.Transitions.
func New() *Validator {
	events := make(map[domain.Machine][]loopfsm.EventDesc, len(domain.Transitions))
	for m, transitions := range domain.Transitions {
		events[m] = buildEvents(transitions)
	}
	return &Validator{events: events}
}

// Apply checks if the given event is valid from the current status of the
// named machine and returns the destination status. Returns a
// domain.TransitionError if the transition is not allowed.
func (v *Validator) Apply(ctx context.Context, machine domain.Machine, current domain.Status, event domain.Event) (domain.Status, error) {
	events, ok := v.events[machine]
	if !ok {
		return "", fmt.Errorf("unknown workflow %q", machine)
	}

	f := loopfsm.NewFSM(string(current), events, nil)

	if err := f.Event(ctx, string(event)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) || errors.As(err, &noTransition) {
			return "", &domain.TransitionError{
				Machine: machine,
				Event:   event,
				Current: current,
			}
		}
		return "", err
	}

	return domain.Status(f.Current()), nil
}
