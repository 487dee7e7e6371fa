package job

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Status is the lifecycle state of a job.
//
// State transitions:
//
//	Pending ──claim──> Accepted ──pick up──> PickedUp ──depart──> EnRoute
//	   ^                  │                     │                    │
//	   └─────release──────┘                     └──────deliver───────┴──> Delivered
//
//	Pending, Accepted ──cancel──> Cancelled
//	any non-terminal ───fail────> Failed
//
// Delivered, Cancelled and Failed are terminal.
type Status int

const (
	// Unknown catches uninitialized Status values.
	Unknown Status = iota
	Pending
	Accepted
	PickedUp
	EnRoute
	Delivered
	Cancelled
	Failed
)

var statusNames = map[Status]string{
	Pending:   "pending",
	Accepted:  "accepted",
	PickedUp:  "picked_up",
	EnRoute:   "en_route",
	Delivered: "delivered",
	Cancelled: "cancelled",
	Failed:    "failed",
}

// Event is an input to the state machine.
type Event int

const (
	EventUnknown Event = iota
	// EventClaim is applied by the claim arbiter only.
	EventClaim
	// EventRelease is the assigned driver giving the job back before pickup.
	EventRelease
	EventPickUp
	EventDepart
	EventDeliver
	// EventCancel is the customer withdrawing the request.
	EventCancel
	// EventFail confirms an irrecoverable delivery failure.
	EventFail
)

var eventNames = map[Event]string{
	EventClaim:   "claim",
	EventRelease: "release",
	EventPickUp:  "pick_up",
	EventDepart:  "depart",
	EventDeliver: "deliver",
	EventCancel:  "cancel",
	EventFail:    "fail",
}

// transitions is the complete table of legal moves. EventFail is handled
// separately since it applies to every non-terminal state.
var transitions = map[Status]map[Event]Status{
	Pending: {
		EventClaim:  Accepted,
		EventCancel: Cancelled,
	},
	Accepted: {
		EventRelease: Pending,
		EventPickUp:  PickedUp,
		EventCancel:  Cancelled,
	},
	PickedUp: {
		EventDepart:  EnRoute,
		EventDeliver: Delivered,
	},
	EnRoute: {
		EventDeliver: Delivered,
	},
}

// Next returns the state reached by applying ev to s.
//
// Returns:
//   - Status: the target state
//   - error: IllegalTransitionError when the table has no entry for (s, ev)
//
// Example:
//
//	next, err := job.Accepted.Next(job.EventPickUp) // PickedUp, nil
//	_, err = job.Delivered.Next(job.EventCancel)    // ErrIllegalTransition
func (s Status) Next(ev Event) (Status, error) {
	if ev == EventFail && s.Validate() == nil && !s.IsTerminal() {
		return Failed, nil
	}
	if to, ok := transitions[s][ev]; ok {
		return to, nil
	}
	return Unknown, &IllegalTransitionError{From: s, Event: ev}
}

// Can reports whether ev is legal from s without performing it.
func (s Status) Can(ev Event) bool {
	_, err := s.Next(ev)
	return err == nil
}

// IsTerminal reports whether no further transitions exist from s.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled || s == Failed
}

// HoldsDriver reports whether a job in s must have an assigned driver.
func (s Status) HoldsDriver() bool {
	return s == Accepted || s == PickedUp || s == EnRoute || s == Delivered
}

func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStatus maps the persisted name back to a Status.
func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "unknown"
}

// ParseEvent maps a wire name to an Event.
func ParseEvent(s string) (Event, error) {
	for ev, name := range eventNames {
		if name == s {
			return ev, nil
		}
	}
	return EventUnknown, errs.NewValueIsInvalidErrorWithCause("event", fmt.Errorf("%q is not a known event", s))
}
