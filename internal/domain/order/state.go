package order

import "time"

// OrderState implements the state pattern for fulfillment transitions.
type OrderState interface {
	Status() Status
	OnShipped(o *Order) (OrderState, error)
	OnDelivered(o *Order) (OrderState, error)
	OnCancelled(o *Order) (OrderState, error)
}

type preparingState struct{}

func (preparingState) Status() Status { return StatusPreparing }

func (preparingState) OnShipped(o *Order) (OrderState, error) {
	if o.ReservationIncomplete {
		return nil, ErrReservationHold
	}
	return shippedState{}, nil
}

func (preparingState) OnDelivered(*Order) (OrderState, error) { return nil, ErrInvalidStateTransition }
func (preparingState) OnCancelled(*Order) (OrderState, error) { return cancelledState{}, nil }

type shippedState struct{}

func (shippedState) Status() Status { return StatusShipped }

func (shippedState) OnShipped(*Order) (OrderState, error)   { return shippedState{}, nil }
func (shippedState) OnDelivered(*Order) (OrderState, error) { return deliveredState{}, nil }
func (shippedState) OnCancelled(*Order) (OrderState, error) { return cancelledState{}, nil }

type deliveredState struct{}

func (deliveredState) Status() Status { return StatusDelivered }

func (deliveredState) OnShipped(*Order) (OrderState, error)   { return nil, ErrInvalidStateTransition }
func (deliveredState) OnDelivered(*Order) (OrderState, error) { return deliveredState{}, nil }
func (deliveredState) OnCancelled(*Order) (OrderState, error) { return nil, ErrInvalidStateTransition }

type cancelledState struct{}

func (cancelledState) Status() Status { return StatusCancelled }

func (cancelledState) OnShipped(*Order) (OrderState, error)   { return nil, ErrInvalidStateTransition }
func (cancelledState) OnDelivered(*Order) (OrderState, error) { return nil, ErrInvalidStateTransition }
func (cancelledState) OnCancelled(*Order) (OrderState, error) { return cancelledState{}, nil }

func stateFor(s Status) (OrderState, error) {
	switch s {
	case StatusPreparing:
		return preparingState{}, nil
	case StatusShipped:
		return shippedState{}, nil
	case StatusDelivered:
		return deliveredState{}, nil
	case StatusCancelled:
		return cancelledState{}, nil
	default:
		return nil, ErrInvalidStateTransition
	}
}

func (o *Order) apply(now time.Time, step func(OrderState, *Order) (OrderState, error)) error {
	current, err := stateFor(o.Status)
	if err != nil {
		return err
	}
	next, err := step(current, o)
	if err != nil {
		return err
	}
	o.Status = next.Status()
	o.touch(now)
	return nil
}

func (o *Order) Ship(now time.Time) error {
	return o.apply(now, OrderState.OnShipped)
}

func (o *Order) Deliver(now time.Time) error {
	return o.apply(now, OrderState.OnDelivered)
}

func (o *Order) Cancel(now time.Time) error {
	return o.apply(now, OrderState.OnCancelled)
}

// Advance moves the order one step along the happy path:
// preparing to shipped, shipped to delivered.
func (o *Order) Advance(now time.Time) error {
	switch o.Status {
	case StatusPreparing:
		return o.Ship(now)
	case StatusShipped:
		return o.Deliver(now)
	default:
		return ErrInvalidStateTransition
	}
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}
