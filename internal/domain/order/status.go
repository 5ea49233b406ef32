package order

import "github.com/go-faster/errors"

// Status enumerates the order lifecycle states.
type Status string

const (
	// StatusPending is the initial state of a freshly placed order.
	StatusPending Status = "pending"
	// StatusProcessing means the warehouse has confirmed the order.
	StatusProcessing Status = "processing"
	// StatusShipped means the carrier has picked up the package.
	StatusShipped Status = "shipped"
	// StatusOutForDelivery means the package left the local distribution center.
	StatusOutForDelivery Status = "out_for_delivery"
	// StatusDelivered is the terminal state of the forward progression.
	StatusDelivered Status = "delivered"
	// StatusRefunded is a side state set by support flows.
	StatusRefunded Status = "refunded"
	// StatusReplacementSent is a side state set when a replacement order
	// supersedes the original.
	StatusReplacementSent Status = "replacement_sent"
)

// ErrUnknownStatus is returned by ParseStatus for strings outside the enum.
var ErrUnknownStatus = errors.New("unknown order status")

var statuses = map[Status]struct{}{
	StatusPending:         {},
	StatusProcessing:      {},
	StatusShipped:         {},
	StatusOutForDelivery:  {},
	StatusDelivered:       {},
	StatusRefunded:        {},
	StatusReplacementSent: {},
}

// ParseStatus validates s against the closed status enum.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statuses[st]; !ok {
		return "", errors.Wrapf(ErrUnknownStatus, "%q", s)
	}
	return st, nil
}

// Step is one stage of the forward delivery progression: the status to move
// to plus the tracking-event location and description recorded with it.
type Step struct {
	Status      Status
	Location    string
	Description string
}

// Progression is the forward delivery pipeline, in order. Advancing an order
// moves it to the entry after its current status; orders in a side state
// restart at the first entry.
var Progression = []Step{
	{StatusProcessing, "Contoso Warehouse, Redmond WA", "Order confirmed and being prepared"},
	{StatusShipped, "Redmond WA", "Package picked up by carrier"},
	{StatusOutForDelivery, "Local Distribution Center", "Out for delivery"},
	{StatusDelivered, "Customer Address", "Package delivered successfully"},
}

// NextStep returns the progression step that follows the current status.
// Statuses outside the progression (pending, refunded, replacement_sent)
// map to the first step. The second return is false when the order is
// already delivered and has nowhere to go.
func NextStep(current Status) (Step, bool) {
	idx := -1
	for i, s := range Progression {
		if s.Status == current {
			idx = i
			break
		}
	}
	if idx+1 >= len(Progression) {
		return Step{}, false
	}
	return Progression[idx+1], true
}

// AutoAdvances reports whether bulk advancement should touch an order in
// this status. Delivered orders are done; refunded and replacement_sent
// orders left the normal pipeline.
func (s Status) AutoAdvances() bool {
	switch s {
	case StatusDelivered, StatusRefunded, StatusReplacementSent:
		return false
	default:
		return true
	}
}
