package orders

import (
	"fmt"
	"strings"

	"github.com/ariefcatur/go-order-catalog/internal/apperr"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusPaid       Status = "PAID"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// AllStatuses lists every recognised status in lifecycle order.
var AllStatuses = []Status{
	StatusPending, StatusPaid, StatusProcessing, StatusShipped,
	StatusDelivered, StatusCompleted, StatusCancelled,
}

var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusPaid: true, StatusProcessing: true, StatusCancelled: true},
	StatusPaid:       {StatusProcessing: true, StatusShipped: true, StatusCancelled: true},
	StatusProcessing: {StatusShipped: true, StatusCompleted: true, StatusCancelled: true},
	StatusShipped:    {StatusDelivered: true},
	StatusDelivered:  {},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Terminal statuses block further status changes and deletion.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCompleted || s == StatusCancelled
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// ParseStatus accepts any casing and surrounding whitespace.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", apperr.Newf(apperr.KindInvalidStatus,
			"invalid status %q, must be one of %v", raw, AllStatuses)
	}
	return s, nil
}

// Policy decides which status changes UpdateStatus accepts.
type Policy string

const (
	// PolicyStrict only follows edges of the transition table.
	PolicyStrict Policy = "strict"
	// PolicyLenient lets a non-terminal order jump to any recognised status.
	PolicyLenient Policy = "lenient"
)

func ParsePolicy(raw string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(raw))); p {
	case PolicyStrict, PolicyLenient:
		return p, nil
	case "":
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown order status policy %q", raw)
	}
}

// Check returns nil when an order in status from may move to status to.
func (p Policy) Check(from, to Status) error {
	if !to.Valid() {
		return apperr.Newf(apperr.KindInvalidStatus, "invalid status %q", string(to))
	}
	if p == PolicyLenient {
		if from.Terminal() {
			return apperr.Newf(apperr.KindTerminalState,
				"order is in terminal status %s and cannot change", from)
		}
		return nil
	}
	if !CanTransition(from, to) {
		return apperr.Newf(apperr.KindInvalidTransition,
			"cannot move order from %s to %s", from, to)
	}
	return nil
}
