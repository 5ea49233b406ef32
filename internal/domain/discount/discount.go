package discount

import (
	"context"
	"time"
)

// Code is an issued discount code. OrderID records which order triggered the
// issuance; it is a reference, not ownership, and may point at an order that
// never existed (support flows can pre-generate codes).
type Code struct {
	Code       string
	Percentage int
	OrderID    string
	CreatedAt  time.Time
}

// Registry holds every issued code for the life of the process. Codes are
// never mutated or deleted.
type Registry interface {
	Insert(ctx context.Context, c *Code) error
	List(ctx context.Context) ([]Code, error)
	// Issued reports whether code was issued by this process. Implementations
	// may answer from a probabilistic structure as long as they never report
	// false negatives.
	Issued(ctx context.Context, code string) (bool, error)
}
