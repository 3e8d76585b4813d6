package usage

import (
	"context"

	"gymcore/internal/plan"
)

type Repository interface {
	// GetOrCreate returns the record for (userID, month), creating it with
	// zeroed counters if needed. An existing record is re-pointed at planID
	// without resetting its counters.
	GetOrCreate(ctx context.Context, userID, planID int, month string) (*Record, error)
	Increment(ctx context.Context, rec *Record, counter Counter) error
	// TryConsume increments counter only while it is below limit and returns
	// the updated record, or ErrLimitReached.
	TryConsume(ctx context.Context, rec *Record, counter Counter, limit plan.Limit) (*Record, error)
	ListByMonth(ctx context.Context, month string) ([]Record, error)
}
