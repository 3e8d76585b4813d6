package entitlement

import (
	"context"
	"errors"
	"fmt"

	"gymcore/internal/clock"
	"gymcore/internal/logger"
	"gymcore/internal/metrics"
	"gymcore/internal/plan"
	"gymcore/internal/usage"
	"gymcore/internal/user"
)

var errInactive = errors.New("membership not active")

// Memberships runs the lazy expiry check and returns the current user state.
type Memberships interface {
	EnsureNotExpired(ctx context.Context, userID int) (*user.User, error)
}

type Service interface {
	// Authorize checks the gate without recording usage.
	Authorize(ctx context.Context, userID int, action Action) (*Authorization, error)
	// Consume records one use for a passed authorization. It fails with a
	// limit_reached denial if a concurrent request used the last slot.
	Consume(ctx context.Context, auth *Authorization) (*usage.Record, error)
	CheckAndConsume(ctx context.Context, userID int, action Action) (*usage.Record, error)
	UsageSummary(ctx context.Context, userID int) (*Summary, error)
	MonthlyUsage(ctx context.Context, month string) ([]usage.Record, error)
}

type service struct {
	memberships Memberships
	plans       plan.Repository
	usage       usage.Repository
	clock       clock.Clock
}

func NewService(memberships Memberships, plans plan.Repository, usageRepo usage.Repository, clk clock.Clock) Service {
	return &service{memberships: memberships, plans: plans, usage: usageRepo, clock: clk}
}

func (s *service) Authorize(ctx context.Context, userID int, action Action) (*Authorization, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	p, rec, err := s.current(ctx, userID)
	if errors.Is(err, errInactive) {
		return nil, s.denied(userID, deny(action, ReasonMembershipInactive))
	}
	if err != nil {
		return nil, err
	}

	if denied := Decide(p, rec, action); denied != nil {
		return nil, s.denied(userID, denied)
	}

	return &Authorization{UserID: userID, Action: action, Plan: p, Record: rec}, nil
}

// Consume spends one use against the month current at consumption time. An
// authorization that crossed a month boundary is charged to the new month's
// record, still bounded by the plan limit.
func (s *service) Consume(ctx context.Context, auth *Authorization) (*usage.Record, error) {
	target := auth.Record
	if month := clock.MonthKey(s.clock.Now()); month != target.Month {
		fresh, err := s.usage.GetOrCreate(ctx, auth.UserID, auth.Plan.ID, month)
		if err != nil {
			return nil, fmt.Errorf("load usage for %s: %w", month, err)
		}
		logger.Debug("authorization crossed month boundary", "user_id", auth.UserID, "from", target.Month, "to", month)
		target = fresh
	}

	limit := auth.Action.limit(auth.Plan)
	rec, err := s.usage.TryConsume(ctx, target, auth.Action.counter(), limit)
	if err != nil {
		if errors.Is(err, usage.ErrLimitReached) {
			return nil, s.denied(auth.UserID, deny(auth.Action, ReasonLimitReached))
		}
		return nil, fmt.Errorf("consume %s: %w", auth.Action, err)
	}

	metrics.RecordEntitlementDecision(string(auth.Action), "allowed")
	logger.Debug("entitlement consumed", "user_id", auth.UserID, "action", auth.Action, "month", rec.Month)
	return rec, nil
}

func (s *service) CheckAndConsume(ctx context.Context, userID int, action Action) (*usage.Record, error) {
	auth, err := s.Authorize(ctx, userID, action)
	if err != nil {
		return nil, err
	}
	return s.Consume(ctx, auth)
}

func (s *service) UsageSummary(ctx context.Context, userID int) (*Summary, error) {
	p, rec, err := s.current(ctx, userID)
	if errors.Is(err, errInactive) {
		return nil, &DeniedError{
			Reason:  ReasonMembershipInactive,
			Message: "an active membership is required to view usage",
		}
	}
	if err != nil {
		return nil, err
	}

	return &Summary{
		Month:    rec.Month,
		PlanID:   p.ID,
		PlanName: p.Name,
		Limits:   p.Limits,
		Usage:    CountersOf(rec),
	}, nil
}

func (s *service) MonthlyUsage(ctx context.Context, month string) ([]usage.Record, error) {
	if month == "" {
		month = clock.MonthKey(s.clock.Now())
	}
	return s.usage.ListByMonth(ctx, month)
}

// current resolves the member's active plan and this month's usage record.
func (s *service) current(ctx context.Context, userID int) (*plan.Plan, *usage.Record, error) {
	u, err := s.memberships.EnsureNotExpired(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if u.MembershipStatus != user.MembershipActive || u.MembershipPlanID == nil {
		return nil, nil, errInactive
	}

	p, err := s.plans.FindByID(ctx, *u.MembershipPlanID)
	if err != nil {
		return nil, nil, err
	}

	rec, err := s.usage.GetOrCreate(ctx, u.ID, p.ID, clock.MonthKey(s.clock.Now()))
	if err != nil {
		return nil, nil, err
	}
	return p, rec, nil
}

func (s *service) denied(userID int, d *DeniedError) error {
	metrics.RecordEntitlementDecision(string(d.Action), d.Reason)
	logger.Info("entitlement denied", "user_id", userID, "action", d.Action, "reason", d.Reason)
	return d
}

// Remaining returns how many uses are left this period, or nil when unlimited.
func Remaining(p *plan.Plan, rec *usage.Record, a Action) *int {
	limit := a.limit(p)
	if limit.Unlimited {
		return nil
	}
	left := limit.Max - rec.Used(a.counter())
	if left < 0 {
		left = 0
	}
	return &left
}
