package membership

import (
	"context"
	"errors"
	"fmt"

	"gymcore/internal/clock"
	"gymcore/internal/logger"
	"gymcore/internal/metrics"
	"gymcore/internal/plan"
	"gymcore/internal/user"
)

var ErrInvalidState = errors.New("invalid membership state")

// Notifier delivers lifecycle notifications to the member. Delivery errors
// never fail a transition.
type Notifier interface {
	MembershipApproved(ctx context.Context, u *user.User, p *plan.Plan) error
	MembershipRejected(ctx context.Context, u *user.User, reason string) error
	MembershipExpired(ctx context.Context, u *user.User) error
}

type Service interface {
	Select(ctx context.Context, userID, planID int) (*user.User, error)
	Approve(ctx context.Context, userID int) (*user.User, error)
	Reject(ctx context.Context, userID int, reason string) (*user.User, error)
	Renew(ctx context.Context, userID int) (*user.User, error)
	// EnsureNotExpired lazily expires an active membership whose end date has
	// passed and returns the current user state.
	EnsureNotExpired(ctx context.Context, userID int) (*user.User, error)
	Status(ctx context.Context, userID int) (*View, error)
	ListPending(ctx context.Context) ([]user.User, error)
}

type service struct {
	users    user.Repository
	plans    plan.Repository
	clock    clock.Clock
	notifier Notifier
}

func NewService(users user.Repository, plans plan.Repository, clk clock.Clock, notifier Notifier) Service {
	return &service{users: users, plans: plans, clock: clk, notifier: notifier}
}

func (s *service) Select(ctx context.Context, userID, planID int) (*user.User, error) {
	p, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, plan.ErrPlanNotFound
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	from := u.MembershipStatus
	u.PendingMembershipPlanID = &p.ID
	u.MembershipStatus = user.MembershipPending
	u.IsActive = false
	u.MembershipPlanID = nil
	u.MembershipStartDate = nil
	u.MembershipEndDate = nil

	if err := s.save(ctx, u, from); err != nil {
		return nil, err
	}

	logger.Info("membership plan selected", "user_id", u.ID, "plan_id", p.ID)
	return u, nil
}

func (s *service) Approve(ctx context.Context, userID int) (*user.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.MembershipStatus != user.MembershipPending || u.PendingMembershipPlanID == nil {
		return nil, fmt.Errorf("%w: cannot approve membership in status %s", ErrInvalidState, u.MembershipStatus)
	}

	p, err := s.plans.FindByID(ctx, *u.PendingMembershipPlanID)
	if err != nil {
		return nil, err
	}

	start, end := Window(p.Duration, s.clock.Now())
	planID := p.ID
	u.MembershipPlanID = &planID
	u.PendingMembershipPlanID = nil
	u.MembershipStatus = user.MembershipActive
	u.IsActive = true
	u.MembershipStartDate = &start
	u.MembershipEndDate = &end

	if err := s.save(ctx, u, user.MembershipPending); err != nil {
		return nil, err
	}

	logger.Info("membership approved", "user_id", u.ID, "plan_id", p.ID, "end_date", end)
	s.notify(func() error { return s.notifier.MembershipApproved(ctx, u, p) }, "approved", u.ID)
	return u, nil
}

func (s *service) Reject(ctx context.Context, userID int, reason string) (*user.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.MembershipStatus != user.MembershipPending || u.PendingMembershipPlanID == nil {
		return nil, fmt.Errorf("%w: cannot reject membership in status %s", ErrInvalidState, u.MembershipStatus)
	}

	u.MembershipStatus = user.MembershipRejected
	u.PendingMembershipPlanID = nil

	if err := s.save(ctx, u, user.MembershipPending); err != nil {
		return nil, err
	}

	logger.Info("membership rejected", "user_id", u.ID, "reason", reason)
	s.notify(func() error { return s.notifier.MembershipRejected(ctx, u, reason) }, "rejected", u.ID)
	return u, nil
}

func (s *service) Renew(ctx context.Context, userID int) (*user.User, error) {
	u, err := s.EnsureNotExpired(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.MembershipStatus != user.MembershipExpired || u.PendingMembershipPlanID == nil {
		return nil, fmt.Errorf("%w: cannot renew membership in status %s", ErrInvalidState, u.MembershipStatus)
	}

	p, err := s.plans.FindByID(ctx, *u.PendingMembershipPlanID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, plan.ErrPlanNotFound
	}

	u.MembershipStatus = user.MembershipPending
	if err := s.save(ctx, u, user.MembershipExpired); err != nil {
		return nil, err
	}

	logger.Info("membership renewal requested", "user_id", u.ID, "plan_id", p.ID)
	return u, nil
}

func (s *service) EnsureNotExpired(ctx context.Context, userID int) (*user.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.MembershipEndDate == nil || s.clock.Now().Before(*u.MembershipEndDate) {
		return u, nil
	}

	from := u.MembershipStatus
	u.MembershipStatus = user.MembershipExpired
	if u.MembershipPlanID != nil {
		u.PendingMembershipPlanID = u.MembershipPlanID
	}
	u.MembershipPlanID = nil
	u.MembershipStartDate = nil
	u.MembershipEndDate = nil
	u.IsActive = false

	if err := s.save(ctx, u, from); err != nil {
		return nil, err
	}

	logger.Info("membership expired", "user_id", u.ID)
	s.notify(func() error { return s.notifier.MembershipExpired(ctx, u) }, "expired", u.ID)
	return u, nil
}

func (s *service) Status(ctx context.Context, userID int) (*View, error) {
	u, err := s.EnsureNotExpired(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &View{
		UserID:    u.ID,
		Status:    u.MembershipStatus,
		IsActive:  u.IsActive,
		StartDate: u.MembershipStartDate,
		EndDate:   u.MembershipEndDate,
	}
	if view.Plan, err = s.lookupPlan(ctx, u.MembershipPlanID); err != nil {
		return nil, err
	}
	if view.PendingPlan, err = s.lookupPlan(ctx, u.PendingMembershipPlanID); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) ListPending(ctx context.Context) ([]user.User, error) {
	return s.users.ListByMembershipStatus(ctx, user.MembershipPending)
}

func (s *service) lookupPlan(ctx context.Context, id *int) (*plan.Plan, error) {
	if id == nil {
		return nil, nil
	}
	p, err := s.plans.FindByID(ctx, *id)
	if errors.Is(err, plan.ErrPlanNotFound) {
		return nil, nil
	}
	return p, err
}

func (s *service) save(ctx context.Context, u *user.User, from user.MembershipStatus) error {
	if err := s.users.SaveMembership(ctx, u); err != nil {
		return fmt.Errorf("save membership: %w", err)
	}
	metrics.RecordMembershipTransition(string(from), string(u.MembershipStatus))
	return nil
}

func (s *service) notify(send func() error, kind string, userID int) {
	if s.notifier == nil {
		return
	}
	if err := send(); err != nil {
		logger.WithError(err).Warn("membership notification failed", "kind", kind, "user_id", userID)
	}
}
