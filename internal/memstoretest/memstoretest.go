// Package memstoretest provides in-memory user, plan and usage repositories
// for service tests that need state across calls. It is imported only from
// _test.go files.
package memstoretest

import (
	"context"
	"sort"
	"sync"
	"time"

	"gymcore/internal/plan"
	"gymcore/internal/usage"
	"gymcore/internal/user"
)

type Users struct {
	mu    sync.Mutex
	users map[int]user.User
	next  int
}

func NewUsers() *Users {
	return &Users{users: map[int]user.User{}, next: 1}
}

// Put stores u as-is, assigning an id when u.ID is zero.
func (s *Users) Put(u user.User) *user.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == 0 {
		u.ID = s.next
	}
	if u.ID >= s.next {
		s.next = u.ID + 1
	}
	if u.MembershipStatus == "" {
		u.MembershipStatus = user.MembershipNone
	}
	s.users[u.ID] = u
	return &u
}

func (s *Users) Create(_ context.Context, name, email, passwordHash, role string) (*user.User, error) {
	now := time.Now().UTC()
	return s.Put(user.User{
		Name: name, Email: email, PasswordHash: passwordHash, Role: role,
		CreatedAt: now, UpdatedAt: now,
	}), nil
}

func (s *Users) FindByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (s *Users) FindByID(_ context.Context, id int) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (s *Users) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	return err == nil, nil
}

func (s *Users) SaveMembership(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[u.ID]
	if !ok {
		return user.ErrUserNotFound
	}
	stored.MembershipStatus = u.MembershipStatus
	stored.MembershipPlanID = u.MembershipPlanID
	stored.PendingMembershipPlanID = u.PendingMembershipPlanID
	stored.MembershipStartDate = u.MembershipStartDate
	stored.MembershipEndDate = u.MembershipEndDate
	stored.IsActive = u.IsActive
	stored.UpdatedAt = time.Now().UTC()
	s.users[u.ID] = stored
	u.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *Users) ListByMembershipStatus(_ context.Context, status user.MembershipStatus) ([]user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []user.User{}
	for _, u := range s.users {
		if u.MembershipStatus == status {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type Plans struct {
	mu    sync.Mutex
	plans map[int]plan.Plan
	next  int
}

func NewPlans() *Plans {
	return &Plans{plans: map[int]plan.Plan{}, next: 1}
}

func (s *Plans) Create(_ context.Context, p *plan.Plan) (*plan.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *p
	if stored.ID == 0 {
		stored.ID = s.next
	}
	if stored.ID >= s.next {
		s.next = stored.ID + 1
	}
	stored.Resolve()
	s.plans[stored.ID] = stored
	return &stored, nil
}

func (s *Plans) Update(_ context.Context, p *plan.Plan) (*plan.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[p.ID]; !ok {
		return nil, plan.ErrPlanNotFound
	}
	stored := *p
	stored.Resolve()
	s.plans[p.ID] = stored
	return &stored, nil
}

func (s *Plans) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[id]; !ok {
		return plan.ErrPlanNotFound
	}
	delete(s.plans, id)
	return nil
}

func (s *Plans) FindByID(_ context.Context, id int) (*plan.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, plan.ErrPlanNotFound
	}
	return &p, nil
}

func (s *Plans) List(_ context.Context, onlyActive bool) ([]plan.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []plan.Plan{}
	for _, p := range s.plans {
		if onlyActive && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type usageKey struct {
	userID int
	month  string
}

type Usage struct {
	mu      sync.Mutex
	records map[usageKey]*usage.Record
	next    int
}

func NewUsage() *Usage {
	return &Usage{records: map[usageKey]*usage.Record{}, next: 1}
}

func (s *Usage) GetOrCreate(_ context.Context, userID, planID int, month string) (*usage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := usageKey{userID, month}
	rec, ok := s.records[key]
	if !ok {
		now := time.Now().UTC()
		rec = &usage.Record{ID: s.next, UserID: userID, Month: month, PlanID: planID, CreatedAt: now, UpdatedAt: now}
		s.next++
		s.records[key] = rec
	}
	rec.PlanID = planID
	out := *rec
	return &out, nil
}

func (s *Usage) Increment(_ context.Context, rec *usage.Record, counter usage.Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[usageKey{rec.UserID, rec.Month}]
	if !ok {
		return usage.ErrRecordNotFound
	}
	return bump(stored, counter)
}

func (s *Usage) TryConsume(_ context.Context, rec *usage.Record, counter usage.Counter, limit plan.Limit) (*usage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[usageKey{rec.UserID, rec.Month}]
	if !ok {
		return nil, usage.ErrRecordNotFound
	}
	if !counter.Valid() {
		return nil, usage.ErrUnknownCounter
	}
	if !limit.Allows(stored.Used(counter)) {
		return nil, usage.ErrLimitReached
	}
	if err := bump(stored, counter); err != nil {
		return nil, err
	}
	out := *stored
	return &out, nil
}

func (s *Usage) ListByMonth(_ context.Context, month string) ([]usage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []usage.Record{}
	for k, rec := range s.records {
		if k.month == month {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func bump(rec *usage.Record, counter usage.Counter) error {
	switch counter {
	case usage.CounterPersonalTraining:
		rec.PersonalTrainingSessions++
	case usage.CounterGuestPass:
		rec.GuestPasses++
	case usage.CounterMassage:
		rec.MassageSessions++
	default:
		return usage.ErrUnknownCounter
	}
	rec.UpdatedAt = time.Now().UTC()
	return nil
}
