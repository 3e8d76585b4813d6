package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gymcore/internal/clock"
	"gymcore/internal/entitlement"
	"gymcore/internal/membership"
	"gymcore/internal/memstoretest"
	"gymcore/internal/plan"
	"gymcore/internal/usage"
	"gymcore/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, memberID, trainerID int, scheduledAt time.Time) (*Booking, error) {
	args := m.Called(ctx, memberID, trainerID, scheduledAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id int) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) Cancel(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) TrainerBusy(ctx context.Context, trainerID int, at time.Time) (bool, error) {
	args := m.Called(ctx, trainerID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListByMember(ctx context.Context, memberID int) ([]Booking, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockRepository) ListByTrainer(ctx context.Context, trainerID int) ([]BookingWithDetails, error) {
	args := m.Called(ctx, trainerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BookingWithDetails), args.Error(1)
}

type MockGate struct {
	mock.Mock
}

func (m *MockGate) Authorize(ctx context.Context, userID int, action entitlement.Action) (*entitlement.Authorization, error) {
	args := m.Called(ctx, userID, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.Authorization), args.Error(1)
}

func (m *MockGate) Consume(ctx context.Context, auth *entitlement.Authorization) (*usage.Record, error) {
	args := m.Called(ctx, auth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usage.Record), args.Error(1)
}

type notifierStub struct {
	mu        sync.Mutex
	booked    int
	cancelled int
}

func (n *notifierStub) SessionBooked(context.Context, *user.User, *user.User, time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.booked++
	return nil
}

func (n *notifierStub) SessionCancelled(context.Context, *user.User, *user.User, time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled++
	return nil
}

var testNow = time.Date(2024, 9, 10, 9, 0, 0, 0, time.UTC)

type bookingFixture struct {
	repo     *MockRepository
	users    *memstoretest.Users
	notifier *notifierStub
	member   *user.User
	trainer  *user.User
	svc      Service
}

// newBookingFixture wires the real entitlement gate over in-memory stores and
// gives the member an active plan with the given personal training limit.
func newBookingFixture(t *testing.T, includesPT bool, ptLimit *int) *bookingFixture {
	t.Helper()
	ctx := context.Background()
	clk := &clock.Fixed{T: testNow}

	users := memstoretest.NewUsers()
	plans := memstoretest.NewPlans()
	memberships := membership.NewService(users, plans, clk, nil)
	gate := entitlement.NewService(memberships, plans, memstoretest.NewUsage(), clk)

	p, err := plans.Create(ctx, &plan.Plan{
		Name: "PT", Duration: plan.DurationMonthly, IsActive: true,
		IncludesPersonalTraining: includesPT, PersonalTrainingLimit: ptLimit,
	})
	require.NoError(t, err)

	member := users.Put(user.User{Name: "Member", Email: "m@example.com", Role: user.RoleMember})
	trainer := users.Put(user.User{Name: "Coach", Email: "coach@example.com", Role: user.RoleTrainer})

	_, err = memberships.Select(ctx, member.ID, p.ID)
	require.NoError(t, err)
	_, err = memberships.Approve(ctx, member.ID)
	require.NoError(t, err)

	f := &bookingFixture{
		repo:     new(MockRepository),
		users:    users,
		notifier: &notifierStub{},
		member:   member,
		trainer:  trainer,
	}
	f.svc = NewService(f.repo, users, gate, f.notifier, clk)
	return f
}

func intPtr(v int) *int { return &v }

func TestService_BookSession(t *testing.T) {
	ctx := context.Background()
	at := testNow.Add(24 * time.Hour)

	t.Run("books and consumes a session", func(t *testing.T) {
		f := newBookingFixture(t, true, intPtr(2))
		f.repo.On("TrainerBusy", mock.Anything, f.trainer.ID, at).Return(false, nil)
		f.repo.On("Create", mock.Anything, f.member.ID, f.trainer.ID, at).
			Return(&Booking{ID: 1, MemberID: f.member.ID, TrainerID: f.trainer.ID, ScheduledAt: at, Status: StatusBooked}, nil)

		resp, err := f.svc.BookSession(ctx, f.member.ID, f.trainer.ID, at)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Booking.ID)
		assert.Equal(t, 1, resp.Usage.PersonalTraining)
		assert.Equal(t, "2024-09", resp.Month)
		require.NotNil(t, resp.Remaining)
		assert.Equal(t, 1, *resp.Remaining)
		assert.Equal(t, 1, f.notifier.booked)
		f.repo.AssertExpectations(t)
	})

	t.Run("limit reached", func(t *testing.T) {
		f := newBookingFixture(t, true, intPtr(1))
		f.repo.On("TrainerBusy", mock.Anything, f.trainer.ID, mock.Anything).Return(false, nil)
		f.repo.On("Create", mock.Anything, f.member.ID, f.trainer.ID, mock.Anything).
			Return(&Booking{ID: 1, Status: StatusBooked}, nil).Once()

		_, err := f.svc.BookSession(ctx, f.member.ID, f.trainer.ID, at)
		require.NoError(t, err)

		_, err = f.svc.BookSession(ctx, f.member.ID, f.trainer.ID, at.Add(time.Hour))
		var denied *entitlement.DeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, entitlement.ReasonLimitReached, denied.Reason)
		assert.Contains(t, denied.Message, "reached your personal training session limit for this period")
		f.repo.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("unlimited personal training", func(t *testing.T) {
		f := newBookingFixture(t, true, nil)
		f.repo.On("TrainerBusy", mock.Anything, f.trainer.ID, mock.Anything).Return(false, nil)
		f.repo.On("Create", mock.Anything, f.member.ID, f.trainer.ID, mock.Anything).
			Return(&Booking{ID: 1, Status: StatusBooked}, nil)

		for i := 1; i <= 20; i++ {
			resp, err := f.svc.BookSession(ctx, f.member.ID, f.trainer.ID, at.Add(time.Duration(i)*time.Hour))
			require.NoError(t, err)
			assert.Equal(t, i, resp.Usage.PersonalTraining)
			assert.Nil(t, resp.Remaining)
		}
	})

	t.Run("plan without personal training", func(t *testing.T) {
		f := newBookingFixture(t, false, nil)
		f.repo.On("TrainerBusy", mock.Anything, f.trainer.ID, at).Return(false, nil)

		_, err := f.svc.BookSession(ctx, f.member.ID, f.trainer.ID, at)
		var denied *entitlement.DeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, entitlement.ReasonNotIncluded, denied.Reason)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("trainer must have trainer role", func(t *testing.T) {
		f := newBookingFixture(t, true, nil)
		_, err := f.svc.BookSession(ctx, f.member.ID, f.member.ID, at)
		assert.ErrorIs(t, err, ErrTrainerNotFound)

		_, err = f.svc.BookSession(ctx, f.member.ID, 999, at)
		assert.ErrorIs(t, err, ErrTrainerNotFound)
	})

	t.Run("past time", func(t *testing.T) {
		f := newBookingFixture(t, true, nil)
		_, err := f.svc.BookSession(ctx, f.member.ID, f.trainer.ID, testNow.Add(-time.Minute))
		assert.ErrorIs(t, err, ErrSessionInPast)
	})

	t.Run("trainer busy", func(t *testing.T) {
		f := newBookingFixture(t, true, nil)
		f.repo.On("TrainerBusy", mock.Anything, f.trainer.ID, at).Return(true, nil)

		_, err := f.svc.BookSession(ctx, f.member.ID, f.trainer.ID, at)
		assert.ErrorIs(t, err, ErrTrainerBusy)
	})
}

func TestService_BookSession_RollsBackWhenConsumeLosesRace(t *testing.T) {
	ctx := context.Background()
	at := testNow.Add(time.Hour)

	users := memstoretest.NewUsers()
	member := users.Put(user.User{Name: "Member", Email: "m@example.com", Role: user.RoleMember})
	trainer := users.Put(user.User{Name: "Coach", Email: "coach@example.com", Role: user.RoleTrainer})

	authz := &entitlement.Authorization{UserID: member.ID, Action: entitlement.ActionPersonalTraining}
	denied := &entitlement.DeniedError{Action: entitlement.ActionPersonalTraining, Reason: entitlement.ReasonLimitReached}

	gate := new(MockGate)
	gate.On("Authorize", mock.Anything, member.ID, entitlement.ActionPersonalTraining).Return(authz, nil)
	gate.On("Consume", mock.Anything, authz).Return(nil, denied)

	repo := new(MockRepository)
	repo.On("TrainerBusy", mock.Anything, trainer.ID, at).Return(false, nil)
	repo.On("Create", mock.Anything, member.ID, trainer.ID, at).Return(&Booking{ID: 7, Status: StatusBooked}, nil)
	repo.On("Cancel", mock.Anything, 7).Return(nil)

	notifier := &notifierStub{}
	svc := NewService(repo, users, gate, notifier, &clock.Fixed{T: testNow})

	_, err := svc.BookSession(ctx, member.ID, trainer.ID, at)
	assert.ErrorIs(t, err, entitlement.ErrDenied)
	repo.AssertExpectations(t)
	assert.Zero(t, notifier.booked)
}

func TestService_CancelSession(t *testing.T) {
	ctx := context.Background()
	at := testNow.Add(time.Hour)

	t.Run("owner cancels without refund", func(t *testing.T) {
		f := newBookingFixture(t, true, intPtr(1))
		f.repo.On("TrainerBusy", mock.Anything, f.trainer.ID, at).Return(false, nil)
		f.repo.On("Create", mock.Anything, f.member.ID, f.trainer.ID, at).
			Return(&Booking{ID: 3, MemberID: f.member.ID, TrainerID: f.trainer.ID, ScheduledAt: at, Status: StatusBooked}, nil)
		f.repo.On("FindByID", mock.Anything, 3).
			Return(&Booking{ID: 3, MemberID: f.member.ID, TrainerID: f.trainer.ID, ScheduledAt: at, Status: StatusBooked}, nil)
		f.repo.On("Cancel", mock.Anything, 3).Return(nil)

		_, err := f.svc.BookSession(ctx, f.member.ID, f.trainer.ID, at)
		require.NoError(t, err)
		require.NoError(t, f.svc.CancelSession(ctx, f.member.ID, 3))
		assert.Equal(t, 1, f.notifier.cancelled)

		_, err = f.svc.BookSession(ctx, f.member.ID, f.trainer.ID, at)
		assert.ErrorIs(t, err, entitlement.ErrDenied)
	})

	t.Run("not owner", func(t *testing.T) {
		f := newBookingFixture(t, true, nil)
		f.repo.On("FindByID", mock.Anything, 4).Return(&Booking{ID: 4, MemberID: 999, Status: StatusBooked}, nil)

		assert.ErrorIs(t, f.svc.CancelSession(ctx, f.member.ID, 4), ErrNotOwner)
	})

	t.Run("already cancelled", func(t *testing.T) {
		f := newBookingFixture(t, true, nil)
		f.repo.On("FindByID", mock.Anything, 5).Return(&Booking{ID: 5, MemberID: f.member.ID, Status: StatusCancelled}, nil)

		assert.ErrorIs(t, f.svc.CancelSession(ctx, f.member.ID, 5), ErrAlreadyCancelled)
	})

	t.Run("missing", func(t *testing.T) {
		f := newBookingFixture(t, true, nil)
		f.repo.On("FindByID", mock.Anything, 6).Return(nil, ErrBookingNotFound)

		assert.ErrorIs(t, f.svc.CancelSession(ctx, f.member.ID, 6), ErrBookingNotFound)
	})

	t.Run("repository error", func(t *testing.T) {
		f := newBookingFixture(t, true, nil)
		dbErr := errors.New("connection reset")
		f.repo.On("FindByID", mock.Anything, 8).Return(&Booking{ID: 8, MemberID: f.member.ID, Status: StatusBooked}, nil)
		f.repo.On("Cancel", mock.Anything, 8).Return(dbErr)

		assert.ErrorIs(t, f.svc.CancelSession(ctx, f.member.ID, 8), dbErr)
	})
}
