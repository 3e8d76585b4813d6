package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymcore/internal/clock"
	"gymcore/internal/entitlement"
	"gymcore/internal/logger"
	"gymcore/internal/metrics"
	"gymcore/internal/usage"
	"gymcore/internal/user"
)

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrTrainerNotFound  = errors.New("trainer not found")
	ErrSessionInPast    = errors.New("cannot book a session in the past")
	ErrTrainerBusy      = errors.New("trainer already has a session at this time")
	ErrNotOwner         = errors.New("can only cancel own sessions")
	ErrAlreadyCancelled = errors.New("session already cancelled")
)

// Gate is the part of the entitlement service bookings depend on.
type Gate interface {
	Authorize(ctx context.Context, userID int, action entitlement.Action) (*entitlement.Authorization, error)
	Consume(ctx context.Context, auth *entitlement.Authorization) (*usage.Record, error)
}

type Notifier interface {
	SessionBooked(ctx context.Context, member, trainer *user.User, at time.Time) error
	SessionCancelled(ctx context.Context, member, trainer *user.User, at time.Time) error
}

type Service interface {
	BookSession(ctx context.Context, memberID, trainerID int, scheduledAt time.Time) (*BookSessionResponse, error)
	CancelSession(ctx context.Context, memberID, bookingID int) error
	ListMine(ctx context.Context, memberID int) ([]Booking, error)
	ListForTrainer(ctx context.Context, trainerID int) ([]BookingWithDetails, error)
}

type service struct {
	bookingRepo Repository
	userRepo    user.Repository
	gate        Gate
	notifier    Notifier
	clock       clock.Clock
}

func NewService(bookingRepo Repository, userRepo user.Repository, gate Gate, notifier Notifier, clk clock.Clock) Service {
	return &service{
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		gate:        gate,
		notifier:    notifier,
		clock:       clk,
	}
}

func (s *service) BookSession(ctx context.Context, memberID, trainerID int, scheduledAt time.Time) (*BookSessionResponse, error) {
	trainer, err := s.userRepo.FindByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	if trainer.Role != user.RoleTrainer {
		return nil, ErrTrainerNotFound
	}

	scheduledAt = scheduledAt.UTC()
	if !scheduledAt.After(s.clock.Now()) {
		return nil, ErrSessionInPast
	}

	busy, err := s.bookingRepo.TrainerBusy(ctx, trainerID, scheduledAt)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, ErrTrainerBusy
	}

	authz, err := s.gate.Authorize(ctx, memberID, entitlement.ActionPersonalTraining)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.Create(ctx, memberID, trainerID, scheduledAt)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	rec, err := s.gate.Consume(ctx, authz)
	if err != nil {
		if cancelErr := s.bookingRepo.Cancel(ctx, booking.ID); cancelErr != nil {
			logger.WithError(cancelErr).Error("failed to roll back booking", "booking_id", booking.ID)
		}
		return nil, err
	}

	metrics.RecordSessionBooked()
	logger.Info("session booked", "booking_id", booking.ID, "member_id", memberID, "trainer_id", trainerID)

	if s.notifier != nil {
		if member, err := s.userRepo.FindByID(ctx, memberID); err == nil {
			if err := s.notifier.SessionBooked(ctx, member, trainer, scheduledAt); err != nil {
				logger.WithError(err).Warn("session confirmation not queued", "booking_id", booking.ID)
			}
		}
	}

	return &BookSessionResponse{
		Booking:   booking,
		Month:     rec.Month,
		Usage:     entitlement.CountersOf(rec),
		Remaining: entitlement.Remaining(authz.Plan, rec, entitlement.ActionPersonalTraining),
	}, nil
}

// CancelSession marks the session cancelled. The consumed personal training
// use is not returned.
func (s *service) CancelSession(ctx context.Context, memberID, bookingID int) error {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.MemberID != memberID {
		return ErrNotOwner
	}
	if booking.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}

	if err := s.bookingRepo.Cancel(ctx, bookingID); err != nil {
		if errors.Is(err, ErrBookingNotFoundOrAlreadyCancelled) {
			return ErrAlreadyCancelled
		}
		return err
	}

	metrics.RecordSessionCancellation()
	logger.Info("session cancelled", "booking_id", bookingID, "member_id", memberID)

	if s.notifier == nil {
		return nil
	}
	member, err := s.userRepo.FindByID(ctx, memberID)
	if err != nil {
		return nil
	}
	trainer, err := s.userRepo.FindByID(ctx, booking.TrainerID)
	if err != nil {
		return nil
	}
	if err := s.notifier.SessionCancelled(ctx, member, trainer, booking.ScheduledAt); err != nil {
		logger.WithError(err).Warn("cancellation email not queued", "booking_id", bookingID)
	}
	return nil
}

func (s *service) ListMine(ctx context.Context, memberID int) ([]Booking, error) {
	return s.bookingRepo.ListByMember(ctx, memberID)
}

func (s *service) ListForTrainer(ctx context.Context, trainerID int) ([]BookingWithDetails, error) {
	return s.bookingRepo.ListByTrainer(ctx, trainerID)
}
