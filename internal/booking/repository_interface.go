package booking

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, memberID, trainerID int, scheduledAt time.Time) (*Booking, error)
	FindByID(ctx context.Context, id int) (*Booking, error)
	Cancel(ctx context.Context, id int) error
	TrainerBusy(ctx context.Context, trainerID int, at time.Time) (bool, error)
	ListByMember(ctx context.Context, memberID int) ([]Booking, error)
	ListByTrainer(ctx context.Context, trainerID int) ([]BookingWithDetails, error)
}
