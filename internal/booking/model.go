package booking

import (
	"time"

	"gymcore/internal/entitlement"
)

const (
	StatusBooked    = "booked"
	StatusCancelled = "cancelled"
)

// Booking is a personal training session between a member and a trainer.
type Booking struct {
	ID          int       `db:"id" json:"id"`
	MemberID    int       `db:"member_id" json:"member_id"`
	TrainerID   int       `db:"trainer_id" json:"trainer_id"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type BookingWithDetails struct {
	Booking
	MemberName  string `db:"member_name" json:"member_name"`
	MemberEmail string `db:"member_email" json:"member_email"`
	TrainerName string `db:"trainer_name" json:"trainer_name"`
}

type BookSessionRequest struct {
	TrainerID   int       `json:"trainer_id" validate:"required,gt=0"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

type BookSessionResponse struct {
	Booking   *Booking                  `json:"booking"`
	Month     string                    `json:"month"`
	Usage     entitlement.UsageCounters `json:"usage"`
	Remaining *int                      `json:"remaining"`
}

type CancelBookingResponse struct {
	Message string `json:"message" example:"Session cancelled"`
}
