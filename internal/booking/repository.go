package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gymcore/internal/db"

	"github.com/jmoiron/sqlx"
)

var ErrBookingNotFoundOrAlreadyCancelled = errors.New("booking not found or already cancelled")

const bookingColumns = `id, member_id, trainer_id, scheduled_at, status, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, memberID, trainerID int, scheduledAt time.Time) (*Booking, error) {
	query := `
		INSERT INTO bookings (member_id, trainer_id, scheduled_at, status)
		VALUES ($1, $2, $3, 'booked')
		RETURNING ` + bookingColumns

	var booking Booking
	if err := r.db.GetContext(ctx, &booking, query, memberID, trainerID, scheduledAt); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var booking Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) Cancel(ctx context.Context, id int) error {
	query := `
		UPDATE bookings
		SET status = 'cancelled'
		WHERE id = $1 AND status = 'booked'
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrBookingNotFoundOrAlreadyCancelled
	}
	return nil
}

func (r *repository) TrainerBusy(ctx context.Context, trainerID int, at time.Time) (bool, error) {
	return db.Exists(ctx, r.db, `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE trainer_id = $1 AND scheduled_at = $2 AND status = 'booked'
		)`, trainerID, at)
}

func (r *repository) ListByMember(ctx context.Context, memberID int) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE member_id = $1
		ORDER BY scheduled_at DESC
	`

	bookings := []Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, memberID); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) ListByTrainer(ctx context.Context, trainerID int) ([]BookingWithDetails, error) {
	query := `
		SELECT
			b.id,
			b.member_id,
			b.trainer_id,
			b.scheduled_at,
			b.status,
			b.created_at,
			m.name AS member_name,
			m.email AS member_email,
			t.name AS trainer_name
		FROM bookings b
		JOIN users m ON b.member_id = m.id
		JOIN users t ON b.trainer_id = t.id
		WHERE b.trainer_id = $1
		ORDER BY b.scheduled_at ASC
	`

	bookings := []BookingWithDetails{}
	if err := r.db.SelectContext(ctx, &bookings, query, trainerID); err != nil {
		return nil, err
	}
	return bookings, nil
}
