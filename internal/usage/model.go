package usage

import (
	"errors"
	"time"
)

var (
	ErrLimitReached   = errors.New("usage limit reached")
	ErrRecordNotFound = errors.New("usage record not found")
	ErrUnknownCounter = errors.New("unknown usage counter")
)

// Counter names a per-period usage column. Only the values below are ever
// interpolated into queries.
type Counter string

const (
	CounterPersonalTraining Counter = "personal_training_sessions"
	CounterGuestPass        Counter = "guest_passes"
	CounterMassage          Counter = "massage_sessions"
)

func (c Counter) Valid() bool {
	switch c {
	case CounterPersonalTraining, CounterGuestPass, CounterMassage:
		return true
	}
	return false
}

// Record holds one member's counters for one calendar month.
type Record struct {
	ID                       int       `db:"id" bson:"-" json:"id,omitempty"`
	UserID                   int       `db:"user_id" bson:"user_id" json:"user_id"`
	Month                    string    `db:"month" bson:"month" json:"month"`
	PlanID                   int       `db:"plan_id" bson:"plan_id" json:"plan_id"`
	PersonalTrainingSessions int       `db:"personal_training_sessions" bson:"personal_training_sessions" json:"personal_training_sessions"`
	GuestPasses              int       `db:"guest_passes" bson:"guest_passes" json:"guest_passes"`
	MassageSessions          int       `db:"massage_sessions" bson:"massage_sessions" json:"massage_sessions"`
	CreatedAt                time.Time `db:"created_at" bson:"created_at" json:"created_at"`
	UpdatedAt                time.Time `db:"updated_at" bson:"updated_at" json:"updated_at"`
}

func (r *Record) Used(c Counter) int {
	switch c {
	case CounterPersonalTraining:
		return r.PersonalTrainingSessions
	case CounterGuestPass:
		return r.GuestPasses
	case CounterMassage:
		return r.MassageSessions
	}
	return 0
}
