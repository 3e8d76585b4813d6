package entitlement

import (
	"errors"
	"fmt"

	"gymcore/internal/plan"
	"gymcore/internal/usage"
)

type Action string

const (
	ActionPersonalTraining Action = "personal_training"
	ActionGuestPass        Action = "guest_pass"
	ActionMassage          Action = "massage"
)

// Reason codes returned with a denial.
const (
	ReasonMembershipInactive = "membership_inactive"
	ReasonNotIncluded        = "not_included"
	ReasonLimitReached       = "limit_reached"
)

var (
	ErrDenied        = errors.New("entitlement denied")
	ErrUnknownAction = errors.New("unknown action")
)

// DeniedError carries the reason code and the member-facing message.
type DeniedError struct {
	Action  Action
	Reason  string
	Message string
}

func (e *DeniedError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("denied (%s): %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("%s denied (%s): %s", e.Action, e.Reason, e.Message)
}

func (e *DeniedError) Is(target error) bool {
	return target == ErrDenied
}

func (a Action) Valid() bool {
	switch a {
	case ActionPersonalTraining, ActionGuestPass, ActionMassage:
		return true
	}
	return false
}

func (a Action) counter() usage.Counter {
	switch a {
	case ActionPersonalTraining:
		return usage.CounterPersonalTraining
	case ActionGuestPass:
		return usage.CounterGuestPass
	default:
		return usage.CounterMassage
	}
}

func (a Action) limit(p *plan.Plan) plan.Limit {
	switch a {
	case ActionPersonalTraining:
		if !p.IncludesPersonalTraining {
			return plan.Limit{}
		}
		return p.Limits.PersonalTraining
	case ActionGuestPass:
		return p.Limits.GuestPass
	default:
		return p.Limits.Massage
	}
}

func (a Action) noun() string {
	switch a {
	case ActionPersonalTraining:
		return "personal training session"
	case ActionGuestPass:
		return "guest pass"
	default:
		return "massage session"
	}
}

func deny(a Action, reason string) *DeniedError {
	var msg string
	switch reason {
	case ReasonMembershipInactive:
		msg = "an active membership is required to use a " + a.noun()
	case ReasonNotIncluded:
		msg = "your plan does not include " + a.noun() + "s"
	default:
		msg = "you have reached your " + a.noun() + " limit for this period"
	}
	return &DeniedError{Action: a, Reason: reason, Message: msg}
}

// Decide is the pure gate decision for one action against a plan and the
// current month's usage. A nil result means allowed.
func Decide(p *plan.Plan, rec *usage.Record, a Action) *DeniedError {
	limit := a.limit(p)
	if limit.Unlimited {
		return nil
	}
	if limit.Max <= 0 {
		return deny(a, ReasonNotIncluded)
	}
	if !limit.Allows(rec.Used(a.counter())) {
		return deny(a, ReasonLimitReached)
	}
	return nil
}

// Authorization is a passed gate check that has not been consumed yet.
type Authorization struct {
	UserID int
	Action Action
	Plan   *plan.Plan
	Record *usage.Record
}

type Summary struct {
	Month    string        `json:"month"`
	PlanID   int           `json:"plan_id"`
	PlanName string        `json:"plan_name"`
	Limits   plan.Limits   `json:"limits"`
	Usage    UsageCounters `json:"usage"`
}

type UsageCounters struct {
	PersonalTraining int `json:"personal_training"`
	GuestPass        int `json:"guest_pass"`
	Massage          int `json:"massage"`
}

type ConsumeResponse struct {
	Action    Action        `json:"action"`
	Allowed   bool          `json:"allowed"`
	Month     string        `json:"month"`
	Usage     UsageCounters `json:"usage"`
	Remaining *int          `json:"remaining"`
}

func CountersOf(rec *usage.Record) UsageCounters {
	return UsageCounters{
		PersonalTraining: rec.PersonalTrainingSessions,
		GuestPass:        rec.GuestPasses,
		Massage:          rec.MassageSessions,
	}
}
