package membership

import (
	"time"

	"gymcore/internal/plan"
	"gymcore/internal/user"
)

// View is the member-facing membership state. Plan and PendingPlan are nil
// when unset or when the referenced plan has since been deleted.
type View struct {
	UserID      int                   `json:"user_id"`
	Status      user.MembershipStatus `json:"status"`
	IsActive    bool                  `json:"is_active"`
	Plan        *plan.Plan            `json:"plan"`
	PendingPlan *plan.Plan            `json:"pending_plan"`
	StartDate   *time.Time            `json:"start_date"`
	EndDate     *time.Time            `json:"end_date"`
}

type SelectRequest struct {
	PlanID int `json:"plan_id" validate:"required,gt=0"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type RejectResponse struct {
	User   user.User `json:"user"`
	Reason string    `json:"reason,omitempty"`
}

// Window returns the billing window an approval at now opens for duration d.
// Monthly plans are anchored to the first of the current month and run for
// 30 days; quarterly and yearly run from now; anything else gets one month.
func Window(d plan.Duration, now time.Time) (start, end time.Time) {
	switch d {
	case plan.DurationMonthly:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 0, 30)
	case plan.DurationQuarterly:
		return now, now.AddDate(0, 3, 0)
	case plan.DurationYearly:
		return now, now.AddDate(1, 0, 0)
	default:
		return now, now.AddDate(0, 1, 0)
	}
}
