package user

import (
	"time"

	"gymcore/internal/auth"
)

type MembershipStatus string

const (
	RoleMember  = auth.RoleMember
	RoleTrainer = auth.RoleTrainer
	RoleAdmin   = auth.RoleAdmin

	MembershipNone     MembershipStatus = "none"
	MembershipPending  MembershipStatus = "pending"
	MembershipActive   MembershipStatus = "active"
	MembershipRejected MembershipStatus = "rejected"
	MembershipExpired  MembershipStatus = "expired"
)

// User carries the account and the membership fields it owns.
// MembershipPlanID and the membership dates are set only while the status is
// active; PendingMembershipPlanID is set while pending and retained after
// expiry so the same plan can be re-requested.
type User struct {
	ID                      int              `db:"id" json:"id"`
	Name                    string           `db:"name" json:"name"`
	Email                   string           `db:"email" json:"email"`
	PasswordHash            string           `db:"password_hash" json:"-"`
	Role                    string           `db:"role" json:"role"`
	MembershipStatus        MembershipStatus `db:"membership_status" json:"membership_status"`
	MembershipPlanID        *int             `db:"membership_plan_id" json:"membership_plan_id"`
	PendingMembershipPlanID *int             `db:"pending_membership_plan_id" json:"pending_membership_plan_id"`
	MembershipStartDate     *time.Time       `db:"membership_start_date" json:"membership_start_date"`
	MembershipEndDate       *time.Time       `db:"membership_end_date" json:"membership_end_date"`
	IsActive                bool             `db:"is_active" json:"is_active"`
	CreatedAt               time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time        `db:"updated_at" json:"updated_at"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type CreateUserRequest struct {
	RegisterRequest
	Role string `json:"role" binding:"required,oneof=member trainer admin"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

func IsValidRole(role string) bool {
	return auth.ValidRole(role)
}
