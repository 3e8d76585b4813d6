package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, name, email, password_hash, role, membership_status, membership_plan_id,
		pending_membership_plan_id, membership_start_date, membership_end_date, is_active,
		created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	var user User
	if err := r.db.GetContext(ctx, &user, query, name, email, passwordHash, role); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, err
	}

	return exists, nil
}

// SaveMembership overwrites the membership fields of u. Last write wins.
func (r *repository) SaveMembership(ctx context.Context, u *User) error {
	query := `
		UPDATE users
		SET membership_status = $1,
		    membership_plan_id = $2,
		    pending_membership_plan_id = $3,
		    membership_start_date = $4,
		    membership_end_date = $5,
		    is_active = $6,
		    updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		u.MembershipStatus,
		u.MembershipPlanID,
		u.PendingMembershipPlanID,
		u.MembershipStartDate,
		u.MembershipEndDate,
		u.IsActive,
		u.ID,
	).Scan(&u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}

func (r *repository) ListByMembershipStatus(ctx context.Context, status MembershipStatus) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE membership_status = $1 ORDER BY updated_at ASC`

	users := []User{}
	if err := r.db.SelectContext(ctx, &users, query, status); err != nil {
		return nil, err
	}

	return users, nil
}
