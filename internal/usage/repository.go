package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gymcore/internal/plan"

	"github.com/jmoiron/sqlx"
)

const recordColumns = `id, user_id, month, plan_id, personal_training_sessions, guest_passes,
		massage_sessions, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetOrCreate(ctx context.Context, userID, planID int, month string) (*Record, error) {
	query := `
		INSERT INTO usage_records (user_id, month, plan_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, month) DO UPDATE
		SET plan_id = EXCLUDED.plan_id,
		    updated_at = CASE WHEN usage_records.plan_id = EXCLUDED.plan_id
		                      THEN usage_records.updated_at ELSE NOW() END
		RETURNING ` + recordColumns

	var rec Record
	if err := r.db.GetContext(ctx, &rec, query, userID, month, planID); err != nil {
		return nil, fmt.Errorf("get or create usage record: %w", err)
	}
	return &rec, nil
}

func (r *repository) Increment(ctx context.Context, rec *Record, counter Counter) error {
	if !counter.Valid() {
		return ErrUnknownCounter
	}

	query := fmt.Sprintf(`
		UPDATE usage_records
		SET %[1]s = %[1]s + 1, updated_at = NOW()
		WHERE id = $1`, counter)

	result, err := r.db.ExecContext(ctx, query, rec.ID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *repository) TryConsume(ctx context.Context, rec *Record, counter Counter, limit plan.Limit) (*Record, error) {
	if !counter.Valid() {
		return nil, ErrUnknownCounter
	}

	var ceiling *int
	if !limit.Unlimited {
		ceiling = &limit.Max
	}

	query := fmt.Sprintf(`
		UPDATE usage_records
		SET %[1]s = %[1]s + 1, updated_at = NOW()
		WHERE id = $1 AND ($2::int IS NULL OR %[1]s < $2::int)
		RETURNING `+recordColumns, counter)

	var updated Record
	if err := r.db.GetContext(ctx, &updated, query, rec.ID, ceiling); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLimitReached
		}
		return nil, err
	}
	return &updated, nil
}

func (r *repository) ListByMonth(ctx context.Context, month string) ([]Record, error) {
	records := []Record{}
	err := r.db.SelectContext(ctx, &records,
		`SELECT `+recordColumns+` FROM usage_records WHERE month = $1 ORDER BY user_id`, month)
	if err != nil {
		return nil, err
	}
	return records, nil
}
