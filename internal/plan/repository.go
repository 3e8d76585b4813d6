package plan

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrPlanNotFound = errors.New("plan not found")

const planColumns = `id, name, description, price_cents, duration, includes_personal_training,
		includes_nutrition_plan, includes_workout_plan, personal_training_limit, max_trainings,
		guest_pass_limit, massage_session_limit, is_active, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Plan) (*Plan, error) {
	query := `
		INSERT INTO plans (name, description, price_cents, duration, includes_personal_training,
			includes_nutrition_plan, includes_workout_plan, personal_training_limit, max_trainings,
			guest_pass_limit, massage_session_limit, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + planColumns

	var created Plan
	err := r.db.GetContext(ctx, &created, query,
		p.Name, p.Description, p.PriceCents, p.Duration, p.IncludesPersonalTraining,
		p.IncludesNutritionPlan, p.IncludesWorkoutPlan, p.PersonalTrainingLimit, p.MaxTrainings,
		p.GuestPassLimit, p.MassageSessionLimit, p.IsActive,
	)
	if err != nil {
		return nil, err
	}

	created.Resolve()
	return &created, nil
}

func (r *repository) Update(ctx context.Context, p *Plan) (*Plan, error) {
	query := `
		UPDATE plans
		SET name = $1, description = $2, price_cents = $3, duration = $4,
		    includes_personal_training = $5, includes_nutrition_plan = $6, includes_workout_plan = $7,
		    personal_training_limit = $8, max_trainings = $9, guest_pass_limit = $10,
		    massage_session_limit = $11, is_active = $12, updated_at = NOW()
		WHERE id = $13
		RETURNING ` + planColumns

	var updated Plan
	err := r.db.GetContext(ctx, &updated, query,
		p.Name, p.Description, p.PriceCents, p.Duration, p.IncludesPersonalTraining,
		p.IncludesNutritionPlan, p.IncludesWorkoutPlan, p.PersonalTrainingLimit, p.MaxTrainings,
		p.GuestPassLimit, p.MassageSessionLimit, p.IsActive, p.ID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	updated.Resolve()
	return &updated, nil
}

// Delete removes the plan even if members still reference it.
func (r *repository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrPlanNotFound
	}

	return nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`

	var p Plan
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	p.Resolve()
	return &p, nil
}

func (r *repository) List(ctx context.Context, onlyActive bool) ([]Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans`
	if onlyActive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY price_cents ASC, id ASC`

	plans := []Plan{}
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, err
	}

	for i := range plans {
		plans[i].Resolve()
	}
	return plans, nil
}
