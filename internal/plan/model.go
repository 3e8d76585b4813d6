package plan

import (
	"encoding/json"
	"time"
)

type Duration string

const (
	DurationMonthly   Duration = "monthly"
	DurationQuarterly Duration = "quarterly"
	DurationYearly    Duration = "yearly"
)

type Plan struct {
	ID                       int       `db:"id" json:"id"`
	Name                     string    `db:"name" json:"name"`
	Description              string    `db:"description" json:"description"`
	PriceCents               int64     `db:"price_cents" json:"price_cents"`
	Duration                 Duration  `db:"duration" json:"duration"`
	IncludesPersonalTraining bool      `db:"includes_personal_training" json:"includes_personal_training"`
	IncludesNutritionPlan    bool      `db:"includes_nutrition_plan" json:"includes_nutrition_plan"`
	IncludesWorkoutPlan      bool      `db:"includes_workout_plan" json:"includes_workout_plan"`
	PersonalTrainingLimit    *int      `db:"personal_training_limit" json:"personal_training_limit"`
	MaxTrainings             *int      `db:"max_trainings" json:"max_trainings,omitempty"` // legacy
	GuestPassLimit           *int      `db:"guest_pass_limit" json:"guest_pass_limit"`
	MassageSessionLimit      *int      `db:"massage_session_limit" json:"massage_session_limit"`
	IsActive                 bool      `db:"is_active" json:"is_active"`
	CreatedAt                time.Time `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time `db:"updated_at" json:"updated_at"`

	Limits Limits `db:"-" json:"limits"`
}

// Limit is a per-period cap. Unlimited plans allow every request; a zero cap
// means the feature is not part of the plan.
type Limit struct {
	Unlimited bool
	Max       int
}

func (l Limit) Included() bool {
	return l.Unlimited || l.Max > 0
}

func (l Limit) Allows(used int) bool {
	return l.Unlimited || used < l.Max
}

func (l Limit) MarshalJSON() ([]byte, error) {
	if l.Unlimited {
		return []byte("null"), nil
	}
	return json.Marshal(l.Max)
}

func (l *Limit) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = Limit{Unlimited: true}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*l = Limit{Max: n}
	return nil
}

type Limits struct {
	PersonalTraining Limit `json:"personal_training"`
	GuestPass        Limit `json:"guest_pass"`
	Massage          Limit `json:"massage"`
}

// Resolve fills Limits from the nullable columns. Personal training falls
// back to the legacy MaxTrainings column when its own limit is unset.
func (p *Plan) Resolve() {
	p.Limits = Limits{
		PersonalTraining: resolveLimit(p.PersonalTrainingLimit, p.MaxTrainings),
		GuestPass:        resolveLimit(p.GuestPassLimit),
		Massage:          resolveLimit(p.MassageSessionLimit),
	}
}

func resolveLimit(candidates ...*int) Limit {
	for _, c := range candidates {
		if c != nil {
			return Limit{Max: *c}
		}
	}
	return Limit{Unlimited: true}
}

type PlanRequest struct {
	Name                     string `json:"name" validate:"required,min=2,max=255"`
	Description              string `json:"description" validate:"max=2000"`
	PriceCents               int64  `json:"price_cents" validate:"gte=0"`
	Duration                 string `json:"duration" validate:"required,oneof=monthly quarterly yearly"`
	IncludesPersonalTraining bool   `json:"includes_personal_training"`
	IncludesNutritionPlan    bool   `json:"includes_nutrition_plan"`
	IncludesWorkoutPlan      bool   `json:"includes_workout_plan"`
	PersonalTrainingLimit    *int   `json:"personal_training_limit" validate:"omitempty,gte=0"`
	MaxTrainings             *int   `json:"max_trainings" validate:"omitempty,gte=0"`
	GuestPassLimit           *int   `json:"guest_pass_limit" validate:"omitempty,gte=0"`
	MassageSessionLimit      *int   `json:"massage_session_limit" validate:"omitempty,gte=0"`
	IsActive                 *bool  `json:"is_active"`
}

func (r PlanRequest) apply(p *Plan) {
	p.Name = r.Name
	p.Description = r.Description
	p.PriceCents = r.PriceCents
	p.Duration = Duration(r.Duration)
	p.IncludesPersonalTraining = r.IncludesPersonalTraining
	p.IncludesNutritionPlan = r.IncludesNutritionPlan
	p.IncludesWorkoutPlan = r.IncludesWorkoutPlan
	p.PersonalTrainingLimit = r.PersonalTrainingLimit
	p.MaxTrainings = r.MaxTrainings
	p.GuestPassLimit = r.GuestPassLimit
	p.MassageSessionLimit = r.MassageSessionLimit
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
}
