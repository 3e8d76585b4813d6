package plan

import (
	"context"
	"fmt"

	"gymcore/internal/logger"
)

type Service interface {
	Get(ctx context.Context, id int) (*Plan, error)
	ListActive(ctx context.Context) ([]Plan, error)
	ListAll(ctx context.Context) ([]Plan, error)
	Create(ctx context.Context, req PlanRequest) (*Plan, error)
	Update(ctx context.Context, id int, req PlanRequest) (*Plan, error)
	Delete(ctx context.Context, id int) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, id int) (*Plan, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListActive(ctx context.Context) ([]Plan, error) {
	return s.repo.List(ctx, true)
}

func (s *service) ListAll(ctx context.Context) ([]Plan, error) {
	return s.repo.List(ctx, false)
}

func (s *service) Create(ctx context.Context, req PlanRequest) (*Plan, error) {
	p := &Plan{IsActive: true}
	req.apply(p)

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	logger.Info("plan created", "plan_id", created.ID, "name", created.Name, "duration", created.Duration)
	return created, nil
}

func (s *service) Update(ctx context.Context, id int, req PlanRequest) (*Plan, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req.apply(existing)
	return s.repo.Update(ctx, existing)
}

// Delete does not check whether members still point at the plan; such users
// keep a dangling plan id until their next lifecycle transition.
func (s *service) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("plan deleted", "plan_id", id)
	return nil
}
