package plan

import "context"

type Repository interface {
	Create(ctx context.Context, p *Plan) (*Plan, error)
	Update(ctx context.Context, p *Plan) (*Plan, error)
	Delete(ctx context.Context, id int) error
	FindByID(ctx context.Context, id int) (*Plan, error)
	List(ctx context.Context, onlyActive bool) ([]Plan, error)
}
