package screening

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Screening) error
	GetByID(ctx context.Context, id uuid.UUID) (*Screening, error)
	List(ctx context.Context, limit, offset int) ([]*Screening, int, error)
	ListByRegistration(ctx context.Context, registrationID uuid.UUID, limit, offset int) ([]*Screening, int, error)
}
