package doselog

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *DoseLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*DoseLog, error)
	List(ctx context.Context, limit, offset int) ([]*DoseLog, int, error)
	ListByRegistration(ctx context.Context, registrationID uuid.UUID, limit, offset int) ([]*DoseLog, int, error)
	Summary(ctx context.Context, registrationID uuid.UUID) (Summary, error)
}
