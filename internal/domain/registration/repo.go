package registration

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*Registration, error)
	GetBySerial(ctx context.Context, serial string) (*Registration, error)
	// Update writes the given columns and returns the stored row. Keys must
	// already be checked against the updatable set.
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*Registration, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f Filter, limit, offset int) ([]*Registration, int, error)
}
