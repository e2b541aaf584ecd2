package screening

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/swarnabindu/prashan/internal/platform/apperr"
)

type mockRepo struct {
	store map[uuid.UUID]*Screening
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[uuid.UUID]*Screening)}
}

func (m *mockRepo) Create(_ context.Context, s *Screening) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	m.store[s.ID] = s
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Screening, error) {
	s, ok := m.store[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return s, nil
}

func (m *mockRepo) page(keep func(*Screening) bool, limit, offset int) ([]*Screening, int, error) {
	var all []*Screening
	for _, s := range m.store {
		if keep(s) {
			all = append(all, s)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ScreeningDate > all[j].ScreeningDate })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Screening, int, error) {
	return m.page(func(*Screening) bool { return true }, limit, offset)
}

func (m *mockRepo) ListByRegistration(_ context.Context, registrationID uuid.UUID, limit, offset int) ([]*Screening, int, error) {
	return m.page(func(s *Screening) bool { return s.RegistrationID == registrationID }, limit, offset)
}
