package doselog

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/swarnabindu/prashan/internal/platform/apperr"
)

type mockRepo struct {
	store map[uuid.UUID]*DoseLog
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[uuid.UUID]*DoseLog)}
}

func (m *mockRepo) Create(_ context.Context, d *DoseLog) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	m.store[d.ID] = d
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*DoseLog, error) {
	d, ok := m.store[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return d, nil
}

func (m *mockRepo) filter(keep func(*DoseLog) bool, limit, offset int) ([]*DoseLog, int, error) {
	var all []*DoseLog
	for _, d := range m.store {
		if keep(d) {
			all = append(all, d)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].DoseDate > all[j].DoseDate })
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

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*DoseLog, int, error) {
	return m.filter(func(*DoseLog) bool { return true }, limit, offset)
}

func (m *mockRepo) ListByRegistration(_ context.Context, registrationID uuid.UUID, limit, offset int) ([]*DoseLog, int, error) {
	return m.filter(func(d *DoseLog) bool { return d.RegistrationID == registrationID }, limit, offset)
}

func (m *mockRepo) Summary(_ context.Context, registrationID uuid.UUID) (Summary, error) {
	var s Summary
	for _, d := range m.store {
		if d.RegistrationID != registrationID {
			continue
		}
		s.TotalDoses++
		if s.FirstDose == "" || d.DoseDate < s.FirstDose {
			s.FirstDose = d.DoseDate
		}
		if d.DoseDate > s.LastDose {
			s.LastDose = d.DoseDate
		}
	}
	return s, nil
}
