package registration

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/swarnabindu/prashan/internal/domain/doselog"
	"github.com/swarnabindu/prashan/internal/platform/apperr"
)

var testNow = time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

type mockRepo struct {
	store map[uuid.UUID]*Registration
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[uuid.UUID]*Registration)}
}

func (m *mockRepo) Create(_ context.Context, r *Registration) error {
	for _, existing := range m.store {
		if existing.SerialNo == r.SerialNo {
			return apperr.ErrDuplicate
		}
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = testNow
	r.UpdatedAt = testNow
	m.store[r.ID] = r
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Registration, error) {
	r, ok := m.store[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return r, nil
}

func (m *mockRepo) GetBySerial(_ context.Context, serial string) (*Registration, error) {
	for _, r := range m.store {
		if r.SerialNo == serial {
			return r, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, id uuid.UUID, fields map[string]interface{}) (*Registration, error) {
	r, ok := m.store[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	for col, v := range fields {
		s, _ := v.(string)
		switch col {
		case "child_name":
			r.ChildName = s
		case "date_of_birth":
			r.DateOfBirth = s
		case "age":
			r.Age = s
		case "child_age_months":
			n := v.(int)
			r.ChildAgeMonths = &n
		case "gender":
			r.Gender = s
		case "district":
			r.District = s
		case "ward":
			r.Ward = Ward(s)
		case "tole":
			r.Tole = s
		case "weight":
			if f, ok := v.(float64); ok {
				r.Weight = &f
			} else {
				r.Weight = nil
			}
		}
	}
	r.UpdatedAt = testNow.Add(time.Minute)
	return r, nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.store[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *mockRepo) Search(_ context.Context, f Filter, limit, offset int) ([]*Registration, int, error) {
	var all []*Registration
	for _, r := range m.store {
		if f.Matches(r, testNow) {
			all = append(all, r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SerialNo < all[j].SerialNo })
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

type fakeDoses struct {
	logs []*doselog.DoseLog
	err  error
}

func (f *fakeDoses) Create(_ context.Context, d *doselog.DoseLog) error {
	if f.err != nil {
		return f.err
	}
	d.ID = uuid.New()
	f.logs = append(f.logs, d)
	return nil
}

func (f *fakeDoses) Summary(_ context.Context, id uuid.UUID) (doselog.Summary, error) {
	var s doselog.Summary
	for _, d := range f.logs {
		if d.RegistrationID != id {
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

// passthroughTx runs fn directly. Rollback is simulated by the caller
// checking what was written when fn fails.
type passthroughTx struct{ calls int }

func (p *passthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

func newTestService() (*Service, *mockRepo, *fakeDoses) {
	repo := newMockRepo()
	doses := &fakeDoses{}
	return NewService(repo, doses, &passthroughTx{}, clock), repo, doses
}

func validRegistration() *Registration {
	return &Registration{
		ChildName:     "आरव",
		DateOfBirth:   testNow.AddDate(0, -18, 0).Format("2006-01-02"),
		Gender:        GenderMale,
		ContactNumber: "9841000000",
		District:      "ललितपुर",
		Palika:        "गोदावरी",
		Ward:          "3",
	}
}
