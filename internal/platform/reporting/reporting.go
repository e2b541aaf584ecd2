// Package reporting serves program statistics and predefined aggregate
// measures over registrations, screenings and dose logs.
package reporting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/swarnabindu/prashan/internal/platform/apperr"
	"github.com/swarnabindu/prashan/pkg/apiresponse"
)

// MeasureDefinition defines a reporting measure with its SQL query.
// Parameters are bound positionally; an absent parameter is bound as NULL.
type MeasureDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SQL         string   `json:"-"`
	Parameters  []string `json:"parameters"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
	Parameters  map[string]string        `json:"parameters,omitempty"`
}

const ageMonths = `((EXTRACT(YEAR FROM CURRENT_DATE) - EXTRACT(YEAR FROM r.date_of_birth)) * 12
	+ EXTRACT(MONTH FROM CURRENT_DATE) - EXTRACT(MONTH FROM r.date_of_birth))`

// PredefinedMeasures is the list of available reporting measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "registrations-by-district",
		Name:        "Registrations by District",
		Description: "Registered children grouped by district and palika",
		SQL: `SELECT r.district, r.palika, COUNT(*) AS total FROM registrations r
			WHERE ($1::text IS NULL OR r.district = $1)
			GROUP BY r.district, r.palika ORDER BY total DESC, r.district, r.palika`,
		Parameters: []string{"district"},
	},
	{
		ID:          "registrations-by-gender",
		Name:        "Registrations by Gender",
		Description: "Registered children grouped by gender",
		SQL: `SELECT r.gender, COUNT(*) AS total FROM registrations r
			WHERE ($1::text IS NULL OR r.district = $1)
			GROUP BY r.gender ORDER BY total DESC`,
		Parameters: []string{"district"},
	},
	{
		ID:          "registrations-by-age-band",
		Name:        "Registrations by Age Band",
		Description: "Registered children by current age in months against the dose bands",
		SQL: `SELECT band, COUNT(*) AS total FROM (
				SELECT CASE
					WHEN ` + ageMonths + ` < 6 THEN 'under-6'
					WHEN ` + ageMonths + ` < 12 THEN '6-11'
					WHEN ` + ageMonths + ` < 24 THEN '12-23'
					WHEN ` + ageMonths + ` <= 60 THEN '24-60'
					ELSE 'over-60' END AS band
				FROM registrations r
				WHERE ($1::text IS NULL OR r.district = $1)
			) b GROUP BY band ORDER BY band`,
		Parameters: []string{"district"},
	},
	{
		ID:          "doses-by-amount",
		Name:        "Doses by Amount",
		Description: "Administered doses grouped by drop count",
		SQL: `SELECT d.dose_amount, COUNT(*) AS total FROM dose_logs d
			JOIN registrations r ON r.id = d.registration_id
			WHERE ($1::text IS NULL OR r.district = $1)
			GROUP BY d.dose_amount ORDER BY d.dose_amount`,
		Parameters: []string{"district"},
	},
	{
		ID:          "adverse-reactions",
		Name:        "Adverse Reactions",
		Description: "Doses followed by an adverse reaction, by district",
		SQL: `SELECT r.district, COUNT(*) AS total,
				COALESCE(SUM(CASE WHEN d.follow_up_required THEN 1 ELSE 0 END), 0) AS follow_up_required
			FROM dose_logs d JOIN registrations r ON r.id = d.registration_id
			WHERE d.child_reaction = 'adverse' AND ($1::text IS NULL OR r.district = $1)
			GROUP BY r.district ORDER BY total DESC`,
		Parameters: []string{"district"},
	},
	{
		ID:          "screenings-by-referral-status",
		Name:        "Screenings by Referral Status",
		Description: "Screenings grouped by screening type and referral status",
		SQL: `SELECT s.screening_type, s.referral_status, COUNT(*) AS total FROM screenings s
			JOIN registrations r ON r.id = s.registration_id
			WHERE ($1::text IS NULL OR r.district = $1)
			GROUP BY s.screening_type, s.referral_status ORDER BY s.screening_type, s.referral_status`,
		Parameters: []string{"district"},
	},
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}

// Statistics are the program totals shown on the dashboard.
type Statistics struct {
	TotalRegistrations int `json:"totalRegistrations"`
	TotalScreenings    int `json:"totalScreenings"`
	TotalDoseLogs      int `json:"totalDoseLogs"`
}

// Store is the database access reporting needs.
type Store interface {
	Count(ctx context.Context, table string) (int, error)
	Query(ctx context.Context, sql string, args ...interface{}) ([]map[string]interface{}, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Statistics counts the three record tables concurrently.
func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	var st Statistics
	g, ctx := errgroup.WithContext(ctx)
	for table, dst := range map[string]*int{
		"registrations": &st.TotalRegistrations,
		"screenings":    &st.TotalScreenings,
		"dose_logs":     &st.TotalDoseLogs,
	} {
		g.Go(func() error {
			n, err := s.store.Count(ctx, table)
			if err != nil {
				return fmt.Errorf("count %s: %w", table, err)
			}
			*dst = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Statistics{}, err
	}
	return st, nil
}

// Evaluate runs measure id with params and returns its report.
func (s *Service) Evaluate(ctx context.Context, id string, params map[string]string) (*MeasureReport, error) {
	m := FindMeasure(id)
	if m == nil {
		return nil, apperr.ErrNotFound
	}
	used := map[string]string{}
	args := make([]interface{}, len(m.Parameters))
	for i, p := range m.Parameters {
		if v, ok := params[p]; ok && v != "" {
			args[i] = v
			used[p] = v
		}
	}
	results, err := s.store.Query(ctx, m.SQL, args...)
	if err != nil {
		return nil, fmt.Errorf("measure %s: %w", m.ID, err)
	}
	if results == nil {
		results = []map[string]interface{}{}
	}
	return &MeasureReport{
		MeasureID:   m.ID,
		MeasureName: m.Name,
		GeneratedAt: s.now(),
		Results:     results,
		Parameters:  used,
	}, nil
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/statistics")
	g.GET("", h.Statistics)
	g.GET("/measures", h.ListMeasures)
	g.GET("/measures/:id", h.EvaluateMeasure)
}

func (h *Handler) Statistics(c echo.Context) error {
	st, err := h.svc.Statistics(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err, "")
	}
	return apiresponse.OK(c, http.StatusOK, "", st)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return apiresponse.OK(c, http.StatusOK, "", PredefinedMeasures)
}

func (h *Handler) EvaluateMeasure(c echo.Context) error {
	params := map[string]string{}
	for name, values := range c.QueryParams() {
		if len(values) > 0 {
			params[name] = values[0]
		}
	}
	report, err := h.svc.Evaluate(c.Request().Context(), c.Param("id"), params)
	if err != nil {
		return apperr.HTTP(err, "measure not found")
	}
	return apiresponse.OK(c, http.StatusOK, "", report)
}
