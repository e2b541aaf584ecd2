package form

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swarnabindu/prashan/internal/dosage"
	"github.com/swarnabindu/prashan/pkg/apiresponse"
)

type Handler struct {
	registry *Registry
	now      func() time.Time
}

// NewHandler serves the schema and stateless form operations. now supplies
// the reference date for derived fields.
func NewHandler(registry *Registry, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{registry: registry, now: now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/questions", h.GetQuestions)
	api.POST("/questions", h.SaveQuestions)
	api.PUT("/questions", h.UpdateStep)

	api.POST("/forms/derive", h.Derive)
	api.POST("/forms/:stepId/validate", h.ValidateStep)
	api.POST("/forms/:stepId/render", h.RenderStep)
}

func (h *Handler) GetQuestions(c echo.Context) error {
	return apiresponse.OK(c, http.StatusOK, "", h.registry.Schema())
}

// SaveQuestions replaces the whole schema in memory. Nothing is written to
// disk or the database.
func (h *Handler) SaveQuestions(c echo.Context) error {
	var s Schema
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	saved, err := h.registry.Replace(s)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return apiresponse.OK(c, http.StatusOK, "प्रश्नहरू सुरक्षित गरियो | Questions saved", saved)
}

type stepUpdate struct {
	StepID    string     `json:"stepId"`
	Questions []Question `json:"questions"`
}

func (h *Handler) UpdateStep(c echo.Context) error {
	var req stepUpdate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.StepID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "stepId is required")
	}
	if _, ok := h.registry.Step(req.StepID); !ok {
		return echo.NewHTTPError(http.StatusNotFound, "step not found")
	}
	saved, err := h.registry.ReplaceStep(req.StepID, req.Questions)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return apiresponse.OK(c, http.StatusOK, "प्रश्नहरू अद्यावधिक गरियो | Questions updated", saved)
}

// bindFormData decodes the request body only; path parameters must not leak
// into the answers.
func bindFormData(c echo.Context) (FormData, error) {
	data := FormData{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (h *Handler) ValidateStep(c echo.Context) error {
	step, ok := h.registry.Step(c.Param("stepId"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "step not found")
	}
	data, err := bindFormData(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	data = ApplyDerived(data, h.now())
	return apiresponse.OK(c, http.StatusOK, "", ValidateVisible(step, data))
}

func (h *Handler) RenderStep(c echo.Context) error {
	step, ok := h.registry.Step(c.Param("stepId"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "step not found")
	}
	data, err := bindFormData(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ref := h.now()
	data = ApplyDerived(data, ref)
	return apiresponse.OK(c, http.StatusOK, "", map[string]interface{}{
		"step":      step.ID,
		"title":     step.Title,
		"questions": RenderStep(step, data, ref),
	})
}

type deriveRequest struct {
	BirthDate  string   `json:"birth_date"`
	Conditions []string `json:"health_conditions"`
}

type deriveResponse struct {
	dosage.Derived
	Contraindications []string `json:"contraindications"`
}

func (h *Handler) Derive(c echo.Context) error {
	var req deriveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	found := dosage.Contraindications(req.Conditions)
	if found == nil {
		found = []string{}
	}
	return apiresponse.OK(c, http.StatusOK, "", deriveResponse{
		Derived:           dosage.Derive(req.BirthDate, h.now()),
		Contraindications: found,
	})
}
