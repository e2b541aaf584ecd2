package screening

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/swarnabindu/prashan/internal/platform/apperr"
	"github.com/swarnabindu/prashan/pkg/apiresponse"
	"github.com/swarnabindu/prashan/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/screenings", h.Create)
	api.GET("/screenings", h.ListByRegistration)
	api.GET("/screenings/:id", h.Get)
}

func (h *Handler) Create(c echo.Context) error {
	var s Screening
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &s); err != nil {
		return apperr.HTTP(err, "screening not found")
	}
	return apiresponse.OK(c, http.StatusCreated, "Screening created successfully", s)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	s, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err, "screening not found")
	}
	return apiresponse.OK(c, http.StatusOK, "", s)
}

// ListByRegistration requires registration_id; screenings are only browsed
// from a child's record.
func (h *Handler) ListByRegistration(c echo.Context) error {
	rid := c.QueryParam("registration_id")
	if rid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Registration ID is required")
	}
	id, err := uuid.Parse(rid)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid registration_id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByRegistration(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err, "")
	}
	if items == nil {
		items = []*Screening{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
