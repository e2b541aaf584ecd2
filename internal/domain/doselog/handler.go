package doselog

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
	api.POST("/dose-logs", h.Create)
	api.GET("/dose-logs", h.List)
	api.GET("/dose-logs/:id", h.Get)
}

func (h *Handler) Create(c echo.Context) error {
	var d DoseLog
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &d); err != nil {
		return apperr.HTTP(err, "dose log not found")
	}
	return apiresponse.OK(c, http.StatusCreated, "Dose log created successfully", d)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err, "dose log not found")
	}
	return apiresponse.OK(c, http.StatusOK, "", d)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	var (
		items []*DoseLog
		total int
		err   error
	)
	if rid := c.QueryParam("registration_id"); rid != "" {
		id, perr := uuid.Parse(rid)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid registration_id")
		}
		items, total, err = h.svc.ListByRegistration(ctx, id, pg.Limit, pg.Offset)
	} else {
		items, total, err = h.svc.List(ctx, pg.Limit, pg.Offset)
	}
	if err != nil {
		return apperr.HTTP(err, "")
	}
	if items == nil {
		items = []*DoseLog{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
