package registration

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/swarnabindu/prashan/internal/export"
	"github.com/swarnabindu/prashan/internal/form"
	"github.com/swarnabindu/prashan/internal/platform/apperr"
	"github.com/swarnabindu/prashan/pkg/apiresponse"
	"github.com/swarnabindu/prashan/pkg/pagination"
)

const notFound = "Registration not found"

type Handler struct {
	svc    *Service
	schema func() form.Schema
}

// NewHandler wires the registration routes. schema returns the active
// question schema used by POST /forms/submit.
func NewHandler(svc *Service, schema func() form.Schema) *Handler {
	if schema == nil {
		schema = form.DefaultSchema
	}
	return &Handler{svc: svc, schema: schema}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/registrations", h.Create)
	api.GET("/registrations", h.List)
	api.PUT("/registrations", h.Update)
	api.DELETE("/registrations", h.Delete)
	api.GET("/registrations/serial/:serial", h.GetBySerial)
	api.GET("/registrations/:id", h.Get)
	api.GET("/registrations/:id/card.png", h.Card)
	api.GET("/registrations/:id/certificate", h.Certificate)
	api.POST("/forms/submit", h.Submit)
}

func (h *Handler) Create(c echo.Context) error {
	var r Registration
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r.ID = uuid.Nil
	if err := h.svc.Create(c.Request().Context(), &r); err != nil {
		return apperr.HTTP(err, notFound)
	}
	return apiresponse.OK(c, http.StatusCreated, "Registration created successfully", r)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err, notFound)
	}
	return apiresponse.OK(c, http.StatusOK, "", r)
}

func (h *Handler) GetBySerial(c echo.Context) error {
	r, err := h.svc.GetBySerial(c.Request().Context(), c.Param("serial"))
	if err != nil {
		return apperr.HTTP(err, notFound)
	}
	return apiresponse.OK(c, http.StatusOK, "", r)
}

func (h *Handler) List(c echo.Context) error {
	f, err := FilterFromContext(c)
	if err != nil {
		return apperr.HTTP(err, "")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.Search(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err, "")
	}
	if items == nil {
		items = []*Registration{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// Update takes {"id": ..., <field>: <value>, ...}.
func (h *Handler) Update(c echo.Context) error {
	body := map[string]interface{}{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rawID, _ := body["id"].(string)
	if rawID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Registration ID is required")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	delete(body, "id")

	r, err := h.svc.Update(c.Request().Context(), id, body)
	if err != nil {
		return apperr.HTTP(err, notFound)
	}
	return apiresponse.OK(c, http.StatusOK, "Registration updated successfully", r)
}

func (h *Handler) Delete(c echo.Context) error {
	raw := c.QueryParam("id")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Registration ID is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err, notFound)
	}
	return apiresponse.OK(c, http.StatusOK, "Registration deleted successfully", nil)
}

func (h *Handler) Card(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if size > 1024 {
		size = 1024
	}
	png, err := h.svc.Card(c.Request().Context(), id, size)
	if err != nil {
		return apperr.HTTP(err, notFound)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *Handler) Certificate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cert, err := h.svc.Certificate(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err, notFound)
	}
	var buf bytes.Buffer
	if err := export.WriteCertificate(&buf, cert); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// Submit validates a whole intake record and registers the child. Field
// errors come back as 400 with the error map in data; an ineligible or
// contraindicated child is 422.
func (h *Handler) Submit(c echo.Context) error {
	data := form.FormData{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	reg, res, err := h.svc.Submit(c.Request().Context(), h.schema(), data)
	switch {
	case IsFormRejection(err):
		return apiresponse.Fail(c, http.StatusUnprocessableEntity, err.Error(), "", res)
	case err != nil:
		return apperr.HTTP(err, notFound)
	case !res.IsValid:
		return apiresponse.Fail(c, http.StatusBadRequest, "कृपया त्रुटिहरू सच्याउनुहोस् | Please correct the errors", "", res)
	}
	return apiresponse.OK(c, http.StatusCreated, "Registration created successfully", reg)
}
