package offlinesync

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swarnabindu/prashan/internal/domain/registration"
	"github.com/swarnabindu/prashan/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/sync", h.Push)
	api.GET("/sync", h.Pull)
}

// Push answers 200 even when items fail; the tallies say which.
func (h *Handler) Push(c echo.Context) error {
	var b Batch
	if err := (&echo.DefaultBinder{}).BindBody(c, &b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid sync payload")
	}
	if b.Len() == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Nothing to sync")
	}
	res := h.svc.Process(c.Request().Context(), b)
	return c.JSON(http.StatusOK, Response{Success: true, Message: "Sync completed", Results: res})
}

type pullResponse struct {
	Success    bool                         `json:"success"`
	Data       []*registration.Registration `json:"data"`
	Total      int                          `json:"total"`
	Offset     int                          `json:"offset"`
	HasMore    bool                         `json:"has_more"`
	ServerTime time.Time                    `json:"server_time"`
}

// Pull returns a page of registrations changed since ?last_sync (RFC 3339),
// starting at ?offset. Pages hold at most PullLimit rows.
func (h *Handler) Pull(c echo.Context) error {
	var since *time.Time
	if raw := c.QueryParam("last_sync"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "last_sync must be an RFC 3339 timestamp")
		}
		since = &t
	}
	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "offset must be a non-negative integer")
		}
		offset = n
	}
	serverTime := h.svc.now().UTC()
	items, total, err := h.svc.Changes(c.Request().Context(), since, offset)
	if err != nil {
		return apperr.HTTP(err, "")
	}
	if items == nil {
		items = []*registration.Registration{}
	}
	return c.JSON(http.StatusOK, pullResponse{
		Success:    true,
		Data:       items,
		Total:      total,
		Offset:     offset,
		HasMore:    offset+len(items) < total,
		ServerTime: serverTime,
	})
}
