package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swarnabindu/prashan/internal/config"
	"github.com/swarnabindu/prashan/internal/domain/doselog"
	"github.com/swarnabindu/prashan/internal/domain/registration"
	"github.com/swarnabindu/prashan/internal/domain/screening"
	"github.com/swarnabindu/prashan/internal/export"
	"github.com/swarnabindu/prashan/internal/platform/apperr"
)

// exportPage is how many rows are read from a service per call.
const exportPage = 500

func exportOptions(cfg *config.Config) (export.Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return export.Options{}, err
	}
	tag, err := cfg.LanguageTag()
	if err != nil {
		return export.Options{}, err
	}
	return export.Options{Location: loc, Locale: tag}, nil
}

// recordSource lists everything of one kind for an export.
type recordSource interface {
	Records(ctx context.Context, kind export.Kind, f registration.Filter) ([]export.Record, error)
}

type registrationLister interface {
	Search(ctx context.Context, f registration.Filter, limit, offset int) ([]*registration.Registration, int, error)
}

type screeningLister interface {
	List(ctx context.Context, limit, offset int) ([]*screening.Screening, int, error)
}

type doseLogLister interface {
	List(ctx context.Context, limit, offset int) ([]*doselog.DoseLog, int, error)
}

type serverSource struct {
	regs       registrationLister
	screenings screeningLister
	doses      doseLogLister
}

// Records pages through the matching service. The filter only applies to
// registrations.
func (s serverSource) Records(ctx context.Context, kind export.Kind, f registration.Filter) ([]export.Record, error) {
	var out []export.Record
	for offset := 0; ; offset += exportPage {
		var (
			page  []export.Record
			total int
			err   error
		)
		switch kind {
		case export.KindRegistration:
			var items []*registration.Registration
			items, total, err = s.regs.Search(ctx, f, exportPage, offset)
			for _, it := range items {
				page = append(page, it)
			}
		case export.KindScreening:
			var items []*screening.Screening
			items, total, err = s.screenings.List(ctx, exportPage, offset)
			for _, it := range items {
				page = append(page, it)
			}
		case export.KindDoseLog:
			var items []*doselog.DoseLog
			items, total, err = s.doses.List(ctx, exportPage, offset)
			for _, it := range items {
				page = append(page, it)
			}
		default:
			return nil, apperr.Invalid(fmt.Sprintf("unknown export kind %q", kind))
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		out = append(out, page...)
		if len(page) < exportPage || offset+len(page) >= total {
			return out, nil
		}
	}
}

type exportHandler struct {
	source recordSource
	opts   export.Options
}

func newExportHandler(source recordSource, opts export.Options) *exportHandler {
	return &exportHandler{source: source, opts: opts}
}

func (h *exportHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/exports/:kind", h.Export)
}

// Export streams a whole table as csv, excel (tab separated) or a printable
// html report. Registration exports honour the listing filters.
func (h *exportHandler) Export(c echo.Context) error {
	kind, err := export.ParseKind(c.Param("kind"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var f registration.Filter
	if kind == export.KindRegistration {
		if f, err = registration.FilterFromContext(c); err != nil {
			return apperr.HTTP(err, "")
		}
	}

	records, err := h.source.Records(c.Request().Context(), kind, f)
	if err != nil {
		return apperr.HTTP(err, "")
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, kind, export.Project(records, kind, h.opts), h.opts); err != nil {
		return err
	}
	if format != export.FormatHTML {
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=%q", exportFilename(kind, format, time.Now().In(h.opts.Location))))
	}
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}

func exportFilename(kind export.Kind, f export.Format, t time.Time) string {
	return fmt.Sprintf("swarnabindu-%s-%s%s", kind, t.Format("2006-01-02"), f.Extension())
}
