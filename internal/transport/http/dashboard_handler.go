package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"labourpulse/internal/analytics"
	apierrors "labourpulse/internal/errors"
	"labourpulse/internal/exporter"
	"labourpulse/internal/services"
	"labourpulse/pkg/contracts/domain"
)

const dateParamLayout = "2006-01-02"

// DashboardHandler serves the dashboard query API with RFC 7807 errors.
type DashboardHandler struct {
	service      DashboardService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewDashboardHandler creates a new dashboard handler with RFC 7807 error handling
func NewDashboardHandler(service DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
	}
}

// Routes returns the dashboard routes with proper Chi patterns
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Use render for consistent JSON responses
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/dataset", func(r chi.Router) {
		r.Get("/info", h.GetDatasetInfo)
		r.Get("/sample", h.GetSampleRows)
	})

	r.Route("/trends", func(r chi.Router) {
		r.Get("/overall", h.GetOverallTrend)
		r.Get("/areas", h.GetAreaTrend)
		r.Get("/regions", h.GetRegionalTrends)
	})

	r.Get("/regions/means", h.GetRegionalMeans)
	r.Get("/correlations", h.GetCorrelations)
	r.Get("/distribution", h.GetDistribution)

	r.Route("/impact", func(r chi.Router) {
		r.Get("/summary", h.GetImpactSummary)
		r.Get("/regions", h.GetRegionImpacts)
		r.Get("/areas", h.GetAreaImpacts)
		r.Get("/covid-trend", h.GetCovidTrend)
	})

	r.Route("/export/{format}", func(r chi.Router) {
		r.Use(h.ExportCtx)
		r.Get("/", h.ExportDataset)
	})

	return r
}

// FilterParams holds the parsed and validated query parameters shared
// by the selection-scoped endpoints.
type FilterParams struct {
	Regions []string  `validate:"omitempty,dive,min=1"`
	From    time.Time `validate:"-"`
	To      time.Time `validate:"-"`
	Area    string    `validate:"omitempty,oneof=Rural Urban Both"`
}

// Selection converts the params into an analytics selection.
func (p FilterParams) Selection() analytics.Selection {
	return analytics.Selection{
		Regions: p.Regions,
		From:    p.From,
		To:      p.To,
		Area:    domain.Area(p.Area),
	}
}

// parseFilterParams parses regions/from/to/area query parameters.
// A regions parameter that is present but names nothing stays as an
// empty non-nil slice so the service can reject it as an explicit
// empty selection.
func (h *DashboardHandler) parseFilterParams(r *http.Request) (FilterParams, *apierrors.APIError) {
	var params FilterParams
	query := r.URL.Query()

	if _, present := query["regions"]; present {
		params.Regions = []string{}
		for _, part := range strings.Split(query.Get("regions"), ",") {
			if name := strings.TrimSpace(part); name != "" {
				params.Regions = append(params.Regions, name)
			}
		}
	}

	if raw := query.Get("from"); raw != "" {
		from, err := time.Parse(dateParamLayout, raw)
		if err != nil {
			return params, apierrors.ErrValidation("from", "must be a date in YYYY-MM-DD format")
		}
		params.From = from
	}

	if raw := query.Get("to"); raw != "" {
		to, err := time.Parse(dateParamLayout, raw)
		if err != nil {
			return params, apierrors.ErrValidation("to", "must be a date in YYYY-MM-DD format")
		}
		params.To = to
	}

	params.Area = query.Get("area")
	if err := h.validate.Struct(params); err != nil {
		return params, apierrors.ErrValidation("area", "must be one of Rural, Urban, Both")
	}

	return params, nil
}

// handleServiceError maps service sentinels to API errors.
func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetReqID(r.Context())
	h.logger.ErrorContext(r.Context(), "dashboard query failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("path", r.URL.Path),
	)

	switch {
	case errors.Is(err, services.ErrEmptySelection):
		h.errorHandler.HandleError(w, r, apierrors.ErrEmptySelection)
	case errors.Is(err, services.ErrUnknownRegion):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusNotFound, "REGION_NOT_FOUND", "Unknown region", err.Error()))
	case errors.Is(err, services.ErrNoObservations):
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY",
			"No observations match the current filters"))
	case errors.Is(err, services.ErrDatasetNotLoaded):
		h.errorHandler.HandleError(w, r, apierrors.DatasetLoadError(err))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

// respond writes the standard success envelope.
func respond(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   data,
		"count":  count,
	})
}

// GetDatasetInfo handles GET /api/dataset/info
func (h *DashboardHandler) GetDatasetInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respond(w, r, info, info.Records)
}

// GetSampleRows handles GET /api/dataset/sample?n=
func (h *DashboardHandler) GetSampleRows(w http.ResponseWriter, r *http.Request) {
	n := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("n", "must be a non-negative integer"))
			return
		}
		n = parsed
	}

	rows, err := h.service.SampleRows(r.Context(), n)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respond(w, r, rows, len(rows))
}

// GetOverallTrend handles GET /api/trends/overall
func (h *DashboardHandler) GetOverallTrend(w http.ResponseWriter, r *http.Request) {
	params, apiErr := h.parseFilterParams(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	rows, err := h.service.OverallTrend(r.Context(), params.Selection())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respond(w, r, rows, len(rows))
}

// GetAreaTrend handles GET /api/trends/areas
func (h *DashboardHandler) GetAreaTrend(w http.ResponseWriter, r *http.Request) {
	params, apiErr := h.parseFilterParams(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	rows, err := h.service.AreaTrend(r.Context(), params.Selection())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respond(w, r, rows, len(rows))
}

// GetRegionalTrends handles GET /api/trends/regions
func (h *DashboardHandler) GetRegionalTrends(w http.ResponseWriter, r *http.Request) {
	params, apiErr := h.parseFilterParams(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	rows, err := h.service.RegionalTrends(r.Context(), params.Selection())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respond(w, r, rows, len(rows))
}

// GetRegionalMeans handles GET /api/regions/means
func (h *DashboardHandler) GetRegionalMeans(w http.ResponseWriter, r *http.Request) {
	params, apiErr := h.parseFilterParams(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	rows, err := h.service.RegionalMeans(r.Context(), params.Selection())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respond(w, r, rows, len(rows))
}

// GetCorrelations handles GET /api/correlations
func (h *DashboardHandler) GetCorrelations(w http.ResponseWriter, r *http.Request) {
	params, apiErr := h.parseFilterParams(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	rows, err := h.service.Correlations(r.Context(), params.Selection())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respond(w, r, rows, len(rows))
}

// GetDistribution handles GET /api/distribution?bins=
func (h *DashboardHandler) GetDistribution(w http.ResponseWriter, r *http.Request) {
	params, apiErr := h.parseFilterParams(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	bins := 0
	if raw := r.URL.Query().Get("bins"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("bins", "must be an integer between 1 and 200"))
			return
		}
		bins = parsed
	}

	dist, err := h.service.Distribution(r.Context(), params.Selection(), bins)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respond(w, r, dist, len(dist.Bins))
}

// GetImpactSummary handles GET /api/impact/summary
func (h *DashboardHandler) GetImpactSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ImpactSummary(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respond(w, r, summary, 1)
}

// GetRegionImpacts handles GET /api/impact/regions?top=
func (h *DashboardHandler) GetRegionImpacts(w http.ResponseWriter, r *http.Request) {
	top := 0
	if raw := r.URL.Query().Get("top"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("top", "must be a non-negative integer"))
			return
		}
		top = parsed
	}

	records, err := h.service.RegionImpacts(r.Context(), top)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respond(w, r, records, len(records))
}

// GetAreaImpacts handles GET /api/impact/areas
func (h *DashboardHandler) GetAreaImpacts(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.AreaImpacts(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respond(w, r, records, len(records))
}

// GetCovidTrend handles GET /api/impact/covid-trend
func (h *DashboardHandler) GetCovidTrend(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.CovidMonthlyTrend(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respond(w, r, rows, len(rows))
}

// ExportCtx middleware validates the export format parameter
func (h *DashboardHandler) ExportCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := chi.URLParam(r, "format")
		if format != "csv" && format != "xlsx" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format",
				fmt.Sprintf("unsupported export format: %s", format)))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ExportDataset handles GET /api/export/{format}
func (h *DashboardHandler) ExportDataset(w http.ResponseWriter, r *http.Request) {
	params, apiErr := h.parseFilterParams(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	switch chi.URLParam(r, "format") {
	case "csv":
		h.exportCSV(w, r, params.Selection())
	case "xlsx":
		h.exportExcel(w, r, params.Selection())
	}
}

func (h *DashboardHandler) exportCSV(w http.ResponseWriter, r *http.Request, sel analytics.Selection) {
	observations, err := h.service.Observations(r.Context(), sel)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("unemployment_%s.csv", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := exporter.StreamObservations(w, observations, true); err != nil {
		// Headers are gone, log and give up
		h.logger.ErrorContext(r.Context(), "csv export stream failed",
			slog.String("error", err.Error()))
	}
}

func (h *DashboardHandler) exportExcel(w http.ResponseWriter, r *http.Request, sel analytics.Selection) {
	ctx := r.Context()

	data, err := h.collectWorkbookData(r, sel)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	builder := exporter.NewExcelWriter("", h.logger)
	workbook, err := builder.BuildWorkbook(*data)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ExportError("xlsx", err))
		return
	}
	defer workbook.Close()

	filename := fmt.Sprintf("unemployment_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := workbook.Write(w); err != nil {
		h.logger.ErrorContext(ctx, "xlsx export stream failed",
			slog.String("error", err.Error()))
	}
}

// collectWorkbookData gathers everything the workbook sheets need.
func (h *DashboardHandler) collectWorkbookData(r *http.Request, sel analytics.Selection) (*exporter.WorkbookData, error) {
	ctx := r.Context()

	info, err := h.service.Info(ctx)
	if err != nil {
		return nil, err
	}
	trend, err := h.service.OverallTrend(ctx, sel)
	if err != nil {
		return nil, err
	}
	means, err := h.service.RegionalMeans(ctx, sel)
	if err != nil {
		return nil, err
	}
	summary, err := h.service.ImpactSummary(ctx)
	if err != nil {
		return nil, err
	}
	regionImpacts, err := h.service.RegionImpacts(ctx, 0)
	if err != nil {
		return nil, err
	}
	areaImpacts, err := h.service.AreaImpacts(ctx)
	if err != nil {
		return nil, err
	}
	correlations, err := h.service.Correlations(ctx, sel)
	if err != nil {
		return nil, err
	}

	return &exporter.WorkbookData{
		Info:          *info,
		Trend:         trend,
		RegionMeans:   means,
		Summary:       *summary,
		RegionImpacts: regionImpacts,
		AreaImpacts:   areaImpacts,
		Correlations:  correlations,
	}, nil
}
