package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/kneckehexan/freecodecamp-heat-map/internal/chart"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/dataset"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/types"
)

// HeatmapService is what the handlers need from the service layer.
type HeatmapService interface {
	Dataset(ctx context.Context) (*dataset.Dataset, error)
	Heatmap(ctx context.Context, layout chart.Layout) (*chart.Heatmap, error)
	Legend(ctx context.Context) ([]types.LegendEntry, error)
	RecentLoads(ctx context.Context, limit int) ([]types.LoadAttempt, error)
	ObserveRender(format string)
}

type HeatmapController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type heatmapControllerImpl struct {
	service HeatmapService
	layout  chart.Layout
	logger  *slog.Logger
}

func NewHeatmapController(service HeatmapService, layout chart.Layout, logger *slog.Logger) HeatmapController {
	if logger == nil {
		logger = slog.Default()
	}
	return &heatmapControllerImpl{service: service, layout: layout, logger: logger}
}

func (c *heatmapControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handlePage)
	mux.HandleFunc("GET /chart.svg", c.handleChartSVG)
	mux.HandleFunc("GET /api/v1/dataset", c.handleDataset)
	mux.HandleFunc("GET /api/v1/legend", c.handleLegend)
	mux.HandleFunc("GET /api/v1/loads", c.handleLoads)
}
