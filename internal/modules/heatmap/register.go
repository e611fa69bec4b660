package heatmap

import (
	"log/slog"
	"net/http"

	"github.com/kneckehexan/freecodecamp-heat-map/internal/chart"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/controller"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/service"
)

// RegisterFeature mounts the page, chart and API routes backed by svc.
func RegisterFeature(mux *http.ServeMux, svc *service.Service, layout chart.Layout, logger *slog.Logger) {
	heatmapController := controller.NewHeatmapController(svc, layout, logger)
	heatmapController.RegisterRoutes(mux)
}
