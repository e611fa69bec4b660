package controller

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/kneckehexan/freecodecamp-heat-map/internal/chart"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/service"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/views"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/utils"
)

func (c *heatmapControllerImpl) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	hm, err := c.service.Heatmap(r.Context(), c.layout)
	if err != nil {
		c.writeServiceError(w, "page", err)
		return
	}

	var buf bytes.Buffer
	if err := views.RenderPage(&buf, hm); err != nil {
		c.logger.Error("page template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	c.service.ObserveRender("html")
	utils.WriteBody(w, http.StatusOK, utils.ContentTypeHTML, buf.Bytes())
}

func (c *heatmapControllerImpl) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	layout, err := parseLayoutQuery(r, c.layout)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	hm, err := c.service.Heatmap(r.Context(), layout)
	if err != nil {
		c.writeServiceError(w, "chart.svg", err)
		return
	}

	var buf bytes.Buffer
	if err := views.RenderChartSVG(&buf, hm); err != nil {
		c.logger.Error("svg template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}
	c.service.ObserveRender("svg")
	utils.WriteBody(w, http.StatusOK, utils.ContentTypeSVG, buf.Bytes())
}

func (c *heatmapControllerImpl) handleDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := c.service.Dataset(r.Context())
	if err != nil {
		c.writeServiceError(w, "dataset", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, ds)
}

func (c *heatmapControllerImpl) handleLegend(w http.ResponseWriter, r *http.Request) {
	legend, err := c.service.Legend(r.Context())
	if err != nil {
		c.writeServiceError(w, "legend", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, legend)
}

func (c *heatmapControllerImpl) handleLoads(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimitQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	loads, err := c.service.RecentLoads(r.Context(), limit)
	if err != nil {
		c.logger.Error("loads: query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load attempts")
		return
	}
	utils.WriteJSON(w, http.StatusOK, loads)
}

// writeServiceError maps dataset lifecycle errors onto HTTP statuses.
func (c *heatmapControllerImpl) writeServiceError(w http.ResponseWriter, route string, err error) {
	switch {
	case errors.Is(err, service.ErrLoading), errors.Is(err, service.ErrNotStarted):
		utils.WriteError(w, http.StatusServiceUnavailable, "dataset is still loading, retry shortly")
	case errors.Is(err, service.ErrLoadFailed):
		c.logger.Warn(route+": dataset unavailable", "error", err)
		utils.WriteError(w, http.StatusBadGateway, "dataset could not be loaded")
	case errors.Is(err, chart.ErrEmptyDataset):
		utils.WriteError(w, http.StatusBadGateway, "dataset has no records")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		utils.WriteError(w, http.StatusServiceUnavailable, "request canceled")
	default:
		c.logger.Error(route+": unexpected error", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
