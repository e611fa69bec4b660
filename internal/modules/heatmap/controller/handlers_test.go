package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/kneckehexan/freecodecamp-heat-map/internal/chart"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/dataset"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/service"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/types"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/views"
)

func TestMain(m *testing.M) {
	if err := views.LoadTemplates(); err != nil {
		fmt.Fprintf(os.Stderr, "load templates: %v\n", err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

type mockService struct {
	ds         *dataset.Dataset
	err        error
	loads      []types.LoadAttempt
	loadsErr   error
	gotLayout  chart.Layout
	gotLimit   int
	renders    []string
	legendErr  error
	heatmapErr error
}

func (m *mockService) Dataset(context.Context) (*dataset.Dataset, error) {
	return m.ds, m.err
}

func (m *mockService) Heatmap(_ context.Context, layout chart.Layout) (*chart.Heatmap, error) {
	m.gotLayout = layout
	if m.err != nil {
		return nil, m.err
	}
	if m.heatmapErr != nil {
		return nil, m.heatmapErr
	}
	return chart.Build(m.ds, layout)
}

func (m *mockService) Legend(ctx context.Context) ([]types.LegendEntry, error) {
	if m.legendErr != nil {
		return nil, m.legendErr
	}
	hm, err := m.Heatmap(ctx, chart.DefaultLayout())
	if err != nil {
		return nil, err
	}
	out := make([]types.LegendEntry, 0, len(hm.Legend))
	for _, it := range hm.Legend {
		out = append(out, types.LegendEntry{Color: it.Fill, Lower: it.Lower, Upper: it.Upper, Label: it.Label})
	}
	return out, nil
}

func (m *mockService) RecentLoads(_ context.Context, limit int) ([]types.LoadAttempt, error) {
	m.gotLimit = limit
	return m.loads, m.loadsErr
}

func (m *mockService) ObserveRender(format string) {
	m.renders = append(m.renders, format)
}

func sampleDataset() *dataset.Dataset {
	return dataset.Derive(dataset.Payload{
		BaseTemperature: 8.66,
		MonthlyVariance: []dataset.RawRecord{
			{Year: 1753, Month: 1, Variance: -1.366},
			{Year: 1753, Month: 2, Variance: -2.223},
			{Year: 1754, Month: 1, Variance: 0.5},
		},
	})
}

func newTestMux(svc HeatmapService) *http.ServeMux {
	mux := http.NewServeMux()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	NewHeatmapController(svc, chart.DefaultLayout(), logger).RegisterRoutes(mux)
	return mux
}

func serve(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	return body
}

func Test_handlePage(t *testing.T) {
	t.Run("returns 404 when path is not /", func(t *testing.T) {
		rec := serve(newTestMux(&mockService{ds: sampleDataset()}), http.MethodGet, "/dashboard")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("rejects other methods", func(t *testing.T) {
		rec := serve(newTestMux(&mockService{ds: sampleDataset()}), http.MethodPost, "/")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})

	t.Run("renders the page", func(t *testing.T) {
		svc := &mockService{ds: sampleDataset()}
		rec := serve(newTestMux(svc), http.MethodGet, "/")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
			t.Errorf("Content-Type = %q", ct)
		}
		body := rec.Body.String()
		for _, want := range []string{"<!DOCTYPE html>", `id="title"`, `id="tooltip"`, `class="cell"`, "1753 - 1754: Base temperature 8.66"} {
			if !strings.Contains(body, want) {
				t.Errorf("body missing %q", want)
			}
		}
		if svc.gotLayout != chart.DefaultLayout() {
			t.Errorf("layout = %+v; want default", svc.gotLayout)
		}
		if len(svc.renders) != 1 || svc.renders[0] != "html" {
			t.Errorf("renders = %v; want [html]", svc.renders)
		}
	})

	t.Run("still loading returns 503", func(t *testing.T) {
		svc := &mockService{err: service.ErrLoading}
		rec := serve(newTestMux(svc), http.MethodGet, "/")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusServiceUnavailable)
		}
		if len(svc.renders) != 0 {
			t.Errorf("renders = %v; want none on error", svc.renders)
		}
	})
}

func Test_handleChartSVG(t *testing.T) {
	t.Run("renders svg with defaults", func(t *testing.T) {
		svc := &mockService{ds: sampleDataset()}
		rec := serve(newTestMux(svc), http.MethodGet, "/chart.svg")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml; charset=utf-8" {
			t.Errorf("Content-Type = %q", ct)
		}
		if !strings.HasPrefix(rec.Body.String(), "<?xml") || !strings.Contains(rec.Body.String(), `<svg xmlns="http://www.w3.org/2000/svg" width="1400" height="600"`) {
			t.Errorf("unexpected svg head: %.200s", rec.Body.String())
		}
		if len(svc.renders) != 1 || svc.renders[0] != "svg" {
			t.Errorf("renders = %v; want [svg]", svc.renders)
		}
	})

	t.Run("applies layout overrides", func(t *testing.T) {
		svc := &mockService{ds: sampleDataset()}
		rec := serve(newTestMux(svc), http.MethodGet, "/chart.svg?width=800&height=400&padding=40")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		want := chart.Layout{Width: 800, Height: 400, Padding: 40}
		if svc.gotLayout != want {
			t.Errorf("layout = %+v; want %+v", svc.gotLayout, want)
		}
	})

	t.Run("invalid override returns 400", func(t *testing.T) {
		svc := &mockService{ds: sampleDataset()}
		rec := serve(newTestMux(svc), http.MethodGet, "/chart.svg?width=huge")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusBadRequest)
		}
		if got := decodeError(t, rec)["message"]; got != "invalid 'width' (expected number)" {
			t.Errorf("message = %q", got)
		}
	})
}

func Test_serviceErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "loading", err: service.ErrLoading, wantStatus: http.StatusServiceUnavailable, wantMsg: "dataset is still loading, retry shortly"},
		{name: "not started", err: service.ErrNotStarted, wantStatus: http.StatusServiceUnavailable, wantMsg: "dataset is still loading, retry shortly"},
		{name: "load failed", err: fmt.Errorf("%w: %w", service.ErrLoadFailed, dataset.ErrUnexpectedStatus), wantStatus: http.StatusBadGateway, wantMsg: "dataset could not be loaded"},
		{name: "empty", err: chart.ErrEmptyDataset, wantStatus: http.StatusBadGateway, wantMsg: "dataset has no records"},
		{name: "canceled", err: context.Canceled, wantStatus: http.StatusServiceUnavailable, wantMsg: "request canceled"},
		{name: "other", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantMsg: "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestMux(&mockService{err: tt.err}), http.MethodGet, "/api/v1/dataset")

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", rec.Code, tt.wantStatus)
			}
			body := decodeError(t, rec)
			if body["error"] != http.StatusText(tt.wantStatus) || body["message"] != tt.wantMsg {
				t.Errorf("body = %v", body)
			}
		})
	}
}

func Test_handleDataset(t *testing.T) {
	rec := serve(newTestMux(&mockService{ds: sampleDataset()}), http.MethodGet, "/api/v1/dataset")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
	}
	var body struct {
		BaseTemperature float64 `json:"baseTemperature"`
		MonthlyVariance []struct {
			Year        int     `json:"year"`
			Month       int     `json:"month"`
			Variance    float64 `json:"variance"`
			Temperature float64 `json:"temperature"`
		} `json:"monthlyVariance"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.BaseTemperature != 8.66 || len(body.MonthlyVariance) != 3 {
		t.Fatalf("body = %+v", body)
	}
	if got := body.MonthlyVariance[0]; got.Year != 1753 || got.Month != 1 || got.Temperature != 7.294 {
		t.Errorf("first record = %+v; want 1753/1 temperature 7.294", got)
	}
}

func Test_handleLegend(t *testing.T) {
	t.Run("returns eleven buckets", func(t *testing.T) {
		rec := serve(newTestMux(&mockService{ds: sampleDataset()}), http.MethodGet, "/api/v1/legend")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		var legend []types.LegendEntry
		if err := json.NewDecoder(rec.Body).Decode(&legend); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(legend) != 11 {
			t.Fatalf("len = %d; want 11", len(legend))
		}
		if legend[0].Color != "#313695" || legend[0].Label != "-2.22" {
			t.Errorf("first bucket = %+v", legend[0])
		}
	})

	t.Run("maps errors", func(t *testing.T) {
		rec := serve(newTestMux(&mockService{legendErr: service.ErrLoading}), http.MethodGet, "/api/v1/legend")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusServiceUnavailable)
		}
	})
}

func Test_handleLoads(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		svc := &mockService{loads: []types.LoadAttempt{{ID: "a1", Status: types.LoadOK, RecordCount: 3153}}}
		rec := serve(newTestMux(svc), http.MethodGet, "/api/v1/loads")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if svc.gotLimit != 20 {
			t.Errorf("limit = %d; want 20", svc.gotLimit)
		}
		var loads []types.LoadAttempt
		if err := json.NewDecoder(rec.Body).Decode(&loads); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(loads) != 1 || loads[0].ID != "a1" {
			t.Errorf("loads = %+v", loads)
		}
	})

	t.Run("explicit limit", func(t *testing.T) {
		svc := &mockService{}
		serve(newTestMux(svc), http.MethodGet, "/api/v1/loads?limit=5")
		if svc.gotLimit != 5 {
			t.Errorf("limit = %d; want 5", svc.gotLimit)
		}
	})

	t.Run("invalid limit returns 400", func(t *testing.T) {
		rec := serve(newTestMux(&mockService{}), http.MethodGet, "/api/v1/loads?limit=abc")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("repository error returns 500", func(t *testing.T) {
		rec := serve(newTestMux(&mockService{loadsErr: errors.New("db closed")}), http.MethodGet, "/api/v1/loads")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusInternalServerError)
		}
		if got := decodeError(t, rec)["message"]; got != "failed to load attempts" {
			t.Errorf("message = %q", got)
		}
	})
}
