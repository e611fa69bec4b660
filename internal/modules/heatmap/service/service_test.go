package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/kneckehexan/freecodecamp-heat-map/internal/chart"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/dataset"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/types"
)

type fakeLoader struct {
	calls   atomic.Int32
	release chan struct{}
	ds      *dataset.Dataset
	err     error
}

func (f *fakeLoader) Source() string { return "https://example.com/global-temperature.json" }

func (f *fakeLoader) Load(ctx context.Context) (*dataset.Dataset, error) {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.ds, f.err
}

type fakeRepo struct {
	mu       sync.Mutex
	attempts []types.LoadAttempt
	err      error
}

func (r *fakeRepo) InsertLoadAttempt(_ context.Context, a types.LoadAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.attempts = append(r.attempts, a)
	return nil
}

func (r *fakeRepo) GetRecentLoadAttempts(_ context.Context, limit int) ([]types.LoadAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.attempts) < limit {
		limit = len(r.attempts)
	}
	return append([]types.LoadAttempt(nil), r.attempts[:limit]...), nil
}

func (r *fakeRepo) CountLoadAttempts(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts), nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []types.LoadAttempt
	err       error
}

func (p *fakePublisher) PublishLoadAttempt(a types.LoadAttempt) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, a)
	return p.err
}

type fakeObserver struct {
	mu       sync.Mutex
	outcomes []string
	renders  []string
}

func (o *fakeObserver) ObserveLoad(outcome string, _ time.Duration, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *fakeObserver) ObserveRender(format string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.renders = append(o.renders, format)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleDataset() *dataset.Dataset {
	return dataset.Derive(dataset.Payload{
		BaseTemperature: 8.66,
		MonthlyVariance: []dataset.RawRecord{
			{Year: 1753, Month: 1, Variance: -1.366},
			{Year: 1753, Month: 2, Variance: -2.223},
			{Year: 1754, Month: 1, Variance: 0.5},
			{Year: 2015, Month: 9, Variance: 1.1},
		},
	})
}

func waitDone(t *testing.T, f *dataset.Future) {
	t.Helper()
	select {
	case <-f.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("load did not finish")
	}
}

func TestStart_loadsExactlyOnce(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	loader := &fakeLoader{release: make(chan struct{}), ds: sampleDataset()}
	svc := New(Options{Loader: loader, Logger: discardLogger(), WaitTimeout: 5 * time.Second})

	f := svc.Start(context.Background())
	if again := svc.Start(context.Background()); again != f {
		t.Fatal("second Start returned a different Future")
	}
	if got := svc.Status(); got != types.DatasetPending {
		t.Errorf("Status() = %q while loading, want pending", got)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ds, err := svc.Dataset(context.Background())
			if err != nil {
				t.Errorf("Dataset() error = %v", err)
				return
			}
			if ds.Len() != 4 {
				t.Errorf("Dataset().Len() = %d, want 4", ds.Len())
			}
		}()
	}
	close(loader.release)
	wg.Wait()
	waitDone(t, f)

	if n := loader.calls.Load(); n != 1 {
		t.Errorf("loader called %d times, want 1", n)
	}
	if got := svc.Status(); got != types.DatasetReady {
		t.Errorf("Status() = %q, want ready", got)
	}
}

func TestDataset_notStarted(t *testing.T) {
	svc := New(Options{Loader: &fakeLoader{}, Logger: discardLogger()})

	if _, err := svc.Dataset(context.Background()); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Dataset() error = %v, want ErrNotStarted", err)
	}
	if got := svc.Status(); got != types.DatasetPending {
		t.Errorf("Status() = %q, want pending", got)
	}
}

func TestDataset_stillLoading(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	loader := &fakeLoader{release: make(chan struct{}), ds: sampleDataset()}
	svc := New(Options{Loader: loader, Logger: discardLogger(), WaitTimeout: 20 * time.Millisecond})
	f := svc.Start(context.Background())

	if _, err := svc.Dataset(context.Background()); !errors.Is(err, ErrLoading) {
		t.Fatalf("Dataset() error = %v, want ErrLoading", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Dataset(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Dataset(canceled) error = %v, want context.Canceled", err)
	}

	close(loader.release)
	waitDone(t, f)
	if _, err := svc.Dataset(context.Background()); err != nil {
		t.Errorf("Dataset() after load error = %v", err)
	}
}

func TestDataset_loadFailure(t *testing.T) {
	loadErr := errors.New("HTTP 502")
	repo := &fakeRepo{}
	pub := &fakePublisher{}
	obs := &fakeObserver{}
	svc := New(Options{
		Loader:     &fakeLoader{err: loadErr},
		Repository: repo,
		Publisher:  pub,
		Observer:   obs,
		Logger:     discardLogger(),
	})
	waitDone(t, svc.Start(context.Background()))

	_, err := svc.Dataset(context.Background())
	if !errors.Is(err, ErrLoadFailed) || !errors.Is(err, loadErr) {
		t.Fatalf("Dataset() error = %v, want ErrLoadFailed wrapping the loader error", err)
	}
	if got := svc.Status(); got != types.DatasetFailed {
		t.Errorf("Status() = %q, want failed", got)
	}

	if len(repo.attempts) != 1 {
		t.Fatalf("recorded %d attempts, want 1", len(repo.attempts))
	}
	a := repo.attempts[0]
	if a.Status != types.LoadFailed || a.Error != "HTTP 502" || a.RecordCount != 0 || a.BaseTemperature != nil {
		t.Errorf("attempt = %+v", a)
	}
	if len(pub.published) != 1 || pub.published[0].ID != a.ID {
		t.Errorf("published = %+v, want the recorded attempt", pub.published)
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != "failed" {
		t.Errorf("observed outcomes = %v, want [failed]", obs.outcomes)
	}

	if _, err := svc.Heatmap(context.Background(), chart.DefaultLayout()); !errors.Is(err, ErrLoadFailed) {
		t.Errorf("Heatmap() error = %v, want ErrLoadFailed", err)
	}
}

func TestLoad_recordsSuccessfulAttempt(t *testing.T) {
	repo := &fakeRepo{}
	obs := &fakeObserver{}
	svc := New(Options{Loader: &fakeLoader{ds: sampleDataset()}, Repository: repo, Observer: obs, Logger: discardLogger()})
	svc.newID = func() string { return "attempt-1" }
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.FixedZone("CEST", 7200)) }

	waitDone(t, svc.Start(context.Background()))

	if len(repo.attempts) != 1 {
		t.Fatalf("recorded %d attempts, want 1", len(repo.attempts))
	}
	a := repo.attempts[0]
	if a.ID != "attempt-1" || a.Status != types.LoadOK || a.RecordCount != 4 || a.Error != "" {
		t.Errorf("attempt = %+v", a)
	}
	if a.StartedAt.Location() != time.UTC || a.StartedAt.Hour() != 8 {
		t.Errorf("StartedAt = %v, want 08:00 UTC", a.StartedAt)
	}
	if a.SourceURL != "https://example.com/global-temperature.json" {
		t.Errorf("SourceURL = %q", a.SourceURL)
	}
	if a.BaseTemperature == nil || *a.BaseTemperature != 8.66 {
		t.Errorf("BaseTemperature = %v, want 8.66", a.BaseTemperature)
	}
	if a.MinVariance == nil || *a.MinVariance != -2.223 || a.MaxVariance == nil || *a.MaxVariance != 1.1 {
		t.Errorf("variance extent = %v..%v", a.MinVariance, a.MaxVariance)
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != "ok" {
		t.Errorf("observed outcomes = %v, want [ok]", obs.outcomes)
	}

	loads, err := svc.RecentLoads(context.Background(), 10)
	if err != nil || len(loads) != 1 {
		t.Errorf("RecentLoads() = %v, %v", loads, err)
	}
}

func TestLoad_sideEffectFailuresDoNotFailLoad(t *testing.T) {
	svc := New(Options{
		Loader:     &fakeLoader{ds: sampleDataset()},
		Repository: &fakeRepo{err: errors.New("disk full")},
		Publisher:  &fakePublisher{err: errors.New("not connected")},
		Logger:     discardLogger(),
	})
	waitDone(t, svc.Start(context.Background()))

	if _, err := svc.Dataset(context.Background()); err != nil {
		t.Fatalf("Dataset() error = %v, want nil", err)
	}
	if got := svc.Status(); got != types.DatasetReady {
		t.Errorf("Status() = %q, want ready", got)
	}
}

func TestHeatmap_emptyDataset(t *testing.T) {
	empty := dataset.Derive(dataset.Payload{BaseTemperature: 8.66, MonthlyVariance: []dataset.RawRecord{}})
	svc := New(Options{Loader: &fakeLoader{ds: empty}, Logger: discardLogger()})
	waitDone(t, svc.Start(context.Background()))

	if _, err := svc.Heatmap(context.Background(), chart.DefaultLayout()); !errors.Is(err, chart.ErrEmptyDataset) {
		t.Fatalf("Heatmap() error = %v, want chart.ErrEmptyDataset", err)
	}
}

func TestLegend(t *testing.T) {
	svc := New(Options{Loader: &fakeLoader{ds: sampleDataset()}, Logger: discardLogger()})
	waitDone(t, svc.Start(context.Background()))

	legend, err := svc.Legend(context.Background())
	if err != nil {
		t.Fatalf("Legend() error = %v", err)
	}
	if len(legend) != 11 {
		t.Fatalf("len(Legend()) = %d, want 11", len(legend))
	}
	if legend[0].Lower != -2.223 || legend[0].Label != "-2.22" {
		t.Errorf("first bucket = %+v", legend[0])
	}
	if legend[10].Upper != 1.1 {
		t.Errorf("last bucket upper = %v, want 1.1", legend[10].Upper)
	}
	for i := 1; i < len(legend); i++ {
		if legend[i].Lower != legend[i-1].Upper {
			t.Errorf("bucket %d lower %v != previous upper %v", i, legend[i].Lower, legend[i-1].Upper)
		}
	}
}

func TestRecentLoads_withoutRepository(t *testing.T) {
	svc := New(Options{Loader: &fakeLoader{}, Logger: discardLogger()})

	got, err := svc.RecentLoads(context.Background(), 5)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("RecentLoads() = %#v, %v; want empty slice", got, err)
	}
}

func TestObserveRender(t *testing.T) {
	obs := &fakeObserver{}
	svc := New(Options{Loader: &fakeLoader{}, Observer: obs, Logger: discardLogger()})

	svc.ObserveRender("svg")
	New(Options{Loader: &fakeLoader{}}).ObserveRender("html")

	if len(obs.renders) != 1 || obs.renders[0] != "svg" {
		t.Errorf("renders = %v, want [svg]", obs.renders)
	}
}
