package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kneckehexan/freecodecamp-heat-map/internal/chart"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/dataset"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/repository"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/types"
)

var (
	ErrNotStarted = errors.New("dataset load not started")
	ErrLoading    = errors.New("dataset is still loading")
	ErrLoadFailed = errors.New("dataset load failed")
)

const recordTimeout = 5 * time.Second

// EventPublisher receives every load attempt once it has finished.
type EventPublisher interface {
	PublishLoadAttempt(a types.LoadAttempt) error
}

type Observer interface {
	ObserveLoad(outcome string, d time.Duration, records int)
	ObserveRender(format string)
}

type Options struct {
	Loader dataset.Loader
	// Repository, Publisher and Observer are optional.
	Repository  repository.LoadRepository
	Publisher   EventPublisher
	Observer    Observer
	WaitTimeout time.Duration
	Logger      *slog.Logger
}

// Service owns the single dataset load of the process and derives charts
// from its result.
type Service struct {
	loader      dataset.Loader
	repo        repository.LoadRepository
	publisher   EventPublisher
	observer    Observer
	waitTimeout time.Duration
	logger      *slog.Logger

	now   func() time.Time
	newID func() string

	startOnce sync.Once
	mu        sync.RWMutex
	future    *dataset.Future
}

func New(opts Options) *Service {
	s := &Service{
		loader:      opts.Loader,
		repo:        opts.Repository,
		publisher:   opts.Publisher,
		observer:    opts.Observer,
		waitTimeout: opts.WaitTimeout,
		logger:      opts.Logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.observer == nil {
		s.observer = noopObserver{}
	}
	if s.waitTimeout <= 0 {
		s.waitTimeout = 15 * time.Second
	}
	return s
}

// Start begins the load. Only the first call has any effect; later calls
// return the same Future.
func (s *Service) Start(ctx context.Context) *dataset.Future {
	s.startOnce.Do(func() {
		f := dataset.Go(ctx, s.load)
		s.mu.Lock()
		s.future = f
		s.mu.Unlock()
	})
	return s.currentFuture()
}

func (s *Service) currentFuture() *dataset.Future {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.future
}

func (s *Service) load(ctx context.Context) (*dataset.Dataset, error) {
	attempt := types.LoadAttempt{
		ID:        s.newID(),
		SourceURL: s.loader.Source(),
		StartedAt: s.now().UTC(),
	}
	s.logger.Info("loading dataset", "attempt_id", attempt.ID, "url", attempt.SourceURL)

	start := time.Now()
	ds, err := s.loader.Load(ctx)
	elapsed := time.Since(start)
	attempt.DurationMS = elapsed.Milliseconds()

	if err != nil {
		attempt.Status = types.LoadFailed
		attempt.Error = err.Error()
		s.logger.Error("dataset load failed", "attempt_id", attempt.ID, "duration", elapsed, "error", err)
	} else {
		attempt.Status = types.LoadOK
		attempt.RecordCount = ds.Len()
		base := ds.BaseTemperature
		attempt.BaseTemperature = &base
		if lo, hi, ok := ds.VarianceExtent(); ok {
			attempt.MinVariance, attempt.MaxVariance = &lo, &hi
		}
		s.logger.Info("dataset loaded",
			"attempt_id", attempt.ID,
			"records", attempt.RecordCount,
			"base_temperature", base,
			"duration", elapsed,
		)
	}
	s.observer.ObserveLoad(string(attempt.Status), elapsed, attempt.RecordCount)
	s.record(ctx, attempt)
	return ds, err
}

// record stores and publishes a. Neither failure affects the load result.
func (s *Service) record(ctx context.Context, a types.LoadAttempt) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if s.repo != nil {
		if err := s.repo.InsertLoadAttempt(ctx, a); err != nil {
			s.logger.Warn("record load attempt", "attempt_id", a.ID, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishLoadAttempt(a); err != nil {
			s.logger.Warn("publish load attempt", "attempt_id", a.ID, "error", err)
		}
	}
}

// Dataset waits up to the configured timeout for the load to finish.
func (s *Service) Dataset(ctx context.Context) (*dataset.Dataset, error) {
	f := s.currentFuture()
	if f == nil {
		return nil, ErrNotStarted
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.waitTimeout)
	defer cancel()
	if ds, err := f.Wait(waitCtx); err == nil {
		return ds, nil
	}
	ds, done, err := f.Result()
	switch {
	case !done && ctx.Err() != nil:
		return nil, ctx.Err()
	case !done:
		return nil, ErrLoading
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return ds, nil
}

func (s *Service) Heatmap(ctx context.Context, layout chart.Layout) (*chart.Heatmap, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return chart.Build(ds, layout)
}

func (s *Service) Legend(ctx context.Context) ([]types.LegendEntry, error) {
	hm, err := s.Heatmap(ctx, chart.DefaultLayout())
	if err != nil {
		return nil, err
	}
	out := make([]types.LegendEntry, 0, len(hm.Legend))
	for _, item := range hm.Legend {
		out = append(out, types.LegendEntry{
			Color: item.Fill,
			Lower: item.Lower,
			Upper: item.Upper,
			Label: item.Label,
		})
	}
	return out, nil
}

func (s *Service) RecentLoads(ctx context.Context, limit int) ([]types.LoadAttempt, error) {
	if s.repo == nil {
		return []types.LoadAttempt{}, nil
	}
	return s.repo.GetRecentLoadAttempts(ctx, limit)
}

func (s *Service) Status() types.DatasetStatus {
	f := s.currentFuture()
	if f == nil {
		return types.DatasetPending
	}
	_, done, err := f.Result()
	switch {
	case !done:
		return types.DatasetPending
	case err != nil:
		return types.DatasetFailed
	default:
		return types.DatasetReady
	}
}

func (s *Service) ObserveRender(format string) {
	s.observer.ObserveRender(format)
}

type noopObserver struct{}

func (noopObserver) ObserveLoad(string, time.Duration, int) {}
func (noopObserver) ObserveRender(string)                   {}
