package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/types"
)

//go:embed sql/insert-load-attempt.sql
var insertLoadAttemptSQL string

//go:embed sql/get-recent-load-attempts.sql
var getRecentLoadAttemptsSQL string

//go:embed sql/count-load-attempts.sql
var countLoadAttemptsSQL string

type LoadRepository interface {
	InsertLoadAttempt(ctx context.Context, a types.LoadAttempt) error
	GetRecentLoadAttempts(ctx context.Context, limit int) ([]types.LoadAttempt, error)
	CountLoadAttempts(ctx context.Context) (int, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) LoadRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) InsertLoadAttempt(ctx context.Context, a types.LoadAttempt) error {
	if a.ID == "" {
		return errors.New("load attempt id is required")
	}
	switch a.Status {
	case types.LoadOK, types.LoadFailed:
	default:
		return fmt.Errorf("invalid load status %q", a.Status)
	}
	if a.DurationMS < 0 {
		return fmt.Errorf("duration_ms must not be negative: %d", a.DurationMS)
	}

	var errText any
	if a.Error != "" {
		errText = a.Error
	}
	_, err := r.db.ExecContext(ctx, insertLoadAttemptSQL,
		a.ID,
		a.SourceURL,
		a.StartedAt.UTC().Format(time.RFC3339Nano),
		a.DurationMS,
		string(a.Status),
		a.RecordCount,
		nullableFloat(a.BaseTemperature),
		nullableFloat(a.MinVariance),
		nullableFloat(a.MaxVariance),
		errText,
	)
	if err != nil {
		return fmt.Errorf("insert load attempt: %w", err)
	}
	return nil
}

func (r *repositoryImpl) GetRecentLoadAttempts(ctx context.Context, limit int) ([]types.LoadAttempt, error) {
	rows, err := r.db.QueryContext(ctx, getRecentLoadAttemptsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close load attempt rows", "error", err)
		}
	}()
	return scanLoadAttempts(rows)
}

func (r *repositoryImpl) CountLoadAttempts(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countLoadAttemptsSQL).Scan(&n)
	return n, err
}

func scanLoadAttempts(rows *sql.Rows) ([]types.LoadAttempt, error) {
	out := []types.LoadAttempt{}
	for rows.Next() {
		var (
			a            types.LoadAttempt
			ts, status   string
			base, lo, hi sql.NullFloat64
			errText      sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.SourceURL, &ts, &a.DurationMS, &status,
			&a.RecordCount, &base, &lo, &hi, &errText); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", ts, err)
		}
		a.StartedAt = t
		a.Status = types.LoadStatus(status)
		a.BaseTemperature = floatPtr(base)
		a.MinVariance = floatPtr(lo)
		a.MaxVariance = floatPtr(hi)
		a.Error = errText.String
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
