package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kneckehexan/freecodecamp-heat-map/internal/chart"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/config"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/dataset"
	heatmapviews "github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/views"
)

const (
	FormatHTML = "html"
	FormatSVG  = "svg"
)

type RenderOptions struct {
	// Out is the destination file; "-" or empty writes to stdout.
	Out    string
	Format string
}

// Render loads the dataset once and writes a standalone page or SVG.
func Render(ctx context.Context, cfg config.Config, version string, opts RenderOptions, logger *slog.Logger) error {
	loader := dataset.NewHTTPLoader(cfg.DatasetURL, cfg.FetchTimeout, userAgent(version), logger)
	return render(ctx, loader, layoutFromConfig(cfg), opts, logger)
}

func render(ctx context.Context, loader dataset.Loader, layout chart.Layout, opts RenderOptions, logger *slog.Logger) error {
	var write func(*bytes.Buffer, *chart.Heatmap) error
	switch opts.Format {
	case FormatHTML, "":
		write = func(b *bytes.Buffer, hm *chart.Heatmap) error { return heatmapviews.RenderPage(b, hm) }
	case FormatSVG:
		write = func(b *bytes.Buffer, hm *chart.Heatmap) error { return heatmapviews.RenderChartSVG(b, hm) }
	default:
		return fmt.Errorf("invalid format %q (allowed: html, svg)", opts.Format)
	}

	if err := heatmapviews.LoadTemplates(); err != nil {
		return err
	}

	ds, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	hm, err := chart.Build(ds, layout)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := write(&buf, hm); err != nil {
		return err
	}

	if opts.Out == "" || opts.Out == "-" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	if err := writeFileAtomic(opts.Out, buf.Bytes()); err != nil {
		return err
	}
	logger.Info("chart rendered", "out", opts.Out, "format", opts.Format, "records", ds.Len(), "bytes", buf.Len())
	return nil
}

// writeFileAtomic replaces path so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
