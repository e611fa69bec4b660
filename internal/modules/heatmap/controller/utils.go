package controller

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/kneckehexan/freecodecamp-heat-map/internal/chart"
)

const (
	defaultLoadsLimit = 20
	maxLoadsLimit     = 100
)

type bounds struct {
	min, max float64
}

var (
	widthBounds   = bounds{200, 4000}
	heightBounds  = bounds{100, 4000}
	paddingBounds = bounds{0, 400}
)

func parseLimitQuery(r *http.Request) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return defaultLoadsLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid 'limit' (expected integer)")
	}
	if n <= 0 {
		return 0, errors.New("'limit' must be > 0")
	}
	if n > maxLoadsLimit {
		return 0, fmt.Errorf("'limit' must be <= %d", maxLoadsLimit)
	}
	return n, nil
}

// parseLayoutQuery applies optional width, height and padding overrides to
// def.
func parseLayoutQuery(r *http.Request, def chart.Layout) (chart.Layout, error) {
	q := r.URL.Query()
	out := def
	for _, p := range []struct {
		name string
		dst  *float64
		b    bounds
	}{
		{"width", &out.Width, widthBounds},
		{"height", &out.Height, heightBounds},
		{"padding", &out.Padding, paddingBounds},
	} {
		s := q.Get(p.name)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) {
			return chart.Layout{}, fmt.Errorf("invalid '%s' (expected number)", p.name)
		}
		if v < p.b.min || v > p.b.max {
			return chart.Layout{}, fmt.Errorf("'%s' must be between %g and %g", p.name, p.b.min, p.b.max)
		}
		*p.dst = v
	}
	if err := out.Validate(); err != nil {
		return chart.Layout{}, err
	}
	return out, nil
}
