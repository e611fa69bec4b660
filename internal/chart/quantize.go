package chart

import (
	"math"
	"sort"
)

// QuantizeScale divides the continuous domain [lo, hi] into len(colors)
// uniform buckets and maps each bucket to one color.
type QuantizeScale struct {
	lo, hi     float64
	colors     []string
	thresholds []float64
}

func NewQuantizeScale(lo, hi float64, colors []string) *QuantizeScale {
	s := &QuantizeScale{lo: lo, hi: hi, colors: append([]string(nil), colors...)}
	n := len(colors) - 1
	if n < 0 {
		n = 0
	}
	s.thresholds = make([]float64, n)
	for i := range s.thresholds {
		s.thresholds[i] = (float64(i+1)*hi - float64(i-n)*lo) / float64(n+1)
	}
	return s
}

// Color returns the bucket color for v. NaN and an empty palette yield "".
func (s *QuantizeScale) Color(v float64) string {
	if math.IsNaN(v) || len(s.colors) == 0 {
		return ""
	}
	i := sort.Search(len(s.thresholds), func(i int) bool { return s.thresholds[i] > v })
	return s.colors[i]
}

// InvertExtent returns the input range [lo, hi) that maps to color.
func (s *QuantizeScale) InvertExtent(color string) (lo, hi float64, ok bool) {
	i := -1
	for j, c := range s.colors {
		if c == color {
			i = j
			break
		}
	}
	n := len(s.thresholds)
	switch {
	case i < 0:
		return math.NaN(), math.NaN(), false
	case n == 0:
		return s.lo, s.hi, true
	case i < 1:
		return s.lo, s.thresholds[0], true
	case i >= n:
		return s.thresholds[n-1], s.hi, true
	default:
		return s.thresholds[i-1], s.thresholds[i], true
	}
}

func (s *QuantizeScale) Domain() (float64, float64) { return s.lo, s.hi }

func (s *QuantizeScale) Colors() []string {
	return append([]string(nil), s.colors...)
}

func (s *QuantizeScale) Thresholds() []float64 {
	return append([]float64(nil), s.thresholds...)
}
