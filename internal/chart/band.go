// Package chart lays out the temperature heatmap: scales, axes, cells and
// legend. It produces geometry only; markup lives in the views package.
package chart

import "math"

// BandScale maps discrete values onto equal-width bands of a continuous
// range. Padding is expressed as a fraction of the step, and bands are
// centred in the range (align 0.5).
type BandScale[T comparable] struct {
	domain       []T
	index        map[T]int
	r0, r1       float64
	paddingInner float64
	paddingOuter float64
	align        float64

	step      float64
	bandwidth float64
	positions []float64
}

// NewBandScale builds a scale over domain; duplicate values keep their first
// position.
func NewBandScale[T comparable](domain []T, r0, r1 float64) *BandScale[T] {
	s := &BandScale[T]{r0: r0, r1: r1, align: 0.5, index: make(map[T]int, len(domain))}
	for _, v := range domain {
		if _, ok := s.index[v]; ok {
			continue
		}
		s.index[v] = len(s.domain)
		s.domain = append(s.domain, v)
	}
	s.rescale()
	return s
}

// WithPadding sets both inner and outer padding.
func (s *BandScale[T]) WithPadding(p float64) *BandScale[T] {
	s.paddingInner = math.Min(1, math.Max(0, p))
	s.paddingOuter = math.Max(0, p)
	s.rescale()
	return s
}

func (s *BandScale[T]) WithPaddingInner(p float64) *BandScale[T] {
	s.paddingInner = math.Min(1, math.Max(0, p))
	s.rescale()
	return s
}

func (s *BandScale[T]) WithPaddingOuter(p float64) *BandScale[T] {
	s.paddingOuter = math.Max(0, p)
	s.rescale()
	return s
}

func (s *BandScale[T]) rescale() {
	n := float64(len(s.domain))
	reverse := s.r1 < s.r0
	start, stop := s.r0, s.r1
	if reverse {
		start, stop = s.r1, s.r0
	}
	s.step = (stop - start) / math.Max(1, n-s.paddingInner+s.paddingOuter*2)
	start += (stop - start - s.step*(n-s.paddingInner)) * s.align
	s.bandwidth = s.step * (1 - s.paddingInner)

	s.positions = make([]float64, len(s.domain))
	for i := range s.positions {
		s.positions[i] = start + s.step*float64(i)
	}
	if reverse {
		for i, j := 0, len(s.positions)-1; i < j; i, j = i+1, j-1 {
			s.positions[i], s.positions[j] = s.positions[j], s.positions[i]
		}
	}
}

// Position returns the start of v's band.
func (s *BandScale[T]) Position(v T) (float64, bool) {
	i, ok := s.index[v]
	if !ok {
		return 0, false
	}
	return s.positions[i], true
}

// Center returns the middle of v's band, where axis ticks are drawn.
func (s *BandScale[T]) Center(v T) (float64, bool) {
	p, ok := s.Position(v)
	if !ok {
		return 0, false
	}
	return p + s.bandwidth/2, true
}

func (s *BandScale[T]) Domain() []T {
	out := make([]T, len(s.domain))
	copy(out, s.domain)
	return out
}

func (s *BandScale[T]) Range() (float64, float64) { return s.r0, s.r1 }
func (s *BandScale[T]) Step() float64             { return s.step }
func (s *BandScale[T]) Bandwidth() float64        { return s.bandwidth }
