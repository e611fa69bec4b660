package chart

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kneckehexan/freecodecamp-heat-map/internal/dataset"
)

const (
	Title = "Monthly Global Land-Surface Temperature"

	xBandPadding   = 0.05
	xTickEvery     = 10
	tickSize       = 6
	legendSwatchW  = 40
	legendSwatchH  = 10
	legendRectUp   = 30
	legendLabelUp  = 10
	tooltipOffsetX = 10
	tooltipOffsetY = -25
)

var ErrEmptyDataset = errors.New("dataset has no records")

// Layout is the outer size of the chart and the padding reserved for axes.
type Layout struct {
	Width   float64
	Height  float64
	Padding float64
}

func DefaultLayout() Layout {
	return Layout{Width: 1400, Height: 600, Padding: 60}
}

func (l Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("chart size %vx%v must be positive", l.Width, l.Height)
	}
	if l.Padding < 0 || 2*l.Padding >= l.Width || 2*l.Padding >= l.Height {
		return fmt.Errorf("chart padding %v does not fit %vx%v", l.Padding, l.Width, l.Height)
	}
	return nil
}

type Tick struct {
	Pos   float64
	Label string
}

type Axis struct {
	ID string
	// Offset is the translation of the axis group: y for the bottom axis,
	// x for the left axis.
	Offset     float64
	DomainPath string
	TickSize   float64
	Ticks      []Tick
}

type Cell struct {
	X, Y          float64
	Width, Height float64
	Fill          string
	Year          int
	Month         int
	MonthName     string
	Variance      float64
	Temperature   float64
}

type LegendItem struct {
	X, Y          float64
	Width, Height float64
	LabelY        float64
	Fill          string
	Lower, Upper  float64
	Label         string
}

type Label struct {
	X, Y float64
	Text string
}

// Tooltip describes the hover behaviour: it appears without transition and
// fades out over FadeOut.
type Tooltip struct {
	ShowDuration time.Duration
	FadeOut      time.Duration
	OffsetX      float64
	OffsetY      float64
	Opacity      float64
}

func DefaultTooltip() Tooltip {
	return Tooltip{
		ShowDuration: 0,
		FadeOut:      200 * time.Millisecond,
		OffsetX:      tooltipOffsetX,
		OffsetY:      tooltipOffsetY,
		Opacity:      0.9,
	}
}

type Heatmap struct {
	Layout
	Title           string
	Description     string
	BaseTemperature float64
	XAxis           Axis
	YAxis           Axis
	XLabel          Label
	YLabel          Label
	Cells           []Cell
	Legend          []LegendItem
	Tooltip         Tooltip
	Colors          *QuantizeScale
}

// Build lays out ds. It fails with ErrEmptyDataset when there is nothing to
// derive a color domain from.
func Build(ds *dataset.Dataset, layout Layout) (*Heatmap, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	lo, hi, ok := ds.VarianceExtent()
	if !ok {
		return nil, ErrEmptyDataset
	}
	w, h, pad := layout.Width, layout.Height, layout.Padding

	x := NewBandScale(ds.Years(), pad, w-pad).WithPadding(xBandPadding)
	y := NewBandScale([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, h-pad, pad)
	colors := NewQuantizeScale(lo, hi, VariancePalette())

	first, _ := ds.FirstYear()
	last, _ := ds.LastYear()

	hm := &Heatmap{
		Layout:          layout,
		Title:           Title,
		Description:     fmt.Sprintf("%d - %d: Base temperature %s ℃", first, last, FormatNumber(ds.BaseTemperature)),
		BaseTemperature: ds.BaseTemperature,
		XAxis:           bottomAxis(x, h-pad),
		YAxis:           leftAxis(y, pad),
		XLabel:          Label{X: w/2 + pad/2, Y: h - pad/2, Text: "Year"},
		YLabel:          Label{X: -h / 2, Y: pad/2 - 15, Text: "Month"},
		Tooltip:         DefaultTooltip(),
		Colors:          colors,
	}

	hm.Cells = make([]Cell, 0, ds.Len())
	for _, r := range ds.Records {
		cx, _ := x.Position(r.Year)
		cy, ok := y.Position(r.Month)
		if !ok {
			return nil, fmt.Errorf("record %d-%d: month outside 1-12", r.Year, r.Month)
		}
		hm.Cells = append(hm.Cells, Cell{
			X:           cx,
			Y:           cy,
			Width:       x.Bandwidth(),
			Height:      y.Bandwidth(),
			Fill:        colors.Color(r.Variance),
			Year:        r.Year,
			Month:       r.Month,
			MonthName:   MonthName(r.Month),
			Variance:    r.Variance,
			Temperature: r.Temperature,
		})
	}

	hm.Legend = buildLegend(colors, h)
	return hm, nil
}

func bottomAxis(x *BandScale[int], offset float64) Axis {
	r0, r1 := x.Range()
	axis := Axis{
		ID:         "x-axis",
		Offset:     offset,
		TickSize:   tickSize,
		DomainPath: fmt.Sprintf("M%s,%dV0H%sV%d", FormatCoord(r0), tickSize, FormatCoord(r1), tickSize),
	}
	for i, year := range x.Domain() {
		if i%xTickEvery != 0 {
			continue
		}
		pos, _ := x.Center(year)
		axis.Ticks = append(axis.Ticks, Tick{Pos: pos, Label: strconv.Itoa(year)})
	}
	return axis
}

// leftAxis has no outer ticks, so the domain path is a plain vertical line.
func leftAxis(y *BandScale[int], offset float64) Axis {
	r0, r1 := y.Range()
	axis := Axis{
		ID:         "y-axis",
		Offset:     offset,
		TickSize:   tickSize,
		DomainPath: fmt.Sprintf("M0,%sV%s", FormatCoord(r0), FormatCoord(r1)),
	}
	for i, month := range y.Domain() {
		pos, _ := y.Center(month)
		axis.Ticks = append(axis.Ticks, Tick{Pos: pos, Label: monthNames[i]})
	}
	return axis
}

// buildLegend lays the buckets out in one row, each labelled with its lower
// bound.
func buildLegend(colors *QuantizeScale, height float64) []LegendItem {
	palette := colors.Colors()
	items := make([]LegendItem, 0, len(palette))
	for i, c := range palette {
		lo, hi, _ := colors.InvertExtent(c)
		items = append(items, LegendItem{
			X:      float64(i * legendSwatchW),
			Y:      height - legendRectUp,
			Width:  legendSwatchW,
			Height: legendSwatchH,
			LabelY: height - legendLabelUp,
			Fill:   colors.Color(lo),
			Lower:  lo,
			Upper:  hi,
			Label:  FormatNumber(roundLabel(lo)),
		})
	}
	return items
}
