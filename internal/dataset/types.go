// Package dataset loads the monthly global temperature anomaly dataset and
// derives absolute temperatures from it.
package dataset

import (
	"math"
	"sort"
)

// epsilon matches the machine epsilon added before rounding so that values
// such as 1.0005 round up instead of falling just below the midpoint.
const epsilon = 2.220446049250313e-16

// RawRecord is one monthly variance entry as published by the source.
type RawRecord struct {
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Variance float64 `json:"variance"`
}

// Payload is the decoded source document.
type Payload struct {
	BaseTemperature float64     `json:"baseTemperature"`
	MonthlyVariance []RawRecord `json:"monthlyVariance"`
}

// Record is a RawRecord with its absolute temperature.
type Record struct {
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Variance    float64 `json:"variance"`
	Temperature float64 `json:"temperature"`
}

// Dataset is the derived, read-only result of a load.
type Dataset struct {
	BaseTemperature float64  `json:"baseTemperature"`
	Records         []Record `json:"monthlyVariance"`
}

// Derive computes the temperature of every record, keeping input order.
func Derive(p Payload) *Dataset {
	records := make([]Record, 0, len(p.MonthlyVariance))
	for _, r := range p.MonthlyVariance {
		records = append(records, Record{
			Year:        r.Year,
			Month:       r.Month,
			Variance:    r.Variance,
			Temperature: Round(r.Variance+p.BaseTemperature, 3),
		})
	}
	return &Dataset{BaseTemperature: p.BaseTemperature, Records: records}
}

// Round rounds x half-up to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Floor((x+epsilon)*p+0.5) / p
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Years returns the distinct years present, ascending.
func (d *Dataset) Years() []int {
	if d.Len() == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(d.Records)/12+1)
	years := make([]int, 0, len(d.Records)/12+1)
	for _, r := range d.Records {
		if _, ok := seen[r.Year]; ok {
			continue
		}
		seen[r.Year] = struct{}{}
		years = append(years, r.Year)
	}
	sort.Ints(years)
	return years
}

// FirstYear and LastYear follow input order, not numeric order.
func (d *Dataset) FirstYear() (int, bool) {
	if d.Len() == 0 {
		return 0, false
	}
	return d.Records[0].Year, true
}

func (d *Dataset) LastYear() (int, bool) {
	if d.Len() == 0 {
		return 0, false
	}
	return d.Records[len(d.Records)-1].Year, true
}

// VarianceExtent returns the smallest and largest variance. ok is false for
// an empty dataset.
func (d *Dataset) VarianceExtent() (lo, hi float64, ok bool) {
	if d.Len() == 0 {
		return 0, 0, false
	}
	lo, hi = d.Records[0].Variance, d.Records[0].Variance
	for _, r := range d.Records[1:] {
		lo = math.Min(lo, r.Variance)
		hi = math.Max(hi, r.Variance)
	}
	return lo, hi, true
}
