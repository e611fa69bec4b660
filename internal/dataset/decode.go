package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var ErrInvalidPayload = errors.New("invalid dataset payload")

// wire mirrors Payload with pointers so that missing fields can be told
// apart from zero values.
type wire struct {
	BaseTemperature *float64      `json:"baseTemperature"`
	MonthlyVariance *[]wireRecord `json:"monthlyVariance"`
}

type wireRecord struct {
	Year     *int     `json:"year"`
	Month    *int     `json:"month"`
	Variance *float64 `json:"variance"`
}

// Decode reads one dataset document from r. Every failure wraps
// ErrInvalidPayload.
func Decode(r io.Reader) (Payload, error) {
	var w wire
	dec := json.NewDecoder(r)
	if err := dec.Decode(&w); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if w.BaseTemperature == nil {
		return Payload{}, fmt.Errorf("%w: missing baseTemperature", ErrInvalidPayload)
	}
	if w.MonthlyVariance == nil {
		return Payload{}, fmt.Errorf("%w: missing monthlyVariance", ErrInvalidPayload)
	}

	records := make([]RawRecord, 0, len(*w.MonthlyVariance))
	for i, rec := range *w.MonthlyVariance {
		switch {
		case rec.Year == nil:
			return Payload{}, fmt.Errorf("%w: monthlyVariance[%d]: missing year", ErrInvalidPayload, i)
		case rec.Month == nil:
			return Payload{}, fmt.Errorf("%w: monthlyVariance[%d]: missing month", ErrInvalidPayload, i)
		case rec.Variance == nil:
			return Payload{}, fmt.Errorf("%w: monthlyVariance[%d]: missing variance", ErrInvalidPayload, i)
		case *rec.Month < 1 || *rec.Month > 12:
			return Payload{}, fmt.Errorf("%w: monthlyVariance[%d]: month %d out of range 1-12", ErrInvalidPayload, i, *rec.Month)
		}
		records = append(records, RawRecord{Year: *rec.Year, Month: *rec.Month, Variance: *rec.Variance})
	}

	return Payload{BaseTemperature: *w.BaseTemperature, MonthlyVariance: records}, nil
}
