package dataset

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecode_valid(t *testing.T) {
	body := `{
		"baseTemperature": 8.66,
		"monthlyVariance": [
			{"year": 1753, "month": 1, "variance": -1.366},
			{"year": 1753, "month": 2, "variance": -2.223}
		]
	}`

	got, err := Decode(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Decode() error = %v, want nil", err)
	}
	want := Payload{
		BaseTemperature: 8.66,
		MonthlyVariance: []RawRecord{
			{Year: 1753, Month: 1, Variance: -1.366},
			{Year: 1753, Month: 2, Variance: -2.223},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_emptyVariance(t *testing.T) {
	got, err := Decode(strings.NewReader(`{"baseTemperature": 8.66, "monthlyVariance": []}`))
	if err != nil {
		t.Fatalf("Decode() error = %v, want nil", err)
	}
	if len(got.MonthlyVariance) != 0 {
		t.Errorf("MonthlyVariance len = %d, want 0", len(got.MonthlyVariance))
	}
	if got.BaseTemperature != 8.66 {
		t.Errorf("BaseTemperature = %v, want 8.66", got.BaseTemperature)
	}
}

func TestDecode_invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "not json", body: `<html>`, wantMsg: "invalid character"},
		{name: "empty body", body: ``, wantMsg: "EOF"},
		{name: "missing base", body: `{"monthlyVariance": []}`, wantMsg: "missing baseTemperature"},
		{name: "missing variance list", body: `{"baseTemperature": 8.66}`, wantMsg: "missing monthlyVariance"},
		{name: "null variance list", body: `{"baseTemperature": 8.66, "monthlyVariance": null}`, wantMsg: "missing monthlyVariance"},
		{name: "missing year", body: `{"baseTemperature": 1, "monthlyVariance": [{"month": 1, "variance": 0}]}`, wantMsg: "monthlyVariance[0]: missing year"},
		{name: "missing month", body: `{"baseTemperature": 1, "monthlyVariance": [{"year": 1753, "variance": 0}]}`, wantMsg: "missing month"},
		{name: "missing variance", body: `{"baseTemperature": 1, "monthlyVariance": [{"year": 1753, "month": 1}]}`, wantMsg: "missing variance"},
		{name: "month zero", body: `{"baseTemperature": 1, "monthlyVariance": [{"year": 1753, "month": 0, "variance": 0}]}`, wantMsg: "out of range"},
		{name: "month thirteen", body: `{"baseTemperature": 1, "monthlyVariance": [{"year": 1753, "month": 1, "variance": 0}, {"year": 1753, "month": 13, "variance": 0}]}`, wantMsg: "monthlyVariance[1]: month 13"},
		{name: "fractional year", body: `{"baseTemperature": 1, "monthlyVariance": [{"year": 1753.5, "month": 1, "variance": 0}]}`, wantMsg: "cannot unmarshal"},
		{name: "string base", body: `{"baseTemperature": "8.66", "monthlyVariance": []}`, wantMsg: "cannot unmarshal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.body))
			if err == nil {
				t.Fatal("Decode() error = nil, want error")
			}
			if !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("errors.Is(err, ErrInvalidPayload) = false; err = %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %q; want message containing %q", err.Error(), tt.wantMsg)
			}
		})
	}
}
