package config

import "fmt"

// Band is a frequency range in Hz analysed by the band filter bank.
type Band struct {
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// Midpoint returns the integer centre frequency used for unmask suggestions.
func (b Band) Midpoint() int {
	return int((b.Low + b.High) / 2)
}

// Label renders the band as "low-highHz".
func (b Band) Label() string {
	return fmt.Sprintf("%d-%dHz", int(b.Low), int(b.High))
}

// DefaultBands returns the five analysis bands ordered low to high:
// sub, low/mud, low-mid, mid/presence and high.
func DefaultBands() []Band {
	return []Band{
		{Low: 20, High: 60},
		{Low: 60, High: 250},
		{Low: 250, High: 1000},
		{Low: 1000, High: 4000},
		{Low: 4000, High: 12000},
	}
}
