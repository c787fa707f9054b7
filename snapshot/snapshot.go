package snapshot

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// ReferenceCurrency all rates are quoted against
const ReferenceCurrency = "EUR"

var (
	ErrInvalidSnapshot = errors.New("snapshot is not valid")
	ErrInvalidBase     = errors.New("invalid base currency")
	ErrInvalidSymbol   = errors.New("symbol list contains invalid symbols")
)

// Snapshot holds every known rate for one calendar date. Rates map a currency code to the amount of
// that currency one euro buys
type Snapshot struct {
	Date  Date
	Rates map[string]float64
}

// Clone returns a deep copy
func (s Snapshot) Clone() Snapshot {
	c := Snapshot{Date: s.Date, Rates: make(map[string]float64, len(s.Rates))}
	for code, rate := range s.Rates {
		c.Rates[code] = rate
	}

	return c
}

// WithReferenceRate returns a copy carrying the reference currency with rate exactly 1.0,
// whatever the remote payload said about it
func (s Snapshot) WithReferenceRate() Snapshot {
	c := s.Clone()
	c.Rates[ReferenceCurrency] = 1

	return c
}

// Codes returns the sorted currency codes of the snapshot
func (s Snapshot) Codes() []string {
	codes := make([]string, 0, len(s.Rates))
	for code := range s.Rates {
		codes = append(codes, code)
	}

	sort.Strings(codes)

	return codes
}

// Validate checks the date and every rate and returns all violations at once
func (s Snapshot) Validate() error {
	var result *multierror.Error

	if !s.Date.Valid() {
		result = multierror.Append(result, fmt.Errorf("%w: date %q", ErrInvalidSnapshot, s.Date))
	}

	for _, code := range s.Codes() {
		if !IsCode(code) {
			result = multierror.Append(result, fmt.Errorf("%w: currency code %q", ErrInvalidSnapshot, code))
		}

		rate := s.Rates[code]
		if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
			result = multierror.Append(result, fmt.Errorf("%w: rate %v for %s", ErrInvalidSnapshot, rate, code))
		}
	}

	return result.ErrorOrNil()
}

// Rebase expresses the rates relative to base. When symbols is not empty only those codes are returned.
// An empty base means the reference currency
func (s Snapshot) Rebase(base string, symbols []string) (map[string]float64, error) {
	if base == "" {
		base = ReferenceCurrency
	}

	baseRate, ok := s.Rates[base]
	if !ok || baseRate <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBase, base)
	}

	for _, sym := range symbols {
		if _, ok := s.Rates[sym]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSymbol, sym)
		}
	}

	out := make(map[string]float64, len(s.Rates))
	if len(symbols) > 0 {
		for _, sym := range symbols {
			out[sym] = s.Rates[sym] / baseRate
		}

		return out, nil
	}

	for code, rate := range s.Rates {
		out[code] = rate / baseRate
	}

	return out, nil
}

// IsCode reports whether s looks like an ISO 4217 alphabetic code
func IsCode(s string) bool {
	if len(s) != 3 {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}

	return true
}

// SortByDate orders snapshots ascending by date and drops repeated dates, keeping the last occurrence
func SortByDate(list []Snapshot) []Snapshot {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Date.Before(list[j].Date)
	})

	out := list[:0]
	for i := range list {
		if len(out) > 0 && out[len(out)-1].Date == list[i].Date {
			out[len(out)-1] = list[i]
			continue
		}

		out = append(out, list[i])
	}

	return out
}
