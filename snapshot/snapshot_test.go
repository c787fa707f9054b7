package snapshot

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected Date
		err      error
	}{
		{
			name:     "first_ecb_date",
			input:    "1999-01-04",
			expected: Date{Year: 1999, Month: time.January, Day: 4},
		},
		{
			name:     "leap_day",
			input:    "2020-02-29",
			expected: Date{Year: 2020, Month: time.February, Day: 29},
		},
		{
			name:  "not_gregorian",
			input: "2021-02-30",
			err:   ErrInvalidDate,
		},
		{
			name:  "not_a_leap_year",
			input: "2021-02-29",
			err:   ErrInvalidDate,
		},
		{
			name:  "garbage",
			input: "04.01.1999",
			err:   ErrInvalidDate,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d, err := ParseDate(tc.input)
			if diff := cmp.Diff(tc.err, err, cmpopts.EquateErrors()); diff != "" {
				t.Fatalf("error mismatch (-want, +got):\n%s", diff)
			}

			if diff := cmp.Diff(tc.expected, d); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}

			if tc.err == nil && d.String() != tc.input {
				t.Errorf("String() = %q, want %q", d.String(), tc.input)
			}
		})
	}
}

func TestDate_DaysUntil(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		from, to string
		expected int
	}{
		{name: "same_day", from: "2021-06-18", to: "2021-06-18", expected: 0},
		{name: "next_day", from: "2021-06-18", to: "2021-06-19", expected: 1},
		{name: "weekend", from: "2021-06-18", to: "2021-06-21", expected: 3},
		{name: "backwards", from: "2021-06-21", to: "2021-06-18", expected: -3},
		{name: "leap_year", from: "2020-01-01", to: "2021-01-01", expected: 366},
		{name: "dst_switch", from: "2021-03-27", to: "2021-03-29", expected: 2},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := MustParseDate(tc.from).DaysUntil(MustParseDate(tc.to))
			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestDate_Text(t *testing.T) {
	t.Parallel()

	d := MustParseDate("2012-01-04")
	b, err := d.MarshalText()
	if err != nil {
		t.Fatalf("marshal text: %v", err)
	}

	var got Date
	if err := got.UnmarshalText(b); err != nil {
		t.Fatalf("unmarshal text: %v", err)
	}

	if diff := cmp.Diff(d, got); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}

	if err := got.UnmarshalText([]byte("2012-13-01")); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDateFromUnix(t *testing.T) {
	t.Parallel()

	d, err := DateFromUnix(915408000)
	if err != nil {
		t.Fatalf("date from unix: %v", err)
	}

	if diff := cmp.Diff(FirstDate, d); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}

	if _, err := DateFromUnix(915408001); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}

func TestSnapshot_WithReferenceRate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		rates map[string]float64
	}{
		{name: "missing", rates: map[string]float64{"USD": 1.1898}},
		{name: "wrong_value", rates: map[string]float64{"USD": 1.1898, "EUR": 0.5}},
		{name: "empty", rates: map[string]float64{}},
		{name: "nil_map", rates: nil},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			before, had := tc.rates[ReferenceCurrency]
			s := Snapshot{Date: FirstDate, Rates: tc.rates}
			got := s.WithReferenceRate()

			if got.Rates[ReferenceCurrency] != 1.0 {
				t.Errorf("reference rate = %v, want 1.0", got.Rates[ReferenceCurrency])
			}

			after, has := tc.rates[ReferenceCurrency]
			if had != has || before != after {
				t.Errorf("source snapshot was mutated")
			}
		})
	}
}

func TestSnapshot_Clone(t *testing.T) {
	t.Parallel()

	s := Snapshot{Date: FirstDate, Rates: map[string]float64{"USD": 1.1789}}
	c := s.Clone()
	c.Rates["USD"] = 2

	if s.Rates["USD"] != 1.1789 {
		t.Errorf("clone shares the rates map")
	}
}

func TestSnapshot_Validate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		snapshot Snapshot
		errCount int
	}{
		{
			name:     "valid",
			snapshot: Snapshot{Date: FirstDate, Rates: map[string]float64{"USD": 1.1789, "JPY": 133.73}},
		},
		{
			name:     "zero_date",
			snapshot: Snapshot{Rates: map[string]float64{"USD": 1.1789}},
			errCount: 1,
		},
		{
			name: "bad_codes_and_rates",
			snapshot: Snapshot{Date: FirstDate, Rates: map[string]float64{
				"usd":  1.1789,
				"JPY":  -1,
				"GBP":  math.NaN(),
				"CHFX": 1.6,
			}},
			errCount: 4,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.snapshot.Validate()
			if tc.errCount == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, ErrInvalidSnapshot) {
				t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
			}

			var merr interface{ WrappedErrors() []error }
			if !errors.As(err, &merr) {
				t.Fatalf("expected a multierror, got %T", err)
			}

			if diff := cmp.Diff(tc.errCount, len(merr.WrappedErrors())); diff != "" {
				t.Errorf("error count mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestSnapshot_Rebase(t *testing.T) {
	t.Parallel()

	s := Snapshot{Date: FirstDate, Rates: map[string]float64{"EUR": 1, "USD": 2, "JPY": 100}}

	testCases := []struct {
		name     string
		base     string
		symbols  []string
		expected map[string]float64
		err      error
	}{
		{
			name:     "default_base",
			expected: map[string]float64{"EUR": 1, "USD": 2, "JPY": 100},
		},
		{
			name:     "usd_base",
			base:     "USD",
			expected: map[string]float64{"EUR": 0.5, "USD": 1, "JPY": 50},
		},
		{
			name:     "symbols",
			base:     "USD",
			symbols:  []string{"JPY"},
			expected: map[string]float64{"JPY": 50},
		},
		{
			name: "unknown_base",
			base: "XXX",
			err:  ErrInvalidBase,
		},
		{
			name:    "unknown_symbol",
			symbols: []string{"USD", "XXX"},
			err:     ErrInvalidSymbol,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := s.Rebase(tc.base, tc.symbols)
			if diff := cmp.Diff(tc.err, err, cmpopts.EquateErrors()); diff != "" {
				t.Fatalf("error mismatch (-want, +got):\n%s", diff)
			}

			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestSortByDate(t *testing.T) {
	t.Parallel()

	list := []Snapshot{
		{Date: MustParseDate("2021-06-18"), Rates: map[string]float64{"USD": 3}},
		{Date: MustParseDate("2021-06-16"), Rates: map[string]float64{"USD": 1}},
		{Date: MustParseDate("2021-06-17"), Rates: map[string]float64{"USD": 2}},
		{Date: MustParseDate("2021-06-16"), Rates: map[string]float64{"USD": 1.5}},
	}

	got := SortByDate(list)
	expected := []Snapshot{
		{Date: MustParseDate("2021-06-16"), Rates: map[string]float64{"USD": 1.5}},
		{Date: MustParseDate("2021-06-17"), Rates: map[string]float64{"USD": 2}},
		{Date: MustParseDate("2021-06-18"), Rates: map[string]float64{"USD": 3}},
	}

	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}
