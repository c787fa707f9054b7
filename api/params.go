package api

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/robotomize/fxcache/snapshot"
)

var (
	errPastDate              = errors.New("there is no data for dates before 1999-01-04")
	errInvalidDateFormat     = errors.New("date must be in the format YYYY-MM-DD")
	errMissingDateBoundaries = errors.New("both start_at and end_at parameters must be present")
	errInvalidDateRange      = errors.New("start_at must be older than end_at")
)

// params are the query parameters shared by every rates endpoint
type params struct {
	base    string
	symbols []string
}

func parseParams(q url.Values) params {
	p := params{base: strings.ToUpper(strings.TrimSpace(q.Get("base")))}
	if p.base == "" {
		p.base = snapshot.ReferenceCurrency
	}

	for _, sym := range strings.Split(q.Get("symbols"), ",") {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym != "" {
			p.symbols = append(p.symbols, sym)
		}
	}

	return p
}

// parseDay parses an ISO date named name and rejects dates before the first publication
func parseDay(name, raw string) (snapshot.Date, error) {
	d, err := snapshot.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return snapshot.Date{}, fmt.Errorf("%s: %s is in an invalid date format, %w", name, raw, errInvalidDateFormat)
	}

	if d.Before(snapshot.FirstDate) {
		return snapshot.Date{}, fmt.Errorf("%s is invalid, %w", name, errPastDate)
	}

	return d, nil
}

func parseBoundaries(q url.Values) (snapshot.Date, snapshot.Date, error) {
	rawStart, rawEnd := q.Get("start_at"), q.Get("end_at")
	if rawStart == "" || rawEnd == "" {
		return snapshot.Date{}, snapshot.Date{}, errMissingDateBoundaries
	}

	start, err := parseDay("start_at", rawStart)
	if err != nil {
		return snapshot.Date{}, snapshot.Date{}, err
	}

	end, err := snapshot.ParseDate(strings.TrimSpace(rawEnd))
	if err != nil {
		return snapshot.Date{}, snapshot.Date{}, fmt.Errorf("end_at: %s is in an invalid date format, %w", rawEnd,
			errInvalidDateFormat)
	}

	if end.Before(start) {
		return snapshot.Date{}, snapshot.Date{}, errInvalidDateRange
	}

	return start, end, nil
}

// rebase validates base and symbols against ref and applies them to every day. Days that did not
// publish the base are left out, symbols a day did not publish are left out of that day
func rebase(days []snapshot.Snapshot, ref snapshot.Snapshot, p params) (map[string]map[string]float64, error) {
	if _, err := ref.Rebase(p.base, p.symbols); err != nil {
		return nil, err
	}

	out := make(map[string]map[string]float64, len(days))
	for _, day := range days {
		symbols := make([]string, 0, len(p.symbols))
		for _, sym := range p.symbols {
			if _, ok := day.Rates[sym]; ok {
				symbols = append(symbols, sym)
			}
		}

		if len(p.symbols) > 0 && len(symbols) == 0 {
			continue
		}

		rates, err := day.Rebase(p.base, symbols)
		if err != nil {
			continue
		}

		out[day.Date.String()] = rates
	}

	return out, nil
}
