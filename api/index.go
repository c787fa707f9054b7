package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"sort"

	"github.com/robotomize/fxcache/snapshot"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/index.html
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

// leading codes shown at the top of the index page, in this order
var leadingCodes = map[string]int{
	snapshot.ReferenceCurrency: 0,
	"USD":                      1,
	"GBP":                      2,
}

type indexRate struct {
	Code string
	Rate string
}

type indexPage struct {
	Date  string
	Rates []indexRate
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	current, err := h.svc.Current(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, newIndexPage(current)); err != nil {
		h.internalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func newIndexPage(snap snapshot.Snapshot) indexPage {
	p := message.NewPrinter(language.English)

	codes := orderCodes(snap.Codes())
	page := indexPage{Date: snap.Date.String(), Rates: make([]indexRate, 0, len(codes))}
	for _, code := range codes {
		rate := number.Decimal(snap.Rates[code], number.MinFractionDigits(4), number.MaxFractionDigits(4))
		page.Rates = append(page.Rates, indexRate{Code: code, Rate: p.Sprint(rate)})
	}

	return page
}

// orderCodes puts EUR, USD and GBP first and keeps the rest alphabetical
func orderCodes(codes []string) []string {
	out := make([]string, len(codes))
	copy(out, codes)

	sort.SliceStable(out, func(i, j int) bool {
		pi, iok := leadingCodes[out[i]]
		pj, jok := leadingCodes[out[j]]

		switch {
		case iok && jok:
			return pi < pj
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})

	return out
}
