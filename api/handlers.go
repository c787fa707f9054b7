package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robotomize/fxcache/snapshot"
)

type dayResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

type historyResponse struct {
	Base    string                        `json:"base"`
	StartAt string                        `json:"start_at"`
	EndAt   string                        `json:"end_at"`
	Rates   map[string]map[string]float64 `json:"rates"`
}

type errorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (h *handler) latestHead(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, r, http.StatusOK, nil)
}

func (h *handler) latest(w http.ResponseWriter, r *http.Request) {
	current, err := h.svc.Current(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	h.respondDay(w, r, current)
}

func (h *handler) day(w http.ResponseWriter, r *http.Request) {
	d, err := parseDay("date", chi.URLParam(r, "date"))
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	snap, ok, err := h.svc.Day(r.Context(), d)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	if !ok {
		respondWithError(w, r, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}

	h.respondDay(w, r, snap)
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, end, err := parseBoundaries(q)
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	p := parseParams(q)

	list, err := h.svc.Range(r.Context(), start, end)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	resp := historyResponse{
		Base:    p.base,
		StartAt: start.String(),
		EndAt:   end.String(),
		Rates:   map[string]map[string]float64{},
	}

	if len(list) > 0 {
		rates, err := rebase(list, list[len(list)-1], p)
		if err != nil {
			respondWithError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		resp.Rates = rates
	}

	respondWithJSON(w, r, http.StatusOK, resp)
}

func (h *handler) respondDay(w http.ResponseWriter, r *http.Request, snap snapshot.Snapshot) {
	p := parseParams(r.URL.Query())

	rates, err := snap.Rebase(p.base, p.symbols)
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, r, http.StatusOK, dayResponse{Base: p.base, Date: snap.Date.String(), Rates: rates})
}

func (h *handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed",
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)

	respondWithError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func respondWithJSON(w http.ResponseWriter, r *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if data == nil || r.Method == http.MethodHead {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	respondWithJSON(w, r, code, errorResponse{Code: code, Msg: msg})
}
