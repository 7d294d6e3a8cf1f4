// Package api holds the JSON handlers of the /api/v1 surface.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/newthinker/chartdesk/internal/api/response"
	"github.com/newthinker/chartdesk/internal/app"
	"github.com/newthinker/chartdesk/internal/chart"
	"github.com/newthinker/chartdesk/internal/commentary"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/instrument"
	"github.com/newthinker/chartdesk/internal/market"
)

// recentSignals caps the "recent" event list of the analysis endpoint.
const recentSignals = 5

// Desk is the subset of app.App the instrument handlers use.
type Desk interface {
	Search(class core.AssetClass, query string) []string
	Analyze(ctx context.Context, symbol string) (*app.Snapshot, error)
	Chart(snap *app.Snapshot) chart.Figure
	Positioning(symbol string) instrument.Positioning
	Commentary(ctx context.Context, snap *app.Snapshot) (*commentary.Commentary, error)
	Gainers(ctx context.Context, class core.AssetClass) []market.Gainer
}

// InstrumentsHandler serves search, analysis and chart requests.
type InstrumentsHandler struct {
	desk Desk
}

// NewInstrumentsHandler creates a new instruments handler.
func NewInstrumentsHandler(desk Desk) *InstrumentsHandler {
	return &InstrumentsHandler{desk: desk}
}

func errUnknownClass(s string) error {
	return fmt.Errorf("unknown asset class %q", s)
}

func errUnknownKind(s string) error {
	return fmt.Errorf("unknown signal kind %q", s)
}

// classParam reads ?class=, defaulting to crypto.
func classParam(r *http.Request) (core.AssetClass, error) {
	raw := r.URL.Query().Get("class")
	if raw == "" {
		return core.AssetCrypto, nil
	}
	class, ok := core.ParseAssetClass(raw)
	if !ok {
		return "", core.WrapError(core.ErrInvalidInput, errUnknownClass(raw))
	}
	return class, nil
}

func symbolParam(r *http.Request) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(r.PathValue("symbol")))
	if symbol == "" {
		return "", core.WrapError(core.ErrInvalidInput, fmt.Errorf("symbol is required"))
	}
	return symbol, nil
}

// List handles GET /api/v1/instruments?class=&q=
func (h *InstrumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	class, err := classParam(r)
	if err != nil {
		response.Fail(w, err)
		return
	}
	query := r.URL.Query().Get("q")

	symbols := h.desk.Search(class, query)
	if symbols == nil {
		symbols = []string{}
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"class":   class,
		"label":   class.Label(),
		"query":   query,
		"symbols": symbols,
	})
}

// Analysis handles GET /api/v1/instruments/{symbol}/analysis
func (h *InstrumentsHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.analyze(w, r)
	if !ok {
		return
	}
	view := *snap
	view.Result = snap.Result.Finite()
	response.JSON(w, http.StatusOK, map[string]any{
		"snapshot": &view,
		"bars":     view.Bars(),
		"latest":   view.Result.LatestSignals(view.Bars()),
		"recent":   view.Result.RecentSignals(recentSignals),
	})
}

// Chart handles GET /api/v1/instruments/{symbol}/chart. With
// ?format=html it returns a standalone Plotly page instead of JSON.
func (h *InstrumentsHandler) Chart(w http.ResponseWriter, r *http.Request) {
	html := r.URL.Query().Get("format") == "html"

	snap, err := h.snapshot(r)
	if err != nil {
		if html {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(response.StatusFor(err))
			chart.WriteHTML(w, chart.ErrorFigure(err))
			return
		}
		response.Fail(w, err)
		return
	}

	fig := h.desk.Chart(snap)
	if html {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := chart.WriteHTML(w, fig); err != nil {
			response.Error(w, http.StatusInternalServerError, core.WrapError(core.ErrRenderFailed, err))
		}
		return
	}
	response.JSON(w, http.StatusOK, fig)
}

// Positioning handles GET /api/v1/instruments/{symbol}/positioning
func (h *InstrumentsHandler) Positioning(w http.ResponseWriter, r *http.Request) {
	symbol, err := symbolParam(r)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, h.desk.Positioning(symbol))
}

// Commentary handles GET /api/v1/instruments/{symbol}/commentary
func (h *InstrumentsHandler) Commentary(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.analyze(w, r)
	if !ok {
		return
	}
	c, err := h.desk.Commentary(r.Context(), snap)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

// Gainers handles GET /api/v1/gainers?class=
func (h *InstrumentsHandler) Gainers(w http.ResponseWriter, r *http.Request) {
	class, err := classParam(r)
	if err != nil {
		response.Fail(w, err)
		return
	}
	gainers := h.desk.Gainers(r.Context(), class)
	if gainers == nil {
		gainers = []market.Gainer{}
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"class":   class,
		"gainers": gainers,
	})
}

func (h *InstrumentsHandler) snapshot(r *http.Request) (*app.Snapshot, error) {
	symbol, err := symbolParam(r)
	if err != nil {
		return nil, err
	}
	return h.desk.Analyze(r.Context(), symbol)
}

func (h *InstrumentsHandler) analyze(w http.ResponseWriter, r *http.Request) (*app.Snapshot, bool) {
	snap, err := h.snapshot(r)
	if err != nil {
		response.Fail(w, err)
		return nil, false
	}
	return snap, true
}
