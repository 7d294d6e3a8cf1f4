package web

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/chartdesk/internal/chart"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/instrument"
	"github.com/newthinker/chartdesk/internal/market"
	"github.com/newthinker/chartdesk/internal/session"
)

var timeSince = time.Since

// TabView is one asset class tab.
type TabView struct {
	Class  core.AssetClass
	Label  string
	Active bool
}

// DashboardData holds data for the dashboard template
type DashboardData struct {
	Title          string
	Tabs           []TabView
	Active         core.AssetClass
	ActiveLabel    string
	Symbol         string
	Name           string
	Position       int
	Total          int
	ChangeColor    string
	Headline       []instrument.Field
	Details        []instrument.Field
	Positioning    instrument.Positioning
	Gainers        []market.Gainer
	SearchQuery    string
	SearchResults  []string
	Notice         string
	Error          string
	Figure         template.JS
	PlotlyScript   string
	UpdatedAt      string
	RefreshSeconds int
	Commentary     bool
}

// Dashboard renders the dashboard page for the caller's session,
// loading the current instrument when the session has no data for it.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	st := h.session(w, r)
	class := st.Active()

	var loadErr error
	tab, _ := st.Tab(class)
	if !st.Fresh() || h.stale(tab) {
		if _, err := h.backend.LoadSession(r.Context(), st); err != nil {
			h.logger.Warn("dashboard load failed",
				zap.String("session", st.ID),
				zap.String("symbol", st.Current()),
				zap.Error(err),
			)
			loadErr = err
		}
		tab, _ = st.Tab(class)
	}

	data := h.dashboardData(st, class, tab)
	if notice := r.URL.Query().Get("miss"); notice != "" {
		data.Notice = "No symbols match \"" + notice + "\""
	}
	if loadErr != nil {
		data.Error = loadErr.Error()
	}

	fig := h.figure(st, class, tab, loadErr)
	raw, err := json.Marshal(fig)
	if err != nil {
		raw, _ = json.Marshal(chart.ErrorFigure(core.WrapError(core.ErrRenderFailed, err)))
	}
	data.Figure = template.JS(raw)

	h.render(w, "dashboard.html", data)
}

// Action applies one navigation step and redirects back to the
// dashboard.
func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	st := h.session(w, r)
	target := "/"

	switch r.FormValue("action") {
	case "tab":
		class, ok := core.ParseAssetClass(r.FormValue("class"))
		if !ok {
			http.Error(w, "unknown asset class", http.StatusBadRequest)
			return
		}
		st.SelectTab(class)
	case "next":
		st.Next()
	case "prev":
		st.Prev()
	case "search":
		q := strings.TrimSpace(r.FormValue("q"))
		if q == "" {
			st.ClearSearch()
		} else if st.Search(q) == 0 {
			target = "/?miss=" + url.QueryEscape(q)
		}
	case "clear":
		st.ClearSearch()
	case "select":
		if err := st.Select(strings.ToUpper(r.FormValue("symbol"))); err != nil {
			target = "/?miss=" + url.QueryEscape(r.FormValue("symbol"))
		}
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}

// session returns the caller's session, starting one and setting the
// cookie when the request carries none or an expired one.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *session.State {
	var id string
	if c, err := r.Cookie(h.cookieName); err == nil {
		id = c.Value
	}

	st, created := h.backend.Sessions().GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookieName,
			Value:    st.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return st
}

func (h *Handler) stale(tab session.TabState) bool {
	interval := h.backend.RefreshInterval()
	return interval > 0 && !tab.UpdatedAt.IsZero() && timeSince(tab.UpdatedAt) > 2*interval
}

func (h *Handler) dashboardData(st *session.State, class core.AssetClass, tab session.TabState) DashboardData {
	symbol := st.CurrentFor(class)
	total := len(tab.SearchResults)
	if total == 0 {
		total = len(h.backend.Universe().Symbols(class))
	}

	data := DashboardData{
		Title:          "Dashboard",
		Active:         class,
		ActiveLabel:    class.Label(),
		Symbol:         symbol,
		Name:           symbol,
		Position:       tab.Index + 1,
		Total:          total,
		ChangeColor:    instrument.ColorFromChange(instrument.Unavailable[float64]()),
		Positioning:    instrument.PositioningFor(symbol),
		Gainers:        tab.Gainers,
		SearchQuery:    tab.SearchQuery,
		SearchResults:  tab.SearchResults,
		PlotlyScript:   chart.PlotlyCDN,
		RefreshSeconds: int(h.backend.RefreshInterval().Seconds()),
		Commentary:     h.backend.HasCommentary(),
	}
	for _, c := range core.AssetClasses {
		data.Tabs = append(data.Tabs, TabView{Class: c, Label: c.Label(), Active: c == class})
	}

	if tab.Symbol == symbol {
		data.Name = tab.Info.DisplayName()
		data.ChangeColor = tab.Info.ChangeColor()
		data.Headline = tab.Info.HeadlineFields()
		data.Details = tab.Info.DetailFields()
		if !tab.UpdatedAt.IsZero() {
			data.UpdatedAt = tab.UpdatedAt.UTC().Format("2006-01-02 15:04:05 UTC")
		}
	}
	return data
}

func (h *Handler) figure(st *session.State, class core.AssetClass, tab session.TabState, loadErr error) chart.Figure {
	symbol := st.CurrentFor(class)
	if tab.Symbol != symbol || len(tab.Series) == 0 {
		if loadErr == nil {
			loadErr = core.ErrNoData
		}
		return chart.ErrorFigure(loadErr)
	}
	return h.backend.Composer().Render(tab.Series, symbol, tab.Info)
}
