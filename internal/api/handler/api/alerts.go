package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/newthinker/chartdesk/internal/api/response"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/indicator"
	"github.com/newthinker/chartdesk/internal/storage/signal"
)

// defaultAlertLimit applies when the request names no limit.
const defaultAlertLimit = 50

// AlertsHandler serves the history of routed signal alerts.
type AlertsHandler struct {
	store signal.Store
}

// NewAlertsHandler creates a new alerts handler.
func NewAlertsHandler(store signal.Store) *AlertsHandler {
	return &AlertsHandler{store: store}
}

// List returns alerts matching query parameters.
func (h *AlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := signal.ListFilter{
		Symbol: q.Get("symbol"),
		Limit:  defaultAlertLimit,
	}

	if class := q.Get("class"); class != "" {
		c, ok := core.ParseAssetClass(class)
		if !ok {
			response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrInvalidInput, errUnknownClass(class)))
			return
		}
		filter.Class = c
	}

	switch kind := indicator.SignalKind(q.Get("kind")); kind {
	case "":
	case indicator.Buy, indicator.Sell:
		filter.Kind = kind
	default:
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrInvalidInput, errUnknownKind(string(kind))))
		return
	}

	if from := q.Get("from"); from != "" {
		if t, ok := parseTime(from); ok {
			filter.From = t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, ok := parseTime(to); ok {
			filter.To = t
		}
	}

	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			filter.Limit = n
		}
	}
	if offset := q.Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			filter.Offset = n
		}
	}

	alerts, err := h.store.List(r.Context(), filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	count, _ := h.store.Count(r.Context(), filter)

	response.JSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"total":  count,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetByID returns a single alert.
func (h *AlertsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	alert, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	response.JSON(w, http.StatusOK, alert)
}

func parseTime(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
