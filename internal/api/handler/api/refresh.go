package api

import (
	"net/http"

	"github.com/newthinker/chartdesk/internal/api/response"
)

// Refresher triggers an out-of-cycle refresh.
type Refresher interface {
	Refresh() bool
}

// RefreshHandler handles manual refresh requests.
type RefreshHandler struct {
	app Refresher
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(app Refresher) *RefreshHandler {
	return &RefreshHandler{app: app}
}

// Trigger queues a refresh. A refresh already in flight absorbs the
// request, which is reported as not accepted.
func (h *RefreshHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	accepted := h.app.Refresh()
	response.JSON(w, http.StatusAccepted, map[string]any{
		"accepted": accepted,
	})
}
