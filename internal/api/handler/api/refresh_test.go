package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeRefresher struct {
	accept bool
	calls  int
}

func (f *fakeRefresher) Refresh() bool {
	f.calls++
	return f.accept
}

func TestRefreshHandler_Trigger(t *testing.T) {
	for _, accept := range []bool{true, false} {
		r := &fakeRefresher{accept: accept}
		handler := NewRefreshHandler(r)

		req := httptest.NewRequest("POST", "/api/v1/refresh", nil)
		w := httptest.NewRecorder()
		handler.Trigger(w, req)

		if w.Code != http.StatusAccepted {
			t.Errorf("expected 202, got %d", w.Code)
		}
		if r.calls != 1 {
			t.Errorf("expected one refresh call, got %d", r.calls)
		}
		if data := decode(t, w); data["accepted"] != accept {
			t.Errorf("expected accepted=%v, got %v", accept, data["accepted"])
		}
	}
}
