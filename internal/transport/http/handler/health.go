package handler

import (
	"net/http"
)

type liveCounter interface {
	Len() int
}

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	live liveCounter
}

func NewHealthHandler(live liveCounter) *HealthHandler { return &HealthHandler{live: live} }

func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthEnvelope{Status: "ok"}
	if h.live != nil {
		resp.LiveSubscribers = h.live.Len()
	}
	writeJSON(w, http.StatusOK, resp)
}
