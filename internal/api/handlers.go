package api

import (
	"net/http"

	"moth/internal/engine"
	"moth/internal/models"
)

// Handler — HTTP-срез реестра, только чтение.
type Handler struct {
	reg *engine.Registry
}

func New(reg *engine.Registry) *Handler { return &Handler{reg: reg} }

// GET /api/v1/devices
func (h *Handler) Devices(w http.ResponseWriter, _ *http.Request) {
	snap := h.reg.Snapshot()
	out := make([]models.DeviceView, 0, len(snap))
	for _, rec := range snap {
		out = append(out, models.NewDeviceView(rec))
	}
	models.WriteJSON(w, http.StatusOK, out)
}

// GET /api/v1/stats
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	models.WriteJSON(w, http.StatusOK, h.reg.Stats())
}
