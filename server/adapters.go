package server

import (
	"moth/internal/driver"
	"moth/internal/engine"
	"moth/internal/frames"
)

// sensorHandler направляет колбэки радиоподсистемы в единственную точку
// мутации реестра: сырые кадры — через классификатор, уведомления о
// станциях — через декодер. Оба пути probe-событий легитимны и нарочно
// не дедуплицируются.
type sensorHandler struct {
	reg *engine.Registry
	cls *frames.Classifier
	dec *driver.Decoder
}

func newSensorHandler(reg *engine.Registry, cls *frames.Classifier, dec *driver.Decoder) *sensorHandler {
	return &sensorHandler{reg: reg, cls: cls, dec: dec}
}

func (h *sensorHandler) OnStationEvent(ev driver.StationEvent) {
	if e, ok := h.dec.Decode(ev); ok {
		h.reg.Record(e)
	}
}

func (h *sensorHandler) OnFrame(f frames.RawFrame) {
	if e, ok := h.cls.Classify(f); ok {
		h.reg.Record(e)
	}
}
