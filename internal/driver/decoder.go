package driver

import (
	"moth/internal/engine"
)

// Decoder переводит уведомления драйвера в нормализованные события реестра.
// Без состояния между вызовами.
type Decoder struct {
	radio Radio
	floor int // тот же порог чувствительности, что у классификатора кадров
}

func NewDecoder(radio Radio, floor int) *Decoder {
	return &Decoder{radio: radio, floor: floor}
}

// Decode нормализует уведомление; ok=false — событие отброшено по политике.
func (d *Decoder) Decode(ev StationEvent) (engine.Event, bool) {
	switch ev.Kind {
	case StationJoined:
		// уровень сигнала добываем линейным проходом по живому списку;
		// нет в списке — сигнальный минимум, а не ошибка
		rssi := engine.RSSIUnknown
		for _, st := range d.radio.Stations() {
			if st.MAC == ev.MAC {
				rssi = st.RSSI
				break
			}
		}
		return engine.Event{MAC: ev.MAC, RSSI: rssi, Kind: engine.KindConnect}, true
	case StationLeft:
		// отключившейся станции в живом списке уже нет — уровень не ищем
		return engine.Event{MAC: ev.MAC, RSSI: engine.RSSIUnknown, Kind: engine.KindDisconnect}, true
	case StationProbe:
		if ev.RSSI < d.floor {
			return engine.Event{}, false
		}
		return engine.Event{MAC: ev.MAC, RSSI: ev.RSSI, Kind: engine.KindProbe}, true
	}
	return engine.Event{}, false
}
