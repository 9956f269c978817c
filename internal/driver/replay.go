package driver

import (
	"context"
	"net"
	"sync"
	"time"

	"moth/internal/engine"
	"moth/internal/frames"
)

// Step — один шаг сценария: пауза, затем уведомление или сырой кадр.
type Step struct {
	Delay time.Duration
	Event *StationEvent
	Frame *frames.RawFrame
}

// Replay — сценарная радиоподсистема: проигрывает записанный сценарий
// в колбэки обработчика. Используется, когда реальный радиобэкенд не
// настроен, и в тестах.
type Replay struct {
	gw    net.IP
	steps []Step
	loop  bool

	mu       sync.Mutex
	profile  APProfile
	stations map[engine.MAC]int
}

func NewReplay(gw net.IP, steps []Step, loop bool) *Replay {
	return &Replay{gw: gw, steps: steps, loop: loop, stations: make(map[engine.MAC]int)}
}

func (r *Replay) Configure(p APProfile) error {
	r.mu.Lock()
	r.profile = p
	r.mu.Unlock()
	return nil
}

func (r *Replay) Gateway() net.IP { return r.gw }

func (r *Replay) Stations() []Station {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Station, 0, len(r.stations))
	for mac, rssi := range r.stations {
		out = append(out, Station{MAC: mac, RSSI: rssi})
	}
	return out
}

// Run проигрывает сценарий; живой список обновляется до доставки
// уведомления, как делает настоящий драйвер.
func (r *Replay) Run(ctx context.Context, h Handler) error {
	for {
		for _, st := range r.steps {
			if st.Delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(st.Delay):
				}
			} else if ctx.Err() != nil {
				return ctx.Err()
			}
			if st.Event != nil {
				if r.track(*st.Event) {
					h.OnStationEvent(*st.Event)
				}
			}
			if st.Frame != nil {
				h.OnFrame(*st.Frame)
			}
		}
		if !r.loop {
			return nil
		}
	}
}

// track обновляет живой список; false — ассоциация сверх лимита клиентов,
// уведомление не доставляется (так же молчит и настоящая точка доступа).
func (r *Replay) track(ev StationEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch ev.Kind {
	case StationJoined:
		if r.profile.MaxClients > 0 && len(r.stations) >= r.profile.MaxClients {
			if _, known := r.stations[ev.MAC]; !known {
				return false
			}
		}
		r.stations[ev.MAC] = ev.RSSI
	case StationLeft:
		delete(r.stations, ev.MAC)
	}
	return true
}

// DemoScript — небольшой зацикленный сценарий «прохожих» для запуска без
// железа: пара зондирующих станций и один подключающийся клиент.
func DemoScript() []Step {
	probe := func(mac engine.MAC, rssi int) *frames.RawFrame {
		data := make([]byte, 24)
		data[0] = 0x40 // management / probe request
		copy(data[10:16], mac[:])
		return &frames.RawFrame{Type: frames.TypeManagement, RSSI: rssi, Data: data}
	}
	m1 := engine.MAC{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01}
	m2 := engine.MAC{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x02}
	m3 := engine.MAC{0xCA, 0xFE, 0xBA, 0xBE, 0x00, 0x03}
	return []Step{
		{Delay: 2 * time.Second, Frame: probe(m1, -52)},
		{Delay: time.Second, Event: &StationEvent{Kind: StationProbe, MAC: m2, RSSI: -71}},
		{Delay: 3 * time.Second, Event: &StationEvent{Kind: StationJoined, MAC: m3, RSSI: -44}},
		{Delay: 2 * time.Second, Frame: probe(m1, -58)},
		{Delay: 5 * time.Second, Event: &StationEvent{Kind: StationLeft, MAC: m3}},
		{Delay: 4 * time.Second},
	}
}
