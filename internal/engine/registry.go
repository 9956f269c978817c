package engine

import (
	"net"
	"sort"
	"sync"
	"time"
)

// DeviceRecord — состояние одного наблюдаемого устройства.
type DeviceRecord struct {
	MAC         MAC
	AssignedIP  net.IP // nil = не назначен; выдаётся не более одного раза за ассоциацию
	RSSI        int
	FirstSeenAt time.Time
	LastSeenAt  time.Time
	EventCount  uint64
	Associated  bool
	// Status — последний отчётный статус (NEW|PROBING|CONNECTED|DISCONNECTED).
	// Отключившиеся устройства не считаются «рядом»: NEARBY охватывает
	// только NEW и PROBING.
	Status string
}

// Stats — агрегаты для строки [STATS] и HTTP-API.
type Stats struct {
	Connected     int    `json:"connected"`
	Nearby        int    `json:"nearby"`
	TotalProbes   uint64 `json:"total_probes"`
	TotalConnects uint64 `json:"total_connects"`
	TotalDevices  uint64 `json:"total_devices"`
	Evicted       uint64 `json:"evicted"`
}

// Registry — реестр наблюдаемых устройств; единственная точка мутации.
// Безопасен для конкурентного вызова из колбэков драйвера и из цикла
// планировщика: карта и счётчики закрыты мьютексом, причём мьютекс
// никогда не удерживается на время записи строки в sink.
type Registry struct {
	mu      sync.Mutex
	devices map[MAC]*DeviceRecord

	maxDevices int

	totalDevices  uint64
	totalConnects uint64
	totalProbes   uint64
	evicted       uint64

	sink Sink
	now  func() time.Time // подменяется в тестах
}

func NewRegistry(maxDevices int, sink Sink) *Registry {
	return &Registry{
		devices:    make(map[MAC]*DeviceRecord),
		maxDevices: maxDevices,
		sink:       sink,
		now:        time.Now,
	}
}

// Record применяет событие и синхронно пишет порождённую им строку отчёта.
func (r *Registry) Record(ev Event) {
	r.mu.Lock()
	line := r.apply(ev)
	r.mu.Unlock()
	if line != "" && r.sink != nil {
		r.sink.WriteLine(line)
	}
}

// apply выполняет переход состояния под мьютексом и возвращает строку
// отчёта ("" — переход молчаливый).
func (r *Registry) apply(ev Event) string {
	now := r.now()

	rec, ok := r.devices[ev.MAC]
	if !ok {
		// refresh — не событие наблюдения, новых записей не порождает
		if ev.Kind == KindRefresh {
			return ""
		}
		r.evictIfFull()
		rec = &DeviceRecord{
			MAC:         ev.MAC,
			RSSI:        ev.RSSI,
			FirstSeenAt: now,
			LastSeenAt:  now,
			EventCount:  1,
			Associated:  ev.Kind == KindConnect,
		}
		r.devices[ev.MAC] = rec
		r.totalDevices++
		switch ev.Kind {
		case KindConnect:
			r.totalConnects++
			if ev.AssignedIP != nil {
				rec.AssignedIP = ev.AssignedIP
			}
			rec.Status = StatusConnected
		case KindDisconnect:
			// отключение всегда достойно строки, даже для незнакомого адреса
			rec.Status = StatusDisconnected
		default:
			r.totalProbes++
			rec.Status = StatusNew
		}
		ip := net.IP(nil)
		if rec.Associated {
			ip = rec.AssignedIP
		}
		return deviceLine(rec.MAC, rec.RSSI, rec.Status, ip)
	}

	rec.RSSI = ev.RSSI
	rec.LastSeenAt = now
	rec.EventCount++

	switch ev.Kind {
	case KindConnect:
		if rec.Associated {
			// повторный connect поглощается молча
			return ""
		}
		rec.Associated = true
		if rec.AssignedIP == nil && ev.AssignedIP != nil {
			rec.AssignedIP = ev.AssignedIP
		}
		rec.Status = StatusConnected
		r.totalConnects++
		return deviceLine(rec.MAC, rec.RSSI, StatusConnected, rec.AssignedIP)
	case KindDisconnect:
		rec.Associated = false
		rec.Status = StatusDisconnected
		return deviceLine(rec.MAC, rec.RSSI, StatusDisconnected, nil)
	case KindProbe:
		rec.Status = StatusProbing
		r.totalProbes++
		return deviceLine(rec.MAC, rec.RSSI, StatusProbing, nil)
	case KindRefresh:
		if rec.Associated && rec.AssignedIP == nil && ev.AssignedIP != nil {
			rec.AssignedIP = ev.AssignedIP
		}
		return ""
	}
	return ""
}

// evictIfFull освобождает место под новую запись: выбрасывается самая
// давняя по LastSeenAt неассоциированная. Если все ассоциированы — лимит
// превышается (их число и так ограничено max_clients точки доступа).
func (r *Registry) evictIfFull() {
	if len(r.devices) < r.maxDevices {
		return
	}
	var victim *DeviceRecord
	for _, d := range r.devices {
		if d.Associated {
			continue
		}
		if victim == nil || d.LastSeenAt.Before(victim.LastSeenAt) {
			victim = d
		}
	}
	if victim != nil {
		delete(r.devices, victim.MAC)
		r.evicted++
	}
}

// Assign фиксирует приближённый адрес за ассоциированным устройством,
// не более одного раза за время ассоциации. Строку не порождает.
func (r *Registry) Assign(mac MAC, ip net.IP) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.devices[mac]
	if !ok || !rec.Associated || rec.AssignedIP != nil {
		return false
	}
	rec.AssignedIP = ip
	return true
}

// Snapshot возвращает глубокие копии записей, отсортированные по адресу.
func (r *Registry) Snapshot() []DeviceRecord {
	r.mu.Lock()
	out := make([]DeviceRecord, 0, len(r.devices))
	for _, d := range r.devices {
		c := *d
		if d.AssignedIP != nil {
			c.AssignedIP = append(net.IP(nil), d.AssignedIP...)
		}
		out = append(out, c)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].MAC.String() < out[j].MAC.String() })
	return out
}

func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Stats{
		TotalProbes:   r.totalProbes,
		TotalConnects: r.totalConnects,
		TotalDevices:  r.totalDevices,
		Evicted:       r.evicted,
	}
	for _, d := range r.devices {
		switch {
		case d.Associated:
			s.Connected++
		case d.Status != StatusDisconnected:
			// отключившиеся в «рядом» не входят; probe ассоциацию не трогает
			s.Nearby++
		}
	}
	return s
}

// EmitStats пишет агрегатную строку [STATS]; реестр не мутирует.
func (r *Registry) EmitStats() {
	s := r.Stats()
	if r.sink != nil {
		r.sink.WriteLine(statsLine(s))
	}
}
