package engine

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *captureSink) WriteLine(line string) {
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()
}

func (s *captureSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func newTestRegistry(maxDevices int) (*Registry, *captureSink, *time.Time) {
	sink := &captureSink{}
	reg := NewRegistry(maxDevices, sink)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }
	return reg, sink, &now
}

func mac(last byte) MAC { return MAC{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, last} }

func TestConnectOnUnknownAddress(t *testing.T) {
	reg, sink, _ := newTestRegistry(16)

	reg.Record(Event{MAC: mac(0x01), RSSI: -40, Kind: KindConnect})

	s := reg.Stats()
	assert.Equal(t, uint64(1), s.TotalDevices)
	assert.Equal(t, uint64(1), s.TotalConnects)
	assert.Equal(t, 1, s.Connected)
	assert.Equal(t, 0, s.Nearby)

	lines := sink.all()
	require.Len(t, lines, 1)
	assert.Equal(t, "[DEVICE] MAC:AA:BB:CC:DD:EE:01 | RSSI:-40 | STATUS:CONNECTED | IP:", lines[0])
}

func TestRepeatedConnectAbsorbedSilently(t *testing.T) {
	reg, sink, _ := newTestRegistry(16)

	reg.Record(Event{MAC: mac(0x01), RSSI: -40, Kind: KindConnect})
	reg.Record(Event{MAC: mac(0x01), RSSI: -42, Kind: KindConnect})

	s := reg.Stats()
	assert.Equal(t, uint64(1), s.TotalConnects, "re-association must not re-count")
	assert.Len(t, sink.all(), 1, "re-association must not produce a line")

	snap := reg.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, -42, snap[0].RSSI, "RSSI still refreshed")
	assert.Equal(t, uint64(2), snap[0].EventCount)
}

func TestDisconnectAlwaysReported(t *testing.T) {
	reg, sink, _ := newTestRegistry(16)

	reg.Record(Event{MAC: mac(0x01), RSSI: -40, Kind: KindConnect})
	reg.Record(Event{MAC: mac(0x01), RSSI: RSSIUnknown, Kind: KindDisconnect})
	// повторное отключение тоже событие
	reg.Record(Event{MAC: mac(0x01), RSSI: RSSIUnknown, Kind: KindDisconnect})

	lines := sink.all()
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "STATUS:DISCONNECTED")
	assert.Contains(t, lines[2], "STATUS:DISCONNECTED")

	snap := reg.Snapshot()
	require.Len(t, snap, 1)
	assert.False(t, snap[0].Associated)
}

func TestProbeNeverChangesAssociation(t *testing.T) {
	reg, sink, _ := newTestRegistry(16)

	reg.Record(Event{MAC: mac(0x01), RSSI: -40, Kind: KindConnect})
	reg.Record(Event{MAC: mac(0x01), RSSI: -55, Kind: KindProbe})

	snap := reg.Snapshot()
	require.Len(t, snap, 1)
	assert.True(t, snap[0].Associated, "probe must not drop association")

	lines := sink.all()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "STATUS:PROBING")
	assert.Equal(t, uint64(1), reg.Stats().TotalProbes)
}

func TestFirstProbeEmitsNew(t *testing.T) {
	reg, sink, _ := newTestRegistry(16)

	reg.Record(Event{MAC: mac(0x07), RSSI: -70, Kind: KindProbe})

	lines := sink.all()
	require.Len(t, lines, 1)
	assert.Equal(t, "[DEVICE] MAC:AA:BB:CC:DD:EE:07 | RSSI:-70 | STATUS:NEW | IP:", lines[0])

	s := reg.Stats()
	assert.Equal(t, uint64(1), s.TotalDevices)
	assert.Equal(t, uint64(1), s.TotalProbes)
	assert.Equal(t, uint64(0), s.TotalConnects)
}

func TestKeyUniquenessAndTimestamps(t *testing.T) {
	reg, _, now := newTestRegistry(16)

	first := *now
	reg.Record(Event{MAC: mac(0x01), RSSI: -60, Kind: KindProbe})
	for i := 0; i < 5; i++ {
		*now = now.Add(time.Second)
		reg.Record(Event{MAC: mac(0x01), RSSI: -60 + i, Kind: KindProbe})
	}

	snap := reg.Snapshot()
	require.Len(t, snap, 1, "one record per address")
	rec := snap[0]
	assert.Equal(t, first, rec.FirstSeenAt)
	assert.True(t, !rec.LastSeenAt.Before(rec.FirstSeenAt), "lastSeen >= firstSeen")
	assert.Equal(t, uint64(6), rec.EventCount)
	assert.Equal(t, uint64(1), reg.Stats().TotalDevices)
}

// Сценарий из приёмочного прогона: connect → слишком слабый probe
// отброшен до реестра → disconnect → [STATS].
func TestScenarioConnectProbeDisconnectStats(t *testing.T) {
	reg, sink, _ := newTestRegistry(16)

	reg.Record(Event{MAC: mac(0x01), RSSI: -40, Kind: KindConnect})
	// probe с RSSI -90 при пороге -85 отбрасывают классификатор/декодер:
	// до Record он не доходит вовсе
	reg.Record(Event{MAC: mac(0x01), RSSI: RSSIUnknown, Kind: KindDisconnect})
	reg.EmitStats()

	lines := sink.all()
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "STATUS:CONNECTED")
	assert.Contains(t, lines[1], "STATUS:DISCONNECTED")
	assert.Equal(t, "[STATS] CONNECTED:0 | NEARBY:0 | TOTAL_PROBES:0 | TOTAL_CONNECTS:1", lines[2])
}

func TestAssignAtMostOncePerAssociation(t *testing.T) {
	reg, sink, _ := newTestRegistry(16)
	ip := net.IPv4(192, 168, 4, 2).To4()
	ip2 := net.IPv4(192, 168, 4, 3).To4()

	reg.Record(Event{MAC: mac(0x01), RSSI: -40, Kind: KindConnect})
	require.True(t, reg.Assign(mac(0x01), ip))
	assert.False(t, reg.Assign(mac(0x01), ip2), "address is handed out at most once")

	snap := reg.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, ip.String(), snap[0].AssignedIP.String())

	// после отключения адрес не выдаётся заново
	reg.Record(Event{MAC: mac(0x01), RSSI: RSSIUnknown, Kind: KindDisconnect})
	assert.False(t, reg.Assign(mac(0x01), ip2))

	assert.Len(t, sink.all(), 2, "assign itself must not emit lines")
}

func TestRefreshUpdatesWithoutLinesOrCounters(t *testing.T) {
	reg, sink, _ := newTestRegistry(16)

	reg.Record(Event{MAC: mac(0x01), RSSI: -40, Kind: KindConnect})
	reg.Record(Event{MAC: mac(0x01), RSSI: -47, Kind: KindRefresh})
	// refresh незнакомого адреса записей не создаёт
	reg.Record(Event{MAC: mac(0x33), RSSI: -50, Kind: KindRefresh})

	s := reg.Stats()
	assert.Equal(t, uint64(1), s.TotalConnects)
	assert.Equal(t, uint64(1), s.TotalDevices)
	assert.Len(t, sink.all(), 1)

	snap := reg.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, -47, snap[0].RSSI)
}

func TestEvictionPrefersStaleDisassociated(t *testing.T) {
	reg, _, now := newTestRegistry(2)

	reg.Record(Event{MAC: mac(0x01), RSSI: -40, Kind: KindConnect}) // ассоциирован
	*now = now.Add(time.Second)
	reg.Record(Event{MAC: mac(0x02), RSSI: -70, Kind: KindProbe}) // кандидат на вытеснение
	*now = now.Add(time.Second)
	reg.Record(Event{MAC: mac(0x03), RSSI: -65, Kind: KindProbe})

	snap := reg.Snapshot()
	require.Len(t, snap, 2)
	macs := []string{snap[0].MAC.String(), snap[1].MAC.String()}
	assert.Contains(t, macs, mac(0x01).String(), "associated record is never evicted")
	assert.Contains(t, macs, mac(0x03).String())
	assert.Equal(t, uint64(1), reg.Stats().Evicted)
	// счётчик уникальных устройств — пожизненный, вытеснение его не трогает
	assert.Equal(t, uint64(3), reg.Stats().TotalDevices)
}

func TestDisconnectOnUnknownAddressStillReported(t *testing.T) {
	reg, sink, _ := newTestRegistry(16)

	reg.Record(Event{MAC: mac(0x09), RSSI: RSSIUnknown, Kind: KindDisconnect})

	lines := sink.all()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "STATUS:DISCONNECTED")
	snap := reg.Snapshot()
	require.Len(t, snap, 1)
	assert.False(t, snap[0].Associated)
}

func TestConcurrentRecordKeepsInvariants(t *testing.T) {
	reg, _, _ := newTestRegistry(64)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				reg.Record(Event{MAC: mac(byte(g)), RSSI: -50, Kind: KindProbe})
			}
		}(g)
	}
	wg.Wait()

	snap := reg.Snapshot()
	assert.Len(t, snap, 8)
	var total uint64
	for _, rec := range snap {
		total += rec.EventCount
	}
	assert.Equal(t, uint64(800), total)
}
