package engine

import (
	"fmt"
	"net"
)

/* ───── строковая грамматика потока ───── */

// Статусы в строке [DEVICE]; грамматику разбирают внешние потребители,
// менять нельзя.
const (
	StatusNew          = "NEW"
	StatusProbing      = "PROBING"
	StatusConnected    = "CONNECTED"
	StatusDisconnected = "DISCONNECTED"
)

// Sink — приёмник готовых строк потока. Реализация обязана писать строку
// атомарно (без перемежения с другими строками).
type Sink interface {
	WriteLine(line string)
}

func deviceLine(mac MAC, rssi int, status string, ip net.IP) string {
	ipStr := ""
	if ip != nil {
		ipStr = ip.String()
	}
	return fmt.Sprintf("[DEVICE] MAC:%s | RSSI:%d | STATUS:%s | IP:%s", mac, rssi, status, ipStr)
}

func statsLine(s Stats) string {
	return fmt.Sprintf("[STATS] CONNECTED:%d | NEARBY:%d | TOTAL_PROBES:%d | TOTAL_CONNECTS:%d",
		s.Connected, s.Nearby, s.TotalProbes, s.TotalConnects)
}
