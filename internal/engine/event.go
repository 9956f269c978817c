package engine

import (
	"encoding/hex"
	"fmt"
	"net"
	"strings"
)

// MAC — аппаратный адрес устройства, ключ реестра.
type MAC [6]byte

// Broadcast — широковещательный адрес; такие отправители в реестр не допускаются.
var Broadcast = MAC{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// String каноническая форма: шесть hex-пар в верхнем регистре через двоеточие.
func (m MAC) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", m[0], m[1], m[2], m[3], m[4], m[5])
}

func (m MAC) IsBroadcast() bool { return m == Broadcast }

// ParseMAC разбирает "AA:BB:CC:DD:EE:FF" (регистр и разделитель "-" допустимы).
func ParseMAC(s string) (MAC, error) {
	var m MAC
	s = strings.NewReplacer(":", "", "-", "").Replace(strings.TrimSpace(s))
	if len(s) != 12 {
		return m, fmt.Errorf("bad mac %q", s)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return m, fmt.Errorf("bad mac %q: %w", s, err)
	}
	copy(m[:], b)
	return m, nil
}

// Kind — вид нормализованного события, поступающего в реестр.
type Kind int

const (
	KindProbe      Kind = iota // probe request, без ассоциации
	KindConnect                // станция ассоциировалась
	KindDisconnect             // станция отключилась
	KindRefresh                // служебное обновление от планировщика, строки не порождает
)

func (k Kind) String() string {
	switch k {
	case KindProbe:
		return "probe"
	case KindConnect:
		return "connect"
	case KindDisconnect:
		return "disconnect"
	case KindRefresh:
		return "refresh"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// RSSIUnknown — сигнальное значение "уровень неизвестен/очень слабый".
const RSSIUnknown = -127

// Event — нормализованное событие от любого из источников (классификатор
// кадров, декодер драйвера, планировщик).
type Event struct {
	MAC        MAC
	RSSI       int
	Kind       Kind
	AssignedIP net.IP // только для connect/refresh, может быть nil
}
