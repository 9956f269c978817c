// Package driver — граница с радиоподсистемой. Реальный радиодрайвер
// остаётся внешним участником; пакет задаёт его контракт и содержит
// replay-реализацию как fallback (по аналогии с in-memory хранилищем,
// когда БД не настроена).
package driver

import (
	"context"
	"net"

	"moth/internal/engine"
	"moth/internal/frames"
)

// APProfile — конфигурация точки-приманки, передаваемая драйверу при старте.
type APProfile struct {
	SSID       string
	Passphrase string // пусто = открытая сеть
	Channel    int
	MaxClients int
}

// Station — элемент живого списка ассоциированных станций.
type Station struct {
	MAC  engine.MAC
	RSSI int
}

// EventKind — вид уведомления драйвера.
type EventKind int

const (
	StationJoined EventKind = iota // станция ассоциировалась
	StationLeft                    // станция отключилась
	StationProbe                   // probe request через путь ассоциации
)

// StationEvent — уведомление драйвера о станции. RSSI заполнен только
// для StationProbe; для Joined уровень добывается из живого списка.
type StationEvent struct {
	Kind EventKind
	MAC  engine.MAC
	RSSI int
}

// Handler получает асинхронные колбэки драйвера. Может вызываться из
// контекста с приоритетом выше основного цикла — реализация обязана быть
// потокобезопасной.
type Handler interface {
	OnStationEvent(ev StationEvent)
	OnFrame(f frames.RawFrame)
}

// Radio — контракт радиоподсистемы.
type Radio interface {
	// Configure поднимает точку доступа с заданным профилем.
	Configure(p APProfile) error
	// Gateway — адрес шлюза точки доступа.
	Gateway() net.IP
	// Stations — текущий живой список ассоциированных станций.
	Stations() []Station
	// Run доставляет колбэки до отмены контекста.
	Run(ctx context.Context, h Handler) error
}
