package models

import (
	"time"

	"moth/internal/engine"
)

// DeviceView — представление записи реестра для HTTP-API.
type DeviceView struct {
	MAC        string    `json:"mac"`
	IP         string    `json:"ip,omitempty"`
	RSSI       int       `json:"rssi"`
	Status     string    `json:"status"`
	FirstSeen  time.Time `json:"first_seen"`
	LastSeen   time.Time `json:"last_seen"`
	EventCount uint64    `json:"event_count"`
}

// NewDeviceView строит представление из копии записи реестра.
func NewDeviceView(rec engine.DeviceRecord) DeviceView {
	v := DeviceView{
		MAC:        rec.MAC.String(),
		RSSI:       rec.RSSI,
		Status:     rec.Status,
		FirstSeen:  rec.FirstSeenAt,
		LastSeen:   rec.LastSeenAt,
		EventCount: rec.EventCount,
	}
	if rec.Associated && rec.AssignedIP != nil {
		v.IP = rec.AssignedIP.String()
	}
	return v
}
