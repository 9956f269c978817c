// Package lease — приближённая выдача адресов подключённым устройствам.
// Движок не видит настоящих DHCP-аренд, поэтому адреса раздаются из
// ограниченного счётчика внутри подсети точки доступа. Это best-effort
// заполнитель за интерфейсом engine.Assigner: при появлении реального
// источника аренд он меняется без правок реестра.
package lease

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"

	"moth/internal/driver"
	"moth/internal/engine"
)

type Approximator struct {
	reg   *engine.Registry
	radio driver.Radio

	subnet *net.IPNet
	gw     net.IP
	next   uint32 // смещение последнего выданного хоста
}

// New строит раздатчик в подсети точки доступа; адрес шлюза спрашивается
// у радиоподсистемы и при выдаче пропускается.
func New(reg *engine.Registry, radio driver.Radio, subnet *net.IPNet) (*Approximator, error) {
	gw := radio.Gateway().To4()
	if gw == nil {
		return nil, fmt.Errorf("lease: only IPv4 gateways are supported: %v", radio.Gateway())
	}
	if !subnet.Contains(gw) {
		return nil, fmt.Errorf("lease: gateway %v outside subnet %v", gw, subnet)
	}
	return &Approximator{reg: reg, radio: radio, subnet: subnet, gw: gw}, nil
}

// Tick — один проход кооперативного цикла: сперва обновить RSSI/время
// по живому списку станций, затем выдать адреса ассоциированным без адреса.
func (a *Approximator) Tick(ctx context.Context) {
	for _, st := range a.radio.Stations() {
		if ctx.Err() != nil {
			return
		}
		a.reg.Record(engine.Event{MAC: st.MAC, RSSI: st.RSSI, Kind: engine.KindRefresh})
	}
	for _, rec := range a.reg.Snapshot() {
		if !rec.Associated || rec.AssignedIP != nil {
			continue
		}
		if ip := a.nextIP(); ip != nil {
			a.reg.Assign(rec.MAC, ip)
		}
	}
}

// nextIP — следующий хостовый адрес подсети; счётчик заворачивается в
// пределах пригодного диапазона, шлюз пропускается.
func (a *Approximator) nextIP() net.IP {
	ones, bits := a.subnet.Mask.Size()
	if bits != 32 {
		return nil
	}
	span := uint32(1) << (bits - ones)
	if span <= 2 {
		return nil // в /31 и уже раздавать нечего
	}
	hosts := span - 2 // без адреса сети и broadcast
	base := binary.BigEndian.Uint32(a.subnet.IP.To4())
	gw := binary.BigEndian.Uint32(a.gw)
	for i := uint32(0); i < hosts; i++ {
		a.next = a.next%hosts + 1
		cand := base + a.next
		if cand == gw {
			continue
		}
		ip := make(net.IP, 4)
		binary.BigEndian.PutUint32(ip, cand)
		return ip
	}
	return nil
}
