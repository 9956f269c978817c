// Package frames разбирает сырые management-кадры 802.11, перехваченные
// драйвером в promiscuous-режиме, и отбирает probe request'ы для реестра.
package frames

import (
	"moth/internal/engine"
)

// FrameType — тип кадра, как его сообщает драйвер захвата.
type FrameType int

const (
	TypeManagement FrameType = iota
	TypeControl
	TypeData
	TypeMisc
)

// Управляющее поле кадра: тип в битах 2-3, подтип в битах 4-7 первого байта.
const (
	fcTypeManagement  = 0x0
	fcSubtypeProbeReq = 0x4
	minMgmtHeaderLen  = 16 // frame control + duration + addr1 + addr2
	senderAddrOffset  = 10 // addr2 — отправитель
)

// RawFrame — перехваченный кадр вместе с метаданными захвата.
type RawFrame struct {
	Type FrameType
	RSSI int
	Data []byte // недекодированный MAC-заголовок + тело
}

// Classifier — фильтр кадров. Без состояния между вызовами: может
// работать на произвольной частоте захвата.
type Classifier struct {
	// Floor — порог чувствительности (dBm); кадр слабее порога
	// считается внедиапазонным шумом. Ровно на пороге — принимается.
	Floor int
}

func NewClassifier(floor int) *Classifier { return &Classifier{Floor: floor} }

// Classify решает, относится ли кадр к делу, и извлекает отправителя.
// Возвращает нормализованное probe-событие; ok=false — кадр отброшен.
// Реестр не трогает: классификация и мутация разделены.
func (c *Classifier) Classify(f RawFrame) (engine.Event, bool) {
	if f.Type != TypeManagement {
		return engine.Event{}, false
	}
	if f.RSSI < c.Floor {
		return engine.Event{}, false
	}
	if len(f.Data) < minMgmtHeaderLen {
		return engine.Event{}, false
	}
	fc := f.Data[0]
	if (fc>>2)&0x3 != fcTypeManagement || (fc>>4)&0xF != fcSubtypeProbeReq {
		return engine.Event{}, false
	}
	var sender engine.MAC
	copy(sender[:], f.Data[senderAddrOffset:senderAddrOffset+6])
	// широковещательный отправитель — мусорный/подделанный кадр
	if sender.IsBroadcast() {
		return engine.Event{}, false
	}
	return engine.Event{MAC: sender, RSSI: f.RSSI, Kind: engine.KindProbe}, true
}
