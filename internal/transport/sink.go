// Package transport — приёмники строкового потока движка. Граница
// доставки: гарантий у потока нет, потерянные потребителем строки не
// переотправляются.
package transport

import (
	"fmt"
	"io"
	"os"
	"sync"

	"moth/internal/engine"
)

// WriterSink пишет строки в io.Writer (stdout либо открытое serial-
// устройство), сериализуя целые строки мьютексом.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink { return &WriterSink{w: w} }

func (s *WriterSink) WriteLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.w, line+"\n")
}

// OpenTarget открывает цель потока: "stdout" либо путь к устройству/файлу.
// Закрытие — забота вызывающего (для stdout closer == nil).
func OpenTarget(target string) (*WriterSink, io.Closer, error) {
	if target == "stdout" {
		return NewWriterSink(os.Stdout), nil, nil
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: open %s: %w", target, err)
	}
	return NewWriterSink(f), f, nil
}

// MultiSink раздаёт строку всем приёмникам по порядку.
type MultiSink []engine.Sink

func (m MultiSink) WriteLine(line string) {
	for _, s := range m {
		s.WriteLine(line)
	}
}
