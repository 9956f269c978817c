package engine

import (
	"context"
	"time"
)

// Assigner — шаг кооперативного цикла (раздача адресов, обновление RSSI).
// Вызывается строго из одной горутины планировщика.
type Assigner interface {
	Tick(ctx context.Context)
}

// Scheduler гонит кооперативный цикл: на каждом тике — проход Assigner'а,
// затем строка [STATS]. Тик нельзя отменить, только задержать.
type Scheduler struct {
	reg      *Registry
	assign   Assigner
	interval time.Duration
}

func NewScheduler(reg *Registry, assign Assigner, interval time.Duration) *Scheduler {
	return &Scheduler{reg: reg, assign: assign, interval: interval}
}

func (s *Scheduler) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if s.assign != nil {
				s.assign.Tick(ctx)
			}
			s.reg.EmitStats()
		}
	}
}
