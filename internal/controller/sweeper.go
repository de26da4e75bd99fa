package controller

import (
	"context"
	"time"

	"safetap/internal/logs"
)

// MaintenanceStore — запросы фоновой уборки.
type MaintenanceStore interface {
	ClearExpiredPhoneCodes(ctx context.Context, now time.Time) (int64, error)
	ReleaseIdleTechnicians(ctx context.Context) (int64, error)
}

// Sweeper периодически приводит данные в согласованное состояние:
// стирает протухшие одноразовые коды и освобождает техников без
// открытых заявок. Каждый проход независим, ошибки не накапливаются.
type Sweeper struct {
	store    MaintenanceStore
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(store MaintenanceStore, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Sweeper{store: store, interval: interval, now: time.Now}
}

// Run крутит цикл уборки до отмены контекста. Первый проход — сразу,
// дальше по таймеру.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if n, err := s.store.ClearExpiredPhoneCodes(ctx, s.now()); err != nil {
		logs.Logger.Errorf("sweep: expired phone codes: %v", err)
	} else if n > 0 {
		logs.Logger.Infof("sweep: cleared %d expired phone codes", n)
	}

	if n, err := s.store.ReleaseIdleTechnicians(ctx); err != nil {
		logs.Logger.Errorf("sweep: release idle technicians: %v", err)
	} else if n > 0 {
		logs.Logger.Infof("sweep: released %d idle technicians", n)
	}
}
