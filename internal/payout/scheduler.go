package payout

import (
	"context"
	"log"
	"time"
)

// Scheduler периодически запускает ночной расчет выплат.
// Заменяет внешний планировщик: обычный тикер с ограниченным
// экспоненциальным backoff при временных сбоях.
type Scheduler struct {
	processor  *Processor
	interval   time.Duration
	maxRetries int
}

// NewScheduler создает планировщик ночного расчета.
func NewScheduler(processor *Processor, interval time.Duration, maxRetries int) *Scheduler {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Scheduler{
		processor:  processor,
		interval:   interval,
		maxRetries: maxRetries,
	}
}

// Run блокируется до отмены контекста, запуская расчет раз в interval.
func (s *Scheduler) Run(ctx context.Context) {
	log.Printf("Планировщик выплат запущен (интервал %s).", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Планировщик выплат останавливается.")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce выполняет один цикл расчета с повторами.
// Расчет идемпотентен, поэтому повтор после частичного сбоя безопасен.
func (s *Scheduler) runOnce(ctx context.Context) {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		// Сначала добираем выплаты по заказам, оставшимся без расчета
		if _, err := s.processor.ProcessBatch(ctx, nil, 0); err != nil {
			log.Printf("Ошибка пакетного расчета (попытка %d/%d): %v", attempt+1, s.maxRetries, err)
			sleepBackoff(ctx, attempt)
			continue
		}

		if _, err := s.processor.RunRollup(ctx); err != nil {
			log.Printf("Ошибка ночного расчета (попытка %d/%d): %v", attempt+1, s.maxRetries, err)
			sleepBackoff(ctx, attempt)
			continue
		}
		return
	}
	log.Printf("Ночной расчет не удался после %d попыток, ждем следующего цикла.", s.maxRetries)
}

// sleepBackoff ждет 1s, 2s, 4s... с учетом отмены контекста.
func sleepBackoff(ctx context.Context, attempt int) {
	delay := time.Second << attempt
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}
