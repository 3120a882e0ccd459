package payout

import (
	"context"
	"fmt"
	"log"

	"gramsetu/internal/database"
	"gramsetu/internal/geo"
	"gramsetu/internal/location"
	"gramsetu/internal/metrics"
	"gramsetu/internal/model"
	"gramsetu/internal/notify"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// locationSource отдает последнюю известную позицию курьера.
// Реализуется internal/location поверх Redis.
type locationSource interface {
	Get(ctx context.Context, riderID string) (*location.Location, bool, error)
}

// BatchError - ошибка расчета по одному заказу внутри пакета.
type BatchError struct {
	OrderID string `json:"order_id"`
	Error   string `json:"error"`
}

// BatchResult - итог пакетного расчета выплат.
// Ошибки по отдельным заказам не прерывают пакет.
type BatchResult struct {
	PayoutsCreated int            `json:"payouts_created"`
	Payouts        []model.Payout `json:"payouts"`
	Errors         []BatchError   `json:"errors"`
}

// Processor рассчитывает выплаты курьерам за доставленные заказы.
type Processor struct {
	storage     database.Storage
	dispatcher  notify.Dispatcher
	locations   locationSource
	defaultRate int64 // Ставка за км в пайсах
	tracer      trace.Tracer
}

// NewProcessor создает процессор выплат.
func NewProcessor(storage database.Storage, dispatcher notify.Dispatcher, locations locationSource, defaultRate int64) *Processor {
	return &Processor{
		storage:     storage,
		dispatcher:  dispatcher,
		locations:   locations,
		defaultRate: defaultRate,
		tracer:      otel.Tracer("payout-processor"),
	}
}

// resolveDistance определяет дистанцию доставки: прямое поле доставки,
// иначе гаверсинус от склада до последней позиции курьера, иначе 0.
// Нулевой фолбэк логируется: он может маскировать проблемы с данными.
func (p *Processor) resolveDistance(ctx context.Context, order *model.Order, delivery *model.Delivery) float64 {
	if delivery.DistanceKm > 0 {
		return delivery.DistanceKm
	}

	warehouse, err := p.storage.GetWarehouse(ctx, order.WarehouseID)
	if err == nil && p.locations != nil {
		loc, found, locErr := p.locations.Get(ctx, delivery.RiderID)
		if locErr == nil && found {
			return geo.DistanceKm(warehouse.Latitude, warehouse.Longitude, loc.Latitude, loc.Longitude)
		}
	}

	log.Printf("ВНИМАНИЕ: дистанция для заказа %s неизвестна, выплата рассчитана от 0 км.", order.ID)
	return 0
}

// ComputeForOrder рассчитывает выплату за один доставленный заказ.
// Повторный вызов для уже рассчитанной доставки возвращает ошибку
// и не удваивает сумму.
func (p *Processor) ComputeForOrder(ctx context.Context, orderID string, ratePerKm int64) (*model.Payout, error) {
	ctx, span := p.tracer.Start(ctx, "Payout.ComputeForOrder")
	defer span.End()

	if ratePerKm <= 0 {
		ratePerKm = p.defaultRate
	}

	order, err := p.storage.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderDelivered {
		return nil, fmt.Errorf("%w: заказ %s в статусе %q", database.ErrOrderNotDelivered, orderID, order.Status)
	}

	delivery, err := p.storage.GetDeliveryByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	distance := p.resolveDistance(ctx, order, delivery)

	payout, err := p.storage.ApplyPayout(ctx, orderID, distance, ratePerKm)
	if err != nil {
		return nil, err
	}

	log.Printf("Выплата %s начислена за заказ %s: курьер %s, %.2f км, %d пайс.",
		payout.ID, orderID, payout.RiderID, distance, payout.ComputedAmount)

	// Уведомляем курьера о начислении
	if rider, riderErr := p.storage.GetRider(ctx, delivery.RiderID); riderErr == nil {
		p.dispatcher.Enqueue(ctx, notify.Event{
			UserID:  rider.UserID,
			Title:   "New Payout Pending",
			Message: fmt.Sprintf("Начислена выплата ₹%.2f за %.2f км.", float64(payout.ComputedAmount)/100, payout.TotalDistance),
			Type:    notify.TypePayoutCreated,
		})
	}

	return payout, nil
}

// ProcessBatch рассчитывает выплаты по списку заказов. Пустой список означает
// "все доставленные заказы без выплаты". Ошибки по отдельным заказам
// собираются в результат и не прерывают пакет.
func (p *Processor) ProcessBatch(ctx context.Context, orderIDs []string, ratePerKm int64) (*BatchResult, error) {
	ctx, span := p.tracer.Start(ctx, "Payout.ProcessBatch")
	defer span.End()

	if len(orderIDs) == 0 {
		var err error
		orderIDs, err = p.storage.ListPayoutCandidates(ctx)
		if err != nil {
			return nil, err
		}
	}

	result := &BatchResult{Payouts: []model.Payout{}, Errors: []BatchError{}}
	for _, orderID := range orderIDs {
		payout, err := p.ComputeForOrder(ctx, orderID, ratePerKm)
		if err != nil {
			// Частичный отказ: заказ пропускается, пакет продолжается
			log.Printf("Ошибка расчета выплаты для заказа %s: %v", orderID, err)
			metrics.PayoutsComputed.WithLabelValues("error").Inc()
			result.Errors = append(result.Errors, BatchError{OrderID: orderID, Error: err.Error()})
			continue
		}
		metrics.PayoutsComputed.WithLabelValues("success").Inc()
		result.PayoutsCreated++
		result.Payouts = append(result.Payouts, *payout)
	}

	log.Printf("Пакет выплат обработан: %d успешно, %d с ошибками.", result.PayoutsCreated, len(result.Errors))
	return result, nil
}

// RunRollup выполняет ночной расчет: закрывает все pending-выплаты
// и уведомляет администраторов складов. Идемпотентен: повторный запуск
// без новых выплат ничего не меняет.
func (p *Processor) RunRollup(ctx context.Context) ([]database.SettlementStat, error) {
	ctx, span := p.tracer.Start(ctx, "Payout.RunRollup")
	defer span.End()

	stats, err := p.storage.SettlePayouts(ctx)
	if err != nil {
		return nil, err
	}

	for _, st := range stats {
		log.Printf("Склад %s: закрыто %d выплат на сумму %d пайс.", st.WarehouseID, st.SettledCount, st.TotalAmount)

		warehouse, whErr := p.storage.GetWarehouse(ctx, st.WarehouseID)
		if whErr != nil {
			log.Printf("Не удалось получить склад %s для уведомления: %v", st.WarehouseID, whErr)
			continue
		}
		p.dispatcher.Enqueue(ctx, notify.Event{
			UserID:  warehouse.AdminID,
			Title:   "Daily Payout Settlement Complete",
			Message: fmt.Sprintf("Закрыто %d выплат на сумму ₹%.2f.", st.SettledCount, float64(st.TotalAmount)/100),
			Type:    notify.TypeSettlementComplete,
		})
	}

	return stats, nil
}
