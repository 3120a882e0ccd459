package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"gramsetu/internal/config"
	"gramsetu/internal/metrics"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Типы доменных событий уведомлений.
const (
	TypeOrderUpdate        = "order_update"
	TypeRiderAssignment    = "rider_assignment"
	TypePayment            = "payment"
	TypePayoutCreated      = "payout_created"
	TypeSettlementComplete = "settlement_complete"
	TypeSystem             = "system"
)

// Event - событие уведомления, уходящее внешнему доставщику.
type Event struct {
	UserID  string `json:"user_id" validate:"required"`
	Title   string `json:"title" validate:"required"`
	Message string `json:"message" validate:"required"`
	Type    string `json:"type" validate:"required"`
}

//go:generate mockgen -source=dispatcher.go -destination=./mocks/dispatcher_mock.go -package=mocks Dispatcher

// Dispatcher отправляет события уведомлений внешнему доставщику.
// Контракт fire-and-forget: ошибка отправки логируется, но не
// прерывает породивший событие запрос.
type Dispatcher interface {
	Enqueue(ctx context.Context, event Event)
	Close() error
}

// kafkaWriter абстрагирует kafka.Writer для тестирования.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaDispatcher публикует события в Kafka-топик уведомлений.
type kafkaDispatcher struct {
	writer kafkaWriter
	tracer trace.Tracer
}

// NewKafkaDispatcher создает диспетчер поверх Kafka.
// RequireAll снижает риск потери событий при сбое брокера.
func NewKafkaDispatcher(cfg config.KafkaConfig) Dispatcher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  5,
		WriteTimeout: 5 * time.Second,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &kafkaDispatcher{
		writer: writer,
		tracer: otel.Tracer("notify-dispatcher"),
	}
}

// Enqueue отправляет событие. Ключ сообщения - ID пользователя,
// чтобы уведомления одного пользователя попадали в одну партицию.
func (d *kafkaDispatcher) Enqueue(ctx context.Context, event Event) {
	ctx, span := d.tracer.Start(ctx, "Dispatcher.Enqueue")
	defer span.End()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Ошибка сериализации события уведомления: %v", err)
		metrics.NotificationsEnqueued.WithLabelValues("error").Inc()
		return
	}

	err = d.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: payload,
	})
	if err != nil {
		// Fire-and-forget: доставка уведомлений не должна влиять на основной поток.
		log.Printf("Ошибка отправки уведомления в Kafka (user %s): %v", event.UserID, err)
		metrics.NotificationsEnqueued.WithLabelValues("error").Inc()
		return
	}

	metrics.NotificationsEnqueued.WithLabelValues("success").Inc()
}

// Close закрывает Kafka writer.
func (d *kafkaDispatcher) Close() error {
	return d.writer.Close()
}
