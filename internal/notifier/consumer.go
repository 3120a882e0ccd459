package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"gramsetu/internal/config"
	"gramsetu/internal/database"
	"gramsetu/internal/metrics"
	"gramsetu/internal/model"
	"gramsetu/internal/notify"
	"gramsetu/internal/validator"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// messageReader абстрагирует kafka.Reader для тестирования.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer читает события уведомлений из Kafka, сохраняет их в БД
// и пересылает внешней edge-функции для push/SMS-доставки.
type Consumer struct {
	reader          messageReader
	dlqWriter       *kafka.Writer // Продюсер для отправки "битых" сообщений в DLQ
	storage         database.Storage
	httpClient      *http.Client
	edgeFunctionURL string
	tracer          trace.Tracer
	maxRetries      int // Количество попыток для временных ошибок БД
}

// NewConsumer создает новый экземпляр Consumer.
func NewConsumer(cfg config.KafkaConfig, storage database.Storage, edgeFunctionURL string, httpTimeout time.Duration) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
		// Коммиты выполняются вручную после успешной обработки.
	})

	// Продюсер для DLQ
	dlqWriter := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.DLQTopic,
		Balancer: &kafka.LeastBytes{},
	}

	return &Consumer{
		reader:          reader,
		dlqWriter:       dlqWriter,
		storage:         storage,
		httpClient:      &http.Client{Timeout: httpTimeout},
		edgeFunctionURL: edgeFunctionURL,
		tracer:          otel.Tracer("notifier-consumer"),
		maxRetries:      3, // 3 попытки на сохранение в БД
	}
}

// Run запускает цикл чтения сообщений из Kafka.
func (c *Consumer) Run(ctx context.Context) {
	log.Println("Консюмер уведомлений запущен...")
	defer func() {
		if err := c.reader.Close(); err != nil {
			log.Printf("Ошибка закрытия Kafka-ридера: %v", err)
		}
		if err := c.dlqWriter.Close(); err != nil {
			log.Printf("Ошибка закрытия Kafka (DLQ) writer: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Println("Консюмер уведомлений останавливается.")
			return
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				log.Printf("Ошибка чтения сообщения из Kafka: %v", err)
				continue
			}

			procErr := c.processMessage(ctx, msg)

			if procErr != nil {
				// Ошибка = нужна повторная обработка.
				// Не коммитим, Kafka доставит сообщение повторно.
				log.Printf("Ошибка обработки уведомления (key: %s): %v. Не коммитим, ждем retry.", string(msg.Key), procErr)
			} else {
				// nil = обработка успешна (в т.ч. уход в DLQ).
				if err := c.reader.CommitMessages(ctx, msg); err != nil {
					log.Printf("Ошибка коммита сообщения: %v", err)
				}
			}
		}
	}
}

// processMessage выполняет десериализацию, валидацию, сохранение и доставку уведомления.
// Возвращает error, если нужен Kafka-retry (например, БД временно недоступна).
// Возвращает nil, если обработка успешна или сообщение ушло в DLQ.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	ctx, span := c.tracer.Start(ctx, "Consumer.processMessage")
	defer span.End()

	var event notify.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Printf("Невалидное JSON-сообщение, отправка в DLQ: %v", err)
		c.sendToDLQ(ctx, msg, "json_unmarshal_error", err)
		metrics.KafkaMessagesProcessed.WithLabelValues("dlq_validation").Inc()
		return nil // Коммитим (не ретраим "битый" JSON)
	}

	// Валидация данных
	if err := validator.ValidateStruct(&event); err != nil {
		log.Printf("Ошибка валидации события для user %s, отправка в DLQ: %v", event.UserID, err)
		c.sendToDLQ(ctx, msg, "validation_error", err)
		metrics.KafkaMessagesProcessed.WithLabelValues("dlq_validation").Inc()
		return nil // Коммитим (не ретраим невалидные данные)
	}

	notification := &model.Notification{
		UserID:  event.UserID,
		Title:   event.Title,
		Message: event.Message,
		Type:    event.Type,
	}

	// Сохранение в БД с внутренним Retry-циклом
	var dbErr error
	for i := 0; i < c.maxRetries; i++ {
		dbErr = c.storage.SaveNotification(ctx, notification)
		if dbErr == nil {
			break // Успешно
		}
		metrics.DBErrors.WithLabelValues("save_notification").Inc()
		log.Printf("Ошибка сохранения уведомления (попытка %d/%d): %v", i+1, c.maxRetries, dbErr)
		time.Sleep(time.Second * time.Duration(i+1)) // Простой backoff
	}

	if dbErr != nil {
		log.Printf("Не удалось сохранить уведомление для user %s после %d попыток, отправка в DLQ.", event.UserID, c.maxRetries)
		c.sendToDLQ(ctx, msg, "db_save_error", dbErr)
		metrics.KafkaMessagesProcessed.WithLabelValues("dlq_db_error").Inc()
		return nil // Коммитим (исчерпали попытки)
	}

	// Внешняя доставка best-effort: сбой edge-функции не проваливает обработку.
	if err := c.deliverViaEdgeFunction(ctx, notification); err != nil {
		log.Printf("Edge-функция не доставила уведомление %s: %v", notification.ID, err)
	}

	log.Printf("Уведомление %s для user %s обработано.", notification.ID, event.UserID)
	metrics.KafkaMessagesProcessed.WithLabelValues("success").Inc()

	return nil
}

// deliverViaEdgeFunction отправляет уведомление внешней edge-функции.
func (c *Consumer) deliverViaEdgeFunction(ctx context.Context, n *model.Notification) error {
	if c.edgeFunctionURL == "" {
		return nil // Внешняя доставка выключена
	}

	_, span := c.tracer.Start(ctx, "Consumer.deliverViaEdgeFunction")
	defer span.End()

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("ошибка сериализации уведомления: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.edgeFunctionURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка вызова edge-функции: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("edge-функция вернула статус %d", resp.StatusCode)
	}
	return nil
}

// sendToDLQ отправляет "битое" сообщение в DLQ топик.
func (c *Consumer) sendToDLQ(ctx context.Context, originalMsg kafka.Message, reason string, procErr error) {
	_, span := c.tracer.Start(ctx, "Consumer.sendToDLQ")
	defer span.End()

	// Отправляем сообщение в DLQ с доп. заголовками об ошибке
	err := c.dlqWriter.WriteMessages(ctx, kafka.Message{
		Key:   originalMsg.Key,
		Value: originalMsg.Value,
		Headers: []kafka.Header{
			{Key: "X-Original-Topic", Value: []byte(originalMsg.Topic)},
			{Key: "X-Error-Reason", Value: []byte(reason)},
			{Key: "X-Error-Details", Value: []byte(procErr.Error())},
		},
	})

	if err != nil {
		log.Printf("КРИТИЧНО: Не удалось отправить сообщение %s в DLQ: %v", string(originalMsg.Key), err)
		metrics.KafkaMessagesProcessed.WithLabelValues("dlq_failed_write").Inc()
	} else {
		log.Printf("Сообщение %s отправлено в DLQ (Причина: %s)", string(originalMsg.Key), reason)
	}
}
