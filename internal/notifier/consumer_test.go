package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	db_mocks "gramsetu/internal/database/mocks"
	"gramsetu/internal/model"
	"gramsetu/internal/notify"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.uber.org/mock/gomock"
)

type NoOpReader struct{}

func (r *NoOpReader) FetchMessage(context.Context) (kafka.Message, error) {
	return kafka.Message{}, nil
}
func (r *NoOpReader) CommitMessages(context.Context, ...kafka.Message) error {
	return nil
}
func (r *NoOpReader) Close() error { return nil }

// setupConsumerAndMocks - хелпер для инициализации консюмера и моков
func setupConsumerAndMocks(t *testing.T) (*gomock.Controller, *Consumer, *db_mocks.MockStorage) {
	ctrl := gomock.NewController(t)
	mockStorage := db_mocks.NewMockStorage(ctrl)

	consumer := &Consumer{
		reader:     &NoOpReader{},
		storage:    mockStorage,
		dlqWriter:  &kafka.Writer{}, // Инициализируем, чтобы избежать nil panic в тестах на DLQ
		httpClient: http.DefaultClient,
		maxRetries: 3, // Устанавливаем значение, как в NewConsumer
		tracer:     otel.Tracer("test-tracer"),
	}

	return ctrl, consumer, mockStorage
}

// helperTestEvent - валидное событие для тестов
var helperTestEvent = notify.Event{
	UserID:  "7f9c24e5-2f8a-4b6f-807c-9b63a11e81b9",
	Title:   "Order Accepted",
	Message: "Ваш заказ принят складом.",
	Type:    notify.TypeOrderUpdate,
}

func TestConsumer_ProcessMessage_Success(t *testing.T) {
	ctrl, consumer, mockStorage := setupConsumerAndMocks(t)
	defer ctrl.Finish()

	eventBytes, _ := json.Marshal(helperTestEvent)
	msg := kafka.Message{Value: eventBytes}

	// Ожидаем сохранение уведомления в БД
	mockStorage.EXPECT().SaveNotification(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n *model.Notification) error {
			assert.Equal(t, helperTestEvent.UserID, n.UserID)
			assert.Equal(t, helperTestEvent.Title, n.Title)
			return nil
		})

	err := consumer.processMessage(context.Background(), msg)
	assert.NoError(t, err)
}

func TestConsumer_ProcessMessage_DBError_RetryLogic(t *testing.T) {
	ctrl, consumer, mockStorage := setupConsumerAndMocks(t)
	defer ctrl.Finish()

	eventBytes, _ := json.Marshal(helperTestEvent)
	msg := kafka.Message{Value: eventBytes}
	dbErr := errors.New("temp db error")

	// 1. Ожидаем 2 неудачных вызова
	mockStorage.EXPECT().SaveNotification(gomock.Any(), gomock.Any()).Return(dbErr).Times(2)
	// 2. Ожидаем 1 удачный вызов
	mockStorage.EXPECT().SaveNotification(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	err := consumer.processMessage(context.Background(), msg)

	// Ошибки нет, т.к. ретрай удался
	assert.NoError(t, err)
}

func TestConsumer_ProcessMessage_BadJSON(t *testing.T) {
	ctrl, consumer, mockStorage := setupConsumerAndMocks(t)
	defer ctrl.Finish()

	msg := kafka.Message{Value: []byte("this is not json")}

	// Не ожидаем вызовов БД
	mockStorage.EXPECT().SaveNotification(gomock.Any(), gomock.Any()).Times(0)

	err := consumer.processMessage(context.Background(), msg)

	// Ошибка не должна быть возвращена, т.к. это "poison pill".
	// Сообщение будет закоммичено (err == nil)
	assert.NoError(t, err)
}

func TestConsumer_ProcessMessage_ValidationError(t *testing.T) {
	ctrl, consumer, mockStorage := setupConsumerAndMocks(t)
	defer ctrl.Finish()

	// Событие без user_id не проходит валидацию
	invalidEvent := helperTestEvent
	invalidEvent.UserID = ""
	eventBytes, _ := json.Marshal(invalidEvent)
	msg := kafka.Message{Value: eventBytes}

	mockStorage.EXPECT().SaveNotification(gomock.Any(), gomock.Any()).Times(0)

	err := consumer.processMessage(context.Background(), msg)
	assert.NoError(t, err)
}

func TestConsumer_DeliverViaEdgeFunction(t *testing.T) {
	// Тестовый сервер вместо реальной edge-функции
	var received model.Notification
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctrl, consumer, _ := setupConsumerAndMocks(t)
	defer ctrl.Finish()
	consumer.edgeFunctionURL = server.URL

	n := &model.Notification{ID: "n-1", UserID: "user-1", Title: "t", Message: "m", Type: "system"}
	err := consumer.deliverViaEdgeFunction(context.Background(), n)
	assert.NoError(t, err)
	assert.Equal(t, "n-1", received.ID)
}

func TestConsumer_DeliverViaEdgeFunction_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctrl, consumer, _ := setupConsumerAndMocks(t)
	defer ctrl.Finish()
	consumer.edgeFunctionURL = server.URL

	n := &model.Notification{ID: "n-1", UserID: "user-1", Title: "t", Message: "m", Type: "system"}
	err := consumer.deliverViaEdgeFunction(context.Background(), n)
	assert.Error(t, err)
}

func TestConsumer_DeliverViaEdgeFunction_Disabled(t *testing.T) {
	ctrl, consumer, _ := setupConsumerAndMocks(t)
	defer ctrl.Finish()

	// Пустой URL выключает внешнюю доставку
	consumer.edgeFunctionURL = ""
	err := consumer.deliverViaEdgeFunction(context.Background(), &model.Notification{})
	assert.NoError(t, err)
}
