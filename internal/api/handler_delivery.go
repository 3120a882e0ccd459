package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"gramsetu/internal/cache"
	"gramsetu/internal/database"
	"gramsetu/internal/metrics"
	"gramsetu/internal/model"
	"gramsetu/internal/notify"
	"gramsetu/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// DeliveryHandler обрабатывает обновления статуса доставки курьером.
type DeliveryHandler struct {
	storage    database.Storage
	cache      cache.Cache
	dispatcher notify.Dispatcher
}

// NewDeliveryHandler создает новый экземпляр DeliveryHandler.
func NewDeliveryHandler(storage database.Storage, cache cache.Cache, dispatcher notify.Dispatcher) *DeliveryHandler {
	return &DeliveryHandler{storage: storage, cache: cache, dispatcher: dispatcher}
}

// Update переводит доставку в in_transit или delivered. Статус заказа
// меняется в той же транзакции, при delivered фиксируется дистанция.
func (h *DeliveryHandler) Update(w http.ResponseWriter, r *http.Request) {
	handlerName := "UpdateDelivery"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		respondWithError(w, http.StatusBadRequest, "ID заказа не указан", handlerName)
		return
	}

	userID, role := Identity(r)

	var req model.UpdateDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "некорректное тело запроса", handlerName)
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), handlerName)
		return
	}

	// Курьер работает только со своей доставкой
	if role == model.RoleRider {
		delivery, err := h.storage.GetDeliveryByOrder(r.Context(), orderID)
		if err != nil {
			respondWithDomainError(w, err, handlerName)
			return
		}
		if delivery.RiderID != userID {
			respondWithDomainError(w, errNotOwner, handlerName)
			return
		}
	}

	order, delivery, err := h.storage.UpdateDeliveryStatus(r.Context(), orderID, req.Status, role, req.DistanceKm)
	if err != nil {
		log.Printf("Ошибка обновления доставки по заказу %s: %v", orderID, err)
		respondWithDomainError(w, err, handlerName)
		return
	}

	h.cache.Invalidate(r.Context(), orderID)

	message := fmt.Sprintf("Заказ %s в пути.", orderID)
	if order.Status == model.OrderDelivered {
		message = fmt.Sprintf("Заказ %s доставлен.", orderID)
	}
	h.dispatcher.Enqueue(r.Context(), notify.Event{
		UserID:  order.ShopkeeperID,
		Title:   "Order Update",
		Message: message,
		Type:    notify.TypeOrderUpdate,
	})

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "200").Inc()
	respondWithJSON(w, http.StatusOK, delivery)
}
