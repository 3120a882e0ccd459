package api

import (
	"context"
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

// OrderHandler обрабатывает HTTP-запросы, связанные с заказами.
type OrderHandler struct {
	storage    database.Storage  // Используем интерфейс
	cache      cache.Cache       // Используем интерфейс
	dispatcher notify.Dispatcher // Уведомления fire-and-forget
}

// NewOrderHandler создает новый экземпляр OrderHandler.
func NewOrderHandler(storage database.Storage, cache cache.Cache, dispatcher notify.Dispatcher) *OrderHandler {
	return &OrderHandler{storage: storage, cache: cache, dispatcher: dispatcher}
}

// Create создает заказ от имени магазина, списывая остатки склада.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	handlerName := "CreateOrder"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	userID, role := Identity(r)
	if role != model.RoleShopkeeper && role != model.RoleAdmin {
		respondWithError(w, http.StatusForbidden, "заказ может создать только магазин", handlerName)
		return
	}

	var req model.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "некорректное тело запроса", handlerName)
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), handlerName)
		return
	}

	order, err := h.storage.CreateOrder(r.Context(), userID, &req)
	if err != nil {
		log.Printf("Ошибка создания заказа: %v", err)
		respondWithDomainError(w, err, handlerName)
		return
	}

	h.cache.Set(r.Context(), order.ID, order)
	metrics.OrdersCreated.Inc()

	// Уведомляем администратора склада о новом заказе
	if warehouse, whErr := h.storage.GetWarehouse(r.Context(), order.WarehouseID); whErr == nil {
		h.dispatcher.Enqueue(r.Context(), notify.Event{
			UserID:  warehouse.AdminID,
			Title:   "New Order Received",
			Message: fmt.Sprintf("Новый заказ %s на сумму ₹%.2f.", order.ID, float64(order.TotalAmount)/100),
			Type:    notify.TypeOrderUpdate,
		})
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "201").Inc()
	respondWithJSON(w, http.StatusCreated, order)
}

// GetByID ищет заказ по ID сначала в кэше, затем в БД.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	handlerName := "GetOrderByID"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		respondWithError(w, http.StatusBadRequest, "ID заказа не указан", handlerName)
		return
	}

	// Поиск в кэше. Передаем контекст (r.Context()) для трейсинга.
	if order, found := h.cache.Get(r.Context(), orderID); found {
		log.Printf("КЭШ ХИТ: %s", orderID)
		metrics.CacheHits.Inc()
		metrics.HttpRequestsTotal.WithLabelValues(handlerName, "200").Inc()
		respondWithJSON(w, http.StatusOK, order)
		return
	}

	log.Printf("КЭШ ПРОМАХ: %s. Запрос к БД.", orderID)
	metrics.CacheMisses.Inc()

	order, err := h.storage.GetOrderByID(r.Context(), orderID)
	if err != nil {
		respondWithDomainError(w, err, handlerName)
		return
	}

	h.cache.Set(r.Context(), orderID, order)

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "200").Inc()
	respondWithJSON(w, http.StatusOK, order)
}

// List возвращает заказы, видимые актору: магазин видит свои,
// склад - заказы своего склада, администратор - все.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	handlerName := "ListOrders"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	userID, role := Identity(r)

	var (
		orders []model.Order
		err    error
	)
	switch role {
	case model.RoleShopkeeper:
		orders, err = h.storage.ListOrders(r.Context(), "shopkeeper_id", userID)
	case model.RoleWarehouse:
		warehouseID := r.URL.Query().Get("warehouse_id")
		if warehouseID == "" {
			respondWithError(w, http.StatusBadRequest, "параметр warehouse_id обязателен", handlerName)
			return
		}
		orders, err = h.storage.ListOrders(r.Context(), "warehouse_id", warehouseID)
	case model.RoleAdmin:
		orders, err = h.storage.GetAllOrders(r.Context())
	default:
		respondWithError(w, http.StatusForbidden, "роль не имеет доступа к списку заказов", handlerName)
		return
	}
	if err != nil {
		respondWithDomainError(w, err, handlerName)
		return
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "200").Inc()
	respondWithJSON(w, http.StatusOK, orders)
}

// Accept переводит заказ в accepted от имени склада.
func (h *OrderHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "AcceptOrder", model.OrderAccepted, "")
}

// Reject отклоняет заказ с обязательной причиной и возвращает остатки.
func (h *OrderHandler) Reject(w http.ResponseWriter, r *http.Request) {
	handlerName := "RejectOrder"

	var req model.RejectOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "некорректное тело запроса", handlerName)
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "причина отклонения обязательна", handlerName)
		return
	}

	h.transition(w, r, handlerName, model.OrderRejected, req.Reason)
}

// Cancel отменяет заказ. Магазин может отменить только до назначения курьера.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "CancelOrder", model.OrderCancelled, "")
}

// transition выполняет смену статуса заказа с проверкой роли и графа переходов.
func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, handlerName, next, reason string) {
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		respondWithError(w, http.StatusBadRequest, "ID заказа не указан", handlerName)
		return
	}

	userID, role := Identity(r)
	if err := h.checkOwnership(r.Context(), orderID, userID, role); err != nil {
		respondWithDomainError(w, err, handlerName)
		return
	}

	order, err := h.storage.UpdateOrderStatus(r.Context(), orderID, next, role, reason)
	if err != nil {
		log.Printf("Ошибка перехода заказа %s -> %s: %v", orderID, next, err)
		respondWithDomainError(w, err, handlerName)
		return
	}

	// Запись в кэше устарела
	h.cache.Invalidate(r.Context(), orderID)

	h.notifyShopkeeper(r, order)

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "200").Inc()
	respondWithJSON(w, http.StatusOK, order)
}

// Assign назначает курьера на принятый заказ.
func (h *OrderHandler) Assign(w http.ResponseWriter, r *http.Request) {
	handlerName := "AssignRider"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	orderID := chi.URLParam(r, "orderID")

	userID, role := Identity(r)
	if role != model.RoleWarehouse && role != model.RoleAdmin {
		respondWithError(w, http.StatusForbidden, "назначать курьера может только склад", handlerName)
		return
	}
	if err := h.checkOwnership(r.Context(), orderID, userID, role); err != nil {
		respondWithDomainError(w, err, handlerName)
		return
	}

	var req model.AssignRiderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "некорректное тело запроса", handlerName)
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), handlerName)
		return
	}

	delivery, err := h.storage.AssignRider(r.Context(), orderID, req.RiderID)
	if err != nil {
		log.Printf("Ошибка назначения курьера на заказ %s: %v", orderID, err)
		respondWithDomainError(w, err, handlerName)
		return
	}

	h.cache.Invalidate(r.Context(), orderID)

	// Уведомляем курьера о новой доставке
	if rider, riderErr := h.storage.GetRider(r.Context(), req.RiderID); riderErr == nil {
		h.dispatcher.Enqueue(r.Context(), notify.Event{
			UserID:  rider.UserID,
			Title:   "New Delivery Assignment",
			Message: fmt.Sprintf("Вам назначена доставка заказа %s.", orderID),
			Type:    notify.TypeRiderAssignment,
		})
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "201").Inc()
	respondWithJSON(w, http.StatusCreated, delivery)
}

// checkOwnership не дает актору менять чужой заказ: магазин ограничен
// своими заказами, администратор склада - заказами своего склада.
// Глобальный администратор не ограничен, курьера отсекает граф переходов.
func (h *OrderHandler) checkOwnership(ctx context.Context, orderID, userID, role string) error {
	if role != model.RoleShopkeeper && role != model.RoleWarehouse {
		return nil
	}

	order, err := h.storage.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}

	switch role {
	case model.RoleShopkeeper:
		if order.ShopkeeperID != userID {
			return errNotOwner
		}
	case model.RoleWarehouse:
		warehouse, err := h.storage.GetWarehouse(ctx, order.WarehouseID)
		if err != nil {
			return err
		}
		if warehouse.AdminID != userID {
			return errNotOwner
		}
	}
	return nil
}

// notifyShopkeeper отправляет магазину уведомление о смене статуса заказа.
func (h *OrderHandler) notifyShopkeeper(r *http.Request, order *model.Order) {
	message := fmt.Sprintf("Статус вашего заказа %s: %s.", order.ID, order.Status)
	if order.Status == model.OrderRejected && order.RejectionReason != "" {
		message = fmt.Sprintf("Заказ %s отклонен: %s", order.ID, order.RejectionReason)
	}
	h.dispatcher.Enqueue(r.Context(), notify.Event{
		UserID:  order.ShopkeeperID,
		Title:   "Order Update",
		Message: message,
		Type:    notify.TypeOrderUpdate,
	})
}
