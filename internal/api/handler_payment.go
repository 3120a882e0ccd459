package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"gramsetu/internal/database"
	"gramsetu/internal/metrics"
	"gramsetu/internal/model"
	"gramsetu/internal/notify"
	"gramsetu/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// PaymentHandler обрабатывает платежи по заказам.
type PaymentHandler struct {
	storage    database.Storage
	dispatcher notify.Dispatcher
}

// NewPaymentHandler создает новый экземпляр PaymentHandler.
func NewPaymentHandler(storage database.Storage, dispatcher notify.Dispatcher) *PaymentHandler {
	return &PaymentHandler{storage: storage, dispatcher: dispatcher}
}

// Create создает платеж магазина по заказу. Сумма должна точно совпадать
// с суммой заказа, повторный платеж по заказу отклоняется.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	handlerName := "CreatePayment"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	userID, role := Identity(r)
	if role != model.RoleShopkeeper && role != model.RoleAdmin {
		respondWithError(w, http.StatusForbidden, "платеж может создать только магазин", handlerName)
		return
	}

	var req model.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "некорректное тело запроса", handlerName)
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), handlerName)
		return
	}

	// Магазин платит только по собственным заказам
	if role == model.RoleShopkeeper {
		order, err := h.storage.GetOrderByID(r.Context(), req.OrderID)
		if err != nil {
			respondWithDomainError(w, err, handlerName)
			return
		}
		if order.ShopkeeperID != userID {
			respondWithDomainError(w, errNotOwner, handlerName)
			return
		}
	}

	payment, err := h.storage.CreatePayment(r.Context(), userID, &req)
	if err != nil {
		log.Printf("Ошибка создания платежа по заказу %s: %v", req.OrderID, err)
		respondWithDomainError(w, err, handlerName)
		return
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "201").Inc()
	respondWithJSON(w, http.StatusCreated, payment)
}

// Finalize подтверждает или отклоняет платеж. Доступно только
// администратору склада, которому принадлежит платеж.
func (h *PaymentHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	handlerName := "FinalizePayment"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		respondWithError(w, http.StatusBadRequest, "ID платежа не указан", handlerName)
		return
	}

	userID, role := Identity(r)
	if role != model.RoleWarehouse && role != model.RoleAdmin {
		respondWithError(w, http.StatusForbidden, "финализировать платеж может только склад", handlerName)
		return
	}

	var req model.PaymentActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "некорректное тело запроса", handlerName)
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), handlerName)
		return
	}

	payment, err := h.storage.GetPaymentByID(r.Context(), paymentID)
	if err != nil {
		respondWithDomainError(w, err, handlerName)
		return
	}

	// Склад может работать только со своими платежами
	if role == model.RoleWarehouse {
		warehouse, whErr := h.storage.GetWarehouse(r.Context(), payment.WarehouseID)
		if whErr != nil {
			respondWithDomainError(w, whErr, handlerName)
			return
		}
		if warehouse.AdminID != userID {
			respondWithError(w, http.StatusForbidden, "платеж принадлежит другому складу", handlerName)
			return
		}
	}

	status := model.PaymentCompleted
	if req.Action == "reject" {
		status = model.PaymentFailed
	}

	payment, err = h.storage.FinalizePayment(r.Context(), paymentID, status, req.Notes)
	if err != nil {
		log.Printf("Ошибка финализации платежа %s: %v", paymentID, err)
		respondWithDomainError(w, err, handlerName)
		return
	}

	// Уведомляем плательщика об итоге
	h.dispatcher.Enqueue(r.Context(), notify.Event{
		UserID:  payment.PayerID,
		Title:   "Payment Update",
		Message: fmt.Sprintf("Платеж %s по заказу %s: %s.", payment.TransactionID, payment.OrderID, payment.Status),
		Type:    notify.TypePayment,
	})

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "200").Inc()
	respondWithJSON(w, http.StatusOK, payment)
}
