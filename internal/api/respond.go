package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"gramsetu/internal/database"
	"gramsetu/internal/metrics"
	"gramsetu/internal/state"
)

// respondWithJSON вспомогательная функция для отправки JSON-ответов.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string, handlerName string) {
	metrics.HttpRequestsTotal.WithLabelValues(handlerName, strconv.Itoa(code)).Inc()
	respondWithJSON(w, code, map[string]string{"error": message})
}

// errNotOwner - актор пытается работать с чужим объектом (заказом другого
// магазина, доставкой другого курьера, платежом другого склада).
var errNotOwner = errors.New("объект принадлежит другому актору")

// statusForError маппит доменные ошибки хранилища и переходов на HTTP-статусы.
func statusForError(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, state.ErrForbiddenTransition),
		errors.Is(err, errNotOwner):
		return http.StatusForbidden
	case errors.Is(err, database.ErrDuplicatePayment),
		errors.Is(err, database.ErrDeliveryExists),
		errors.Is(err, database.ErrPaymentFinalized),
		errors.Is(err, database.ErrPayoutAlreadyComputed):
		return http.StatusConflict
	case errors.Is(err, state.ErrInvalidTransition),
		errors.Is(err, state.ErrUnknownState),
		errors.Is(err, database.ErrItemNotInWarehouse),
		errors.Is(err, database.ErrInsufficientStock),
		errors.Is(err, database.ErrAmountMismatch),
		errors.Is(err, database.ErrRiderWrongWarehouse),
		errors.Is(err, database.ErrOrderNotDelivered):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondWithDomainError отправляет ответ по доменной ошибке.
func respondWithDomainError(w http.ResponseWriter, err error, handlerName string) {
	code := statusForError(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		// Внутренние детали наружу не отдаем
		message = "внутренняя ошибка сервера"
	}
	respondWithError(w, code, message, handlerName)
}
