package api

import (
	"encoding/json"
	"log"
	"net/http"

	"gramsetu/internal/database"
	"gramsetu/internal/metrics"
	"gramsetu/internal/model"
	"gramsetu/internal/payout"
	"gramsetu/internal/validator"

	"github.com/prometheus/client_golang/prometheus"
)

// PayoutHandler запускает расчет и закрытие выплат по запросу администратора.
type PayoutHandler struct {
	processor *payout.Processor
}

// NewPayoutHandler создает новый экземпляр PayoutHandler.
func NewPayoutHandler(processor *payout.Processor) *PayoutHandler {
	return &PayoutHandler{processor: processor}
}

// Process рассчитывает выплаты по списку заказов или по всем доставленным.
// Ошибки по отдельным заказам возвращаются в теле, не прерывая пакет.
func (h *PayoutHandler) Process(w http.ResponseWriter, r *http.Request) {
	handlerName := "ProcessPayouts"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	if !h.requireAdmin(w, r, handlerName) {
		return
	}

	var req model.ProcessPayoutsRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "некорректное тело запроса", handlerName)
			return
		}
		if err := validator.ValidateStruct(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error(), handlerName)
			return
		}
	}

	result, err := h.processor.ProcessBatch(r.Context(), req.OrderIDs, req.RatePerKm)
	if err != nil {
		log.Printf("Ошибка пакетного расчета выплат: %v", err)
		respondWithDomainError(w, err, handlerName)
		return
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "200").Inc()
	respondWithJSON(w, http.StatusOK, result)
}

// Settle закрывает все pending-выплаты, как это делает ночной планировщик.
func (h *PayoutHandler) Settle(w http.ResponseWriter, r *http.Request) {
	handlerName := "SettlePayouts"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	if !h.requireAdmin(w, r, handlerName) {
		return
	}

	stats, err := h.processor.RunRollup(r.Context())
	if err != nil {
		log.Printf("Ошибка закрытия выплат: %v", err)
		respondWithDomainError(w, err, handlerName)
		return
	}
	if stats == nil {
		stats = []database.SettlementStat{}
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "200").Inc()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"settlements": stats})
}

func (h *PayoutHandler) requireAdmin(w http.ResponseWriter, r *http.Request, handlerName string) bool {
	if _, role := Identity(r); role != model.RoleAdmin {
		respondWithError(w, http.StatusForbidden, "операция доступна только администратору", handlerName)
		return false
	}
	return true
}
