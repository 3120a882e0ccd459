package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"gramsetu/internal/database"
	"gramsetu/internal/location"
	"gramsetu/internal/metrics"
	"gramsetu/internal/model"
	"gramsetu/internal/validator"

	"github.com/prometheus/client_golang/prometheus"
)

// Параметры поиска складов по умолчанию.
const (
	defaultRadiusKm = 50.0
	defaultLimit    = 20
)

// GeoHandler обрабатывает геозапросы: поиск складов и позиции курьеров.
type GeoHandler struct {
	storage   database.Storage
	locations *location.Service
}

// NewGeoHandler создает новый экземпляр GeoHandler.
func NewGeoHandler(storage database.Storage, locations *location.Service) *GeoHandler {
	return &GeoHandler{storage: storage, locations: locations}
}

// NearbyWarehouses возвращает активные склады в радиусе от точки,
// отсортированные по дистанции.
func (h *GeoHandler) NearbyWarehouses(w http.ResponseWriter, r *http.Request) {
	handlerName := "NearbyWarehouses"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	query := r.URL.Query()
	lat, latErr := strconv.ParseFloat(query.Get("latitude"), 64)
	lon, lonErr := strconv.ParseFloat(query.Get("longitude"), 64)
	if latErr != nil || lonErr != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		respondWithError(w, http.StatusBadRequest, "некорректные координаты", handlerName)
		return
	}

	radius := defaultRadiusKm
	if raw := query.Get("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "некорректный радиус", handlerName)
			return
		}
		radius = parsed
	}

	limit := defaultLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "некорректный лимит", handlerName)
			return
		}
		limit = parsed
	}

	warehouses, err := h.storage.NearbyWarehouses(r.Context(), lat, lon, radius, limit)
	if err != nil {
		log.Printf("Ошибка поиска складов: %v", err)
		respondWithDomainError(w, err, handlerName)
		return
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "200").Inc()
	respondWithJSON(w, http.StatusOK, warehouses)
}

// UpdateRiderLocation сохраняет позицию курьера в Redis с TTL.
func (h *GeoHandler) UpdateRiderLocation(w http.ResponseWriter, r *http.Request) {
	handlerName := "UpdateRiderLocation"
	timer := prometheus.NewTimer(metrics.HttpRequestDuration.WithLabelValues(handlerName))
	defer timer.ObserveDuration()

	userID, role := Identity(r)
	if role != model.RoleRider {
		respondWithError(w, http.StatusForbidden, "позицию может передавать только курьер", handlerName)
		return
	}

	var req model.RiderLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "некорректное тело запроса", handlerName)
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), handlerName)
		return
	}

	if err := h.locations.Set(r.Context(), userID, req.Latitude, req.Longitude); err != nil {
		log.Printf("Ошибка сохранения позиции курьера %s: %v", userID, err)
		respondWithError(w, http.StatusInternalServerError, "не удалось сохранить позицию", handlerName)
		return
	}

	metrics.HttpRequestsTotal.WithLabelValues(handlerName, "204").Inc()
	w.WriteHeader(http.StatusNoContent)
}
