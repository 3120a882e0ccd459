package api

import (
	"context"
	"net/http"

	"gramsetu/internal/model"
)

// Аутентификация вынесена за периметр сервиса: шлюз проставляет
// заголовки X-User-ID и X-User-Role уже проверенного пользователя.
// X-User-ID содержит доменный ID актора (магазина, курьера, администратора).
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "role"
)

var knownRoles = map[string]bool{
	model.RoleShopkeeper: true,
	model.RoleWarehouse:  true,
	model.RoleRider:      true,
	model.RoleAdmin:      true,
}

// IdentityMiddleware извлекает личность пользователя из заголовков.
// Без X-User-ID запрос отклоняется, неизвестная роль тоже.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(HeaderUserID)
		role := r.Header.Get(HeaderUserRole)

		if userID == "" {
			respondWithError(w, http.StatusUnauthorized, "заголовок X-User-ID обязателен", "identity")
			return
		}
		if !knownRoles[role] {
			respondWithError(w, http.StatusUnauthorized, "неизвестная роль пользователя", "identity")
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserID, userID)
		ctx = context.WithValue(ctx, ctxRole, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Identity возвращает ID и роль пользователя из контекста запроса.
func Identity(r *http.Request) (userID, role string) {
	userID, _ = r.Context().Value(ctxUserID).(string)
	role, _ = r.Context().Value(ctxRole).(string)
	return userID, role
}
