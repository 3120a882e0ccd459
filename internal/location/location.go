package location

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Location - последняя известная позиция курьера.
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// Service хранит позиции курьеров в Redis с TTL.
// Протухшая позиция означает, что курьер неактивен.
type Service struct {
	rdb    *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// New создает сервис позиций курьеров поверх Redis.
func New(addr string, db int, ttl time.Duration) *Service {
	return &Service{
		rdb: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
		ttl:    ttl,
		tracer: otel.Tracer("rider-location"),
	}
}

// Key возвращает ключ позиции курьера в Redis.
func Key(riderID string) string {
	return fmt.Sprintf("rider:location:%s", riderID)
}

// Set сохраняет позицию курьера с TTL.
func (s *Service) Set(ctx context.Context, riderID string, lat, lon float64) error {
	ctx, span := s.tracer.Start(ctx, "Location.Set")
	defer span.End()

	loc := Location{Latitude: lat, Longitude: lon, Timestamp: time.Now()}
	payload, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("ошибка сериализации позиции: %w", err)
	}

	if err := s.rdb.Set(ctx, Key(riderID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи позиции в Redis: %w", err)
	}
	return nil
}

// Get возвращает позицию курьера, если она еще не протухла.
func (s *Service) Get(ctx context.Context, riderID string) (*Location, bool, error) {
	ctx, span := s.tracer.Start(ctx, "Location.Get")
	defer span.End()

	payload, err := s.rdb.Get(ctx, Key(riderID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения позиции из Redis: %w", err)
	}

	var loc Location
	if err := json.Unmarshal(payload, &loc); err != nil {
		return nil, false, fmt.Errorf("ошибка разбора позиции: %w", err)
	}
	return &loc, true, nil
}

// Close закрывает соединение с Redis.
func (s *Service) Close() error {
	return s.rdb.Close()
}
