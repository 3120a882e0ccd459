package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gramsetu/internal/api"
	"gramsetu/internal/cache"
	"gramsetu/internal/config"
	"gramsetu/internal/database"
	"gramsetu/internal/location"
	"gramsetu/internal/metrics"
	"gramsetu/internal/notify"
	"gramsetu/internal/payout"
	"gramsetu/internal/tracing"
)

func main() {
	cfg := config.Get()

	metrics.Init()
	shutdownTracer := tracing.InitTracerProvider("gramsetu-api")
	defer shutdownTracer()

	// Инициализация хранилища
	// Путь указывает на папку с миграциями
	storage, err := database.New(cfg.Postgres.URL, "./internal/database/migrations")
	if err != nil {
		log.Fatalf("Ошибка инициализации хранилища: %v", err)
	}
	defer storage.Close()

	// Инициализация кэша с прогревом из БД
	orderCache := cache.NewLRUCache(cfg.Cache.Size)
	if err := cache.WarmUp(context.Background(), storage, orderCache); err != nil {
		log.Printf("Ошибка при прогреве кэша: %v", err)
	}

	// Kafka-диспетчер уведомлений
	dispatcher := notify.NewKafkaDispatcher(cfg.Kafka)
	defer dispatcher.Close()

	// Redis-хранилище позиций курьеров
	locations := location.New(cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.LocationTTL)
	defer locations.Close()

	// Процессор выплат и планировщик ночного расчета
	processor := payout.NewProcessor(storage, dispatcher, locations, cfg.Payout.RatePerKm)
	scheduler := payout.NewScheduler(processor, cfg.Payout.RollupInterval, cfg.Payout.MaxRetries)

	ctx, cancel := context.WithCancel(context.Background())
	go scheduler.Run(ctx)

	// Запуск HTTP-сервера
	server := api.NewServer(cfg.HTTP.Port, storage, orderCache, dispatcher, locations, processor)
	go func() {
		if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Ошибка запуска HTTP-сервера: %v", err)
		}
	}()

	// Ожидание сигнала для корректного завершения работы
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	log.Println("Сервис останавливается...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Ошибка остановки HTTP-сервера: %v", err)
	}

	log.Println("Сервис успешно остановлен.")
}
