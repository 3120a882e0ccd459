package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gramsetu/internal/config"
	"gramsetu/internal/database"
	"gramsetu/internal/metrics"
	"gramsetu/internal/notifier"
	"gramsetu/internal/tracing"
)

// Воркер уведомлений: читает события из Kafka, сохраняет их в БД
// и опционально доставляет через внешнюю edge-функцию.
func main() {
	cfg := config.Get()

	metrics.Init()
	shutdownTracer := tracing.InitTracerProvider("gramsetu-notifier")
	defer shutdownTracer()

	storage, err := database.New(cfg.Postgres.URL, "./internal/database/migrations")
	if err != nil {
		log.Fatalf("Ошибка инициализации хранилища: %v", err)
	}
	defer storage.Close()

	consumer := notifier.NewConsumer(cfg.Kafka, storage, cfg.Notifier.EdgeFunctionURL, cfg.Notifier.HTTPTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	go consumer.Run(ctx)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	log.Println("Воркер уведомлений останавливается...")
	cancel()
	log.Println("Воркер уведомлений остановлен.")
}
