package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gramsetu/internal/generator"
	"gramsetu/internal/model"
)

// Генератор нагрузки: периодически отправляет случайные заказы в API
// от имени тестового магазина.
type LoadGen struct {
	client       *http.Client
	baseURL      string
	shopkeeperID string
	warehouseID  string
	itemIDs      []string
}

// NewLoadGen создает генератор нагрузки.
func NewLoadGen(baseURL, shopkeeperID, warehouseID string, itemIDs []string) *LoadGen {
	return &LoadGen{
		client:       &http.Client{Timeout: 10 * time.Second},
		baseURL:      strings.TrimRight(baseURL, "/"),
		shopkeeperID: shopkeeperID,
		warehouseID:  warehouseID,
		itemIDs:      itemIDs,
	}
}

// sendOrder отправляет один случайный заказ.
func (g *LoadGen) sendOrder(ctx context.Context) error {
	orderReq := generator.NewOrderRequest(g.warehouseID, g.itemIDs)
	body, err := json.Marshal(orderReq)
	if err != nil {
		return fmt.Errorf("ошибка сериализации заказа: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", g.shopkeeperID)
	req.Header.Set("X-User-Role", model.RoleShopkeeper)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API вернул %d: %s", resp.StatusCode, string(raw))
	}

	var order model.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return fmt.Errorf("ошибка парсинга ответа: %w", err)
	}

	fmt.Printf("Создан заказ %s на сумму %d пайс\n", order.ID, order.TotalAmount)
	return nil
}

// Run запускает цикл отправки заказов.
func (g *LoadGen) Run(ctx context.Context, interval time.Duration) {
	log.Println("Генератор нагрузки запущен. Нажмите CTRL+C для остановки.")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Генератор нагрузки останавливается.")
			return
		case <-ticker.C:
			if err := g.sendOrder(ctx); err != nil {
				log.Printf("Ошибка создания заказа: %v", err)
			}
		}
	}
}

func main() {
	baseURL := flag.String("url", "http://localhost:8081", "Базовый URL API")
	shopkeeperID := flag.String("shopkeeper", "", "ID тестового магазина")
	warehouseID := flag.String("warehouse", "", "ID склада")
	items := flag.String("items", "", "ID товаров склада через запятую")
	interval := flag.Duration("interval", 2*time.Second, "Интервал между заказами")
	flag.Parse()

	if *shopkeeperID == "" || *warehouseID == "" || *items == "" {
		flag.Usage()
		os.Exit(1)
	}

	itemIDs := strings.Split(*items, ",")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
		<-shutdown
		cancel()
	}()

	gen := NewLoadGen(*baseURL, *shopkeeperID, *warehouseID, itemIDs)
	gen.Run(ctx, *interval)
}
