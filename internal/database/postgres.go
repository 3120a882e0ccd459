package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"gramsetu/internal/metrics"
	"gramsetu/internal/model"
	"gramsetu/internal/state"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Доменные ошибки хранилища. Хэндлеры маппят их на HTTP-статусы.
var (
	ErrNotFound              = errors.New("запись не найдена")
	ErrItemNotInWarehouse    = errors.New("товар не принадлежит складу")
	ErrInsufficientStock     = errors.New("недостаточно остатков на складе")
	ErrAmountMismatch        = errors.New("сумма платежа не совпадает с суммой заказа")
	ErrDuplicatePayment      = errors.New("платеж по этому заказу уже создан")
	ErrPaymentFinalized      = errors.New("платеж уже финализирован")
	ErrRiderWrongWarehouse   = errors.New("курьер не принадлежит складу заказа")
	ErrDeliveryExists        = errors.New("доставка по этому заказу уже создана")
	ErrOrderNotDelivered     = errors.New("заказ еще не доставлен")
	ErrPayoutAlreadyComputed = errors.New("выплата по этой доставке уже рассчитана")
)

// uniqueViolation - код ошибки Postgres для нарушения уникальности.
const uniqueViolation = "23505"

// SettlementStat - итог ночного расчета по одному складу.
type SettlementStat struct {
	WarehouseID   string  `json:"warehouse_id" db:"warehouse_id"`
	SettledCount  int     `json:"settled_count" db:"settled_count"`
	TotalAmount   int64   `json:"total_amount" db:"total_amount"`
	TotalDistance float64 `json:"total_distance" db:"total_distance"`
}

//go:generate mockgen -source=postgres.go -destination=./mocks/storage_mock.go -package=mocks Storage

// Storage определяет интерфейс для работы с хранилищем платформы.
type Storage interface {
	CreateOrder(ctx context.Context, shopkeeperID string, req *model.CreateOrderRequest) (*model.Order, error)
	GetOrderByID(ctx context.Context, orderID string) (*model.Order, error)
	ListOrders(ctx context.Context, field, actorID string) ([]model.Order, error)
	GetAllOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, next, role, reason string) (*model.Order, error)

	AssignRider(ctx context.Context, orderID, riderID string) (*model.Delivery, error)
	GetDeliveryByOrder(ctx context.Context, orderID string) (*model.Delivery, error)
	UpdateDeliveryStatus(ctx context.Context, orderID, next, role string, distanceKm float64) (*model.Order, *model.Delivery, error)

	CreatePayment(ctx context.Context, payerID string, req *model.CreatePaymentRequest) (*model.Payment, error)
	GetPaymentByID(ctx context.Context, paymentID string) (*model.Payment, error)
	FinalizePayment(ctx context.Context, paymentID, status, notes string) (*model.Payment, error)

	ApplyPayout(ctx context.Context, orderID string, distanceKm float64, ratePerKm int64) (*model.Payout, error)
	ListPayoutCandidates(ctx context.Context) ([]string, error)
	SettlePayouts(ctx context.Context) ([]SettlementStat, error)

	GetWarehouse(ctx context.Context, warehouseID string) (*model.Warehouse, error)
	NearbyWarehouses(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]model.Warehouse, error)
	GetRider(ctx context.Context, riderID string) (*model.Rider, error)

	SaveNotification(ctx context.Context, n *model.Notification) error
	Close() error
}

// postgresStorage обеспечивает взаимодействие с базой данных PostgreSQL.
// Это конкретная реализация интерфейса Storage.
type postgresStorage struct {
	db     *sqlx.DB
	tracer trace.Tracer // Для трассировки
}

// New создает подключение к БД, применяет миграции и возвращает
// экземпляр, реализующий интерфейс Storage.
func New(dbURL, migrationsPath string) (Storage, error) {
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к БД: %w", err)
	}

	// Запуск миграций
	if err := runMigrations(dbURL, migrationsPath); err != nil {
		return nil, fmt.Errorf("ошибка применения миграций: %w", err)
	}

	return &postgresStorage{
		db:     db,
		tracer: otel.Tracer("postgres-storage"),
	}, nil
}

// runMigrations выполняет миграции БД до последней версии.
func runMigrations(dbURL, migrationsPath string) error {
	log.Println("Поиск и применение миграций...")

	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), dbURL)
	if err != nil {
		return fmt.Errorf("не удалось создать экземпляр миграции: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("не удалось выполнить миграции: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("не удалось получить версию миграции: %w", err)
	}

	if dirty {
		log.Printf("БД в 'грязном' состоянии (dirty). Версия: %d. Рекомендуется проверка.", version)
	}

	log.Printf("Миграции успешно применены. Текущая версия БД: %d", version)
	return nil
}

// beginTx - общий шаблон транзакции: откат при ошибке или панике.
func (s *postgresStorage) beginTx(ctx context.Context) (*sqlx.Tx, func(*error), error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	finish := func(errp *error) {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if *errp != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Printf("Ошибка отката транзакции (после ошибки: %v): %v", *errp, rbErr)
			}
		}
	}
	return tx, finish, nil
}

// CreateOrder создает заказ: блокирует строки остатков (FOR UPDATE),
// проверяет принадлежность товара складу и достаточность остатков,
// списывает остатки, фиксирует снимки цен и итоговую сумму - все в одной транзакции.
func (s *postgresStorage) CreateOrder(ctx context.Context, shopkeeperID string, req *model.CreateOrderRequest) (order *model.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "DB.CreateOrder")
	defer span.End()

	tx, finish, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer finish(&err)

	var warehouseID string
	if err = tx.GetContext(ctx, &warehouseID, `SELECT id FROM warehouses WHERE id = $1 AND is_active`, req.WarehouseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("%w: склад %s", ErrNotFound, req.WarehouseID)
		}
		return nil, err
	}

	order = &model.Order{
		ID:           uuid.New().String(),
		ShopkeeperID: shopkeeperID,
		WarehouseID:  req.WarehouseID,
		Status:       model.OrderPending,
	}

	// Блокировка строк остатков сериализует конкурентные заказы на одни и те же товары.
	// Единый порядок блокировки: два заказа с пересекающимися позициями
	// не могут взять блокировки навстречу друг другу.
	sort.Slice(req.Items, func(i, j int) bool { return req.Items[i].ItemID < req.Items[j].ItemID })
	for _, line := range req.Items {
		var item model.Item
		query := `SELECT id, warehouse_id, name, price, quantity FROM items WHERE id = $1 AND warehouse_id = $2 FOR UPDATE`
		if err = tx.GetContext(ctx, &item, query, line.ItemID, req.WarehouseID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = fmt.Errorf("%w: товар %s", ErrItemNotInWarehouse, line.ItemID)
			}
			return nil, err
		}

		if item.Quantity < line.Quantity {
			metrics.StockConflicts.Inc()
			err = fmt.Errorf("%w: товар %q (есть %d, нужно %d)", ErrInsufficientStock, item.Name, item.Quantity, line.Quantity)
			return nil, err
		}

		if _, err = tx.ExecContext(ctx, `UPDATE items SET quantity = quantity - $1 WHERE id = $2`, line.Quantity, line.ItemID); err != nil {
			return nil, fmt.Errorf("ошибка списания остатков: %w", err)
		}

		order.Items = append(order.Items, model.OrderItem{
			OrderID:  order.ID,
			ItemID:   item.ID,
			Name:     item.Name,
			Quantity: line.Quantity,
			Price:    item.Price, // Снимок цены на момент заказа
		})
		order.TotalAmount += item.Price * int64(line.Quantity)
	}

	orderQuery := `INSERT INTO orders (id, shopkeeper_id, warehouse_id, status, total_amount) VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`
	if err = tx.GetContext(ctx, order, orderQuery, order.ID, order.ShopkeeperID, order.WarehouseID, order.Status, order.TotalAmount); err != nil {
		return nil, fmt.Errorf("ошибка сохранения заказа: %w", err)
	}

	for i, oi := range order.Items {
		itemQuery := `INSERT INTO order_items (order_id, item_id, item_name, quantity, price) VALUES ($1, $2, $3, $4, $5) RETURNING id`
		if err = tx.GetContext(ctx, &order.Items[i].ID, itemQuery, oi.OrderID, oi.ItemID, oi.Name, oi.Quantity, oi.Price); err != nil {
			return nil, fmt.Errorf("ошибка сохранения позиции заказа: %w", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderByID извлекает заказ вместе с позициями.
func (s *postgresStorage) GetOrderByID(ctx context.Context, orderID string) (*model.Order, error) {
	ctx, span := s.tracer.Start(ctx, "DB.GetOrderByID")
	defer span.End()

	var order model.Order
	if err := s.db.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1`, orderID); err != nil {
		metrics.DBErrors.WithLabelValues("get_order").Inc()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: заказ %s", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("не удалось получить заказ: %w", err)
	}

	if err := s.db.SelectContext(ctx, &order.Items, `SELECT * FROM order_items WHERE order_id = $1 ORDER BY id`, orderID); err != nil {
		metrics.DBErrors.WithLabelValues("get_order_items").Inc()
		return nil, fmt.Errorf("не удалось получить позиции заказа: %w", err)
	}

	return &order, nil
}

// ListOrders возвращает заказы, отфильтрованные по актору.
// field - "shopkeeper_id" или "warehouse_id".
func (s *postgresStorage) ListOrders(ctx context.Context, field, actorID string) ([]model.Order, error) {
	ctx, span := s.tracer.Start(ctx, "DB.ListOrders")
	defer span.End()

	if field != "shopkeeper_id" && field != "warehouse_id" {
		return nil, fmt.Errorf("недопустимое поле фильтрации: %q", field)
	}

	var orders []model.Order
	query := fmt.Sprintf(`SELECT * FROM orders WHERE %s = $1 ORDER BY created_at DESC`, field)
	if err := s.db.SelectContext(ctx, &orders, query, actorID); err != nil {
		metrics.DBErrors.WithLabelValues("list_orders").Inc()
		return nil, fmt.Errorf("ошибка получения списка заказов: %w", err)
	}
	return orders, nil
}

// GetAllOrders извлекает все заказы с позициями для прогрева кэша.
func (s *postgresStorage) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	ctx, span := s.tracer.Start(ctx, "DB.GetAllOrders")
	defer span.End()

	// Один запрос с JOIN, чтобы избежать проблемы N+1.
	query := `
        SELECT
            o.id "id", o.shopkeeper_id "shopkeeper_id", o.warehouse_id "warehouse_id",
            o.status "status", o.total_amount "total_amount", o.rejection_reason "rejection_reason",
            o.created_at "created_at", o.updated_at "updated_at",
            oi.id "items.id", oi.order_id "items.order_id", oi.item_id "items.item_id",
            oi.item_name "items.item_name", oi.quantity "items.quantity", oi.price "items.price"
        FROM orders o
        LEFT JOIN order_items oi ON oi.order_id = o.id
        ORDER BY o.created_at DESC, oi.id`

	type fullOrderRow struct {
		model.Order
		Item model.OrderItem `db:"items"`
	}

	var rows []fullOrderRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		metrics.DBErrors.WithLabelValues("get_all_orders").Inc()
		return nil, fmt.Errorf("ошибка получения всех заказов: %w", err)
	}

	// Группируем позиции по заказам.
	ordersMap := make(map[string]*model.Order)
	var ordered []string
	for _, row := range rows {
		if _, exists := ordersMap[row.Order.ID]; !exists {
			order := row.Order
			order.Items = []model.OrderItem{}
			ordersMap[order.ID] = &order
			ordered = append(ordered, order.ID)
		}
		if row.Item.ID > 0 {
			order := ordersMap[row.Order.ID]
			order.Items = append(order.Items, row.Item)
		}
	}

	orders := make([]model.Order, 0, len(ordersMap))
	for _, id := range ordered {
		orders = append(orders, *ordersMap[id])
	}
	return orders, nil
}

// UpdateOrderStatus выполняет переход статуса заказа с проверкой по машине состояний.
// Отклонение и отмена возвращают списанные остатки на склад в той же транзакции.
func (s *postgresStorage) UpdateOrderStatus(ctx context.Context, orderID, next, role, reason string) (order *model.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "DB.UpdateOrderStatus")
	defer span.End()

	tx, finish, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer finish(&err)

	var current model.Order
	if err = tx.GetContext(ctx, &current, `SELECT * FROM orders WHERE id = $1 FOR UPDATE`, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("%w: заказ %s", ErrNotFound, orderID)
		}
		return nil, err
	}

	if err = state.Validate(current.Status, next, role); err != nil {
		return nil, err
	}

	// Возврат остатков при отклонении/отмене
	if next == model.OrderRejected || next == model.OrderCancelled {
		restoreQuery := `
            UPDATE items i SET quantity = i.quantity + oi.quantity
            FROM order_items oi
            WHERE oi.order_id = $1 AND oi.item_id = i.id`
		if _, err = tx.ExecContext(ctx, restoreQuery, orderID); err != nil {
			return nil, fmt.Errorf("ошибка возврата остатков: %w", err)
		}
	}

	updateQuery := `UPDATE orders SET status = $1, rejection_reason = $2, updated_at = now() WHERE id = $3`
	if _, err = tx.ExecContext(ctx, updateQuery, next, reason, orderID); err != nil {
		return nil, fmt.Errorf("ошибка обновления статуса заказа: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues(next).Inc()
	return s.GetOrderByID(ctx, orderID)
}

// AssignRider привязывает курьера к принятому заказу: создает доставку
// в статусе assigned и переводит заказ в assigned одной транзакцией.
func (s *postgresStorage) AssignRider(ctx context.Context, orderID, riderID string) (delivery *model.Delivery, err error) {
	ctx, span := s.tracer.Start(ctx, "DB.AssignRider")
	defer span.End()

	tx, finish, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer finish(&err)

	var order model.Order
	if err = tx.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1 FOR UPDATE`, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("%w: заказ %s", ErrNotFound, orderID)
		}
		return nil, err
	}

	if err = state.Validate(order.Status, model.OrderAssigned, model.RoleWarehouse); err != nil {
		return nil, err
	}

	var rider model.Rider
	if err = tx.GetContext(ctx, &rider, `SELECT * FROM riders WHERE id = $1`, riderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("%w: курьер %s", ErrNotFound, riderID)
		}
		return nil, err
	}
	if rider.WarehouseID != order.WarehouseID {
		err = fmt.Errorf("%w: курьер %s, склад %s", ErrRiderWrongWarehouse, riderID, order.WarehouseID)
		return nil, err
	}

	delivery = &model.Delivery{
		ID:      uuid.New().String(),
		OrderID: orderID,
		RiderID: riderID,
		Status:  model.DeliveryAssigned,
	}

	deliveryQuery := `INSERT INTO deliveries (id, order_id, rider_id, status) VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`
	if err = tx.GetContext(ctx, delivery, deliveryQuery, delivery.ID, delivery.OrderID, delivery.RiderID, delivery.Status); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			err = fmt.Errorf("%w: заказ %s", ErrDeliveryExists, orderID)
		}
		return nil, err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`, model.OrderAssigned, orderID); err != nil {
		return nil, fmt.Errorf("ошибка обновления статуса заказа: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues(model.OrderAssigned).Inc()
	return delivery, nil
}

// GetDeliveryByOrder извлекает доставку по ID заказа.
func (s *postgresStorage) GetDeliveryByOrder(ctx context.Context, orderID string) (*model.Delivery, error) {
	ctx, span := s.tracer.Start(ctx, "DB.GetDeliveryByOrder")
	defer span.End()

	var delivery model.Delivery
	query := `SELECT id, order_id, rider_id, status, distance_km, created_at, updated_at FROM deliveries WHERE order_id = $1`
	if err := s.db.GetContext(ctx, &delivery, query, orderID); err != nil {
		metrics.DBErrors.WithLabelValues("get_delivery").Inc()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: доставка для заказа %s", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("не удалось получить доставку: %w", err)
	}
	return &delivery, nil
}

// UpdateDeliveryStatus выполняет переход статуса доставки курьером.
// Переход зеркалируется на статус заказа; только вперед.
func (s *postgresStorage) UpdateDeliveryStatus(ctx context.Context, orderID, next, role string, distanceKm float64) (order *model.Order, delivery *model.Delivery, err error) {
	ctx, span := s.tracer.Start(ctx, "DB.UpdateDeliveryStatus")
	defer span.End()

	tx, finish, err := s.beginTx(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer finish(&err)

	var current model.Order
	if err = tx.GetContext(ctx, &current, `SELECT * FROM orders WHERE id = $1 FOR UPDATE`, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("%w: заказ %s", ErrNotFound, orderID)
		}
		return nil, nil, err
	}

	delivery = &model.Delivery{}
	deliveryQuery := `SELECT id, order_id, rider_id, status, distance_km, created_at, updated_at FROM deliveries WHERE order_id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, delivery, deliveryQuery, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("%w: доставка для заказа %s", ErrNotFound, orderID)
		}
		return nil, nil, err
	}

	// Статус заказа и доставки движутся синхронно, валидируем по заказу.
	if err = state.Validate(current.Status, next, role); err != nil {
		return nil, nil, err
	}

	// Дистанция фиксируется курьером при завершении доставки.
	if next == model.OrderDelivered && distanceKm > 0 {
		delivery.DistanceKm = distanceKm
	}

	if _, err = tx.ExecContext(ctx, `UPDATE deliveries SET status = $1, distance_km = $2, updated_at = now() WHERE id = $3`, next, delivery.DistanceKm, delivery.ID); err != nil {
		return nil, nil, fmt.Errorf("ошибка обновления доставки: %w", err)
	}
	delivery.Status = next

	if _, err = tx.ExecContext(ctx, `UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`, next, orderID); err != nil {
		return nil, nil, fmt.Errorf("ошибка обновления статуса заказа: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, err
	}

	metrics.OrderTransitions.WithLabelValues(next).Inc()
	order, err = s.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, delivery, nil
}

// newTransactionID генерирует внутренний идентификатор транзакции вида TXN-XXXXXXXXXXXX.
func newTransactionID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "TXN-" + strings.ToUpper(raw[:12])
}

// CreatePayment создает платеж магазина складу. Сумма обязана совпадать
// с суммой заказа, на пару (заказ, плательщик) допускается один платеж.
func (s *postgresStorage) CreatePayment(ctx context.Context, payerID string, req *model.CreatePaymentRequest) (payment *model.Payment, err error) {
	ctx, span := s.tracer.Start(ctx, "DB.CreatePayment")
	defer span.End()

	tx, finish, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer finish(&err)

	var order model.Order
	if err = tx.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1`, req.OrderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("%w: заказ %s", ErrNotFound, req.OrderID)
		}
		return nil, err
	}

	if req.Amount != order.TotalAmount {
		err = fmt.Errorf("%w: ожидается %d, получено %d", ErrAmountMismatch, order.TotalAmount, req.Amount)
		return nil, err
	}

	payment = &model.Payment{
		ID:            uuid.New().String(),
		OrderID:       order.ID,
		PayerID:       payerID,
		WarehouseID:   order.WarehouseID,
		Amount:        req.Amount,
		Mode:          req.Mode,
		Status:        model.PaymentPending,
		TransactionID: newTransactionID(),
	}

	query := `INSERT INTO payments (id, order_id, payer_id, warehouse_id, amount, mode, status, transaction_id) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`
	if err = tx.GetContext(ctx, &payment.CreatedAt, query, payment.ID, payment.OrderID, payment.PayerID, payment.WarehouseID, payment.Amount, payment.Mode, payment.Status, payment.TransactionID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			err = fmt.Errorf("%w: заказ %s", ErrDuplicatePayment, order.ID)
		}
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return payment, nil
}

// GetPaymentByID извлекает платеж.
func (s *postgresStorage) GetPaymentByID(ctx context.Context, paymentID string) (*model.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "DB.GetPaymentByID")
	defer span.End()

	var payment model.Payment
	if err := s.db.GetContext(ctx, &payment, `SELECT * FROM payments WHERE id = $1`, paymentID); err != nil {
		metrics.DBErrors.WithLabelValues("get_payment").Inc()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: платеж %s", ErrNotFound, paymentID)
		}
		return nil, fmt.Errorf("не удалось получить платеж: %w", err)
	}
	return &payment, nil
}

// FinalizePayment переводит платеж из pending в completed или failed.
// Повторная финализация запрещена.
func (s *postgresStorage) FinalizePayment(ctx context.Context, paymentID, status, notes string) (payment *model.Payment, err error) {
	ctx, span := s.tracer.Start(ctx, "DB.FinalizePayment")
	defer span.End()

	if status != model.PaymentCompleted && status != model.PaymentFailed {
		return nil, fmt.Errorf("недопустимый целевой статус платежа: %q", status)
	}

	tx, finish, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer finish(&err)

	payment = &model.Payment{}
	if err = tx.GetContext(ctx, payment, `SELECT * FROM payments WHERE id = $1 FOR UPDATE`, paymentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("%w: платеж %s", ErrNotFound, paymentID)
		}
		return nil, err
	}

	if payment.Status != model.PaymentPending {
		err = fmt.Errorf("%w: статус %q", ErrPaymentFinalized, payment.Status)
		return nil, err
	}

	var completedAt *time.Time
	if status == model.PaymentCompleted {
		now := time.Now()
		completedAt = &now
	}

	if _, err = tx.ExecContext(ctx, `UPDATE payments SET status = $1, notes = $2, completed_at = $3 WHERE id = $4`, status, notes, completedAt, paymentID); err != nil {
		return nil, fmt.Errorf("ошибка финализации платежа: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	payment.Status = status
	payment.Notes = notes
	payment.CompletedAt = completedAt
	return payment, nil
}

// ApplyPayout начисляет выплату курьеру за доставленный заказ.
// Аддитивный upsert в pending-строку пары (курьер, склад); доставка помечается
// рассчитанной, поэтому повторный запуск не удваивает сумму.
func (s *postgresStorage) ApplyPayout(ctx context.Context, orderID string, distanceKm float64, ratePerKm int64) (payout *model.Payout, err error) {
	ctx, span := s.tracer.Start(ctx, "DB.ApplyPayout")
	defer span.End()

	tx, finish, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer finish(&err)

	var order model.Order
	if err = tx.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1`, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("%w: заказ %s", ErrNotFound, orderID)
		}
		return nil, err
	}
	if order.Status != model.OrderDelivered {
		err = fmt.Errorf("%w: заказ %s в статусе %q", ErrOrderNotDelivered, orderID, order.Status)
		return nil, err
	}

	type deliveryRow struct {
		model.Delivery
		PayoutComputed bool `db:"payout_computed"`
	}
	var delivery deliveryRow
	if err = tx.GetContext(ctx, &delivery, `SELECT * FROM deliveries WHERE order_id = $1 FOR UPDATE`, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("%w: доставка для заказа %s", ErrNotFound, orderID)
		}
		return nil, err
	}
	if delivery.PayoutComputed {
		err = fmt.Errorf("%w: заказ %s", ErrPayoutAlreadyComputed, orderID)
		return nil, err
	}

	amount := int64(distanceKm * float64(ratePerKm))

	payout = &model.Payout{}
	// Частичный уникальный индекс на (rider_id, warehouse_id) WHERE status='pending'
	// гарантирует одну накопительную строку на расчетный период.
	upsertQuery := `
        INSERT INTO payouts (id, rider_id, warehouse_id, total_distance, rate_per_km, computed_amount, status)
        VALUES ($1, $2, $3, $4, $5, $6, 'pending')
        ON CONFLICT (rider_id, warehouse_id) WHERE status = 'pending'
        DO UPDATE SET
            total_distance = payouts.total_distance + EXCLUDED.total_distance,
            computed_amount = payouts.computed_amount + EXCLUDED.computed_amount,
            updated_at = now()
        RETURNING *`
	if err = tx.GetContext(ctx, payout, upsertQuery, uuid.New().String(), delivery.RiderID, order.WarehouseID, distanceKm, ratePerKm, amount); err != nil {
		return nil, fmt.Errorf("ошибка upsert выплаты: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE deliveries SET payout_computed = TRUE, updated_at = now() WHERE id = $1`, delivery.ID); err != nil {
		return nil, fmt.Errorf("ошибка пометки доставки: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return payout, nil
}

// ListPayoutCandidates возвращает ID доставленных заказов, по которым выплата еще не рассчитана.
func (s *postgresStorage) ListPayoutCandidates(ctx context.Context) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "DB.ListPayoutCandidates")
	defer span.End()

	var ids []string
	query := `
        SELECT o.id FROM orders o
        JOIN deliveries d ON d.order_id = o.id
        WHERE o.status = 'delivered' AND NOT d.payout_computed
        ORDER BY o.updated_at`
	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		metrics.DBErrors.WithLabelValues("list_payout_candidates").Inc()
		return nil, fmt.Errorf("ошибка поиска заказов для выплат: %w", err)
	}
	return ids, nil
}

// SettlePayouts закрывает все pending-выплаты (ночной расчет) и возвращает
// агрегаты по складам. Уже закрытые выплаты не затрагиваются, повторный
// запуск без новых выплат возвращает пустой результат.
func (s *postgresStorage) SettlePayouts(ctx context.Context) ([]SettlementStat, error) {
	ctx, span := s.tracer.Start(ctx, "DB.SettlePayouts")
	defer span.End()

	// Закрытие и выборка одним оператором: выплата, появившаяся между
	// агрегацией и обновлением, не может быть закрыта мимо статистики.
	type settledRow struct {
		WarehouseID    string  `db:"warehouse_id"`
		ComputedAmount int64   `db:"computed_amount"`
		TotalDistance  float64 `db:"total_distance"`
	}
	var rows []settledRow
	query := `
        UPDATE payouts SET status = 'settled', updated_at = now()
        WHERE status = 'pending'
        RETURNING warehouse_id, computed_amount, total_distance`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		metrics.DBErrors.WithLabelValues("settle_payouts").Inc()
		return nil, fmt.Errorf("ошибка закрытия выплат: %w", err)
	}

	byWarehouse := make(map[string]*SettlementStat, len(rows))
	for _, row := range rows {
		st, ok := byWarehouse[row.WarehouseID]
		if !ok {
			st = &SettlementStat{WarehouseID: row.WarehouseID}
			byWarehouse[row.WarehouseID] = st
		}
		st.SettledCount++
		st.TotalAmount += row.ComputedAmount
		st.TotalDistance += row.TotalDistance
	}

	stats := make([]SettlementStat, 0, len(byWarehouse))
	for _, st := range byWarehouse {
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].WarehouseID < stats[j].WarehouseID })

	for _, st := range stats {
		metrics.PayoutsSettled.Add(float64(st.SettledCount))
	}
	return stats, nil
}

// GetWarehouse извлекает склад.
func (s *postgresStorage) GetWarehouse(ctx context.Context, warehouseID string) (*model.Warehouse, error) {
	ctx, span := s.tracer.Start(ctx, "DB.GetWarehouse")
	defer span.End()

	var wh model.Warehouse
	query := `SELECT id, admin_id, name, address, latitude, longitude, is_active FROM warehouses WHERE id = $1`
	if err := s.db.GetContext(ctx, &wh, query, warehouseID); err != nil {
		metrics.DBErrors.WithLabelValues("get_warehouse").Inc()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: склад %s", ErrNotFound, warehouseID)
		}
		return nil, fmt.Errorf("не удалось получить склад: %w", err)
	}
	return &wh, nil
}

// NearbyWarehouses ищет активные склады в радиусе radiusKm от точки,
// отсортированные по расстоянию. Формула гаверсинуса прямо в SQL.
func (s *postgresStorage) NearbyWarehouses(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]model.Warehouse, error) {
	ctx, span := s.tracer.Start(ctx, "DB.NearbyWarehouses")
	defer span.End()

	if limit <= 0 {
		limit = 10
	}

	var warehouses []model.Warehouse
	query := `
        SELECT * FROM (
            SELECT id, admin_id, name, address, latitude, longitude, is_active,
                (6371 * acos(least(1.0,
                    cos(radians($1)) * cos(radians(latitude)) * cos(radians(longitude) - radians($2)) +
                    sin(radians($1)) * sin(radians(latitude))
                ))) AS distance_km
            FROM warehouses
            WHERE is_active
        ) w
        WHERE w.distance_km <= $3
        ORDER BY w.distance_km
        LIMIT $4`
	if err := s.db.SelectContext(ctx, &warehouses, query, lat, lon, radiusKm, limit); err != nil {
		metrics.DBErrors.WithLabelValues("nearby_warehouses").Inc()
		return nil, fmt.Errorf("ошибка поиска ближайших складов: %w", err)
	}
	return warehouses, nil
}

// GetRider извлекает курьера.
func (s *postgresStorage) GetRider(ctx context.Context, riderID string) (*model.Rider, error) {
	ctx, span := s.tracer.Start(ctx, "DB.GetRider")
	defer span.End()

	var rider model.Rider
	if err := s.db.GetContext(ctx, &rider, `SELECT * FROM riders WHERE id = $1`, riderID); err != nil {
		metrics.DBErrors.WithLabelValues("get_rider").Inc()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: курьер %s", ErrNotFound, riderID)
		}
		return nil, fmt.Errorf("не удалось получить курьера: %w", err)
	}
	return &rider, nil
}

// SaveNotification сохраняет уведомление (вызывается консюмером уведомлений).
func (s *postgresStorage) SaveNotification(ctx context.Context, n *model.Notification) error {
	ctx, span := s.tracer.Start(ctx, "DB.SaveNotification")
	defer span.End()

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	query := `INSERT INTO notifications (id, user_id, title, message, type) VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.db.ExecContext(ctx, query, n.ID, n.UserID, n.Title, n.Message, n.Type); err != nil {
		metrics.DBErrors.WithLabelValues("save_notification").Inc()
		return fmt.Errorf("ошибка сохранения уведомления: %w", err)
	}
	return nil
}

// Close закрывает соединение с БД.
func (s *postgresStorage) Close() error {
	return s.db.Close()
}
