package model

import "time"

// Статусы заказа. "assigned" появляется после назначения курьера.
const (
	OrderPending   = "pending"
	OrderAccepted  = "accepted"
	OrderRejected  = "rejected"
	OrderAssigned  = "assigned"
	OrderInTransit = "in_transit"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// Статусы доставки.
const (
	DeliveryAssigned  = "assigned"
	DeliveryInTransit = "in_transit"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

// Статусы платежа (магазин -> склад).
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Статусы выплаты курьеру (склад -> курьер).
const (
	PayoutPending = "pending"
	PayoutSettled = "settled"
)

// Роли пользователей платформы.
const (
	RoleShopkeeper = "shopkeeper"
	RoleWarehouse  = "warehouse"
	RoleRider      = "rider"
	RoleAdmin      = "admin"
)

// Все денежные суммы хранятся в пайсах (минимальных единицах),
// чтобы избежать ошибок округления с плавающей точкой.

type Order struct {
	ID              string      `json:"id" db:"id"`
	ShopkeeperID    string      `json:"shopkeeper_id" db:"shopkeeper_id"`
	WarehouseID     string      `json:"warehouse_id" db:"warehouse_id"`
	Status          string      `json:"status" db:"status"`
	TotalAmount     int64       `json:"total_amount" db:"total_amount"`
	RejectionReason string      `json:"rejection_reason,omitempty" db:"rejection_reason"`
	Items           []OrderItem `json:"order_items" db:"-"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem хранит снимок цены на момент создания заказа:
// последующие изменения цены на складе на него не влияют.
type OrderItem struct {
	ID       int    `json:"id" db:"id"`
	OrderID  string `json:"-" db:"order_id"`
	ItemID   string `json:"item_id" db:"item_id"`
	Name     string `json:"item_name" db:"item_name"`
	Quantity int    `json:"quantity" db:"quantity"`
	Price    int64  `json:"price" db:"price"`
}

type Delivery struct {
	ID         string    `json:"id" db:"id"`
	OrderID    string    `json:"order_id" db:"order_id"`
	RiderID    string    `json:"rider_id" db:"rider_id"`
	Status     string    `json:"status" db:"status"`
	DistanceKm float64   `json:"distance_km" db:"distance_km"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type Payment struct {
	ID            string     `json:"id" db:"id"`
	OrderID       string     `json:"order_id" db:"order_id"`
	PayerID       string     `json:"payer_id" db:"payer_id"`
	WarehouseID   string     `json:"warehouse_id" db:"warehouse_id"`
	Amount        int64      `json:"amount" db:"amount"`
	Mode          string     `json:"mode" db:"mode"`
	Status        string     `json:"status" db:"status"`
	TransactionID string     `json:"transaction_id" db:"transaction_id"`
	Notes         string     `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Payout агрегирует дистанцию по нескольким доставкам курьера:
// одна pending-строка на пару (курьер, склад) до ночного расчета.
type Payout struct {
	ID             string    `json:"id" db:"id"`
	RiderID        string    `json:"rider_id" db:"rider_id"`
	WarehouseID    string    `json:"warehouse_id" db:"warehouse_id"`
	TotalDistance  float64   `json:"total_distance" db:"total_distance"`
	RatePerKm      int64     `json:"rate_per_km" db:"rate_per_km"`
	ComputedAmount int64     `json:"computed_amount" db:"computed_amount"`
	Status         string    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

type Warehouse struct {
	ID        string  `json:"id" db:"id"`
	AdminID   string  `json:"admin_id" db:"admin_id"`
	Name      string  `json:"name" db:"name"`
	Address   string  `json:"address" db:"address"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	IsActive  bool    `json:"is_active" db:"is_active"`
	// Заполняется только в ответе поиска ближайших складов.
	DistanceKm float64 `json:"distance_km,omitempty" db:"distance_km"`
}

// Item - складская позиция с остатком.
type Item struct {
	ID          string `json:"id" db:"id"`
	WarehouseID string `json:"warehouse_id" db:"warehouse_id"`
	Name        string `json:"name" db:"name"`
	Price       int64  `json:"price" db:"price"`
	Quantity    int    `json:"quantity" db:"quantity"`
}

type Rider struct {
	ID          string `json:"id" db:"id"`
	UserID      string `json:"user_id" db:"user_id"`
	WarehouseID string `json:"warehouse_id" db:"warehouse_id"`
	Name        string `json:"name" db:"name"`
	Phone       string `json:"phone" db:"phone"`
}

type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Type      string    `json:"type" db:"type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
