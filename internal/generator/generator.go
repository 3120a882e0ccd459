package generator

import (
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"gramsetu/internal/model"
)

// Генератор тестовых данных для демо-стендов и нагрузочного генератора.
// Координаты берутся из окрестностей Дели, чтобы поиск ближайших складов
// возвращал осмысленные результаты.

const (
	baseLatitude  = 28.61
	baseLongitude = 77.21
)

// NewWarehouse создает случайный активный склад.
func NewWarehouse() model.Warehouse {
	return model.Warehouse{
		ID:        uuid.New().String(),
		AdminID:   uuid.New().String(),
		Name:      gofakeit.Company() + " Warehouse",
		Address:   gofakeit.Address().Address,
		Latitude:  baseLatitude + gofakeit.Float64Range(-0.5, 0.5),
		Longitude: baseLongitude + gofakeit.Float64Range(-0.5, 0.5),
		IsActive:  true,
	}
}

// NewItem создает складскую позицию с ценой в пайсах.
func NewItem(warehouseID string) model.Item {
	return model.Item{
		ID:          uuid.New().String(),
		WarehouseID: warehouseID,
		Name:        gofakeit.ProductName(),
		Price:       int64(gofakeit.Number(500, 50000)), // От 5 до 500 рупий
		Quantity:    gofakeit.Number(10, 200),
	}
}

// NewRider создает курьера, привязанного к складу.
func NewRider(warehouseID string) model.Rider {
	return model.Rider{
		ID:          uuid.New().String(),
		UserID:      uuid.New().String(),
		WarehouseID: warehouseID,
		Name:        gofakeit.Name(),
		Phone:       gofakeit.Phone(),
	}
}

// NewOrderRequest собирает случайный запрос на создание заказа
// из имеющихся на складе позиций.
func NewOrderRequest(warehouseID string, itemIDs []string) model.CreateOrderRequest {
	lineCount := gofakeit.Number(1, 3)
	if lineCount > len(itemIDs) {
		lineCount = len(itemIDs)
	}

	// Случайная выборка без повторов
	picked := make(map[int]bool, lineCount)
	var lines []model.CreateOrderItemRequest
	for len(lines) < lineCount {
		idx := gofakeit.Number(0, len(itemIDs)-1)
		if picked[idx] {
			continue
		}
		picked[idx] = true
		lines = append(lines, model.CreateOrderItemRequest{
			ItemID:   itemIDs[idx],
			Quantity: gofakeit.Number(1, 4),
		})
	}

	return model.CreateOrderRequest{
		WarehouseID: warehouseID,
		Items:       lines,
	}
}

// NewRiderLocation создает случайную позицию курьера недалеко от базовой точки.
func NewRiderLocation() model.RiderLocationRequest {
	return model.RiderLocationRequest{
		Latitude:  baseLatitude + gofakeit.Float64Range(-0.2, 0.2),
		Longitude: baseLongitude + gofakeit.Float64Range(-0.2, 0.2),
	}
}
