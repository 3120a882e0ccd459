package model

// Входящие тела запросов API. Валидируются по тегам через internal/validator.

type CreateOrderItemRequest struct {
	ItemID   string `json:"item_id" validate:"required,uuid4"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	WarehouseID string                   `json:"warehouse_id" validate:"required,uuid4"`
	Items       []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type RejectOrderRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type AssignRiderRequest struct {
	RiderID string `json:"rider_id" validate:"required,uuid4"`
}

type UpdateDeliveryRequest struct {
	Status     string  `json:"status" validate:"required,oneof=in_transit delivered"`
	DistanceKm float64 `json:"distance_km" validate:"gte=0"`
}

type CreatePaymentRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid4"`
	Amount  int64  `json:"amount" validate:"required,gt=0"`
	Mode    string `json:"mode" validate:"required,oneof=mock cash card upi"`
}

type PaymentActionRequest struct {
	Action string `json:"action" validate:"required,oneof=confirm reject"`
	Notes  string `json:"notes"`
}

type ProcessPayoutsRequest struct {
	OrderIDs  []string `json:"order_ids" validate:"omitempty,dive,uuid4"`
	RatePerKm int64    `json:"rate_per_km" validate:"omitempty,gt=0"`
}

type RiderLocationRequest struct {
	Latitude  float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}
