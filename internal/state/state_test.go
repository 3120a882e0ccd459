package state

import (
	"testing"

	"gramsetu/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestValidate_HappyPath(t *testing.T) {
	// Полный счастливый путь: pending -> accepted -> assigned -> in_transit -> delivered
	assert.NoError(t, Validate(model.OrderPending, model.OrderAccepted, model.RoleWarehouse))
	assert.NoError(t, Validate(model.OrderAccepted, model.OrderAssigned, model.RoleWarehouse))
	assert.NoError(t, Validate(model.OrderAssigned, model.OrderInTransit, model.RoleRider))
	assert.NoError(t, Validate(model.OrderInTransit, model.OrderDelivered, model.RoleRider))
}

func TestValidate_DeliveredIsTerminal(t *testing.T) {
	// Из delivered нельзя уйти никуда и никому
	for _, next := range []string{
		model.OrderPending, model.OrderAccepted, model.OrderAssigned,
		model.OrderInTransit, model.OrderCancelled, model.OrderRejected,
	} {
		err := Validate(model.OrderDelivered, next, model.RoleAdmin)
		assert.ErrorIs(t, err, ErrInvalidTransition, "delivered -> %s должен быть запрещен", next)
	}
	assert.True(t, IsTerminal(model.OrderDelivered))
	assert.True(t, IsTerminal(model.OrderRejected))
	assert.True(t, IsTerminal(model.OrderCancelled))
}

func TestValidate_DeliveredOnlyFromInTransit(t *testing.T) {
	// Доставка возможна только из in_transit
	for _, current := range []string{model.OrderPending, model.OrderAccepted, model.OrderAssigned} {
		err := Validate(current, model.OrderDelivered, model.RoleRider)
		assert.Error(t, err, "%s -> delivered должен быть запрещен", current)
	}
}

func TestValidate_ShopkeeperCancelWindow(t *testing.T) {
	// Магазин может отменить только pending и accepted заказы
	assert.NoError(t, Validate(model.OrderPending, model.OrderCancelled, model.RoleShopkeeper))
	assert.NoError(t, Validate(model.OrderAccepted, model.OrderCancelled, model.RoleShopkeeper))

	// После назначения курьера отмена магазином запрещена
	err := Validate(model.OrderAssigned, model.OrderCancelled, model.RoleShopkeeper)
	assert.ErrorIs(t, err, ErrForbiddenTransition)
}

func TestValidate_RoleBoundaries(t *testing.T) {
	// Курьер не может принимать заказы
	err := Validate(model.OrderPending, model.OrderAccepted, model.RoleRider)
	assert.ErrorIs(t, err, ErrForbiddenTransition)

	// Склад не может доставлять
	err = Validate(model.OrderInTransit, model.OrderDelivered, model.RoleWarehouse)
	assert.ErrorIs(t, err, ErrForbiddenTransition)

	// Неизвестная роль
	err = Validate(model.OrderPending, model.OrderAccepted, "courier")
	assert.ErrorIs(t, err, ErrForbiddenTransition)
}

func TestValidate_UnknownState(t *testing.T) {
	err := Validate("shipped", model.OrderDelivered, model.RoleAdmin)
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestAllowedTransitions(t *testing.T) {
	next := AllowedTransitions(model.OrderPending, model.RoleWarehouse)
	assert.ElementsMatch(t, []string{model.OrderAccepted, model.OrderRejected}, next)

	// Для терминального статуса переходов нет
	assert.Empty(t, AllowedTransitions(model.OrderDelivered, model.RoleAdmin))
}
