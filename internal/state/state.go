package state

import (
	"errors"
	"fmt"

	"gramsetu/internal/model"
)

// Ошибки переходов. Различаем "переход невозможен в принципе"
// и "переход запрещен для этой роли" - они маппятся на разные HTTP-статусы.
var (
	ErrInvalidTransition   = errors.New("недопустимый переход статуса")
	ErrForbiddenTransition = errors.New("переход запрещен для данной роли")
	ErrUnknownState        = errors.New("неизвестный статус заказа")
)

// validTransitions описывает граф жизненного цикла заказа.
// delivered, rejected и cancelled - терминальные состояния.
var validTransitions = map[string]map[string]bool{
	model.OrderPending:   {model.OrderAccepted: true, model.OrderRejected: true, model.OrderCancelled: true},
	model.OrderAccepted:  {model.OrderAssigned: true, model.OrderCancelled: true},
	model.OrderAssigned:  {model.OrderInTransit: true, model.OrderCancelled: true},
	model.OrderInTransit: {model.OrderDelivered: true, model.OrderCancelled: true},
	model.OrderDelivered: {},
	model.OrderRejected:  {},
	model.OrderCancelled: {},
}

// rolePermissions ограничивает переходы по роли актора.
// Магазин может только отменять свой заказ до назначения курьера,
// склад принимает/отклоняет и назначает курьера, курьер везет и доставляет.
var rolePermissions = map[string]map[string]map[string]bool{
	model.RoleShopkeeper: {
		model.OrderPending:  {model.OrderCancelled: true},
		model.OrderAccepted: {model.OrderCancelled: true},
	},
	model.RoleWarehouse: {
		model.OrderPending:  {model.OrderAccepted: true, model.OrderRejected: true},
		model.OrderAccepted: {model.OrderAssigned: true},
	},
	model.RoleRider: {
		model.OrderAssigned:  {model.OrderInTransit: true},
		model.OrderInTransit: {model.OrderDelivered: true},
	},
	model.RoleAdmin: {
		model.OrderPending:   {model.OrderAccepted: true, model.OrderRejected: true, model.OrderCancelled: true},
		model.OrderAccepted:  {model.OrderAssigned: true, model.OrderCancelled: true},
		model.OrderAssigned:  {model.OrderInTransit: true, model.OrderCancelled: true},
		model.OrderInTransit: {model.OrderDelivered: true, model.OrderCancelled: true},
	},
}

// Validate проверяет, допустим ли переход current -> next для роли role.
func Validate(current, next, role string) error {
	allowed, ok := validTransitions[current]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownState, current)
	}
	if !allowed[next] {
		return fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, current, next)
	}

	roleStates, ok := rolePermissions[role]
	if !ok {
		return fmt.Errorf("%w: роль %q", ErrForbiddenTransition, role)
	}
	if !roleStates[current][next] {
		return fmt.Errorf("%w: роль %q, переход %q -> %q", ErrForbiddenTransition, role, current, next)
	}
	return nil
}

// CanTransition - булева версия Validate.
func CanTransition(current, next, role string) bool {
	return Validate(current, next, role) == nil
}

// AllowedTransitions возвращает доступные из current статусы для роли role.
func AllowedTransitions(current, role string) []string {
	var result []string
	for next := range rolePermissions[role][current] {
		if validTransitions[current][next] {
			result = append(result, next)
		}
	}
	return result
}

// IsTerminal сообщает, является ли статус терминальным.
func IsTerminal(status string) bool {
	allowed, ok := validTransitions[status]
	return ok && len(allowed) == 0
}
