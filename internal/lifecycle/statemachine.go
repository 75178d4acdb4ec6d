// Package lifecycle содержит машину статусов заказа и учёт передачи наличных.
package lifecycle

import (
	"time"

	"github.com/mmeshcher/delivery-system/internal/failure"
	"github.com/mmeshcher/delivery-system/internal/model"
)

// nextStatus задаёт единственный допустимый следующий статус для каждого
// нетерминального статуса. Пропуск шагов запрещён.
var nextStatus = map[model.OrderStatus]model.OrderStatus{
	model.OrderStatusPending:   model.OrderStatusAccepted,
	model.OrderStatusAccepted:  model.OrderStatusPreparing,
	model.OrderStatusPreparing: model.OrderStatusPickedUp,
	model.OrderStatusPickedUp:  model.OrderStatusShopPaid,
	model.OrderStatusShopPaid:  model.OrderStatusCompleted,
}

// transitionRole задаёт роль, которой разрешён переход в целевой статус.
// Отмена обрабатывается отдельно; админ может выполнять любой допустимый переход.
var transitionRole = map[model.OrderStatus]model.ActorRole{
	model.OrderStatusAccepted:  model.RoleShop,
	model.OrderStatusPreparing: model.RoleShop,
	model.OrderStatusPickedUp:  model.RoleRider,
	model.OrderStatusShopPaid:  model.RoleRider,
	model.OrderStatusCompleted: model.RoleShop,
}

// cancellableFrom перечисляет статусы, из которых заказ можно отменить.
var cancellableFrom = map[model.OrderStatus]bool{
	model.OrderStatusPending:  true,
	model.OrderStatusAccepted: true,
}

// IsTerminal сообщает, является ли статус терминальным.
func IsTerminal(s model.OrderStatus) bool {
	return s == model.OrderStatusCompleted || s == model.OrderStatusCancelled
}

// Transition проверяет и применяет переход статуса заказа.
// Возвращает новое значение заказа с проставленной отметкой времени;
// исходный заказ не изменяется. Неверный переход — BusinessRule,
// неподходящая роль — Validation.
func Transition(o model.Order, target model.OrderStatus, role model.ActorRole, now time.Time) (model.Order, error) {
	if target == model.OrderStatusCancelled {
		return cancel(o, role, now)
	}

	next, ok := nextStatus[o.Status]
	if !ok || next != target {
		return o, failure.BusinessRule("invalid transition from %s to %s", o.Status, target)
	}

	if role != model.RoleAdmin && transitionRole[target] != role {
		return o, failure.Validation("role %s cannot move order to %s", role, target)
	}

	// Единственный путь завершения — подтверждение магазином получения наличных.
	if target == model.OrderStatusCompleted && !o.ShopConfirmedCash {
		return o, failure.BusinessRule("order cannot complete before the shop confirms cash")
	}

	o.Status = target
	stamp(&o, target, now)
	return o, nil
}

func cancel(o model.Order, role model.ActorRole, now time.Time) (model.Order, error) {
	if !cancellableFrom[o.Status] {
		return o, failure.BusinessRule("order in status %s cannot be cancelled", o.Status)
	}

	switch role {
	case model.RoleCustomer, model.RoleShop, model.RoleAdmin:
	default:
		return o, failure.Validation("role %s cannot cancel order", role)
	}

	o.Status = model.OrderStatusCancelled
	o.CancelledAt = &now

	// Отмена обнуляет все производные финансовые поля: комиссии, заработок
	// курьера и баллы в обе стороны. Возврат списанных баллов на счёт
	// оформляет вызывающая сторона.
	o.ShopCommission = 0
	o.PlatformCommission = 0
	o.RiderEarnings = 0
	o.PointsEarned = 0
	o.PointsUsed = 0
	o.PointsDiscount = 0

	return o, nil
}

// stamp проставляет отметку времени перехода; ранее проставленные отметки не трогаются.
func stamp(o *model.Order, target model.OrderStatus, now time.Time) {
	switch target {
	case model.OrderStatusAccepted:
		if o.AcceptedAt == nil {
			o.AcceptedAt = &now
		}
	case model.OrderStatusPreparing:
		if o.PreparingAt == nil {
			o.PreparingAt = &now
		}
	case model.OrderStatusPickedUp:
		if o.PickedUpAt == nil {
			o.PickedUpAt = &now
		}
	case model.OrderStatusShopPaid:
		if o.ShopPaidAt == nil {
			o.ShopPaidAt = &now
		}
	case model.OrderStatusCompleted:
		if o.CompletedAt == nil {
			o.CompletedAt = &now
		}
	}
}
