package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/delivery-system/internal/failure"
	"github.com/mmeshcher/delivery-system/internal/model"
)

// CashMilestone описывает этап передачи наличных по заказу.
type CashMilestone string

const (
	// CashMilestoneCollected — курьер получил наличные от покупателя.
	CashMilestoneCollected CashMilestone = "collected"
	// CashMilestoneTransferred — курьер передал выручку магазину.
	CashMilestoneTransferred CashMilestone = "transferred"
	// CashMilestoneConfirmed — магазин подтвердил получение наличных.
	CashMilestoneConfirmed CashMilestone = "confirmed"
)

// ParseCashMilestone разбирает этап из входной строки.
func ParseCashMilestone(s string) (CashMilestone, error) {
	switch CashMilestone(s) {
	case CashMilestoneCollected, CashMilestoneTransferred, CashMilestoneConfirmed:
		return CashMilestone(s), nil
	}
	return "", failure.Validation("unknown cash milestone %q", s)
}

// RecordCash отмечает этап передачи наличных на заказе и формирует
// аудиторскую запись о передаче. Этапы строго упорядочены: collected →
// transferred → confirmed; нарушение порядка и повторная отметка —
// BusinessRule. Этап confirmed сам по себе статус заказа не меняет: переход
// shop_paid → completed выполняет вызывающая сторона.
func RecordCash(o model.Order, m CashMilestone, actorID uuid.UUID, role model.ActorRole, now time.Time) (model.Order, model.CashTransaction, error) {
	var tx model.CashTransaction

	if err := checkCashRole(m, role); err != nil {
		return o, tx, err
	}

	switch m {
	case CashMilestoneCollected:
		if o.CashCollected {
			return o, tx, failure.BusinessRule("cash collection already recorded")
		}
		if o.RiderID == nil {
			return o, tx, failure.BusinessRule("order has no rider assigned")
		}
		o.CashCollected = true
		tx = model.CashTransaction{
			Type:   model.CashCustomerToRider,
			Amount: o.Total,
			FromID: o.CustomerID,
			ToID:   *o.RiderID,
		}

	case CashMilestoneTransferred:
		if !o.CashCollected {
			return o, tx, failure.BusinessRule("cash not collected from customer yet")
		}
		if o.CashTransferredToShop {
			return o, tx, failure.BusinessRule("cash transfer already recorded")
		}
		o.CashTransferredToShop = true
		// Курьер оставляет себе заработок за доставку, остальное передаёт магазину.
		tx = model.CashTransaction{
			Type:   model.CashRiderToShop,
			Amount: o.Total - o.RiderEarnings,
			FromID: *o.RiderID,
			ToID:   o.ShopID,
		}

	case CashMilestoneConfirmed:
		if !o.CashTransferredToShop {
			return o, tx, failure.BusinessRule("cash not transferred to shop yet")
		}
		if o.ShopConfirmedCash {
			return o, tx, failure.BusinessRule("cash confirmation already recorded")
		}
		o.ShopConfirmedCash = true
		// Магазин остаётся должен платформе её комиссию; получатель — платформа.
		tx = model.CashTransaction{
			Type:   model.CashShopToAdmin,
			Amount: o.ShopCommission,
			FromID: o.ShopID,
			ToID:   uuid.Nil,
		}

	default:
		return o, tx, failure.Validation("unknown cash milestone %q", m)
	}

	tx.ID = uuid.New()
	tx.OrderID = o.ID
	tx.ConfirmedAt = now

	return o, tx, nil
}

func checkCashRole(m CashMilestone, role model.ActorRole) error {
	if role == model.RoleAdmin {
		return nil
	}
	switch m {
	case CashMilestoneCollected, CashMilestoneTransferred:
		if role != model.RoleRider {
			return failure.Validation("role %s cannot record milestone %s", role, m)
		}
	case CashMilestoneConfirmed:
		if role != model.RoleShop {
			return failure.Validation("role %s cannot record milestone %s", role, m)
		}
	}
	return nil
}
