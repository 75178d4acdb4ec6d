// Package referral содержит правила реферальной программы.
package referral

import (
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/delivery-system/internal/failure"
	"github.com/mmeshcher/delivery-system/internal/model"
)

// DefaultBonusPoints — бонус пригласившему по умолчанию.
const DefaultBonusPoints int64 = 2

// NewReferral проверяет применимость реферального кода и создаёт связь
// в статусе pending. Самоприглашение и повторное применение кода запрещены.
func NewReferral(referrer model.Customer, customerID uuid.UUID, alreadyReferred bool, now time.Time) (model.Referral, error) {
	if referrer.ID == customerID {
		return model.Referral{}, failure.BusinessRule("self-referral is not allowed")
	}
	if alreadyReferred {
		return model.Referral{}, failure.BusinessRule("customer already redeemed a referral code")
	}

	return model.Referral{
		ID:         uuid.New(),
		ReferrerID: referrer.ID,
		ReferredID: customerID,
		Code:       referrer.ReferralCode,
		Status:     model.ReferralStatusPending,
		CreatedAt:  now,
	}, nil
}

// ShouldAwardBonus сообщает, нужно ли начислить бонус пригласившему.
// Бонус положен только за первый завершённый заказ приглашённого и только
// пока связь в статусе pending и бонус ещё не выплачивался: повторная
// проверка после выплаты всегда возвращает false.
func ShouldAwardBonus(isFirstCompletedOrder bool, r *model.Referral) bool {
	if r == nil || !isFirstCompletedOrder {
		return false
	}
	return r.Status == model.ReferralStatusPending && !r.PointsAwarded
}

// Complete переводит связь в completed и помечает бонус выплаченным.
func Complete(r model.Referral, firstOrderID uuid.UUID, now time.Time) model.Referral {
	r.Status = model.ReferralStatusCompleted
	r.PointsAwarded = true
	r.FirstOrderID = &firstOrderID
	r.CompletedAt = &now
	return r
}
