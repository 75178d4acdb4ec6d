package referral

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/delivery-system/internal/failure"
	"github.com/mmeshcher/delivery-system/internal/model"
)

func TestNewReferral_SelfReferralRejected(t *testing.T) {
	id := uuid.New()
	referrer := model.Customer{ID: id, ReferralCode: "FRIEND01"}

	_, err := NewReferral(referrer, id, false, time.Now())
	if !failure.IsKind(err, failure.KindBusinessRule) {
		t.Fatalf("self-referral must be a business rule failure, got %v", err)
	}
}

func TestNewReferral_AlreadyReferredRejected(t *testing.T) {
	referrer := model.Customer{ID: uuid.New(), ReferralCode: "FRIEND01"}

	_, err := NewReferral(referrer, uuid.New(), true, time.Now())
	if !failure.IsKind(err, failure.KindBusinessRule) {
		t.Fatalf("second referral code must be rejected, got %v", err)
	}
}

func TestNewReferral_CreatesPending(t *testing.T) {
	referrer := model.Customer{ID: uuid.New(), ReferralCode: "FRIEND01"}
	customerID := uuid.New()

	r, err := NewReferral(referrer, customerID, false, time.Now())
	if err != nil {
		t.Fatalf("NewReferral: %v", err)
	}
	if r.Status != model.ReferralStatusPending {
		t.Fatalf("status = %s, want pending", r.Status)
	}
	if r.ReferrerID != referrer.ID || r.ReferredID != customerID || r.Code != "FRIEND01" {
		t.Fatalf("unexpected referral: %+v", r)
	}
	if r.PointsAwarded {
		t.Fatalf("new referral must not have points awarded")
	}
}

func TestShouldAwardBonus(t *testing.T) {
	pending := &model.Referral{Status: model.ReferralStatusPending}
	awarded := &model.Referral{Status: model.ReferralStatusCompleted, PointsAwarded: true}

	tests := []struct {
		name       string
		firstOrder bool
		ref        *model.Referral
		want       bool
	}{
		// «Первый заказ» трактуется как первый завершённый заказ.
		{name: "first completed order with pending referral", firstOrder: true, ref: pending, want: true},
		{name: "not first order", firstOrder: false, ref: pending, want: false},
		{name: "no referral", firstOrder: true, ref: nil, want: false},
		{name: "already awarded", firstOrder: true, ref: awarded, want: false},
		{name: "expired referral", firstOrder: true, ref: &model.Referral{Status: model.ReferralStatusExpired}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldAwardBonus(tt.firstOrder, tt.ref); got != tt.want {
				t.Fatalf("ShouldAwardBonus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComplete_SecondEvaluationIsNoop(t *testing.T) {
	referrer := model.Customer{ID: uuid.New(), ReferralCode: "FRIEND01"}
	r, err := NewReferral(referrer, uuid.New(), false, time.Now())
	if err != nil {
		t.Fatalf("NewReferral: %v", err)
	}

	orderID := uuid.New()
	done := Complete(r, orderID, time.Now())

	if done.Status != model.ReferralStatusCompleted || !done.PointsAwarded {
		t.Fatalf("Complete must mark referral completed and awarded: %+v", done)
	}
	if done.FirstOrderID == nil || *done.FirstOrderID != orderID {
		t.Fatalf("Complete must record the first order id")
	}

	// Повторный прогон логики завершения не должен дать второй выплаты.
	if ShouldAwardBonus(true, &done) {
		t.Fatalf("bonus must be awarded at most once per referral")
	}
}
