package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/delivery-system/internal/failure"
	"github.com/mmeshcher/delivery-system/internal/model"
)

func newTestOrder(status model.OrderStatus) model.Order {
	riderID := uuid.New()
	return model.Order{
		ID:                 uuid.New(),
		CustomerID:         uuid.New(),
		ShopID:             uuid.New(),
		RiderID:            &riderID,
		Status:             status,
		Subtotal:           20000,
		DeliveryFee:        1500,
		PointsUsed:         5,
		PointsDiscount:     500,
		Total:              21000,
		ShopCommission:     2000,
		PlatformCommission: 2000,
		RiderEarnings:      1500,
		PointsEarned:       2,
		CreatedAt:          time.Now(),
	}
}

func mustKind(t *testing.T, err error, kind failure.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s failure, got nil", kind)
	}
	if got := failure.KindOf(err); got != kind {
		t.Fatalf("failure kind = %s, want %s (err: %v)", got, kind, err)
	}
}

func TestTransition_FullHappyPath(t *testing.T) {
	steps := []struct {
		target model.OrderStatus
		role   model.ActorRole
	}{
		{model.OrderStatusAccepted, model.RoleShop},
		{model.OrderStatusPreparing, model.RoleShop},
		{model.OrderStatusPickedUp, model.RoleRider},
		{model.OrderStatusShopPaid, model.RoleRider},
	}

	o := newTestOrder(model.OrderStatusPending)
	now := time.Now()

	for _, st := range steps {
		var err error
		o, err = Transition(o, st.target, st.role, now)
		if err != nil {
			t.Fatalf("transition to %s failed: %v", st.target, err)
		}
		if o.Status != st.target {
			t.Fatalf("status = %s, want %s", o.Status, st.target)
		}
	}

	// Завершение возможно только после полной цепочки передачи наличных.
	for _, m := range []struct {
		milestone CashMilestone
		actorID   uuid.UUID
		role      model.ActorRole
	}{
		{CashMilestoneCollected, *o.RiderID, model.RoleRider},
		{CashMilestoneTransferred, *o.RiderID, model.RoleRider},
		{CashMilestoneConfirmed, o.ShopID, model.RoleShop},
	} {
		var err error
		o, _, err = RecordCash(o, m.milestone, m.actorID, m.role, now)
		if err != nil {
			t.Fatalf("milestone %s failed: %v", m.milestone, err)
		}
	}

	o, err := Transition(o, model.OrderStatusCompleted, model.RoleShop, now)
	if err != nil {
		t.Fatalf("transition to completed failed: %v", err)
	}

	if o.AcceptedAt == nil || o.PreparingAt == nil || o.PickedUpAt == nil ||
		o.ShopPaidAt == nil || o.CompletedAt == nil {
		t.Fatalf("all transition timestamps must be stamped, got %+v", o)
	}
}

func TestTransition_CompleteRequiresCashConfirmation(t *testing.T) {
	for _, role := range []model.ActorRole{model.RoleShop, model.RoleAdmin} {
		o := newTestOrder(model.OrderStatusShopPaid)
		o.CashCollected = true
		o.CashTransferredToShop = true

		_, err := Transition(o, model.OrderStatusCompleted, role, time.Now())
		mustKind(t, err, failure.KindBusinessRule)
	}
}

func TestTransition_SkippingStepsRejected(t *testing.T) {
	o := newTestOrder(model.OrderStatusPending)

	_, err := Transition(o, model.OrderStatusPreparing, model.RoleShop, time.Now())
	mustKind(t, err, failure.KindBusinessRule)
}

func TestTransition_WrongActorRejected(t *testing.T) {
	tests := []struct {
		name   string
		from   model.OrderStatus
		target model.OrderStatus
		role   model.ActorRole
	}{
		{
			name:   "rider cannot accept",
			from:   model.OrderStatusPending,
			target: model.OrderStatusAccepted,
			role:   model.RoleRider,
		},
		{
			name:   "shop cannot pick up",
			from:   model.OrderStatusPreparing,
			target: model.OrderStatusPickedUp,
			role:   model.RoleShop,
		},
		{
			name:   "customer cannot complete",
			from:   model.OrderStatusShopPaid,
			target: model.OrderStatusCompleted,
			role:   model.RoleCustomer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Transition(newTestOrder(tt.from), tt.target, tt.role, time.Now())
			mustKind(t, err, failure.KindValidation)
		})
	}
}

func TestTransition_AdminMayAdvanceAnyStep(t *testing.T) {
	o := newTestOrder(model.OrderStatusPreparing)

	o, err := Transition(o, model.OrderStatusPickedUp, model.RoleAdmin, time.Now())
	if err != nil {
		t.Fatalf("admin transition failed: %v", err)
	}
	if o.Status != model.OrderStatusPickedUp {
		t.Fatalf("status = %s, want %s", o.Status, model.OrderStatusPickedUp)
	}
}

func TestTransition_CancelZeroesEarnings(t *testing.T) {
	o := newTestOrder(model.OrderStatusAccepted)

	o, err := Transition(o, model.OrderStatusCancelled, model.RoleCustomer, time.Now())
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if o.Status != model.OrderStatusCancelled || o.CancelledAt == nil {
		t.Fatalf("cancel must set status and timestamp, got %+v", o)
	}
	if o.ShopCommission != 0 || o.PlatformCommission != 0 || o.RiderEarnings != 0 || o.PointsEarned != 0 {
		t.Fatalf("cancel must zero pending earnings, got %+v", o)
	}
	if o.PointsUsed != 0 || o.PointsDiscount != 0 {
		t.Fatalf("cancel must zero redeemed points fields, got %+v", o)
	}
}

func TestTransition_CancelOnlyFromPendingOrAccepted(t *testing.T) {
	for _, from := range []model.OrderStatus{
		model.OrderStatusPreparing,
		model.OrderStatusPickedUp,
		model.OrderStatusShopPaid,
		model.OrderStatusCompleted,
		model.OrderStatusCancelled,
	} {
		_, err := Transition(newTestOrder(from), model.OrderStatusCancelled, model.RoleAdmin, time.Now())
		mustKind(t, err, failure.KindBusinessRule)
	}
}

func TestTransition_RiderCannotCancel(t *testing.T) {
	_, err := Transition(newTestOrder(model.OrderStatusPending), model.OrderStatusCancelled, model.RoleRider, time.Now())
	mustKind(t, err, failure.KindValidation)
}

func TestTransition_TerminalStatesHaveNoExits(t *testing.T) {
	for _, from := range []model.OrderStatus{model.OrderStatusCompleted, model.OrderStatusCancelled} {
		_, err := Transition(newTestOrder(from), model.OrderStatusAccepted, model.RoleAdmin, time.Now())
		if err == nil {
			t.Fatalf("transition out of terminal state %s must fail", from)
		}
		if !errors.Is(err, &failure.Failure{Kind: failure.KindBusinessRule}) {
			t.Fatalf("expected business rule failure, got %v", err)
		}
	}
}

func TestTransition_TimestampsImmutable(t *testing.T) {
	o := newTestOrder(model.OrderStatusPending)

	first := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	o, err := Transition(o, model.OrderStatusAccepted, model.RoleShop, first)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// Повторное проставление той же отметки невозможно через валидный переход,
	// но stamp обязан не затирать уже существующее значение.
	stamp(&o, model.OrderStatusAccepted, first.Add(time.Hour))
	if !o.AcceptedAt.Equal(first) {
		t.Fatalf("AcceptedAt was overwritten: %v", o.AcceptedAt)
	}
}
