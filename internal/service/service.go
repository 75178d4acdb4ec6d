// Package service реализует бизнес-логику сервиса доставки.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/delivery-system/internal/adscost"
	"github.com/mmeshcher/delivery-system/internal/failure"
	"github.com/mmeshcher/delivery-system/internal/lifecycle"
	"github.com/mmeshcher/delivery-system/internal/lock"
	"github.com/mmeshcher/delivery-system/internal/model"
	"github.com/mmeshcher/delivery-system/internal/pricing"
	"github.com/mmeshcher/delivery-system/internal/referral"
	"github.com/mmeshcher/delivery-system/internal/repository"
	"github.com/mmeshcher/delivery-system/internal/settlement"
	"github.com/mmeshcher/delivery-system/internal/validation"
)

// closeLockKey — ключ аренды на закрытие периода: закрытие в любой момент
// времени выполняет не более одного процесса.
const closeLockKey = "settlement:close"

// referralTTL — срок жизни неиспользованной реферальной связи.
const referralTTL = 30 * 24 * time.Hour

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	GetShop(ctx context.Context, id uuid.UUID) (*model.Shop, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	GetCustomerByReferralCode(ctx context.Context, code string) (*model.Customer, error)
	GetPointsBalance(ctx context.Context, customerID uuid.UUID) (int64, error)
	GetPointsHistory(ctx context.Context, customerID uuid.UUID) ([]model.PointsTransaction, error)

	CreateOrder(ctx context.Context, o model.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	CountCompletedOrders(ctx context.Context, customerID uuid.UUID) (int, error)
	UpdateOrderStatus(ctx context.Context, o model.Order, from model.OrderStatus, eff *repository.OrderEffects) error
	UpdateOrderCash(ctx context.Context, o model.Order, from model.OrderStatus, cash model.CashTransaction, eff *repository.OrderEffects) error

	CreateReferral(ctx context.Context, ref model.Referral) error
	GetReferralByReferred(ctx context.Context, customerID uuid.UUID) (*model.Referral, error)
	ExpireReferrals(ctx context.Context, olderThan time.Time) (int64, error)

	GetPeriodByKey(ctx context.Context, year, week int) (*model.WeeklyPeriod, error)
	GetPeriod(ctx context.Context, id uuid.UUID) (*model.WeeklyPeriod, error)
	GetLatestPeriod(ctx context.Context) (*model.WeeklyPeriod, error)
	GetOrdersForSettlement(ctx context.Context, from, to time.Time) ([]model.Order, error)
	CloseWeek(ctx context.Context, p model.WeeklyPeriod, shopSettlements []model.ShopSettlement, riderSettlements []model.RiderSettlement, orderIDs []uuid.UUID) error
	GetShopSettlements(ctx context.Context, periodID uuid.UUID) ([]model.ShopSettlement, error)
	GetRiderSettlements(ctx context.Context, periodID uuid.UUID) ([]model.RiderSettlement, error)
	GetShopSettlement(ctx context.Context, id uuid.UUID) (*model.ShopSettlement, error)
	GetRiderSettlement(ctx context.Context, id uuid.UUID) (*model.RiderSettlement, error)
	UpdateShopSettlementStatus(ctx context.Context, id uuid.UUID, status model.SettlementStatus, notes string) error
	UpdateRiderSettlementStatus(ctx context.Context, id uuid.UUID, status model.SettlementStatus, notes string) error
}

// Locker выдаёт эксклюзивные аренды на именованные операции.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// Service содержит бизнес-логику сервиса доставки.
type Service struct {
	repo        Repository
	adsClient   *adscost.Client
	locker      Locker
	logger      *zap.Logger
	loc         *time.Location
	bonusPoints int64
}

// NewService создаёт сервис. adsClient и locker могут быть nil: тогда
// рекламные расходы считаются нулевыми, а взаимное исключение закрытия
// периода обеспечивает только уникальный индекс периода в базе.
func NewService(repo Repository, adsClient *adscost.Client, locker Locker, logger *zap.Logger, loc *time.Location, bonusPoints int64) *Service {
	if locker == nil {
		locker = (*lock.Locker)(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	if bonusPoints <= 0 {
		bonusPoints = referral.DefaultBonusPoints
	}
	return &Service{
		repo:        repo,
		adsClient:   adsClient,
		locker:      locker,
		logger:      logger,
		loc:         loc,
		bonusPoints: bonusPoints,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// OrderItemRequest описывает позицию создаваемого заказа.
type OrderItemRequest struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice int64
	Quantity  int
}

// CreateOrderRequest описывает запрос на создание заказа.
type CreateOrderRequest struct {
	ShopID     uuid.UUID
	Items      []OrderItemRequest
	PointsUsed int64
}

// CreateOrder создаёт заказ: фиксирует снимки позиций, один раз вычисляет
// финансовые поля и при списании баллов создаёт операцию по бонусному счёту
// атомарно с заказом.
func (s *Service) CreateOrder(ctx context.Context, customerID uuid.UUID, req CreateOrderRequest) (*model.Order, error) {
	if len(req.Items) == 0 {
		return nil, failure.Validation("order must contain at least one item")
	}

	items := make([]model.OrderItem, 0, len(req.Items))
	var subtotal int64
	for _, it := range req.Items {
		if !validation.IsValidQuantity(it.Quantity) {
			return nil, failure.Validation("invalid quantity %d for product %s", it.Quantity, it.ProductID)
		}
		if !validation.IsValidUnitPrice(it.UnitPrice) {
			return nil, failure.Validation("invalid unit price %d for product %s", it.UnitPrice, it.ProductID)
		}
		lineTotal := it.UnitPrice * int64(it.Quantity)
		items = append(items, model.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Subtotal:  lineTotal,
		})
		subtotal += lineTotal
	}

	shop, err := s.repo.GetShop(ctx, req.ShopID)
	if err != nil {
		return nil, err
	}

	balance, err := s.repo.GetPointsBalance(ctx, customerID)
	if err != nil {
		return nil, err
	}

	quote := pricing.Calculate(pricing.Input{
		Subtotal:        subtotal,
		DeliveryFee:     shop.DeliveryFee,
		FreeDelivery:    shop.FreeDelivery,
		CommissionRate:  shop.CommissionRate,
		PointsRequested: req.PointsUsed,
		CustomerBalance: balance,
	})

	now := time.Now().UTC()
	o := model.Order{
		ID:                 uuid.New(),
		Number:             newOrderNumber(now),
		CustomerID:         customerID,
		ShopID:             shop.ID,
		Status:             model.OrderStatusPending,
		Items:              items,
		Subtotal:           subtotal,
		DeliveryFee:        shop.DeliveryFee,
		FreeDelivery:       shop.FreeDelivery,
		PointsUsed:         quote.PointsUsed,
		PointsDiscount:     quote.PointsDiscount,
		Total:              quote.Total,
		ShopCommission:     quote.ShopCommission,
		PlatformCommission: quote.PlatformCommission,
		RiderEarnings:      quote.RiderEarnings,
		PointsEarned:       quote.PointsEarned,
		CreatedAt:          now,
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	return &o, nil
}

func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("D-%s-%s", now.Format("20060102"), suffix)
}

// GetOrder возвращает заказ по идентификатору.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// TransitionOrder применяет переход статуса заказа от имени участника.
// Конкурентные переходы по одному заказу сериализует хранилище: проигравший
// получает BusinessRule, отметки времени не искажаются.
func (s *Service) TransitionOrder(ctx context.Context, orderID uuid.UUID, target model.OrderStatus, actorID uuid.UUID, role model.ActorRole) (*model.Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Курьер закрепляется за заказом при получении из магазина.
	if role == model.RoleRider {
		if o.RiderID == nil {
			if target == model.OrderStatusPickedUp {
				o.RiderID = &actorID
			}
		} else if *o.RiderID != actorID {
			return nil, failure.Validation("order is assigned to another rider")
		}
	}

	from := o.Status
	pointsUsed := o.PointsUsed
	updated, err := lifecycle.Transition(*o, target, role, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	var eff *repository.OrderEffects
	switch {
	case updated.Status == model.OrderStatusCompleted:
		eff, err = s.completionEffects(ctx, updated)
		if err != nil {
			return nil, err
		}
	case updated.Status == model.OrderStatusCancelled && pointsUsed > 0:
		// Списанные при оформлении баллы возвращаются на счёт покупателя.
		eff = &repository.OrderEffects{PointsRefund: pointsUsed}
	}

	if err := s.repo.UpdateOrderStatus(ctx, updated, from, eff); err != nil {
		return nil, err
	}

	return &updated, nil
}

// RecordCashMilestone отмечает этап передачи наличных. Подтверждение магазином
// получения выручки — единственный триггер перехода shop_paid → completed,
// поэтому на этапе confirmed заказ дополнительно завершается.
func (s *Service) RecordCashMilestone(ctx context.Context, orderID uuid.UUID, m lifecycle.CashMilestone, actorID uuid.UUID, role model.ActorRole) (*model.Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	from := o.Status

	updated, cashTx, err := lifecycle.RecordCash(*o, m, actorID, role, now)
	if err != nil {
		return nil, err
	}

	var eff *repository.OrderEffects
	if m == lifecycle.CashMilestoneConfirmed {
		updated, err = lifecycle.Transition(updated, model.OrderStatusCompleted, role, now)
		if err != nil {
			return nil, err
		}
		eff, err = s.completionEffects(ctx, updated)
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateOrderCash(ctx, updated, from, cashTx, eff); err != nil {
		return nil, err
	}

	return &updated, nil
}

// completionEffects собирает побочные эффекты завершения заказа: начисление
// баллов и, для первого завершённого заказа приглашённого покупателя,
// реферальный бонус пригласившему.
func (s *Service) completionEffects(ctx context.Context, o model.Order) (*repository.OrderEffects, error) {
	eff := &repository.OrderEffects{PointsEarned: o.PointsEarned}

	completed, err := s.repo.CountCompletedOrders(ctx, o.CustomerID)
	if err != nil {
		return nil, err
	}

	ref, err := s.repo.GetReferralByReferred(ctx, o.CustomerID)
	if err != nil {
		return nil, err
	}

	if referral.ShouldAwardBonus(completed == 0, ref) {
		eff.Referral = ref
		eff.BonusPoints = s.bonusPoints
	}

	return eff, nil
}

// ApplyReferralCode применяет реферальный код к покупателю.
func (s *Service) ApplyReferralCode(ctx context.Context, customerID uuid.UUID, code string) (*model.Referral, error) {
	if !validation.IsValidReferralCode(code) {
		return nil, failure.Validation("referral code has invalid format")
	}

	referrer, err := s.repo.GetCustomerByReferralCode(ctx, code)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetReferralByReferred(ctx, customerID)
	if err != nil {
		return nil, err
	}

	ref, err := referral.NewReferral(*referrer, customerID, existing != nil, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateReferral(ctx, ref); err != nil {
		return nil, err
	}

	return &ref, nil
}

// PointsSummary содержит баланс и историю бонусного счёта.
type PointsSummary struct {
	Balance int64
	History []model.PointsTransaction
}

// GetPoints возвращает состояние бонусного счёта покупателя.
func (s *Service) GetPoints(ctx context.Context, customerID uuid.UUID) (*PointsSummary, error) {
	if _, err := s.repo.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	balance, err := s.repo.GetPointsBalance(ctx, customerID)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.GetPointsHistory(ctx, customerID)
	if err != nil {
		return nil, err
	}

	return &PointsSummary{Balance: balance, History: history}, nil
}

// ClosePeriod закрывает расчётную неделю, содержащую момент at. Границы недели
// задаются явно моментом at и фиксированной зоной сервиса. Операция
// взаимоисключающая и атомарная: либо период, все расчётные записи и привязки
// заказов фиксируются целиком, либо ничего.
func (s *Service) ClosePeriod(ctx context.Context, adminID uuid.UUID, note string, at time.Time) (*model.SettlementResult, error) {
	release, err := s.locker.Acquire(ctx, closeLockKey, 2*time.Minute)
	if err != nil {
		return nil, err
	}
	// Аренду освобождаем даже при отменённом контексте запроса, иначе она
	// доживает до конца TTL и блокирует следующее закрытие.
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("release settlement close lease", zap.Error(err))
		}
	}()

	start, end := settlement.Window(at, s.loc)
	year, week := settlement.PeriodKey(start)

	existing, err := s.repo.GetPeriodByKey(ctx, year, week)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status != model.PeriodStatusActive {
		return nil, failure.BusinessRule("settlement period %d/%d is already closed", year, week)
	}

	orders, err := s.repo.GetOrdersForSettlement(ctx, start, end)
	if err != nil {
		return nil, err
	}

	adsCosts, err := s.adsClient.GetCostsForPeriod(ctx, start, end)
	if err != nil {
		return nil, err
	}

	agg, err := settlement.Aggregate(orders, adsCosts)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	period := model.WeeklyPeriod{
		ID:         uuid.New(),
		Year:       year,
		WeekNumber: week,
		StartDate:  start,
		EndDate:    end,
		Status:     model.PeriodStatusClosed,
		Summary:    agg.Summary,
		ClosedBy:   &adminID,
		ClosedAt:   &now,
		Note:       note,
	}

	for i := range agg.ShopSettlements {
		agg.ShopSettlements[i].PeriodID = period.ID
	}
	for i := range agg.RiderSettlements {
		agg.RiderSettlements[i].PeriodID = period.ID
	}

	if err := s.repo.CloseWeek(ctx, period, agg.ShopSettlements, agg.RiderSettlements, agg.CompletedOrderIDs); err != nil {
		return nil, err
	}

	return &model.SettlementResult{
		Period:              period,
		OrdersProcessed:     agg.Summary.CompletedOrders,
		ShopsSettled:        len(agg.ShopSettlements),
		RidersSettled:       len(agg.RiderSettlements),
		PointsRedeemedValue: agg.Summary.PointsDiscountValue,
		ShopPointsCredits:   agg.ShopPointsCredits,
		PlatformCommission:  agg.Summary.PlatformCommission,
	}, nil
}

// GetLatestPeriod возвращает последний закрытый период или nil, если
// закрытий ещё не было.
func (s *Service) GetLatestPeriod(ctx context.Context) (*model.WeeklyPeriod, error) {
	return s.repo.GetLatestPeriod(ctx)
}

// GetPeriodReport возвращает период и его расчётные записи для отчёта.
func (s *Service) GetPeriodReport(ctx context.Context, periodID uuid.UUID) (*model.WeeklyPeriod, []model.ShopSettlement, []model.RiderSettlement, error) {
	period, err := s.repo.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, nil, nil, err
	}

	shops, err := s.repo.GetShopSettlements(ctx, periodID)
	if err != nil {
		return nil, nil, nil, err
	}

	riders, err := s.repo.GetRiderSettlements(ctx, periodID)
	if err != nil {
		return nil, nil, nil, err
	}

	return period, shops, riders, nil
}

// ReviewShopSettlement меняет статус расчётной записи магазина.
func (s *Service) ReviewShopSettlement(ctx context.Context, id uuid.UUID, target model.SettlementStatus, notes string, role model.ActorRole) error {
	current, err := s.repo.GetShopSettlement(ctx, id)
	if err != nil {
		return err
	}

	if err := settlement.CheckReviewTransition(current.Status, target, role); err != nil {
		return err
	}

	return s.repo.UpdateShopSettlementStatus(ctx, id, target, notes)
}

// ReviewRiderSettlement меняет статус расчётной записи курьера.
func (s *Service) ReviewRiderSettlement(ctx context.Context, id uuid.UUID, target model.SettlementStatus, notes string, role model.ActorRole) error {
	current, err := s.repo.GetRiderSettlement(ctx, id)
	if err != nil {
		return err
	}

	if err := settlement.CheckReviewTransition(current.Status, target, role); err != nil {
		return err
	}

	return s.repo.UpdateRiderSettlementStatus(ctx, id, target, notes)
}

// StartReferralExpiry запускает фоновый процесс, переводящий просроченные
// реферальные связи в expired.
func (s *Service) StartReferralExpiry(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = s.repo.ExpireReferrals(ctx, time.Now().UTC().Add(-referralTTL))
			}
		}
	}()
}
