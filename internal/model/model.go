// Package model содержит доменные сущности сервиса доставки.
package model

import (
	"time"

	"github.com/google/uuid"
)

// ActorRole описывает роль участника, выполняющего операцию.
type ActorRole string

const (
	RoleCustomer ActorRole = "customer"
	RoleShop     ActorRole = "shop"
	RoleRider    ActorRole = "rider"
	RoleAdmin    ActorRole = "admin"
)

// OrderStatus описывает статус жизненного цикла заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusShopPaid  OrderStatus = "shop_paid"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderItem описывает снимок позиции заказа на момент оформления.
// Цены фиксируются при создании и больше не меняются.
type OrderItem struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice int64
	Quantity  int
	Subtotal  int64
}

// Order описывает заказ и его финансовые поля.
// Все суммы хранятся в минимальных единицах валюты (копейках/центах).
// Финансовые поля вычисляются один раз при создании заказа; единственное
// исключение — отмена, которая обнуляет неначисленные комиссии и баллы.
type Order struct {
	ID         uuid.UUID
	Number     string
	CustomerID uuid.UUID
	ShopID     uuid.UUID
	RiderID    *uuid.UUID
	Status     OrderStatus
	Items      []OrderItem

	Subtotal           int64
	DeliveryFee        int64
	FreeDelivery       bool
	PointsUsed         int64
	PointsDiscount     int64
	Total              int64
	ShopCommission     int64
	PlatformCommission int64
	RiderEarnings      int64
	PointsEarned       int64

	CashCollected         bool
	CashTransferredToShop bool
	ShopConfirmedCash     bool

	WeeklyPeriodID *uuid.UUID

	CreatedAt   time.Time
	AcceptedAt  *time.Time
	PreparingAt *time.Time
	PickedUpAt  *time.Time
	ShopPaidAt  *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// PointsTransactionType описывает тип операции с бонусными баллами.
type PointsTransactionType string

const (
	PointsEarned        PointsTransactionType = "earned"
	PointsRedeemed      PointsTransactionType = "redeemed"
	PointsReferralBonus PointsTransactionType = "referral_bonus"
	PointsAdjustment    PointsTransactionType = "adjustment"
)

// PointsTransaction описывает одну операцию по бонусному счёту покупателя.
// Points — знаковое изменение, Balance — баланс после применения операции.
type PointsTransaction struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	OrderID    *uuid.UUID
	Type       PointsTransactionType
	Points     int64
	Balance    int64
	CreatedAt  time.Time
}

// CashTransactionType описывает звено цепочки передачи наличных.
type CashTransactionType string

const (
	CashCustomerToRider CashTransactionType = "customer_to_rider"
	CashRiderToShop     CashTransactionType = "rider_to_shop"
	CashShopToAdmin     CashTransactionType = "shop_to_admin"
)

// CashTransaction фиксирует факт передачи наличных между участниками.
// Нулевой UUID в ToID означает платформу.
type CashTransaction struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Type        CashTransactionType
	Amount      int64
	FromID      uuid.UUID
	ToID        uuid.UUID
	ConfirmedAt time.Time
}

// ReferralStatus описывает состояние реферальной связи.
type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusCompleted ReferralStatus = "completed"
	ReferralStatusExpired   ReferralStatus = "expired"
)

// Referral описывает связь «пригласивший — приглашённый».
// Переход в completed происходит не более одного раза — при первом
// завершённом заказе приглашённого покупателя.
type Referral struct {
	ID            uuid.UUID
	ReferrerID    uuid.UUID
	ReferredID    uuid.UUID
	Code          string
	FirstOrderID  *uuid.UUID
	PointsAwarded bool
	Status        ReferralStatus
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// PeriodStatus описывает состояние расчётного периода.
type PeriodStatus string

const (
	PeriodStatusActive  PeriodStatus = "active"
	PeriodStatusClosed  PeriodStatus = "closed"
	PeriodStatusSettled PeriodStatus = "settled"
)

// PeriodSummary содержит агрегаты закрытого периода.
// Сохраняется при закрытии, чтобы отчёт не пересчитывался по заказам.
type PeriodSummary struct {
	TotalOrders          int
	CompletedOrders      int
	CancelledOrders      int
	GrossSales           int64
	TotalDeliveryFees    int64
	TotalShopCommissions int64
	TotalPointsRedeemed  int64
	PointsDiscountValue  int64
	FreeDeliveryOrders   int
	FreeDeliveryCost     int64
	TotalAdsRevenue      int64
	PlatformCommission   int64
}

// WeeklyPeriod описывает недельный расчётный период (суббота — пятница).
type WeeklyPeriod struct {
	ID         uuid.UUID
	Year       int
	WeekNumber int
	StartDate  time.Time
	EndDate    time.Time
	Status     PeriodStatus
	Summary    PeriodSummary
	ClosedBy   *uuid.UUID
	ClosedAt   *time.Time
	Note       string
}

// SettlementStatus описывает состояние расчётной записи магазина или курьера.
type SettlementStatus string

const (
	SettlementStatusPending  SettlementStatus = "pending"
	SettlementStatusReviewed SettlementStatus = "reviewed"
	SettlementStatusSettled  SettlementStatus = "settled"
	SettlementStatusDisputed SettlementStatus = "disputed"
)

// ShopSettlement описывает итог недели по одному магазину.
// Скидка за баллы возвращается магазину: её стоимость несёт платформа.
type ShopSettlement struct {
	ID                   uuid.UUID
	ShopID               uuid.UUID
	PeriodID             uuid.UUID
	OrderCount           int
	GrossSales           int64
	ShopCommission       int64
	PointsDiscountCredit int64
	FreeDeliveryCost     int64
	AdsCost              int64
	NetPayout            int64
	Status               SettlementStatus
	Notes                string
	CreatedAt            time.Time
}

// RiderSettlement описывает итог недели по одному курьеру.
type RiderSettlement struct {
	ID            uuid.UUID
	RiderID       uuid.UUID
	PeriodID      uuid.UUID
	DeliveryCount int
	Earnings      int64
	NetPayout     int64
	Status        SettlementStatus
	Notes         string
	CreatedAt     time.Time
}

// Shop содержит настройки магазина, которые читает ядро расчётов.
// Карточки магазинов ведёт внешняя админка.
type Shop struct {
	ID             uuid.UUID
	Name           string
	CommissionRate float64
	DeliveryFee    int64
	FreeDelivery   bool
}

// Customer содержит покупателя и его реферальный код.
type Customer struct {
	ID           uuid.UUID
	Name         string
	ReferralCode string
	CreatedAt    time.Time
}

// SettlementResult возвращается операцией закрытия периода.
type SettlementResult struct {
	Period              WeeklyPeriod
	OrdersProcessed     int
	ShopsSettled        int
	RidersSettled       int
	PointsRedeemedValue int64
	ShopPointsCredits   map[uuid.UUID]int64
	PlatformCommission  int64
}
