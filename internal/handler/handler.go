// Package handler содержит HTTP-обработчики API сервиса доставки.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/delivery-system/internal/failure"
	"github.com/mmeshcher/delivery-system/internal/lifecycle"
	"github.com/mmeshcher/delivery-system/internal/middleware"
	"github.com/mmeshcher/delivery-system/internal/model"
	"github.com/mmeshcher/delivery-system/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	CreateOrder(ctx context.Context, customerID uuid.UUID, req service.CreateOrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	TransitionOrder(ctx context.Context, orderID uuid.UUID, target model.OrderStatus, actorID uuid.UUID, role model.ActorRole) (*model.Order, error)
	RecordCashMilestone(ctx context.Context, orderID uuid.UUID, m lifecycle.CashMilestone, actorID uuid.UUID, role model.ActorRole) (*model.Order, error)
	ApplyReferralCode(ctx context.Context, customerID uuid.UUID, code string) (*model.Referral, error)
	GetPoints(ctx context.Context, customerID uuid.UUID) (*service.PointsSummary, error)
	ClosePeriod(ctx context.Context, adminID uuid.UUID, note string, at time.Time) (*model.SettlementResult, error)
	GetLatestPeriod(ctx context.Context) (*model.WeeklyPeriod, error)
	GetPeriodReport(ctx context.Context, periodID uuid.UUID) (*model.WeeklyPeriod, []model.ShopSettlement, []model.RiderSettlement, error)
	ReviewShopSettlement(ctx context.Context, id uuid.UUID, target model.SettlementStatus, notes string, role model.ActorRole) error
	ReviewRiderSettlement(ctx context.Context, id uuid.UUID, target model.SettlementStatus, notes string, role model.ActorRole) error
}

// Handler реализует HTTP-обработчики API сервиса доставки.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

// Деньги хранятся в целых сотых долях, в JSON отдаются в денежных единицах.
func toUnits(cents int64) float64 {
	return float64(cents) / 100
}

func fromUnits(units float64) int64 {
	return int64(units * 100)
}

// writeFailure переводит доменную ошибку в HTTP-статус.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	switch failure.KindOf(err) {
	case failure.KindValidation:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case failure.KindBusinessRule:
		http.Error(w, err.Error(), http.StatusConflict)
	case failure.KindNotFound:
		http.Error(w, err.Error(), http.StatusNotFound)
	case failure.KindNetwork:
		h.logger.Error("upstream error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
	default:
		h.logger.Error("internal error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func actorFrom(r *http.Request) (middleware.Actor, bool) {
	return middleware.GetActorFromContext(r.Context())
}

func urlUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

type orderItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  int       `json:"quantity"`
}

type createOrderRequest struct {
	ShopID     uuid.UUID          `json:"shop_id"`
	Items      []orderItemRequest `json:"items"`
	PointsUsed int64              `json:"points_used"`
}

type orderItemResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	Subtotal  float64   `json:"subtotal"`
}

type orderResponse struct {
	ID                 uuid.UUID           `json:"id"`
	Number             string              `json:"number"`
	CustomerID         uuid.UUID           `json:"customer_id"`
	ShopID             uuid.UUID           `json:"shop_id"`
	RiderID            *uuid.UUID          `json:"rider_id,omitempty"`
	Status             string              `json:"status"`
	Items              []orderItemResponse `json:"items,omitempty"`
	Subtotal           float64             `json:"subtotal"`
	DeliveryFee        float64             `json:"delivery_fee"`
	FreeDelivery       bool                `json:"free_delivery"`
	PointsUsed         int64               `json:"points_used"`
	PointsDiscount     float64             `json:"points_discount"`
	Total              float64             `json:"total"`
	ShopCommission     float64             `json:"shop_commission"`
	PlatformCommission float64             `json:"platform_commission"`
	RiderEarnings      float64             `json:"rider_earnings"`
	PointsEarned       int64               `json:"points_earned"`
	CashCollected      bool                `json:"cash_collected"`
	CashTransferred    bool                `json:"cash_transferred_to_shop"`
	CashConfirmed      bool                `json:"shop_confirmed_cash"`
	CreatedAt          string              `json:"created_at"`
	CompletedAt        *string             `json:"completed_at,omitempty"`
	CancelledAt        *string             `json:"cancelled_at,omitempty"`
}

func toOrderResponse(o *model.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: toUnits(it.UnitPrice),
			Quantity:  it.Quantity,
			Subtotal:  toUnits(it.Subtotal),
		})
	}

	resp := orderResponse{
		ID:                 o.ID,
		Number:             o.Number,
		CustomerID:         o.CustomerID,
		ShopID:             o.ShopID,
		RiderID:            o.RiderID,
		Status:             string(o.Status),
		Items:              items,
		Subtotal:           toUnits(o.Subtotal),
		DeliveryFee:        toUnits(o.DeliveryFee),
		FreeDelivery:       o.FreeDelivery,
		PointsUsed:         o.PointsUsed,
		PointsDiscount:     toUnits(o.PointsDiscount),
		Total:              toUnits(o.Total),
		ShopCommission:     toUnits(o.ShopCommission),
		PlatformCommission: toUnits(o.PlatformCommission),
		RiderEarnings:      toUnits(o.RiderEarnings),
		PointsEarned:       o.PointsEarned,
		CashCollected:      o.CashCollected,
		CashTransferred:    o.CashTransferredToShop,
		CashConfirmed:      o.ShopConfirmedCash,
		CreatedAt:          o.CreatedAt.Format(time.RFC3339),
	}
	if o.CompletedAt != nil {
		s := o.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	if o.CancelledAt != nil {
		s := o.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &s
	}
	return resp
}

// CreateOrder создаёт заказ от имени текущего покупателя.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	if actor.Role != model.RoleCustomer {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	items := make([]service.OrderItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.OrderItemRequest{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: fromUnits(it.UnitPrice),
			Quantity:  it.Quantity,
		})
	}

	order, err := h.service.CreateOrder(r.Context(), actor.ID, service.CreateOrderRequest{
		ShopID:     req.ShopID,
		Items:      items,
		PointsUsed: req.PointsUsed,
	})
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

// GetOrder возвращает заказ по идентификатору.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorFrom(r); !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, err := urlUUID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

type transitionRequest struct {
	Status string `json:"status"`
}

// TransitionOrder применяет переход статуса заказа.
func (h *Handler) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, err := urlUUID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	order, err := h.service.TransitionOrder(r.Context(), id, model.OrderStatus(req.Status), actor.ID, actor.Role)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

type cashRequest struct {
	Milestone string `json:"milestone"`
}

// RecordCash отмечает этап передачи наличных по заказу.
func (h *Handler) RecordCash(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, err := urlUUID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req cashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	m, err := lifecycle.ParseCashMilestone(req.Milestone)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	order, err := h.service.RecordCashMilestone(r.Context(), id, m, actor.ID, actor.Role)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

type referralRequest struct {
	Code string `json:"code"`
}

type referralResponse struct {
	ID         uuid.UUID `json:"id"`
	ReferrerID uuid.UUID `json:"referrer_id"`
	ReferredID uuid.UUID `json:"referred_id"`
	Status     string    `json:"status"`
	CreatedAt  string    `json:"created_at"`
}

// ApplyReferral применяет реферальный код к текущему покупателю.
func (h *Handler) ApplyReferral(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	if actor.Role != model.RoleCustomer {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	var req referralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	ref, err := h.service.ApplyReferralCode(r.Context(), actor.ID, req.Code)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, referralResponse{
		ID:         ref.ID,
		ReferrerID: ref.ReferrerID,
		ReferredID: ref.ReferredID,
		Status:     string(ref.Status),
		CreatedAt:  ref.CreatedAt.Format(time.RFC3339),
	})
}

type pointsTransactionResponse struct {
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
	Type      string     `json:"type"`
	Points    int64      `json:"points"`
	Balance   int64      `json:"balance"`
	CreatedAt string     `json:"created_at"`
}

type pointsResponse struct {
	Balance int64                       `json:"balance"`
	History []pointsTransactionResponse `json:"history"`
}

// GetPoints возвращает баланс и историю бонусного счёта покупателя.
// Покупатель видит только свой счёт, администратор — любой.
func (h *Handler) GetPoints(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, err := urlUUID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if actor.Role != model.RoleAdmin && actor.ID != id {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	summary, err := h.service.GetPoints(r.Context(), id)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	history := make([]pointsTransactionResponse, 0, len(summary.History))
	for _, tx := range summary.History {
		history = append(history, pointsTransactionResponse{
			OrderID:   tx.OrderID,
			Type:      string(tx.Type),
			Points:    tx.Points,
			Balance:   tx.Balance,
			CreatedAt: tx.CreatedAt.Format(time.RFC3339),
		})
	}

	h.writeJSON(w, http.StatusOK, pointsResponse{
		Balance: summary.Balance,
		History: history,
	})
}

type closePeriodRequest struct {
	Note string `json:"note"`
}

type settlementResultResponse struct {
	Period              periodResponse `json:"weekly_period"`
	OrdersProcessed     int            `json:"orders_processed"`
	ShopsSettled        int            `json:"shops_settled"`
	RidersSettled       int            `json:"riders_settled"`
	PointsRedeemedValue float64        `json:"points_redeemed_value"`
	PlatformCommission  float64        `json:"platform_commission"`
}

// ClosePeriod закрывает текущую расчётную неделю.
func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	if actor.Role != model.RoleAdmin {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	var req closePeriodRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
	}

	res, err := h.service.ClosePeriod(r.Context(), actor.ID, req.Note, time.Now())
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, settlementResultResponse{
		Period:              toPeriodResponse(&res.Period),
		OrdersProcessed:     res.OrdersProcessed,
		ShopsSettled:        res.ShopsSettled,
		RidersSettled:       res.RidersSettled,
		PointsRedeemedValue: toUnits(res.PointsRedeemedValue),
		PlatformCommission:  toUnits(res.PlatformCommission),
	})
}

type periodResponse struct {
	ID         uuid.UUID `json:"id"`
	Year       int       `json:"year"`
	WeekNumber int       `json:"week_number"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	Status     string    `json:"status"`
	ClosedAt   *string   `json:"closed_at,omitempty"`
	Note       string    `json:"note,omitempty"`
}

func toPeriodResponse(p *model.WeeklyPeriod) periodResponse {
	resp := periodResponse{
		ID:         p.ID,
		Year:       p.Year,
		WeekNumber: p.WeekNumber,
		StartDate:  p.StartDate.Format(time.RFC3339),
		EndDate:    p.EndDate.Format(time.RFC3339),
		Status:     string(p.Status),
		Note:       p.Note,
	}
	if p.ClosedAt != nil {
		s := p.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &s
	}
	return resp
}

// GetCurrentPeriod возвращает последний закрытый период.
func (h *Handler) GetCurrentPeriod(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	if actor.Role != model.RoleAdmin {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	period, err := h.service.GetLatestPeriod(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if period == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, toPeriodResponse(period))
}

type summaryResponse struct {
	TotalOrders          int     `json:"total_orders"`
	CompletedOrders      int     `json:"completed_orders"`
	CancelledOrders      int     `json:"cancelled_orders"`
	GrossSales           float64 `json:"gross_sales"`
	TotalDeliveryFees    float64 `json:"total_delivery_fees"`
	TotalShopCommissions float64 `json:"total_shop_commissions"`
	TotalPointsRedeemed  int64   `json:"total_points_redeemed"`
	PointsDiscountValue  float64 `json:"points_discount_value"`
	FreeDeliveryOrders   int     `json:"free_delivery_orders"`
	FreeDeliveryCost     float64 `json:"free_delivery_cost"`
	TotalAdsRevenue      float64 `json:"total_ads_revenue"`
	AdminNetCommission   float64 `json:"admin_net_commission"`
}

type shopSettlementResponse struct {
	ID                   uuid.UUID `json:"id"`
	ShopID               uuid.UUID `json:"shop_id"`
	OrderCount           int       `json:"order_count"`
	GrossSales           float64   `json:"gross_sales"`
	ShopCommission       float64   `json:"shop_commission"`
	PointsDiscountCredit float64   `json:"points_discount_credit"`
	FreeDeliveryCost     float64   `json:"free_delivery_cost"`
	AdsCost              float64   `json:"ads_cost"`
	NetPayout            float64   `json:"net_payout"`
	Status               string    `json:"status"`
	Notes                string    `json:"notes,omitempty"`
}

type riderSettlementResponse struct {
	ID            uuid.UUID `json:"id"`
	RiderID       uuid.UUID `json:"rider_id"`
	DeliveryCount int       `json:"delivery_count"`
	Earnings      float64   `json:"earnings"`
	NetPayout     float64   `json:"net_payout"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
}

type reportResponse struct {
	Period           periodResponse            `json:"weekly_period"`
	Summary          summaryResponse           `json:"summary"`
	ShopSettlements  []shopSettlementResponse  `json:"shop_settlements"`
	RiderSettlements []riderSettlementResponse `json:"rider_settlements"`
}

// GetReport возвращает отчёт по закрытому периоду.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	if actor.Role != model.RoleAdmin {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	periodID, err := urlUUID(r, "periodID")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	period, shops, riders, err := h.service.GetPeriodReport(r.Context(), periodID)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	resp := reportResponse{
		Period: toPeriodResponse(period),
		Summary: summaryResponse{
			TotalOrders:          period.Summary.TotalOrders,
			CompletedOrders:      period.Summary.CompletedOrders,
			CancelledOrders:      period.Summary.CancelledOrders,
			GrossSales:           toUnits(period.Summary.GrossSales),
			TotalDeliveryFees:    toUnits(period.Summary.TotalDeliveryFees),
			TotalShopCommissions: toUnits(period.Summary.TotalShopCommissions),
			TotalPointsRedeemed:  period.Summary.TotalPointsRedeemed,
			PointsDiscountValue:  toUnits(period.Summary.PointsDiscountValue),
			FreeDeliveryOrders:   period.Summary.FreeDeliveryOrders,
			FreeDeliveryCost:     toUnits(period.Summary.FreeDeliveryCost),
			TotalAdsRevenue:      toUnits(period.Summary.TotalAdsRevenue),
			AdminNetCommission:   toUnits(period.Summary.PlatformCommission),
		},
		ShopSettlements:  make([]shopSettlementResponse, 0, len(shops)),
		RiderSettlements: make([]riderSettlementResponse, 0, len(riders)),
	}

	for _, s := range shops {
		resp.ShopSettlements = append(resp.ShopSettlements, shopSettlementResponse{
			ID:                   s.ID,
			ShopID:               s.ShopID,
			OrderCount:           s.OrderCount,
			GrossSales:           toUnits(s.GrossSales),
			ShopCommission:       toUnits(s.ShopCommission),
			PointsDiscountCredit: toUnits(s.PointsDiscountCredit),
			FreeDeliveryCost:     toUnits(s.FreeDeliveryCost),
			AdsCost:              toUnits(s.AdsCost),
			NetPayout:            toUnits(s.NetPayout),
			Status:               string(s.Status),
			Notes:                s.Notes,
		})
	}

	for _, rs := range riders {
		resp.RiderSettlements = append(resp.RiderSettlements, riderSettlementResponse{
			ID:            rs.ID,
			RiderID:       rs.RiderID,
			DeliveryCount: rs.DeliveryCount,
			Earnings:      toUnits(rs.Earnings),
			NetPayout:     toUnits(rs.NetPayout),
			Status:        string(rs.Status),
			Notes:         rs.Notes,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type reviewRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// ReviewShopSettlement меняет статус расчётной записи магазина.
func (h *Handler) ReviewShopSettlement(w http.ResponseWriter, r *http.Request) {
	h.reviewSettlement(w, r, h.service.ReviewShopSettlement)
}

// ReviewRiderSettlement меняет статус расчётной записи курьера.
func (h *Handler) ReviewRiderSettlement(w http.ResponseWriter, r *http.Request) {
	h.reviewSettlement(w, r, h.service.ReviewRiderSettlement)
}

func (h *Handler) reviewSettlement(w http.ResponseWriter, r *http.Request, review func(ctx context.Context, id uuid.UUID, target model.SettlementStatus, notes string, role model.ActorRole) error) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, err := urlUUID(r, "id")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := review(r.Context(), id, model.SettlementStatus(req.Status), req.Notes, actor.Role); err != nil {
		h.writeFailure(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
