package settlement

import (
	"sort"

	"github.com/google/uuid"

	"github.com/mmeshcher/delivery-system/internal/failure"
	"github.com/mmeshcher/delivery-system/internal/model"
)

// Aggregation — результат свода заказов за период.
type Aggregation struct {
	Summary           model.PeriodSummary
	ShopSettlements   []model.ShopSettlement
	RiderSettlements  []model.RiderSettlement
	CompletedOrderIDs []uuid.UUID
	ShopPointsCredits map[uuid.UUID]int64
}

// Aggregate сводит заказы периода в расчётные записи по магазинам и курьерам.
// Участвуют только завершённые заказы; отмененные учитываются лишь в счётчиках
// сводки. Скидка за баллы возвращается магазину — её стоимость несёт платформа.
// Пустой набор завершённых заказов — BusinessRule «нечего закрывать».
func Aggregate(orders []model.Order, adsCosts map[uuid.UUID]int64) (*Aggregation, error) {
	agg := &Aggregation{
		ShopPointsCredits: make(map[uuid.UUID]int64),
	}

	shops := make(map[uuid.UUID]*model.ShopSettlement)
	riders := make(map[uuid.UUID]*model.RiderSettlement)

	for _, o := range orders {
		agg.Summary.TotalOrders++

		if o.Status == model.OrderStatusCancelled {
			agg.Summary.CancelledOrders++
			continue
		}
		if o.Status != model.OrderStatusCompleted {
			continue
		}

		agg.Summary.CompletedOrders++
		agg.Summary.GrossSales += o.Subtotal
		agg.Summary.TotalShopCommissions += o.ShopCommission
		agg.Summary.TotalPointsRedeemed += o.PointsUsed
		agg.Summary.PointsDiscountValue += o.PointsDiscount
		agg.Summary.PlatformCommission += o.PlatformCommission
		if o.FreeDelivery {
			agg.Summary.FreeDeliveryOrders++
			agg.Summary.FreeDeliveryCost += o.DeliveryFee
		} else {
			agg.Summary.TotalDeliveryFees += o.DeliveryFee
		}

		agg.CompletedOrderIDs = append(agg.CompletedOrderIDs, o.ID)

		s, ok := shops[o.ShopID]
		if !ok {
			s = &model.ShopSettlement{ShopID: o.ShopID}
			shops[o.ShopID] = s
		}
		s.OrderCount++
		s.GrossSales += o.Subtotal
		s.ShopCommission += o.ShopCommission
		s.PointsDiscountCredit += o.PointsDiscount
		if o.FreeDelivery {
			s.FreeDeliveryCost += o.DeliveryFee
		}
		agg.ShopPointsCredits[o.ShopID] += o.PointsDiscount

		if o.RiderID != nil {
			r, ok := riders[*o.RiderID]
			if !ok {
				r = &model.RiderSettlement{RiderID: *o.RiderID}
				riders[*o.RiderID] = r
			}
			r.DeliveryCount++
			r.Earnings += o.RiderEarnings
		}
	}

	if agg.Summary.CompletedOrders == 0 {
		return nil, failure.BusinessRule("nothing to settle")
	}

	// Рекламные расходы добавляются и магазинам без завершённых заказов.
	for shopID, cost := range adsCosts {
		s, ok := shops[shopID]
		if !ok {
			s = &model.ShopSettlement{ShopID: shopID}
			shops[shopID] = s
		}
		s.AdsCost += cost
		agg.Summary.TotalAdsRevenue += cost
	}
	agg.Summary.PlatformCommission += agg.Summary.TotalAdsRevenue

	for _, s := range shops {
		s.ID = uuid.New()
		s.Status = model.SettlementStatusPending
		s.NetPayout = s.GrossSales - s.ShopCommission + s.PointsDiscountCredit - s.AdsCost
		agg.ShopSettlements = append(agg.ShopSettlements, *s)
	}
	for _, r := range riders {
		r.ID = uuid.New()
		r.Status = model.SettlementStatusPending
		r.NetPayout = r.Earnings
		agg.RiderSettlements = append(agg.RiderSettlements, *r)
	}

	sort.Slice(agg.ShopSettlements, func(i, j int) bool {
		return agg.ShopSettlements[i].ShopID.String() < agg.ShopSettlements[j].ShopID.String()
	})
	sort.Slice(agg.RiderSettlements, func(i, j int) bool {
		return agg.RiderSettlements[i].RiderID.String() < agg.RiderSettlements[j].RiderID.String()
	})

	return agg, nil
}
