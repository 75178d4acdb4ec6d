// Package pricing содержит чистые функции расчёта комиссий, баллов и итога заказа.
package pricing

import "math"

// PointValueCents — стоимость одного бонусного балла в минимальных единицах валюты.
const PointValueCents int64 = 100

// earnStepCents — порог суммы заказа, за который начисляется один балл
// (1 балл за каждые 100 единиц валюты, остаток отбрасывается).
const earnStepCents = 100 * PointValueCents

// Input содержит исходные данные расчёта заказа.
type Input struct {
	Subtotal        int64
	DeliveryFee     int64
	FreeDelivery    bool
	CommissionRate  float64
	PointsRequested int64
	CustomerBalance int64
}

// Quote содержит вычисленные финансовые поля заказа.
// Значения фиксируются один раз при создании заказа.
type Quote struct {
	PointsUsed         int64
	PointsDiscount     int64
	ShopCommission     int64
	PlatformCommission int64
	RiderEarnings      int64
	Total              int64
	PointsEarned       int64
}

// PointsEarned возвращает количество баллов за заказ с указанной суммой.
// Деление целочисленное: остаток всегда отбрасывается, округления нет.
func PointsEarned(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	return subtotal / earnStepCents
}

// Calculate вычисляет финансовые поля заказа.
// Списываемые баллы ограничиваются балансом покупателя и суммой заказа.
// PlatformCommission может быть отрицательной — значение сохраняется как есть,
// недельный агрегатор сводит его по множеству заказов.
func Calculate(in Input) Quote {
	pointsUsed := in.PointsRequested
	if pointsUsed < 0 {
		pointsUsed = 0
	}
	if pointsUsed > in.CustomerBalance {
		pointsUsed = in.CustomerBalance
	}
	if maxBySubtotal := in.Subtotal / PointValueCents; pointsUsed > maxBySubtotal {
		pointsUsed = maxBySubtotal
	}

	pointsDiscount := pointsUsed * PointValueCents
	shopCommission := int64(math.Round(float64(in.Subtotal) * in.CommissionRate))

	// При бесплатной доставке покупатель не платит за доставку, курьер за
	// этот заказ ничего не получает, а стоимость доставки вычитается из
	// комиссии платформы.
	freeDeliveryCost := int64(0)
	chargedFee := in.DeliveryFee
	riderEarnings := in.DeliveryFee
	if in.FreeDelivery {
		freeDeliveryCost = in.DeliveryFee
		chargedFee = 0
		riderEarnings = 0
	}

	return Quote{
		PointsUsed:         pointsUsed,
		PointsDiscount:     pointsDiscount,
		ShopCommission:     shopCommission,
		PlatformCommission: shopCommission - pointsDiscount - freeDeliveryCost,
		RiderEarnings:      riderEarnings,
		Total:              in.Subtotal + chargedFee - pointsDiscount,
		PointsEarned:       PointsEarned(in.Subtotal),
	}
}
