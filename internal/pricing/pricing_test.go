package pricing

import "testing"

func TestPointsEarned(t *testing.T) {
	tests := []struct {
		name     string
		subtotal int64
		want     int64
	}{
		{
			name:     "350 units earn 3 points",
			subtotal: 35000,
			want:     3,
		},
		{
			name:     "99 units earn nothing",
			subtotal: 9900,
			want:     0,
		},
		{
			name:     "exactly 100 units earn 1 point",
			subtotal: 10000,
			want:     1,
		},
		{
			name:     "truncates, never rounds",
			subtotal: 19999,
			want:     1,
		},
		{
			name:     "zero subtotal",
			subtotal: 0,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointsEarned(tt.subtotal); got != tt.want {
				t.Fatalf("PointsEarned(%d) = %d, want %d", tt.subtotal, got, tt.want)
			}
		})
	}
}

func TestCalculate_WorkedExample(t *testing.T) {
	// Сумма 200, доставка 15, комиссия 10%, списано 5 баллов.
	q := Calculate(Input{
		Subtotal:        20000,
		DeliveryFee:     1500,
		FreeDelivery:    false,
		CommissionRate:  0.10,
		PointsRequested: 5,
		CustomerBalance: 50,
	})

	if q.ShopCommission != 2000 {
		t.Fatalf("ShopCommission = %d, want 2000", q.ShopCommission)
	}
	if q.PlatformCommission != 1500 {
		t.Fatalf("PlatformCommission = %d, want 1500", q.PlatformCommission)
	}
	if q.RiderEarnings != 1500 {
		t.Fatalf("RiderEarnings = %d, want 1500", q.RiderEarnings)
	}
	if q.Total != 21000 {
		t.Fatalf("Total = %d, want 21000", q.Total)
	}
	if q.PointsUsed != 5 || q.PointsDiscount != 500 {
		t.Fatalf("PointsUsed = %d, PointsDiscount = %d, want 5 and 500", q.PointsUsed, q.PointsDiscount)
	}
	if q.PointsEarned != 2 {
		t.Fatalf("PointsEarned = %d, want 2", q.PointsEarned)
	}
}

func TestCalculate_NegativePlatformCommissionPreserved(t *testing.T) {
	q := Calculate(Input{
		Subtotal:        10000,
		DeliveryFee:     2000,
		FreeDelivery:    true,
		CommissionRate:  0.05,
		PointsRequested: 10,
		CustomerBalance: 10,
	})

	// 500 − 1000 − 2000 = −2500: отрицательное значение не обрезается.
	if q.PlatformCommission != -2500 {
		t.Fatalf("PlatformCommission = %d, want -2500", q.PlatformCommission)
	}
}

func TestCalculate_FreeDelivery(t *testing.T) {
	q := Calculate(Input{
		Subtotal:       20000,
		DeliveryFee:    1500,
		FreeDelivery:   true,
		CommissionRate: 0.10,
	})

	if q.RiderEarnings != 0 {
		t.Fatalf("RiderEarnings = %d, want 0 for free delivery", q.RiderEarnings)
	}
	if q.Total != 20000 {
		t.Fatalf("Total = %d, want 20000: free delivery is not charged", q.Total)
	}
	if q.PlatformCommission != 500 {
		t.Fatalf("PlatformCommission = %d, want 500", q.PlatformCommission)
	}
}

func TestCalculate_RedemptionCappedByBalance(t *testing.T) {
	q := Calculate(Input{
		Subtotal:        20000,
		DeliveryFee:     1000,
		CommissionRate:  0.10,
		PointsRequested: 50,
		CustomerBalance: 7,
	})

	if q.PointsUsed != 7 {
		t.Fatalf("PointsUsed = %d, want 7 (capped by balance)", q.PointsUsed)
	}
	if q.PointsDiscount != 700 {
		t.Fatalf("PointsDiscount = %d, want 700", q.PointsDiscount)
	}
}

func TestCalculate_RedemptionCappedBySubtotal(t *testing.T) {
	q := Calculate(Input{
		Subtotal:        500,
		DeliveryFee:     1000,
		CommissionRate:  0.10,
		PointsRequested: 100,
		CustomerBalance: 100,
	})

	// Скидка не может превышать сумму заказа: 500 центов — это 5 баллов.
	if q.PointsUsed != 5 {
		t.Fatalf("PointsUsed = %d, want 5 (capped by subtotal)", q.PointsUsed)
	}
}

func TestCalculate_NegativeRequestedPoints(t *testing.T) {
	q := Calculate(Input{
		Subtotal:        10000,
		DeliveryFee:     1000,
		CommissionRate:  0.10,
		PointsRequested: -3,
		CustomerBalance: 10,
	})

	if q.PointsUsed != 0 || q.PointsDiscount != 0 {
		t.Fatalf("negative request must not redeem points, got used=%d discount=%d", q.PointsUsed, q.PointsDiscount)
	}
}
