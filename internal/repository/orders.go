package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmeshcher/delivery-system/internal/failure"
	"github.com/mmeshcher/delivery-system/internal/model"
)

// OrderEffects описывает побочные эффекты смены статуса заказа по бонусному
// счёту: начисление баллов за завершение, бонус пригласившему при наличии
// ожидающей реферальной связи и возврат списанных баллов при отмене.
// Применяются в одной транзакции с изменением заказа.
type OrderEffects struct {
	PointsEarned int64
	Referral     *model.Referral
	BonusPoints  int64
	PointsRefund int64
}

// CreateOrder сохраняет заказ вместе с позициями. Если по заказу списываются
// баллы, операция списания создаётся в той же транзакции: заказ со списанием
// не может существовать без соответствующей операции по бонусному счёту.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o model.Order) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if o.PointsUsed > 0 {
			if err := insertPointsTx(ctx, tx, o.CustomerID, &o.ID, model.PointsRedeemed, -o.PointsUsed); err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO orders
			   (id, number, customer_id, shop_id, rider_id, status,
			    subtotal, delivery_fee, free_delivery, points_used, points_discount, total,
			    shop_commission, platform_commission, rider_earnings, points_earned, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			o.ID, o.Number, o.CustomerID, o.ShopID, o.RiderID, string(o.Status),
			o.Subtotal, o.DeliveryFee, o.FreeDelivery, o.PointsUsed, o.PointsDiscount, o.Total,
			o.ShopCommission, o.PlatformCommission, o.RiderEarnings, o.PointsEarned, o.CreatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return failure.BusinessRule("order number %s already exists", o.Number)
			}
			return fmt.Errorf("insert order: %w", err)
		}

		for _, item := range o.Items {
			_, err = tx.Exec(ctx,
				`INSERT INTO order_items (id, order_id, product_id, name, unit_price, quantity, subtotal)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				uuid.New(), o.ID, item.ProductID, item.Name, item.UnitPrice, item.Quantity, item.Subtotal,
			)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		return nil
	})
}

const orderColumns = `id, number, customer_id, shop_id, rider_id, status,
	subtotal, delivery_fee, free_delivery, points_used, points_discount, total,
	shop_commission, platform_commission, rider_earnings, points_earned,
	cash_collected, cash_transferred_to_shop, shop_confirmed_cash, weekly_period_id,
	created_at, accepted_at, preparing_at, picked_up_at, shop_paid_at, completed_at, cancelled_at`

func scanOrder(row pgx.Row) (model.Order, error) {
	var (
		o      model.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.CustomerID, &o.ShopID, &o.RiderID, &status,
		&o.Subtotal, &o.DeliveryFee, &o.FreeDelivery, &o.PointsUsed, &o.PointsDiscount, &o.Total,
		&o.ShopCommission, &o.PlatformCommission, &o.RiderEarnings, &o.PointsEarned,
		&o.CashCollected, &o.CashTransferredToShop, &o.ShopConfirmedCash, &o.WeeklyPeriodID,
		&o.CreatedAt, &o.AcceptedAt, &o.PreparingAt, &o.PickedUpAt, &o.ShopPaidAt, &o.CompletedAt, &o.CancelledAt,
	)
	if err != nil {
		return o, err
	}
	o.Status = model.OrderStatus(status)
	return o, nil
}

// GetOrder возвращает заказ с позициями.
func (r *PostgresRepository) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, failure.NotFound("order %s not found", id)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT product_id, name, unit_price, quantity, subtotal FROM order_items WHERE order_id = $1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity, &item.Subtotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &o, nil
}

// CountCompletedOrders возвращает число завершённых заказов покупателя.
func (r *PostgresRepository) CountCompletedOrders(ctx context.Context, customerID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE customer_id = $1 AND status = $2`,
		customerID, string(model.OrderStatusCompleted),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completed orders: %w", err)
	}
	return n, nil
}

// UpdateOrderStatus сохраняет заказ после перехода статуса. Строка заказа
// блокируется, и переход применяется только если статус в БД всё ещё равен
// исходному: проигравший конкурентный писатель получает BusinessRule.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, o model.Order, from model.OrderStatus, eff *OrderEffects) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := r.updateOrderTx(ctx, tx, o, from); err != nil {
			return err
		}

		if eff != nil {
			if err := r.applyEffectsTx(ctx, tx, o, eff); err != nil {
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		return nil
	})
}

// UpdateOrderCash сохраняет заказ после отметки этапа передачи наличных
// вместе с аудиторской записью. Для этапа подтверждения заказ одновременно
// переводится в completed, поэтому эффекты завершения применяются здесь же.
func (r *PostgresRepository) UpdateOrderCash(ctx context.Context, o model.Order, from model.OrderStatus, cash model.CashTransaction, eff *OrderEffects) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := r.updateOrderTx(ctx, tx, o, from); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO cash_transactions (id, order_id, type, amount, from_id, to_id, confirmed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			cash.ID, cash.OrderID, string(cash.Type), cash.Amount, cash.FromID, cash.ToID, cash.ConfirmedAt,
		)
		if err != nil {
			return fmt.Errorf("insert cash transaction: %w", err)
		}

		if eff != nil {
			if err := r.applyEffectsTx(ctx, tx, o, eff); err != nil {
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		return nil
	})
}

func (r *PostgresRepository) updateOrderTx(ctx context.Context, tx pgx.Tx, o model.Order, from model.OrderStatus) error {
	var current string
	err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, o.ID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return failure.NotFound("order %s not found", o.ID)
		}
		return fmt.Errorf("lock order for update: %w", err)
	}

	if model.OrderStatus(current) != from {
		return failure.BusinessRule("order %s was modified concurrently: status is %s", o.ID, current)
	}

	_, err = tx.Exec(ctx,
		`UPDATE orders SET
		   status = $2, rider_id = $3,
		   shop_commission = $4, platform_commission = $5, rider_earnings = $6,
		   points_earned = $7, points_used = $8, points_discount = $9,
		   cash_collected = $10, cash_transferred_to_shop = $11, shop_confirmed_cash = $12,
		   accepted_at = $13, preparing_at = $14, picked_up_at = $15,
		   shop_paid_at = $16, completed_at = $17, cancelled_at = $18
		 WHERE id = $1`,
		o.ID, string(o.Status), o.RiderID,
		o.ShopCommission, o.PlatformCommission, o.RiderEarnings,
		o.PointsEarned, o.PointsUsed, o.PointsDiscount,
		o.CashCollected, o.CashTransferredToShop, o.ShopConfirmedCash,
		o.AcceptedAt, o.PreparingAt, o.PickedUpAt,
		o.ShopPaidAt, o.CompletedAt, o.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	return nil
}

// applyEffectsTx начисляет баллы за завершённый заказ, возвращает списанные
// баллы при отмене и, при необходимости, выплачивает реферальный бонус.
// Бонус защищён условным UPDATE по points_awarded: повторное применение
// эффектов не создаёт второй выплаты.
func (r *PostgresRepository) applyEffectsTx(ctx context.Context, tx pgx.Tx, o model.Order, eff *OrderEffects) error {
	if eff.PointsEarned > 0 {
		if err := insertPointsTx(ctx, tx, o.CustomerID, &o.ID, model.PointsEarned, eff.PointsEarned); err != nil {
			return err
		}
	}

	if eff.PointsRefund > 0 {
		if err := insertPointsTx(ctx, tx, o.CustomerID, &o.ID, model.PointsAdjustment, eff.PointsRefund); err != nil {
			return err
		}
	}

	if eff.Referral == nil || eff.BonusPoints <= 0 {
		return nil
	}

	tag, err := tx.Exec(ctx,
		`UPDATE referrals
		 SET points_awarded = TRUE, status = $2, first_order_id = $3, completed_at = now()
		 WHERE id = $1 AND points_awarded = FALSE AND status = $4`,
		eff.Referral.ID, string(model.ReferralStatusCompleted), o.ID, string(model.ReferralStatusPending),
	)
	if err != nil {
		return fmt.Errorf("complete referral: %w", err)
	}

	// Нулевой результат — бонус уже выплачен параллельным завершением.
	if tag.RowsAffected() == 0 {
		return nil
	}

	return insertPointsTx(ctx, tx, eff.Referral.ReferrerID, &o.ID, model.PointsReferralBonus, eff.BonusPoints)
}
