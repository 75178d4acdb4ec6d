package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/delivery-system/internal/failure"
	"github.com/mmeshcher/delivery-system/internal/model"
)

const periodColumns = `id, year, week_number, start_date, end_date, status,
	total_orders, completed_orders, cancelled_orders, gross_sales, total_delivery_fees,
	total_shop_commissions, total_points_redeemed, points_discount_value,
	free_delivery_orders, free_delivery_cost, total_ads_revenue, platform_commission,
	closed_by, closed_at, note`

func scanPeriod(row pgx.Row) (model.WeeklyPeriod, error) {
	var (
		p      model.WeeklyPeriod
		status string
	)
	err := row.Scan(
		&p.ID, &p.Year, &p.WeekNumber, &p.StartDate, &p.EndDate, &status,
		&p.Summary.TotalOrders, &p.Summary.CompletedOrders, &p.Summary.CancelledOrders,
		&p.Summary.GrossSales, &p.Summary.TotalDeliveryFees,
		&p.Summary.TotalShopCommissions, &p.Summary.TotalPointsRedeemed, &p.Summary.PointsDiscountValue,
		&p.Summary.FreeDeliveryOrders, &p.Summary.FreeDeliveryCost,
		&p.Summary.TotalAdsRevenue, &p.Summary.PlatformCommission,
		&p.ClosedBy, &p.ClosedAt, &p.Note,
	)
	if err != nil {
		return p, err
	}
	p.Status = model.PeriodStatus(status)
	return p, nil
}

// GetPeriodByKey возвращает период по (год, номер недели) или nil, если
// период ещё не закрывался.
func (r *PostgresRepository) GetPeriodByKey(ctx context.Context, year, week int) (*model.WeeklyPeriod, error) {
	p, err := scanPeriod(r.pool.QueryRow(ctx,
		`SELECT `+periodColumns+` FROM weekly_periods WHERE year = $1 AND week_number = $2`,
		year, week,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get period by key: %w", err)
	}
	return &p, nil
}

// GetPeriod возвращает период по идентификатору.
func (r *PostgresRepository) GetPeriod(ctx context.Context, id uuid.UUID) (*model.WeeklyPeriod, error) {
	p, err := scanPeriod(r.pool.QueryRow(ctx,
		`SELECT `+periodColumns+` FROM weekly_periods WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, failure.NotFound("settlement period %s not found", id)
		}
		return nil, fmt.Errorf("get period: %w", err)
	}
	return &p, nil
}

// GetLatestPeriod возвращает последний закрытый период или nil.
func (r *PostgresRepository) GetLatestPeriod(ctx context.Context) (*model.WeeklyPeriod, error) {
	p, err := scanPeriod(r.pool.QueryRow(ctx,
		`SELECT ` + periodColumns + ` FROM weekly_periods ORDER BY start_date DESC LIMIT 1`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest period: %w", err)
	}
	return &p, nil
}

// GetOrdersForSettlement возвращает завершённые и отменённые заказы, попавшие
// в границы периода по моменту достижения терминального статуса. Заказ,
// созданный в одну неделю и завершённый в следующую, попадает в свод недели
// завершения. Позиции заказов для свода не нужны.
func (r *PostgresRepository) GetOrdersForSettlement(ctx context.Context, from, to time.Time) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE (status = $3 AND completed_at >= $1 AND completed_at < $2)
		    OR (status = $4 AND cancelled_at >= $1 AND cancelled_at < $2)
		 ORDER BY created_at`,
		from, to, string(model.OrderStatusCompleted), string(model.OrderStatusCancelled),
	)
	if err != nil {
		return nil, fmt.Errorf("select orders for settlement: %w", err)
	}
	defer rows.Close()

	var res []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		res = append(res, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// CloseWeek атомарно фиксирует закрытие периода: строку периода, расчётные
// записи магазинов и курьеров и привязку заказов к периоду. Уникальный индекс
// (year, week_number) не даёт двум закрытиям одного периода зафиксироваться
// обоим: проигравший получает BusinessRule «уже закрыт».
func (r *PostgresRepository) CloseWeek(ctx context.Context, p model.WeeklyPeriod,
	shopSettlements []model.ShopSettlement, riderSettlements []model.RiderSettlement,
	orderIDs []uuid.UUID) error {

	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		tag, err := tx.Exec(ctx,
			`INSERT INTO weekly_periods
			   (id, year, week_number, start_date, end_date, status,
			    total_orders, completed_orders, cancelled_orders, gross_sales, total_delivery_fees,
			    total_shop_commissions, total_points_redeemed, points_discount_value,
			    free_delivery_orders, free_delivery_cost, total_ads_revenue, platform_commission,
			    closed_by, closed_at, note)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
			 ON CONFLICT (year, week_number) DO NOTHING`,
			p.ID, p.Year, p.WeekNumber, p.StartDate, p.EndDate, string(p.Status),
			p.Summary.TotalOrders, p.Summary.CompletedOrders, p.Summary.CancelledOrders,
			p.Summary.GrossSales, p.Summary.TotalDeliveryFees,
			p.Summary.TotalShopCommissions, p.Summary.TotalPointsRedeemed, p.Summary.PointsDiscountValue,
			p.Summary.FreeDeliveryOrders, p.Summary.FreeDeliveryCost,
			p.Summary.TotalAdsRevenue, p.Summary.PlatformCommission,
			p.ClosedBy, p.ClosedAt, p.Note,
		)
		if err != nil {
			return fmt.Errorf("insert period: %w", err)
		}

		if tag.RowsAffected() == 0 {
			return failure.BusinessRule("settlement period %d/%d is already closed", p.Year, p.WeekNumber)
		}

		for _, s := range shopSettlements {
			_, err = tx.Exec(ctx,
				`INSERT INTO shop_settlements
				   (id, shop_id, period_id, order_count, gross_sales, shop_commission,
				    points_discount_credit, free_delivery_cost, ads_cost, net_payout, status, notes)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				s.ID, s.ShopID, s.PeriodID, s.OrderCount, s.GrossSales, s.ShopCommission,
				s.PointsDiscountCredit, s.FreeDeliveryCost, s.AdsCost, s.NetPayout, string(s.Status), s.Notes,
			)
			if err != nil {
				return fmt.Errorf("insert shop settlement: %w", err)
			}
		}

		for _, s := range riderSettlements {
			_, err = tx.Exec(ctx,
				`INSERT INTO rider_settlements
				   (id, rider_id, period_id, delivery_count, earnings, net_payout, status, notes)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				s.ID, s.RiderID, s.PeriodID, s.DeliveryCount, s.Earnings, s.NetPayout, string(s.Status), s.Notes,
			)
			if err != nil {
				return fmt.Errorf("insert rider settlement: %w", err)
			}
		}

		if len(orderIDs) > 0 {
			_, err = tx.Exec(ctx,
				`UPDATE orders SET weekly_period_id = $1 WHERE id = ANY($2)`,
				p.ID, orderIDs,
			)
			if err != nil {
				return fmt.Errorf("link orders to period: %w", err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		return nil
	})
}

// GetShopSettlements возвращает расчётные записи магазинов за период.
func (r *PostgresRepository) GetShopSettlements(ctx context.Context, periodID uuid.UUID) ([]model.ShopSettlement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, shop_id, period_id, order_count, gross_sales, shop_commission,
		        points_discount_credit, free_delivery_cost, ads_cost, net_payout, status, notes, created_at
		 FROM shop_settlements WHERE period_id = $1 ORDER BY shop_id`,
		periodID,
	)
	if err != nil {
		return nil, fmt.Errorf("select shop settlements: %w", err)
	}
	defer rows.Close()

	var res []model.ShopSettlement
	for rows.Next() {
		var (
			s      model.ShopSettlement
			status string
		)
		if err := rows.Scan(&s.ID, &s.ShopID, &s.PeriodID, &s.OrderCount, &s.GrossSales, &s.ShopCommission,
			&s.PointsDiscountCredit, &s.FreeDeliveryCost, &s.AdsCost, &s.NetPayout, &status, &s.Notes, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan shop settlement: %w", err)
		}
		s.Status = model.SettlementStatus(status)
		res = append(res, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetRiderSettlements возвращает расчётные записи курьеров за период.
func (r *PostgresRepository) GetRiderSettlements(ctx context.Context, periodID uuid.UUID) ([]model.RiderSettlement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, rider_id, period_id, delivery_count, earnings, net_payout, status, notes, created_at
		 FROM rider_settlements WHERE period_id = $1 ORDER BY rider_id`,
		periodID,
	)
	if err != nil {
		return nil, fmt.Errorf("select rider settlements: %w", err)
	}
	defer rows.Close()

	var res []model.RiderSettlement
	for rows.Next() {
		var (
			s      model.RiderSettlement
			status string
		)
		if err := rows.Scan(&s.ID, &s.RiderID, &s.PeriodID, &s.DeliveryCount, &s.Earnings, &s.NetPayout,
			&status, &s.Notes, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rider settlement: %w", err)
		}
		s.Status = model.SettlementStatus(status)
		res = append(res, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetShopSettlement возвращает одну расчётную запись магазина.
func (r *PostgresRepository) GetShopSettlement(ctx context.Context, id uuid.UUID) (*model.ShopSettlement, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, shop_id, period_id, order_count, gross_sales, shop_commission,
		        points_discount_credit, free_delivery_cost, ads_cost, net_payout, status, notes, created_at
		 FROM shop_settlements WHERE id = $1`,
		id,
	)

	var (
		s      model.ShopSettlement
		status string
	)
	err := row.Scan(&s.ID, &s.ShopID, &s.PeriodID, &s.OrderCount, &s.GrossSales, &s.ShopCommission,
		&s.PointsDiscountCredit, &s.FreeDeliveryCost, &s.AdsCost, &s.NetPayout, &status, &s.Notes, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, failure.NotFound("shop settlement %s not found", id)
		}
		return nil, fmt.Errorf("get shop settlement: %w", err)
	}
	s.Status = model.SettlementStatus(status)

	return &s, nil
}

// GetRiderSettlement возвращает одну расчётную запись курьера.
func (r *PostgresRepository) GetRiderSettlement(ctx context.Context, id uuid.UUID) (*model.RiderSettlement, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, rider_id, period_id, delivery_count, earnings, net_payout, status, notes, created_at
		 FROM rider_settlements WHERE id = $1`,
		id,
	)

	var (
		s      model.RiderSettlement
		status string
	)
	err := row.Scan(&s.ID, &s.RiderID, &s.PeriodID, &s.DeliveryCount, &s.Earnings, &s.NetPayout,
		&status, &s.Notes, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, failure.NotFound("rider settlement %s not found", id)
		}
		return nil, fmt.Errorf("get rider settlement: %w", err)
	}
	s.Status = model.SettlementStatus(status)

	return &s, nil
}

// UpdateShopSettlementStatus меняет статус и примечания расчётной записи магазина.
func (r *PostgresRepository) UpdateShopSettlementStatus(ctx context.Context, id uuid.UUID, status model.SettlementStatus, notes string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE shop_settlements SET status = $2, notes = $3 WHERE id = $1`,
		id, string(status), notes,
	)
	if err != nil {
		return fmt.Errorf("update shop settlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return failure.NotFound("shop settlement %s not found", id)
	}
	return nil
}

// UpdateRiderSettlementStatus меняет статус и примечания расчётной записи курьера.
func (r *PostgresRepository) UpdateRiderSettlementStatus(ctx context.Context, id uuid.UUID, status model.SettlementStatus, notes string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE rider_settlements SET status = $2, notes = $3 WHERE id = $1`,
		id, string(status), notes,
	)
	if err != nil {
		return fmt.Errorf("update rider settlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return failure.NotFound("rider settlement %s not found", id)
	}
	return nil
}
