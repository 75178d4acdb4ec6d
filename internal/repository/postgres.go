// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/delivery-system/internal/failure"
	"github.com/mmeshcher/delivery-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// Доменные отказы ретраить бессмысленно.
		if failure.KindOf(err) != failure.KindServer {
			return err
		}

		// Ретраи полезны для Serialization Failure и Deadlock.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения.
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// GetShop возвращает настройки магазина.
func (r *PostgresRepository) GetShop(ctx context.Context, id uuid.UUID) (*model.Shop, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, commission_rate, delivery_fee, free_delivery FROM shops WHERE id = $1`,
		id,
	)

	var s model.Shop
	err := row.Scan(&s.ID, &s.Name, &s.CommissionRate, &s.DeliveryFee, &s.FreeDelivery)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, failure.NotFound("shop %s not found", id)
		}
		return nil, fmt.Errorf("get shop: %w", err)
	}

	return &s, nil
}

// GetCustomer возвращает покупателя по идентификатору.
func (r *PostgresRepository) GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, referral_code, created_at FROM customers WHERE id = $1`,
		id,
	)

	var c model.Customer
	err := row.Scan(&c.ID, &c.Name, &c.ReferralCode, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, failure.NotFound("customer %s not found", id)
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	return &c, nil
}

// GetCustomerByReferralCode возвращает владельца реферального кода.
func (r *PostgresRepository) GetCustomerByReferralCode(ctx context.Context, code string) (*model.Customer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, referral_code, created_at FROM customers WHERE referral_code = $1`,
		code,
	)

	var c model.Customer
	err := row.Scan(&c.ID, &c.Name, &c.ReferralCode, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, failure.NotFound("referral code %s is unknown", code)
		}
		return nil, fmt.Errorf("get customer by code: %w", err)
	}

	return &c, nil
}

// GetPointsBalance возвращает текущий баланс бонусных баллов покупателя.
func (r *PostgresRepository) GetPointsBalance(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(points), 0) FROM points_transactions WHERE customer_id = $1`,
		customerID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("sum points: %w", err)
	}
	return balance, nil
}

// GetPointsHistory возвращает историю операций по бонусному счёту.
func (r *PostgresRepository) GetPointsHistory(ctx context.Context, customerID uuid.UUID) ([]model.PointsTransaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, customer_id, order_id, type, points, balance, created_at
		 FROM points_transactions
		 WHERE customer_id = $1
		 ORDER BY created_at DESC`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select points transactions: %w", err)
	}
	defer rows.Close()

	var res []model.PointsTransaction
	for rows.Next() {
		var (
			pt    model.PointsTransaction
			ptype string
		)
		if err := rows.Scan(&pt.ID, &pt.CustomerID, &pt.OrderID, &ptype, &pt.Points, &pt.Balance, &pt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan points transaction: %w", err)
		}
		pt.Type = model.PointsTransactionType(ptype)
		res = append(res, pt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// insertPointsTx добавляет операцию по бонусному счёту внутри транзакции.
// Строка покупателя блокируется, чтобы сериализовать конкурентные списания;
// баланс после операции не может стать отрицательным.
func insertPointsTx(ctx context.Context, tx pgx.Tx, customerID uuid.UUID, orderID *uuid.UUID, ptype model.PointsTransactionType, delta int64) error {
	var dummy int
	err := tx.QueryRow(ctx, `SELECT 1 FROM customers WHERE id = $1 FOR UPDATE`, customerID).Scan(&dummy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return failure.NotFound("customer %s not found", customerID)
		}
		return fmt.Errorf("lock customer for update: %w", err)
	}

	var current int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(points), 0) FROM points_transactions WHERE customer_id = $1`,
		customerID,
	).Scan(&current)
	if err != nil {
		return fmt.Errorf("sum points: %w", err)
	}

	balance := current + delta
	if balance < 0 {
		return failure.BusinessRule("insufficient points balance")
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO points_transactions (id, customer_id, order_id, type, points, balance)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), customerID, orderID, string(ptype), delta, balance,
	)
	if err != nil {
		return fmt.Errorf("insert points transaction: %w", err)
	}

	return nil
}
