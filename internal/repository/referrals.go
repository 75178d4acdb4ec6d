package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmeshcher/delivery-system/internal/failure"
	"github.com/mmeshcher/delivery-system/internal/model"
)

// CreateReferral сохраняет реферальную связь. Уникальный индекс по
// приглашённому гарантирует не более одного применённого кода на покупателя.
func (r *PostgresRepository) CreateReferral(ctx context.Context, ref model.Referral) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO referrals (id, referrer_id, referred_id, code, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ref.ID, ref.ReferrerID, ref.ReferredID, ref.Code, string(ref.Status), ref.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return failure.BusinessRule("customer already redeemed a referral code")
		}
		return fmt.Errorf("insert referral: %w", err)
	}
	return nil
}

// GetReferralByReferred возвращает реферальную связь приглашённого покупателя
// или nil, если код не применялся.
func (r *PostgresRepository) GetReferralByReferred(ctx context.Context, customerID uuid.UUID) (*model.Referral, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, referrer_id, referred_id, code, first_order_id, points_awarded, status, created_at, completed_at
		 FROM referrals WHERE referred_id = $1`,
		customerID,
	)

	var (
		ref    model.Referral
		status string
	)
	err := row.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.Code,
		&ref.FirstOrderID, &ref.PointsAwarded, &status, &ref.CreatedAt, &ref.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get referral: %w", err)
	}
	ref.Status = model.ReferralStatus(status)

	return &ref, nil
}

// ExpireReferrals переводит в expired ожидающие связи старше указанного момента.
func (r *PostgresRepository) ExpireReferrals(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE referrals SET status = $1 WHERE status = $2 AND created_at < $3`,
		string(model.ReferralStatusExpired), string(model.ReferralStatusPending), olderThan,
	)
	if err != nil {
		return 0, fmt.Errorf("expire referrals: %w", err)
	}
	return tag.RowsAffected(), nil
}
