package repository

import (
	"context"

	"github.com/kassemKu/sibai-transactions-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovementRepository is the append-only cash ledger. There is no Update or
// Delete on purpose: movements are immutable once written, and balances are
// always recomputable from them.
type MovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.CashMovement) error
	// SumSession sums completed-transaction movements of one type for a
	// (session, currency) scope.
	SumSession(ctx context.Context, sessionID, currencyID uuid.UUID, movType string) (decimal.Decimal, error)
	// SumCasher is the same restricted to one cashier within the session.
	SumCasher(ctx context.Context, sessionID, casherID, currencyID uuid.UUID, movType string) (decimal.Decimal, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error)
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.CashMovement, error)
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepository(db *gorm.DB) MovementRepository { return &movementRepo{db: db} }

func (r *movementRepo) CreateTx(tx *gorm.DB, m *model.CashMovement) error {
	return tx.Create(m).Error
}

// completedSum is the shared aggregation query: only movements whose parent
// transaction reached "completed" ever count toward a balance.
func (r *movementRepo) completedSum(ctx context.Context, movType string, where string, args ...interface{}) (decimal.Decimal, error) {
	var result struct{ Total decimal.Decimal }
	err := r.db.WithContext(ctx).
		Model(&model.CashMovement{}).
		Select("COALESCE(SUM(cash_movements.amount), 0) AS total").
		Joins("JOIN transactions ON transactions.id = cash_movements.transaction_id").
		Where("transactions.status = ?", model.TransactionCompleted).
		Where("cash_movements.type = ?", movType).
		Where(where, args...).
		Scan(&result).Error
	return result.Total, err
}

func (r *movementRepo) SumSession(ctx context.Context, sessionID, currencyID uuid.UUID, movType string) (decimal.Decimal, error) {
	return r.completedSum(ctx, movType,
		"cash_movements.cash_session_id = ? AND cash_movements.currency_id = ?", sessionID, currencyID)
}

func (r *movementRepo) SumCasher(ctx context.Context, sessionID, casherID, currencyID uuid.UUID, movType string) (decimal.Decimal, error) {
	return r.completedSum(ctx, movType,
		"cash_movements.cash_session_id = ? AND cash_movements.casher_id = ? AND cash_movements.currency_id = ?",
		sessionID, casherID, currencyID)
}

func (r *movementRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Preload("Currency").
		Where("cash_session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}

func (r *movementRepo) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}
