package repository

import (
	"context"

	"github.com/kassemKu/sibai-transactions-sub000/internal/dto"
	"github.com/kassemKu/sibai-transactions-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepository interface {
	DB() *gorm.DB
	CreateTx(tx *gorm.DB, t *model.Transaction) error
	UpdateTx(tx *gorm.DB, t *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	// FindByIDTx locks the transaction row FOR UPDATE so a concurrent
	// confirm/cancel of the same hand-off serializes.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context, filter dto.TransactionFilter) ([]model.Transaction, int64, error)
	// SessionStats returns the completed-transaction count and summed USD
	// profit for one session (close report input).
	SessionStats(ctx context.Context, sessionID uuid.UUID) (int64, decimal.Decimal, error)
}

type transactionRepo struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) DB() *gorm.DB { return r.db }

func (r *transactionRepo) CreateTx(tx *gorm.DB, t *model.Transaction) error {
	return tx.Create(t).Error
}

func (r *transactionRepo) UpdateTx(tx *gorm.DB, t *model.Transaction) error {
	return tx.Save(t).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	err := r.db.WithContext(ctx).
		Preload("FromCurrency").
		Preload("ToCurrency").
		Preload("Movements").
		First(&t, id).Error
	return &t, err
}

func (r *transactionRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, id).Error
	return &t, err
}

func (r *transactionRepo) List(ctx context.Context, filter dto.TransactionFilter) ([]model.Transaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Transaction{})
	if filter.CashSessionID != "" {
		q = q.Where("cash_session_id = ?", filter.CashSessionID)
	}
	if filter.CasherID != "" {
		q = q.Where("assigned_to = ?", filter.CasherID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []model.Transaction
	err := q.Preload("FromCurrency").
		Preload("ToCurrency").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&txns).Error
	return txns, total, err
}

func (r *transactionRepo) SessionStats(ctx context.Context, sessionID uuid.UUID) (int64, decimal.Decimal, error) {
	var row struct {
		Count  int64
		Profit decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total_profit_usd), 0) AS profit").
		Where("cash_session_id = ? AND status = ?", sessionID, model.TransactionCompleted).
		Scan(&row).Error
	return row.Count, row.Profit, err
}
