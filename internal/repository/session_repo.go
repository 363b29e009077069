package repository

import (
	"context"

	"github.com/kassemKu/sibai-transactions-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRepository persists the shop-wide CashSession aggregate: the session
// row itself, its per-currency opening balances, running cash balances, and
// rate snapshots.
//
// The *Tx methods run inside a caller-owned gorm transaction; every mutation
// that reads a derived balance and then writes state goes through them so the
// read-then-write is serialized by row locks (see service layer).
type SessionRepository interface {
	DB() *gorm.DB

	CreateTx(tx *gorm.DB, s *model.CashSession) error
	UpdateTx(tx *gorm.DB, s *model.CashSession) error
	// FindCurrentTx returns the single non-closed session, locking the row
	// FOR UPDATE so competing state transitions and drawer allocations queue.
	FindCurrentTx(tx *gorm.DB) (*model.CashSession, error)
	FindCurrent(ctx context.Context) (*model.CashSession, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.CashSession, error)
	// FindLastClosed returns the most recently closed session (carry-forward
	// source for opening balances), or gorm.ErrRecordNotFound.
	FindLastClosed(ctx context.Context) (*model.CashSession, error)
	List(ctx context.Context, page, limit int) ([]model.CashSession, int64, error)

	CreateOpeningBalanceTx(tx *gorm.DB, b *model.SessionOpeningBalance) error
	CreateCashBalanceTx(tx *gorm.DB, b *model.CashBalance) error
	SaveCashBalanceTx(tx *gorm.DB, b *model.CashBalance) error
	// FindCashBalanceTx locks the (session, currency) balance row FOR UPDATE.
	FindCashBalanceTx(tx *gorm.DB, sessionID, currencyID uuid.UUID) (*model.CashBalance, error)
	ListCashBalances(ctx context.Context, sessionID uuid.UUID) ([]model.CashBalance, error)
	ListCashBalancesTx(tx *gorm.DB, sessionID uuid.UUID) ([]model.CashBalance, error)

	CreateRateSnapshotTx(tx *gorm.DB, s *model.SessionRateSnapshot) error
	ListRateSnapshots(ctx context.Context, sessionID uuid.UUID) ([]model.SessionRateSnapshot, error)

	// CreateCashboxAdditionTx writes the audit row for a mid-shift cash
	// injection, in the same transaction as the balance bump.
	CreateCashboxAdditionTx(tx *gorm.DB, a *model.CashboxAddition) error
	ListCashboxAdditions(ctx context.Context, sessionID uuid.UUID) ([]model.CashboxAddition, error)
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) DB() *gorm.DB { return r.db }

func (r *sessionRepo) CreateTx(tx *gorm.DB, s *model.CashSession) error {
	return tx.Create(s).Error
}

func (r *sessionRepo) UpdateTx(tx *gorm.DB, s *model.CashSession) error {
	return tx.Save(s).Error
}

func (r *sessionRepo) FindCurrentTx(tx *gorm.DB) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status <> ?", model.SessionClosed).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindCurrent(ctx context.Context) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("status <> ?", model.SessionClosed).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Preload("Balances.Currency").
		Preload("RateSnapshots").
		First(&s, id).Error
	return &s, err
}

func (r *sessionRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, id).Error
	return &s, err
}

func (r *sessionRepo) FindLastClosed(ctx context.Context) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Preload("Balances").
		Where("status = ?", model.SessionClosed).
		Order("closed_at DESC").
		First(&s).Error
	return &s, err
}

func (r *sessionRepo) List(ctx context.Context, page, limit int) ([]model.CashSession, int64, error) {
	var sessions []model.CashSession
	var total int64
	q := r.db.WithContext(ctx).Model(&model.CashSession{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("opened_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}

func (r *sessionRepo) CreateOpeningBalanceTx(tx *gorm.DB, b *model.SessionOpeningBalance) error {
	return tx.Create(b).Error
}

func (r *sessionRepo) CreateCashBalanceTx(tx *gorm.DB, b *model.CashBalance) error {
	return tx.Create(b).Error
}

func (r *sessionRepo) SaveCashBalanceTx(tx *gorm.DB, b *model.CashBalance) error {
	return tx.Save(b).Error
}

func (r *sessionRepo) FindCashBalanceTx(tx *gorm.DB, sessionID, currencyID uuid.UUID) (*model.CashBalance, error) {
	var b model.CashBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cash_session_id = ? AND currency_id = ?", sessionID, currencyID).
		First(&b).Error
	return &b, err
}

func (r *sessionRepo) ListCashBalances(ctx context.Context, sessionID uuid.UUID) ([]model.CashBalance, error) {
	var balances []model.CashBalance
	err := r.db.WithContext(ctx).
		Preload("Currency").
		Where("cash_session_id = ?", sessionID).
		Find(&balances).Error
	return balances, err
}

func (r *sessionRepo) ListCashBalancesTx(tx *gorm.DB, sessionID uuid.UUID) ([]model.CashBalance, error) {
	var balances []model.CashBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cash_session_id = ?", sessionID).
		Find(&balances).Error
	return balances, err
}

func (r *sessionRepo) CreateCashboxAdditionTx(tx *gorm.DB, a *model.CashboxAddition) error {
	return tx.Create(a).Error
}

func (r *sessionRepo) ListCashboxAdditions(ctx context.Context, sessionID uuid.UUID) ([]model.CashboxAddition, error) {
	var additions []model.CashboxAddition
	err := r.db.WithContext(ctx).
		Preload("Currency").
		Where("cash_session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&additions).Error
	return additions, err
}

func (r *sessionRepo) CreateRateSnapshotTx(tx *gorm.DB, s *model.SessionRateSnapshot) error {
	return tx.Create(s).Error
}

func (r *sessionRepo) ListRateSnapshots(ctx context.Context, sessionID uuid.UUID) ([]model.SessionRateSnapshot, error) {
	var snaps []model.SessionRateSnapshot
	err := r.db.WithContext(ctx).
		Where("cash_session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&snaps).Error
	return snaps, err
}
