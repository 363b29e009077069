package repository

import (
	"context"

	"github.com/kassemKu/sibai-transactions-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CasherSessionRepository interface {
	// DB exposes the underlying handle so services can scope transactions.
	DB() *gorm.DB

	CreateTx(tx *gorm.DB, s *model.CasherCashSession) error
	UpdateTx(tx *gorm.DB, s *model.CasherCashSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CasherCashSession, error)
	// FindByIDTx locks the drawer row FOR UPDATE.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.CasherCashSession, error)
	// FindActiveByCasher returns the casher's active drawer in the given
	// session, or gorm.ErrRecordNotFound.
	FindActiveByCasher(ctx context.Context, sessionID, casherID uuid.UUID) (*model.CasherCashSession, error)
	FindActiveByCasherTx(tx *gorm.DB, sessionID, casherID uuid.UUID) (*model.CasherCashSession, error)
	// ListActiveBySessionTx returns all non-closed drawers of a session with
	// their balances, locked FOR UPDATE (availability guard input).
	ListActiveBySessionTx(tx *gorm.DB, sessionID uuid.UUID) ([]model.CasherCashSession, error)
	CountNotClosedTx(tx *gorm.DB, sessionID uuid.UUID) (int64, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.CasherCashSession, error)

	CreateBalanceTx(tx *gorm.DB, b *model.CasherSessionBalance) error
	SaveBalanceTx(tx *gorm.DB, b *model.CasherSessionBalance) error
	// FindBalanceTx locks the (drawer, currency) balance row FOR UPDATE.
	FindBalanceTx(tx *gorm.DB, casherSessionID, currencyID uuid.UUID) (*model.CasherSessionBalance, error)
	ListBalances(ctx context.Context, casherSessionID uuid.UUID) ([]model.CasherSessionBalance, error)
	ListBalancesTx(tx *gorm.DB, casherSessionID uuid.UUID) ([]model.CasherSessionBalance, error)
}

type casherSessionRepo struct{ db *gorm.DB }

func NewCasherSessionRepository(db *gorm.DB) CasherSessionRepository {
	return &casherSessionRepo{db: db}
}

func (r *casherSessionRepo) DB() *gorm.DB { return r.db }

func (r *casherSessionRepo) CreateTx(tx *gorm.DB, s *model.CasherCashSession) error {
	return tx.Create(s).Error
}

func (r *casherSessionRepo) UpdateTx(tx *gorm.DB, s *model.CasherCashSession) error {
	return tx.Save(s).Error
}

func (r *casherSessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CasherCashSession, error) {
	var s model.CasherCashSession
	err := r.db.WithContext(ctx).
		Preload("Balances.Currency").
		Preload("Casher").
		First(&s, id).Error
	return &s, err
}

func (r *casherSessionRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.CasherCashSession, error) {
	var s model.CasherCashSession
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, id).Error
	return &s, err
}

func (r *casherSessionRepo) FindActiveByCasher(ctx context.Context, sessionID, casherID uuid.UUID) (*model.CasherCashSession, error) {
	var s model.CasherCashSession
	err := r.db.WithContext(ctx).
		Where("cash_session_id = ? AND casher_id = ? AND status = ?", sessionID, casherID, model.SessionActive).
		First(&s).Error
	return &s, err
}

func (r *casherSessionRepo) FindActiveByCasherTx(tx *gorm.DB, sessionID, casherID uuid.UUID) (*model.CasherCashSession, error) {
	var s model.CasherCashSession
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cash_session_id = ? AND casher_id = ? AND status = ?", sessionID, casherID, model.SessionActive).
		First(&s).Error
	return &s, err
}

func (r *casherSessionRepo) ListActiveBySessionTx(tx *gorm.DB, sessionID uuid.UUID) ([]model.CasherCashSession, error) {
	var sessions []model.CasherCashSession
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Balances").
		Where("cash_session_id = ? AND status = ?", sessionID, model.SessionActive).
		Find(&sessions).Error
	return sessions, err
}

func (r *casherSessionRepo) CountNotClosedTx(tx *gorm.DB, sessionID uuid.UUID) (int64, error) {
	var count int64
	err := tx.Model(&model.CasherCashSession{}).
		Where("cash_session_id = ? AND status <> ?", sessionID, model.SessionClosed).
		Count(&count).Error
	return count, err
}

func (r *casherSessionRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.CasherCashSession, error) {
	var sessions []model.CasherCashSession
	err := r.db.WithContext(ctx).
		Preload("Balances.Currency").
		Preload("Casher").
		Where("cash_session_id = ?", sessionID).
		Order("opened_at ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *casherSessionRepo) CreateBalanceTx(tx *gorm.DB, b *model.CasherSessionBalance) error {
	return tx.Create(b).Error
}

func (r *casherSessionRepo) SaveBalanceTx(tx *gorm.DB, b *model.CasherSessionBalance) error {
	return tx.Save(b).Error
}

func (r *casherSessionRepo) FindBalanceTx(tx *gorm.DB, casherSessionID, currencyID uuid.UUID) (*model.CasherSessionBalance, error) {
	var b model.CasherSessionBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("casher_cash_session_id = ? AND currency_id = ?", casherSessionID, currencyID).
		First(&b).Error
	return &b, err
}

func (r *casherSessionRepo) ListBalances(ctx context.Context, casherSessionID uuid.UUID) ([]model.CasherSessionBalance, error) {
	var balances []model.CasherSessionBalance
	err := r.db.WithContext(ctx).
		Preload("Currency").
		Where("casher_cash_session_id = ?", casherSessionID).
		Find(&balances).Error
	return balances, err
}

func (r *casherSessionRepo) ListBalancesTx(tx *gorm.DB, casherSessionID uuid.UUID) ([]model.CasherSessionBalance, error) {
	var balances []model.CasherSessionBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("casher_cash_session_id = ?", casherSessionID).
		Find(&balances).Error
	return balances, err
}
