package service

import (
	"context"

	"github.com/kassemKu/sibai-transactions-sub000/internal/model"
	"github.com/kassemKu/sibai-transactions-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService validates appends to the cash ledger and derives balances
// from it. Balances are never stored authoritatively: the denormalized
// total_in/total_out columns are caches that must always equal what these
// functions recompute from the movements (audit requirement — closed sessions
// stay recomputable to detect tampering).
type LedgerService interface {
	// AppendTx validates and writes one movement inside the caller's
	// transaction. The caller is responsible for flipping the parent
	// Transaction to completed in the same unit of work.
	AppendTx(tx *gorm.DB, m *model.CashMovement) error

	// SessionSums returns (Σ in, Σ out) for a (session, currency) scope over
	// completed transactions only.
	SessionSums(ctx context.Context, sessionID, currencyID uuid.UUID) (decimal.Decimal, decimal.Decimal, error)
	// CasherSums is the same scoped to one cashier's drawer.
	CasherSums(ctx context.Context, sessionID, casherID, currencyID uuid.UUID) (decimal.Decimal, decimal.Decimal, error)

	// SessionBalance = opening + Σ(in) − Σ(out) for the shop-wide scope.
	SessionBalance(ctx context.Context, opening decimal.Decimal, sessionID, currencyID uuid.UUID) (decimal.Decimal, error)
	// CasherBalance is the same for one cashier's drawer.
	CasherBalance(ctx context.Context, opening decimal.Decimal, sessionID, casherID, currencyID uuid.UUID) (decimal.Decimal, error)
}

type ledgerService struct {
	movements repository.MovementRepository
}

func NewLedgerService(movements repository.MovementRepository) LedgerService {
	return &ledgerService{movements: movements}
}

func (s *ledgerService) AppendTx(tx *gorm.DB, m *model.CashMovement) error {
	if !m.Amount.IsPositive() {
		return ErrInvalidMovement
	}
	if m.TransactionID == uuid.Nil || m.CurrencyID == uuid.Nil ||
		m.CashSessionID == uuid.Nil || m.CasherID == uuid.Nil {
		return ErrInvalidMovement
	}
	if m.Type != model.MovementIn && m.Type != model.MovementOut {
		return ErrInvalidMovement
	}
	return s.movements.CreateTx(tx, m)
}

func (s *ledgerService) SessionSums(ctx context.Context, sessionID, currencyID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	in, err := s.movements.SumSession(ctx, sessionID, currencyID, model.MovementIn)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	out, err := s.movements.SumSession(ctx, sessionID, currencyID, model.MovementOut)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return in, out, nil
}

func (s *ledgerService) CasherSums(ctx context.Context, sessionID, casherID, currencyID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	in, err := s.movements.SumCasher(ctx, sessionID, casherID, currencyID, model.MovementIn)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	out, err := s.movements.SumCasher(ctx, sessionID, casherID, currencyID, model.MovementOut)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return in, out, nil
}

func (s *ledgerService) SessionBalance(ctx context.Context, opening decimal.Decimal, sessionID, currencyID uuid.UUID) (decimal.Decimal, error) {
	in, out, err := s.SessionSums(ctx, sessionID, currencyID)
	if err != nil {
		return decimal.Zero, err
	}
	return opening.Add(in).Sub(out), nil
}

func (s *ledgerService) CasherBalance(ctx context.Context, opening decimal.Decimal, sessionID, casherID, currencyID uuid.UUID) (decimal.Decimal, error) {
	in, out, err := s.CasherSums(ctx, sessionID, casherID, currencyID)
	if err != nil {
		return decimal.Zero, err
	}
	return opening.Add(in).Sub(out), nil
}
