package service

import (
	"context"
	"errors"
	"time"

	"github.com/kassemKu/sibai-transactions-sub000/internal/dto"
	"github.com/kassemKu/sibai-transactions-sub000/internal/model"
	"github.com/kassemKu/sibai-transactions-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionService runs the conversion lifecycle. A self-executed
// transaction settles inside Create; an assigned one is created pending and
// settles on Confirm (assigned cashier) or Complete (creator or admin).
type TransactionService interface {
	Calculate(ctx context.Context, req dto.CalculateRequest) (*dto.CalculateResponse, error)
	Create(ctx context.Context, actorID uuid.UUID, actorRole string, req dto.CreateTransactionRequest) (*dto.TransactionResponse, error)
	Confirm(ctx context.Context, transactionID, actorID uuid.UUID) (*dto.TransactionResponse, error)
	Complete(ctx context.Context, transactionID, actorID uuid.UUID, actorRole string) (*dto.TransactionResponse, error)
	Cancel(ctx context.Context, transactionID, actorID uuid.UUID) (*dto.TransactionResponse, error)

	Get(ctx context.Context, transactionID uuid.UUID) (*dto.TransactionResponse, error)
	List(ctx context.Context, filter dto.TransactionFilter) (*dto.TransactionListResponse, error)
}

type transactionService struct {
	repo        repository.TransactionRepository
	sessionRepo repository.SessionRepository
	casherRepo  repository.CasherSessionRepository
	conversion  ConversionService
	ledger      LedgerService
}

func NewTransactionService(
	repo repository.TransactionRepository,
	sessionRepo repository.SessionRepository,
	casherRepo repository.CasherSessionRepository,
	conversion ConversionService,
	ledger LedgerService,
) TransactionService {
	return &transactionService{
		repo:        repo,
		sessionRepo: sessionRepo,
		casherRepo:  casherRepo,
		conversion:  conversion,
		ledger:      ledger,
	}
}

// ── Calculate ─────────────────────────────────────────────────────────────────
// A pure preview at today's rates. Persists nothing.

func (s *transactionService) Calculate(ctx context.Context, req dto.CalculateRequest) (*dto.CalculateResponse, error) {
	fromID, toID, err := parseCurrencyPair(req.FromCurrencyID, req.ToCurrencyID)
	if err != nil {
		return nil, err
	}
	result, err := s.conversion.Convert(ctx, fromID, toID, req.Amount)
	if err != nil {
		return nil, err
	}
	return &dto.CalculateResponse{
		ConvertedAmount: result.Computed,
		USDIntermediate: result.USDIntermediate,
		FromRate:        tripleToResponse(result.FromRate),
		ToRate:          tripleToResponse(result.ToRate),
		ProfitFromUSD:   result.ProfitFromUSD,
		ProfitToUSD:     result.ProfitToUSD,
		TotalProfitUSD:  result.TotalProfitUSD,
	}, nil
}

// ── Create ────────────────────────────────────────────────────────────────────
// Rates are resolved and frozen on the transaction row here, before any
// settlement. Whoever settles later settles at these numbers.

func (s *transactionService) Create(ctx context.Context, actorID uuid.UUID, actorRole string, req dto.CreateTransactionRequest) (*dto.TransactionResponse, error) {
	fromID, toID, err := parseCurrencyPair(req.FromCurrencyID, req.ToCurrencyID)
	if err != nil {
		return nil, err
	}
	if req.ActualConvertedAmount != nil && actorRole != model.RoleAdmin {
		return nil, errors.New("only admins may override the converted amount")
	}

	assignedTo := actorID
	if req.AssignedCasherID != nil && *req.AssignedCasherID != "" {
		id, err := uuid.Parse(*req.AssignedCasherID)
		if err != nil {
			return nil, errors.New("invalid assigned_casher_id")
		}
		assignedTo = id
	}
	selfExecuted := assignedTo == actorID

	result, err := s.conversion.ConvertWithOverride(ctx, fromID, toID, req.Amount, req.ActualConvertedAmount)
	if err != nil {
		return nil, err
	}

	var customerID *uuid.UUID
	if req.CustomerID != nil && *req.CustomerID != "" {
		id, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			return nil, errors.New("invalid customer_id")
		}
		customerID = &id
	}

	var txn model.Transaction
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindCurrentTx(tx)
		if err != nil {
			if notFound(err) {
				return ErrNoOpenSession
			}
			return err
		}
		if err := sessionActive(session); err != nil {
			return err
		}

		// The assigned cashier needs an active drawer even for a pending
		// handoff, so a conversion is never parked on a drawer that cannot
		// settle it.
		drawer, err := s.casherRepo.FindActiveByCasherTx(tx, session.ID, assignedTo)
		if err != nil {
			if notFound(err) {
				return ErrCasherSessionNotActive
			}
			return err
		}

		if !selfExecuted {
			// Rejected up front for hand-offs too; settlement re-checks at
			// completion time against the then-current drawer balance.
			fromBalance, err := s.drawerBalanceTx(tx, drawer.ID, fromID)
			if err != nil {
				return err
			}
			held := fromBalance.OpeningBalance.Add(fromBalance.TotalIn).Sub(fromBalance.TotalOut)
			if req.Amount.GreaterThan(held) {
				code := ""
				if fromBalance.Currency != nil {
					code = fromBalance.Currency.Code
				}
				return &InsufficientBalanceError{
					CurrencyID:   fromID,
					CurrencyCode: code,
					Available:    held,
					Requested:    req.Amount,
				}
			}
		}

		txn = model.Transaction{
			CashSessionID:     session.ID,
			CreatedBy:         actorID,
			AssignedTo:        assignedTo,
			CustomerID:        customerID,
			FromCurrencyID:    fromID,
			ToCurrencyID:      toID,
			OriginalAmount:    req.Amount,
			ComputedAmount:    result.Computed,
			ConvertedAmount:   result.Actual,
			Adjusted:          result.Adjusted,
			USDIntermediate:   result.USDIntermediate,
			FromRateToUSD:     result.FromRate.RateToUSD,
			FromBuyRateToUSD:  result.FromRate.BuyRateToUSD,
			FromSellRateToUSD: result.FromRate.SellRateToUSD,
			ToRateToUSD:       result.ToRate.RateToUSD,
			ToBuyRateToUSD:    result.ToRate.BuyRateToUSD,
			ToSellRateToUSD:   result.ToRate.SellRateToUSD,
			ProfitFromUSD:     result.ProfitFromUSD,
			ProfitToUSD:       result.ProfitToUSD,
			TotalProfitUSD:    result.TotalProfitUSD,
			Status:            model.TransactionPending,
			Notes:             req.Notes,
		}
		if err := s.repo.CreateTx(tx, &txn); err != nil {
			return err
		}

		if selfExecuted {
			return s.settleTx(tx, session, &txn, actorID)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("transaction_id", txn.ID.String()).
		Str("status", txn.Status).
		Bool("adjusted", txn.Adjusted).
		Msg("transaction created")
	return transactionToResponse(&txn), nil
}

// ── Confirm / Complete ────────────────────────────────────────────────────────

// Confirm settles a pending transaction; only the assigned cashier may call it.
func (s *transactionService) Confirm(ctx context.Context, transactionID, actorID uuid.UUID) (*dto.TransactionResponse, error) {
	return s.settle(ctx, transactionID, actorID, func(txn *model.Transaction) error {
		if txn.AssignedTo != actorID {
			return ErrNotAssignedCasher
		}
		return nil
	})
}

// Complete force-settles a pending transaction on the assigned drawer. Allowed
// for the creator and for admins.
func (s *transactionService) Complete(ctx context.Context, transactionID, actorID uuid.UUID, actorRole string) (*dto.TransactionResponse, error) {
	return s.settle(ctx, transactionID, actorID, func(txn *model.Transaction) error {
		if txn.CreatedBy != actorID && actorRole != model.RoleAdmin {
			return ErrNotAssignedCasher
		}
		return nil
	})
}

func (s *transactionService) settle(ctx context.Context, transactionID, actorID uuid.UUID, authorize func(*model.Transaction) error) (*dto.TransactionResponse, error) {
	var txn *model.Transaction
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		txn, err = s.repo.FindByIDTx(tx, transactionID)
		if err != nil {
			return errors.New("transaction not found")
		}
		if txn.Status != model.TransactionPending {
			return ErrTransactionNotPending
		}
		if err := authorize(txn); err != nil {
			return err
		}

		session, err := s.sessionRepo.FindByIDTx(tx, txn.CashSessionID)
		if err != nil {
			return err
		}
		if err := sessionActive(session); err != nil {
			return err
		}
		return s.settleTx(tx, session, txn, actorID)
	})
	if txErr != nil {
		return nil, txErr
	}
	return transactionToResponse(txn), nil
}

// settleTx writes the two ledger legs, bumps the denormalized totals on both
// the drawer and the shop session, and flips the transaction to completed.
// Balance mutation and the status flip share the caller's transaction: either
// every effect lands or none does. The session row is already locked, so
// concurrent settlements against the same drawer serialize here.
func (s *transactionService) settleTx(tx *gorm.DB, session *model.CashSession, txn *model.Transaction, actorID uuid.UUID) error {
	drawer, err := s.casherRepo.FindActiveByCasherTx(tx, session.ID, txn.AssignedTo)
	if err != nil {
		if notFound(err) {
			return ErrCasherSessionNotActive
		}
		return err
	}

	// Availability guard: the drawer must hold enough of the source currency
	// to dispense.
	fromBalance, err := s.drawerBalanceTx(tx, drawer.ID, txn.FromCurrencyID)
	if err != nil {
		return err
	}
	held := fromBalance.OpeningBalance.Add(fromBalance.TotalIn).Sub(fromBalance.TotalOut)
	if txn.OriginalAmount.GreaterThan(held) {
		code := ""
		if fromBalance.Currency != nil {
			code = fromBalance.Currency.Code
		}
		return &InsufficientBalanceError{
			CurrencyID:   txn.FromCurrencyID,
			CurrencyCode: code,
			Available:    held,
			Requested:    txn.OriginalAmount,
		}
	}

	outLeg := model.CashMovement{
		TransactionID: txn.ID,
		CashSessionID: session.ID,
		CurrencyID:    txn.FromCurrencyID,
		CasherID:      txn.AssignedTo,
		Type:          model.MovementOut,
		Amount:        txn.OriginalAmount,
		ExchangeRate:  txn.FromBuyRateToUSD,
	}
	inLeg := model.CashMovement{
		TransactionID: txn.ID,
		CashSessionID: session.ID,
		CurrencyID:    txn.ToCurrencyID,
		CasherID:      txn.AssignedTo,
		Type:          model.MovementIn,
		Amount:        txn.ConvertedAmount,
		ExchangeRate:  txn.ToSellRateToUSD,
	}
	if err := s.ledger.AppendTx(tx, &outLeg); err != nil {
		return err
	}
	if err := s.ledger.AppendTx(tx, &inLeg); err != nil {
		return err
	}

	fromBalance.TotalOut = fromBalance.TotalOut.Add(txn.OriginalAmount)
	if err := s.casherRepo.SaveBalanceTx(tx, fromBalance); err != nil {
		return err
	}
	toBalance, err := s.drawerBalanceTx(tx, drawer.ID, txn.ToCurrencyID)
	if err != nil {
		return err
	}
	toBalance.TotalIn = toBalance.TotalIn.Add(txn.ConvertedAmount)
	if err := s.casherRepo.SaveBalanceTx(tx, toBalance); err != nil {
		return err
	}

	shopFrom, err := s.shopBalanceTx(tx, session.ID, txn.FromCurrencyID)
	if err != nil {
		return err
	}
	shopFrom.TotalOut = shopFrom.TotalOut.Add(txn.OriginalAmount)
	if err := s.sessionRepo.SaveCashBalanceTx(tx, shopFrom); err != nil {
		return err
	}
	shopTo, err := s.shopBalanceTx(tx, session.ID, txn.ToCurrencyID)
	if err != nil {
		return err
	}
	shopTo.TotalIn = shopTo.TotalIn.Add(txn.ConvertedAmount)
	if err := s.sessionRepo.SaveCashBalanceTx(tx, shopTo); err != nil {
		return err
	}

	now := time.Now()
	txn.Status = model.TransactionCompleted
	txn.ClosedBy = &actorID
	txn.ClosedAt = &now
	return s.repo.UpdateTx(tx, txn)
}

// drawerBalanceTx fetches the locked (drawer, currency) row, creating it with
// a zero opening when the drawer was never allocated that currency.
func (s *transactionService) drawerBalanceTx(tx *gorm.DB, drawerID, currencyID uuid.UUID) (*model.CasherSessionBalance, error) {
	b, err := s.casherRepo.FindBalanceTx(tx, drawerID, currencyID)
	if err == nil {
		return b, nil
	}
	if !notFound(err) {
		return nil, err
	}
	b = &model.CasherSessionBalance{
		CasherCashSessionID: drawerID,
		CurrencyID:          currencyID,
		OpeningBalance:      decimal.Zero,
		TotalIn:             decimal.Zero,
		TotalOut:            decimal.Zero,
	}
	if err := s.casherRepo.CreateBalanceTx(tx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *transactionService) shopBalanceTx(tx *gorm.DB, sessionID, currencyID uuid.UUID) (*model.CashBalance, error) {
	b, err := s.sessionRepo.FindCashBalanceTx(tx, sessionID, currencyID)
	if err == nil {
		return b, nil
	}
	if !notFound(err) {
		return nil, err
	}
	b = &model.CashBalance{
		CashSessionID:  sessionID,
		CurrencyID:     currencyID,
		OpeningBalance: decimal.Zero,
		TotalIn:        decimal.Zero,
		TotalOut:       decimal.Zero,
	}
	if err := s.sessionRepo.CreateCashBalanceTx(tx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ── Cancel ────────────────────────────────────────────────────────────────────
// pending → canceled. No ledger rows were ever written for a pending
// transaction, so cancellation touches no balances.

func (s *transactionService) Cancel(ctx context.Context, transactionID, actorID uuid.UUID) (*dto.TransactionResponse, error) {
	var txn *model.Transaction
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		txn, err = s.repo.FindByIDTx(tx, transactionID)
		if err != nil {
			return errors.New("transaction not found")
		}
		if txn.Status != model.TransactionPending {
			return ErrTransactionNotPending
		}
		now := time.Now()
		txn.Status = model.TransactionCanceled
		txn.ClosedBy = &actorID
		txn.ClosedAt = &now
		return s.repo.UpdateTx(tx, txn)
	})
	if txErr != nil {
		return nil, txErr
	}
	return transactionToResponse(txn), nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *transactionService) Get(ctx context.Context, transactionID uuid.UUID) (*dto.TransactionResponse, error) {
	txn, err := s.repo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, errors.New("transaction not found")
	}
	return transactionToResponse(txn), nil
}

func (s *transactionService) List(ctx context.Context, filter dto.TransactionFilter) (*dto.TransactionListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	txns, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, *transactionToResponse(&txns[i]))
	}
	return &dto.TransactionListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// sessionActive rejects conversions against a non-active session. A frozen
// (pending) session gets its own error so the counter can tell "wait for the
// close" apart from "no shift running".
func sessionActive(session *model.CashSession) error {
	switch session.Status {
	case model.SessionActive:
		return nil
	case model.SessionPending:
		return ErrSessionPending
	default:
		return ErrSessionNotActive
	}
}

func parseCurrencyPair(from, to string) (uuid.UUID, uuid.UUID, error) {
	fromID, err := uuid.Parse(from)
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New("invalid from_currency_id")
	}
	toID, err := uuid.Parse(to)
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New("invalid to_currency_id")
	}
	return fromID, toID, nil
}

func tripleToResponse(t RateTriple) dto.RateSnapshotResponse {
	return dto.RateSnapshotResponse{
		CurrencyID:    t.CurrencyID.String(),
		CurrencyCode:  t.CurrencyCode,
		RateToUSD:     t.RateToUSD,
		BuyRateToUSD:  t.BuyRateToUSD,
		SellRateToUSD: t.SellRateToUSD,
	}
}

func transactionToResponse(t *model.Transaction) *dto.TransactionResponse {
	resp := &dto.TransactionResponse{
		ID:              t.ID.String(),
		CashSessionID:   t.CashSessionID.String(),
		CreatedBy:       t.CreatedBy.String(),
		AssignedTo:      t.AssignedTo.String(),
		FromCurrencyID:  t.FromCurrencyID.String(),
		ToCurrencyID:    t.ToCurrencyID.String(),
		OriginalAmount:  t.OriginalAmount,
		ComputedAmount:  t.ComputedAmount,
		ConvertedAmount: t.ConvertedAmount,
		Adjusted:        t.Adjusted,
		USDIntermediate: t.USDIntermediate,
		ProfitFromUSD:   t.ProfitFromUSD,
		ProfitToUSD:     t.ProfitToUSD,
		TotalProfitUSD:  t.TotalProfitUSD,
		Status:          t.Status,
		Notes:           t.Notes,
		CreatedAt:       t.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if t.FromCurrency != nil {
		resp.FromCurrencyCode = t.FromCurrency.Code
	}
	if t.ToCurrency != nil {
		resp.ToCurrencyCode = t.ToCurrency.Code
	}
	return resp
}
