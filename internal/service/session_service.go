package service

import (
	"context"
	"errors"
	"time"

	"github.com/kassemKu/sibai-transactions-sub000/internal/dto"
	"github.com/kassemKu/sibai-transactions-sub000/internal/model"
	"github.com/kassemKu/sibai-transactions-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CloseNotifier receives the id of a session that just closed. Implemented by
// the worker dispatcher, which enqueues report generation; nil disables it.
type CloseNotifier interface {
	NotifySessionClosed(ctx context.Context, sessionID uuid.UUID) error
}

// SessionService drives the shop-wide session state machine:
// open → active → pending → closed, with reconciliation at close.
type SessionService interface {
	Open(ctx context.Context, openerID uuid.UUID) (*dto.SessionResponse, error)
	MarkPending(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error)
	Close(ctx context.Context, sessionID, closerID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error)
	// AddCashbox adds counted cash to the shop pool mid-shift (active only).
	// Each positive addition is journaled in cashbox_additions so the opening
	// figure stays recomputable.
	AddCashbox(ctx context.Context, sessionID, addedBy uuid.UUID, req dto.AddCashboxRequest) error
	ListCashboxAdditions(ctx context.Context, sessionID uuid.UUID) ([]dto.CashboxAdditionResponse, error)

	Current(ctx context.Context) (*dto.SessionResponse, error)
	GetBalances(ctx context.Context, sessionID uuid.UUID) ([]dto.BalanceResponse, error)
	List(ctx context.Context, page, limit int) (*dto.SessionListResponse, error)
}

type sessionService struct {
	repo       repository.SessionRepository
	casherRepo repository.CasherSessionRepository
	registry   RegistryService
	ledger     LedgerService
	notifier   CloseNotifier
}

func NewSessionService(
	repo repository.SessionRepository,
	casherRepo repository.CasherSessionRepository,
	registry RegistryService,
	ledger LedgerService,
	notifier CloseNotifier,
) SessionService {
	return &sessionService{
		repo:       repo,
		casherRepo: casherRepo,
		registry:   registry,
		ledger:     ledger,
		notifier:   notifier,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// notFound reports whether err is a plain missing-record read.
func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ── Open ──────────────────────────────────────────────────────────────────────
// Creates the session, carrying each currency's opening balance forward from
// the prior session's actual closing balance (0 if none), and snapshots the
// current rates. The partial unique index on non-closed sessions backs the
// in-transaction existence check, so two concurrent opens cannot both commit.

func (s *sessionService) Open(ctx context.Context, openerID uuid.UUID) (*dto.SessionResponse, error) {
	triples, err := s.registry.SnapshotAll(ctx)
	if err != nil {
		return nil, err
	}

	carry := map[uuid.UUID]decimal.Decimal{}
	if prior, err := s.repo.FindLastClosed(ctx); err == nil {
		for i := range prior.Balances {
			b := prior.Balances[i]
			if b.ActualClosingBalance != nil {
				carry[b.CurrencyID] = *b.ActualClosingBalance
			}
		}
	} else if !notFound(err) {
		return nil, err
	}

	var session model.CashSession
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if _, err := s.repo.FindCurrentTx(tx); err == nil {
			return ErrSessionAlreadyOpen
		} else if !notFound(err) {
			return err
		}

		session = model.CashSession{
			Status:   model.SessionActive,
			OpenedBy: openerID,
			OpenedAt: time.Now(),
		}
		if err := s.repo.CreateTx(tx, &session); err != nil {
			return err
		}

		for _, t := range triples {
			opening := decimal.Zero
			if amt, ok := carry[t.CurrencyID]; ok {
				opening = amt
			}
			if err := s.repo.CreateOpeningBalanceTx(tx, &model.SessionOpeningBalance{
				CashSessionID:  session.ID,
				CurrencyID:     t.CurrencyID,
				OpeningBalance: opening,
			}); err != nil {
				return err
			}
			if err := s.repo.CreateCashBalanceTx(tx, &model.CashBalance{
				CashSessionID:  session.ID,
				CurrencyID:     t.CurrencyID,
				OpeningBalance: opening,
				TotalIn:        decimal.Zero,
				TotalOut:       decimal.Zero,
			}); err != nil {
				return err
			}
			if err := s.repo.CreateRateSnapshotTx(tx, &model.SessionRateSnapshot{
				CashSessionID: session.ID,
				CurrencyID:    t.CurrencyID,
				Phase:         model.SnapshotOpen,
				RateToUSD:     t.RateToUSD,
				BuyRateToUSD:  t.BuyRateToUSD,
				SellRateToUSD: t.SellRateToUSD,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return sessionToResponse(&session, nil), nil
}

// ── MarkPending ───────────────────────────────────────────────────────────────
// The explicit freeze barrier: once pending, transaction creation and
// completion are rejected for this session, so the close-time balance
// snapshot cannot be invalidated by a late write.

func (s *sessionService) MarkPending(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error) {
	var session *model.CashSession
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		session, err = s.repo.FindByIDTx(tx, sessionID)
		if err != nil {
			return errors.New("cash session not found")
		}
		switch session.Status {
		case model.SessionActive:
		case model.SessionPending:
			return ErrSessionPending
		default:
			return ErrSessionClosed
		}
		session.Status = model.SessionPending
		return s.repo.UpdateTx(tx, session)
	})
	if txErr != nil {
		return nil, txErr
	}
	return sessionToResponse(session, nil), nil
}

// ── Close ─────────────────────────────────────────────────────────────────────
// pending → closed only. Every casher drawer must already be closed; each
// drawer's actual closing balance was folded into the shop opening balance at
// drawer close, so the shop-wide system balance computed here already reflects
// the counted drawers.

func (s *sessionService) Close(ctx context.Context, sessionID, closerID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	actuals, err := amountMap(req.ActualClosingBalances)
	if err != nil {
		return nil, err
	}
	triples, err := s.registry.SnapshotAll(ctx)
	if err != nil {
		return nil, err
	}

	var session *model.CashSession
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		session, err = s.repo.FindByIDTx(tx, sessionID)
		if err != nil {
			return errors.New("cash session not found")
		}
		switch session.Status {
		case model.SessionPending:
		case model.SessionActive:
			return ErrSessionNotPending
		default:
			return ErrSessionClosed
		}

		open, err := s.casherRepo.CountNotClosedTx(tx, session.ID)
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrDrawersStillOpen
		}

		balances, err := s.repo.ListCashBalancesTx(tx, session.ID)
		if err != nil {
			return err
		}
		for i := range balances {
			b := &balances[i]
			// The session is frozen, so the ledger sums are stable here.
			closing, err := s.ledger.SessionBalance(ctx, b.OpeningBalance, session.ID, b.CurrencyID)
			if err != nil {
				return err
			}
			actual := decimal.Zero
			if amt, ok := actuals[b.CurrencyID]; ok {
				actual = amt
			}
			diff := actual.Sub(closing)
			b.ClosingBalance = &closing
			b.ActualClosingBalance = &actual
			b.Difference = &diff
			if err := s.repo.SaveCashBalanceTx(tx, b); err != nil {
				return err
			}
		}

		for _, t := range triples {
			if err := s.repo.CreateRateSnapshotTx(tx, &model.SessionRateSnapshot{
				CashSessionID: session.ID,
				CurrencyID:    t.CurrencyID,
				Phase:         model.SnapshotClose,
				RateToUSD:     t.RateToUSD,
				BuyRateToUSD:  t.BuyRateToUSD,
				SellRateToUSD: t.SellRateToUSD,
			}); err != nil {
				return err
			}
		}

		now := time.Now()
		session.Status = model.SessionClosed
		session.ClosedBy = &closerID
		session.ClosedAt = &now
		return s.repo.UpdateTx(tx, session)
	})
	if txErr != nil {
		return nil, txErr
	}

	// Post-commit, best-effort: the close report job.
	if s.notifier != nil {
		_ = s.notifier.NotifySessionClosed(ctx, session.ID)
	}
	return sessionToResponse(session, nil), nil
}

// ── AddCashbox ────────────────────────────────────────────────────────────────

func (s *sessionService) AddCashbox(ctx context.Context, sessionID, addedBy uuid.UUID, req dto.AddCashboxRequest) error {
	additions, err := amountMap(req.Additions)
	if err != nil {
		return err
	}
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		session, err := s.repo.FindByIDTx(tx, sessionID)
		if err != nil {
			return errors.New("cash session not found")
		}
		if session.Status != model.SessionActive {
			return ErrSessionNotActive
		}
		for currencyID, amount := range additions {
			if !amount.IsPositive() {
				continue
			}
			b, err := s.repo.FindCashBalanceTx(tx, session.ID, currencyID)
			if err != nil {
				return errors.New("no balance row for currency in this session")
			}
			b.OpeningBalance = b.OpeningBalance.Add(amount)
			if err := s.repo.SaveCashBalanceTx(tx, b); err != nil {
				return err
			}
			// Audit row in the same transaction as the balance bump.
			if err := s.repo.CreateCashboxAdditionTx(tx, &model.CashboxAddition{
				CashSessionID: session.ID,
				CurrencyID:    currencyID,
				Amount:        amount,
				AddedBy:       addedBy,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *sessionService) ListCashboxAdditions(ctx context.Context, sessionID uuid.UUID) ([]dto.CashboxAdditionResponse, error) {
	additions, err := s.repo.ListCashboxAdditions(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CashboxAdditionResponse, 0, len(additions))
	for i := range additions {
		a := &additions[i]
		resp := dto.CashboxAdditionResponse{
			ID:         a.ID.String(),
			CurrencyID: a.CurrencyID.String(),
			Amount:     a.Amount,
			AddedBy:    a.AddedBy.String(),
			CreatedAt:  a.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
		if a.Currency != nil {
			resp.CurrencyCode = a.Currency.Code
		}
		out = append(out, resp)
	}
	return out, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *sessionService) Current(ctx context.Context) (*dto.SessionResponse, error) {
	session, err := s.repo.FindCurrent(ctx)
	if err != nil {
		if notFound(err) {
			return nil, ErrNoOpenSession
		}
		return nil, err
	}
	snaps, err := s.repo.ListRateSnapshots(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	return sessionToResponse(session, snaps), nil
}

func (s *sessionService) GetBalances(ctx context.Context, sessionID uuid.UUID) ([]dto.BalanceResponse, error) {
	balances, err := s.repo.ListCashBalances(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BalanceResponse, 0, len(balances))
	for i := range balances {
		b := &balances[i]
		system, err := s.ledger.SessionBalance(ctx, b.OpeningBalance, sessionID, b.CurrencyID)
		if err != nil {
			return nil, err
		}
		code := ""
		if b.Currency != nil {
			code = b.Currency.Code
		}
		out = append(out, dto.BalanceResponse{
			CurrencyID:           b.CurrencyID.String(),
			CurrencyCode:         code,
			OpeningBalance:       b.OpeningBalance,
			TotalIn:              b.TotalIn,
			TotalOut:             b.TotalOut,
			SystemBalance:        system,
			ActualClosingBalance: b.ActualClosingBalance,
			Difference:           b.Difference,
		})
	}
	return out, nil
}

func (s *sessionService) List(ctx context.Context, page, limit int) (*dto.SessionListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	sessions, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		items = append(items, *sessionToResponse(&sessions[i], nil))
	}
	return &dto.SessionListResponse{Data: items, Total: total, Page: page, Limit: limit}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func amountMap(pairs []dto.CurrencyAmount) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(pairs))
	for _, p := range pairs {
		id, err := uuid.Parse(p.CurrencyID)
		if err != nil {
			return nil, errors.New("invalid currency_id: " + p.CurrencyID)
		}
		out[id] = p.Amount
	}
	return out, nil
}

func sessionToResponse(s *model.CashSession, snaps []model.SessionRateSnapshot) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:       s.ID.String(),
		Status:   s.Status,
		OpenedBy: s.OpenedBy.String(),
		OpenedAt: s.OpenedAt.Format("2006-01-02T15:04:05Z"),
	}
	if s.ClosedBy != nil {
		v := s.ClosedBy.String()
		resp.ClosedBy = &v
	}
	if s.ClosedAt != nil {
		v := s.ClosedAt.Format("2006-01-02T15:04:05Z")
		resp.ClosedAt = &v
	}
	for i := range snaps {
		snap := &snaps[i]
		r := dto.RateSnapshotResponse{
			CurrencyID:    snap.CurrencyID.String(),
			RateToUSD:     snap.RateToUSD,
			BuyRateToUSD:  snap.BuyRateToUSD,
			SellRateToUSD: snap.SellRateToUSD,
		}
		if snap.Phase == model.SnapshotOpen {
			resp.OpenRates = append(resp.OpenRates, r)
		} else {
			resp.CloseRates = append(resp.CloseRates, r)
		}
	}
	return resp
}
