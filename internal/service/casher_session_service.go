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

// CasherSessionService manages per-cashier drawers inside the shop session.
// Drawer opening allocates cash out of the shared shop pool; drawer close
// folds the counted cash back into it.
type CasherSessionService interface {
	Open(ctx context.Context, req dto.OpenCasherSessionRequest) (*dto.CasherSessionResponse, error)
	MarkPending(ctx context.Context, casherSessionID uuid.UUID) (*dto.CasherSessionResponse, error)
	Close(ctx context.Context, casherSessionID, closerID uuid.UUID, req dto.CloseCasherSessionRequest) (*dto.CasherSessionResponse, error)

	Get(ctx context.Context, casherSessionID uuid.UUID) (*dto.CasherSessionResponse, error)
	GetBalances(ctx context.Context, casherSessionID uuid.UUID) ([]dto.BalanceResponse, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]dto.CasherSessionResponse, error)

	// AvailableBalance is the shop pool minus the openings of every
	// non-closed drawer, per currency.
	AvailableBalance(ctx context.Context, sessionID uuid.UUID) ([]dto.BalanceResponse, error)
}

type casherSessionService struct {
	repo        repository.CasherSessionRepository
	sessionRepo repository.SessionRepository
	ledger      LedgerService
}

func NewCasherSessionService(
	repo repository.CasherSessionRepository,
	sessionRepo repository.SessionRepository,
	ledger LedgerService,
) CasherSessionService {
	return &casherSessionService{repo: repo, sessionRepo: sessionRepo, ledger: ledger}
}

// ── Open ──────────────────────────────────────────────────────────────────────
// The parent session row is locked FOR UPDATE for the whole allocation, so
// two concurrent opens check availability one after the other and cannot
// jointly overdraw the pool.

func (s *casherSessionService) Open(ctx context.Context, req dto.OpenCasherSessionRequest) (*dto.CasherSessionResponse, error) {
	casherID, err := uuid.Parse(req.CasherID)
	if err != nil {
		return nil, errors.New("invalid casher_id")
	}
	openings, err := amountMap(req.OpeningBalances)
	if err != nil {
		return nil, err
	}

	var drawer model.CasherCashSession
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindCurrentTx(tx)
		if err != nil {
			if notFound(err) {
				return ErrNoOpenSession
			}
			return err
		}
		if session.Status != model.SessionActive {
			return ErrSessionNotActive
		}

		if _, err := s.repo.FindActiveByCasherTx(tx, session.ID, casherID); err == nil {
			return ErrDrawerAlreadyOpen
		} else if !notFound(err) {
			return err
		}

		available, err := s.availableTx(ctx, tx, session.ID)
		if err != nil {
			return err
		}
		for currencyID, amount := range openings {
			if amount.IsNegative() {
				return ErrInvalidMovement
			}
			avail, ok := available[currencyID]
			if !ok {
				return errors.New("no balance row for currency in this session")
			}
			if amount.GreaterThan(avail.amount) {
				return &InsufficientPoolBalanceError{
					CurrencyID:   currencyID,
					CurrencyCode: avail.code,
					Available:    avail.amount,
					Requested:    amount,
				}
			}
		}

		drawer = model.CasherCashSession{
			CashSessionID: session.ID,
			CasherID:      casherID,
			Status:        model.SessionActive,
			OpenedAt:      time.Now(),
		}
		if err := s.repo.CreateTx(tx, &drawer); err != nil {
			return err
		}
		for currencyID, amount := range openings {
			if err := s.repo.CreateBalanceTx(tx, &model.CasherSessionBalance{
				CasherCashSessionID: drawer.ID,
				CurrencyID:          currencyID,
				OpeningBalance:      amount,
				TotalIn:             decimal.Zero,
				TotalOut:            decimal.Zero,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return casherSessionToResponse(&drawer, nil), nil
}

// ── MarkPending ───────────────────────────────────────────────────────────────

func (s *casherSessionService) MarkPending(ctx context.Context, casherSessionID uuid.UUID) (*dto.CasherSessionResponse, error) {
	var drawer *model.CasherCashSession
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		drawer, err = s.repo.FindByIDTx(tx, casherSessionID)
		if err != nil {
			return errors.New("casher session not found")
		}
		switch drawer.Status {
		case model.SessionActive:
		case model.SessionPending:
			return ErrCasherSessionPending
		default:
			return ErrCasherSessionClosed
		}
		drawer.Status = model.SessionPending
		return s.repo.UpdateTx(tx, drawer)
	})
	if txErr != nil {
		return nil, txErr
	}
	return casherSessionToResponse(drawer, nil), nil
}

// ── Close ─────────────────────────────────────────────────────────────────────
// pending → closed. Per currency: system balance from the drawer's ledger,
// difference = actual − system. The counted actual is folded back into the
// shop pool's opening balance in the same transaction, so the pool reflects
// physically returned cash, not the amount originally allocated.

func (s *casherSessionService) Close(ctx context.Context, casherSessionID, closerID uuid.UUID, req dto.CloseCasherSessionRequest) (*dto.CasherSessionResponse, error) {
	actuals, err := amountMap(req.ActualClosingBalances)
	if err != nil {
		return nil, err
	}

	var drawer *model.CasherCashSession
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		drawer, err = s.repo.FindByIDTx(tx, casherSessionID)
		if err != nil {
			return errors.New("casher session not found")
		}
		switch drawer.Status {
		case model.SessionPending:
		case model.SessionActive:
			return ErrCasherSessionNotPending
		default:
			return ErrCasherSessionClosed
		}

		balances, err := s.repo.ListBalancesTx(tx, drawer.ID)
		if err != nil {
			return err
		}
		for i := range balances {
			b := &balances[i]
			system, err := s.ledger.CasherBalance(ctx, b.OpeningBalance, drawer.CashSessionID, drawer.CasherID, b.CurrencyID)
			if err != nil {
				return err
			}
			actual := decimal.Zero
			if amt, ok := actuals[b.CurrencyID]; ok {
				actual = amt
			}
			diff := actual.Sub(system)
			b.SystemBalance = &system
			b.ActualClosingBalance = &actual
			b.Difference = &diff
			if err := s.repo.SaveBalanceTx(tx, b); err != nil {
				return err
			}

			if actual.IsPositive() {
				shop, err := s.sessionRepo.FindCashBalanceTx(tx, drawer.CashSessionID, b.CurrencyID)
				if err != nil {
					return err
				}
				shop.OpeningBalance = shop.OpeningBalance.Add(actual)
				if err := s.sessionRepo.SaveCashBalanceTx(tx, shop); err != nil {
					return err
				}
			}
		}

		now := time.Now()
		drawer.Status = model.SessionClosed
		drawer.ClosedBy = &closerID
		drawer.ClosedAt = &now
		return s.repo.UpdateTx(tx, drawer)
	})
	if txErr != nil {
		return nil, txErr
	}
	return casherSessionToResponse(drawer, nil), nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *casherSessionService) Get(ctx context.Context, casherSessionID uuid.UUID) (*dto.CasherSessionResponse, error) {
	drawer, err := s.repo.FindByID(ctx, casherSessionID)
	if err != nil {
		return nil, errors.New("casher session not found")
	}
	balances, err := s.GetBalances(ctx, casherSessionID)
	if err != nil {
		return nil, err
	}
	return casherSessionToResponse(drawer, balances), nil
}

func (s *casherSessionService) GetBalances(ctx context.Context, casherSessionID uuid.UUID) ([]dto.BalanceResponse, error) {
	drawer, err := s.repo.FindByID(ctx, casherSessionID)
	if err != nil {
		return nil, errors.New("casher session not found")
	}
	balances, err := s.repo.ListBalances(ctx, casherSessionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BalanceResponse, 0, len(balances))
	for i := range balances {
		b := &balances[i]
		system, err := s.ledger.CasherBalance(ctx, b.OpeningBalance, drawer.CashSessionID, drawer.CasherID, b.CurrencyID)
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

func (s *casherSessionService) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]dto.CasherSessionResponse, error) {
	drawers, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CasherSessionResponse, 0, len(drawers))
	for i := range drawers {
		out = append(out, *casherSessionToResponse(&drawers[i], nil))
	}
	return out, nil
}

func (s *casherSessionService) AvailableBalance(ctx context.Context, sessionID uuid.UUID) ([]dto.BalanceResponse, error) {
	var out []dto.BalanceResponse
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		available, err := s.availableTx(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		out = make([]dto.BalanceResponse, 0, len(available))
		for currencyID, a := range available {
			out = append(out, dto.BalanceResponse{
				CurrencyID:    currencyID.String(),
				CurrencyCode:  a.code,
				SystemBalance: a.amount,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

type availEntry struct {
	code   string
	amount decimal.Decimal
}

// availableTx computes the allocatable pool per currency:
// shop system balance minus every non-closed drawer's opening.
func (s *casherSessionService) availableTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (map[uuid.UUID]availEntry, error) {
	shopBalances, err := s.sessionRepo.ListCashBalancesTx(tx, sessionID)
	if err != nil {
		return nil, err
	}
	available := make(map[uuid.UUID]availEntry, len(shopBalances))
	for i := range shopBalances {
		b := &shopBalances[i]
		system, err := s.ledger.SessionBalance(ctx, b.OpeningBalance, sessionID, b.CurrencyID)
		if err != nil {
			return nil, err
		}
		code := ""
		if b.Currency != nil {
			code = b.Currency.Code
		}
		available[b.CurrencyID] = availEntry{code: code, amount: system}
	}

	drawers, err := s.repo.ListActiveBySessionTx(tx, sessionID)
	if err != nil {
		return nil, err
	}
	for i := range drawers {
		for j := range drawers[i].Balances {
			db := &drawers[i].Balances[j]
			if a, ok := available[db.CurrencyID]; ok {
				a.amount = a.amount.Sub(db.OpeningBalance)
				available[db.CurrencyID] = a
			}
		}
	}
	return available, nil
}

func casherSessionToResponse(d *model.CasherCashSession, balances []dto.BalanceResponse) *dto.CasherSessionResponse {
	resp := &dto.CasherSessionResponse{
		ID:            d.ID.String(),
		CashSessionID: d.CashSessionID.String(),
		CasherID:      d.CasherID.String(),
		Status:        d.Status,
		OpenedAt:      d.OpenedAt.Format("2006-01-02T15:04:05Z"),
		Balances:      balances,
	}
	if d.Casher != nil {
		resp.CasherName = d.Casher.FullName
	}
	if d.ClosedAt != nil {
		v := d.ClosedAt.Format("2006-01-02T15:04:05Z")
		resp.ClosedAt = &v
	}
	return resp
}
