package service_test

import (
	"context"
	"testing"

	"github.com/kassemKu/sibai-transactions-sub000/internal/dto"
	"github.com/kassemKu/sibai-transactions-sub000/internal/model"
	"github.com/kassemKu/sibai-transactions-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// env wires the full service graph over in-memory fakes.
type env struct {
	currencies *fakeCurrencyRepo
	sessions   *fakeSessionRepo
	cashers    *fakeCasherRepo
	txns       *fakeTransactionRepo
	movements  *fakeMovementRepo

	registry   service.RegistryService
	conversion service.ConversionService
	ledger     service.LedgerService
	sessionSvc service.SessionService
	casherSvc  service.CasherSessionService
	txnSvc     service.TransactionService
}

func newEnv() *env {
	e := &env{
		currencies: newFakeCurrencyRepo(),
		sessions:   newFakeSessionRepo(),
		cashers:    newFakeCasherRepo(),
		txns:       newFakeTransactionRepo(),
		movements:  newFakeMovementRepo(),
	}
	e.registry = service.NewRegistryService(e.currencies, nil)
	e.conversion = service.NewConversionService(e.registry)
	e.ledger = service.NewLedgerService(e.movements)
	e.sessionSvc = service.NewSessionService(e.sessions, e.cashers, e.registry, e.ledger, nil)
	e.casherSvc = service.NewCasherSessionService(e.cashers, e.sessions, e.ledger)
	e.txnSvc = service.NewTransactionService(e.txns, e.sessions, e.cashers, e.conversion, e.ledger)
	return e
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func amount(currencyID uuid.UUID, amt string) dto.CurrencyAmount {
	return dto.CurrencyAmount{CurrencyID: currencyID.String(), Amount: dec(amt)}
}

func (e *env) addCurrency(t *testing.T, code, ref, buy, sell string) uuid.UUID {
	t.Helper()
	c := &model.Currency{
		Code:          code,
		Name:          code,
		RateToUSD:     dec(ref),
		BuyRateToUSD:  dec(buy),
		SellRateToUSD: dec(sell),
	}
	require.NoError(t, e.currencies.Create(context.Background(), c))
	return c.ID
}

func (e *env) openSession(t *testing.T) uuid.UUID {
	t.Helper()
	resp, err := e.sessionSvc.Open(context.Background(), uuid.New())
	require.NoError(t, err)
	id, err := uuid.Parse(resp.ID)
	require.NoError(t, err)
	return id
}

func (e *env) addCashbox(t *testing.T, sessionID uuid.UUID, additions ...dto.CurrencyAmount) {
	t.Helper()
	require.NoError(t, e.sessionSvc.AddCashbox(context.Background(), sessionID, uuid.New(),
		dto.AddCashboxRequest{Additions: additions}))
}

func (e *env) openDrawer(t *testing.T, casherID uuid.UUID, openings ...dto.CurrencyAmount) uuid.UUID {
	t.Helper()
	resp, err := e.casherSvc.Open(context.Background(), dto.OpenCasherSessionRequest{
		CasherID:        casherID.String(),
		OpeningBalances: openings,
	})
	require.NoError(t, err)
	id, err := uuid.Parse(resp.ID)
	require.NoError(t, err)
	return id
}

func (e *env) closeDrawer(t *testing.T, drawerID uuid.UUID, actuals ...dto.CurrencyAmount) {
	t.Helper()
	ctx := context.Background()
	_, err := e.casherSvc.MarkPending(ctx, drawerID)
	require.NoError(t, err)
	_, err = e.casherSvc.Close(ctx, drawerID, uuid.New(), dto.CloseCasherSessionRequest{
		ActualClosingBalances: actuals,
	})
	require.NoError(t, err)
}

// shopBalance looks up the session's running balance row for one currency.
func (e *env) shopBalance(t *testing.T, sessionID, currencyID uuid.UUID) *model.CashBalance {
	t.Helper()
	b, err := e.sessions.FindCashBalanceTx(nil, sessionID, currencyID)
	require.NoError(t, err)
	return b
}

func (e *env) drawerBalance(t *testing.T, drawerID, currencyID uuid.UUID) *model.CasherSessionBalance {
	t.Helper()
	b, err := e.cashers.FindBalanceTx(nil, drawerID, currencyID)
	require.NoError(t, err)
	return b
}
