package service_test

import (
	"context"
	"testing"

	"github.com/kassemKu/sibai-transactions-sub000/internal/dto"
	"github.com/kassemKu/sibai-transactions-sub000/internal/model"
	"github.com/kassemKu/sibai-transactions-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	closed []uuid.UUID
}

func (n *recordingNotifier) NotifySessionClosed(_ context.Context, sessionID uuid.UUID) error {
	n.closed = append(n.closed, sessionID)
	return nil
}

func TestSessionOpenCreatesBalancesAndSnapshots(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")
	eur := e.addCurrency(t, "EUR", "0.92", "0.94", "0.90")

	sessionID := e.openSession(t)

	session, err := e.sessions.FindByID(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionActive, session.Status)

	// One opening-balance row, one running-balance row and one open-phase rate
	// snapshot per registered currency, all starting at zero.
	assert.Len(t, e.sessions.openings, 2)
	for _, o := range e.sessions.openings {
		assert.True(t, o.OpeningBalance.IsZero())
	}
	assert.Len(t, session.Balances, 2)

	snaps, err := e.sessions.ListRateSnapshots(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	seen := map[uuid.UUID]bool{}
	for _, s := range snaps {
		assert.Equal(t, model.SnapshotOpen, s.Phase)
		seen[s.CurrencyID] = true
	}
	assert.True(t, seen[usd])
	assert.True(t, seen[eur])
}

func TestSessionOpenRejectsSecondOpen(t *testing.T) {
	e := newEnv()
	e.addCurrency(t, "USD", "1", "1", "1")
	e.openSession(t)

	_, err := e.sessionSvc.Open(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrSessionAlreadyOpen)
}

func TestSessionMarkPendingTransitions(t *testing.T) {
	e := newEnv()
	e.addCurrency(t, "USD", "1", "1", "1")
	sessionID := e.openSession(t)
	ctx := context.Background()

	resp, err := e.sessionSvc.MarkPending(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionPending, resp.Status)

	_, err = e.sessionSvc.MarkPending(ctx, sessionID)
	assert.ErrorIs(t, err, service.ErrSessionPending)

	_, err = e.sessionSvc.Close(ctx, sessionID, uuid.New(), dto.CloseSessionRequest{})
	require.NoError(t, err)

	_, err = e.sessionSvc.MarkPending(ctx, sessionID)
	assert.ErrorIs(t, err, service.ErrSessionClosed)
}

func TestSessionCloseRequiresPendingFirst(t *testing.T) {
	e := newEnv()
	e.addCurrency(t, "USD", "1", "1", "1")
	sessionID := e.openSession(t)
	ctx := context.Background()

	_, err := e.sessionSvc.Close(ctx, sessionID, uuid.New(), dto.CloseSessionRequest{})
	assert.ErrorIs(t, err, service.ErrSessionNotPending)

	_, err = e.sessionSvc.MarkPending(ctx, sessionID)
	require.NoError(t, err)
	_, err = e.sessionSvc.Close(ctx, sessionID, uuid.New(), dto.CloseSessionRequest{})
	require.NoError(t, err)

	// Closing twice must not double-book differences.
	_, err = e.sessionSvc.Close(ctx, sessionID, uuid.New(), dto.CloseSessionRequest{})
	assert.ErrorIs(t, err, service.ErrSessionClosed)
}

func TestSessionCloseBlockedByOpenDrawers(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")
	sessionID := e.openSession(t)
	e.addCashbox(t, sessionID, amount(usd, "500"))
	drawerID := e.openDrawer(t, uuid.New(), amount(usd, "200"))
	ctx := context.Background()

	_, err := e.sessionSvc.MarkPending(ctx, sessionID)
	require.NoError(t, err)

	_, err = e.sessionSvc.Close(ctx, sessionID, uuid.New(), dto.CloseSessionRequest{})
	assert.ErrorIs(t, err, service.ErrDrawersStillOpen)

	e.closeDrawer(t, drawerID, amount(usd, "200"))
	_, err = e.sessionSvc.Close(ctx, sessionID, uuid.New(), dto.CloseSessionRequest{
		ActualClosingBalances: []dto.CurrencyAmount{amount(usd, "700")},
	})
	require.NoError(t, err)
}

func TestSessionCloseReconcilesAndNotifies(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")
	eur := e.addCurrency(t, "EUR", "0.92", "0.94", "0.90")
	notifier := &recordingNotifier{}
	svc := service.NewSessionService(e.sessions, e.cashers, e.registry, e.ledger, notifier)
	ctx := context.Background()

	resp, err := svc.Open(ctx, uuid.New())
	require.NoError(t, err)
	sessionID := uuid.MustParse(resp.ID)

	require.NoError(t, svc.AddCashbox(ctx, sessionID, uuid.New(), dto.AddCashboxRequest{
		Additions: []dto.CurrencyAmount{amount(usd, "1000")},
	}))
	_, err = svc.MarkPending(ctx, sessionID)
	require.NoError(t, err)

	closerID := uuid.New()
	closed, err := svc.Close(ctx, sessionID, closerID, dto.CloseSessionRequest{
		ActualClosingBalances: []dto.CurrencyAmount{amount(usd, "980")},
	})
	require.NoError(t, err)
	assert.Equal(t, model.SessionClosed, closed.Status)
	require.NotNil(t, closed.ClosedBy)
	assert.Equal(t, closerID.String(), *closed.ClosedBy)

	b := e.shopBalance(t, sessionID, usd)
	require.NotNil(t, b.ClosingBalance)
	require.NotNil(t, b.ActualClosingBalance)
	require.NotNil(t, b.Difference)
	assert.True(t, b.ClosingBalance.Equal(dec("1000")), "closing = %s", b.ClosingBalance)
	assert.True(t, b.ActualClosingBalance.Equal(dec("980")))
	assert.True(t, b.Difference.Equal(dec("-20")), "difference = %s", b.Difference)

	// The EUR row was never counted; its actual defaults to zero.
	be := e.shopBalance(t, sessionID, eur)
	require.NotNil(t, be.ActualClosingBalance)
	assert.True(t, be.ActualClosingBalance.IsZero())

	snaps, err := e.sessions.ListRateSnapshots(ctx, sessionID)
	require.NoError(t, err)
	closePhase := 0
	for _, s := range snaps {
		if s.Phase == model.SnapshotClose {
			closePhase++
		}
	}
	assert.Equal(t, 2, closePhase)

	require.Len(t, notifier.closed, 1)
	assert.Equal(t, sessionID, notifier.closed[0])
}

func TestSessionCarryForwardFromPriorClose(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")
	eur := e.addCurrency(t, "EUR", "0.92", "0.94", "0.90")
	ctx := context.Background()

	first := e.openSession(t)
	e.addCashbox(t, first, amount(usd, "1000"))
	_, err := e.sessionSvc.MarkPending(ctx, first)
	require.NoError(t, err)
	_, err = e.sessionSvc.Close(ctx, first, uuid.New(), dto.CloseSessionRequest{
		ActualClosingBalances: []dto.CurrencyAmount{amount(usd, "950")},
	})
	require.NoError(t, err)

	second := e.openSession(t)
	assert.True(t, e.shopBalance(t, second, usd).OpeningBalance.Equal(dec("950")),
		"USD opening carries the prior counted actual")
	assert.True(t, e.shopBalance(t, second, eur).OpeningBalance.IsZero())
}

func TestAddCashboxRequiresActiveSession(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")
	sessionID := e.openSession(t)
	ctx := context.Background()

	_, err := e.sessionSvc.MarkPending(ctx, sessionID)
	require.NoError(t, err)

	err = e.sessionSvc.AddCashbox(ctx, sessionID, uuid.New(), dto.AddCashboxRequest{
		Additions: []dto.CurrencyAmount{amount(usd, "100")},
	})
	assert.ErrorIs(t, err, service.ErrSessionNotActive)
}

func TestAddCashboxJournalsEachAddition(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")
	eur := e.addCurrency(t, "EUR", "0.92", "0.94", "0.90")
	sessionID := e.openSession(t)
	adminID := uuid.New()
	ctx := context.Background()

	require.NoError(t, e.sessionSvc.AddCashbox(ctx, sessionID, adminID, dto.AddCashboxRequest{
		Additions: []dto.CurrencyAmount{amount(usd, "1000"), amount(eur, "0")},
	}))
	require.NoError(t, e.sessionSvc.AddCashbox(ctx, sessionID, adminID, dto.AddCashboxRequest{
		Additions: []dto.CurrencyAmount{amount(usd, "250")},
	}))

	// One audit row per positive addition; the zero EUR amount leaves no trace
	// and no balance change.
	rows, err := e.sessionSvc.ListCashboxAdditions(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	total := decimal.Zero
	for _, row := range rows {
		assert.Equal(t, usd.String(), row.CurrencyID)
		assert.Equal(t, adminID.String(), row.AddedBy)
		total = total.Add(row.Amount)
	}
	assert.True(t, total.Equal(dec("1250")))

	// The journaled sum recomputes the opening figure exactly.
	assert.True(t, e.shopBalance(t, sessionID, usd).OpeningBalance.Equal(total))
	assert.True(t, e.shopBalance(t, sessionID, eur).OpeningBalance.IsZero())
}
