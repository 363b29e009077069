package service_test

import (
	"context"
	"testing"

	"github.com/kassemKu/sibai-transactions-sub000/internal/dto"
	"github.com/kassemKu/sibai-transactions-sub000/internal/model"
	"github.com/kassemKu/sibai-transactions-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawerAllocationGuard(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")
	sessionID := e.openSession(t)
	e.addCashbox(t, sessionID, amount(usd, "1000"))
	ctx := context.Background()

	e.openDrawer(t, uuid.New(), amount(usd, "700"))

	// 400 exceeds the 300 still unallocated.
	_, err := e.casherSvc.Open(ctx, dto.OpenCasherSessionRequest{
		CasherID:        uuid.New().String(),
		OpeningBalances: []dto.CurrencyAmount{amount(usd, "400")},
	})
	var poolErr *service.InsufficientPoolBalanceError
	require.ErrorAs(t, err, &poolErr)
	assert.Equal(t, usd, poolErr.CurrencyID)
	assert.True(t, poolErr.Available.Equal(dec("300")), "available = %s", poolErr.Available)
	assert.True(t, poolErr.Requested.Equal(dec("400")))

	// 300 fits exactly.
	e.openDrawer(t, uuid.New(), amount(usd, "300"))
}

func TestDrawerOpenRejectsSecondDrawerForCasher(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")
	sessionID := e.openSession(t)
	e.addCashbox(t, sessionID, amount(usd, "500"))

	casherID := uuid.New()
	e.openDrawer(t, casherID, amount(usd, "100"))

	_, err := e.casherSvc.Open(context.Background(), dto.OpenCasherSessionRequest{
		CasherID:        casherID.String(),
		OpeningBalances: []dto.CurrencyAmount{amount(usd, "100")},
	})
	assert.ErrorIs(t, err, service.ErrDrawerAlreadyOpen)
}

func TestDrawerOpenRequiresActiveSession(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")
	ctx := context.Background()

	req := dto.OpenCasherSessionRequest{
		CasherID:        uuid.New().String(),
		OpeningBalances: []dto.CurrencyAmount{amount(usd, "0")},
	}
	_, err := e.casherSvc.Open(ctx, req)
	assert.ErrorIs(t, err, service.ErrNoOpenSession)

	sessionID := e.openSession(t)
	_, err = e.sessionSvc.MarkPending(ctx, sessionID)
	require.NoError(t, err)

	_, err = e.casherSvc.Open(ctx, req)
	assert.ErrorIs(t, err, service.ErrSessionNotActive)
}

func TestDrawerOpenRejectsNegativeAllocation(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")
	e.openSession(t)

	_, err := e.casherSvc.Open(context.Background(), dto.OpenCasherSessionRequest{
		CasherID:        uuid.New().String(),
		OpeningBalances: []dto.CurrencyAmount{amount(usd, "-5")},
	})
	assert.ErrorIs(t, err, service.ErrInvalidMovement)
}

func TestDrawerCloseFoldsActualIntoPool(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")
	sessionID := e.openSession(t)
	e.addCashbox(t, sessionID, amount(usd, "1000"))

	casherID := uuid.New()
	drawerID := e.openDrawer(t, casherID, amount(usd, "700"))
	ctx := context.Background()

	_, err := e.casherSvc.MarkPending(ctx, drawerID)
	require.NoError(t, err)
	closerID := uuid.New()
	resp, err := e.casherSvc.Close(ctx, drawerID, closerID, dto.CloseCasherSessionRequest{
		ActualClosingBalances: []dto.CurrencyAmount{amount(usd, "650")},
	})
	require.NoError(t, err)
	assert.Equal(t, model.SessionClosed, resp.Status)

	b := e.drawerBalance(t, drawerID, usd)
	require.NotNil(t, b.SystemBalance)
	require.NotNil(t, b.Difference)
	assert.True(t, b.SystemBalance.Equal(dec("700")), "system = %s", b.SystemBalance)
	assert.True(t, b.ActualClosingBalance.Equal(dec("650")))
	assert.True(t, b.Difference.Equal(dec("-50")), "difference = %s", b.Difference)

	// The counted actual is folded back into the shop pool's opening balance,
	// additively, as the carry mechanism for the shop-wide close.
	assert.True(t, e.shopBalance(t, sessionID, usd).OpeningBalance.Equal(dec("1650")),
		"pool opening = %s", e.shopBalance(t, sessionID, usd).OpeningBalance)

	drawer, err := e.cashers.FindByID(ctx, drawerID)
	require.NoError(t, err)
	require.NotNil(t, drawer.ClosedBy)
	assert.Equal(t, closerID, *drawer.ClosedBy)
}

func TestDrawerCloseRequiresPendingFirst(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")
	sessionID := e.openSession(t)
	e.addCashbox(t, sessionID, amount(usd, "100"))
	drawerID := e.openDrawer(t, uuid.New(), amount(usd, "100"))
	ctx := context.Background()

	req := dto.CloseCasherSessionRequest{
		ActualClosingBalances: []dto.CurrencyAmount{amount(usd, "100")},
	}
	_, err := e.casherSvc.Close(ctx, drawerID, uuid.New(), req)
	assert.ErrorIs(t, err, service.ErrCasherSessionNotPending)

	_, err = e.casherSvc.MarkPending(ctx, drawerID)
	require.NoError(t, err)
	_, err = e.casherSvc.Close(ctx, drawerID, uuid.New(), req)
	require.NoError(t, err)

	_, err = e.casherSvc.Close(ctx, drawerID, uuid.New(), req)
	assert.ErrorIs(t, err, service.ErrCasherSessionClosed)
}

func TestAvailableBalanceSubtractsOpenDrawers(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")
	sessionID := e.openSession(t)
	e.addCashbox(t, sessionID, amount(usd, "1000"))
	e.openDrawer(t, uuid.New(), amount(usd, "700"))

	available, err := e.casherSvc.AvailableBalance(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, usd.String(), available[0].CurrencyID)
	assert.True(t, available[0].SystemBalance.Equal(dec("300")),
		"available = %s", available[0].SystemBalance)
}
