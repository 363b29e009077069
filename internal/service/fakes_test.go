package service_test

// In-memory repository fakes backing the service tests. They mirror the SQL
// repositories' contracts, including gorm.ErrRecordNotFound on missing rows,
// so the services exercise the same code paths as against Postgres.

import (
	"context"
	"sort"
	"time"

	"github.com/kassemKu/sibai-transactions-sub000/internal/dto"
	"github.com/kassemKu/sibai-transactions-sub000/internal/model"
	"github.com/kassemKu/sibai-transactions-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Currencies ────────────────────────────────────────────────────────────────

type fakeCurrencyRepo struct {
	byID map[uuid.UUID]*model.Currency
}

func newFakeCurrencyRepo() *fakeCurrencyRepo {
	return &fakeCurrencyRepo{byID: make(map[uuid.UUID]*model.Currency)}
}

func (r *fakeCurrencyRepo) Create(_ context.Context, c *model.Currency) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.byID[c.ID] = c
	return nil
}

func (r *fakeCurrencyRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Currency, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *fakeCurrencyRepo) FindByCode(_ context.Context, code string) (*model.Currency, error) {
	for _, c := range r.byID {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCurrencyRepo) FindAll(_ context.Context) ([]model.Currency, error) {
	all := make([]model.Currency, 0, len(r.byID))
	for _, c := range r.byID {
		all = append(all, *c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return all, nil
}

func (r *fakeCurrencyRepo) Update(_ context.Context, c *model.Currency) error {
	r.byID[c.ID] = c
	return nil
}

var _ repository.CurrencyRepository = (*fakeCurrencyRepo)(nil)

// ── Users ─────────────────────────────────────────────────────────────────────

type fakeUserRepo struct {
	byID map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.byID[u.ID] = u
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(_ context.Context, includeInactive bool) ([]model.User, error) {
	var out []model.User
	for _, u := range r.byID {
		if !includeInactive && !u.Active {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	r.byID[u.ID] = u
	return nil
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

// ── Movements ─────────────────────────────────────────────────────────────────

type fakeMovementRepo struct {
	movements []model.CashMovement
}

func newFakeMovementRepo() *fakeMovementRepo { return &fakeMovementRepo{} }

func (r *fakeMovementRepo) CreateTx(_ *gorm.DB, m *model.CashMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeMovementRepo) SumSession(_ context.Context, sessionID, currencyID uuid.UUID, movType string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range r.movements {
		if m.CashSessionID == sessionID && m.CurrencyID == currencyID && m.Type == movType {
			sum = sum.Add(m.Amount)
		}
	}
	return sum, nil
}

func (r *fakeMovementRepo) SumCasher(_ context.Context, sessionID, casherID, currencyID uuid.UUID, movType string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range r.movements {
		if m.CashSessionID == sessionID && m.CasherID == casherID &&
			m.CurrencyID == currencyID && m.Type == movType {
			sum = sum.Add(m.Amount)
		}
	}
	return sum, nil
}

func (r *fakeMovementRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var out []model.CashMovement
	for _, m := range r.movements {
		if m.CashSessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) ListByTransaction(_ context.Context, transactionID uuid.UUID) ([]model.CashMovement, error) {
	var out []model.CashMovement
	for _, m := range r.movements {
		if m.TransactionID == transactionID {
			out = append(out, m)
		}
	}
	return out, nil
}

var _ repository.MovementRepository = (*fakeMovementRepo)(nil)

// ── Shop sessions ─────────────────────────────────────────────────────────────

type fakeSessionRepo struct {
	sessions  map[uuid.UUID]*model.CashSession
	openings  []model.SessionOpeningBalance
	balances  map[uuid.UUID]*model.CashBalance
	snapshots []model.SessionRateSnapshot
	additions []model.CashboxAddition
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions: make(map[uuid.UUID]*model.CashSession),
		balances: make(map[uuid.UUID]*model.CashBalance),
	}
}

func (r *fakeSessionRepo) DB() *gorm.DB { return nil }

func (r *fakeSessionRepo) CreateTx(_ *gorm.DB, s *model.CashSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) UpdateTx(_ *gorm.DB, s *model.CashSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) findCurrent() (*model.CashSession, error) {
	for _, s := range r.sessions {
		if s.Status != model.SessionClosed {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) FindCurrentTx(_ *gorm.DB) (*model.CashSession, error) {
	return r.findCurrent()
}

func (r *fakeSessionRepo) FindCurrent(_ context.Context) (*model.CashSession, error) {
	return r.findCurrent()
}

func (r *fakeSessionRepo) withBalances(s *model.CashSession) *model.CashSession {
	s.Balances = nil
	for _, b := range r.balances {
		if b.CashSessionID == s.ID {
			s.Balances = append(s.Balances, *b)
		}
	}
	return s
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withBalances(s), nil
}

func (r *fakeSessionRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *fakeSessionRepo) FindLastClosed(_ context.Context) (*model.CashSession, error) {
	var last *model.CashSession
	for _, s := range r.sessions {
		if s.Status != model.SessionClosed || s.ClosedAt == nil {
			continue
		}
		if last == nil || s.ClosedAt.After(*last.ClosedAt) {
			last = s
		}
	}
	if last == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withBalances(last), nil
}

func (r *fakeSessionRepo) List(_ context.Context, page, limit int) ([]model.CashSession, int64, error) {
	all := make([]model.CashSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].OpenedAt.After(all[j].OpenedAt) })
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *fakeSessionRepo) CreateOpeningBalanceTx(_ *gorm.DB, b *model.SessionOpeningBalance) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	r.openings = append(r.openings, *b)
	return nil
}

func (r *fakeSessionRepo) CreateCashBalanceTx(_ *gorm.DB, b *model.CashBalance) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	stored := *b
	r.balances[b.ID] = &stored
	return nil
}

func (r *fakeSessionRepo) SaveCashBalanceTx(_ *gorm.DB, b *model.CashBalance) error {
	stored := *b
	r.balances[b.ID] = &stored
	return nil
}

func (r *fakeSessionRepo) FindCashBalanceTx(_ *gorm.DB, sessionID, currencyID uuid.UUID) (*model.CashBalance, error) {
	for _, b := range r.balances {
		if b.CashSessionID == sessionID && b.CurrencyID == currencyID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) listBalances(sessionID uuid.UUID) []model.CashBalance {
	var out []model.CashBalance
	for _, b := range r.balances {
		if b.CashSessionID == sessionID {
			out = append(out, *b)
		}
	}
	return out
}

func (r *fakeSessionRepo) ListCashBalances(_ context.Context, sessionID uuid.UUID) ([]model.CashBalance, error) {
	return r.listBalances(sessionID), nil
}

func (r *fakeSessionRepo) ListCashBalancesTx(_ *gorm.DB, sessionID uuid.UUID) ([]model.CashBalance, error) {
	return r.listBalances(sessionID), nil
}

func (r *fakeSessionRepo) CreateRateSnapshotTx(_ *gorm.DB, s *model.SessionRateSnapshot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.snapshots = append(r.snapshots, *s)
	return nil
}

func (r *fakeSessionRepo) ListRateSnapshots(_ context.Context, sessionID uuid.UUID) ([]model.SessionRateSnapshot, error) {
	var out []model.SessionRateSnapshot
	for _, s := range r.snapshots {
		if s.CashSessionID == sessionID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) CreateCashboxAdditionTx(_ *gorm.DB, a *model.CashboxAddition) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.additions = append(r.additions, *a)
	return nil
}

func (r *fakeSessionRepo) ListCashboxAdditions(_ context.Context, sessionID uuid.UUID) ([]model.CashboxAddition, error) {
	var out []model.CashboxAddition
	for _, a := range r.additions {
		if a.CashSessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

var _ repository.SessionRepository = (*fakeSessionRepo)(nil)

// ── Casher sessions ───────────────────────────────────────────────────────────

type fakeCasherRepo struct {
	drawers  map[uuid.UUID]*model.CasherCashSession
	balances map[uuid.UUID]*model.CasherSessionBalance
}

func newFakeCasherRepo() *fakeCasherRepo {
	return &fakeCasherRepo{
		drawers:  make(map[uuid.UUID]*model.CasherCashSession),
		balances: make(map[uuid.UUID]*model.CasherSessionBalance),
	}
}

func (r *fakeCasherRepo) DB() *gorm.DB { return nil }

func (r *fakeCasherRepo) CreateTx(_ *gorm.DB, s *model.CasherCashSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.drawers[s.ID] = s
	return nil
}

func (r *fakeCasherRepo) UpdateTx(_ *gorm.DB, s *model.CasherCashSession) error {
	r.drawers[s.ID] = s
	return nil
}

func (r *fakeCasherRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CasherCashSession, error) {
	return r.FindByIDTx(nil, id)
}

func (r *fakeCasherRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.CasherCashSession, error) {
	d, ok := r.drawers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return d, nil
}

func (r *fakeCasherRepo) findActive(sessionID, casherID uuid.UUID) (*model.CasherCashSession, error) {
	for _, d := range r.drawers {
		if d.CashSessionID == sessionID && d.CasherID == casherID && d.Status == model.SessionActive {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCasherRepo) FindActiveByCasher(_ context.Context, sessionID, casherID uuid.UUID) (*model.CasherCashSession, error) {
	return r.findActive(sessionID, casherID)
}

func (r *fakeCasherRepo) FindActiveByCasherTx(_ *gorm.DB, sessionID, casherID uuid.UUID) (*model.CasherCashSession, error) {
	return r.findActive(sessionID, casherID)
}

func (r *fakeCasherRepo) ListActiveBySessionTx(_ *gorm.DB, sessionID uuid.UUID) ([]model.CasherCashSession, error) {
	var out []model.CasherCashSession
	for _, d := range r.drawers {
		if d.CashSessionID == sessionID && d.Status != model.SessionClosed {
			copied := *d
			copied.Balances = nil
			for _, b := range r.balances {
				if b.CasherCashSessionID == d.ID {
					copied.Balances = append(copied.Balances, *b)
				}
			}
			out = append(out, copied)
		}
	}
	return out, nil
}

func (r *fakeCasherRepo) CountNotClosedTx(_ *gorm.DB, sessionID uuid.UUID) (int64, error) {
	var n int64
	for _, d := range r.drawers {
		if d.CashSessionID == sessionID && d.Status != model.SessionClosed {
			n++
		}
	}
	return n, nil
}

func (r *fakeCasherRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.CasherCashSession, error) {
	var out []model.CasherCashSession
	for _, d := range r.drawers {
		if d.CashSessionID == sessionID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeCasherRepo) CreateBalanceTx(_ *gorm.DB, b *model.CasherSessionBalance) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	stored := *b
	r.balances[b.ID] = &stored
	return nil
}

func (r *fakeCasherRepo) SaveBalanceTx(_ *gorm.DB, b *model.CasherSessionBalance) error {
	stored := *b
	r.balances[b.ID] = &stored
	return nil
}

func (r *fakeCasherRepo) FindBalanceTx(_ *gorm.DB, casherSessionID, currencyID uuid.UUID) (*model.CasherSessionBalance, error) {
	for _, b := range r.balances {
		if b.CasherCashSessionID == casherSessionID && b.CurrencyID == currencyID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCasherRepo) listBalances(casherSessionID uuid.UUID) []model.CasherSessionBalance {
	var out []model.CasherSessionBalance
	for _, b := range r.balances {
		if b.CasherCashSessionID == casherSessionID {
			out = append(out, *b)
		}
	}
	return out
}

func (r *fakeCasherRepo) ListBalances(_ context.Context, casherSessionID uuid.UUID) ([]model.CasherSessionBalance, error) {
	return r.listBalances(casherSessionID), nil
}

func (r *fakeCasherRepo) ListBalancesTx(_ *gorm.DB, casherSessionID uuid.UUID) ([]model.CasherSessionBalance, error) {
	return r.listBalances(casherSessionID), nil
}

var _ repository.CasherSessionRepository = (*fakeCasherRepo)(nil)

// ── Transactions ──────────────────────────────────────────────────────────────

type fakeTransactionRepo struct {
	txns map[uuid.UUID]*model.Transaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{txns: make(map[uuid.UUID]*model.Transaction)}
}

func (r *fakeTransactionRepo) DB() *gorm.DB { return nil }

func (r *fakeTransactionRepo) CreateTx(_ *gorm.DB, t *model.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	r.txns[t.ID] = t
	return nil
}

func (r *fakeTransactionRepo) UpdateTx(_ *gorm.DB, t *model.Transaction) error {
	r.txns[t.ID] = t
	return nil
}

func (r *fakeTransactionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Transaction, error) {
	return r.FindByIDTx(nil, id)
}

func (r *fakeTransactionRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	t, ok := r.txns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *fakeTransactionRepo) List(_ context.Context, filter dto.TransactionFilter) ([]model.Transaction, int64, error) {
	var all []model.Transaction
	for _, t := range r.txns {
		if filter.CashSessionID != "" && t.CashSessionID.String() != filter.CashSessionID {
			continue
		}
		if filter.CasherID != "" && t.AssignedTo.String() != filter.CasherID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		all = append(all, *t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *fakeTransactionRepo) SessionStats(_ context.Context, sessionID uuid.UUID) (int64, decimal.Decimal, error) {
	var count int64
	profit := decimal.Zero
	for _, t := range r.txns {
		if t.CashSessionID == sessionID && t.Status == model.TransactionCompleted {
			count++
			profit = profit.Add(t.TotalProfitUSD)
		}
	}
	return count, profit, nil
}

var _ repository.TransactionRepository = (*fakeTransactionRepo)(nil)
