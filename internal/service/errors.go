package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Domain error taxonomy. Handlers map these to HTTP statuses; everything else
// propagates as a generic internal error without leaking storage details.
var (
	// ErrSessionAlreadyOpen: a cash session is already active or pending.
	ErrSessionAlreadyOpen = errors.New("a cash session is already open")
	// ErrSessionNotActive: a write was attempted against a session that is not
	// in the active state.
	ErrSessionNotActive = errors.New("cash session is not active")
	// ErrSessionPending: the scope is frozen for reconciliation; late writes
	// are rejected so the balance snapshot taken at close stays valid.
	ErrSessionPending = errors.New("cash session is pending reconciliation")
	// ErrSessionNotPending: close was attempted without going through pending
	// first — the freeze step cannot be skipped.
	ErrSessionNotPending = errors.New("cash session must be pending before close")
	ErrSessionClosed     = errors.New("cash session is already closed")
	ErrNoOpenSession     = errors.New("no open cash session")

	ErrCasherSessionNotActive  = errors.New("casher session is not active")
	ErrCasherSessionPending    = errors.New("casher session is pending reconciliation")
	ErrCasherSessionNotPending = errors.New("casher session must be pending before close")
	ErrCasherSessionClosed     = errors.New("casher session is already closed")
	// ErrDrawerAlreadyOpen: the cashier already has an active drawer in this
	// session.
	ErrDrawerAlreadyOpen = errors.New("casher already has an open drawer in this session")
	// ErrDrawersStillOpen: the shop-wide close requires every drawer closed
	// first (asymmetric close precondition).
	ErrDrawersStillOpen = errors.New("all casher drawers must be closed before closing the session")

	// ErrInvalidCurrencyPair: source and destination currency are the same.
	ErrInvalidCurrencyPair = errors.New("source and destination currency must differ")
	// ErrInvalidMovement: malformed ledger entry. Callers validate before
	// appending, so reaching this aborts the whole unit of work.
	ErrInvalidMovement = errors.New("invalid cash movement")

	ErrTransactionNotPending = errors.New("transaction is not pending")
	ErrNotAssignedCasher     = errors.New("transaction is assigned to another casher")
)

// InsufficientPoolBalanceError is returned by the availability guard when a
// drawer allocation exceeds what the shop currently has free in a currency.
type InsufficientPoolBalanceError struct {
	CurrencyID   uuid.UUID
	CurrencyCode string
	Available    decimal.Decimal
	Requested    decimal.Decimal
}

func (e *InsufficientPoolBalanceError) Error() string {
	return fmt.Sprintf("insufficient pool balance for %s: available %s, requested %s",
		e.CurrencyCode, e.Available.String(), e.Requested.String())
}

// InsufficientBalanceError is returned when a conversion exceeds the acting
// cashier's live balance in the source currency.
type InsufficientBalanceError struct {
	CurrencyID   uuid.UUID
	CurrencyCode string
	Available    decimal.Decimal
	Requested    decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: available %s, requested %s",
		e.CurrencyCode, e.Available.String(), e.Requested.String())
}

// InvalidRateError marks a missing or zero exchange rate — a data problem,
// surfaced distinctly from insufficient-balance so operators don't confuse it
// with a cash problem.
type InvalidRateError struct {
	CurrencyCode string
}

func (e *InvalidRateError) Error() string {
	return fmt.Sprintf("invalid rate configuration for currency %s", e.CurrencyCode)
}
