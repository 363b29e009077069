package worker

// report_worker.go
// Processes close-report jobs from QueueReport: builds the reconciliation
// report for a closed session, renders it to PDF, and enqueues an email job
// for the configured recipient.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kassemKu/sibai-transactions-sub000/internal/infra"
	"github.com/kassemKu/sibai-transactions-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReportJobPayload is the job envelope sent to QueueReport.
type ReportJobPayload struct {
	SessionID string `json:"session_id"`
}

// ReportWorker builds and delivers session close reports.
type ReportWorker struct {
	sessionRepo    repository.SessionRepository
	txnRepo        repository.TransactionRepository
	userRepo       repository.UserRepository
	dispatcher     *Dispatcher
	pdfStoragePath string
	reportEmail    string
}

func NewReportWorker(
	sessionRepo repository.SessionRepository,
	txnRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	dispatcher *Dispatcher,
	pdfStoragePath string,
	reportEmail string,
) *ReportWorker {
	return &ReportWorker{
		sessionRepo:    sessionRepo,
		txnRepo:        txnRepo,
		userRepo:       userRepo,
		dispatcher:     dispatcher,
		pdfStoragePath: pdfStoragePath,
		reportEmail:    reportEmail,
	}
}

// Process handles a single report job:
//  1. Parse ReportJobPayload from the job envelope
//  2. Fetch the closed session with balances and stats
//  3. Render the reconciliation PDF
//  4. Enqueue an email job with the PDF attached
func (w *ReportWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReportJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("report_worker: invalid payload")
		return nil // malformed payloads never succeed; don't retry
	}
	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		log.Error().Str("session_id", payload.SessionID).Msg("report_worker: invalid session_id")
		return nil
	}

	session, err := w.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("report_worker: load session: %w", err)
	}
	count, profit, err := w.txnRepo.SessionStats(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("report_worker: session stats: %w", err)
	}

	report := &infra.SessionReport{
		SessionID:        session.ID.String(),
		OpenedBy:         w.userName(ctx, session.OpenedBy),
		OpenedAt:         session.OpenedAt,
		TransactionCount: int(count),
		TotalProfitUSD:   profit,
	}
	if session.ClosedBy != nil {
		report.ClosedBy = w.userName(ctx, *session.ClosedBy)
	}
	if session.ClosedAt != nil {
		report.ClosedAt = *session.ClosedAt
	}

	for i := range session.Balances {
		b := &session.Balances[i]
		code := b.CurrencyID.String()
		if b.Currency != nil {
			code = b.Currency.Code
		}
		line := infra.ReportLine{
			CurrencyCode: code,
			Opening:      b.OpeningBalance,
			TotalIn:      b.TotalIn,
			TotalOut:     b.TotalOut,
		}
		if b.ClosingBalance != nil {
			line.Expected = *b.ClosingBalance
		}
		if b.ActualClosingBalance != nil {
			line.Counted = *b.ActualClosingBalance
		}
		if b.Difference != nil {
			line.Difference = *b.Difference
		}
		report.Lines = append(report.Lines, line)
	}

	pdfPath, err := infra.GenerateSessionReportPDF(report, w.pdfStoragePath)
	if err != nil {
		return fmt.Errorf("report_worker: %w", err)
	}
	log.Info().
		Str("session_id", report.SessionID).
		Str("pdf", pdfPath).
		Msg("report_worker: close report generated")

	if w.reportEmail == "" {
		return nil
	}
	return w.dispatcher.EnqueueEmail(ctx, EmailJobPayload{
		ToEmail: w.reportEmail,
		Subject: "Cash session close report " + report.SessionID,
		Body: fmt.Sprintf(
			"Session %s closed with %d completed transactions and %s USD total profit. Reconciliation attached.",
			report.SessionID, report.TransactionCount, report.TotalProfitUSD.StringFixed(2)),
		PDFPath: pdfPath,
	})
}

func (w *ReportWorker) userName(ctx context.Context, id uuid.UUID) string {
	user, err := w.userRepo.FindByID(ctx, id)
	if err != nil {
		return id.String()
	}
	return user.FullName
}
