package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sbhdesk/complaint-engine/internal/domain"
	"github.com/sbhdesk/complaint-engine/internal/observability"
	"github.com/sbhdesk/complaint-engine/internal/repository"
)

const delayedHistoryMark = "Case Delayed"

// DelayService is the scheduled sweep that flags overdue tickets and
// maintains the delayed-cases ledger. Safe to run more than once a
// day: every write is guarded by an already-done check.
type DelayService struct {
	tickets repository.TicketRepository
	ledgers repository.LedgerRepository
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewDelayService constructs the service.
func NewDelayService(tickets repository.TicketRepository, ledgers repository.LedgerRepository, metrics *observability.Metrics, logger *zap.Logger) *DelayService {
	return &DelayService{tickets: tickets, ledgers: ledgers, metrics: metrics, logger: logger}
}

// RunDelaySweep scans every open ticket and flags the overdue ones.
// Comparison is by calendar day: a ticket registered at 23:59 with no
// target date is late the moment the next day begins. Tickets with no
// parseable reference date are skipped, never defaulted to now.
func (s *DelayService) RunDelaySweep(ctx context.Context, now time.Time) error {
	tickets, err := s.tickets.List(ctx)
	if err != nil {
		return err
	}

	today := domain.Midnight(now)
	flagged := 0
	for i := range tickets {
		ticket := &tickets[i]
		if ticket.IsClosed() {
			continue
		}
		reference, ok := domain.ParseDate(ticket.DelayReference())
		if !ok {
			continue
		}
		if !today.After(domain.Midnight(reference)) {
			continue
		}

		if err := s.flagDelayed(ctx, ticket, now); err != nil {
			// One bad row must not abort the sweep.
			s.logger.Warn("failed to flag delayed ticket",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
			continue
		}
		flagged++
	}

	s.metrics.RecordSweep("delay", flagged)
	s.logger.Info("delay sweep finished",
		zap.Int("scanned", len(tickets)), zap.Int("flagged", flagged))
	return nil
}

func (s *DelayService) flagDelayed(ctx context.Context, ticket *domain.Ticket, now time.Time) error {
	if !ticket.DelayFlag {
		if err := s.tickets.SetDelayFlag(ctx, ticket, true); err != nil {
			return err
		}
	}

	// The substring guard keeps repeated runs from stacking up
	// duplicate history lines.
	if !strings.Contains(ticket.History, delayedHistoryMark) {
		line := domain.FormatDateTime(now) + " - " + delayedHistoryMark
		if err := s.tickets.AppendHistory(ctx, ticket, line); err != nil {
			return err
		}
	}

	exists, err := s.ledgers.HasDelayedCase(ctx, ticket.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.ledgers.AppendDelayedCase(ctx, domain.DelayedCaseEntry{
		TicketID:     ticket.ID,
		Department:   ticket.Department,
		RegisteredAt: ticket.RegisteredAt,
		DetectedAt:   domain.FormatDate(now),
		Status:       ticket.Status,
		Notified:     false,
	})
}
