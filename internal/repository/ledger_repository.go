package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/sbhdesk/complaint-engine/internal/domain"
	"github.com/sbhdesk/complaint-engine/internal/rowstore"
)

// LedgerRepository covers the append-mostly secondary sheets used for
// idempotency checks and audit: ratings, delayed cases, transfers and
// extensions.
type LedgerRepository interface {
	// HasRating reports whether this (ticket, rater) pair already
	// rated. The ledger, not the ticket row, is the authority.
	HasRating(ctx context.Context, ticketID, ratedBy string) (bool, error)
	AppendRating(ctx context.Context, entry domain.RatingEntry) error
	RatingsByResolver(ctx context.Context, username string) ([]domain.RatingEntry, error)

	HasDelayedCase(ctx context.Context, ticketID string) (bool, error)
	AppendDelayedCase(ctx context.Context, entry domain.DelayedCaseEntry) error
	// ListUnnotifiedDelayedCases heals a missing notified column
	// before reading, so the reminder sweep never fails on old sheets.
	ListUnnotifiedDelayedCases(ctx context.Context) ([]domain.DelayedCaseEntry, error)
	MarkDelayedCaseNotified(ctx context.Context, rowID int64) error

	AppendTransfer(ctx context.Context, entry domain.TransferEntry) error
	AppendExtension(ctx context.Context, entry domain.ExtensionEntry) error

	// SyncTicketStatus propagates a new ticket status to every
	// delayed-case and transfer row referencing the ticket.
	SyncTicketStatus(ctx context.Context, ticketID string, status domain.TicketStatus) error
}

type ledgerRepository struct {
	store rowstore.Store
}

// NewLedgerRepository builds the repository.
func NewLedgerRepository(store rowstore.Store) LedgerRepository {
	return &ledgerRepository{store: store}
}

func (r *ledgerRepository) HasRating(ctx context.Context, ticketID, ratedBy string) (bool, error) {
	rows, err := r.store.ReadAll(ctx, SheetRatingsLog)
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if strings.EqualFold(strings.TrimSpace(row.Cells[FieldTicketID]), strings.TrimSpace(ticketID)) &&
			strings.EqualFold(strings.TrimSpace(row.Cells[FieldRatedBy]), strings.TrimSpace(ratedBy)) {
			return true, nil
		}
	}
	return false, nil
}

func (r *ledgerRepository) AppendRating(ctx context.Context, entry domain.RatingEntry) error {
	return r.store.AppendRow(ctx, SheetRatingsLog, map[string]string{
		FieldTicketID:   entry.TicketID,
		FieldRatedBy:    entry.RatedBy,
		FieldResolvedBy: entry.ResolvedBy,
		FieldRating:     strconv.Itoa(entry.Rating),
		FieldRatedAt:    entry.RatedAt,
	})
}

func (r *ledgerRepository) RatingsByResolver(ctx context.Context, username string) ([]domain.RatingEntry, error) {
	rows, err := r.store.ReadAll(ctx, SheetRatingsLog)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.RatingEntry, 0)
	for _, row := range rows {
		if !strings.EqualFold(strings.TrimSpace(row.Cells[FieldResolvedBy]), strings.TrimSpace(username)) {
			continue
		}
		rating, err := strconv.Atoi(strings.TrimSpace(row.Cells[FieldRating]))
		if err != nil {
			continue
		}
		entries = append(entries, domain.RatingEntry{
			TicketID:   strings.TrimSpace(row.Cells[FieldTicketID]),
			RatedBy:    strings.TrimSpace(row.Cells[FieldRatedBy]),
			ResolvedBy: strings.TrimSpace(row.Cells[FieldResolvedBy]),
			Rating:     rating,
			RatedAt:    strings.TrimSpace(row.Cells[FieldRatedAt]),
		})
	}
	return entries, nil
}

func (r *ledgerRepository) HasDelayedCase(ctx context.Context, ticketID string) (bool, error) {
	row, err := r.store.FindRow(ctx, SheetDelayedCases, FieldTicketID, strings.TrimSpace(ticketID))
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

func (r *ledgerRepository) AppendDelayedCase(ctx context.Context, entry domain.DelayedCaseEntry) error {
	notified := "No"
	if entry.Notified {
		notified = "Yes"
	}
	return r.store.AppendRow(ctx, SheetDelayedCases, map[string]string{
		FieldTicketID:     entry.TicketID,
		FieldDepartment:   entry.Department,
		FieldRegisteredAt: entry.RegisteredAt,
		FieldDetectedAt:   entry.DetectedAt,
		FieldStatus:       string(entry.Status),
		FieldNotified:     notified,
	})
}

func (r *ledgerRepository) ListUnnotifiedDelayedCases(ctx context.Context) ([]domain.DelayedCaseEntry, error) {
	if err := r.store.EnsureColumns(ctx, SheetDelayedCases, FieldNotified); err != nil {
		return nil, err
	}
	rows, err := r.store.ReadAll(ctx, SheetDelayedCases)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.DelayedCaseEntry, 0)
	for _, row := range rows {
		if parseFlag(row.Cells[FieldNotified]) {
			continue
		}
		entries = append(entries, rowToDelayedCase(&row))
	}
	return entries, nil
}

func (r *ledgerRepository) MarkDelayedCaseNotified(ctx context.Context, rowID int64) error {
	return r.store.WriteCell(ctx, SheetDelayedCases, rowID, FieldNotified, "Yes")
}

func (r *ledgerRepository) AppendTransfer(ctx context.Context, entry domain.TransferEntry) error {
	return r.store.AppendRow(ctx, SheetTransferLog, map[string]string{
		FieldTicketID:       entry.TicketID,
		FieldFromDepartment: entry.FromDepartment,
		FieldToDepartment:   entry.ToDepartment,
		FieldActor:          entry.Actor,
		FieldStatus:         string(entry.Status),
		FieldDate:           entry.Date,
		FieldTime:           entry.Time,
	})
}

func (r *ledgerRepository) AppendExtension(ctx context.Context, entry domain.ExtensionEntry) error {
	return r.store.AppendRow(ctx, SheetExtensionLog, map[string]string{
		FieldTicketID:  entry.TicketID,
		FieldOldTarget: entry.OldTarget,
		FieldNewTarget: entry.NewTarget,
		FieldDiffDays:  strconv.Itoa(entry.DiffDays),
		FieldReason:    entry.Reason,
		FieldActor:     entry.Actor,
		FieldDate:      entry.Date,
	})
}

func (r *ledgerRepository) SyncTicketStatus(ctx context.Context, ticketID string, status domain.TicketStatus) error {
	for _, sheet := range []string{SheetDelayedCases, SheetTransferLog} {
		rows, err := r.store.ReadAll(ctx, sheet)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if !strings.EqualFold(strings.TrimSpace(row.Cells[FieldTicketID]), strings.TrimSpace(ticketID)) {
				continue
			}
			if err := r.store.WriteCell(ctx, sheet, row.ID, FieldStatus, string(status)); err != nil {
				return err
			}
		}
	}
	return nil
}

func rowToDelayedCase(row *rowstore.Row) domain.DelayedCaseEntry {
	return domain.DelayedCaseEntry{
		RowID:        row.ID,
		Rev:          row.Rev,
		TicketID:     strings.TrimSpace(row.Cells[FieldTicketID]),
		Department:   strings.TrimSpace(row.Cells[FieldDepartment]),
		RegisteredAt: strings.TrimSpace(row.Cells[FieldRegisteredAt]),
		DetectedAt:   strings.TrimSpace(row.Cells[FieldDetectedAt]),
		Status:       domain.NormalizeStatus(row.Cells[FieldStatus]),
		Notified:     parseFlag(row.Cells[FieldNotified]),
	}
}
