package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sbhdesk/complaint-engine/internal/domain"
	"github.com/sbhdesk/complaint-engine/internal/rowstore"
)

// ErrNotFound reports an absent row. Services map it onto the
// user-visible NotFound error.
var ErrNotFound = errors.New("repository: not found")

// ErrConflict reports a lost optimistic-concurrency race on update.
var ErrConflict = errors.New("repository: row modified concurrently")

// TicketRepository is typed access to the complaint sheet.
type TicketRepository interface {
	NextID(ctx context.Context) (string, error)
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context) ([]domain.Ticket, error)
	// UpdateFields writes canonical cells against the revision carried
	// by the ticket; ErrConflict when the row moved underneath.
	UpdateFields(ctx context.Context, ticket *domain.Ticket, cells map[string]string) error
	// AppendHistory adds one timestamped line to the append-only log.
	AppendHistory(ctx context.Context, ticket *domain.Ticket, line string) error
	SetDelayFlag(ctx context.Context, ticket *domain.Ticket, delayed bool) error
}

type ticketRepository struct {
	store  rowstore.Store
	prefix string
}

// NewTicketRepository builds the repository. prefix is the alphabetic
// ticket-id prefix, e.g. "SBH".
func NewTicketRepository(store rowstore.Store, prefix string) TicketRepository {
	if prefix == "" {
		prefix = "SBH"
	}
	return &ticketRepository{store: store, prefix: prefix}
}

// NextID scans the highest existing numeric suffix and increments.
// Ids are never reused, even after row deletion.
func (r *ticketRepository) NextID(ctx context.Context) (string, error) {
	rows, err := r.store.ReadAll(ctx, SheetTickets)
	if err != nil {
		return "", err
	}
	highest := 0
	for _, row := range rows {
		id := strings.TrimSpace(row.Cells[FieldTicketID])
		if !strings.HasPrefix(strings.ToUpper(id), r.prefix) {
			continue
		}
		suffix, err := strconv.Atoi(id[len(r.prefix):])
		if err != nil {
			continue
		}
		if suffix > highest {
			highest = suffix
		}
	}
	return fmt.Sprintf("%s%05d", r.prefix, highest+1), nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	return r.store.AppendRow(ctx, SheetTickets, ticketCells(ticket))
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	row, err := r.store.FindRow(ctx, SheetTickets, FieldTicketID, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	ticket := rowToTicket(row)
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context) ([]domain.Ticket, error) {
	rows, err := r.store.ReadAll(ctx, SheetTickets)
	if err != nil {
		return nil, err
	}
	tickets := make([]domain.Ticket, 0, len(rows))
	for i := range rows {
		tickets = append(tickets, rowToTicket(&rows[i]))
	}
	return tickets, nil
}

func (r *ticketRepository) UpdateFields(ctx context.Context, ticket *domain.Ticket, cells map[string]string) error {
	err := r.store.UpdateRow(ctx, SheetTickets, ticket.RowID, ticket.Rev, cells)
	switch {
	case errors.Is(err, rowstore.ErrRowConflict):
		return ErrConflict
	case errors.Is(err, rowstore.ErrRowNotFound):
		return ErrNotFound
	case err != nil:
		return err
	}
	ticket.Rev++
	return nil
}

func (r *ticketRepository) AppendHistory(ctx context.Context, ticket *domain.Ticket, line string) error {
	history := ticket.History
	if history != "" {
		history += "\n"
	}
	history += line
	if err := r.store.WriteCell(ctx, SheetTickets, ticket.RowID, FieldHistory, history); err != nil {
		return err
	}
	ticket.History = history
	ticket.Rev++
	return nil
}

func (r *ticketRepository) SetDelayFlag(ctx context.Context, ticket *domain.Ticket, delayed bool) error {
	value := ""
	if delayed {
		value = "Yes"
	}
	if err := r.store.WriteCell(ctx, SheetTickets, ticket.RowID, FieldDelayFlag, value); err != nil {
		return err
	}
	ticket.DelayFlag = delayed
	ticket.Rev++
	return nil
}

func rowToTicket(row *rowstore.Row) domain.Ticket {
	rating, _ := strconv.Atoi(strings.TrimSpace(row.Cells[FieldRating]))
	return domain.Ticket{
		RowID:        row.ID,
		Rev:          row.Rev,
		ID:           strings.TrimSpace(row.Cells[FieldTicketID]),
		Status:       domain.NormalizeStatus(row.Cells[FieldStatus]),
		Department:   strings.TrimSpace(row.Cells[FieldDepartment]),
		Description:  row.Cells[FieldDescription],
		ReportedBy:   strings.TrimSpace(row.Cells[FieldReportedBy]),
		ResolvedBy:   strings.TrimSpace(row.Cells[FieldResolvedBy]),
		Unit:         strings.TrimSpace(row.Cells[FieldUnit]),
		Remark:       row.Cells[FieldRemark],
		RegisteredAt: strings.TrimSpace(row.Cells[FieldRegisteredAt]),
		TargetDate:   strings.TrimSpace(row.Cells[FieldTargetDate]),
		ResolvedAt:   strings.TrimSpace(row.Cells[FieldResolvedAt]),
		ReopenedAt:   strings.TrimSpace(row.Cells[FieldReopenedAt]),
		DelayFlag:    parseFlag(row.Cells[FieldDelayFlag]),
		Rating:       rating,
		History:      row.Cells[FieldHistory],
	}
}

func ticketCells(t *domain.Ticket) map[string]string {
	delay := ""
	if t.DelayFlag {
		delay = "Yes"
	}
	rating := ""
	if t.Rating > 0 {
		rating = strconv.Itoa(t.Rating)
	}
	return map[string]string{
		FieldTicketID:     t.ID,
		FieldStatus:       string(t.Status),
		FieldDepartment:   t.Department,
		FieldDescription:  t.Description,
		FieldReportedBy:   t.ReportedBy,
		FieldResolvedBy:   t.ResolvedBy,
		FieldUnit:         t.Unit,
		FieldRemark:       t.Remark,
		FieldRegisteredAt: t.RegisteredAt,
		FieldTargetDate:   t.TargetDate,
		FieldResolvedAt:   t.ResolvedAt,
		FieldReopenedAt:   t.ReopenedAt,
		FieldDelayFlag:    delay,
		FieldRating:       rating,
		FieldHistory:      t.History,
	}
}

// parseFlag interprets the boolean-as-string cells found in
// hand-edited sheets.
func parseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "true", "1":
		return true
	default:
		return false
	}
}
