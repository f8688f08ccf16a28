package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sbhdesk/complaint-engine/internal/events"
	"github.com/sbhdesk/complaint-engine/internal/gateway"
	"github.com/sbhdesk/complaint-engine/internal/observability"
	"github.com/sbhdesk/complaint-engine/internal/repository"
)

// NotifyService computes recipient sets per ticket event and fans the
// message out through the SMS gateway. Everything here is best-effort:
// failures are logged and swallowed, a lost message never fails the
// transition that produced it.
type NotifyService struct {
	staff   repository.StaffRepository
	ledgers repository.LedgerRepository
	gateway gateway.Gateway
	metrics *observability.Metrics
	logger  *zap.Logger

	// pacing is the deliberate inter-send throttle for multi-recipient
	// events; the gateway rate-limits bursts.
	pacing time.Duration

	escalationName  string
	escalationPhone string
}

// NotifyDependencies bundles collaborators for the service.
type NotifyDependencies struct {
	StaffRepo       repository.StaffRepository
	LedgerRepo      repository.LedgerRepository
	Gateway         gateway.Gateway
	Metrics         *observability.Metrics
	Logger          *zap.Logger
	Pacing          time.Duration
	EscalationName  string
	EscalationPhone string
}

// NewNotifyService constructs the service.
func NewNotifyService(deps NotifyDependencies) *NotifyService {
	return &NotifyService{
		staff:           deps.StaffRepo,
		ledgers:         deps.LedgerRepo,
		gateway:         deps.Gateway,
		metrics:         deps.Metrics,
		logger:          deps.Logger,
		pacing:          deps.Pacing,
		escalationName:  deps.EscalationName,
		escalationPhone: deps.EscalationPhone,
	}
}

// Register subscribes the fan-out handlers to ticket events.
func (n *NotifyService) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketRegistered, n.handleRegistered)
	dispatcher.Subscribe(events.EventTicketClosed, n.handleClosed)
	dispatcher.Subscribe(events.EventTicketReopened, n.handleReopened)
	dispatcher.Subscribe(events.EventTicketExtended, n.handleExtended)
	dispatcher.Subscribe(events.EventTicketTransferred, n.handleTransferred)
	dispatcher.Subscribe(events.EventPriorityBoosted, n.handleBoosted)
}

type recipient struct {
	username string
	phone    string
}

func (n *NotifyService) handleRegistered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketRegisteredPayload)
	if !ok {
		return nil
	}
	ticket := payload.Ticket

	// Personal confirmation to the reporter first.
	if reporter, err := n.lookupPhone(ctx, ticket.ReportedBy); err == nil && reporter != "" {
		n.send(ctx, reporter, fmt.Sprintf(
			"Your complaint %s has been registered with %s.", ticket.ID, ticket.Department))
	}

	// The department blast excludes the reporter even when they are
	// staff in that department.
	recipients := n.departmentRecipients(ctx, ticket.Department, true, ticket.ReportedBy)
	n.fanOut(ctx, recipients, fmt.Sprintf(
		"New complaint %s for %s: %s", ticket.ID, ticket.Department, preview(ticket.Description, 100)))
	return nil
}

func (n *NotifyService) handleClosed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketClosedPayload)
	if !ok {
		return nil
	}
	ticket := payload.Ticket
	phone, err := n.lookupPhone(ctx, ticket.ReportedBy)
	if err != nil || phone == "" {
		return err
	}
	label := "RESOLVED"
	if payload.Forced {
		label = "FORCE CLOSED"
	}
	n.send(ctx, phone, fmt.Sprintf("Your complaint %s has been %s by %s.", ticket.ID, label, ticket.ResolvedBy))
	return nil
}

func (n *NotifyService) handleReopened(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketReopenedPayload)
	if !ok {
		return nil
	}
	ticket := payload.Ticket

	text := fmt.Sprintf("Complaint %s has been RE-OPENED by %s.", ticket.ID, event.Actor)
	if phone, err := n.lookupPhone(ctx, payload.LastCloser); err == nil && phone != "" {
		n.send(ctx, phone, text)
	}
	// Re-opens always escalate to the fixed top-level contact.
	if n.escalationPhone != "" {
		n.pause(ctx)
		n.send(ctx, n.escalationPhone, text+" Please review.")
	}
	return nil
}

func (n *NotifyService) handleExtended(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketExtendedPayload)
	if !ok {
		return nil
	}
	ticket := payload.Ticket
	phone, err := n.lookupPhone(ctx, ticket.ReportedBy)
	if err != nil || phone == "" {
		return err
	}
	text := fmt.Sprintf("Complaint %s target moved from %s to %s.", ticket.ID, payload.OldTarget, payload.NewTarget)
	if payload.Reason != "" {
		text += " Reason: " + payload.Reason
	}
	n.send(ctx, phone, text)
	return nil
}

func (n *NotifyService) handleTransferred(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketTransferredPayload)
	if !ok {
		return nil
	}
	ticket := payload.Ticket
	recipients := n.departmentRecipients(ctx, ticket.Department, true)
	n.fanOut(ctx, recipients, fmt.Sprintf(
		"Complaint %s transferred from %s to %s by %s.",
		ticket.ID, payload.FromDepartment, ticket.Department, event.Actor))
	return nil
}

func (n *NotifyService) handleBoosted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PriorityBoostPayload)
	if !ok {
		return nil
	}
	ticket := payload.Ticket
	recipients := n.departmentRecipients(ctx, ticket.Department, false, payload.TriggeredBy)
	n.fanOut(ctx, recipients, fmt.Sprintf(
		"Complaint %s has been marked high priority. Immediate attention required.", ticket.ID))
	return nil
}

// RunReminderSweep walks the delayed-cases ledger and alerts the
// responsible department for every row not yet notified, then marks
// it. Run daily, after the delay sweep.
func (n *NotifyService) RunReminderSweep(ctx context.Context, now time.Time) error {
	entries, err := n.ledgers.ListUnnotifiedDelayedCases(ctx)
	if err != nil {
		return err
	}
	notified := 0
	for _, entry := range entries {
		recipients := n.departmentRecipients(ctx, entry.Department, true)
		n.fanOut(ctx, recipients, fmt.Sprintf(
			"Reminder: complaint %s (%s) is overdue since %s. Please attend.",
			entry.TicketID, entry.Department, entry.DetectedAt))
		if err := n.ledgers.MarkDelayedCaseNotified(ctx, entry.RowID); err != nil {
			n.logger.Warn("failed to mark delayed case notified",
				zap.String("ticket_id", entry.TicketID), zap.Error(err))
			continue
		}
		notified++
	}
	n.metrics.RecordSweep("reminder", notified)
	n.logger.Info("reminder sweep finished", zap.Int("notified", notified))
	return nil
}

// departmentRecipients resolves active staff of a department, plus
// every active super admin when includeSuperAdmins is set, minus the
// excluded usernames, deduplicated.
func (n *NotifyService) departmentRecipients(ctx context.Context, department string, includeSuperAdmins bool, exclude ...string) []recipient {
	members, err := n.staff.ListActiveByDepartment(ctx, department)
	if err != nil {
		n.logger.Warn("staff lookup failed", zap.String("department", department), zap.Error(err))
		members = nil
	}
	if includeSuperAdmins {
		admins, err := n.staff.ListActiveSuperAdmins(ctx)
		if err != nil {
			n.logger.Warn("super admin lookup failed", zap.Error(err))
		} else {
			members = append(members, admins...)
		}
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		excluded[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}

	seen := make(map[string]struct{}, len(members))
	recipients := make([]recipient, 0, len(members))
	for _, member := range members {
		key := strings.ToLower(member.Username)
		if _, skip := excluded[key]; skip {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if strings.TrimSpace(member.Phone) == "" {
			continue
		}
		recipients = append(recipients, recipient{username: member.Username, phone: member.Phone})
	}
	return recipients
}

// fanOut sends the same text to every recipient with the configured
// pause between successive sends.
func (n *NotifyService) fanOut(ctx context.Context, recipients []recipient, text string) {
	for i, r := range recipients {
		if i > 0 {
			n.pause(ctx)
		}
		n.send(ctx, r.phone, text)
	}
}

func (n *NotifyService) send(ctx context.Context, phone, text string) {
	err := n.gateway.Send(ctx, phone, text)
	n.metrics.RecordMessage(err == nil)
	if err != nil {
		n.logger.Warn("message send failed", zap.String("to", phone), zap.Error(err))
	}
}

func (n *NotifyService) pause(ctx context.Context) {
	if n.pacing <= 0 {
		return
	}
	timer := time.NewTimer(n.pacing)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// lookupPhone returns the directory phone for a username; absent
// users resolve to an empty phone, not an error.
func (n *NotifyService) lookupPhone(ctx context.Context, username string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", nil
	}
	member, err := n.staff.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		n.logger.Warn("phone lookup failed", zap.String("username", username), zap.Error(err))
		return "", err
	}
	return member.Phone, nil
}

func preview(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	if max <= 3 {
		return text[:max]
	}
	return text[:max-3] + "..."
}
