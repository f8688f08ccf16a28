package service

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/sbhdesk/complaint-engine/internal/domain"
	"github.com/sbhdesk/complaint-engine/internal/events"
	"github.com/sbhdesk/complaint-engine/internal/observability"
	"github.com/sbhdesk/complaint-engine/internal/repository"
	"github.com/sbhdesk/complaint-engine/internal/rowstore"
	apperrors "github.com/sbhdesk/complaint-engine/pkg/util"
)

type fixture struct {
	store      *rowstore.MemoryStore
	tickets    repository.TicketRepository
	staff      repository.StaffRepository
	ledgers    repository.LedgerRepository
	perf       repository.PerformanceRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := rowstore.NewMemoryStore(repository.Schemas())
	return &fixture{
		store:      store,
		tickets:    repository.NewTicketRepository(store, "SBH"),
		staff:      repository.NewStaffRepository(store),
		ledgers:    repository.NewLedgerRepository(store),
		perf:       repository.NewPerformanceRepository(store),
		dispatcher: events.NewInMemoryDispatcher(zap.NewNop()),
		metrics:    observability.NewMetrics(),
		logger:     zap.NewNop(),
	}
}

func (f *fixture) transitions() *TransitionService {
	return NewTransitionService(TransitionDependencies{
		TicketRepo: f.tickets,
		StaffRepo:  f.staff,
		LedgerRepo: f.ledgers,
		Dispatcher: f.dispatcher,
		Logger:     f.logger,
	})
}

func (f *fixture) seedStaff(t *testing.T, member domain.StaffMember) {
	t.Helper()
	active := "Yes"
	if !member.Active {
		active = "No"
	}
	err := f.store.AppendRow(context.Background(), repository.SheetStaff, map[string]string{
		repository.FieldUsername:     member.Username,
		repository.FieldName:         member.Name,
		repository.FieldPhone:        member.Phone,
		repository.FieldRole:         string(member.Role),
		repository.FieldDepartment:   member.Department,
		repository.FieldActive:       active,
		repository.FieldPasswordHash: member.PasswordHash,
	})
	if err != nil {
		t.Fatalf("seed staff %s: %v", member.Username, err)
	}
}

func (f *fixture) seedTicket(t *testing.T, ticket domain.Ticket) *domain.Ticket {
	t.Helper()
	ctx := context.Background()
	if err := f.tickets.Create(ctx, &ticket); err != nil {
		t.Fatalf("seed ticket %s: %v", ticket.ID, err)
	}
	stored, err := f.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("reload ticket %s: %v", ticket.ID, err)
	}
	return stored
}

// captureEvents records every published event of the given types.
func (f *fixture) captureEvents(types ...events.EventType) *eventLog {
	log := &eventLog{}
	for _, eventType := range types {
		f.dispatcher.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			log.mu.Lock()
			defer log.mu.Unlock()
			log.events = append(log.events, event)
			return nil
		})
	}
	return log
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) all() []events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]events.Event{}, l.events...)
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	domainErr := apperrors.ToDomainError(err)
	if domainErr.Code != code {
		t.Fatalf("error code = %s (%v), want %s", domainErr.Code, err, code)
	}
}
