package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sbhdesk/complaint-engine/internal/domain"
	"github.com/sbhdesk/complaint-engine/internal/events"
	"github.com/sbhdesk/complaint-engine/internal/repository"
	apperrors "github.com/sbhdesk/complaint-engine/pkg/util"
)

const (
	perfKeyPrefix  = "perf:"
	leaderboardKey = "perf:leaderboard"
)

// PerformanceService derives per-staff efficiency scores. Every
// recompute re-reads the ratings ledger and the ticket sheet in full;
// nothing is incremental, so cached drift cannot survive.
type PerformanceService struct {
	tickets repository.TicketRepository
	ledgers repository.LedgerRepository
	records repository.PerformanceRepository
	cache   *redis.Client
	logger  *zap.Logger
}

// NewPerformanceService constructs the service. cache may be nil.
func NewPerformanceService(tickets repository.TicketRepository, ledgers repository.LedgerRepository, records repository.PerformanceRepository, cache *redis.Client, logger *zap.Logger) *PerformanceService {
	return &PerformanceService{
		tickets: tickets,
		ledgers: ledgers,
		records: records,
		cache:   cache,
		logger:  logger,
	}
}

// Register subscribes the recompute triggers: a close recomputes the
// closer, a rating recomputes the resolver.
func (s *PerformanceService) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketClosed, func(ctx context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.TicketClosedPayload)
		if !ok || payload.Ticket.ResolvedBy == "" {
			return nil
		}
		_, err := s.Recompute(ctx, payload.Ticket.ResolvedBy)
		return err
	})
	dispatcher.Subscribe(events.EventTicketRated, func(ctx context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.TicketRatedPayload)
		if !ok || payload.Resolver == "" {
			return nil
		}
		_, err := s.Recompute(ctx, payload.Resolver)
		return err
	})
}

// Recompute fully re-derives one staff member's performance record
// and persists it.
func (s *PerformanceService) Recompute(ctx context.Context, username string) (*domain.StaffPerformanceRecord, error) {
	ratings, err := s.ledgers.RatingsByResolver(ctx, username)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx)
	if err != nil {
		return nil, err
	}

	record := computeRecord(username, ratings, tickets, time.Now())
	if err := s.records.Upsert(ctx, record); err != nil {
		return nil, err
	}
	s.cacheRecord(ctx, record)
	s.logger.Debug("performance recomputed",
		zap.String("username", username),
		zap.Float64("efficiency", record.EfficiencyScore))
	return record, nil
}

// Get returns the stored record plus the staff member's global
// 1-based rank by efficiency score.
func (s *PerformanceService) Get(ctx context.Context, username string) (*domain.StaffPerformanceRecord, int, error) {
	record, err := s.records.Get(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, 0, apperrors.NewNotFound("performance record", map[string]any{"username": username})
	}
	if err != nil {
		return nil, 0, apperrors.NewExternalIO(err)
	}
	rank, err := s.rank(ctx, username)
	if err != nil {
		return nil, 0, apperrors.NewExternalIO(err)
	}
	return record, rank, nil
}

func (s *PerformanceService) rank(ctx context.Context, username string) (int, error) {
	if s.cache != nil {
		pos, err := s.cache.ZRevRank(ctx, leaderboardKey, username).Result()
		if err == nil {
			return int(pos) + 1, nil
		}
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("leaderboard lookup failed", zap.Error(err))
		}
	}

	records, err := s.records.List(ctx)
	if err != nil {
		return 0, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].EfficiencyScore > records[j].EfficiencyScore
	})
	for i, record := range records {
		if strings.EqualFold(record.Username, username) {
			return i + 1, nil
		}
	}
	return len(records) + 1, nil
}

// cacheRecord mirrors the record into Redis; purely best-effort.
func (s *PerformanceService) cacheRecord(ctx context.Context, record *domain.StaffPerformanceRecord) {
	if s.cache == nil {
		return
	}
	blob, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, perfKeyPrefix+record.Username, blob, 0).Err(); err != nil {
		s.logger.Warn("performance cache set failed", zap.Error(err))
		return
	}
	if err := s.cache.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  record.EfficiencyScore,
		Member: record.Username,
	}).Err(); err != nil {
		s.logger.Warn("leaderboard update failed", zap.Error(err))
	}
}

// computeRecord is the pure scoring function.
func computeRecord(username string, ratings []domain.RatingEntry, tickets []domain.Ticket, now time.Time) *domain.StaffPerformanceRecord {
	record := &domain.StaffPerformanceRecord{
		Username:   username,
		ComputedAt: now,
	}

	ratingSum := 0
	for _, entry := range ratings {
		record.RatingCount++
		ratingSum += entry.Rating
		bucket := int(math.Round(float64(entry.Rating)))
		if bucket < 1 {
			bucket = 1
		}
		if bucket > 5 {
			bucket = 5
		}
		record.RatingHistogram[bucket-1]++
	}
	if record.RatingCount > 0 {
		record.AvgRating = float64(ratingSum) / float64(record.RatingCount)
	}

	hoursSum := 0.0
	timedPairs := 0
	instantPairs := 0
	for i := range tickets {
		ticket := &tickets[i]
		if !strings.EqualFold(ticket.ResolvedBy, username) {
			continue
		}
		record.TotalCases++
		if isDelayedForScoring(ticket, now) {
			record.DelayCount++
		}
		if !ticket.IsClosed() {
			continue
		}
		record.SolvedCount++

		registered, okReg := domain.ParseDate(ticket.RegisteredAt)
		resolved, okRes := domain.ParseDate(ticket.ResolvedAt)
		if !okReg || !okRes {
			continue
		}
		switch {
		case resolved.After(registered):
			hoursSum += resolved.Sub(registered).Hours()
			timedPairs++
		case resolved.Equal(registered):
			instantPairs++
		}
	}
	if timedPairs > 0 {
		record.AvgSpeedHours = hoursSum / float64(timedPairs)
	}

	switch {
	case record.AvgSpeedHours > 0:
		record.SpeedScore = math.Min(30, (24/record.AvgSpeedHours)*10)
	case instantPairs > 0:
		record.SpeedScore = 30
	default:
		record.SpeedScore = 0
	}

	ratio := 0.0
	if record.TotalCases > 0 {
		ratio = float64(record.DelayCount) / float64(record.TotalCases)
	}
	record.DelayPenalty = math.Max(0, (1-ratio)*20)

	record.EfficiencyScore = record.AvgRating*float64(record.SolvedCount) + record.SpeedScore + record.DelayPenalty
	return record
}

// isDelayedForScoring counts a ticket against its resolver when the
// status literally says delayed, or when the actual close date (now,
// if still open) ran past the effective target. Without an explicit
// target the default service level is 24 hours from registration.
func isDelayedForScoring(ticket *domain.Ticket, now time.Time) bool {
	if strings.EqualFold(string(ticket.Status), string(domain.TicketStatusDelayed)) {
		return true
	}

	var target time.Time
	if ts, ok := domain.ParseDate(ticket.TargetDate); ok {
		target = ts
	} else if registered, ok := domain.ParseDate(ticket.RegisteredAt); ok {
		target = registered.Add(24 * time.Hour)
	} else {
		return false
	}

	closedAt := now
	if ts, ok := domain.ParseDate(ticket.ResolvedAt); ok {
		closedAt = ts
	}
	return closedAt.After(target)
}
