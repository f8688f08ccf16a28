package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/sbhdesk/complaint-engine/internal/domain"
	"github.com/sbhdesk/complaint-engine/internal/rowstore"
)

// PerformanceRepository stores the denormalized per-staff score rows.
// The scoring engine is the only writer.
type PerformanceRepository interface {
	Get(ctx context.Context, username string) (*domain.StaffPerformanceRecord, error)
	List(ctx context.Context) ([]domain.StaffPerformanceRecord, error)
	// Upsert creates the row lazily on first recompute and fully
	// overwrites it afterwards.
	Upsert(ctx context.Context, record *domain.StaffPerformanceRecord) error
}

type performanceRepository struct {
	store rowstore.Store
}

// NewPerformanceRepository builds the repository.
func NewPerformanceRepository(store rowstore.Store) PerformanceRepository {
	return &performanceRepository{store: store}
}

func (r *performanceRepository) Get(ctx context.Context, username string) (*domain.StaffPerformanceRecord, error) {
	row, err := r.store.FindRow(ctx, SheetPerformance, FieldUsername, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	record := rowToPerformance(row)
	return &record, nil
}

func (r *performanceRepository) List(ctx context.Context) ([]domain.StaffPerformanceRecord, error) {
	rows, err := r.store.ReadAll(ctx, SheetPerformance)
	if err != nil {
		return nil, err
	}
	records := make([]domain.StaffPerformanceRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rowToPerformance(&rows[i]))
	}
	return records, nil
}

func (r *performanceRepository) Upsert(ctx context.Context, record *domain.StaffPerformanceRecord) error {
	cells := performanceCells(record)
	row, err := r.store.FindRow(ctx, SheetPerformance, FieldUsername, record.Username)
	if err != nil {
		return err
	}
	if row == nil {
		return r.store.AppendRow(ctx, SheetPerformance, cells)
	}
	// Derived data: the sheet is never hand-edited, so an
	// unconditional overwrite at the current revision is fine.
	return r.store.UpdateRow(ctx, SheetPerformance, row.ID, row.Rev, cells)
}

func rowToPerformance(row *rowstore.Row) domain.StaffPerformanceRecord {
	record := domain.StaffPerformanceRecord{
		RowID:           row.ID,
		Rev:             row.Rev,
		Username:        strings.TrimSpace(row.Cells[FieldUsername]),
		SolvedCount:     cellInt(row, FieldSolvedCount),
		RatingCount:     cellInt(row, FieldRatingCount),
		AvgRating:       cellFloat(row, FieldAvgRating),
		AvgSpeedHours:   cellFloat(row, FieldAvgSpeedHours),
		SpeedScore:      cellFloat(row, FieldSpeedScore),
		DelayCount:      cellInt(row, FieldDelayCount),
		DelayPenalty:    cellFloat(row, FieldDelayPenalty),
		TotalCases:      cellInt(row, FieldTotalCases),
		EfficiencyScore: cellFloat(row, FieldEfficiencyScore),
	}
	record.RatingHistogram = [5]int{
		cellInt(row, FieldRating1),
		cellInt(row, FieldRating2),
		cellInt(row, FieldRating3),
		cellInt(row, FieldRating4),
		cellInt(row, FieldRating5),
	}
	if ts, ok := domain.ParseDate(row.Cells[FieldComputedAt]); ok {
		record.ComputedAt = ts
	}
	return record
}

func performanceCells(record *domain.StaffPerformanceRecord) map[string]string {
	return map[string]string{
		FieldUsername:        record.Username,
		FieldSolvedCount:     strconv.Itoa(record.SolvedCount),
		FieldRatingCount:     strconv.Itoa(record.RatingCount),
		FieldAvgRating:       formatFloat(record.AvgRating),
		FieldAvgSpeedHours:   formatFloat(record.AvgSpeedHours),
		FieldSpeedScore:      formatFloat(record.SpeedScore),
		FieldDelayCount:      strconv.Itoa(record.DelayCount),
		FieldDelayPenalty:    formatFloat(record.DelayPenalty),
		FieldTotalCases:      strconv.Itoa(record.TotalCases),
		FieldRating1:         strconv.Itoa(record.RatingHistogram[0]),
		FieldRating2:         strconv.Itoa(record.RatingHistogram[1]),
		FieldRating3:         strconv.Itoa(record.RatingHistogram[2]),
		FieldRating4:         strconv.Itoa(record.RatingHistogram[3]),
		FieldRating5:         strconv.Itoa(record.RatingHistogram[4]),
		FieldEfficiencyScore: formatFloat(record.EfficiencyScore),
		FieldComputedAt:      domain.FormatDateTime(record.ComputedAt),
	}
}

func cellInt(row *rowstore.Row, field string) int {
	value, _ := strconv.Atoi(strings.TrimSpace(row.Cells[field]))
	return value
}

func cellFloat(row *rowstore.Row, field string) float64 {
	value, _ := strconv.ParseFloat(strings.TrimSpace(row.Cells[field]), 64)
	return value
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}
