package rowstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and as a
// zero-dependency development backend. Semantics match the Postgres
// implementation: canonical cells, append order, row revisions.
type MemoryStore struct {
	mu     sync.RWMutex
	sheets map[string]*memorySheet
}

type memorySheet struct {
	columns map[string]struct{}
	rows    []*memoryRow
	nextID  int64
}

type memoryRow struct {
	id      int64
	rev     int64
	deleted bool
	cells   map[string]string
}

// NewMemoryStore builds an empty store with the given sheets declared.
func NewMemoryStore(schemas []Schema) *MemoryStore {
	sheets := make(map[string]*memorySheet, len(schemas))
	for _, schema := range schemas {
		sheet := &memorySheet{columns: make(map[string]struct{}), nextID: 1}
		for _, field := range schema.Fields {
			sheet.columns[field.Name] = struct{}{}
		}
		sheets[schema.Sheet] = sheet
	}
	return &MemoryStore{sheets: sheets}
}

func (s *MemoryStore) sheet(name string) *memorySheet {
	if existing, ok := s.sheets[name]; ok {
		return existing
	}
	created := &memorySheet{columns: make(map[string]struct{}), nextID: 1}
	s.sheets[name] = created
	return created
}

// ReadAll returns live rows in append order.
func (s *MemoryStore) ReadAll(ctx context.Context, sheet string) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms := s.sheets[sheet]
	if ms == nil {
		return nil, nil
	}
	var result []Row
	for _, row := range ms.rows {
		if row.deleted {
			continue
		}
		result = append(result, row.snapshot(ms))
	}
	return result, nil
}

// FindRow returns the first row whose column equals value, or nil.
func (s *MemoryStore) FindRow(ctx context.Context, sheet, column, value string) (*Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms := s.sheets[sheet]
	if ms == nil {
		return nil, nil
	}
	for _, row := range ms.rows {
		if row.deleted {
			continue
		}
		if row.cells[column] == value {
			snap := row.snapshot(ms)
			return &snap, nil
		}
	}
	return nil, nil
}

// AppendRow inserts a row, creating missing columns.
func (s *MemoryStore) AppendRow(ctx context.Context, sheet string, cells map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.sheet(sheet)
	row := &memoryRow{id: ms.nextID, rev: 1, cells: make(map[string]string, len(cells))}
	ms.nextID++
	for column, value := range cells {
		ms.columns[column] = struct{}{}
		row.cells[column] = value
	}
	ms.rows = append(ms.rows, row)
	return nil
}

// WriteCell unconditionally sets one cell, bumping the revision.
func (s *MemoryStore) WriteCell(ctx context.Context, sheet string, rowID int64, column, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.sheet(sheet)
	row := ms.find(rowID)
	if row == nil {
		return ErrRowNotFound
	}
	ms.columns[column] = struct{}{}
	row.cells[column] = value
	row.rev++
	return nil
}

// UpdateRow writes cells only when the revision still matches.
func (s *MemoryStore) UpdateRow(ctx context.Context, sheet string, rowID, rev int64, cells map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.sheet(sheet)
	row := ms.find(rowID)
	if row == nil {
		return ErrRowNotFound
	}
	if row.rev != rev {
		return ErrRowConflict
	}
	for column, value := range cells {
		ms.columns[column] = struct{}{}
		row.cells[column] = value
	}
	row.rev++
	return nil
}

// DeleteRow removes a row. Row ids are never reused.
func (s *MemoryStore) DeleteRow(ctx context.Context, sheet string, rowID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.sheet(sheet)
	row := ms.find(rowID)
	if row == nil {
		return ErrRowNotFound
	}
	row.deleted = true
	return nil
}

// EnsureColumns registers columns on the sheet.
func (s *MemoryStore) EnsureColumns(ctx context.Context, sheet string, columns ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.sheet(sheet)
	for _, column := range columns {
		ms.columns[column] = struct{}{}
	}
	return nil
}

func (ms *memorySheet) find(rowID int64) *memoryRow {
	for _, row := range ms.rows {
		if row.id == rowID && !row.deleted {
			return row
		}
	}
	return nil
}

func (r *memoryRow) snapshot(ms *memorySheet) Row {
	cells := make(map[string]string, len(ms.columns))
	for column := range ms.columns {
		cells[column] = r.cells[column]
	}
	return Row{ID: r.id, Rev: r.rev, Cells: cells}
}
