// Package rowstore abstracts the loosely-typed tabular store the
// engine runs against: named sheets of a header row plus data rows,
// with human-edited headers resolved onto canonical field names.
package rowstore

import (
	"context"
	"errors"
)

// ErrRowConflict is returned by UpdateRow when the row's revision
// moved underneath the caller. The write is not applied.
var ErrRowConflict = errors.New("rowstore: row modified concurrently")

// ErrRowNotFound is returned by cell/row writes addressing a row id
// that no longer exists. FindRow reports absence as (nil, nil) instead.
var ErrRowNotFound = errors.New("rowstore: row not found")

// Row is one data row of a sheet, keyed by canonical field names.
// Fields missing from the physical sheet read as empty strings.
type Row struct {
	ID    int64
	Rev   int64
	Cells map[string]string
}

// Field declares a canonical column and the human header spellings
// that resolve to it.
type Field struct {
	Name    string
	Aliases []string
}

// Schema declares one sheet: its canonical fields and key column.
type Schema struct {
	Sheet  string
	Key    string
	Fields []Field
}

// Store is the read/write/append contract over the tabular store.
// Column names are always canonical; implementations translate to
// whatever headers the physical sheet carries and create missing
// columns rather than failing.
type Store interface {
	ReadAll(ctx context.Context, sheet string) ([]Row, error)
	FindRow(ctx context.Context, sheet, column, value string) (*Row, error)
	AppendRow(ctx context.Context, sheet string, cells map[string]string) error
	WriteCell(ctx context.Context, sheet string, rowID int64, column, value string) error
	UpdateRow(ctx context.Context, sheet string, rowID, rev int64, cells map[string]string) error
	DeleteRow(ctx context.Context, sheet string, rowID int64) error
	EnsureColumns(ctx context.Context, sheet string, columns ...string) error
}
