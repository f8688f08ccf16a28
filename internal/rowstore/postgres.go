package rowstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PoolConfig holds Postgres connection settings for the row store.
type PoolConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// PostgresStore implements Store on Postgres: one all-TEXT table per
// sheet plus hidden _rid/_rev columns. Physical column names are
// discovered from information_schema and resolved onto canonical
// fields; missing columns are created rather than reported.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger

	mu        sync.RWMutex
	schemas   map[string]Schema
	resolvers map[string]*resolver
	physical  map[string]map[string]string // sheet -> canonical -> physical
}

// NewPostgresStore connects the pool and bootstraps every declared
// sheet: the table is created if absent and all canonical columns are
// ensured before the store is handed out.
func NewPostgresStore(ctx context.Context, cfg PoolConfig, schemas []Schema, logger *zap.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	store := &PostgresStore{
		pool:      pool,
		logger:    logger,
		schemas:   make(map[string]Schema, len(schemas)),
		resolvers: make(map[string]*resolver, len(schemas)),
		physical:  make(map[string]map[string]string, len(schemas)),
	}
	for _, schema := range schemas {
		store.schemas[schema.Sheet] = schema
		store.resolvers[schema.Sheet] = newResolver(schema)
	}
	if err := store.bootstrap(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("row store ready", zap.Int("sheets", len(schemas)))
	return store, nil
}

// Close releases pool resources.
func (s *PostgresStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies connectivity, for readiness probes.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) bootstrap(ctx context.Context) error {
	for sheet, schema := range s.schemas {
		ddl := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (_rid BIGSERIAL PRIMARY KEY, _rev BIGINT NOT NULL DEFAULT 1)`,
			pgIdent(sheet))
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
		if err := s.loadColumns(ctx, sheet); err != nil {
			return err
		}
		names := make([]string, 0, len(schema.Fields))
		for _, field := range schema.Fields {
			names = append(names, field.Name)
		}
		if err := s.EnsureColumns(ctx, sheet, names...); err != nil {
			return err
		}
	}
	return nil
}

// loadColumns discovers the sheet's physical headers and resolves
// them onto canonical fields. Unrecognized headers are ignored.
func (s *PostgresStore) loadColumns(ctx context.Context, sheet string) error {
	rows, err := s.pool.Query(ctx,
		`SELECT column_name FROM information_schema.columns
         WHERE table_schema = 'public' AND table_name = $1`, sheet)
	if err != nil {
		return fmt.Errorf("discover columns for %s: %w", sheet, err)
	}
	defer rows.Close()

	resolver := s.resolvers[sheet]
	physical := make(map[string]string)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if name == "_rid" || name == "_rev" {
			continue
		}
		canonical, ok := resolver.resolve(name)
		if !ok {
			s.logger.Debug("ignoring unmapped column",
				zap.String("sheet", sheet), zap.String("column", name))
			continue
		}
		if _, dup := physical[canonical]; !dup {
			physical[canonical] = name
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.physical[sheet] = physical
	s.mu.Unlock()
	return nil
}

// EnsureColumns creates any canonical columns the physical sheet is
// missing. Self-healing: callers never see "column does not exist".
func (s *PostgresStore) EnsureColumns(ctx context.Context, sheet string, columns ...string) error {
	s.mu.RLock()
	physical := s.physical[sheet]
	missing := make([]string, 0)
	for _, column := range columns {
		if _, ok := physical[column]; !ok {
			missing = append(missing, column)
		}
	}
	s.mu.RUnlock()

	for _, column := range missing {
		ddl := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s TEXT`,
			pgIdent(sheet), pgIdent(column))
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("ensure column %s.%s: %w", sheet, column, err)
		}
		s.logger.Info("created missing column",
			zap.String("sheet", sheet), zap.String("column", column))
		s.mu.Lock()
		if s.physical[sheet] == nil {
			s.physical[sheet] = make(map[string]string)
		}
		s.physical[sheet][column] = column
		s.mu.Unlock()
	}
	return nil
}

// ReadAll returns every data row of the sheet in append order.
func (s *PostgresStore) ReadAll(ctx context.Context, sheet string) ([]Row, error) {
	fields, selects := s.selectList(sheet)
	query := fmt.Sprintf(`SELECT _rid, _rev, %s FROM %s ORDER BY _rid`,
		strings.Join(selects, ", "), pgIdent(sheet))
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		row, err := scanRow(rows, fields)
		if err != nil {
			return nil, err
		}
		result = append(result, *row)
	}
	return result, rows.Err()
}

// FindRow returns the first row whose column equals value, or nil
// when no row matches.
func (s *PostgresStore) FindRow(ctx context.Context, sheet, column, value string) (*Row, error) {
	physicalCol, ok := s.physicalColumn(sheet, column)
	if !ok {
		// Column absent means no row can match; heal lazily on write.
		return nil, nil
	}
	fields, selects := s.selectList(sheet)
	query := fmt.Sprintf(`SELECT _rid, _rev, %s FROM %s WHERE %s = $1 ORDER BY _rid LIMIT 1`,
		strings.Join(selects, ", "), pgIdent(sheet), pgIdent(physicalCol))
	row, err := scanRow(s.pool.QueryRow(ctx, query, value), fields)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// AppendRow inserts a new row, creating any missing columns first.
func (s *PostgresStore) AppendRow(ctx context.Context, sheet string, cells map[string]string) error {
	columns := make([]string, 0, len(cells))
	for column := range cells {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	if err := s.EnsureColumns(ctx, sheet, columns...); err != nil {
		return err
	}

	idents := make([]string, 0, len(columns))
	placeholders := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for i, column := range columns {
		physicalCol, _ := s.physicalColumn(sheet, column)
		idents = append(idents, pgIdent(physicalCol))
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, cells[column])
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		pgIdent(sheet), strings.Join(idents, ", "), strings.Join(placeholders, ", "))
	_, err := s.pool.Exec(ctx, query, args...)
	return err
}

// WriteCell unconditionally sets one cell. Last writer wins; used for
// best-effort flag and ledger syncs.
func (s *PostgresStore) WriteCell(ctx context.Context, sheet string, rowID int64, column, value string) error {
	if err := s.EnsureColumns(ctx, sheet, column); err != nil {
		return err
	}
	physicalCol, _ := s.physicalColumn(sheet, column)
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, _rev = _rev + 1 WHERE _rid = $2`,
		pgIdent(sheet), pgIdent(physicalCol))
	cmd, err := s.pool.Exec(ctx, query, value, rowID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRowNotFound
	}
	return nil
}

// UpdateRow writes several cells if and only if the row still carries
// the revision the caller read. Concurrent transitions on the same
// ticket are detected instead of silently lost.
func (s *PostgresStore) UpdateRow(ctx context.Context, sheet string, rowID, rev int64, cells map[string]string) error {
	columns := make([]string, 0, len(cells))
	for column := range cells {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	if err := s.EnsureColumns(ctx, sheet, columns...); err != nil {
		return err
	}

	sets := make([]string, 0, len(columns)+1)
	args := make([]any, 0, len(columns)+2)
	for i, column := range columns {
		physicalCol, _ := s.physicalColumn(sheet, column)
		sets = append(sets, fmt.Sprintf("%s = $%d", pgIdent(physicalCol), i+1))
		args = append(args, cells[column])
	}
	sets = append(sets, "_rev = _rev + 1")
	args = append(args, rowID, rev)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE _rid = $%d AND _rev = $%d`,
		pgIdent(sheet), strings.Join(sets, ", "), len(args)-1, len(args))
	cmd, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE _rid = $1)`, pgIdent(sheet)),
		rowID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ErrRowConflict
	}
	return ErrRowNotFound
}

// DeleteRow removes a row by id.
func (s *PostgresStore) DeleteRow(ctx context.Context, sheet string, rowID int64) error {
	cmd, err := s.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE _rid = $1`, pgIdent(sheet)), rowID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRowNotFound
	}
	return nil
}

func (s *PostgresStore) physicalColumn(sheet, canonical string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.physical[sheet][canonical]
	return name, ok
}

// selectList builds the stable field order and SELECT expressions for
// a sheet. Fields with no physical column yet read as empty strings.
func (s *PostgresStore) selectList(sheet string) ([]string, []string) {
	schema := s.schemas[sheet]
	fields := make([]string, 0, len(schema.Fields))
	selects := make([]string, 0, len(schema.Fields))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, field := range schema.Fields {
		fields = append(fields, field.Name)
		if physicalCol, ok := s.physical[sheet][field.Name]; ok {
			selects = append(selects, fmt.Sprintf("COALESCE(%s, '')", pgIdent(physicalCol)))
		} else {
			selects = append(selects, "''")
		}
	}
	return fields, selects
}

func scanRow(scanner pgx.Row, fields []string) (*Row, error) {
	row := Row{Cells: make(map[string]string, len(fields))}
	values := make([]string, len(fields))
	dest := make([]any, 0, len(fields)+2)
	dest = append(dest, &row.ID, &row.Rev)
	for i := range values {
		dest = append(dest, &values[i])
	}
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	for i, field := range fields {
		row.Cells[field] = values[i]
	}
	return &row, nil
}

func pgIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
