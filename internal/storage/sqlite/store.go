// Package sqlite provides a SQLite-backed roll history store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/drex/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/drex/internal/storage"
	"github.com/louisbranch/drex/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Store persists roll history in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var _ storage.RollStore = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite roll store at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutRoll inserts one roll. A zero RolledAt is stamped with the current time.
func (s *Store) PutRoll(ctx context.Context, rec storage.RollRecord) (storage.RollRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.RollRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.RollRecord{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(rec.Expression) == "" {
		return storage.RollRecord{}, fmt.Errorf("expression is required")
	}
	if rec.RolledAt.IsZero() {
		rec.RolledAt = s.now()
	}
	rec.RolledAt = fromMillis(toMillis(rec.RolledAt))

	values := rec.Values
	if values == nil {
		values = [][]int{}
	}
	valuesJSON, err := json.Marshal(values)
	if err != nil {
		return storage.RollRecord{}, fmt.Errorf("encode values: %w", err)
	}

	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO rolls (expression, rendered, total, values_json, rolled_at) VALUES (?, ?, ?, ?, ?)`,
		rec.Expression,
		rec.Rendered,
		rec.Total,
		string(valuesJSON),
		toMillis(rec.RolledAt),
	)
	if err != nil {
		return storage.RollRecord{}, fmt.Errorf("insert roll: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storage.RollRecord{}, fmt.Errorf("read roll id: %w", err)
	}
	rec.ID = id
	return rec, nil
}

// GetRoll returns one roll by id.
func (s *Store) GetRoll(ctx context.Context, id int64) (storage.RollRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.RollRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.RollRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, expression, rendered, total, values_json, rolled_at FROM rolls WHERE id = ?`, id)
	rec, err := scanRoll(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.RollRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.RollRecord{}, err
	}
	return rec, nil
}

// ListRolls returns one page of rolls ordered by rolled_at, ties broken by id.
func (s *Store) ListRolls(ctx context.Context, req storage.ListRollsRequest) (storage.ListRollsResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.ListRollsResult{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ListRollsResult{}, fmt.Errorf("storage is not configured")
	}
	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	plan := buildListRollsPlan(req)
	query := fmt.Sprintf(
		"SELECT id, expression, rendered, total, values_json, rolled_at FROM rolls WHERE %s ORDER BY rolled_at %[2]s, id %[2]s LIMIT ?",
		plan.whereClause,
		plan.order,
	)
	params := append(plan.params, req.PageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return storage.ListRollsResult{}, fmt.Errorf("query rolls: %w", err)
	}
	defer rows.Close()

	rolls := make([]storage.RollRecord, 0, req.PageSize)
	for rows.Next() {
		rec, err := scanRoll(rows)
		if err != nil {
			return storage.ListRollsResult{}, err
		}
		rolls = append(rolls, rec)
	}
	if err := rows.Err(); err != nil {
		return storage.ListRollsResult{}, fmt.Errorf("iterate rolls: %w", err)
	}

	hasMore := len(rolls) > req.PageSize
	if hasMore {
		rolls = rolls[:req.PageSize]
	}

	var totalCount int
	countQuery := "SELECT COUNT(*) FROM rolls WHERE " + plan.countWhereClause
	if err := s.sqlDB.QueryRowContext(ctx, countQuery, plan.countParams...).Scan(&totalCount); err != nil {
		return storage.ListRollsResult{}, fmt.Errorf("count rolls: %w", err)
	}

	return storage.ListRollsResult{
		Rolls:       rolls,
		HasNextPage: hasMore,
		TotalCount:  totalCount,
	}, nil
}

type listRollsPlan struct {
	whereClause      string
	params           []any
	countWhereClause string
	countParams      []any
	order            string
}

// buildListRollsPlan keeps the count query free of the cursor so TotalCount
// stays stable while paging.
func buildListRollsPlan(req storage.ListRollsRequest) listRollsPlan {
	plan := listRollsPlan{whereClause: "1=1", countWhereClause: "1=1", order: "ASC"}
	if req.Descending {
		plan.order = "DESC"
	}

	var conditions []string
	if clause := strings.TrimSpace(req.FilterClause); clause != "" {
		conditions = append(conditions, "("+clause+")")
		plan.params = append(plan.params, req.FilterParams...)
		plan.countWhereClause = "(" + clause + ")"
		plan.countParams = append(plan.countParams, req.FilterParams...)
	}
	if req.CursorID > 0 {
		op := ">"
		if req.Descending {
			op = "<"
		}
		at := toMillis(req.CursorRolledAt)
		conditions = append(conditions, fmt.Sprintf("(rolled_at %[1]s ? OR (rolled_at = ? AND id %[1]s ?))", op))
		plan.params = append(plan.params, at, at, req.CursorID)
	}
	if len(conditions) > 0 {
		plan.whereClause = strings.Join(conditions, " AND ")
	}
	return plan
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoll(row rowScanner) (storage.RollRecord, error) {
	var (
		rec        storage.RollRecord
		valuesJSON string
		rolledAt   int64
	)
	if err := row.Scan(&rec.ID, &rec.Expression, &rec.Rendered, &rec.Total, &valuesJSON, &rolledAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.RollRecord{}, err
		}
		return storage.RollRecord{}, fmt.Errorf("scan roll: %w", err)
	}
	if err := json.Unmarshal([]byte(valuesJSON), &rec.Values); err != nil {
		return storage.RollRecord{}, fmt.Errorf("decode values for roll %d: %w", rec.ID, err)
	}
	rec.RolledAt = fromMillis(rolledAt)
	return rec, nil
}
