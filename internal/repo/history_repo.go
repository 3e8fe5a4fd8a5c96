package repo

import (
	"context"
	"sync"

	"github.com/didi/gendry/builder"

	"github.com/quackscience/copilot-extension-duckdb/internal/engine"
	"github.com/quackscience/copilot-extension-duckdb/internal/model"
)

const createHistoryTable = `CREATE TABLE IF NOT EXISTS queries (
	query VARCHAR,
	status VARCHAR,
	error VARCHAR,
	duration_ms BIGINT,
	rows_returned BIGINT,
	ctime BIGINT
)`

// HistoryRepo keeps a bounded query history inside each user database.
type HistoryRepo struct {
	engine *engine.Engine
	keep   int

	mu      sync.Mutex
	ensured map[string]struct{}
}

func NewHistoryRepo(eng *engine.Engine, keep int) *HistoryRepo {
	if keep <= 0 {
		keep = 200
	}
	return &HistoryRepo{engine: eng, keep: keep, ensured: make(map[string]struct{})}
}

func (r *HistoryRepo) ensure(ctx context.Context, identity string) error {
	path := r.engine.PathFor(identity)
	r.mu.Lock()
	_, done := r.ensured[path]
	r.mu.Unlock()
	if done {
		return nil
	}
	if _, err := r.engine.Exec(ctx, identity, createHistoryTable); err != nil {
		return err
	}
	r.mu.Lock()
	r.ensured[path] = struct{}{}
	r.mu.Unlock()
	return nil
}

// Record appends one history entry and prunes the table to the
// configured keep count.
func (r *HistoryRepo) Record(ctx context.Context, identity string, rec *model.QueryRecord) error {
	if err := r.ensure(ctx, identity); err != nil {
		return err
	}
	data := map[string]interface{}{
		"query":         rec.Query,
		"status":        rec.Status,
		"error":         rec.Error,
		"duration_ms":   rec.DurationMs,
		"rows_returned": rec.RowsReturned,
		"ctime":         rec.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("queries", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	if _, err := r.engine.Exec(ctx, identity, sqlStr, args...); err != nil {
		return err
	}
	// Drop everything older than the keep-th newest entry. The subquery
	// is empty while the table is small, which deletes nothing.
	_, err = r.engine.Exec(ctx, identity,
		"DELETE FROM queries WHERE ctime < (SELECT ctime FROM queries ORDER BY ctime DESC LIMIT 1 OFFSET ?)",
		r.keep-1)
	return err
}

// List returns the most recent entries, newest first.
func (r *HistoryRepo) List(ctx context.Context, identity string, limit int) ([]model.QueryRecord, error) {
	if err := r.ensure(ctx, identity); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > r.keep {
		limit = r.keep
	}
	where := map[string]interface{}{
		"_orderby": "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("queries",
		where, []string{"query", "status", "error", "duration_ms", "rows_returned", "ctime"})
	if err != nil {
		return nil, err
	}
	// gendry's _limit renders the MySQL "LIMIT offset,count" form, which
	// DuckDB rejects; append the portable clause instead.
	sqlStr += " LIMIT ?"
	args = append(args, limit)
	var records []model.QueryRecord
	if err := r.engine.Select(ctx, identity, &records, sqlStr, args...); err != nil {
		return nil, err
	}
	return records, nil
}
