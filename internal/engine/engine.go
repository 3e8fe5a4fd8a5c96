// Package engine executes SQL against per-identity embedded DuckDB
// databases. Handles are opened lazily on first use, cached in a
// bounded LRU keyed by storage path, and closed on eviction. A
// per-handle mutex serializes statement execution, since driver
// connections are not guaranteed safe for unsynchronized concurrent
// use.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/quackscience/copilot-extension-duckdb/internal/model"
)

const defaultMaxOpen = 32

type handle struct {
	mu       sync.Mutex
	db       *sqlx.DB
	lastUsed time.Time
}

type Engine struct {
	root  string
	mu    sync.Mutex
	cache *lru.Cache[string, *handle]
}

func New(root string, maxOpen int) (*Engine, error) {
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpen
	}
	cache, err := lru.NewWithEvict[string, *handle](maxOpen, onEvict)
	if err != nil {
		return nil, fmt.Errorf("init engine cache: %w", err)
	}
	return &Engine{root: root, cache: cache}, nil
}

func onEvict(path string, h *handle) {
	// Wait out any in-flight statement before closing.
	go func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if err := h.db.Close(); err != nil {
			logutil.GetLogger(context.Background()).Error("close evicted database",
				zap.String("path", path), zap.Error(err))
		}
	}()
}

// PathFor exposes the storage mapping for the configured root.
func (e *Engine) PathFor(identity string) string {
	return StoragePath(e.root, identity)
}

func (e *Engine) handleFor(identity string) (*handle, error) {
	path := StoragePath(e.root, identity)
	e.mu.Lock()
	defer e.mu.Unlock()
	if h, ok := e.cache.Get(path); ok {
		return h, nil
	}
	db, err := sqlx.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	h := &handle{db: db, lastUsed: time.Now()}
	e.cache.Add(path, h)
	return h, nil
}

// Execute runs one statement against the identity's database. The
// engine's own error surfaces verbatim; no retries, no transaction
// boundaries. Column order follows the driver's column list.
func (e *Engine) Execute(ctx context.Context, identity, query string) (*model.Result, error) {
	h, err := e.handleFor(identity)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastUsed = time.Now()

	rows, err := h.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRows(rows)
}

type rowIter interface {
	Columns() ([]string, error)
	Next() bool
	MapScan(dest map[string]interface{}) error
	Err() error
}

// collectRows drains an iterator into a Result. Callers get either a
// complete result or an error, never a truncated result alongside one.
func collectRows(rows rowIter) (*model.Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	res := &model.Result{Columns: cols}
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Exec runs a side-effecting statement with bind args, for internal
// bookkeeping writes.
func (e *Engine) Exec(ctx context.Context, identity, query string, args ...interface{}) (sql.Result, error) {
	h, err := e.handleFor(identity)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastUsed = time.Now()
	return h.db.ExecContext(ctx, query, args...)
}

// Select runs a bound query and scans rows into dest, sqlx-style.
func (e *Engine) Select(ctx context.Context, identity string, dest interface{}, query string, args ...interface{}) error {
	h, err := e.handleFor(identity)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastUsed = time.Now()
	return h.db.SelectContext(ctx, dest, query, args...)
}

// CloseIdle evicts handles unused for longer than maxIdle and returns
// how many were closed.
func (e *Engine) CloseIdle(maxIdle time.Duration) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	closed := 0
	for _, path := range e.cache.Keys() {
		h, ok := e.cache.Peek(path)
		if !ok {
			continue
		}
		h.mu.Lock()
		idle := h.lastUsed.Before(cutoff)
		h.mu.Unlock()
		if idle {
			e.cache.Remove(path)
			closed++
		}
	}
	return closed
}

// OpenCount reports how many database handles are currently cached.
func (e *Engine) OpenCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Len()
}

// Close evicts and closes every cached handle.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.Purge()
}
