package model

// Result is the outcome of one statement execution. Columns preserves
// the engine's column order; Rows share that schema. An empty Rows slice
// is a successful result, distinct from an execution error.
type Result struct {
	Columns []string
	Rows    []map[string]interface{}
}

// QueryRecord is one entry in a user database's query history.
type QueryRecord struct {
	Query        string `db:"query"`
	Status       string `db:"status"`
	Error        string `db:"error"`
	DurationMs   int64  `db:"duration_ms"`
	RowsReturned int64  `db:"rows_returned"`
	Ctime        int64  `db:"ctime"`
}

const (
	QueryStatusOK     = "ok"
	QueryStatusFailed = "failed"
)
