package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store is the append-only audit log of spec.md §4.8, backed by an
// embedded sqlite database via database/sql — appropriate for a local,
// no-server-dependency audit log (DESIGN.md).
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite-backed audit store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS tool_call_records (
	id TEXT PRIMARY KEY,
	tool_name TEXT NOT NULL,
	caller_type TEXT,
	caller_id TEXT,
	conversation_id TEXT,
	workflow_id TEXT,
	run_id TEXT,
	params TEXT,
	success INTEGER,
	output TEXT,
	error TEXT,
	error_kind TEXT,
	duration_ms INTEGER,
	trace_id TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tool_call_tool ON tool_call_records(tool_name);
CREATE INDEX IF NOT EXISTS idx_tool_call_created ON tool_call_records(created_at);
`

// Record appends a call record. Never mutates, never deletes (spec.md §4.8
// "append; never mutate").
func (s *Store) Record(ctx context.Context, rec CallRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	params, _ := json.Marshal(rec.Params)
	output, _ := json.Marshal(rec.Output)
	// Best-effort append: the audit log must never block or fail a tool
	// call on its own behalf (spec.md §5 "append-only ... appenders need
	// only an exclusive head pointer" — sqlite's own locking gives us
	// that without an extra mutex).
	_, _ = s.db.ExecContext(ctx, `INSERT INTO tool_call_records
		(id, tool_name, caller_type, caller_id, conversation_id, workflow_id, run_id, params, success, output, error, error_kind, duration_ms, trace_id, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.ToolName, rec.CallerType, rec.CallerID, rec.ConversationID, rec.WorkflowID, rec.RunID,
		string(params), boolToInt(rec.Success), string(output), rec.Error, rec.ErrorKind, rec.DurationMS, rec.TraceID, rec.CreatedAt.Format(time.RFC3339Nano))
}

// GetCalls queries recorded calls by the given filter.
func (s *Store) GetCalls(ctx context.Context, f CallFilter) ([]CallRecord, error) {
	query := `SELECT id, tool_name, caller_type, caller_id, conversation_id, workflow_id, run_id, params, success, output, error, error_kind, duration_ms, trace_id, created_at FROM tool_call_records WHERE 1=1`
	var args []any
	if f.Tool != "" {
		query += " AND tool_name = ?"
		args = append(args, f.Tool)
	}
	if f.Caller != "" {
		query += " AND caller_id = ?"
		args = append(args, f.Caller)
	}
	if f.Session != "" {
		query += " AND conversation_id = ?"
		args = append(args, f.Session)
	}
	if !f.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, f.Since.Format(time.RFC3339Nano))
	}
	if !f.Until.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, f.Until.Format(time.RFC3339Nano))
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallRecord
	for rows.Next() {
		var rec CallRecord
		var params, output, createdAt string
		var success int
		if err := rows.Scan(&rec.ID, &rec.ToolName, &rec.CallerType, &rec.CallerID, &rec.ConversationID,
			&rec.WorkflowID, &rec.RunID, &params, &success, &output, &rec.Error, &rec.ErrorKind,
			&rec.DurationMS, &rec.TraceID, &createdAt); err != nil {
			return nil, err
		}
		rec.Success = success != 0
		_ = json.Unmarshal([]byte(params), &rec.Params)
		_ = json.Unmarshal([]byte(output), &rec.Output)
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Summarize computes counts and latency percentiles (spec.md §4.8).
func (s *Store) Summarize(ctx context.Context, f CallFilter) (Summary, error) {
	calls, err := s.GetCalls(ctx, f)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Total: len(calls)}
	durations := make([]int64, 0, len(calls))
	for _, c := range calls {
		if c.Success {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
		durations = append(durations, c.DurationMS)
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	sum.P50Millis = percentile(durations, 0.50)
	sum.P95Millis = percentile(durations, 0.95)
	sum.P99Millis = percentile(durations, 0.99)
	return sum, nil
}

func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *Store) Close() error { return s.db.Close() }
