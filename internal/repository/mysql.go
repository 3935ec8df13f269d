// Package repository implements the persistence adapters for Workflow and
// Tool aggregate roots (spec.md §3 "Ownership and lifecycle", §6
// "Persisted state layout"), backed by MySQL (primary) and etcd (an
// optional Tool repository exercising the repository_unavailable
// fail-closed path).
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/arcflow/substrate/internal/valueobjects"
	"github.com/arcflow/substrate/internal/workflow"
)

// WorkflowRepository persists Workflow aggregates to MySQL per the layout
// of spec.md §6: id, name, description, ordered node records, ordered
// edge records, timestamps.
type WorkflowRepository struct {
	db *sql.DB
}

// NewWorkflowRepository opens a MySQL connection pool against dsn and
// ensures the backing schema exists.
func NewWorkflowRepository(dsn string) (*WorkflowRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, valueobjects.Wrap(valueobjects.ErrRepositoryUnavailable, err)
	}
	r := &WorkflowRepository{db: db}
	if err := r.migrate(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *WorkflowRepository) migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS workflows (
	id VARCHAR(64) PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	description TEXT,
	nodes_json JSON NOT NULL,
	edges_json JSON NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return valueobjects.Wrap(valueobjects.ErrRepositoryUnavailable, err)
	}
	return nil
}

// Save upserts w, matching entry.Persister's contract.
func (r *WorkflowRepository) Save(ctx context.Context, w *workflow.Workflow) error {
	nodesJSON, err := json.Marshal(w.Nodes)
	if err != nil {
		return valueobjects.Wrap(valueobjects.ErrValidation, err)
	}
	edgesJSON, err := json.Marshal(w.Edges)
	if err != nil {
		return valueobjects.Wrap(valueobjects.ErrValidation, err)
	}
	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = time.Now()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = w.UpdatedAt
	}

	const q = `
INSERT INTO workflows (id, name, description, nodes_json, edges_json, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE name = VALUES(name), description = VALUES(description),
	nodes_json = VALUES(nodes_json), edges_json = VALUES(edges_json), updated_at = VALUES(updated_at)`
	if _, err := r.db.ExecContext(ctx, q, w.ID, w.Name, w.Description, nodesJSON, edgesJSON, w.CreatedAt, w.UpdatedAt); err != nil {
		return valueobjects.Wrap(valueobjects.ErrRepositoryUnavailable, err)
	}
	return nil
}

// Get loads a Workflow by id.
func (r *WorkflowRepository) Get(ctx context.Context, id string) (*workflow.Workflow, error) {
	const q = `SELECT id, name, description, nodes_json, edges_json, created_at, updated_at FROM workflows WHERE id = ?`
	row := r.db.QueryRowContext(ctx, q, id)

	var w workflow.Workflow
	var nodesJSON, edgesJSON []byte
	if err := row.Scan(&w.ID, &w.Name, &w.Description, &nodesJSON, &edgesJSON, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, valueobjects.Newf(valueobjects.ErrInvalidRequest, "workflow %q not found", id)
		}
		return nil, valueobjects.Wrap(valueobjects.ErrRepositoryUnavailable, err)
	}
	if err := json.Unmarshal(nodesJSON, &w.Nodes); err != nil {
		return nil, valueobjects.Wrap(valueobjects.ErrValidation, err)
	}
	if err := json.Unmarshal(edgesJSON, &w.Edges); err != nil {
		return nil, valueobjects.Wrap(valueobjects.ErrValidation, err)
	}
	return &w, nil
}

// Close releases the connection pool.
func (r *WorkflowRepository) Close() error { return r.db.Close() }

// ToolRecord is one row of the MySQL-backed tool index (spec.md §6).
type ToolRecord struct {
	ID         string
	Deprecated bool
}

// MySQLToolRepository satisfies workflow.ToolLookup from a MySQL table,
// matching the shape of WorkflowRepository.
type MySQLToolRepository struct {
	db *sql.DB
}

func NewMySQLToolRepository(dsn string) (*MySQLToolRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, valueobjects.Wrap(valueobjects.ErrRepositoryUnavailable, err)
	}
	r := &MySQLToolRepository{db: db}
	const ddl = `CREATE TABLE IF NOT EXISTS tools (id VARCHAR(128) PRIMARY KEY, deprecated BOOLEAN NOT NULL DEFAULT FALSE)`
	if _, err := db.Exec(ddl); err != nil {
		return nil, valueobjects.Wrap(valueobjects.ErrRepositoryUnavailable, err)
	}
	return r, nil
}

func (r *MySQLToolRepository) Lookup(ctx context.Context, toolID string) (deprecated bool, ok bool, err error) {
	const q = `SELECT deprecated FROM tools WHERE id = ?`
	row := r.db.QueryRowContext(ctx, q, toolID)
	if scanErr := row.Scan(&deprecated); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return false, false, nil
		}
		return false, false, valueobjects.Wrap(valueobjects.ErrRepositoryUnavailable, fmt.Errorf("tool lookup %q: %w", toolID, scanErr))
	}
	return deprecated, true, nil
}

func (r *MySQLToolRepository) Close() error { return r.db.Close() }
