package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/echopress-data/echopress/internal/align"
)

// Run is one persisted alignment run with its outcome counts.
type Run struct {
	ID        string
	SessionID string
	// ConfigJSON is the resolved engine configuration serialised at run
	// time, sufficient to reproduce the run.
	ConfigJSON string
	Aligned    int
	Warnings   int
	Rejected   int
	CreatedAt  time.Time
}

// StoredResult is one persisted per-midpoint outcome. Derivative and
// bound columns are NULL for rejected records.
type StoredResult struct {
	RunID    string
	Seq      int
	Midpoint float64
	State    string
	Index    int
	EAlign   float64
	DpDt     sql.NullFloat64
	DeltaP   sql.NullFloat64
	BoundLo  sql.NullFloat64
	BoundHi  sql.NullFloat64
	Method   string
	WEff     sql.NullInt64
}

// SaveRun persists a batch outcome as one run plus its per-midpoint
// results in a single transaction. It returns the generated run ID.
func (db *DB) SaveRun(sessionID string, cfg align.Config, midpoints []float64, batch align.BatchResult) (string, error) {
	if len(midpoints) != len(batch.Results) {
		return "", fmt.Errorf("midpoints length %d does not match results length %d",
			len(midpoints), len(batch.Results))
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	runID := uuid.NewString()
	counts := batch.Counts()

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO alignment_runs (run_id, session_id, config_json, aligned, warnings, rejected)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, sessionID, string(cfgJSON), counts.Aligned, counts.Warnings, counts.Rejected)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO alignment_results
			(run_id, seq, midpoint, state, pressure_index, e_align,
			 dpdt, delta_p, bound_lo, bound_hi, method, w_eff)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare results insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range batch.Results {
		var dpdt, deltaP, lo, hi interface{}
		var wEff interface{}
		if !r.Rejected() {
			dpdt, deltaP, lo, hi = r.DpDt, r.DeltaP, r.BoundLo, r.BoundHi
			wEff = r.Diagnostics.WEff
		}
		_, err := stmt.Exec(runID, i, midpoints[i], string(r.State), r.Index, r.EAlign,
			dpdt, deltaP, lo, hi, r.Diagnostics.Method, wEff)
		if err != nil {
			return "", fmt.Errorf("insert result %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// GetRun loads one run by ID.
func (db *DB) GetRun(runID string) (*Run, error) {
	var run Run
	err := db.QueryRow(`
		SELECT run_id, session_id, config_json, aligned, warnings, rejected, created_at
		FROM alignment_runs WHERE run_id = ?`, runID).
		Scan(&run.ID, &run.SessionID, &run.ConfigJSON,
			&run.Aligned, &run.Warnings, &run.Rejected, &run.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return &run, nil
}

// ListRuns returns runs for a session, newest first. An empty session ID
// lists all runs.
func (db *DB) ListRuns(sessionID string) ([]Run, error) {
	query := `
		SELECT run_id, session_id, config_json, aligned, warnings, rejected, created_at
		FROM alignment_runs`
	var args []interface{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC, run_id`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.SessionID, &run.ConfigJSON,
			&run.Aligned, &run.Warnings, &run.Rejected, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunResults loads the per-midpoint results for a run in sequence order.
func (db *DB) RunResults(runID string) ([]StoredResult, error) {
	rows, err := db.Query(`
		SELECT run_id, seq, midpoint, state, pressure_index, e_align,
		       dpdt, delta_p, bound_lo, bound_hi, method, w_eff
		FROM alignment_results WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []StoredResult
	for rows.Next() {
		var r StoredResult
		if err := rows.Scan(&r.RunID, &r.Seq, &r.Midpoint, &r.State, &r.Index, &r.EAlign,
			&r.DpDt, &r.DeltaP, &r.BoundLo, &r.BoundHi, &r.Method, &r.WEff); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
