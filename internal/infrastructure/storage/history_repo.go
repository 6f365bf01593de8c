package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/ctxprobe/internal/domain/errors"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
)

// Compile-time check that HistoryRepository implements HistoryStorage.
var _ ports.HistoryStorage = (*HistoryRepository)(nil)

// HistoryRepository implements HistoryStorage using SQLite.
type HistoryRepository struct {
	conn *Connection
}

// NewHistoryRepository creates a history repository over an open connection.
func NewHistoryRepository(conn *Connection) *HistoryRepository {
	return &HistoryRepository{conn: conn}
}

// OpenHistory opens (or creates) the history database at path and
// returns a repository backed by it.
func OpenHistory(path string) (*HistoryRepository, error) {
	conn, err := NewConnection(path)
	if err != nil {
		return nil, err
	}
	if err := conn.Open(); err != nil {
		return nil, err
	}
	return NewHistoryRepository(conn), nil
}

// SaveRun persists a finalized probe result and its step log.
func (r *HistoryRepository) SaveRun(ctx context.Context, result *probe.Result) error {
	if result == nil {
		return domainErrors.NewError(domainErrors.CodeValidation, "result is nil", nil)
	}
	if result.RunID == "" {
		return domainErrors.NewError(domainErrors.CodeValidation, "result has no run ID", nil)
	}

	statsJSON, err := json.Marshal(result.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	db := r.conn.DB()
	if db == nil {
		return fmt.Errorf("database not open")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	runQuery := `
		INSERT INTO probe_runs (run_id, model_id, strategy, configured_max, theoretical_max, boundary, status, stats, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, runQuery,
		result.RunID,
		result.ModelID,
		string(result.Strategy),
		result.ConfiguredMax,
		result.TheoreticalMax,
		result.Boundary,
		string(result.Status),
		string(statsJSON),
		result.StartedAt.UTC().Format(time.RFC3339Nano),
		result.CompletedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return domainErrors.NewError(domainErrors.CodeValidation, fmt.Sprintf("run already saved: %s", result.RunID), err)
		}
		return fmt.Errorf("failed to save run: %w", err)
	}

	stepQuery := `
		INSERT INTO probe_steps (run_id, number, target_tokens, input_tokens, output_budget, outcome, latency_ns, output_tokens, cost, error_detail, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, step := range result.Steps {
		_, err = tx.ExecContext(ctx, stepQuery,
			result.RunID,
			step.Number,
			step.TargetTokens,
			step.InputTokens,
			step.OutputBudget,
			string(step.Outcome),
			step.Latency.Nanoseconds(),
			step.OutputTokens,
			step.Cost,
			nullableString(step.ErrorDetail),
			step.Timestamp.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to save step %d: %w", step.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	return nil
}

// GetRun retrieves a persisted run by its ID, including steps.
func (r *HistoryRepository) GetRun(ctx context.Context, runID string) (*probe.Result, error) {
	db := r.conn.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	query := `
		SELECT run_id, model_id, strategy, configured_max, theoretical_max, boundary, status, stats, started_at, completed_at
		FROM probe_runs
		WHERE run_id = ?
	`

	result, err := scanRunRow(db.QueryRowContext(ctx, query, runID))
	if err == sql.ErrNoRows {
		return nil, domainErrors.NewError(domainErrors.CodeNotFound, fmt.Sprintf("run not found: %s", runID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	steps, err := r.querySteps(ctx, runID)
	if err != nil {
		return nil, err
	}
	result.Steps = steps

	return result, nil
}

// ListRuns retrieves persisted runs matching the filter, newest first,
// without step logs.
func (r *HistoryRepository) ListRuns(ctx context.Context, filter ports.HistoryFilter) ([]*probe.Result, error) {
	db := r.conn.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	query := `
		SELECT run_id, model_id, strategy, configured_max, theoretical_max, boundary, status, stats, started_at, completed_at
		FROM probe_runs
	`

	var clauses []string
	var args []any
	if filter.ModelID != "" {
		clauses = append(clauses, "model_id = ?")
		args = append(args, filter.ModelID)
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "started_at > ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339Nano))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []*probe.Result
	for rows.Next() {
		result, err := scanRunRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return results, nil
}

// LatestForModel returns the most recent completed run for a model, or
// nil if none exists.
func (r *HistoryRepository) LatestForModel(ctx context.Context, modelID string) (*probe.Result, error) {
	db := r.conn.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	query := `
		SELECT run_id, model_id, strategy, configured_max, theoretical_max, boundary, status, stats, started_at, completed_at
		FROM probe_runs
		WHERE model_id = ? AND status = ?
		ORDER BY started_at DESC
		LIMIT 1
	`

	result, err := scanRunRow(db.QueryRowContext(ctx, query, modelID, string(probe.StatusCompleted)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	steps, err := r.querySteps(ctx, result.RunID)
	if err != nil {
		return nil, err
	}
	result.Steps = steps

	return result, nil
}

// Close releases the underlying database handle.
func (r *HistoryRepository) Close() error {
	return r.conn.Close()
}

func (r *HistoryRepository) querySteps(ctx context.Context, runID string) ([]probe.Step, error) {
	db := r.conn.DB()
	if db == nil {
		return nil, fmt.Errorf("database not open")
	}

	query := `
		SELECT number, target_tokens, input_tokens, output_budget, outcome, latency_ns, output_tokens, cost, error_detail, timestamp
		FROM probe_steps
		WHERE run_id = ?
		ORDER BY number ASC
	`

	rows, err := db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	steps := make([]probe.Step, 0)
	for rows.Next() {
		var step probe.Step
		var outcome string
		var latencyNS int64
		var errorDetail sql.NullString
		var timestamp string

		err := rows.Scan(
			&step.Number,
			&step.TargetTokens,
			&step.InputTokens,
			&step.OutputBudget,
			&outcome,
			&latencyNS,
			&step.OutputTokens,
			&step.Cost,
			&errorDetail,
			&timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}

		step.Outcome = probe.Outcome(outcome)
		step.Latency = time.Duration(latencyNS)
		if errorDetail.Valid {
			step.ErrorDetail = errorDetail.String
		}
		step.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse step timestamp: %w", err)
		}

		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate steps: %w", err)
	}

	return steps, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunRow(row rowScanner) (*probe.Result, error) {
	var result probe.Result
	var strategy, status, statsJSON, startedAt, completedAt string

	err := row.Scan(
		&result.RunID,
		&result.ModelID,
		&strategy,
		&result.ConfiguredMax,
		&result.TheoreticalMax,
		&result.Boundary,
		&status,
		&statsJSON,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	result.Strategy = probe.Strategy(strategy)
	result.Status = probe.RunStatus(status)

	if err := json.Unmarshal([]byte(statsJSON), &result.Stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
	}

	result.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}
	result.CompletedAt, err = time.Parse(time.RFC3339Nano, completedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse completed_at: %w", err)
	}

	return &result, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
