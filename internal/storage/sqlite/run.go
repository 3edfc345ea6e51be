package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/example/tp3s/internal/storage"
)

type runRepo struct {
	tx *sql.Tx
}

func (r *runRepo) Create(ctx context.Context, run *storage.Run) error {
	configJSON, err := json.Marshal(run.Config)
	if err != nil {
		return err
	}
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return err
	}

	var objective sql.NullFloat64
	if run.Objective != nil {
		objective = sql.NullFloat64{Float64: *run.Objective, Valid: true}
	}

	_, err = r.tx.ExecContext(ctx, `
		INSERT INTO runs (id, instance_name, status, objective, config_json, stats_json,
		                  error_message, created_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.InstanceName, string(run.Status), objective, string(configJSON),
		string(statsJSON), run.Error, run.CreatedAt, run.FinishedAt)
	if err != nil {
		return err
	}

	for i, col := range run.Columns {
		seqJSON, err := json.Marshal(col.Sequence)
		if err != nil {
			return err
		}
		_, err = r.tx.ExecContext(ctx, `
			INSERT INTO run_columns (run_id, idx, release, sequence_json, cost, weight)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, i, col.Release, string(seqJSON), col.Cost, col.Weight)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *runRepo) Get(ctx context.Context, id string) (*storage.Run, error) {
	row := r.tx.QueryRowContext(ctx, `
		SELECT id, instance_name, status, objective, config_json, stats_json,
		       error_message, created_at, finished_at
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.tx.QueryContext(ctx, `
		SELECT release, sequence_json, cost, weight
		FROM run_columns WHERE run_id = ? ORDER BY idx
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var col storage.RunColumn
		var seqJSON string
		if err := rows.Scan(&col.Release, &seqJSON, &col.Cost, &col.Weight); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(seqJSON), &col.Sequence); err != nil {
			return nil, err
		}
		run.Columns = append(run.Columns, col)
	}
	return run, rows.Err()
}

func (r *runRepo) List(ctx context.Context, opts storage.ListOptions) ([]*storage.Run, error) {
	query := `
		SELECT id, instance_name, status, objective, config_json, stats_json,
		       error_message, created_at, finished_at
		FROM runs WHERE 1 = 1`
	var args []any

	if opts.InstanceName != "" {
		query += " AND instance_name = ?"
		args = append(args, opts.InstanceName)
	}
	if len(opts.Statuses) > 0 {
		placeholders := make([]string, len(opts.Statuses))
		for i, status := range opts.Statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		query += " AND status IN (" + strings.Join(placeholders, ",") + ")"
	}

	query += " ORDER BY created_at DESC, id"
	if opts.Limit > 0 || opts.Offset > 0 {
		limit := opts.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, opts.Offset)
	}

	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*storage.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *runRepo) Delete(ctx context.Context, id string) error {
	result, err := r.tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*storage.Run, error) {
	run := &storage.Run{}
	var status string
	var objective sql.NullFloat64
	var configJSON, statsJSON string
	var errMsg sql.NullString

	err := s.Scan(&run.ID, &run.InstanceName, &status, &objective, &configJSON,
		&statsJSON, &errMsg, &run.CreatedAt, &run.FinishedAt)
	if err != nil {
		return nil, err
	}

	run.Status = storage.RunStatus(status)
	if objective.Valid {
		v := objective.Float64
		run.Objective = &v
	}
	run.Error = errMsg.String
	if err := json.Unmarshal([]byte(configJSON), &run.Config); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(statsJSON), &run.Stats); err != nil {
		return nil, err
	}
	return run, nil
}
