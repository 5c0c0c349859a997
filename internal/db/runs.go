package db

import (
	"context"
	"fmt"
)

// RecordRun stores the parameters and counts of a prepare run
func (d *DB) RecordRun(ctx context.Context, r Run) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, salt, max_bucket, seed,
		                  include_roots, input_count, output_count, output_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.StartedAt, r.FinishedAt, r.Salt, r.MaxBucket, r.Seed,
		r.IncludeRoots, r.InputCount, r.OutputCount, r.OutputPath)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first, at most limit rows
func (d *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, started_at, finished_at, salt, max_bucket, seed,
		       include_roots, input_count, output_count, output_path
		FROM runs ORDER BY started_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(
			&r.ID, &r.StartedAt, &r.FinishedAt, &r.Salt, &r.MaxBucket, &r.Seed,
			&r.IncludeRoots, &r.InputCount, &r.OutputCount, &r.OutputPath,
		); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
