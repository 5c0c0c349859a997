package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const itemColumns = `id, parent, type, author, time, title, text, dead, deleted`

// scanItem scans a row into an Item. The row must have all 9 columns in standard order.
func scanItem(scanner interface{ Scan(dest ...any) error }) (Item, error) {
	var it Item
	err := scanner.Scan(
		&it.ID, &it.Parent, &it.Type, &it.By, &it.Time,
		&it.Title, &it.Text, &it.Dead, &it.Deleted,
	)
	return it, err
}

func (d *DB) queryItems(ctx context.Context, query string, args ...any) ([]Item, error) {
	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// LiveItems returns items that are neither dead nor deleted, ordered by id
func (d *DB) LiveItems(ctx context.Context) ([]Item, error) {
	return d.queryItems(ctx, `SELECT `+itemColumns+` FROM items WHERE dead = 0 AND deleted = 0 ORDER BY id`)
}

// GetItem returns a single item by ID, or ErrItemNotFound
func (d *DB) GetItem(ctx context.Context, id int64) (*Item, error) {
	row := d.conn.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrItemNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// CountItems returns the total number of stored items
func (d *DB) CountItems(ctx context.Context) (int, error) {
	var n int
	err := d.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n)
	return n, err
}

// UpsertItems inserts or replaces items in a single transaction and returns how many were written
func (d *DB) UpsertItems(ctx context.Context, items []Item) (int, error) {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			parent = excluded.parent, type = excluded.type, author = excluded.author,
			time = excluded.time, title = excluded.title, text = excluded.text,
			dead = excluded.dead, deleted = excluded.deleted
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		if _, err := stmt.ExecContext(ctx,
			it.ID, it.Parent, it.Type, it.By, it.Time,
			it.Title, it.Text, it.Dead, it.Deleted,
		); err != nil {
			return 0, fmt.Errorf("upserting item %d: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing items: %w", err)
	}
	return len(items), nil
}
