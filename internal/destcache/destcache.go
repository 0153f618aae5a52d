package destcache

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"time"

	goipp "github.com/OpenPrinting/goipp"
	_ "modernc.org/sqlite"

	"cupsdestgolang/internal/model"
)

// Cache persists destination capability snapshots and the user's saved
// options so tools can answer queries without asking the server every run.
type Cache struct {
	db *sql.DB
}

func Open(ctx context.Context, dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	c := &Cache{db: db}
	if err := c.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Cache) withTx(ctx context.Context, readOnly bool, fn func(tx *sql.Tx) error) error {
	if c == nil || c.db == nil {
		return fmt.Errorf("cache not initialized")
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (c *Cache) migrate(ctx context.Context) error {
	return c.withTx(ctx, false, func(tx *sql.Tx) error {
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS snapshots (
                uri TEXT PRIMARY KEY,
                attrs BLOB NOT NULL,
                fetched_at DATETIME NOT NULL
            )`,
			`CREATE TABLE IF NOT EXISTS saved_options (
                dest TEXT NOT NULL,
                instance TEXT NOT NULL DEFAULT '',
                name TEXT NOT NULL,
                value TEXT NOT NULL DEFAULT '',
                PRIMARY KEY (dest, instance, name)
            )`,
			`CREATE TABLE IF NOT EXISTS default_dest (
                id INTEGER PRIMARY KEY CHECK (id = 1),
                dest TEXT NOT NULL,
                instance TEXT NOT NULL DEFAULT ''
            )`,
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

// PutSnapshot stores (or replaces) the attribute snapshot for a printer URI.
func (c *Cache) PutSnapshot(ctx context.Context, uri string, attrs goipp.Attributes, fetched time.Time) error {
	blob, err := encodeAttrs(attrs)
	if err != nil {
		return err
	}
	return c.withTx(ctx, false, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO snapshots (uri, attrs, fetched_at) VALUES (?, ?, ?)
             ON CONFLICT(uri) DO UPDATE SET attrs = excluded.attrs, fetched_at = excluded.fetched_at`,
			uri, blob, fetched.UTC())
		return err
	})
}

// GetSnapshot loads a stored snapshot no older than maxAge. A zero maxAge
// accepts any age.
func (c *Cache) GetSnapshot(ctx context.Context, uri string, maxAge time.Duration) (goipp.Attributes, time.Time, bool, error) {
	var blob []byte
	var fetched time.Time
	err := c.withTx(ctx, true, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT attrs, fetched_at FROM snapshots WHERE uri = ?`, uri)
		return row.Scan(&blob, &fetched)
	})
	if err == sql.ErrNoRows {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	if maxAge > 0 && time.Since(fetched) > maxAge {
		return nil, time.Time{}, false, nil
	}
	attrs, err := decodeAttrs(blob)
	if err != nil {
		return nil, time.Time{}, false, err
	}
	return attrs, fetched, true, nil
}

// PruneSnapshots drops snapshots fetched before the cutoff.
func (c *Cache) PruneSnapshots(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := c.withTx(ctx, false, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE fetched_at < ?`, before.UTC())
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// SaveOptions replaces the saved option set for a destination instance.
func (c *Cache) SaveOptions(ctx context.Context, dest, instance string, opts []model.Option) error {
	return c.withTx(ctx, false, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM saved_options WHERE dest = ? AND instance = ?`, dest, instance); err != nil {
			return err
		}
		for _, opt := range opts {
			if opt.Name == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO saved_options (dest, instance, name, value) VALUES (?, ?, ?, ?)`,
				dest, instance, opt.Name, opt.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

// SavedOptions returns the stored options for a destination instance.
func (c *Cache) SavedOptions(ctx context.Context, dest, instance string) ([]model.Option, error) {
	var out []model.Option
	err := c.withTx(ctx, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT name, value FROM saved_options WHERE dest = ? AND instance = ? ORDER BY name`,
			dest, instance)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var opt model.Option
			if err := rows.Scan(&opt.Name, &opt.Value); err != nil {
				return err
			}
			out = append(out, opt)
		}
		return rows.Err()
	})
	return out, err
}

// RemoveOptions drops every saved option for a destination instance.
func (c *Cache) RemoveOptions(ctx context.Context, dest, instance string) error {
	return c.withTx(ctx, false, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM saved_options WHERE dest = ? AND instance = ?`, dest, instance)
		return err
	})
}

// SetDefaultDestination records the user's default queue choice.
func (c *Cache) SetDefaultDestination(ctx context.Context, dest, instance string) error {
	return c.withTx(ctx, false, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO default_dest (id, dest, instance) VALUES (1, ?, ?)
             ON CONFLICT(id) DO UPDATE SET dest = excluded.dest, instance = excluded.instance`,
			dest, instance)
		return err
	})
}

// DefaultDestination returns the recorded default queue, if any.
func (c *Cache) DefaultDestination(ctx context.Context) (string, string, bool, error) {
	var dest, instance string
	err := c.withTx(ctx, true, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT dest, instance FROM default_dest WHERE id = 1`)
		return row.Scan(&dest, &instance)
	})
	if err == sql.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	return dest, instance, true, nil
}

// encodeAttrs wraps the attribute set in an IPP message so the stored blob
// uses the standard wire encoding.
func encodeAttrs(attrs goipp.Attributes) ([]byte, error) {
	msg := goipp.NewResponse(goipp.DefaultVersion, goipp.StatusOk, 1)
	msg.Printer = attrs
	return msg.EncodeBytes()
}

func decodeAttrs(blob []byte) (goipp.Attributes, error) {
	msg := &goipp.Message{}
	if err := msg.Decode(bytes.NewReader(blob)); err != nil {
		return nil, err
	}
	var attrs goipp.Attributes
	for _, g := range msg.Groups {
		if g.Tag == goipp.TagPrinterGroup {
			attrs = append(attrs, g.Attrs...)
		}
	}
	return attrs, nil
}
