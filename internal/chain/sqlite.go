package chain

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cleared-dev/trustledger/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS blocks (
	height     INTEGER PRIMARY KEY,
	block_hash TEXT NOT NULL UNIQUE,
	prev_hash  TEXT,
	body       TEXT NOT NULL
);`

// SQLiteLog stores blocks in a SQLite table. Rows are only ever inserted.
type SQLiteLog struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. Use ":memory:" for a
// throwaway log.
func OpenSQLite(path string) (*SQLiteLog, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating chain dir: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening chain database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating chain database: %w", err)
	}
	return &SQLiteLog{db: db}, nil
}

// Close closes the database.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}

// Append inserts b inside a transaction that re-reads the tip, so two
// writers cannot both extend the same block.
func (l *SQLiteLog) Append(b model.Block) error {
	body, err := MarshalBlock(b)
	if err != nil {
		return err
	}

	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning append: %w", err)
	}
	defer tx.Rollback()

	tip, ok, err := lastBlock(tx.QueryRow(`SELECT body FROM blocks ORDER BY height DESC LIMIT 1`))
	if err != nil {
		return err
	}
	if err := checkExtends(tip, ok, b); err != nil {
		return err
	}

	var prev any
	if b.PrevHash != nil {
		prev = *b.PrevHash
	}
	if _, err := tx.Exec(
		`INSERT INTO blocks (height, block_hash, prev_hash, body) VALUES (?, ?, ?, ?)`,
		b.Height, b.BlockHash, prev, string(body),
	); err != nil {
		return fmt.Errorf("inserting block %d: %w", b.Height, err)
	}
	return tx.Commit()
}

// Iterate visits blocks in height order.
func (l *SQLiteLog) Iterate(fn func(model.Block) error) error {
	rows, err := l.db.Query(`SELECT height, body FROM blocks ORDER BY height`)
	if err != nil {
		return fmt.Errorf("querying blocks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var height int64
		var body string
		if err := rows.Scan(&height, &body); err != nil {
			return fmt.Errorf("scanning block: %w", err)
		}
		b, err := UnmarshalBlock([]byte(body))
		if err != nil {
			return &CorruptError{Height: height, Reason: fmt.Sprintf("unreadable block: %v", err)}
		}
		if err := fn(b); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Last returns the highest block.
func (l *SQLiteLog) Last() (model.Block, bool, error) {
	return lastBlock(l.db.QueryRow(`SELECT body FROM blocks ORDER BY height DESC LIMIT 1`))
}

func lastBlock(row *sql.Row) (model.Block, bool, error) {
	var body string
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Block{}, false, nil
		}
		return model.Block{}, false, fmt.Errorf("reading chain tip: %w", err)
	}
	b, err := UnmarshalBlock([]byte(body))
	if err != nil {
		return model.Block{}, false, &CorruptError{Height: -1, Reason: fmt.Sprintf("unreadable tip: %v", err)}
	}
	return b, true, nil
}
