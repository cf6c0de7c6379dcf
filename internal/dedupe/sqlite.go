package dedupe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bakkerme/rctbc-bins/internal/core"
	_ "modernc.org/sqlite"
)

const defaultSQLiteTable = "sent_reminders"

// SQLiteStore keeps the reminder ledger on disk so restarts do not resend.
type SQLiteStore struct {
	db         *sql.DB
	table      string
	tableIdent string
}

func NewSQLiteStore(dsn string, table string) (*SQLiteStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn is required")
	}
	if table == "" {
		table = defaultSQLiteTable
	}
	tableIdent, err := quoteSQLiteIdentifier(table)
	if err != nil {
		return nil, err
	}
	if err := ensureSQLiteDir(dsn); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := &SQLiteStore{
		db:         db,
		table:      table,
		tableIdent: tableIdent,
	}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) LastSent(ctx context.Context, reminder string, address core.AddressKey) (string, error) {
	var key string
	query := fmt.Sprintf("SELECT collection_key FROM %s WHERE reminder = ? AND property_number = ? AND postcode = ?", s.tableIdent)
	err := s.db.QueryRowContext(ctx, query, reminder, address.PropertyNumber, address.Postcode).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read sent reminder: %w", err)
	}
	return key, nil
}

func (s *SQLiteStore) RecordSent(ctx context.Context, reminder string, address core.AddressKey, key string) error {
	_, err := s.db.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s (reminder, property_number, postcode, collection_key, sent_at) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(reminder, property_number, postcode) DO UPDATE SET collection_key = excluded.collection_key, sent_at = excluded.sent_at`, s.tableIdent),
		reminder,
		address.PropertyNumber,
		address.Postcode,
		key,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record sent reminder: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		reminder TEXT NOT NULL,
		property_number TEXT NOT NULL,
		postcode TEXT NOT NULL,
		collection_key TEXT NOT NULL,
		sent_at TIMESTAMP NOT NULL,
		PRIMARY KEY (reminder, property_number, postcode)
	)`, s.tableIdent)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create sqlite table: %w", err)
	}
	return nil
}

func ensureSQLiteDir(dsn string) error {
	if strings.HasPrefix(dsn, "file:") {
		dsn = strings.TrimPrefix(dsn, "file:")
		if idx := strings.IndexRune(dsn, '?'); idx >= 0 {
			dsn = dsn[:idx]
		}
	}
	if dsn == "" || dsn == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

var sqliteIdentifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func quoteSQLiteIdentifier(identifier string) (string, error) {
	if !sqliteIdentifierPattern.MatchString(identifier) {
		return "", fmt.Errorf("sqlite table name %q must match %s", identifier, sqliteIdentifierPattern.String())
	}
	return `"` + identifier + `"`, nil
}
