package database

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrIncompatibleSchema は既存の batches テーブルに batch_prefix / sequence_no 列がない場合に返ります。
// 旧バージョンのバッチ番号生成ツールが作ったファイルで、移行はしません。
var ErrIncompatibleSchema = errors.New("batches table was created by an older batch number tool; set databasePath to a new file")

// Open はSQLiteファイルを開き、スキーマを適用します。
// 書き込みは常に1プロセス1接続です。
func Open(path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error (%s): %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error (%s): %w", path, err)
	}
	if err := ApplySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// ApplySchema は埋め込みの schema.sql を実行します。
func ApplySchema(db *sqlx.DB) error {
	if err := checkExistingSchema(db); err != nil {
		return err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func checkExistingSchema(db *sqlx.DB) error {
	var cols []string
	if err := db.Select(&cols, "SELECT name FROM pragma_table_info('batches')"); err != nil {
		return fmt.Errorf("failed to inspect batches table: %w", err)
	}
	if len(cols) == 0 {
		return nil
	}
	if !slices.Contains(cols, "batch_prefix") || !slices.Contains(cols, "sequence_no") {
		return ErrIncompatibleSchema
	}
	return nil
}
