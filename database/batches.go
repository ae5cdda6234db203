package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"batchgen/model"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNoBatches は batches テーブルが空のときに返ります。
	ErrNoBatches = errors.New("no batch numbers stored")
	// ErrDuplicateBatchNumber は同じバッチ番号が既に登録されているときに返ります。
	// 既存データがある状態で連番の桁数を変えると、別プレフィックスの番号と文字列が重なることがあります。
	ErrDuplicateBatchNumber = errors.New("batch number already exists")
)

const batchColumns = `id, batch_number, batch_prefix, sequence_no, product_type, color, mrp, mfd_date, date_generated`

// MaxSequenceInTx は指定プレフィックスの最大連番を返します (該当なしは 0)。
func MaxSequenceInTx(ctx context.Context, tx *sqlx.Tx, prefix string) (int, error) {
	var maxSeq sql.NullInt64
	err := tx.GetContext(ctx, &maxSeq, "SELECT MAX(sequence_no) FROM batches WHERE batch_prefix = ?", prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to get max sequence for prefix '%s': %w", prefix, err)
	}
	if !maxSeq.Valid {
		return 0, nil
	}
	return int(maxSeq.Int64), nil
}

// InsertBatchInTx はバッチ番号を1件登録し、採番されたIDを返します。
func InsertBatchInTx(ctx context.Context, tx *sqlx.Tx, b *model.Batch) (int64, error) {
	const q = `
		INSERT INTO batches (
			batch_number, batch_prefix, sequence_no, product_type, color, mrp, mfd_date, date_generated
		)
		VALUES (:batch_number, :batch_prefix, :sequence_no, :product_type, :color, :mrp, :mfd_date, :date_generated)`

	res, err := tx.NamedExecContext(ctx, q, b)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, fmt.Errorf("InsertBatchInTx (%s): %w", b.BatchNumber, ErrDuplicateBatchNumber)
		}
		return 0, fmt.Errorf("InsertBatchInTx (%s) failed: %w", b.BatchNumber, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("InsertBatchInTx (%s): last insert id: %w", b.BatchNumber, err)
	}
	return id, nil
}

// LatestBatchInTx は最も新しく登録されたレコードを返します。
func LatestBatchInTx(ctx context.Context, tx *sqlx.Tx) (*model.Batch, error) {
	var b model.Batch
	err := tx.GetContext(ctx, &b, "SELECT "+batchColumns+" FROM batches ORDER BY id DESC LIMIT 1")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoBatches
		}
		return nil, fmt.Errorf("failed to get latest batch: %w", err)
	}
	return &b, nil
}

// DeleteBatchInTx はIDを指定してレコードを削除します。
func DeleteBatchInTx(ctx context.Context, tx *sqlx.Tx, id int64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM batches WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete batch with id %d: %w", id, err)
	}
	return nil
}

// DeleteLatestBatch は最新の1件をトランザクション内で削除し、削除したレコードを返します。
func DeleteLatestBatch(ctx context.Context, db *sqlx.DB) (*model.Batch, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	latest, err := LatestBatchInTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := DeleteBatchInTx(ctx, tx, latest.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch delete: %w", err)
	}
	return latest, nil
}

// ListRecentBatches は新しい順に最大 limit 件を返します。
func ListRecentBatches(ctx context.Context, db *sqlx.DB, limit int) ([]model.Batch, error) {
	batches := []model.Batch{}
	err := db.SelectContext(ctx, &batches, "SELECT "+batchColumns+" FROM batches ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent batches: %w", err)
	}
	return batches, nil
}

// GetBatchByNumber はバッチ番号で1件取得します。見つからない場合は nil を返します。
func GetBatchByNumber(ctx context.Context, db *sqlx.DB, number string) (*model.Batch, error) {
	var b model.Batch
	err := db.GetContext(ctx, &b, "SELECT "+batchColumns+" FROM batches WHERE batch_number = ?", number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get batch %s: %w", number, err)
	}
	return &b, nil
}

// CountBatches は登録済みレコード数を返します。
func CountBatches(ctx context.Context, db *sqlx.DB) (int, error) {
	var n int
	if err := db.GetContext(ctx, &n, "SELECT COUNT(*) FROM batches"); err != nil {
		return 0, fmt.Errorf("failed to count batches: %w", err)
	}
	return n, nil
}

// ListBatchesByMfdDate は製造日 from〜to (両端含む、空なら無制限) のレコードを登録順に返します。
func ListBatchesByMfdDate(ctx context.Context, db *sqlx.DB, from, to string) ([]model.Batch, error) {
	q := "SELECT " + batchColumns + " FROM batches WHERE 1=1"
	var args []interface{}
	if from != "" {
		q += " AND mfd_date >= ?"
		args = append(args, from)
	}
	if to != "" {
		q += " AND mfd_date <= ?"
		args = append(args, to)
	}
	q += " ORDER BY id"

	batches := []model.Batch{}
	if err := db.SelectContext(ctx, &batches, q, args...); err != nil {
		return nil, fmt.Errorf("failed to list batches by mfd date: %w", err)
	}
	return batches, nil
}
