package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrSequenceExhausted はプレフィックスの連番が桁数の上限に達したときに返ります。
var ErrSequenceExhausted = errors.New("sequence exhausted")

// NextSequenceInTx は batches に保存済みの最大連番 + 1 からコードを組み立てます。
// 該当プレフィックスのレコードがなければ 1 から始まります。
func NextSequenceInTx(ctx context.Context, tx *sqlx.Tx, prefix string, padding int) (string, int, error) {
	lastNo, err := MaxSequenceInTx(ctx, tx, prefix)
	if err != nil {
		return "", 0, err
	}

	newNo := lastNo + 1
	if newNo > maxForPadding(padding) {
		return "", 0, fmt.Errorf("prefix '%s' reached %d: %w", prefix, lastNo, ErrSequenceExhausted)
	}

	format := fmt.Sprintf("%s%%0%dd", prefix, padding)
	return fmt.Sprintf(format, newNo), newNo, nil
}

func maxForPadding(padding int) int {
	n := 1
	for i := 0; i < padding; i++ {
		n *= 10
	}
	return n - 1
}
