package undo

import (
	"context"
	"errors"

	"batchgen/database"
	"batchgen/model"

	"github.com/jmoiron/sqlx"
)

// StoreRemover deletes the newest row of the batches table.
type StoreRemover struct {
	db *sqlx.DB
}

// NewStoreRemover returns a Remover backed by db.
func NewStoreRemover(db *sqlx.DB) *StoreRemover {
	return &StoreRemover{db: db}
}

// Count returns the number of stored records.
func (r *StoreRemover) Count(ctx context.Context) (int, error) {
	return database.CountBatches(ctx, r.db)
}

func (r *StoreRemover) RemoveLatest(ctx context.Context) (*model.Batch, error) {
	b, err := database.DeleteLatestBatch(ctx, r.db)
	if errors.Is(err, database.ErrNoBatches) {
		return nil, ErrNothingToUndo
	}
	return b, err
}
