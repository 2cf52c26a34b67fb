package repository

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/novin-data/ingest-gateway/internal/model"
	"github.com/novin-data/ingest-gateway/pkg/pg"
)

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{db}
}

// Upsert writes accepted transactions keyed by transaction_id. Child rows
// (delivery address, purchase lines) are replaced wholesale so a re-applied
// batch converges on the same state.
func (r *TransactionRepository) Upsert(ctx context.Context, txs []*model.Transaction, p model.Partition) error {
	if len(txs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, tx := range txs {
		id := tx.TransactionID.String()

		err := r.Write(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "transaction_id"}},
				UpdateAll: true,
			}).
			Create(toTransactionEntity(tx, p, now)).Error
		if err != nil {
			return err
		}

		err = r.Write(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "transaction_id"}},
				UpdateAll: true,
			}).
			Create(toDeliveryAddressEntity(tx)).Error
		if err != nil {
			return err
		}

		if err := r.Write(ctx).Where("transaction_id = ?", id).Delete(&PurchaseEntity{}).Error; err != nil {
			return err
		}
		if lines := toPurchaseEntities(tx); len(lines) > 0 {
			if err := r.Write(ctx).Create(lines).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *TransactionRepository) InsertInvalid(ctx context.Context, rejects []*model.Decision, p model.Partition) error {
	if len(rejects) == 0 {
		return nil
	}
	entities := make([]*InvalidTransactionEntity, len(rejects))
	for i, d := range rejects {
		entities[i] = toInvalidTransactionEntity(d.Raw, d.Reason, p)
	}
	return r.Write(ctx).Create(entities).Error
}
