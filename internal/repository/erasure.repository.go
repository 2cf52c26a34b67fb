package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/novin-data/ingest-gateway/internal/model"
	"github.com/novin-data/ingest-gateway/pkg/pg"
)

type ErasureRepository struct {
	*pg.DB
}

func NewErasureRepository(db *pg.DB) *ErasureRepository {
	return &ErasureRepository{db}
}

// Upsert marks requests processed, keyed by customer_id. Reprocessing the
// same subject overwrites the existing row, so erasure is at-most-once
// effective per customer regardless of duplicate submissions.
func (r *ErasureRepository) Upsert(ctx context.Context, requests []*model.ErasureRequest, p model.Partition) error {
	if len(requests) == 0 {
		return nil
	}
	now := time.Now().UTC()
	entities := make([]*ErasureRequestEntity, len(requests))
	for i, req := range requests {
		entities[i] = toErasureRequestEntity(req, p, now)
	}
	return r.Write(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			UpdateAll: true,
		}).
		Create(entities).Error
}

func (r *ErasureRepository) InsertInvalid(ctx context.Context, rejects []*model.Decision, p model.Partition) error {
	if len(rejects) == 0 {
		return nil
	}
	entities := make([]*InvalidErasureRequestEntity, len(rejects))
	for i, d := range rejects {
		entities[i] = toInvalidErasureRequestEntity(d.Raw, d.Reason, p)
	}
	return r.Write(ctx).Create(entities).Error
}

// PartitionFor reports the partition a customer's canonical row was ingested
// in. The anonymizer uses it to locate the processed data file to rewrite.
func (r *ErasureRepository) PartitionFor(ctx context.Context, customerID int64) (model.Partition, bool, error) {
	var row CustomerEntity
	err := r.Read(ctx).
		Select("record_date", "record_hour").
		Where("id = ?", customerID).
		Take(&row).Error
	if err != nil {
		if isNotFound(err) {
			return model.Partition{}, false, nil
		}
		return model.Partition{}, false, err
	}
	return model.NewPartition(row.RecordDate, row.RecordHour), true, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
