package repository

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/novin-data/ingest-gateway/internal/model"
	"github.com/novin-data/ingest-gateway/pkg/pg"
)

type CustomerRepository struct {
	*pg.DB
}

func NewCustomerRepository(db *pg.DB) *CustomerRepository {
	return &CustomerRepository{db}
}

// Upsert writes accepted customers keyed by id; later batches with the same
// id overwrite (last write wins). processed_at is stamped here, at write
// time, not by the routing core.
func (r *CustomerRepository) Upsert(ctx context.Context, customers []*model.Customer, p model.Partition) error {
	if len(customers) == 0 {
		return nil
	}
	now := time.Now().UTC()
	entities := make([]*CustomerEntity, len(customers))
	for i, c := range customers {
		entities[i] = toCustomerEntity(c, p, now)
	}
	return r.Write(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(entities).Error
}

// InsertInvalid appends quarantined customers with their rejection reasons.
func (r *CustomerRepository) InsertInvalid(ctx context.Context, rejects []*model.Decision, p model.Partition) error {
	if len(rejects) == 0 {
		return nil
	}
	entities := make([]*InvalidCustomerEntity, len(rejects))
	for i, d := range rejects {
		entities[i] = toInvalidCustomerEntity(d.Raw, d.Reason, p)
	}
	return r.Write(ctx).Create(entities).Error
}

// ListIDs returns every canonical customer id, for the reference snapshot.
func (r *CustomerRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.Read(ctx).Model(&CustomerEntity{}).Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
