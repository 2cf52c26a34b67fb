package repository

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/novin-data/ingest-gateway/internal/model"
	"github.com/novin-data/ingest-gateway/pkg/pg"
)

type ProductRepository struct {
	*pg.DB
}

func NewProductRepository(db *pg.DB) *ProductRepository {
	return &ProductRepository{db}
}

func (r *ProductRepository) Upsert(ctx context.Context, products []*model.Product, p model.Partition) error {
	if len(products) == 0 {
		return nil
	}
	now := time.Now().UTC()
	entities := make([]*ProductEntity, len(products))
	for i, prod := range products {
		entities[i] = toProductEntity(prod, p, now)
	}
	return r.Write(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sku"}},
			UpdateAll: true,
		}).
		Create(entities).Error
}

func (r *ProductRepository) InsertInvalid(ctx context.Context, rejects []*model.Decision, p model.Partition) error {
	if len(rejects) == 0 {
		return nil
	}
	entities := make([]*InvalidProductEntity, len(rejects))
	for i, d := range rejects {
		entities[i] = toInvalidProductEntity(d.Raw, d.Reason, p)
	}
	return r.Write(ctx).Create(entities).Error
}

// ListSKUs returns every canonical product sku, for the reference snapshot.
func (r *ProductRepository) ListSKUs(ctx context.Context) ([]int64, error) {
	var skus []int64
	err := r.Read(ctx).Model(&ProductEntity{}).Pluck("sku", &skus).Error
	if err != nil {
		return nil, err
	}
	return skus, nil
}
