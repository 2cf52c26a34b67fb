package gateway

import (
	"context"
	"fmt"

	"github.com/novin-data/ingest-gateway/internal/model"
	"github.com/novin-data/ingest-gateway/internal/repository"
	"github.com/novin-data/ingest-gateway/internal/rules"
	"github.com/novin-data/ingest-gateway/pkg/pg"
	"github.com/novin-data/ingest-gateway/pkg/prom"
)

// Gateway is the storage surface the pipeline consumes. Upserts are
// idempotent at the identity key, quarantine inserts append, and a whole
// batch of decisions flushes inside one transaction so a partition is never
// partially visible.
type Gateway interface {
	UpsertCanonical(ctx context.Context, kind model.DatasetType, accepted []*model.Decision, p model.Partition) error
	InsertQuarantine(ctx context.Context, kind model.DatasetType, rejected []*model.Decision, p model.Partition) error
	InsertStatistics(ctx context.Context, stats *model.ProcessingStatistics) error
	Snapshot(ctx context.Context) (*rules.References, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store implements Gateway over the gorm repositories, with an optional
// redis-backed cache in front of the reference reads.
type Store struct {
	db           *pg.DB
	customers    *repository.CustomerRepository
	transactions *repository.TransactionRepository
	products     *repository.ProductRepository
	erasures     *repository.ErasureRepository
	statistics   *repository.StatisticsRepository
	refs         *RefCache // nil disables caching
}

func NewStore(db *pg.DB, refs *RefCache) *Store {
	return &Store{
		db:           db,
		customers:    repository.NewCustomerRepository(db),
		transactions: repository.NewTransactionRepository(db),
		products:     repository.NewProductRepository(db),
		erasures:     repository.NewErasureRepository(db),
		statistics:   repository.NewStatisticsRepository(db),
		refs:         refs,
	}
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.db.WithinTransaction(ctx, fn)
}

func (s *Store) UpsertCanonical(ctx context.Context, kind model.DatasetType, accepted []*model.Decision, p model.Partition) error {
	switch kind {
	case model.DatasetCustomers:
		records := make([]*model.Customer, len(accepted))
		for i, d := range accepted {
			records[i] = d.Record.(*model.Customer)
		}
		return s.customers.Upsert(ctx, records, p)
	case model.DatasetTransactions:
		records := make([]*model.Transaction, len(accepted))
		for i, d := range accepted {
			records[i] = d.Record.(*model.Transaction)
		}
		return s.transactions.Upsert(ctx, records, p)
	case model.DatasetProducts:
		records := make([]*model.Product, len(accepted))
		for i, d := range accepted {
			records[i] = d.Record.(*model.Product)
		}
		return s.products.Upsert(ctx, records, p)
	case model.DatasetErasureRequests:
		records := make([]*model.ErasureRequest, len(accepted))
		for i, d := range accepted {
			records[i] = d.Record.(*model.ErasureRequest)
		}
		return s.erasures.Upsert(ctx, records, p)
	}
	return fmt.Errorf("unsupported dataset type %q", kind)
}

func (s *Store) InsertQuarantine(ctx context.Context, kind model.DatasetType, rejected []*model.Decision, p model.Partition) error {
	switch kind {
	case model.DatasetCustomers:
		return s.customers.InsertInvalid(ctx, rejected, p)
	case model.DatasetTransactions:
		return s.transactions.InsertInvalid(ctx, rejected, p)
	case model.DatasetProducts:
		return s.products.InsertInvalid(ctx, rejected, p)
	case model.DatasetErasureRequests:
		return s.erasures.InsertInvalid(ctx, rejected, p)
	}
	return fmt.Errorf("unsupported dataset type %q", kind)
}

func (s *Store) InsertStatistics(ctx context.Context, stats *model.ProcessingStatistics) error {
	return s.statistics.InsertStatistics(ctx, stats)
}

// Snapshot reads the reference identity sets as of now. A concurrent batch's
// writes may or may not be visible; that staleness is acceptable for
// referential checks.
func (s *Store) Snapshot(ctx context.Context) (*rules.References, error) {
	customerIDs, err := s.readIdentitySet(ctx, model.DatasetCustomers, s.customers.ListIDs)
	if err != nil {
		return nil, fmt.Errorf("read customer reference set: %w", err)
	}
	productSKUs, err := s.readIdentitySet(ctx, model.DatasetProducts, s.products.ListSKUs)
	if err != nil {
		return nil, fmt.Errorf("read product reference set: %w", err)
	}
	return &rules.References{
		Customers: toSet(customerIDs),
		Products:  toSet(productSKUs),
	}, nil
}

func (s *Store) readIdentitySet(ctx context.Context, kind model.DatasetType, load func(context.Context) ([]int64, error)) ([]int64, error) {
	if s.refs != nil {
		if ids, ok := s.refs.Get(kind); ok {
			return ids, nil
		}
		prom.IncReferenceMiss(string(kind))
	}
	ids, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if s.refs != nil {
		s.refs.Put(kind, ids)
	}
	return ids, nil
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
