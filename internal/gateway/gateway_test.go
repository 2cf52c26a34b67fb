package gateway

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/novin-data/ingest-gateway/internal/model"
	"github.com/novin-data/ingest-gateway/internal/repository"
	"github.com/novin-data/ingest-gateway/pkg/pg"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&repository.CustomerEntity{},
		&repository.InvalidCustomerEntity{},
		&repository.ProductEntity{},
		&repository.InvalidProductEntity{},
		&repository.TransactionEntity{},
		&repository.DeliveryAddressEntity{},
		&repository.PurchaseEntity{},
		&repository.InvalidTransactionEntity{},
		&repository.ErasureRequestEntity{},
		&repository.InvalidErasureRequestEntity{},
		&repository.ProcessingStatisticsEntity{},
	))

	pgDB := &pg.DB{}
	v := reflect.ValueOf(pgDB).Elem()
	for _, name := range []string{"read", "write"} {
		field := v.FieldByName(name)
		field = reflect.NewAt(field.Type(), field.Addr().UnsafePointer()).Elem()
		field.Set(reflect.ValueOf(db))
	}
	return NewStore(pgDB, nil)
}

func TestSnapshotReflectsWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := model.NewPartition(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 9)

	refs, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, refs.Customers)
	assert.Empty(t, refs.Products)

	accepted := []*model.Decision{
		{Destination: model.DestinationCanonical, Record: &model.Customer{ID: 42, Email: "a@b.com"}},
	}
	require.NoError(t, store.UpsertCanonical(ctx, model.DatasetCustomers, accepted, p))

	refs, err = store.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, refs.HasCustomer(42))
	assert.False(t, refs.HasCustomer(43))
}

func TestInsertQuarantineDispatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := model.NewPartition(time.Now(), 0)

	rejected := []*model.Decision{
		{
			Destination: model.DestinationQuarantine,
			Raw:         map[string]any{"customer_id": float64(7), "email": "x@y.com"},
			Reason:      "unknown customer_id: 7",
		},
	}
	require.NoError(t, store.InsertQuarantine(ctx, model.DatasetErasureRequests, rejected, p))

	got, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Customers)
}

func TestUpsertCanonicalUnknownKind(t *testing.T) {
	store := newTestStore(t)
	err := store.UpsertCanonical(context.Background(), model.DatasetType("sales"), nil, model.Partition{})
	require.Error(t, err)
}

func TestWithinTransactionRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := model.NewPartition(time.Now(), 0)

	boom := assert.AnError
	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		accepted := []*model.Decision{
			{Destination: model.DestinationCanonical, Record: &model.Customer{ID: 1, Email: "a@b.com"}},
		}
		if err := store.UpsertCanonical(ctx, model.DatasetCustomers, accepted, p); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	refs, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, refs.Customers)
}
