package pipeline

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/novin-data/ingest-gateway/internal/erasure"
	"github.com/novin-data/ingest-gateway/internal/extract"
	"github.com/novin-data/ingest-gateway/internal/gateway"
	"github.com/novin-data/ingest-gateway/internal/model"
	"github.com/novin-data/ingest-gateway/internal/repository"
	"github.com/novin-data/ingest-gateway/internal/router"
	"github.com/novin-data/ingest-gateway/internal/rules"
	"github.com/novin-data/ingest-gateway/pkg/pg"
)

type testEnv struct {
	db       *pg.DB
	gorm     *gorm.DB
	staging  *extract.Staging
	pipeline *Pipeline
}

func newTestEnv(t *testing.T) *testEnv {
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

	root := t.TempDir()
	staging := &extract.Staging{
		RawRoot:       filepath.Join(root, "raw"),
		ProcessedRoot: filepath.Join(root, "processed"),
		ArchiveRoot:   filepath.Join(root, "archive"),
	}

	store := gateway.NewStore(pgDB, nil)
	rtr := router.New(rules.NewChecker(), 4)
	eraser := erasure.NewProcessor(staging, repository.NewErasureRepository(pgDB))

	return &testEnv{
		db:       pgDB,
		gorm:     db,
		staging:  staging,
		pipeline: New(staging, store, rtr, eraser, nil),
	}
}

func (e *testEnv) writeRaw(t *testing.T, kind model.DatasetType, p model.Partition, records []map[string]any) extract.PartitionFile {
	t.Helper()
	dir := filepath.Join(e.staging.RawRoot, p.DateDir(), p.HourDir())
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, kind.FileName()+".json.gz")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	gz := gzip.NewWriter(f)
	enc := json.NewEncoder(gz)
	for _, r := range records {
		require.NoError(t, enc.Encode(r))
	}
	require.NoError(t, gz.Close())

	return extract.PartitionFile{Partition: p, Path: path}
}

func customerRecord(id int, email string) map[string]any {
	return map[string]any{
		"id":            id,
		"first_name":    fmt.Sprintf("First%d", id),
		"last_name":     fmt.Sprintf("Last%d", id),
		"email":         email,
		"date_of_birth": nil,
		"phone_number":  nil,
		"address":       "1 Main Street",
		"city":          "Springfield",
		"country":       "GB",
		"postcode":      "SP1 1AA",
		"last_change":   "2024-03-01T10:00:00Z",
		"segment":       nil,
	}
}

func testPartition() model.Partition {
	return model.NewPartition(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 9)
}

func TestRunCustomersBatch(t *testing.T) {
	env := newTestEnv(t)
	p := testPartition()

	records := make([]map[string]any, 0, 100)
	for i := 1; i <= 100; i++ {
		email := fmt.Sprintf("user%d@example.com", i)
		if i%20 == 0 {
			email = "broken" // 5 semantically invalid records
		}
		records = append(records, customerRecord(i, email))
	}
	file := env.writeRaw(t, model.DatasetCustomers, p, records)

	require.NoError(t, env.pipeline.Run(context.Background(), model.DatasetCustomers, file))

	var canonical int64
	require.NoError(t, env.gorm.Model(&repository.CustomerEntity{}).Count(&canonical).Error)
	assert.Equal(t, int64(95), canonical)

	var quarantined []repository.InvalidCustomerEntity
	require.NoError(t, env.gorm.Find(&quarantined).Error)
	require.Len(t, quarantined, 5)
	assert.Contains(t, quarantined[0].ErrorMessage, "invalid email")

	// One statistics row counting every record read, not just the accepted.
	var stats []repository.ProcessingStatisticsEntity
	require.NoError(t, env.gorm.Find(&stats).Error)
	require.Len(t, stats, 1)
	assert.Equal(t, "customers", stats[0].DatasetType)
	assert.Equal(t, 100, stats[0].RecordCount)
	assert.Equal(t, 9, stats[0].RecordHour)

	// Accepted records land in the processed tree, the raw file is archived.
	processed, ok := env.staging.ProcessedFile(model.DatasetCustomers, p)
	require.True(t, ok)
	got, err := extract.ReadRecords(processed)
	require.NoError(t, err)
	assert.Len(t, got, 95)

	_, err = os.Stat(file.Path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(env.staging.ArchiveRoot, "raw", p.DateDir(), p.HourDir(), "customers.json.gz"))
	assert.NoError(t, err)
}

func TestRunTransactionsSeeCustomersFromEarlierBatch(t *testing.T) {
	env := newTestEnv(t)
	p := testPartition()

	custFile := env.writeRaw(t, model.DatasetCustomers, p, []map[string]any{
		customerRecord(42, "ada@example.com"),
	})
	require.NoError(t, env.pipeline.Run(context.Background(), model.DatasetCustomers, custFile))

	txs := []map[string]any{
		{
			"transaction_id":   "9f4b1c62-3a6e-4f4e-8a3f-57a6d2a0c0de",
			"transaction_time": "2024-03-01T11:30:00Z",
			"customer_id":      42,
			"delivery_address": map[string]any{"address": "a", "postcode": "p", "city": "c", "country": "GB"},
			"purchases": map[string]any{
				"products":   []any{map[string]any{"sku": 1, "quantity": 2, "price": 10.00, "total": 20.00}},
				"total_cost": 20.00,
			},
		},
		{
			"transaction_id":   "0c7a36ff-96a9-4a07-b3a4-1a7d53a9f0aa",
			"transaction_time": "2024-03-01T11:31:00Z",
			"customer_id":      999,
			"delivery_address": map[string]any{"address": "a", "postcode": "p", "city": "c", "country": "GB"},
			"purchases": map[string]any{
				"products":   []any{map[string]any{"sku": 1, "quantity": 1, "price": 5.00, "total": 5.00}},
				"total_cost": 5.00,
			},
		},
	}
	txFile := env.writeRaw(t, model.DatasetTransactions, p, txs)
	require.NoError(t, env.pipeline.Run(context.Background(), model.DatasetTransactions, txFile))

	var canonical int64
	require.NoError(t, env.gorm.Model(&repository.TransactionEntity{}).Count(&canonical).Error)
	assert.Equal(t, int64(1), canonical)

	var invalid []repository.InvalidTransactionEntity
	require.NoError(t, env.gorm.Find(&invalid).Error)
	require.Len(t, invalid, 1)
	assert.Equal(t, "unknown customer_id: 999", invalid[0].ErrorMessage)
}

func TestRunErasureAnonymizesProcessedData(t *testing.T) {
	env := newTestEnv(t)
	p := testPartition()

	custFile := env.writeRaw(t, model.DatasetCustomers, p, []map[string]any{
		customerRecord(42, "ada@example.com"),
		customerRecord(43, "bob@example.com"),
	})
	require.NoError(t, env.pipeline.Run(context.Background(), model.DatasetCustomers, custFile))

	eraseFile := env.writeRaw(t, model.DatasetErasureRequests, p, []map[string]any{
		{"customer_id": 42, "email": "ada@example.com"},
		{"customer_id": 777, "email": "ghost@example.com"},
	})
	require.NoError(t, env.pipeline.Run(context.Background(), model.DatasetErasureRequests, eraseFile))

	var applied []repository.ErasureRequestEntity
	require.NoError(t, env.gorm.Find(&applied).Error)
	require.Len(t, applied, 1)
	assert.Equal(t, int64(42), applied[0].CustomerID)

	var invalid []repository.InvalidErasureRequestEntity
	require.NoError(t, env.gorm.Find(&invalid).Error)
	require.Len(t, invalid, 1)
	assert.Equal(t, "unknown customer_id: 777", invalid[0].ErrorMessage)

	// The processed customers file was scrubbed and archived.
	archived := filepath.Join(env.staging.ArchiveRoot, "processed", p.DateDir(), p.HourDir(), "customers.json.gz")
	got, err := extract.ReadRecords(archived)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, erasure.AnonymizeEmail("ada@example.com"), got[0]["email"])
	assert.Equal(t, "bob@example.com", got[1]["email"])
}

type flushFailGateway struct {
	gateway.Gateway
}

func (g *flushFailGateway) UpsertCanonical(ctx context.Context, kind model.DatasetType, accepted []*model.Decision, p model.Partition) error {
	return assert.AnError
}

func TestRunRecordsAttemptOnFlushFailure(t *testing.T) {
	env := newTestEnv(t)
	p := testPartition()

	gw := &flushFailGateway{Gateway: gateway.NewStore(env.db, nil)}
	eraser := erasure.NewProcessor(env.staging, repository.NewErasureRepository(env.db))
	pipe := New(env.staging, gw, router.New(rules.NewChecker(), 4), eraser, nil)

	records := make([]map[string]any, 0, 10)
	for i := 1; i <= 10; i++ {
		records = append(records, customerRecord(i, fmt.Sprintf("user%d@example.com", i)))
	}
	file := env.writeRaw(t, model.DatasetCustomers, p, records)

	err := pipe.Run(context.Background(), model.DatasetCustomers, file)
	require.Error(t, err)

	var canonical int64
	require.NoError(t, env.gorm.Model(&repository.CustomerEntity{}).Count(&canonical).Error)
	assert.Zero(t, canonical)

	// The attempt still accounts for every record it routed.
	var stats []repository.ProcessingStatisticsEntity
	require.NoError(t, env.gorm.Find(&stats).Error)
	require.Len(t, stats, 1)
	assert.Equal(t, 10, stats[0].RecordCount)

	// The raw file stays in place for the retry.
	_, err = os.Stat(file.Path)
	assert.NoError(t, err)
}

func TestRunAllProcessesEveryKind(t *testing.T) {
	env := newTestEnv(t)
	p := testPartition()

	env.writeRaw(t, model.DatasetCustomers, p, []map[string]any{customerRecord(1, "a@b.com")})
	env.writeRaw(t, model.DatasetProducts, p, []map[string]any{
		{"sku": 1001, "name": "Widget", "price": 9.99, "category": "home", "popularity": 0.5},
	})

	require.NoError(t, env.pipeline.RunAll(context.Background()))

	var stats []repository.ProcessingStatisticsEntity
	require.NoError(t, env.gorm.Find(&stats).Error)
	assert.Len(t, stats, 2)
}
