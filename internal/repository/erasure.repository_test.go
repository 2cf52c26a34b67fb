package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novin-data/ingest-gateway/internal/model"
)

func TestErasureUpsertCollapsesDuplicates(t *testing.T) {
	db := newTestDB(t)
	repo := NewErasureRepository(db)
	ctx := context.Background()

	req := &model.ErasureRequest{CustomerID: 42, Email: "ada@example.com"}
	require.NoError(t, repo.Upsert(ctx, []*model.ErasureRequest{req}, testPartition()))
	require.NoError(t, repo.Upsert(ctx, []*model.ErasureRequest{req}, testPartition()))

	var rows []ErasureRequestEntity
	require.NoError(t, db.Read(ctx).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(42), rows[0].CustomerID)
	assert.False(t, rows[0].ProcessedAt.IsZero())
}

func TestErasurePartitionFor(t *testing.T) {
	db := newTestDB(t)
	customers := NewCustomerRepository(db)
	repo := NewErasureRepository(db)
	ctx := context.Background()

	p := model.NewPartition(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 14)
	require.NoError(t, customers.Upsert(ctx, []*model.Customer{{ID: 42, Email: "ada@example.com"}}, p))

	got, found, err := repo.PartitionFor(ctx, 42)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, p.Date, got.Date)
	assert.Equal(t, 14, got.Hour)

	_, found, err = repo.PartitionFor(ctx, 999)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStatisticsInsert(t *testing.T) {
	db := newTestDB(t)
	repo := NewStatisticsRepository(db)
	ctx := context.Background()

	err := repo.InsertStatistics(ctx, &model.ProcessingStatistics{
		DatasetType:    model.DatasetCustomers,
		RecordDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		RecordHour:     9,
		RecordCount:    120,
		ProcessingTime: 1500 * time.Millisecond,
	})
	require.NoError(t, err)

	var rows []ProcessingStatisticsEntity
	require.NoError(t, db.Read(ctx).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "customers", rows[0].DatasetType)
	assert.Equal(t, 120, rows[0].RecordCount)
	assert.Equal(t, int64(1500), rows[0].ProcessingTimeMs)
}
