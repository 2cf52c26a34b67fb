package erasure

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novin-data/ingest-gateway/internal/extract"
	"github.com/novin-data/ingest-gateway/internal/model"
)

type fakeLocator struct {
	partitions map[int64]model.Partition
}

func (f *fakeLocator) PartitionFor(_ context.Context, customerID int64) (model.Partition, bool, error) {
	p, ok := f.partitions[customerID]
	return p, ok, nil
}

func newTestStaging(t *testing.T) *extract.Staging {
	t.Helper()
	root := t.TempDir()
	return &extract.Staging{
		RawRoot:       filepath.Join(root, "raw"),
		ProcessedRoot: filepath.Join(root, "processed"),
		ArchiveRoot:   filepath.Join(root, "archive"),
	}
}

func accepted(req *model.ErasureRequest) *model.Decision {
	return &model.Decision{
		Destination: model.DestinationCanonical,
		Record:      req,
	}
}

func TestAnonymizeEmail(t *testing.T) {
	sum := sha256.Sum256([]byte("ada@example.com"))
	assert.Equal(t, hex.EncodeToString(sum[:]), AnonymizeEmail("ada@example.com"))
	assert.Len(t, AnonymizeEmail("anything"), 64)
}

func TestApplyAllRewritesProcessedFile(t *testing.T) {
	staging := newTestStaging(t)
	p := model.NewPartition(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 9)

	records := []map[string]any{
		{"id": json.Number("42"), "email": "ada@example.com", "first_name": "Ada"},
		{"id": json.Number("43"), "email": "bob@example.com", "first_name": "Bob"},
	}
	require.NoError(t, staging.WriteProcessed(records, model.DatasetCustomers, p))

	locator := &fakeLocator{partitions: map[int64]model.Partition{42: p}}
	proc := NewProcessor(staging, locator)

	proc.ApplyAll(context.Background(), []*model.Decision{
		accepted(&model.ErasureRequest{CustomerID: 42, Email: "ada@example.com"}),
	})

	// File moved to the archive after the rewrite.
	_, stillThere := staging.ProcessedFile(model.DatasetCustomers, p)
	assert.False(t, stillThere)

	archived := filepath.Join(staging.ArchiveRoot, "processed", p.DateDir(), p.HourDir(), "customers.json.gz")
	got, err := extract.ReadRecords(archived)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, AnonymizeEmail("ada@example.com"), got[0]["email"])
	assert.Equal(t, "bob@example.com", got[1]["email"])
	assert.Equal(t, "Ada", got[0]["first_name"])
}

func TestApplyAllNoProcessedFile(t *testing.T) {
	staging := newTestStaging(t)
	p := model.NewPartition(time.Now(), 3)

	locator := &fakeLocator{partitions: map[int64]model.Partition{7: p}}
	proc := NewProcessor(staging, locator)

	// Must not error or create anything.
	proc.ApplyAll(context.Background(), []*model.Decision{
		accepted(&model.ErasureRequest{CustomerID: 7, Email: "x@y.com"}),
	})

	_, err := os.Stat(staging.ArchiveRoot)
	assert.True(t, os.IsNotExist(err))
}

func TestApplyAllUnknownSubjectPartition(t *testing.T) {
	staging := newTestStaging(t)
	locator := &fakeLocator{partitions: map[int64]model.Partition{}}
	proc := NewProcessor(staging, locator)

	proc.ApplyAll(context.Background(), []*model.Decision{
		accepted(&model.ErasureRequest{CustomerID: 1, Email: "x@y.com"}),
	})
}
