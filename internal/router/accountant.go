package router

import (
	"context"
	"sync"
	"time"

	"github.com/novin-data/ingest-gateway/internal/model"
)

// StatisticsWriter persists one accounting row. The accountant is its only
// caller.
type StatisticsWriter interface {
	InsertStatistics(ctx context.Context, stats *model.ProcessingStatistics) error
}

// Accountant wraps a batch run with timing and record-count accounting.
type Accountant struct {
	stats StatisticsWriter
}

func NewAccountant(stats StatisticsWriter) *Accountant {
	return &Accountant{stats: stats}
}

// Begin starts the monotonic timer for one (kind, partition) run attempt.
// Call it before the first record is routed.
func (a *Accountant) Begin(kind model.DatasetType, partition model.Partition) *Run {
	return &Run{
		accountant: a,
		kind:       kind,
		partition:  partition,
		start:      time.Now(),
	}
}

// Run is a single batch attempt. Complete writes exactly one statistics row
// no matter how many times it is called; aborted batches call it with the
// partial count so accounting is never silently dropped.
type Run struct {
	accountant *Accountant
	kind       model.DatasetType
	partition  model.Partition
	start      time.Time
	once       sync.Once
}

func (r *Run) Complete(ctx context.Context, recordCount int) error {
	var err error
	r.once.Do(func() {
		err = r.accountant.stats.InsertStatistics(ctx, &model.ProcessingStatistics{
			DatasetType:    r.kind,
			RecordDate:     r.partition.Date,
			RecordHour:     r.partition.Hour,
			RecordCount:    recordCount,
			ProcessingTime: time.Since(r.start),
		})
	})
	return err
}
