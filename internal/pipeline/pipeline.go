// Package pipeline drives a complete ingest cycle: discover staged
// partitions, route their records, flush the decisions atomically, account
// for the batch and move the consumed files out of staging.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/novin-data/ingest-gateway/internal/erasure"
	"github.com/novin-data/ingest-gateway/internal/extract"
	"github.com/novin-data/ingest-gateway/internal/gateway"
	"github.com/novin-data/ingest-gateway/internal/model"
	"github.com/novin-data/ingest-gateway/internal/router"
	"github.com/novin-data/ingest-gateway/pkg/logger"
	"github.com/novin-data/ingest-gateway/pkg/prom"
)

// ErrReferenceUnavailable marks a batch that never started because the
// reference snapshot could not be read. The raw file stays in place for the
// next cycle.
var ErrReferenceUnavailable = errors.New("reference snapshot unavailable")

type Pipeline struct {
	staging *extract.Staging
	gw      gateway.Gateway
	router  *router.Router
	acct    *router.Accountant
	erasure *erasure.Processor
	cache   *gateway.RefCache // nil when caching is off
}

func New(staging *extract.Staging, gw gateway.Gateway, r *router.Router, er *erasure.Processor, cache *gateway.RefCache) *Pipeline {
	return &Pipeline{
		staging: staging,
		gw:      gw,
		router:  r,
		acct:    router.NewAccountant(gw),
		erasure: er,
		cache:   cache,
	}
}

// RunAll processes every staged partition of every dataset, customers and
// products first so that the reference sets a later dataset checks against
// include anything ingested this cycle. A failed partition is logged and
// left in staging; the cycle moves on.
func (p *Pipeline) RunAll(ctx context.Context) error {
	for _, kind := range model.DatasetTypes {
		files, err := p.staging.DiscoverPartitions(kind)
		if err != nil {
			return errors.Wrapf(err, "discover %s partitions", kind)
		}
		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := p.Run(ctx, kind, file); err != nil {
				prom.IncBatchFailure(string(kind))
				logger.Error("batch failed", "kind", string(kind),
					"partition", file.Partition.String(), "error", err)
			}
		}
	}
	return nil
}

// Run processes one staged partition file end to end. Exactly one
// statistics row is written per attempt, counting every record read from the
// file regardless of destination. The raw file is archived only after the
// decisions are durably flushed.
func (p *Pipeline) Run(ctx context.Context, kind model.DatasetType, file extract.PartitionFile) error {
	start := time.Now()
	run := p.acct.Begin(kind, file.Partition)

	refs, err := p.gw.Snapshot(ctx)
	if err != nil {
		if cerr := run.Complete(ctx, 0); cerr != nil {
			logger.Error("statistics write failed", "error", cerr)
		}
		return errors.Wrap(ErrReferenceUnavailable, err.Error())
	}

	records, err := extract.ReadRecords(file.Path)
	if err != nil {
		if cerr := run.Complete(ctx, 0); cerr != nil {
			logger.Error("statistics write failed", "error", cerr)
		}
		return errors.Wrapf(err, "read %s", file.Path)
	}

	decisions, err := p.router.RouteBatch(ctx, records, kind, refs)
	if err != nil {
		// Cancelled mid-batch; account for the attempt anyway.
		if cerr := run.Complete(context.WithoutCancel(ctx), 0); cerr != nil {
			logger.Error("statistics write failed", "error", cerr)
		}
		return err
	}
	accepted, rejected := split(decisions)

	err = p.gw.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := p.gw.UpsertCanonical(ctx, kind, accepted, file.Partition); err != nil {
			return err
		}
		return p.gw.InsertQuarantine(ctx, kind, rejected, file.Partition)
	})
	if err != nil {
		// Routing already finished, so the attempt still accounts for
		// every record it read.
		if cerr := run.Complete(ctx, len(records)); cerr != nil {
			logger.Error("statistics write failed", "error", cerr)
		}
		return errors.Wrapf(err, "flush %s %s", kind, file.Partition.String())
	}
	p.invalidateReferences(kind)

	if err := run.Complete(ctx, len(records)); err != nil {
		return errors.Wrap(err, "write statistics")
	}

	prom.AddRecordsRouted(float64(len(accepted)), string(kind), model.DestinationCanonical.String())
	prom.AddRecordsRouted(float64(len(rejected)), string(kind), model.DestinationQuarantine.String())
	prom.ObserveBatchDuration(time.Since(start).Seconds(), string(kind))

	if err := p.staging.WriteProcessed(rawsOf(accepted), kind, file.Partition); err != nil {
		return errors.Wrap(err, "write processed file")
	}

	if kind == model.DatasetErasureRequests && p.erasure != nil {
		p.erasure.ApplyAll(ctx, accepted)
		prom.AddRecordsErased(float64(len(accepted)))
	}

	if err := p.staging.ArchiveRaw(file.Path, file.Partition); err != nil {
		return errors.Wrap(err, "archive raw file")
	}

	logger.Info("batch complete",
		"kind", string(kind),
		"partition", file.Partition.String(),
		"total", len(records),
		"accepted", len(accepted),
		"quarantined", len(rejected),
		"elapsed", time.Since(start).String())
	return nil
}

// invalidateReferences drops the cached identity set for datasets that feed
// referential checks. Other datasets never populate the cache.
func (p *Pipeline) invalidateReferences(kind model.DatasetType) {
	if p.cache == nil {
		return
	}
	if kind == model.DatasetCustomers || kind == model.DatasetProducts {
		p.cache.Invalidate(kind)
	}
}

func split(decisions []model.Decision) (accepted, rejected []*model.Decision) {
	for i := range decisions {
		d := &decisions[i]
		switch d.Destination {
		case model.DestinationCanonical:
			accepted = append(accepted, d)
		case model.DestinationQuarantine:
			rejected = append(rejected, d)
		default:
			// Unreachable as long as the router yields a destination for
			// every record.
			panic(fmt.Sprintf("record %d has no destination", i))
		}
	}
	return accepted, rejected
}

func rawsOf(decisions []*model.Decision) []map[string]any {
	raws := make([]map[string]any, len(decisions))
	for i, d := range decisions {
		raws[i] = d.Raw
	}
	return raws
}
