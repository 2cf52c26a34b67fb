package router

import (
	"context"
	"fmt"

	"github.com/novin-data/ingest-gateway/internal/model"
	"github.com/novin-data/ingest-gateway/internal/rules"
	"github.com/novin-data/ingest-gateway/internal/schema"
	"github.com/novin-data/ingest-gateway/pkg/worker"
)

// Router owns the accept/reject decision. Structural validation runs first,
// then the semantic rules; the first failure quarantines the record with its
// reason, otherwise the typed record is accepted into canonical storage.
type Router struct {
	checker     *rules.Checker
	parallelism int
}

func New(checker *rules.Checker, parallelism int) *Router {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Router{checker: checker, parallelism: parallelism}
}

// Route decides one raw record. Pure given its inputs: refs is read-only and
// the raw map is never mutated.
func (r *Router) Route(raw map[string]any, kind model.DatasetType, refs *rules.References) model.Decision {
	desc, err := schema.ForKind(kind)
	if err != nil {
		return quarantine(raw, err.Error())
	}
	if err := desc.Validate(raw); err != nil {
		return quarantine(raw, err.Error())
	}

	record, err := bindRecord(raw, kind)
	if err != nil {
		return quarantine(raw, fmt.Sprintf("malformed record: %v", err))
	}

	if err := r.checker.Check(record, refs); err != nil {
		return quarantine(raw, err.Error())
	}

	return model.Decision{Destination: model.DestinationCanonical, Raw: raw, Record: record}
}

type routeJob struct {
	index int
	raw   map[string]any
}

// RouteBatch decides every record of a batch, preserving input order. Records
// are validated in parallel; duplicates within the batch are decided
// independently (identity conflicts resolve at the storage layer). Returns
// ctx.Err() and no decisions when cancelled mid-batch.
func (r *Router) RouteBatch(ctx context.Context, raws []map[string]any, kind model.DatasetType, refs *rules.References) ([]model.Decision, error) {
	decisions := make([]model.Decision, len(raws))

	pool := worker.NewPool(r.parallelism, len(raws))
	pool.SetHandler(func(_ int, job interface{}) {
		j := job.(routeJob)
		if ctx.Err() != nil {
			return
		}
		decisions[j.index] = r.Route(j.raw, kind, refs)
	})
	pool.Start()
	for i, raw := range raws {
		pool.Enqueue(routeJob{index: i, raw: raw})
	}
	pool.Wait()
	pool.Stop()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return decisions, nil
}

func bindRecord(raw map[string]any, kind model.DatasetType) (any, error) {
	switch kind {
	case model.DatasetCustomers:
		var c model.Customer
		if err := model.Bind(raw, &c); err != nil {
			return nil, err
		}
		return &c, nil
	case model.DatasetTransactions:
		var t model.Transaction
		if err := model.Bind(raw, &t); err != nil {
			return nil, err
		}
		return &t, nil
	case model.DatasetProducts:
		var p model.Product
		if err := model.Bind(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	case model.DatasetErasureRequests:
		var e model.ErasureRequest
		if err := model.Bind(raw, &e); err != nil {
			return nil, err
		}
		return &e, nil
	}
	return nil, fmt.Errorf("unsupported dataset type %q", kind)
}

func quarantine(raw map[string]any, reason string) model.Decision {
	return model.Decision{Destination: model.DestinationQuarantine, Raw: raw, Reason: reason}
}
