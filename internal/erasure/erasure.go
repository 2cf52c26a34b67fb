// Package erasure applies data-subject deletion requests after the router
// has validated them. Routing a request only records the intent; the
// processor here carries out the anonymization pass over the processed data
// files for the subject's original partition.
package erasure

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/novin-data/ingest-gateway/internal/extract"
	"github.com/novin-data/ingest-gateway/internal/model"
	"github.com/novin-data/ingest-gateway/pkg/logger"
)

// PartitionLocator reports which partition a customer's canonical row was
// ingested in, so the matching processed file can be found.
type PartitionLocator interface {
	PartitionFor(ctx context.Context, customerID int64) (model.Partition, bool, error)
}

// Processor anonymizes the processed customer data for applied erasure
// requests. Failures are logged and never abort the batch: the request is
// already durably recorded, and the next compaction pass can retry.
type Processor struct {
	staging *extract.Staging
	locator PartitionLocator
}

func NewProcessor(staging *extract.Staging, locator PartitionLocator) *Processor {
	return &Processor{staging: staging, locator: locator}
}

// ApplyAll runs the anonymization pass for every accepted request decision.
func (p *Processor) ApplyAll(ctx context.Context, accepted []*model.Decision) {
	for _, d := range accepted {
		req, ok := d.Record.(*model.ErasureRequest)
		if !ok {
			continue
		}
		if err := p.apply(ctx, req); err != nil {
			logger.Error("erasure anonymization failed", "customer_id", req.CustomerID, "error", err)
		}
	}
}

func (p *Processor) apply(ctx context.Context, req *model.ErasureRequest) error {
	partition, found, err := p.locator.PartitionFor(ctx, req.CustomerID)
	if err != nil {
		return err
	}
	if !found {
		// Subject passed the reference check but the canonical row is gone;
		// nothing on disk to scrub.
		logger.Warn("no canonical partition for erasure subject", "customer_id", req.CustomerID)
		return nil
	}

	path, ok := p.staging.ProcessedFile(model.DatasetCustomers, partition)
	if !ok {
		logger.Debug("no processed file for partition", "partition", partition.String())
		return nil
	}

	records, err := extract.ReadRecords(path)
	if err != nil {
		return err
	}

	hashed := AnonymizeEmail(req.Email)
	changed := false
	for _, record := range records {
		if recordID(record) == req.CustomerID {
			record["email"] = hashed
			changed = true
		}
	}
	if !changed {
		return nil
	}

	if err := extract.RewriteRecords(path, records); err != nil {
		return err
	}
	// The scrubbed file moves to the archive, same as consumed raw files.
	if err := p.staging.ArchiveProcessed(path, partition); err != nil {
		return err
	}
	logger.Info("anonymized processed data for erasure subject",
		"customer_id", req.CustomerID, "partition", partition.String())
	return nil
}

// AnonymizeEmail is the irreversible replacement for an erased subject's
// email: the SHA-256 hex digest of the original value.
func AnonymizeEmail(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}

func recordID(record map[string]any) int64 {
	switch v := record["id"].(type) {
	case json.Number:
		n, _ := v.Int64()
		return n
	case float64:
		return int64(v)
	}
	return 0
}
