package rules

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/novin-data/ingest-gateway/internal/model"
	"github.com/novin-data/ingest-gateway/pkg/logger"
)

// References is the read-only identity snapshot for one batch window. It is
// built once per run by the storage gateway and never mutated by checks, so
// concurrent batches and tests can hold isolated fixtures.
type References struct {
	Customers map[int64]struct{}
	Products  map[int64]struct{}
}

func (r *References) HasCustomer(id int64) bool {
	_, ok := r.Customers[id]
	return ok
}

func (r *References) HasProduct(sku int64) bool {
	_, ok := r.Products[sku]
	return ok
}

// RuleError reports the first violated business rule.
type RuleError struct {
	Rule   string
	Reason string
}

func (e *RuleError) Error() string { return e.Reason }

// Checker applies the per-kind semantic rules to structurally valid records.
// Unknown purchase SKUs are tolerated: products may be loaded separately and
// the source tables carry no foreign key on product_sku, so a miss is logged
// as a warning instead of rejecting the transaction.
type Checker struct{}

func NewChecker() *Checker { return &Checker{} }

// Check dispatches on the typed record. refs may be consulted but is never
// modified.
func (c *Checker) Check(record any, refs *References) error {
	switch r := record.(type) {
	case *model.Customer:
		return c.CheckCustomer(r)
	case *model.Transaction:
		return c.CheckTransaction(r, refs)
	case *model.Product:
		return c.CheckProduct(r)
	case *model.ErasureRequest:
		return c.CheckErasureRequest(r, refs)
	}
	return fmt.Errorf("no semantic rules for record type %T", record)
}

func (c *Checker) CheckCustomer(cust *model.Customer) error {
	local, domain, ok := strings.Cut(cust.Email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return &RuleError{
			Rule:   "email_format",
			Reason: fmt.Sprintf("invalid email %q: expected exactly one @ with non-empty local and domain parts", cust.Email),
		}
	}
	return nil
}

func (c *Checker) CheckTransaction(tx *model.Transaction, refs *References) error {
	if !refs.HasCustomer(tx.CustomerID) {
		return &RuleError{
			Rule:   "customer_reference",
			Reason: fmt.Sprintf("unknown customer_id: %d", tx.CustomerID),
		}
	}

	sum := decimal.Zero
	for _, line := range tx.Purchases.Products {
		if !refs.HasProduct(line.SKU) {
			logger.Warn("purchase references unknown product sku",
				"transaction_id", tx.TransactionID.String(), "sku", line.SKU)
		}
		expected := line.Price.Mul(decimal.NewFromInt(line.Quantity)).Round(2)
		if !expected.Equal(line.Total) {
			return &RuleError{
				Rule: "line_total",
				Reason: fmt.Sprintf("line total mismatch for sku %d: declared %s, expected %s",
					line.SKU, line.Total.StringFixed(2), expected.StringFixed(2)),
			}
		}
		sum = sum.Add(expected)
	}
	if !sum.Round(2).Equal(tx.Purchases.TotalCost) {
		return &RuleError{
			Rule: "total_cost",
			Reason: fmt.Sprintf("total_cost mismatch: declared %s, expected %s",
				tx.Purchases.TotalCost.StringFixed(2), sum.StringFixed(2)),
		}
	}
	return nil
}

func (c *Checker) CheckProduct(p *model.Product) error {
	if p.Popularity <= 0 {
		return &RuleError{
			Rule:   "popularity_range",
			Reason: fmt.Sprintf("popularity must be greater than zero, got %v", p.Popularity),
		}
	}
	if p.Price.IsNegative() {
		return &RuleError{
			Rule:   "price_range",
			Reason: fmt.Sprintf("price must not be negative, got %s", p.Price.StringFixed(2)),
		}
	}
	return nil
}

func (c *Checker) CheckErasureRequest(req *model.ErasureRequest, refs *References) error {
	if !refs.HasCustomer(req.CustomerID) {
		return &RuleError{
			Rule:   "erasure_subject",
			Reason: fmt.Sprintf("unknown customer_id: %d", req.CustomerID),
		}
	}
	return nil
}
