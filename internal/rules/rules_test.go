package rules

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novin-data/ingest-gateway/internal/model"
)

func testRefs() *References {
	return &References{
		Customers: map[int64]struct{}{42: {}},
		Products:  map[int64]struct{}{1001: {}},
	}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validTransaction() *model.Transaction {
	return &model.Transaction{
		TransactionID: uuid.New(),
		CustomerID:    42,
		Purchases: model.Purchases{
			Products: []model.Purchase{
				{SKU: 1001, Quantity: 2, Price: money("10.00"), Total: money("20.00")},
				{SKU: 1001, Quantity: 1, Price: money("5.50"), Total: money("5.50")},
			},
			TotalCost: money("25.50"),
		},
	}
}

func TestCheckCustomerEmail(t *testing.T) {
	c := NewChecker()

	require.NoError(t, c.CheckCustomer(&model.Customer{Email: "ada@example.com"}))

	for _, email := range []string{"", "no-at-sign", "@example.com", "ada@", "a@b@c.com"} {
		err := c.CheckCustomer(&model.Customer{Email: email})
		require.Error(t, err, "email %q", email)
		var re *RuleError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, "email_format", re.Rule)
	}
}

func TestCheckTransactionValid(t *testing.T) {
	c := NewChecker()
	require.NoError(t, c.CheckTransaction(validTransaction(), testRefs()))
}

func TestCheckTransactionUnknownCustomer(t *testing.T) {
	c := NewChecker()
	tx := validTransaction()
	tx.CustomerID = 99

	err := c.CheckTransaction(tx, testRefs())
	require.Error(t, err)
	assert.Equal(t, "unknown customer_id: 99", err.Error())
}

func TestCheckTransactionUnknownSKUIsTolerated(t *testing.T) {
	c := NewChecker()
	tx := validTransaction()
	tx.Purchases.Products[0].SKU = 7777

	require.NoError(t, c.CheckTransaction(tx, testRefs()))
}

func TestCheckTransactionLineTotalMismatch(t *testing.T) {
	c := NewChecker()
	tx := validTransaction()
	tx.Purchases.Products[0].Total = money("19.99")

	err := c.CheckTransaction(tx, testRefs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line total mismatch for sku 1001")
	assert.Contains(t, err.Error(), "declared 19.99, expected 20.00")
}

func TestCheckTransactionTotalCostMismatch(t *testing.T) {
	c := NewChecker()
	tx := validTransaction()
	tx.Purchases.TotalCost = money("26.50")

	err := c.CheckTransaction(tx, testRefs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total_cost mismatch: declared 26.50, expected 25.50")
}

func TestCheckProductPopularity(t *testing.T) {
	c := NewChecker()

	require.NoError(t, c.CheckProduct(&model.Product{Popularity: 0.0001, Price: money("1.00")}))

	err := c.CheckProduct(&model.Product{Popularity: 0, Price: money("1.00")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "popularity must be greater than zero")

	err = c.CheckProduct(&model.Product{Popularity: -1, Price: money("1.00")})
	require.Error(t, err)
}

func TestCheckProductNegativePrice(t *testing.T) {
	c := NewChecker()
	err := c.CheckProduct(&model.Product{Popularity: 0.5, Price: money("-0.01")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price must not be negative")
}

func TestCheckErasureRequest(t *testing.T) {
	c := NewChecker()

	require.NoError(t, c.CheckErasureRequest(&model.ErasureRequest{CustomerID: 42}, testRefs()))

	err := c.CheckErasureRequest(&model.ErasureRequest{CustomerID: 7}, testRefs())
	require.Error(t, err)
	assert.Equal(t, "unknown customer_id: 7", err.Error())
}
