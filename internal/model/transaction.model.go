package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Transaction struct {
	TransactionID   uuid.UUID       `json:"transaction_id"`
	TransactionTime time.Time       `json:"transaction_time"`
	CustomerID      int64           `json:"customer_id"`
	DeliveryAddress DeliveryAddress `json:"delivery_address"`
	Purchases       Purchases       `json:"purchases"`
}

type DeliveryAddress struct {
	Address  string `json:"address"`
	Postcode string `json:"postcode"`
	City     string `json:"city"`
	Country  string `json:"country"`
}

// Purchases is the ordered set of line items plus the declared aggregate.
// TotalCost must equal the sum of line totals; the rule checker recomputes
// both with exact two-decimal arithmetic.
type Purchases struct {
	Products  []Purchase      `json:"products"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

type Purchase struct {
	SKU      int64           `json:"sku"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
}
