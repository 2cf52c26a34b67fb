package model

import "github.com/shopspring/decimal"

type Product struct {
	SKU        int64           `json:"sku"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Category   string          `json:"category"`
	Popularity float64         `json:"popularity"`
}
