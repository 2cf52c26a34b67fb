package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/novin-data/ingest-gateway/internal/model"
)

type TransactionEntity struct {
	TransactionID   string    `db:"transaction_id"   gorm:"primaryKey;column:transaction_id;type:uuid"`
	TransactionTime time.Time `db:"transaction_time" gorm:"column:transaction_time;not null"`
	CustomerID      int64     `db:"customer_id"      gorm:"column:customer_id;not null;index"`
	RecordDate      time.Time `db:"record_date"      gorm:"column:record_date;not null"`
	RecordHour      int       `db:"record_hour"      gorm:"column:record_hour;not null"`
	ProcessedAt     time.Time `db:"processed_at"     gorm:"column:processed_at"`
}

func (TransactionEntity) TableName() string { return "transactions" }

type DeliveryAddressEntity struct {
	TransactionID string `db:"transaction_id" gorm:"primaryKey;column:transaction_id;type:uuid"`
	Address       string `db:"address"        gorm:"column:address;not null"`
	Postcode      string `db:"postcode"       gorm:"column:postcode;not null"`
	City          string `db:"city"           gorm:"column:city;not null"`
	Country       string `db:"country"        gorm:"column:country;not null"`
}

func (DeliveryAddressEntity) TableName() string { return "delivery_addresses" }

type PurchaseEntity struct {
	ID            int64           `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	TransactionID string          `db:"transaction_id" gorm:"column:transaction_id;type:uuid;not null;index"`
	ProductSKU    int64           `db:"product_sku"    gorm:"column:product_sku;not null"`
	Quantity      int64           `db:"quantity"       gorm:"column:quantity;not null"`
	Price         decimal.Decimal `db:"price"          gorm:"column:price;type:numeric(12,2);not null"`
	Total         decimal.Decimal `db:"total"          gorm:"column:total;type:numeric(12,2);not null"`
	TotalCost     decimal.Decimal `db:"total_cost"     gorm:"column:total_cost;type:numeric(12,2);not null"`
}

func (PurchaseEntity) TableName() string { return "purchases" }

type InvalidTransactionEntity struct {
	ID            int64     `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	RecordDate    time.Time `db:"record_date"    gorm:"column:record_date;not null"`
	RecordHour    int       `db:"record_hour"    gorm:"column:record_hour;not null"`
	TransactionID string    `db:"transaction_id" gorm:"column:transaction_id"`
	CustomerID    int64     `db:"customer_id"    gorm:"column:customer_id"`
	ErrorMessage  string    `db:"error_message"  gorm:"column:error_message;not null"`
	CreatedAt     time.Time `db:"created_at"     gorm:"column:created_at;autoCreateTime"`
}

func (InvalidTransactionEntity) TableName() string { return "invalid_transactions" }

func toTransactionEntity(m *model.Transaction, p model.Partition, processedAt time.Time) *TransactionEntity {
	return &TransactionEntity{
		TransactionID:   m.TransactionID.String(),
		TransactionTime: m.TransactionTime,
		CustomerID:      m.CustomerID,
		RecordDate:      p.Date,
		RecordHour:      p.Hour,
		ProcessedAt:     processedAt,
	}
}

func toDeliveryAddressEntity(m *model.Transaction) *DeliveryAddressEntity {
	return &DeliveryAddressEntity{
		TransactionID: m.TransactionID.String(),
		Address:       m.DeliveryAddress.Address,
		Postcode:      m.DeliveryAddress.Postcode,
		City:          m.DeliveryAddress.City,
		Country:       m.DeliveryAddress.Country,
	}
}

func toPurchaseEntities(m *model.Transaction) []*PurchaseEntity {
	entities := make([]*PurchaseEntity, len(m.Purchases.Products))
	for i, line := range m.Purchases.Products {
		entities[i] = &PurchaseEntity{
			TransactionID: m.TransactionID.String(),
			ProductSKU:    line.SKU,
			Quantity:      line.Quantity,
			Price:         line.Price,
			Total:         line.Total,
			TotalCost:     m.Purchases.TotalCost,
		}
	}
	return entities
}

func toInvalidTransactionEntity(raw map[string]any, reason string, p model.Partition) *InvalidTransactionEntity {
	return &InvalidTransactionEntity{
		RecordDate:    p.Date,
		RecordHour:    p.Hour,
		TransactionID: rawString(raw, "transaction_id"),
		CustomerID:    rawInt64(raw, "customer_id"),
		ErrorMessage:  reason,
	}
}
