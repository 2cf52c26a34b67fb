package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/novin-data/ingest-gateway/internal/model"
)

type ProductEntity struct {
	SKU         int64           `db:"sku"          gorm:"primaryKey;column:sku"`
	RecordDate  time.Time       `db:"record_date"  gorm:"column:record_date;not null"`
	RecordHour  int             `db:"record_hour"  gorm:"column:record_hour;not null"`
	Name        string          `db:"name"         gorm:"column:name;not null"`
	Price       decimal.Decimal `db:"price"        gorm:"column:price;type:numeric(12,2);not null"`
	Category    string          `db:"category"     gorm:"column:category;not null"`
	Popularity  float64         `db:"popularity"   gorm:"column:popularity;not null"`
	ProcessedAt time.Time       `db:"processed_at" gorm:"column:processed_at"`
}

func (ProductEntity) TableName() string { return "products" }

type InvalidProductEntity struct {
	ID           int64     `db:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	RecordDate   time.Time `db:"record_date"   gorm:"column:record_date;not null"`
	RecordHour   int       `db:"record_hour"   gorm:"column:record_hour;not null"`
	SKU          int64     `db:"sku"           gorm:"column:sku"`
	Name         string    `db:"name"          gorm:"column:name"`
	Price        string    `db:"price"         gorm:"column:price"`
	Category     string    `db:"category"      gorm:"column:category"`
	Popularity   string    `db:"popularity"    gorm:"column:popularity"`
	ErrorMessage string    `db:"error_message" gorm:"column:error_message;not null"`
	CreatedAt    time.Time `db:"created_at"    gorm:"column:created_at;autoCreateTime"`
}

func (InvalidProductEntity) TableName() string { return "invalid_products" }

func toProductEntity(m *model.Product, p model.Partition, processedAt time.Time) *ProductEntity {
	return &ProductEntity{
		SKU:         m.SKU,
		RecordDate:  p.Date,
		RecordHour:  p.Hour,
		Name:        m.Name,
		Price:       m.Price,
		Category:    m.Category,
		Popularity:  m.Popularity,
		ProcessedAt: processedAt,
	}
}

// Invalid products keep price and popularity as the raw text they arrived
// with: a record may be quarantined exactly because they fail to parse.
func toInvalidProductEntity(raw map[string]any, reason string, p model.Partition) *InvalidProductEntity {
	return &InvalidProductEntity{
		RecordDate:   p.Date,
		RecordHour:   p.Hour,
		SKU:          rawInt64(raw, "sku"),
		Name:         rawString(raw, "name"),
		Price:        rawNumber(raw, "price"),
		Category:     rawString(raw, "category"),
		Popularity:   rawNumber(raw, "popularity"),
		ErrorMessage: reason,
	}
}
