package repository

import (
	"time"

	"github.com/novin-data/ingest-gateway/internal/model"
)

// ErasureRequestEntity is keyed by customer_id, so duplicate requests for
// the same subject collapse into a no-op overwrite.
type ErasureRequestEntity struct {
	CustomerID  int64     `db:"customer_id"  gorm:"primaryKey;column:customer_id"`
	Email       string    `db:"email"        gorm:"column:email;not null"`
	RecordDate  time.Time `db:"record_date"  gorm:"column:record_date;not null"`
	RecordHour  int       `db:"record_hour"  gorm:"column:record_hour;not null"`
	ProcessedAt time.Time `db:"processed_at" gorm:"column:processed_at"`
}

func (ErasureRequestEntity) TableName() string { return "erasure_requests" }

type InvalidErasureRequestEntity struct {
	ID           int64     `db:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	RecordDate   time.Time `db:"record_date"   gorm:"column:record_date;not null"`
	RecordHour   int       `db:"record_hour"   gorm:"column:record_hour;not null"`
	CustomerID   int64     `db:"customer_id"   gorm:"column:customer_id"`
	Email        string    `db:"email"         gorm:"column:email"`
	ErrorMessage string    `db:"error_message" gorm:"column:error_message;not null"`
	CreatedAt    time.Time `db:"created_at"    gorm:"column:created_at;autoCreateTime"`
}

func (InvalidErasureRequestEntity) TableName() string { return "invalid_erasure_requests" }

func toErasureRequestEntity(m *model.ErasureRequest, p model.Partition, processedAt time.Time) *ErasureRequestEntity {
	return &ErasureRequestEntity{
		CustomerID:  m.CustomerID,
		Email:       m.Email,
		RecordDate:  p.Date,
		RecordHour:  p.Hour,
		ProcessedAt: processedAt,
	}
}

func toInvalidErasureRequestEntity(raw map[string]any, reason string, p model.Partition) *InvalidErasureRequestEntity {
	return &InvalidErasureRequestEntity{
		RecordDate:   p.Date,
		RecordHour:   p.Hour,
		CustomerID:   rawInt64(raw, "customer_id"),
		Email:        rawString(raw, "email"),
		ErrorMessage: reason,
	}
}
