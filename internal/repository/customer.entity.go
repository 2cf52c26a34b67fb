package repository

import (
	"time"

	"github.com/novin-data/ingest-gateway/internal/model"
)

type CustomerEntity struct {
	ID          int64     `db:"id"            gorm:"primaryKey;column:id"`
	RecordDate  time.Time `db:"record_date"   gorm:"column:record_date;not null"`
	RecordHour  int       `db:"record_hour"   gorm:"column:record_hour;not null"`
	FirstName   string    `db:"first_name"    gorm:"column:first_name;not null"`
	LastName    string    `db:"last_name"     gorm:"column:last_name;not null"`
	Email       string    `db:"email"         gorm:"column:email;not null"`
	DateOfBirth *string   `db:"date_of_birth" gorm:"column:date_of_birth"`
	PhoneNumber *string   `db:"phone_number"  gorm:"column:phone_number"`
	Address     string    `db:"address"       gorm:"column:address"`
	City        string    `db:"city"          gorm:"column:city"`
	Country     string    `db:"country"       gorm:"column:country"`
	Postcode    string    `db:"postcode"      gorm:"column:postcode"`
	Segment     *string   `db:"segment"       gorm:"column:segment"`
	LastChange  time.Time `db:"last_change"   gorm:"column:last_change"`
	ProcessedAt time.Time `db:"processed_at"  gorm:"column:processed_at"`
}

func (CustomerEntity) TableName() string { return "customers" }

// InvalidCustomerEntity is the append-only quarantine counterpart. The same
// customer id may recur across batches, so the row carries its own key.
type InvalidCustomerEntity struct {
	ID           int64     `db:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	RecordDate   time.Time `db:"record_date"   gorm:"column:record_date;not null"`
	RecordHour   int       `db:"record_hour"   gorm:"column:record_hour;not null"`
	CustomerID   int64     `db:"customer_id"   gorm:"column:customer_id"`
	FirstName    string    `db:"first_name"    gorm:"column:first_name"`
	LastName     string    `db:"last_name"     gorm:"column:last_name"`
	Email        string    `db:"email"         gorm:"column:email"`
	ErrorMessage string    `db:"error_message" gorm:"column:error_message;not null"`
	CreatedAt    time.Time `db:"created_at"    gorm:"column:created_at;autoCreateTime"`
}

func (InvalidCustomerEntity) TableName() string { return "invalid_customers" }

func toCustomerEntity(m *model.Customer, p model.Partition, processedAt time.Time) *CustomerEntity {
	if m == nil {
		return nil
	}
	return &CustomerEntity{
		ID:          m.ID,
		RecordDate:  p.Date,
		RecordHour:  p.Hour,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		Email:       m.Email,
		DateOfBirth: m.DateOfBirth,
		PhoneNumber: m.PhoneNumber,
		Address:     m.Address,
		City:        m.City,
		Country:     m.Country,
		Postcode:    m.Postcode,
		Segment:     m.Segment,
		LastChange:  m.LastChange,
		ProcessedAt: processedAt,
	}
}

func toInvalidCustomerEntity(raw map[string]any, reason string, p model.Partition) *InvalidCustomerEntity {
	return &InvalidCustomerEntity{
		RecordDate:   p.Date,
		RecordHour:   p.Hour,
		CustomerID:   rawInt64(raw, "id"),
		FirstName:    rawString(raw, "first_name"),
		LastName:     rawString(raw, "last_name"),
		Email:        rawString(raw, "email"),
		ErrorMessage: reason,
	}
}
