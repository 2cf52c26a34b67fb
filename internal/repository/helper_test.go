package repository

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/novin-data/ingest-gateway/pkg/pg"
)

// newTestDB opens an in-memory sqlite database, migrates every entity and
// wires it into a pg.DB as both the read and write handle.
func newTestDB(t *testing.T) *pg.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&CustomerEntity{},
		&InvalidCustomerEntity{},
		&ProductEntity{},
		&InvalidProductEntity{},
		&TransactionEntity{},
		&DeliveryAddressEntity{},
		&PurchaseEntity{},
		&InvalidTransactionEntity{},
		&ErasureRequestEntity{},
		&InvalidErasureRequestEntity{},
		&ProcessingStatisticsEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	v := reflect.ValueOf(pgDB).Elem()
	for _, name := range []string{"read", "write"} {
		field := v.FieldByName(name)
		field = reflect.NewAt(field.Type(), field.Addr().UnsafePointer()).Elem()
		field.Set(reflect.ValueOf(db))
	}
	return pgDB
}
