package model

import (
	"fmt"
	"time"
)

// DatasetType identifies one of the four ingested record kinds. Together
// with a Partition it forms the unit of batch accounting.
type DatasetType string

const (
	DatasetCustomers       DatasetType = "customers"
	DatasetTransactions    DatasetType = "transactions"
	DatasetProducts        DatasetType = "products"
	DatasetErasureRequests DatasetType = "erasure_requests"
)

// DatasetTypes lists every kind in processing order. Customers and products
// go first so the reference snapshot for transactions is as fresh as possible.
var DatasetTypes = []DatasetType{
	DatasetCustomers,
	DatasetProducts,
	DatasetTransactions,
	DatasetErasureRequests,
}

// FileName is the staging file base name for this kind ("erasure_requests"
// arrives as "erasure-requests" on disk, matching the upstream producer).
func (d DatasetType) FileName() string {
	if d == DatasetErasureRequests {
		return "erasure-requests"
	}
	return string(d)
}

// Partition is the batch key: one calendar date plus one hour of day.
type Partition struct {
	Date time.Time // midnight, date component only
	Hour int       // 0-23
}

func NewPartition(date time.Time, hour int) Partition {
	y, m, d := date.Date()
	return Partition{Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Hour: hour}
}

// DateDir and HourDir mirror the staging directory layout
// ("date=2024-01-07/hour=09").
func (p Partition) DateDir() string { return "date=" + p.Date.Format("2006-01-02") }
func (p Partition) HourDir() string { return fmt.Sprintf("hour=%02d", p.Hour) }

func (p Partition) String() string {
	return p.DateDir() + "/" + p.HourDir()
}
