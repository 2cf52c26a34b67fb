package model

import (
	"encoding/json"
	"time"
)

// Destination is where a routed record lands. Every record gets exactly one.
type Destination int

const (
	DestinationCanonical Destination = iota
	DestinationQuarantine
)

func (d Destination) String() string {
	if d == DestinationCanonical {
		return "canonical"
	}
	return "quarantine"
}

// Decision is the router's verdict for a single raw record. Record holds the
// typed form (one of *Customer, *Transaction, *Product, *ErasureRequest) when
// the destination is canonical; Reason is set only for quarantine.
type Decision struct {
	Destination Destination
	Raw         map[string]any
	Record      any
	Reason      string
}

// ProcessingStatistics is one accounting row per (dataset type, date, hour)
// per run attempt.
type ProcessingStatistics struct {
	DatasetType    DatasetType
	RecordDate     time.Time
	RecordHour     int
	RecordCount    int
	ProcessingTime time.Duration
}

// Bind decodes a raw record into its typed form through a JSON round trip.
// Raw values carry json.Number, so decimal fields are parsed without float
// drift. Only structurally valid records should be bound.
func Bind(raw map[string]any, dst any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
