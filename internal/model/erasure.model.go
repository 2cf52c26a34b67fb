package model

// ErasureRequest is a data-subject deletion request. Applying one records
// the intent; the actual anonymization of historical data is a separate
// step keyed off the applied request.
type ErasureRequest struct {
	CustomerID int64  `json:"customer_id"`
	Email      string `json:"email"`
}
