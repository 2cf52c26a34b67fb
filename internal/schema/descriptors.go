package schema

import (
	"fmt"

	"github.com/novin-data/ingest-gateway/internal/model"
)

var customerDescriptor = Descriptor{
	Kind: string(model.DatasetCustomers),
	Fields: map[string]Field{
		"id":            {Type: Integer, Required: true},
		"first_name":    {Type: String, Required: true},
		"last_name":     {Type: String, Required: true},
		"email":         {Type: String, Required: true},
		"date_of_birth": {Type: Date, Nullable: true},
		"phone_number":  {Type: String, Nullable: true},
		"address":       {Type: String, Required: true},
		"city":          {Type: String, Required: true},
		"country":       {Type: String, Required: true},
		"postcode":      {Type: String, Required: true},
		"last_change":   {Type: DateTime, Required: true},
		"segment":       {Type: String, Nullable: true},
	},
}

var transactionDescriptor = Descriptor{
	Kind: string(model.DatasetTransactions),
	Fields: map[string]Field{
		"transaction_id":   {Type: UUID, Required: true},
		"transaction_time": {Type: DateTime, Required: true},
		"customer_id":      {Type: Integer, Required: true},
		"delivery_address": {Type: Object, Required: true, Fields: map[string]Field{
			"address":  {Type: String, Required: true},
			"postcode": {Type: String, Required: true},
			"city":     {Type: String, Required: true},
			"country":  {Type: String, Required: true},
		}},
		"purchases": {Type: Object, Required: true, Fields: map[string]Field{
			"products": {Type: Array, Required: true, Elem: &Field{Type: Object, Fields: map[string]Field{
				"sku":      {Type: Integer, Required: true},
				"quantity": {Type: Integer, Required: true},
				"price":    {Type: Number, Required: true},
				"total":    {Type: Number, Required: true},
			}}},
			"total_cost": {Type: Number, Required: true},
		}},
	},
}

var productDescriptor = Descriptor{
	Kind: string(model.DatasetProducts),
	Fields: map[string]Field{
		"sku":        {Type: Integer, Required: true},
		"name":       {Type: String, Required: true},
		"price":      {Type: Number, Required: true},
		"category":   {Type: String, Required: true},
		"popularity": {Type: Number, Required: true},
	},
}

var erasureRequestDescriptor = Descriptor{
	Kind: string(model.DatasetErasureRequests),
	Fields: map[string]Field{
		"customer_id": {Type: Integer, Required: true},
		"email":       {Type: String, Required: true},
	},
}

// ForKind returns the structural contract for a record kind.
func ForKind(kind model.DatasetType) (Descriptor, error) {
	switch kind {
	case model.DatasetCustomers:
		return customerDescriptor, nil
	case model.DatasetTransactions:
		return transactionDescriptor, nil
	case model.DatasetProducts:
		return productDescriptor, nil
	case model.DatasetErasureRequests:
		return erasureRequestDescriptor, nil
	}
	return Descriptor{}, fmt.Errorf("no descriptor for dataset type %q", kind)
}
