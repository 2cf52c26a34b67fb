package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// FieldType is the primitive a field must decode to. Raw records are decoded
// with json.Decoder.UseNumber, so Integer and Number are checked against
// json.Number and never lose precision.
type FieldType int

const (
	String FieldType = iota
	Integer
	Number
	Boolean
	Date     // YYYY-MM-DD
	DateTime // RFC 3339
	UUID
	Object
	Array
)

func (t FieldType) String() string {
	switch t {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	case Date:
		return "date"
	case DateTime:
		return "date-time"
	case UUID:
		return "uuid"
	case Object:
		return "object"
	case Array:
		return "array"
	}
	return "unknown"
}

// Field declares the contract for one key of a record. Nullable fields may
// carry an explicit null; Required fields must be present as keys.
type Field struct {
	Type     FieldType
	Required bool
	Nullable bool
	Fields   map[string]Field // sub-contract when Type == Object
	Elem     *Field           // element contract when Type == Array
}

// ShapeError reports the first structural violation found. Field is the
// dotted path into the record ("delivery_address.postcode",
// "purchases.products[2].sku").
type ShapeError struct {
	Field  string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// Descriptor is the closed structural contract for one record kind. One
// generic interpreter serves all kinds; per-kind descriptors live in
// descriptors.go.
type Descriptor struct {
	Kind   string
	Fields map[string]Field
}

// Validate checks raw against the contract, fail-fast and fail-closed:
// unknown keys are an error, the first violation wins. No side effects.
func (d Descriptor) Validate(raw map[string]any) error {
	return validateObject("", d.Fields, raw)
}

func validateObject(path string, fields map[string]Field, obj map[string]any) error {
	// Unknown keys first: the contract is closed.
	for _, name := range sortedKeys(obj) {
		if _, ok := fields[name]; !ok {
			return &ShapeError{Field: join(path, name), Reason: "unexpected field"}
		}
	}

	for _, name := range sortedFieldNames(fields) {
		f := fields[name]
		v, present := obj[name]
		if !present {
			if f.Required {
				return &ShapeError{Field: join(path, name), Reason: "required field is missing"}
			}
			continue
		}
		if v == nil {
			if !f.Nullable {
				return &ShapeError{Field: join(path, name), Reason: "must not be null"}
			}
			continue
		}
		if err := checkValue(join(path, name), f, v); err != nil {
			return err
		}
	}
	return nil
}

func checkValue(path string, f Field, v any) error {
	switch f.Type {
	case String:
		if _, ok := v.(string); !ok {
			return typeError(path, f.Type)
		}
	case Integer:
		n, ok := v.(json.Number)
		if !ok {
			return typeError(path, f.Type)
		}
		if _, err := n.Int64(); err != nil {
			return &ShapeError{Field: path, Reason: "expected integer, got non-integral number"}
		}
	case Number:
		if _, ok := v.(json.Number); !ok {
			return typeError(path, f.Type)
		}
	case Boolean:
		if _, ok := v.(bool); !ok {
			return typeError(path, f.Type)
		}
	case Date:
		s, ok := v.(string)
		if !ok {
			return typeError(path, f.Type)
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return &ShapeError{Field: path, Reason: "expected date in YYYY-MM-DD format"}
		}
	case DateTime:
		s, ok := v.(string)
		if !ok {
			return typeError(path, f.Type)
		}
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return &ShapeError{Field: path, Reason: "expected RFC 3339 date-time"}
		}
	case UUID:
		s, ok := v.(string)
		if !ok {
			return typeError(path, f.Type)
		}
		if _, err := uuid.Parse(s); err != nil {
			return &ShapeError{Field: path, Reason: "expected UUID"}
		}
	case Object:
		obj, ok := v.(map[string]any)
		if !ok {
			return typeError(path, f.Type)
		}
		return validateObject(path, f.Fields, obj)
	case Array:
		items, ok := v.([]any)
		if !ok {
			return typeError(path, f.Type)
		}
		for i, item := range items {
			elemPath := fmt.Sprintf("%s[%d]", path, i)
			if item == nil {
				return &ShapeError{Field: elemPath, Reason: "must not be null"}
			}
			if err := checkValue(elemPath, *f.Elem, item); err != nil {
				return err
			}
		}
	}
	return nil
}

func typeError(path string, want FieldType) *ShapeError {
	return &ShapeError{Field: path, Reason: "expected " + want.String()}
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedFieldNames(m map[string]Field) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
