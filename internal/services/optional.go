package services

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

var jsonNull = []byte("null")

// OptionalDecimal records whether a JSON field was present, so that an
// explicit null can clear a nullable column.
type OptionalDecimal struct {
	Set   bool
	Value decimal.NullDecimal
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalDecimal) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(b, jsonNull) {
		o.Value = decimal.NullDecimal{}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	o.Value = decimal.NullDecimal{Decimal: d, Valid: true}
	return nil
}

// OptionalString is the string counterpart of OptionalDecimal.
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(b, jsonNull) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}
