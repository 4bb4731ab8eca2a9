// Package record models a loosely-typed sales transaction document and
// normalizes the heterogeneous shapes left behind by bulk imports.
package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Canonical field names of a transaction document, as stored in the collection.
const (
	FieldID                 = "_id"
	FieldTransactionID      = "Transaction ID"
	FieldDate               = "Date"
	FieldCustomerID         = "Customer ID"
	FieldCustomerName       = "Customer Name"
	FieldPhoneNumber        = "Phone Number"
	FieldGender             = "Gender"
	FieldAge                = "Age"
	FieldCustomerRegion     = "Customer Region"
	FieldCustomerType       = "Customer Type"
	FieldProductID          = "Product ID"
	FieldProductName        = "Product Name"
	FieldBrand              = "Brand"
	FieldProductCategory    = "Product Category"
	FieldTags               = "Tags"
	FieldQuantity           = "Quantity"
	FieldPricePerUnit       = "Price per Unit"
	FieldDiscountPercentage = "Discount Percentage"
	FieldTotalAmount        = "Total Amount"
	FieldFinalAmount        = "Final Amount"
	FieldPaymentMethod      = "Payment Method"
	FieldOrderStatus        = "Order Status"
	FieldDeliveryType       = "Delivery Type"
	FieldStoreID            = "Store ID"
	FieldStoreLocation      = "Store Location"
	FieldSalespersonID      = "Salesperson ID"
	FieldEmployeeName       = "Employee Name"
)

// Extended-JSON wrapper keys left behind by bulk imports.
const (
	wrapNumberLong    = "$numberLong"
	wrapNumberInt     = "$numberInt"
	wrapNumberDouble  = "$numberDouble"
	wrapNumberDecimal = "$numberDecimal"
	wrapDate          = "$date"
	wrapOID           = "$oid"
)

// Record is a transaction document. Known fields are read through the typed
// accessors; unknown fields pass through untouched.
type Record map[string]interface{}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ID returns the document identifier in string form, or "" when absent.
func (r Record) ID() string {
	v, ok := r[FieldID]
	if !ok || v == nil {
		return ""
	}
	if m, ok := v.(map[string]interface{}); ok {
		if oid, ok := m[wrapOID].(string); ok {
			return oid
		}
	}
	return fmt.Sprint(v)
}

// String returns the field when it holds a string value.
func (r Record) String(field string) (string, bool) {
	s, ok := r[field].(string)
	return s, ok
}

// Float returns the field as a number. Native numbers, json.Number and
// wrapped numeric values ({"$numberLong": "..."} and friends) are accepted.
func (r Record) Float(field string) (float64, bool) {
	v, ok := r[field]
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// Time returns the field as a timestamp. Native times, wrapped dates and
// RFC 3339 strings are accepted.
func (r Record) Time(field string) (time.Time, bool) {
	v, ok := r[field]
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return unwrapDate(v)
}

// ToFloat converts a decoded numeric value to float64.
func ToFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case map[string]interface{}:
		for _, key := range []string{wrapNumberLong, wrapNumberInt, wrapNumberDouble, wrapNumberDecimal} {
			if inner, ok := n[key]; ok {
				switch w := inner.(type) {
				case string:
					f, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
					return f, err == nil
				default:
					return ToFloat(w)
				}
			}
		}
	}
	return 0, false
}
