package bqstore

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/sales-dashboard/internal/record"
)

// columns maps canonical document fields to warehouse columns.
var columns = map[string]string{
	record.FieldID:                 "id",
	record.FieldTransactionID:      "transaction_id",
	record.FieldDate:               "date",
	record.FieldCustomerID:         "customer_id",
	record.FieldCustomerName:       "customer_name",
	record.FieldPhoneNumber:        "phone_number",
	record.FieldGender:             "gender",
	record.FieldAge:                "age",
	record.FieldCustomerRegion:     "customer_region",
	record.FieldCustomerType:       "customer_type",
	record.FieldProductID:          "product_id",
	record.FieldProductName:        "product_name",
	record.FieldBrand:              "brand",
	record.FieldProductCategory:    "product_category",
	record.FieldTags:               "tags",
	record.FieldQuantity:           "quantity",
	record.FieldPricePerUnit:       "price_per_unit",
	record.FieldDiscountPercentage: "discount_percentage",
	record.FieldTotalAmount:        "total_amount",
	record.FieldFinalAmount:        "final_amount",
	record.FieldPaymentMethod:      "payment_method",
	record.FieldOrderStatus:        "order_status",
	record.FieldDeliveryType:       "delivery_type",
	record.FieldStoreID:            "store_id",
	record.FieldStoreLocation:      "store_location",
	record.FieldSalespersonID:      "salesperson_id",
	record.FieldEmployeeName:       "employee_name",
}

var fields = func() map[string]string {
	m := make(map[string]string, len(columns))
	for f, c := range columns {
		m[c] = f
	}
	return m
}()

// Column returns the quoted column for a canonical field.
func Column(field string) (string, error) {
	c, ok := columns[field]
	if !ok {
		return "", fmt.Errorf("no column for field %q", field)
	}
	return "`" + c + "`", nil
}

// FromRow renames warehouse columns back to canonical fields and converts
// warehouse values to the plain Go values the normalizer understands.
// Unknown columns keep their names.
func FromRow(row map[string]bigquery.Value) record.Record {
	r := make(record.Record, len(row))
	for col, v := range row {
		name := col
		if f, ok := fields[strings.ToLower(col)]; ok {
			name = f
		}
		r[name] = fromValue(v)
	}
	return r
}

func fromValue(v bigquery.Value) interface{} {
	switch x := v.(type) {
	case *big.Rat:
		if x == nil {
			return nil
		}
		f, _ := x.Float64()
		return f
	case civil.Date:
		return x.In(time.UTC)
	case civil.DateTime:
		return x.In(time.UTC)
	case []bigquery.Value:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = fromValue(e)
		}
		return out
	case map[string]bigquery.Value:
		out := make(map[string]interface{}, len(x))
		for k, e := range x {
			out[k] = fromValue(e)
		}
		return out
	}
	return v
}
