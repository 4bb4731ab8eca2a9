package bqstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/sales-dashboard/internal/query"
	"github.com/dvloznov/sales-dashboard/internal/record"
	"github.com/dvloznov/sales-dashboard/internal/store"
)

func readRows(ctx context.Context, client *bigquery.Client, st Statement) ([]map[string]bigquery.Value, error) {
	q := client.Query(st.SQL)
	q.Parameters = st.Params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}

	var rows []map[string]bigquery.Value
	for {
		row := map[string]bigquery.Value{}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iter next: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// QueryPageWithClient returns one page of matching rows as records.
func QueryPageWithClient(ctx context.Context, client *bigquery.Client, table string, spec query.Spec) ([]record.Record, error) {
	st, err := SelectPage(table, spec)
	if err != nil {
		return nil, fmt.Errorf("QueryPage: %w", err)
	}
	rows, err := readRows(ctx, client, st)
	if err != nil {
		return nil, fmt.Errorf("QueryPage: %w", err)
	}

	records := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, FromRow(row))
	}
	return records, nil
}

// CountWithClient counts rows matching f.
func CountWithClient(ctx context.Context, client *bigquery.Client, table string, f query.Filter) (int64, error) {
	st, err := SelectCount(table, f)
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	rows, err := readRows(ctx, client, st)
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, _ := rows[0]["n"].(int64)
	return n, nil
}

// GetWithClient returns the row with the given id, or nil when there is none.
func GetWithClient(ctx context.Context, client *bigquery.Client, table, id string) (record.Record, error) {
	rows, err := readRows(ctx, client, SelectByID(table, id))
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return FromRow(rows[0]), nil
}

// DistinctWithClient lists the distinct non-null values of field.
func DistinctWithClient(ctx context.Context, client *bigquery.Client, table, field string) ([]interface{}, error) {
	st, err := SelectDistinct(table, field)
	if err != nil {
		return nil, fmt.Errorf("Distinct: %w", err)
	}
	rows, err := readRows(ctx, client, st)
	if err != nil {
		return nil, fmt.Errorf("Distinct: %w", err)
	}
	values := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		values = append(values, fromValue(row["value"]))
	}
	return values, nil
}

// AggregateWithClient computes fn (SUM or AVG) over field.
func AggregateWithClient(ctx context.Context, client *bigquery.Client, table, fn, field string) (float64, error) {
	st, err := SelectAggregate(table, fn, field)
	if err != nil {
		return 0, fmt.Errorf("Aggregate: %w", err)
	}
	rows, err := readRows(ctx, client, st)
	if err != nil {
		return 0, fmt.Errorf("Aggregate %s(%s): %w", fn, field, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	f, _ := record.ToFloat(fromValue(rows[0]["value"]))
	return f, nil
}

// TopValuesWithClient counts the most frequent non-empty values of field.
func TopValuesWithClient(ctx context.Context, client *bigquery.Client, table, field string, limit int) ([]store.ValueCount, error) {
	st, err := SelectTopValues(table, field, limit)
	if err != nil {
		return nil, fmt.Errorf("TopValues: %w", err)
	}
	rows, err := readRows(ctx, client, st)
	if err != nil {
		return nil, fmt.Errorf("TopValues: %w", err)
	}

	out := make([]store.ValueCount, 0, len(rows))
	for _, row := range rows {
		value, _ := row["value"].(string)
		n, _ := row["n"].(int64)
		out = append(out, store.ValueCount{Value: value, Count: n})
	}
	return out, nil
}
