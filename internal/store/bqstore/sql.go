package bqstore

import (
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/sales-dashboard/internal/query"
	"github.com/dvloznov/sales-dashboard/internal/record"
)

// Statement is a SQL query with its named parameters.
type Statement struct {
	SQL    string
	Params []bigquery.QueryParameter
}

type renderer struct {
	params []bigquery.QueryParameter
}

func (r *renderer) bind(v interface{}) string {
	name := fmt.Sprintf("p%d", len(r.params))
	r.params = append(r.params, bigquery.QueryParameter{Name: name, Value: v})
	return "@" + name
}

// BuildWhere renders f as a boolean SQL condition. An empty filter renders TRUE.
func BuildWhere(f query.Filter) (string, []bigquery.QueryParameter, error) {
	r := &renderer{}
	cond, err := r.where(f)
	if err != nil {
		return "", nil, err
	}
	return cond, r.params, nil
}

func (r *renderer) where(f query.Filter) (string, error) {
	if f.Empty() {
		return "TRUE", nil
	}
	parts := make([]string, 0, len(f.Clauses))
	for _, c := range f.Clauses {
		s, err := r.clause(c)
		if err != nil {
			return "", fmt.Errorf("BuildWhere: %w", err)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " AND "), nil
}

func (r *renderer) clause(c query.Clause) (string, error) {
	switch c := c.(type) {
	case query.Contains:
		col, err := Column(c.Field)
		if err != nil {
			return "", err
		}
		if c.AsString {
			col = "CAST(" + col + " AS STRING)"
		}
		return fmt.Sprintf("STRPOS(LOWER(%s), LOWER(%s)) > 0", col, r.bind(c.Term)), nil

	case query.Token:
		col, err := Column(c.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("REGEXP_CONTAINS(%s, %s)", col, r.bind("(?i)"+query.TokenPattern(c.Value))), nil

	case query.In:
		col, err := Column(c.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s IN UNNEST(%s)", col, r.bind(c.Values)), nil

	case query.NumberRange:
		col, err := Column(c.Field)
		if err != nil {
			return "", err
		}
		var bounds []string
		if c.Min != nil {
			bounds = append(bounds, fmt.Sprintf("%s >= %s", col, r.bind(*c.Min)))
		}
		if c.Max != nil {
			bounds = append(bounds, fmt.Sprintf("%s <= %s", col, r.bind(*c.Max)))
		}
		return group(bounds, " AND "), nil

	case query.TimeRange:
		col, err := Column(c.Field)
		if err != nil {
			return "", err
		}
		var bounds []string
		if c.From != nil {
			bounds = append(bounds, fmt.Sprintf("%s >= %s", col, r.bind(c.From.UTC())))
		}
		if c.To != nil {
			bounds = append(bounds, fmt.Sprintf("%s <= %s", col, r.bind(c.To.UTC())))
		}
		return group(bounds, " AND "), nil

	case query.Or:
		if len(c.Clauses) == 0 {
			return "", fmt.Errorf("empty OR clause")
		}
		alts := make([]string, 0, len(c.Clauses))
		for _, inner := range c.Clauses {
			s, err := r.clause(inner)
			if err != nil {
				return "", err
			}
			alts = append(alts, s)
		}
		return group(alts, " OR "), nil
	}

	return "", fmt.Errorf("unsupported clause %T", c)
}

func group(parts []string, sep string) string {
	switch len(parts) {
	case 0:
		return "TRUE"
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// BuildOrderBy renders s with the id column as the final tie-breaker.
func BuildOrderBy(s query.Sort) (string, error) {
	col, err := Column(s.Field)
	if err != nil {
		return "", err
	}
	dir := "ASC"
	if s.Descending {
		dir = "DESC"
	}
	order := col + " " + dir
	if s.Field != record.FieldID {
		order += ", `" + columns[record.FieldID] + "` ASC"
	}
	return order, nil
}

// SelectPage builds the statement for one page of matching rows.
func SelectPage(table string, spec query.Spec) (Statement, error) {
	r := &renderer{}
	where, err := r.where(spec.Filter)
	if err != nil {
		return Statement{}, err
	}
	order, err := BuildOrderBy(spec.Sort)
	if err != nil {
		return Statement{}, err
	}

	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY %s", table, where, order)
	if spec.Window.Size > 0 {
		sql += fmt.Sprintf(" LIMIT %d", spec.Window.Size)
	}
	if spec.Window.Offset > 0 {
		sql += fmt.Sprintf(" OFFSET %d", spec.Window.Offset)
	}
	return Statement{SQL: sql, Params: r.params}, nil
}

// SelectCount builds the statement counting matching rows into column n.
func SelectCount(table string, f query.Filter) (Statement, error) {
	r := &renderer{}
	where, err := r.where(f)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL:    fmt.Sprintf("SELECT COUNT(*) AS n FROM %s WHERE %s", table, where),
		Params: r.params,
	}, nil
}

// SelectByID builds the statement fetching a single row by id.
func SelectByID(table, id string) Statement {
	r := &renderer{}
	p := r.bind(id)
	return Statement{
		SQL:    fmt.Sprintf("SELECT * FROM %s WHERE `%s` = %s LIMIT 1", table, columns[record.FieldID], p),
		Params: r.params,
	}
}

// SelectDistinct builds the statement listing the distinct non-null values of field.
func SelectDistinct(table, field string) (Statement, error) {
	col, err := Column(field)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL: fmt.Sprintf("SELECT DISTINCT %s AS value FROM %s WHERE %s IS NOT NULL", col, table, col),
	}, nil
}

// SelectAggregate builds SUM or AVG of field into column value. Empty input yields 0.
func SelectAggregate(table, fn, field string) (Statement, error) {
	switch fn {
	case "SUM", "AVG":
	default:
		return Statement{}, fmt.Errorf("unsupported aggregate %q", fn)
	}
	col, err := Column(field)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL: fmt.Sprintf("SELECT IFNULL(%s(%s), 0) AS value FROM %s", fn, col, table),
	}, nil
}

// SelectTopValues builds the frequency count of non-empty values of field,
// most frequent first and ties by value.
func SelectTopValues(table, field string, limit int) (Statement, error) {
	col, err := Column(field)
	if err != nil {
		return Statement{}, err
	}
	r := &renderer{}
	p := r.bind(int64(limit))
	return Statement{
		SQL: fmt.Sprintf(
			"SELECT %s AS value, COUNT(*) AS n FROM %s WHERE %s IS NOT NULL AND %s != '' GROUP BY value ORDER BY n DESC, value ASC LIMIT %s",
			col, table, col, col, p),
		Params: r.params,
	}, nil
}
