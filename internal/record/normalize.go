package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// isoLayout matches the millisecond-precision UTC form used by the dashboard.
const isoLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t as an ISO-8601 UTC timestamp with millisecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// Normalize returns a copy of r in which Phone Number is a plain string and Date
// is an ISO-8601 string. All other fields are copied as they are.
func Normalize(r Record) Record {
	out := r.Clone()

	if v, ok := out[FieldPhoneNumber]; ok && v != nil {
		if s, ok := PhoneString(v); ok {
			out[FieldPhoneNumber] = s
		}
	}

	if v, ok := out[FieldDate]; ok && v != nil {
		switch d := v.(type) {
		case time.Time:
			out[FieldDate] = FormatTime(d)
		case map[string]interface{}:
			if t, ok := unwrapDate(d); ok {
				out[FieldDate] = FormatTime(t)
			}
		}
	}

	return out
}

// NormalizeAll normalizes every record of a page. The result is never nil.
func NormalizeAll(rs []Record) []Record {
	out := make([]Record, 0, len(rs))
	for _, r := range rs {
		out = append(out, Normalize(r))
	}
	return out
}

// PhoneString renders a stored phone value as a string. Wrapped longs yield the
// wrapped digits; any other value is coerced with its natural string form.
func PhoneString(v interface{}) (string, bool) {
	switch p := v.(type) {
	case nil:
		return "", false
	case string:
		return p, true
	case json.Number:
		return p.String(), true
	case int64:
		return strconv.FormatInt(p, 10), true
	case int32:
		return strconv.FormatInt(int64(p), 10), true
	case int:
		return strconv.Itoa(p), true
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64), true
	case map[string]interface{}:
		if inner, ok := p[wrapNumberLong]; ok {
			return PhoneString(inner)
		}
	}
	return fmt.Sprint(v), true
}

// unwrapDate decodes {"$date": ...} where the payload is an ISO string,
// epoch milliseconds, or a wrapped long of epoch milliseconds.
func unwrapDate(v interface{}) (time.Time, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return time.Time{}, false
	}
	inner, ok := m[wrapDate]
	if !ok {
		return time.Time{}, false
	}

	switch d := inner.(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(d))
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	case time.Time:
		return d.UTC(), true
	default:
		millis, ok := ToFloat(d)
		if !ok {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(millis)).UTC(), true
	}
}
