package graphql

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
)

// listArg returns the elements of a coerced list argument. A single value
// is treated as a one element list.
func listArg(v any) []any {
	if v == nil {
		return nil
	}
	if items, ok := v.([]any); ok {
		return items
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return []any{v}
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items
}

// stringsArg coerces argument name of field to a list of strings
func stringsArg(args map[string]any, field, name string) ([]string, error) {
	items := listArg(args[name])
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, invalidArgument(field, name, "element %d is %T, not a string", i, item)
		}
		out = append(out, s)
	}
	return out, nil
}

// int32sArg coerces argument name of field to a list of 32-bit integers
func int32sArg(args map[string]any, field, name string) ([]int32, error) {
	items := listArg(args[name])
	out := make([]int32, 0, len(items))
	for i, item := range items {
		n, err := toInt64(item)
		if err != nil {
			return nil, invalidArgument(field, name, "element %d: %v", i, err)
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, invalidArgument(field, name, "element %d: %d overflows Int", i, n)
		}
		out = append(out, int32(n))
	}
	return out, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, strconv.ErrSyntax
		}
		if math.Abs(n) > 1<<53 {
			return 0, strconv.ErrRange
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, strconv.ErrSyntax
	}
}
