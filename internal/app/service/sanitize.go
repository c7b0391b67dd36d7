package service

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

// SanitizeMap returns a copy of m with every leaf reduced to a JSON value.
// Keys are never dropped: nil pointers, nil maps or slices and values that
// cannot be encoded become an explicit nil.
func SanitizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out, _ := Sanitize(m).(map[string]any)
	return out
}

// Sanitize normalizes v recursively. Slices and arrays are sanitized element
// by element and keep their length.
func Sanitize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string, bool, json.Number:
		return t
	case float64:
		return finite(t)
	case float32:
		return finite(float64(t))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return t
	case []byte:
		if t == nil {
			return nil
		}
		return base64.StdEncoding.EncodeToString(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = Sanitize(x)
		}
		return out
	case []any:
		if t == nil {
			return nil
		}
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = Sanitize(x)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Sanitize(rv.Elem().Interface())
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = Sanitize(iter.Value().Interface())
		}
		return out
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		fallthrough
	case reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = Sanitize(rv.Index(i).Interface())
		}
		return out
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return finite(rv.Float())
	case reflect.Struct:
		data, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		var decoded any
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil
		}
		return Sanitize(decoded)
	default:
		return nil
	}
}

func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
