package nbt

import (
	"math"
	"strconv"
	"strings"
)

// AsInt64 returns t as int64 when it can be reasonably converted.
// Numeric and string tags are converted using best-effort parsing.
func AsInt64(t Tag) (int64, bool) {
	switch v := t.(type) {
	case Byte:
		return int64(v), true
	case Short:
		return int64(v), true
	case Int:
		return int64(v), true
	case Long:
		return int64(v), true
	case Float:
		return floatToInt64(float64(v))
	case Double:
		return floatToInt64(float64(v))
	case String:
		return parseInt64(string(v))
	default:
		return 0, false
	}
}

// AsFloat64 returns t as float64 when it can be reasonably converted.
func AsFloat64(t Tag) (float64, bool) {
	switch v := t.(type) {
	case Byte:
		return float64(v), true
	case Short:
		return float64(v), true
	case Int:
		return float64(v), true
	case Long:
		return float64(v), true
	case Float:
		return float64(v), true
	case Double:
		return float64(v), true
	case String:
		return parseFloat64(string(v))
	default:
		return 0, false
	}
}

// AsString returns t as a string when it is a scalar.
// Numeric values are formatted as their decimal representations.
func AsString(t Tag) (string, bool) {
	switch v := t.(type) {
	case String:
		return string(v), true
	case Byte:
		return strconv.FormatInt(int64(v), 10), true
	case Short:
		return strconv.FormatInt(int64(v), 10), true
	case Int:
		return strconv.FormatInt(int64(v), 10), true
	case Long:
		return strconv.FormatInt(int64(v), 10), true
	case Float:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), true
	case Double:
		return strconv.FormatFloat(float64(v), 'g', -1, 64), true
	default:
		return "", false
	}
}

// ToAny converts t into plain Go values: integers become int64, floats
// float64, arrays []int64, lists []any and compounds map[string]any.
func ToAny(t Tag) any {
	switch v := t.(type) {
	case Byte, Short, Int, Long:
		n, _ := AsInt64(v)
		return n
	case Float:
		return float64(v)
	case Double:
		return float64(v)
	case String:
		return string(v)
	case ByteArray:
		out := make([]int64, len(v))
		for i, b := range v {
			out[i] = int64(b)
		}
		return out
	case IntArray:
		out := make([]int64, len(v))
		for i, n := range v {
			out[i] = int64(n)
		}
		return out
	case LongArray:
		out := make([]int64, len(v))
		copy(out, v)
		return out
	case *List:
		out := make([]any, v.Len())
		for i, it := range v.Items() {
			out[i] = ToAny(it)
		}
		return out
	case *Compound:
		out := make(map[string]any, v.Len())
		for name, it := range v.All() {
			out[name] = ToAny(it)
		}
		return out
	default:
		return nil
	}
}

func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f < math.MinInt64 || f > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func parseInt64(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return floatToInt64(f)
	}
	return 0, false
}

func parseFloat64(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	return 0, false
}
