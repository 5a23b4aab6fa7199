package util

import (
	"fmt"
	"math"
	"strconv"
)

// SafeConvertToInt converts a JSON number to an int, clamping at the int range
// and truncating fractions.
func SafeConvertToInt(float64Value float64) int {
	if float64Value >= math.MaxInt64 {
		return math.MaxInt
	} else if float64Value <= math.MinInt64 {
		return math.MinInt
	} else {
		return int(float64Value)
	}
}

// ToInt reads an integer out of a value decoded from JSON or YAML.
func ToInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case int32:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return SafeConvertToInt(v), true
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// ToString renders a scalar filter value the way it goes into a query string.
func ToString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// ToStrings coerces a scalar or a list of scalars to a list of strings.
// Duplicates are removed, the first occurrence wins.
func ToStrings(value interface{}) []string {
	var strs []string
	switch v := value.(type) {
	case []string:
		strs = append(strs, v...)
	case []interface{}:
		for _, item := range v {
			strs = append(strs, ToString(item))
		}
	case []int:
		for _, item := range v {
			strs = append(strs, strconv.Itoa(item))
		}
	case []int64:
		for _, item := range v {
			strs = append(strs, strconv.FormatInt(item, 10))
		}
	case []float64:
		for _, item := range v {
			strs = append(strs, ToString(item))
		}
	case []bool:
		for _, item := range v {
			strs = append(strs, strconv.FormatBool(item))
		}
	default:
		strs = []string{ToString(v)}
	}

	return Unique(strs)
}

// Unique drops repeated values and keeps the order of first appearance.
func Unique(values []string) []string {
	seen := make(map[string]bool, len(values))
	unique := make([]string, 0, len(values))

	for _, value := range values {
		if seen[value] {
			continue
		}
		seen[value] = true
		unique = append(unique, value)
	}

	return unique
}
