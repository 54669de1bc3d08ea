package translator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// boolStyle renders booleans the way a code expects them.
type boolStyle int

const (
	boolNumeric boolStyle = iota // 1 and 0
	boolPython                   // True and False
	boolWord                     // yes and no
	boolUpper                    // TRUE and FALSE
	boolLower                    // true and false
)

func formatFloat(f float64) string {
	if f == 0 {
		return "0.0"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatBool(b bool, style boolStyle) string {
	switch style {
	case boolPython:
		if b {
			return "True"
		}
		return "False"
	case boolWord:
		if b {
			return "yes"
		}
		return "no"
	case boolUpper:
		if b {
			return "TRUE"
		}
		return "FALSE"
	case boolLower:
		return strconv.FormatBool(b)
	default:
		if b {
			return "1"
		}
		return "0"
	}
}

func formatValue(v any, style boolStyle) string {
	switch val := v.(type) {
	case nil:
		return ""
	case bool:
		return formatBool(val, style)
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case string:
		return val
	case []float64:
		parts := make([]string, len(val))
		for i, f := range val {
			parts[i] = formatFloat(f)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []string:
		return "[" + strings.Join(val, ", ") + "]"
	default:
		return fmt.Sprint(val)
	}
}

func quote(s string) string {
	return `"` + s + `"`
}

// pythonValue renders a value as a Python literal.
func pythonValue(v any) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case []string:
		parts := make([]string, len(val))
		for i, s := range val {
			parts[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return formatValue(v, boolPython)
	}
}
