package table

// infer.go implements best-effort column type inference.
//
// Inference works on the CSV text of each cell so a table reads back with the
// same types after a CSV round trip. Blank cells never vote.

import (
	"strconv"
	"strings"
)

// ColumnType is the inferred type of a materialized column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeInt64
	TypeFloat64
	TypeBool
	TypeList
)

// String returns the lowercase type name.
func (t ColumnType) String() string {
	switch t {
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeBool:
		return "bool"
	case TypeList:
		return "list"
	default:
		return "string"
	}
}

// InferType picks the narrowest type that every non-blank cell satisfies:
// list, then int64, float64, bool, and string as the lossless fallback.
func InferType(cells []Value) ColumnType {
	return inferType(cells, true)
}

func inferType(cells []Value, allowList bool) ColumnType {
	seen := false
	allList, allInt, allFloat, allBool := true, true, true, true

	for _, v := range cells {
		if v.IsBlank() {
			continue
		}
		seen = true

		if v.Kind() != KindArray {
			allList = false
		}
		text := v.Text()
		if allInt && !isIntLiteral(text) {
			allInt = false
		}
		if allFloat && !isFloatLiteral(text) {
			allFloat = false
		}
		if allBool && !isBoolToken(text) {
			allBool = false
		}
	}

	switch {
	case !seen:
		return TypeString
	case allList && allowList:
		return TypeList
	case allInt:
		return TypeInt64
	case allFloat:
		return TypeFloat64
	case allBool:
		return TypeBool
	default:
		return TypeString
	}
}

// listElements flattens the elements of every array cell in a column.
func listElements(cells []Value) []Value {
	var out []Value
	for _, v := range cells {
		out = append(out, v.Elems()...)
	}
	return out
}

func isIntLiteral(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// isFloatLiteral accepts decimal and exponent forms but not the inf/nan or
// hex spellings strconv also understands, signed or not.
func isFloatLiteral(s string) bool {
	if !strings.ContainsAny(s, "0123456789") {
		return false
	}
	lower := strings.ToLower(s)
	unsigned := strings.TrimLeft(lower, "+-")
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.HasPrefix(unsigned, "0x") {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isBoolToken(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}

// formatFloat renders a float so it never reads back as an integer.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
