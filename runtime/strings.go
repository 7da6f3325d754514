package runtime

import (
	"strconv"
	"strings"
)

// String conversion entry points. These back both the str()/int()/float()
// builtins and the implicit Str coercions the type lattice allows.

// IntToString formats an integer.
func IntToString(i int64) string { return strconv.FormatInt(i, 10) }

// FloatToString formats a float the way the language prints it: integral
// values keep a trailing ".0".
func FloatToString(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && !strings.Contains(s, "NaN") {
		s += ".0"
	}
	return s
}

// BoolToString formats a boolean as True/False.
func BoolToString(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// CharToString converts a byte value to a one-character string.
func CharToString(c int64) string { return string(rune(c)) }

// StringToInt parses an integer; unparseable input yields 0.
func StringToInt(s string) int64 {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		if f, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64); ferr == nil {
			return int64(f)
		}
		return 0
	}
	return i
}

// StringToFloat parses a float; unparseable input yields 0.
func StringToFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// StringToBool parses truthiness: empty and "False"/"false"/"0" are false.
func StringToBool(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "False", "false", "0":
		return false
	}
	return true
}

// StringConcat joins two strings.
func StringConcat(a, b string) string { return a + b }

// StringEquals compares two strings.
func StringEquals(a, b string) bool { return a == b }

// StringLength is the byte length of a string.
func StringLength(s string) int64 { return int64(len(s)) }

// FreeString releases a string handle. Go strings need no explicit
// release; the symbol exists so emitted free pairs stay balanced.
func FreeString(s string) {}

// ToString renders any tagged value the way print does.
func ToString(v *Value) string {
	if v == nil {
		return "None"
	}
	switch v.Tag {
	case TagInt:
		return IntToString(v.Int)
	case TagFloat:
		return FloatToString(v.Float)
	case TagBool:
		return BoolToString(v.Int != 0)
	case TagNone:
		return "None"
	case TagStr:
		return v.Str
	case TagBytes:
		return string(v.Bytes)
	case TagBigInt:
		return v.Big.String()
	case TagList:
		parts := make([]string, len(v.List.Items))
		for i, it := range v.List.Items {
			parts[i] = reprString(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TagTuple:
		parts := make([]string, len(v.Tuple))
		for i, it := range v.Tuple {
			parts[i] = reprString(it)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case TagDict:
		parts := make([]string, len(v.Dict.keys))
		for i := range v.Dict.keys {
			parts[i] = reprString(v.Dict.keys[i]) + ": " + reprString(v.Dict.values[i])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case TagSet:
		if len(v.Set.items) == 0 {
			return "set()"
		}
		parts := make([]string, len(v.Set.items))
		for i, it := range v.Set.items {
			parts[i] = reprString(it)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case TagFunction:
		return "<function>"
	case TagClass:
		return "<class>"
	}
	return "<unknown>"
}

// reprString is ToString except strings keep their quotes, as inside
// container displays.
func reprString(v *Value) string {
	if v != nil && v.Tag == TagStr {
		return strconv.Quote(v.Str)
	}
	return ToString(v)
}
