package nffg

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Value holds a resource attribute that is either a parsed number or the raw
// string it arrived as. Wire payloads carry resource values as text with
// optional unit suffixes ("10 GB"); values that do not parse as a number are
// kept verbatim instead of being silently coerced, so callers must check
// which case they hold.
type Value struct {
	num     float64
	raw     string
	set     bool
	numeric bool
}

// Number creates a numeric Value.
func Number(f float64) Value {
	return Value{num: f, set: true, numeric: true}
}

// Raw creates a Value holding an unparsed string.
func Raw(s string) Value {
	return Value{raw: s, set: true}
}

// ParseValue strips an optional unit suffix (everything after the first
// space) and parses the remainder as a float. Unparseable input degrades to a
// raw string value.
func ParseValue(s string) Value {
	if s == "" {
		return Value{}
	}
	head, _, _ := strings.Cut(s, " ")
	if f, err := strconv.ParseFloat(head, 64); err == nil {
		return Number(f)
	}
	return Raw(s)
}

// IsSet reports whether the value is present at all.
func (v Value) IsSet() bool { return v.set }

// Number returns the numeric value and whether the Value is numeric.
func (v Value) Number() (float64, bool) {
	return v.num, v.set && v.numeric
}

// Raw returns the raw string form for non-numeric values.
func (v Value) Raw() string { return v.raw }

// String renders the value for wire output. Numbers render without a unit.
func (v Value) String() string {
	if !v.set {
		return ""
	}
	if v.numeric {
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	}
	return v.raw
}

// Equal compares two values; numbers compare numerically, raw strings
// byte-wise.
func (v Value) Equal(o Value) bool {
	if v.set != o.set {
		return false
	}
	if !v.set {
		return true
	}
	if v.numeric != o.numeric {
		return false
	}
	if v.numeric {
		return v.num == o.num
	}
	return v.raw == o.raw
}

// MarshalJSON emits numbers as JSON numbers, raw values as strings and unset
// values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.set {
		return []byte("null"), nil
	}
	if v.numeric {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.raw)
}

// UnmarshalJSON accepts numbers, strings and null.
func (v *Value) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = Number(f)
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = ParseValue(raw)
	return nil
}
