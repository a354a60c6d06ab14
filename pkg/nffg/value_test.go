package nffg

import (
	"encoding/json"
	"testing"
)

func TestParseValueStripsUnits(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"10", 10},
		{"2.5", 2.5},
		{"10 GB", 10},
		{"4 cores", 4},
	}
	for _, c := range cases {
		v := ParseValue(c.in)
		got, ok := v.Number()
		if !ok {
			t.Errorf("ParseValue(%q) should be numeric", c.in)
			continue
		}
		if got != c.want {
			t.Errorf("ParseValue(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseValueDegradesToRaw(t *testing.T) {
	v := ParseValue("unlimited")
	if _, ok := v.Number(); ok {
		t.Fatalf("non-numeric input must not parse as number")
	}
	if !v.IsSet() {
		t.Fatalf("raw value must still be set")
	}
	if v.Raw() != "unlimited" {
		t.Errorf("Raw() = %q, want %q", v.Raw(), "unlimited")
	}
}

func TestValueVariableTokenSurvives(t *testing.T) {
	// Requirement translation stores variable tokens like $d12 in flow rule
	// delay fields; they must round-trip untouched.
	v := Raw("$d12")
	if v.String() != "$d12" {
		t.Errorf("String() = %q", v.String())
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Value
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(v) {
		t.Errorf("round-trip changed value: %v -> %v", v, back)
	}
}

func TestValueJSONNumbers(t *testing.T) {
	data, err := json.Marshal(Number(12.5))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "12.5" {
		t.Errorf("numeric value must marshal as JSON number, got %s", data)
	}
	var v Value
	if err := json.Unmarshal([]byte("null"), &v); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if v.IsSet() {
		t.Errorf("null must unmarshal as unset")
	}
}
