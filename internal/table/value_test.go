package table

import (
	"encoding/json"
	"testing"
)

func TestValue_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Value
	}{
		{"null", `null`, Null()},
		{"bool", `true`, Bool(true)},
		{"integer keeps literal", `12345678901234567890`, Number("12345678901234567890")},
		{"float", `1.25`, Number("1.25")},
		{"string", `"hi"`, String("hi")},
		{"tagged list", `["L", 1, "two"]`, Array(String("L"), Number("1"), String("two"))},
		{"object kept as json", `{"a":1}`, String(`{"a":1}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Value
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Unmarshal(%s) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestValue_Text(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Null(), ""},
		{Bool(false), "false"},
		{Int(-3), "-3"},
		{Float(2.5), "2.5"},
		{String("a,b"), "a,b"},
		{Array(Int(1), String("x"), Null()), `[1,"x",null]`},
	}
	for _, tt := range tests {
		if got := tt.v.Text(); got != tt.want {
			t.Errorf("%#v.Text() = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestValue_IsBlank(t *testing.T) {
	if !String("").IsBlank() {
		t.Error(`String("").IsBlank() = false, want true`)
	}
	if !Null().IsBlank() {
		t.Error("Null().IsBlank() = false, want true")
	}
	if String(" ").IsBlank() || Int(0).IsBlank() || Array().IsBlank() {
		t.Error("non-empty values reported blank")
	}
}

func TestFromAny(t *testing.T) {
	row := Row([]any{"John", 30.0, true, nil, []any{"L", 1}})
	want := []Value{String("John"), Float(30), Bool(true), Null(), Array(String("L"), Int(1))}
	for i := range want {
		if !row[i].Equal(want[i]) {
			t.Errorf("Row()[%d] = %#v, want %#v", i, row[i], want[i])
		}
	}
}
