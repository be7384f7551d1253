package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestCanonicalSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"aapl", "AAPL"},
		{" msft ", "MSFT"},
		{"BRK.B", "BRK.B"},
		{"", ""},
		{"   ", ""},
	}

	for _, tc := range tests {
		if got := CanonicalSymbol(tc.in); got != tc.want {
			t.Errorf("CanonicalSymbol(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalSymbols(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"dedupes case variants", []string{"aapl", "AAPL", " Aapl "}, []string{"AAPL"}},
		{"drops empties", []string{"", "  ", "msft"}, []string{"MSFT"}},
		{"preserves first-seen order", []string{"msft", "aapl", "MSFT"}, []string{"MSFT", "AAPL"}},
		{"all invalid", []string{"", " "}, []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanonicalSymbols(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestServerMessageEncodeOmitsEmptyFields(t *testing.T) {
	msg := &MServerMessage{Type: MsgPong, Timestamp: 1756400400}

	data, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(raw) != 2 {
		t.Errorf("encoded fields = %v, want only type and timestamp", raw)
	}
	for _, field := range []string{"symbol", "symbols", "data", "stocks", "errors", "error"} {
		if _, ok := raw[field]; ok {
			t.Errorf("empty field %q present on the wire", field)
		}
	}
}
