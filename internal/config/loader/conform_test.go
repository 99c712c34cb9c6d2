package loader

import (
	"reflect"
	"testing"
)

func testSchema() map[string]any {
	return map[string]any{
		"history": map[string]any{"initial": ""},
		"script":  map[string]any{"callLimit": int64(0), "timeout": ""},
		"watch":   map[string]any{"enabled": false},
		"ratio":   0.0,
	}
}

func TestConform(t *testing.T) {
	data := map[string]any{
		"history": map[string]any{"initial": "42"},
		"script":  map[string]any{"callLimit": "2_000", "timeout": "5s"},
		"watch":   map[string]any{"enabled": "off"},
		"ratio":   "0.5",
		"extra":   "kept",
	}

	got := Conform(data, testSchema())
	want := map[string]any{
		"history": map[string]any{"initial": "42"},
		"script":  map[string]any{"callLimit": int64(2000), "timeout": "5s"},
		"watch":   map[string]any{"enabled": false},
		"ratio":   0.5,
		"extra":   "kept",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Conform() = %v, want %v", got, want)
	}
}

func TestConformStringTargets(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{int64(42), "42"},
		{42, "42"},
		{1.5, "1.5"},
		{true, "true"},
		{"007", "007"},
		{"", ""},
	}

	for _, tt := range tests {
		data := map[string]any{"history": map[string]any{"initial": tt.in}}
		Conform(data, testSchema())
		if got := data["history"].(map[string]any)["initial"]; got != tt.want {
			t.Errorf("initial %v (%T) = %v (%T), want %q", tt.in, tt.in, got, got, tt.want)
		}
	}
}

func TestConformLeavesMismatches(t *testing.T) {
	data := map[string]any{
		"script":  map[string]any{"callLimit": "lots"},
		"watch":   map[string]any{"enabled": "maybe"},
		"history": "flat",
	}

	Conform(data, testSchema())
	if got := data["script"].(map[string]any)["callLimit"]; got != "lots" {
		t.Errorf("callLimit = %v, want unchanged", got)
	}
	if got := data["watch"].(map[string]any)["enabled"]; got != "maybe" {
		t.Errorf("enabled = %v, want unchanged", got)
	}
	if data["history"] != "flat" {
		t.Errorf("history = %v, want unchanged", data["history"])
	}
}

func TestConformNil(t *testing.T) {
	if got := Conform(nil, testSchema()); got != nil {
		t.Errorf("Conform(nil) = %v, want nil", got)
	}
}
