package instance

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/tp3s/bnp/domain"
)

const pairJSON = `{
  "tests": [
    {"test_id": 2, "release": 0, "deadline": 4, "dur": 5},
    {"test_id": 1, "release": 0, "deadline": 10, "dur": 3}
  ],
  "vehicles": [
    {"vehicle_id": 10, "release": 0},
    {"vehicle_id": 11, "release": 0},
    {"vehicle_id": 12, "release": 6}
  ],
  "rehit": {
    "1": {"1": false, "2": true},
    "2": {"1": false, "2": false}
  }
}`

func TestParse(t *testing.T) {
	inst, err := Parse("pair", []byte(pairJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if inst.Name() != "pair" {
		t.Errorf("got name %q, want pair", inst.Name())
	}
	if inst.NumTests() != 2 {
		t.Fatalf("got %d tests, want 2", inst.NumTests())
	}
	if inst.Tests()[0].ID != 1 {
		t.Errorf("tests not sorted by id: %+v", inst.Tests())
	}
	test2, ok := inst.Test(2)
	if !ok || test2.Deadline != 4 || test2.Duration != 5 {
		t.Errorf("got test 2 = %+v", test2)
	}

	groups := inst.Groups()
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Release != 0 || groups[0].Capacity != 2 {
		t.Errorf("got group %+v, want release 0 capacity 2", groups[0])
	}
	if groups[1].Release != 6 || groups[1].Capacity != 1 {
		t.Errorf("got group %+v, want release 6 capacity 1", groups[1])
	}

	if !inst.Compatible(1, 2) {
		t.Error("1 -> 2 should be compatible")
	}
	if inst.Compatible(2, 1) {
		t.Error("2 -> 1 should not be compatible")
	}
}

func TestParseMissingRehitIsIncompatible(t *testing.T) {
	data := `{"tests": [{"test_id": 1, "release": 0, "deadline": 1, "dur": 1},
	                    {"test_id": 2, "release": 0, "deadline": 1, "dur": 1}],
	          "vehicles": [{"vehicle_id": 1, "release": 0}]}`
	inst, err := Parse("bare", []byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if inst.Compatible(1, 2) || inst.Compatible(2, 1) {
		t.Error("pairs without rehit entries should be incompatible")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"tests": [`},
		{"tests not array", `{"tests": {}, "vehicles": []}`},
		{"missing vehicles", `{"tests": [{"test_id": 1, "release": 0, "deadline": 1, "dur": 1}]}`},
		{"string field", `{"tests": [{"test_id": "a", "release": 0, "deadline": 1, "dur": 1}], "vehicles": [{"vehicle_id": 1, "release": 0}]}`},
		{"fractional field", `{"tests": [{"test_id": 1, "release": 0.5, "deadline": 1, "dur": 1}], "vehicles": [{"vehicle_id": 1, "release": 0}]}`},
		{"missing dur", `{"tests": [{"test_id": 1, "release": 0, "deadline": 1}], "vehicles": [{"vehicle_id": 1, "release": 0}]}`},
		{"bad rehit key", `{"tests": [{"test_id": 1, "release": 0, "deadline": 1, "dur": 1}], "vehicles": [{"vehicle_id": 1, "release": 0}], "rehit": {"x": {}}}`},
		{"non-bool rehit", `{"tests": [{"test_id": 1, "release": 0, "deadline": 1, "dur": 1}], "vehicles": [{"vehicle_id": 1, "release": 0}], "rehit": {"1": {"1": 1}}}`},
		{"no tests", `{"tests": [], "vehicles": [{"vehicle_id": 1, "release": 0}]}`},
		{"no vehicles", `{"tests": [{"test_id": 1, "release": 0, "deadline": 1, "dur": 1}], "vehicles": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.name, []byte(tt.data))
			if !errors.Is(err, domain.ErrInvalidInstance) {
				t.Errorf("got %v, want ErrInvalidInstance", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "157.tp3s")
	if err := os.WriteFile(path, []byte(pairJSON), 0644); err != nil {
		t.Fatal(err)
	}
	inst, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if inst.Name() != "157" {
		t.Errorf("got name %q, want 157", inst.Name())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	inst, err := Parse("pair", []byte(pairJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	data, err := Encode(inst)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	again, err := Parse("pair", data)
	if err != nil {
		t.Fatalf("Parse encoded: %v", err)
	}

	if again.NumTests() != inst.NumTests() || len(again.Groups()) != len(inst.Groups()) {
		t.Fatalf("round trip changed shape")
	}
	for _, a := range inst.TestIDs() {
		for _, b := range inst.TestIDs() {
			if inst.Compatible(a, b) != again.Compatible(a, b) {
				t.Errorf("compatible(%d, %d) changed", a, b)
			}
		}
	}
}
