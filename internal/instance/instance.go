// Package instance reads and writes the JSON instance format:
//
//	{
//	  "tests":    [{"test_id": 1, "release": 0, "deadline": 10, "dur": 5}, ...],
//	  "vehicles": [{"vehicle_id": 7, "release": 0}, ...],
//	  "rehit":    {"1": {"2": true, "3": false}, ...}
//	}
//
// rehit[a][b] = true means test b may run after test a on the same
// vehicle. Pairs missing from rehit are incompatible.
package instance

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/example/tp3s/bnp/domain"
)

// Load reads an instance file. The instance is named after the file's base
// name without extension.
func Load(path string) (*domain.Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instance: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(name, data)
}

// Parse decodes an instance from JSON.
func Parse(name string, data []byte) (*domain.Instance, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", domain.ErrInvalidInstance)
	}
	doc := gjson.ParseBytes(data)

	tests, err := parseTests(doc.Get("tests"))
	if err != nil {
		return nil, err
	}
	vehicles, err := parseVehicles(doc.Get("vehicles"))
	if err != nil {
		return nil, err
	}
	compat, err := parseRehit(doc.Get("rehit"))
	if err != nil {
		return nil, err
	}
	return domain.NewInstance(name, tests, vehicles, compat)
}

func parseTests(arr gjson.Result) ([]domain.Test, error) {
	if !arr.IsArray() {
		return nil, fmt.Errorf("%w: tests must be an array", domain.ErrInvalidInstance)
	}
	var tests []domain.Test
	var err error
	arr.ForEach(func(key, item gjson.Result) bool {
		var t domain.Test
		if t.ID, err = intField(item, "test_id", key); err != nil {
			return false
		}
		if t.Release, err = intField(item, "release", key); err != nil {
			return false
		}
		if t.Deadline, err = intField(item, "deadline", key); err != nil {
			return false
		}
		if t.Duration, err = intField(item, "dur", key); err != nil {
			return false
		}
		tests = append(tests, t)
		return true
	})
	return tests, err
}

func parseVehicles(arr gjson.Result) ([]domain.Resource, error) {
	if !arr.IsArray() {
		return nil, fmt.Errorf("%w: vehicles must be an array", domain.ErrInvalidInstance)
	}
	var vehicles []domain.Resource
	var err error
	arr.ForEach(func(key, item gjson.Result) bool {
		var v domain.Resource
		if v.ID, err = intField(item, "vehicle_id", key); err != nil {
			return false
		}
		if v.Release, err = intField(item, "release", key); err != nil {
			return false
		}
		vehicles = append(vehicles, v)
		return true
	})
	return vehicles, err
}

func parseRehit(obj gjson.Result) (domain.Compatibility, error) {
	compat := make(domain.Compatibility)
	if !obj.Exists() {
		return compat, nil
	}
	if !obj.IsObject() {
		return nil, fmt.Errorf("%w: rehit must be an object", domain.ErrInvalidInstance)
	}

	var err error
	obj.ForEach(func(k1, row gjson.Result) bool {
		var a int
		if a, err = testKey(k1.String()); err != nil {
			return false
		}
		if !row.IsObject() {
			err = fmt.Errorf("%w: rehit[%d] must be an object", domain.ErrInvalidInstance, a)
			return false
		}
		row.ForEach(func(k2, v gjson.Result) bool {
			var b int
			if b, err = testKey(k2.String()); err != nil {
				return false
			}
			if v.Type != gjson.True && v.Type != gjson.False {
				err = fmt.Errorf("%w: rehit[%d][%d] must be a boolean", domain.ErrInvalidInstance, a, b)
				return false
			}
			compat.Set(a, b, v.Bool())
			return true
		})
		return err == nil
	})
	return compat, err
}

func intField(item gjson.Result, field string, idx gjson.Result) (int, error) {
	v := item.Get(field)
	if v.Type != gjson.Number {
		return 0, fmt.Errorf("%w: entry %d: %s must be a number", domain.ErrInvalidInstance, idx.Int(), field)
	}
	if v.Num != math.Trunc(v.Num) {
		return 0, fmt.Errorf("%w: entry %d: %s must be an integer, got %v", domain.ErrInvalidInstance, idx.Int(), field, v.Num)
	}
	return int(v.Int()), nil
}

func testKey(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: rehit key %q is not a test id", domain.ErrInvalidInstance, s)
	}
	return id, nil
}

type fileTest struct {
	TestID   int `json:"test_id"`
	Release  int `json:"release"`
	Deadline int `json:"deadline"`
	Dur      int `json:"dur"`
}

type fileVehicle struct {
	VehicleID int `json:"vehicle_id"`
	Release   int `json:"release"`
}

type file struct {
	Tests    []fileTest                 `json:"tests"`
	Vehicles []fileVehicle              `json:"vehicles"`
	Rehit    map[string]map[string]bool `json:"rehit"`
}

// Encode writes inst in the instance format. Only compatible pairs are
// emitted in rehit.
func Encode(inst *domain.Instance) ([]byte, error) {
	f := file{Rehit: make(map[string]map[string]bool)}
	for _, t := range inst.Tests() {
		f.Tests = append(f.Tests, fileTest{TestID: t.ID, Release: t.Release, Deadline: t.Deadline, Dur: t.Duration})
	}
	for _, g := range inst.Groups() {
		ids := append([]int(nil), g.ResourceIDs...)
		sort.Ints(ids)
		for _, id := range ids {
			f.Vehicles = append(f.Vehicles, fileVehicle{VehicleID: id, Release: g.Release})
		}
	}
	for _, a := range inst.Tests() {
		for _, b := range inst.Tests() {
			if !inst.Compatible(a.ID, b.ID) {
				continue
			}
			row, ok := f.Rehit[strconv.Itoa(a.ID)]
			if !ok {
				row = make(map[string]bool)
				f.Rehit[strconv.Itoa(a.ID)] = row
			}
			row[strconv.Itoa(b.ID)] = true
		}
	}
	return json.MarshalIndent(f, "", "  ")
}
