package domain

import (
	"errors"
	"testing"
)

func sampleInstance(t *testing.T) *Instance {
	t.Helper()
	tests := []Test{
		{ID: 3, Release: 4, Deadline: 12, Duration: 3},
		{ID: 1, Release: 0, Deadline: 10, Duration: 5},
		{ID: 2, Release: 2, Deadline: 6, Duration: 4},
	}
	resources := []Resource{
		{ID: 10, Release: 5},
		{ID: 11, Release: 0},
		{ID: 12, Release: 5},
	}
	compat := Compatibility{}
	compat.Set(1, 2, true)
	compat.Set(2, 3, true)
	compat.Set(1, 3, true)
	compat.Set(3, 1, false)
	compat.Set(1, 99, true)
	inst, err := NewInstance("sample", tests, resources, compat)
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	return inst
}

func TestNewInstanceGroupsByRelease(t *testing.T) {
	inst := sampleInstance(t)

	groups := inst.Groups()
	if len(groups) != 2 {
		t.Fatalf("len(Groups) = %d, want 2", len(groups))
	}
	if groups[0].Release != 0 || groups[0].Capacity != 1 {
		t.Errorf("groups[0] = %+v, want release 0 capacity 1", groups[0])
	}
	if groups[1].Release != 5 || groups[1].Capacity != 2 {
		t.Errorf("groups[1] = %+v, want release 5 capacity 2", groups[1])
	}
	if g, ok := inst.Group(5); !ok || len(g.ResourceIDs) != 2 {
		t.Errorf("Group(5) = %+v, %v", g, ok)
	}
	if _, ok := inst.Group(7); ok {
		t.Error("Group(7) should not exist")
	}
}

func TestNewInstanceOrdersTests(t *testing.T) {
	inst := sampleInstance(t)

	ids := inst.TestIDs()
	for i, want := range []int{1, 2, 3} {
		if ids[i] != want {
			t.Errorf("TestIDs()[%d] = %d, want %d", i, ids[i], want)
		}
	}
	if inst.MaxDuration() != 5 {
		t.Errorf("MaxDuration = %d, want 5", inst.MaxDuration())
	}
	// latest release 5 + durations 12
	if inst.Horizon() != 17 {
		t.Errorf("Horizon = %d, want 17", inst.Horizon())
	}
}

func TestCompatibilityMissingPairsAreIncompatible(t *testing.T) {
	inst := sampleInstance(t)

	if !inst.Compatible(1, 2) {
		t.Error("Compatible(1, 2) = false, want true")
	}
	if inst.Compatible(2, 1) {
		t.Error("Compatible(2, 1) = true, want false for a missing entry")
	}
	if inst.Compatible(3, 1) {
		t.Error("Compatible(3, 1) = true, want false")
	}
	if inst.Compatible(1, 99) {
		t.Error("pairs with unknown tests should be dropped")
	}
}

func TestNewInstanceRejectsBadData(t *testing.T) {
	cases := []struct {
		name      string
		tests     []Test
		resources []Resource
	}{
		{"no tests", nil, []Resource{{ID: 1}}},
		{"no resources", []Test{{ID: 1, Duration: 1}}, nil},
		{"duplicate test", []Test{{ID: 1, Duration: 1}, {ID: 1, Duration: 2}}, []Resource{{ID: 1}}},
		{"negative duration", []Test{{ID: 1, Duration: -1}}, []Resource{{ID: 1}}},
		{"zero duration", []Test{{ID: 1, Duration: 0}}, []Resource{{ID: 1}}},
		{"zero duration among others", []Test{{ID: 1, Duration: 2}, {ID: 2, Duration: 0}, {ID: 3, Duration: 1}}, []Resource{{ID: 1}}},
		{"duplicate resource", []Test{{ID: 1, Duration: 1}}, []Resource{{ID: 1}, {ID: 1, Release: 3}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewInstance(tc.name, tc.tests, tc.resources, nil)
			if !errors.Is(err, ErrInvalidInstance) {
				t.Errorf("NewInstance error = %v, want ErrInvalidInstance", err)
			}
		})
	}
}
