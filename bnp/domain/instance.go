package domain

import (
	"fmt"
	"sort"
)

// Test is a time-windowed job that must be covered exactly once.
type Test struct {
	// ID is the globally unique test identifier.
	ID int

	// Release is the earliest time the test may start.
	Release int

	// Deadline is the time after which the test accrues tardiness.
	Deadline int

	// Duration is the processing time of the test.
	Duration int
}

// Resource is a single vehicle as read from an instance.
type Resource struct {
	ID      int
	Release int
}

// ResourceGroup is the set of interchangeable resources sharing a release
// time. Only the release and the capacity matter once grouped.
type ResourceGroup struct {
	// Release is the time at which every resource of the group is available.
	Release int

	// Capacity is the number of resources in the group.
	Capacity int

	// ResourceIDs lists the grouped resources, for reporting only.
	ResourceIDs []int
}

// Compatibility is the ordered-pair relation compatible(a, b): test b may
// run after test a on the same resource. Missing pairs are incompatible.
type Compatibility map[[2]int]bool

// Set records compatible(a, b) = ok.
func (c Compatibility) Set(a, b int, ok bool) {
	c[[2]int{a, b}] = ok
}

// Allows reports whether b may follow a.
func (c Compatibility) Allows(a, b int) bool {
	return c[[2]int{a, b}]
}

// Instance is the immutable problem data shared by every component of a
// solve. It is built once and never mutated.
type Instance struct {
	name     string
	tests    []Test
	testByID map[int]int
	groups   []ResourceGroup
	groupIdx map[int]int
	compat   Compatibility
	maxDur   int
	horizon  int
}

// NewInstance validates the raw data, groups resources by release time and
// returns the instance.
func NewInstance(name string, tests []Test, resources []Resource, compat Compatibility) (*Instance, error) {
	if len(tests) == 0 {
		return nil, fmt.Errorf("%w: no tests", ErrInvalidInstance)
	}
	if len(resources) == 0 {
		return nil, fmt.Errorf("%w: no resources", ErrInvalidInstance)
	}

	inst := &Instance{
		name:     name,
		tests:    make([]Test, len(tests)),
		testByID: make(map[int]int, len(tests)),
		groupIdx: make(map[int]int),
		compat:   make(Compatibility, len(compat)),
	}
	copy(inst.tests, tests)
	sort.Slice(inst.tests, func(i, j int) bool { return inst.tests[i].ID < inst.tests[j].ID })

	latest := 0
	sumDur := 0
	for i, t := range inst.tests {
		if _, dup := inst.testByID[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate test id %d", ErrInvalidInstance, t.ID)
		}
		// Zero-length tests would let precedence cycles through the exact
		// pricer's start-time linking.
		if t.Duration <= 0 {
			return nil, fmt.Errorf("%w: test %d has non-positive duration %d", ErrInvalidInstance, t.ID, t.Duration)
		}
		inst.testByID[t.ID] = i
		if t.Duration > inst.maxDur {
			inst.maxDur = t.Duration
		}
		if t.Release > latest {
			latest = t.Release
		}
		sumDur += t.Duration
	}

	seen := make(map[int]struct{}, len(resources))
	for _, r := range resources {
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate resource id %d", ErrInvalidInstance, r.ID)
		}
		seen[r.ID] = struct{}{}

		idx, ok := inst.groupIdx[r.Release]
		if !ok {
			inst.groups = append(inst.groups, ResourceGroup{Release: r.Release})
			idx = len(inst.groups) - 1
			inst.groupIdx[r.Release] = idx
		}
		inst.groups[idx].Capacity++
		inst.groups[idx].ResourceIDs = append(inst.groups[idx].ResourceIDs, r.ID)
		if r.Release > latest {
			latest = r.Release
		}
	}
	sort.Slice(inst.groups, func(i, j int) bool { return inst.groups[i].Release < inst.groups[j].Release })
	for i, g := range inst.groups {
		inst.groupIdx[g.Release] = i
	}

	for pair, ok := range compat {
		if _, known := inst.testByID[pair[0]]; !known {
			continue
		}
		if _, known := inst.testByID[pair[1]]; !known {
			continue
		}
		if pair[0] == pair[1] {
			continue
		}
		inst.compat[pair] = ok
	}

	inst.horizon = latest + sumDur
	return inst, nil
}

// Name returns the instance label.
func (in *Instance) Name() string { return in.name }

// Tests returns the tests ordered by ascending id.
func (in *Instance) Tests() []Test { return in.tests }

// NumTests returns the number of tests.
func (in *Instance) NumTests() int { return len(in.tests) }

// TestIDs returns the test ids in ascending order.
func (in *Instance) TestIDs() []int {
	ids := make([]int, len(in.tests))
	for i, t := range in.tests {
		ids[i] = t.ID
	}
	return ids
}

// Test returns the test with the given id.
func (in *Instance) Test(id int) (Test, bool) {
	idx, ok := in.testByID[id]
	if !ok {
		return Test{}, false
	}
	return in.tests[idx], true
}

// Groups returns the resource groups ordered by ascending release.
func (in *Instance) Groups() []ResourceGroup { return in.groups }

// Group returns the resource group with the given release time.
func (in *Instance) Group(release int) (ResourceGroup, bool) {
	idx, ok := in.groupIdx[release]
	if !ok {
		return ResourceGroup{}, false
	}
	return in.groups[idx], true
}

// Compatible reports whether test b may be scheduled after test a.
func (in *Instance) Compatible(a, b int) bool {
	return in.compat.Allows(a, b)
}

// MaxDuration returns the longest test duration.
func (in *Instance) MaxDuration() int { return in.maxDur }

// Horizon returns an upper bound on any completion time reachable by a
// schedule without idle time past the latest release.
func (in *Instance) Horizon() int { return in.horizon }
