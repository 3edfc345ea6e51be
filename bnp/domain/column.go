package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Column is an ordered sequence of tests assigned to one resource group.
// Columns are immutable once constructed.
type Column struct {
	// ID is a unique synthetic identifier used for solver variable names
	// and cache keys.
	ID string

	// Sequence is the order in which the tests are executed.
	Sequence []int

	// Release identifies the resource group the column runs on.
	Release int

	// Cost is the total tardiness of the sequence.
	Cost int

	pos map[int]int
}

// NewColumn builds a column after checking that every test exists, no test
// repeats, the group exists and every ordered pair is compatible.
func NewColumn(id string, inst *Instance, seq []int, release int) (*Column, error) {
	if _, ok := inst.Group(release); !ok {
		return nil, fmt.Errorf("%w: release %d", ErrUnknownGroup, release)
	}
	pos := make(map[int]int, len(seq))
	for i, tid := range seq {
		if _, ok := inst.Test(tid); !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownTest, tid)
		}
		if _, dup := pos[tid]; dup {
			return nil, fmt.Errorf("%w: test %d repeated in %v", ErrIncompatibleColumn, tid, seq)
		}
		for _, prev := range seq[:i] {
			if !inst.Compatible(prev, tid) {
				return nil, fmt.Errorf("%w: %d may not follow %d", ErrIncompatibleColumn, tid, prev)
			}
		}
		pos[tid] = i
	}

	s := make([]int, len(seq))
	copy(s, seq)
	return &Column{
		ID:       id,
		Sequence: s,
		Release:  release,
		Cost:     CostOf(inst, s, release),
		pos:      pos,
	}, nil
}

// CostOf simulates the sequence on a resource released at startRelease and
// returns the accumulated tardiness. Unknown tests contribute nothing.
func CostOf(inst *Instance, seq []int, startRelease int) int {
	now := startRelease
	total := 0
	for _, tid := range seq {
		t, ok := inst.Test(tid)
		if !ok {
			continue
		}
		if now < t.Release {
			now = t.Release
		}
		now += t.Duration
		if now > t.Deadline {
			total += now - t.Deadline
		}
	}
	return total
}

// CompletionTime returns the time at which the last test of seq finishes.
func CompletionTime(inst *Instance, seq []int, startRelease int) int {
	now := startRelease
	for _, tid := range seq {
		t, ok := inst.Test(tid)
		if !ok {
			continue
		}
		if now < t.Release {
			now = t.Release
		}
		now += t.Duration
	}
	return now
}

// Slot is one executed test in a simulated sequence.
type Slot struct {
	Test      int
	Start     int
	Finish    int
	Tardiness int
}

// Schedule simulates seq on a resource released at startRelease and returns
// the timing of every known test.
func Schedule(inst *Instance, seq []int, startRelease int) []Slot {
	now := startRelease
	slots := make([]Slot, 0, len(seq))
	for _, tid := range seq {
		t, ok := inst.Test(tid)
		if !ok {
			continue
		}
		if now < t.Release {
			now = t.Release
		}
		slot := Slot{Test: tid, Start: now}
		now += t.Duration
		slot.Finish = now
		if now > t.Deadline {
			slot.Tardiness = now - t.Deadline
		}
		slots = append(slots, slot)
	}
	return slots
}

// Extendable reports whether candidate may be appended to seq: it must not
// already be present and every test in seq must allow it to follow.
func Extendable(inst *Instance, seq []int, candidate int) bool {
	for _, tid := range seq {
		if tid == candidate {
			return false
		}
		if !inst.Compatible(tid, candidate) {
			return false
		}
	}
	return true
}

// Len returns the number of tests in the column.
func (c *Column) Len() int { return len(c.Sequence) }

// Contains reports whether the column covers the test.
func (c *Column) Contains(tid int) bool {
	_, ok := c.pos[tid]
	return ok
}

// Position returns the index of the test in the sequence.
func (c *Column) Position(tid int) (int, bool) {
	i, ok := c.pos[tid]
	return i, ok
}

// Precedes reports whether both tests are in the column with a before b.
func (c *Column) Precedes(a, b int) bool {
	ia, okA := c.pos[a]
	ib, okB := c.pos[b]
	return okA && okB && ia < ib
}

// Signature identifies the column by content (group and sequence).
func (c *Column) Signature() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(c.Release))
	b.WriteByte(':')
	for i, tid := range c.Sequence {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(tid))
	}
	return b.String()
}

func (c *Column) String() string {
	return fmt.Sprintf("%v@%d", c.Sequence, c.Release)
}
