package master

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/example/tp3s/bnp/domain"
)

const eps = 1e-6

func mustInstance(t *testing.T, tests []domain.Test, releases []int, pairs ...[2]int) *domain.Instance {
	t.Helper()
	resources := make([]domain.Resource, len(releases))
	for i, r := range releases {
		resources[i] = domain.Resource{ID: i + 1, Release: r}
	}
	compat := domain.Compatibility{}
	for _, p := range pairs {
		compat.Set(p[0], p[1], true)
	}
	inst, err := domain.NewInstance(t.Name(), tests, resources, compat)
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	return inst
}

func mustColumn(t *testing.T, inst *domain.Instance, release int, seq ...int) *domain.Column {
	t.Helper()
	col, err := domain.NewColumn(fmt.Sprint(seq, release), inst, seq, release)
	if err != nil {
		t.Fatalf("NewColumn failed: %v", err)
	}
	return col
}

func tardyPair(t *testing.T, releases ...int) *domain.Instance {
	return mustInstance(t, []domain.Test{
		{ID: 1, Release: 0, Deadline: 3, Duration: 5},
		{ID: 2, Release: 0, Deadline: 3, Duration: 5},
	}, releases)
}

func TestSolveLPSingleTest(t *testing.T) {
	inst := mustInstance(t, []domain.Test{{ID: 1, Release: 0, Deadline: 10, Duration: 5}}, []int{0})
	p := New(inst, 50, 1000)
	if _, err := p.AddColumn(mustColumn(t, inst, 0, 1), false); err != nil {
		t.Fatalf("AddColumn failed: %v", err)
	}

	res, err := p.SolveLP()
	if err != nil {
		t.Fatalf("SolveLP failed: %v", err)
	}
	if math.Abs(res.Objective-50) > eps {
		t.Errorf("Objective = %f, want 50", res.Objective)
	}
	if math.Abs(res.Weights[0]-1) > eps {
		t.Errorf("Weights[0] = %f, want 1", res.Weights[0])
	}
	if math.Abs(res.Duals.Test(1)+res.Duals.Group(0)-50) > eps {
		t.Errorf("duals %v %v do not price the column at zero", res.Duals.Tests, res.Duals.Groups)
	}
	if res.Duals.Group(0) > eps {
		t.Errorf("capacity dual = %f, want <= 0", res.Duals.Group(0))
	}
}

func TestSolveLPTwoResources(t *testing.T) {
	inst := tardyPair(t, 0, 0)
	p := New(inst, 50, 1000)
	p.AddColumn(mustColumn(t, inst, 0, 1), false)
	p.AddColumn(mustColumn(t, inst, 0, 2), false)

	res, err := p.SolveLP()
	if err != nil {
		t.Fatalf("SolveLP failed: %v", err)
	}
	if math.Abs(res.Objective-104) > eps {
		t.Errorf("Objective = %f, want 104", res.Objective)
	}

	ip, err := p.SolveInteger()
	if err != nil {
		t.Fatalf("SolveInteger failed: %v", err)
	}
	if math.Abs(ip.Objective-104) > eps {
		t.Errorf("integer Objective = %f, want 104", ip.Objective)
	}
	if got := p.Selected(ip.Weights, 0.001); len(got) != 2 {
		t.Errorf("Selected = %d columns, want 2", len(got))
	}
}

func TestSolveLPCapacityShortfallStaysFeasible(t *testing.T) {
	inst := tardyPair(t, 0)
	p := New(inst, 50, 1000)
	p.AddColumn(mustColumn(t, inst, 0, 1), false)
	p.AddColumn(mustColumn(t, inst, 0, 2), false)

	res, err := p.SolveLP()
	if err != nil {
		t.Fatalf("SolveLP failed: %v", err)
	}
	if math.Abs(res.Uncovered-1) > eps {
		t.Errorf("Uncovered = %f, want 1", res.Uncovered)
	}
	if res.Covers(eps) {
		t.Error("Covers = true, want false")
	}
	if got := len(res.Weights); got != 2 {
		t.Errorf("len(Weights) = %d, want 2", got)
	}
	if res.Objective < Penalty(inst, 50) {
		t.Errorf("Objective = %f, want at least the penalty %f", res.Objective, Penalty(inst, 50))
	}

	_, err = p.SolveInteger()
	if !errors.Is(err, domain.ErrMasterNotOptimal) {
		t.Errorf("SolveInteger error = %v, want ErrMasterNotOptimal", err)
	}
}

func TestSolveLPWithoutColumns(t *testing.T) {
	inst := tardyPair(t, 0, 0)
	p := New(inst, 50, 1000)

	res, err := p.SolveLP()
	if err != nil {
		t.Fatalf("SolveLP failed: %v", err)
	}
	if math.Abs(res.Uncovered-2) > eps {
		t.Errorf("Uncovered = %f, want 2", res.Uncovered)
	}
	for _, tid := range inst.TestIDs() {
		if math.Abs(res.Duals.Test(tid)-Penalty(inst, 50)) > eps {
			t.Errorf("dual of test %d = %f, want the penalty", tid, res.Duals.Test(tid))
		}
	}

	p.AddColumn(mustColumn(t, inst, 0, 1), false)
	p.AddColumn(mustColumn(t, inst, 0, 2), false)
	res, err = p.SolveLP()
	if err != nil {
		t.Fatalf("SolveLP failed: %v", err)
	}
	if !res.Covers(eps) {
		t.Errorf("Uncovered = %f, want 0", res.Uncovered)
	}
	if math.Abs(res.Objective-104) > eps {
		t.Errorf("Objective = %f, want 104", res.Objective)
	}
}

func TestPenaltyExceedsWorstSchedule(t *testing.T) {
	inst := tardyPair(t, 0, 0)
	worst := 50*2 + float64(domain.CostOf(inst, []int{1}, 0)+domain.CostOf(inst, []int{2}, 0))
	if Penalty(inst, 50) <= worst {
		t.Errorf("Penalty = %f, want above %f", Penalty(inst, 50), worst)
	}
}

func TestPinnedColumnCarriesNoWeight(t *testing.T) {
	inst := mustInstance(t, []domain.Test{
		{ID: 1, Release: 0, Deadline: 10, Duration: 2},
		{ID: 2, Release: 0, Deadline: 10, Duration: 2},
	}, []int{0, 0}, [2]int{1, 2})
	p := New(inst, 50, 1000)
	pair, _ := p.AddColumn(mustColumn(t, inst, 0, 1, 2), true)
	p.AddColumn(mustColumn(t, inst, 0, 1), false)
	p.AddColumn(mustColumn(t, inst, 0, 2), false)

	res, err := p.SolveLP()
	if err != nil {
		t.Fatalf("SolveLP failed: %v", err)
	}
	if res.Weights[pair] > eps {
		t.Errorf("pinned weight = %f, want 0", res.Weights[pair])
	}
	if !p.Pinned(pair) {
		t.Error("Pinned = false, want true")
	}
	if math.Abs(res.Objective-100) > eps {
		t.Errorf("Objective = %f, want 100", res.Objective)
	}
}

func TestCoverAndCapacityInvariants(t *testing.T) {
	inst := mustInstance(t, []domain.Test{
		{ID: 1, Release: 0, Deadline: 4, Duration: 3},
		{ID: 2, Release: 1, Deadline: 5, Duration: 2},
		{ID: 3, Release: 2, Deadline: 6, Duration: 2},
	}, []int{0, 2}, [2]int{1, 2}, [2]int{2, 3}, [2]int{1, 3}, [2]int{3, 1})
	p := New(inst, 50, 1000)
	for _, g := range inst.Groups() {
		for _, seq := range [][]int{{1}, {2}, {3}, {1, 2}, {2, 3}, {3, 1}, {1, 2, 3}} {
			p.AddColumn(mustColumn(t, inst, g.Release, seq...), false)
		}
	}

	res, err := p.SolveLP()
	if err != nil {
		t.Fatalf("SolveLP failed: %v", err)
	}
	for _, tid := range inst.TestIDs() {
		cover := 0.0
		for i, col := range p.Columns() {
			if col.Contains(tid) {
				cover += res.Weights[i]
			}
		}
		if cover < 1-eps {
			t.Errorf("test %d covered %f, want >= 1", tid, cover)
		}
	}
	for _, g := range inst.Groups() {
		used := 0.0
		for i, col := range p.Columns() {
			if col.Release == g.Release {
				used += res.Weights[i]
			}
		}
		if used > float64(g.Capacity)+eps {
			t.Errorf("group %d uses %f, capacity %d", g.Release, used, g.Capacity)
		}
	}
	for i, col := range p.Columns() {
		rc := 50 + float64(col.Cost) - res.Duals.Group(col.Release)
		for _, tid := range col.Sequence {
			rc -= res.Duals.Test(tid)
		}
		if rc < -eps {
			t.Errorf("column %d %s has reduced cost %f at LP optimum", i, col, rc)
		}
	}
}

func TestSolveExhaustive(t *testing.T) {
	inst := mustInstance(t, []domain.Test{
		{ID: 1, Release: 0, Deadline: 10, Duration: 2},
		{ID: 2, Release: 0, Deadline: 10, Duration: 2},
		{ID: 3, Release: 0, Deadline: 10, Duration: 2},
	}, []int{0, 4}, [2]int{1, 2}, [2]int{2, 3}, [2]int{1, 3})
	cols := []*domain.Column{
		mustColumn(t, inst, 0, 1),
		mustColumn(t, inst, 0, 2),
		mustColumn(t, inst, 0, 3),
		mustColumn(t, inst, 4, 3),
		mustColumn(t, inst, 0, 1, 2),
		mustColumn(t, inst, 0, 1, 2, 3),
	}

	p, res, err := SolveExhaustive(inst, cols, 50, 1000)
	if err != nil {
		t.Fatalf("SolveExhaustive failed: %v", err)
	}
	if math.Abs(res.Objective-50) > eps {
		t.Errorf("Objective = %f, want 50", res.Objective)
	}
	sel := p.Selected(res.Weights, 0.001)
	if len(sel) != 1 || sel[0].Column.Len() != 3 {
		t.Errorf("Selected = %v, want the single three-test column", sel)
	}
}

func TestAddColumnUnknownGroup(t *testing.T) {
	inst := tardyPair(t, 0)
	other := tardyPair(t, 7)
	p := New(inst, 50, 1000)

	if _, err := p.AddColumn(mustColumn(t, other, 7, 1), false); !errors.Is(err, domain.ErrUnknownGroup) {
		t.Errorf("AddColumn error = %v, want ErrUnknownGroup", err)
	}
}
