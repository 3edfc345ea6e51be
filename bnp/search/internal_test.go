package search

import (
	"context"
	"math"
	"testing"

	"github.com/example/tp3s/bnp/domain"
)

func column(t *testing.T, inst *domain.Instance, release int, seq ...int) *domain.Column {
	t.Helper()
	col, err := domain.NewColumn("", inst, seq, release)
	if err != nil {
		t.Fatalf("NewColumn(%v) failed: %v", seq, err)
	}
	return col
}

func pairInstance(t *testing.T) *domain.Instance {
	return mustInstance(t, []domain.Test{
		{ID: 1, Release: 0, Deadline: 10, Duration: 2},
		{ID: 2, Release: 0, Deadline: 10, Duration: 2},
	}, []int{0, 5}, [2]int{1, 2}, [2]int{2, 1})
}

func TestColumnPoolFork(t *testing.T) {
	inst := pairInstance(t)
	a, b, c := column(t, inst, 0, 1), column(t, inst, 0, 2), column(t, inst, 0, 1, 2)

	root := NewColumnPool([]*domain.Column{a})
	left := root.Fork()
	right := root.Fork()
	left.Add(b)
	right.Add(c)
	grand := left.Fork()
	grand.Add(c)

	if root.Len() != 1 || left.Len() != 2 || right.Len() != 2 || grand.Len() != 3 {
		t.Fatalf("lens = %d %d %d %d, want 1 2 2 3", root.Len(), left.Len(), right.Len(), grand.Len())
	}
	got := grand.All()
	if got[0] != a || got[1] != b || got[2] != c {
		t.Errorf("grand.All() = %v, want [a b c]", got)
	}
	if r := right.All(); r[1] != c {
		t.Errorf("right.All()[1] = %s, want %s", r[1], c)
	}
	if len(left.Delta()) != 1 {
		t.Errorf("len(left.Delta()) = %d, want 1", len(left.Delta()))
	}
}

func TestFrontierOrder(t *testing.T) {
	nodes := []*Node{
		{ID: "a", Bound: 10, seq: 1},
		{ID: "b", Bound: 5, seq: 2},
		{ID: "c", Bound: 5, seq: 3},
	}

	lifo := NewFrontier(domain.StrategyDepthFirst)
	bound := NewFrontier(domain.StrategyBestBound)
	for _, n := range nodes {
		lifo.Push(n)
		bound.Push(n)
	}

	for _, want := range []string{"c", "b", "a"} {
		if got := lifo.Pop().ID; got != want {
			t.Errorf("depth-first Pop = %s, want %s", got, want)
		}
	}
	for _, want := range []string{"b", "c", "a"} {
		if got := bound.Pop().ID; got != want {
			t.Errorf("best-bound Pop = %s, want %s", got, want)
		}
	}
	if lifo.Len() != 0 || bound.Len() != 0 {
		t.Error("frontiers not drained")
	}
}

func TestFractionalPairTogether(t *testing.T) {
	inst := pairInstance(t)
	cols := []*domain.Column{column(t, inst, 0, 1, 2), column(t, inst, 0, 1), column(t, inst, 0, 2)}

	bc, ok := fractional(aggregate(cols, []float64{0.5, 0.5, 0.5}), 0.4888)
	if !ok {
		t.Fatal("no branch found")
	}
	if bc.Kind != domain.KindPairTogether || bc.First != 2 || bc.Second != 1 || bc.Direction != domain.ForceZero {
		t.Errorf("branch = %s, want PAIR_TOGETHER(2,1)=FORCE_ZERO", bc)
	}
}

func TestFractionalSingleAssignment(t *testing.T) {
	inst := pairInstance(t)
	cols := []*domain.Column{column(t, inst, 0, 1), column(t, inst, 5, 1), column(t, inst, 0, 2)}

	bc, ok := fractional(aggregate(cols, []float64{0.3, 0.7, 1}), 0.4888)
	if !ok {
		t.Fatal("no branch found")
	}
	if bc.Kind != domain.KindSingleAssignment || bc.First != 1 || bc.Release != 0 {
		t.Errorf("branch = %s, want SINGLE_ASSIGNMENT(1@0)", bc)
	}
}

func TestFractionalPairOrder(t *testing.T) {
	inst := pairInstance(t)
	cols := []*domain.Column{column(t, inst, 0, 1, 2), column(t, inst, 0, 2, 1)}

	bc, ok := fractional(aggregate(cols, []float64{0.5, 0.5}), 0.4888)
	if !ok {
		t.Fatal("no branch found")
	}
	if bc.Kind != domain.KindPairOrder || bc.First != 2 || bc.Second != 1 || bc.Release != 0 {
		t.Errorf("branch = %s, want PAIR_ORDER(2<1@0)", bc)
	}
}

func TestFractionalToleratesNearIntegral(t *testing.T) {
	inst := pairInstance(t)
	cols := []*domain.Column{column(t, inst, 0, 1, 2), column(t, inst, 5, 1, 2)}

	if bc, ok := fractional(aggregate(cols, []float64{0.995, 0.005}), 0.4888); ok {
		t.Errorf("branch = %s, want none", bc)
	}
	if _, ok := fractional(aggregate(cols, []float64{0.95, 0.05}), 0.4888); !ok {
		t.Error("no branch found for aggregate 0.95")
	}
}

// Every pool column excluded by one child is admissible in the other.
func TestBranchChildrenAreComplementary(t *testing.T) {
	inst := pairInstance(t)
	pool := []*domain.Column{
		column(t, inst, 0, 1), column(t, inst, 0, 2), column(t, inst, 5, 1),
		column(t, inst, 0, 1, 2), column(t, inst, 0, 2, 1), column(t, inst, 5, 2, 1),
	}
	weights := []float64{0.5, 0.2, 0.5, 0.3, 0.5, 0.5}
	bc, ok := fractional(aggregate(pool, weights), 0.4888)
	if !ok {
		t.Fatal("no branch found")
	}
	for _, col := range pool {
		if bc.Satisfy(col) == domain.Excluded && bc.Complement().Satisfy(col) == domain.Excluded {
			t.Errorf("%s excluded on both sides of %s", col, bc)
		}
	}
}

func TestIncumbentUpdate(t *testing.T) {
	inc := NewIncumbent()
	if !math.IsInf(inc.Value(), 1) {
		t.Fatalf("initial value = %f, want +Inf", inc.Value())
	}
	if !inc.Update(100, nil) {
		t.Error("Update(100) = false, want true")
	}
	if inc.Update(100, nil) {
		t.Error("Update with an equal value = true, want false")
	}
	if inc.Update(120, nil) {
		t.Error("Update with a worse value = true, want false")
	}
	if !inc.Update(90, []domain.ColumnWeight{{Weight: 1}}) {
		t.Error("Update(90) = false, want true")
	}
	if h := inc.History(); len(h) != 2 || h[0] != 100 || h[1] != 90 {
		t.Errorf("History = %v, want [100 90]", h)
	}
	if len(inc.Columns()) != 1 {
		t.Errorf("len(Columns) = %d, want 1", len(inc.Columns()))
	}
}

// A child whose inherited pool cannot cover every test must price the
// missing columns instead of being declared infeasible.
func TestChildPricesAroundExcludedPool(t *testing.T) {
	inst := mustInstance(t, []domain.Test{
		{ID: 1, Release: 0, Deadline: 10, Duration: 2},
		{ID: 2, Release: 0, Deadline: 10, Duration: 2},
	}, []int{0}, [2]int{1, 2})
	s := mustSolver(t, inst)
	r := s.newRun()

	together, err := domain.NewBranchConstraint(domain.KindPairTogether, domain.ForceOne, 1, 2, 0)
	if err != nil {
		t.Fatalf("NewBranchConstraint failed: %v", err)
	}
	n := &Node{
		ID:          "child",
		Depth:       1,
		Constraints: []domain.BranchConstraint{together},
		Bound:       math.Inf(-1),
		pool:        NewColumnPool([]*domain.Column{column(t, inst, 0, 1), column(t, inst, 0, 2)}),
	}

	children, err := r.process(context.Background(), n)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if len(children) != 0 {
		t.Errorf("got %d children, want none", len(children))
	}
	if n.Outcome != domain.OutcomeIntegral {
		t.Errorf("Outcome = %s, want %s", n.Outcome, domain.OutcomeIntegral)
	}
	if math.Abs(r.incumbent.Value()-50) > 1e-6 {
		t.Errorf("incumbent = %f, want 50", r.incumbent.Value())
	}
	if cols := r.incumbent.Columns(); len(cols) != 1 || cols[0].Column.Len() != 2 {
		t.Errorf("incumbent columns = %v, want the pair", cols)
	}
}

// Forbidding the only pair that fits on one resource leaves the node
// without a cover once pricing has nothing more to offer.
func TestChildWithoutCoverIsInfeasible(t *testing.T) {
	inst := mustInstance(t, []domain.Test{
		{ID: 1, Release: 0, Deadline: 10, Duration: 2},
		{ID: 2, Release: 0, Deadline: 10, Duration: 2},
	}, []int{0}, [2]int{1, 2})
	s := mustSolver(t, inst)
	r := s.newRun()

	apart, err := domain.NewBranchConstraint(domain.KindPairTogether, domain.ForceZero, 1, 2, 0)
	if err != nil {
		t.Fatalf("NewBranchConstraint failed: %v", err)
	}
	n := &Node{
		ID:          "child",
		Depth:       1,
		Constraints: []domain.BranchConstraint{apart},
		Bound:       math.Inf(-1),
		pool:        NewColumnPool([]*domain.Column{column(t, inst, 0, 1), column(t, inst, 0, 2)}),
	}

	if _, err := r.process(context.Background(), n); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if n.Outcome != domain.OutcomeInfeasible {
		t.Errorf("Outcome = %s, want %s", n.Outcome, domain.OutcomeInfeasible)
	}
	if !math.IsInf(r.incumbent.Value(), 1) {
		t.Errorf("incumbent = %f, want none", r.incumbent.Value())
	}
}
