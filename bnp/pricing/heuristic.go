package pricing

import (
	"context"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/tp3s/bnp/domain"
)

// Heuristic grows sequences greedily on every resource group, starting
// from scratch and from every pool column, and returns the best resulting
// column over all groups.
type Heuristic struct {
	inst        *domain.Instance
	fixedCost   float64
	tolerance   float64
	workers     int
	idGenerator func() string
	logger      *zap.Logger

	// buckets holds test ids grouped by release, ascending.
	buckets [][]int
}

// NewHeuristic creates a greedy pricer.
func NewHeuristic(inst *domain.Instance, cfg domain.SolverConfig, idGenerator func() string, logger *zap.Logger) *Heuristic {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Heuristic{
		inst:        inst,
		fixedCost:   cfg.FixedCost,
		tolerance:   cfg.ReducedCostTolerance,
		workers:     workers,
		idGenerator: idGenerator,
		logger:      logger,
	}

	byRelease := make(map[int][]int)
	var releases []int
	for _, t := range inst.Tests() {
		if _, ok := byRelease[t.Release]; !ok {
			releases = append(releases, t.Release)
		}
		byRelease[t.Release] = append(byRelease[t.Release], t.ID)
	}
	sort.Ints(releases)
	for _, r := range releases {
		h.buckets = append(h.buckets, byRelease[r])
	}
	return h
}

type candidate struct {
	col *domain.Column
	rc  float64
}

// better orders candidates by reduced cost, then group, then sequence.
func better(a, b *candidate) bool {
	if b == nil {
		return true
	}
	if a.rc != b.rc {
		return a.rc < b.rc
	}
	if a.col.Release != b.col.Release {
		return a.col.Release < b.col.Release
	}
	return a.col.Signature() < b.col.Signature()
}

// Price implements Pricer.
func (h *Heuristic) Price(ctx context.Context, req Request) (*Result, error) {
	groups := h.inst.Groups()
	known := signatures(req.Pool)
	best := make([]*candidate, len(groups))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers)
	for i, grp := range groups {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			best[i] = h.priceGroup(grp.Release, req, known)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var winner *candidate
	for _, c := range best {
		if c != nil && better(c, winner) {
			winner = c
		}
	}
	if winner == nil {
		return nil, nil
	}
	winner.col.ID = h.idGenerator()
	h.logger.Debug("heuristic column",
		zap.String("column", winner.col.String()),
		zap.Float64("reduced_cost", winner.rc))
	return &Result{Column: winner.col, ReducedCost: winner.rc, Source: SourceHeuristic}, nil
}

// priceGroup builds the greedy sequences anchored at one group's release
// and evaluates every prefix of them on every group.
func (h *Heuristic) priceGroup(release int, req Request, known map[string]struct{}) *candidate {
	seqs := [][]int{h.extend(nil, release, req.Duals)}
	for _, col := range req.Pool {
		seqs = append(seqs, h.extend(col.Sequence, release, req.Duals))
	}

	var best *candidate
	seen := make(map[string]struct{})
	for _, full := range seqs {
		for n := 1; n <= len(full); n++ {
			if c := h.evaluate(full[:n], req, known, seen); c != nil && better(c, best) {
				best = c
			}
		}
	}
	return best
}

// evaluate prices seq on every group and returns the best admissible
// column not seen before.
func (h *Heuristic) evaluate(seq []int, req Request, known, seen map[string]struct{}) *candidate {
	var best *candidate
	for _, grp := range h.inst.Groups() {
		col, err := domain.NewColumn("", h.inst, seq, grp.Release)
		if err != nil {
			continue
		}
		sig := col.Signature()
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		if _, dup := known[sig]; dup {
			continue
		}
		rc := ReducedCost(col, req.Duals, h.fixedCost)
		if rc >= -h.tolerance {
			continue
		}
		if domain.ExcludedBy(req.Constraints, col) {
			continue
		}
		c := &candidate{col: col, rc: rc}
		if better(c, best) {
			best = c
		}
	}
	return best
}

// extend appends tests to seq while some release bucket offers an
// extendable test whose marginal reduced cost is negative. The marginal of
// a test is the tardiness it incurs when appended now minus its dual.
// Buckets are scanned from the earliest release; the cheapest extendable
// test of a bucket is accepted if improving, otherwise the next bucket is
// tried.
func (h *Heuristic) extend(seq []int, release int, duals domain.Duals) []int {
	cur := make([]int, len(seq), len(seq)+4)
	copy(cur, seq)
	now := domain.CompletionTime(h.inst, cur, release)

	for {
		found := false
		pick, at := 0, 0
		for _, bucket := range h.buckets {
			bestMarginal := 0.0
			for _, tid := range bucket {
				if !domain.Extendable(h.inst, cur, tid) {
					continue
				}
				t, _ := h.inst.Test(tid)
				end := max(now, t.Release) + t.Duration
				m := float64(max(end-t.Deadline, 0)) - duals.Test(tid)
				if m < bestMarginal {
					found = true
					pick, at, bestMarginal = tid, end, m
				}
			}
			if found {
				break
			}
		}
		if !found {
			return cur
		}
		cur = append(cur, pick)
		now = at
	}
}
