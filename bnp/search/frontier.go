package search

import (
	"container/heap"

	"github.com/example/tp3s/bnp/domain"
)

// Frontier holds the nodes waiting to be processed.
type Frontier interface {
	Push(n *Node)
	Pop() *Node
	Len() int
}

// NewFrontier returns the frontier for a strategy.
func NewFrontier(strategy domain.Strategy) Frontier {
	if strategy == domain.StrategyBestBound {
		return &boundQueue{}
	}
	return &stack{}
}

// stack explores the most recently pushed node first.
type stack struct {
	nodes []*Node
}

func (s *stack) Push(n *Node) { s.nodes = append(s.nodes, n) }

func (s *stack) Pop() *Node {
	n := s.nodes[len(s.nodes)-1]
	s.nodes[len(s.nodes)-1] = nil
	s.nodes = s.nodes[:len(s.nodes)-1]
	return n
}

func (s *stack) Len() int { return len(s.nodes) }

// boundQueue explores the node with the lowest parent bound first, oldest
// first among equal bounds.
type boundQueue struct {
	h nodeHeap
}

func (q *boundQueue) Push(n *Node) { heap.Push(&q.h, n) }
func (q *boundQueue) Pop() *Node  { return heap.Pop(&q.h).(*Node) }
func (q *boundQueue) Len() int    { return q.h.Len() }

type nodeHeap []*Node

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	if h[i].Bound != h[j].Bound {
		return h[i].Bound < h[j].Bound
	}
	return h[i].seq < h[j].seq
}

func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) { *h = append(*h, x.(*Node)) }

func (h *nodeHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	return n
}
