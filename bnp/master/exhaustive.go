package master

import (
	"github.com/example/tp3s/bnp/domain"
)

// SolveExhaustive solves the integer master over a fixed column set. Fed
// with every enumerated sequence it is the exact baseline for small
// instances.
func SolveExhaustive(inst *domain.Instance, columns []*domain.Column, fixedCost float64, mipNodeLimit int) (*Problem, *IntegerResult, error) {
	p := New(inst, fixedCost, mipNodeLimit)
	for _, col := range columns {
		if _, err := p.AddColumn(col, false); err != nil {
			return nil, nil, err
		}
	}
	res, err := p.SolveInteger()
	if err != nil {
		return nil, nil, err
	}
	return p, res, nil
}
