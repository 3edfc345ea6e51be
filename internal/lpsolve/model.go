// Package lpsolve is the linear and mixed-integer programming collaborator
// of the branch-and-price engine. Models are built row-wise or column-wise,
// relaxations are solved with gonum's simplex, dual prices come from the
// explicit dual program and integer models are solved by depth-first
// branch-and-bound over the relaxation.
package lpsolve

import (
	"fmt"
	"math"
)

// Sense is the relation of a constraint row to its right-hand side.
type Sense int

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	default:
		return "?"
	}
}

// VarType is the domain of a variable.
type VarType int

const (
	Continuous VarType = iota
	Binary
	Integer
)

// Coef is a variable's coefficient in a row, used for column-wise building.
type Coef struct {
	Row   int
	Value float64
}

// Term is a row's coefficient on a variable, used for row-wise building.
type Term struct {
	Var   int
	Value float64
}

type row struct {
	name  string
	sense Sense
	rhs   float64
}

type variable struct {
	name  string
	lo    float64
	hi    float64
	obj   float64
	typ   VarType
	coefs map[int]float64
}

// Model is a minimization problem over bounded variables.
type Model struct {
	name     string
	rows     []row
	vars     []variable
	objConst float64
}

// NewModel creates an empty model.
func NewModel(name string) *Model {
	return &Model{name: name}
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// NumRows returns the number of constraint rows.
func (m *Model) NumRows() int { return len(m.rows) }

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.vars) }

// AddRow adds an empty constraint row and returns its index.
func (m *Model) AddRow(name string, sense Sense, rhs float64) int {
	m.rows = append(m.rows, row{name: name, sense: sense, rhs: rhs})
	return len(m.rows) - 1
}

// AddVar appends a variable with its coefficients in existing rows and
// returns its index. Rows may already contain other variables.
func (m *Model) AddVar(name string, lo, hi, obj float64, typ VarType, coefs ...Coef) int {
	v := variable{
		name:  name,
		lo:    lo,
		hi:    hi,
		obj:   obj,
		typ:   typ,
		coefs: make(map[int]float64, len(coefs)),
	}
	for _, c := range coefs {
		if c.Row < 0 || c.Row >= len(m.rows) {
			panic(fmt.Sprintf("lpsolve: row %d out of range", c.Row))
		}
		if c.Value != 0 {
			v.coefs[c.Row] += c.Value
			if v.coefs[c.Row] == 0 {
				delete(v.coefs, c.Row)
			}
		}
	}
	m.vars = append(m.vars, v)
	return len(m.vars) - 1
}

// AddConstraint adds a row with the given variable terms and returns its index.
func (m *Model) AddConstraint(name string, sense Sense, rhs float64, terms ...Term) int {
	r := m.AddRow(name, sense, rhs)
	for _, t := range terms {
		if t.Var < 0 || t.Var >= len(m.vars) {
			panic(fmt.Sprintf("lpsolve: variable %d out of range", t.Var))
		}
		if t.Value != 0 {
			coefs := m.vars[t.Var].coefs
			coefs[r] += t.Value
			if coefs[r] == 0 {
				delete(coefs, r)
			}
		}
	}
	return r
}

// SetBounds replaces a variable's bounds.
func (m *Model) SetBounds(v int, lo, hi float64) {
	m.vars[v].lo = lo
	m.vars[v].hi = hi
}

// Bounds returns a variable's bounds.
func (m *Model) Bounds(v int) (lo, hi float64) {
	return m.vars[v].lo, m.vars[v].hi
}

// SetObjective replaces a variable's objective coefficient.
func (m *Model) SetObjective(v int, c float64) {
	m.vars[v].obj = c
}

// Objective returns a variable's objective coefficient.
func (m *Model) Objective(v int) float64 { return m.vars[v].obj }

// SetObjectiveConstant sets the constant term of the objective.
func (m *Model) SetObjectiveConstant(c float64) { m.objConst = c }

// SetType changes a variable's domain.
func (m *Model) SetType(v int, typ VarType) { m.vars[v].typ = typ }

// VarName returns a variable's name.
func (m *Model) VarName(v int) string { return m.vars[v].name }

// RowName returns a row's name.
func (m *Model) RowName(r int) string { return m.rows[r].name }

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	out := &Model{
		name:     m.name,
		rows:     make([]row, len(m.rows)),
		vars:     make([]variable, len(m.vars)),
		objConst: m.objConst,
	}
	copy(out.rows, m.rows)
	for i, v := range m.vars {
		nv := v
		nv.coefs = make(map[int]float64, len(v.coefs))
		for r, a := range v.coefs {
			nv.coefs[r] = a
		}
		out.vars[i] = nv
	}
	return out
}

// bounds returns the variable bounds with integer domains tightened.
func (m *Model) bounds(integral bool) (lo, hi []float64) {
	lo = make([]float64, len(m.vars))
	hi = make([]float64, len(m.vars))
	for j, v := range m.vars {
		lo[j], hi[j] = v.lo, v.hi
		if !integral {
			if v.typ == Binary {
				lo[j] = math.Max(lo[j], 0)
				hi[j] = math.Min(hi[j], 1)
			}
			continue
		}
		switch v.typ {
		case Binary:
			lo[j] = math.Ceil(math.Max(lo[j], 0) - intTol)
			hi[j] = math.Floor(math.Min(hi[j], 1) + intTol)
		case Integer:
			lo[j] = math.Ceil(lo[j] - intTol)
			if !math.IsInf(hi[j], 1) {
				hi[j] = math.Floor(hi[j] + intTol)
			}
		}
	}
	return lo, hi
}
