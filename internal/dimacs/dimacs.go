// Package dimacs parses the DIMACS CNF clause format and builds an lcg
// model from it (spec.md's framing that DIMACS is a clause format, not a
// planning format, so it sits outside the "no planning-format parsers"
// non-goal).
package dimacs

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/solverkit/lcg/internal/domains"
)

// Parse parses text in the DIMACS CNF format, grounded on
// cespare/saturday's ParseDIMACS verbatim (the format itself doesn't
// change just because the solver behind it does): each returned slice is
// one clause, and a negative integer denotes a negated variable.
//
// For convenience, a few non-standard variations are accepted, as in the
// teacher:
//
//   - Comments (lines beginning with 'c') may appear anywhere, not just in
//     the preamble.
//   - The problem line may be missing.
func Parse(r io.Reader) ([][]int, error) {
	var problem struct {
		vars    int
		clauses int
	}
	var clauses [][]int
	var clause []int
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		if len(line) == 0 || line[0] == 'c' {
			continue
		}
		if line == "%" {
			break
		}
		if line[0] == 'p' {
			if len(clauses) > 0 {
				return nil, errors.New("dimacs: problem line appears after clauses")
			}
			if problem.vars > 0 {
				return nil, errors.New("dimacs: multiple problem lines")
			}
			fields := strings.Fields(line)
			if len(fields) != 4 {
				return nil, errors.Errorf("dimacs: malformed problem line %q", line)
			}
			if fields[0] != "p" {
				return nil, errors.Errorf("dimacs: problem line starts with unexpected signifier %q", fields[0])
			}
			if fields[1] != "cnf" {
				return nil, errors.Errorf("dimacs: only cnf supported; got %q", fields[1])
			}
			var err error
			problem.vars, err = strconv.Atoi(fields[2])
			if err != nil {
				return nil, errors.Wrap(err, "dimacs: malformed #vars in problem line")
			}
			problem.clauses, err = strconv.Atoi(fields[3])
			if err != nil {
				return nil, errors.Wrap(err, "dimacs: malformed #clauses in problem line")
			}
			if problem.vars < 0 {
				return nil, errors.Errorf("dimacs: invalid #vars %d", problem.vars)
			}
			if problem.clauses < 0 {
				return nil, errors.Errorf("dimacs: invalid #clauses %d", problem.clauses)
			}
			continue
		}
		for _, field := range strings.Fields(line) {
			n, err := strconv.Atoi(field)
			if err != nil {
				return nil, errors.Wrap(err, "dimacs: invalid variable")
			}
			if n == 0 {
				clauses = append(clauses, clause)
				clause = nil
			} else {
				clause = append(clause, n)
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "dimacs: scanning input")
	}
	if len(clause) > 0 {
		clauses = append(clauses, clause)
	}

	if problem.vars > 0 {
		vars := make(map[int]struct{})
		for _, cls := range clauses {
			for _, v := range cls {
				if v < 0 {
					v = -v
				}
				if v > problem.vars {
					return nil, errors.Errorf("dimacs: formula contains var %d, but problem line asserts %d vars (only vars in [1, %d] expected)",
						v, problem.vars, problem.vars)
				}
				vars[v] = struct{}{}
			}
		}
		if len(vars) > problem.vars {
			return nil, errors.Errorf("dimacs: problem line specifies %d vars, but there are %d", problem.vars, len(vars))
		}
		if len(clauses) != problem.clauses {
			return nil, errors.Errorf("dimacs: problem line specifies %d clauses, but there are %d", problem.clauses, len(clauses))
		}
	}
	return clauses, nil
}

// Builder maps DIMACS integer variables onto lcg domains.VarID/Lit pairs,
// one boolean variable per distinct DIMACS var, created lazily as clauses
// reference them.
type Builder struct {
	dom  *domains.Domains
	vars map[int]domains.VarID
}

// NewBuilder creates a Builder over dom.
func NewBuilder(dom *domains.Domains) *Builder {
	return &Builder{dom: dom, vars: make(map[int]domains.VarID)}
}

// Lit returns the domains.Lit for DIMACS integer n (negative for the
// negated literal), creating the underlying boolean variable the first
// time n's variable is seen.
func (b *Builder) Lit(n int) domains.Lit {
	if n == 0 {
		panic("dimacs: zero literal")
	}
	v := n
	if v < 0 {
		v = -v
	}
	id, ok := b.vars[v]
	if !ok {
		id = b.dom.NewVar(0, 1)
		b.vars[v] = id
	}
	lit := domains.Leq(id, 0).Negation() // var == 1
	if n < 0 {
		lit = lit.Negation()
	}
	return lit
}

// Clause converts one DIMACS clause to a slice of domains.Lit.
func (b *Builder) Clause(cls []int) []domains.Lit {
	out := make([]domains.Lit, len(cls))
	for i, n := range cls {
		out[i] = b.Lit(n)
	}
	return out
}

// Vars returns the DIMACS integer of every boolean variable created so far,
// sorted ascending, for registering as decision variables and for reading
// back a satisfying assignment.
func (b *Builder) Vars() []int {
	out := make([]int, 0, len(b.vars))
	for n := range b.vars {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// VarID returns the variable created for DIMACS integer n (panics if n's
// variable was never referenced by a clause).
func (b *Builder) VarID(n int) domains.VarID {
	if v, ok := b.vars[n]; ok {
		return v
	}
	panic(fmt.Sprintf("dimacs: variable %d never referenced", n))
}
