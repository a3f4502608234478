package dimacs

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/solverkit/lcg/internal/domains"
)

func TestParse(t *testing.T) {
	for _, tt := range []struct {
		name string
		text string
		want [][]int
	}{
		{
			name: "no vars or clauses",
			text: `
c No vars or clauses
p cnf 0 0
`,
			want: [][]int{},
		},
		{
			name: "no clauses",
			text: `
c No clauses
p cnf 5 0
`,
			want: [][]int{},
		},
		{
			name: "one var one clause",
			text: `
c 1 var, 1 clause
p cnf 1 1
1 0
`,
			want: [][]int{{1}},
		},
		{
			name: "empty clauses",
			text: `
c Empty clauses
p cnf 3 5
1 3 0 0 -3 0
0 -2 -1
`,
			want: [][]int{{1, 3}, {}, {-3}, {}, {-2, -1}},
		},
		{
			name: "dimacs example file",
			text: `
c DIMACS example file
c
p cnf 4 3
1 3 -4 0
4 0 2
-3
`,
			want: [][]int{{1, 3, -4}, {4}, {2, -3}},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(strings.TrimSpace(tt.text)))
			require.NoError(t, err)
			if diff := cmp.Diff(got, tt.want, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("Parse (-got, +want):\n%s", diff)
			}
		})
	}
}

func TestParsePercentStopsAtTrailer(t *testing.T) {
	in := `p cnf 2 2
1 2 0
-1 2 0
%
1 2 3
x y z
`
	got, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	want := [][]int{{1, 2}, {-1, 2}}
	if diff := cmp.Diff(got, want, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("Parse (-got, +want):\n%s", diff)
	}
}

func TestBuilderMapsVarsConsistently(t *testing.T) {
	dom := domains.New()
	b := NewBuilder(dom)

	lits := b.Clause([]int{1, -2, 3})
	require.Len(t, lits, 3)
	require.Equal(t, b.Lit(1), lits[0])
	require.Equal(t, b.Lit(-2), lits[1])
	require.Equal(t, b.Lit(2).Negation(), b.Lit(-2))
	require.Equal(t, []int{1, 2, 3}, b.Vars())
}
