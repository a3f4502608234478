// Command lcgsolve reads a CNF formula in the DIMACS format and reports
// whether it is satisfiable, adapted from cespare/saturday's cmd/saturday
// driver but built on the full lcg.Model API instead of a single
// Solve([][]int) call.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/solverkit/lcg"
	"github.com/solverkit/lcg/internal/dimacs"
	"github.com/solverkit/lcg/internal/domains"
	"github.com/solverkit/lcg/internal/search"
)

func main() {
	log.SetFlags(0)
	verbose := flag.Bool("v", false, "verbose mode")
	configPath := flag.String("config", "", "path to a .env-style lcg config file")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `lcgsolve: a lazy-clause-generation SAT solver.

Usage:

  lcgsolve [-v] [-config path] [input.cnf]

lcgsolve reads a single problem specification in the DIMACS CNF format.
It writes the output in the conventional way: either the first line is UNSAT,
or else the first line is SAT and the second line gives the assignments in the
same format as an input clause.

If no input file is given, lcgsolve reads from standard input.
`)
	}
	flag.Parse()

	var r io.Reader = os.Stdin
	if flag.NArg() >= 1 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		r = f
	}

	cnf, err := dimacs.Parse(r)
	if err != nil {
		log.Fatalln("Error reading input file as DIMACS CNF:", err)
	}

	cfg := lcg.DefaultConfig()
	if *configPath != "" {
		cf, err := os.Open(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg, err = lcg.LoadConfig(cf)
		cf.Close()
		if err != nil {
			log.Fatal(err)
		}
	}
	if *verbose {
		cfg.Logger = hclog.New(&hclog.LoggerOptions{Name: "lcgsolve", Level: hclog.Debug, Output: os.Stderr})
	}

	m := lcg.NewModel(cfg)
	b := dimacs.NewBuilder(m.Dom)
	for _, cls := range cnf {
		lits := b.Clause(cls)
		if _, ok := m.Sat.AddClause(lits, domains.TrueLit, false); !ok {
			continue // tautological clause; nothing to enforce
		}
	}
	for _, n := range b.Vars() {
		m.RegisterDecisionVar(b.VarID(n))
	}

	res, err := m.Solve(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	if res != search.Sat {
		fmt.Println("UNSAT")
		return
	}
	fmt.Println("SAT")
	for i, n := range b.Vars() {
		if i > 0 {
			fmt.Print(" ")
		}
		if m.Dom.Entails(b.Lit(n)) {
			fmt.Print(n)
		} else {
			fmt.Print(-n)
		}
	}
	fmt.Println()
}
