package lcg

import (
	"io"
	"strconv"
	"strings"

	"github.com/hashicorp/go-envparse"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/solverkit/lcg/internal/search"
)

// STNPropagationLevel selects how much extra inference the STN reasoner
// does beyond plain edge relaxation (spec.md 6 "Configuration",
// ARIES_STN_THEORY_PROPAGATION). Only None and Bounds are distinguished:
// this repo's stnreasoner only implements the "bounds" level
// (TheoryPropagateBounds forcing an edge's presence false when activating
// it would immediately empty its head's domain) — the original's Edges and
// Full levels go further (propagating through inactive edges, and a fixed
// point over both directions) and are not implemented here; Edges and Full
// fall back to Bounds rather than silently behaving like None.
type STNPropagationLevel int

const (
	STNPropagationNone STNPropagationLevel = iota
	STNPropagationBounds
	STNPropagationEdges
	STNPropagationFull
)

func parseSTNPropagationLevel(s string) (STNPropagationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return STNPropagationNone, nil
	case "bounds":
		return STNPropagationBounds, nil
	case "edges":
		return STNPropagationEdges, nil
	case "full":
		return STNPropagationFull, nil
	default:
		return STNPropagationNone, errors.Errorf("lcg: unknown STN propagation level %q", s)
	}
}

// SymmetryBreaking selects the decision-variable ordering bias applied at
// model-build time (spec.md 6 "Configuration"). Only None is implemented:
// Simple and PlanSpace name strategies from the original's symmetry-
// breaking module that depend on a planning-specific task/action
// hierarchy this repo's generic Model has no representation for, so they
// are accepted as configuration values (to keep the knob's name stable for
// callers already setting it) but currently behave like None. See
// DESIGN.md.
type SymmetryBreaking int

const (
	SymmetryBreakingNone SymmetryBreaking = iota
	SymmetryBreakingSimple
	SymmetryBreakingPlanSpace
)

func parseSymmetryBreaking(s string) (SymmetryBreaking, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SymmetryBreakingNone, nil
	case "simple":
		return SymmetryBreakingSimple, nil
	case "plan-space", "planspace":
		return SymmetryBreakingPlanSpace, nil
	default:
		return SymmetryBreakingNone, errors.Errorf("lcg: unknown symmetry breaking mode %q", s)
	}
}

// Config tunes a Model's search policy (spec.md 6 "Configuration").
// DefaultConfig returns the teacher/original's usual defaults; LoadConfig
// overlays the LCG_* keys of a .env-style file onto a copy of it. The
// process environment itself is not read.
type Config struct {
	RestartBase        int
	RestartFactor      float64
	ReduceDBEvery      int
	LockedLBD          int
	STNPropagation     STNPropagationLevel
	STNDeepExplain     bool
	STNExtensiveChecks bool
	SymmetryBreaking   SymmetryBreaking
	Logger             hclog.Logger
}

// DefaultConfig mirrors search.DefaultConfig, with the lcg-specific knobs
// at their most conservative settings.
func DefaultConfig() Config {
	sc := search.DefaultConfig()
	return Config{
		RestartBase:      sc.RestartBase,
		RestartFactor:    sc.RestartFactor,
		ReduceDBEvery:    sc.ReduceDBEvery,
		LockedLBD:        0,
		STNPropagation:   STNPropagationNone,
		STNDeepExplain:   false,
		SymmetryBreaking: SymmetryBreakingNone,
	}
}

// LoadConfig parses r as a .env-style file (KEY=VALUE lines, as produced
// by github.com/hashicorp/go-envparse) and overlays any of the recognized
// keys onto DefaultConfig: LCG_RESTART_BASE, LCG_RESTART_FACTOR,
// LCG_REDUCE_DB_EVERY, LCG_LOCKED_LBD, LCG_STN_PROPAGATION,
// LCG_STN_DEEP_EXPLANATION, LCG_STN_EXTENSIVE_CHECKS,
// LCG_SYMMETRY_BREAKING. Unrecognized keys are
// ignored, mirroring the original's per-component opt-in env reading.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	vars, err := envparse.Parse(r)
	if err != nil {
		return cfg, errors.Wrap(err, "lcg: parsing config")
	}
	if v, ok := vars["LCG_RESTART_BASE"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, errors.Wrap(err, "lcg: LCG_RESTART_BASE")
		}
		cfg.RestartBase = n
	}
	if v, ok := vars["LCG_RESTART_FACTOR"]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, errors.Wrap(err, "lcg: LCG_RESTART_FACTOR")
		}
		cfg.RestartFactor = f
	}
	if v, ok := vars["LCG_REDUCE_DB_EVERY"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, errors.Wrap(err, "lcg: LCG_REDUCE_DB_EVERY")
		}
		cfg.ReduceDBEvery = n
	}
	if v, ok := vars["LCG_LOCKED_LBD"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, errors.Wrap(err, "lcg: LCG_LOCKED_LBD")
		}
		cfg.LockedLBD = n
	}
	if v, ok := vars["LCG_STN_PROPAGATION"]; ok {
		lvl, err := parseSTNPropagationLevel(v)
		if err != nil {
			return cfg, err
		}
		cfg.STNPropagation = lvl
	}
	if v, ok := vars["LCG_STN_DEEP_EXPLANATION"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, errors.Wrap(err, "lcg: LCG_STN_DEEP_EXPLANATION")
		}
		cfg.STNDeepExplain = b
	}
	if v, ok := vars["LCG_STN_EXTENSIVE_CHECKS"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, errors.Wrap(err, "lcg: LCG_STN_EXTENSIVE_CHECKS")
		}
		cfg.STNExtensiveChecks = b
	}
	if v, ok := vars["LCG_SYMMETRY_BREAKING"]; ok {
		sb, err := parseSymmetryBreaking(v)
		if err != nil {
			return cfg, err
		}
		cfg.SymmetryBreaking = sb
	}
	return cfg, nil
}
