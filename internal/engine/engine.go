// Package engine generates conflict-free weekly class timetables. It is an
// in-process library with a typed result/error union: a structured failure is
// an *Error carrying a Reason, any other error is an unexpected internal
// failure and is never surfaced verbatim to the caller.
package engine

import (
	"context"
	"time"
)

// Style selects the layout objective.
type Style string

const (
	// StyleCompact minimises total idle minutes between classes per day.
	StyleCompact Style = "compact"
	// StyleSpacedOut maximises idle minutes while staying inside the window.
	StyleSpacedOut Style = "spaced_out"
)

// Class is one weekly meeting of a section, as seen by the engine. The
// catalog snapshot handed to Generate is never mutated.
type Class struct {
	Code     string
	Subject  string
	Activity string
	Section  string
	Day      string
	Start    Minutes
	End      Minutes
	Venue    string
	Lecturer string
	TiedTo   []string
}

// Preferences is the canonical constraint set produced by the preference
// normaliser. Subjects is ordered; that order is the deterministic tie-break
// of last resort.
type Preferences struct {
	Subjects    []string
	Lecturers   []string
	Days        []string
	WindowStart Minutes
	WindowEnd   Minutes
	EnforceTies bool
	Style       Style
}

// Config bounds the backtracking search. Zero values fall back to defaults;
// both budgets are hard.
type Config struct {
	SearchTimeout   time.Duration
	MaxSearchNodes  int
	MaxCombinations int
}

const (
	defaultSearchTimeout   = 5 * time.Second
	defaultMaxSearchNodes  = 200000
	defaultMaxCombinations = 64
)

// Stats reports how much work a generation took.
type Stats struct {
	NodesExplored     int           `json:"nodes_explored"`
	CombinationsFound int           `json:"combinations_found"`
	Elapsed           time.Duration `json:"elapsed"`
}

// Result is the success variant of the generation union.
type Result struct {
	Schedule Schedule `json:"timetable"`
	Summary  Summary  `json:"summary"`
	Stats    Stats    `json:"-"`
}

// Generator runs the candidate generation, conflict solving and layout
// optimisation pipeline.
type Generator struct {
	cfg Config
}

// New builds a Generator, applying defaults for unset budgets.
func New(cfg Config) *Generator {
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = defaultSearchTimeout
	}
	if cfg.MaxSearchNodes <= 0 {
		cfg.MaxSearchNodes = defaultMaxSearchNodes
	}
	if cfg.MaxCombinations <= 0 {
		cfg.MaxCombinations = defaultMaxCombinations
	}
	return &Generator{cfg: cfg}
}

// Generate assembles the best conflict-free timetable for the preferences,
// or a structured *Error when none can be produced. Identical catalog and
// preferences always yield an identical Result.
func (g *Generator) Generate(ctx context.Context, classes []Class, prefs Preferences) (*Result, error) {
	started := time.Now()

	if err := validatePreferences(prefs); err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, invalidInput("empty section catalog")
	}

	cat := newCatalog(classes)
	domains, err := buildDomains(cat, prefs)
	if err != nil {
		return nil, err
	}

	deadline := started.Add(g.cfg.SearchTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	s := &solver{
		domains:      domains,
		deadline:     deadline,
		maxNodes:     g.cfg.MaxSearchNodes,
		maxSolutions: g.cfg.MaxCombinations,
	}
	combinations, err := s.solve(prefs.Lecturers)
	if err != nil {
		return nil, err
	}

	best := pickBest(combinations, prefs.Style)
	result := formatResult(best)
	result.Stats = Stats{
		NodesExplored:     s.nodes,
		CombinationsFound: len(combinations),
		Elapsed:           time.Since(started),
	}
	return result, nil
}

func validatePreferences(prefs Preferences) *Error {
	if len(prefs.Subjects) == 0 {
		return invalidInput("preferences must name at least one subject")
	}
	if prefs.WindowStart >= prefs.WindowEnd {
		return invalidInput("preference window start %s must precede end %s", prefs.WindowStart, prefs.WindowEnd)
	}
	if prefs.Style != StyleCompact && prefs.Style != StyleSpacedOut {
		return invalidInput("unknown schedule style %q", prefs.Style)
	}
	return nil
}
