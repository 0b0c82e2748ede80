package engine

import (
	"sort"
	"time"
)

// combination assigns one bundle per subject, ordered by the normalised
// preference subject order.
type combination []bundle

// solver performs the backtracking CSP search: variables are subjects,
// domains are feasible bundles, the single constraint is pairwise
// non-overlap across every class implied by the assignment.
type solver struct {
	domains      []domain
	deadline     time.Time
	maxNodes     int
	maxSolutions int

	nodes int
}

// solve enumerates up to maxSolutions conflict-free combinations. Preferred
// lecturers are a soft constraint: a first pass restricts each subject to
// bundles taught by a preferred lecturer where any exist, and the full
// domains are searched only when that pass proves empty. A timeout with at
// least one solution in hand degrades to returning what was found.
func (s *solver) solve(preferredLecturers []string) ([]combination, error) {
	if restricted, ok := restrictDomains(s.domains, preferredLecturers); ok {
		solutions, err := s.search(restricted)
		if err != nil {
			return nil, err
		}
		if len(solutions) > 0 {
			return solutions, nil
		}
	}

	solutions, err := s.search(s.domains)
	if err != nil {
		return nil, err
	}
	if len(solutions) == 0 {
		return nil, &Error{Reason: ReasonUnsatisfiable, Message: "no conflict-free combination of sections exists for the selected subjects"}
	}
	return solutions, nil
}

func (s *solver) search(domains []domain) ([]combination, error) {
	// Fail-first: assign the subject with the fewest options earliest.
	order := make([]domain, len(domains))
	copy(order, domains)
	sort.SliceStable(order, func(i, j int) bool { return len(order[i].bundles) < len(order[j].bundles) })

	occupied := make(map[string][]Class)
	assigned := make([]bundle, len(order))
	var solutions []combination

	var backtrack func(depth int) *Error
	backtrack = func(depth int) *Error {
		if depth == len(order) {
			solutions = append(solutions, reorder(order, assigned))
			return nil
		}
		for _, candidate := range order[depth].bundles {
			s.nodes++
			if s.nodes > s.maxNodes {
				return &Error{Reason: ReasonSearchBudget, Message: "explored-node budget exhausted"}
			}
			if s.nodes%256 == 0 && time.Now().After(s.deadline) {
				return &Error{Reason: ReasonSearchBudget, Message: "search deadline exceeded"}
			}

			placed, ok := place(occupied, candidate)
			if !ok {
				continue
			}
			assigned[depth] = candidate
			if err := backtrack(depth + 1); err != nil {
				return err
			}
			unplace(occupied, placed)
			if len(solutions) >= s.maxSolutions {
				return nil
			}
		}
		return nil
	}

	err := backtrack(0)
	if err != nil {
		// Budget ran out: an already-found combination is still a valid
		// answer, only the optimiser's choice narrows.
		if len(solutions) > 0 {
			return solutions, nil
		}
		return nil, err
	}
	return solutions, nil
}

// place adds the bundle's classes to the occupancy index, rolling back and
// reporting failure on the first overlap. Two classes conflict iff they share
// a day and their [start,end) intervals intersect.
func place(occupied map[string][]Class, b bundle) ([]Class, bool) {
	var placed []Class
	for _, cls := range b.classes() {
		for _, existing := range occupied[cls.Day] {
			if cls.Start < existing.End && existing.Start < cls.End {
				unplace(occupied, placed)
				return nil, false
			}
		}
		occupied[cls.Day] = append(occupied[cls.Day], cls)
		placed = append(placed, cls)
	}
	return placed, true
}

func unplace(occupied map[string][]Class, placed []Class) {
	for _, cls := range placed {
		day := occupied[cls.Day]
		occupied[cls.Day] = day[:len(day)-1]
	}
}

// reorder maps the search-order assignment back to preference subject order.
func reorder(order []domain, assigned []bundle) combination {
	out := make(combination, len(order))
	for i, d := range order {
		out[d.index] = assigned[i]
	}
	return out
}

// restrictDomains narrows each subject to bundles involving a preferred
// lecturer. Subjects with no such bundle keep their full domain; when no
// subject could be narrowed there is no separate pass to run.
func restrictDomains(domains []domain, preferredLecturers []string) ([]domain, bool) {
	if len(preferredLecturers) == 0 {
		return nil, false
	}
	preferred := toSet(preferredLecturers)

	narrowed := false
	out := make([]domain, len(domains))
	for i, d := range domains {
		var matching []bundle
		for _, b := range d.bundles {
			if bundleHasLecturer(b, preferred) {
				matching = append(matching, b)
			}
		}
		out[i] = d
		if len(matching) > 0 && len(matching) < len(d.bundles) {
			out[i].bundles = matching
			narrowed = true
		}
	}
	return out, narrowed
}

func bundleHasLecturer(b bundle, preferred map[string]struct{}) bool {
	for _, cls := range b.classes() {
		if _, ok := preferred[cls.Lecturer]; ok {
			return true
		}
	}
	return false
}
