package engine

import (
	"sort"
	"strings"
)

// bundle is one internally tie-consistent choice of section groups for a
// single subject. Ephemeral: bundles exist only while solving.
type bundle struct {
	key    string
	groups []*sectionGroup
}

func (b bundle) classes() []Class {
	var out []Class
	for _, group := range b.groups {
		out = append(out, group.Classes...)
	}
	return out
}

// domain holds a subject's feasible bundles. index preserves the position of
// the subject in the normalised preference order.
type domain struct {
	subject string
	index   int
	bundles []bundle
}

// buildDomains runs the candidate generation stage: filter each subject's
// groups by day and window, then expand tie relationships into bundles. The
// tie relation is treated as undirected and transitively closed within a
// subject, so an asymmetric declaration (A names B, B is silent) still binds
// the two together.
func buildDomains(cat *catalog, prefs Preferences) ([]domain, error) {
	allowedDays := toSet(prefs.Days)

	domains := make([]domain, 0, len(prefs.Subjects))
	for i, subject := range prefs.Subjects {
		groups := cat.bySubject[subject]
		surviving := make([]*sectionGroup, 0, len(groups))
		for _, group := range groups {
			if groupFits(group, allowedDays, prefs.WindowStart, prefs.WindowEnd) {
				surviving = append(surviving, group)
			}
		}
		if len(surviving) == 0 {
			return nil, noValidSections(subject)
		}

		var bundles []bundle
		if prefs.EnforceTies {
			bundles = tiedBundles(surviving)
		} else {
			bundles = singletonBundles(surviving)
		}
		if len(bundles) == 0 {
			return nil, noValidSections(subject)
		}
		domains = append(domains, domain{subject: subject, index: i, bundles: bundles})
	}
	return domains, nil
}

// groupFits requires every meeting of the group to sit inside the window and
// on an allowed day. A group whose meetings straddle the boundary cannot be
// partially taken.
func groupFits(group *sectionGroup, allowedDays map[string]struct{}, start, end Minutes) bool {
	for _, cls := range group.Classes {
		if len(allowedDays) > 0 {
			if _, ok := allowedDays[cls.Day]; !ok {
				return false
			}
		}
		if cls.Start < start || cls.End > end {
			return false
		}
	}
	return true
}

// singletonBundles ignores ties entirely: every surviving group stands alone.
func singletonBundles(groups []*sectionGroup) []bundle {
	bundles := make([]bundle, 0, len(groups))
	for _, group := range groups {
		bundles = append(bundles, bundle{key: group.Activity + ":" + group.Label, groups: []*sectionGroup{group}})
	}
	return bundles
}

// tiedBundles expands tie declarations into atomic bundles. Groups naming a
// partner that did not survive filtering are infeasible, and so is every
// bundle that would contain them: an impossible combination is rejected, not
// silently relaxed.
func tiedBundles(groups []*sectionGroup) []bundle {
	byLabel := make(map[string]int, len(groups))
	for i, group := range groups {
		byLabel[group.Label] = i
	}

	infeasible := make([]bool, len(groups))
	uf := newUnionFind(len(groups))
	for i, group := range groups {
		for _, label := range group.TiedTo {
			j, ok := byLabel[label]
			if !ok {
				infeasible[i] = true
				continue
			}
			uf.union(i, j)
		}
	}

	components := make(map[int][]int)
	componentBad := make(map[int]bool)
	for i := range groups {
		root := uf.find(i)
		components[root] = append(components[root], i)
		if infeasible[i] {
			componentBad[root] = true
		}
	}

	var bundles []bundle
	for root, members := range components {
		if componentBad[root] {
			continue
		}
		sort.Ints(members)
		b := bundle{}
		labels := make([]string, 0, len(members))
		for _, idx := range members {
			b.groups = append(b.groups, groups[idx])
			labels = append(labels, groups[idx].Activity+":"+groups[idx].Label)
		}
		b.key = strings.Join(labels, "+")
		bundles = append(bundles, b)
	}
	sort.Slice(bundles, func(i, j int) bool { return bundles[i].key < bundles[j].key })
	return bundles
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}
