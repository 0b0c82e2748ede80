package engine

import "sort"

// sectionGroup is one selectable unit: every weekly meeting sharing a
// subject code, activity and section label. A group is taken or skipped as a
// whole. Subjects are keyed by code throughout the engine.
type sectionGroup struct {
	Subject  string
	Activity string
	Label    string
	Classes  []Class
	TiedTo   []string
}

type groupKey struct {
	subject  string
	activity string
	label    string
}

// catalog is the immutable per-request view of the section data.
type catalog struct {
	bySubject map[string][]*sectionGroup
}

func newCatalog(classes []Class) *catalog {
	grouped := make(map[groupKey]*sectionGroup)
	for _, cls := range classes {
		key := groupKey{subject: cls.Code, activity: cls.Activity, label: cls.Section}
		group, ok := grouped[key]
		if !ok {
			group = &sectionGroup{Subject: cls.Code, Activity: cls.Activity, Label: cls.Section}
			grouped[key] = group
		}
		group.Classes = append(group.Classes, cls)
		group.TiedTo = mergeLabels(group.TiedTo, cls.TiedTo)
	}

	cat := &catalog{bySubject: make(map[string][]*sectionGroup)}
	for _, group := range grouped {
		sort.Slice(group.Classes, func(i, j int) bool {
			a, b := group.Classes[i], group.Classes[j]
			if a.Day != b.Day {
				return a.Day < b.Day
			}
			return a.Start < b.Start
		})
		cat.bySubject[group.Subject] = append(cat.bySubject[group.Subject], group)
	}
	for _, groups := range cat.bySubject {
		sort.Slice(groups, func(i, j int) bool {
			if groups[i].Activity != groups[j].Activity {
				return groups[i].Activity < groups[j].Activity
			}
			return groups[i].Label < groups[j].Label
		})
	}
	return cat
}

func mergeLabels(existing, extra []string) []string {
	for _, label := range extra {
		if label == "" {
			continue
		}
		found := false
		for _, have := range existing {
			if have == label {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, label)
		}
	}
	return existing
}
