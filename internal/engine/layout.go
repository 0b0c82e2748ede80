package engine

import (
	"sort"
	"strings"
)

// idleMinutes sums the gaps between consecutive classes on each active day.
// Days with fewer than two classes contribute nothing.
func idleMinutes(classes []Class) int {
	byDay := make(map[string][]Class)
	for _, cls := range classes {
		byDay[cls.Day] = append(byDay[cls.Day], cls)
	}

	total := 0
	for _, day := range byDay {
		if len(day) < 2 {
			continue
		}
		sort.Slice(day, func(i, j int) bool { return day[i].Start < day[j].Start })
		for i := 1; i < len(day); i++ {
			if gap := int(day[i].Start - day[i-1].End); gap > 0 {
				total += gap
			}
		}
	}
	return total
}

// pickBest scores every feasible combination by the style objective and
// returns the winner. Compact wants the fewest idle minutes, spaced_out the
// most; window containment is already guaranteed by candidate filtering.
// Ties break on earliest overall start time, then on the deterministic
// bundle-key ordering, so identical inputs reproduce identical output.
func pickBest(combinations []combination, style Style) combination {
	best := combinations[0]
	bestIdle, bestStart, bestKey := scoreCombination(best)
	for _, candidate := range combinations[1:] {
		idle, start, key := scoreCombination(candidate)
		if better(style, idle, start, key, bestIdle, bestStart, bestKey) {
			best, bestIdle, bestStart, bestKey = candidate, idle, start, key
		}
	}
	return best
}

func scoreCombination(comb combination) (idle int, earliest Minutes, key string) {
	var classes []Class
	keys := make([]string, 0, len(comb))
	for _, b := range comb {
		classes = append(classes, b.classes()...)
		keys = append(keys, b.key)
	}
	earliest = Minutes(24 * 60)
	for _, cls := range classes {
		if cls.Start < earliest {
			earliest = cls.Start
		}
	}
	return idleMinutes(classes), earliest, strings.Join(keys, "|")
}

func better(style Style, idle int, start Minutes, key string, bestIdle int, bestStart Minutes, bestKey string) bool {
	if idle != bestIdle {
		if style == StyleSpacedOut {
			return idle > bestIdle
		}
		return idle < bestIdle
	}
	if start != bestStart {
		return start < bestStart
	}
	return key < bestKey
}
