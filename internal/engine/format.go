package engine

import "sort"

// Entry is one scheduled class in the day-keyed output payload. Field names
// match the persisted timetable shape consumed by existing clients.
type Entry struct {
	Code      string   `json:"code"`
	Subject   string   `json:"subject"`
	Activity  string   `json:"activity"`
	Section   string   `json:"section"`
	Day       string   `json:"days"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Venue     string   `json:"venue"`
	Lecturer  string   `json:"lecturer"`
	TiedTo    []string `json:"tied_to"`
}

// Schedule maps day name to the ordered classes of that day. Only days with
// at least one class appear.
type Schedule map[string][]Entry

// Summary aggregates the winning combination.
type Summary struct {
	SubjectsScheduled int `json:"subjects_scheduled"`
	TotalSections     int `json:"total_sections"`
	TotalIdleMinutes  int `json:"total_idle_minutes"`
	DaysUtilized      int `json:"days_utilized"`
}

// formatResult converts the winning combination into the day-keyed schedule.
// Tie labels are echoed as the catalog declares them, whether or not tie
// enforcement was active for this run.
func formatResult(comb combination) *Result {
	schedule := make(Schedule)
	subjects := make(map[string]struct{})
	var classes []Class

	for _, b := range comb {
		for _, cls := range b.classes() {
			classes = append(classes, cls)
			subjects[cls.Subject] = struct{}{}
			tied := cls.TiedTo
			if tied == nil {
				tied = []string{}
			}
			schedule[cls.Day] = append(schedule[cls.Day], Entry{
				Code:      cls.Code,
				Subject:   cls.Subject,
				Activity:  cls.Activity,
				Section:   cls.Section,
				Day:       cls.Day,
				StartTime: cls.Start.Clock(),
				EndTime:   cls.End.Clock(),
				Venue:     cls.Venue,
				Lecturer:  cls.Lecturer,
				TiedTo:    tied,
			})
		}
	}

	for day := range schedule {
		entries := schedule[day]
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].StartTime != entries[j].StartTime {
				return entries[i].StartTime < entries[j].StartTime
			}
			return entries[i].Section < entries[j].Section
		})
		schedule[day] = entries
	}

	return &Result{
		Schedule: schedule,
		Summary: Summary{
			SubjectsScheduled: len(subjects),
			TotalSections:     len(classes),
			TotalIdleMinutes:  idleMinutes(classes),
			DaysUtilized:      len(schedule),
		},
	}
}
