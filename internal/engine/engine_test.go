package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustClock(t *testing.T, raw string) Minutes {
	t.Helper()
	m, err := ParseClock(raw)
	require.NoError(t, err)
	return m
}

func class(t *testing.T, subject, activity, section, day, start, end string, tiedTo ...string) Class {
	t.Helper()
	return Class{
		Code:     subject,
		Subject:  subject,
		Activity: activity,
		Section:  section,
		Day:      day,
		Start:    mustClock(t, start),
		End:      mustClock(t, end),
		Venue:    "TBD",
		Lecturer: "Not Assigned",
		TiedTo:   tiedTo,
	}
}

func basePrefs(subjects ...string) Preferences {
	return Preferences{
		Subjects:    subjects,
		Days:        []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		WindowStart: 8 * 60,
		WindowEnd:   18 * 60,
		EnforceTies: true,
		Style:       StyleCompact,
	}
}

func TestGenerateSchedulesTiedLectureAndTutorial(t *testing.T) {
	catalog := []Class{
		class(t, "CS101", "Lecture", "TC1L", "Monday", "09:00", "11:00", "TT1L"),
		class(t, "CS101", "Tutorial", "TT1L", "Tuesday", "11:00", "12:00"),
	}

	result, err := New(Config{}).Generate(context.Background(), catalog, basePrefs("CS101"))
	require.NoError(t, err)

	require.Len(t, result.Schedule["Monday"], 1)
	require.Len(t, result.Schedule["Tuesday"], 1)
	assert.Equal(t, []string{"TT1L"}, result.Schedule["Monday"][0].TiedTo)
	assert.Equal(t, 2, result.Summary.TotalSections)
	assert.Equal(t, 1, result.Summary.SubjectsScheduled)
}

func TestGenerateTiesOffTreatsSectionsIndependently(t *testing.T) {
	catalog := []Class{
		class(t, "CS101", "Lecture", "TC1L", "Monday", "09:00", "11:00", "TT1L"),
		class(t, "CS101", "Tutorial", "TT1L", "Tuesday", "11:00", "12:00"),
	}
	prefs := basePrefs("CS101")
	prefs.EnforceTies = false

	result, err := New(Config{}).Generate(context.Background(), catalog, prefs)
	require.NoError(t, err)

	// One bundle per subject: exactly one of the two sections is scheduled.
	assert.Equal(t, 1, result.Summary.TotalSections)
}

func TestGenerateFailsWhenAllSectionsOutsideWindow(t *testing.T) {
	catalog := []Class{
		class(t, "CS101", "Lecture", "TC1L", "Monday", "19:00", "21:00"),
	}

	_, err := New(Config{}).Generate(context.Background(), catalog, basePrefs("CS101"))
	var engErr *Error
	require.True(t, errors.As(err, &engErr))
	assert.Equal(t, ReasonNoValidSections, engErr.Reason)
}

func TestGenerateUnsatisfiableWhenOnlyOptionsOverlap(t *testing.T) {
	catalog := []Class{
		class(t, "CS101", "Lecture", "A1", "Monday", "09:00", "11:00"),
		class(t, "MA201", "Lecture", "B1", "Monday", "10:00", "12:00"),
	}

	_, err := New(Config{}).Generate(context.Background(), catalog, basePrefs("CS101", "MA201"))
	var engErr *Error
	require.True(t, errors.As(err, &engErr))
	assert.Equal(t, ReasonUnsatisfiable, engErr.Reason)
}

func TestCompactPrefersSmallGapSpacedOutPrefersLargeGap(t *testing.T) {
	catalog := []Class{
		class(t, "CS101", "Lecture", "A1", "Monday", "09:00", "10:00"),
		class(t, "MA201", "Lecture", "B1", "Monday", "10:00", "11:00"),
		class(t, "MA201", "Lecture", "B2", "Monday", "13:00", "14:00"),
	}

	compact := basePrefs("CS101", "MA201")
	result, err := New(Config{}).Generate(context.Background(), catalog, compact)
	require.NoError(t, err)
	require.Len(t, result.Schedule["Monday"], 2)
	assert.Equal(t, "B1", result.Schedule["Monday"][1].Section)
	assert.Equal(t, 0, result.Summary.TotalIdleMinutes)

	spaced := compact
	spaced.Style = StyleSpacedOut
	result, err = New(Config{}).Generate(context.Background(), catalog, spaced)
	require.NoError(t, err)
	require.Len(t, result.Schedule["Monday"], 2)
	assert.Equal(t, "B2", result.Schedule["Monday"][1].Section)
	assert.Equal(t, 180, result.Summary.TotalIdleMinutes)
}

func TestGenerateIsDeterministic(t *testing.T) {
	catalog := []Class{
		class(t, "CS101", "Lecture", "A1", "Monday", "09:00", "10:00"),
		class(t, "CS101", "Lecture", "A2", "Wednesday", "09:00", "10:00"),
		class(t, "MA201", "Lecture", "B1", "Monday", "10:00", "11:00"),
		class(t, "MA201", "Lecture", "B2", "Tuesday", "14:00", "15:00"),
		class(t, "PH301", "Lecture", "C1", "Friday", "08:00", "09:00"),
	}
	prefs := basePrefs("CS101", "MA201", "PH301")
	prefs.EnforceTies = false

	first, err := New(Config{}).Generate(context.Background(), catalog, prefs)
	require.NoError(t, err)
	second, err := New(Config{}).Generate(context.Background(), catalog, prefs)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first.Schedule)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second.Schedule)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestGenerateOutputHasNoOverlapAndStaysInWindow(t *testing.T) {
	catalog := []Class{
		class(t, "CS101", "Lecture", "A1", "Monday", "09:00", "11:00", "T1"),
		class(t, "CS101", "Tutorial", "T1", "Monday", "11:00", "12:00"),
		class(t, "MA201", "Lecture", "B1", "Monday", "12:00", "14:00"),
		class(t, "MA201", "Lecture", "B2", "Tuesday", "09:00", "11:00"),
		class(t, "PH301", "Lab", "L1", "Monday", "13:00", "15:00"),
		class(t, "PH301", "Lab", "L2", "Wednesday", "10:00", "12:00"),
	}
	prefs := basePrefs("CS101", "MA201", "PH301")

	result, err := New(Config{}).Generate(context.Background(), catalog, prefs)
	require.NoError(t, err)

	for day, entries := range result.Schedule {
		for i, entry := range entries {
			assert.Equal(t, day, entry.Day)
			start := mustClock(t, entry.StartTime)
			end := mustClock(t, entry.EndTime)
			assert.GreaterOrEqual(t, int(start), int(prefs.WindowStart))
			assert.LessOrEqual(t, int(end), int(prefs.WindowEnd))
			if i > 0 {
				prevEnd := mustClock(t, entries[i-1].EndTime)
				assert.GreaterOrEqual(t, int(start), int(prevEnd), "entries on %s overlap", day)
			}
		}
	}
}

func TestGenerateTieConsistencyUnderEnforcement(t *testing.T) {
	catalog := []Class{
		class(t, "CS101", "Lecture", "A1", "Monday", "09:00", "11:00", "T1"),
		class(t, "CS101", "Tutorial", "T1", "Tuesday", "09:00", "10:00"),
		class(t, "CS101", "Lecture", "A2", "Wednesday", "09:00", "11:00", "T2"),
		class(t, "CS101", "Tutorial", "T2", "Thursday", "09:00", "10:00"),
	}

	result, err := New(Config{}).Generate(context.Background(), catalog, basePrefs("CS101"))
	require.NoError(t, err)

	sections := make(map[string]bool)
	for _, entries := range result.Schedule {
		for _, entry := range entries {
			sections[entry.Section] = true
		}
	}
	assert.Equal(t, sections["A1"], sections["T1"], "lecture A1 and tutorial T1 are tied")
	assert.Equal(t, sections["A2"], sections["T2"], "lecture A2 and tutorial T2 are tied")
}

func TestGenerateSymmetrisesOneDirectionalTies(t *testing.T) {
	// Only the tutorial declares the tie; the lecture is silent. The
	// relation is treated as undirected, so both travel together.
	catalog := []Class{
		class(t, "CS101", "Lecture", "A1", "Monday", "09:00", "11:00"),
		class(t, "CS101", "Tutorial", "T1", "Tuesday", "09:00", "10:00", "A1"),
	}

	result, err := New(Config{}).Generate(context.Background(), catalog, basePrefs("CS101"))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.TotalSections)
}

func TestGenerateDiscardsBundleWhenTiePartnerFiltered(t *testing.T) {
	// The tutorial sits outside the window, so the tied lecture cannot form
	// a feasible bundle and the constraint is rejected, not dropped.
	catalog := []Class{
		class(t, "CS101", "Lecture", "A1", "Monday", "09:00", "11:00", "T1"),
		class(t, "CS101", "Tutorial", "T1", "Tuesday", "19:00", "20:00"),
	}

	_, err := New(Config{}).Generate(context.Background(), catalog, basePrefs("CS101"))
	var engErr *Error
	require.True(t, errors.As(err, &engErr))
	assert.Equal(t, ReasonNoValidSections, engErr.Reason)
}

func TestGeneratePrefersRequestedLecturerWithoutFailingHard(t *testing.T) {
	preferred := class(t, "CS101", "Lecture", "A2", "Tuesday", "14:00", "16:00")
	preferred.Lecturer = "Dr. Rahman"
	catalog := []Class{
		class(t, "CS101", "Lecture", "A1", "Monday", "09:00", "11:00"),
		preferred,
	}
	prefs := basePrefs("CS101")
	prefs.EnforceTies = false
	prefs.Lecturers = []string{"Dr. Rahman"}

	result, err := New(Config{}).Generate(context.Background(), catalog, prefs)
	require.NoError(t, err)
	require.Len(t, result.Schedule["Tuesday"], 1)
	assert.Equal(t, "Dr. Rahman", result.Schedule["Tuesday"][0].Lecturer)

	// An impossible lecturer preference falls back to the full domain.
	prefs.Lecturers = []string{"Dr. Nobody"}
	result, err = New(Config{}).Generate(context.Background(), catalog, prefs)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.TotalSections)
}

func TestGenerateHonoursNodeBudget(t *testing.T) {
	catalog := []Class{
		class(t, "CS101", "Lecture", "A1", "Monday", "09:00", "10:00"),
		class(t, "MA201", "Lecture", "B1", "Tuesday", "09:00", "10:00"),
	}
	prefs := basePrefs("CS101", "MA201")

	_, err := New(Config{MaxSearchNodes: 1, SearchTimeout: time.Minute}).Generate(context.Background(), catalog, prefs)
	var engErr *Error
	require.True(t, errors.As(err, &engErr))
	assert.Equal(t, ReasonSearchBudget, engErr.Reason)
}

func TestGenerateRejectsInvalidPreferences(t *testing.T) {
	catalog := []Class{class(t, "CS101", "Lecture", "A1", "Monday", "09:00", "10:00")}

	cases := []struct {
		name  string
		prefs Preferences
	}{
		{"no subjects", Preferences{WindowStart: 0, WindowEnd: 60, Style: StyleCompact}},
		{"inverted window", Preferences{Subjects: []string{"CS101"}, WindowStart: 600, WindowEnd: 540, Style: StyleCompact}},
		{"unknown style", Preferences{Subjects: []string{"CS101"}, WindowStart: 0, WindowEnd: 600, Style: "zigzag"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(Config{}).Generate(context.Background(), catalog, tc.prefs)
			var engErr *Error
			require.True(t, errors.As(err, &engErr))
			assert.Equal(t, ReasonInvalidInput, engErr.Reason)
		})
	}
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, Minutes(570), m)

	m, err = ParseClock("14:05:00")
	require.NoError(t, err)
	assert.Equal(t, Minutes(845), m)
	assert.Equal(t, "14:05", m.String())
	assert.Equal(t, "14:05:00", m.Clock())

	_, err = ParseClock("25:00")
	assert.Error(t, err)
	_, err = ParseClock("oops")
	assert.Error(t, err)
}
