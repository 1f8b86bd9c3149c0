package domain

import (
	"sort"
	"time"
)

// DailySummary is one calendar day's rollup of the activity log.
type DailySummary struct {
	Date        time.Time `json:"date"`
	Steps       int       `json:"steps"`
	DurationMin int       `json:"duration_min"`
	Calories    int       `json:"calories"`
	Activities  int       `json:"activities"`
}

// DayOf truncates a timestamp to midnight in its own location.
func DayOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// counted reports whether a row contributes to aggregates. Rows whose
// verification was refused stay in the log but never count.
func counted(a Activity) bool {
	return a.VerificationStatus != VerificationRejected
}

// SplitSteps partitions one day's steps by verification status.
func SplitSteps(activities []Activity, day time.Time) (pending, verified int) {
	day = DayOf(day)
	for _, a := range activities {
		if !DayOf(a.Date).Equal(day) {
			continue
		}
		switch a.VerificationStatus {
		case VerificationPending:
			pending += a.Steps
		case VerificationVerified:
			verified += a.Steps
		}
	}
	return pending, verified
}

// WeeklySteps sums counted steps over the seven days ending at day.
func WeeklySteps(activities []Activity, day time.Time) int {
	day = DayOf(day)
	from := day.AddDate(0, 0, -6)
	total := 0
	for _, a := range activities {
		d := DayOf(a.Date)
		if counted(a) && !d.Before(from) && !d.After(day) {
			total += a.Steps
		}
	}
	return total
}

// CurrentStreak counts consecutive active days ending at day. A day is active
// when it has at least one counted activity. When day itself has none yet, the
// streak run ending yesterday is still alive.
func CurrentStreak(activities []Activity, day time.Time) int {
	active := activeDays(activities)
	day = DayOf(day)

	start := day
	if !active[start.Format(dayKeyLayout)] {
		start = start.AddDate(0, 0, -1)
	}

	streak := 0
	for d := start; active[d.Format(dayKeyLayout)]; d = d.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of consecutive active days in the log.
func LongestStreak(activities []Activity) int {
	active := activeDays(activities)
	if len(active) == 0 {
		return 0
	}

	days := make([]time.Time, 0, len(active))
	for key := range active {
		d, err := time.Parse(dayKeyLayout, key)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// DailyBuckets rolls the log up into one summary per day over [from, to],
// including empty days.
func DailyBuckets(activities []Activity, from, to time.Time) []DailySummary {
	from, to = DayOf(from), DayOf(to)

	byDay := make(map[string]int)
	var out []DailySummary
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		byDay[d.Format(dayKeyLayout)] = len(out)
		out = append(out, DailySummary{Date: d})
	}

	for _, a := range activities {
		if !counted(a) {
			continue
		}
		i, ok := byDay[DayOf(a.Date).Format(dayKeyLayout)]
		if !ok {
			continue
		}
		out[i].Steps += a.Steps
		out[i].DurationMin += a.DurationMin
		out[i].Calories += a.Calories
		out[i].Activities++
	}
	return out
}

const dayKeyLayout = "2006-01-02"

func activeDays(activities []Activity) map[string]bool {
	out := make(map[string]bool)
	for _, a := range activities {
		if counted(a) {
			out[DayOf(a.Date).Format(dayKeyLayout)] = true
		}
	}
	return out
}
