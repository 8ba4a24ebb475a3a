package student

import (
	"math"
	"sort"
	"time"
)

// PassingScore is the threshold a score must reach to count as a pass.
const PassingScore = 10

// undefinedBucket labels the program/level group of students missing the field.
const undefinedBucket = "undefined"

type (
	BucketCount struct {
		Range string `json:"range"`
		Count int    `json:"count"`
	}

	Performer struct {
		StudentID   int64   `json:"studentId"`
		Name        string  `json:"name"`
		Average     float64 `json:"average"`
		ResultCount int     `json:"resultCount"`
	}

	Activity struct {
		ResultID    string    `json:"resultId"`
		StudentName string    `json:"studentName"`
		Subject     string    `json:"subject"`
		Score       float64   `json:"score"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	MonthCount struct {
		Month string `json:"month"`
		Count int    `json:"count"`
	}

	SubjectSummary struct {
		Subject string  `json:"subject"`
		Count   int     `json:"count"`
		Average float64 `json:"average"`
	}

	Stats struct {
		TotalStudents        int                `json:"totalStudents"`
		TotalResults         int                `json:"totalResults"`
		AverageScore         float64            `json:"averageScore"`
		PassRate             float64            `json:"passRate"`
		ScoreDistribution    []BucketCount      `json:"scoreDistribution"`
		ProgramStats         map[string]int     `json:"programStats"`
		LevelStats           map[string]int     `json:"levelStats"`
		PerformanceByProgram map[string]float64 `json:"performanceByProgram"`
		TopPerformers        []Performer        `json:"topPerformers"`
		RecentActivity       []Activity         `json:"recentActivity"`
		MonthlyRegistrations []MonthCount       `json:"monthlyRegistrations"`
	}

	// Report is the printable per-student report payload.
	Report struct {
		Student     Student   `json:"student"`
		Results     []Result  `json:"results"`
		Average     float64   `json:"average"`
		PassedCount int       `json:"passedCount"`
		GeneratedAt time.Time `json:"generatedAt"`
	}
)

// ComputeStats derives the dashboard statistics from a snapshot. It is a
// pure function, recomputed from scratch on every call: the collections are
// small and a full pass can never desynchronize from its source the way an
// incrementally maintained counter could.
func ComputeStats(students []Student, results []Result, now time.Time) Stats {
	stats := Stats{
		TotalStudents:        len(students),
		TotalResults:         len(results),
		ScoreDistribution:    scoreDistribution(results),
		ProgramStats:         countBy(students, func(s Student) string { return s.Program }),
		LevelStats:           countBy(students, func(s Student) string { return s.Level }),
		TopPerformers:        topPerformers(students, results),
		RecentActivity:       recentActivity(students, results, now),
		MonthlyRegistrations: monthlyRegistrations(students, now),
	}

	if len(results) > 0 {
		var sum float64
		var passed int
		for _, res := range results {
			sum += res.Score
			if res.Score >= PassingScore {
				passed++
			}
		}
		stats.AverageScore = round2(sum / float64(len(results)))
		stats.PassRate = round1(float64(passed) / float64(len(results)) * 100)
	}

	stats.PerformanceByProgram = performanceByProgram(students, results, stats.ProgramStats)
	return stats
}

// BuildReport assembles the printable report data for one student.
func BuildReport(st Student, results []Result, now time.Time) Report {
	rep := Report{Student: st, Results: results, GeneratedAt: now}
	if len(results) > 0 {
		var sum float64
		for _, res := range results {
			sum += res.Score
			if res.Score >= PassingScore {
				rep.PassedCount++
			}
		}
		rep.Average = round2(sum / float64(len(results)))
	}
	return rep
}

// scoreDistribution buckets scores into six fixed half-open ranges,
// inclusive-lower/exclusive-upper, except the top bucket which is unbounded
// above.
func scoreDistribution(results []Result) []BucketCount {
	buckets := []BucketCount{
		{Range: "16-20"},
		{Range: "14-16"},
		{Range: "12-14"},
		{Range: "10-12"},
		{Range: "8-10"},
		{Range: "0-8"},
	}
	for _, res := range results {
		switch s := res.Score; {
		case s >= 16:
			buckets[0].Count++
		case s >= 14:
			buckets[1].Count++
		case s >= 12:
			buckets[2].Count++
		case s >= 10:
			buckets[3].Count++
		case s >= 8:
			buckets[4].Count++
		default:
			buckets[5].Count++
		}
	}
	return buckets
}

func countBy(students []Student, key func(Student) string) map[string]int {
	counts := make(map[string]int)
	for _, st := range students {
		k := key(st)
		if k == "" {
			k = undefinedBucket
		}
		counts[k]++
	}
	return counts
}

func performanceByProgram(students []Student, results []Result, programs map[string]int) map[string]float64 {
	studentProgram := make(map[int64]string, len(students))
	for _, st := range students {
		program := st.Program
		if program == "" {
			program = undefinedBucket
		}
		studentProgram[st.ID] = program
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, res := range results {
		program, ok := studentProgram[res.StudentID]
		if !ok {
			continue // dangling reference
		}
		sums[program] += res.Score
		counts[program]++
	}

	perf := make(map[string]float64, len(programs))
	for program := range programs {
		if counts[program] > 0 {
			perf[program] = round2(sums[program] / float64(counts[program]))
		} else {
			perf[program] = 0
		}
	}
	return perf
}

// topPerformers ranks students holding at least one result by mean score,
// descending, ties keeping original collection order, truncated to 5.
func topPerformers(students []Student, results []Result) []Performer {
	sums := make(map[int64]float64)
	counts := make(map[int64]int)
	for _, res := range results {
		sums[res.StudentID] += res.Score
		counts[res.StudentID]++
	}

	performers := make([]Performer, 0, len(students))
	for _, st := range students {
		if counts[st.ID] == 0 {
			continue
		}
		performers = append(performers, Performer{
			StudentID:   st.ID,
			Name:        st.DisplayName(),
			Average:     round2(sums[st.ID] / float64(counts[st.ID])),
			ResultCount: counts[st.ID],
		})
	}

	sort.SliceStable(performers, func(i, j int) bool {
		return performers[i].Average > performers[j].Average
	})
	if len(performers) > 5 {
		performers = performers[:5]
	}
	return performers
}

// recentActivity lists the 5 newest results, annotated with the owning
// student's display name. Missing timestamps are treated as now; unresolvable
// owners get the unknown-student sentinel.
func recentActivity(students []Student, results []Result, now time.Time) []Activity {
	names := make(map[int64]string, len(students))
	for _, st := range students {
		names[st.ID] = st.DisplayName()
	}

	sorted := make([]Result, len(results))
	copy(sorted, results)
	at := func(r Result) time.Time {
		if r.CreatedAt.IsZero() {
			return now
		}
		return r.CreatedAt
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return at(sorted[i]).After(at(sorted[j]))
	})
	if len(sorted) > 5 {
		sorted = sorted[:5]
	}

	activity := make([]Activity, 0, len(sorted))
	for _, res := range sorted {
		name, ok := names[res.StudentID]
		if !ok {
			name = UnknownStudentName
		}
		activity = append(activity, Activity{
			ResultID:    res.ID,
			StudentName: name,
			Subject:     res.Subject,
			Score:       res.Score,
			CreatedAt:   at(res),
		})
	}
	return activity
}

// monthlyRegistrations buckets student creations over the trailing 6-month
// window anchored at now; empty months still appear with count 0.
func monthlyRegistrations(students []Student, now time.Time) []MonthCount {
	months := make([]MonthCount, 6)
	index := make(map[string]int, 6)
	for i := 0; i < 6; i++ {
		m := time.Date(now.Year(), now.Month()-time.Month(5-i), 1, 0, 0, 0, 0, time.UTC)
		label := m.Format("2006-01")
		months[i] = MonthCount{Month: label}
		index[label] = i
	}

	for _, st := range students {
		if st.CreatedAt.IsZero() {
			continue
		}
		label := st.CreatedAt.UTC().Format("2006-01")
		if i, ok := index[label]; ok {
			months[i].Count++
		}
	}
	return months
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
