package history

import "github.com/pavelanni/examprep/internal/model"

// SubjectStat is the per-subject aggregate shown on the dashboard.
type SubjectStat struct {
	Subject string
	Tests   int
	Average float64
}

// Stats aggregates a history for the dashboard. It is computed on read and
// never persisted.
type Stats struct {
	Count    int
	Average  float64
	Subjects []SubjectStat // first-encounter order of the history sequence
	Best     SubjectStat
	Worst    SubjectStat
	HasData  bool
}

// Summarize computes overall and per-subject averages. On equal subject
// averages the subject encountered first wins both Best and Worst.
func Summarize(entries []model.TestHistoryEntry) Stats {
	if len(entries) == 0 {
		return Stats{}
	}

	type acc struct {
		sum   float64
		count int
	}
	var order []string
	bySubject := make(map[string]*acc)
	var total float64

	for _, e := range entries {
		total += e.Score
		a, ok := bySubject[e.Subject]
		if !ok {
			a = &acc{}
			bySubject[e.Subject] = a
			order = append(order, e.Subject)
		}
		a.sum += e.Score
		a.count++
	}

	st := Stats{
		Count:   len(entries),
		Average: total / float64(len(entries)),
		HasData: true,
	}
	for i, subj := range order {
		a := bySubject[subj]
		ss := SubjectStat{Subject: subj, Tests: a.count, Average: a.sum / float64(a.count)}
		st.Subjects = append(st.Subjects, ss)
		if i == 0 || ss.Average > st.Best.Average {
			st.Best = ss
		}
		if i == 0 || ss.Average < st.Worst.Average {
			st.Worst = ss
		}
	}
	return st
}

// Export converts a history into its JSON export form.
func Export(entries []model.TestHistoryEntry) model.HistoryExport {
	st := Summarize(entries)
	out := model.HistoryExport{
		Count:   st.Count,
		Average: st.Average,
		Entries: entries,
	}
	for _, ss := range st.Subjects {
		out.Subjects = append(out.Subjects, model.SubjectAverage{
			Subject: ss.Subject,
			Tests:   ss.Tests,
			Average: ss.Average,
		})
	}
	return out
}
