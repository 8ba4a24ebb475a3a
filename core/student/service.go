package student

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/annourmah/etudia/core"
)

// UnknownStudentName is the sentinel display name used when a result's
// owner cannot be resolved (dangling references are allowed).
const UnknownStudentName = "Étudiant inconnu"

var nowFunc = time.Now // mockable

type (
	// Repository mirrors the in-memory collections to the key-value store;
	// it has no merge logic and no ownership.
	Repository interface {
		LoadStudents() ([]Student, error)
		SaveStudents([]Student) error
		LoadResults() ([]Result, error)
		SaveResults([]Result) error
	}

	// Mirror forwards mutations to the optional remote API. Calls are
	// advisory and must never block or fail the local mutation.
	Mirror interface {
		CreateStudent(Student)
		UpdateStudent(Student)
		DeleteStudent(id int64)
		CreateResult(Result)
	}

	// Notifier surfaces user-facing notifications.
	// Severity is one of "info", "success", "warning", "error".
	Notifier interface {
		Notify(severity, message string)
	}

	// Service is the single source of truth for the Student and Result
	// collections within one running instance. All access goes through its
	// operations; callers only ever see copies of the backing slices.
	Service struct {
		mu       sync.RWMutex
		students []Student
		results  []Result

		repo     Repository
		notifier Notifier
		mirror   Mirror // nil when no remote API is configured
		logger   core.Logger

		lastID int64
	}
)

// NewService loads both collections from the repository; legacy records are
// normalized to the canonical schema during that load.
func NewService(repo Repository, notifier Notifier, mirror Mirror, logger core.Logger) (*Service, error) {
	students, err := repo.LoadStudents()
	if err != nil {
		return nil, err
	}
	results, err := repo.LoadResults()
	if err != nil {
		return nil, err
	}

	svc := &Service{
		students: students,
		results:  results,
		repo:     repo,
		notifier: notifier,
		mirror:   mirror,
		logger:   logger,
	}
	for _, st := range students {
		if st.ID > svc.lastID {
			svc.lastID = st.ID
		}
	}
	return svc, nil
}

// nextID derives a caller-visible identifier from the creation time,
// bumped past the last issued one so concurrent same-millisecond adds
// stay unique. Callers must hold the lock.
func (svc *Service) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= svc.lastID {
		id = svc.lastID + 1
	}
	svc.lastID = id
	return id
}

func (svc *Service) AddStudent(ns NewStudent) Student {
	svc.mu.Lock()
	now := nowFunc().UTC()
	st := Student{
		ID:          svc.nextID(now),
		FirstName:   ns.FirstName,
		LastName:    ns.LastName,
		Matricule:   ns.Matricule,
		Email:       ns.Email,
		DateOfBirth: ns.DateOfBirth,
		Program:     ns.Program,
		Level:       ns.Level,
		CreatedAt:   now,
	}
	svc.students = append(svc.students, st)
	svc.persistStudents()
	svc.mu.Unlock()

	svc.notifier.Notify("success", fmt.Sprintf("Étudiant %s ajouté avec succès", st.DisplayName()))
	if svc.mirror != nil {
		go svc.mirror.CreateStudent(st)
	}
	return st
}

// UpdateStudent merges the set fields of `us` into the matching record.
// An unknown id is silently absorbed as a no-op.
func (svc *Service) UpdateStudent(id int64, us UpdateStudent) (Student, bool) {
	svc.mu.Lock()
	idx := svc.indexOf(id)
	if idx < 0 {
		svc.mu.Unlock()
		return Student{}, false
	}

	st := &svc.students[idx]
	if us.FirstName != "" {
		st.FirstName = us.FirstName
	}
	if us.LastName != "" {
		st.LastName = us.LastName
	}
	if us.Matricule != "" {
		st.Matricule = us.Matricule
	}
	if us.Email != "" {
		st.Email = us.Email
	}
	if us.DateOfBirth != "" {
		st.DateOfBirth = us.DateOfBirth
	}
	if us.Program != "" {
		st.Program = us.Program
	}
	if us.Level != "" {
		st.Level = us.Level
	}
	updated := *st
	svc.persistStudents()
	svc.mu.Unlock()

	svc.notifier.Notify("success", fmt.Sprintf("Étudiant %s modifié avec succès", updated.DisplayName()))
	if svc.mirror != nil {
		go svc.mirror.UpdateStudent(updated)
	}
	return updated, true
}

// DeleteStudent removes the Student and cascades to every Result that
// references it. An unknown id is silently absorbed as a no-op.
func (svc *Service) DeleteStudent(id int64) bool {
	svc.mu.Lock()
	idx := svc.indexOf(id)
	if idx < 0 {
		svc.mu.Unlock()
		return false
	}
	name := svc.students[idx].DisplayName()
	svc.students = append(svc.students[:idx], svc.students[idx+1:]...)
	svc.dropResultsOf(id)
	svc.persistStudents()
	svc.persistResults()
	svc.mu.Unlock()

	svc.notifier.Notify("success", fmt.Sprintf("Étudiant %s supprimé", name))
	if svc.mirror != nil {
		go svc.mirror.DeleteStudent(id)
	}
	return true
}

// DeleteStudents bulk-removes students by id, cascading like DeleteStudent,
// with a single persistence write and one notification for the batch.
func (svc *Service) DeleteStudents(ids ...int64) int {
	svc.mu.Lock()
	var deleted int
	for _, id := range ids {
		if idx := svc.indexOf(id); idx >= 0 {
			svc.students = append(svc.students[:idx], svc.students[idx+1:]...)
			svc.dropResultsOf(id)
			deleted++
		}
	}
	if deleted > 0 {
		svc.persistStudents()
		svc.persistResults()
	}
	svc.mu.Unlock()

	if deleted > 0 {
		svc.notifier.Notify("success", fmt.Sprintf("%d étudiant(s) supprimé(s) avec succès", deleted))
		if svc.mirror != nil {
			for _, id := range ids {
				go svc.mirror.DeleteStudent(id)
			}
		}
	}
	return deleted
}

// AddResult records a Result. The reference is not checked against the
// Student collection: dangling references are allowed and resolved to the
// unknown-student sentinel at read time.
func (svc *Service) AddResult(nr NewResult) Result {
	svc.mu.Lock()
	res := Result{
		ID:        uuid.NewString(),
		StudentID: nr.StudentID,
		Subject:   nr.Subject,
		Score:     nr.Score,
		CreatedAt: nowFunc().UTC(),
	}
	svc.results = append(svc.results, res)
	owner := ""
	if idx := svc.indexOf(nr.StudentID); idx >= 0 {
		owner = svc.students[idx].DisplayName()
	}
	svc.persistResults()
	svc.mu.Unlock()

	if owner != "" {
		svc.notifier.Notify("success", fmt.Sprintf("Note de %s ajoutée pour %s", res.Subject, owner))
	} else {
		svc.notifier.Notify("success", fmt.Sprintf("Note de %s ajoutée", res.Subject))
	}
	if svc.mirror != nil {
		go svc.mirror.CreateResult(res)
	}
	return res
}

func (svc *Service) DeleteResult(id string) bool {
	svc.mu.Lock()
	var found bool
	for i, res := range svc.results {
		if res.ID == id {
			svc.results = append(svc.results[:i], svc.results[i+1:]...)
			found = true
			break
		}
	}
	if found {
		svc.persistResults()
	}
	svc.mu.Unlock()

	if found {
		svc.notifier.Notify("success", "Note supprimée")
	}
	return found
}

func (svc *Service) GetStudent(id int64) (Student, bool) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	if idx := svc.indexOf(id); idx >= 0 {
		return svc.students[idx], true
	}
	return Student{}, false
}

func (svc *Service) Students() []Student {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	out := make([]Student, len(svc.students))
	copy(out, svc.students)
	return out
}

func (svc *Service) Results() []Result {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	out := make([]Result, len(svc.results))
	copy(out, svc.results)
	return out
}

func (svc *Service) ResultsForStudent(id int64) []Result {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	out := make([]Result, 0)
	for _, res := range svc.results {
		if res.StudentID == id {
			out = append(out, res)
		}
	}
	return out
}

// Filter applies an AND operation on the available QueryFilter fields.
func (svc *Service) Filter(filter QueryFilter) []Student {
	if filter.IsEmpty() {
		return svc.Students()
	}

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	search := strings.ToLower(filter.Search)
	out := make([]Student, 0)
	for _, st := range svc.students {
		if search != "" && !matchesSearch(st, search) {
			continue
		}
		if filter.Program != "" && st.Program != filter.Program {
			continue
		}
		if filter.Level != "" && st.Level != filter.Level {
			continue
		}
		out = append(out, st)
	}
	return out
}

// Stats recomputes the dashboard statistics from the current snapshot.
func (svc *Service) Stats() Stats {
	svc.mu.RLock()
	students := make([]Student, len(svc.students))
	copy(students, svc.students)
	results := make([]Result, len(svc.results))
	copy(results, svc.results)
	svc.mu.RUnlock()
	return ComputeStats(students, results, nowFunc())
}

// Report assembles the printable report payload for one Student.
func (svc *Service) Report(id int64) (Report, bool) {
	st, ok := svc.GetStudent(id)
	if !ok {
		return Report{}, false
	}
	return BuildReport(st, svc.ResultsForStudent(id), nowFunc()), true
}

// SubjectSummaries derives the per-subject count and mean shown on the
// results listing, in first-seen subject order.
func (svc *Service) SubjectSummaries() []SubjectSummary {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	order := make([]string, 0)
	sums := make(map[string]*SubjectSummary)
	for _, res := range svc.results {
		s, ok := sums[res.Subject]
		if !ok {
			s = &SubjectSummary{Subject: res.Subject}
			sums[res.Subject] = s
			order = append(order, res.Subject)
		}
		s.Count++
		s.Average += res.Score
	}

	out := make([]SubjectSummary, 0, len(order))
	for _, subject := range order {
		s := sums[subject]
		s.Average = round2(s.Average / float64(s.Count))
		out = append(out, *s)
	}
	return out
}

func matchesSearch(st Student, search string) bool {
	return strings.Contains(strings.ToLower(st.FirstName), search) ||
		strings.Contains(strings.ToLower(st.LastName), search) ||
		strings.Contains(strings.ToLower(st.Matricule), search) ||
		strings.Contains(strings.ToLower(st.Email), search)
}

// indexOf returns the position of the student with the given id, or -1.
// Callers must hold the lock.
func (svc *Service) indexOf(id int64) int {
	for i, st := range svc.students {
		if st.ID == id {
			return i
		}
	}
	return -1
}

// dropResultsOf removes every result referencing the student id.
// Callers must hold the lock.
func (svc *Service) dropResultsOf(id int64) {
	kept := svc.results[:0]
	for _, res := range svc.results {
		if res.StudentID != id {
			kept = append(kept, res)
		}
	}
	svc.results = kept
}

// persistStudents/persistResults write through to the key-value store before
// the mutation returns. A failing write is the one unrecoverable case in
// this system: it is reported, never raised. Callers must hold the lock.
func (svc *Service) persistStudents() {
	snapshot := make([]Student, len(svc.students))
	copy(snapshot, svc.students)
	if err := svc.repo.SaveStudents(snapshot); err != nil {
		svc.logger.Error("persisting students", err)
		svc.notifier.Notify("error", "Échec de l'enregistrement local des étudiants")
	}
}

func (svc *Service) persistResults() {
	snapshot := make([]Result, len(svc.results))
	copy(snapshot, svc.results)
	if err := svc.repo.SaveResults(snapshot); err != nil {
		svc.logger.Error("persisting results", err)
		svc.notifier.Notify("error", "Échec de l'enregistrement local des notes")
	}
}
