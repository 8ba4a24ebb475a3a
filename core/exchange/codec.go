// Package exchange converts Student and Result collections to and from
// their CSV and JSON interchange forms. Column names are matched against a
// recognized set of aliases spanning both schema generations; validation
// collects per-row errors and imports are all-or-nothing.
package exchange

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/annourmah/etudia/core/student"
)

// Row is one imported record, keyed by the raw column names of the file.
type Row map[string]string

// Recognized column-name aliases, matched case-sensitively.
var (
	firstNameAliases = []string{"Prénom", "Prenom", "FirstName"}
	lastNameAliases  = []string{"Nom", "LastName"}
	matriculeAliases = []string{"Matricule", "ID"}
	emailAliases     = []string{"Email"}
	dobAliases       = []string{"Date de naissance", "DateOfBirth"}
	programAliases   = []string{"Programme", "Program"}
	levelAliases     = []string{"Niveau", "Level"}

	studentRefAliases = []string{"StudentID", "Matricule"}
	subjectAliases    = []string{"Matière", "Subject"}
	scoreAliases      = []string{"Note", "Score"}
)

// Validation is the outcome of an import validation pass.
type Validation struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ImportedResult references its student by matricule or raw id; association
// with the actual Student record happens at import time against the store.
type ImportedResult struct {
	StudentRef string
	Subject    string
	Score      float64
}

// ParseCSV reads comma-delimited, double-quote-escaped rows. The first
// record is the required header row.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows are validated later, not here

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parsing CSV")
	}
	if len(records) < 2 {
		return nil, errors.New("le fichier CSV est vide ou mal formaté")
	}

	header := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseJSON reads an array of objects carrying the same recognized keys.
func ParseJSON(r io.Reader) ([]Row, error) {
	var objs []map[string]interface{}
	if err := json.NewDecoder(r).Decode(&objs); err != nil {
		return nil, errors.Wrap(err, "parsing JSON")
	}

	rows := make([]Row, 0, len(objs))
	for _, obj := range objs {
		row := make(Row, len(obj))
		for k, v := range obj {
			row[k] = stringify(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ValidateStudents checks required student fields on every row, collecting
// errors instead of failing fast. A failed validation must abort the whole
// import: no partial import of the valid rows.
func ValidateStudents(rows []Row) Validation {
	v := Validation{Errors: []string{}}
	if len(rows) == 0 {
		v.Errors = append(v.Errors, "Aucune donnée valide trouvée")
		return v
	}
	for i, row := range rows {
		if pick(row, firstNameAliases) == "" || pick(row, lastNameAliases) == "" {
			v.Errors = append(v.Errors, fmt.Sprintf("Ligne %d: Nom ou prénom manquant", i+1))
		}
		if pick(row, matriculeAliases) == "" {
			v.Errors = append(v.Errors, fmt.Sprintf("Ligne %d: Matricule manquant", i+1))
		}
	}
	v.IsValid = len(v.Errors) == 0
	return v
}

// ValidateResults checks required result fields on every row.
func ValidateResults(rows []Row) Validation {
	v := Validation{Errors: []string{}}
	if len(rows) == 0 {
		v.Errors = append(v.Errors, "Aucune donnée valide trouvée")
		return v
	}
	for i, row := range rows {
		if pick(row, studentRefAliases) == "" {
			v.Errors = append(v.Errors, fmt.Sprintf("Ligne %d: ID étudiant manquant", i+1))
		}
		if pick(row, subjectAliases) == "" {
			v.Errors = append(v.Errors, fmt.Sprintf("Ligne %d: Matière manquante", i+1))
		}
		if pick(row, scoreAliases) == "" {
			v.Errors = append(v.Errors, fmt.Sprintf("Ligne %d: Note manquante", i+1))
		}
	}
	v.IsValid = len(v.Errors) == 0
	return v
}

// DecodeStudents maps validated rows to registration inputs.
func DecodeStudents(rows []Row) []student.NewStudent {
	out := make([]student.NewStudent, 0, len(rows))
	for _, row := range rows {
		out = append(out, student.NewStudent{
			FirstName:   pick(row, firstNameAliases),
			LastName:    pick(row, lastNameAliases),
			Matricule:   pick(row, matriculeAliases),
			Email:       pick(row, emailAliases),
			DateOfBirth: pick(row, dobAliases),
			Program:     pick(row, programAliases),
			Level:       pick(row, levelAliases),
		})
	}
	return out
}

// DecodeResults maps validated rows to import inputs.
func DecodeResults(rows []Row) []ImportedResult {
	out := make([]ImportedResult, 0, len(rows))
	for _, row := range rows {
		score, _ := strconv.ParseFloat(pick(row, scoreAliases), 64)
		out = append(out, ImportedResult{
			StudentRef: pick(row, studentRefAliases),
			Subject:    pick(row, subjectAliases),
			Score:      score,
		})
	}
	return out
}

var studentHeader = []string{"Matricule", "Prénom", "Nom", "Email", "Date de naissance", "Programme", "Niveau"}

func studentRecord(st student.Student) []string {
	return []string{st.Matricule, st.FirstName, st.LastName, st.Email, st.DateOfBirth, st.Program, st.Level}
}

// EncodeStudentsCSV writes the canonical CSV export; its headers are
// accepted back by the import aliases so an export/import round trip
// reproduces every recognized field.
func EncodeStudentsCSV(w io.Writer, students []student.Student) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(studentHeader); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	for _, st := range students {
		if err := writer.Write(studentRecord(st)); err != nil {
			return errors.Wrap(err, "writing CSV record")
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "flushing CSV")
}

func EncodeStudentsJSON(w io.Writer, students []student.Student) error {
	objs := make([]map[string]interface{}, 0, len(students))
	for _, st := range students {
		objs = append(objs, map[string]interface{}{
			"Matricule":         st.Matricule,
			"Prénom":            st.FirstName,
			"Nom":               st.LastName,
			"Email":             st.Email,
			"Date de naissance": st.DateOfBirth,
			"Programme":         st.Program,
			"Niveau":            st.Level,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(objs), "encoding JSON")
}

var resultHeader = []string{"Matricule", "Étudiant", "Matière", "Note", "Programme", "Niveau"}

// EncodeResultsCSV annotates each result with its owning student; an
// unresolvable owner exports with an empty matricule and the unknown
// sentinel as the name.
func EncodeResultsCSV(w io.Writer, results []student.Result, students []student.Student) error {
	byID := indexStudents(students)

	writer := csv.NewWriter(w)
	if err := writer.Write(resultHeader); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	for _, res := range results {
		st, ok := byID[res.StudentID]
		record := []string{"", student.UnknownStudentName, res.Subject, formatScore(res.Score), "", ""}
		if ok {
			record = []string{st.Matricule, st.DisplayName(), res.Subject, formatScore(res.Score), st.Program, st.Level}
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, "writing CSV record")
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "flushing CSV")
}

func EncodeResultsJSON(w io.Writer, results []student.Result, students []student.Student) error {
	byID := indexStudents(students)

	objs := make([]map[string]interface{}, 0, len(results))
	for _, res := range results {
		obj := map[string]interface{}{
			"Matricule": "",
			"Étudiant":  student.UnknownStudentName,
			"Matière":   res.Subject,
			"Note":      res.Score,
			"Programme": "",
			"Niveau":    "",
		}
		if st, ok := byID[res.StudentID]; ok {
			obj["Matricule"] = st.Matricule
			obj["Étudiant"] = st.DisplayName()
			obj["Programme"] = st.Program
			obj["Niveau"] = st.Level
		}
		objs = append(objs, obj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(objs), "encoding JSON")
}

// Filename builds the export file name: `{entity}_{timestamp}.{ext}` with
// the ISO timestamp stripped of colons and dashes.
func Filename(entity, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", entity, now.UTC().Format("20060102T150405"), ext)
}

func pick(row Row, aliases []string) string {
	for _, alias := range aliases {
		if v, ok := row[alias]; ok && v != "" {
			return v
		}
	}
	return ""
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

func indexStudents(students []student.Student) map[int64]student.Student {
	byID := make(map[int64]student.Student, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}
	return byID
}
