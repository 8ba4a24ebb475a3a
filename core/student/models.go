package student

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/annourmah/etudia/core"
)

// Student is a learner record. The stored schema is canonical: legacy
// records (nom/prenom aliases, string ids) are migrated on load by
// UnmarshalJSON and never survive past the storage boundary.
type Student struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Matricule   string    `json:"matricule"`
	Email       string    `json:"email,omitempty"`
	DateOfBirth string    `json:"dateOfBirth,omitempty"`
	Program     string    `json:"program,omitempty"`
	Level       string    `json:"level,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (s Student) DisplayName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

type studentAlias struct {
	ID          interface{} `json:"id"`
	FirstName   string      `json:"firstName"`
	Nom         string      `json:"nom"` // legacy first-name field
	LastName    string      `json:"lastName"`
	Prenom      string      `json:"prenom"` // legacy last-name field
	Matricule   string      `json:"matricule"`
	Email       string      `json:"email"`
	DateOfBirth string      `json:"dateOfBirth"`
	Dob         string      `json:"dob"` // legacy
	Program     string      `json:"program"`
	Level       string      `json:"level"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func (s *Student) UnmarshalJSON(data []byte) error {
	var alias studentAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	s.ID = canonicalID(alias.ID)
	s.FirstName = firstNonEmpty(alias.FirstName, alias.Nom)
	s.LastName = firstNonEmpty(alias.LastName, alias.Prenom)
	s.Matricule = alias.Matricule
	s.Email = alias.Email
	s.DateOfBirth = firstNonEmpty(alias.DateOfBirth, alias.Dob)
	s.Program = alias.Program
	s.Level = alias.Level
	s.CreatedAt = alias.CreatedAt
	return nil
}

// Result is a single subject/score observation tied to one Student.
// Results are append-only: there is no in-place edit.
type Result struct {
	ID        string    `json:"id"`
	StudentID int64     `json:"studentId"`
	Subject   string    `json:"subject"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

type resultAlias struct {
	ID        interface{} `json:"id"`
	StudentID interface{} `json:"studentId"`
	Subject   string      `json:"subject"`
	Score     interface{} `json:"score"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var alias resultAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	switch id := alias.ID.(type) {
	case string:
		r.ID = id
	case float64: // legacy numeric result ids
		r.ID = strconv.FormatInt(int64(id), 10)
	}
	r.StudentID = canonicalID(alias.StudentID)
	r.Subject = alias.Subject
	switch score := alias.Score.(type) {
	case float64:
		r.Score = score
	case string: // legacy records stored scores as strings
		r.Score, _ = strconv.ParseFloat(score, 64)
	}
	r.CreatedAt = alias.CreatedAt
	return nil
}

// canonicalID normalizes the heterogeneous identifier representations found
// in legacy records (number or its string form) to int64.
func canonicalID(v interface{}) int64 {
	switch id := v.(type) {
	case float64:
		return int64(id)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		return n
	case json.Number:
		n, _ := id.Int64()
		return n
	}
	return 0
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	Matricule   string `json:"matricule" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	DateOfBirth string `json:"dateOfBirth"`
	Program     string `json:"program"`
	Level       string `json:"level"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Matricule = core.CleanString(ns.Matricule)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an
// existing Student. Empty fields are left untouched.
type UpdateStudent struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Matricule   string `json:"matricule"`
	Email       string `json:"email" validate:"omitempty,email"`
	DateOfBirth string `json:"dateOfBirth"`
	Program     string `json:"program"`
	Level       string `json:"level"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.FirstName = core.CleanString(us.FirstName)
	us.LastName = core.CleanString(us.LastName)
	us.Matricule = core.CleanString(us.Matricule)
	us.Email = core.CleanString(us.Email, true /* lower */)
	return validate.Struct(us)
}

// NewResult contains information needed to record a Result. The score range
// is capped here at the input boundary; the store itself does not enforce it.
type NewResult struct {
	StudentID int64   `json:"studentId" validate:"required"`
	Subject   string  `json:"subject" validate:"required"`
	Score     float64 `json:"score" validate:"gte=0,lte=20"`
}

func (nr *NewResult) Validate(validate *validator.Validate) error {
	nr.Subject = core.CleanString(nr.Subject)
	return validate.Struct(nr)
}

// QueryFilter applies an AND operation on its fields.
// Search does a case-insensitive match on one of the Student's first name,
// last name, matricule or email.
type QueryFilter struct {
	Search  string `query:"search"`
	Program string `query:"program"`
	Level   string `query:"level"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Program == "" && qf.Level == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Program = core.CleanString(qf.Program)
	qf.Level = core.CleanString(qf.Level)
}
