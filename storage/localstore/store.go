// Package localstore is the typed persistence adapter over the key-value
// store: pure serialize/deserialize of the named collections and flags, no
// merge logic, no ownership.
package localstore

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/annourmah/etudia/core"
	"github.com/annourmah/etudia/core/student"
	"github.com/annourmah/etudia/core/user"
)

type Store struct {
	kv core.KVStore
}

var (
	_ student.Repository = (*Store)(nil)
	_ user.Repository    = (*Store)(nil)
)

func New(kv core.KVStore) *Store {
	return &Store{kv: kv}
}

func (s *Store) LoadStudents() ([]student.Student, error) {
	var students []student.Student
	if err := s.load(core.KeyStudents, &students); err != nil {
		return nil, err
	}
	if students == nil {
		students = []student.Student{}
	}
	return students, nil
}

func (s *Store) SaveStudents(students []student.Student) error {
	return s.save(core.KeyStudents, students)
}

func (s *Store) LoadResults() ([]student.Result, error) {
	var results []student.Result
	if err := s.load(core.KeyResults, &results); err != nil {
		return nil, err
	}
	if results == nil {
		results = []student.Result{}
	}
	return results, nil
}

func (s *Store) SaveResults(results []student.Result) error {
	return s.save(core.KeyResults, results)
}

func (s *Store) LoadUsers() ([]user.User, error) {
	var users []user.User
	if err := s.load(core.KeyUsers, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []user.User{}
	}
	return users, nil
}

func (s *Store) SaveUsers(users []user.User) error {
	return s.save(core.KeyUsers, users)
}

// Theme returns the stored UI theme, defaulting to "light".
func (s *Store) Theme() string {
	val, err := s.kv.Get(core.KeyTheme)
	if err != nil {
		return "light"
	}
	return string(val)
}

func (s *Store) SetTheme(theme string) error {
	return s.kv.Set(core.KeyTheme, []byte(theme))
}

// OfflineMode reports whether remote mirroring is currently suspended.
func (s *Store) OfflineMode() bool {
	val, err := s.kv.Get(core.KeyOfflineMode)
	return err == nil && string(val) == "true"
}

func (s *Store) SetOfflineMode(offline bool) error {
	val := "false"
	if offline {
		val = "true"
	}
	return s.kv.Set(core.KeyOfflineMode, []byte(val))
}

func (s *Store) load(key string, dest interface{}) error {
	raw, err := s.kv.Get(key)
	if err == core.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "reading %q", key)
	}
	if err = json.Unmarshal(raw, dest); err != nil {
		return errors.Wrapf(err, "decoding %q", key)
	}
	return nil
}

func (s *Store) save(key string, src interface{}) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}
	if err = s.kv.Set(key, raw); err != nil {
		return errors.Wrapf(err, "writing %q", key)
	}
	return nil
}
