// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/annourmah/etudia/core"
	"github.com/annourmah/etudia/core/notif"
	"github.com/annourmah/etudia/core/student"
	"github.com/annourmah/etudia/core/user"
	"github.com/annourmah/etudia/storage/kvstore"
	"github.com/annourmah/etudia/storage/localstore"
)

// NopLogger discards everything.
type NopLogger struct{}

var _ core.Logger = (*NopLogger)(nil)

func (NopLogger) Enable(bool)                  {}
func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

// NewConfig returns a ready-to-use test configuration.
func NewConfig() *core.Config {
	conf := &core.Config{
		Debug:            true,
		TestMode:         true,
		Env:              "TEST",
		AppName:          "Etudia",
		SecretKey:        "test-secret-key",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: "noreply@localhost",
	}
	conf.Server.SessionExpirationDelta = 24 * time.Hour
	conf.Server.SessionRememberExpirationDelta = 30 * 24 * time.Hour
	conf.Server.PasswordResetTimeoutDelta = 15 * time.Minute
	conf.Mirror.ProbeInterval = 30 * time.Second
	conf.Mirror.ProbeTimeout = 3 * time.Second
	conf.Mirror.RequestTimeout = 5 * time.Second
	return conf
}

// NewStore returns an in-memory typed store and its backing key-value store.
func NewStore() (*localstore.Store, *kvstore.MemStore) {
	kv := kvstore.NewMemStore()
	return localstore.New(kv), kv
}

// NewStudentService builds a Service over an in-memory store, without a
// remote mirror.
func NewStudentService(t *testing.T) (*student.Service, *notif.Center, *localstore.Store) {
	store, _ := NewStore()
	notifs := notif.NewCenter()
	svc, err := student.NewService(store, notifs, nil, NopLogger{})
	if err != nil {
		t.Fatalf("NewStudentService() failed: %v", err)
	}
	return svc, notifs, store
}

func CreateStudent(t *testing.T, svc *student.Service, firstName, lastName, matricule, program, level string) student.Student {
	st := svc.AddStudent(student.NewStudent{
		FirstName: firstName,
		LastName:  lastName,
		Matricule: matricule,
		Program:   program,
		Level:     level,
	})
	if st.ID == 0 {
		t.Fatalf("CreateStudent() failed: zero ID")
	}
	return st
}

func CreateResult(t *testing.T, svc *student.Service, studentID int64, subject string, score float64) student.Result {
	res := svc.AddResult(student.NewResult{
		StudentID: studentID,
		Subject:   subject,
		Score:     score,
	})
	if res.ID == "" {
		t.Fatalf("CreateResult() failed: empty ID")
	}
	return res
}

func CreateUser(t *testing.T, svc *user.Service, email, firstName, lastName, pwd string) user.User {
	usr, err := svc.Register(user.NewUser{
		Email:           email,
		FirstName:       firstName,
		LastName:        lastName,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
