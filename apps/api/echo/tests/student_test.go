package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	echoapi "github.com/annourmah/etudia/apps/api/echo"
	"github.com/annourmah/etudia/core/notif"
	"github.com/annourmah/etudia/core/student"
	testutil "github.com/annourmah/etudia/tests"
)

func Test_studentApi_query(t *testing.T) {
	resetApp(t)
	token := adminToken(t)

	john := testutil.CreateStudent(t, studentSvc, "John", "Doe", "MAT001", "Informatique", "L1")
	jane := testutil.CreateStudent(t, studentSvc, "Jane", "Smith", "MAT002", "Informatique", "L2")
	marc := testutil.CreateStudent(t, studentSvc, "Marc", "Kabila", "MAT003", "Droit", "L1")

	path := func(search, program, level string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if program != "" {
			v.Add("program", program)
		}
		if level != "" {
			v.Add("level", level)
		}
		return "/api/students?" + v.Encode()
	}
	empty := marchallList(t, []interface{}{}...)

	tests := []httpTest{
		{name: "auth required", path: "/api/students", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "get all", path: "/api/students", token: token, wantData: marchallList(t, john, jane, marc)},
		{name: "search (unknown)", path: path("lol", "", ""), token: token, wantData: empty},
		{name: "search by name", path: path("jane", "", ""), token: token, wantData: marchallList(t, jane)},
		{name: "search by matricule", path: path("MAT003", "", ""), token: token, wantData: marchallList(t, marc)},
		{name: "program", path: path("", "Informatique", ""), token: token, wantData: marchallList(t, john, jane)},
		{name: "level", path: path("", "", "L1"), token: token, wantData: marchallList(t, john, marc)},
		{name: "program & level", path: path("", "Informatique", "L1"), token: token, wantData: marchallList(t, john)},
		{name: "all combo (empty)", path: path("jane", "Droit", ""), token: token, wantData: empty},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_crud(t *testing.T) {
	resetApp(t)
	token := adminToken(t)

	t.Run("create: required fields", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/students", token, marchallObj(t, student.NewStudent{}))
		app.ServeHTTP(rec, req)
		reqMsg := "this field is required"
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"firstName": reqMsg, "lastName": reqMsg, "matricule": reqMsg}),
		}, rec)
	})

	var created student.Student
	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, student.NewStudent{
			FirstName: "John", LastName: "Doe", Matricule: "MAT001",
			Program: "Informatique", Level: "L1",
		})
		req, rec := newAuthRequest(http.MethodPost, "/api/students", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if created.ID == 0 || created.Matricule != "MAT001" {
			t.Errorf("failed! student = %+v", created)
		}
	})

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/api/students/%d", created.ID), token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, created)}, rec)
	})

	t.Run("retrieve: unknown id", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/students/999", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("retrieve: non-numeric id", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/students/lol", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("update merges non-empty fields", func(t *testing.T) {
		body := marchallObj(t, student.UpdateStudent{Program: "Droit"})
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/api/students/%d", created.ID), token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var updated student.Student
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if updated.Program != "Droit" {
			t.Errorf("failed! program = %q; want %q", updated.Program, "Droit")
		}
		if updated.FirstName != "John" || updated.Matricule != "MAT001" {
			t.Errorf("failed! untouched fields lost: %+v", updated)
		}
	})

	t.Run("update: unknown id", func(t *testing.T) {
		body := marchallObj(t, student.UpdateStudent{Program: "Droit"})
		req, rec := newAuthRequest(http.MethodPut, "/api/students/999", token, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, fmt.Sprintf("/api/students/%d", created.ID), token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusNoContent)
		}

		req, rec = newAuthRequest(http.MethodDelete, fmt.Sprintf("/api/students/%d", created.ID), token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("bulk delete", func(t *testing.T) {
		st1 := testutil.CreateStudent(t, studentSvc, "A", "One", "M1", "", "")
		st2 := testutil.CreateStudent(t, studentSvc, "B", "Two", "M2", "", "")

		req, rec := newAuthRequest(http.MethodDelete, "/api/students", token,
			marchallObj(t, echoapi.DeleteStudentsRequest{IDs: []int64{st1.ID, st2.ID, 999}}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.DeletedResponse{Deleted: 2})}, rec)
	})

	t.Run("bulk delete: ids required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/students", token, []byte(`{}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"ids": "this field is required"}),
		}, rec)
	})
}

func Test_studentApi_results(t *testing.T) {
	resetApp(t)
	token := adminToken(t)

	john := testutil.CreateStudent(t, studentSvc, "John", "Doe", "MAT001", "Informatique", "L1")
	jane := testutil.CreateStudent(t, studentSvc, "Jane", "Smith", "MAT002", "Informatique", "L2")

	var created student.Result
	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, student.NewResult{StudentID: john.ID, Subject: "Maths", Score: 15.5})
		req, rec := newAuthRequest(http.MethodPost, "/api/results", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if created.ID == "" || created.StudentID != john.ID || created.Score != 15.5 {
			t.Errorf("failed! result = %+v", created)
		}
	})

	t.Run("create: score out of range", func(t *testing.T) {
		body := marchallObj(t, student.NewResult{StudentID: john.ID, Subject: "Maths", Score: 25})
		req, rec := newAuthRequest(http.MethodPost, "/api/results", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; want %v; body %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	t.Run("create: required fields", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/results", token, []byte(`{}`))
		app.ServeHTTP(rec, req)
		reqMsg := "this field is required"
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"studentId": reqMsg, "subject": reqMsg}),
		}, rec)
	})

	other := testutil.CreateResult(t, studentSvc, jane.ID, "Physique", 8)

	t.Run("list all", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/results", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, created, other)}, rec)
	})

	t.Run("list for one student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/api/students/%d/results", john.ID), token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, created)}, rec)
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/results/"+other.ID, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusNoContent)
		}

		req, rec = newAuthRequest(http.MethodDelete, "/api/results/"+other.ID, token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})
}

func Test_studentApi_statsAndSubjects(t *testing.T) {
	resetApp(t)
	token := adminToken(t)

	john := testutil.CreateStudent(t, studentSvc, "John", "Doe", "MAT001", "Informatique", "L1")
	jane := testutil.CreateStudent(t, studentSvc, "Jane", "Smith", "MAT002", "Droit", "L2")
	testutil.CreateResult(t, studentSvc, john.ID, "Maths", 16)
	testutil.CreateResult(t, studentSvc, john.ID, "Physique", 8)
	testutil.CreateResult(t, studentSvc, jane.ID, "Maths", 12)

	t.Run("stats", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/stats", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var stats student.Stats
		if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if stats.TotalStudents != 2 || stats.TotalResults != 3 {
			t.Errorf("failed! totals = %d/%d; want 2/3", stats.TotalStudents, stats.TotalResults)
		}
		if stats.AverageScore != 12 { // (16+8+12)/3
			t.Errorf("failed! averageScore = %v; want 12", stats.AverageScore)
		}
		if stats.ProgramStats["Informatique"] != 1 || stats.ProgramStats["Droit"] != 1 {
			t.Errorf("failed! programStats = %v", stats.ProgramStats)
		}
	})

	t.Run("subjects", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/subjects", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var subjects []student.SubjectSummary
		if err := json.Unmarshal(rec.Body.Bytes(), &subjects); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		want := map[string]student.SubjectSummary{
			"Maths":    {Subject: "Maths", Count: 2, Average: 14},
			"Physique": {Subject: "Physique", Count: 1, Average: 8},
		}
		if len(subjects) != len(want) {
			t.Fatalf("failed! len(subjects) = %d; want %d", len(subjects), len(want))
		}
		for _, s := range subjects {
			if s != want[s.Subject] {
				t.Errorf("failed! subject %q = %+v; want %+v", s.Subject, s, want[s.Subject])
			}
		}
	})

	t.Run("report", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/api/students/%d/report", john.ID), token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var report student.Report
		if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if report.Student.ID != john.ID || len(report.Results) != 2 {
			t.Errorf("failed! report = %+v", report)
		}
		if report.Average != 12 || report.PassedCount != 1 {
			t.Errorf("failed! average = %v, passed = %d; want 12, 1", report.Average, report.PassedCount)
		}
	})

	t.Run("report: unknown student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/students/999/report", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})
}

func Test_studentApi_notifications(t *testing.T) {
	resetApp(t)
	token := adminToken(t)

	testutil.CreateStudent(t, studentSvc, "John", "Doe", "MAT001", "", "")

	latest := func() []notif.Notification {
		req, rec := newAuthRequest(http.MethodGet, "/api/notifications", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET /api/notifications: code = %v; body %s", rec.Code, rec.Body.String())
		}
		var items []notif.Notification
		if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		return items
	}

	items := latest()
	if len(items) != 1 {
		t.Fatalf("failed! len(items) = %d; want 1", len(items))
	}
	if items[0].Message != "Étudiant John Doe ajouté avec succès" || items[0].Severity != notif.SeveritySuccess {
		t.Errorf("failed! notification = %+v", items[0])
	}

	req, rec := newAuthRequest(http.MethodDelete, "/api/notifications/"+items[0].ID, token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusNoContent)
	}
	if items = latest(); len(items) != 0 {
		t.Errorf("failed! len(items) = %d; want 0", len(items))
	}
}

func Test_settingsApi(t *testing.T) {
	resetApp(t)
	token := adminToken(t)

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/api/settings",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "defaults", method: http.MethodGet, path: "/api/settings", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.Settings{Theme: "light"}),
		},
		{
			name: "invalid theme", method: http.MethodPut, path: "/api/settings/theme", token: token,
			body:     marchallObj(t, echoapi.UpdateTheme{Theme: "blue"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"theme": "theme must be one of [light dark]"}),
		},
		{
			name: "update theme", method: http.MethodPut, path: "/api/settings/theme", token: token,
			body:     marchallObj(t, echoapi.UpdateTheme{Theme: "dark"}),
			wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.Settings{Theme: "dark"}),
		},
		{
			name: "updated theme sticks", method: http.MethodGet, path: "/api/settings", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.Settings{Theme: "dark"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
