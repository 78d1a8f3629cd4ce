package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"campus/lms/internal/config"
	"campus/lms/internal/crypto"
	"campus/lms/internal/db"
	"campus/lms/internal/model"
	"campus/lms/internal/repository"
)

// fakePresigner keeps the storage backend out of the test loop. URLs
// embed the object key so tests can assert on the key layout.
type fakePresigner struct{}

func (fakePresigner) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/get/" + key, nil
}

func (fakePresigner) PresignPut(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/put/" + key, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *repository.Store) {
	t.Helper()
	url := os.Getenv("LMS_TEST_DB")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		t.Skip("LMS_TEST_DB or DATABASE_URL not set")
		return nil, nil
	}
	if err := db.RunMigrations(url); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	pool, err := db.NewPool(context.Background(), url)
	if err != nil {
		t.Skipf("db unavailable: %v", err)
		return nil, nil
	}
	t.Cleanup(pool.Close)

	cfg := config.Config{
		JWTSecret:      "test-secret",
		JWTIssuer:      "lms-test",
		AccessTokenTTL: time.Hour,
		DownloadURLTTL: time.Hour,
		UploadURLTTL:   15 * time.Minute,
	}
	store := repository.NewStore(pool)
	server := NewServer(cfg, store, fakePresigner{}, zap.NewNop())
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts, store
}

func doReq(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func wantStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d", want, resp.StatusCode)
	}
}

func wantError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	wantStatus(t, resp, status)
	var body errorBody
	decodeBody(t, resp, &body)
	if body.Error != code {
		t.Fatalf("expected error %q, got %q", code, body.Error)
	}
}

func testEmail(prefix string) string {
	return fmt.Sprintf("%s.%d@example.test", prefix, time.Now().UnixNano())
}

func signup(t *testing.T, ts *httptest.Server, role string) authResponse {
	t.Helper()
	resp := doReq(t, http.MethodPost, ts.URL+"/auth/signup", "", map[string]string{
		"full_name": "Test " + role,
		"email":     testEmail(role),
		"password":  "hunter22",
		"role":      role,
	})
	wantStatus(t, resp, http.StatusCreated)
	var auth authResponse
	decodeBody(t, resp, &auth)
	return auth
}

// rootSession provisions a root principal directly, the way boot
// seeding does, and logs it in through the API.
func rootSession(t *testing.T, ts *httptest.Server, store *repository.Store) authResponse {
	t.Helper()
	email := testEmail("root")
	hash, err := crypto.HashPassword("rootpass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := store.CreateUser(context.Background(), model.User{
		FullName:     "Root",
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleRoot,
		Status:       model.StatusActive,
	}); err != nil {
		t.Fatalf("create root: %v", err)
	}
	resp := doReq(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email":    email,
		"password": "rootpass",
	})
	wantStatus(t, resp, http.StatusOK)
	var auth authResponse
	decodeBody(t, resp, &auth)
	return auth
}

func createAssignedCourse(t *testing.T, ts *httptest.Server, root authResponse, professorID int64) courseResponse {
	t.Helper()
	resp := doReq(t, http.MethodPost, ts.URL+"/root/courses", root.Token, map[string]string{
		"title":       "Operating Systems",
		"description": "Processes and scheduling",
	})
	wantStatus(t, resp, http.StatusCreated)
	var course courseResponse
	decodeBody(t, resp, &course)

	resp = doReq(t, http.MethodPut,
		fmt.Sprintf("%s/root/courses/%d/professor/%d", ts.URL, course.ID, professorID),
		root.Token, nil)
	wantStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &course)
	return course
}

func approveProfessor(t *testing.T, ts *httptest.Server, root authResponse, professorID int64) {
	t.Helper()
	resp := doReq(t, http.MethodPatch,
		fmt.Sprintf("%s/root/professors/%d/status", ts.URL, professorID),
		root.Token, map[string]string{"status": "approved"})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestSignupAndLogin(t *testing.T) {
	ts, _ := newTestServer(t)
	if ts == nil {
		return
	}

	student := signup(t, ts, "student")
	if student.User.Status != "active" {
		t.Fatalf("expected student active on signup, got %s", student.User.Status)
	}
	if student.Token == "" {
		t.Fatal("expected a token on signup")
	}

	resp := doReq(t, http.MethodPost, ts.URL+"/auth/signup", "", map[string]string{
		"full_name": "Dup",
		"email":     student.User.Email,
		"password":  "hunter22",
		"role":      "student",
	})
	wantError(t, resp, http.StatusConflict, "email_taken")

	resp = doReq(t, http.MethodPost, ts.URL+"/auth/signup", "", map[string]string{
		"full_name": "Imposter",
		"email":     testEmail("imposter"),
		"password":  "hunter22",
		"role":      "root",
	})
	wantError(t, resp, http.StatusBadRequest, "invalid_role")

	// Wrong password and unknown account produce the same denial.
	resp = doReq(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email":    student.User.Email,
		"password": "wrong",
	})
	wantError(t, resp, http.StatusUnauthorized, "invalid_credentials")

	resp = doReq(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email":    testEmail("nobody"),
		"password": "wrong",
	})
	wantError(t, resp, http.StatusUnauthorized, "invalid_credentials")

	resp = doReq(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email":    student.User.Email,
		"password": "hunter22",
	})
	wantStatus(t, resp, http.StatusOK)
	var login authResponse
	decodeBody(t, resp, &login)
	if login.User.ID != student.User.ID {
		t.Fatalf("expected user %d, got %d", student.User.ID, login.User.ID)
	}

	resp = doReq(t, http.MethodGet, ts.URL+"/auth/me", login.Token, nil)
	wantStatus(t, resp, http.StatusOK)
	var me userResponse
	decodeBody(t, resp, &me)
	if me.Email != student.User.Email {
		t.Fatalf("expected %s, got %s", student.User.Email, me.Email)
	}
}

func TestProfessorApprovalFlow(t *testing.T) {
	ts, store := newTestServer(t)
	if ts == nil {
		return
	}

	professor := signup(t, ts, "professor")
	if professor.User.Status != "pending" {
		t.Fatalf("expected professor pending on signup, got %s", professor.User.Status)
	}

	resp := doReq(t, http.MethodGet, ts.URL+"/professor/courses", professor.Token, nil)
	wantError(t, resp, http.StatusForbidden, "pending_approval")

	root := rootSession(t, ts, store)
	approveProfessor(t, ts, root, professor.User.ID)

	// The original token is unchanged; only the live status matters.
	resp = doReq(t, http.MethodGet, ts.URL+"/professor/courses", professor.Token, nil)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestRejectedProfessorDenied(t *testing.T) {
	ts, store := newTestServer(t)
	if ts == nil {
		return
	}

	professor := signup(t, ts, "professor")
	root := rootSession(t, ts, store)

	resp := doReq(t, http.MethodPatch,
		fmt.Sprintf("%s/root/professors/%d/status", ts.URL, professor.User.ID),
		root.Token, map[string]string{"status": "rejected"})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doReq(t, http.MethodGet, ts.URL+"/professor/courses", professor.Token, nil)
	wantError(t, resp, http.StatusForbidden, "account_rejected")

	resp = doReq(t, http.MethodGet, ts.URL+"/auth/me", professor.Token, nil)
	wantError(t, resp, http.StatusForbidden, "account_rejected")

	// A rejection can be reversed.
	approveProfessor(t, ts, root, professor.User.ID)
	resp = doReq(t, http.MethodGet, ts.URL+"/professor/courses", professor.Token, nil)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestGateDenials(t *testing.T) {
	ts, _ := newTestServer(t)
	if ts == nil {
		return
	}

	resp := doReq(t, http.MethodGet, ts.URL+"/root/courses", "", nil)
	wantError(t, resp, http.StatusUnauthorized, "missing_token")

	resp = doReq(t, http.MethodGet, ts.URL+"/root/courses", "not-a-token", nil)
	wantError(t, resp, http.StatusUnauthorized, "invalid_token")

	student := signup(t, ts, "student")
	resp = doReq(t, http.MethodGet, ts.URL+"/professor/courses", student.Token, nil)
	wantError(t, resp, http.StatusForbidden, "forbidden")

	resp = doReq(t, http.MethodGet, ts.URL+"/root/courses", student.Token, nil)
	wantError(t, resp, http.StatusForbidden, "forbidden")
}

func TestStatusTransitions(t *testing.T) {
	ts, store := newTestServer(t)
	if ts == nil {
		return
	}

	professor := signup(t, ts, "professor")
	root := rootSession(t, ts, store)

	// Same-status transitions are rejected.
	resp := doReq(t, http.MethodPatch,
		fmt.Sprintf("%s/root/professors/%d/status", ts.URL, professor.User.ID),
		root.Token, map[string]string{"status": "pending"})
	wantError(t, resp, http.StatusConflict, "invalid_transition")

	resp = doReq(t, http.MethodPatch,
		fmt.Sprintf("%s/root/professors/%d/status", ts.URL, professor.User.ID),
		root.Token, map[string]string{"status": "sabbatical"})
	wantError(t, resp, http.StatusBadRequest, "invalid_status")

	// Status changes target professors only.
	student := signup(t, ts, "student")
	resp = doReq(t, http.MethodPatch,
		fmt.Sprintf("%s/root/professors/%d/status", ts.URL, student.User.ID),
		root.Token, map[string]string{"status": "approved"})
	wantError(t, resp, http.StatusNotFound, "professor_not_found")

	resp = doReq(t, http.MethodGet, ts.URL+"/root/professors?status=pending", root.Token, nil)
	wantStatus(t, resp, http.StatusOK)
	var pending []userResponse
	decodeBody(t, resp, &pending)
	found := false
	for _, u := range pending {
		if u.ID == professor.User.ID {
			found = true
		}
		if u.Status != "pending" {
			t.Fatalf("filter leaked status %s", u.Status)
		}
	}
	if !found {
		t.Fatal("expected new professor in pending list")
	}
}

func TestCourseAssignment(t *testing.T) {
	ts, store := newTestServer(t)
	if ts == nil {
		return
	}

	root := rootSession(t, ts, store)
	professor := signup(t, ts, "professor")

	resp := doReq(t, http.MethodPost, ts.URL+"/root/courses", root.Token, map[string]string{
		"title": "Compilers",
	})
	wantStatus(t, resp, http.StatusCreated)
	var course courseResponse
	decodeBody(t, resp, &course)
	if course.ProfessorID != nil {
		t.Fatal("expected new course unassigned")
	}

	// A pending professor cannot be given a course.
	assignURL := fmt.Sprintf("%s/root/courses/%d/professor/%d", ts.URL, course.ID, professor.User.ID)
	resp = doReq(t, http.MethodPut, assignURL, root.Token, nil)
	wantError(t, resp, http.StatusConflict, "professor_not_approved")

	approveProfessor(t, ts, root, professor.User.ID)
	resp = doReq(t, http.MethodPut, assignURL, root.Token, nil)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Repeating the same assignment is a no-op, not a conflict.
	resp = doReq(t, http.MethodPut, assignURL, root.Token, nil)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	other := signup(t, ts, "professor")
	approveProfessor(t, ts, root, other.User.ID)
	resp = doReq(t, http.MethodPut,
		fmt.Sprintf("%s/root/courses/%d/professor/%d", ts.URL, course.ID, other.User.ID),
		root.Token, nil)
	wantError(t, resp, http.StatusConflict, "course_already_assigned")
}

func TestEnrollmentAndSubmissionFlow(t *testing.T) {
	ts, store := newTestServer(t)
	if ts == nil {
		return
	}

	root := rootSession(t, ts, store)
	professor := signup(t, ts, "professor")
	approveProfessor(t, ts, root, professor.User.ID)
	course := createAssignedCourse(t, ts, root, professor.User.ID)
	student := signup(t, ts, "student")

	// Courses without an instructor are closed to enrollment.
	resp := doReq(t, http.MethodPost, ts.URL+"/root/courses", root.Token, map[string]string{"title": "Draft"})
	wantStatus(t, resp, http.StatusCreated)
	var draft courseResponse
	decodeBody(t, resp, &draft)
	resp = doReq(t, http.MethodPost, fmt.Sprintf("%s/student/courses/%d/enroll", ts.URL, draft.ID), student.Token, nil)
	wantError(t, resp, http.StatusConflict, "course_not_open")

	enrollURL := fmt.Sprintf("%s/student/courses/%d/enroll", ts.URL, course.ID)
	resp = doReq(t, http.MethodPost, enrollURL, student.Token, nil)
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()
	resp = doReq(t, http.MethodPost, enrollURL, student.Token, nil)
	wantError(t, resp, http.StatusConflict, "already_enrolled")

	resp = doReq(t, http.MethodPost,
		fmt.Sprintf("%s/professor/courses/%d/assignments", ts.URL, course.ID),
		professor.Token, map[string]string{
			"title":  "Lab 1",
			"due_at": time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
		})
	wantStatus(t, resp, http.StatusCreated)
	var assignment assignmentResponse
	decodeBody(t, resp, &assignment)

	// A professor cannot touch a course they do not own.
	outsider := signup(t, ts, "professor")
	approveProfessor(t, ts, root, outsider.User.ID)
	resp = doReq(t, http.MethodPost,
		fmt.Sprintf("%s/professor/courses/%d/assignments", ts.URL, course.ID),
		outsider.Token, map[string]string{
			"title":  "Hijack",
			"due_at": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		})
	wantError(t, resp, http.StatusNotFound, "course_not_found")

	resp = doReq(t, http.MethodPost,
		fmt.Sprintf("%s/student/assignments/%d/submissions", ts.URL, assignment.ID),
		student.Token, map[string]string{"file_name": "lab1.pdf"})
	wantStatus(t, resp, http.StatusCreated)
	var created submissionCreatedResponse
	decodeBody(t, resp, &created)
	if created.UploadURL == "" {
		t.Fatal("expected an upload URL")
	}
	if created.Submission.FileName != "lab1.pdf" {
		t.Fatalf("expected lab1.pdf, got %s", created.Submission.FileName)
	}

	resp = doReq(t, http.MethodGet,
		fmt.Sprintf("%s/professor/assignments/%d/submissions", ts.URL, assignment.ID),
		professor.Token, nil)
	wantStatus(t, resp, http.StatusOK)
	var submissions []submissionResponse
	decodeBody(t, resp, &submissions)
	if len(submissions) != 1 {
		t.Fatalf("expected one submission, got %d", len(submissions))
	}

	gradeURL := fmt.Sprintf("%s/professor/submissions/%d/grade", ts.URL, created.Submission.ID)
	resp = doReq(t, http.MethodPatch, gradeURL, professor.Token, map[string]int32{"grade": 101})
	wantError(t, resp, http.StatusBadRequest, "invalid_grade")
	resp = doReq(t, http.MethodPatch, gradeURL, professor.Token, map[string]int32{"grade": 95})
	wantStatus(t, resp, http.StatusOK)
	var graded submissionResponse
	decodeBody(t, resp, &graded)
	if graded.Grade == nil || *graded.Grade != 95 {
		t.Fatalf("expected grade 95, got %v", graded.Grade)
	}

	for _, tc := range []struct {
		path  string
		token string
	}{
		{fmt.Sprintf("%s/student/submissions/%d/attachment", ts.URL, created.Submission.ID), student.Token},
		{fmt.Sprintf("%s/professor/submissions/%d/attachment", ts.URL, created.Submission.ID), professor.Token},
	} {
		resp = doReq(t, http.MethodGet, tc.path, tc.token, nil)
		wantStatus(t, resp, http.StatusOK)
		var attachment attachmentResponse
		decodeBody(t, resp, &attachment)
		if attachment.DownloadURL == "" {
			t.Fatalf("expected a download URL from %s", tc.path)
		}
	}

	// Attachments are invisible outside the owning pair.
	resp = doReq(t, http.MethodGet,
		fmt.Sprintf("%s/professor/submissions/%d/attachment", ts.URL, created.Submission.ID),
		outsider.Token, nil)
	wantError(t, resp, http.StatusNotFound, "submission_not_found")
}

func TestEnrollmentGuardsStudentReads(t *testing.T) {
	ts, store := newTestServer(t)
	if ts == nil {
		return
	}

	root := rootSession(t, ts, store)
	professor := signup(t, ts, "professor")
	approveProfessor(t, ts, root, professor.User.ID)
	course := createAssignedCourse(t, ts, root, professor.User.ID)
	student := signup(t, ts, "student")

	resp := doReq(t, http.MethodGet,
		fmt.Sprintf("%s/student/courses/%d/assignments", ts.URL, course.ID), student.Token, nil)
	wantError(t, resp, http.StatusForbidden, "not_enrolled")

	resp = doReq(t, http.MethodPost,
		fmt.Sprintf("%s/student/courses/%d/enroll", ts.URL, course.ID), student.Token, nil)
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = doReq(t, http.MethodPost,
		fmt.Sprintf("%s/professor/courses/%d/announcements", ts.URL, course.ID),
		professor.Token, map[string]string{"title": "Midterm", "body": "Next week"})
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = doReq(t, http.MethodGet,
		fmt.Sprintf("%s/student/courses/%d/announcements", ts.URL, course.ID), student.Token, nil)
	wantStatus(t, resp, http.StatusOK)
	var announcements []announcementResponse
	decodeBody(t, resp, &announcements)
	if len(announcements) != 1 || announcements[0].Title != "Midterm" {
		t.Fatalf("unexpected announcements: %+v", announcements)
	}
}

func TestDeleteCourseEndpointCascades(t *testing.T) {
	ts, store := newTestServer(t)
	if ts == nil {
		return
	}

	root := rootSession(t, ts, store)
	professor := signup(t, ts, "professor")
	approveProfessor(t, ts, root, professor.User.ID)
	course := createAssignedCourse(t, ts, root, professor.User.ID)
	student := signup(t, ts, "student")

	resp := doReq(t, http.MethodPost,
		fmt.Sprintf("%s/student/courses/%d/enroll", ts.URL, course.ID), student.Token, nil)
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = doReq(t, http.MethodPost,
		fmt.Sprintf("%s/professor/courses/%d/assignments", ts.URL, course.ID),
		professor.Token, map[string]string{
			"title":  "Final project",
			"due_at": time.Now().Add(240 * time.Hour).UTC().Format(time.RFC3339),
		})
	wantStatus(t, resp, http.StatusCreated)
	var assignment assignmentResponse
	decodeBody(t, resp, &assignment)

	resp = doReq(t, http.MethodDelete, fmt.Sprintf("%s/root/courses/%d", ts.URL, course.ID), root.Token, nil)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doReq(t, http.MethodDelete, fmt.Sprintf("%s/root/courses/%d", ts.URL, course.ID), root.Token, nil)
	wantError(t, resp, http.StatusNotFound, "course_not_found")

	assignments, err := store.ListAssignmentsByCourse(context.Background(), course.ID)
	if err != nil {
		t.Fatalf("list assignments: %v", err)
	}
	if len(assignments) != 0 {
		t.Fatalf("expected assignments removed with course, got %d", len(assignments))
	}
	enrolled, err := store.IsEnrolled(context.Background(), course.ID, student.User.ID)
	if err != nil {
		t.Fatalf("check enrollment: %v", err)
	}
	if enrolled {
		t.Fatal("expected enrollment removed with course")
	}
}
