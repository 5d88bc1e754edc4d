package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/coursereg/internal/app"
	"github.com/shrimpsizemoose/coursereg/internal/models"
	"github.com/shrimpsizemoose/coursereg/internal/reporting"
	"github.com/shrimpsizemoose/coursereg/internal/testutil"
)

type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Issue(ctx context.Context, role models.Role, userID string) (*models.Session, error) {
	args := m.Called(role, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockTokenStore) Lookup(ctx context.Context, token string) (*models.Session, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockTokenStore) Revoke(ctx context.Context, token string) error {
	return m.Called(token).Error(0)
}

func (m *MockTokenStore) Close() error {
	return nil
}

type testServer struct {
	service *app.Service
	handler http.Handler
}

// setupTestServer seeds S1, S2, F1, F2, course CS101 with O1 (F1, cap 1)
// and O2 (F2, unlimited), and course MA200 with O3 (F1, cap 5).
func setupTestServer(t *testing.T) *testServer {
	s := testutil.NewStore(t)
	fx := testutil.Fixture{T: t, Store: s}
	fx.Student("S1", "Ann")
	fx.Student("S2", "Bob")
	fx.Faculty("F1", "Dr. Lee")
	fx.Faculty("F2", "Dr. Kim")
	fx.Course("CS101", "Intro", 3)
	fx.Course("MA200", "Algebra", 4)
	fx.Offering("O1", "CS101", "F1", 1)
	fx.Offering("O2", "CS101", "F2", 0)
	fx.Offering("O3", "MA200", "F1", 5)

	service := app.NewServiceWithStore(app.DefaultConfig(), s)
	mux := http.NewServeMux()
	NewHandler(service).Register(mux)
	return &testServer{service: service, handler: Instrument(mux)}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotEmpty(t, body.RequestID)
	return body.Error
}

func TestEnrollFlow(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, "POST", "/api/v1/students/s1/enrollments", enrollRequest{OfferingID: "o1"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var enrolled enrollmentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&enrolled))
	assert.Equal(t, "S1", enrolled.StudentID)
	assert.Equal(t, "O1", enrolled.OfferingID)
	assert.Contains(t, enrolled.EnrollmentID, "BL")

	testCases := []struct {
		name    string
		student string
		body    interface{}
		status  int
		code    string
	}{
		{"already enrolled", "S1", enrollRequest{OfferingID: "O1"}, http.StatusConflict, "already_enrolled"},
		{"same course", "S1", enrollRequest{OfferingID: "O2"}, http.StatusConflict, "duplicate_course_enrollment"},
		{"full", "S2", enrollRequest{OfferingID: "O1"}, http.StatusConflict, "capacity_exceeded"},
		{"unknown student", "S9", enrollRequest{OfferingID: "O1"}, http.StatusNotFound, "not_found"},
		{"unknown offering", "S2", enrollRequest{OfferingID: "O9"}, http.StatusNotFound, "not_found"},
		{"bad body", "S2", map[string]int{"nope": 1}, http.StatusBadRequest, "validation"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, "POST", "/api/v1/students/"+tc.student+"/enrollments", tc.body, "")
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, errorCode(t, rec))
		})
	}

	rec = ts.do(t, "POST", "/api/v1/students/S1/swap", swapRequest{OldOfferingID: "O1", NewOfferingID: "O2"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, "POST", "/api/v1/students/S2/enrollments", enrollRequest{OfferingID: "O1"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, "GET", "/api/v1/students/S1/schedule", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var schedule reporting.Schedule
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&schedule))
	require.Len(t, schedule.Entries, 1)
	assert.Equal(t, "O2", schedule.Entries[0].OfferingID)

	rec = ts.do(t, "DELETE", "/api/v1/students/S1/enrollments/O2", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, "DELETE", "/api/v1/students/S1/enrollments/O2", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "not_enrolled", errorCode(t, rec))
}

func TestAdminOperations(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, "POST", "/api/v1/courses", createOfferingsRequest{
		Course:     models.Course{ID: "PH100", Name: "Physics", Credits: 4},
		FacultyIDs: []string{"F1", "F2"},
		Capacity:   10,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, "GET", "/api/v1/offerings?course=PH100", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var seats []reporting.Seats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&seats))
	require.Len(t, seats, 2)
	assert.Equal(t, 10, seats[0].Remaining)

	rec = ts.do(t, "POST", "/api/v1/students/S1/enrollments", enrollRequest{OfferingID: "O3"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, "PUT", "/api/v1/offerings/O3/capacity", capacityRequest{Capacity: 0}, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "PUT", "/api/v1/offerings/O3/faculty", reassignRequest{FacultyID: "F2"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, "PUT", "/api/v1/offerings/O1/faculty", reassignRequest{FacultyID: "F2"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errorCode(t, rec))

	rec = ts.do(t, "GET", "/api/v1/offerings/O3/roster", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var roster []models.RosterEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&roster))
	assert.Len(t, roster, 1)

	rec = ts.do(t, "DELETE", "/api/v1/offerings/O3", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report struct {
		EnrollmentsRemoved int `json:"enrollments_removed"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, 1, report.EnrollmentsRemoved)

	rec = ts.do(t, "DELETE", "/api/v1/enrollments", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "POST", "/api/v1/admin/reconcile", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "PUT", "/api/v1/admin/sequence", sequenceBody{Value: 1}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, "PUT", "/api/v1/admin/sequence", sequenceBody{Value: 500000}, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "GET", "/api/v1/admin/sequence", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var seq sequenceBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&seq))
	assert.EqualValues(t, 500000, seq.Value)
}

func TestAuthEnforced(t *testing.T) {
	ts := setupTestServer(t)
	tokens := new(MockTokenStore)
	ts.service.Auth = app.NewAuthWithTokens(tokens, ts.service.Accounts, "Authorization")

	tokens.On("Lookup", "ann").Return(&models.Session{Role: models.RoleStudent, UserID: "S1"}, nil)
	tokens.On("Lookup", "lee").Return(&models.Session{Role: models.RoleFaculty, UserID: "F1"}, nil)
	tokens.On("Lookup", "root").Return(&models.Session{Role: models.RoleAdmin, UserID: "ADMIN"}, nil)
	tokens.On("Lookup", "stale").Return(nil, app.ErrSessionNotFound)

	rec := ts.do(t, "POST", "/api/v1/students/S1/enrollments", enrollRequest{OfferingID: "O1"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, "POST", "/api/v1/students/S1/enrollments", enrollRequest{OfferingID: "O1"}, "stale")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, "POST", "/api/v1/students/S2/enrollments", enrollRequest{OfferingID: "O1"}, "ann")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", errorCode(t, rec))

	rec = ts.do(t, "POST", "/api/v1/students/S1/enrollments", enrollRequest{OfferingID: "O1"}, "ann")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, "DELETE", "/api/v1/enrollments", nil, "ann")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, "GET", "/api/v1/offerings/O1/roster", nil, "lee")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "GET", "/api/v1/offerings/O2/roster", nil, "lee")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, "DELETE", "/api/v1/offerings/O1", nil, "root")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOfferingOwnerActions(t *testing.T) {
	ts := setupTestServer(t)
	tokens := new(MockTokenStore)
	ts.service.Auth = app.NewAuthWithTokens(tokens, ts.service.Accounts, "Authorization")

	tokens.On("Lookup", "ann").Return(&models.Session{Role: models.RoleStudent, UserID: "S1"}, nil)
	tokens.On("Lookup", "lee").Return(&models.Session{Role: models.RoleFaculty, UserID: "F1"}, nil)
	tokens.On("Lookup", "kim").Return(&models.Session{Role: models.RoleFaculty, UserID: "F2"}, nil)

	testCases := []struct {
		name   string
		method string
		path   string
		body   interface{}
		token  string
		status int
	}{
		{"anonymous reassign", "PUT", "/api/v1/offerings/O3/faculty", reassignRequest{FacultyID: "F2"}, "", http.StatusUnauthorized},
		{"student reassign", "PUT", "/api/v1/offerings/O3/faculty", reassignRequest{FacultyID: "F2"}, "ann", http.StatusForbidden},
		{"other faculty reassign", "PUT", "/api/v1/offerings/O2/faculty", reassignRequest{FacultyID: "F1"}, "lee", http.StatusForbidden},
		{"other faculty delete", "DELETE", "/api/v1/offerings/O2", nil, "lee", http.StatusForbidden},
		{"unknown offering", "DELETE", "/api/v1/offerings/O9", nil, "lee", http.StatusNotFound},
		{"owner hands offering over", "PUT", "/api/v1/offerings/O3/faculty", reassignRequest{FacultyID: "F2"}, "lee", http.StatusOK},
		{"previous owner can no longer delete", "DELETE", "/api/v1/offerings/O3", nil, "lee", http.StatusForbidden},
		{"new owner deletes", "DELETE", "/api/v1/offerings/O3", nil, "kim", http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, tc.method, tc.path, tc.body, tc.token)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}

	_, err := ts.service.Catalog.GetOffering(context.Background(), "O3")
	assert.Error(t, err)
	o, err := ts.service.Catalog.GetOffering(context.Background(), "O2")
	require.NoError(t, err)
	assert.Equal(t, "F2", o.FacultyID)
}

func TestLogin(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, "POST", "/api/v1/login", loginRequest{Role: models.RoleStudent, ID: "S1", Password: "x"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "auth_disabled", errorCode(t, rec))

	tokens := new(MockTokenStore)
	ts.service.Auth = app.NewAuthWithTokens(tokens, ts.service.Accounts, "")

	_, err := ts.service.Accounts.WithCost(4).AddStudent(context.Background(), "S3", "Cy", "secret")
	require.NoError(t, err)
	tokens.On("Issue", models.RoleStudent, "S3").Return(&models.Session{Token: "tok", Role: models.RoleStudent, UserID: "S3"}, nil)
	tokens.On("Revoke", "tok").Return(nil)

	rec = ts.do(t, "POST", "/api/v1/login", loginRequest{Role: models.RoleStudent, ID: "s3", Password: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, "POST", "/api/v1/login", loginRequest{Role: models.RoleStudent, ID: "s3", Password: "secret"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var session models.Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))
	assert.Equal(t, "tok", session.Token)

	rec = ts.do(t, "POST", "/api/v1/logout", nil, "tok")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestErrorDetails(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, "POST", "/api/v1/students/S1/enrollments", enrollRequest{OfferingID: "O1"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, "POST", "/api/v1/students/S2/enrollments", enrollRequest{OfferingID: "O1"}, "")
	require.Equal(t, http.StatusConflict, rec.Code)
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "capacity_exceeded", body.Error)
	assert.Equal(t, "O1", body.Details["offering_id"])
	assert.EqualValues(t, 1, body.Details["enrolled"])
	assert.EqualValues(t, 1, body.Details["capacity"])

	rec = ts.do(t, "POST", "/api/v1/students/S1/enrollments", enrollRequest{OfferingID: "O2"}, "")
	require.Equal(t, http.StatusConflict, rec.Code)
	body = errorBody{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "CS101", body.Details["course_id"])

	rec = ts.do(t, "GET", "/api/v1/offerings/O9", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body = errorBody{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Nil(t, body.Details)
}

func TestMutationsLoggedOnce(t *testing.T) {
	ts := setupTestServer(t)

	var buf bytes.Buffer
	logger.Info.SetOutput(&buf)
	t.Cleanup(func() { logger.Info.SetOutput(os.Stdout) })

	rec := ts.do(t, "POST", "/api/v1/students/S1/enrollments", enrollRequest{OfferingID: "O1"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = ts.do(t, "DELETE", "/api/v1/enrollments", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "Enrolled S1 in O1"), out)
	assert.Equal(t, 1, strings.Count(out, "Cleared 1 enrollments"), out)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusOf(assert.AnError))
	assert.Equal(t, "internal", codeOf(assert.AnError))
	assert.Equal(t, http.StatusForbidden, statusOf(app.ErrForbidden))
}
