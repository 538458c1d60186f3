package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"career_coach_backend/internal/config"
	"career_coach_backend/internal/events"
	"career_coach_backend/internal/llm"
	"career_coach_backend/internal/middleware"
	"career_coach_backend/internal/model"
	"career_coach_backend/internal/repository"
	"career_coach_backend/internal/service"
	"career_coach_backend/internal/testutil"
	"career_coach_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-test-secret-0123456789abcdef"

const fiveQuestions = `[
 {"question": "Q0", "options": ["a0", "b0", "c0", "d0"], "answer": "a0"},
 {"question": "Q1", "options": ["a1", "b1", "c1", "d1"], "answer": "b1"},
 {"question": "Q2", "options": ["a2", "b2", "c2", "d2"], "answer": "c2"},
 {"question": "Q3", "options": ["a3", "b3", "c3", "d3"], "answer": "d3"},
 {"question": "Q4", "options": ["a4", "b4", "c4", "d4"], "answer": "a4"}
]`

type testServer struct {
	router  *gin.Engine
	mock    *llm.MockProvider
	repo    *repository.AssessmentRepository
	uploads string
	alice   string
	bob     string
	admin   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.OpenDB(t)
	uploads := t.TempDir()
	cfg := &config.Config{
		JWT:     config.JWTConfig{Secret: testSecret, ExpireTime: time.Hour},
		Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: uploads},
	}

	mock := llm.NewMockProvider()
	ai := service.NewAIService(mock, config.LLMConfig{MaxTokens: 1024})
	userRepo := repository.NewUserRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	publisher := events.NoopPublisher{}

	assessments := service.NewAssessmentService(assessmentRepo, service.NewQuestionGenerator(ai), publisher)
	scoring := service.NewScoringService(assessmentRepo, ai, service.NewLocalSubmissionGuard(), publisher)
	reports := service.NewReportService(service.NewStorageService(context.Background(), cfg))

	ac := NewAssessmentController(assessments, scoring, reports)
	authc := NewAuthController(service.NewAuthService(userRepo, cfg))
	uc := NewUserController(service.NewUserService(userRepo, assessmentRepo))

	r := gin.New()
	r.POST("/api/register", authc.Register)
	r.POST("/api/login", authc.Login)
	api := r.Group("/api", middleware.AuthMiddleware(testSecret))
	api.POST("/assessments", ac.Create)
	api.GET("/assessments", ac.List)
	api.GET("/assessments/:id", ac.Get)
	api.POST("/assessments/:id/submit", ac.Submit)
	api.GET("/assessments/:id/report", ac.Report)
	api.POST("/assessments/:id/report/export", ac.ExportReport)
	api.DELETE("/assessments/:id", ac.Delete)
	api.GET("/profile", uc.GetProfile)
	api.DELETE("/account", uc.DeleteAccount)
	api.GET("/admin/assessments/stats", middleware.RoleMiddleware(model.RoleAdmin), ac.Stats)

	token := func(email string, role model.UserRole) string {
		u := testutil.CreateUser(t, db, email)
		u.Role = role
		tok, err := util.GenerateJWT(u, testSecret, time.Hour)
		require.NoError(t, err)
		return tok
	}

	return &testServer{
		router:  r,
		mock:    mock,
		repo:    assessmentRepo,
		uploads: uploads,
		alice:   token("alice@example.com", model.RoleSeeker),
		bob:     token("bob@example.com", model.RoleSeeker),
		admin:   token("root@example.com", model.RoleAdmin),
	}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func (s *testServer) createAssessment(t *testing.T) model.Assessment {
	t.Helper()
	s.mock.AddResponse(llm.MockResponse{Content: fiveQuestions})
	w, env := s.do(t, http.MethodPost, "/api/assessments", s.alice, gin.H{"topic": "Arrays", "level": "Beginner", "count": 5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var a model.Assessment
	require.NoError(t, json.Unmarshal(env.Data, &a))
	return a
}

func TestAssessmentAPI_FullFlow(t *testing.T) {
	s := newTestServer(t)

	a := s.createAssessment(t)
	assert.Equal(t, model.StatusInProgress, a.Status)
	require.Len(t, a.Questions, 5)
	for _, q := range a.Questions {
		assert.Empty(t, q.Answer, "answers hidden while in progress")
	}

	w, _ := s.do(t, http.MethodGet, "/api/assessments/"+a.ID+"/report", s.alice, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	s.mock.AddResponse(llm.MockResponse{Content: "Focus on index arithmetic."})
	w, env := s.do(t, http.MethodPost, "/api/assessments/"+a.ID+"/submit", s.alice, gin.H{
		"answers": map[string]string{"0": "a0", "1": "a1", "2": "c2", "3": "a3", "4": "b4"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result service.ScoreResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.InDelta(t, 40.0, result.Score, 1e-9)
	assert.Equal(t, 2, result.CorrectCount)
	assert.Equal(t, 5, result.TotalCount)
	assert.Equal(t, "Focus on index arithmetic.", result.ImprovementTip)

	w, env = s.do(t, http.MethodGet, "/api/assessments/"+a.ID, s.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored model.Assessment
	require.NoError(t, json.Unmarshal(env.Data, &stored))
	assert.Equal(t, model.StatusCompleted, stored.Status)
	assert.Equal(t, "a0", stored.Questions[0].Answer)

	w, _ = s.do(t, http.MethodPost, "/api/assessments/"+a.ID+"/submit", s.alice, gin.H{"answers": gin.H{}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/assessments/"+a.ID+"/report?format=markdown", s.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Body.String(), "**Score:** 40.0% (2/5 correct)")

	w, env = s.do(t, http.MethodPost, "/api/assessments/"+a.ID+"/report/export", s.alice, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), "/uploads/reports/")
	exported := filepath.Join(s.uploads, "reports", strconv.FormatUint(uint64(stored.UserID), 10), a.ID+".md")
	assert.FileExists(t, exported)

	w, _ = s.do(t, http.MethodDelete, "/api/assessments/"+a.ID, s.alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/assessments/"+a.ID, s.alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoFileExists(t, exported)
}

func TestAssessmentAPI_OwnershipIsEnforced(t *testing.T) {
	s := newTestServer(t)
	a := s.createAssessment(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/assessments/" + a.ID},
		{http.MethodPost, "/api/assessments/" + a.ID + "/submit"},
		{http.MethodGet, "/api/assessments/" + a.ID + "/report"},
		{http.MethodDelete, "/api/assessments/" + a.ID},
	} {
		w, _ := s.do(t, tc.method, tc.path, s.bob, gin.H{"answers": gin.H{}})
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
	}

	_, err := s.repo.FindByID(context.Background(), a.ID)
	assert.NoError(t, err)
}

func TestAssessmentAPI_GenerationFailure(t *testing.T) {
	s := newTestServer(t)
	s.mock.AddResponse(llm.MockResponse{Content: "no json here"})

	w, _ := s.do(t, http.MethodPost, "/api/assessments", s.alice, gin.H{"topic": "Arrays", "level": "Beginner", "count": 5})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w, env := s.do(t, http.MethodGet, "/api/assessments", s.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestAssessmentAPI_Validation(t *testing.T) {
	s := newTestServer(t)

	cases := []gin.H{
		{"topic": "Arrays", "level": "Beginner", "count": 3},
		{"topic": "Arrays", "level": "Expert", "count": 5},
		{"level": "Beginner", "count": 5},
	}
	for _, body := range cases {
		w, _ := s.do(t, http.MethodPost, "/api/assessments", s.alice, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%v", body)
	}
	assert.Zero(t, s.mock.CallCount())

	a := s.createAssessment(t)
	w, _ := s.do(t, http.MethodPost, "/api/assessments/"+a.ID+"/submit", s.alice, gin.H{"answers": gin.H{"9": "x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/assessments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAssessmentAPI_TipFailureLeavesAssessmentOpen(t *testing.T) {
	s := newTestServer(t)
	a := s.createAssessment(t)
	s.mock.AddResponse(llm.MockResponse{Content: ""})

	w, _ := s.do(t, http.MethodPost, "/api/assessments/"+a.ID+"/submit", s.alice, gin.H{"answers": gin.H{"0": "a0"}})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	stored, err := s.repo.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, stored.Status)
}

func TestAssessmentAPI_ListPaged(t *testing.T) {
	s := newTestServer(t)
	s.createAssessment(t)
	s.createAssessment(t)

	w, env := s.do(t, http.MethodGet, "/api/assessments?page=1&limit=1", s.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		List  []model.Assessment `json:"list"`
		Total int64              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.List, 1)
}

func TestAssessmentAPI_ListPagedClampsLimit(t *testing.T) {
	s := newTestServer(t)
	s.createAssessment(t)

	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"page=1&limit=500", 1, 100},
		{"page=1&limit=0", 1, 1},
		{"page=0&limit=-3", 1, 1},
		{"page=2", 2, 20},
		{"page=1&limit=abc", 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w, env := s.do(t, http.MethodGet, "/api/assessments?"+tt.query, s.alice, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var page util.PageResponse
			require.NoError(t, json.Unmarshal(env.Data, &page))
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, tt.wantLimit, page.Limit)
			assert.Equal(t, int64(1), page.Total)
		})
	}
}

func TestAdminStats(t *testing.T) {
	s := newTestServer(t)
	s.createAssessment(t)

	w, _ := s.do(t, http.MethodGet, "/api/admin/assessments/stats", s.alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(t, http.MethodGet, "/api/admin/assessments/stats", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"in_progress": 1, "completed": 0}`, string(env.Data))
}

func TestAuthAndAccountAPI(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/register", "", gin.H{"name": "Carol", "email": "carol@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = s.do(t, http.MethodPost, "/api/register", "", gin.H{"name": "Carol", "email": "carol@example.com", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "carol@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "carol@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)

	w, env = s.do(t, http.MethodGet, "/api/profile", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"email":"carol@example.com"`)

	w, _ = s.do(t, http.MethodDelete, "/api/account", login.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/profile", login.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
