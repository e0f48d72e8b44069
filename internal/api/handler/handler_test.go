package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"industrolink/backend/config"
	"industrolink/backend/internal/api/middleware"
	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/model"
	"industrolink/backend/internal/repository"
	"industrolink/backend/internal/service"
	pkgerrors "industrolink/backend/pkg/errors"
	"industrolink/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = dto.RegisterValidators(v)
	}
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	registerResult *dto.TokenResponse
	registerErr    error
	verifyErr      error
	resendErr      error
	loginResult    *dto.TokenResponse
	loginErr       error
	refreshResult  *dto.TokenResponse
	refreshErr     error
	logoutErr      error
	logoutJTI      string
	meResult       *dto.UserResponse
	meErr          error
	adminResult    *dto.TokenResponse
	adminErr       error
}

func (m *mockAuthService) Register(_ context.Context, _ *dto.RegisterRequest) (*dto.TokenResponse, error) {
	return m.registerResult, m.registerErr
}
func (m *mockAuthService) VerifyEmail(_ context.Context, _ *dto.VerifyEmailRequest) error {
	return m.verifyErr
}
func (m *mockAuthService) ResendVerification(_ context.Context, _ string) error {
	return m.resendErr
}
func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Refresh(_ context.Context, _ *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time) error {
	m.logoutJTI = jti
	return m.logoutErr
}
func (m *mockAuthService) Me(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.meResult, m.meErr
}
func (m *mockAuthService) RegisterAdmin(_ context.Context, _ *dto.RegisterAdminRequest) (*dto.TokenResponse, error) {
	return m.adminResult, m.adminErr
}

// ── Mock DailyTaskService ──

type mockTaskService struct {
	createResult *dto.TaskResponse
	createErr    error
	getResult    *dto.TaskResponse
	getErr       error
	listResult   *dto.TaskListResponse
	listErr      error
	listQuery    *dto.TaskListQuery
	todayResult  *dto.TodayTaskResponse
	todayErr     error
	updateResult *dto.TaskResponse
	updateErr    error
	deleteErr    error
	gotPrincipal *service.Principal
}

func (m *mockTaskService) Create(_ context.Context, p *service.Principal, _ *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	m.gotPrincipal = p
	return m.createResult, m.createErr
}
func (m *mockTaskService) Get(_ context.Context, _ *service.Principal, _ string) (*dto.TaskResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockTaskService) List(_ context.Context, _ *service.Principal, q *dto.TaskListQuery) (*dto.TaskListResponse, error) {
	m.listQuery = q
	return m.listResult, m.listErr
}
func (m *mockTaskService) Today(_ context.Context, _ *service.Principal) (*dto.TodayTaskResponse, error) {
	return m.todayResult, m.todayErr
}
func (m *mockTaskService) Update(_ context.Context, _ *service.Principal, _ string, _ *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	return m.updateResult, m.updateErr
}
func (m *mockTaskService) Delete(_ context.Context, _ *service.Principal, _ string) error {
	return m.deleteErr
}

// ── Mock ApprovalService ──

type mockApprovalService struct {
	approveResult *dto.TaskResponse
	approveErr    error
	approveReq    *dto.ApproveTaskRequest
	bulkResult    *dto.BulkApproveResponse
	bulkErr       error
	toggleResult  *dto.TaskResponse
	toggleErr     error
}

func (m *mockApprovalService) Approve(_ context.Context, _ *service.Principal, _ string, req *dto.ApproveTaskRequest) (*dto.TaskResponse, error) {
	m.approveReq = req
	return m.approveResult, m.approveErr
}
func (m *mockApprovalService) BulkApprove(_ context.Context, _ *service.Principal, _ *dto.BulkApproveRequest) (*dto.BulkApproveResponse, error) {
	return m.bulkResult, m.bulkErr
}
func (m *mockApprovalService) Toggle(_ context.Context, _ *service.Principal, _ string, _ *dto.ToggleApprovalRequest) (*dto.TaskResponse, error) {
	return m.toggleResult, m.toggleErr
}

// ── Mock ReportService ──

type mockReportService struct {
	statsResult  *dto.StatisticsResponse
	statsErr     error
	weeklyResult *dto.WeeklySummaryResponse
	weeklyErr    error
	studentID    string
	buf          *bytes.Buffer
	filename     string
	exportErr    error
	exportQuery  *dto.ExportQuery
}

func (m *mockReportService) Statistics(_ context.Context, _ *service.Principal) (*dto.StatisticsResponse, error) {
	return m.statsResult, m.statsErr
}
func (m *mockReportService) WeeklySummary(_ context.Context, _ *service.Principal, _ *dto.WeeklySummaryQuery) (*dto.WeeklySummaryResponse, error) {
	return m.weeklyResult, m.weeklyErr
}
func (m *mockReportService) StudentWeeklySummary(_ context.Context, _ *service.Principal, studentID string, _ *dto.WeeklySummaryQuery) (*dto.WeeklySummaryResponse, error) {
	m.studentID = studentID
	return m.weeklyResult, m.weeklyErr
}
func (m *mockReportService) Export(_ context.Context, _ *service.Principal, q *dto.ExportQuery) (*bytes.Buffer, string, error) {
	m.exportQuery = q
	return m.buf, m.filename, m.exportErr
}

// ── Mock CategoryService ──

type mockCategoryService struct {
	listResult   []dto.CategoryResponse
	listErr      error
	createResult *dto.CategoryResponse
	created      bool
	createErr    error
}

func (m *mockCategoryService) List(_ context.Context) ([]dto.CategoryResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockCategoryService) Create(_ context.Context, _ *service.Principal, _ *dto.CreateCategoryRequest) (*dto.CategoryResponse, bool, error) {
	return m.createResult, m.created, m.createErr
}

// ── Mock AdminService ──

type mockAdminService struct {
	users       []dto.UserResponse
	total       int64
	listErr     error
	actionResp  *dto.UserResponse
	actionErr   error
	dashboard   *dto.DashboardResponse
	inviteResp  *dto.InviteResponse
	inviteErr   error
	deleteErr   error
	invitesList []dto.InviteResponse
}

func (m *mockAdminService) ListUsers(_ context.Context, _ *dto.AdminUserListQuery) ([]dto.UserResponse, int64, error) {
	return m.users, m.total, m.listErr
}
func (m *mockAdminService) UserAction(_ context.Context, _ *service.Principal, _ string, _ *dto.UserActionRequest) (*dto.UserResponse, error) {
	return m.actionResp, m.actionErr
}
func (m *mockAdminService) Dashboard(_ context.Context) (*dto.DashboardResponse, error) {
	return m.dashboard, nil
}
func (m *mockAdminService) AuditLogs(_ context.Context, _ *dto.AuditLogQuery) ([]dto.AuditLogResponse, int64, error) {
	return nil, 0, nil
}
func (m *mockAdminService) CreateInvite(_ context.Context, _ *service.Principal, _ *dto.CreateInviteRequest) (*dto.InviteResponse, error) {
	return m.inviteResp, m.inviteErr
}
func (m *mockAdminService) ListInvites(_ context.Context) ([]dto.InviteResponse, error) {
	return m.invitesList, nil
}
func (m *mockAdminService) DeleteInvite(_ context.Context, _ *service.Principal, _ string) error {
	return m.deleteErr
}

// ── Mock Pinger ──

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

const testTaskID = "6f1c3a52-2b7e-4c1a-9d53-0d3f8f0a1b11"

func studentPrincipal() *service.Principal {
	return &service.Principal{
		UserID:    "student-user-id",
		Role:      model.RoleStudent,
		StudentID: "student-profile-id",
		CompanyID: "company-id",
	}
}

func supervisorPrincipal() *service.Principal {
	return &service.Principal{
		UserID:              "supervisor-user-id",
		Role:                model.RoleSupervisor,
		CompanyID:           "company-id",
		SupervisorProfileID: "supervisor-profile-id",
	}
}

// withPrincipal 模拟 JWTAuth + LoadPrincipal 注入的上下文
func withPrincipal(p *service.Principal, next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, p.UserID)
		c.Set(middleware.RoleKey, p.Role)
		c.Set(middleware.TokenJTIKey, "test-jti")
		c.Set(middleware.TokenExpKey, time.Now().Add(15*time.Minute))
		c.Set(middleware.PrincipalKey, p)
		next(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func validCreateTaskRequest() dto.CreateTaskRequest {
	return dto.CreateTaskRequest{
		Description:  "实现登录页面",
		TaskCategory: "0d9c5c1e-3f57-4d1c-8c0a-6a2d1c9b7e01",
		HoursSpent:   7.5,
		ToolsUsed:    []string{"Go"},
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900},
	}
	h := NewAuthHandler(mock)

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, http.MethodPost, "/auth/login", jsonBody(dto.LoginRequest{
		Email: "student@example.com", Password: "Passw0rd!",
	}))

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("期望 code 0，实际 %d", resp.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, http.MethodPost, "/auth/login", jsonBody(dto.LoginRequest{
		Email: "student@example.com", Password: "wrong",
	}))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11001 {
		t.Errorf("期望错误码 11001，实际 %d", resp.Code)
	}
}

func TestAuthHandler_Login_ValidationDetails(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, http.MethodPost, "/auth/login", jsonBody(map[string]string{"email": "not-an-email"}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("期望 400，实际 %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 10001 {
		t.Errorf("期望错误码 10001，实际 %d", resp.Code)
	}
	if !strings.Contains(resp.Details, "email: email") || !strings.Contains(resp.Details, "password: required") {
		t.Errorf("details 应列出字段与规则，实际 %q", resp.Details)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, http.MethodPost, "/auth/login", strings.NewReader("invalid json"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Details != "" {
		t.Errorf("非校验错误不应带 details，实际 %q", resp.Details)
	}
}

func TestAuthHandler_Register_Created(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{registerResult: &dto.TokenResponse{AccessToken: "a"}})

	r := gin.New()
	r.POST("/auth/register", h.Register)
	w := serve(r, http.MethodPost, "/auth/register", jsonBody(dto.RegisterRequest{
		Email:     "new@example.com",
		Password:  "Passw0rd!",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Role:      model.RoleStudent,
	}))

	if w.Code != http.StatusCreated {
		t.Errorf("期望 201，实际 %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"账号停用", service.ErrAccountDisabled, http.StatusForbidden, 11002},
		{"邮箱已注册", service.ErrEmailTaken, http.StatusConflict, 11003},
		{"验证链接无效", service.ErrVerificationTokenInvalid, http.StatusBadRequest, 11004},
		{"验证链接过期", service.ErrVerificationTokenExpired, http.StatusBadRequest, 11005},
		{"刷新令牌无效", service.ErrRefreshTokenInvalid, http.StatusUnauthorized, 11007},
		{"邀请无效", service.ErrInviteInvalid, http.StatusBadRequest, 11008},
		{"自助注册管理员", service.ErrSelfRegisterAdmin, http.StatusBadRequest, 11009},
		{"未知错误", errors.New("boom"), http.StatusInternalServerError, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{refreshErr: tt.err})

			r := gin.New()
			r.POST("/auth/refresh", h.RefreshToken)
			w := serve(r, http.MethodPost, "/auth/refresh", jsonBody(dto.RefreshTokenRequest{RefreshToken: "x"}))

			if w.Code != tt.wantStatus {
				t.Errorf("期望 %d，实际 %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("期望错误码 %d，实际 %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestAuthHandler_Logout_UsesTokenJTI(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	r := gin.New()
	r.POST("/auth/logout", withPrincipal(studentPrincipal(), h.Logout))
	w := serve(r, http.MethodPost, "/auth/logout", nil)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
	if mock.logoutJTI != "test-jti" {
		t.Errorf("期望注销 test-jti，实际 %q", mock.logoutJTI)
	}
}

func TestAuthHandler_Logout_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r := gin.New()
	r.POST("/auth/logout", h.Logout)
	w := serve(r, http.MethodPost, "/auth/logout", nil)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}
}

func TestAuthHandler_GetCurrentUser_NotFound(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{meErr: service.ErrUserNotFound})

	r := gin.New()
	r.GET("/auth/me", withPrincipal(studentPrincipal(), h.GetCurrentUser))
	w := serve(r, http.MethodGet, "/auth/me", nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11010 {
		t.Errorf("期望错误码 11010，实际 %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// TaskHandler Tests
// ═══════════════════════════════════════════════════════════

func TestTaskHandler_CreateTask_Success(t *testing.T) {
	mock := &mockTaskService{createResult: &dto.TaskResponse{ID: testTaskID, Date: "2026-10-18"}}
	h := NewTaskHandler(mock)

	r := gin.New()
	r.POST("/tasks", withPrincipal(studentPrincipal(), h.CreateTask))
	w := serve(r, http.MethodPost, "/tasks", jsonBody(validCreateTaskRequest()))

	if w.Code != http.StatusCreated {
		t.Fatalf("期望 201，实际 %d: %s", w.Code, w.Body.String())
	}
	if mock.gotPrincipal == nil || mock.gotPrincipal.StudentID != "student-profile-id" {
		t.Error("调用者应原样传给 Service")
	}
}

func TestTaskHandler_CreateTask_Conflict(t *testing.T) {
	date := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	mock := &mockTaskService{createErr: &service.TaskConflictError{TaskID: testTaskID, Date: date}}
	h := NewTaskHandler(mock)

	r := gin.New()
	r.POST("/tasks", withPrincipal(studentPrincipal(), h.CreateTask))
	w := serve(r, http.MethodPost, "/tasks", jsonBody(validCreateTaskRequest()))

	if w.Code != http.StatusConflict {
		t.Fatalf("期望 409，实际 %d", w.Code)
	}

	var body struct {
		Code int                      `json:"code"`
		Data dto.TaskConflictResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if body.Code != 12002 {
		t.Errorf("期望错误码 12002，实际 %d", body.Code)
	}
	if body.Data.ExistingTaskID != testTaskID {
		t.Errorf("期望返回已有日志 ID，实际 %q", body.Data.ExistingTaskID)
	}
	if body.Data.Date != "2026-10-18" {
		t.Errorf("期望日期 2026-10-18，实际 %q", body.Data.Date)
	}
}

func TestTaskHandler_CreateTask_BlankDescription(t *testing.T) {
	h := NewTaskHandler(&mockTaskService{})
	req := validCreateTaskRequest()
	req.Description = "   "

	r := gin.New()
	r.POST("/tasks", withPrincipal(studentPrincipal(), h.CreateTask))
	w := serve(r, http.MethodPost, "/tasks", jsonBody(req))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("期望 400，实际 %d", w.Code)
	}
	if resp := parseResponse(w); !strings.Contains(resp.Details, "description: notblank") {
		t.Errorf("期望 description: notblank，实际 %q", resp.Details)
	}
}

func TestTaskHandler_CreateTask_BodyTooLarge(t *testing.T) {
	h := NewTaskHandler(&mockTaskService{})

	r := gin.New()
	r.Use(middleware.BodyLimit(64))
	r.POST("/tasks", withPrincipal(studentPrincipal(), h.CreateTask))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"description":"`+strings.Repeat("x", 256)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1 // 分块上传，绕过 Content-Length 预检
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("期望 413，实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 10005 {
		t.Errorf("期望错误码 10005，实际 %d", resp.Code)
	}
}

func TestTaskHandler_CreateTask_StudentWithoutProfile(t *testing.T) {
	svc := service.NewDailyTaskService(&config.Config{}, &repository.Repository{}, nil, nil, zap.NewNop())
	h := NewTaskHandler(svc)
	p := &service.Principal{UserID: "student-user-id", Role: model.RoleStudent}

	r := gin.New()
	r.POST("/tasks", withPrincipal(p, h.CreateTask))
	w := serve(r, http.MethodPost, "/tasks", jsonBody(validCreateTaskRequest()))

	if w.Code != http.StatusForbidden {
		t.Fatalf("未建档学生提交日志期望 403，实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 12006 {
		t.Errorf("期望错误码 12006，实际 %d", resp.Code)
	}
}

func TestTaskHandler_CreateTask_NoPrincipal(t *testing.T) {
	h := NewTaskHandler(&mockTaskService{})

	r := gin.New()
	r.POST("/tasks", h.CreateTask)
	w := serve(r, http.MethodPost, "/tasks", jsonBody(validCreateTaskRequest()))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}
}

func TestTaskHandler_ListTasks_BindsQuery(t *testing.T) {
	mock := &mockTaskService{listResult: &dto.TaskListResponse{Count: 0, Results: []dto.TaskResponse{}}}
	h := NewTaskHandler(mock)

	r := gin.New()
	r.GET("/tasks", withPrincipal(supervisorPrincipal(), h.ListTasks))
	w := serve(r, http.MethodGet, "/tasks?week=42&year=2026&approved=false", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	if mock.listQuery == nil || mock.listQuery.Week != 42 {
		t.Error("week 参数应绑定到查询条件")
	}
}

func TestTaskHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"不存在", service.ErrTaskNotFound, http.StatusNotFound, 12001},
		{"无权操作", service.ErrTaskForbidden, http.StatusForbidden, 12003},
		{"已审批锁定", service.ErrTaskApprovedLocked, http.StatusForbidden, 12004},
		{"只能改审批字段", service.ErrTaskApprovalOnly, http.StatusForbidden, 12005},
		{"缺少学生档案", service.ErrStudentProfileRequired, http.StatusForbidden, 12006},
		{"工作时长越界", service.ErrTaskHoursOutOfRange, http.StatusBadRequest, 12008},
		{"分类不存在", service.ErrCategoryNotFound, http.StatusNotFound, 12010},
		{"周与年不成对", service.ErrTaskWeekYearPair, http.StatusBadRequest, 12012},
		{"乐观锁冲突", fmt.Errorf("update: %w", pkgerrors.ErrOptimisticLock), http.StatusConflict, 12014},
		{"未知错误", errors.New("db down"), http.StatusInternalServerError, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTaskHandler(&mockTaskService{updateErr: tt.err})

			r := gin.New()
			r.PATCH("/tasks/:id", withPrincipal(studentPrincipal(), h.UpdateTask))
			w := serve(r, http.MethodPatch, "/tasks/"+testTaskID, jsonBody(map[string]interface{}{"hours_spent": 3}))

			if w.Code != tt.wantStatus {
				t.Errorf("期望 %d，实际 %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("期望错误码 %d，实际 %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestTaskHandler_GetToday_NoTask(t *testing.T) {
	h := NewTaskHandler(&mockTaskService{todayResult: &dto.TodayTaskResponse{Date: "2026-10-18"}})

	r := gin.New()
	r.GET("/tasks/today", withPrincipal(studentPrincipal(), h.GetToday))
	w := serve(r, http.MethodGet, "/tasks/today", nil)

	if w.Code != http.StatusOK {
		t.Errorf("没有今日日志也应返回 200，实际 %d", w.Code)
	}
}

func TestTaskHandler_DeleteTask_Locked(t *testing.T) {
	h := NewTaskHandler(&mockTaskService{deleteErr: service.ErrTaskApprovedLocked})

	r := gin.New()
	r.DELETE("/tasks/:id", withPrincipal(studentPrincipal(), h.DeleteTask))
	w := serve(r, http.MethodDelete, "/tasks/"+testTaskID, nil)

	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ApprovalHandler Tests
// ═══════════════════════════════════════════════════════════

func TestApprovalHandler_Approve_EmptyBody(t *testing.T) {
	mock := &mockApprovalService{approveResult: &dto.TaskResponse{ID: testTaskID, Approved: true}}
	h := NewApprovalHandler(mock)

	r := gin.New()
	r.POST("/tasks/:id/approve", withPrincipal(supervisorPrincipal(), h.Approve))
	w := serve(r, http.MethodPost, "/tasks/"+testTaskID+"/approve", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("请求体可省略，期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	if mock.approveReq == nil || mock.approveReq.Comments != "" {
		t.Error("省略请求体时应传入空请求")
	}
}

func TestApprovalHandler_Approve_Forbidden(t *testing.T) {
	h := NewApprovalHandler(&mockApprovalService{approveErr: service.ErrTaskForbidden})

	r := gin.New()
	r.POST("/tasks/:id/approve", withPrincipal(supervisorPrincipal(), h.Approve))
	w := serve(r, http.MethodPost, "/tasks/"+testTaskID+"/approve", jsonBody(map[string]string{"comments": "好"}))

	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际 %d", w.Code)
	}
}

func TestApprovalHandler_BulkApprove(t *testing.T) {
	h := NewApprovalHandler(&mockApprovalService{bulkResult: &dto.BulkApproveResponse{Requested: 2, ApprovedCount: 1}})

	r := gin.New()
	r.POST("/tasks/bulk-approve", withPrincipal(supervisorPrincipal(), h.BulkApprove))

	w := serve(r, http.MethodPost, "/tasks/bulk-approve", jsonBody(dto.BulkApproveRequest{
		TaskIDs: []string{testTaskID, "9a0e8f6b-1c2d-4e3f-8a9b-0c1d2e3f4a5b"},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}

	// 空 ID 列表
	w = serve(r, http.MethodPost, "/tasks/bulk-approve", jsonBody(dto.BulkApproveRequest{TaskIDs: []string{}}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("空列表期望 400，实际 %d", w.Code)
	}

	// 非 UUID
	w = serve(r, http.MethodPost, "/tasks/bulk-approve", jsonBody(dto.BulkApproveRequest{TaskIDs: []string{"abc"}}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("非法 ID 期望 400，实际 %d", w.Code)
	}
}

func TestApprovalHandler_Toggle_RequiresApproved(t *testing.T) {
	h := NewApprovalHandler(&mockApprovalService{})

	r := gin.New()
	r.PATCH("/tasks/:id/approval", withPrincipal(supervisorPrincipal(), h.ToggleApproval))
	w := serve(r, http.MethodPatch, "/tasks/"+testTaskID+"/approval", jsonBody(map[string]string{"comments": "x"}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("缺少 approved 期望 400，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ReportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestReportHandler_ExportTasks(t *testing.T) {
	mock := &mockReportService{
		buf:      bytes.NewBufferString("xlsx-content"),
		filename: "实习日志_2026-10-18.xlsx",
	}
	h := NewReportHandler(mock)

	r := gin.New()
	r.GET("/tasks/export", withPrincipal(supervisorPrincipal(), h.ExportTasks))
	w := serve(r, http.MethodGet, "/tasks/export", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Content-Type 错误: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment; filename*=UTF-8''") {
		t.Errorf("Content-Disposition 错误: %s", cd)
	}
	if w.Body.String() != "xlsx-content" {
		t.Errorf("文件内容错误: %s", w.Body.String())
	}
}

func TestReportHandler_ExportTasks_Calendar(t *testing.T) {
	mock := &mockReportService{
		buf:      bytes.NewBufferString("BEGIN:VCALENDAR"),
		filename: "logbook_20261018.ics",
	}
	h := NewReportHandler(mock)

	r := gin.New()
	r.GET("/tasks/export", withPrincipal(supervisorPrincipal(), h.ExportTasks))
	w := serve(r, http.MethodGet, "/tasks/export?format=ics&week=42&year=2026", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != icsContentType {
		t.Errorf("Content-Type 错误: %s", ct)
	}
	if mock.exportQuery == nil || mock.exportQuery.Format != dto.ExportFormatICS || mock.exportQuery.Week != 42 {
		t.Errorf("导出参数未正确绑定: %+v", mock.exportQuery)
	}
}

func TestReportHandler_ExportTasks_InvalidFormat(t *testing.T) {
	mock := &mockReportService{}
	h := NewReportHandler(mock)

	r := gin.New()
	r.GET("/tasks/export", withPrincipal(supervisorPrincipal(), h.ExportTasks))
	w := serve(r, http.MethodGet, "/tasks/export?format=pdf", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("不支持的导出格式期望 400，实际 %d", w.Code)
	}
	if mock.exportQuery != nil {
		t.Error("参数校验失败时不应调用 Export")
	}
}

func TestReportHandler_StudentWeeklySummary(t *testing.T) {
	mock := &mockReportService{weeklyResult: &dto.WeeklySummaryResponse{}}
	h := NewReportHandler(mock)

	r := gin.New()
	r.GET("/tasks/student/:id/weekly", withPrincipal(supervisorPrincipal(), h.StudentWeeklySummary))
	w := serve(r, http.MethodGet, "/tasks/student/student-profile-id/weekly?week=42&year=2026", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	if mock.studentID != "student-profile-id" {
		t.Errorf("路径参数未传入，实际 %q", mock.studentID)
	}
}

func TestReportHandler_WeeklySummary_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"周号无效", service.ErrTaskWeekInvalid, http.StatusBadRequest, 12013},
		{"无权查看", service.ErrReportForbidden, http.StatusForbidden, 12015},
		{"学生不存在", service.ErrStudentNotFound, http.StatusNotFound, 12016},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewReportHandler(&mockReportService{weeklyErr: tt.err})

			r := gin.New()
			r.GET("/tasks/weekly-summary", withPrincipal(studentPrincipal(), h.WeeklySummary))
			w := serve(r, http.MethodGet, "/tasks/weekly-summary", nil)

			if w.Code != tt.wantStatus {
				t.Errorf("期望 %d，实际 %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("期望错误码 %d，实际 %d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// CategoryHandler Tests
// ═══════════════════════════════════════════════════════════

func TestCategoryHandler_CreateCategory_CreatedOrExisting(t *testing.T) {
	tests := []struct {
		name       string
		created    bool
		wantStatus int
	}{
		{"新建", true, http.StatusCreated},
		{"同名已存在", false, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockCategoryService{
				createResult: &dto.CategoryResponse{ID: "cat-1", Name: "Backend"},
				created:      tt.created,
			}
			h := NewCategoryHandler(mock)

			r := gin.New()
			r.POST("/tasks/categories", withPrincipal(studentPrincipal(), h.CreateCategory))
			w := serve(r, http.MethodPost, "/tasks/categories", jsonBody(dto.CreateCategoryRequest{Name: "backend"}))

			if w.Code != tt.wantStatus {
				t.Errorf("期望 %d，实际 %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestCategoryHandler_ListCategories_Error(t *testing.T) {
	h := NewCategoryHandler(&mockCategoryService{listErr: errors.New("db down")})

	r := gin.New()
	r.GET("/tasks/categories", h.ListCategories)
	w := serve(r, http.MethodGet, "/tasks/categories", nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("期望 500，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AdminHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAdminHandler_ListUsers_Page(t *testing.T) {
	mock := &mockAdminService{
		users: []dto.UserResponse{{ID: "u1"}, {ID: "u2"}},
		total: 45,
	}
	h := NewAdminHandler(mock)

	r := gin.New()
	r.GET("/admin/users", h.ListUsers)
	w := serve(r, http.MethodGet, "/admin/users?page=2&page_size=20", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}

	var body struct {
		Data response.PageData `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Pagination.Page != 2 || body.Data.Pagination.TotalPages != 3 {
		t.Errorf("分页信息错误: %+v", body.Data.Pagination)
	}
}

func TestAdminHandler_ListUsers_InvalidRole(t *testing.T) {
	h := NewAdminHandler(&mockAdminService{})

	r := gin.New()
	r.GET("/admin/users", h.ListUsers)
	w := serve(r, http.MethodGet, "/admin/users?role=root", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

func TestAdminHandler_ErrorMapping(t *testing.T) {
	admin := &service.Principal{UserID: "admin-id", Role: model.RoleAdmin}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"操作自己", service.ErrSelfAction, http.StatusBadRequest, 15001},
		{"用户不存在", service.ErrUserNotFound, http.StatusNotFound, 15003},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAdminHandler(&mockAdminService{actionErr: tt.err})

			r := gin.New()
			r.POST("/admin/users/:id/actions", withPrincipal(admin, h.UserAction))
			w := serve(r, http.MethodPost, "/admin/users/u1/actions", jsonBody(map[string]string{"action": "deactivate"}))

			if w.Code != tt.wantStatus {
				t.Errorf("期望 %d，实际 %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("期望错误码 %d，实际 %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestAdminHandler_DeleteInvite_NotFound(t *testing.T) {
	admin := &service.Principal{UserID: "admin-id", Role: model.RoleAdmin}
	h := NewAdminHandler(&mockAdminService{deleteErr: service.ErrInviteNotFound})

	r := gin.New()
	r.DELETE("/admin/invites/:id", withPrincipal(admin, h.DeleteInvite))
	w := serve(r, http.MethodDelete, "/admin/invites/missing", nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 15004 {
		t.Errorf("期望错误码 15004，实际 %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// HealthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
	}{
		{"未配置数据库", nil, http.StatusOK},
		{"数据库正常", &mockPinger{}, http.StatusOK},
		{"数据库不可用", &mockPinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db)

			r := gin.New()
			r.GET("/health", h.Health)
			w := serve(r, http.MethodGet, "/health", nil)

			if w.Code != tt.wantStatus {
				t.Errorf("期望 %d，实际 %d", tt.wantStatus, w.Code)
			}
		})
	}
}
