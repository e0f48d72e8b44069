package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"industrolink/backend/config"
	"industrolink/backend/internal/model"
	"industrolink/backend/internal/repository"
	"industrolink/backend/pkg/isoweek"
)

var ctx = context.Background()

// testNow 2024-03-13 周三，ISO 2024-W11
var testNow = time.Date(2024, time.March, 13, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func testDay(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

type testEnv struct {
	cfg *config.Config

	users       *mockUserRepo
	companies   *mockCompanyRepo
	students    *mockStudentRepo
	lecturers   *mockLecturerRepo
	supervisors *mockSupervisorRepo
	categories  *mockTaskCategoryRepo
	tasks       *mockDailyTaskRepo
	auditLogs   *mockAuditLogRepo
	invites     *mockAdminInviteRepo

	repo   *repository.Repository
	audit  AuditService
	logger *zap.Logger

	seq int
}

func newTestEnv() *testEnv {
	e := &testEnv{
		cfg: &config.Config{
			Auth: config.AuthConfig{
				JWTSecret:            "test-secret-key-for-unit-tests-only",
				AccessTokenTTL:       15 * time.Minute,
				RefreshTokenTTL:      7 * 24 * time.Hour,
				EmailVerificationTTL: 24 * time.Hour,
				AdminInviteTTL:       72 * time.Hour,
			},
			Mail: config.MailConfig{FrontendURL: "https://app.example.com/"},
			App:  config.AppConfig{Timezone: "UTC", WorkDaysPerWeek: 5},
		},
		users:      newMockUserRepo(),
		companies:  newMockCompanyRepo(),
		lecturers:  newMockLecturerRepo(),
		categories: newMockTaskCategoryRepo(),
		auditLogs:  &mockAuditLogRepo{},
		invites:    newMockAdminInviteRepo(),
		logger:     zap.NewNop(),
	}
	e.students = newMockStudentRepo(e.users, e.companies)
	e.supervisors = newMockSupervisorRepo(e.companies)
	e.tasks = newMockDailyTaskRepo(e.students, e.categories)

	e.repo = &repository.Repository{
		User:         e.users,
		Company:      e.companies,
		Student:      e.students,
		Lecturer:     e.lecturers,
		Supervisor:   e.supervisors,
		TaskCategory: e.categories,
		DailyTask:    e.tasks,
		AuditLog:     e.auditLogs,
		AdminInvite:  e.invites,
	}
	e.audit = NewAuditService(e.repo, e.logger)
	return e
}

// ── 服务构造（固定时钟）──

func (e *testEnv) taskService() *dailyTaskService {
	s := NewDailyTaskService(e.cfg, e.repo, e.audit, nil, e.logger).(*dailyTaskService)
	s.now = fixedClock
	return s
}

func (e *testEnv) approvalService() *approvalService {
	s := NewApprovalService(e.repo, e.audit, nil, e.logger).(*approvalService)
	s.now = fixedClock
	return s
}

func (e *testEnv) reportService() *reportService {
	s := NewReportService(e.cfg, e.repo, e.logger).(*reportService)
	s.now = fixedClock
	return s
}

// ── 数据准备 ──

func (e *testEnv) addCompany(name string) *model.Company {
	c := &model.Company{Name: name}
	_ = e.companies.Create(ctx, c)
	return c
}

func (e *testEnv) addUser(role string) *model.User {
	e.seq++
	u := &model.User{
		Email:         fmt.Sprintf("%s%d@example.com", role, e.seq),
		FirstName:     "Test",
		LastName:      fmt.Sprintf("%s%d", role, e.seq),
		Role:          role,
		IsActive:      true,
		EmailVerified: true,
	}
	_ = e.users.Create(ctx, u)
	return u
}

// addStudent 创建学生用户与档案，返回其 Principal
func (e *testEnv) addStudent(companyID string) (*Principal, *model.Student) {
	u := e.addUser(model.RoleStudent)
	s := &model.Student{
		UserID:          u.UserID,
		RegistrationNo:  fmt.Sprintf("REG-%03d", e.seq),
		AcademicYear:    "2023/2024",
		Course:          "Mechanical Engineering",
		YearOfStudy:     "3",
		DurationInWeeks: 12,
		StartDate:       testDay(time.January, 8),
		CompletionDate:  testDay(time.March, 29),
		CompanyID:       companyID,
	}
	_ = e.students.Create(ctx, s)
	u.ProfileCompleted = true
	return &Principal{UserID: u.UserID, Role: model.RoleStudent, StudentID: s.StudentID, CompanyID: companyID}, s
}

func (e *testEnv) addSupervisor(companyID string) *Principal {
	u := e.addUser(model.RoleSupervisor)
	sup := &model.Supervisor{UserID: u.UserID, CompanyID: companyID, Position: "Engineer"}
	_ = e.supervisors.Create(ctx, sup)
	return &Principal{UserID: u.UserID, Role: model.RoleSupervisor, CompanyID: companyID, SupervisorProfileID: sup.SupervisorID}
}

func (e *testEnv) addLecturer() *Principal {
	u := e.addUser(model.RoleLecturer)
	l := &model.Lecturer{UserID: u.UserID, Department: "Engineering", Title: "Dr"}
	_ = e.lecturers.Create(ctx, l)
	return &Principal{UserID: u.UserID, Role: model.RoleLecturer, LecturerProfileID: l.LecturerID}
}

func (e *testEnv) addAdmin() *Principal {
	u := e.addUser(model.RoleAdmin)
	return &Principal{UserID: u.UserID, Role: model.RoleAdmin}
}

func (e *testEnv) assignLecturer(studentID, lecturerUserID string) {
	_ = e.students.SetLecturer(ctx, studentID, &lecturerUserID, "admin", testNow, "")
}

// addTask 直接写入一条日志，绕过服务层校验
func (e *testEnv) addTask(studentID string, date time.Time, hours float64, category *model.TaskCategory, approved bool) *model.DailyTask {
	year, week := isoweek.Of(date)
	t := &model.DailyTask{
		StudentID:   studentID,
		TaskDate:    date,
		Description: "Worked on " + date.Format("Jan 2"),
		CategoryID:  category.CategoryID,
		HoursSpent:  hours,
		WeekNumber:  week,
		ISOYear:     year,
	}
	if err := e.tasks.Create(ctx, t); err != nil {
		panic(err)
	}
	if approved {
		_, _ = e.tasks.ApproveMany(ctx, []string{t.DailyTaskID}, "seed-approver", "", testNow)
	}
	return e.tasks.tasks[t.DailyTaskID]
}

func boolPtr(b bool) *bool          { return &b }
func strPtr(s string) *string       { return &s }
func floatPtr(f float64) *float64   { return &f }
func slicePtr(s []string) *[]string { return &s }
