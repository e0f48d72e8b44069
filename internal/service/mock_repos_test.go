package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"industrolink/backend/internal/model"
	"industrolink/backend/internal/repository"
	pkgerrors "industrolink/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByVerificationToken(_ context.Context, token string) (*model.User, error) {
	for _, u := range m.users {
		if u.EmailVerificationToken != nil && *u.EmailVerificationToken == token {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		switch filter.Status {
		case repository.UserStatusActive:
			if !u.IsActive {
				continue
			}
		case repository.UserStatusInactive:
			if u.IsActive {
				continue
			}
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })

	total := int64(len(all))
	if filter.Offset >= len(all) {
		return []model.User{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], total, nil
}

func (m *mockUserRepo) CountByRole(_ context.Context) (map[string]int64, error) {
	result := make(map[string]int64)
	for _, u := range m.users {
		result[u.Role]++
	}
	return result, nil
}

func (m *mockUserRepo) CountPendingApprovals(_ context.Context) (int64, error) {
	var n int64
	for _, u := range m.users {
		if ((u.Role == model.RoleLecturer || u.Role == model.RoleSupervisor) && !u.ProfileCompleted) || !u.IsActive {
			n++
		}
	}
	return n, nil
}

// ── Mock CompanyRepository ──

type mockCompanyRepo struct {
	companies map[string]*model.Company
	seq       int
}

func newMockCompanyRepo() *mockCompanyRepo {
	return &mockCompanyRepo{companies: make(map[string]*model.Company)}
}

func (m *mockCompanyRepo) Create(_ context.Context, company *model.Company) error {
	for _, c := range m.companies {
		if strings.EqualFold(c.Name, company.Name) {
			return repository.ErrDuplicate
		}
	}
	if company.CompanyID == "" {
		m.seq++
		company.CompanyID = fmt.Sprintf("company-%d", m.seq)
	}
	m.companies[company.CompanyID] = company
	return nil
}

func (m *mockCompanyRepo) GetByID(_ context.Context, id string) (*model.Company, error) {
	if c, ok := m.companies[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCompanyRepo) GetByName(_ context.Context, name string) (*model.Company, error) {
	for _, c := range m.companies {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCompanyRepo) List(_ context.Context) ([]model.Company, error) {
	var result []model.Company
	for _, c := range m.companies {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students  map[string]*model.Student
	users     *mockUserRepo
	companies *mockCompanyRepo
	seq       int
}

func newMockStudentRepo(users *mockUserRepo, companies *mockCompanyRepo) *mockStudentRepo {
	return &mockStudentRepo{
		students:  make(map[string]*model.Student),
		users:     users,
		companies: companies,
	}
}

// withAssociations 模拟 Preload
func (m *mockStudentRepo) withAssociations(s *model.Student) *model.Student {
	cp := *s
	cp.User = m.users.users[s.UserID]
	cp.Company = m.companies.companies[s.CompanyID]
	cp.Lecturer = nil
	if s.LecturerID != nil {
		cp.Lecturer = m.users.users[*s.LecturerID]
	}
	return &cp
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	for _, s := range m.students {
		if s.RegistrationNo == student.RegistrationNo || s.UserID == student.UserID {
			return repository.ErrDuplicate
		}
	}
	if student.StudentID == "" {
		m.seq++
		student.StudentID = fmt.Sprintf("student-%d", m.seq)
	}
	m.students[student.StudentID] = student
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		return m.withAssociations(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByUserID(_ context.Context, userID string) (*model.Student, error) {
	for _, s := range m.students {
		if s.UserID == userID {
			return m.withAssociations(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) Update(_ context.Context, student *model.Student) error {
	cp := *student
	cp.User, cp.Company, cp.Lecturer = nil, nil, nil
	m.students[student.StudentID] = &cp
	return nil
}

func (m *mockStudentRepo) ListByCompany(_ context.Context, companyID string) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.students {
		if s.CompanyID == companyID {
			result = append(result, *m.withAssociations(s))
		}
	}
	return result, nil
}

func (m *mockStudentRepo) ListByLecturer(_ context.Context, lecturerUserID string) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.students {
		if s.LecturerID != nil && *s.LecturerID == lecturerUserID {
			result = append(result, *m.withAssociations(s))
		}
	}
	return result, nil
}

func (m *mockStudentRepo) SetLecturer(_ context.Context, studentID string, lecturerID *string, assignedBy string, at time.Time, notes string) error {
	s, ok := m.students[studentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.LecturerID = lecturerID
	s.LecturerNotes = notes
	if lecturerID == nil {
		s.LecturerAssignedBy = nil
		s.LecturerAssignedAt = nil
		return nil
	}
	s.LecturerAssignedBy = &assignedBy
	s.LecturerAssignedAt = &at
	return nil
}

// ── Mock LecturerRepository / SupervisorRepository ──

type mockLecturerRepo struct {
	lecturers map[string]*model.Lecturer // key: user_id
}

func newMockLecturerRepo() *mockLecturerRepo {
	return &mockLecturerRepo{lecturers: make(map[string]*model.Lecturer)}
}

func (m *mockLecturerRepo) Create(_ context.Context, lecturer *model.Lecturer) error {
	if _, ok := m.lecturers[lecturer.UserID]; ok {
		return repository.ErrDuplicate
	}
	if lecturer.LecturerID == "" {
		lecturer.LecturerID = "lecturer-" + lecturer.UserID
	}
	m.lecturers[lecturer.UserID] = lecturer
	return nil
}

func (m *mockLecturerRepo) GetByUserID(_ context.Context, userID string) (*model.Lecturer, error) {
	if l, ok := m.lecturers[userID]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLecturerRepo) Update(_ context.Context, lecturer *model.Lecturer) error {
	m.lecturers[lecturer.UserID] = lecturer
	return nil
}

type mockSupervisorRepo struct {
	supervisors map[string]*model.Supervisor // key: user_id
	companies   *mockCompanyRepo
}

func newMockSupervisorRepo(companies *mockCompanyRepo) *mockSupervisorRepo {
	return &mockSupervisorRepo{supervisors: make(map[string]*model.Supervisor), companies: companies}
}

func (m *mockSupervisorRepo) Create(_ context.Context, supervisor *model.Supervisor) error {
	if _, ok := m.supervisors[supervisor.UserID]; ok {
		return repository.ErrDuplicate
	}
	if supervisor.SupervisorID == "" {
		supervisor.SupervisorID = "supervisor-" + supervisor.UserID
	}
	m.supervisors[supervisor.UserID] = supervisor
	return nil
}

func (m *mockSupervisorRepo) GetByUserID(_ context.Context, userID string) (*model.Supervisor, error) {
	if s, ok := m.supervisors[userID]; ok {
		cp := *s
		cp.Company = m.companies.companies[s.CompanyID]
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSupervisorRepo) Update(_ context.Context, supervisor *model.Supervisor) error {
	cp := *supervisor
	cp.Company = nil
	m.supervisors[supervisor.UserID] = &cp
	return nil
}

// ── Mock TaskCategoryRepository ──

type mockTaskCategoryRepo struct {
	categories map[string]*model.TaskCategory
	seq        int
}

func newMockTaskCategoryRepo() *mockTaskCategoryRepo {
	return &mockTaskCategoryRepo{categories: make(map[string]*model.TaskCategory)}
}

func (m *mockTaskCategoryRepo) add(name string) *model.TaskCategory {
	m.seq++
	c := &model.TaskCategory{CategoryID: fmt.Sprintf("cat-%d", m.seq), Name: name, IsActive: true}
	m.categories[c.CategoryID] = c
	return c
}

func (m *mockTaskCategoryRepo) GetByID(_ context.Context, id string) (*model.TaskCategory, error) {
	if c, ok := m.categories[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTaskCategoryRepo) GetByName(_ context.Context, name string) (*model.TaskCategory, error) {
	for _, c := range m.categories {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTaskCategoryRepo) ListActive(_ context.Context) ([]model.TaskCategory, error) {
	var result []model.TaskCategory
	for _, c := range m.categories {
		if c.IsActive {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockTaskCategoryRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.categories)), nil
}

func (m *mockTaskCategoryRepo) FirstOrCreate(ctx context.Context, category *model.TaskCategory) (*model.TaskCategory, bool, error) {
	if existing, err := m.GetByName(ctx, category.Name); err == nil {
		return existing, false, nil
	}
	m.seq++
	category.CategoryID = fmt.Sprintf("cat-%d", m.seq)
	m.categories[category.CategoryID] = category
	return category, true, nil
}

// ── Mock DailyTaskRepository ──

type mockDailyTaskRepo struct {
	tasks      map[string]*model.DailyTask
	students   *mockStudentRepo
	categories *mockTaskCategoryRepo
	seq        int

	// hideNextLookup 让下一次 GetByStudentAndDate 查不到，模拟并发创建
	hideNextLookup bool
}

func newMockDailyTaskRepo(students *mockStudentRepo, categories *mockTaskCategoryRepo) *mockDailyTaskRepo {
	return &mockDailyTaskRepo{
		tasks:      make(map[string]*model.DailyTask),
		students:   students,
		categories: categories,
	}
}

func (m *mockDailyTaskRepo) studentOf(t *model.DailyTask) *model.Student {
	if s, ok := m.students.students[t.StudentID]; ok {
		return m.students.withAssociations(s)
	}
	return nil
}

func (m *mockDailyTaskRepo) loaded(t *model.DailyTask) *model.DailyTask {
	cp := *t
	cp.Student = m.studentOf(t)
	cp.Category = m.categories.categories[t.CategoryID]
	cp.Supervisor = nil
	if t.SupervisorID != nil {
		cp.Supervisor = m.students.users.users[*t.SupervisorID]
	}
	return &cp
}

func sameDate(a, b time.Time) bool {
	return dateOnly(a).Equal(dateOnly(b))
}

func (m *mockDailyTaskRepo) Create(_ context.Context, task *model.DailyTask) error {
	for _, t := range m.tasks {
		if t.StudentID == task.StudentID && sameDate(t.TaskDate, task.TaskDate) {
			return repository.ErrDuplicateTaskDate
		}
	}
	m.seq++
	task.DailyTaskID = fmt.Sprintf("task-%d", m.seq)
	task.Version = 1
	now := time.Now()
	task.CreatedAt, task.UpdatedAt = now, now
	cp := *task
	cp.Student, cp.Category, cp.Supervisor = nil, nil, nil
	m.tasks[task.DailyTaskID] = &cp
	return nil
}

func (m *mockDailyTaskRepo) GetByID(_ context.Context, id string) (*model.DailyTask, error) {
	if t, ok := m.tasks[id]; ok {
		return m.loaded(t), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDailyTaskRepo) GetByStudentAndDate(_ context.Context, studentID string, date time.Time) (*model.DailyTask, error) {
	if m.hideNextLookup {
		m.hideNextLookup = false
		return nil, gorm.ErrRecordNotFound
	}
	for _, t := range m.tasks {
		if t.StudentID == studentID && sameDate(t.TaskDate, date) {
			return m.loaded(t), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDailyTaskRepo) matches(t *model.DailyTask, f repository.DailyTaskFilter) bool {
	s := m.studentOf(t)
	if f.StudentID != "" && t.StudentID != f.StudentID {
		return false
	}
	if f.CompanyID != "" && (s == nil || s.CompanyID != f.CompanyID) {
		return false
	}
	if f.LecturerUserID != "" && (s == nil || s.LecturerID == nil || *s.LecturerID != f.LecturerUserID) {
		return false
	}
	if f.CategoryID != "" && t.CategoryID != f.CategoryID {
		return false
	}
	if f.DateFrom != nil && dateOnly(t.TaskDate).Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && dateOnly(t.TaskDate).After(*f.DateTo) {
		return false
	}
	if f.Week > 0 && (t.WeekNumber != f.Week || t.ISOYear != f.Year) {
		return false
	}
	if f.Approved != nil && t.Approved != *f.Approved {
		return false
	}
	return true
}

func (m *mockDailyTaskRepo) List(_ context.Context, f repository.DailyTaskFilter) ([]model.DailyTask, int64, error) {
	if f.Empty {
		return []model.DailyTask{}, 0, nil
	}

	var all []model.DailyTask
	for _, t := range m.tasks {
		if m.matches(t, f) {
			all = append(all, *m.loaded(t))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].TaskDate.Equal(all[j].TaskDate) {
			return all[i].TaskDate.After(all[j].TaskDate)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	if f.Offset > 0 {
		if f.Offset >= len(all) {
			return []model.DailyTask{}, total, nil
		}
		all = all[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(all) {
		all = all[:f.Limit]
	}
	return all, total, nil
}

func (m *mockDailyTaskRepo) ListByStudent(ctx context.Context, studentID string) ([]model.DailyTask, error) {
	tasks, _, err := m.List(ctx, repository.DailyTaskFilter{StudentID: studentID})
	return tasks, err
}

func (m *mockDailyTaskRepo) ListByStudentBetween(ctx context.Context, studentID string, from, to time.Time) ([]model.DailyTask, error) {
	tasks, _, err := m.List(ctx, repository.DailyTaskFilter{StudentID: studentID, DateFrom: &from, DateTo: &to})
	if err != nil {
		return nil, err
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].TaskDate.Before(tasks[j].TaskDate) })
	return tasks, nil
}

func (m *mockDailyTaskRepo) Update(_ context.Context, task *model.DailyTask) error {
	stored, ok := m.tasks[task.DailyTaskID]
	if !ok || stored.Version != task.Version {
		return pkgerrors.ErrOptimisticLock
	}
	task.Version++
	cp := *task
	cp.Student, cp.Category, cp.Supervisor = nil, nil, nil
	m.tasks[task.DailyTaskID] = &cp
	return nil
}

func (m *mockDailyTaskRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.tasks, id)
	return nil
}

func (m *mockDailyTaskRepo) LockPending(_ context.Context, ids []string, companyID string) ([]string, error) {
	var locked []string
	for _, id := range ids {
		t, ok := m.tasks[id]
		if !ok || t.Approved {
			continue
		}
		if companyID != "" {
			s := m.studentOf(t)
			if s == nil || s.CompanyID != companyID {
				continue
			}
		}
		locked = append(locked, id)
	}
	return locked, nil
}

func (m *mockDailyTaskRepo) ApproveMany(_ context.Context, ids []string, approverID, comments string, at time.Time) (int64, error) {
	var n int64
	for _, id := range ids {
		t, ok := m.tasks[id]
		if !ok || t.Approved {
			continue
		}
		approver := approverID
		approvedAt := at
		t.Approved = true
		t.SupervisorID = &approver
		t.SupervisorComments = comments
		t.ApprovedAt = &approvedAt
		t.Version++
		n++
	}
	return n, nil
}

func (m *mockDailyTaskRepo) CountAll(_ context.Context) (int64, int64, error) {
	var total, approved int64
	for _, t := range m.tasks {
		total++
		if t.Approved {
			approved++
		}
	}
	return total, approved, nil
}

// ── Mock AuditLogRepository ──

type mockAuditLogRepo struct {
	logs []model.AuditLog
}

func (m *mockAuditLogRepo) Create(_ context.Context, log *model.AuditLog) error {
	log.AuditLogID = fmt.Sprintf("audit-%d", len(m.logs)+1)
	log.CreatedAt = time.Now()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockAuditLogRepo) List(_ context.Context, actionType string, offset, limit int) ([]model.AuditLog, int64, error) {
	var result []model.AuditLog
	for i := len(m.logs) - 1; i >= 0; i-- {
		if actionType == "" || m.logs[i].ActionType == actionType {
			result = append(result, m.logs[i])
		}
	}
	total := int64(len(result))
	if offset >= len(result) {
		return []model.AuditLog{}, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockAuditLogRepo) Recent(ctx context.Context, n int) ([]model.AuditLog, error) {
	logs, _, err := m.List(ctx, "", 0, n)
	return logs, err
}

func (m *mockAuditLogRepo) actions() []string {
	result := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		result = append(result, l.ActionType)
	}
	return result
}

// ── Mock AdminInviteRepository ──

type mockAdminInviteRepo struct {
	invites map[string]*model.AdminInvite
	seq     int
}

func newMockAdminInviteRepo() *mockAdminInviteRepo {
	return &mockAdminInviteRepo{invites: make(map[string]*model.AdminInvite)}
}

func (m *mockAdminInviteRepo) Create(_ context.Context, invite *model.AdminInvite) error {
	m.seq++
	invite.InviteID = fmt.Sprintf("invite-%d", m.seq)
	m.invites[invite.InviteID] = invite
	return nil
}

func (m *mockAdminInviteRepo) GetByID(_ context.Context, id string) (*model.AdminInvite, error) {
	if i, ok := m.invites[id]; ok {
		return i, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAdminInviteRepo) GetByTokenForUpdate(_ context.Context, token string) (*model.AdminInvite, error) {
	for _, i := range m.invites {
		if i.Token == token {
			return i, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAdminInviteRepo) List(_ context.Context) ([]model.AdminInvite, error) {
	var result []model.AdminInvite
	for _, i := range m.invites {
		result = append(result, *i)
	}
	sort.Slice(result, func(a, b int) bool { return result[a].InviteID < result[b].InviteID })
	return result, nil
}

func (m *mockAdminInviteRepo) MarkUsed(_ context.Context, id, userID string, at time.Time) error {
	i, ok := m.invites[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	i.UsedAt = &at
	i.UsedBy = &userID
	return nil
}

func (m *mockAdminInviteRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.invites, id)
	return nil
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	entries map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{entries: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.entries[jti] = ttl
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := m.entries[jti]
	return ok, nil
}
