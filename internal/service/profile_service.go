package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/model"
	"industrolink/backend/internal/repository"
)

// ── 档案与指导关系业务错误 ──

var (
	ErrProfileRoleMismatch     = errors.New("当前角色不能使用该档案")
	ErrProfileExists           = errors.New("档案已存在")
	ErrProfileNotFound         = errors.New("档案不存在，请先完善档案")
	ErrRegistrationNoTaken     = errors.New("学号已被使用")
	ErrProfileDateInvalid      = errors.New("结束日期必须晚于开始日期")
	ErrLecturerNotFound        = errors.New("指导老师不存在")
	ErrLecturerAlreadyAssigned = errors.New("该学生已由这位老师指导")
	ErrLecturerNotAssigned     = errors.New("该学生尚未分配指导老师")
	ErrAssignmentForbidden     = errors.New("无权为该学生分配指导老师")
)

// ProfileService 档案与指导关系业务接口
type ProfileService interface {
	CreateStudent(ctx context.Context, p *Principal, req *dto.StudentProfileRequest) (*dto.StudentProfileResponse, error)
	GetStudent(ctx context.Context, p *Principal) (*dto.StudentProfileResponse, error)
	UpdateStudent(ctx context.Context, p *Principal, req *dto.UpdateStudentProfileRequest) (*dto.StudentProfileResponse, error)

	CreateLecturer(ctx context.Context, p *Principal, req *dto.LecturerProfileRequest) (*dto.LecturerProfileResponse, error)
	GetLecturer(ctx context.Context, p *Principal) (*dto.LecturerProfileResponse, error)
	UpdateLecturer(ctx context.Context, p *Principal, req *dto.LecturerProfileRequest) (*dto.LecturerProfileResponse, error)

	CreateSupervisor(ctx context.Context, p *Principal, req *dto.SupervisorProfileRequest) (*dto.SupervisorProfileResponse, error)
	GetSupervisor(ctx context.Context, p *Principal) (*dto.SupervisorProfileResponse, error)
	UpdateSupervisor(ctx context.Context, p *Principal, req *dto.SupervisorProfileRequest) (*dto.SupervisorProfileResponse, error)

	// SupervisedStudents 企业导师所在单位的学生；无档案时为空
	SupervisedStudents(ctx context.Context, p *Principal) ([]dto.StudentProfileResponse, error)
	// AdvisedStudents 指导老师为调用者本人的学生
	AdvisedStudents(ctx context.Context, p *Principal) ([]dto.StudentProfileResponse, error)

	AssignLecturer(ctx context.Context, p *Principal, studentID string, req *dto.AssignLecturerRequest) (*dto.StudentProfileResponse, error)
	UnassignLecturer(ctx context.Context, p *Principal, studentID string) (*dto.StudentProfileResponse, error)
}

type profileService struct {
	repo   *repository.Repository
	audit  AuditService
	logger *zap.Logger
	now    clock
}

// NewProfileService 创建 ProfileService 实例
func NewProfileService(repo *repository.Repository, audit AuditService, logger *zap.Logger) ProfileService {
	return &profileService{repo: repo, audit: audit, logger: logger, now: systemClock}
}

// ════════════════════ 学生档案 ════════════════════

func (s *profileService) CreateStudent(ctx context.Context, p *Principal, req *dto.StudentProfileRequest) (*dto.StudentProfileResponse, error) {
	if !p.IsStudent() {
		return nil, ErrProfileRoleMismatch
	}
	if p.StudentID != "" {
		return nil, ErrProfileExists
	}

	start, end, err := parsePeriod(req.StartDate, req.CompletionDate)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCompany(ctx, req.CompanyID); err != nil {
		return nil, err
	}

	student := &model.Student{
		UserID:          p.UserID,
		RegistrationNo:  strings.TrimSpace(req.RegistrationNo),
		AcademicYear:    strings.TrimSpace(req.AcademicYear),
		Course:          strings.TrimSpace(req.Course),
		YearOfStudy:     strings.TrimSpace(req.YearOfStudy),
		DurationInWeeks: req.DurationInWeeks,
		StartDate:       start,
		CompletionDate:  end,
		CompanyID:       req.CompanyID,
	}
	student.CreatedBy = &p.UserID
	student.UpdatedBy = &p.UserID

	err = runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		if err := txRepo.Student.Create(ctx, student); err != nil {
			return err
		}
		return markProfileCompleted(ctx, txRepo, p.UserID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrRegistrationNoTaken
		}
		s.logger.Error("创建学生档案失败", zap.String("user_id", p.UserID), zap.Error(err))
		return nil, err
	}

	return s.reloadStudent(ctx, student.StudentID)
}

func (s *profileService) GetStudent(ctx context.Context, p *Principal) (*dto.StudentProfileResponse, error) {
	if !p.IsStudent() {
		return nil, ErrProfileRoleMismatch
	}
	if p.StudentID == "" {
		return nil, ErrProfileNotFound
	}
	return s.reloadStudent(ctx, p.StudentID)
}

func (s *profileService) UpdateStudent(ctx context.Context, p *Principal, req *dto.UpdateStudentProfileRequest) (*dto.StudentProfileResponse, error) {
	if !p.IsStudent() {
		return nil, ErrProfileRoleMismatch
	}
	if p.StudentID == "" {
		return nil, ErrProfileNotFound
	}

	student, err := s.loadStudent(ctx, p.StudentID)
	if err != nil {
		return nil, err
	}

	if req.AcademicYear != nil {
		student.AcademicYear = strings.TrimSpace(*req.AcademicYear)
	}
	if req.Course != nil {
		student.Course = strings.TrimSpace(*req.Course)
	}
	if req.YearOfStudy != nil {
		student.YearOfStudy = strings.TrimSpace(*req.YearOfStudy)
	}
	if req.DurationInWeeks != nil {
		student.DurationInWeeks = *req.DurationInWeeks
	}

	startStr, endStr := formatDate(student.StartDate), formatDate(student.CompletionDate)
	if req.StartDate != nil {
		startStr = *req.StartDate
	}
	if req.CompletionDate != nil {
		endStr = *req.CompletionDate
	}
	start, end, err := parsePeriod(startStr, endStr)
	if err != nil {
		return nil, err
	}
	student.StartDate, student.CompletionDate = start, end

	if req.CompanyID != nil && *req.CompanyID != student.CompanyID {
		if err := s.ensureCompany(ctx, *req.CompanyID); err != nil {
			return nil, err
		}
		student.CompanyID = *req.CompanyID
		student.Company = nil
	}
	student.UpdatedBy = &p.UserID

	if err := s.repo.Student.Update(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrRegistrationNoTaken
		}
		s.logger.Error("更新学生档案失败", zap.String("student_id", student.StudentID), zap.Error(err))
		return nil, err
	}

	return s.reloadStudent(ctx, student.StudentID)
}

// ════════════════════ 指导老师档案 ════════════════════

func (s *profileService) CreateLecturer(ctx context.Context, p *Principal, req *dto.LecturerProfileRequest) (*dto.LecturerProfileResponse, error) {
	if !p.IsLecturer() {
		return nil, ErrProfileRoleMismatch
	}
	if p.LecturerProfileID != "" {
		return nil, ErrProfileExists
	}

	lecturer := &model.Lecturer{
		UserID:     p.UserID,
		Department: strings.TrimSpace(req.Department),
		Title:      strings.TrimSpace(req.Title),
	}
	lecturer.CreatedBy = &p.UserID
	lecturer.UpdatedBy = &p.UserID

	err := runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		if err := txRepo.Lecturer.Create(ctx, lecturer); err != nil {
			return err
		}
		return markProfileCompleted(ctx, txRepo, p.UserID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrProfileExists
		}
		s.logger.Error("创建教师档案失败", zap.String("user_id", p.UserID), zap.Error(err))
		return nil, err
	}

	return s.GetLecturer(ctx, p)
}

func (s *profileService) GetLecturer(ctx context.Context, p *Principal) (*dto.LecturerProfileResponse, error) {
	if !p.IsLecturer() {
		return nil, ErrProfileRoleMismatch
	}
	lecturer, err := s.repo.Lecturer.GetByUserID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		s.logger.Error("查询教师档案失败", zap.String("user_id", p.UserID), zap.Error(err))
		return nil, err
	}
	return toLecturerProfileResponse(lecturer), nil
}

func (s *profileService) UpdateLecturer(ctx context.Context, p *Principal, req *dto.LecturerProfileRequest) (*dto.LecturerProfileResponse, error) {
	if !p.IsLecturer() {
		return nil, ErrProfileRoleMismatch
	}
	lecturer, err := s.repo.Lecturer.GetByUserID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		s.logger.Error("查询教师档案失败", zap.String("user_id", p.UserID), zap.Error(err))
		return nil, err
	}

	lecturer.Department = strings.TrimSpace(req.Department)
	lecturer.Title = strings.TrimSpace(req.Title)
	lecturer.UpdatedBy = &p.UserID

	if err := s.repo.Lecturer.Update(ctx, lecturer); err != nil {
		s.logger.Error("更新教师档案失败", zap.String("user_id", p.UserID), zap.Error(err))
		return nil, err
	}
	return toLecturerProfileResponse(lecturer), nil
}

// ════════════════════ 企业导师档案 ════════════════════

func (s *profileService) CreateSupervisor(ctx context.Context, p *Principal, req *dto.SupervisorProfileRequest) (*dto.SupervisorProfileResponse, error) {
	if !p.IsSupervisor() {
		return nil, ErrProfileRoleMismatch
	}
	if p.SupervisorProfileID != "" {
		return nil, ErrProfileExists
	}
	if err := s.ensureCompany(ctx, req.CompanyID); err != nil {
		return nil, err
	}

	supervisor := &model.Supervisor{
		UserID:      p.UserID,
		CompanyID:   req.CompanyID,
		Position:    strings.TrimSpace(req.Position),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
	}
	supervisor.CreatedBy = &p.UserID
	supervisor.UpdatedBy = &p.UserID

	err := runInTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		if err := txRepo.Supervisor.Create(ctx, supervisor); err != nil {
			return err
		}
		return markProfileCompleted(ctx, txRepo, p.UserID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrProfileExists
		}
		s.logger.Error("创建企业导师档案失败", zap.String("user_id", p.UserID), zap.Error(err))
		return nil, err
	}

	return s.GetSupervisor(ctx, p)
}

func (s *profileService) GetSupervisor(ctx context.Context, p *Principal) (*dto.SupervisorProfileResponse, error) {
	if !p.IsSupervisor() {
		return nil, ErrProfileRoleMismatch
	}
	supervisor, err := s.repo.Supervisor.GetByUserID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		s.logger.Error("查询企业导师档案失败", zap.String("user_id", p.UserID), zap.Error(err))
		return nil, err
	}
	return toSupervisorProfileResponse(supervisor), nil
}

func (s *profileService) UpdateSupervisor(ctx context.Context, p *Principal, req *dto.SupervisorProfileRequest) (*dto.SupervisorProfileResponse, error) {
	if !p.IsSupervisor() {
		return nil, ErrProfileRoleMismatch
	}
	supervisor, err := s.repo.Supervisor.GetByUserID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		s.logger.Error("查询企业导师档案失败", zap.String("user_id", p.UserID), zap.Error(err))
		return nil, err
	}

	if req.CompanyID != supervisor.CompanyID {
		if err := s.ensureCompany(ctx, req.CompanyID); err != nil {
			return nil, err
		}
		supervisor.CompanyID = req.CompanyID
	}
	supervisor.Position = strings.TrimSpace(req.Position)
	supervisor.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	supervisor.UpdatedBy = &p.UserID

	if err := s.repo.Supervisor.Update(ctx, supervisor); err != nil {
		s.logger.Error("更新企业导师档案失败", zap.String("user_id", p.UserID), zap.Error(err))
		return nil, err
	}
	return s.GetSupervisor(ctx, p)
}

// ════════════════════ 学生名单 ════════════════════

func (s *profileService) SupervisedStudents(ctx context.Context, p *Principal) ([]dto.StudentProfileResponse, error) {
	if !p.IsSupervisor() {
		return nil, ErrProfileRoleMismatch
	}
	if p.CompanyID == "" {
		return []dto.StudentProfileResponse{}, nil
	}

	students, err := s.repo.Student.ListByCompany(ctx, p.CompanyID)
	if err != nil {
		s.logger.Error("查询单位学生失败", zap.String("company_id", p.CompanyID), zap.Error(err))
		return nil, err
	}
	return toStudentList(students), nil
}

func (s *profileService) AdvisedStudents(ctx context.Context, p *Principal) ([]dto.StudentProfileResponse, error) {
	if !p.IsLecturer() {
		return nil, ErrProfileRoleMismatch
	}

	students, err := s.repo.Student.ListByLecturer(ctx, p.UserID)
	if err != nil {
		s.logger.Error("查询指导学生失败", zap.String("user_id", p.UserID), zap.Error(err))
		return nil, err
	}
	return toStudentList(students), nil
}

func toStudentList(students []model.Student) []dto.StudentProfileResponse {
	result := make([]dto.StudentProfileResponse, 0, len(students))
	for i := range students {
		result = append(result, *toStudentProfileResponse(&students[i]))
	}
	return result
}

// ════════════════════ 指导老师分配 ════════════════════

func (s *profileService) AssignLecturer(ctx context.Context, p *Principal, studentID string, req *dto.AssignLecturerRequest) (*dto.StudentProfileResponse, error) {
	student, err := s.assignableStudent(ctx, p, studentID)
	if err != nil {
		return nil, err
	}

	lecturer, err := s.repo.User.GetByID(ctx, req.LecturerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLecturerNotFound
		}
		s.logger.Error("查询指导老师失败", zap.String("lecturer_id", req.LecturerID), zap.Error(err))
		return nil, err
	}
	if lecturer.Role != model.RoleLecturer {
		return nil, ErrLecturerNotFound
	}
	if student.LecturerID != nil && *student.LecturerID == lecturer.UserID {
		return nil, ErrLecturerAlreadyAssigned
	}

	notes := strings.TrimSpace(req.Notes)
	if err := s.repo.Student.SetLecturer(ctx, studentID, &lecturer.UserID, p.UserID, s.now(), notes); err != nil {
		s.logger.Error("分配指导老师失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:      p.UserID,
		Action:       model.AuditStudentAssignment,
		TargetUserID: student.UserID,
		TargetID:     studentID,
		Description:  fmt.Sprintf("为学生 %s 分配指导老师 %s", student.RegistrationNo, lecturer.FullName()),
		Metadata:     map[string]interface{}{"lecturer_id": lecturer.UserID, "notes": notes},
	})

	return s.reloadStudent(ctx, studentID)
}

func (s *profileService) UnassignLecturer(ctx context.Context, p *Principal, studentID string) (*dto.StudentProfileResponse, error) {
	student, err := s.assignableStudent(ctx, p, studentID)
	if err != nil {
		return nil, err
	}
	if student.LecturerID == nil {
		return nil, ErrLecturerNotAssigned
	}

	previous := *student.LecturerID
	if err := s.repo.Student.SetLecturer(ctx, studentID, nil, p.UserID, s.now(), ""); err != nil {
		s.logger.Error("解除指导老师失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:      p.UserID,
		Action:       model.AuditStudentAssignment,
		TargetUserID: student.UserID,
		TargetID:     studentID,
		Description:  fmt.Sprintf("解除学生 %s 的指导老师", student.RegistrationNo),
		Metadata:     map[string]interface{}{"previous_lecturer_id": previous},
	})

	return s.reloadStudent(ctx, studentID)
}

// assignableStudent 企业导师只能为本单位学生分配；管理员不限
func (s *profileService) assignableStudent(ctx context.Context, p *Principal, studentID string) (*model.Student, error) {
	if !canApproveRole(p) {
		return nil, ErrAssignmentForbidden
	}
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if p.IsSupervisor() && !canSuperviseStudent(p, student) {
		return nil, ErrAssignmentForbidden
	}
	return student, nil
}

// ════════════════════ 共用 ════════════════════

func (s *profileService) loadStudent(ctx context.Context, id string) (*model.Student, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生档案失败", zap.String("student_id", id), zap.Error(err))
		return nil, err
	}
	return student, nil
}

func (s *profileService) reloadStudent(ctx context.Context, id string) (*dto.StudentProfileResponse, error) {
	student, err := s.loadStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	return toStudentProfileResponse(student), nil
}

func (s *profileService) ensureCompany(ctx context.Context, id string) error {
	if _, err := s.repo.Company.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCompanyNotFound
		}
		s.logger.Error("查询实习单位失败", zap.String("company_id", id), zap.Error(err))
		return err
	}
	return nil
}

func markProfileCompleted(ctx context.Context, repo *repository.Repository, userID string) error {
	user, err := repo.User.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.ProfileCompleted {
		return nil
	}
	user.ProfileCompleted = true
	user.UpdatedBy = &userID
	return repo.User.Update(ctx, user)
}

func parsePeriod(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(dto.DateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, ErrProfileDateInvalid
	}
	end, err := time.Parse(dto.DateLayout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, ErrProfileDateInvalid
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrProfileDateInvalid
	}
	return start, end, nil
}
