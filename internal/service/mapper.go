package service

import (
	"time"

	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/model"
)

func formatDate(t time.Time) string {
	return t.Format(dto.DateLayout)
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func toTaskResponse(task *model.DailyTask) *dto.TaskResponse {
	resp := &dto.TaskResponse{
		ID:                 task.DailyTaskID,
		StudentID:          task.StudentID,
		Date:               formatDate(task.TaskDate),
		Description:        task.Description,
		TaskCategory:       task.CategoryID,
		ToolsUsed:          nonNil(task.ToolsUsed),
		SkillsApplied:      nonNil(task.SkillsApplied),
		HoursSpent:         task.HoursSpent,
		Approved:           task.Approved,
		SupervisorID:       task.SupervisorID,
		SupervisorComments: task.SupervisorComments,
		ApprovedAt:         formatTimePtr(task.ApprovedAt),
		WeekNumber:         task.WeekNumber,
		ISOYear:            task.ISOYear,
		Version:            task.Version,
		CreatedAt:          formatTime(task.CreatedAt),
		UpdatedAt:          formatTime(task.UpdatedAt),
	}
	if task.Category != nil {
		resp.TaskCategoryName = task.Category.Name
	}
	if task.Student != nil {
		resp.StudentRegistrationNo = task.Student.RegistrationNo
		if task.Student.User != nil {
			resp.StudentName = task.Student.User.FullName()
		}
		if task.Student.Company != nil {
			resp.CompanyName = task.Student.Company.Name
		}
	}
	if task.Supervisor != nil {
		resp.SupervisorName = task.Supervisor.FullName()
	}
	return resp
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func toCategoryResponse(c *model.TaskCategory) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:            c.CategoryID,
		Name:          c.Name,
		Description:   c.Description,
		IsActive:      c.IsActive,
		IsUserCreated: c.IsUserCreated,
	}
}

func toCompanyResponse(c *model.Company) *dto.CompanyResponse {
	if c == nil {
		return nil
	}
	return &dto.CompanyResponse{
		ID:          c.CompanyID,
		Name:        c.Name,
		Address:     c.Address,
		PhoneNumber: c.PhoneNumber,
		Email:       c.Email,
	}
}

func toPersonBrief(u *model.User) dto.PersonBrief {
	if u == nil {
		return dto.PersonBrief{}
	}
	return dto.PersonBrief{ID: u.UserID, Name: u.FullName(), Email: u.Email}
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:               u.UserID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		MiddleName:       u.MiddleName,
		LastName:         u.LastName,
		FullName:         u.FullName(),
		Role:             u.Role,
		IsActive:         u.IsActive,
		ProfileCompleted: u.ProfileCompleted,
		EmailVerified:    u.EmailVerified,
		CreatedAt:        formatTime(u.CreatedAt),
	}
}

func toStudentProfileResponse(s *model.Student) *dto.StudentProfileResponse {
	resp := &dto.StudentProfileResponse{
		ID:                 s.StudentID,
		User:               toPersonBrief(s.User),
		RegistrationNo:     s.RegistrationNo,
		AcademicYear:       s.AcademicYear,
		Course:             s.Course,
		YearOfStudy:        s.YearOfStudy,
		DurationInWeeks:    s.DurationInWeeks,
		StartDate:          formatDate(s.StartDate),
		CompletionDate:     formatDate(s.CompletionDate),
		Company:            toCompanyResponse(s.Company),
		LecturerNotes:      s.LecturerNotes,
		LecturerAssignedAt: formatTimePtr(s.LecturerAssignedAt),
	}
	if s.Lecturer != nil {
		lecturer := toPersonBrief(s.Lecturer)
		resp.Lecturer = &lecturer
	}
	return resp
}

func toLecturerProfileResponse(l *model.Lecturer) *dto.LecturerProfileResponse {
	return &dto.LecturerProfileResponse{
		ID:         l.LecturerID,
		User:       toPersonBrief(l.User),
		Department: l.Department,
		Title:      l.Title,
	}
}

func toSupervisorProfileResponse(s *model.Supervisor) *dto.SupervisorProfileResponse {
	return &dto.SupervisorProfileResponse{
		ID:          s.SupervisorID,
		User:        toPersonBrief(s.User),
		Company:     toCompanyResponse(s.Company),
		Position:    s.Position,
		PhoneNumber: s.PhoneNumber,
	}
}

func toAuditLogResponse(l *model.AuditLog) dto.AuditLogResponse {
	resp := dto.AuditLogResponse{
		ID:           l.AuditLogID,
		ActorID:      l.ActorID,
		ActionType:   l.ActionType,
		TargetUserID: l.TargetUserID,
		TargetID:     l.TargetID,
		Description:  l.Description,
		Metadata:     l.Metadata,
		CreatedAt:    formatTime(l.CreatedAt),
	}
	if l.Actor != nil {
		resp.ActorName = l.Actor.FullName()
	}
	return resp
}

func toInviteResponse(i *model.AdminInvite, now time.Time) dto.InviteResponse {
	status := dto.InviteStatusPending
	switch {
	case i.UsedAt != nil:
		status = dto.InviteStatusUsed
	case !now.Before(i.ExpiresAt):
		status = dto.InviteStatusExpired
	}
	return dto.InviteResponse{
		ID:        i.InviteID,
		Email:     i.Email,
		Status:    status,
		ExpiresAt: formatTime(i.ExpiresAt),
		UsedAt:    formatTimePtr(i.UsedAt),
		CreatedAt: formatTime(i.CreatedAt),
	}
}
