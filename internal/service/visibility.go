package service

import (
	"industrolink/backend/internal/model"
	"industrolink/backend/internal/repository"
)

// scopeTaskFilter 按调用者角色收窄日志查询条件
//
//	student    仅本人日志；显式指定他人 student 时返回空集
//	lecturer   指导老师为本人的学生
//	supervisor 与本人同一单位的学生；无档案时空集
//	admin      不限
//
// 重复调用结果不变。
func scopeTaskFilter(p *Principal, f repository.DailyTaskFilter) repository.DailyTaskFilter {
	switch p.Role {
	case model.RoleStudent:
		if p.StudentID == "" || (f.StudentID != "" && f.StudentID != p.StudentID) {
			f.Empty = true
		}
		f.StudentID = p.StudentID
	case model.RoleLecturer:
		f.LecturerUserID = p.UserID
	case model.RoleSupervisor:
		if p.CompanyID == "" {
			f.Empty = true
		}
		f.CompanyID = p.CompanyID
	case model.RoleAdmin:
	default:
		f.Empty = true
	}
	return f
}

// canViewTask 对单条日志做与 scopeTaskFilter 一致的判断；task.Student 须已加载
func canViewTask(p *Principal, task *model.DailyTask) bool {
	switch p.Role {
	case model.RoleStudent:
		return p.StudentID != "" && task.StudentID == p.StudentID
	case model.RoleLecturer:
		return task.Student != nil && task.Student.LecturerID != nil && *task.Student.LecturerID == p.UserID
	case model.RoleSupervisor:
		return canSuperviseStudent(p, task.Student)
	case model.RoleAdmin:
		return true
	}
	return false
}

// canApproveTask 企业导师只能审批本单位学生的日志；管理员不限
func canApproveTask(p *Principal, task *model.DailyTask) bool {
	switch p.Role {
	case model.RoleSupervisor:
		return canSuperviseStudent(p, task.Student)
	case model.RoleAdmin:
		return true
	}
	return false
}

func canSuperviseStudent(p *Principal, student *model.Student) bool {
	return p.CompanyID != "" && student != nil && student.CompanyID == p.CompanyID
}
