package handler

import (
	"industrolink/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth     *AuthHandler
	Task     *TaskHandler
	Approval *ApprovalHandler
	Report   *ReportHandler
	Category *CategoryHandler
	Company  *CompanyHandler
	Profile  *ProfileHandler
	Admin    *AdminHandler
	Health   *HealthHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, db Pinger) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth),
		Task:     NewTaskHandler(svc.Task),
		Approval: NewApprovalHandler(svc.Approval),
		Report:   NewReportHandler(svc.Report),
		Category: NewCategoryHandler(svc.Category),
		Company:  NewCompanyHandler(svc.Company),
		Profile:  NewProfileHandler(svc.Profile),
		Admin:    NewAdminHandler(svc.Admin),
		Health:   NewHealthHandler(db),
	}
}
