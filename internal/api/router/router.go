package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"industrolink/backend/config"
	"industrolink/backend/internal/api/handler"
	"industrolink/backend/internal/api/middleware"
	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/model"
	"industrolink/backend/internal/service"
	"industrolink/backend/pkg/jwt"
	"industrolink/backend/pkg/metrics"
	"industrolink/backend/pkg/redis"
)

const (
	maxBodyBytes   = 1 << 20
	authRateLimit  = 10 // 每 IP 每分钟
	authRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
// m 为 nil 时不暴露 /metrics
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	identity service.IdentityService,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	m *metrics.Metrics,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidators(v); err != nil {
			logger.Error("注册自定义校验规则失败", zap.Error(err))
		}
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(maxBodyBytes))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(m.Middleware())

	// ── 运维端点 ──
	r.GET("/health", h.Health.Health)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	authLimit := middleware.RateLimit(rdb, authRateLimit, authRateWindow, logger)

	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authLimit, h.Auth.Register)
			auth.POST("/login", authLimit, h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.POST("/verify-email", h.Auth.VerifyEmail)
			auth.POST("/register-admin", authLimit, h.Auth.RegisterAdmin)
		}

		// 仅需 Token 的路由（不要求档案）
		authed := v1.Group("")
		authed.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		{
			authed.POST("/auth/logout", h.Auth.Logout)
			authed.GET("/auth/me", h.Auth.GetCurrentUser)
			authed.POST("/auth/resend-verification", h.Auth.ResendVerification)
		}

		// 需要解析调用者身份的路由
		p := authed.Group("")
		p.Use(middleware.LoadPrincipal(identity))
		{
			// 实习单位
			companies := p.Group("/companies")
			{
				companies.GET("", h.Company.ListCompanies)
				companies.GET("/:id", h.Company.GetCompany)
				companies.POST("", h.Company.CreateCompany) // 学生或企业导师（Service 层鉴权）
			}

			// 档案（角色匹配由 Service 层校验）
			profiles := p.Group("/profiles")
			{
				profiles.POST("/student", h.Profile.CreateStudentProfile)
				profiles.GET("/student", h.Profile.GetStudentProfile)
				profiles.PUT("/student", h.Profile.UpdateStudentProfile)
				profiles.POST("/lecturer", h.Profile.CreateLecturerProfile)
				profiles.GET("/lecturer", h.Profile.GetLecturerProfile)
				profiles.PUT("/lecturer", h.Profile.UpdateLecturerProfile)
				profiles.POST("/supervisor", h.Profile.CreateSupervisorProfile)
				profiles.GET("/supervisor", h.Profile.GetSupervisorProfile)
				profiles.PUT("/supervisor", h.Profile.UpdateSupervisorProfile)
			}

			p.GET("/supervisors/students", middleware.RoleAuth(model.RoleSupervisor), h.Profile.SupervisedStudents)
			p.GET("/lecturers/students", middleware.RoleAuth(model.RoleLecturer), h.Profile.AdvisedStudents)

			students := p.Group("/students", middleware.RoleAuth(model.RoleSupervisor, model.RoleAdmin))
			{
				students.PUT("/:id/lecturer", h.Profile.AssignLecturer)
				students.DELETE("/:id/lecturer", h.Profile.UnassignLecturer)
			}

			// 实习日志
			tasks := p.Group("/tasks")
			{
				tasks.POST("", middleware.RoleAuth(model.RoleStudent), h.Task.CreateTask)
				tasks.GET("", h.Task.ListTasks)
				tasks.GET("/today", middleware.RoleAuth(model.RoleStudent), h.Task.GetToday)
				tasks.GET("/export", h.Report.ExportTasks)

				tasks.GET("/categories", h.Category.ListCategories)
				tasks.POST("/categories", middleware.RoleAuth(model.RoleStudent), h.Category.CreateCategory)

				tasks.GET("/statistics", middleware.RoleAuth(model.RoleStudent), h.Report.Statistics)
				tasks.GET("/weekly-summary", middleware.RoleAuth(model.RoleStudent), h.Report.WeeklySummary)

				approver := middleware.RoleAuth(model.RoleSupervisor, model.RoleAdmin)
				tasks.POST("/bulk-approve", approver, h.Approval.BulkApprove)
				tasks.GET("/student/:id/weekly", approver, h.Report.StudentWeeklySummary)
				tasks.POST("/:id/approve", approver, h.Approval.Approve)
				tasks.PATCH("/:id/approval", approver, h.Approval.ToggleApproval)

				tasks.GET("/:id", h.Task.GetTask)
				tasks.PATCH("/:id", h.Task.UpdateTask) // 学生改内容，审批人改审批字段（Service 层鉴权）
				tasks.DELETE("/:id", h.Task.DeleteTask)
			}

			// 管理后台
			admin := p.Group("/admin", middleware.RoleAuth(model.RoleAdmin))
			{
				admin.GET("/dashboard", h.Admin.Dashboard)
				admin.GET("/users", h.Admin.ListUsers)
				admin.POST("/users/:id/actions", h.Admin.UserAction)
				admin.GET("/audit-logs", h.Admin.AuditLogs)
				admin.POST("/invites", h.Admin.CreateInvite)
				admin.GET("/invites", h.Admin.ListInvites)
				admin.DELETE("/invites/:id", h.Admin.DeleteInvite)
			}
		}
	}

	return r
}
