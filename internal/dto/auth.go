package dto

// ── 认证模块 DTO ──

// RegisterRequest 自助注册请求（管理员不可自助注册）
type RegisterRequest struct {
	Email      string `json:"email"       binding:"required,email,max=255"`
	Password   string `json:"password"    binding:"required,min=8,max=128"`
	FirstName  string `json:"first_name"  binding:"required,notblank,max=50"`
	MiddleName string `json:"middle_name" binding:"omitempty,max=50"`
	LastName   string `json:"last_name"   binding:"required,notblank,max=50"`
	Role       string `json:"role"        binding:"required,oneof=student lecturer supervisor"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// VerifyEmailRequest 邮箱验证请求
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// RegisterAdminRequest 通过邀请注册管理员
type RegisterAdminRequest struct {
	Token     string `json:"token"      binding:"required"`
	Password  string `json:"password"   binding:"required,min=8,max=128"`
	FirstName string `json:"first_name" binding:"required,notblank,max=50"`
	LastName  string `json:"last_name"  binding:"required,notblank,max=50"`
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	MiddleName       string `json:"middle_name,omitempty"`
	LastName         string `json:"last_name"`
	FullName         string `json:"full_name"`
	Role             string `json:"role"`
	IsActive         bool   `json:"is_active"`
	ProfileCompleted bool   `json:"profile_completed"`
	EmailVerified    bool   `json:"email_verified"`
	CreatedAt        string `json:"created_at"`
}
