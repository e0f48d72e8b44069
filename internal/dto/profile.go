package dto

// ── 组织关系 DTO：单位、档案、指导老师分配 ──

// CreateCompanyRequest 创建实习单位
type CreateCompanyRequest struct {
	Name        string `json:"name"         binding:"required,notblank,max=200"`
	Address     string `json:"address"      binding:"omitempty,max=500"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,max=30"`
	Email       string `json:"email"        binding:"omitempty,email,max=255"`
}

// CompanyResponse 实习单位
type CompanyResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Email       string `json:"email,omitempty"`
}

// StudentProfileRequest 创建学生档案
type StudentProfileRequest struct {
	RegistrationNo  string `json:"registration_no"   binding:"required,notblank,max=50"`
	AcademicYear    string `json:"academic_year"     binding:"required,notblank,max=20"`
	Course          string `json:"course"            binding:"required,notblank,max=100"`
	YearOfStudy     string `json:"year_of_study"     binding:"required,notblank,max=20"`
	DurationInWeeks int    `json:"duration_in_weeks" binding:"required,min=1,max=104"`
	StartDate       string `json:"start_date"        binding:"required,datetime=2006-01-02"`
	CompletionDate  string `json:"completion_date"   binding:"required,datetime=2006-01-02"`
	CompanyID       string `json:"company"           binding:"required,uuid"`
}

// UpdateStudentProfileRequest 更新学生档案
type UpdateStudentProfileRequest struct {
	AcademicYear    *string `json:"academic_year"     binding:"omitempty,notblank,max=20"`
	Course          *string `json:"course"            binding:"omitempty,notblank,max=100"`
	YearOfStudy     *string `json:"year_of_study"     binding:"omitempty,notblank,max=20"`
	DurationInWeeks *int    `json:"duration_in_weeks" binding:"omitempty,min=1,max=104"`
	StartDate       *string `json:"start_date"        binding:"omitempty,datetime=2006-01-02"`
	CompletionDate  *string `json:"completion_date"   binding:"omitempty,datetime=2006-01-02"`
	CompanyID       *string `json:"company"           binding:"omitempty,uuid"`
}

// PersonBrief 关联人员摘要
type PersonBrief struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StudentProfileResponse 学生档案
type StudentProfileResponse struct {
	ID                 string           `json:"id"`
	User               PersonBrief      `json:"user"`
	RegistrationNo     string           `json:"registration_no"`
	AcademicYear       string           `json:"academic_year"`
	Course             string           `json:"course"`
	YearOfStudy        string           `json:"year_of_study"`
	DurationInWeeks    int              `json:"duration_in_weeks"`
	StartDate          string           `json:"start_date"`
	CompletionDate     string           `json:"completion_date"`
	Company            *CompanyResponse `json:"company,omitempty"`
	Lecturer           *PersonBrief     `json:"lecturer,omitempty"`
	LecturerNotes      string           `json:"lecturer_notes,omitempty"`
	LecturerAssignedAt *string          `json:"lecturer_assigned_at,omitempty"`
}

// LecturerProfileRequest 创建/更新指导老师档案
type LecturerProfileRequest struct {
	Department string `json:"department" binding:"required,notblank,max=100"`
	Title      string `json:"title"      binding:"required,notblank,max=20"`
}

// LecturerProfileResponse 指导老师档案
type LecturerProfileResponse struct {
	ID         string      `json:"id"`
	User       PersonBrief `json:"user"`
	Department string      `json:"department"`
	Title      string      `json:"title"`
}

// SupervisorProfileRequest 创建/更新企业导师档案
type SupervisorProfileRequest struct {
	CompanyID   string `json:"company"      binding:"required,uuid"`
	Position    string `json:"position"     binding:"omitempty,max=100"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,max=30"`
}

// SupervisorProfileResponse 企业导师档案
type SupervisorProfileResponse struct {
	ID          string           `json:"id"`
	User        PersonBrief      `json:"user"`
	Company     *CompanyResponse `json:"company,omitempty"`
	Position    string           `json:"position,omitempty"`
	PhoneNumber string           `json:"phone_number,omitempty"`
}

// AssignLecturerRequest 为学生指定指导老师
type AssignLecturerRequest struct {
	LecturerID string `json:"lecturer_id" binding:"required,uuid"`
	Notes      string `json:"notes"       binding:"omitempty,max=2000"`
}
