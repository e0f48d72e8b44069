package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"industrolink/backend/config"
	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/model"
	"industrolink/backend/internal/repository"
	"industrolink/backend/pkg/isoweek"
)

// ── 统计与导出业务错误 ──

var (
	ErrStudentNotFound    = errors.New("学生不存在")
	ErrReportForbidden    = errors.New("无权查看该学生的日志")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const trailingDays = 7

// ReportService 日志统计、周汇总与导出
type ReportService interface {
	Statistics(ctx context.Context, p *Principal) (*dto.StatisticsResponse, error)
	WeeklySummary(ctx context.Context, p *Principal, q *dto.WeeklySummaryQuery) (*dto.WeeklySummaryResponse, error)
	// StudentWeeklySummary 企业导师/管理员查看某个学生的周汇总
	StudentWeeklySummary(ctx context.Context, p *Principal, studentID string, q *dto.WeeklySummaryQuery) (*dto.WeeklySummaryResponse, error)
	// Export 按列表相同的筛选与可见范围导出日志（xlsx 或 ics），返回文件内容与建议文件名
	Export(ctx context.Context, p *Principal, q *dto.ExportQuery) (*bytes.Buffer, string, error)
}

type reportService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
	now    clock
}

// NewReportService 创建 ReportService 实例
func NewReportService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ReportService {
	return &reportService{cfg: cfg, repo: repo, logger: logger, now: systemClock}
}

func (s *reportService) today() time.Time {
	return isoweek.Date(s.now(), s.cfg.App.Location())
}

// ────────────────────── Statistics ──────────────────────

func (s *reportService) Statistics(ctx context.Context, p *Principal) (*dto.StatisticsResponse, error) {
	if !p.IsStudent() {
		return nil, ErrTaskForbidden
	}

	var tasks []model.DailyTask
	if p.StudentID != "" {
		var err error
		tasks, err = s.repo.DailyTask.ListByStudent(ctx, p.StudentID)
		if err != nil {
			s.logger.Error("查询学生日志失败", zap.String("student_id", p.StudentID), zap.Error(err))
			return nil, err
		}
	}

	return buildStatistics(tasks, s.today()), nil
}

// buildStatistics 汇总学生全部日志；没有日志时各项为 0
func buildStatistics(tasks []model.DailyTask, today time.Time) *dto.StatisticsResponse {
	year, week := isoweek.Of(today)
	from := today.AddDate(0, 0, -(trailingDays - 1))

	stats := &dto.StatisticsResponse{
		CurrentWeek:       dto.CurrentWeekStats{WeekNumber: week, Year: year},
		CategoryBreakdown: []dto.CategoryBreakdown{},
	}

	byCategory := make(map[string]*dto.CategoryBreakdown)
	for i := range tasks {
		t := &tasks[i]
		stats.TotalTasks++
		stats.TotalHours += t.HoursSpent
		if t.Approved {
			stats.ApprovedTasks++
		}

		if t.ISOYear == year && t.WeekNumber == week {
			stats.CurrentWeek.TaskCount++
			stats.CurrentWeek.Hours += t.HoursSpent
		}

		d := dateOnly(t.TaskDate)
		if !d.Before(from) && !d.After(today) {
			stats.RecentActivity.TasksLast7Days++
		}

		name := categoryName(t)
		b, ok := byCategory[name]
		if !ok {
			b = &dto.CategoryBreakdown{Category: name}
			byCategory[name] = b
		}
		b.Count++
		b.Hours += t.HoursSpent
	}

	stats.PendingApproval = stats.TotalTasks - stats.ApprovedTasks
	stats.TotalHours = round2(stats.TotalHours)
	stats.CurrentWeek.Hours = round2(stats.CurrentWeek.Hours)
	if stats.TotalTasks > 0 {
		stats.ApprovalRate = round2(float64(stats.ApprovedTasks) / float64(stats.TotalTasks) * 100)
		stats.AverageHoursPerTask = round2(stats.TotalHours / float64(stats.TotalTasks))
	}

	for _, b := range byCategory {
		b.Hours = round2(b.Hours)
		stats.CategoryBreakdown = append(stats.CategoryBreakdown, *b)
	}
	sort.Slice(stats.CategoryBreakdown, func(i, j int) bool {
		a, b := stats.CategoryBreakdown[i], stats.CategoryBreakdown[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category < b.Category
	})

	return stats
}

// ────────────────────── WeeklySummary ──────────────────────

func (s *reportService) WeeklySummary(ctx context.Context, p *Principal, q *dto.WeeklySummaryQuery) (*dto.WeeklySummaryResponse, error) {
	if !p.IsStudent() {
		return nil, ErrTaskForbidden
	}
	return s.weeklySummary(ctx, p.StudentID, q)
}

func (s *reportService) StudentWeeklySummary(ctx context.Context, p *Principal, studentID string, q *dto.WeeklySummaryQuery) (*dto.WeeklySummaryResponse, error) {
	if !canApproveRole(p) {
		return nil, ErrReportForbidden
	}

	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	if p.IsSupervisor() && !canSuperviseStudent(p, student) {
		return nil, ErrReportForbidden
	}

	return s.weeklySummary(ctx, student.StudentID, q)
}

// weeklySummary studentID 为空（学生尚未建档）时返回空的一周
func (s *reportService) weeklySummary(ctx context.Context, studentID string, q *dto.WeeklySummaryQuery) (*dto.WeeklySummaryResponse, error) {
	year, week := isoweek.Of(s.today())
	if q.Year > 0 {
		year = q.Year
	}
	if q.Week > 0 {
		week = q.Week
	}
	if !isoweek.Valid(year, week) {
		return nil, ErrTaskWeekInvalid
	}

	start, end := isoweek.Range(year, week)

	var tasks []model.DailyTask
	if studentID != "" {
		var err error
		tasks, err = s.repo.DailyTask.ListByStudentBetween(ctx, studentID, start, end)
		if err != nil {
			s.logger.Error("查询周日志失败", zap.String("student_id", studentID), zap.Error(err))
			return nil, err
		}
	}

	return buildWeeklySummary(studentID, year, week, tasks, s.cfg.App.WorkDaysPerWeek), nil
}

// buildWeeklySummary 生成周一到周日的逐日情况；完成率以工作日数为分母
func buildWeeklySummary(studentID string, year, week int, tasks []model.DailyTask, workDays int) *dto.WeeklySummaryResponse {
	start, end := isoweek.Range(year, week)

	resp := &dto.WeeklySummaryResponse{
		StudentID:      studentID,
		WeekNumber:     week,
		ISOYear:        year,
		WeekStart:      formatDate(start),
		WeekEnd:        formatDate(end),
		Categories:     make(map[string]int),
		DailyBreakdown: make(map[string]dto.DaySummary, isoweek.DaysPerWeek),
	}

	byDate := make(map[string]*model.DailyTask, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		resp.TotalTasks++
		resp.TotalHours += t.HoursSpent
		if t.Approved {
			resp.ApprovedTasks++
		}
		resp.Categories[categoryName(t)]++
		byDate[formatDate(t.TaskDate)] = t
	}

	for i := 0; i < isoweek.DaysPerWeek; i++ {
		day := start.AddDate(0, 0, i)
		key := formatDate(day)
		summary := dto.DaySummary{Date: key}
		if t, ok := byDate[key]; ok {
			summary.HasTask = true
			summary.Task = toTaskResponse(t)
		}
		resp.DailyBreakdown[day.Weekday().String()] = summary
	}

	resp.TotalHours = round2(resp.TotalHours)
	if workDays > 0 {
		resp.CompletionRate = round2(float64(resp.TotalTasks) / float64(workDays) * 100)
	}
	return resp
}

// ────────────────────── Export ──────────────────────

var exportHeaders = []string{"日期", "ISO 周", "学生", "学号", "分类", "工作内容", "时长（小时）", "使用工具", "运用技能", "状态", "审批意见"}

func (s *reportService) Export(ctx context.Context, p *Principal, q *dto.ExportQuery) (*bytes.Buffer, string, error) {
	filter, err := buildTaskFilter(&q.TaskListQuery)
	if err != nil {
		return nil, "", err
	}
	filter = scopeTaskFilter(p, filter)

	tasks, _, err := s.repo.DailyTask.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询导出日志失败", zap.String("user_id", p.UserID), zap.Error(err))
		return nil, "", err
	}

	format := q.Format
	if format == "" {
		format = dto.ExportFormatXLSX
	}

	var buf *bytes.Buffer
	switch format {
	case dto.ExportFormatICS:
		buf, err = renderLogbookCalendar(tasks, s.now())
	default:
		buf, err = renderLogbook(tasks)
	}
	if err != nil {
		s.logger.Error("生成日志导出文件失败", zap.String("format", format), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("logbook_%s.%s", s.today().Format("20060102"), format)
	return buf, filename, nil
}

func renderLogbook(tasks []model.DailyTask) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Logbook"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	widths := []float64{12, 10, 20, 16, 18, 60, 12, 24, 24, 10, 30}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	wrapStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})

	for i, h := range exportHeaders {
		f.SetCellValue(sheet, cellName(i, 1), h)
	}
	f.SetCellStyle(sheet, cellName(0, 1), cellName(len(exportHeaders)-1, 1), headerStyle)
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	for i := range tasks {
		t := &tasks[i]
		row := i + 2

		studentName, regNo := "", ""
		if t.Student != nil {
			regNo = t.Student.RegistrationNo
			if t.Student.User != nil {
				studentName = t.Student.User.FullName()
			}
		}
		status := "待审批"
		if t.Approved {
			status = "已审批"
		}

		values := []interface{}{
			formatDate(t.TaskDate),
			fmt.Sprintf("%d-W%02d", t.ISOYear, t.WeekNumber),
			studentName,
			regNo,
			categoryName(t),
			t.Description,
			t.HoursSpent,
			strings.Join(t.ToolsUsed, ", "),
			strings.Join(t.SkillsApplied, ", "),
			status,
			t.SupervisorComments,
		}
		for col, v := range values {
			f.SetCellValue(sheet, cellName(col, row), v)
		}
		f.SetCellStyle(sheet, cellName(5, row), cellName(5, row), wrapStyle)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}

// ────────────────────── 共用 ──────────────────────

func categoryName(t *model.DailyTask) string {
	if t.Category != nil && t.Category.Name != "" {
		return t.Category.Name
	}
	return t.CategoryID
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
