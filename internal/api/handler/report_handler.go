package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"industrolink/backend/internal/dto"
	"industrolink/backend/internal/service"
	"industrolink/backend/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ReportHandler 日志统计、周汇总与导出 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// Statistics 学生本人日志统计
// GET /api/v1/tasks/statistics
func (h *ReportHandler) Statistics(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	result, err := h.reportSvc.Statistics(c.Request.Context(), p)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	response.OK(c, result)
}

// WeeklySummary 学生本人周汇总
// GET /api/v1/tasks/weekly-summary?week=&year=
func (h *ReportHandler) WeeklySummary(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var q dto.WeeklySummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.reportSvc.WeeklySummary(c.Request.Context(), p, &q)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	response.OK(c, result)
}

// StudentWeeklySummary 指定学生的周汇总
// GET /api/v1/tasks/student/:id/weekly?week=&year=
func (h *ReportHandler) StudentWeeklySummary(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var q dto.WeeklySummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.reportSvc.StudentWeeklySummary(c.Request.Context(), p, c.Param("id"), &q)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	response.OK(c, result)
}

// ExportTasks 导出日志（Excel 或 iCalendar）
// GET /api/v1/tasks/export?format=xlsx|ics，筛选参数与列表一致
func (h *ReportHandler) ExportTasks(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var q dto.ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	buf, filename, err := h.reportSvc.Export(c.Request.Context(), p, &q)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	contentType := xlsxContentType
	if q.Format == dto.ExportFormatICS {
		contentType = icsContentType
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
