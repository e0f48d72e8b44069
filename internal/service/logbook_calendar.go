package service

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"industrolink/backend/internal/model"
)

const (
	calendarProductID = "-//Industrolink//Internship Logbook//ZH"
	calendarUIDSuffix = "@industrolink"
)

// renderLogbookCalendar 每条日志对应一个全天事件，已审批为 CONFIRMED，待审批为 TENTATIVE
func renderLogbookCalendar(tasks []model.DailyTask, stamp time.Time) (*bytes.Buffer, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("实习日志")

	for i := range tasks {
		t := &tasks[i]

		event := cal.AddEvent(t.DailyTaskID + calendarUIDSuffix)
		event.SetDtStampTime(stamp.UTC())
		event.SetAllDayStartAt(t.TaskDate)
		event.SetAllDayEndAt(t.TaskDate.AddDate(0, 0, 1))
		event.SetSummary(fmt.Sprintf("%s（%.2f 小时）", categoryName(t), t.HoursSpent))
		event.SetDescription(calendarDescription(t))
		event.SetProperty(ics.ComponentPropertyCategories, categoryName(t))
		if t.Approved {
			event.SetStatus(ics.ObjectStatusConfirmed)
		} else {
			event.SetStatus(ics.ObjectStatusTentative)
		}
	}

	var buf bytes.Buffer
	if err := cal.SerializeTo(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

func calendarDescription(t *model.DailyTask) string {
	lines := []string{t.Description}
	if t.Student != nil && t.Student.User != nil {
		lines = append(lines, "学生："+t.Student.User.FullName())
	}
	if len(t.ToolsUsed) > 0 {
		lines = append(lines, "使用工具："+strings.Join(t.ToolsUsed, ", "))
	}
	if len(t.SkillsApplied) > 0 {
		lines = append(lines, "运用技能："+strings.Join(t.SkillsApplied, ", "))
	}
	if t.SupervisorComments != "" {
		lines = append(lines, "审批意见："+t.SupervisorComments)
	}
	return strings.Join(lines, "\n")
}
