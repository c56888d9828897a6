package handler

import (
	"github.com/gin-gonic/gin"

	"timeclock/internal/service"
	"timeclock/pkg/response"
)

// CalendarHandler 请假日历订阅
type CalendarHandler struct {
	calendarSvc service.CalendarService
}

// NewCalendarHandler 创建 CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc}
}

// LeaveFeed 已批准请假的 iCalendar 订阅
// GET /api/v1/calendar/leaves.ics[?from=2024-03-01&to=2024-03-31]
func (h *CalendarHandler) LeaveFeed(c *gin.Context) {
	feed, err := h.calendarSvc.LeaveFeed(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.Attachment(c, "text/calendar; charset=utf-8", "leaves.ics", []byte(feed))
}
