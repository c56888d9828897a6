package handler

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"timeclock/internal/dto"
	"timeclock/internal/model"
	"timeclock/internal/service"
)

// ── Mock AttendanceService ──

type mockAttendanceService struct {
	clockErr     error
	lastAction   string
	lastSource   string
	recomputed   string
	summaryUser  string
	summaryDate  string
	summaryErr   error
	monthUser    string
	monthResult  *dto.MonthSummaryResponse
	statusResult *dto.TodayStatusResponse
}

func (m *mockAttendanceService) RecomputeDay(_ context.Context, userID string, date time.Time) (*model.DaySummary, error) {
	m.recomputed = userID + "|" + date.Format("2006-01-02")
	return &model.DaySummary{UserID: userID, Date: date}, nil
}
func (m *mockAttendanceService) clock(action, source string) (*dto.ClockResponse, error) {
	m.lastAction, m.lastSource = action, source
	if m.clockErr != nil {
		return nil, m.clockErr
	}
	return &dto.ClockResponse{Event: dto.EventResponse{ID: "e1", Type: action}}, nil
}
func (m *mockAttendanceService) ClockIn(_ context.Context, _ string, req *dto.ClockInRequest) (*dto.ClockResponse, error) {
	return m.clock("in:"+req.Mode, req.Source)
}
func (m *mockAttendanceService) ClockOut(_ context.Context, _ string, req *dto.ClockActionRequest) (*dto.ClockResponse, error) {
	return m.clock("out", req.Source)
}
func (m *mockAttendanceService) BreakStart(_ context.Context, _ string, req *dto.ClockActionRequest) (*dto.ClockResponse, error) {
	return m.clock("break-start", req.Source)
}
func (m *mockAttendanceService) BreakEnd(_ context.Context, _ string, req *dto.ClockActionRequest) (*dto.ClockResponse, error) {
	return m.clock("break-end", req.Source)
}
func (m *mockAttendanceService) GetTodayStatus(_ context.Context, _ string) (*dto.TodayStatusResponse, error) {
	return m.statusResult, nil
}
func (m *mockAttendanceService) GetDaySummary(_ context.Context, userID, date string) (*dto.DaySummaryResponse, error) {
	m.summaryUser, m.summaryDate = userID, date
	if m.summaryErr != nil {
		return nil, m.summaryErr
	}
	return &dto.DaySummaryResponse{Date: date}, nil
}
func (m *mockAttendanceService) GetMonthSummary(_ context.Context, userID, yearMonth string) (*dto.MonthSummaryResponse, error) {
	m.monthUser = userID
	return m.monthResult, nil
}

// ═══════════════════════════════════════════════════════════
// AttendanceHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAttendanceHandler_ClockIn(t *testing.T) {
	mock := &mockAttendanceService{}
	h := NewAttendanceHandler(mock)

	w := serve("POST", "/attendance/clock-in", "/attendance/clock-in", jsonBody(dto.ClockInRequest{Mode: "remote", Source: "SLACK"}), "intern", h.ClockIn)
	assertStatus(t, w, http.StatusCreated, 0)
	if mock.lastAction != "in:remote" || mock.lastSource != "SLACK" {
		t.Errorf("请求未正确传入: action=%s source=%s", mock.lastAction, mock.lastSource)
	}

	w = serve("POST", "/attendance/clock-in", "/attendance/clock-in", jsonBody(map[string]string{"mode": "office"}), "intern", h.ClockIn)
	assertStatus(t, w, http.StatusBadRequest, 10001)
}

func TestAttendanceHandler_ClockOut_EmptyBody(t *testing.T) {
	mock := &mockAttendanceService{}
	h := NewAttendanceHandler(mock)

	w := serve("POST", "/attendance/clock-out", "/attendance/clock-out", nil, "intern", h.ClockOut)
	assertStatus(t, w, http.StatusCreated, 0)
	if mock.lastAction != "out" {
		t.Errorf("期望调用 ClockOut，实际=%s", mock.lastAction)
	}
}

func TestAttendanceHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"重复上班", service.ErrAlreadyClockedIn, 14002},
		{"未上班", service.ErrNotClockedIn, 14003},
		{"已下班", service.ErrAlreadyClockedOut, 14004},
		{"已在休息", service.ErrAlreadyOnBreak, 14005},
		{"无进行中的休息", service.ErrNoActiveBreak, 14006},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAttendanceHandler(&mockAttendanceService{clockErr: tt.err})
			w := serve("POST", "/attendance/break-start", "/attendance/break-start", nil, "intern", h.BreakStart)
			assertStatus(t, w, http.StatusConflict, tt.wantCode)
		})
	}
}

func TestAttendanceHandler_GetDaySummary_Scope(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		target     string
		wantStatus int
		wantUser   string
	}{
		{"实习生查自己", "intern", "/attendance/day?date=2024-03-04", http.StatusOK, testInternID},
		{"实习生查他人", "intern", "/attendance/day?date=2024-03-04&user_id=" + testOtherID, http.StatusForbidden, ""},
		{"管理员查实习生", "admin", "/attendance/day?date=2024-03-04&user_id=" + testInternID, http.StatusOK, testInternID},
		{"日期格式错误", "intern", "/attendance/day?date=2024/03/04", http.StatusBadRequest, ""},
		{"缺少日期", "intern", "/attendance/day", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockAttendanceService{}
			h := NewAttendanceHandler(mock)
			w := serve("GET", "/attendance/day", tt.target, nil, tt.role, h.GetDaySummary)
			if w.Code != tt.wantStatus {
				t.Fatalf("期望 HTTP %d，实际=%d body=%s", tt.wantStatus, w.Code, w.Body.String())
			}
			if mock.summaryUser != tt.wantUser {
				t.Errorf("期望查询用户 %q，实际=%q", tt.wantUser, mock.summaryUser)
			}
		})
	}
}

func TestAttendanceHandler_GetDaySummary_NotFound(t *testing.T) {
	h := NewAttendanceHandler(&mockAttendanceService{summaryErr: service.ErrSummaryNotFound})

	w := serve("GET", "/attendance/day", "/attendance/day?date=2024-03-04", nil, "intern", h.GetDaySummary)
	assertStatus(t, w, http.StatusNotFound, 14001)
}

func TestAttendanceHandler_RecomputeDay(t *testing.T) {
	mock := &mockAttendanceService{}
	h := NewAttendanceHandler(mock)

	w := serve("POST", "/attendance/recompute", "/attendance/recompute", jsonBody(dto.RecomputeDayRequest{
		UserID: testInternID, Date: "2024-03-04",
	}), "admin", h.RecomputeDay)

	assertStatus(t, w, http.StatusOK, 0)
	if mock.recomputed != testInternID+"|2024-03-04" {
		t.Errorf("重算参数不符: %s", mock.recomputed)
	}
	if mock.summaryDate != "2024-03-04" {
		t.Errorf("重算后应返回当日汇总，实际查询日期=%s", mock.summaryDate)
	}
}

// ── Mock LeaveService ──

type mockLeaveService struct {
	listQuery *dto.RequestListQuery
	getResult *dto.LeaveResponse
	reviewErr error
}

func (m *mockLeaveService) Create(_ context.Context, userID string, _ *dto.CreateLeaveRequest) (*dto.LeaveResponse, error) {
	return &dto.LeaveResponse{ID: "l1", UserID: userID}, nil
}
func (m *mockLeaveService) List(_ context.Context, query *dto.RequestListQuery) ([]dto.LeaveResponse, error) {
	m.listQuery = query
	return []dto.LeaveResponse{}, nil
}
func (m *mockLeaveService) Get(_ context.Context, id string) (*dto.LeaveResponse, error) {
	if m.getResult == nil {
		return nil, service.ErrLeaveNotFound
	}
	return m.getResult, nil
}
func (m *mockLeaveService) Approve(_ context.Context, id string, _ *dto.ReviewRequest, _ string) (*dto.LeaveResponse, error) {
	if m.reviewErr != nil {
		return nil, m.reviewErr
	}
	return &dto.LeaveResponse{ID: id, Review: dto.ReviewInfo{Status: model.RequestStatusApproved}}, nil
}
func (m *mockLeaveService) Reject(_ context.Context, id string, _ *dto.ReviewRequest, _ string) (*dto.LeaveResponse, error) {
	if m.reviewErr != nil {
		return nil, m.reviewErr
	}
	return &dto.LeaveResponse{ID: id, Review: dto.ReviewInfo{Status: model.RequestStatusRejected}}, nil
}
func (m *mockLeaveService) Stats(_ context.Context, _ string, yearMonth string) (*dto.LeaveStats, error) {
	return &dto.LeaveStats{YearMonth: yearMonth}, nil
}

// ═══════════════════════════════════════════════════════════
// LeaveHandler Tests
// ═══════════════════════════════════════════════════════════

func TestLeaveHandler_Create_Validation(t *testing.T) {
	h := NewLeaveHandler(&mockLeaveService{})

	w := serve("POST", "/leave-requests", "/leave-requests", jsonBody(dto.CreateLeaveRequest{
		StartDatetime: "2024-03-04T09:00:00+08:00",
		EndDatetime:   "2024-03-04T18:00:00+08:00",
		Type:          "SICK",
		Reason:        "发烧",
	}), "intern", h.Create)
	assertStatus(t, w, http.StatusCreated, 0)

	w = serve("POST", "/leave-requests", "/leave-requests", jsonBody(map[string]string{
		"start_datetime": "2024-03-04 09:00", "end_datetime": "2024-03-04T18:00:00+08:00", "type": "SICK", "reason": "x",
	}), "intern", h.Create)
	assertStatus(t, w, http.StatusBadRequest, 10001)
}

func TestLeaveHandler_List_InternScopedToSelf(t *testing.T) {
	mock := &mockLeaveService{}
	h := NewLeaveHandler(mock)

	w := serve("GET", "/leave-requests", "/leave-requests?status=PENDING", nil, "intern", h.List)
	assertStatus(t, w, http.StatusOK, 0)
	if mock.listQuery.UserID != testInternID || mock.listQuery.Status != "PENDING" {
		t.Errorf("实习生只能查询自己的申请，实际=%+v", mock.listQuery)
	}

	mock.listQuery = nil
	w = serve("GET", "/leave-requests", "/leave-requests", nil, "admin", h.List)
	assertStatus(t, w, http.StatusOK, 0)
	if mock.listQuery.UserID != "" {
		t.Errorf("管理员不带 user_id 应查询全部，实际=%+v", mock.listQuery)
	}
}

func TestLeaveHandler_Get_OtherUserForbidden(t *testing.T) {
	h := NewLeaveHandler(&mockLeaveService{getResult: &dto.LeaveResponse{ID: "l1", UserID: testOtherID}})

	w := serve("GET", "/leave-requests/:id", "/leave-requests/l1", nil, "intern", h.Get)
	assertStatus(t, w, http.StatusForbidden, 10003)

	w = serve("GET", "/leave-requests/:id", "/leave-requests/l1", nil, "admin", h.Get)
	assertStatus(t, w, http.StatusOK, 0)

	h = NewLeaveHandler(&mockLeaveService{})
	w = serve("GET", "/leave-requests/:id", "/leave-requests/missing", nil, "admin", h.Get)
	assertStatus(t, w, http.StatusNotFound, 18001)
}

func TestLeaveHandler_Approve_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		body       interface{}
		wantStatus int
		wantCode   int
	}{
		{"已处理", service.ErrRequestNotPending, dto.ReviewRequest{Version: 1}, http.StatusConflict, 18003},
		{"版本冲突", service.ErrVersionConflict, dto.ReviewRequest{Version: 1}, http.StatusConflict, 10006},
		{"缺少版本号", nil, map[string]string{"notes": "ok"}, http.StatusBadRequest, 10001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLeaveHandler(&mockLeaveService{reviewErr: tt.err})
			w := serve("POST", "/leave-requests/:id/approve", "/leave-requests/l1/approve", jsonBody(tt.body), "admin", h.Approve)
			assertStatus(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}

// ── Mock ScoreService ──

type mockScoreService struct {
	err        error
	adjustReq  *dto.AdjustScoreRequest
	getUser    string
	recalcedYM string
}

func (m *mockScoreService) CalculateMonthlyScore(_ context.Context, userID, yearMonth string) (*dto.ScoreResponse, error) {
	return &dto.ScoreResponse{UserID: userID, YearMonth: yearMonth}, m.err
}
func (m *mockScoreService) AdjustScore(_ context.Context, req *dto.AdjustScoreRequest, _ string) (*dto.ScoreResponse, error) {
	m.adjustReq = req
	return &dto.ScoreResponse{UserID: req.UserID}, m.err
}
func (m *mockScoreService) GetMonthlyScore(_ context.Context, userID, yearMonth string) (*dto.ScoreResponse, error) {
	m.getUser = userID
	return &dto.ScoreResponse{UserID: userID, YearMonth: yearMonth}, m.err
}
func (m *mockScoreService) GetAllScoresForMonth(_ context.Context, _ string) ([]dto.ScoreResponse, error) {
	return nil, m.err
}
func (m *mockScoreService) RecalculateMonth(_ context.Context, yearMonth string) (*dto.RecalculateResponse, error) {
	m.recalcedYM = yearMonth
	return &dto.RecalculateResponse{YearMonth: yearMonth}, m.err
}
func (m *mockScoreService) BroadcastRanking(_ context.Context, _ string) error {
	return m.err
}

// ═══════════════════════════════════════════════════════════
// ScoreHandler Tests
// ═══════════════════════════════════════════════════════════

func TestScoreHandler_Adjust(t *testing.T) {
	mock := &mockScoreService{}
	h := NewScoreHandler(mock)

	w := serve("POST", "/scores/adjust", "/scores/adjust", jsonBody(dto.AdjustScoreRequest{
		UserID: testInternID, YearMonth: "2024-03", Points: -1.5, Reason: "违规",
	}), "admin", h.Adjust)
	assertStatus(t, w, http.StatusOK, 0)
	if mock.adjustReq == nil || mock.adjustReq.Points != -1.5 {
		t.Errorf("调整分值未正确传入: %+v", mock.adjustReq)
	}

	tests := []struct {
		name string
		body string
	}{
		{"分值为 0", `{"user_id":"` + testInternID + `","year_month":"2024-03","points":0,"reason":"x"}`},
		{"超过上限", `{"user_id":"` + testInternID + `","year_month":"2024-03","points":101,"reason":"x"}`},
		{"月份格式错误", `{"user_id":"` + testInternID + `","year_month":"2024-3","points":1,"reason":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve("POST", "/scores/adjust", "/scores/adjust", bytes.NewReader([]byte(tt.body)), "admin", h.Adjust)
			assertStatus(t, w, http.StatusBadRequest, 10001)
		})
	}
}

func TestScoreHandler_GetScore_Scope(t *testing.T) {
	mock := &mockScoreService{}
	h := NewScoreHandler(mock)

	w := serve("GET", "/scores/detail", "/scores/detail?year_month=2024-03", nil, "intern", h.GetScore)
	assertStatus(t, w, http.StatusOK, 0)
	if mock.getUser != testInternID {
		t.Errorf("实习生应查询自己的积分，实际=%s", mock.getUser)
	}

	w = serve("GET", "/scores/detail", "/scores/detail?year_month=2024-03&user_id="+testOtherID, nil, "intern", h.GetScore)
	assertStatus(t, w, http.StatusForbidden, 10003)
}

func TestScoreHandler_ErrorMapping(t *testing.T) {
	h := NewScoreHandler(&mockScoreService{err: service.ErrNoScores})
	w := serve("POST", "/scores/broadcast", "/scores/broadcast", jsonBody(dto.YearMonthRequest{YearMonth: "2023-01"}), "admin", h.Broadcast)
	assertStatus(t, w, http.StatusNotFound, 19002)

	h = NewScoreHandler(&mockScoreService{err: service.ErrUserNotFound})
	w = serve("POST", "/scores/:user_id/calculate", "/scores/nobody/calculate", jsonBody(dto.YearMonthRequest{YearMonth: "2024-03"}), "admin", h.Calculate)
	assertStatus(t, w, http.StatusNotFound, 12001)
}

func TestScoreHandler_Recalculate(t *testing.T) {
	mock := &mockScoreService{}
	h := NewScoreHandler(mock)

	w := serve("POST", "/scores/recalculate", "/scores/recalculate", jsonBody(dto.YearMonthRequest{YearMonth: "2024-03"}), "admin", h.Recalculate)
	assertStatus(t, w, http.StatusOK, 0)
	if mock.recalcedYM != "2024-03" {
		t.Errorf("期望重算 2024-03，实际=%s", mock.recalcedYM)
	}
	if !strings.Contains(w.Body.String(), `"year_month":"2024-03"`) {
		t.Errorf("响应缺少 year_month: %s", w.Body.String())
	}
}
