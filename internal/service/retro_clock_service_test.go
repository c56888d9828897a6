package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"timeclock/internal/dto"
	"timeclock/internal/model"
)

func (e *testEnv) setRetroNow(ts time.Time) {
	e.svc.RetroClock.(*retroClockService).now = func() time.Time { return ts }
}

func TestRetroClockService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setRetroNow(localTime(monday, 20, 0))

	resp, err := env.svc.RetroClock.Create(ctx, env.intern.ID, &dto.CreateRetroClockRequest{
		Date: "2024-03-04", Time: "18:00", Type: "BREAK_START", Reason: "忘记打卡", ImprovementPlan: "设置提醒",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Type != string(model.EventBreakOffsiteStart) {
		t.Errorf("BREAK_START 应映射为外出休息开始，实际=%s", resp.Type)
	}
	if resp.Review.Status != model.RequestStatusPending {
		t.Errorf("期望待审批，实际=%s", resp.Review.Status)
	}

	_, err = env.svc.RetroClock.Create(ctx, env.intern.ID, &dto.CreateRetroClockRequest{
		Date: "2024-03-04", Time: "21:00", Type: string(model.EventWorkOnsiteEnd), Reason: "x", ImprovementPlan: "y",
	})
	if !errors.Is(err, ErrRetroInFuture) {
		t.Errorf("期望 ErrRetroInFuture，实际: %v", err)
	}

	_, err = env.svc.RetroClock.Create(ctx, env.intern.ID, &dto.CreateRetroClockRequest{
		Date: "2024-03-04", Time: "09:00", Type: "LUNCH", Reason: "x", ImprovementPlan: "y",
	})
	if !errors.Is(err, ErrRetroTypeInvalid) {
		t.Errorf("期望 ErrRetroTypeInvalid，实际: %v", err)
	}
}

func TestRetroClockService_Approve_WritesEventAndRecomputes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setRetroNow(localTime(monday, 20, 0))
	env.addEvent(env.intern.ID, model.EventWorkOnsiteStart, localTime(monday, 8, 30))

	retro, err := env.svc.RetroClock.Create(ctx, env.intern.ID, &dto.CreateRetroClockRequest{
		Date: "2024-03-04", Time: "18:00", Type: string(model.EventWorkOnsiteEnd), Reason: "忘记下班卡", ImprovementPlan: "设置提醒",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	resp, err := env.svc.RetroClock.Approve(ctx, retro.ID, &dto.ReviewRequest{Version: retro.Version}, env.admin.ID)
	if err != nil {
		t.Fatalf("Approve 应成功: %v", err)
	}
	if resp.EventID == "" {
		t.Error("通过后应关联写入的事件")
	}

	events := env.mocks.Event.events
	last := events[len(events)-1]
	if last.Source != model.SourceRetroApproved || last.Type != model.EventWorkOnsiteEnd {
		t.Errorf("补录事件不符: %+v", last)
	}
	if !last.Timestamp.Equal(localTime(monday, 18, 0)) {
		t.Errorf("补录时间应为组织时区 18:00，实际=%s", last.Timestamp)
	}

	summary, err := env.mocks.DaySummary.GetByUserDate(ctx, env.intern.ID, monday)
	if err != nil {
		t.Fatalf("通过后应重算日汇总: %v", err)
	}
	if summary.TotalWorkSeconds != 28800 || summary.IsEarlyLeave {
		t.Errorf("重算结果不符: total=%d early=%v", summary.TotalWorkSeconds, summary.IsEarlyLeave)
	}
	if got := env.mocks.AuditLog.actions(); len(got) != 1 || got[0] != model.AuditApproveRetroClock {
		t.Errorf("期望 approve_retro_clock 审计日志，实际=%v", got)
	}
	if msgs := env.notifier.direct[env.intern.SlackUserID]; len(msgs) != 1 {
		t.Errorf("应私信审批结果，实际=%v", msgs)
	}
}

func TestRetroClockService_Reject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setRetroNow(localTime(monday, 20, 0))

	retro, err := env.svc.RetroClock.Create(ctx, env.intern.ID, &dto.CreateRetroClockRequest{
		Date: "2024-03-04", Time: "08:30", Type: string(model.EventWorkOnsiteStart), Reason: "x", ImprovementPlan: "y",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	resp, err := env.svc.RetroClock.Reject(ctx, retro.ID, &dto.ReviewRequest{Notes: "证据不足", Version: retro.Version}, env.admin.ID)
	if err != nil {
		t.Fatalf("Reject 应成功: %v", err)
	}
	if resp.Review.Status != model.RequestStatusRejected || resp.EventID != "" {
		t.Errorf("驳回不应写入事件: %+v", resp)
	}
	if len(env.mocks.Event.events) != 0 {
		t.Errorf("驳回不应写入事件，实际=%d", len(env.mocks.Event.events))
	}

	if _, err := env.svc.RetroClock.Approve(ctx, retro.ID, &dto.ReviewRequest{Version: resp.Version}, env.admin.ID); !errors.Is(err, ErrRequestNotPending) {
		t.Errorf("期望 ErrRequestNotPending，实际: %v", err)
	}
	if _, err := env.svc.RetroClock.Get(ctx, "missing"); !errors.Is(err, ErrRetroNotFound) {
		t.Errorf("期望 ErrRetroNotFound，实际: %v", err)
	}
}

func TestRetroClockService_Stats(t *testing.T) {
	env := newTestEnv(t)
	env.seedApprovedRetros(2)
	_ = env.mocks.RetroClock.Create(context.Background(), &model.RetroClockRequest{
		UserID: env.intern.ID, Date: day(20), Time: "09:00", Type: model.EventWorkOnsiteStart,
	})

	st, err := env.svc.RetroClock.Stats(context.Background(), env.intern.ID, "2024-03")
	if err != nil {
		t.Fatalf("Stats 应成功: %v", err)
	}
	if st.Total != 3 || st.Approved != 2 || st.Pending != 1 {
		t.Errorf("统计不符: %+v", st)
	}
}
