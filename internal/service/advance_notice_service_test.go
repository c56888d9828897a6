package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"timeclock/internal/dto"
	"timeclock/internal/model"
)

func (e *testEnv) setNoticeNow(ts time.Time) {
	e.svc.AdvanceNotice.(*advanceNoticeService).now = func() time.Time { return ts }
}

func TestAdvanceNoticeService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setNoticeNow(localTime(monday, 7, 30))

	resp, err := env.svc.AdvanceNotice.Create(ctx, env.intern.ID, &dto.CreateAdvanceNoticeRequest{
		NoticeType:   model.NoticeTypeLate,
		ExpectedDate: "2024-03-04",
		Reason:       "地铁故障",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.IsUsed {
		t.Error("新建告知应为未使用")
	}
	if resp.Source != model.SourceWeb {
		t.Errorf("未指定来源时应为 WEB，实际=%s", resp.Source)
	}
}

func TestAdvanceNoticeService_Create_PastDate(t *testing.T) {
	env := newTestEnv(t)
	env.setNoticeNow(localTime(monday, 7, 0))

	_, err := env.svc.AdvanceNotice.Create(context.Background(), env.intern.ID, &dto.CreateAdvanceNoticeRequest{
		NoticeType:   model.NoticeTypeLeave,
		ExpectedDate: "2024-03-03",
		Reason:       "补交",
	})
	if !errors.Is(err, ErrNoticeDatePast) {
		t.Errorf("期望 ErrNoticeDatePast，实际: %v", err)
	}
}

func TestAdvanceNoticeService_Create_LateDeadline(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		typ     string
		wantErr error
	}{
		// 排班 08:30 开始，advance_notice_minutes 默认 30，截止 08:00
		{"截止前提交", localTime(monday, 8, 0), model.NoticeTypeLate, nil},
		{"截止后提交", localTime(monday, 8, 1), model.NoticeTypeLate, ErrNoticeTooLate},
		{"请假告知不受截止限制", localTime(monday, 10, 0), model.NoticeTypeLeave, nil},
		{"次日迟到告知不受限制", localTime(monday.AddDate(0, 0, -1), 23, 0), model.NoticeTypeLate, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.setNoticeNow(tt.now)

			_, err := env.svc.AdvanceNotice.Create(context.Background(), env.intern.ID, &dto.CreateAdvanceNoticeRequest{
				NoticeType:   tt.typ,
				ExpectedDate: "2024-03-04",
				Reason:       "测试",
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望错误 %v，实际: %v", tt.wantErr, err)
			}
		})
	}
}

func TestAdvanceNoticeService_ListAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setNoticeNow(localTime(monday, 6, 0))

	for _, req := range []dto.CreateAdvanceNoticeRequest{
		{NoticeType: model.NoticeTypeLate, ExpectedDate: "2024-03-04", Reason: "a"},
		{NoticeType: model.NoticeTypeLate, ExpectedDate: "2024-03-05", Reason: "b"},
		{NoticeType: model.NoticeTypeLeave, ExpectedDate: "2024-03-06", Reason: "c"},
		{NoticeType: model.NoticeTypeLeave, ExpectedDate: "2024-04-01", Reason: "d"},
	} {
		req := req
		if _, err := env.svc.AdvanceNotice.Create(ctx, env.intern.ID, &req); err != nil {
			t.Fatalf("Create 应成功: %v", err)
		}
	}
	_, _ = env.mocks.AdvanceNotice.MarkUsed(ctx, env.mocks.AdvanceNotice.notices[0].ID)

	unused := false
	list, err := env.svc.AdvanceNotice.ListMine(ctx, env.intern.ID, &unused)
	if err != nil {
		t.Fatalf("ListMine 应成功: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("期望 3 条未使用告知，实际=%d", len(list))
	}

	st, err := env.svc.AdvanceNotice.Stats(ctx, env.intern.ID, "2024-03")
	if err != nil {
		t.Fatalf("Stats 应成功: %v", err)
	}
	if st.Total != 3 || st.LateCount != 2 || st.LeaveCount != 1 || st.UsedCount != 1 {
		t.Errorf("统计不符: %+v", st)
	}
}
