package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"timeclock/internal/model"
)

func (e *testEnv) setReminderNow(ts time.Time) {
	e.svc.Reminder.(*reminderService).now = func() time.Time { return ts }
}

// addIntern 追加一名实习生；withTerm 为 true 时同时创建覆盖三月的已确认实习期
func (e *testEnv) addIntern(id, code, slackID string, withTerm bool) {
	ctx := context.Background()
	_ = e.mocks.User.Create(ctx, &model.User{
		ID: id, Code: code, Name: code, Email: code + "@example.com",
		Role: model.RoleIntern, SlackUserID: slackID, IsActive: true,
	})
	if withTerm {
		_ = e.mocks.Term.Create(ctx, &model.InternshipTerm{
			UserID:       id,
			StartDate:    day(1),
			EndDate:      day(31),
			Status:       model.TermStatusConfirmed,
			BaseSchedule: weekdaySchedule(),
		})
	}
}

func TestReminderService_MissingClockIn(t *testing.T) {
	env := newTestEnv(t)
	env.addIntern("u2", "S002", "", true)
	env.addIntern("u3", "S003", "USLACK3", false)
	env.setReminderNow(localTime(monday, 10, 0))

	result, err := env.svc.Reminder.Remind(context.Background(), "", false)
	if err != nil {
		t.Fatalf("Remind 应成功: %v", err)
	}
	if result.Date != "2024-03-04" {
		t.Errorf("未指定日期时应取组织时区的今天，实际=%s", result.Date)
	}
	if result.ClockInSent != 1 {
		t.Errorf("期望发送 1 条上班提醒，实际=%d", result.ClockInSent)
	}
	if len(result.Failed) != 1 || result.Failed[0] != "S002" {
		t.Errorf("未绑定 Slack 的用户应记为失败，实际=%v", result.Failed)
	}
	if result.SkippedNoTerm != 1 {
		t.Errorf("无实习期用户应跳过，实际=%d", result.SkippedNoTerm)
	}
	msgs := env.notifier.direct[env.intern.SlackUserID]
	if len(msgs) != 1 || !strings.Contains(msgs[0], "尚未上班打卡") {
		t.Errorf("提醒内容不符: %v", msgs)
	}
}

func TestReminderService_WithinGraceNoReminder(t *testing.T) {
	env := newTestEnv(t)
	env.setReminderNow(localTime(monday, 8, 35))

	result, err := env.svc.Reminder.Remind(context.Background(), "", false)
	if err != nil {
		t.Fatalf("Remind 应成功: %v", err)
	}
	if result.ClockInSent != 0 {
		t.Errorf("宽限内不应提醒，实际=%d", result.ClockInSent)
	}
}

func TestReminderService_MissingClockOut(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(env.intern.ID, model.EventWorkOnsiteStart, localTime(monday, 8, 30))
	env.setReminderNow(localTime(monday, 19, 0))

	result, err := env.svc.Reminder.Remind(context.Background(), "2024-03-04", false)
	if err != nil {
		t.Fatalf("Remind 应成功: %v", err)
	}
	if result.ClockOutSent != 1 || result.ClockInSent != 0 {
		t.Errorf("期望 1 条下班提醒，实际=%+v", result)
	}

	env.addEvent(env.intern.ID, model.EventWorkOnsiteEnd, localTime(monday, 18, 30))
	result, err = env.svc.Reminder.Remind(context.Background(), "2024-03-04", false)
	if err != nil {
		t.Fatalf("Remind 应成功: %v", err)
	}
	if result.ClockOutSent != 0 {
		t.Errorf("已下班不应提醒，实际=%d", result.ClockOutSent)
	}
}

func TestReminderService_NonWorkday(t *testing.T) {
	env := newTestEnv(t)
	saturday := monday.AddDate(0, 0, 5)
	env.setReminderNow(localTime(saturday, 12, 0))

	result, err := env.svc.Reminder.Remind(context.Background(), "", false)
	if err != nil {
		t.Fatalf("Remind 应成功: %v", err)
	}
	if result.ClockInSent != 0 || result.ClockOutSent != 0 {
		t.Errorf("非排班日不应提醒: %+v", result)
	}
}

func TestReminderService_Digest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setReminderNow(localTime(monday, 8, 0))

	result, err := env.svc.Reminder.Remind(ctx, "", true)
	if err != nil {
		t.Fatalf("Remind 应成功: %v", err)
	}
	if result.DigestSent || result.DigestMonth != "2024-03" {
		t.Errorf("无积分记录时不应发送排名: %+v", result)
	}

	if _, err := env.svc.Score.RecalculateMonth(ctx, "2024-03"); err != nil {
		t.Fatalf("RecalculateMonth 应成功: %v", err)
	}
	result, err = env.svc.Reminder.Remind(ctx, "", true)
	if err != nil {
		t.Fatalf("Remind 应成功: %v", err)
	}
	if !result.DigestSent || len(env.notifier.broadcasts) != 1 {
		t.Errorf("期望广播一次排名，实际=%+v broadcasts=%d", result, len(env.notifier.broadcasts))
	}
}

func TestReminderService_InvalidDate(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.Reminder.Remind(context.Background(), "03/04", false); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("期望 ErrInvalidDate，实际: %v", err)
	}
}
