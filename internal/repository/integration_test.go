package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"timeclock/config"
	"timeclock/internal/model"
	"timeclock/internal/repository"
	"timeclock/pkg/database"
	pkgerrors "timeclock/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

// setupTestRepo 每个测试使用独立的 sqlite 内存库
func setupTestRepo(t *testing.T) (*repository.Repository, *gorm.DB) {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.NewDB(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("打开 sqlite 失败: %v", err)
	}
	if err := database.Migrate(db, "sqlite", model.AllModels(), logger); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repository.NewRepository(db), db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createUser(t *testing.T, repo *repository.Repository, code, name string) *model.User {
	t.Helper()
	u := &model.User{Code: code, Name: name, Email: code + "@example.com", Role: model.RoleIntern, IsActive: true}
	if err := repo.User.Create(context.Background(), u); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	return u
}

// ═══════════════════════════════════════════════════════════
// User
// ═══════════════════════════════════════════════════════════

func TestUserRepo_CRUD(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	u := createUser(t, repo, "S001", "张三")
	if u.ID == "" {
		t.Fatal("创建后应生成 UUID 主键")
	}
	createUser(t, repo, "S002", "李四")

	got, err := repo.User.GetByCode(ctx, "S001")
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetByCode 不符: %+v err=%v", got, err)
	}
	if _, err := repo.User.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，实际: %v", err)
	}

	got.AccessTokenHash = "abc123"
	if err := repo.User.Update(ctx, got); err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	byHash, err := repo.User.GetByAccessTokenHash(ctx, "abc123")
	if err != nil || byHash.Code != "S001" {
		t.Errorf("GetByAccessTokenHash 不符: %+v err=%v", byHash, err)
	}

	list, total, err := repo.User.List(ctx, repository.UserFilter{Keyword: "李"}, 0, 10)
	if err != nil || total != 1 || list[0].Code != "S002" {
		t.Errorf("关键字过滤不符: total=%d list=%+v err=%v", total, list, err)
	}

	interns, err := repo.User.ListActiveInterns(ctx)
	if err != nil || len(interns) != 2 || interns[0].Code != "S001" {
		t.Errorf("ListActiveInterns 不符: %+v err=%v", interns, err)
	}
}

// ═══════════════════════════════════════════════════════════
// Term
// ═══════════════════════════════════════════════════════════

func TestTermRepo_OptimisticLockAndCovering(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "S001", "张三")

	schedule := model.WeeklySchedule{"monday": {Start: "08:30", End: "18:00"}}
	early := &model.InternshipTerm{UserID: u.ID, StartDate: date(2024, 2, 1), EndDate: date(2024, 6, 30), Status: model.TermStatusConfirmed, BaseSchedule: schedule}
	late := &model.InternshipTerm{UserID: u.ID, StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 31), Status: model.TermStatusPending, BaseSchedule: schedule}
	for _, term := range []*model.InternshipTerm{early, late} {
		if err := repo.Term.Create(ctx, term); err != nil {
			t.Fatalf("创建实习期失败: %v", err)
		}
	}

	// 未确认的实习期不参与排班解析
	covering, err := repo.Term.ListConfirmedCovering(ctx, u.ID, date(2024, 3, 4))
	if err != nil || len(covering) != 1 || covering[0].ID != early.ID {
		t.Fatalf("仅已确认实习期应命中: %+v err=%v", covering, err)
	}

	stale := *late
	late.Status = model.TermStatusConfirmed
	if err := repo.Term.Update(ctx, late); err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	if late.Version != 2 {
		t.Errorf("更新后版本应为 2，实际=%d", late.Version)
	}
	stale.Status = model.TermStatusCancelled
	if err := repo.Term.Update(ctx, &stale); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("旧版本更新应返回 ErrOptimisticLock，实际: %v", err)
	}

	covering, _ = repo.Term.ListConfirmedCovering(ctx, u.ID, date(2024, 3, 4))
	if len(covering) != 2 || covering[0].ID != late.ID {
		t.Errorf("起始日期较晚者应排在前面: %+v", covering)
	}
	if covering[0].BaseSchedule["monday"].Start != "08:30" {
		t.Errorf("排班 JSON 读回不符: %+v", covering[0].BaseSchedule)
	}
}

// ═══════════════════════════════════════════════════════════
// DaySummary
// ═══════════════════════════════════════════════════════════

func TestDaySummaryRepo_UpsertOverwrites(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "S001", "张三")

	first := &model.DaySummary{UserID: u.ID, Date: date(2024, 3, 4), DayKind: model.DayKindWorkdayPresent, TotalWorkSeconds: 3600, IsLate: true, LateMinutes: 40}
	if err := repo.DaySummary.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert 失败: %v", err)
	}
	second := &model.DaySummary{UserID: u.ID, Date: date(2024, 3, 4), DayKind: model.DayKindWorkdayPresent, TotalWorkSeconds: 28680}
	if err := repo.DaySummary.Upsert(ctx, second); err != nil {
		t.Fatalf("二次 Upsert 失败: %v", err)
	}

	got, err := repo.DaySummary.GetByUserDate(ctx, u.ID, date(2024, 3, 4))
	if err != nil {
		t.Fatalf("GetByUserDate 失败: %v", err)
	}
	if got.TotalWorkSeconds != 28680 || got.IsLate || got.LateMinutes != 0 {
		t.Errorf("重算应整行覆盖派生字段，实际=%+v", got)
	}

	list, _ := repo.DaySummary.ListBetween(ctx, date(2024, 3, 1), date(2024, 3, 31))
	if len(list) != 1 {
		t.Errorf("同一 (user, date) 只应有一行，实际=%d", len(list))
	}
}

// ═══════════════════════════════════════════════════════════
// AdvanceNotice
// ═══════════════════════════════════════════════════════════

func TestAdvanceNoticeRepo_MarkUsedOnce(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "S001", "张三")

	n := &model.AdvanceNotice{UserID: u.ID, NoticeType: model.NoticeTypeLate, ExpectedDate: date(2024, 3, 4), Reason: "地铁故障", Source: model.SourceWeb}
	if err := repo.AdvanceNotice.Create(ctx, n); err != nil {
		t.Fatalf("创建告知失败: %v", err)
	}

	found, err := repo.AdvanceNotice.FirstUnused(ctx, u.ID, date(2024, 3, 4))
	if err != nil || found.ID != n.ID {
		t.Fatalf("FirstUnused 不符: %+v err=%v", found, err)
	}

	changed, err := repo.AdvanceNotice.MarkUsed(ctx, n.ID)
	if err != nil || !changed {
		t.Fatalf("首次 MarkUsed 应生效: changed=%v err=%v", changed, err)
	}
	changed, _ = repo.AdvanceNotice.MarkUsed(ctx, n.ID)
	if changed {
		t.Error("已使用的告知不应再次变更")
	}
	if _, err := repo.AdvanceNotice.FirstUnused(ctx, u.ID, date(2024, 3, 4)); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，实际: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Score
// ═══════════════════════════════════════════════════════════

func TestScoreRepo_GetOrCreateAndRanking(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	a := createUser(t, repo, "S001", "张三")
	b := createUser(t, repo, "S002", "李四")

	rec, err := repo.Score.GetOrCreate(ctx, a.ID, "2024-03")
	if err != nil {
		t.Fatalf("GetOrCreate 失败: %v", err)
	}
	again, err := repo.Score.GetOrCreate(ctx, a.ID, "2024-03")
	if err != nil || again.ID != rec.ID {
		t.Fatalf("重复 GetOrCreate 应返回同一记录: %v", err)
	}
	if again.Status != model.ScoreStatusCalculating {
		t.Errorf("新记录应为 CALCULATING，实际=%s", again.Status)
	}

	related := date(2024, 3, 4)
	details := []model.ScoreDetail{
		{ScoreRecordID: rec.ID, Seq: 2, ReasonType: model.ReasonRetro, PointsDelta: decimal.NewFromInt(-1)},
		{ScoreRecordID: rec.ID, Seq: 1, ReasonType: model.ReasonLate, RelatedDate: &related, PointsDelta: decimal.NewFromInt(-1)},
	}
	if err := repo.Score.CreateDetails(ctx, details); err != nil {
		t.Fatalf("CreateDetails 失败: %v", err)
	}
	listed, _ := repo.Score.ListDetails(ctx, rec.ID)
	if len(listed) != 2 || listed[0].ReasonType != model.ReasonLate {
		t.Errorf("明细应按 seq 排序: %+v", listed)
	}

	rec.TotalDeduction = decimal.NewFromInt(2)
	rec.FinalScore = decimal.NewFromInt(98)
	rec.Status = model.ScoreStatusFinal
	if err := repo.Score.UpdateTotals(ctx, rec); err != nil {
		t.Fatalf("UpdateTotals 失败: %v", err)
	}

	other, _ := repo.Score.GetOrCreate(ctx, b.ID, "2024-03")
	other.FinalScore = decimal.NewFromInt(103)
	other.Status = model.ScoreStatusFinal
	_ = repo.Score.UpdateTotals(ctx, other)

	ranking, err := repo.Score.ListByMonth(ctx, "2024-03")
	if err != nil || len(ranking) != 2 {
		t.Fatalf("ListByMonth 不符: %+v err=%v", ranking, err)
	}
	if ranking[0].UserID != b.ID || ranking[0].User == nil || ranking[0].User.Name != "李四" {
		t.Errorf("应按最终得分降序并预加载用户: %+v", ranking[0])
	}
	if !ranking[1].FinalScore.Equal(decimal.NewFromInt(98)) {
		t.Errorf("最终得分读回不符: %s", ranking[1].FinalScore)
	}

	if err := repo.Score.DeleteDetails(ctx, rec.ID); err != nil {
		t.Fatalf("DeleteDetails 失败: %v", err)
	}
	if listed, _ := repo.Score.ListDetails(ctx, rec.ID); len(listed) != 0 {
		t.Errorf("删除后不应有明细，实际=%d", len(listed))
	}
}

// ═══════════════════════════════════════════════════════════
// SystemConfig & Transaction
// ═══════════════════════════════════════════════════════════

func TestSystemConfigRepo(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.SystemConfig.CreateIfMissing(ctx, &model.SystemConfigEntry{Key: "late_grace_minutes", Value: "5", Category: model.ConfigCategoryRules})
	if err != nil || !created {
		t.Fatalf("首次 CreateIfMissing 应新建: created=%v err=%v", created, err)
	}
	created, _ = repo.SystemConfig.CreateIfMissing(ctx, &model.SystemConfigEntry{Key: "late_grace_minutes", Value: "99", Category: model.ConfigCategoryRules})
	if created {
		t.Error("已存在的键不应被覆盖")
	}

	if err := repo.SystemConfig.UpdateValue(ctx, "late_grace_minutes", "10", nil); err != nil {
		t.Fatalf("UpdateValue 失败: %v", err)
	}
	entry, _ := repo.SystemConfig.Get(ctx, "late_grace_minutes")
	if entry.Value != "10" {
		t.Errorf("期望 10，实际=%s", entry.Value)
	}

	if err := repo.SystemConfig.UpdateValue(ctx, "no_such_key", "1", nil); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，实际: %v", err)
	}
}

func TestRepository_TransactionRollback(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.User.Create(ctx, &model.User{Code: "S009", Name: "回滚", Email: "s009@example.com", Role: model.RoleIntern, IsActive: true}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("期望返回 fn 的错误，实际: %v", err)
	}
	if _, err := repo.User.GetByCode(ctx, "S009"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("事务回滚后不应存在该用户，实际: %v", err)
	}
}
