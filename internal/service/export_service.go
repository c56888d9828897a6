package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"timeclock/internal/model"
	"timeclock/internal/repository"
	"timeclock/pkg/timeutil"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoData       = errors.New("该月份暂无可导出的数据")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

const (
	sheetScores     = "月度积分"
	sheetAttendance = "出勤明细"
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 月度报表导出为 Excel (.xlsx)，两个 Sheet：月度积分排名、每日出勤明细
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportMonth 导出月度积分与出勤明细
	ExportMonth(ctx context.Context, yearMonth string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportMonth — 导出月度报表
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "月度积分"：排名 | 工号 | 姓名 | 基础分 | 扣分 | 加分 | 最终得分
//   - Sheet "出勤明细"：日期 | 工号 | 姓名 | 类型 | 工时 | 迟到 | 早退 | 缺勤 | 预先告知 | 备注
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportMonth(ctx context.Context, yearMonth string) (*bytes.Buffer, string, error) {
	first, last, err := timeutil.ParseYearMonth(yearMonth)
	if err != nil {
		return nil, "", ErrInvalidYearMonth
	}

	// 1. 查询数据
	scores, err := s.repo.Score.ListByMonth(ctx, yearMonth)
	if err != nil {
		s.logger.Error("查询月度积分失败", zap.Error(err))
		return nil, "", err
	}
	summaries, err := s.repo.DaySummary.ListBetween(ctx, first, last)
	if err != nil {
		s.logger.Error("查询日汇总失败", zap.Error(err))
		return nil, "", err
	}
	if len(scores) == 0 && len(summaries) == 0 {
		return nil, "", ErrExportNoData
	}

	// 2. 用户索引：user_id → (工号, 姓名)
	users, _, err := s.repo.User.List(ctx, repository.UserFilter{}, -1, -1)
	if err != nil {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, "", err
	}
	userIndex := make(map[string]model.User, len(users))
	for _, u := range users {
		userIndex[u.ID] = u
	}
	for _, sc := range scores {
		if sc.User != nil {
			userIndex[sc.UserID] = *sc.User
		}
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	idx, _ := f.NewSheet(sheetScores)
	f.SetActiveSheet(idx)
	f.NewSheet(sheetAttendance)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	// ── 月度积分 ──
	scoreHeaders := []string{"排名", "工号", "姓名", "基础分", "扣分", "加分", "最终得分"}
	writeHeader(f, sheetScores, scoreHeaders, headerStyle)
	f.SetColWidth(sheetScores, "A", "A", 8)
	f.SetColWidth(sheetScores, "B", "C", 16)
	f.SetColWidth(sheetScores, "D", "G", 12)

	for i, sc := range scores {
		row := i + 2
		u := userIndex[sc.UserID]
		deduction, _ := sc.TotalDeduction.Float64()
		bonus, _ := sc.BonusPoints.Float64()
		final, _ := sc.FinalScore.Float64()
		base, _ := sc.BaseScore.Float64()
		values := []interface{}{i + 1, u.Code, u.Name, base, deduction, bonus, final}
		for c, v := range values {
			f.SetCellValue(sheetScores, cell(colName(c), row), v)
		}
	}

	// ── 出勤明细 ──
	attHeaders := []string{"日期", "工号", "姓名", "类型", "工时(小时)", "迟到(分钟)", "早退(分钟)", "缺勤", "预先告知", "备注"}
	writeHeader(f, sheetAttendance, attHeaders, headerStyle)
	f.SetColWidth(sheetAttendance, "A", "A", 12)
	f.SetColWidth(sheetAttendance, "B", "D", 16)
	f.SetColWidth(sheetAttendance, "E", "I", 12)
	f.SetColWidth(sheetAttendance, "J", "J", 48)

	for i, d := range summaries {
		row := i + 2
		u := userIndex[d.UserID]
		values := []interface{}{
			timeutil.FormatDate(d.Date),
			u.Code,
			u.Name,
			dayKindLabel(d.DayKind),
			round2(float64(d.TotalWorkSeconds) / 3600),
			d.LateMinutes,
			d.EarlyLeaveMinutes,
			yesNo(d.DayKind == model.DayKindWorkdayAbsent),
			yesNo(d.HasAdvanceNotice),
			d.StatusNotes,
		}
		for c, v := range values {
			f.SetCellValue(sheetAttendance, cell(colName(c), row), v)
		}
	}

	// 4. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("考勤月报_%s.xlsx", yearMonth)
	return buf, filename, nil
}

// ── 辅助函数 ──

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		f.SetCellValue(sheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheet, "A1", cell(colName(len(headers)-1), 1), style)
}

func dayKindLabel(k model.DayKind) string {
	switch k {
	case model.DayKindWorkdayPresent:
		return "出勤"
	case model.DayKindWorkdayAbsent:
		return "缺勤"
	default:
		return "非排班日"
	}
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
