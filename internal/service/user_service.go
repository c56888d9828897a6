package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"timeclock/internal/dto"
	"timeclock/internal/model"
	"timeclock/internal/repository"
)

// ── 用户模块业务错误 ──

var (
	ErrCodeExists            = errors.New("工号已存在")
	ErrEmailExists           = errors.New("邮箱已被使用")
	ErrAdminPasswordRequired = errors.New("管理员账号必须设置密码")
	ErrNotIntern             = errors.New("仅实习生可签发访问令牌")
	ErrUserSelfDeactivate    = errors.New("不能停用自己")
)

// UserService 用户业务接口
type UserService interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.UserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error)
	ResetPassword(ctx context.Context, id string, req *dto.ResetPasswordRequest, callerID string) error
	// IssueAccessToken 为实习生签发新的访问令牌，旧令牌立即失效；明文只返回一次
	IssueAccessToken(ctx context.Context, id string, callerID string) (*dto.IssueAccessTokenResponse, error)
	ParseImportFile(reader io.Reader) ([]ImportUserRow, error)
	ImportInterns(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error)
}

// ImportUserRow Excel 导入解析后的单行数据
type ImportUserRow struct {
	Row         int
	Code        string
	Name        string
	Email       string
	SlackUserID string
}

type userService struct {
	repo   *repository.Repository
	config SystemConfigService
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, config SystemConfigService, loc *time.Location, logger *zap.Logger) UserService {
	return &userService{repo: repo, config: config, loc: loc, now: time.Now, logger: logger}
}

// ────────────────────── CreateUser ──────────────────────

func (s *userService) CreateUser(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.UserResponse, error) {
	if err := s.checkUnique(ctx, "", req.Code, req.Email); err != nil {
		return nil, err
	}

	user := &model.User{
		Code:        req.Code,
		Name:        req.Name,
		Email:       req.Email,
		Role:        req.Role,
		SlackUserID: req.SlackUserID,
		IsActive:    true,
	}
	user.CreatedBy = &callerID

	if req.Role == model.RoleAdmin {
		if req.Password == "" {
			return nil, ErrAdminPasswordRequired
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error("密码哈希失败", zap.Error(err))
			return nil, err
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户已创建", zap.String("code", user.Code), zap.String("role", user.Role))
	resp := toUserResponse(user)
	return &resp, nil
}

// checkUnique 校验工号、邮箱唯一；selfID 非空时排除自身
func (s *userService) checkUnique(ctx context.Context, selfID, code, email string) error {
	if code != "" {
		if existing, err := s.repo.User.GetByCode(ctx, code); err == nil && existing.ID != selfID {
			return ErrCodeExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	if email != "" {
		if existing, err := s.repo.User.GetByEmail(ctx, email); err == nil && existing.ID != selfID {
			return ErrEmailExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	filter := repository.UserFilter{
		Role:     req.Role,
		IsActive: req.IsActive,
		Keyword:  req.Keyword,
	}

	users, total, err := s.repo.User.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	// 应用更新字段（仅更新非 nil 字段）
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		if err := s.checkUnique(ctx, id, "", *req.Email); err != nil {
			return nil, err
		}
		user.Email = *req.Email
	}
	if req.SlackUserID != nil {
		user.SlackUserID = *req.SlackUserID
	}
	if req.IsActive != nil {
		if !*req.IsActive && id == callerID {
			return nil, ErrUserSelfDeactivate
		}
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *userService) ResetPassword(ctx context.Context, id string, req *dto.ResetPasswordRequest, callerID string) error {
	user, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}
	user.PasswordHash = string(hash)
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("重置密码失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── IssueAccessToken ──────────────────────

func (s *userService) IssueAccessToken(ctx context.Context, id string, callerID string) (*dto.IssueAccessTokenResponse, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsIntern() {
		return nil, ErrNotIntern
	}

	days, err := s.config.GetInt(ctx, KeyTokenExpiryDays)
	if err != nil {
		return nil, err
	}

	token := newAccessToken()
	expiresAt := s.now().AddDate(0, 0, days)

	user.AccessTokenHash = HashAccessToken(token)
	user.TokenExpiresAt = &expiresAt
	user.UpdatedBy = &callerID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.User.Update(ctx, user); err != nil {
			return err
		}
		return tx.AuditLog.Create(ctx, &model.AuditLog{
			ActorID:    callerID,
			Action:     model.AuditIssueAccessToken,
			TargetType: "user",
			TargetID:   user.ID,
			Changes:    model.JSONMap{"expires_at": expiresAt.UTC().Format(time.RFC3339)},
		})
	})
	if err != nil {
		s.logger.Error("签发访问令牌失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("已签发实习生访问令牌", zap.String("code", user.Code), zap.Int("expiry_days", days))
	return &dto.IssueAccessTokenResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.In(s.loc).Format(time.RFC3339),
	}, nil
}

// newAccessToken 两个 UUIDv4 去掉连字符拼接，共 244 位随机量
func newAccessToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 500

var (
	ErrImportNoData      = errors.New("Excel文件无数据行（第一行为表头）")
	ErrImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxImportRows)
	ErrImportBadHeader   = errors.New("Excel表头缺少必要列（工号/姓名/邮箱）")
)

// ParseImportFile 解析实习生名单 Excel，返回解析后的行数据
func (s *userService) ParseImportFile(reader io.Reader) ([]ImportUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析Excel文件: %w", err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	// 解析表头（支持灵活列序）
	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["code"] < 0 || colIndex["name"] < 0 || colIndex["email"] < 0 {
		return nil, ErrImportBadHeader
	}

	cellAt := func(row []string, key string) string {
		idx := colIndex[key]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rows []ImportUserRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportUserRow{
			Row:         i + 1,
			Code:        cellAt(row, "code"),
			Name:        cellAt(row, "name"),
			Email:       cellAt(row, "email"),
			SlackUserID: cellAt(row, "slack"),
		}
		// 跳过全空行
		if item.Code == "" && item.Name == "" && item.Email == "" && item.SlackUserID == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// parseHeaderIndex 解析 Excel 表头，返回列名 -> 列索引映射
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{"code": -1, "name": -1, "email": -1, "slack": -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "工号", "code":
			idx["code"] = i
		case "姓名", "name":
			idx["name"] = i
		case "邮箱", "email":
			idx["email"] = i
		case "slack", "slack_user_id", "slack id":
			idx["slack"] = i
		}
	}
	return idx
}

// ────────────────────── ImportInterns ──────────────────────

func (s *userService) ImportInterns(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error) {
	resp := &dto.ImportUserResponse{Total: len(rows)}
	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row, Reason: reason})
	}

	// 第一阶段：数据预校验（不接触数据库写操作）
	var valid []ImportUserRow
	seenCode := make(map[string]bool, len(rows))
	seenEmail := make(map[string]bool, len(rows))
	for _, row := range rows {
		if row.Code == "" || row.Name == "" || row.Email == "" {
			fail(row.Row, "必填字段为空")
			continue
		}
		if seenCode[row.Code] || seenEmail[row.Email] {
			fail(row.Row, "文件内工号或邮箱重复")
			continue
		}
		if err := s.checkUnique(ctx, "", row.Code, row.Email); err != nil {
			if errors.Is(err, ErrCodeExists) || errors.Is(err, ErrEmailExists) {
				fail(row.Row, err.Error())
				continue
			}
			return nil, err
		}
		seenCode[row.Code] = true
		seenEmail[row.Email] = true
		valid = append(valid, row)
	}

	// 第二阶段：在事务中批量创建所有通过校验的用户
	if len(valid) == 0 {
		return resp, nil
	}
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, row := range valid {
			user := &model.User{
				Code:        row.Code,
				Name:        row.Name,
				Email:       row.Email,
				Role:        model.RoleIntern,
				SlackUserID: row.SlackUserID,
				IsActive:    true,
			}
			user.CreatedBy = &callerID
			if err := tx.User.Create(ctx, user); err != nil {
				return fmt.Errorf("第 %d 行写入数据库失败，已回滚全部导入: %w", row.Row, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("导入实习生失败，事务回滚", zap.Error(err))
		return nil, err
	}
	resp.Success = len(valid)
	return resp, nil
}

// ── 转换 ──

// toUserResponse 将 model.User 转换为 dto.UserResponse
func toUserResponse(user *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:          user.ID,
		Code:        user.Code,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		SlackUserID: user.SlackUserID,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
	}
	if user.TokenExpiresAt != nil {
		resp.TokenExpiresAt = user.TokenExpiresAt.Format(time.RFC3339)
	}
	return resp
}
