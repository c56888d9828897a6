package service

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"timeclock/internal/dto"
	"timeclock/internal/model"
	"timeclock/pkg/storage"
)

// ── 附件模块业务错误 ──

var (
	ErrAttachmentTooLarge    = errors.New("附件大小不能超过 10MB")
	ErrAttachmentTypeInvalid = errors.New("仅支持 PDF、JPEG、PNG 格式的附件")
	ErrAttachmentForbidden   = errors.New("无权访问该附件")
	ErrAttachmentDisabled    = errors.New("附件存储未启用")
)

// MaxAttachmentSize 单个附件大小上限
const MaxAttachmentSize = 10 << 20

var attachmentContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// AttachmentService 附件业务接口
//
// 对象键格式：{userID}/{uuid}{ext}，请假与补打卡申请中的 attachment_keys 保存该键
type AttachmentService interface {
	Upload(ctx context.Context, userID, filename string, size int64, body io.Reader) (*dto.AttachmentResponse, error)
	// PresignURL 生成限时下载链接；实习生只能访问自己上传的附件
	PresignURL(ctx context.Context, callerID, callerRole, key string) (*dto.AttachmentResponse, error)
}

type attachmentService struct {
	store  storage.ObjectStore
	logger *zap.Logger
}

// NewAttachmentService 创建 AttachmentService 实例
func NewAttachmentService(store storage.ObjectStore, logger *zap.Logger) AttachmentService {
	return &attachmentService{store: store, logger: logger}
}

func (s *attachmentService) Upload(ctx context.Context, userID, filename string, size int64, body io.Reader) (*dto.AttachmentResponse, error) {
	if size > MaxAttachmentSize {
		return nil, ErrAttachmentTooLarge
	}
	ext := strings.ToLower(path.Ext(filename))
	contentType, ok := attachmentContentTypes[ext]
	if !ok {
		return nil, ErrAttachmentTypeInvalid
	}

	key := userID + "/" + uuid.New().String() + ext
	// 多读 1 字节用于识别声明大小与实际内容不符的上传
	limited := io.LimitReader(body, MaxAttachmentSize+1)
	if err := s.store.Put(ctx, key, limited, contentType); err != nil {
		if errors.Is(err, storage.ErrDisabled) {
			return nil, ErrAttachmentDisabled
		}
		s.logger.Error("上传附件失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("附件已上传", zap.String("user_id", userID), zap.String("key", key))
	return &dto.AttachmentResponse{Key: key}, nil
}

func (s *attachmentService) PresignURL(ctx context.Context, callerID, callerRole, key string) (*dto.AttachmentResponse, error) {
	if callerRole != model.RoleAdmin && !strings.HasPrefix(key, callerID+"/") {
		return nil, ErrAttachmentForbidden
	}

	url, err := s.store.PresignGet(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrDisabled) {
			return nil, ErrAttachmentDisabled
		}
		s.logger.Error("生成附件下载链接失败", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return &dto.AttachmentResponse{Key: key, URL: url}, nil
}
