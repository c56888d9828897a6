package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"timeclock/internal/service"
	"timeclock/pkg/response"
)

// AttachmentHandler 附件模块 HTTP 处理器
type AttachmentHandler struct {
	attachmentSvc service.AttachmentService
}

// NewAttachmentHandler 创建 AttachmentHandler
func NewAttachmentHandler(attachmentSvc service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentSvc: attachmentSvc}
}

// Upload 上传请假 / 补打卡证明材料，返回对象 key
// POST /api/v1/attachments (multipart/form-data, 字段 file)
func (h *AttachmentHandler) Upload(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		bindFailed(c, err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.InternalError(c)
		return
	}
	defer f.Close()

	result, err := h.attachmentSvc.Upload(c.Request.Context(), userID, fh.Filename, fh.Size, f)
	if err != nil {
		h.handleAttachmentError(c, err)
		return
	}

	response.Created(c, result)
}

// PresignURL 获取附件的临时下载链接
// GET /api/v1/attachments/url?key=xxx
func (h *AttachmentHandler) PresignURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		response.BadRequest(c, 10001, "key 不能为空")
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	result, err := h.attachmentSvc.PresignURL(c.Request.Context(), userID, role, key)
	if err != nil {
		h.handleAttachmentError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *AttachmentHandler) handleAttachmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAttachmentTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, 20001, service.ErrAttachmentTooLarge.Error())
	case errors.Is(err, service.ErrAttachmentTypeInvalid):
		response.BadRequest(c, 20002, service.ErrAttachmentTypeInvalid.Error())
	case errors.Is(err, service.ErrAttachmentForbidden):
		response.Forbidden(c, 20003, service.ErrAttachmentForbidden.Error())
	case errors.Is(err, service.ErrAttachmentDisabled):
		response.ServiceUnavailable(c, 20004, service.ErrAttachmentDisabled.Error())
	default:
		handleCommonError(c, err)
	}
}
