package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"

	"timeclock/internal/model"
	"timeclock/pkg/storage"
)

// ── Mock ObjectStore ──

type mockObjectStore struct {
	objects map[string][]byte
	types   map[string]string
}

func newMockObjectStore() *mockObjectStore {
	return &mockObjectStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *mockObjectStore) Put(_ context.Context, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *mockObjectStore) PresignGet(_ context.Context, key string) (string, error) {
	return "https://files.example.com/" + key + "?sig=x", nil
}

func (m *mockObjectStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func TestAttachmentService_Upload(t *testing.T) {
	store := newMockObjectStore()
	svc := NewAttachmentService(store, zap.NewNop())

	resp, err := svc.Upload(context.Background(), "u1", "诊断证明.PDF", 4, strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("Upload 应成功: %v", err)
	}
	if !strings.HasPrefix(resp.Key, "u1/") || !strings.HasSuffix(resp.Key, ".pdf") {
		t.Errorf("对象键格式不符: %s", resp.Key)
	}
	if store.types[resp.Key] != "application/pdf" {
		t.Errorf("Content-Type 不符: %s", store.types[resp.Key])
	}
	if string(store.objects[resp.Key]) != "%PDF" {
		t.Error("附件内容应原样写入")
	}
}

func TestAttachmentService_Upload_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		store    storage.ObjectStore
		wantErr  error
	}{
		{"超过大小上限", "a.png", MaxAttachmentSize + 1, newMockObjectStore(), ErrAttachmentTooLarge},
		{"不支持的类型", "a.docx", 10, newMockObjectStore(), ErrAttachmentTypeInvalid},
		{"无扩展名", "README", 10, newMockObjectStore(), ErrAttachmentTypeInvalid},
		{"存储未启用", "a.jpg", 10, storage.Disabled{}, ErrAttachmentDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAttachmentService(tt.store, zap.NewNop())
			_, err := svc.Upload(context.Background(), "u1", tt.filename, tt.size, bytes.NewReader(make([]byte, 10)))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
		})
	}
}

func TestAttachmentService_PresignURL(t *testing.T) {
	svc := NewAttachmentService(newMockObjectStore(), zap.NewNop())
	ctx := context.Background()

	resp, err := svc.PresignURL(ctx, "u1", model.RoleIntern, "u1/abc.pdf")
	if err != nil {
		t.Fatalf("本人附件应可访问: %v", err)
	}
	if resp.URL == "" || resp.Key != "u1/abc.pdf" {
		t.Errorf("响应不符: %+v", resp)
	}

	if _, err := svc.PresignURL(ctx, "u1", model.RoleIntern, "u2/abc.pdf"); !errors.Is(err, ErrAttachmentForbidden) {
		t.Errorf("期望 ErrAttachmentForbidden，实际: %v", err)
	}
	// 前缀须带分隔符，u1 不能访问 u10 的附件
	if _, err := svc.PresignURL(ctx, "u1", model.RoleIntern, "u10/abc.pdf"); !errors.Is(err, ErrAttachmentForbidden) {
		t.Errorf("期望 ErrAttachmentForbidden，实际: %v", err)
	}
	if _, err := svc.PresignURL(ctx, "a1", model.RoleAdmin, "u2/abc.pdf"); err != nil {
		t.Errorf("管理员应可访问任意附件，实际: %v", err)
	}

	disabled := NewAttachmentService(storage.Disabled{}, zap.NewNop())
	if _, err := disabled.PresignURL(ctx, "u1", model.RoleIntern, "u1/abc.pdf"); !errors.Is(err, ErrAttachmentDisabled) {
		t.Errorf("期望 ErrAttachmentDisabled，实际: %v", err)
	}
}
