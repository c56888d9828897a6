package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"timeclock/config"
)

type fakeS3 struct {
	puts    map[string]string
	deleted []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, _ := io.ReadAll(in.Body)
	f.puts[aws.ToString(in.Key)] = string(b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func newTestStore() (*S3Store, *fakeS3) {
	presignBase := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String("http://localhost:9000"),
		UsePathStyle: true,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKID", SecretAccessKey: "SECRET"}, nil
		}),
	})
	fake := &fakeS3{puts: map[string]string{}}
	store := newS3Store(fake, s3.NewPresignClient(presignBase), &config.StorageConfig{
		Bucket:    "timeclock",
		KeyPrefix: "attachments/",
	})
	return store, fake
}

func TestS3Store_PutAndDelete(t *testing.T) {
	store, fake := newTestStore()
	ctx := context.Background()

	if err := store.Put(ctx, "leave/1/cert.pdf", strings.NewReader("pdf"), "application/pdf"); err != nil {
		t.Fatalf("Put 失败: %v", err)
	}
	if fake.puts["attachments/leave/1/cert.pdf"] != "pdf" {
		t.Errorf("对象 key 或内容不符: %v", fake.puts)
	}

	if err := store.Delete(ctx, "/leave/1/cert.pdf"); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "attachments/leave/1/cert.pdf" {
		t.Errorf("删除 key 不符: %v", fake.deleted)
	}
}

func TestS3Store_PresignGet(t *testing.T) {
	store, _ := newTestStore()

	url, err := store.PresignGet(context.Background(), "leave/1/cert.pdf")
	if err != nil {
		t.Fatalf("PresignGet 失败: %v", err)
	}
	if !strings.Contains(url, "/timeclock/attachments/leave/1/cert.pdf") {
		t.Errorf("下载链接路径不符: %s", url)
	}
	if !strings.Contains(url, "X-Amz-Signature=") {
		t.Errorf("下载链接缺少签名: %s", url)
	}
}

func TestDisabled(t *testing.T) {
	var s ObjectStore = Disabled{}
	if err := s.Put(context.Background(), "k", strings.NewReader(""), "text/plain"); !errors.Is(err, ErrDisabled) {
		t.Errorf("期望 ErrDisabled，实际: %v", err)
	}
	if _, err := s.PresignGet(context.Background(), "k"); !errors.Is(err, ErrDisabled) {
		t.Errorf("期望 ErrDisabled，实际: %v", err)
	}
}
