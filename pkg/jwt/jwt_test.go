package jwt

import (
	"testing"
	"time"

	"timeclock/config"
)

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:               "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 7 * 24 * time.Hour,
	})
}

var internIdentity = Identity{UserID: "user-1", Role: "intern", Code: "I001"}

func TestGenerateAndParseAccessToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken(internIdentity)
	if err != nil {
		t.Fatalf("GenerateAccessToken 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}

	if claims.Identity() != internIdentity {
		t.Errorf("期望身份=%+v，实际=%+v", internIdentity, claims.Identity())
	}
	if claims.TokenType != "access" {
		t.Errorf("期望 TokenType=access，实际=%s", claims.TokenType)
	}
	if claims.Issuer != "timeclock" {
		t.Errorf("期望 Issuer=timeclock，实际=%s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("JTI 不应为空")
	}
}

func TestGenerateRefreshToken_TTL(t *testing.T) {
	m := newTestManager()

	cases := []struct {
		name       string
		rememberMe bool
		min, max   time.Duration
	}{
		{"默认", false, 23 * time.Hour, 25 * time.Hour},
		{"记住我", true, 6 * 24 * time.Hour, 8 * 24 * time.Hour},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := m.GenerateRefreshToken(internIdentity, tc.rememberMe)
			if err != nil {
				t.Fatalf("GenerateRefreshToken 失败: %v", err)
			}
			claims, err := m.ParseToken(token)
			if err != nil {
				t.Fatalf("ParseToken 失败: %v", err)
			}
			if claims.TokenType != "refresh" {
				t.Errorf("期望 TokenType=refresh，实际=%s", claims.TokenType)
			}
			if claims.RememberMe != tc.rememberMe {
				t.Errorf("期望 RememberMe=%v", tc.rememberMe)
			}
			ttl := time.Until(claims.ExpiresAt.Time)
			if ttl < tc.min || ttl > tc.max {
				t.Errorf("RefreshToken TTL 超出预期范围，实际=%v", ttl)
			}
		})
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	m := newTestManager()

	if _, err := m.ParseToken("invalid.token.string"); err != ErrTokenInvalid {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := newTestManager()
	m2 := NewManager(&config.AuthConfig{
		JWTSecret:      "different-secret-key",
		AccessTokenTTL: 15 * time.Minute,
	})

	token, _ := m1.GenerateAccessToken(internIdentity)
	if _, err := m2.ParseToken(token); err == nil {
		t.Error("不同密钥签名的 token 不应通过验证")
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	m := newTestManager()
	// 将签发时间拨回两小时前，Access Token 15 分钟后即过期
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _ := m.GenerateAccessToken(internIdentity)

	_, err := m.ParseToken(token)
	if err != ErrTokenExpired {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}
