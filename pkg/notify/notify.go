// Package notify 向实习生与管理频道推送考勤提醒
package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"timeclock/config"
)

// Notifier 消息推送接口
type Notifier interface {
	// NotifyUser 私信指定用户（Slack 用户 ID）
	NotifyUser(ctx context.Context, slackUserID, message string) error
	// Broadcast 发送到管理信息频道
	Broadcast(ctx context.Context, message string) error
}

// Slack 基于 Slack Bot 的推送实现
type Slack struct {
	client        *slack.Client
	infoChannelID string
}

// NewSlack 创建 Slack 推送器，opts 用于测试时替换 API 地址
func NewSlack(cfg *config.SlackConfig, opts ...slack.Option) *Slack {
	return &Slack{
		client:        slack.New(cfg.BotToken, opts...),
		infoChannelID: cfg.InfoChannelID,
	}
}

func (s *Slack) postMessage(ctx context.Context, channelID, message string) error {
	if channelID == "" {
		return fmt.Errorf("Slack 频道为空")
	}
	_, _, err := s.client.PostMessageContext(ctx,
		channelID,
		slack.MsgOptionText(message, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		return fmt.Errorf("发送 Slack 消息失败: %w", err)
	}
	return nil
}

// NotifyUser 私信用户；Slack 允许以用户 ID 作为频道直接发送 DM
func (s *Slack) NotifyUser(ctx context.Context, slackUserID, message string) error {
	return s.postMessage(ctx, slackUserID, message)
}

// Broadcast 发送到信息频道
func (s *Slack) Broadcast(ctx context.Context, message string) error {
	return s.postMessage(ctx, s.infoChannelID, message)
}

// Nop 未启用推送时使用，仅记录日志
type Nop struct {
	logger *zap.Logger
}

// NewNop 创建空推送器
func NewNop(logger *zap.Logger) *Nop {
	return &Nop{logger: logger}
}

func (n *Nop) NotifyUser(_ context.Context, slackUserID, message string) error {
	n.logger.Debug("推送未启用，跳过私信", zap.String("slack_user_id", slackUserID), zap.String("message", message))
	return nil
}

func (n *Nop) Broadcast(_ context.Context, message string) error {
	n.logger.Debug("推送未启用，跳过广播", zap.String("message", message))
	return nil
}

// New 根据功能开关选择实现
func New(cfg *config.Config, logger *zap.Logger) Notifier {
	if cfg.Feature.SlackEnabled {
		return NewSlack(&cfg.Slack)
	}
	return NewNop(logger)
}
