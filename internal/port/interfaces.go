package port

import (
	"context"
	"time"

	"star-spark/internal/domain"
)

// StarSource (采集员): 负责从 GitHub 拉取用户 Star 过的仓库
// token 为空时走公开接口 (按用户名查)，不算错误
type StarSource interface {
	FetchStarred(ctx context.Context, username, token string) ([]*domain.StarredRepo, error)
}

// Filter (筛选员): 对拉回来的仓库做时间窗 + 用户条件过滤
// criteria 为 nil 表示用户没设任何条件
type Filter interface {
	Apply(repos []*domain.StarredRepo, criteria *domain.FilterCriteria, windowStart time.Time) []*domain.StarredRepo
}

// Clusterer (策展员): 把筛选后的仓库分进主题高亮组
// 空组不返回，整体可能返回空切片 (表示这轮没东西可发)
type Clusterer interface {
	BuildHighlights(repos []*domain.StarredRepo, now time.Time) []*domain.Highlight
}

// UserStore (档案员): 提供用户目录和访问令牌
type UserStore interface {
	// ListNotifiable 只返回配置了通知邮箱的用户
	ListNotifiable(ctx context.Context) ([]*domain.User, error)

	// GetAccessToken 查用户的 GitHub 令牌，没有时返回 ("", nil)
	GetAccessToken(ctx context.Context, userID string) (string, error)
}

// ReminderStore (记账员): 发送成功后的持久化记录
type ReminderStore interface {
	// MarkDigestSent 在一个事务里更新用户的 lastDigestSentAt
	// 并对摘要里的每个仓库 upsert 一条 Reminder 记录
	MarkDigestSent(ctx context.Context, userID string, items []*domain.DigestItem, sentAt time.Time) error
}

// Mailer (信使): 渲染并投递摘要邮件
type Mailer interface {
	// Configured 投递通道是否可用 (比如 API Key 是否配置)
	Configured() bool

	// SendDigest 发送失败必须返回错误，调用方据此决定是否记账
	SendDigest(ctx context.Context, to string, digest *domain.Digest, username string) error
}
