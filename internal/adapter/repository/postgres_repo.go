package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"star-spark/internal/common"
	"star-spark/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresRepo 实现了 port.UserStore 和 port.ReminderStore 接口
type PostgresRepo struct {
	db *gorm.DB
}

// NewPostgresRepo 初始化数据库连接并自动迁移表结构
func NewPostgresRepo(dsn string) (*PostgresRepo, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// AutoMigrate 自动建表，字段变了也会跟着更新
	err = db.AutoMigrate(&domain.User{}, &domain.OAuthToken{}, &domain.Reminder{})
	if err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return &PostgresRepo{db: db}, nil
}

// NewPostgresRepoWithDB 用现成的 gorm 连接构造 (测试用)
func NewPostgresRepoWithDB(db *gorm.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// ListNotifiable 返回所有配置了通知邮箱的用户
func (r *PostgresRepo) ListNotifiable(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	err := r.db.WithContext(ctx).
		Where("notification_email <> ''").
		Order("created_at asc").
		Find(&users).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询可通知用户失败", err)
	}
	return users, nil
}

// GetAccessToken 查用户最新的 GitHub 令牌
// 没有令牌返回 ("", nil)：走公开接口的正常路径，不是错误
func (r *PostgresRepo) GetAccessToken(ctx context.Context, userID string) (string, error) {
	var token domain.OAuthToken
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", common.WrapError(common.ErrCodeDatabase, "查询访问令牌失败", err)
	}
	return token.AccessToken, nil
}

// MarkDigestSent 发送成功后的记账，整体放在一个事务里：
// 更新用户的 last_digest_sent_at，并对摘要里每个仓库 upsert 一条 Reminder
// 任何一步失败整个事务回滚，避免记账只写了一半
func (r *PostgresRepo) MarkDigestSent(ctx context.Context, userID string, items []*domain.DigestItem, sentAt time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.User{}).
			Where("id = ?", userID).
			Update("last_digest_sent_at", sentAt).Error; err != nil {
			return err
		}

		for _, item := range items {
			reminder := &domain.Reminder{
				UserID:          userID,
				RepoID:          item.ID,
				RepoFullName:    item.FullName,
				RepoDescription: item.Description,
				Language:        item.Language,
				HTMLURL:         item.HTMLURL,
				Topics:          strings.Join(item.Topics, ","),
				StarDate:        item.StarredAt,
				LastSentAt:      sentAt,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "repo_id"}},
				UpdateAll: true,
			}).Create(reminder).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return common.WrapError(common.ErrCodeDatabase, "摘要发送记账失败", err)
	}
	return nil
}
