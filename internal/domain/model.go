package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Cadence 摘要发送频率 (对应用户设置里的枚举值)
type Cadence string

const (
	CadenceDaily    Cadence = "DAILY"
	CadenceWeekly   Cadence = "WEEKLY"
	CadenceBiweekly Cadence = "BIWEEKLY"
	CadenceMonthly  Cadence = "MONTHLY"
)

// DefaultCadence 新用户默认每周一封
const DefaultCadence = CadenceWeekly

// Days 返回频率对应的间隔天数，未知值按每周处理
func (c Cadence) Days() int {
	switch c {
	case CadenceDaily:
		return 1
	case CadenceWeekly:
		return 7
	case CadenceBiweekly:
		return 14
	case CadenceMonthly:
		return 30
	default:
		return 7
	}
}

// IsDue 判断是否到了该发摘要的时间
// lastSentAt 为 nil 表示从未发送过，任何时候都算到期
// 按真实流逝时间算 (7 天 = 168 小时)，不按自然日切
func (c Cadence) IsDue(lastSentAt *time.Time, now time.Time) bool {
	if lastSentAt == nil {
		return true
	}
	interval := time.Duration(c.Days()) * 24 * time.Hour
	return now.Sub(*lastSentAt) >= interval
}

// FilterCriteria 用户自定义的筛选条件
// 列表为空 (或整个对象缺失) 表示不做限制，而不是什么都不匹配
type FilterCriteria struct {
	Languages       []string `json:"languages,omitempty"`
	Topics          []string `json:"topics,omitempty"`
	MinimumStars    int      `json:"minimumStars,omitempty"`
	IncludeArchived bool     `json:"includeArchived,omitempty"`
}

// ParseFilterCriteria 从持久层存的 JSON 字符串解析筛选条件
// 空串或解析失败一律返回 nil (当成没有任何限制)，不报错
func ParseFilterCriteria(raw string) *FilterCriteria {
	if raw == "" {
		return nil
	}
	var criteria FilterCriteria
	if err := json.Unmarshal([]byte(raw), &criteria); err != nil {
		return nil
	}
	return &criteria
}

// SerializeFilterCriteria 序列化筛选条件用于存库，空条件存空串
func SerializeFilterCriteria(criteria *FilterCriteria) string {
	if criteria == nil {
		return ""
	}
	if len(criteria.Languages) == 0 && len(criteria.Topics) == 0 &&
		criteria.MinimumStars == 0 && !criteria.IncludeArchived {
		return ""
	}
	data, err := json.Marshal(criteria)
	if err != nil {
		return ""
	}
	return string(data)
}

// Owner 仓库拥有者的摘要信息
type Owner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

// StarredRepo 用户 Star 过的一个仓库 (每轮重新抓取，不落库)
type StarredRepo struct {
	ID          int64      `json:"id"`
	FullName    string     `json:"full_name"` // 例如 "gohugoio/hugo"
	Description string     `json:"description"`
	Language    string     `json:"language"`
	Stars       int        `json:"stargazers_count"`
	URL         string     `json:"html_url"`
	Archived    bool       `json:"archived"`
	Fork        bool       `json:"fork"`
	Topics      []string   `json:"topics"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StarredAt   *time.Time `json:"starred_at,omitempty"` // 公开接口可能不带
	Owner       Owner      `json:"owner"`
}

// Name 取 "owner/repo" 里的仓库名部分
func (r *StarredRepo) Name() string {
	if idx := strings.Index(r.FullName, "/"); idx >= 0 && idx+1 < len(r.FullName) {
		return r.FullName[idx+1:]
	}
	return r.FullName
}

// DigestItem 摘要里的一条仓库，附带随机 vibe 文案
type DigestItem struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	FullName    string     `json:"fullName"`
	HTMLURL     string     `json:"htmlUrl"`
	Description string     `json:"description"`
	Language    string     `json:"language"`
	Stars       int        `json:"stargazers"`
	Topics      []string   `json:"topics"`
	StarredAt   *time.Time `json:"starredAt,omitempty"`
	Owner       Owner      `json:"owner"`
	Vibe        string     `json:"vibe"`
}

// Highlight 一组主题高亮，最多 3 条
type Highlight struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Tagline string        `json:"tagline"`
	Items   []*DigestItem `json:"items"`
}

// Digest 最终要发出去的摘要
// Highlights 按 Fresh → Throwback → Language → Serendipity 排列，空组直接省略
type Digest struct {
	Title      string       `json:"title"`
	Intro      string       `json:"intro"`
	Highlights []*Highlight `json:"highlights"`
}

// Items 摊平所有高亮组里的条目 (用于逐仓库记账)
func (d *Digest) Items() []*DigestItem {
	var items []*DigestItem
	for _, h := range d.Highlights {
		items = append(items, h.Items...)
	}
	return items
}

// User 订阅摘要的用户 (由 OAuth 登录流程创建，这里只读+更新发送时间)
type User struct {
	ID                string     `json:"id" gorm:"primaryKey"`
	GithubID          string     `json:"github_id"`
	Username          string     `json:"username"`
	AvatarURL         string     `json:"avatar_url"`
	Email             string     `json:"email"`
	NotificationEmail string     `json:"notification_email"` // 为空表示不发邮件
	Cadence           Cadence    `json:"cadence"`
	Filters           string     `json:"filters" gorm:"type:text"` // FilterCriteria 的 JSON
	LastDigestSentAt  *time.Time `json:"last_digest_sent_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// OAuthToken 用户授权的 GitHub 访问令牌
type OAuthToken struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"index"`
	AccessToken string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Reminder 每条已发送摘要仓库的记账记录
// 只写不读：留档用，不参与后续摘要的去重
type Reminder struct {
	UserID          string     `json:"user_id" gorm:"primaryKey"`
	RepoID          int64      `json:"repo_id" gorm:"primaryKey"`
	RepoFullName    string     `json:"repo_full_name"`
	RepoDescription string     `json:"repo_description" gorm:"type:text"`
	Language        string     `json:"language"`
	HTMLURL         string     `json:"html_url"`
	Topics          string     `json:"topics"` // 逗号拼接，纯展示留档
	StarDate        *time.Time `json:"star_date"`
	LastSentAt      time.Time  `json:"last_sent_at"`
}
