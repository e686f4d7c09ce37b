package filter

import (
	"strings"
	"time"

	"star-spark/internal/domain"
)

// EligibilityFilter 实现了 port.Filter 接口
// 所有规则按 AND 组合：时间窗、语言、topic、最低 Star 数、是否归档
type EligibilityFilter struct{}

// NewEligibilityFilter 创建新的过滤器实例
func NewEligibilityFilter() *EligibilityFilter {
	return &EligibilityFilter{}
}

// Apply 返回同时满足时间窗和用户条件的仓库，顺序保持不变
// criteria 为 nil 或里面的列表为空都表示该维度不限制
func (f *EligibilityFilter) Apply(repos []*domain.StarredRepo, criteria *domain.FilterCriteria, windowStart time.Time) []*domain.StarredRepo {
	filtered := make([]*domain.StarredRepo, 0, len(repos))
	for _, repo := range repos {
		if !inWindow(repo, windowStart) {
			continue
		}
		if !matchesCriteria(repo, criteria) {
			continue
		}
		filtered = append(filtered, repo)
	}
	return filtered
}

// inWindow 没有 starred_at 的仓库 (公开接口拉的) 一律算在窗口内
func inWindow(repo *domain.StarredRepo, windowStart time.Time) bool {
	if repo.StarredAt == nil {
		return true
	}
	return !repo.StarredAt.Before(windowStart)
}

func matchesCriteria(repo *domain.StarredRepo, criteria *domain.FilterCriteria) bool {
	// 没设条件按全零值处理：不限语言/topic/Star 数，但归档的默认还是要排除
	if criteria == nil {
		criteria = &domain.FilterCriteria{}
	}

	// 语言限制只对有语言标注的仓库生效，没标语言的直接放行
	if len(criteria.Languages) > 0 && repo.Language != "" {
		if !containsFold(criteria.Languages, repo.Language) {
			return false
		}
	}

	// topic 限制要求至少命中一个
	if len(criteria.Topics) > 0 {
		if !intersectsFold(criteria.Topics, repo.Topics) {
			return false
		}
	}

	if criteria.MinimumStars > 0 && repo.Stars < criteria.MinimumStars {
		return false
	}

	if !criteria.IncludeArchived && repo.Archived {
		return false
	}

	return true
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

func intersectsFold(list, other []string) bool {
	for _, item := range other {
		if containsFold(list, item) {
			return true
		}
	}
	return false
}
