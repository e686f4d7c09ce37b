package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"star-spark/internal/common"
	"star-spark/internal/domain"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
)

// 带上 star+json 才能拿到 {starred_at, repo} 信封
const mediaTypeStarJSON = "application/vnd.github.star+json"

// Fetcher 实现了 port.StarSource 接口
// 有令牌时先走认证接口 (/user/starred)，失败或没有令牌时
// 回退到公开接口 (/users/{username}/starred)
type Fetcher struct {
	public    *github.Client
	newAuthed func(ctx context.Context, token string) *github.Client
	perPage   int
	retryOpts []common.Option
}

// NewFetcher 初始化 GitHub 客户端
func NewFetcher() *Fetcher {
	return &Fetcher{
		public: github.NewClient(nil),
		newAuthed: func(ctx context.Context, token string) *github.Client {
			ts := oauth2.StaticTokenSource(
				&oauth2.Token{AccessToken: token},
			)
			tc := oauth2.NewClient(ctx, ts)
			return github.NewClient(tc)
		},
		perPage: 100,
		retryOpts: []common.Option{
			common.WithMaxRetries(2),
			common.WithInitialDelay(time.Second),
		},
	}
}

// FetchStarred 拉取用户 Star 过的全部仓库，最近 Star 的排在前面
// 两条路都失败时返回带 STARRED_FETCH_ERROR 错误码的错误，不凑合返回半截数据
func (f *Fetcher) FetchStarred(ctx context.Context, username, token string) ([]*domain.StarredRepo, error) {
	if token != "" {
		repos, err := f.listStarred(ctx, f.newAuthed(ctx, token), "")
		if err == nil {
			return repos, nil
		}
		log.Printf("⚠️ 认证接口拉取 Star 列表失败，回退到公开接口: %v", err)
	}

	repos, err := f.listStarred(ctx, f.public, username)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeStarredFetch,
			fmt.Sprintf("用户 %s 的 Star 列表拉取失败", username), err)
	}
	return repos, nil
}

// listStarred 逐页拉取并归一化，username 为空表示当前认证用户
func (f *Fetcher) listStarred(ctx context.Context, client *github.Client, username string) ([]*domain.StarredRepo, error) {
	var all []*domain.StarredRepo
	page := 1

	for {
		var raw []json.RawMessage
		var resp *github.Response
		err := common.Do(ctx, func() error {
			var apiErr error
			raw, resp, apiErr = f.fetchPage(ctx, client, username, page)
			return apiErr
		}, f.retryOpts...)
		if err != nil {
			return nil, fmt.Errorf("GitHub API 调用失败 (第 %d 页): %w", page, err)
		}

		for _, item := range raw {
			repo, err := normalizeStarred(item)
			if err != nil {
				log.Printf("⚠️ 跳过无法解析的 Star 记录: %v", err)
				continue
			}
			all = append(all, repo)
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}

	return all, nil
}

// fetchPage 拉取一页原始 JSON，保留原始报文交给 normalizeStarred 做形状识别
func (f *Fetcher) fetchPage(ctx context.Context, client *github.Client, username string, page int) ([]json.RawMessage, *github.Response, error) {
	path := "user/starred"
	if username != "" {
		path = fmt.Sprintf("users/%s/starred", username)
	}
	u := fmt.Sprintf("%s?sort=created&direction=desc&per_page=%d&page=%d", path, f.perPage, page)

	req, err := client.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", mediaTypeStarJSON)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	var raw []json.RawMessage
	resp, err := client.Do(ctx, req, &raw)
	if err != nil {
		return nil, resp, err
	}
	return raw, resp, nil
}

// normalizeStarred 把两种响应形状归一化成 domain.StarredRepo
// 形状一 (star+json 信封): {"starred_at": "...", "repo": {...}}
// 形状二 (扁平仓库对象): {"id": ..., "full_name": ..., "starred_at"?: "..."}
// 缺失的 owner/topics 等字段补空值，不报错
func normalizeStarred(data json.RawMessage) (*domain.StarredRepo, error) {
	var envelope struct {
		StarredAt *time.Time      `json:"starred_at"`
		Repo      json.RawMessage `json:"repo"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("解析 Star 记录失败: %w", err)
	}

	repoData := data
	if len(envelope.Repo) > 0 {
		repoData = envelope.Repo
	}

	var payload struct {
		ID          int64      `json:"id"`
		FullName    string     `json:"full_name"`
		Description *string    `json:"description"`
		Language    *string    `json:"language"`
		Stars       int        `json:"stargazers_count"`
		HTMLURL     string     `json:"html_url"`
		Archived    bool       `json:"archived"`
		Fork        bool       `json:"fork"`
		Topics      []string   `json:"topics"`
		CreatedAt   *time.Time `json:"created_at"`
		UpdatedAt   *time.Time `json:"updated_at"`
		StarredAt   *time.Time `json:"starred_at"` // 扁平形状偶尔内联携带
		Owner       *struct {
			Login     string `json:"login"`
			AvatarURL string `json:"avatar_url"`
			HTMLURL   string `json:"html_url"`
		} `json:"owner"`
	}
	if err := json.Unmarshal(repoData, &payload); err != nil {
		return nil, fmt.Errorf("解析仓库对象失败: %w", err)
	}

	repo := &domain.StarredRepo{
		ID:       payload.ID,
		FullName: payload.FullName,
		Stars:    payload.Stars,
		URL:      payload.HTMLURL,
		Archived: payload.Archived,
		Fork:     payload.Fork,
		Topics:   []string{},
	}
	if payload.Description != nil {
		repo.Description = *payload.Description
	}
	if payload.Language != nil {
		repo.Language = *payload.Language
	}
	if len(payload.Topics) > 0 {
		repo.Topics = payload.Topics
	}
	if payload.CreatedAt != nil {
		repo.CreatedAt = *payload.CreatedAt
	}
	if payload.UpdatedAt != nil {
		repo.UpdatedAt = *payload.UpdatedAt
	}
	if envelope.StarredAt != nil {
		repo.StarredAt = envelope.StarredAt
	} else if payload.StarredAt != nil {
		repo.StarredAt = payload.StarredAt
	}
	if payload.Owner != nil {
		repo.Owner = domain.Owner{
			Login:     payload.Owner.Login,
			AvatarURL: payload.Owner.AvatarURL,
			HTMLURL:   payload.Owner.HTMLURL,
		}
	}

	return repo, nil
}
